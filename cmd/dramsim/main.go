// Command dramsim drives the simulator core against a trace file: load
// config (defaults, optional YAML file), replay the trace in
// arrival-cycle order, tick the clock, and print a stats report once
// the trace is exhausted and drained, or max-clock is reached.
package main

import (
	"flag"
	"fmt"
	"net/http"
	"os"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/ehrlich-b/dramsim"
	"github.com/ehrlich-b/dramsim/internal/config"
	"github.com/ehrlich-b/dramsim/internal/logging"
	"github.com/ehrlich-b/dramsim/internal/trace"
)

func main() {
	var (
		tracePath   = flag.String("trace", "", "path to a trace file (required)")
		cfgPath     = flag.String("config", "", "optional YAML config file overlaid on compiled-in defaults")
		maxClock    = flag.Int64("max-clock", 0, "stop after this many cycles (0 = run until trace exhausted and queues drain)")
		verbose     = flag.Bool("v", false, "verbose logging")
		metricsAddr = flag.String("metrics-addr", "", "if set, serve Prometheus metrics on this address (e.g. :9090)")
	)
	flag.Parse()

	if *tracePath == "" {
		fmt.Fprintln(os.Stderr, "dramsim: -trace is required")
		os.Exit(2)
	}

	logConfig := logging.DefaultConfig()
	if *verbose {
		logConfig.Level = logging.LevelDebug
	}
	logger := logging.NewLogger(logConfig)
	logging.SetDefault(logger)

	cfg := config.Default()
	if *cfgPath != "" {
		var err error
		cfg, err = config.LoadYAMLFile(cfg, *cfgPath)
		if err != nil {
			logger.Error("failed to load config", "path", *cfgPath, "error", err)
			os.Exit(1)
		}
	}

	var reg prometheus.Registerer
	if *metricsAddr != "" {
		registry := prometheus.NewRegistry()
		reg = registry
		http.Handle("/metrics", promhttp.HandlerFor(registry, promhttp.HandlerOpts{}))
		go func() {
			logger.Info("serving prometheus metrics", "addr", *metricsAddr)
			if err := http.ListenAndServe(*metricsAddr, nil); err != nil {
				logger.Error("metrics server stopped", "error", err)
			}
		}()
	}

	sim, err := dramsim.New(cfg, logger, reg)
	if err != nil {
		logger.Error("failed to build simulator", "error", err)
		os.Exit(1)
	}

	f, err := os.Open(*tracePath)
	if err != nil {
		logger.Error("failed to open trace", "path", *tracePath, "error", err)
		os.Exit(1)
	}
	defer f.Close()

	src := trace.NewReader(f)
	nextAddr, nextWrite, nextArrival, havePending, err := src.Next()
	if err != nil {
		logger.Error("failed to read trace", "error", err)
		os.Exit(1)
	}

	drainUntil := int64(-1)
	for clk := int64(0); ; clk++ {
		if *maxClock > 0 && clk > *maxClock {
			break
		}
		for havePending && nextArrival <= clk {
			if !sim.Submit(clk, nextAddr, nextWrite) {
				logger.Warn("request queue full, dropping reference", "clk", clk, "address", nextAddr)
			}
			nextAddr, nextWrite, nextArrival, havePending, err = src.Next()
			if err != nil {
				logger.Error("failed to read trace", "error", err)
				os.Exit(1)
			}
		}
		sim.Tick(clk)

		if !havePending {
			if drainUntil < 0 {
				// Give in-flight commands a refresh interval's worth of
				// cycles to retire before stopping.
				drainUntil = clk + int64(cfg.Timing.TREFI)
			}
			if clk >= drainUntil {
				break
			}
		}
	}

	report := sim.Stats()
	fmt.Printf("retired=%d mean_latency=%.2f energy_total=%d\n", report.RetiredCount, report.MeanLatency, report.EnergyTotal)
	for ch := range report.Channel {
		s := report.Channel[ch]
		fmt.Printf("channel %d: act=%d pre=%d read=%d write=%d refresh=%d\n",
			ch, s.Activates, s.Precharges, s.Reads, s.Writes, s.Refreshes)
	}
}
