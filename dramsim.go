// Package dramsim is the cycle-accurate DRAM memory controller simulator
// core: given a frozen Config, it reproduces the sequence of low-level
// DRAM commands a hardware controller would issue for a trace of memory
// references, and the instant each reference is retired.
//
// The core is single-threaded and deterministic: callers invoke Submit
// to enqueue references and Tick once per cycle, in strictly monotonic
// clock order.
package dramsim

import (
	"github.com/prometheus/client_golang/prometheus"

	"github.com/ehrlich-b/dramsim/internal/config"
	"github.com/ehrlich-b/dramsim/internal/hub"
	"github.com/ehrlich-b/dramsim/internal/interfaces"
	"github.com/ehrlich-b/dramsim/internal/stats"
)

// Logger is the narrow logging surface Simulator depends on; satisfied
// by *logging.Logger.
type Logger = interfaces.Logger

// Simulator is the top-level handle: build one with New, feed it
// Submit/Tick calls in clock order, and read Stats when done.
type Simulator struct {
	cfg        config.Config
	hub        *hub.Hub
	collector  *stats.Collector
	lastClock  int64
	haveTicked bool
}

// New builds a Simulator from cfg. It runs cfg.Validate() first and
// returns a *Error (ErrCodeInvalidConfig) if the timing table is
// pathological. reg may be nil to skip Prometheus registration.
func New(cfg config.Config, log Logger, reg prometheus.Registerer) (*Simulator, error) {
	if err := cfg.Validate(); err != nil {
		return nil, WrapConfigError("New", err)
	}
	derived := cfg.Derive()
	collector := stats.New(derived, cfg.NChannel(), cfg.NRank(), cfg.NBank(), reg)
	h := hub.New(cfg, log, collector)
	return &Simulator{cfg: cfg, hub: h, collector: collector}, nil
}

// Submit enqueues a Request; it returns false if the target channel's
// request queue is full.
func (s *Simulator) Submit(clk int64, address uint64, isWrite bool) bool {
	return s.hub.Submit(clk, address, isWrite)
}

// Tick advances the simulator by one cycle. clk must equal the previous
// call's clk + 1, or be the first call.
func (s *Simulator) Tick(clk int64) {
	s.hub.Tick(clk)
	s.lastClock = clk
	s.haveTicked = true
}

// Report is the flattened counters/energy/latency report Stats returns.
type Report = stats.Report

// Stats returns the current counters: per-bank act/pre/read/write
// counts; per-rank/channel energy totals; retired request count; mean
// latency.
func (s *Simulator) Stats() Report {
	return s.collector.Report()
}

// Config returns the frozen configuration this Simulator was built from.
func (s *Simulator) Config() config.Config { return s.cfg }
