// Package stats accumulates the counters and energy totals the core
// reports through stats(), and doubles as an interfaces.Observer so the
// scheduler can feed it events without importing it back (mirroring the
// teacher's metrics.go atomic-counter Metrics type plus its
// Observer/MetricsObserver split). It also exposes the same counters as
// Prometheus gauges/counters, grounded on the pack's
// etalazz-vsa/cmd/tfd-sim/main.go prometheus.NewCounter +
// reg.MustRegister + promhttp.Handler() wiring.
package stats

import (
	"strconv"
	"sync/atomic"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/ehrlich-b/dramsim/internal/config"
	"github.com/ehrlich-b/dramsim/internal/interfaces"
)

// Counters holds the per-command-type tallies and accumulated energy
// for one bank, rank, or channel scope.
type Counters struct {
	Activates  atomic.Uint64
	Precharges atomic.Uint64
	Reads      atomic.Uint64
	Writes     atomic.Uint64
	Refreshes  atomic.Uint64
	EnergyNJ   atomic.Uint64
}

func (c *Counters) observe(cmdType string) {
	switch cmdType {
	case "ACTIVATE":
		c.Activates.Add(1)
	case "PRECHARGE":
		c.Precharges.Add(1)
	case "READ", "READ_AP":
		c.Reads.Add(1)
	case "WRITE", "WRITE_AP":
		c.Writes.Add(1)
	case "REFRESH":
		c.Refreshes.Add(1)
	}
}

func (c *Counters) addEnergy(nj float64) {
	if nj != 0 {
		c.EnergyNJ.Add(uint64(nj))
	}
}

// Snapshot is a point-in-time read of Counters.
type Snapshot struct {
	Activates, Precharges, Reads, Writes, Refreshes uint64
	EnergyNJ                                        uint64
}

func (c *Counters) Snapshot() Snapshot {
	return Snapshot{
		Activates:  c.Activates.Load(),
		Precharges: c.Precharges.Load(),
		Reads:      c.Reads.Load(),
		Writes:     c.Writes.Load(),
		Refreshes:  c.Refreshes.Load(),
		EnergyNJ:   c.EnergyNJ.Load(),
	}
}

// Collector accumulates energy and per-scope command counters across
// every channel/rank/bank, plus retirement latency, and satisfies
// interfaces.Observer.
type Collector struct {
	energy config.Energy

	perChannel []*Counters
	perRank    [][]*Counters
	perBank    [][][]*Counters

	energyTotalNJ atomic.Uint64
	retiredCount  atomic.Uint64
	latencySumCy  atomic.Int64

	prom *promMetrics
}

type promMetrics struct {
	commands   *prometheus.CounterVec
	retired    prometheus.Counter
	latency    prometheus.Histogram
	energy     prometheus.Counter
	queueDepth *prometheus.GaugeVec
}

// New builds a Collector sized for nChannel/nRank/nBank and registers its
// Prometheus metrics with reg (pass nil to skip Prometheus registration
// entirely, e.g. in unit tests).
func New(derived config.Derived, nChannel, nRank, nBank int, reg prometheus.Registerer) *Collector {
	c := &Collector{energy: derived.Energy}

	c.perChannel = make([]*Counters, nChannel)
	c.perRank = make([][]*Counters, nChannel)
	c.perBank = make([][][]*Counters, nChannel)
	for ch := 0; ch < nChannel; ch++ {
		c.perChannel[ch] = &Counters{}
		c.perRank[ch] = make([]*Counters, nRank)
		c.perBank[ch] = make([][]*Counters, nRank)
		for r := 0; r < nRank; r++ {
			c.perRank[ch][r] = &Counters{}
			c.perBank[ch][r] = make([]*Counters, nBank)
			for b := 0; b < nBank; b++ {
				c.perBank[ch][r][b] = &Counters{}
			}
		}
	}

	if reg != nil {
		pm := &promMetrics{
			commands: prometheus.NewCounterVec(prometheus.CounterOpts{
				Name: "dramsim_commands_total",
				Help: "DRAM commands issued, by type.",
			}, []string{"type"}),
			retired: prometheus.NewCounter(prometheus.CounterOpts{
				Name: "dramsim_requests_retired_total",
				Help: "Requests whose data beat has completed.",
			}),
			latency: prometheus.NewHistogram(prometheus.HistogramOpts{
				Name:    "dramsim_request_latency_cycles",
				Help:    "Request latency in simulated clock cycles.",
				Buckets: prometheus.ExponentialBuckets(4, 2, 12),
			}),
			energy: prometheus.NewCounter(prometheus.CounterOpts{
				Name: "dramsim_energy_total",
				Help: "Accumulated energy in the config's IDD-current units.",
			}),
			queueDepth: prometheus.NewGaugeVec(prometheus.GaugeOpts{
				Name: "dramsim_queue_depth",
				Help: "Current occupancy of a per-channel queue.",
			}, []string{"channel", "queue"}),
		}
		reg.MustRegister(pm.commands, pm.retired, pm.latency, pm.energy, pm.queueDepth)
		c.prom = pm
	}

	return c
}

// ObserveCommand implements interfaces.Observer.
func (c *Collector) ObserveCommand(channel, rank, bank int, cmdType string, issueTime, finishTime int64) {
	c.perChannel[channel].observe(cmdType)
	c.perRank[channel][rank].observe(cmdType)
	c.perBank[channel][rank][bank].observe(cmdType)

	var e float64
	switch cmdType {
	case "ACTIVATE":
		e = c.energy.Act
	case "READ", "READ_AP":
		e = c.energy.Read
	case "WRITE", "WRITE_AP":
		e = c.energy.Write
	case "REFRESH":
		e = c.energy.Refresh
	}
	c.addEnergy(channel, rank, bank, e)

	if c.prom != nil {
		c.prom.commands.WithLabelValues(cmdType).Inc()
		if e != 0 {
			c.prom.energy.Add(e)
		}
	}
}

// ObserveRetire implements interfaces.Observer.
func (c *Collector) ObserveRetire(channel int, isWrite bool, latency int64) {
	c.retiredCount.Add(1)
	c.latencySumCy.Add(latency)
	if c.prom != nil {
		c.prom.retired.Inc()
		c.prom.latency.Observe(float64(latency))
	}
}

// ObserveRefresh implements interfaces.Observer.
func (c *Collector) ObserveRefresh(channel, rank int) {}

// ObserveBackground implements interfaces.Observer: charges one cycle
// of background energy (IDD3N while powered up, IDD2Q while asleep) at
// channel and rank scope. There is no single bank responsible for a
// rank's background current, so bank-scope energy only ever reflects
// the commands issued against that bank.
func (c *Collector) ObserveBackground(channel, rank int, sleeping bool) {
	rate := c.energy.BackgroundActive
	if sleeping {
		rate = c.energy.BackgroundSleep
	}
	if rate == 0 {
		return
	}
	c.perChannel[channel].addEnergy(rate)
	c.perRank[channel][rank].addEnergy(rate)
	c.energyTotalNJ.Add(uint64(rate))
	if c.prom != nil {
		c.prom.energy.Add(rate)
	}
}

// ObserveQueueDepth implements interfaces.Observer.
func (c *Collector) ObserveQueueDepth(channel int, queue string, depth int) {
	if c.prom != nil {
		c.prom.queueDepth.WithLabelValues(strconv.Itoa(channel), queue).Set(float64(depth))
	}
}

// addEnergy charges a command's energy at every scope that counts it
// (channel, rank, and the bank it targeted) and into the running total.
func (c *Collector) addEnergy(channel, rank, bank int, nj float64) {
	if nj == 0 {
		return
	}
	c.perChannel[channel].addEnergy(nj)
	c.perRank[channel][rank].addEnergy(nj)
	c.perBank[channel][rank][bank].addEnergy(nj)
	c.energyTotalNJ.Add(uint64(nj))
}

// Report is the flattened report the core's stats() operation returns:
// retirement counters plus per-channel/rank/bank command and energy
// snapshots.
type Report struct {
	RetiredCount int64
	MeanLatency  float64
	EnergyTotal  uint64
	Channel      []Snapshot
	Rank         [][]Snapshot
	Bank         [][][]Snapshot
}

// Report builds a point-in-time Report from the Collector's counters.
func (c *Collector) Report() Report {
	r := Report{
		RetiredCount: int64(c.retiredCount.Load()),
		EnergyTotal:  c.energyTotalNJ.Load(),
	}
	if r.RetiredCount > 0 {
		r.MeanLatency = float64(c.latencySumCy.Load()) / float64(r.RetiredCount)
	}
	r.Channel = make([]Snapshot, len(c.perChannel))
	r.Rank = make([][]Snapshot, len(c.perRank))
	r.Bank = make([][][]Snapshot, len(c.perBank))
	for ch := range c.perChannel {
		r.Channel[ch] = c.perChannel[ch].Snapshot()
		r.Rank[ch] = make([]Snapshot, len(c.perRank[ch]))
		r.Bank[ch] = make([][]Snapshot, len(c.perBank[ch]))
		for rk := range c.perRank[ch] {
			r.Rank[ch][rk] = c.perRank[ch][rk].Snapshot()
			r.Bank[ch][rk] = make([]Snapshot, len(c.perBank[ch][rk]))
			for bk := range c.perBank[ch][rk] {
				r.Bank[ch][rk][bk] = c.perBank[ch][rk][bk].Snapshot()
			}
		}
	}
	return r
}

var _ interfaces.Observer = (*Collector)(nil)
