// Package hub implements the top-level demultiplexer that routes
// Requests to the right per-channel Controller by the address decoder's
// channel field and advances every controller exactly once per tick, in
// channel-id order.
package hub

import (
	"github.com/ehrlich-b/dramsim/internal/addr"
	"github.com/ehrlich-b/dramsim/internal/config"
	"github.com/ehrlich-b/dramsim/internal/interfaces"
	"github.com/ehrlich-b/dramsim/internal/scheduler"
)

// Hub owns one Controller per channel.
type Hub struct {
	cfg      config.Config
	mapping  addr.Mapping
	channels []*scheduler.Controller
}

// New builds a Hub with one Controller per channel implied by cfg's
// geometry, sharing the same derived timing table.
func New(cfg config.Config, log interfaces.Logger, obs interfaces.Observer) *Hub {
	derived := cfg.Derive()
	n := cfg.NChannel()
	channels := make([]*scheduler.Controller, n)
	for i := range channels {
		channels[i] = scheduler.New(i, cfg, &derived, log, obs)
	}
	return &Hub{cfg: cfg, mapping: cfg.Mapping(), channels: channels}
}

// Channels returns the per-channel controllers, for tests and reporting.
func (h *Hub) Channels() []*scheduler.Controller { return h.channels }

// Submit decodes address's channel field and enqueues a Request on that
// channel's Controller.
func (h *Hub) Submit(clk int64, address uint64, isWrite bool) bool {
	ch := h.mapping.Channel.Value(address)
	return h.channels[ch].Submit(clk, address, isWrite)
}

// Tick advances every controller by one cycle, in channel-id order, with
// no cross-channel synchronization.
func (h *Hub) Tick(clk int64) {
	for _, c := range h.channels {
		c.Tick(clk)
	}
}

// Report aggregates retirement counters across all channels.
type Report struct {
	Retired     int64
	MeanLatency float64
	PerChannel  []scheduler.Report
}

// Stats returns the hub-wide retirement report.
func (h *Hub) Stats() Report {
	var r Report
	r.PerChannel = make([]scheduler.Report, len(h.channels))
	var latencySum int64
	for i, c := range h.channels {
		cr := c.Stats()
		r.PerChannel[i] = cr
		r.Retired += cr.Retired
		latencySum += int64(cr.MeanLatency * float64(cr.Retired))
	}
	if r.Retired > 0 {
		r.MeanLatency = float64(latencySum) / float64(r.Retired)
	}
	return r
}
