package timing

import "github.com/ehrlich-b/dramsim/internal/config"

// ChannelState owns a channel's ranks plus the shared command bus and
// the cross-rank data-bus turnaround constraints that only matter when
// consecutive data commands target different ranks. RankSelect is the
// rank that last drove the bus, or -1 before any command has issued.
type ChannelState struct {
	d     *config.ChannelTiming
	Ranks []*RankState

	AnyReadyTime   int64
	ReadReadyTime  int64
	WriteReadyTime int64
	RankSelect     int
}

// NewChannelState returns a freshly reset channel with nRank ranks of
// nBank banks each.
func NewChannelState(t *config.Timing, d *config.Derived, nRank, nBank int) *ChannelState {
	ranks := make([]*RankState, nRank)
	for i := range ranks {
		ranks[i] = NewRankState(t, &d.Rank, nBank)
	}
	return &ChannelState{
		d:          &d.Channel,
		Ranks:      ranks,
		RankSelect: -1,
	}
}

// ReadyTime returns the earliest cycle cmd is legal against
// (rank, bank, row), folding in the shared command bus and, for data
// commands crossing a rank boundary, the cross-rank turnaround penalty.
func (c *ChannelState) ReadyTime(cmd CommandType, rank, bank int, row uint32) int64 {
	base := c.Ranks[rank].ReadyTime(cmd, bank, row)
	if base == notReady {
		return notReady
	}
	ready := max64(base, c.AnyReadyTime)

	if cmd.IsData() && c.RankSelect >= 0 && rank != c.RankSelect {
		if cmd.IsRead() {
			ready = max64(ready, c.ReadReadyTime)
		} else {
			ready = max64(ready, c.WriteReadyTime)
		}
	}
	return ready
}

// Finish applies cmd's effect at clk against (rank, bank, row) and
// returns the data/command completion cycle. It updates the shared bus
// occupancy and, for ACT, adds the extra act_to_any command-bus delay on
// top of the ordinary command slot.
func (c *ChannelState) Finish(clk int64, cmd CommandType, rank, bank int, row uint32) int64 {
	return c.FinishAt(clk, clk, cmd, rank, bank, row)
}

// FinishAt is Finish with the bus-occupancy update computed against
// busClk instead of effectiveClk. The scheduler's lazy-precharge phase
// back-dates a PRECHARGE's bank/rank state to clk-max_row_idle while
// still checking and advancing the shared command bus against the
// real, causal clk, so the bus itself never appears busy in the past —
// effectiveClk and busClk diverge only in that path.
func (c *ChannelState) FinishAt(effectiveClk, busClk int64, cmd CommandType, rank, bank int, row uint32) int64 {
	finish := c.Ranks[rank].Finish(effectiveClk, cmd, bank, row)

	if cmd == ACTIVATE {
		c.AnyReadyTime = busClk + c.d.AnyToAny + c.d.ActToAny
	} else {
		c.AnyReadyTime = busClk + c.d.AnyToAny
	}

	switch {
	case cmd == READ || cmd == READ_AP:
		c.ReadReadyTime = effectiveClk + c.d.ReadToRead
		c.WriteReadyTime = effectiveClk + c.d.ReadToWrite
	case cmd == WRITE || cmd == WRITE_AP:
		c.ReadReadyTime = effectiveClk + c.d.WriteToRead
		c.WriteReadyTime = effectiveClk + c.d.WriteToWrite
	}

	c.RankSelect = rank
	return finish
}
