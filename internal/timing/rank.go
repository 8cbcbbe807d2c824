package timing

import "github.com/ehrlich-b/dramsim/internal/config"

// RankState owns a rank's banks plus the cross-bank constraints that a
// single bank cannot enforce alone: the rolling tFAW activation window,
// read/write data-bus turnaround, refresh cadence, and power state.
// Rank-scope math uses the derived.Rank timings, which fold the raw
// per-command parameters into the handful of formulas this file needs.
type RankState struct {
	d     *config.RankTiming
	Banks []*BankState

	// DemandCount is maintained by the scheduler: Transactions queued
	// targeting this rank.
	DemandCount int

	ActiveCount int

	// RefreshTime is the next mandatory refresh cycle; maintained by the
	// scheduler's refresh-cadence phase.
	RefreshTime int64

	ActReadyTime int64
	Faw          [4]int64

	ReadReadyTime  int64
	WriteReadyTime int64

	IsSleeping       bool
	PowerupReadyTime int64
}

// NewRankState returns a freshly reset rank with nBank precharged banks.
func NewRankState(t *config.Timing, d *config.RankTiming, nBank int) *RankState {
	banks := make([]*BankState, nBank)
	for i := range banks {
		banks[i] = NewBankState(t)
	}
	return &RankState{
		d:                d,
		Banks:            banks,
		ActReadyTime:     0,
		PowerupReadyTime: notReady,
	}
}

// ReadyTime returns the earliest cycle cmd is legal against (bank, row),
// folding in the rank-scope constraints on top of the bank's own answer.
func (r *RankState) ReadyTime(cmd CommandType, bank int, row uint32) int64 {
	switch cmd {
	case ACTIVATE:
		base := r.Banks[bank].ReadyTime(ACTIVATE, row)
		if base == notReady {
			return notReady
		}
		return max64(max64(base, r.ActReadyTime), r.Faw[0])

	case READ, READ_AP:
		base := r.Banks[bank].ReadyTime(cmd, row)
		if base == notReady {
			return notReady
		}
		return max64(base, r.ReadReadyTime)

	case WRITE, WRITE_AP:
		base := r.Banks[bank].ReadyTime(cmd, row)
		if base == notReady {
			return notReady
		}
		return max64(base, r.WriteReadyTime)

	case PRECHARGE:
		return r.Banks[bank].ReadyTime(PRECHARGE, row)

	case REFRESH:
		ready := int64(0)
		for _, b := range r.Banks {
			br := b.ReadyTime(REFRESH, 0)
			if br == notReady {
				return notReady
			}
			ready = max64(ready, br)
		}
		return ready

	case POWERDOWN:
		if r.ActiveCount > 0 {
			return notReady
		}
		return 0

	case POWERUP:
		return r.PowerupReadyTime

	default:
		return notReady
	}
}

// Finish applies cmd's effect at clk against (bank, row) and returns the
// data/command completion cycle, propagating into the targeted bank
// first and then updating the rank-scope timestamps.
func (r *RankState) Finish(clk int64, cmd CommandType, bank int, row uint32) int64 {
	d := r.d
	switch cmd {
	case ACTIVATE:
		finish := r.Banks[bank].Finish(clk, ACTIVATE, row)
		r.ActReadyTime = clk + d.ActToAct
		r.Faw[0], r.Faw[1], r.Faw[2] = r.Faw[1], r.Faw[2], r.Faw[3]
		r.Faw[3] = clk + d.ActToFaw
		r.ActiveCount++
		return finish

	case PRECHARGE:
		finish := r.Banks[bank].Finish(clk, PRECHARGE, row)
		r.ActiveCount--
		return finish

	case READ:
		finish := r.Banks[bank].Finish(clk, READ, row)
		r.ReadReadyTime = clk + d.ReadToRead
		r.WriteReadyTime = clk + d.ReadToWrite
		return finish

	case WRITE:
		finish := r.Banks[bank].Finish(clk, WRITE, row)
		r.ReadReadyTime = clk + d.WriteToRead
		r.WriteReadyTime = clk + d.WriteToWrite
		return finish

	case READ_AP:
		finish := r.Banks[bank].Finish(clk, READ_AP, row)
		r.ReadReadyTime = clk + d.ReadToRead
		r.WriteReadyTime = clk + d.ReadToWrite
		r.ActiveCount--
		return finish

	case WRITE_AP:
		finish := r.Banks[bank].Finish(clk, WRITE_AP, row)
		r.ReadReadyTime = clk + d.WriteToRead
		r.WriteReadyTime = clk + d.WriteToWrite
		r.ActiveCount--
		return finish

	case REFRESH:
		for i, b := range r.Banks {
			b.Finish(clk, REFRESH, uint32(i))
		}
		r.ActReadyTime = clk + d.RefreshLatency
		for i := range r.Faw {
			r.Faw[i] = clk + d.RefreshLatency
		}
		r.ActiveCount = 0
		return clk

	case POWERDOWN:
		r.ActReadyTime = notReady
		for i := range r.Faw {
			r.Faw[i] = notReady
		}
		r.PowerupReadyTime = clk + d.PowerdownLatency
		r.IsSleeping = true
		return clk

	case POWERUP:
		r.ActReadyTime = clk + d.PowerupLatency
		for i := range r.Faw {
			r.Faw[i] = clk + d.PowerupLatency
		}
		r.PowerupReadyTime = notReady
		r.IsSleeping = false
		return clk

	default:
		return clk
	}
}
