package timing

import "github.com/ehrlich-b/dramsim/internal/config"

// BankState is one bank's row buffer and the four next-legal timestamps
// that gate commands targeting it. RowTag is the open row number, or -1
// when the bank is precharged; exactly one of ActReadyTime/PreReadyTime
// is non-negative at any time, matching which half of the open/closed
// cycle the bank is in.
type BankState struct {
	t *config.Timing

	RowTag int32
	Hits   int

	// DemandCount/SupplyCount are maintained by the scheduler, not by
	// readyTime/finish math: Transactions queued targeting this bank,
	// and of those, the ones matching the currently open row.
	DemandCount int
	SupplyCount int

	ActReadyTime   int64
	PreReadyTime   int64
	ReadReadyTime  int64
	WriteReadyTime int64
}

// NewBankState returns a freshly reset (precharged, row -1) bank gated by
// the given raw timing parameters. Bank-scope math uses the raw Timing
// values directly per the DRAM command-effect table rather than the
// derived.Bank shortcuts, which fold in an extra act_to_any term the
// ChannelState tracks separately (see internal/config/derived.go and
// DESIGN.md).
func NewBankState(t *config.Timing) *BankState {
	return &BankState{
		t:            t,
		RowTag:       -1,
		ActReadyTime: 0,
		PreReadyTime: notReady,
	}
}

// IsOpen reports whether a row is currently active in the row buffer.
func (b *BankState) IsOpen() bool { return b.RowTag >= 0 }

// Row returns the open row number, or -1 if the bank is precharged.
func (b *BankState) Row() int32 { return b.RowTag }

// ReadyTime returns the earliest cycle the given command is legal from
// this bank's state alone. row is only consulted for data commands,
// where it must match RowTag for a row hit.
func (b *BankState) ReadyTime(cmd CommandType, row uint32) int64 {
	switch cmd {
	case ACTIVATE:
		if b.IsOpen() {
			return notReady
		}
		return b.ActReadyTime
	case PRECHARGE:
		if !b.IsOpen() {
			return notReady
		}
		return b.PreReadyTime
	case READ, READ_AP:
		if !b.IsOpen() || uint32(b.RowTag) != row {
			return notReady
		}
		return b.ReadReadyTime
	case WRITE, WRITE_AP:
		if !b.IsOpen() || uint32(b.RowTag) != row {
			return notReady
		}
		return b.WriteReadyTime
	case REFRESH:
		// A whole-rank refresh needs every bank precharged; the rank
		// folds this bank's ACT readiness into its own REFRESH check.
		if b.IsOpen() {
			return notReady
		}
		return b.ActReadyTime
	default:
		return notReady
	}
}

// Finish applies cmd's effect to the bank's row tag and ready-time
// timestamps, taking effect at clk (the command's issue cycle), and
// returns the data/command completion cycle.
func (b *BankState) Finish(clk int64, cmd CommandType, row uint32) int64 {
	t := b.t
	switch cmd {
	case ACTIVATE:
		b.ActReadyTime = notReady
		b.PreReadyTime = clk + int64(t.TRAS)
		readyAt := clk + int64(t.TRCD) - int64(t.TAL)
		b.ReadReadyTime = readyAt
		b.WriteReadyTime = readyAt
		b.RowTag = int32(row)
		b.Hits = 0
		return clk

	case PRECHARGE:
		b.ActReadyTime = clk + int64(t.TRP)
		b.PreReadyTime = notReady
		b.ReadReadyTime = notReady
		b.WriteReadyTime = notReady
		b.RowTag = -1
		return clk

	case READ:
		extra := int64(t.TRTP) - int64(t.TCCD)
		if extra < 0 {
			extra = 0
		}
		b.PreReadyTime = max64(b.PreReadyTime, clk+int64(t.TAL)+int64(t.TBL)+extra)
		b.Hits++
		return clk + int64(t.TAL) + int64(t.TCL) + int64(t.TBL)

	case WRITE:
		b.PreReadyTime = max64(b.PreReadyTime, clk+int64(t.TAL)+int64(t.TCWL)+int64(t.TBL)+int64(t.TWR))
		b.Hits++
		return clk + int64(t.TAL) + int64(t.TCWL) + int64(t.TBL)

	case READ_AP:
		extra := int64(t.TRTP) - int64(t.TCCD)
		if extra < 0 {
			extra = 0
		}
		b.ActReadyTime = clk + int64(t.TAL) + int64(t.TBL) + extra + int64(t.TRP)
		b.PreReadyTime = notReady
		b.ReadReadyTime = notReady
		b.WriteReadyTime = notReady
		b.RowTag = -1
		return clk + int64(t.TAL) + int64(t.TCL) + int64(t.TBL)

	case WRITE_AP:
		b.ActReadyTime = clk + int64(t.TAL) + int64(t.TCWL) + int64(t.TBL) + int64(t.TWR) + int64(t.TRP)
		b.PreReadyTime = notReady
		b.ReadReadyTime = notReady
		b.WriteReadyTime = notReady
		b.RowTag = -1
		return clk + int64(t.TAL) + int64(t.TCWL) + int64(t.TBL)

	case REFRESH:
		b.ActReadyTime = clk + int64(t.TRFC)
		b.PreReadyTime = notReady
		b.ReadReadyTime = notReady
		b.WriteReadyTime = notReady
		b.RowTag = -1
		return clk

	default:
		return clk
	}
}
