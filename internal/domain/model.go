// Package domain defines the three data-flow units of the simulator —
// Request, Transaction, Command — as plain records linked by arena
// indices rather than pointers: a Command never outlives its Request,
// modeled here as an int request id into the Request arena
// (internal/slab.Arena) instead of a live back-pointer, so the graph
// between units never forms a cycle.
package domain

import (
	"github.com/ehrlich-b/dramsim/internal/addr"
	"github.com/ehrlich-b/dramsim/internal/timing"
)

// NoRequest marks a Command with no data back-pointer (ACTIVATE,
// PRECHARGE, REFRESH, POWERUP, POWERDOWN all carry this).
const NoRequest = -1

// Unset marks a Request whose data beat has not yet completed.
const Unset int64 = -1

// Request is the user-visible unit. It lives in a Controller's Request
// arena from submit() until its ReleaseTime has elapsed and the retire
// phase reclaims it.
type Request struct {
	ID           int
	Address      uint64
	IsWrite      bool
	AllocateTime int64
	ReleaseTime  int64
}

// NewRequest returns a Request admitted at allocateTime, not yet
// retired.
func NewRequest(address uint64, isWrite bool, allocateTime int64) Request {
	return Request{
		Address:      address,
		IsWrite:      isWrite,
		AllocateTime: allocateTime,
		ReleaseTime:  Unset,
	}
}

// Retired reports whether the request's data beat has completed.
func (r Request) Retired() bool { return r.ReleaseTime != Unset }

// Transaction is a Request's in-flight decomposition: created when the
// Request crosses the transaction_delay gate, destroyed once its data
// command has been emitted.
type Transaction struct {
	RequestID int
	Coords    addr.Coordinates
	IsWrite   bool
}

// Command is the atomic unit scheduled on the command bus.
type Command struct {
	Type       timing.CommandType
	Coords     addr.Coordinates
	IssueTime  int64
	FinishTime int64
	RequestID  int // NoRequest if this command carries no data beat
}

// HasRequest reports whether this command carries a Request back-pointer.
func (c Command) HasRequest() bool { return c.RequestID != NoRequest }
