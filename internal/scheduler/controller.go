// Package scheduler implements the per-channel Controller: the FR-FCFS
// transaction-to-command scheduler, refresh cadence, lazy precharge, and
// power-down opportunism, plus the addCommand issue guard. It is built
// directly on internal/timing's ready-time oracle.
package scheduler

import (
	"github.com/ehrlich-b/dramsim/internal/addr"
	"github.com/ehrlich-b/dramsim/internal/config"
	"github.com/ehrlich-b/dramsim/internal/domain"
	"github.com/ehrlich-b/dramsim/internal/interfaces"
	"github.com/ehrlich-b/dramsim/internal/invariant"
	"github.com/ehrlich-b/dramsim/internal/slab"
	"github.com/ehrlich-b/dramsim/internal/timing"
)

// Controller owns one channel's queues and timing state end to end:
// RequestQueue/TransactionQueue/CommandQueue plus the ChannelState that
// gates and mutates on every command.
type Controller struct {
	id      int
	cfg     config.Config
	mapping addr.Mapping
	nRank   int
	nBank   int

	channel *timing.ChannelState

	requests     *slab.Arena[domain.Request]
	requestQueue *slab.Queue[int]
	transactionQueue *slab.Queue[domain.Transaction]
	commandQueue *slab.Queue[domain.Command]

	log interfaces.Logger
	obs interfaces.Observer

	retiredCount int64
	latencySum   int64
}

// New returns a Controller for channel id, with refreshTime initialized
// per rank so rank r first refreshes at tREFI*(r+1)/nRank, staggering
// ranks' refresh cadences instead of bunching them together.
func New(id int, cfg config.Config, derived *config.Derived, log interfaces.Logger, obs interfaces.Observer) *Controller {
	nRank, nBank := cfg.NRank(), cfg.NBank()
	ch := timing.NewChannelState(&cfg.Timing, derived, nRank, nBank)
	for r := 0; r < nRank; r++ {
		ch.Ranks[r].RefreshTime = int64(cfg.Timing.TREFI) * int64(r+1) / int64(nRank)
	}
	return &Controller{
		id:               id,
		cfg:              cfg,
		mapping:          cfg.Mapping(),
		nRank:            nRank,
		nBank:            nBank,
		channel:          ch,
		requests:         slab.NewArena[domain.Request](cfg.Queues.Request),
		requestQueue:     slab.NewQueue[int](cfg.Queues.Request),
		transactionQueue: slab.NewQueue[domain.Transaction](cfg.Queues.Transaction),
		commandQueue:     slab.NewQueue[domain.Command](cfg.Queues.Command),
		log:              log,
		obs:              obs,
	}
}

// Channel returns the underlying timing state, for tests and reporting.
func (c *Controller) Channel() *timing.ChannelState { return c.channel }

// Submit enqueues a Request admitted at clk. It returns false if the
// request queue is full.
func (c *Controller) Submit(clk int64, address uint64, isWrite bool) bool {
	if c.requestQueue.Full() || c.requests.Full() {
		return false
	}
	req := domain.NewRequest(address, isWrite, clk)
	id, ok := c.requests.Alloc(req)
	if !ok {
		return false
	}
	stored := c.requests.Get(id)
	stored.ID = id
	if !c.requestQueue.PushBack(id) {
		c.requests.Free(id)
		return false
	}
	return true
}

// Tick advances the controller by one cycle, running the admit,
// refresh-cadence, schedule, lazy-precharge, power-down, command-retire,
// and request-retire phases in order, then charges one cycle of
// background energy for every rank.
func (c *Controller) Tick(clk int64) {
	c.admit(clk)
	c.refreshCadence(clk)
	c.scheduleTransactions(clk)
	c.lazyPrecharge(clk)
	c.powerDown(clk)
	c.retireCommands(clk)
	c.retireRequests(clk)
	c.chargeBackgroundEnergy()
}

// chargeBackgroundEnergy bills one cycle of background current (IDD3N
// while powered up, IDD2Q while asleep) against every rank on this
// channel, regardless of whether any command was issued this cycle.
func (c *Controller) chargeBackgroundEnergy() {
	if c.obs == nil {
		return
	}
	for r, rank := range c.channel.Ranks {
		c.obs.ObserveBackground(c.id, r, rank.IsSleeping)
	}
}

// admit is phase (a): converts arrived Requests into Transactions,
// in order, stopping at the first stall.
func (c *Controller) admit(clk int64) {
	for {
		id, ok := c.requestQueue.Front()
		if !ok {
			return
		}
		req := c.requests.Get(id)
		if req == nil {
			// Retired or freed out from under the queue entry; drop it
			// and keep scanning rather than stalling forever on it.
			c.requestQueue.PopFront()
			continue
		}
		if req.AllocateTime+int64(c.cfg.TransactionDelay) > clk {
			return
		}
		if c.transactionQueue.Full() {
			return
		}
		coords := c.mapping.Decode(req.Address)
		rank := c.channel.Ranks[coords.Rank]
		bank := rank.Banks[coords.Bank]
		rank.DemandCount++
		bank.DemandCount++
		if bank.IsOpen() && uint32(bank.Row()) == coords.Row {
			bank.SupplyCount++
		}
		c.transactionQueue.PushBack(domain.Transaction{
			RequestID: id,
			Coords:    coords,
			IsWrite:   req.IsWrite,
		})
		c.requestQueue.PopFront()
	}
}

// refreshCadence is phase (b). Each rank whose RefreshTime has arrived
// is walked through wake -> precharge-all -> REFRESH; state already
// reflects prior partial progress, so re-running the sequence on a
// stalled rank next tick picks up exactly where it left off.
func (c *Controller) refreshCadence(clk int64) {
	for r := 0; r < c.nRank; r++ {
		rank := c.channel.Ranks[r]
		if rank.RefreshTime > clk {
			continue
		}
		coords := addr.Coordinates{Channel: uint8(c.id), Rank: uint8(r)}

		if rank.IsSleeping {
			if !c.addCommand(clk, timing.POWERUP, coords, domain.NoRequest) {
				continue
			}
		}

		allPrecharged := true
		for b, bank := range rank.Banks {
			if !bank.IsOpen() {
				continue
			}
			allPrecharged = false
			bc := coords
			bc.Bank = uint8(b)
			bc.Row = uint32(bank.Row())
			if !c.addCommand(clk, timing.PRECHARGE, bc, domain.NoRequest) {
				// Leave this rank mid-sequence; retry next tick.
				allPrecharged = false
				break
			}
		}
		if !allPrecharged {
			continue
		}

		if rank.ActiveCount != 0 {
			continue
		}
		if c.addCommand(clk, timing.REFRESH, coords, domain.NoRequest) {
			rank.RefreshTime += int64(c.cfg.Timing.TREFI)
			if c.log != nil {
				c.log.Debug("refresh issued", "channel", c.id, "rank", r, "next_refresh", rank.RefreshTime)
			}
			if c.obs != nil {
				c.obs.ObserveRefresh(c.id, r)
			}
		}
	}
}

// scheduleTransactions is phase (c): FR-FCFS, row-first.
func (c *Controller) scheduleTransactions(clk int64) {
	var toRemove []int
	c.transactionQueue.Each(func(idx int, txn *domain.Transaction) bool {
		coords := txn.Coords
		rank := c.channel.Ranks[coords.Rank]
		bank := rank.Banks[coords.Bank]

		// (1) Give way to an imminent refresh.
		if clk >= rank.RefreshTime {
			return false
		}

		// (2) Wake a sleeping rank before scheduling demand on it.
		if rank.IsSleeping {
			rc := addr.Coordinates{Channel: uint8(c.id), Rank: coords.Rank}
			if !c.addCommand(clk, timing.POWERUP, rc, domain.NoRequest) {
				return false
			}
		}

		// (3) Close a mismatched or over-hit row, unless same-row
		// hits are still pending behind it.
		if bank.IsOpen() && (int32(coords.Row) != bank.Row() || bank.Hits >= c.cfg.Policy.MaxRowHits) {
			if int32(coords.Row) != bank.Row() && bank.SupplyCount > 0 {
				return false
			}
			pc := addr.Coordinates{Channel: uint8(c.id), Rank: coords.Rank, Bank: coords.Bank, Row: uint32(bank.Row())}
			if !c.addCommand(clk, timing.PRECHARGE, pc, domain.NoRequest) {
				return false
			}
		}

		// (4) Activate a closed row.
		if !bank.IsOpen() {
			ac := addr.Coordinates{Channel: uint8(c.id), Rank: coords.Rank, Bank: coords.Bank, Row: coords.Row}
			if !c.addCommand(clk, timing.ACTIVATE, ac, domain.NoRequest) {
				return false
			}
			bank.SupplyCount = c.countMatchingQueued(coords)
		}

		// (5) Emit the data command.
		if !bank.IsOpen() || bank.Row() != int32(coords.Row) {
			return false
		}
		cmdType := timing.READ
		if txn.IsWrite {
			cmdType = timing.WRITE
		}
		if !c.addCommand(clk, cmdType, coords, txn.RequestID) {
			return false
		}
		rank.DemandCount--
		bank.DemandCount--
		bank.SupplyCount--
		toRemove = append(toRemove, idx)
		return false
	})
	for _, idx := range toRemove {
		c.transactionQueue.RemoveAt(idx)
	}
}

// countMatchingQueued rescans the transaction queue for entries whose
// (rank, bank, row) match coords, to recompute supplyCount after an
// ACTIVATE (see DESIGN.md on the two supplyCount maintenance
// strategies this combines: incremental on admit, full rescan here).
func (c *Controller) countMatchingQueued(coords addr.Coordinates) int {
	n := 0
	c.transactionQueue.Each(func(_ int, txn *domain.Transaction) bool {
		if txn.Coords.SameRow(coords) {
			n++
		}
		return false
	})
	return n
}

// lazyPrecharge is phase (d): closes demand-free open rows after
// max_row_idle cycles, back-dated for bank/rank state but checked
// against the real clock for bus causality.
func (c *Controller) lazyPrecharge(clk int64) {
	backdated := clk - int64(c.cfg.Policy.MaxRowIdle)
	for r := 0; r < c.nRank; r++ {
		rank := c.channel.Ranks[r]
		for b, bank := range rank.Banks {
			if !bank.IsOpen() || bank.DemandCount != 0 {
				continue
			}
			if bank.PreReadyTime > backdated {
				continue
			}
			if c.commandQueue.Full() {
				continue
			}
			if c.channel.AnyReadyTime > clk {
				continue
			}
			row := bank.Row()
			coords := addr.Coordinates{Channel: uint8(c.id), Rank: uint8(r), Bank: uint8(b), Row: uint32(row)}
			finish := c.channel.FinishAt(backdated, clk, timing.PRECHARGE, r, b, coords.Row)
			c.commandQueue.PushBack(domain.Command{
				Type:       timing.PRECHARGE,
				Coords:     coords,
				IssueTime:  backdated,
				FinishTime: finish,
				RequestID:  domain.NoRequest,
			})
			if c.obs != nil {
				c.obs.ObserveCommand(c.id, r, b, timing.PRECHARGE.String(), backdated, finish)
			}
		}
	}
}

// powerDown is phase (e): opportunistically sleeps idle, non-refreshing
// ranks.
func (c *Controller) powerDown(clk int64) {
	for r := 0; r < c.nRank; r++ {
		rank := c.channel.Ranks[r]
		if rank.IsSleeping || rank.DemandCount != 0 || rank.ActiveCount != 0 {
			continue
		}
		if clk >= rank.RefreshTime {
			continue
		}
		coords := addr.Coordinates{Channel: uint8(c.id), Rank: uint8(r)}
		if c.addCommand(clk, timing.POWERDOWN, coords, domain.NoRequest) && c.log != nil {
			c.log.Debug("rank entering powerdown", "channel", c.id, "rank", r, "clk", clk)
		}
	}
}

// retireCommands is phase (f): attaches each completed data command's
// finish time to its Request.
func (c *Controller) retireCommands(clk int64) {
	for {
		cmd, ok := c.commandQueue.Front()
		if !ok || cmd.IssueTime > clk {
			return
		}
		c.commandQueue.PopFront()
		if cmd.Type.IsData() && cmd.HasRequest() {
			if req := c.requests.Get(cmd.RequestID); req != nil {
				req.ReleaseTime = cmd.FinishTime
			}
		}
	}
}

// retireRequests is phase (g): reclaims Requests whose data beat has
// completed.
func (c *Controller) retireRequests(clk int64) {
	var freed []int
	for id := 0; id < c.requests.Cap(); id++ {
		req := c.requests.Get(id)
		if req == nil {
			continue
		}
		if req.Retired() && req.ReleaseTime <= clk {
			c.retiredCount++
			c.latencySum += req.ReleaseTime - req.AllocateTime
			if c.obs != nil {
				c.obs.ObserveRetire(c.id, req.IsWrite, req.ReleaseTime-req.AllocateTime)
			}
			freed = append(freed, id)
		}
	}
	for _, id := range freed {
		c.requests.Free(id)
	}
}

// addCommand is the issue guard every phase funnels through: reject if
// the command queue is full or the timing oracle says the command
// cannot legally issue by clk+command_delay; otherwise mutate state and
// enqueue.
func (c *Controller) addCommand(clk int64, cmdType timing.CommandType, coords addr.Coordinates, requestID int) bool {
	if c.commandQueue.Full() {
		return false
	}
	issueTime := clk + int64(c.cfg.CommandDelay)
	ready := c.channel.ReadyTime(cmdType, int(coords.Rank), int(coords.Bank), coords.Row)
	if ready < 0 || ready > issueTime {
		return false
	}
	finish := c.channel.Finish(issueTime, cmdType, int(coords.Rank), int(coords.Bank), coords.Row)
	invariant.Check(finish >= issueTime, "command finish %d precedes its own issue %d", finish, issueTime)
	ok := c.commandQueue.PushBack(domain.Command{
		Type:       cmdType,
		Coords:     coords,
		IssueTime:  issueTime,
		FinishTime: finish,
		RequestID:  requestID,
	})
	invariant.Check(ok, "commandQueue.PushBack failed after Full() check passed")
	if c.obs != nil {
		c.obs.ObserveCommand(c.id, int(coords.Rank), int(coords.Bank), cmdType.String(), issueTime, finish)
	}
	return true
}

// Report summarizes this controller's retirement counters.
type Report struct {
	Retired     int64
	MeanLatency float64
}

// Stats returns the controller's retirement counters.
func (c *Controller) Stats() Report {
	r := Report{Retired: c.retiredCount}
	if c.retiredCount > 0 {
		r.MeanLatency = float64(c.latencySum) / float64(c.retiredCount)
	}
	return r
}
