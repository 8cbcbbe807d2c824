package scheduler

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ehrlich-b/dramsim/internal/addr"
	"github.com/ehrlich-b/dramsim/internal/config"
	"github.com/ehrlich-b/dramsim/internal/domain"
	"github.com/ehrlich-b/dramsim/internal/timing"
)

func testConfig(t *testing.T) config.Config {
	t.Helper()
	return config.FromMap(map[string]int{
		"tCMD": 1, "tRCD": 5, "tAL": 0, "tCL": 5, "tBL": 4, "tRP": 5,
		"transaction_delay": 0, "command_delay": 0,
		"tRCMD": 1, "tCWL": 5, "tRAS": 40, "tRRD": 2, "tCCD": 4,
		"tRTP": 2, "tWTR": 2, "tWR": 2, "tRTRS": 1, "tFAW": 8,
		"tRFC": 64, "tREFI": 1000, "tCKE": 2, "tXP": 2,
	})
}

func newTestController(t *testing.T, cfg config.Config) *Controller {
	t.Helper()
	d := cfg.Derive()
	return New(0, cfg, &d, nil, nil)
}

// TestRefreshCadencePreemptsDemand covers forced-refresh cadence taking
// priority over a queued transaction once a rank's RefreshTime arrives:
// with the targeted row left open by a prior plain READ, the refresh
// cannot complete in the same cycle it becomes due (the open bank must
// be precharged first), so a second request against that row stalls in
// scheduleTransactions's step (1) bail-out until the precharge+REFRESH
// sequence clears and RefreshTime advances.
func TestRefreshCadencePreemptsDemand(t *testing.T) {
	cfg := testConfig(t)
	c := newTestController(t, cfg)

	require.True(t, c.Submit(0, 0x40, false))
	var firstRetiredAt int64 = -1
	for clk := int64(0); clk < 30 && firstRetiredAt == -1; clk++ {
		c.Tick(clk)
		if c.Stats().Retired > 0 {
			firstRetiredAt = clk
		}
	}
	require.NotEqual(t, int64(-1), firstRetiredAt, "first read should have retired")

	coords := c.mapping.Decode(0x40)
	rank := c.channel.Ranks[coords.Rank]
	bank := rank.Banks[coords.Bank]
	require.True(t, bank.IsOpen(), "row should remain open after a plain READ")

	forceClk := firstRetiredAt + 1
	rank.RefreshTime = forceClk
	require.True(t, c.Submit(forceClk, 0x40, false))

	var secondRetiredAt int64 = -1
	for clk := forceClk; clk < forceClk+200 && secondRetiredAt == -1; clk++ {
		c.Tick(clk)
		if c.Stats().Retired > 1 {
			secondRetiredAt = clk
		}
	}

	assert.Greater(t, rank.RefreshTime, forceClk, "refresh cadence should have advanced past the forced deadline")
	require.NotEqual(t, int64(-1), secondRetiredAt, "second request should eventually retire")
	assert.Greater(t, secondRetiredAt, forceClk, "second request should stall behind the forced refresh, not retire instantly")
}

// TestLazyPrechargeClosesIdleRow covers phase (d): an open row with no
// queued demand closes on its own after max_row_idle cycles, without any
// transaction requesting it.
func TestLazyPrechargeClosesIdleRow(t *testing.T) {
	cfg := testConfig(t)
	cfg.Policy.MaxRowIdle = 10
	c := newTestController(t, cfg)

	coords := addr.Coordinates{Channel: 0, Rank: 0, Bank: 0, Row: 7}
	require.True(t, c.addCommand(0, timing.ACTIVATE, coords, domain.NoRequest))
	bank := c.channel.Ranks[0].Banks[0]
	require.True(t, bank.IsOpen())

	for clk := int64(1); clk < 100; clk++ {
		c.lazyPrecharge(clk)
		if !bank.IsOpen() {
			break
		}
	}

	assert.False(t, bank.IsOpen(), "idle row should have been lazily precharged")
}

// TestPowerDownThenWakeOnDemand covers phase (e)'s opportunistic sleep
// and scheduleTransactions's POWERUP-before-scheduling step: a rank with
// no demand and no open banks powers down, then wakes again once a
// transaction targets it.
func TestPowerDownThenWakeOnDemand(t *testing.T) {
	cfg := testConfig(t)
	c := newTestController(t, cfg)
	rank := c.channel.Ranks[0]

	for clk := int64(0); clk < 20; clk++ {
		c.powerDown(clk)
		if rank.IsSleeping {
			break
		}
	}
	require.True(t, rank.IsSleeping, "idle rank should have powered down")

	require.True(t, c.Submit(20, 0x40, false))
	var retired bool
	for clk := int64(20); clk < 200; clk++ {
		c.Tick(clk)
		if c.Stats().Retired > 0 {
			retired = true
			break
		}
	}
	assert.True(t, retired, "the rank should wake and service the request")
	assert.False(t, rank.IsSleeping, "rank should be awake again after servicing demand")
}

// TestSubmitTrueWithoutImmediateTransaction covers the transaction-queue
// back-pressure boundary: Submit returns true (the request queue admits
// the request) even though no Transaction forms until the
// transaction_delay gate elapses and admit() runs again — distinct from
// Submit returning false when the request queue itself is full.
func TestSubmitTrueWithoutImmediateTransaction(t *testing.T) {
	cfg := testConfig(t)
	cfg.TransactionDelay = 5
	c := newTestController(t, cfg)

	require.True(t, c.Submit(0, 0x40, false))
	assert.Equal(t, 0, c.transactionQueue.Len(), "no Transaction should have formed yet")

	c.Tick(0)
	assert.Equal(t, 0, c.transactionQueue.Len(), "transaction_delay gate has not elapsed")

	c.Tick(5)
	assert.Equal(t, 1, c.transactionQueue.Len(), "transaction should form once the gate elapses")
}

// TestSubmitTrueWhileTransactionQueueFull covers the other half of
// scenario 5: once the transaction queue itself is full, admit() stalls
// at the front of the request queue, so later Submits still return true
// (the request queue has room) while no further Transaction forms until
// an earlier one retires and frees a slot.
func TestSubmitTrueWhileTransactionQueueFull(t *testing.T) {
	cfg := testConfig(t)
	cfg.Queues.Transaction = 1
	cfg.Queues.Request = 4
	c := newTestController(t, cfg)

	require.True(t, c.Submit(0, 0x40, false))
	c.admit(0)
	require.Equal(t, 1, c.transactionQueue.Len())

	require.True(t, c.Submit(0, 0x4000, false), "request queue has room even though the transaction queue is full")
	c.admit(0)
	assert.Equal(t, 1, c.transactionQueue.Len(), "transaction queue is full; second request stays queued")
}
