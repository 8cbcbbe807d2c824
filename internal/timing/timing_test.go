package timing

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ehrlich-b/dramsim/internal/config"
)

func scenarioConfig(t *testing.T) config.Config {
	t.Helper()
	return config.FromMap(map[string]int{
		"tCMD": 1, "tRCD": 5, "tAL": 0, "tCL": 5, "tBL": 4, "tRP": 5,
		"transaction_delay": 0, "command_delay": 0,
		"tRCMD": 1, "tCWL": 5, "tRAS": 40, "tRRD": 2, "tCCD": 4,
		"tRTP": 2, "tWTR": 2, "tWR": 2, "tRTRS": 1, "tFAW": 8,
		"tRFC": 64, "tREFI": 1000, "tCKE": 2, "tXP": 2,
	})
}

func newTestChannel(t *testing.T, cfg config.Config) *ChannelState {
	t.Helper()
	d := cfg.Derive()
	return NewChannelState(&cfg.Timing, &d, cfg.NRank(), cfg.NBank())
}

// TestSingleColdRead covers a single read against a precharged bank:
// ACTIVATE then READ, each gated by its own ready-time.
func TestSingleColdRead(t *testing.T) {
	cfg := scenarioConfig(t)
	ch := newTestChannel(t, cfg)

	ready := ch.ReadyTime(ACTIVATE, 0, 0, 0)
	require.Equal(t, int64(0), ready)
	actFinish := ch.Finish(0, ACTIVATE, 0, 0, 0)
	assert.Equal(t, int64(0), actFinish)

	readReady := ch.ReadyTime(READ, 0, 0, 0)
	assert.Equal(t, int64(5), readReady)
	finish := ch.Finish(5, READ, 0, 0, 0)
	assert.Equal(t, int64(14), finish)
}

// TestRowHitStreak covers a run of row-hit reads against the same open
// row, each gated only by tCCD.
func TestRowHitStreak(t *testing.T) {
	cfg := scenarioConfig(t)
	cfg.Timing.TCCD = 4
	cfg.Timing.TBL = 4
	cfg.Policy.MaxRowHits = 5
	ch := newTestChannel(t, cfg)

	ch.Finish(0, ACTIVATE, 0, 0, 7)

	prev := int64(-100)
	for i := 0; i < 5; i++ {
		ready := ch.ReadyTime(READ, 0, 0, 7)
		require.GreaterOrEqual(t, ready, int64(0))
		if i > 0 {
			assert.GreaterOrEqual(t, ready-prev, int64(4))
		}
		ch.Finish(ready, READ, 0, 0, 7)
		prev = ready
	}
	assert.Equal(t, 5, ch.Ranks[0].Banks[0].Hits)
}

// TestRowMissPrechargesThenActivates covers a row miss: the open row
// must be precharged before the new row can be activated.
func TestRowMissPrechargesThenActivates(t *testing.T) {
	cfg := scenarioConfig(t)
	ch := newTestChannel(t, cfg)

	ch.Finish(0, ACTIVATE, 0, 0, 7)
	ch.Finish(5, READ, 0, 0, 7)

	bank := ch.Ranks[0].Banks[0]
	assert.True(t, bank.IsOpen())
	assert.Equal(t, int32(7), bank.Row())

	preReady := ch.ReadyTime(PRECHARGE, 0, 0, 7)
	require.GreaterOrEqual(t, preReady, int64(0))
	ch.Finish(preReady, PRECHARGE, 0, 0, 7)
	assert.False(t, bank.IsOpen())

	actReady := ch.ReadyTime(ACTIVATE, 0, 0, 9)
	require.GreaterOrEqual(t, actReady, preReady)
	ch.Finish(actReady, ACTIVATE, 0, 0, 9)
	assert.Equal(t, int32(9), bank.Row())
}

// TestRefreshClosesAllBanks covers the bank/rank mechanics of a refresh:
// illegal while any bank is open, legal once every bank is precharged,
// and closes every bank on completion. Refresh cadence itself lives in
// internal/scheduler and is tested there.
func TestRefreshClosesAllBanks(t *testing.T) {
	cfg := scenarioConfig(t)
	ch := newTestChannel(t, cfg)

	ch.Finish(0, ACTIVATE, 0, 0, 1)
	ch.Finish(0, ACTIVATE, 0, 1, 2)
	require.Equal(t, 2, ch.Ranks[0].ActiveCount)

	refreshReady := ch.ReadyTime(REFRESH, 0, 0, 0)
	assert.Equal(t, int64(-1), refreshReady, "refresh illegal while banks are open")

	prePre := ch.Ranks[0].Banks[0].PreReadyTime
	ch.Finish(prePre, PRECHARGE, 0, 0, 1)
	prePre2 := ch.Ranks[0].Banks[1].PreReadyTime
	ch.Finish(prePre2, PRECHARGE, 0, 1, 2)
	require.Equal(t, 0, ch.Ranks[0].ActiveCount)

	refreshReady = ch.ReadyTime(REFRESH, 0, 0, 0)
	require.GreaterOrEqual(t, refreshReady, int64(0))
	ch.Finish(refreshReady, REFRESH, 0, 0, 0)
	for _, b := range ch.Ranks[0].Banks {
		assert.False(t, b.IsOpen())
		assert.Equal(t, refreshReady+int64(cfg.Timing.TRFC), b.ActReadyTime)
	}
}

// TestCrossRankTurnaround covers the extra data-bus turnaround penalty
// that applies only when consecutive reads target different ranks.
func TestCrossRankTurnaround(t *testing.T) {
	cfg := scenarioConfig(t)
	cfg.Geometry.Rank = 1 // nRank = 2
	ch := newTestChannel(t, cfg)
	require.Len(t, ch.Ranks, 2)

	ch.Finish(0, ACTIVATE, 0, 0, 3)
	ch.Finish(0, ACTIVATE, 1, 0, 3)

	readyR0 := ch.ReadyTime(READ, 0, 0, 3)
	f0 := ch.Finish(readyR0, READ, 0, 0, 3)
	_ = f0

	readyR1 := ch.ReadyTime(READ, 1, 0, 3)
	require.GreaterOrEqual(t, readyR1, readyR0+int64(cfg.Timing.TBL)+int64(cfg.Timing.TRTRS))
}

func TestPowerDownAndUp(t *testing.T) {
	cfg := scenarioConfig(t)
	ch := newTestChannel(t, cfg)
	rank := ch.Ranks[0]

	require.Equal(t, int64(0), rank.ReadyTime(POWERDOWN, 0, 0))
	rank.Finish(10, POWERDOWN, 0, 0)
	assert.True(t, rank.IsSleeping)
	assert.Equal(t, notReady, rank.ActReadyTime)

	upReady := rank.ReadyTime(POWERUP, 0, 0)
	assert.Equal(t, int64(10+cfg.Timing.TCKE), upReady)
	rank.Finish(upReady, POWERUP, 0, 0)
	assert.False(t, rank.IsSleeping)
	assert.Equal(t, upReady+int64(cfg.Timing.TXP), rank.ActReadyTime)
}

func TestCommandTypeStringAndPredicates(t *testing.T) {
	assert.Equal(t, "ACTIVATE", ACTIVATE.String())
	assert.True(t, READ_AP.IsAutoPrecharge())
	assert.True(t, WRITE.IsWrite())
	assert.True(t, READ.IsRead())
	assert.True(t, READ.IsData())
	assert.False(t, REFRESH.IsData())
}
