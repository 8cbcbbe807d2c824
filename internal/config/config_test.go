package config

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ehrlich-b/dramsim/internal/constants"
)

func TestDefaultValidates(t *testing.T) {
	cfg := Default()
	require.NoError(t, cfg.Validate())
}

func TestFromMapOverridesOnlyGivenKeys(t *testing.T) {
	cfg := FromMap(map[string]int{
		"tCMD":  1,
		"tRCD":  5,
		"tAL":   0,
		"tCL":   5,
		"tBL":   4,
		"tRP":   5,
		"transaction_delay": 0,
		"command_delay":     0,
	})
	assert.Equal(t, 5, cfg.Timing.TRCD)
	assert.Equal(t, 5, cfg.Timing.TCL)
	// untouched fields keep the compiled-in default
	assert.Equal(t, constants.DefaultTREFI, cfg.Timing.TREFI)
}

func TestValidateRejectsPathologicalTiming(t *testing.T) {
	cfg := Default()
	cfg.Timing.TRCD = 0
	cfg.Timing.TAL = 5
	assert.Error(t, cfg.Validate())
}

func TestDeriveBoundaryScenario1(t *testing.T) {
	// Boundary scenario: single cold-bank read.
	cfg := FromMap(map[string]int{
		"tCMD": 1, "tRCD": 5, "tAL": 0, "tCL": 5, "tBL": 4, "tRP": 5,
		"transaction_delay": 0, "command_delay": 0,
		"tRCMD": 1, "tCWL": 5, "tRAS": 10, "tRRD": 2, "tCCD": 4,
		"tRTP": 2, "tWTR": 2, "tWR": 2, "tRTRS": 1, "tFAW": 8,
		"tRFC": 20, "tREFI": 1000, "tCKE": 2, "tXP": 2,
	})
	d := cfg.Derive()
	assert.Equal(t, int64(5), d.Bank.ActToRead) // tRCD - tAL + (tRCMD - tCMD) = 5-0+0
	assert.Equal(t, int64(5), d.Bank.ReadToData) // tAL + tCL
}
