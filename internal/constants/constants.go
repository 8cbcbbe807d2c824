// Package constants holds compiled-in defaults for the simulator, the
// base that an optional YAML config file is overlaid on.
package constants

// Default queue capacities, applied when a Config doesn't set them.
const (
	DefaultRequestQueueDepth     = 64
	DefaultTransactionQueueDepth = 32
	DefaultCommandQueueDepth     = 16
)

// Default address field widths (log2 of the field size, bits), matching a
// modest single-channel DDR3-class geometry: 64B lines, 1 channel, 8
// column bits, 3 bank bits, a single rank (0 rank bits), 16 row bits.
const (
	DefaultLineBits    = 6
	DefaultChannelBits = 0
	DefaultColumnBits  = 8
	DefaultBankBits    = 3
	DefaultRankBits    = 0
	DefaultRowBits     = 16
)

// Default scheduler policy knobs.
const (
	DefaultMaxRowIdle = 0
	DefaultMaxRowHits = 4
)

// Default DDR3-1600-class timings (cycles at the memory clock), used when
// a config omits the timing table entirely (e.g. in unit tests).
const (
	DefaultTCL   = 11
	DefaultTCWL  = 8
	DefaultTAL   = 0
	DefaultTBL   = 4
	DefaultTRAS  = 28
	DefaultTRCD  = 11
	DefaultTRRD  = 5
	DefaultTRC   = 39
	DefaultTRP   = 11
	DefaultTCCD  = 4
	DefaultTRTP  = 6
	DefaultTWTR  = 6
	DefaultTWR   = 12
	DefaultTRTRS = 2
	DefaultTRFC  = 160
	DefaultTREFI = 7800
	DefaultTFAW  = 20
	DefaultTCKE  = 5
	DefaultTXP   = 5
	DefaultTCMD  = 1
	DefaultTRCMD = 1
	DefaultTTQ   = 0
	DefaultTCQ   = 0
)

// Default per-device currents (mA), loosely modeled on a DDR3-1600 2Gb x8
// part's datasheet IDD table, and default device count.
const (
	DefaultIDD0  = 55
	DefaultIDD2N = 32
	DefaultIDD2P = 25
	DefaultIDD2Q = 30
	DefaultIDD3N = 38
	DefaultIDD4R = 155
	DefaultIDD4W = 150
	DefaultIDD5  = 190
	DefaultIDD6  = 12
	DefaultDevices = 8
)

// Default gate delays applied between admission stages.
const (
	DefaultTransactionDelay = 0
	DefaultCommandDelay     = 0
)
