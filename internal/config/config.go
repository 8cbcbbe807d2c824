// Package config assembles the frozen simulator Config from compiled-in
// defaults overlaid with an optional YAML file. No command-line flag
// overrides an individual Config field.
package config

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/ehrlich-b/dramsim/internal/addr"
	"github.com/ehrlich-b/dramsim/internal/constants"
)

// Timing holds every named cycle-count timing parameter the DRAM
// protocol itself defines.
type Timing struct {
	TCL   int `yaml:"tCL"`
	TCWL  int `yaml:"tCWL"`
	TAL   int `yaml:"tAL"`
	TBL   int `yaml:"tBL"`
	TRAS  int `yaml:"tRAS"`
	TRCD  int `yaml:"tRCD"`
	TRRD  int `yaml:"tRRD"`
	TRC   int `yaml:"tRC"`
	TRP   int `yaml:"tRP"`
	TCCD  int `yaml:"tCCD"`
	TRTP  int `yaml:"tRTP"`
	TWTR  int `yaml:"tWTR"`
	TWR   int `yaml:"tWR"`
	TRTRS int `yaml:"tRTRS"`
	TRFC  int `yaml:"tRFC"`
	TREFI int `yaml:"tREFI"`
	TFAW  int `yaml:"tFAW"`
	TCKE  int `yaml:"tCKE"`
	TXP   int `yaml:"tXP"`
	TCMD  int `yaml:"tCMD"`
	TRCMD int `yaml:"tRCMD"`
	TTQ   int `yaml:"tTQ"`
	TCQ   int `yaml:"tCQ"`
}

// Currents holds per-device IDD currents (mA), the datasheet inputs to
// the derived energy-per-event coefficients.
type Currents struct {
	IDD0  float64 `yaml:"IDD0"`
	IDD2N float64 `yaml:"IDD2N"`
	IDD2P float64 `yaml:"IDD2P"`
	IDD2Q float64 `yaml:"IDD2Q"`
	IDD3N float64 `yaml:"IDD3N"`
	IDD4R float64 `yaml:"IDD4R"`
	IDD4W float64 `yaml:"IDD4W"`
	IDD5  float64 `yaml:"IDD5"`
	IDD6  float64 `yaml:"IDD6"`
}

// Geometry holds address field widths as log2 bit counts.
type Geometry struct {
	Channel int `yaml:"channel"`
	Rank    int `yaml:"rank"`
	Bank    int `yaml:"bank"`
	Row     int `yaml:"row"`
	Column  int `yaml:"column"`
	Line    int `yaml:"line"`
}

// Policy holds the scheduler's row-buffer policy knobs.
type Policy struct {
	MaxRowIdle int `yaml:"max_row_idle"`
	MaxRowHits int `yaml:"max_row_hits"`
}

// Queues holds per-channel queue capacities.
type Queues struct {
	Transaction int `yaml:"transaction"`
	Command     int `yaml:"command"`
	Request     int `yaml:"request"`
}

// Config is the frozen configuration: once built, nothing in the core
// mutates it.
type Config struct {
	Queues   Queues   `yaml:"queues"`
	Geometry Geometry `yaml:"geometry"`
	Policy   Policy   `yaml:"policy"`
	Timing   Timing   `yaml:"timing"`
	Currents Currents `yaml:"currents"`
	Devices  int      `yaml:"devices"`

	// TransactionDelay/CommandDelay are the gate cycles the admit phase
	// and addCommand apply before a transaction can form or a command
	// can issue, respectively.
	TransactionDelay int `yaml:"transaction_delay"`
	CommandDelay     int `yaml:"command_delay"`
}

// Default returns a frozen Config built entirely from compiled-in
// defaults (internal/constants), suitable for unit tests and as the
// base the CLI overlays a config file onto.
func Default() Config {
	return Config{
		Queues: Queues{
			Transaction: constants.DefaultTransactionQueueDepth,
			Command:     constants.DefaultCommandQueueDepth,
			Request:     constants.DefaultRequestQueueDepth,
		},
		Geometry: Geometry{
			Channel: constants.DefaultChannelBits,
			Rank:    constants.DefaultRankBits,
			Bank:    constants.DefaultBankBits,
			Row:     constants.DefaultRowBits,
			Column:  constants.DefaultColumnBits,
			Line:    constants.DefaultLineBits,
		},
		Policy: Policy{
			MaxRowIdle: constants.DefaultMaxRowIdle,
			MaxRowHits: constants.DefaultMaxRowHits,
		},
		Timing: Timing{
			TCL: constants.DefaultTCL, TCWL: constants.DefaultTCWL, TAL: constants.DefaultTAL,
			TBL: constants.DefaultTBL, TRAS: constants.DefaultTRAS, TRCD: constants.DefaultTRCD,
			TRRD: constants.DefaultTRRD, TRC: constants.DefaultTRC, TRP: constants.DefaultTRP,
			TCCD: constants.DefaultTCCD, TRTP: constants.DefaultTRTP, TWTR: constants.DefaultTWTR,
			TWR: constants.DefaultTWR, TRTRS: constants.DefaultTRTRS, TRFC: constants.DefaultTRFC,
			TREFI: constants.DefaultTREFI, TFAW: constants.DefaultTFAW, TCKE: constants.DefaultTCKE,
			TXP: constants.DefaultTXP, TCMD: constants.DefaultTCMD, TRCMD: constants.DefaultTRCMD,
			TTQ: constants.DefaultTTQ, TCQ: constants.DefaultTCQ,
		},
		Currents: Currents{
			IDD0: constants.DefaultIDD0, IDD2N: constants.DefaultIDD2N, IDD2P: constants.DefaultIDD2P,
			IDD2Q: constants.DefaultIDD2Q, IDD3N: constants.DefaultIDD3N, IDD4R: constants.DefaultIDD4R,
			IDD4W: constants.DefaultIDD4W, IDD5: constants.DefaultIDD5, IDD6: constants.DefaultIDD6,
		},
		Devices:          constants.DefaultDevices,
		TransactionDelay: constants.DefaultTransactionDelay,
		CommandDelay:     constants.DefaultCommandDelay,
	}
}

// LoadYAML decodes data onto a copy of base: fields whose keys appear in
// the YAML take the file's values (an explicit zero included), and fields
// whose keys are absent keep base's values.
func LoadYAML(base Config, data []byte) (Config, error) {
	cfg := base
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return Config{}, fmt.Errorf("config: parse yaml: %w", err)
	}
	return cfg, nil
}

// LoadYAMLFile reads path and overlays it onto base.
func LoadYAMLFile(base Config, path string) (Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Config{}, fmt.Errorf("config: read %s: %w", path, err)
	}
	return LoadYAML(base, data)
}

// FromMap builds a Config from a flat map of integer keys, mirroring the
// original's Config(std::map<std::string,int>) constructor
// (original_source/dram.h) — used by tests that want a boundary scenario
// expressed as a flat key list.
func FromMap(m map[string]int) Config {
	cfg := Default()

	get := func(key string, dst *int) {
		if v, ok := m[key]; ok {
			*dst = v
		}
	}

	get("transaction", &cfg.Queues.Transaction)
	get("command", &cfg.Queues.Command)
	get("request", &cfg.Queues.Request)

	get("channel", &cfg.Geometry.Channel)
	get("rank", &cfg.Geometry.Rank)
	get("bank", &cfg.Geometry.Bank)
	get("row", &cfg.Geometry.Row)
	get("column", &cfg.Geometry.Column)
	get("line", &cfg.Geometry.Line)

	get("max_row_idle", &cfg.Policy.MaxRowIdle)
	get("max_row_hits", &cfg.Policy.MaxRowHits)

	get("tCL", &cfg.Timing.TCL)
	get("tCWL", &cfg.Timing.TCWL)
	get("tAL", &cfg.Timing.TAL)
	get("tBL", &cfg.Timing.TBL)
	get("tRAS", &cfg.Timing.TRAS)
	get("tRCD", &cfg.Timing.TRCD)
	get("tRRD", &cfg.Timing.TRRD)
	get("tRC", &cfg.Timing.TRC)
	get("tRP", &cfg.Timing.TRP)
	get("tCCD", &cfg.Timing.TCCD)
	get("tRTP", &cfg.Timing.TRTP)
	get("tWTR", &cfg.Timing.TWTR)
	get("tWR", &cfg.Timing.TWR)
	get("tRTRS", &cfg.Timing.TRTRS)
	get("tRFC", &cfg.Timing.TRFC)
	get("tREFI", &cfg.Timing.TREFI)
	get("tFAW", &cfg.Timing.TFAW)
	get("tCKE", &cfg.Timing.TCKE)
	get("tXP", &cfg.Timing.TXP)
	get("tCMD", &cfg.Timing.TCMD)
	get("tRCMD", &cfg.Timing.TRCMD)
	get("tTQ", &cfg.Timing.TTQ)
	get("tCQ", &cfg.Timing.TCQ)

	get("devices", &cfg.Devices)
	get("transaction_delay", &cfg.TransactionDelay)
	get("command_delay", &cfg.CommandDelay)

	return cfg
}

// NChannel, NRank, NBank return the device counts implied by the
// log2 geometry widths.
func (c Config) NChannel() int { return 1 << uint(c.Geometry.Channel) }
func (c Config) NRank() int    { return 1 << uint(c.Geometry.Rank) }
func (c Config) NBank() int    { return 1 << uint(c.Geometry.Bank) }

// Mapping builds the address decoder's field mapping.
func (c Config) Mapping() addr.Mapping {
	return addr.NewMapping(
		uint8(c.Geometry.Line),
		uint8(c.Geometry.Channel),
		uint8(c.Geometry.Column),
		uint8(c.Geometry.Bank),
		uint8(c.Geometry.Rank),
		uint8(c.Geometry.Row),
	)
}

// Validate runs a sanity pass over the timing table: pathological
// timings (e.g. tRCD < tAL) produce nonsensical ready-times and are
// user input errors, detected here rather than surfacing as silent
// negative ready-times deep in the timing engine.
func (c Config) Validate() error {
	t := c.Timing
	check := func(cond bool, msg string) error {
		if !cond {
			return fmt.Errorf("config: %s", msg)
		}
		return nil
	}
	if err := check(t.TRCD >= t.TAL, "tRCD must be >= tAL"); err != nil {
		return err
	}
	if err := check(t.TRAS > 0 && t.TRCD > 0 && t.TRP > 0, "tRAS, tRCD, tRP must be positive"); err != nil {
		return err
	}
	if err := check(t.TRC >= t.TRAS+t.TRP, "tRC should be >= tRAS + tRP"); err != nil {
		return err
	}
	if err := check(t.TCCD > 0 && t.TBL > 0, "tCCD and tBL must be positive"); err != nil {
		return err
	}
	if err := check(t.TFAW >= t.TRRD, "tFAW must be >= tRRD"); err != nil {
		return err
	}
	if err := check(c.Queues.Transaction > 0 && c.Queues.Command > 0 && c.Queues.Request > 0, "queue depths must be positive"); err != nil {
		return err
	}
	if err := check(c.Policy.MaxRowHits > 0, "max_row_hits must be positive"); err != nil {
		return err
	}
	if err := check(t.TREFI > t.TRFC, "tREFI must exceed tRFC"); err != nil {
		return err
	}
	return nil
}
