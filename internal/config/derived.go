package config

// ChannelTiming holds the channel-scope derived timings.
type ChannelTiming struct {
	AnyToAny     int64
	ActToAny     int64
	ReadToRead   int64
	ReadToWrite  int64
	WriteToRead  int64
	WriteToWrite int64
}

// RankTiming holds the rank-scope derived timings.
type RankTiming struct {
	ActToAct         int64
	ActToFaw         int64
	ReadToRead       int64
	ReadToWrite      int64
	WriteToRead      int64
	WriteToWrite     int64
	RefreshLatency   int64
	RefreshInterval  int64
	PowerdownLatency int64
	PowerupLatency   int64
}

// BankTiming holds the bank-scope derived timings.
type BankTiming struct {
	ActToRead  int64
	ActToWrite int64
	ActToPre   int64
	ReadToPre  int64
	WriteToPre int64
	PreToAct   int64
	ReadToData int64
	WriteToData int64
}

// Energy holds the per-event energy coefficients.
type Energy struct {
	Act     float64
	Read    float64
	Write   float64
	Refresh float64
	// BackgroundActive/BackgroundSleep are the per-cycle background
	// energy rates while powered up (IDD3N) / powered down (IDD2Q).
	BackgroundActive float64
	BackgroundSleep  float64
}

// Derived is the full set of derived timings and energy coefficients,
// computed once at construction and used verbatim thereafter.
type Derived struct {
	Channel ChannelTiming
	Rank    RankTiming
	Bank    BankTiming
	Energy  Energy
}

func max64(a, b int64) int64 {
	if a > b {
		return a
	}
	return b
}

// Derive computes the derived timing table from the raw Timing/Currents.
func (c Config) Derive() Derived {
	t := c.Timing
	i := c.Currents
	devices := float64(c.Devices)

	tCL, tCWL, tAL, tBL := int64(t.TCL), int64(t.TCWL), int64(t.TAL), int64(t.TBL)
	tRAS, tRCD, tRRD := int64(t.TRAS), int64(t.TRCD), int64(t.TRRD)
	tRP, tCCD, tRTP := int64(t.TRP), int64(t.TCCD), int64(t.TRTP)
	tWTR, tWR, tRTRS := int64(t.TWTR), int64(t.TWR), int64(t.TRTRS)
	tRFC, tREFI, tFAW := int64(t.TRFC), int64(t.TREFI), int64(t.TFAW)
	tCKE, tXP, tCMD, tRCMD := int64(t.TCKE), int64(t.TXP), int64(t.TCMD), int64(t.TRCMD)

	channel := ChannelTiming{
		AnyToAny:     tCMD,
		ActToAny:     tRCMD,
		ReadToRead:   tBL + tRTRS,
		ReadToWrite:  tCL + tBL + tRTRS - tCWL,
		WriteToRead:  tCWL + tBL + tRTRS - tCL,
		WriteToWrite: tBL + tRTRS,
	}

	rank := RankTiming{
		ActToAct:         tRRD,
		ActToFaw:         tFAW,
		ReadToRead:       max64(tBL, tCCD),
		ReadToWrite:      tCL + tBL + tRTRS - tCWL,
		WriteToRead:      tCWL + tBL + tWTR,
		WriteToWrite:     max64(tBL, tCCD),
		RefreshLatency:   tRFC,
		RefreshInterval:  tREFI,
		PowerdownLatency: tCKE,
		PowerupLatency:   tXP,
	}

	bank := BankTiming{
		ActToRead:   tRCD - tAL + (tRCMD - tCMD),
		ActToWrite:  tRCD - tAL + (tRCMD - tCMD),
		ActToPre:    tRAS + (tRCMD - tCMD),
		ReadToPre:   tAL + tBL + max64(tRTP, tCCD) - tCCD,
		WriteToPre:  tAL + tCWL + tBL + tWR,
		PreToAct:    tRP,
		ReadToData:  tAL + tCL,
		WriteToData: tAL + tCWL,
	}

	energy := Energy{
		Act:              ((i.IDD0 - i.IDD3N) * float64(tRAS) + (i.IDD0 - i.IDD2N) * float64(tRP)) * devices,
		Read:             (i.IDD4R - i.IDD3N) * float64(tBL) * devices,
		Write:            (i.IDD4W - i.IDD3N) * float64(tBL) * devices,
		Refresh:          (i.IDD5 - i.IDD3N) * float64(tRFC) * devices,
		BackgroundActive: i.IDD3N,
		BackgroundSleep:  i.IDD2Q,
	}

	return Derived{Channel: channel, Rank: rank, Bank: bank, Energy: energy}
}
