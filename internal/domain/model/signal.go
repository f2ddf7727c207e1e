package model

// SignalLabel is the direction of the oracle lead-lag signal.
type SignalLabel string

const (
	SignalLong    SignalLabel = "LONG"
	SignalShort   SignalLabel = "SHORT"
	SignalNeutral SignalLabel = "NEUTRAL"
)

// OracleSignal compares the aggregated price against an on-chain
// oracle reference. Positive divergence means the live price leads
// the oracle upward.
type OracleSignal struct {
	Label         SignalLabel
	Strength      float64 // in [0, 1], maxes out at 50 bps
	DivergenceBps float64
	OraclePrice   float64
	OracleAgeMs   int64
}
