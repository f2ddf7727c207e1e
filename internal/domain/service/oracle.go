package service

import (
	"math"

	"pulsefeed/internal/domain/model"
)

// Signal thresholds: positions open beyond 5 bps of divergence and the
// strength saturates at 50 bps.
const (
	signalThresholdBps = 5.0
	signalMaxBps       = 50.0
)

// OracleLag compares the aggregated live price against an oracle
// reference price and produces the lead-lag signal.
func OracleLag(price, oraclePrice float64, oracleAgeMs int64) model.OracleSignal {
	if oraclePrice <= 0 {
		return model.OracleSignal{Label: model.SignalNeutral, OraclePrice: oraclePrice, OracleAgeMs: oracleAgeMs}
	}

	bps := (price - oraclePrice) / oraclePrice * 10000

	label := model.SignalNeutral
	switch {
	case bps > signalThresholdBps:
		label = model.SignalLong
	case bps < -signalThresholdBps:
		label = model.SignalShort
	}

	return model.OracleSignal{
		Label:         label,
		Strength:      math.Min(1.0, math.Abs(bps)/signalMaxBps),
		DivergenceBps: bps,
		OraclePrice:   oraclePrice,
		OracleAgeMs:   oracleAgeMs,
	}
}
