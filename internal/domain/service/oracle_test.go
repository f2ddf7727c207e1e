package service

import (
	"math"
	"testing"

	"pulsefeed/internal/domain/model"
)

func TestOracleLagSignals(t *testing.T) {
	oracle := 100000.0

	cases := []struct {
		name  string
		price float64
		label model.SignalLabel
	}{
		{"well above", 100100.0, model.SignalLong},     // +10 bps
		{"well below", 99900.0, model.SignalShort},     // -10 bps
		{"inside band", 100003.0, model.SignalNeutral}, // +0.3 bps
	}

	for _, c := range cases {
		sig := OracleLag(c.price, oracle, 0)
		if sig.Label != c.label {
			t.Errorf("%s: got %s want %s", c.name, sig.Label, c.label)
		}
	}

	// +5 bps exactly stays neutral (strict inequality)
	sig := OracleLag(oracle*(1+0.0005), oracle, 0)
	if sig.Label != model.SignalNeutral {
		t.Errorf("at +5bps: got %s want NEUTRAL", sig.Label)
	}
}

func TestOracleLagStrength(t *testing.T) {
	oracle := 100000.0

	// +25 bps -> strength 0.5
	sig := OracleLag(oracle*(1+0.0025), oracle, 0)
	if math.Abs(sig.Strength-0.5) > 1e-9 {
		t.Errorf("strength at 25bps: got %v want 0.5", sig.Strength)
	}
	if math.Abs(sig.DivergenceBps-25) > 1e-6 {
		t.Errorf("bps: got %v want 25", sig.DivergenceBps)
	}

	// strength caps at 1.0
	sig = OracleLag(oracle*1.02, oracle, 0)
	if sig.Strength != 1.0 {
		t.Errorf("strength should cap at 1.0, got %v", sig.Strength)
	}
}

func TestOracleLagBadOraclePrice(t *testing.T) {
	sig := OracleLag(100000, 0, 0)
	if sig.Label != model.SignalNeutral || sig.Strength != 0 || sig.DivergenceBps != 0 {
		t.Errorf("zero oracle price must be neutral, got %+v", sig)
	}
}
