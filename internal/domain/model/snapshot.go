package model

import (
	"errors"
	"fmt"
)

// QuoteUnit is the settlement currency of a venue's pair.
type QuoteUnit string

const (
	QuoteUSD  QuoteUnit = "USD"
	QuoteUSDT QuoteUnit = "USDT"
)

// Snapshot is one tick from one venue. Immutable after creation;
// everyone downstream holds it by value.
type Snapshot struct {
	Venue       string
	Asset       string
	Quote       QuoteUnit
	Price       float64
	Bid         float64 // 0 = not provided by the venue
	Ask         float64 // 0 = not provided by the venue
	TimestampMs int64   // wall-clock of receipt, unix ms
}

// AgeMs returns how old the snapshot is relative to nowMs.
func (s Snapshot) AgeMs(nowMs int64) int64 {
	return nowMs - s.TimestampMs
}

// Validate enforces the snapshot invariants: positive price,
// bid <= ask when both sides are present.
func (s Snapshot) Validate() error {
	if s.Venue == "" {
		return errors.New("snapshot venue empty")
	}
	if s.Price <= 0 {
		return fmt.Errorf("snapshot price must be positive, got %v", s.Price)
	}
	if s.Bid < 0 || s.Ask < 0 {
		return errors.New("snapshot bid/ask must be positive")
	}
	if s.Bid > 0 && s.Ask > 0 && s.Bid > s.Ask {
		return fmt.Errorf("snapshot bid %v above ask %v", s.Bid, s.Ask)
	}
	return nil
}
