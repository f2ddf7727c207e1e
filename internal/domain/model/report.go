package model

import (
	"crypto/sha256"
	"encoding/hex"
	"sort"
	"strconv"
	"strings"
)

// PriceReport is one aggregation result. Reports are immutable; the
// aggregator publishes a new one on every successful pass and readers
// share the previous pointer until then.
type PriceReport struct {
	Asset          string
	Price          float64
	SourcesUsed    []string // venue tags after filtering, sorted lexicographically
	SourceCount    int
	DivergencePct  float64
	Confidence     float64 // in [0.5, 1.0]
	UsdtPremiumPct float64 // signed; 0 when not derivable
	GeneratedAtMs  int64
	IntegrityHash  string // hex SHA-256 of the canonical serialization
}

// CanonicalString serializes the report fields the hash covers.
// Price and percentages use fixed 8-digit decimal formatting so that
// equal inputs always produce byte-equal strings.
func (r *PriceReport) CanonicalString() string {
	var sb strings.Builder
	sb.WriteString(r.Asset)
	sb.WriteByte('|')
	sb.WriteString(fixed8(r.Price))
	sb.WriteByte('|')
	sb.WriteString(strings.Join(r.SourcesUsed, ","))
	sb.WriteByte('|')
	sb.WriteString(strconv.Itoa(r.SourceCount))
	sb.WriteByte('|')
	sb.WriteString(fixed8(r.DivergencePct))
	sb.WriteByte('|')
	sb.WriteString(fixed8(r.Confidence))
	sb.WriteByte('|')
	sb.WriteString(fixed8(r.UsdtPremiumPct))
	sb.WriteByte('|')
	sb.WriteString(strconv.FormatInt(r.GeneratedAtMs, 10))
	return sb.String()
}

// Seal sorts the source list and stamps the integrity hash.
func (r *PriceReport) Seal() {
	sort.Strings(r.SourcesUsed)
	sum := sha256.Sum256([]byte(r.CanonicalString()))
	r.IntegrityHash = hex.EncodeToString(sum[:])
}

// AgeMs returns the report age relative to nowMs.
func (r *PriceReport) AgeMs(nowMs int64) int64 {
	return nowMs - r.GeneratedAtMs
}

func fixed8(v float64) string {
	return strconv.FormatFloat(v, 'f', 8, 64)
}
