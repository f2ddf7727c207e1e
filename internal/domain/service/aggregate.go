package service

import (
	"math"
	"sort"

	"pulsefeed/internal/domain/model"
)

// Thresholds are the aggregation knobs. Zero values are replaced by
// the defaults below so a zero Thresholds behaves like the stock feed.
type Thresholds struct {
	MaxStalenessMs        int64
	MaxDeviationPct       float64
	MinSources            int
	TightSpreadPct        float64
	DivergenceWarningPct  float64
	DivergenceCriticalPct float64
}

const (
	DefaultMaxStalenessMs        = int64(2000)
	DefaultMaxDeviationPct       = 1.0
	DefaultMinSources            = 2
	DefaultTightSpreadPct        = 0.1
	DefaultDivergenceWarningPct  = 0.3
	DefaultDivergenceCriticalPct = 0.5
)

// WithDefaults fills unset fields.
func (t Thresholds) WithDefaults() Thresholds {
	if t.MaxStalenessMs <= 0 {
		t.MaxStalenessMs = DefaultMaxStalenessMs
	}
	if t.MaxDeviationPct <= 0 {
		t.MaxDeviationPct = DefaultMaxDeviationPct
	}
	if t.MinSources <= 0 {
		t.MinSources = DefaultMinSources
	}
	if t.TightSpreadPct <= 0 {
		t.TightSpreadPct = DefaultTightSpreadPct
	}
	if t.DivergenceWarningPct <= 0 {
		t.DivergenceWarningPct = DefaultDivergenceWarningPct
	}
	if t.DivergenceCriticalPct <= 0 {
		t.DivergenceCriticalPct = DefaultDivergenceCriticalPct
	}
	return t
}

// Aggregate runs one deterministic aggregation pass over the latest
// per-venue snapshots and returns a sealed PriceReport, or nil when
// fewer than MinSources venues survive filtering.
//
// Steps: staleness filter, USD/USDT segregation, premium normalization,
// outlier rejection against the pre-reduction median, median reduction,
// divergence/confidence statistics.
func Aggregate(asset string, snaps []model.Snapshot, nowMs int64, th Thresholds) *model.PriceReport {
	th = th.WithDefaults()

	// Staleness filter. Snapshots at exactly the threshold age are dropped.
	fresh := make([]model.Snapshot, 0, len(snaps))
	for _, s := range snaps {
		if s.Price <= 0 {
			continue
		}
		if s.AgeMs(nowMs) >= th.MaxStalenessMs {
			continue
		}
		fresh = append(fresh, s)
	}
	if len(fresh) < th.MinSources {
		return nil
	}

	// Segregate by quote unit and derive the USDT premium. The premium
	// only exists when both sides have at least one venue.
	var usd, usdt []float64
	for _, s := range fresh {
		switch s.Quote {
		case model.QuoteUSDT:
			usdt = append(usdt, s.Price)
		default:
			usd = append(usd, s.Price)
		}
	}
	premiumPct := 0.0
	if len(usd) > 0 && len(usdt) > 0 {
		usdMed := median(usd)
		usdtMed := median(usdt)
		premiumPct = (usdtMed - usdMed) / usdMed * 100
	}

	type normalized struct {
		venue string
		price float64
	}
	norm := make([]normalized, 0, len(fresh))
	for _, s := range fresh {
		p := s.Price
		if s.Quote == model.QuoteUSDT && premiumPct != 0 {
			p = s.Price / (1 + premiumPct/100)
		}
		norm = append(norm, normalized{venue: s.Venue, price: p})
	}

	// Outlier rejection against the median of all normalized prices.
	all := make([]float64, len(norm))
	for i, n := range norm {
		all[i] = n.price
	}
	m0 := median(all)
	kept := norm[:0]
	for _, n := range norm {
		if math.Abs(n.price-m0)/m0*100 > th.MaxDeviationPct {
			continue
		}
		kept = append(kept, n)
	}
	if len(kept) < th.MinSources {
		return nil
	}

	prices := make([]float64, len(kept))
	sources := make([]string, len(kept))
	for i, n := range kept {
		prices[i] = n.price
		sources[i] = n.venue
	}

	price := median(prices)
	minP, maxP := prices[0], prices[0]
	for _, p := range prices[1:] {
		if p < minP {
			minP = p
		}
		if p > maxP {
			maxP = p
		}
	}
	divergencePct := (maxP - minP) / price * 100

	spreadPct := 0.0
	if len(prices) >= 2 {
		spreadPct = stdev(prices) / price * 100
	}
	confidence := confidenceFromSpread(spreadPct, th)

	report := &model.PriceReport{
		Asset:          asset,
		Price:          price,
		SourcesUsed:    sources,
		SourceCount:    len(sources),
		DivergencePct:  divergencePct,
		Confidence:     confidence,
		UsdtPremiumPct: premiumPct,
		GeneratedAtMs:  nowMs,
	}
	report.Seal()
	return report
}

// confidenceFromSpread maps the cross-venue sample stdev (as % of the
// median) into [0.5, 1.0]: 1.0 at/below the tight band, 0.5 at/above
// the critical band, linear in between.
func confidenceFromSpread(spreadPct float64, th Thresholds) float64 {
	switch {
	case spreadPct <= th.TightSpreadPct:
		return 1.0
	case spreadPct >= th.DivergenceCriticalPct:
		return 0.5
	default:
		span := th.DivergenceCriticalPct - th.TightSpreadPct
		c := 1.0 - (spreadPct-th.TightSpreadPct)/span*0.5
		return math.Max(0.5, c)
	}
}

// median of an even-length set is the mean of the two middle order
// statistics. The input slice is not modified.
func median(in []float64) float64 {
	vals := make([]float64, len(in))
	copy(vals, in)
	sort.Float64s(vals)
	n := len(vals)
	if n%2 == 1 {
		return vals[n/2]
	}
	return (vals[n/2-1] + vals[n/2]) / 2
}

// stdev is the sample standard deviation.
func stdev(vals []float64) float64 {
	n := float64(len(vals))
	if n < 2 {
		return 0
	}
	mean := 0.0
	for _, v := range vals {
		mean += v
	}
	mean /= n
	ss := 0.0
	for _, v := range vals {
		d := v - mean
		ss += d * d
	}
	return math.Sqrt(ss / (n - 1))
}

// Momentum is the percent change of current against a window-start price.
func Momentum(current, start float64) float64 {
	if start <= 0 {
		return 0
	}
	return (current - start) / start * 100
}
