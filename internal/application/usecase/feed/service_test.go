package feed

import (
	"context"
	"testing"
	"time"

	"pulsefeed/internal/domain/model"
	"pulsefeed/internal/domain/service"
)

type fakeFeedSet struct {
	snaps  []model.Snapshot
	stats  []model.FeedStats
	events chan model.Snapshot
}

func newFakeFeedSet() *fakeFeedSet {
	return &fakeFeedSet{events: make(chan model.Snapshot, 16)}
}

func (f *fakeFeedSet) StartAll(ctx context.Context)        {}
func (f *fakeFeedSet) StopAll()                            {}
func (f *fakeFeedSet) Events() <-chan model.Snapshot       { return f.events }
func (f *fakeFeedSet) Latest() []model.Snapshot            { return f.snaps }
func (f *fakeFeedSet) Stats() []model.FeedStats            { return f.stats }

type fakeOracle struct {
	price float64
	tsMs  int64
	has   bool
}

func (f *fakeOracle) Start(ctx context.Context) error { return nil }
func (f *fakeOracle) Stop()                           {}
func (f *fakeOracle) Source() string                  { return "fake" }
func (f *fakeOracle) Price() (float64, int64, bool)   { return f.price, f.tsMs, f.has }

func freshSnaps(usd, usdt float64) []model.Snapshot {
	now := time.Now().UnixMilli()
	mk := func(v string, q model.QuoteUnit, p float64) model.Snapshot {
		return model.Snapshot{Venue: v, Asset: "BTC", Quote: q, Price: p, TimestampMs: now}
	}
	return []model.Snapshot{
		mk("coinbase", model.QuoteUSD, usd),
		mk("kraken", model.QuoteUSD, usd),
		mk("binance", model.QuoteUSDT, usdt),
		mk("okx", model.QuoteUSDT, usdt),
	}
}

func TestNewValidates(t *testing.T) {
	if _, err := New(ServiceDeps{Asset: "DOGE", Feeds: newFakeFeedSet()}); err == nil {
		t.Error("unknown asset should fail at construction")
	}
	if _, err := New(ServiceDeps{Asset: "BTC"}); err == nil {
		t.Error("missing feed set should fail at construction")
	}
	if _, err := New(ServiceDeps{Asset: "BTC", Feeds: newFakeFeedSet()}); err != nil {
		t.Errorf("valid deps rejected: %v", err)
	}
}

func TestGettersBeforeFirstAggregation(t *testing.T) {
	s, err := New(ServiceDeps{Asset: "BTC", Feeds: newFakeFeedSet()})
	if err != nil {
		t.Fatal(err)
	}
	if _, ok := s.Price(); ok {
		t.Error("price before first aggregation should be none")
	}
	if _, ok := s.Divergence(); ok {
		t.Error("divergence before first aggregation should be none")
	}
	if _, ok := s.Confidence(); ok {
		t.Error("confidence before first aggregation should be none")
	}
	if r := s.Report(); r != nil {
		t.Error("report before first aggregation should be nil")
	}
}

func TestAggregationUpdatesGetters(t *testing.T) {
	fs := newFakeFeedSet()
	fs.snaps = freshSnaps(97000, 97164.90)

	s, err := New(ServiceDeps{Asset: "BTC", Feeds: fs})
	if err != nil {
		t.Fatal(err)
	}

	s.aggregateOnce(context.Background())

	p, ok := s.Price()
	if !ok {
		t.Fatal("expected a price")
	}
	if p < 96999 || p > 97001 {
		t.Errorf("unexpected price %v", p)
	}
	if c, ok := s.Confidence(); !ok || c != 1.0 {
		t.Errorf("confidence: %v ok=%v", c, ok)
	}
	if r := s.Report(); r == nil || r.SourceCount != 4 {
		t.Errorf("report: %+v", r)
	}
}

func TestDegradedKeepsPriorReport(t *testing.T) {
	fs := newFakeFeedSet()
	fs.snaps = freshSnaps(97000, 97164.90)

	s, _ := New(ServiceDeps{Asset: "BTC", Feeds: fs})
	s.aggregateOnce(context.Background())
	before := s.Report()
	if before == nil {
		t.Fatal("expected a report")
	}

	// drop to a single live venue: aggregation aborts, prior report stays
	fs.snaps = fs.snaps[:1]
	s.aggregateOnce(context.Background())

	after := s.Report()
	if after == nil || after.IntegrityHash != before.IntegrityHash {
		t.Error("degraded pass must retain the prior report")
	}
}

func TestStaleReportReturnsNone(t *testing.T) {
	fs := newFakeFeedSet()
	s, _ := New(ServiceDeps{Asset: "BTC", Feeds: fs})

	old := &model.PriceReport{
		Asset:         "BTC",
		Price:         97000,
		GeneratedAtMs: time.Now().UnixMilli() - 2*service.DefaultMaxStalenessMs - 500,
	}
	old.Seal()
	s.report.Store(old)

	if r := s.Report(); r != nil {
		t.Error("report older than twice the staleness budget should be none")
	}
	if _, ok := s.Price(); ok {
		t.Error("stale price should be none")
	}
}

func TestOracleSignal(t *testing.T) {
	fs := newFakeFeedSet()
	fs.snaps = freshSnaps(97000, 97164.90)

	// no oracle configured
	s, _ := New(ServiceDeps{Asset: "BTC", Feeds: fs})
	s.aggregateOnce(context.Background())
	if _, ok := s.OracleSignal(); ok {
		t.Error("signal without oracle should be none")
	}

	// oracle lagging 10 bps below -> LONG
	probe := &fakeOracle{price: 97000 * (1 - 0.0010), tsMs: time.Now().UnixMilli(), has: true}
	s, _ = New(ServiceDeps{Asset: "BTC", Feeds: fs, Oracle: probe})
	s.aggregateOnce(context.Background())

	sig, ok := s.OracleSignal()
	if !ok {
		t.Fatal("expected a signal")
	}
	if sig.Label != model.SignalLong {
		t.Errorf("label: got %s want LONG", sig.Label)
	}
	if sig.Strength <= 0 || sig.Strength > 1 {
		t.Errorf("strength out of range: %v", sig.Strength)
	}
}

func TestMomentumWindow(t *testing.T) {
	fs := newFakeFeedSet()
	fs.snaps = freshSnaps(97000, 97164.90)

	s, _ := New(ServiceDeps{Asset: "BTC", Feeds: fs})

	if _, ok := s.Momentum(); ok {
		t.Error("momentum without a window should be none")
	}

	s.aggregateOnce(context.Background())
	s.MarkWindowStart()

	m, ok := s.Momentum()
	if !ok {
		t.Fatal("expected momentum after marking the window")
	}
	if m != 0 {
		t.Errorf("no move yet, got %v", m)
	}
}

func TestStartStopIdempotent(t *testing.T) {
	fs := newFakeFeedSet()
	s, _ := New(ServiceDeps{Asset: "BTC", Feeds: fs})

	ctx := context.Background()
	if err := s.Start(ctx); err != nil {
		t.Fatal(err)
	}
	if err := s.Start(ctx); err != nil {
		t.Fatal("second start should be a no-op")
	}

	s.Stop()
	s.Stop() // idempotent
}
