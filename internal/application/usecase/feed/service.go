package feed

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"pulsefeed/internal/application"
	"pulsefeed/internal/application/port"
	"pulsefeed/internal/domain/model"
	"pulsefeed/internal/domain/service"

	"github.com/rs/zerolog/log"
)

type ServiceDeps struct {
	Asset      string
	Feeds      port.FeedSet
	Thresholds service.Thresholds
	Repo       port.Repository  // optional, nil = no persistence
	Oracle     port.OracleProbe // optional, nil = no oracle signal
}

// Service is the aggregation engine plus the read surface over it.
// One aggregator goroutine serializes all writes to the report slot;
// readers share the published pointer without locks.
type Service struct {
	deps ServiceDeps
	th   service.Thresholds

	report atomic.Pointer[model.PriceReport]

	mu          sync.Mutex
	started     bool
	cancel      context.CancelFunc
	done        chan struct{}
	windowStart float64
	hasWindow   bool
}

func New(deps ServiceDeps) (*Service, error) {
	if !application.KnownAsset(deps.Asset) {
		return nil, fmt.Errorf("unknown asset %q", deps.Asset)
	}
	if deps.Feeds == nil {
		return nil, errors.New("no feed set")
	}
	return &Service{
		deps: deps,
		th:   deps.Thresholds.WithDefaults(),
	}, nil
}

// Start launches the runners, the oracle probe and the aggregator
// worker. Non-blocking and idempotent.
func (s *Service) Start(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.started {
		return nil
	}
	s.started = true

	rctx, cancel := context.WithCancel(ctx)
	s.cancel = cancel
	done := make(chan struct{})
	s.done = done

	s.deps.Feeds.StartAll(rctx)

	if s.deps.Oracle != nil {
		if err := s.deps.Oracle.Start(rctx); err != nil {
			log.Warn().Err(err).Msg("oracle probe failed to start, continuing without it")
			s.deps.Oracle = nil
		}
	}

	go s.run(rctx, done)

	log.Info().
		Str("asset", s.deps.Asset).
		Int("venues", len(s.deps.Feeds.Stats())).
		Msg("price feed started")
	return nil
}

// Stop shuts down the aggregator, the runners and the oracle probe,
// and waits for worker termination. Idempotent.
func (s *Service) Stop() {
	s.mu.Lock()
	if !s.started {
		s.mu.Unlock()
		return
	}
	s.started = false
	cancel := s.cancel
	done := s.done
	s.mu.Unlock()

	cancel()
	<-done
	s.deps.Feeds.StopAll()
	if s.deps.Oracle != nil {
		s.deps.Oracle.Stop()
	}
	log.Info().Str("asset", s.deps.Asset).Msg("price feed stopped")
}

// run re-aggregates on every inbound snapshot, coalescing by venue:
// each pass reads the latest snapshot per venue from the feed set.
func (s *Service) run(ctx context.Context, done chan struct{}) {
	defer close(done)
	events := s.deps.Feeds.Events()

	for {
		select {
		case <-ctx.Done():
			return
		case _, ok := <-events:
			if !ok {
				return
			}
			s.aggregateOnce(ctx)
		}
	}
}

func (s *Service) aggregateOnce(ctx context.Context) {
	snaps := s.deps.Feeds.Latest()
	report := service.Aggregate(s.deps.Asset, snaps, time.Now().UnixMilli(), s.th)
	if report == nil {
		// degraded: too few live venues, keep the previous report
		return
	}
	s.report.Store(report)

	if report.DivergencePct > s.th.DivergenceWarningPct {
		log.Warn().
			Str("asset", report.Asset).
			Float64("divergence_pct", report.DivergencePct).
			Float64("confidence", report.Confidence).
			Msg("cross-venue divergence elevated")
	}

	if s.deps.Repo != nil {
		if err := s.deps.Repo.UpsertLatestReport(ctx, report); err != nil {
			log.Error().Err(err).Msg("persist latest report failed")
		}
		if err := s.deps.Repo.InsertReport(ctx, report); err != nil {
			log.Error().Err(err).Msg("persist report failed")
		}
		if sig, ok := s.OracleSignal(); ok && sig.Label != model.SignalNeutral {
			payload := fmt.Sprintf(`{"label":%q,"strength":%.4f,"price":%.8f,"oracle_price":%.8f}`,
				sig.Label, sig.Strength, report.Price, sig.OraclePrice)
			if err := s.deps.Repo.InsertSignal(ctx, report.GeneratedAtMs, report.Asset, sig.DivergenceBps, payload); err != nil {
				log.Error().Err(err).Msg("persist signal failed")
			}
		}
	}
}

// Report returns the current report, or nil when no aggregation has
// succeeded yet or the last one is older than twice the staleness
// budget (the conservative reading of a stalled feed).
func (s *Service) Report() *model.PriceReport {
	r := s.report.Load()
	if r == nil {
		return nil
	}
	if r.AgeMs(time.Now().UnixMilli()) > 2*s.th.MaxStalenessMs {
		return nil
	}
	return r
}

func (s *Service) Price() (float64, bool) {
	if r := s.Report(); r != nil {
		return r.Price, true
	}
	return 0, false
}

func (s *Service) Divergence() (float64, bool) {
	if r := s.Report(); r != nil {
		return r.DivergencePct, true
	}
	return 0, false
}

func (s *Service) Confidence() (float64, bool) {
	if r := s.Report(); r != nil {
		return r.Confidence, true
	}
	return 0, false
}

func (s *Service) UsdtPremium() (float64, bool) {
	if r := s.Report(); r != nil {
		return r.UsdtPremiumPct, true
	}
	return 0, false
}

// DivergenceWarning reports divergence beyond the advisory threshold.
func (s *Service) DivergenceWarning() bool {
	d, ok := s.Divergence()
	return ok && d > s.th.DivergenceWarningPct
}

// DivergenceCritical reports divergence in manipulation territory.
func (s *Service) DivergenceCritical() bool {
	d, ok := s.Divergence()
	return ok && d > s.th.DivergenceCriticalPct
}

// OracleSignal compares the current aggregated price against the
// oracle reference. ok is false when no oracle is configured, the
// oracle has no price yet, or there is no fresh report.
func (s *Service) OracleSignal() (model.OracleSignal, bool) {
	if s.deps.Oracle == nil {
		return model.OracleSignal{}, false
	}
	oraclePrice, tsMs, ok := s.deps.Oracle.Price()
	if !ok {
		return model.OracleSignal{}, false
	}
	r := s.Report()
	if r == nil {
		return model.OracleSignal{}, false
	}
	return service.OracleLag(r.Price, oraclePrice, time.Now().UnixMilli()-tsMs), true
}

// FeedStats returns per-venue health in registry order.
func (s *Service) FeedStats() []model.FeedStats {
	return s.deps.Feeds.Stats()
}

// MarkWindowStart pins the current price as the momentum baseline.
func (s *Service) MarkWindowStart() {
	p, ok := s.Price()
	s.mu.Lock()
	defer s.mu.Unlock()
	s.windowStart = p
	s.hasWindow = ok
}

// Momentum is the percent move since MarkWindowStart.
func (s *Service) Momentum() (float64, bool) {
	s.mu.Lock()
	start := s.windowStart
	has := s.hasWindow
	s.mu.Unlock()

	p, ok := s.Price()
	if !has || !ok {
		return 0, false
	}
	return service.Momentum(p, start), true
}
