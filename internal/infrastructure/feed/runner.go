package feed

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"time"

	"pulsefeed/internal/application/port"
	"pulsefeed/internal/domain/model"

	"github.com/gorilla/websocket"
	"github.com/rs/zerolog/log"
)

// Config carries the connection and reconnection knobs shared by all
// runners. Zero values fall back to the defaults below.
type Config struct {
	ConnectTimeout    time.Duration
	PingInterval      time.Duration
	PongTimeout       time.Duration
	ReconnectDelay    time.Duration
	MaxReconnectDelay time.Duration
	ReconnectBackoff  float64
}

const (
	defaultConnectTimeout    = 5 * time.Second
	defaultPingInterval      = 20 * time.Second
	defaultPongTimeout       = 10 * time.Second
	defaultReconnectDelay    = 1 * time.Second
	defaultMaxReconnectDelay = 30 * time.Second
	defaultReconnectBackoff  = 1.5

	// consecutive schema violations before the stream is torn down
	maxParseErrorBurst = 20
)

var errTooManyParseErrors = errors.New("too many consecutive parse errors")

func (c Config) withDefaults() Config {
	if c.ConnectTimeout <= 0 {
		c.ConnectTimeout = defaultConnectTimeout
	}
	if c.PingInterval <= 0 {
		c.PingInterval = defaultPingInterval
	}
	if c.PongTimeout <= 0 {
		c.PongTimeout = defaultPongTimeout
	}
	if c.ReconnectDelay <= 0 {
		c.ReconnectDelay = defaultReconnectDelay
	}
	if c.MaxReconnectDelay <= 0 {
		c.MaxReconnectDelay = defaultMaxReconnectDelay
	}
	if c.ReconnectBackoff <= 1 {
		c.ReconnectBackoff = defaultReconnectBackoff
	}
	return c
}

// appPinger is an optional adapter capability: venues that expect a
// JSON ping (KuCoin) implement it; everyone else gets a control frame.
type appPinger interface {
	PingMessage() []byte
}

// Runner drives one venue adapter through its full lifecycle: dial,
// subscribe, stream, backoff, reconnect. It owns its socket and its
// health counters; snapshots leave through the emit callback.
type Runner struct {
	adapter port.VenueAdapter
	asset   string
	cfg     Config
	emit    func(model.Snapshot)

	mu           sync.Mutex
	connected    bool
	last         model.Snapshot
	hasLast      bool
	msgCount     int64
	errCount     int64
	reconnects   int64
	curBackoffMs int64
}

func NewRunner(adapter port.VenueAdapter, asset string, cfg Config, emit func(model.Snapshot)) *Runner {
	return &Runner{
		adapter: adapter,
		asset:   asset,
		cfg:     cfg.withDefaults(),
		emit:    emit,
	}
}

func (r *Runner) Venue() string { return r.adapter.Name() }

// Run blocks until ctx is cancelled, reconnecting with exponential
// backoff the whole time. The socket is closed on every exit path.
func (r *Runner) Run(ctx context.Context) {
	delay := r.cfg.ReconnectDelay

	for {
		select {
		case <-ctx.Done():
			return
		default:
		}

		streamed, err := r.connectOnce(ctx)
		if ctx.Err() != nil {
			return
		}
		if streamed {
			// at least one snapshot flowed, so the backoff resets
			delay = r.cfg.ReconnectDelay
		}

		log.Warn().
			Str("feed", r.Venue()).
			Err(err).
			Dur("delay", delay).
			Msg("ws disconnected, reconnecting")

		r.mu.Lock()
		r.reconnects++
		r.curBackoffMs = delay.Milliseconds()
		r.mu.Unlock()

		if !sleepCtx(ctx, delay) {
			return
		}
		delay = nextBackoff(delay, r.cfg.ReconnectBackoff, r.cfg.MaxReconnectDelay)
	}
}

// connectOnce performs one dial/subscribe/stream cycle. streamed is
// true when at least one snapshot was emitted before the stream died.
func (r *Runner) connectOnce(ctx context.Context) (streamed bool, err error) {
	url, pingOverride, err := r.adapter.ConnectURL(ctx, r.asset)
	if err != nil {
		// KuCoin preflight failures land here; retried like any dial error
		log.Error().Str("feed", r.Venue()).Err(err).Msg("connect url failed")
		return false, err
	}

	log.Debug().Str("feed", r.Venue()).Str("url", url).Msg("ws connecting")
	cctx, cancel := context.WithTimeout(ctx, r.cfg.ConnectTimeout)
	conn, _, err := websocket.DefaultDialer.DialContext(cctx, url, nil)
	cancel()
	if err != nil {
		log.Error().Str("feed", r.Venue()).Err(err).Msg("ws dial failed")
		return false, err
	}
	defer conn.Close()

	sub, err := r.adapter.SubscribeMessage(r.asset)
	if err != nil {
		return false, err
	}
	if sub != nil {
		if err := conn.WriteMessage(websocket.TextMessage, sub); err != nil {
			log.Error().Str("feed", r.Venue()).Err(err).Msg("subscribe failed")
			return false, err
		}
	}

	r.setConnected(true)
	defer r.setConnected(false)
	log.Info().Str("feed", r.Venue()).Msg("ws connected & subscribed")

	pingEvery := r.cfg.PingInterval
	if pingOverride > 0 {
		pingEvery = pingOverride
	}
	return r.readLoop(ctx, conn, pingEvery)
}

func (r *Runner) readLoop(ctx context.Context, conn *websocket.Conn, pingEvery time.Duration) (bool, error) {
	// two unanswered pings plus the pong grace and the link is dead
	deadline := 2*pingEvery + r.cfg.PongTimeout
	_ = conn.SetReadDeadline(time.Now().Add(deadline))
	conn.SetPongHandler(func(string) error {
		_ = conn.SetReadDeadline(time.Now().Add(deadline))
		return nil
	})

	pingTicker := time.NewTicker(pingEvery)
	defer pingTicker.Stop()

	var streamed atomic.Bool

	errCh := make(chan error, 1)
	go func() {
		defer close(errCh)
		parseBurst := 0
		for {
			_, frame, err := conn.ReadMessage()
			if err != nil {
				errCh <- err
				return
			}
			_ = conn.SetReadDeadline(time.Now().Add(deadline))

			emitted, parseErr := r.handleFrame(frame)
			switch {
			case emitted:
				streamed.Store(true)
				parseBurst = 0
			case parseErr:
				parseBurst++
				if parseBurst > maxParseErrorBurst {
					errCh <- errTooManyParseErrors
					return
				}
			default:
				// a valid price-less frame breaks the run of violations
				parseBurst = 0
			}
		}
	}()

	for {
		select {
		case <-ctx.Done():
			_ = conn.Close()
			<-errCh
			return streamed.Load(), ctx.Err()
		case err := <-errCh:
			return streamed.Load(), err
		case <-pingTicker.C:
			if p, ok := r.adapter.(appPinger); ok {
				_ = conn.WriteMessage(websocket.TextMessage, p.PingMessage())
			} else {
				_ = conn.WriteControl(websocket.PingMessage, []byte("ping"), time.Now().Add(5*time.Second))
			}
		}
	}
}

// handleFrame parses one frame and emits the snapshot when it carries
// a price. emitted and parseErr are mutually exclusive; both false
// means the frame was valid but price-less.
func (r *Runner) handleFrame(frame []byte) (emitted, parseErr bool) {
	update, err := r.adapter.Parse(frame)
	if err != nil {
		// malformed frame: count it and keep the connection
		r.mu.Lock()
		r.errCount++
		r.mu.Unlock()
		log.Debug().Str("feed", r.Venue()).Err(err).Msg("frame parse error")
		return false, true
	}
	if update == nil {
		return false, false
	}

	snap := model.Snapshot{
		Venue:       r.adapter.Name(),
		Asset:       r.asset,
		Quote:       r.adapter.Quote(),
		Price:       update.Price,
		Bid:         update.Bid,
		Ask:         update.Ask,
		TimestampMs: time.Now().UnixMilli(),
	}
	if err := snap.Validate(); err != nil {
		r.mu.Lock()
		r.errCount++
		r.mu.Unlock()
		log.Debug().Str("feed", r.Venue()).Err(err).Msg("invalid snapshot dropped")
		return false, true
	}

	r.mu.Lock()
	r.last = snap
	r.hasLast = true
	r.msgCount++
	r.mu.Unlock()

	r.emit(snap)
	return true, false
}

func (r *Runner) setConnected(v bool) {
	r.mu.Lock()
	r.connected = v
	r.mu.Unlock()
}

// Latest returns the most recent snapshot, if any.
func (r *Runner) Latest() (model.Snapshot, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.last, r.hasLast
}

// Stats copies the health counters for the stats surface.
func (r *Runner) Stats() model.FeedStats {
	now := time.Now().UnixMilli()
	r.mu.Lock()
	defer r.mu.Unlock()

	s := model.FeedStats{
		Venue:          r.adapter.Name(),
		Connected:      r.connected,
		AgeMs:          -1,
		MessageCount:   r.msgCount,
		ErrorCount:     r.errCount,
		ReconnectCount: r.reconnects,
	}
	if r.hasLast {
		s.LastPrice = r.last.Price
		s.AgeMs = now - r.last.TimestampMs
	}
	return s
}

// nextBackoff multiplies the delay and caps it at max.
func nextBackoff(cur time.Duration, factor float64, max time.Duration) time.Duration {
	next := time.Duration(float64(cur) * factor)
	if next > max {
		return max
	}
	return next
}

// sleepCtx waits for d, returning false when ctx wins.
func sleepCtx(ctx context.Context, d time.Duration) bool {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return false
	case <-t.C:
		return true
	}
}
