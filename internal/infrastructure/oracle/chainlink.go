package oracle

import (
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"strings"
	"sync"
	"time"

	"pulsefeed/internal/application"
	"pulsefeed/internal/application/port"

	"github.com/gorilla/websocket"
	"github.com/rs/zerolog/log"
)

// BTC/USD Data Stream ID (from data.chain.link)
const BTCUSDStreamID = "0x00039d9e45394f473ab1f050a1b963e6b05351e52d71e507509ada0c95ed75b8"

const (
	wsHostMainnet  = "wss://ws.dataengine.chain.link"
	wsHostTestnet  = "wss://ws.testnet-dataengine.chain.link"
	apiHostMainnet = "api.dataengine.chain.link"
	apiHostTestnet = "api.testnet-dataengine.chain.link"

	krakenTickerURL = "https://api.kraken.com/0/public/Ticker?pair="

	defaultPollInterval = time.Second
	streamPingInterval  = 30 * time.Second
	streamReconnectWait = 2 * time.Second
)

type Config struct {
	Asset        string
	APIKey       string
	APISecret    string
	Testnet      bool
	StreamID     string        // default: BTC/USD
	PollInterval time.Duration // REST fallback cadence
}

// Probe supplies the oracle reference price. With Chainlink credentials
// it holds a Data Streams websocket and decodes signed reports; without
// them it degrades to polling Kraken's public REST ticker.
type Probe struct {
	cfg        Config
	httpClient *http.Client
	streams    bool // chainlink path active

	mu     sync.Mutex
	price  float64
	tsMs   int64
	hasVal bool

	cancel context.CancelFunc
	done   chan struct{}
}

var _ port.OracleProbe = (*Probe)(nil)

func New(cfg Config) *Probe {
	if cfg.StreamID == "" {
		cfg.StreamID = BTCUSDStreamID
	}
	if cfg.PollInterval <= 0 {
		cfg.PollInterval = defaultPollInterval
	}
	return &Probe{
		cfg:        cfg,
		httpClient: &http.Client{Timeout: 5 * time.Second},
		streams:    cfg.APIKey != "" && cfg.APISecret != "",
	}
}

func (p *Probe) Source() string {
	if p.streams {
		return "chainlink"
	}
	return "kraken-rest"
}

func (p *Probe) Start(ctx context.Context) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.done != nil {
		return nil
	}

	rctx, cancel := context.WithCancel(ctx)
	p.cancel = cancel
	done := make(chan struct{})
	p.done = done

	if p.streams {
		go p.runStreams(rctx, done)
	} else {
		go p.runFallback(rctx, done)
	}
	log.Info().Str("source", p.Source()).Msg("oracle probe started")
	return nil
}

func (p *Probe) Stop() {
	p.mu.Lock()
	cancel := p.cancel
	done := p.done
	p.cancel = nil
	p.done = nil
	p.mu.Unlock()

	if cancel != nil {
		cancel()
		<-done
	}
}

func (p *Probe) Price() (float64, int64, bool) {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.price, p.tsMs, p.hasVal
}

func (p *Probe) setPrice(v float64) {
	if v <= 0 {
		return
	}
	p.mu.Lock()
	p.price = v
	p.tsMs = time.Now().UnixMilli()
	p.hasVal = true
	p.mu.Unlock()
}

// signature builds the Data Streams HMAC: SHA-256 over
// "METHOD PATH BODY_HASH API_KEY TIMESTAMP" keyed by the API secret.
// The body hash is empty for GET and websocket upgrades.
func (p *Probe) signature(method, path, body string, tsMs int64) string {
	bodyHash := ""
	if body != "" {
		sum := sha256.Sum256([]byte(body))
		bodyHash = hex.EncodeToString(sum[:])
	}
	toSign := fmt.Sprintf("%s %s %s %s %d", method, path, bodyHash, p.cfg.APIKey, tsMs)

	mac := hmac.New(sha256.New, []byte(p.cfg.APISecret))
	mac.Write([]byte(toSign))
	return hex.EncodeToString(mac.Sum(nil))
}

func (p *Probe) authHeader(method, path string) http.Header {
	ts := time.Now().UnixMilli()
	h := http.Header{}
	h.Set("Authorization", p.cfg.APIKey)
	h.Set("X-Authorization-Timestamp", strconv.FormatInt(ts, 10))
	h.Set("X-Authorization-Signature-SHA256", p.signature(method, path, "", ts))
	return h
}

// runStreams holds the Data Streams websocket. The ws frames only
// announce new reports; the decoded benchmark price comes from the
// signed REST endpoint.
func (p *Probe) runStreams(ctx context.Context, done chan struct{}) {
	defer close(done)

	wsHost := wsHostMainnet
	if p.cfg.Testnet {
		wsHost = wsHostTestnet
	}
	path := "/api/v1/ws?feedIDs=" + p.cfg.StreamID

	for {
		select {
		case <-ctx.Done():
			return
		default:
		}

		cctx, cancel := context.WithTimeout(ctx, 10*time.Second)
		conn, _, err := websocket.DefaultDialer.DialContext(cctx, wsHost+path, p.authHeader(http.MethodGet, path))
		cancel()
		if err != nil {
			log.Error().Err(err).Msg("chainlink ws dial failed")
			if !sleepCtx(ctx, streamReconnectWait) {
				return
			}
			continue
		}
		log.Info().Bool("testnet", p.cfg.Testnet).Msg("chainlink data streams connected")

		p.streamLoop(ctx, conn)
		_ = conn.Close()

		if ctx.Err() != nil {
			return
		}
		log.Warn().Msg("chainlink disconnected, reconnecting")
		if !sleepCtx(ctx, streamReconnectWait) {
			return
		}
	}
}

func (p *Probe) streamLoop(ctx context.Context, conn *websocket.Conn) {
	pingTicker := time.NewTicker(streamPingInterval)
	defer pingTicker.Stop()

	errCh := make(chan error, 1)
	go func() {
		defer close(errCh)
		for {
			_, frame, err := conn.ReadMessage()
			if err != nil {
				errCh <- err
				return
			}
			var msg struct {
				Report json.RawMessage `json:"report"`
			}
			if err := json.Unmarshal(frame, &msg); err != nil || msg.Report == nil {
				continue
			}
			p.fetchLatestReport(ctx)
		}
	}()

	for {
		select {
		case <-ctx.Done():
			_ = conn.Close()
			<-errCh
			return
		case <-errCh:
			return
		case <-pingTicker.C:
			_ = conn.WriteControl(websocket.PingMessage, []byte("ping"), time.Now().Add(5*time.Second))
		}
	}
}

// fetchLatestReport pulls and decodes the latest signed report.
// Crypto streams carry the benchmark price with 18 decimals.
func (p *Probe) fetchLatestReport(ctx context.Context) {
	host := apiHostMainnet
	if p.cfg.Testnet {
		host = apiHostTestnet
	}
	path := "/api/v1/reports/latest?feedID=" + p.cfg.StreamID

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, "https://"+host+path, nil)
	if err != nil {
		return
	}
	req.Header = p.authHeader(http.MethodGet, path)

	resp, err := p.httpClient.Do(req)
	if err != nil {
		return
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return
	}
	var out struct {
		Report struct {
			BenchmarkPrice string `json:"benchmarkPrice"`
		} `json:"report"`
	}
	if err := json.Unmarshal(body, &out); err != nil {
		return
	}
	if v, ok := DecodeBenchmarkPrice(out.Report.BenchmarkPrice); ok {
		p.setPrice(v)
	}
}

// DecodeBenchmarkPrice converts the raw 18-decimal integer string a
// crypto stream report carries into a price.
func DecodeBenchmarkPrice(raw string) (float64, bool) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return 0, false
	}
	v, err := strconv.ParseFloat(raw, 64)
	if err != nil || v <= 0 {
		return 0, false
	}
	return v / 1e18, true
}

// runFallback polls the Kraken public REST ticker. Keyless deployments
// land here; 1s cadence tracks the oracle closely enough for the
// lead-lag signal.
func (p *Probe) runFallback(ctx context.Context, done chan struct{}) {
	defer close(done)

	url := krakenTickerURL + KrakenPair(p.cfg.Asset)
	ticker := time.NewTicker(p.cfg.PollInterval)
	defer ticker.Stop()

	for {
		p.pollOnce(ctx, url)
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
		}
	}
}

func (p *Probe) pollOnce(ctx context.Context, url string) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return
	}
	resp, err := p.httpClient.Do(req)
	if err != nil {
		return
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return
	}
	if v, ok := ParseKrakenTicker(body); ok {
		p.setPrice(v)
	}
}

// ParseKrakenTicker extracts the last-trade price from a Kraken
// /0/public/Ticker response. The result key varies by pair alias
// (XXBTZUSD vs XBTUSD), so the single entry is taken whatever its key.
func ParseKrakenTicker(body []byte) (float64, bool) {
	var out struct {
		Error  []string `json:"error"`
		Result map[string]struct {
			C []string `json:"c"`
		} `json:"result"`
	}
	if err := json.Unmarshal(body, &out); err != nil || len(out.Error) > 0 {
		return 0, false
	}
	for _, t := range out.Result {
		if len(t.C) == 0 {
			continue
		}
		v, err := strconv.ParseFloat(t.C[0], 64)
		if err != nil || v <= 0 {
			continue
		}
		return v, true
	}
	return 0, false
}

// KrakenPair maps an asset tag to Kraken's REST pair name.
func KrakenPair(asset string) string {
	switch strings.ToUpper(strings.TrimSpace(asset)) {
	case application.AssetBTC, "":
		return "XBTUSD"
	default:
		return strings.ToUpper(strings.TrimSpace(asset)) + "USD"
	}
}

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
