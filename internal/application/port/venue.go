package port

import (
	"context"
	"time"

	"pulsefeed/internal/domain/model"
)

// TickerUpdate is the venue-agnostic result of parsing one ticker frame.
// Bid/Ask are 0 when the venue does not carry them in the frame.
type TickerUpdate struct {
	Price float64
	Bid   float64
	Ask   float64
}

// VenueAdapter encapsulates one venue's wire protocol: URL derivation,
// subscription dialect and ticker parsing. Adapters are stateless apart
// from Gemini's cached top of book; the runner owns the socket.
type VenueAdapter interface {
	Name() string
	Quote() model.QuoteUnit

	// SymbolFor maps an asset tag to the venue's pair symbol,
	// e.g. BTC -> "BTCUSDT" (binance) or "BTC-USD" (coinbase).
	SymbolFor(asset string) string

	// ConnectURL returns the websocket URL for the asset. Venues with a
	// REST preflight (KuCoin) run it here and may return a server-mandated
	// ping interval; 0 keeps the configured cadence. Called again on every
	// reconnect so tokens stay fresh.
	ConnectURL(ctx context.Context, asset string) (url string, pingInterval time.Duration, err error)

	// SubscribeMessage returns the frame to send after connecting, or nil
	// for venues whose stream URL already carries the subscription.
	SubscribeMessage(asset string) ([]byte, error)

	// Parse extracts a ticker update from one raw frame. (nil, nil) means
	// the frame is valid but carries no price (acks, heartbeats, book
	// deltas); a non-nil error is a schema violation the runner counts
	// without treating it as a connection failure.
	Parse(frame []byte) (*TickerUpdate, error)
}
