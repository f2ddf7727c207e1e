package gemini

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"pulsefeed/internal/application"
	"pulsefeed/internal/application/port"
	"pulsefeed/internal/domain/model"
	"pulsefeed/internal/infrastructure/exchange"
)

// Adapter streams the Gemini v1 marketdata feed. The symbol lives in
// the URL and the stream mixes trade, change and snapshot events; only
// trade events carry a price, change events move the top of book.
//
// Gemini lists no XRP book; ConnectURL rejects it before dialing.
type Adapter struct {
	// top of book carried across change events, read and written only
	// from the runner's read goroutine
	bid float64
	ask float64
}

func New() *Adapter { return &Adapter{} }

func (a *Adapter) Name() string           { return application.VenueGemini }
func (a *Adapter) Quote() model.QuoteUnit { return model.QuoteUSD }

// SymbolFor converts an asset to the Gemini pair format (e.g., BTC -> btcusd)
func (a *Adapter) SymbolFor(asset string) string {
	return strings.ToLower(strings.TrimSpace(asset)) + "usd"
}

func (a *Adapter) ConnectURL(ctx context.Context, asset string) (string, time.Duration, error) {
	if strings.EqualFold(strings.TrimSpace(asset), application.AssetXRP) {
		return "", 0, fmt.Errorf("gemini has no %s book", asset)
	}
	return "wss://api.gemini.com/v1/marketdata/" + a.SymbolFor(asset), 0, nil
}

func (a *Adapter) SubscribeMessage(asset string) ([]byte, error) {
	return nil, nil
}

type event struct {
	Type  string           `json:"type"`
	Side  string           `json:"side,omitempty"`
	Price exchange.Decimal `json:"price"`
}

type marketMsg struct {
	Type   string  `json:"type"`
	Events []event `json:"events"`
}

func (a *Adapter) Parse(frame []byte) (*port.TickerUpdate, error) {
	var msg marketMsg
	if err := json.Unmarshal(frame, &msg); err != nil {
		return nil, err
	}

	var last float64
	for _, ev := range msg.Events {
		switch ev.Type {
		case "trade":
			if ev.Price > 0 {
				last = ev.Price.Float64()
			}
		case "change":
			switch ev.Side {
			case "bid":
				a.bid = ev.Price.Float64()
			case "ask":
				a.ask = ev.Price.Float64()
			}
		}
	}
	if last == 0 {
		// heartbeat, auction events, or book-only updates
		return nil, nil
	}
	return &port.TickerUpdate{Price: last, Bid: a.bid, Ask: a.ask}, nil
}
