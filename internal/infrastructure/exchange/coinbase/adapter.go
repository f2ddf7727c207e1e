package coinbase

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

const wsURL = "wss://ws-feed.exchange.coinbase.com"

// Adapter subscribes to the Coinbase Exchange public ticker channel.
// Coinbase settles in real USD, so it anchors premium normalization.
type Adapter struct{}

func New() *Adapter { return &Adapter{} }

func (a *Adapter) Name() string           { return application.VenueCoinbase }
func (a *Adapter) Quote() model.QuoteUnit { return model.QuoteUSD }

// SymbolFor converts an asset to the Coinbase pair format (e.g., BTC -> BTC-USD)
func (a *Adapter) SymbolFor(asset string) string {
	return strings.ToUpper(strings.TrimSpace(asset)) + "-USD"
}

func (a *Adapter) ConnectURL(ctx context.Context, asset string) (string, time.Duration, error) {
	return wsURL, 0, nil
}

type subChannel struct {
	Name       string   `json:"name"`
	ProductIDs []string `json:"product_ids"`
}

type subReq struct {
	Type     string       `json:"type"`
	Channels []subChannel `json:"channels"`
}

func (a *Adapter) SubscribeMessage(asset string) ([]byte, error) {
	return json.Marshal(subReq{
		Type:     "subscribe",
		Channels: []subChannel{{Name: "ticker", ProductIDs: []string{a.SymbolFor(asset)}}},
	})
}

type tickerMsg struct {
	Type    string           `json:"type"`
	Price   exchange.Decimal `json:"price"`
	BestBid exchange.Decimal `json:"best_bid"`
	BestAsk exchange.Decimal `json:"best_ask"`
	Message string           `json:"message,omitempty"`
}

func (a *Adapter) Parse(frame []byte) (*port.TickerUpdate, error) {
	var msg tickerMsg
	if err := json.Unmarshal(frame, &msg); err != nil {
		return nil, err
	}
	switch msg.Type {
	case "ticker":
	case "error":
		return nil, fmt.Errorf("coinbase error frame: %s", msg.Message)
	default:
		// subscriptions ack, heartbeat, etc.
		return nil, nil
	}
	if msg.Price == 0 {
		return nil, nil
	}
	return &port.TickerUpdate{
		Price: msg.Price.Float64(),
		Bid:   msg.BestBid.Float64(),
		Ask:   msg.BestAsk.Float64(),
	}, nil
}
