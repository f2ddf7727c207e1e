package binance

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

// Adapter streams the Binance.US spot @ticker channel. The symbol is
// embedded in the stream URL, so no subscribe frame is needed.
// Binance.com answers HTTP 451 from US networks; the .us host avoids it.
type Adapter struct{}

func New() *Adapter { return &Adapter{} }

func (a *Adapter) Name() string           { return application.VenueBinance }
func (a *Adapter) Quote() model.QuoteUnit { return model.QuoteUSDT }

// SymbolFor converts an asset to the Binance pair format (e.g., BTC -> BTCUSDT)
func (a *Adapter) SymbolFor(asset string) string {
	return strings.ToUpper(strings.TrimSpace(asset)) + "USDT"
}

func (a *Adapter) ConnectURL(ctx context.Context, asset string) (string, time.Duration, error) {
	pair := strings.ToLower(a.SymbolFor(asset))
	return fmt.Sprintf("wss://stream.binance.us:9443/ws/%s@ticker", pair), 0, nil
}

func (a *Adapter) SubscribeMessage(asset string) ([]byte, error) {
	return nil, nil
}

type tickerMsg struct {
	Close exchange.Decimal `json:"c"`
	Bid   exchange.Decimal `json:"b"`
	Ask   exchange.Decimal `json:"a"`
}

func (a *Adapter) Parse(frame []byte) (*port.TickerUpdate, error) {
	var msg tickerMsg
	if err := json.Unmarshal(frame, &msg); err != nil {
		return nil, err
	}
	if msg.Close == 0 {
		// not a ticker frame (or an empty one)
		return nil, nil
	}
	return &port.TickerUpdate{
		Price: msg.Close.Float64(),
		Bid:   msg.Bid.Float64(),
		Ask:   msg.Ask.Float64(),
	}, nil
}
