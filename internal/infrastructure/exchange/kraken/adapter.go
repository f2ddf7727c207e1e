package kraken

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

const wsURL = "wss://ws.kraken.com/v2"

// Adapter subscribes to the Kraken WebSocket API v2 ticker channel.
// v2 uses standard symbols (BTC, not XBT) and real USD settlement.
type Adapter struct{}

func New() *Adapter { return &Adapter{} }

func (a *Adapter) Name() string           { return application.VenueKraken }
func (a *Adapter) Quote() model.QuoteUnit { return model.QuoteUSD }

// SymbolFor converts an asset to the Kraken v2 pair format (e.g., BTC -> BTC/USD)
func (a *Adapter) SymbolFor(asset string) string {
	return strings.ToUpper(strings.TrimSpace(asset)) + "/USD"
}

func (a *Adapter) ConnectURL(ctx context.Context, asset string) (string, time.Duration, error) {
	return wsURL, 0, nil
}

type subReq struct {
	Method string    `json:"method"`
	Params subParams `json:"params"`
}

type subParams struct {
	Channel string   `json:"channel"`
	Symbol  []string `json:"symbol"`
}

func (a *Adapter) SubscribeMessage(asset string) ([]byte, error) {
	return json.Marshal(subReq{
		Method: "subscribe",
		Params: subParams{Channel: "ticker", Symbol: []string{a.SymbolFor(asset)}},
	})
}

type tickerItem struct {
	Last exchange.Decimal `json:"last"`
	Bid  exchange.Decimal `json:"bid"`
	Ask  exchange.Decimal `json:"ask"`
}

type tickerMsg struct {
	Channel string       `json:"channel"`
	Type    string       `json:"type"` // "snapshot" or "update", both carry prices
	Data    []tickerItem `json:"data"`

	Error string `json:"error,omitempty"`
}

func (a *Adapter) Parse(frame []byte) (*port.TickerUpdate, error) {
	var msg tickerMsg
	if err := json.Unmarshal(frame, &msg); err != nil {
		return nil, err
	}
	if msg.Error != "" {
		return nil, fmt.Errorf("kraken error frame: %s", msg.Error)
	}
	if msg.Channel != "ticker" || len(msg.Data) == 0 {
		// status, heartbeat, subscribe ack
		return nil, nil
	}
	t := msg.Data[0]
	if t.Last == 0 {
		return nil, nil
	}
	return &port.TickerUpdate{
		Price: t.Last.Float64(),
		Bid:   t.Bid.Float64(),
		Ask:   t.Ask.Float64(),
	}, nil
}
