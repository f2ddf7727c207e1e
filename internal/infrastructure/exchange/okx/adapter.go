package okx

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

const wsURL = "wss://ws.okx.com:8443/ws/v5/public"

// Adapter subscribes to the OKX v5 public tickers channel.
type Adapter struct{}

func New() *Adapter { return &Adapter{} }

func (a *Adapter) Name() string           { return application.VenueOKX }
func (a *Adapter) Quote() model.QuoteUnit { return model.QuoteUSDT }

// SymbolFor converts an asset to the OKX pair format (e.g., BTC -> BTC-USDT)
func (a *Adapter) SymbolFor(asset string) string {
	return strings.ToUpper(strings.TrimSpace(asset)) + "-USDT"
}

func (a *Adapter) ConnectURL(ctx context.Context, asset string) (string, time.Duration, error) {
	return wsURL, 0, nil
}

type subReq struct {
	Op   string   `json:"op"`
	Args []subArg `json:"args"`
}

type subArg struct {
	Channel string `json:"channel"`
	InstID  string `json:"instId"`
}

func (a *Adapter) SubscribeMessage(asset string) ([]byte, error) {
	return json.Marshal(subReq{
		Op:   "subscribe",
		Args: []subArg{{Channel: "tickers", InstID: a.SymbolFor(asset)}},
	})
}

type tickerData struct {
	InstID string           `json:"instId"`
	Last   exchange.Decimal `json:"last"`
	BidPx  exchange.Decimal `json:"bidPx"`
	AskPx  exchange.Decimal `json:"askPx"`
}

type tickerMsg struct {
	Event string       `json:"event,omitempty"` // "subscribe" ack or "error"
	Msg   string       `json:"msg,omitempty"`
	Data  []tickerData `json:"data,omitempty"`
}

func (a *Adapter) Parse(frame []byte) (*port.TickerUpdate, error) {
	var msg tickerMsg
	if err := json.Unmarshal(frame, &msg); err != nil {
		return nil, err
	}
	if msg.Event == "error" {
		return nil, fmt.Errorf("okx error frame: %s", msg.Msg)
	}
	if len(msg.Data) == 0 {
		return nil, nil
	}
	t := msg.Data[0]
	if t.Last == 0 {
		return nil, nil
	}
	return &port.TickerUpdate{
		Price: t.Last.Float64(),
		Bid:   t.BidPx.Float64(),
		Ask:   t.AskPx.Float64(),
	}, nil
}
