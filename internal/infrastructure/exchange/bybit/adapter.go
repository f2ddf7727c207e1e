package bybit

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

const wsURL = "wss://stream.bybit.com/v5/public/spot"

// Adapter subscribes to the Bybit v5 public spot tickers topic.
// Push cadence is ~50ms, the fastest of the eight venues.
type Adapter struct{}

func New() *Adapter { return &Adapter{} }

func (a *Adapter) Name() string           { return application.VenueBybit }
func (a *Adapter) Quote() model.QuoteUnit { return model.QuoteUSDT }

// SymbolFor converts an asset to the Bybit pair format (e.g., BTC -> BTCUSDT)
func (a *Adapter) SymbolFor(asset string) string {
	return strings.ToUpper(strings.TrimSpace(asset)) + "USDT"
}

func (a *Adapter) ConnectURL(ctx context.Context, asset string) (string, time.Duration, error) {
	return wsURL, 0, nil
}

type subReq struct {
	Op   string   `json:"op"`
	Args []string `json:"args"`
}

func (a *Adapter) SubscribeMessage(asset string) ([]byte, error) {
	return json.Marshal(subReq{
		Op:   "subscribe",
		Args: []string{"tickers." + a.SymbolFor(asset)},
	})
}

type tickerItem struct {
	Symbol    string           `json:"symbol"`
	LastPrice exchange.Decimal `json:"lastPrice"`
	Bid1Price exchange.Decimal `json:"bid1Price"`
	Ask1Price exchange.Decimal `json:"ask1Price"`
}

// data can be object OR array depending on the topic
type dataList []tickerItem

func (d *dataList) UnmarshalJSON(b []byte) error {
	b = exchange.BytesTrimSpace(b)
	if len(b) == 0 || string(b) == "null" {
		*d = nil
		return nil
	}
	switch b[0] {
	case '[':
		var arr []tickerItem
		if err := json.Unmarshal(b, &arr); err != nil {
			return err
		}
		*d = dataList(arr)
		return nil
	case '{':
		var one tickerItem
		if err := json.Unmarshal(b, &one); err != nil {
			return err
		}
		*d = dataList{one}
		return nil
	default:
		return fmt.Errorf("unexpected data json: %s", string(b))
	}
}

type tickerMsg struct {
	Topic string   `json:"topic"`
	Type  string   `json:"type"` // "snapshot" or "delta"
	Data  dataList `json:"data"`

	Success *bool  `json:"success,omitempty"`
	RetMsg  string `json:"ret_msg,omitempty"`
}

func (a *Adapter) Parse(frame []byte) (*port.TickerUpdate, error) {
	var msg tickerMsg
	if err := json.Unmarshal(frame, &msg); err != nil {
		return nil, err
	}

	// ack
	if msg.Success != nil {
		if !*msg.Success {
			return nil, fmt.Errorf("bybit subscribe not success: %s", msg.RetMsg)
		}
		return nil, nil
	}

	if !strings.HasPrefix(msg.Topic, "tickers.") || len(msg.Data) == 0 {
		return nil, nil
	}
	t := msg.Data[0]
	if t.LastPrice == 0 {
		return nil, nil
	}
	return &port.TickerUpdate{
		Price: t.LastPrice.Float64(),
		Bid:   t.Bid1Price.Float64(),
		Ask:   t.Ask1Price.Float64(),
	}, nil
}
