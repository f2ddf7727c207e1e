package gateio

import (
	"context"
	"encoding/json"
	"strings"
	"time"

	"pulsefeed/internal/application"
	"pulsefeed/internal/application/port"
	"pulsefeed/internal/domain/model"
	"pulsefeed/internal/infrastructure/exchange"
)

const wsURL = "wss://api.gateio.ws/ws/v4/"

// Adapter subscribes to the Gate.io v4 spot.tickers channel.
type Adapter struct{}

func New() *Adapter { return &Adapter{} }

func (a *Adapter) Name() string           { return application.VenueGateIO }
func (a *Adapter) Quote() model.QuoteUnit { return model.QuoteUSDT }

// SymbolFor converts an asset to the Gate.io pair format (e.g., BTC -> BTC_USDT)
func (a *Adapter) SymbolFor(asset string) string {
	return strings.ToUpper(strings.TrimSpace(asset)) + "_USDT"
}

func (a *Adapter) ConnectURL(ctx context.Context, asset string) (string, time.Duration, error) {
	return wsURL, 0, nil
}

type subReq struct {
	Time    int64    `json:"time"`
	Channel string   `json:"channel"`
	Event   string   `json:"event"`
	Payload []string `json:"payload"`
}

func (a *Adapter) SubscribeMessage(asset string) ([]byte, error) {
	return json.Marshal(subReq{
		Time:    time.Now().Unix(),
		Channel: "spot.tickers",
		Event:   "subscribe",
		Payload: []string{a.SymbolFor(asset)},
	})
}

type tickerResult struct {
	Last       exchange.Decimal `json:"last"`
	HighestBid exchange.Decimal `json:"highest_bid"`
	LowestAsk  exchange.Decimal `json:"lowest_ask"`
}

type tickerMsg struct {
	Channel string       `json:"channel"`
	Event   string       `json:"event"`
	Result  tickerResult `json:"result"`
}

func (a *Adapter) Parse(frame []byte) (*port.TickerUpdate, error) {
	var msg tickerMsg
	if err := json.Unmarshal(frame, &msg); err != nil {
		return nil, err
	}
	if msg.Channel != "spot.tickers" || msg.Event != "update" {
		// subscribe ack carries event=subscribe on the same channel
		return nil, nil
	}
	if msg.Result.Last == 0 {
		return nil, nil
	}
	return &port.TickerUpdate{
		Price: msg.Result.Last.Float64(),
		Bid:   msg.Result.HighestBid.Float64(),
		Ask:   msg.Result.LowestAsk.Float64(),
	}, nil
}
