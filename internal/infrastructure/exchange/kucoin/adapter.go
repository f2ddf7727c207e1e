package kucoin

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"strings"
	"time"

	"pulsefeed/internal/application"
	"pulsefeed/internal/application/port"
	"pulsefeed/internal/domain/model"
	"pulsefeed/internal/infrastructure/exchange"
)

const bulletURL = "https://api.kucoin.com/api/v1/bullet-public"

// Adapter streams the KuCoin public ticker topic. KuCoin gates its
// websocket behind a REST preflight: POST /api/v1/bullet-public returns
// the endpoint, a short-lived token and the server's ping interval.
// ConnectURL re-runs the preflight on every reconnect so the token
// never goes stale.
type Adapter struct {
	httpClient *http.Client
}

func New() *Adapter {
	return &Adapter{
		httpClient: &http.Client{Timeout: 10 * time.Second},
	}
}

func (a *Adapter) Name() string           { return application.VenueKuCoin }
func (a *Adapter) Quote() model.QuoteUnit { return model.QuoteUSDT }

// SymbolFor converts an asset to the KuCoin pair format (e.g., BTC -> BTC-USDT)
func (a *Adapter) SymbolFor(asset string) string {
	return strings.ToUpper(strings.TrimSpace(asset)) + "-USDT"
}

type bulletInstance struct {
	Endpoint     string `json:"endpoint"`
	PingInterval int64  `json:"pingInterval"` // ms
}

type bulletResp struct {
	Code string `json:"code"`
	Data struct {
		Token           string           `json:"token"`
		InstanceServers []bulletInstance `json:"instanceServers"`
	} `json:"data"`
}

func (a *Adapter) ConnectURL(ctx context.Context, asset string) (string, time.Duration, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, bulletURL, nil)
	if err != nil {
		return "", 0, err
	}

	resp, err := a.httpClient.Do(req)
	if err != nil {
		return "", 0, fmt.Errorf("kucoin bullet-public: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", 0, err
	}
	if resp.StatusCode != http.StatusOK {
		return "", 0, fmt.Errorf("kucoin bullet-public http %d: %s", resp.StatusCode, string(body))
	}

	var bullet bulletResp
	if err := json.Unmarshal(body, &bullet); err != nil {
		return "", 0, err
	}
	if bullet.Code != "200000" || len(bullet.Data.InstanceServers) == 0 || bullet.Data.Token == "" {
		return "", 0, errors.New("kucoin bullet-public: no usable instance server")
	}

	inst := bullet.Data.InstanceServers[0]
	pingInterval := time.Duration(inst.PingInterval) * time.Millisecond

	return inst.Endpoint + "?token=" + bullet.Data.Token, pingInterval, nil
}

type subReq struct {
	ID             int64  `json:"id"`
	Type           string `json:"type"`
	Topic          string `json:"topic"`
	PrivateChannel bool   `json:"privateChannel"`
	Response       bool   `json:"response"`
}

func (a *Adapter) SubscribeMessage(asset string) ([]byte, error) {
	return json.Marshal(subReq{
		ID:       time.Now().UnixMilli(),
		Type:     "subscribe",
		Topic:    "/market/ticker:" + a.SymbolFor(asset),
		Response: true,
	})
}

// PingMessage satisfies the runner's application-ping capability:
// KuCoin expects a JSON ping on the server's interval, not a ws
// control frame.
func (a *Adapter) PingMessage() []byte {
	return []byte(`{"id":"` + strconv.FormatInt(time.Now().UnixMilli(), 10) + `","type":"ping"}`)
}

type tickerData struct {
	Price   exchange.Decimal `json:"price"`
	BestBid exchange.Decimal `json:"bestBid"`
	BestAsk exchange.Decimal `json:"bestAsk"`
}

type tickerMsg struct {
	Type    string     `json:"type"`
	Subject string     `json:"subject,omitempty"`
	Data    tickerData `json:"data,omitempty"`
}

func (a *Adapter) Parse(frame []byte) (*port.TickerUpdate, error) {
	var msg tickerMsg
	if err := json.Unmarshal(frame, &msg); err != nil {
		return nil, err
	}
	if msg.Type != "message" || msg.Subject != "trade.ticker" {
		// welcome, ack, pong
		return nil, nil
	}
	if msg.Data.Price == 0 {
		return nil, nil
	}
	return &port.TickerUpdate{
		Price: msg.Data.Price.Float64(),
		Bid:   msg.Data.BestBid.Float64(),
		Ask:   msg.Data.BestAsk.Float64(),
	}, nil
}
