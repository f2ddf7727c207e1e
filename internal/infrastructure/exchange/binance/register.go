package binance

import (
	"pulsefeed/internal/application"
	"pulsefeed/internal/application/port"
	"pulsefeed/internal/infrastructure/exchange"
)

// init() automatically registers the Binance venue adapter factory
// so the wiring code never hardcodes Binance
func init() {
	exchange.Register(application.VenueBinance, func() port.VenueAdapter {
		return New()
	})
}
