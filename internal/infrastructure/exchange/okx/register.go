package okx

import (
	"pulsefeed/internal/application"
	"pulsefeed/internal/application/port"
	"pulsefeed/internal/infrastructure/exchange"
)

// init() automatically registers the OKX venue adapter factory
// so the wiring code never hardcodes OKX
func init() {
	exchange.Register(application.VenueOKX, func() port.VenueAdapter {
		return New()
	})
}
