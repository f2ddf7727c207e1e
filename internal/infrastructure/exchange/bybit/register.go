package bybit

import (
	"pulsefeed/internal/application"
	"pulsefeed/internal/application/port"
	"pulsefeed/internal/infrastructure/exchange"
)

func init() {
	exchange.Register(application.VenueBybit, func() port.VenueAdapter {
		return New()
	})
}
