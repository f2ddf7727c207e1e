package gemini

import (
	"pulsefeed/internal/application"
	"pulsefeed/internal/application/port"
	"pulsefeed/internal/infrastructure/exchange"
)

func init() {
	exchange.Register(application.VenueGemini, func() port.VenueAdapter {
		return New()
	})
}
