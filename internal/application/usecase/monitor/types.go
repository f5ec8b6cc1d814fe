package monitor

import (
	"livefeed/internal/application/port"
	"livefeed/internal/application/usecase/feed"
)

type Repository = port.Repository

// Feed is the part of the live feed the monitor consumes.
type Feed interface {
	SubscribeMany(tokens []string, onPrices feed.PricesFunc) (unsubscribe func())
	PercentChange(token string) (float64, bool)
}

var _ Feed = (*feed.Service)(nil)
