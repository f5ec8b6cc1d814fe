package bybit

import (
	"livefeed/internal/application/port"
	"livefeed/internal/infrastructure/pricesource"
)

// Name is the registry key of the Bybit price source.
const Name = "bybit"

// init() 自动注册 Bybit 价格源工厂
func init() {
	pricesource.Register(Name, func(opts pricesource.Options) port.PriceSource {
		return NewPriceSource(opts.BaseURL, opts.Quote, opts.Timeout)
	})
}
