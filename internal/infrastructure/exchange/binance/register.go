package binance

import (
	"livefeed/internal/application/port"
	"livefeed/internal/infrastructure/pricesource"
)

// Name is the registry key of the Binance price source.
const Name = "binance"

// init() 自动注册 Binance 价格源工厂
func init() {
	pricesource.Register(Name, func(opts pricesource.Options) port.PriceSource {
		return NewPriceSource(opts.BaseURL, opts.Quote, opts.Timeout)
	})
}
