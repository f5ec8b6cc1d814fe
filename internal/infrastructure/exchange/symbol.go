package exchange

import (
	"strings"
)

// SymbolConverter 符号转换接口
// 各交易所用它在币种（BTC）与交易对（BTCUSDT）之间转换
type SymbolConverter interface {
	// Symbol2Coin 将交易对转换为币种
	// 例: BTCUSDT -> BTC
	Symbol2Coin(symbol string) string

	// Coin2Symbol 将币种转换为交易对
	// 例: BTC -> BTCUSDT
	Coin2Symbol(coin string) string

	// SymbolSuffix 返回计价货币后缀, 例: USDT
	SymbolSuffix() string
}

// CommonSymbolConverter 通用符号转换器: pair = coin + quote
type CommonSymbolConverter struct {
	suffix string
}

// NewCommonSymbolConverter 创建通用符号转换器, quote 为空时默认 USDT
func NewCommonSymbolConverter(quote string) *CommonSymbolConverter {
	quote = strings.ToUpper(strings.TrimSpace(quote))
	if quote == "" {
		quote = "USDT"
	}
	return &CommonSymbolConverter{suffix: quote}
}

func (c *CommonSymbolConverter) SymbolSuffix() string {
	return c.suffix
}

// Symbol2Coin 去掉末尾的计价货币
func (c *CommonSymbolConverter) Symbol2Coin(symbol string) string {
	sym := strings.ToUpper(strings.TrimSpace(symbol))
	if sym == "" {
		return ""
	}
	return strings.TrimSuffix(sym, c.suffix)
}

// Coin2Symbol 已带后缀的直接返回, 否则追加后缀
func (c *CommonSymbolConverter) Coin2Symbol(coin string) string {
	coin = strings.ToUpper(strings.TrimSpace(coin))
	if coin == "" {
		return ""
	}
	if strings.HasSuffix(coin, c.suffix) && coin != c.suffix {
		return coin
	}
	return coin + c.suffix
}
