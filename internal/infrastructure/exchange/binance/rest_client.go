package binance

import (
	"context"
	"encoding/json"
	"net/http"
	"net/url"
	"strings"
	"time"

	"livefeed/internal/application/port"
	"livefeed/internal/infrastructure/exchange"
)

const defaultBaseURL = "https://api.binance.com"

// PriceSource Binance 现货最新价 REST 客户端
type PriceSource struct {
	baseURL   string
	client    *http.Client
	converter exchange.SymbolConverter
}

// tickerPriceResp GET /api/v3/ticker/price 响应
type tickerPriceResp struct {
	Symbol string `json:"symbol"`
	Price  string `json:"price"`
}

// NewPriceSource 创建 Binance 价格源
func NewPriceSource(baseURL, quote string, timeout time.Duration) *PriceSource {
	baseURL = strings.TrimRight(strings.TrimSpace(baseURL), "/")
	if baseURL == "" {
		baseURL = defaultBaseURL
	}
	return &PriceSource{
		baseURL:   baseURL,
		client:    exchange.NewHTTPClient(timeout),
		converter: exchange.NewCommonSymbolConverter(quote),
	}
}

func (p *PriceSource) Name() string { return Name }

// FetchPrice 获取单个币种的最新成交价
func (p *PriceSource) FetchPrice(ctx context.Context, token string) (float64, error) {
	symbol := p.converter.Coin2Symbol(token)
	endpoint := p.baseURL + "/api/v3/ticker/price?symbol=" + url.QueryEscape(symbol)

	body, err := exchange.GetBody(ctx, p.client, endpoint, token)
	if err != nil {
		return 0, err
	}

	var resp tickerPriceResp
	if err := json.Unmarshal(body, &resp); err != nil {
		return 0, port.NewFetchError(port.KindMalformed, token, err)
	}
	return exchange.ParsePrice(token, resp.Price)
}

var _ port.PriceSource = (*PriceSource)(nil)
