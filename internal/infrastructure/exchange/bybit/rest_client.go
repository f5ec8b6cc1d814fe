package bybit

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"livefeed/internal/application/port"
	"livefeed/internal/infrastructure/exchange"
)

const defaultBaseURL = "https://api.bybit.com"

// Bybit V5 业务错误码
const (
	retCodeOK            = 0
	retCodeTooManyVisits = 10006
	retCodeIPRateLimit   = 10018
)

// PriceSource Bybit V5 现货行情 REST 客户端
type PriceSource struct {
	baseURL   string
	client    *http.Client
	converter exchange.SymbolConverter
}

// tickersResp GET /v5/market/tickers 响应
type tickersResp struct {
	RetCode int    `json:"retCode"`
	RetMsg  string `json:"retMsg"`
	Result  struct {
		Category string `json:"category"`
		List     []struct {
			Symbol    string `json:"symbol"`
			LastPrice string `json:"lastPrice"`
		} `json:"list"`
	} `json:"result"`
}

// NewPriceSource 创建 Bybit 价格源
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
	params := url.Values{}
	params.Set("category", "spot")
	params.Set("symbol", symbol)
	endpoint := p.baseURL + "/v5/market/tickers?" + params.Encode()

	body, err := exchange.GetBody(ctx, p.client, endpoint, token)
	if err != nil {
		return 0, err
	}

	var resp tickersResp
	if err := json.Unmarshal(body, &resp); err != nil {
		return 0, port.NewFetchError(port.KindMalformed, token, err)
	}

	// bybit 限频时 HTTP 仍可能返回 200, 需检查 retCode
	switch resp.RetCode {
	case retCodeOK:
	case retCodeTooManyVisits, retCodeIPRateLimit:
		return 0, port.NewFetchError(port.KindRateLimited, token, fmt.Errorf("bybit %d: %s", resp.RetCode, resp.RetMsg))
	default:
		return 0, port.NewFetchError(port.KindMalformed, token, fmt.Errorf("bybit %d: %s", resp.RetCode, resp.RetMsg))
	}

	for _, item := range resp.Result.List {
		if strings.EqualFold(item.Symbol, symbol) {
			return exchange.ParsePrice(token, item.LastPrice)
		}
	}
	return 0, port.NewFetchError(port.KindMalformed, token, fmt.Errorf("symbol %s missing from response", symbol))
}

var _ port.PriceSource = (*PriceSource)(nil)
