package exchange

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"livefeed/internal/application/port"
)

// maxBody caps how much of a ticker response is read.
const maxBody = 1 << 20

// NewHTTPClient 价格源共用的 HTTP 客户端
func NewHTTPClient(timeout time.Duration) *http.Client {
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	return &http.Client{Timeout: timeout}
}

// GetBody 发送 GET 请求并按状态码分类错误
// 429/418 -> rate limited, 5xx 与传输错误 -> network, 其他非 200 -> malformed
func GetBody(ctx context.Context, client *http.Client, endpoint, token string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, port.NewFetchError(port.KindMalformed, token, err)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := client.Do(req)
	if err != nil {
		return nil, port.NewFetchError(port.KindNetwork, token, err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxBody))
	if err != nil {
		return nil, port.NewFetchError(port.KindNetwork, token, err)
	}

	if resp.StatusCode != http.StatusOK {
		return nil, port.NewFetchError(ClassifyStatus(resp.StatusCode), token,
			fmt.Errorf("http %d: %s", resp.StatusCode, truncate(string(body), 200)))
	}
	return body, nil
}

// ClassifyStatus maps a non-200 HTTP status to a fetch error kind.
func ClassifyStatus(code int) port.ErrorKind {
	switch {
	case code == http.StatusTooManyRequests || code == http.StatusTeapot:
		// binance answers 418 once an IP keeps ignoring 429s
		return port.KindRateLimited
	case code >= 500, code == http.StatusRequestTimeout:
		return port.KindNetwork
	default:
		return port.KindMalformed
	}
}

// ParsePrice parses a decimal price string; non-positive values are malformed.
func ParsePrice(token, s string) (float64, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return 0, port.NewFetchError(port.KindMalformed, token, errors.New("empty price"))
	}
	d, err := decimal.NewFromString(s)
	if err != nil {
		return 0, port.NewFetchError(port.KindMalformed, token, err)
	}
	if !d.IsPositive() {
		return 0, port.NewFetchError(port.KindMalformed, token, fmt.Errorf("non-positive price %s", s))
	}
	return d.InexactFloat64(), nil
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n] + "..."
}
