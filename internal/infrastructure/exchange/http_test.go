package exchange

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"livefeed/internal/application/port"
)

func TestClassifyStatus(t *testing.T) {
	cases := map[int]port.ErrorKind{
		http.StatusTooManyRequests:    port.KindRateLimited,
		http.StatusTeapot:             port.KindRateLimited,
		http.StatusBadGateway:         port.KindNetwork,
		http.StatusServiceUnavailable: port.KindNetwork,
		http.StatusBadRequest:         port.KindMalformed,
		http.StatusNotFound:           port.KindMalformed,
	}
	for code, want := range cases {
		if got := ClassifyStatus(code); got != want {
			t.Errorf("ClassifyStatus(%d) = %v, want %v", code, got, want)
		}
	}
}

func TestGetBodyRateLimited(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusTooManyRequests)
		_, _ = w.Write([]byte(`{"code":-1003,"msg":"Too many requests"}`))
	}))
	defer srv.Close()

	_, err := GetBody(context.Background(), NewHTTPClient(0), srv.URL, "BTC")
	if port.KindOf(err) != port.KindRateLimited {
		t.Fatalf("kind = %v, want rate_limited (err=%v)", port.KindOf(err), err)
	}
}

func TestGetBodyNetworkError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	url := srv.URL
	srv.Close()

	_, err := GetBody(context.Background(), NewHTTPClient(0), url, "BTC")
	if port.KindOf(err) != port.KindNetwork {
		t.Fatalf("kind = %v, want network (err=%v)", port.KindOf(err), err)
	}
}

func TestParsePrice(t *testing.T) {
	p, err := ParsePrice("BTC", " 43012.55000000 ")
	if err != nil || p != 43012.55 {
		t.Fatalf("got %v, %v", p, err)
	}
	for _, bad := range []string{"", "abc", "0", "-1.5"} {
		if _, err := ParsePrice("BTC", bad); port.KindOf(err) != port.KindMalformed {
			t.Errorf("ParsePrice(%q) kind = %v, want malformed", bad, port.KindOf(err))
		}
	}
}

func TestSymbolConverter(t *testing.T) {
	c := NewCommonSymbolConverter("usdt")
	if got := c.Coin2Symbol("btc"); got != "BTCUSDT" {
		t.Errorf("Coin2Symbol = %s", got)
	}
	if got := c.Coin2Symbol("ETHUSDT"); got != "ETHUSDT" {
		t.Errorf("Coin2Symbol = %s", got)
	}
	if got := c.Symbol2Coin("solusdt"); got != "SOL" {
		t.Errorf("Symbol2Coin = %s", got)
	}
	if got := NewCommonSymbolConverter("").SymbolSuffix(); got != "USDT" {
		t.Errorf("default suffix = %s", got)
	}
}
