package binance

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"livefeed/internal/application/port"
)

func TestFetchPrice(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/api/v3/ticker/price" {
			t.Errorf("path = %s", r.URL.Path)
		}
		if got := r.URL.Query().Get("symbol"); got != "BTCUSDT" {
			t.Errorf("symbol = %s, want BTCUSDT", got)
		}
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"symbol":"BTCUSDT","price":"43250.10000000"}`))
	}))
	defer srv.Close()

	src := NewPriceSource(srv.URL, "USDT", 5*time.Second)
	price, err := src.FetchPrice(context.Background(), "btc")
	if err != nil {
		t.Fatalf("FetchPrice failed: %v", err)
	}
	if price != 43250.1 {
		t.Errorf("price = %v, want 43250.1", price)
	}
}

func TestFetchPriceClassifiesErrors(t *testing.T) {
	cases := []struct {
		name   string
		status int
		body   string
		want   port.ErrorKind
	}{
		{"rate limited", http.StatusTooManyRequests, `{"code":-1003}`, port.KindRateLimited},
		{"ip banned", http.StatusTeapot, `{"code":-1003}`, port.KindRateLimited},
		{"server error", http.StatusBadGateway, ``, port.KindNetwork},
		{"bad json", http.StatusOK, `{"price":`, port.KindMalformed},
		{"empty price", http.StatusOK, `{"symbol":"BTCUSDT"}`, port.KindMalformed},
		{"unknown symbol", http.StatusBadRequest, `{"code":-1121,"msg":"Invalid symbol."}`, port.KindMalformed},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(tc.status)
				_, _ = w.Write([]byte(tc.body))
			}))
			defer srv.Close()

			_, err := NewPriceSource(srv.URL, "", time.Second).FetchPrice(context.Background(), "BTC")
			if err == nil {
				t.Fatal("expected error")
			}
			if got := port.KindOf(err); got != tc.want {
				t.Errorf("kind = %v, want %v (err=%v)", got, tc.want, err)
			}
		})
	}
}

func TestDefaultBaseURL(t *testing.T) {
	src := NewPriceSource("", "", 0)
	if src.baseURL != defaultBaseURL {
		t.Errorf("baseURL = %s", src.baseURL)
	}
	if src.Name() != Name {
		t.Errorf("name = %s", src.Name())
	}
}
