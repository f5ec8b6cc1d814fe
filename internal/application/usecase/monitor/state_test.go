package monitor

import (
	"strings"
	"testing"
	"time"

	"livefeed/internal/domain"
)

func TestStateApply(t *testing.T) {
	st := NewState([]string{"btc", "ETH", "btc"})
	if got := strings.Join(st.Tokens(), ","); got != "BTC,ETH" {
		t.Fatalf("tokens = %s", got)
	}

	now := time.Unix(1_700_000_000, 0)
	changed := st.Apply(map[string]float64{"BTC": 100, "DOGE": 1}, now)
	if len(changed) != 1 || changed[0] != "BTC" {
		t.Fatalf("changed = %v", changed)
	}

	// 价格不变不算变化
	if changed := st.Apply(map[string]float64{"BTC": 100}, now); len(changed) != 0 {
		t.Errorf("expected no change, got %v", changed)
	}

	st.Apply(map[string]float64{"BTC": 99, "ETH": 10}, now)
	snap := st.Snapshot()
	if snap["BTC"].price.Direction != domain.DirectionDown {
		t.Errorf("BTC direction = %v", snap["BTC"].price.Direction)
	}
	if !snap["ETH"].price.HasValue || snap["ETH"].price.Price != 10 {
		t.Errorf("ETH state = %+v", snap["ETH"].price)
	}
}

func TestFormatterRender(t *testing.T) {
	st := NewState([]string{"BTC", "ETH"})
	st.Apply(map[string]float64{"BTC": 100}, time.Now())
	st.Apply(map[string]float64{"BTC": 101.5}, time.Now())
	st.SetChange("BTC", -2.5, true)

	f := NewFormatter("binance")
	live := f.Render(st, RenderLive)
	if !strings.HasPrefix(live, "\r") || !strings.HasSuffix(live, ansiClearEOL) {
		t.Errorf("live line framing wrong: %q", live)
	}
	if !strings.Contains(live, colorize("101.5", ansiGreen)) {
		t.Errorf("expected green BTC price: %q", live)
	}
	if !strings.Contains(live, colorize("-2.50%", ansiRed)) {
		t.Errorf("expected red percent change: %q", live)
	}
	if !strings.Contains(live, "ETH "+colorize("--", ansiYellow)) {
		t.Errorf("expected placeholder for ETH: %q", live)
	}

	snap := f.Render(st, RenderSnapshot)
	if strings.HasPrefix(snap, "\r") {
		t.Errorf("snapshot should not start with carriage return: %q", snap)
	}
}

func TestFormatPrice(t *testing.T) {
	cases := map[float64]string{
		43250.1:    "43250.1",
		0.00001234: "0.00001234",
		2:          "2",
	}
	for in, want := range cases {
		if got := FormatPrice(in); got != want {
			t.Errorf("FormatPrice(%v) = %s, want %s", in, got, want)
		}
	}
}
