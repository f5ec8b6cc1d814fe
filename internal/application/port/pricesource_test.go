package port

import (
	"errors"
	"fmt"
	"testing"
)

func TestKindOf(t *testing.T) {
	cases := []struct {
		name string
		err  error
		want ErrorKind
	}{
		{"typed rate limit", NewFetchError(KindRateLimited, "BTC", nil), KindRateLimited},
		{"wrapped typed", fmt.Errorf("poll: %w", NewFetchError(KindMalformed, "BTC", errors.New("bad json"))), KindMalformed},
		{"sentinel", fmt.Errorf("x: %w", ErrRateLimited), KindRateLimited},
		{"unknown", errors.New("boom"), KindNetwork},
	}
	for _, tc := range cases {
		if got := KindOf(tc.err); got != tc.want {
			t.Errorf("%s: KindOf = %v, want %v", tc.name, got, tc.want)
		}
	}
}

func TestFetchErrorIs(t *testing.T) {
	cause := errors.New("status 429")
	err := NewFetchError(KindRateLimited, "ETH", cause)

	if !errors.Is(err, ErrRateLimited) {
		t.Error("expected errors.Is(err, ErrRateLimited)")
	}
	if errors.Is(err, ErrNetwork) {
		t.Error("rate limit error must not match ErrNetwork")
	}
	if !errors.Is(err, cause) {
		t.Error("cause should stay reachable through Unwrap")
	}
}
