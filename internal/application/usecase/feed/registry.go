package feed

import (
	"time"

	"github.com/google/uuid"
)

// PriceFunc receives one price tick for a single token.
type PriceFunc func(price float64)

// PricesFunc receives the accumulated last-seen price of every token in a basket.
type PricesFunc func(prices map[string]float64)

type subscriber struct {
	id uuid.UUID
	fn PriceFunc
}

type trackedToken struct {
	id          string
	refCount    int
	lastFetchAt time.Time
	subs        []subscriber
}

// registry reference-counts interest per token. It is not safe for concurrent use;
// Service guards it with its own mutex so that registry changes and scheduler
// start/stop happen atomically.
type registry struct {
	order  []string
	tokens map[string]*trackedToken
}

func newRegistry() *registry {
	return &registry{tokens: make(map[string]*trackedToken)}
}

// add registers fn for token and returns the subscriber id.
func (r *registry) add(token string, fn PriceFunc) uuid.UUID {
	tt := r.tokens[token]
	if tt == nil {
		tt = &trackedToken{id: token}
		r.tokens[token] = tt
		r.order = append(r.order, token)
	}
	id := uuid.New()
	tt.subs = append(tt.subs, subscriber{id: id, fn: fn})
	tt.refCount++
	return id
}

// remove drops one subscriber. gone reports that the token itself was removed.
func (r *registry) remove(token string, id uuid.UUID) (gone bool) {
	tt := r.tokens[token]
	if tt == nil {
		return false
	}
	for i, s := range tt.subs {
		if s.id != id {
			continue
		}
		tt.subs = append(tt.subs[:i], tt.subs[i+1:]...)
		tt.refCount--
		break
	}
	if tt.refCount > 0 {
		return false
	}

	delete(r.tokens, token)
	for i, t := range r.order {
		if t == token {
			r.order = append(r.order[:i], r.order[i+1:]...)
			break
		}
	}
	return true
}

func (r *registry) empty() bool { return len(r.tokens) == 0 }

func (r *registry) has(token string, id uuid.UUID) bool {
	tt := r.tokens[token]
	if tt == nil {
		return false
	}
	for _, s := range tt.subs {
		if s.id == id {
			return true
		}
	}
	return false
}

func (r *registry) refCount(token string) int {
	if tt := r.tokens[token]; tt != nil {
		return tt.refCount
	}
	return 0
}

// active returns tracked tokens in first-subscribe order.
func (r *registry) active() []string {
	out := make([]string, len(r.order))
	copy(out, r.order)
	return out
}

// callbacks returns a copy of the token's callbacks for delivery outside the lock.
func (r *registry) callbacks(token string) []PriceFunc {
	tt := r.tokens[token]
	if tt == nil {
		return nil
	}
	out := make([]PriceFunc, len(tt.subs))
	for i, s := range tt.subs {
		out[i] = s.fn
	}
	return out
}

func (r *registry) markFetched(token string, at time.Time) {
	if tt := r.tokens[token]; tt != nil {
		tt.lastFetchAt = at
	}
}

func (r *registry) lastFetchAt(token string) time.Time {
	if tt := r.tokens[token]; tt != nil {
		return tt.lastFetchAt
	}
	return time.Time{}
}
