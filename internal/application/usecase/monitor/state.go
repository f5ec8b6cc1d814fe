package monitor

import (
	"sync"
	"time"

	"livefeed/internal/domain"
)

type tokenState struct {
	price     domain.PriceState
	change    float64
	hasChange bool
}

type State struct {
	mu sync.Mutex

	order  []string
	tokens map[string]*tokenState
}

func NewState(tokens []string) *State {
	order := domain.NormalizeTokens(tokens)
	m := make(map[string]*tokenState, len(order))
	for _, t := range order {
		m[t] = &tokenState{}
	}
	return &State{order: order, tokens: m}
}

func (s *State) Tokens() []string {
	return s.order
}

// Apply 应用一批价格, 返回价格发生变化的币种（按配置顺序）
// 未配置的币种被忽略
func (s *State) Apply(prices map[string]float64, at time.Time) []string {
	s.mu.Lock()
	defer s.mu.Unlock()

	var changed []string
	for _, t := range s.order {
		p, ok := prices[t]
		if !ok || p <= 0 {
			continue
		}
		if s.tokens[t].price.Update(p, at) {
			changed = append(changed, t)
		}
	}
	return changed
}

// SetChange 记录相对上一根 K 线的涨跌幅
func (s *State) SetChange(token string, pct float64, ok bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if ts := s.tokens[token]; ts != nil {
		ts.change, ts.hasChange = pct, ok
	}
}

func (s *State) Snapshot() map[string]tokenState {
	s.mu.Lock()
	defer s.mu.Unlock()

	out := make(map[string]tokenState, len(s.tokens))
	for k, v := range s.tokens {
		out[k] = *v
	}
	return out
}
