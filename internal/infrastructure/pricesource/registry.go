package pricesource

import (
	"sort"
	"sync"
	"time"

	"github.com/rs/zerolog/log"

	"livefeed/internal/application/port"
)

// Options 创建价格源所需的参数
type Options struct {
	BaseURL string        // REST 根地址, 为空时使用交易所默认值
	Quote   string        // 计价货币, 例: USDT
	Timeout time.Duration // HTTP 超时
}

// Factory 价格源工厂函数
type Factory func(opts Options) port.PriceSource

var (
	mu       sync.RWMutex
	registry = make(map[string]Factory)
)

// Register 注册一个价格源工厂
// 由各个交易所包的 init() 调用来自注册
func Register(name string, factory Factory) {
	if factory == nil {
		log.Warn().Str("source", name).Msg("invalid price source factory")
		return
	}
	mu.Lock()
	defer mu.Unlock()
	if _, exists := registry[name]; exists {
		log.Warn().Str("source", name).Msg("price source factory already registered, overwriting")
	}
	registry[name] = factory
}

// Get 获取已注册的价格源工厂
func Get(name string) (Factory, bool) {
	mu.RLock()
	defer mu.RUnlock()
	factory, ok := registry[name]
	return factory, ok
}

// Names 返回已注册的价格源名称（排序后）
func Names() []string {
	mu.RLock()
	defer mu.RUnlock()
	out := make([]string, 0, len(registry))
	for name := range registry {
		out = append(out, name)
	}
	sort.Strings(out)
	return out
}
