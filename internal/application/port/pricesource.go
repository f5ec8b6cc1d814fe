package port

import (
	"context"
	"errors"
	"fmt"
)

// ErrorKind classifies a failed price fetch.
type ErrorKind int

const (
	KindNetwork ErrorKind = iota
	KindRateLimited
	KindMalformed
)

func (k ErrorKind) String() string {
	switch k {
	case KindRateLimited:
		return "rate_limited"
	case KindMalformed:
		return "malformed"
	default:
		return "network"
	}
}

var (
	ErrRateLimited = errors.New("price source rate limited")
	ErrNetwork     = errors.New("price source unreachable")
	ErrMalformed   = errors.New("price source payload malformed")
)

// FetchError carries the kind of a failed fetch plus the underlying cause.
type FetchError struct {
	Kind  ErrorKind
	Token string
	Err   error
}

func (e *FetchError) Error() string {
	if e.Err == nil {
		return fmt.Sprintf("fetch %s: %s", e.Token, e.Kind)
	}
	return fmt.Sprintf("fetch %s: %s: %v", e.Token, e.Kind, e.Err)
}

func (e *FetchError) Unwrap() error { return e.Err }

// Is lets errors.Is(err, ErrRateLimited) match on kind.
func (e *FetchError) Is(target error) bool {
	switch target {
	case ErrRateLimited:
		return e.Kind == KindRateLimited
	case ErrNetwork:
		return e.Kind == KindNetwork
	case ErrMalformed:
		return e.Kind == KindMalformed
	}
	return false
}

// NewFetchError wraps err with a kind.
func NewFetchError(kind ErrorKind, token string, err error) error {
	return &FetchError{Kind: kind, Token: token, Err: err}
}

// KindOf reports the kind of a fetch error. Unclassified errors count as network failures.
func KindOf(err error) ErrorKind {
	var fe *FetchError
	if errors.As(err, &fe) {
		return fe.Kind
	}
	switch {
	case errors.Is(err, ErrRateLimited):
		return KindRateLimited
	case errors.Is(err, ErrMalformed):
		return KindMalformed
	default:
		return KindNetwork
	}
}

// PriceSource 外部价格源适配器
// FetchPrice 成功返回价格，失败返回可被 KindOf 分类的错误
type PriceSource interface {
	Name() string
	FetchPrice(ctx context.Context, token string) (float64, error)
}
