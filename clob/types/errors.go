package types

import (
	"errors"
	"fmt"
)

// ErrKind 错误类别
//
// 分类决定调用方的处理方式：
//   - validation: 本地参数错误，立即报告，永不重试
//   - liquidity:  订单簿流动性不足，需要重新观察行情后由调用方决定
//   - crypto:     密钥/签名错误，本次调用致命，不可用同一密钥自动重试
//   - transport:  网络错误，只读请求可有界重试；提交重试必须复用同一签名订单
type ErrKind string

const (
	ErrKindValidation ErrKind = "validation"
	ErrKindLiquidity  ErrKind = "liquidity"
	ErrKindCrypto     ErrKind = "crypto"
	ErrKindTransport  ErrKind = "transport"
)

// Error 引擎错误：类别 + 出错字段 + 可读信息
type Error struct {
	Kind  ErrKind
	Field string
	Msg   string
	Cause error
}

func (e *Error) Error() string {
	s := fmt.Sprintf("%s: %s", e.Kind, e.Msg)
	if e.Field != "" {
		s = fmt.Sprintf("%s (field: %s)", s, e.Field)
	}
	if e.Cause != nil {
		s = fmt.Sprintf("%s: %v", s, e.Cause)
	}
	return s
}

func (e *Error) Unwrap() error {
	return e.Cause
}

// Is 支持 errors.Is 按哨兵匹配（同类别且同信息即视为同一错误）
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	if !ok {
		return false
	}
	return e.Kind == t.Kind && e.Msg == t.Msg
}

// WithField 返回携带出错字段的同类错误
func (e *Error) WithField(field string) *Error {
	return &Error{Kind: e.Kind, Field: field, Msg: e.Msg, Cause: e.Cause}
}

// WithCause 返回携带底层原因的同类错误
func (e *Error) WithCause(cause error) *Error {
	return &Error{Kind: e.Kind, Field: e.Field, Msg: e.Msg, Cause: cause}
}

// 哨兵错误
var (
	ErrInvalidTick           = &Error{Kind: ErrKindValidation, Msg: "price is not a valid tick in (0, 1)"}
	ErrBelowMinimumSize      = &Error{Kind: ErrKindValidation, Msg: "size below market minimum"}
	ErrInvalidTokenID        = &Error{Kind: ErrKindValidation, Msg: "malformed token id"}
	ErrMissingCredentials    = &Error{Kind: ErrKindValidation, Msg: "missing credentials"}
	ErrUndefinedPercentage   = &Error{Kind: ErrKindValidation, Msg: "percentage undefined for zero entry price"}
	ErrNoLiquidity           = &Error{Kind: ErrKindLiquidity, Msg: "order book has no liquidity"}
	ErrInsufficientLiquidity = &Error{Kind: ErrKindLiquidity, Msg: "order book depth insufficient for requested amount"}
	ErrInvalidKey            = &Error{Kind: ErrKindCrypto, Msg: "private key cannot produce a valid keypair"}
	ErrSigningFailure        = &Error{Kind: ErrKindCrypto, Msg: "signing failed"}
	ErrNotFound              = &Error{Kind: ErrKindTransport, Msg: "resource not found"}
	ErrTransient             = &Error{Kind: ErrKindTransport, Msg: "transient transport failure"}
)

// IsRetryable 判断错误是否可重试（仅 transient 传输错误）
func IsRetryable(err error) bool {
	var e *Error
	if !errors.As(err, &e) {
		return false
	}
	return e.Is(ErrTransient)
}
