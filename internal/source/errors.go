package source

import (
	"errors"
	"fmt"
	"strings"
)

// Kind 是对外可见的错误类别（日志/指标使用；JSON 只输出 description）。
type Kind string

const (
	KindTransport       Kind = "transport"
	KindParse           Kind = "parse"
	KindCoercion        Kind = "coercion"
	KindUnknownPharmacy Kind = "unknown_pharmacy"
	KindNotFound        Kind = "not_found"
	KindInternal        Kind = "internal"
)

// ErrUnknownPharmacy 由 dispatch 直接产生，文本属于对外契约，不能改动。
var ErrUnknownPharmacy = errors.New("Pharmacy with this ID not found.")

// Error 是驱动层的可追溯错误：哪个源、第几页、什么原因。
type Error struct {
	Source string
	Page   int
	Err    error
}

func (e *Error) Error() string {
	return fmt.Sprintf("source=%s page=%d: %v", e.Source, e.Page, e.Err)
}

func (e *Error) Unwrap() error { return e.Err }

// TransportError 表示请求未能完成（连接失败、超时、读 body 失败、非 2xx）。
type TransportError struct {
	URL string
	Err error
}

func (e *TransportError) Error() string {
	return fmt.Sprintf("请求失败 %s: %v", e.URL, e.Err)
}

func (e *TransportError) Unwrap() error { return e.Err }

// HTTPStatusError 表示站点返回了非 2xx 的 HTTP 状态码。
type HTTPStatusError struct {
	URL        string
	StatusCode int
	Location   string
}

func (e *HTTPStatusError) Error() string {
	if e == nil {
		return "HTTP status error"
	}
	loc := strings.TrimSpace(e.Location)
	if loc == "" {
		return fmt.Sprintf("HTTP %d", e.StatusCode)
	}
	return fmt.Sprintf("HTTP %d location=%s", e.StatusCode, loc)
}

// ParseError 表示响应格式正确，但预期的结构锚点（选择器 / JSON key）不存在：通常意味着站点改版。
type ParseError struct {
	Anchor string
	Err    error
}

func (e *ParseError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("解析失败（%s）：%v", e.Anchor, e.Err)
	}
	return fmt.Sprintf("解析失败：未找到 %s", e.Anchor)
}

func (e *ParseError) Unwrap() error { return e.Err }

// CoercionError 表示价格等数值字段无法转换。
type CoercionError struct {
	Field string
	Value string
	Err   error
}

func (e *CoercionError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("无法转换 %s=%q：%v", e.Field, e.Value, e.Err)
	}
	return fmt.Sprintf("无法转换 %s=%q", e.Field, e.Value)
}

func (e *CoercionError) Unwrap() error { return e.Err }

// NotFoundError 表示详情页缺少商品锚点（商品不存在或被下架）。
type NotFoundError struct {
	URL string
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("商品不存在：%s", e.URL)
}

// KindOf 从错误链中提取类别；无法识别时返回 KindInternal。
func KindOf(err error) Kind {
	if err == nil {
		return ""
	}
	var (
		te *TransportError
		he *HTTPStatusError
		pe *ParseError
		ce *CoercionError
		ne *NotFoundError
	)
	switch {
	case errors.Is(err, ErrUnknownPharmacy):
		return KindUnknownPharmacy
	case errors.As(err, &ne):
		return KindNotFound
	case errors.As(err, &ce):
		return KindCoercion
	case errors.As(err, &pe):
		return KindParse
	case errors.As(err, &te), errors.As(err, &he):
		return KindTransport
	default:
		return KindInternal
	}
}
