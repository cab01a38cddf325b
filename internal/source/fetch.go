package source

import (
	"errors"
	"io"
	"net/http"
)

// Fetch 执行一次请求并读出完整 body。
//
// 约束：
// - 不重试；连接/读 body 失败返回 *TransportError，body 为 nil
// - 5xx 返回包着 *HTTPStatusError 的 *TransportError，body 为 nil
// - 其余非 2xx（典型是翻过尾页的 404）body 照常返回，同时返回状态错误；
//   是否致命由调用方解析 body 后决定（见 Decide）
func Fetch(c *http.Client, req *http.Request) ([]byte, error) {
	if c == nil {
		return nil, errors.New("http client 不能为空")
	}
	u := req.URL.String()
	resp, err := c.Do(req)
	if err != nil {
		return nil, &TransportError{URL: u, Err: err}
	}
	defer resp.Body.Close()

	b, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, &TransportError{URL: u, Err: err}
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		if resp.StatusCode >= 500 {
			b = nil
		}
		return b, &TransportError{URL: u, Err: &HTTPStatusError{URL: u, StatusCode: resp.StatusCode, Location: resp.Header.Get("Location")}}
	}
	return b, nil
}

// Decide 合并 Fetch 的状态错误与 body 的解析错误。
//
// 约束：body 能解析时以 body 为准（状态码被忽略）；解析出结构错误时，非 2xx 状态更能说明原因，返回状态错误。
func Decide(statusErr, parseErr error) error {
	if parseErr == nil || statusErr == nil {
		return parseErr
	}
	var pe *ParseError
	if errors.As(parseErr, &pe) {
		return statusErr
	}
	return parseErr
}
