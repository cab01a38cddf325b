package httpx

import (
	"errors"
	"math/rand"
	"net/http"
	"net/url"
	"strings"
	"sync"
	"time"
)

// DefaultTimeout 是单次 client 的总超时（覆盖一次搜索内的每个请求）。
const DefaultTimeout = 5 * time.Minute

// Options 描述一次 dispatch 调用所用 client 的网络策略。
type Options struct {
	// ProxyURL 非空时所有请求走该代理，且禁用 keep-alive。
	ProxyURL string
	// Timeout <= 0 时使用 DefaultTimeout。
	Timeout time.Duration
}

// Transport 把“UA 池 + 代理 + keep-alive 策略”固化为统一策略。
//
// 约束：
// - 不做重试：一页失败即整次搜索失败，由上层决定是否重新调用
// - 请求已带 User-Agent（例如 apteka.ru 固定 UA）时不覆盖
type Transport struct {
	Base *http.Transport

	ua *uaPool

	// DisableKeepAlives 决定是否对 Request 设置 Close=true。
	// 真正禁用 keep-alive 依赖 Base.DisableKeepAlives。
	DisableKeepAlives bool
}

func (t *Transport) RoundTrip(req *http.Request) (*http.Response, error) {
	if req == nil {
		return nil, errors.New("nil request")
	}
	if t.Base == nil {
		return nil, errors.New("nil base transport")
	}

	// RoundTripper 不能修改调用方的 request。
	r := req.Clone(req.Context())
	if r.Header.Get("User-Agent") == "" && t.ua != nil {
		r.Header.Set("User-Agent", t.ua.random())
	}
	if t.DisableKeepAlives {
		r.Close = true
	}
	return t.Base.RoundTrip(r)
}

// CloseIdleConnections 让 http.Client.CloseIdleConnections 能穿透到底层 Transport。
func (t *Transport) CloseIdleConnections() {
	if t.Base != nil {
		t.Base.CloseIdleConnections()
	}
}

// NewClient 构造抓取药房站点用的 HTTP client。
//
// 规则：
// - opts.ProxyURL 非空：必须走代理，且禁用 keep-alive（每请求新连接）
// - 内置 UA 池：未指定 UA 的请求随机取一个
// - 总超时 opts.Timeout（默认 5 分钟）
func NewClient(opts Options) (*http.Client, error) {
	base := &http.Transport{
		Proxy:               nil,
		TLSHandshakeTimeout: 10 * time.Second,
	}

	disableKeepAlives := false
	if proxyURL := strings.TrimSpace(opts.ProxyURL); proxyURL != "" {
		u, err := url.Parse(proxyURL)
		if err != nil {
			return nil, err
		}
		if u.Scheme == "" || u.Host == "" {
			return nil, errors.New("proxy url 必须包含 scheme 与 host")
		}
		base.Proxy = http.ProxyURL(u)
		base.DisableKeepAlives = true
		disableKeepAlives = true
	}

	timeout := opts.Timeout
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	return &http.Client{
		Transport: &Transport{
			Base:              base,
			ua:                globalUA,
			DisableKeepAlives: disableKeepAlives,
		},
		Timeout: timeout,
	}, nil
}

// Factory 返回一个按 opts 生成新 client 的函数（dispatch 每次调用都取一个新的）。
func Factory(opts Options) func() (*http.Client, error) {
	return func() (*http.Client, error) { return NewClient(opts) }
}

type uaPool struct {
	mu  sync.Mutex
	rnd *rand.Rand
	uas []string
}

func (p *uaPool) random() string {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.uas[p.rnd.Intn(len(p.uas))]
}

var globalUA = newUAPool()

func newUAPool() *uaPool {
	uas := []string{
		"Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/122.0.0.0 Safari/537.36",
		"Mozilla/5.0 (Macintosh; Intel Mac OS X 13_6) AppleWebKit/605.1.15 (KHTML, like Gecko) Version/17.3 Safari/605.1.15",
		"Mozilla/5.0 (X11; Linux x86_64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/122.0.0.0 Safari/537.36",
	}
	return &uaPool{
		rnd: rand.New(rand.NewSource(time.Now().UnixNano())),
		uas: uas,
	}
}
