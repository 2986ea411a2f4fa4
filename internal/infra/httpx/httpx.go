package httpx

import (
	"context"
	"errors"
	"fmt"
	"io"
	"math/rand"
	"net/http"
	"net/url"
	"strings"
	"sync"
	"time"
)

const (
	defaultTimeout = 20 * time.Second
	// maxBodyBytes 限制单页读取大小；中转页/详情页都远小于该值。
	maxBodyBytes = 8 << 20
)

// Transport 把“UA 池 + 代理 + 默认请求头”固化为统一策略。
//
// 约束：每个请求只尝试一次，不做重试（失败由调用方按条目降级）。
type Transport struct {
	Base *http.Transport

	ua *uaPool

	// Header 中的字段仅在请求未显式设置时补上。
	Header http.Header
}

func (t *Transport) RoundTrip(req *http.Request) (*http.Response, error) {
	if req == nil {
		return nil, errors.New("nil request")
	}
	if t.Base == nil {
		return nil, errors.New("nil base transport")
	}

	r := req.Clone(req.Context())
	for k, vs := range t.Header {
		if r.Header.Get(k) != "" || len(vs) == 0 {
			continue
		}
		r.Header.Set(k, vs[0])
	}
	if r.Header.Get("User-Agent") == "" {
		r.Header.Set("User-Agent", t.ua.random())
	}
	return t.Base.RoundTrip(r)
}

// Options 是构造 client 的可选项。零值可用。
type Options struct {
	ProxyURL string
	Timeout  time.Duration
	Header   http.Header
}

// BrowserHeader 返回模拟浏览器访问所需的最小请求头（参考源站点会拒绝裸请求）。
func BrowserHeader() http.Header {
	h := http.Header{}
	h.Set("Accept", "text/html,application/xhtml+xml")
	h.Set("Accept-Language", "en-US,en;q=0.9")
	h.Set("Referer", "https://www.google.com/")
	return h
}

// NewClient 构造用于页面抓取的 HTTP client。
//
// 规则：
// - proxyURL 非空：走代理，且禁用 keep-alive（每请求新连接）
// - 内置 UA 池：每个请求随机 UA
// - 总超时：Options.Timeout，未指定时 20s
func NewClient(opts Options) (*http.Client, error) {
	base := &http.Transport{
		Proxy:                 nil,
		TLSHandshakeTimeout:   10 * time.Second,
		ResponseHeaderTimeout: 15 * time.Second,
	}

	if proxyURL := strings.TrimSpace(opts.ProxyURL); proxyURL != "" {
		u, err := url.Parse(proxyURL)
		if err != nil {
			return nil, err
		}
		if u.Scheme == "" || u.Host == "" {
			return nil, fmt.Errorf("proxy url 缺少 scheme 或 host：%q", proxyURL)
		}
		base.Proxy = http.ProxyURL(u)
		// proxy 模式强制每请求新连接（代理池轮换依赖该行为）。
		base.DisableKeepAlives = true
	}

	timeout := opts.Timeout
	if timeout <= 0 {
		timeout = defaultTimeout
	}

	return &http.Client{
		Transport: &Transport{
			Base:   base,
			ua:     globalUA,
			Header: opts.Header.Clone(),
		},
		Timeout: timeout,
	}, nil
}

// StatusError 表示站点返回了非 2xx 的 HTTP 状态码。
type StatusError struct {
	URL        string
	StatusCode int
	Location   string
}

func (e *StatusError) Error() string {
	if e == nil {
		return "HTTP status error"
	}
	loc := strings.TrimSpace(e.Location)
	if loc == "" {
		return fmt.Sprintf("HTTP %d", e.StatusCode)
	}
	return fmt.Sprintf("HTTP %d location=%s", e.StatusCode, loc)
}

// Get 抓取 u 并返回完整 body。非 2xx 返回 *StatusError。
func Get(ctx context.Context, c *http.Client, u string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return nil, err
	}
	return do(c, req)
}

// PostForm 以 application/x-www-form-urlencoded 提交 form，返回响应 body。
func PostForm(ctx context.Context, c *http.Client, u string, form url.Values) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, u, strings.NewReader(form.Encode()))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	return do(c, req)
}

func do(c *http.Client, req *http.Request) ([]byte, error) {
	if c == nil {
		return nil, errors.New("http client 不能为空")
	}
	resp, err := c.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		_, _ = io.Copy(io.Discard, io.LimitReader(resp.Body, 4<<10))
		return nil, &StatusError{URL: req.URL.String(), StatusCode: resp.StatusCode, Location: resp.Header.Get("Location")}
	}
	return io.ReadAll(io.LimitReader(resp.Body, maxBodyBytes))
}

// ResolveURL 把 href 解析为相对 base 的绝对 URL。
// 解析失败时原样返回 href（由下一跳的请求去报错）。
func ResolveURL(base, href string) string {
	href = strings.TrimSpace(href)
	if href == "" {
		return ""
	}
	if strings.HasPrefix(href, "//") {
		return "https:" + href
	}
	if strings.HasPrefix(href, "http://") || strings.HasPrefix(href, "https://") {
		return href
	}
	bu, err := url.Parse(base)
	if err != nil {
		return href
	}
	ru, err := url.Parse(href)
	if err != nil {
		return href
	}
	return bu.ResolveReference(ru).String()
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
