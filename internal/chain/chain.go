package chain

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"regexp"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"
	"github.com/rs/zerolog"

	"github.com/John-Robertt/dmstream/internal/infra/httpx"
	"github.com/John-Robertt/dmstream/internal/metrics"
)

// Stage 标记跳转链在哪个状态失败。
type Stage string

const (
	StageGateway      Stage = "gateway"
	StageIntermediate Stage = "intermediate"
	StageHubNotFound  Stage = "hub-not-found"
	StageHost         Stage = "host"
	StageTrigger      Stage = "trigger"
	StageNoFinalLink  Stage = "no-final-link"
)

// hubHostMarker 是二级托管站链接的识别子串。
const hubHostMarker = "hubcloud"

var (
	gatewayAnchorRE = regexp.MustCompile(`(?i)link|download`)
	generateRE      = regexp.MustCompile(`(?i)generate direct download link`)
	downloadRE      = regexp.MustCompile(`(?i)download`)
	mediaHrefRE     = regexp.MustCompile(`(?i)\.(mkv|mp4|webm)(\?.*)?$`)
	rawMKVRE        = regexp.MustCompile(`https?://[^\s'"]+\.mkv`)
)

// Error 是跳转链解析的阶段错误。
type Error struct {
	Stage Stage
	URL   string // 失败时所在（或正在请求）的页面
	Err   error
}

func (e *Error) Error() string {
	if e.Err == nil {
		return fmt.Sprintf("chain stage=%s url=%s", e.Stage, e.URL)
	}
	return fmt.Sprintf("chain stage=%s url=%s: %v", e.Stage, e.URL, e.Err)
}

func (e *Error) Unwrap() error { return e.Err }

// StageOf 从 err 中提取失败阶段；不是 *Error 时返回空串。
func StageOf(err error) Stage {
	var e *Error
	if errors.As(err, &e) {
		return e.Stage
	}
	return ""
}

// page 是某一状态的输入/输出：已抓取页面的 URL、原始 HTML 与解析后的文档。
// 状态函数只读 page，返回新的 page；不存在共享的“当前文档”。
type page struct {
	url  string
	html []byte
	doc  *goquery.Document
}

// Resolver 把一条网关链接逐跳解析为最终的直链媒体地址。
//
// 约束：
// - 状态严格顺序执行，不回退
// - 每次请求只尝试一次；任何传输错误/非 2xx/解析失败都带上发生时的状态
// - Resolver 本身无可变状态，可被多个 goroutine 并发使用
type Resolver struct {
	Client *http.Client
	Log    zerolog.Logger
}

// New 构造 Resolver。
func New(c *http.Client, log zerolog.Logger) *Resolver {
	return &Resolver{Client: c, Log: log}
}

// Resolve 返回 entryLink 对应的最终直链，或带 Stage 的 *Error。
func (r *Resolver) Resolve(ctx context.Context, entryLink string) (string, error) {
	finalURL, err := r.resolve(ctx, entryLink)
	if err != nil {
		metrics.ObserveChainFailure(string(StageOf(err)))
		return "", err
	}
	return finalURL, nil
}

func (r *Resolver) resolve(ctx context.Context, entryLink string) (string, error) {
	gw, err := r.fetch(ctx, StageGateway, entryLink)
	if err != nil {
		return "", err
	}

	next, err := gatewayTarget(gw)
	if err != nil {
		return "", err
	}

	mid, err := r.fetch(ctx, StageIntermediate, next)
	if err != nil {
		return "", err
	}

	hubLink, err := hubTarget(mid)
	if err != nil {
		return "", err
	}

	hub, err := r.fetch(ctx, StageHost, hubLink)
	if err != nil {
		return "", err
	}

	host, err := r.submitHostForm(ctx, hub)
	if err != nil {
		return "", err
	}

	cur, err := r.followTrigger(ctx, host, hub.url)
	if err != nil {
		return "", err
	}

	return finalLink(cur)
}

// gatewayTarget 在网关页上找下一跳：优先第一个 form 的 action，否则第一个文本含 link/download 的 <a>。
func gatewayTarget(p page) (string, error) {
	var (
		target string
		via    string
	)
	if form := p.doc.Find("form").First(); form.Length() > 0 {
		target, _ = form.Attr("action")
		via = "form"
	} else {
		p.doc.Find("a").EachWithBreak(func(_ int, a *goquery.Selection) bool {
			if !gatewayAnchorRE.MatchString(a.Text()) {
				return true
			}
			target, _ = a.Attr("href")
			via = "anchor"
			return false
		})
	}
	if via == "" {
		return "", &Error{Stage: StageGateway, URL: p.url, Err: errors.New("网关页既没有 form 也没有 link/download 链接")}
	}
	if strings.TrimSpace(target) == "" {
		return "", &Error{Stage: StageGateway, URL: p.url, Err: fmt.Errorf("网关页 %s 的目标地址为空", via)}
	}
	return httpx.ResolveURL(p.url, target), nil
}

// hubTarget 按文档顺序取第一个 href 含 hubcloud 的链接。
func hubTarget(p page) (string, error) {
	var hub string
	p.doc.Find("a[href]").EachWithBreak(func(_ int, a *goquery.Selection) bool {
		href, _ := a.Attr("href")
		if !strings.Contains(href, hubHostMarker) {
			return true
		}
		hub = href
		return false
	})
	if hub == "" {
		return "", &Error{Stage: StageHubNotFound, URL: p.url, Err: errors.New("未找到 HubCloud 链接")}
	}
	return httpx.ResolveURL(p.url, hub), nil
}

// submitHostForm 若托管页带有“generate direct download link”表单，则提交并返回响应页；
// 否则原样返回 p（不发请求）。该状态本身不会因为缺少表单而失败。
func (r *Resolver) submitHostForm(ctx context.Context, p page) (page, error) {
	form := generateForm(p.doc)
	if form == nil {
		return p, nil
	}

	action, _ := form.Attr("action")
	action = httpx.ResolveURL(p.url, action)
	if action == "" {
		action = p.url
	}

	started := time.Now()
	b, err := httpx.PostForm(ctx, r.Client, action, formPayload(form))
	metrics.ObserveHop(string(StageHost), time.Since(started))
	if err != nil {
		return page{}, &Error{Stage: StageHost, URL: action, Err: err}
	}
	r.Log.Debug().Str("state", string(StageHost)).Str("url", action).Msg("已提交直链生成表单")
	return parsePage(StageHost, action, b)
}

func generateForm(doc *goquery.Document) *goquery.Selection {
	var found *goquery.Selection
	doc.Find("form").EachWithBreak(func(_ int, f *goquery.Selection) bool {
		hit := false
		f.Find(`input[type="submit"]`).EachWithBreak(func(_ int, btn *goquery.Selection) bool {
			v, _ := btn.Attr("value")
			hit = generateRE.MatchString(v)
			return !hit
		})
		if hit {
			found = f
		}
		return !hit
	})
	return found
}

// formPayload 收集所有 hidden input 与带 name 的 submit input。
func formPayload(form *goquery.Selection) url.Values {
	v := url.Values{}
	form.Find(`input[type="hidden"]`).Each(func(_ int, in *goquery.Selection) {
		name, ok := in.Attr("name")
		if !ok || name == "" {
			return
		}
		val, _ := in.Attr("value")
		v.Add(name, val)
	})
	form.Find(`input[type="submit"]`).Each(func(_ int, btn *goquery.Selection) {
		name, _ := btn.Attr("name")
		if name == "" {
			return
		}
		val, _ := btn.Attr("value")
		v.Add(name, val)
	})
	return v
}

// followTrigger 找第一个文本含 download、且 href 还不是媒体直链的 <a>，抓取它并返回新页面；
// 没有这样的链接时原样返回 p。相对 href 以托管页地址 hostURL 为基准（即使 p 是表单提交后的响应）。
func (r *Resolver) followTrigger(ctx context.Context, p page, hostURL string) (page, error) {
	var trigger string
	p.doc.Find("a[href]").EachWithBreak(func(_ int, a *goquery.Selection) bool {
		href, _ := a.Attr("href")
		href = strings.TrimSpace(href)
		if href == "" || mediaHrefRE.MatchString(href) || !downloadRE.MatchString(a.Text()) {
			return true
		}
		trigger = href
		return false
	})
	if trigger == "" {
		return p, nil
	}
	return r.fetch(ctx, StageTrigger, httpx.ResolveURL(hostURL, trigger))
}

// finalLink 依次尝试：媒体扩展名的 <a>、<video><source src>、页面原文中的第一个 .mkv 地址。
func finalLink(p page) (string, error) {
	var found string
	p.doc.Find("a[href]").EachWithBreak(func(_ int, a *goquery.Selection) bool {
		href, _ := a.Attr("href")
		href = strings.TrimSpace(href)
		if !mediaHrefRE.MatchString(href) {
			return true
		}
		found = href
		return false
	})
	if found == "" {
		if src, ok := p.doc.Find("video source").First().Attr("src"); ok {
			found = strings.TrimSpace(src)
		}
	}
	if found == "" {
		found = string(rawMKVRE.Find(p.html))
	}
	if found == "" {
		return "", &Error{Stage: StageNoFinalLink, URL: p.url, Err: errors.New("未找到视频直链")}
	}
	return httpx.ResolveURL(p.url, found), nil
}

func (r *Resolver) fetch(ctx context.Context, stage Stage, u string) (page, error) {
	started := time.Now()
	b, err := httpx.Get(ctx, r.Client, u)
	metrics.ObserveHop(string(stage), time.Since(started))
	if err != nil {
		return page{}, &Error{Stage: stage, URL: u, Err: err}
	}
	r.Log.Debug().Str("state", string(stage)).Str("url", u).Int("bytes", len(b)).Msg("已抓取")
	return parsePage(stage, u, b)
}

func parsePage(stage Stage, u string, b []byte) (page, error) {
	doc, err := goquery.NewDocumentFromReader(bytes.NewReader(b))
	if err != nil {
		return page{}, &Error{Stage: stage, URL: u, Err: err}
	}
	return page{url: u, html: b, doc: doc}, nil
}
