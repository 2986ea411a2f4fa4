package metadata

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"regexp"
	"strings"

	"github.com/PuerkitoBio/goquery"

	"github.com/John-Robertt/dmstream/internal/domain"
	"github.com/John-Robertt/dmstream/internal/infra/httpx"
)

var titleYearRE = regexp.MustCompile(`^(.+?)\s*\((\d{4})\)`)

// IMDb 抓取 IMDb 标题页并解析 og:title。
//
// 约束：
// - Fetch 不做缓存、不做重试（缓存由 Resolver 统一控制）
// - Parse 必须是纯函数：相同输入 => 相同输出
type IMDb struct {
	Client *http.Client
	// BaseURL 为空时使用 https://www.imdb.com；测试时指向 httptest server。
	BaseURL string
}

func (IMDb) Name() string { return "imdb" }

func (p IMDb) baseURL() string {
	u := strings.TrimSpace(p.BaseURL)
	if u == "" {
		return "https://www.imdb.com"
	}
	return strings.TrimRight(u, "/")
}

// Fetch 直接进入标题页：https://www.imdb.com/title/<id>/
func (p IMDb) Fetch(ctx context.Context, id string) ([]byte, string, error) {
	if p.Client == nil {
		return nil, "", errors.New("http client 不能为空")
	}
	if id == "" {
		return nil, "", errors.New("id 不能为空")
	}
	pageURL := p.baseURL() + "/title/" + url.PathEscape(id) + "/"
	b, err := httpx.Get(ctx, p.Client, pageURL)
	return b, pageURL, err
}

// Parse 优先读 meta[property=og:title]，缺失时回退 <title>，再按 "<Title> (<YYYY>)" 解析。
func (IMDb) Parse(html []byte) (domain.Metadata, error) {
	if len(html) == 0 {
		return domain.Metadata{}, errors.New("html 为空")
	}
	doc, err := goquery.NewDocumentFromReader(bytes.NewReader(html))
	if err != nil {
		return domain.Metadata{}, err
	}

	raw, _ := doc.Find(`meta[property="og:title"]`).First().Attr("content")
	if strings.TrimSpace(raw) == "" {
		raw = doc.Find("title").First().Text()
	}
	raw = strings.TrimSpace(raw)

	m := titleYearRE.FindStringSubmatch(raw)
	if m == nil {
		return domain.Metadata{}, fmt.Errorf("无法从 %q 解析标题与年份", raw)
	}
	title := strings.TrimSpace(m[1])
	if title == "" {
		return domain.Metadata{}, fmt.Errorf("标题为空：%q", raw)
	}
	return domain.Metadata{Title: title, Year: m[2]}, nil
}

func (p IMDb) FetchTitleYear(ctx context.Context, id string) (domain.Metadata, error) {
	b, _, err := p.Fetch(ctx, id)
	if err != nil {
		return domain.Metadata{}, err
	}
	return p.Parse(b)
}
