package catalog

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"github.com/rs/zerolog"

	"github.com/John-Robertt/dmstream/internal/domain"
	"github.com/John-Robertt/dmstream/internal/infra/fsx"
	"github.com/John-Robertt/dmstream/internal/infra/httpx"
)

// listingSelector 命中列表页上每篇文章的标题链接。
const listingSelector = "article.mh-loop-item h3.entry-title a"

// ParseListing 从列表页解析条目（文档顺序）。相对 href 以 pageURL 为基准补全。
func ParseListing(html []byte, pageURL string) ([]domain.CatalogEntry, error) {
	if len(html) == 0 {
		return nil, errors.New("html 为空")
	}
	doc, err := goquery.NewDocumentFromReader(bytes.NewReader(html))
	if err != nil {
		return nil, err
	}

	var out []domain.CatalogEntry
	doc.Find(listingSelector).Each(func(_ int, a *goquery.Selection) {
		title := strings.TrimSpace(a.Text())
		href, _ := a.Attr("href")
		link := httpx.ResolveURL(pageURL, href)
		if title == "" || link == "" {
			return
		}
		out = append(out, domain.CatalogEntry{Title: title, Link: link})
	})
	return out, nil
}

// Merge 把 fresh 中 link 尚未出现过的条目按原顺序插到 existing 之前。
// 返回合并结果与新增条数；existing 本身不会被修改。
func Merge(existing, fresh []domain.CatalogEntry) ([]domain.CatalogEntry, int) {
	seen := make(map[string]struct{}, len(existing)+len(fresh))
	for _, e := range existing {
		seen[e.Link] = struct{}{}
	}

	added := make([]domain.CatalogEntry, 0, len(fresh))
	for _, e := range fresh {
		if _, ok := seen[e.Link]; ok {
			continue
		}
		seen[e.Link] = struct{}{}
		added = append(added, e)
	}

	out := make([]domain.CatalogEntry, 0, len(added)+len(existing))
	out = append(out, added...)
	out = append(out, existing...)
	return out, len(added)
}

// UpdateResult 是一次索引刷新的摘要。
type UpdateResult struct {
	Scraped int
	Added   int
	Total   int
}

// Updater 抓取列表页第一页并把新条目写回索引文件。
type Updater struct {
	Client     *http.Client
	ListingURL string
	IndexPath  string
	Log        zerolog.Logger
}

// Update 执行一次刷新。
//
// 约束：
// - 索引文件不存在视为空索引；存在但无法解析则失败（不覆盖损坏的文件）
// - 没有新增条目时不重写文件
// - 写入是原子替换：服务进程随时读取都得到完整 JSON
func (u Updater) Update(ctx context.Context) (UpdateResult, error) {
	existing, err := Load(u.IndexPath)
	if err != nil {
		if !errors.Is(err, os.ErrNotExist) {
			return UpdateResult{}, fmt.Errorf("读取索引 %q 失败：%w", u.IndexPath, err)
		}
		existing = nil
	}

	b, err := httpx.Get(ctx, u.Client, u.ListingURL)
	if err != nil {
		return UpdateResult{}, fmt.Errorf("抓取列表页失败：%w", err)
	}
	fresh, err := ParseListing(b, u.ListingURL)
	if err != nil {
		return UpdateResult{}, fmt.Errorf("解析列表页失败：%w", err)
	}

	merged, added := Merge(existing, fresh)
	res := UpdateResult{Scraped: len(fresh), Added: added, Total: len(merged)}
	if added == 0 {
		u.Log.Info().Int("scraped", res.Scraped).Int("total", res.Total).Msg("索引已是最新")
		return res, nil
	}

	out, err := Encode(merged)
	if err != nil {
		return UpdateResult{}, err
	}
	if err := fsx.WriteFileAtomic(u.IndexPath, out); err != nil {
		return UpdateResult{}, fmt.Errorf("写入索引 %q 失败：%w", u.IndexPath, err)
	}
	u.Log.Info().Int("scraped", res.Scraped).Int("added", res.Added).Int("total", res.Total).Str("path", u.IndexPath).Msg("索引已更新")
	return res, nil
}
