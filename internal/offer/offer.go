package offer

import (
	"bytes"
	"regexp"
	"strings"

	"github.com/PuerkitoBio/goquery"

	"github.com/John-Robertt/dmstream/internal/domain"
)

// gdAnchorText 是详情页上有效下载入口的锚文本（区分大小写）；镜像/广告链接用的是别的文字。
const gdAnchorText = "GD & DOWNLOAD"

var (
	resolutionRE = regexp.MustCompile(`(?i)(\d{3,4}p|4k)`)
	sizeTagRE    = regexp.MustCompile(`(?i)\[\s*[\d.]+\s*(GB|MB)\s*\]`)
	sizeRE       = regexp.MustCompile(`(?i)[\d.]+\s*(GB|MB)`)
)

// Extract 把详情页 HTML 解析为画质入口列表（保持文档顺序）。
//
// 约束：
// - 只看 <p> 段落：同时含分辨率标记与 [x.x GB|MB] 的段落才是画质标签
// - 链接取其后最近一个含 "GD & DOWNLOAD" 锚点的兄弟 <p>
// - 找不到这样的锚点的段落直接丢弃（不是失败，只是不算入口）
func Extract(html []byte) ([]domain.QualityOffer, error) {
	doc, err := goquery.NewDocumentFromReader(bytes.NewReader(html))
	if err != nil {
		return nil, err
	}

	offers := make([]domain.QualityOffer, 0, 8)
	doc.Find("p").Each(func(_ int, p *goquery.Selection) {
		label := strings.TrimSpace(p.Text())
		if !resolutionRE.MatchString(label) || !sizeTagRE.MatchString(label) {
			return
		}

		var link string
		p.NextAllFiltered("p").EachWithBreak(func(_ int, next *goquery.Selection) bool {
			a := gdAnchor(next)
			if a == nil {
				return true
			}
			link, _ = a.Attr("href")
			return false
		})
		link = strings.TrimSpace(link)
		if link == "" {
			return
		}
		offers = append(offers, domain.QualityOffer{Label: label, Link: link})
	})
	return offers, nil
}

func gdAnchor(p *goquery.Selection) *goquery.Selection {
	var found *goquery.Selection
	p.Find("a").EachWithBreak(func(_ int, a *goquery.Selection) bool {
		if normSpace(a.Text()) != gdAnchorText {
			return true
		}
		found = a
		return false
	})
	return found
}

// Quality 取 label 中第一个分辨率标记（大写），没有时为 "SD"。
func Quality(label string) string {
	q := resolutionRE.FindString(label)
	if q == "" {
		return "SD"
	}
	return strings.ToUpper(q)
}

// Size 取 label 中第一个体积标记（如 "5.4 GB"），没有时为空串。
func Size(label string) string {
	return sizeRE.FindString(label)
}

func normSpace(s string) string { return strings.Join(strings.Fields(s), " ") }
