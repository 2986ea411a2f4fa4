package offer

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/John-Robertt/dmstream/internal/domain"
)

func TestExtract_DetailFixture(t *testing.T) {
	html, err := os.ReadFile(filepath.Join("testdata", "detail.html"))
	if err != nil {
		t.Fatalf("读取 fixture 失败：%v", err)
	}

	got, err := Extract(html)
	if err != nil {
		t.Fatalf("Extract 失败：%v", err)
	}

	// 1080p 段落后的锚文本大小写不符，它之后最近的 GD 锚点属于 2160p 段落的位置，
	// 因此 1080p 会借用那条链接：这是“最近的后续段落”规则的直接结果。
	want := []domain.QualityOffer{
		{Label: "480p Dual Audio [Hindi-English] x264 [550 MB]", Link: "https://gyanigurus.test/go/480"},
		{Label: "720p Dual Audio [Hindi-English] x264 [1.2 GB]", Link: "https://gyanigurus.test/go/720"},
		{Label: "1080p 10Bit HEVC Dual Audio [2.6 GB]", Link: "https://gyanigurus.test/go/2160"},
		{Label: "2160p 4K HDR Dual Audio [ 14.5 GB ]", Link: "https://gyanigurus.test/go/2160"},
	}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Fatalf("offers 不符合预期 (-want +got):\n%s", diff)
	}
}

func TestExtract_DropsBlockWithoutFollowingAnchor(t *testing.T) {
	html := []byte(`<p>720p WEB-DL [900 MB]</p><p><a href="https://x.test">Download</a></p>`)
	got, err := Extract(html)
	if err != nil {
		t.Fatalf("Extract 失败：%v", err)
	}
	if len(got) != 0 {
		t.Fatalf("没有 GD 锚点的段落应被丢弃：%+v", got)
	}
}

func TestExtract_AnchorWithoutHrefDropped(t *testing.T) {
	html := []byte(`<p>4K HDR [10 GB]</p><p><a>GD &amp; DOWNLOAD</a></p>`)
	got, _ := Extract(html)
	if len(got) != 0 {
		t.Fatalf("空 href 不应产出入口：%+v", got)
	}
}

func TestQualityAndSize(t *testing.T) {
	cases := []struct {
		label, quality, size string
	}{
		{"2160p 4K Dual Audio [5.4 GB]", "2160P", "5.4 GB"},
		{"4k HDR [12GB]", "4K", "12GB"},
		{"HDTC [700 MB]", "SD", "700 MB"},
		{"1080p x265", "1080P", ""},
	}
	for _, c := range cases {
		if got := Quality(c.label); got != c.quality {
			t.Fatalf("Quality(%q)=%q，期望 %q", c.label, got, c.quality)
		}
		if got := Size(c.label); got != c.size {
			t.Fatalf("Size(%q)=%q，期望 %q", c.label, got, c.size)
		}
	}
}
