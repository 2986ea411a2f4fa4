package streams

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/rs/zerolog"

	"github.com/John-Robertt/dmstream/internal/domain"
)

type fixedMeta struct {
	m  domain.Metadata
	ok bool
}

func (f fixedMeta) Resolve(context.Context, string) (domain.Metadata, bool) { return f.m, f.ok }

const detailPage = `<html><body>
<p>1080p x264 [2.1 GB]</p>
<p><a href="%[1]s/mirror">MIRROR</a> <a href="/go/1080">GD &amp; DOWNLOAD</a></p>
<p>720p x264 [1 GB]</p>
<p><a href="/go/720">GD &amp; DOWNLOAD</a></p>
</body></html>`

func newDetailServer(t *testing.T) *httptest.Server {
	t.Helper()
	var srv *httptest.Server
	srv = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/dune-2024/":
			_, _ = io.WriteString(w, fmt.Sprintf(detailPage, srv.URL))
		case "/empty/":
			_, _ = io.WriteString(w, `<p>nothing here</p>`)
		default:
			http.NotFound(w, r)
		}
	}))
	t.Cleanup(srv.Close)
	return srv
}

func newService(srv *httptest.Server, meta fixedMeta, index []domain.CatalogEntry) *Service {
	// 详情页上的相对链接应以详情页地址补全后再交给跳转链。
	c := mapChain{urls: map[string]string{srv.URL + "/go/1080": "https://cdn.test/1080.mkv"}}
	return &Service{
		Metadata:  meta,
		Index:     index,
		Client:    srv.Client(),
		Assembler: &Assembler{Chain: c},
		Log:       zerolog.Nop(),
	}
}

func TestGetStreams_EndToEnd(t *testing.T) {
	srv := newDetailServer(t)
	index := []domain.CatalogEntry{
		{Title: "Dune Part Two (2024) CAMRip", Link: srv.URL + "/banned/"},
		{Title: "Dune: Part Two (2024) Dual Audio 1080p", Link: srv.URL + "/dune-2024/"},
	}
	s := newService(srv, fixedMeta{m: domain.Metadata{Title: "Dune: Part Two", Year: "2024"}, ok: true}, index)

	resp := s.GetStreams(context.Background(), "tt15239678")
	if len(resp.Streams) != 2 {
		t.Fatalf("期望 2 条流，实际 %d：%+v", len(resp.Streams), resp.Streams)
	}
	if !resp.Streams[0].Available() || *resp.Streams[0].URL != "https://cdn.test/1080.mkv" {
		t.Fatalf("第 1 条应可用：%+v", resp.Streams[0])
	}
	if resp.Streams[1].Available() || resp.Streams[1].Quality != "720P" {
		t.Fatalf("第 2 条应降级为不可用：%+v", resp.Streams[1])
	}
}

func TestGetStreams_EmptyOutcomes(t *testing.T) {
	srv := newDetailServer(t)

	cases := []struct {
		name  string
		meta  fixedMeta
		index []domain.CatalogEntry
	}{
		{name: "元数据缺失", meta: fixedMeta{}},
		{
			name:  "无候选",
			meta:  fixedMeta{m: domain.Metadata{Title: "Heat", Year: "1995"}, ok: true},
			index: []domain.CatalogEntry{{Title: "Alien (1979)", Link: srv.URL + "/x/"}},
		},
		{
			name:  "详情页 404",
			meta:  fixedMeta{m: domain.Metadata{Title: "Heat", Year: "1995"}, ok: true},
			index: []domain.CatalogEntry{{Title: "Heat (1995)", Link: srv.URL + "/missing/"}},
		},
		{
			name:  "详情页没有画质入口",
			meta:  fixedMeta{m: domain.Metadata{Title: "Heat", Year: "1995"}, ok: true},
			index: []domain.CatalogEntry{{Title: "Heat (1995)", Link: srv.URL + "/empty/"}},
		},
	}
	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			resp := newService(srv, c.meta, c.index).GetStreams(context.Background(), "tt1")
			if resp.Streams == nil || len(resp.Streams) != 0 {
				t.Fatalf("期望 {streams: []}，实际 %#v", resp.Streams)
			}
		})
	}
}
