package server

import (
	"context"
	"encoding/json"
	"io"
	"net"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	"github.com/rs/zerolog"

	"github.com/John-Robertt/dmstream/internal/domain"
)

type recordStreams struct {
	mu  sync.Mutex
	ids []string
}

func (s *recordStreams) GetStreams(_ context.Context, id string) domain.StreamsResponse {
	s.mu.Lock()
	s.ids = append(s.ids, id)
	s.mu.Unlock()
	u := "https://cdn.test/" + id + ".mkv"
	return domain.StreamsResponse{Streams: []domain.Stream{{Title: "t", URL: &u, Quality: "1080P", Size: "2 GB", Release: "r"}}}
}

type panicStreams struct{}

func (panicStreams) GetStreams(context.Context, string) domain.StreamsResponse { panic("boom") }

func newTestServer(t *testing.T, sg StreamsGetter, limit int) *httptest.Server {
	t.Helper()
	s := New(Config{RateLimit: limit, Manifest: DefaultManifest(), Streams: sg, Log: zerolog.Nop()})
	srv := httptest.NewServer(s.Handler())
	t.Cleanup(srv.Close)
	return srv
}

func get(t *testing.T, u string) (*http.Response, string) {
	t.Helper()
	resp, err := http.Get(u)
	if err != nil {
		t.Fatalf("请求失败：%v", err)
	}
	defer resp.Body.Close()
	b, _ := io.ReadAll(resp.Body)
	return resp, string(b)
}

func TestManifest(t *testing.T) {
	srv := newTestServer(t, &recordStreams{}, 0)

	resp, body := get(t, srv.URL+"/manifest.json")
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("期望 200，实际 %d", resp.StatusCode)
	}
	if resp.Header.Get("Access-Control-Allow-Origin") != "*" {
		t.Fatalf("缺少 CORS 头：%v", resp.Header)
	}
	var m Manifest
	if err := json.Unmarshal([]byte(body), &m); err != nil {
		t.Fatalf("manifest 不是合法 JSON：%v", err)
	}
	if diff := cmp.Diff(DefaultManifest(), m); diff != "" {
		t.Fatalf("manifest 不符合预期 (-want +got):\n%s", diff)
	}
	if !strings.Contains(body, `"catalogs":[]`) {
		t.Fatalf("catalogs 应输出空数组：%s", body)
	}
}

func TestStreamQuery(t *testing.T) {
	rs := &recordStreams{}
	srv := newTestServer(t, rs, 0)

	resp, body := get(t, srv.URL+"/stream?id=tt0113277")
	if resp.StatusCode != http.StatusOK || resp.Header.Get("Content-Type") != "application/json" {
		t.Fatalf("响应不符合预期：%d %v", resp.StatusCode, resp.Header)
	}
	if !strings.Contains(body, `"url":"https://cdn.test/tt0113277.mkv"`) {
		t.Fatalf("body 不符合预期：%s", body)
	}

	resp, body = get(t, srv.URL+"/stream")
	if resp.StatusCode != http.StatusBadRequest || body != "Error: missing id parameter\n" {
		t.Fatalf("缺少 id 应返回 400：%d %q", resp.StatusCode, body)
	}
	if len(rs.ids) != 1 {
		t.Fatalf("缺少 id 时不应调用领域层：%v", rs.ids)
	}
}

func TestStreamPath(t *testing.T) {
	rs := &recordStreams{}
	srv := newTestServer(t, rs, 0)

	resp, body := get(t, srv.URL+"/stream/movie/tt15239678.json")
	if resp.StatusCode != http.StatusOK || !strings.Contains(body, "tt15239678.mkv") {
		t.Fatalf("movie 路径响应不符合预期：%d %s", resp.StatusCode, body)
	}

	resp, body = get(t, srv.URL+"/stream/series/tt0903747:1:1.json")
	if resp.StatusCode != http.StatusOK || strings.TrimSpace(body) != `{"streams":[]}` {
		t.Fatalf("非 movie 类型应返回空列表：%d %s", resp.StatusCode, body)
	}

	resp, _ = get(t, srv.URL+"/stream/movie/tt1")
	if resp.StatusCode != http.StatusNotFound {
		t.Fatalf("缺少 .json 后缀应 404，实际 %d", resp.StatusCode)
	}
	if len(rs.ids) != 1 || rs.ids[0] != "tt15239678" {
		t.Fatalf("领域层调用不符合预期：%v", rs.ids)
	}
}

func TestPreflight(t *testing.T) {
	srv := newTestServer(t, &recordStreams{}, 0)

	req, _ := http.NewRequest(http.MethodOptions, srv.URL+"/stream/movie/tt1.json", nil)
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		t.Fatalf("请求失败：%v", err)
	}
	resp.Body.Close()
	if resp.StatusCode != http.StatusNoContent {
		t.Fatalf("OPTIONS 期望 204，实际 %d", resp.StatusCode)
	}
	if resp.Header.Get("Access-Control-Allow-Methods") != "GET,OPTIONS" || resp.Header.Get("Access-Control-Allow-Headers") != "Content-Type" {
		t.Fatalf("CORS 头不符合预期：%v", resp.Header)
	}
}

func TestUnknownPath(t *testing.T) {
	srv := newTestServer(t, &recordStreams{}, 0)
	resp, body := get(t, srv.URL+"/nope")
	if resp.StatusCode != http.StatusNotFound || body != "Not found\n" {
		t.Fatalf("未知路径应 404：%d %q", resp.StatusCode, body)
	}
}

func TestRateLimit_StreamOnly(t *testing.T) {
	srv := newTestServer(t, &recordStreams{}, 2)

	for i := 0; i < 2; i++ {
		if resp, _ := get(t, srv.URL+"/stream?id=tt1"); resp.StatusCode != http.StatusOK {
			t.Fatalf("第 %d 次不应被限流：%d", i+1, resp.StatusCode)
		}
	}
	resp, body := get(t, srv.URL+"/stream?id=tt1")
	if resp.StatusCode != http.StatusTooManyRequests {
		t.Fatalf("超限应返回 429，实际 %d", resp.StatusCode)
	}
	if resp.Header.Get("Retry-After") != "60" || !strings.Contains(body, "rate_limit_exceeded") {
		t.Fatalf("429 响应不符合预期：%v %s", resp.Header, body)
	}

	if resp, _ := get(t, srv.URL+"/manifest.json"); resp.StatusCode != http.StatusOK {
		t.Fatalf("manifest 不应被限流：%d", resp.StatusCode)
	}
}

func TestRecoverer(t *testing.T) {
	srv := newTestServer(t, panicStreams{}, 0)
	resp, _ := get(t, srv.URL+"/stream?id=tt1")
	if resp.StatusCode != http.StatusInternalServerError {
		t.Fatalf("panic 应返回 500，实际 %d", resp.StatusCode)
	}
	if resp, _ := get(t, srv.URL+"/healthz"); resp.StatusCode != http.StatusOK {
		t.Fatalf("panic 后服务应继续可用：%d", resp.StatusCode)
	}
}

func TestMetricsEndpoint(t *testing.T) {
	srv := newTestServer(t, &recordStreams{}, 0)
	_, _ = get(t, srv.URL+"/healthz")
	resp, body := get(t, srv.URL+"/metrics")
	if resp.StatusCode != http.StatusOK || !strings.Contains(body, "dmstream_http_request_duration_seconds") {
		t.Fatalf("/metrics 应输出 HTTP 指标：%d", resp.StatusCode)
	}
}

func TestServe_ShutdownOnCancel(t *testing.T) {
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		t.Fatalf("监听失败：%v", err)
	}
	s := New(Config{Manifest: DefaultManifest(), Streams: &recordStreams{}, Log: zerolog.Nop()})

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- s.Serve(ctx, ln) }()

	if resp, _ := get(t, "http://"+ln.Addr().String()+"/healthz"); resp.StatusCode != http.StatusOK {
		t.Fatalf("healthz 期望 200，实际 %d", resp.StatusCode)
	}
	cancel()

	select {
	case err := <-done:
		if err != nil {
			t.Fatalf("正常关闭不应返回错误：%v", err)
		}
	case <-time.After(5 * time.Second):
		t.Fatalf("取消后服务未退出")
	}
}
