package server

import (
	"context"
	"encoding/json"
	"errors"
	"net"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog"

	"github.com/John-Robertt/dmstream/internal/domain"
)

// StreamsGetter 是 HTTP 层依赖的唯一领域操作。
type StreamsGetter interface {
	GetStreams(ctx context.Context, id string) domain.StreamsResponse
}

// Config 是 HTTP 入口的构造参数。
type Config struct {
	Listen string
	// RateLimit 是 /stream* 每个客户端 IP 每分钟的请求上限；0 表示不限流。
	RateLimit int
	Manifest  Manifest
	Streams   StreamsGetter
	Log       zerolog.Logger
}

// Server 暴露插件协议的 HTTP 入口。
type Server struct {
	cfg     Config
	handler http.Handler
}

func New(cfg Config) *Server {
	s := &Server{cfg: cfg}
	s.handler = s.routes()
	return s
}

// Handler 返回完整的路由（测试与嵌入用）。
func (s *Server) Handler() http.Handler { return s.handler }

func (s *Server) routes() http.Handler {
	r := chi.NewRouter()
	r.Use(recoverer(s.cfg.Log))
	r.Use(cors)
	r.Use(accessLog(s.cfg.Log))

	r.Get("/manifest.json", s.handleManifest)
	r.Get("/healthz", s.handleHealthz)
	r.Method(http.MethodGet, "/metrics", promhttp.Handler())

	r.Group(func(r chi.Router) {
		r.Use(rateLimit(s.cfg.RateLimit))
		r.Get("/stream", s.handleStreamQuery)
		r.Get("/stream/{type}/{file}", s.handleStreamPath)
	})

	r.NotFound(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "Not found", http.StatusNotFound)
	})
	return r
}

func (s *Server) handleManifest(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, s.cfg.Manifest)
}

func (s *Server) handleHealthz(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// handleStreamQuery 处理 GET /stream?id=<id>。
func (s *Server) handleStreamQuery(w http.ResponseWriter, r *http.Request) {
	id := strings.TrimSpace(r.URL.Query().Get("id"))
	if id == "" {
		http.Error(w, "Error: missing id parameter", http.StatusBadRequest)
		return
	}
	writeJSON(w, http.StatusOK, s.cfg.Streams.GetStreams(r.Context(), id))
}

// handleStreamPath 处理插件协议路径 GET /stream/{type}/{id}.json。非 movie 类型返回空列表。
func (s *Server) handleStreamPath(w http.ResponseWriter, r *http.Request) {
	typ := chi.URLParam(r, "type")
	id, ok := strings.CutSuffix(chi.URLParam(r, "file"), ".json")
	if !ok || id == "" {
		http.Error(w, "Not found", http.StatusNotFound)
		return
	}
	if typ != "movie" {
		writeJSON(w, http.StatusOK, domain.EmptyStreams())
		return
	}
	writeJSON(w, http.StatusOK, s.cfg.Streams.GetStreams(r.Context(), id))
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

// Run 监听并服务，直到 ctx 取消；取消后最多等待 shutdownTimeout 让在途请求结束。
func (s *Server) Run(ctx context.Context) error {
	ln, err := net.Listen("tcp", s.cfg.Listen)
	if err != nil {
		return err
	}
	return s.Serve(ctx, ln)
}

const shutdownTimeout = 10 * time.Second

// Serve 在给定 listener 上服务（测试用随机端口）。
func (s *Server) Serve(ctx context.Context, ln net.Listener) error {
	srv := &http.Server{
		Handler:           s.handler,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() { errCh <- srv.Serve(ln) }()
	s.cfg.Log.Info().Str("addr", ln.Addr().String()).Msg("HTTP 服务已启动")

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
	}

	sctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(sctx); err != nil {
		return err
	}
	if err := <-errCh; err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	s.cfg.Log.Info().Msg("HTTP 服务已停止")
	return nil
}
