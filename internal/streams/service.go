package streams

import (
	"context"
	"net/http"
	"time"

	"github.com/rs/zerolog"

	"github.com/John-Robertt/dmstream/internal/domain"
	"github.com/John-Robertt/dmstream/internal/infra/httpx"
	"github.com/John-Robertt/dmstream/internal/match"
	"github.com/John-Robertt/dmstream/internal/metrics"
	"github.com/John-Robertt/dmstream/internal/offer"
)

// 结果标签（metrics outcome）。
const (
	OutcomeServed       = "served"
	OutcomeNoMetadata   = "no_metadata"
	OutcomeNoCandidate  = "no_candidate"
	OutcomeDetailFailed = "detail_failed"
	OutcomeNoOffers     = "no_offers"
)

// MetadataResolver 把标识符解析为 {title, year}；失败时返回 false。
type MetadataResolver interface {
	Resolve(ctx context.Context, id string) (domain.Metadata, bool)
}

// Service 串起 元数据 → 匹配 → 详情页 → 画质入口 → 跳转链 的整条流程。
//
// 约束：
// - Index 在构造后只读，可被并发请求共享
// - GetStreams 是全函数：任何失败都降级为 {streams: []} 或单条不可用
type Service struct {
	Metadata  MetadataResolver
	Index     []domain.CatalogEntry
	Client    *http.Client
	Assembler *Assembler
	Log       zerolog.Logger
}

// GetStreams 返回 id 对应的全部流条目。
func (s *Service) GetStreams(ctx context.Context, id string) domain.StreamsResponse {
	started := time.Now()
	resp, outcome := s.getStreams(ctx, id)
	metrics.ObserveStreamRequest(outcome)
	s.Log.Info().
		Str("id", id).
		Str("outcome", outcome).
		Int("streams", len(resp.Streams)).
		Dur("dur", time.Since(started)).
		Msg("getStreams 完成")
	return resp
}

func (s *Service) getStreams(ctx context.Context, id string) (domain.StreamsResponse, string) {
	meta, ok := s.Metadata.Resolve(ctx, id)
	if !ok {
		return domain.EmptyStreams(), OutcomeNoMetadata
	}

	entry, ok := match.Match(s.Index, meta.Title, meta.Year)
	if !ok {
		s.Log.Warn().Str("title", meta.Title).Str("year", meta.Year).Msg("索引中没有匹配条目")
		return domain.EmptyStreams(), OutcomeNoCandidate
	}
	s.Log.Info().Str("title", entry.Title).Str("link", entry.Link).Msg("已选中条目")

	html, err := httpx.Get(ctx, s.Client, entry.Link)
	if err != nil {
		s.Log.Warn().Err(err).Str("link", entry.Link).Msg("详情页抓取失败")
		return domain.EmptyStreams(), OutcomeDetailFailed
	}
	offers, err := offer.Extract(html)
	if err != nil {
		s.Log.Warn().Err(err).Str("link", entry.Link).Msg("详情页解析失败")
		return domain.EmptyStreams(), OutcomeDetailFailed
	}
	if len(offers) == 0 {
		return domain.EmptyStreams(), OutcomeNoOffers
	}
	for i := range offers {
		offers[i].Link = httpx.ResolveURL(entry.Link, offers[i].Link)
	}

	return domain.StreamsResponse{Streams: s.Assembler.Assemble(ctx, entry, offers)}, OutcomeServed
}
