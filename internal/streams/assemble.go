package streams

import (
	"context"
	"fmt"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/John-Robertt/dmstream/internal/domain"
	"github.com/John-Robertt/dmstream/internal/offer"
)

const (
	titlePrefix   = "DesireMovies"
	hostProvider  = "HubCloud"
	streamingMode = "progressive"
	notAvailable  = " Not Available"
)

// ChainResolver 把一条画质入口链接解析为最终媒体地址。
type ChainResolver interface {
	Resolve(ctx context.Context, link string) (string, error)
}

// Assembler 并发解析所有画质入口并装配为流条目。
//
// 约束：
// - 输出与输入等长且同序；单条失败只把该条降级为不可用形态
// - 各条入口互不依赖，也不共享可变状态（结果按下标写回）
// - 已开始的解析不随请求取消而中止，每条都跑到成功或失败（单跳耗时由 http client 超时约束）
// - Limit<=0 表示不限制并发
type Assembler struct {
	Chain    ChainResolver
	Observer Observer
	Limit    int
}

// Assemble 返回与 offers 一一对应的流条目。
func (a *Assembler) Assemble(ctx context.Context, entry domain.CatalogEntry, offers []domain.QualityOffer) []domain.Stream {
	out := make([]domain.Stream, len(offers))
	if len(offers) == 0 {
		return out
	}
	if a.Observer != nil {
		a.Observer.OnOffers(entry, len(offers))
	}

	rctx := context.WithoutCancel(ctx)
	var g errgroup.Group
	if a.Limit > 0 {
		g.SetLimit(a.Limit)
	}
	for i := range offers {
		i := i // go1.21 loopvar: keep per-iteration semantics
		g.Go(func() error {
			started := time.Now()
			u, err := a.Chain.Resolve(rctx, offers[i].Link)
			if err != nil {
				out[i] = Unavailable(offers[i])
			} else {
				out[i] = Available(offers[i], u)
			}
			if a.Observer != nil {
				a.Observer.OnOfferDone(i, len(offers), offers[i], out[i], err, time.Since(started))
			}
			// 单条失败已降级，不向 errgroup 传播。
			return nil
		})
	}
	_ = g.Wait()
	return out
}

// Available 构造可播放形态。
func Available(o domain.QualityOffer, u string) domain.Stream {
	q, s := offer.Quality(o.Label), offer.Size(o.Label)
	return domain.Stream{
		Title:     streamTitle(q, s),
		URL:       &u,
		Quality:   q,
		Size:      s,
		Release:   o.Label,
		Pkg:       &domain.Package{Provider: hostProvider},
		Streaming: streamingMode,
	}
}

// Unavailable 构造不可用形态：URL 为 nil，title/release 追加 " Not Available"。
func Unavailable(o domain.QualityOffer) domain.Stream {
	q, s := offer.Quality(o.Label), offer.Size(o.Label)
	return domain.Stream{
		Title:   streamTitle(q, s) + notAvailable,
		Quality: q,
		Size:    s,
		Release: o.Label + notAvailable,
	}
}

func streamTitle(quality, size string) string {
	return fmt.Sprintf("%s – %s [%s]", titlePrefix, quality, size)
}
