package streams

import (
	"time"

	"github.com/rs/zerolog"

	"github.com/John-Robertt/dmstream/internal/chain"
	"github.com/John-Robertt/dmstream/internal/domain"
	"github.com/John-Robertt/dmstream/internal/metrics"
)

// Observer 把单条画质入口的解析结果从装配流程中解耦出来。
//
// 约束：
// - 装配流程只发事件，不做输出
// - 实现必须并发安全：OnOfferDone 来自多个 goroutine
type Observer interface {
	// OnOffers 在开始解析前调用一次。
	OnOffers(entry domain.CatalogEntry, total int)
	// OnOfferDone 在某条入口解析完成（成功或降级）时调用。
	OnOfferDone(idx, total int, offer domain.QualityOffer, s domain.Stream, err error, dur time.Duration)
}

// LogObserver 把事件写成结构化日志并记录指标。
type LogObserver struct {
	Log zerolog.Logger
}

func (o LogObserver) OnOffers(entry domain.CatalogEntry, total int) {
	o.Log.Info().Str("entry", entry.Title).Int("offers", total).Msg("开始解析画质入口")
}

func (o LogObserver) OnOfferDone(idx, total int, offer domain.QualityOffer, s domain.Stream, err error, dur time.Duration) {
	metrics.ObserveOffer(err == nil, dur)
	if err != nil {
		o.Log.Warn().
			Err(err).
			Str("stage", string(chain.StageOf(err))).
			Int("idx", idx+1).
			Int("total", total).
			Str("label", offer.Label).
			Dur("dur", dur).
			Msg("画质入口不可用")
		return
	}
	o.Log.Info().
		Int("idx", idx+1).
		Int("total", total).
		Str("label", offer.Label).
		Str("url", *s.URL).
		Dur("dur", dur).
		Msg("画质入口已解析")
}
