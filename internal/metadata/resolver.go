package metadata

import (
	"context"
	"regexp"
	"strings"
	"time"

	gocache "github.com/patrickmn/go-cache"
	"github.com/rs/zerolog"

	"github.com/John-Robertt/dmstream/internal/domain"
)

var idRE = regexp.MustCompile(`^tt\d+$`)

// Resolver 把外部标识符解析为 {title, year}。
//
// 约束：
// - 只尝试形如 tt\d+ 的 id，其余直接 absent
// - 任何失败都是 absent（记录 warn，不向上抛错）
// - memo 只缓存成功的 title/year，不缓存任何解析出的媒体地址
type Resolver struct {
	src  Source
	memo *gocache.Cache
	log  zerolog.Logger
}

// NewResolver 构造 Resolver。ttl<=0 时不启用 memo。
func NewResolver(src Source, ttl time.Duration, log zerolog.Logger) *Resolver {
	r := &Resolver{src: src, log: log}
	if ttl > 0 {
		r.memo = gocache.New(ttl, 2*ttl)
	}
	return r
}

// ValidID 报告 id 是否符合外部标识符格式。
func ValidID(id string) bool { return idRE.MatchString(id) }

// Resolve 返回 (metadata, true) 或 (零值, false)。
func (r *Resolver) Resolve(ctx context.Context, id string) (domain.Metadata, bool) {
	id = strings.TrimSpace(id)
	if !ValidID(id) {
		r.log.Warn().Str("id", id).Msg("不支持的 id 格式，跳过元数据解析")
		return domain.Metadata{}, false
	}

	if r.memo != nil {
		if v, ok := r.memo.Get(id); ok {
			return v.(domain.Metadata), true
		}
	}

	m, err := r.src.FetchTitleYear(ctx, id)
	if err != nil {
		r.log.Warn().Err(err).Str("id", id).Str("source", r.src.Name()).Msg("元数据解析失败")
		return domain.Metadata{}, false
	}
	if m.Title == "" || len(m.Year) != 4 {
		r.log.Warn().Str("id", id).Str("title", m.Title).Str("year", m.Year).Msg("元数据不完整")
		return domain.Metadata{}, false
	}

	if r.memo != nil {
		r.memo.SetDefault(id, m)
	}
	r.log.Info().Str("id", id).Str("title", m.Title).Str("year", m.Year).Msg("元数据已解析")
	return m, true
}
