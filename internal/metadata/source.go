package metadata

import (
	"context"

	"github.com/John-Robertt/dmstream/internal/domain"
)

// Source 是外部元数据源：按标识符取规范标题与年份。
//
// 约束：
// - 每次调用只尝试一次，超时/可用性由实现方的 http client 决定
// - 解析不出 "<Title> (<YYYY>)" 时返回错误（由 Resolver 降级为 absent）
type Source interface {
	Name() string
	FetchTitleYear(ctx context.Context, id string) (domain.Metadata, error)
}
