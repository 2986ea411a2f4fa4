package match

import (
	"strings"

	"github.com/John-Robertt/dmstream/internal/domain"
)

// Match 在目录索引中为 (title, year) 选出唯一条目。
//
// 规则（固定顺序）：
//  1. base 取 title 第一个 ':' 之前的部分（兼容副标题变体）
//  2. 过滤：非禁用 && Normalize(entry) 包含 Normalize(base) && 包含 year
//  3. 若存在以 Normalize(base+" "+year) 开头的候选，只在这部分里选
//  4. 取 Score 最大者；同分时索引顺序靠前者胜出
//
// 无候选时返回 ok=false（上层视为“无流”，不是错误）。
func Match(index []domain.CatalogEntry, title, year string) (domain.CatalogEntry, bool) {
	base := strings.TrimSpace(strings.SplitN(title, ":", 2)[0])
	normBase := Normalize(base)

	candidates := make([]domain.CatalogEntry, 0, 8)
	for _, e := range index {
		if IsBanned(e.Title) {
			continue
		}
		norm := Normalize(e.Title)
		if strings.Contains(norm, normBase) && strings.Contains(norm, year) {
			candidates = append(candidates, e)
		}
	}
	if len(candidates) == 0 {
		return domain.CatalogEntry{}, false
	}

	prefix := Normalize(base + " " + year)
	exact := make([]domain.CatalogEntry, 0, len(candidates))
	for _, e := range candidates {
		if strings.HasPrefix(Normalize(e.Title), prefix) {
			exact = append(exact, e)
		}
	}
	pool := candidates
	if len(exact) > 0 {
		pool = exact
	}

	best, bestScore := pool[0], Score(pool[0].Title)
	for _, e := range pool[1:] {
		// 严格大于：保证同分时先出现者胜出（等价于稳定降序排序后取首个）。
		if s := Score(e.Title); s > bestScore {
			best, bestScore = e, s
		}
	}
	return best, true
}
