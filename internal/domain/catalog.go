package domain

// CatalogEntry 是目录索引中的一条记录（标题 + 详情页链接）。
//
// 约束：索引在进程启动时加载一次，之后只读。
type CatalogEntry struct {
	Title string `json:"title"`
	Link  string `json:"link"`
}
