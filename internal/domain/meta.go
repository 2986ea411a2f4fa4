package domain

// Metadata 是从外部参考源解析出的规范标题与年份。
//
// 约束：
// - Title 已去除首尾空白
// - Year 固定为 4 位数字字符串（匹配时按子串比较，不转 int）
type Metadata struct {
	Title string
	Year  string
}
