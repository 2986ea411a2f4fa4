package match

import "strings"

// Normalize 把标题规范化为只含 [a-z0-9] 的比较键。
// 小写化后把 '&' 替换为 "and"，再丢弃其余所有字符（空格、标点、非 ASCII 一律不保留）。
func Normalize(s string) string {
	s = strings.ReplaceAll(strings.ToLower(s), "&", "and")
	var b strings.Builder
	b.Grow(len(s))
	for i := 0; i < len(s); i++ {
		c := s[i]
		if (c >= 'a' && c <= 'z') || (c >= '0' && c <= '9') {
			b.WriteByte(c)
		}
	}
	return b.String()
}
