package match

import (
	"regexp"
)

// bannedTerms 命中任意一个即整条目录项失去候选资格（与分数无关）。
// 包含低画质片源标记、地区/语种标签与博彩广告标签。
var bannedTerms = []string{"CAMRip", "WEBRip", "TAM", "TEL", "1XBET", "4RABET"}

var bannedREs = compileBanned(bannedTerms)

func compileBanned(terms []string) []*regexp.Regexp {
	out := make([]*regexp.Regexp, 0, len(terms))
	for _, t := range terms {
		// 按独立单词匹配：Camping 不应被 CAMRip 命中，TELugu 也不应被 TEL 命中。
		out = append(out, regexp.MustCompile(`(?i)\b`+regexp.QuoteMeta(t)+`\b`))
	}
	return out
}

// IsBanned 报告 title 是否包含禁用词。
func IsBanned(title string) bool {
	for _, re := range bannedREs {
		if re.MatchString(title) {
			return true
		}
	}
	return false
}
