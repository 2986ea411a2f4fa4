package match

import "strings"

// Score 对发布标签做加性打分；各项独立累加，不截断，可为负。
func Score(title string) int {
	t := strings.ToLower(title)
	score := 0
	if strings.Contains(t, "org") {
		score += 5
	}
	if strings.Contains(t, "dual audio") {
		score += 4
	}
	if strings.Contains(t, "hindi") {
		score += 3
	}
	if strings.Contains(t, "4k") || strings.Contains(t, "2160p") {
		score += 3
	}
	if strings.Contains(t, "1080p") {
		score += 2
	}
	if strings.Contains(t, "web-hdrip") {
		score += 2
	}
	if strings.Contains(t, "voice over") {
		score -= 5
	}
	if strings.Contains(t, "multi audio") && !strings.Contains(t, "dual audio") {
		score -= 3
	}
	return score
}
