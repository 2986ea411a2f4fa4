package catalog

import (
	"encoding/json"
	"fmt"
	"os"
	"strings"

	"github.com/John-Robertt/dmstream/internal/domain"
)

// Load 读取索引文件（JSON 数组 [{title, link}]）。
//
// 约束：
// - 文件在启动时读取一次，之后只读共享
// - title 或 link 为空的条目被丢弃（它们既不可匹配也不可抓取）
// - 顺序保持文件顺序：匹配的平局按索引顺序裁决
func Load(path string) ([]domain.CatalogEntry, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	return Decode(b)
}

// Decode 解析索引 JSON。
func Decode(b []byte) ([]domain.CatalogEntry, error) {
	var raw []domain.CatalogEntry
	if err := json.Unmarshal(b, &raw); err != nil {
		return nil, fmt.Errorf("索引 JSON 无效：%w", err)
	}
	out := make([]domain.CatalogEntry, 0, len(raw))
	for _, e := range raw {
		e.Title = strings.TrimSpace(e.Title)
		e.Link = strings.TrimSpace(e.Link)
		if e.Title == "" || e.Link == "" {
			continue
		}
		out = append(out, e)
	}
	return out, nil
}

// Encode 以两空格缩进输出索引 JSON（与现有索引文件格式一致）。
func Encode(entries []domain.CatalogEntry) ([]byte, error) {
	if entries == nil {
		entries = []domain.CatalogEntry{}
	}
	b, err := json.MarshalIndent(entries, "", "  ")
	if err != nil {
		return nil, err
	}
	return append(b, '\n'), nil
}
