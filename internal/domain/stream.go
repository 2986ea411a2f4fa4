package domain

// Stream 是一条对外输出的流条目。
//
// URL 是判别字段：非 nil 表示解析成功，nil 表示该画质不可用。
// 两种形态都必须带 Quality/Size/Release。
type Stream struct {
	Title     string   `json:"title"`
	URL       *string  `json:"url"`
	Quality   string   `json:"quality"`
	Size      string   `json:"size"`
	Release   string   `json:"release"`
	Pkg       *Package `json:"pkg,omitempty"`
	Streaming string   `json:"streaming,omitempty"`
}

// Package 标识最终资源的托管方。
type Package struct {
	Provider string `json:"provider"`
}

// Available 报告该条目是否解析出了可播放地址。
func (s Stream) Available() bool { return s.URL != nil }

// StreamsResponse 是 getStreams 的返回结构。Streams 永远不为 nil（JSON 输出 []，不是 null）。
type StreamsResponse struct {
	Streams []Stream `json:"streams"`
}

// EmptyStreams 返回 {streams: []}。
func EmptyStreams() StreamsResponse {
	return StreamsResponse{Streams: []Stream{}}
}
