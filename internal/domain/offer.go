package domain

// QualityOffer 是详情页上带画质标签的一条下载入口。
// Link 指向中转网关页，还不是可播放地址。
type QualityOffer struct {
	Label string // 例如 "2160p 4K Dual Audio [5.4 GB]"
	Link  string
}
