// Package model 定义了与数据库表对应的 Go 结构体。
package model

// InventoryRow 是零件清单 CSV 中的一行原始数据（不含尾部汇总行）。
// 解析完成后不可变。
type InventoryRow struct {
	VendorPartID string `json:"vendorPartId"`
	Quantity     int    `json:"quantity"`
	ColorName    string `json:"colorName"`
}

// ResolvedPart 是经过零件号标准化和图片解析后的零件条目。
// 同一 CanonicalPartID 可能出现在多行（不同颜色），唯一性按 (零件号, 颜色) 计。
type ResolvedPart struct {
	CanonicalPartID string `json:"partNum"`
	Quantity        int    `json:"quantity"`
	ColorName       string `json:"colorName"`
	ImageURL        string `json:"partImgUrl"`
}

// PartList 是一次零件清单解析的完整结果。
type PartList struct {
	Parts          []ResolvedPart `json:"parts"`
	ModelPartCount int            `json:"modelPartCount"`
}

// SubmissionDocument 定义了存储在 Elasticsearch 中的投稿文档结构。
type SubmissionDocument struct {
	SubmissionID    string `json:"submission_id"`
	Username        string `json:"username"`
	Title           string `json:"title"`
	Category        string `json:"category"`
	Description     string `json:"description"`
	SourcePartCount int    `json:"source_part_count"`
	ModelPartCount  int    `json:"model_part_count"`
	CreatedAt       int64  `json:"created_at"`
}

// SubmissionSearchHit 定义了返回给前端的搜索结果结构。
type SubmissionSearchHit struct {
	SubmissionID string  `json:"id"`
	Username     string  `json:"username"`
	Title        string  `json:"title"`
	Category     string  `json:"category"`
	Description  string  `json:"description"`
	Score        float64 `json:"score"`
}
