// Package model 定义了与数据库表对应的 Go 结构体。
package model

import (
	"database/sql/driver"
	"encoding/json"
	"fmt"
	"time"
)

// StringList 是一个以 JSON 形式存储在单列中的字符串列表。
type StringList []string

// Value 实现了 driver.Valuer 接口。
func (l StringList) Value() (driver.Value, error) {
	if l == nil {
		l = StringList{}
	}
	return json.Marshal(l)
}

// Scan 实现了 sql.Scanner 接口。
func (l *StringList) Scan(value interface{}) error {
	if value == nil {
		*l = StringList{}
		return nil
	}
	switch v := value.(type) {
	case []byte:
		return json.Unmarshal(v, l)
	case string:
		return json.Unmarshal([]byte(v), l)
	default:
		return fmt.Errorf("无法将 %T 扫描为 StringList", value)
	}
}

// Submission 定义了 submissions 表的 ORM 模型。
// 一条记录对应一次作品投稿，四组资源 URL 按类别分开存储。
// SubmissionID 在记录创建后由第二次写入回填（生成的记录标识）。
type Submission struct {
	ID              uint       `gorm:"primaryKey;autoIncrement" json:"-"`
	SubmissionID    string     `gorm:"type:varchar(32);index" json:"id"`
	Username        string     `gorm:"type:varchar(64);not null;index" json:"username"`
	Title           string     `gorm:"type:varchar(255);not null" json:"title"`
	Category        string     `gorm:"type:varchar(64);not null" json:"category"`
	Description     string     `gorm:"type:text" json:"description"`
	SourceSets      StringList `gorm:"type:json" json:"sourceSets"`
	SourcePartCount int        `gorm:"not null" json:"sourcePartCount"`
	ModelPartCount  int        `gorm:"not null" json:"modelPartCount"`
	ImageURLs       StringList `gorm:"type:json" json:"imageUrls"`
	InstructionURLs StringList `gorm:"type:json" json:"instructionUrls"`
	PartsListURLs   StringList `gorm:"type:json" json:"partsListUrls"`
	ThreeModelURLs  StringList `gorm:"type:json" json:"threemodelUrls"`
	CreatedAt       time.Time  `gorm:"autoCreateTime;index" json:"createdAt"`
}

// TableName 指定了此模型在数据库中对应的表名。
func (Submission) TableName() string {
	return "submissions"
}

// AllAssetURLs 汇总四组资源 URL，用于级联删除。
func (s *Submission) AllAssetURLs() []string {
	urls := make([]string, 0, len(s.ImageURLs)+len(s.InstructionURLs)+len(s.PartsListURLs)+len(s.ThreeModelURLs))
	urls = append(urls, s.ImageURLs...)
	urls = append(urls, s.InstructionURLs...)
	urls = append(urls, s.PartsListURLs...)
	urls = append(urls, s.ThreeModelURLs...)
	return urls
}
