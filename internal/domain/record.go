package domain

import "time"

// Label 分类标签
type Label string

const (
	LabelSpam Label = "spam"
	LabelHam  Label = "ham"
)

// Valid 判断标签是否为已知取值
func (l Label) Valid() bool {
	return l == LabelSpam || l == LabelHam
}

// ClassificationRecord 表示一次分类调用的持久化结果
//
// 记录在 /classify 成功时创建，归属取自令牌主体（email），
// 之后只有 /feedback 操作会修改 IsClassificationCorrect 字段，
// 本系统从不删除记录。
type ClassificationRecord struct {
	ID                      string    `json:"id" gorm:"primaryKey;type:varchar(36)"`
	Email                   string    `json:"email" gorm:"index;type:varchar(255);not null"`
	Message                 string    `json:"message" gorm:"type:text;not null"`
	Label                   Label     `json:"label" gorm:"type:varchar(10);not null"`
	Confidence              float64   `json:"confidence" gorm:"not null"`
	CreatedAt               time.Time `json:"createdAt" gorm:"index"`
	IsClassificationCorrect *bool     `json:"isClassificationCorrect,omitempty"`
}

// TableName 指定 GORM 表名
func (ClassificationRecord) TableName() string {
	return "classification_records"
}
