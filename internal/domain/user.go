package domain

import "time"

// User 表示注册用户的资料行（profiles 表）
//
// 凭证本身由外部身份服务托管，本系统只保存一份用户资料，
// 用于 /history 等查询时做归属关联。本地身份提供者（开发模式）
// 会额外填充 PasswordHash 字段。
type User struct {
	ID           string     `json:"id" gorm:"primaryKey;type:varchar(36)"`
	Email        string     `json:"email" gorm:"uniqueIndex;type:varchar(255);not null"`
	Name         string     `json:"name,omitempty" gorm:"type:varchar(100)"`
	PasswordHash string     `json:"-" gorm:"type:varchar(255)"` // 不返回给前端
	IsActive     bool       `json:"isActive" gorm:"default:true"`
	CreatedAt    time.Time  `json:"createdAt"`
	UpdatedAt    time.Time  `json:"updatedAt"`
	LastLoginAt  *time.Time `json:"lastLoginAt,omitempty"`
}

// TableName 指定 GORM 表名
func (User) TableName() string {
	return "profiles"
}
