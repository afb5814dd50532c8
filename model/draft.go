package model

import "time"

// DraftEntry 编辑器草稿，一个会话一行
type DraftEntry struct {
	SessionKey string    `json:"sessionKey" gorm:"primaryKey;size:191"`
	Snapshot   string    `json:"snapshot" gorm:"type:mediumtext;not null"`
	CreatedAt  time.Time `json:"createdAt"`
	UpdatedAt  time.Time `json:"updatedAt" gorm:"index"`
}

// TableName 指定表名
func (DraftEntry) TableName() string {
	return "editor_drafts"
}
