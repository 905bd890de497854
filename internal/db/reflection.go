package db

import (
	"time"

	"gorm.io/gorm"
)

// Reflection 记录每日省思日记，内容为 Markdown 原文
// EntryDate 唯一，一天只保留一篇
type Reflection struct {
	gorm.Model
	EntryDate time.Time `gorm:"uniqueIndex"`
	Content   string    `gorm:"type:text"`
}
