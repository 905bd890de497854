package service

import (
	"bytes"
	"errors"
	"fmt"
	"time"

	"github.com/deenlog/internal/db"
	"github.com/microcosm-cc/bluemonday"
	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/extension"
	"github.com/yuin/goldmark/renderer/html"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// ErrReflectionNotFound 在指定日期没有省思记录时返回
var ErrReflectionNotFound = errors.New("reflection not found")

var (
	markdownEngine = goldmark.New(
		goldmark.WithExtensions(extension.GFM, extension.Linkify, extension.Table),
		goldmark.WithRendererOptions(html.WithHardWraps(), html.WithXHTML()),
	)
	htmlSanitizer = bluemonday.UGCPolicy()
)

// ReflectionService 负责每日省思日记的维护与渲染
type ReflectionService struct {
	db *gorm.DB
}

// ReflectionInput 定义写省思时的输入对象
type ReflectionInput struct {
	EntryDate time.Time
	Content   string
}

// NewReflectionService 构造 ReflectionService
func NewReflectionService(gdb *gorm.DB) *ReflectionService {
	return &ReflectionService{db: gdb}
}

// Upsert 一天只保留一篇：存在则覆盖内容，否则创建。
func (s *ReflectionService) Upsert(input ReflectionInput) (*db.Reflection, error) {
	record := db.Reflection{
		EntryDate: normalizeToDate(input.EntryDate),
		Content:   input.Content,
	}

	if err := s.db.Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "entry_date"}},
		DoUpdates: clause.AssignmentColumns([]string{"content", "updated_at"}),
	}).Create(&record).Error; err != nil {
		return nil, fmt.Errorf("upsert reflection: %w", err)
	}

	if err := s.db.Where("entry_date = ?", record.EntryDate).First(&record).Error; err != nil {
		return nil, fmt.Errorf("reload reflection: %w", err)
	}

	return &record, nil
}

// GetByDate 按日期读取省思。
func (s *ReflectionService) GetByDate(date time.Time) (*db.Reflection, error) {
	var record db.Reflection
	err := s.db.Where("entry_date = ?", normalizeToDate(date)).First(&record).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrReflectionNotFound
		}
		return nil, fmt.Errorf("get reflection: %w", err)
	}
	return &record, nil
}

// ListBetween 返回区间内的省思，按日期升序。
func (s *ReflectionService) ListBetween(start, end time.Time) ([]db.Reflection, error) {
	var records []db.Reflection
	if err := s.db.Where("entry_date BETWEEN ? AND ?", normalizeToDate(start), normalizeToDate(end)).
		Order("entry_date ASC").
		Find(&records).Error; err != nil {
		return nil, fmt.Errorf("list reflections: %w", err)
	}
	return records, nil
}

// Delete 删除一篇省思。
func (s *ReflectionService) Delete(id uint) error {
	if err := s.db.Delete(&db.Reflection{}, id).Error; err != nil {
		return fmt.Errorf("delete reflection: %w", err)
	}
	return nil
}

// RenderMarkdown 将 Markdown 渲染为净化后的 HTML。
func RenderMarkdown(content string) (string, error) {
	var buf bytes.Buffer
	if err := markdownEngine.Convert([]byte(content), &buf); err != nil {
		return "", fmt.Errorf("render markdown: %w", err)
	}
	return string(htmlSanitizer.SanitizeBytes(buf.Bytes())), nil
}
