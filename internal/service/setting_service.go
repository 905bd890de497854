package service

import (
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/deenlog/internal/db"
	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// ErrInvalidHijriOffset 表示希吉拉历偏移超出允许范围
var ErrInvalidHijriOffset = errors.New("hijri offset out of range")

// 本地见月与表算法的偏差一般不超过两天
const (
	minHijriOffset = -2
	maxHijriOffset = 2
)

// SystemSettings 描述后台可配置的系统信息。
type SystemSettings struct {
	SiteName    string
	HijriOffset int
	ShareToken  string
}

// SystemSettingsInput 用于更新系统设置。
type SystemSettingsInput struct {
	SiteName    string
	HijriOffset int
}

// SystemSettingService 提供系统设置的读取与更新能力。
type SystemSettingService struct {
	db *gorm.DB
}

// NewSystemSettingService 构造 SystemSettingService。
func NewSystemSettingService(gdb *gorm.DB) *SystemSettingService {
	return &SystemSettingService{db: gdb}
}

var settingKeys = []string{
	db.SettingKeySiteName,
	db.SettingKeyHijriOffset,
	db.SettingKeyShareToken,
}

// GetSettings 读取系统设置，如未设置将返回默认值。
func (s *SystemSettingService) GetSettings() (SystemSettings, error) {
	result := SystemSettings{SiteName: "DeenLog"}

	var records []db.SystemSetting
	if err := s.db.Where("key IN ?", settingKeys).Find(&records).Error; err != nil {
		return result, fmt.Errorf("load system settings: %w", err)
	}

	for _, record := range records {
		switch record.Key {
		case db.SettingKeySiteName:
			if name := strings.TrimSpace(record.Value); name != "" {
				result.SiteName = name
			}
		case db.SettingKeyHijriOffset:
			if offset, err := strconv.Atoi(strings.TrimSpace(record.Value)); err == nil {
				result.HijriOffset = offset
			}
		case db.SettingKeyShareToken:
			result.ShareToken = strings.TrimSpace(record.Value)
		}
	}

	return result, nil
}

// UpdateSettings 更新站点名称与希吉拉历偏移。
func (s *SystemSettingService) UpdateSettings(input SystemSettingsInput) (SystemSettings, error) {
	if input.HijriOffset < minHijriOffset || input.HijriOffset > maxHijriOffset {
		return SystemSettings{}, fmt.Errorf("%w: %d", ErrInvalidHijriOffset, input.HijriOffset)
	}

	if err := s.upsert(db.SettingKeySiteName, strings.TrimSpace(input.SiteName)); err != nil {
		return SystemSettings{}, err
	}
	if err := s.upsert(db.SettingKeyHijriOffset, strconv.Itoa(input.HijriOffset)); err != nil {
		return SystemSettings{}, err
	}

	return s.GetSettings()
}

// EnsureShareToken 返回只读分享令牌，缺失时生成一个新的。
func (s *SystemSettingService) EnsureShareToken() (string, error) {
	settings, err := s.GetSettings()
	if err != nil {
		return "", err
	}
	if settings.ShareToken != "" {
		return settings.ShareToken, nil
	}
	return s.RotateShareToken()
}

// RotateShareToken 重新生成分享令牌，旧链接随即失效。
func (s *SystemSettingService) RotateShareToken() (string, error) {
	token := uuid.NewString()
	if err := s.upsert(db.SettingKeyShareToken, token); err != nil {
		return "", err
	}
	return token, nil
}

func (s *SystemSettingService) upsert(key, value string) error {
	record := db.SystemSetting{Key: key, Value: value}
	if err := s.db.Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "key"}},
		DoUpdates: clause.AssignmentColumns([]string{"value", "updated_at"}),
	}).Create(&record).Error; err != nil {
		return fmt.Errorf("save setting %s: %w", key, err)
	}
	return nil
}
