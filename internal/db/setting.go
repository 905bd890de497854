package db

import "gorm.io/gorm"

// SystemSetting 存储后台可配置的系统级键值对。
type SystemSetting struct {
	gorm.Model
	Key   string `gorm:"size:100;uniqueIndex;not null"`
	Value string `gorm:"type:text"`
}

// TableName 自定义表名以保持命名一致。
func (SystemSetting) TableName() string {
	return "system_settings"
}

const (
	// SettingKeySiteName 表示站点名称。
	SettingKeySiteName = "site_name"
	// SettingKeyHijriOffset 表示希吉拉历与本地见月的天数偏移（-2~+2）。
	SettingKeyHijriOffset = "hijri_offset"
	// SettingKeyShareToken 表示只读分享面板的访问令牌。
	SettingKeyShareToken = "share_token"
)
