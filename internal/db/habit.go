package db

import (
	"time"

	"gorm.io/gorm"
)

// HabitKind 区分打卡判定方式：binary 仅看状态，counter 按每日目标计数，
// graded 使用礼拜质量等级（0~3）
type HabitKind string

const (
	// HabitKindBinary 二元习惯：当天状态为 done 即算赢
	HabitKindBinary HabitKind = "binary"
	// HabitKindCounter 计数习惯：当天数值达到 DailyTarget 即算赢；
	// DailyTarget == 2 时启用早/晚复合编码
	HabitKindCounter HabitKind = "counter"
	// HabitKindGraded 质量分级习惯：数值为质量等级，最高档才算赢
	HabitKindGraded HabitKind = "graded"
)

// LogStatus 表示单日记录的终态
type LogStatus string

const (
	// LogStatusDone 当天完成
	LogStatusDone LogStatus = "done"
	// LogStatusFail 当天未完成
	LogStatusFail LogStatus = "fail"
	// LogStatusExcused 当天豁免：不计输赢，也不打断连胜
	LogStatusExcused LogStatus = "excused"
	// LogStatusPending 仅用于复合编码的中间态（晚间部分尚未记录）
	LogStatusPending LogStatus = "pending"
)

// TypeTagPrayer 是五番礼拜习惯的分类标签，联合连胜按该标签取成员集合
const TypeTagPrayer = "prayer"

// Habit 定义了功课（习惯）模型
// Kind/DailyTarget 决定单日输赢判定，ScoringEligible 控制是否计入总分与连胜
// Schedule 描述适用日："" 或 "daily"、"weekly:mon,thu"、"lunar:13,14,15"
// StartDate 之前的日期对该习惯不存在"缺卡"一说
type Habit struct {
	gorm.Model
	Name        string
	Description string
	Kind        HabitKind `gorm:"size:20;index"`
	DailyTarget int
	// 不设列默认值：gorm 会把带 default 的零值 false 从 INSERT 中省掉，
	// 导致不计分习惯落库后变成计分习惯。缺省计分由输入层补齐。
	ScoringEligible bool
	TypeTag         string
	Schedule        string
	StartDate       *time.Time
}

// HabitLog 记录单日功课日志
// Habit + LogDate 采用唯一索引保证幂等；Value 对 counter 为计数（目标 2 时为
// 两位复合编码），对 graded 为质量等级
// Reason 为失败原因（可选），Note 为备注，Source 标记记录来源
type HabitLog struct {
	gorm.Model
	HabitID uint      `gorm:"index;index:idx_habit_log_unique,unique"`
	Habit   Habit     `gorm:"constraint:OnDelete:CASCADE"`
	LogDate time.Time `gorm:"index:idx_habit_log_unique,unique"`
	Value   int
	Status  LogStatus `gorm:"size:20"`
	Reason  string
	Note    string
	Source  string
}

// TableName 重写确保唯一索引作用到 habit_id + log_date
func (HabitLog) TableName() string {
	return "habit_logs"
}
