package service

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/deenlog/internal/db"
)

// PartState 表示复合编码中单个时段（早/晚）的状态
type PartState int

const (
	// PartPending 时段尚未记录
	PartPending PartState = 0
	// PartDone 时段已完成
	PartDone PartState = 1
	// PartFail 时段未完成
	PartFail PartState = 2
)

// 礼拜质量等级，数值即存储值，最高档才算赢
const (
	QualityMissed   = 0
	QualityOnTime   = 1
	QualityJamaa    = 2
	QualityTakbirah = 3
)

// compoundTarget 标记 counter 习惯启用早/晚复合编码的目标值
const compoundTarget = 2

// DecodeCompound 将两位数编码拆成早/晚两个时段状态。
// 编码为 AM*10 + PM，每位 ∈ {0 待定, 1 完成, 2 失败}。
func DecodeCompound(value int) (am, pm PartState) {
	if value < 0 {
		return PartPending, PartPending
	}
	am = PartState(value / 10 % 10)
	pm = PartState(value % 10)
	if am > PartFail {
		am = PartPending
	}
	if pm > PartFail {
		pm = PartPending
	}
	return am, pm
}

// EncodeCompound 将早/晚两个时段状态合并回整数编码。
// 整数形式只在存储边界存在，领域逻辑始终使用拆开的状态。
func EncodeCompound(am, pm PartState) int {
	return int(am)*10 + int(pm)
}

// IsCompound 判断习惯是否使用早/晚复合编码。
func IsCompound(habit db.Habit) bool {
	return habit.Kind == db.HabitKindCounter && habit.DailyTarget == compoundTarget
}

// IsComplete 判断单日记录是否已成终态。
// 复合编码在晚间时段记录前视同"当天没有记录"，不参与任何统计。
func IsComplete(habit db.Habit, logEntry db.HabitLog) bool {
	if logEntry.Status == db.LogStatusExcused {
		return true
	}
	if IsCompound(habit) {
		_, pm := DecodeCompound(logEntry.Value)
		return pm != PartPending
	}
	return logEntry.Status != db.LogStatusPending
}

// IsWin 按习惯类型判定单日记录是否算赢。
// 豁免记录既不算赢也不算输。
func IsWin(habit db.Habit, logEntry db.HabitLog) bool {
	if logEntry.Status == db.LogStatusExcused {
		return false
	}

	switch habit.Kind {
	case db.HabitKindBinary:
		return logEntry.Status == db.LogStatusDone
	case db.HabitKindCounter:
		if IsCompound(habit) {
			am, pm := DecodeCompound(logEntry.Value)
			return am == PartDone && pm == PartDone
		}
		return logEntry.Value >= habit.DailyTarget || logEntry.Status == db.LogStatusDone
	case db.HabitKindGraded:
		return logEntry.Value == QualityTakbirah
	default:
		return false
	}
}

// IsLoss 判定单日记录是否算输：已成终态、非豁免且不算赢。
func IsLoss(habit db.Habit, logEntry db.HabitLog) bool {
	if logEntry.Status == db.LogStatusExcused {
		return false
	}
	return IsComplete(habit, logEntry) && !IsWin(habit, logEntry)
}

// scheduleRule 是 Habit.Schedule 表达式解析后的内部形式
type scheduleRule struct {
	daily     bool
	weekdays  map[time.Weekday]bool
	lunarDays map[int]bool
}

var weekdayNames = map[string]time.Weekday{
	"sun": time.Sunday,
	"mon": time.Monday,
	"tue": time.Tuesday,
	"wed": time.Wednesday,
	"thu": time.Thursday,
	"fri": time.Friday,
	"sat": time.Saturday,
}

// ParseSchedule 校验并解析适用日表达式。
// 支持 ""/"daily"、"weekly:mon,thu"、"lunar:13,14,15"。
func ParseSchedule(expr string) error {
	_, err := parseSchedule(expr)
	return err
}

func parseSchedule(expr string) (scheduleRule, error) {
	expr = strings.TrimSpace(strings.ToLower(expr))
	if expr == "" || expr == "daily" {
		return scheduleRule{daily: true}, nil
	}

	kind, args, found := strings.Cut(expr, ":")
	if !found {
		return scheduleRule{}, fmt.Errorf("invalid schedule expression: %s", expr)
	}

	switch kind {
	case "weekly":
		rule := scheduleRule{weekdays: make(map[time.Weekday]bool)}
		for _, name := range strings.Split(args, ",") {
			day, ok := weekdayNames[strings.TrimSpace(name)]
			if !ok {
				return scheduleRule{}, fmt.Errorf("invalid weekday: %s", name)
			}
			rule.weekdays[day] = true
		}
		if len(rule.weekdays) == 0 {
			return scheduleRule{}, fmt.Errorf("weekly schedule needs at least one weekday")
		}
		return rule, nil
	case "lunar":
		rule := scheduleRule{lunarDays: make(map[int]bool)}
		for _, raw := range strings.Split(args, ",") {
			day, err := strconv.Atoi(strings.TrimSpace(raw))
			if err != nil || day < 1 || day > 30 {
				return scheduleRule{}, fmt.Errorf("invalid lunar day: %s", raw)
			}
			rule.lunarDays[day] = true
		}
		if len(rule.lunarDays) == 0 {
			return scheduleRule{}, fmt.Errorf("lunar schedule needs at least one day")
		}
		return rule, nil
	default:
		return scheduleRule{}, fmt.Errorf("unknown schedule kind: %s", kind)
	}
}

// Engine 打包纯计算入口，携带历法配置（希吉拉历偏移天数）。
// 所有方法都是输入快照的确定性函数，不做任何 I/O。
type Engine struct {
	HijriOffset int
}

// IsApplicable 判断某日期是否适用于该习惯：开始日期之前不适用，
// weekly/lunar 排程只在命中的日子适用。
func (e Engine) IsApplicable(habit db.Habit, date time.Time) bool {
	day := normalizeToDate(date)
	if habit.StartDate != nil && day.Before(normalizeToDate(*habit.StartDate)) {
		return false
	}

	rule, err := parseSchedule(habit.Schedule)
	if err != nil {
		// 非法表达式按每日适用处理，不让坏数据阻断统计
		return true
	}

	switch {
	case rule.daily:
		return true
	case rule.weekdays != nil:
		return rule.weekdays[day.Weekday()]
	case rule.lunarDays != nil:
		hijri := ToHijri(day, e.HijriOffset)
		return rule.lunarDays[hijri.Day]
	default:
		return true
	}
}
