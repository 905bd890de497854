package service

import (
	"time"

	"github.com/deenlog/internal/db"
)

// PeriodType 表示环比的粒度
type PeriodType string

const (
	// PeriodWeek ISO 周（周一起始）
	PeriodWeek PeriodType = "week"
	// PeriodMonth 日历月
	PeriodMonth PeriodType = "month"
	// PeriodQuarter 日历季度
	PeriodQuarter PeriodType = "quarter"
	// PeriodYear 日历年
	PeriodYear PeriodType = "year"
)

// GrowthResult 表示环比增量。Delta 为 nil 代表"没有数据"，
// 必须与"增量为 0"区分开。
type GrowthResult struct {
	Delta *int
}

// Growth 比较当前周期与上一个同长周期内的赢卡数量差。
// 任一周期内没有任何记录（不论输赢）即判定为无数据。
func (e Engine) Growth(habit db.Habit, logs []db.HabitLog, period PeriodType, today time.Time) GrowthResult {
	today = normalizeToDate(today)
	currStart, currEnd, prevStart, prevEnd := periodBounds(period, today)

	// "有没有数据"按原始记录判断：复合编码的中间态也算一条记录，
	// 只是不参与赢卡计数
	var currLogs, prevLogs int
	for _, entry := range logs {
		if entry.HabitID != habit.ID {
			continue
		}
		day := normalizeToDate(entry.LogDate)
		switch {
		case !day.Before(currStart) && !day.After(currEnd):
			currLogs++
		case !day.Before(prevStart) && !day.After(prevEnd):
			prevLogs++
		}
	}
	if currLogs == 0 || prevLogs == 0 {
		return GrowthResult{}
	}

	var currWins, prevWins int
	for _, entry := range effectiveLogs(habit, logs, today) {
		day := normalizeToDate(entry.LogDate)
		switch {
		case !day.Before(currStart) && !day.After(currEnd):
			if IsWin(habit, entry) {
				currWins++
			}
		case !day.Before(prevStart) && !day.After(prevEnd):
			if IsWin(habit, entry) {
				prevWins++
			}
		}
	}

	delta := currWins - prevWins
	return GrowthResult{Delta: &delta}
}

// periodBounds 返回锚定在 today 的当前周期与上一周期的闭区间边界。
func periodBounds(period PeriodType, today time.Time) (currStart, currEnd, prevStart, prevEnd time.Time) {
	switch period {
	case PeriodWeek:
		weekday := int(today.Weekday())
		if weekday == 0 {
			weekday = 7
		}
		currStart = today.AddDate(0, 0, -(weekday - 1))
		currEnd = currStart.AddDate(0, 0, 6)
		prevStart = currStart.AddDate(0, 0, -7)
		prevEnd = currStart.AddDate(0, 0, -1)
	case PeriodQuarter:
		quarterMonth := time.Month((int(today.Month())-1)/3*3 + 1)
		currStart = time.Date(today.Year(), quarterMonth, 1, 0, 0, 0, 0, today.Location())
		currEnd = currStart.AddDate(0, 3, -1)
		prevStart = currStart.AddDate(0, -3, 0)
		prevEnd = currStart.AddDate(0, 0, -1)
	case PeriodYear:
		currStart = time.Date(today.Year(), time.January, 1, 0, 0, 0, 0, today.Location())
		currEnd = time.Date(today.Year(), time.December, 31, 0, 0, 0, 0, today.Location())
		prevStart = currStart.AddDate(-1, 0, 0)
		prevEnd = currStart.AddDate(0, 0, -1)
	default: // month
		currStart = time.Date(today.Year(), today.Month(), 1, 0, 0, 0, 0, today.Location())
		currEnd = currStart.AddDate(0, 1, -1)
		prevStart = currStart.AddDate(0, -1, 0)
		prevEnd = currStart.AddDate(0, 0, -1)
	}
	return currStart, currEnd, prevStart, prevEnd
}
