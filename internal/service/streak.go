package service

import (
	"log"
	"math"
	"slices"
	"time"

	"github.com/deenlog/internal/db"
)

// StreakResult 汇总当前连胜与历史最佳连胜
type StreakResult struct {
	CurrentStreak int
	BestStreak    int
}

// dayOutcome 表示某个日历日归一化后的结果
type dayOutcome int

const (
	outcomeLoss dayOutcome = iota
	outcomeWin
	outcomeExcused
)

const dateKeyFormat = "2006-01-02"

// Streak 计算单个习惯的当前连胜与最佳连胜。
// 豁免日起桥接作用：不打断连胜也不延长；排程不适用的日子同样视为桥接。
// 当前连胜要求最后一次赢落在今天或昨天，或与今天之间全部为桥接日。
func (e Engine) Streak(habit db.Habit, logs []db.HabitLog, today time.Time) StreakResult {
	today = normalizeToDate(today)
	effective := effectiveLogs(habit, logs, today)

	outcomes := make(map[string]dayOutcome, len(effective))
	dates := make([]time.Time, 0, len(effective))
	for _, entry := range effective {
		day := normalizeToDate(entry.LogDate)
		dates = append(dates, day)
		switch {
		case entry.Status == db.LogStatusExcused:
			outcomes[day.Format(dateKeyFormat)] = outcomeExcused
		case IsWin(habit, entry):
			outcomes[day.Format(dateKeyFormat)] = outcomeWin
		default:
			outcomes[day.Format(dateKeyFormat)] = outcomeLoss
		}
	}

	bridged := func(day time.Time) bool {
		if outcome, ok := outcomes[day.Format(dateKeyFormat)]; ok {
			return outcome == outcomeExcused
		}
		return !e.IsApplicable(habit, day)
	}

	return walkOutcomes(dates, outcomes, bridged, today)
}

// GroupStreak 计算一组习惯（如五番礼拜）的联合连胜。
// 某日算赢要求每个成员当天都赢；只有全员豁免的日子才桥接，
// 部分豁免按普通输日处理，会打断连胜。
func (e Engine) GroupStreak(members []db.Habit, logs []db.HabitLog, today time.Time) StreakResult {
	if len(members) == 0 {
		return StreakResult{}
	}

	today = normalizeToDate(today)

	// 每个成员各自归一化出 日期 -> 结果
	perMember := make([]map[string]dayOutcome, len(members))
	dateSet := make(map[string]time.Time)
	for i, member := range members {
		perMember[i] = make(map[string]dayOutcome)
		for _, entry := range effectiveLogs(member, logs, today) {
			day := normalizeToDate(entry.LogDate)
			key := day.Format(dateKeyFormat)
			dateSet[key] = day
			switch {
			case entry.Status == db.LogStatusExcused:
				perMember[i][key] = outcomeExcused
			case IsWin(member, entry):
				perMember[i][key] = outcomeWin
			default:
				perMember[i][key] = outcomeLoss
			}
		}
	}

	outcomes := make(map[string]dayOutcome, len(dateSet))
	dates := make([]time.Time, 0, len(dateSet))
	for key, day := range dateSet {
		dates = append(dates, day)
		wins, excusals := 0, 0
		for i := range members {
			switch perMember[i][key] {
			case outcomeWin:
				wins++
			case outcomeExcused:
				excusals++
			}
		}
		switch {
		case wins == len(members):
			outcomes[key] = outcomeWin
		case excusals == len(members):
			outcomes[key] = outcomeExcused
		default:
			outcomes[key] = outcomeLoss
		}
	}

	bridged := func(day time.Time) bool {
		key := day.Format(dateKeyFormat)
		if outcome, ok := outcomes[key]; ok {
			return outcome == outcomeExcused
		}
		// 没有任何记录的日子：仅当对全员都不适用时桥接
		for _, member := range members {
			if e.IsApplicable(member, day) {
				return false
			}
		}
		return true
	}

	return walkOutcomes(dates, outcomes, bridged, today)
}

// walkOutcomes 按日期升序走一遍归一化结果，维护连胜计数。
// bridged 回答"这一天是否可以跨过去"，用于赢与赢之间以及结尾到今天的衔接。
func walkOutcomes(dates []time.Time, outcomes map[string]dayOutcome, bridged func(time.Time) bool, today time.Time) StreakResult {
	slices.SortFunc(dates, func(a, b time.Time) int {
		return a.Compare(b)
	})

	var run, best int
	var lastCounted time.Time

	for _, day := range dates {
		switch outcomes[day.Format(dateKeyFormat)] {
		case outcomeExcused:
			continue
		case outcomeWin:
			if lastCounted.IsZero() {
				run = 1
			} else if contiguous(lastCounted, day, bridged) {
				run++
			} else {
				run = 1
			}
			lastCounted = day
			if run > best {
				best = run
			}
		default:
			run = 0
			lastCounted = time.Time{}
		}
	}

	current := 0
	if run > 0 && !lastCounted.IsZero() && contiguous(lastCounted, today, bridged) {
		current = run
	}

	return StreakResult{CurrentStreak: current, BestStreak: best}
}

// contiguous 判断 from 到 to 之间（不含端点）是否全部可桥接。
// 相邻或同日直接算连续。
func contiguous(from, to time.Time, bridged func(time.Time) bool) bool {
	gap := daysBetween(from, to)
	if gap <= 1 {
		return true
	}
	for day := from.AddDate(0, 0, 1); day.Before(to); day = day.AddDate(0, 0, 1) {
		if !bridged(day) {
			return false
		}
	}
	return true
}

// effectiveLogs 过滤出参与统计的记录：只保留该习惯在 [StartDate, today]
// 区间内的终态记录，同日重复时取最近更新的一条并输出诊断日志。
func effectiveLogs(habit db.Habit, logs []db.HabitLog, today time.Time) []db.HabitLog {
	today = normalizeToDate(today)

	byDate := make(map[string]db.HabitLog)
	for _, entry := range logs {
		if entry.HabitID != habit.ID {
			continue
		}
		day := normalizeToDate(entry.LogDate)
		if day.After(today) {
			continue
		}
		if habit.StartDate != nil && day.Before(normalizeToDate(*habit.StartDate)) {
			continue
		}
		if !IsComplete(habit, entry) {
			continue
		}

		key := day.Format(dateKeyFormat)
		if existing, ok := byDate[key]; ok {
			log.Printf("duplicate habit log detected: habit=%d date=%s, keeping latest", habit.ID, key)
			if !laterLog(entry, existing) {
				continue
			}
		}
		byDate[key] = entry
	}

	result := make([]db.HabitLog, 0, len(byDate))
	for _, entry := range byDate {
		result = append(result, entry)
	}
	slices.SortFunc(result, func(a, b db.HabitLog) int {
		return a.LogDate.Compare(b.LogDate)
	})
	return result
}

// laterLog 判断 a 是否比 b 更新，用于重复记录的取舍。
func laterLog(a, b db.HabitLog) bool {
	if !a.UpdatedAt.Equal(b.UpdatedAt) {
		return a.UpdatedAt.After(b.UpdatedAt)
	}
	return a.ID > b.ID
}

// normalizeToDate 抹去时间部分，只保留日历日。
func normalizeToDate(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, t.Location())
}

// daysBetween 返回两个日历日之间的天数差（to - from）。
// 四舍五入吸收夏令时造成的 23/25 小时日。
func daysBetween(from, to time.Time) int {
	from = normalizeToDate(from)
	to = normalizeToDate(to)
	return int(math.Round(to.Sub(from).Hours() / 24))
}
