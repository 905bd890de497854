package service

import (
	"log"

	"github.com/deenlog/internal/db"
)

// ScoreResult 汇总全局输赢记分
type ScoreResult struct {
	Wins    int
	Losses  int
	WinRate float64
}

// scoreKey 标识 (习惯, 日历日)，用于同日重复记录的去重
type scoreKey struct {
	habitID uint
	date    string
}

// Score 在整份快照上统计输赢。
// 跳过：引用不存在习惯的记录（输出诊断）、不计分习惯、豁免记录、
// 以及复合编码未完成的记录。同日重复时保留最近更新的一条。
// 分母为零时胜率取 0，绝不产生 NaN。
func (e Engine) Score(habits []db.Habit, logs []db.HabitLog) ScoreResult {
	habitByID := make(map[uint]db.Habit, len(habits))
	for _, habit := range habits {
		habitByID[habit.ID] = habit
	}

	latest := make(map[scoreKey]db.HabitLog)
	for _, entry := range logs {
		habit, ok := habitByID[entry.HabitID]
		if !ok {
			log.Printf("habit log references missing habit: habit=%d date=%s, skipping", entry.HabitID, entry.LogDate.Format(dateKeyFormat))
			continue
		}
		if !habit.ScoringEligible {
			continue
		}
		if entry.Status == db.LogStatusExcused {
			continue
		}
		if !IsComplete(habit, entry) {
			continue
		}

		key := scoreKey{habitID: habit.ID, date: normalizeToDate(entry.LogDate).Format(dateKeyFormat)}
		if existing, ok := latest[key]; ok {
			log.Printf("duplicate habit log detected: habit=%d date=%s, keeping latest", key.habitID, key.date)
			if !laterLog(entry, existing) {
				continue
			}
		}
		latest[key] = entry
	}

	var result ScoreResult
	for key, entry := range latest {
		if IsWin(habitByID[key.habitID], entry) {
			result.Wins++
		} else {
			result.Losses++
		}
	}

	total := result.Wins + result.Losses
	if total > 0 {
		result.WinRate = float64(result.Wins) / float64(total)
	}

	return result
}
