package service

import (
	"slices"
	"strings"

	"github.com/deenlog/internal/db"
)

// ObstacleEntry 表示一条失败原因的频次统计
type ObstacleEntry struct {
	Reason     string
	Count      int
	Percentage float64
}

const defaultObstacleLimit = 5

// Obstacles 对带原因的失败记录做频次排名。
// typeTag 非空时只统计该分类下的习惯。百分比的分母是"带原因的失败记录数"，
// 不是全部失败数——填写原因是可选项。并列名次按首次出现顺序稳定排序。
func (e Engine) Obstacles(habits []db.Habit, logs []db.HabitLog, typeTag string, limit int) []ObstacleEntry {
	if limit <= 0 {
		limit = defaultObstacleLimit
	}

	habitByID := make(map[uint]db.Habit, len(habits))
	for _, habit := range habits {
		habitByID[habit.ID] = habit
	}

	// 按日期、ID 排序保证首次出现顺序确定
	sorted := make([]db.HabitLog, len(logs))
	copy(sorted, logs)
	slices.SortFunc(sorted, func(a, b db.HabitLog) int {
		if diff := a.LogDate.Compare(b.LogDate); diff != 0 {
			return diff
		}
		return int(a.ID) - int(b.ID)
	})

	counts := make(map[string]int)
	firstSeen := make(map[string]int)
	order := 0
	total := 0

	for _, entry := range sorted {
		habit, ok := habitByID[entry.HabitID]
		if !ok {
			continue
		}
		if typeTag != "" && habit.TypeTag != typeTag {
			continue
		}
		if !IsLoss(habit, entry) {
			continue
		}
		reason := strings.TrimSpace(entry.Reason)
		if reason == "" {
			continue
		}

		if _, seen := counts[reason]; !seen {
			firstSeen[reason] = order
			order++
		}
		counts[reason]++
		total++
	}

	if total == 0 {
		return []ObstacleEntry{}
	}

	entries := make([]ObstacleEntry, 0, len(counts))
	for reason, count := range counts {
		entries = append(entries, ObstacleEntry{
			Reason:     reason,
			Count:      count,
			Percentage: float64(count) / float64(total),
		})
	}

	slices.SortFunc(entries, func(a, b ObstacleEntry) int {
		if a.Count != b.Count {
			return b.Count - a.Count
		}
		return firstSeen[a.Reason] - firstSeen[b.Reason]
	})

	if len(entries) > limit {
		entries = entries[:limit]
	}
	return entries
}
