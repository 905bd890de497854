package service

import (
	"testing"

	"github.com/deenlog/internal/db"
	"gorm.io/gorm"
)

func reasonLog(habitID uint, id uint, dayOffset int, reason string) db.HabitLog {
	return db.HabitLog{
		Model:   gorm.Model{ID: id},
		HabitID: habitID,
		LogDate: day(2024, 6, 1).AddDate(0, 0, dayOffset),
		Status:  db.LogStatusFail,
		Reason:  reason,
	}
}

func TestObstaclesRanking(t *testing.T) {
	habits := []db.Habit{binaryHabit(1)}

	logs := []db.HabitLog{
		reasonLog(1, 1, 0, "太累"),
		reasonLog(1, 2, 1, "熬夜"),
		reasonLog(1, 3, 2, "太累"),
		reasonLog(1, 4, 3, "出差"),
		reasonLog(1, 5, 4, "太累"),
		reasonLog(1, 6, 5, "熬夜"),
		// 没写原因的失败不进分母
		reasonLog(1, 7, 6, ""),
		// 赢卡与豁免不参与
		statusLog(1, day(2024, 6, 8), db.LogStatusDone),
		statusLog(1, day(2024, 6, 9), db.LogStatusExcused),
	}

	entries := Engine{}.Obstacles(habits, logs, "", 3)
	if len(entries) != 3 {
		t.Fatalf("expected 3 entries, got %d", len(entries))
	}

	if entries[0].Reason != "太累" || entries[0].Count != 3 {
		t.Fatalf("unexpected top obstacle: %+v", entries[0])
	}
	if entries[1].Reason != "熬夜" || entries[1].Count != 2 {
		t.Fatalf("unexpected second obstacle: %+v", entries[1])
	}
	if entries[2].Reason != "出差" || entries[2].Count != 1 {
		t.Fatalf("unexpected third obstacle: %+v", entries[2])
	}

	// 分母是带原因的失败数（6），不是全部失败数（7）
	if entries[0].Percentage != 0.5 {
		t.Fatalf("expected percentage 0.5, got %f", entries[0].Percentage)
	}
}

func TestObstaclesTieBreakIsFirstSeen(t *testing.T) {
	habits := []db.Habit{binaryHabit(1)}
	logs := []db.HabitLog{
		reasonLog(1, 1, 0, "晚起"),
		reasonLog(1, 2, 1, "加班"),
		reasonLog(1, 3, 2, "加班"),
		reasonLog(1, 4, 3, "晚起"),
	}

	entries := Engine{}.Obstacles(habits, logs, "", 5)
	if len(entries) != 2 {
		t.Fatalf("expected 2 entries, got %d", len(entries))
	}
	if entries[0].Reason != "晚起" || entries[1].Reason != "加班" {
		t.Fatalf("expected first-seen order on ties, got %+v", entries)
	}
}

func TestObstaclesSegmentsByTypeTag(t *testing.T) {
	prayer := binaryHabit(1)
	prayer.TypeTag = db.TypeTagPrayer
	reading := binaryHabit(2)
	reading.TypeTag = "quran"

	logs := []db.HabitLog{
		reasonLog(1, 1, 0, "晚起"),
		reasonLog(2, 2, 0, "没时间"),
	}

	entries := Engine{}.Obstacles([]db.Habit{prayer, reading}, logs, db.TypeTagPrayer, 5)
	if len(entries) != 1 || entries[0].Reason != "晚起" {
		t.Fatalf("expected prayer segment only, got %+v", entries)
	}
	if entries[0].Percentage != 1 {
		t.Fatalf("expected segment-local percentage 1, got %f", entries[0].Percentage)
	}
}

func TestObstaclesTrimsReasons(t *testing.T) {
	habits := []db.Habit{binaryHabit(1)}
	logs := []db.HabitLog{
		reasonLog(1, 1, 0, "  太累  "),
		reasonLog(1, 2, 1, "太累"),
	}

	entries := Engine{}.Obstacles(habits, logs, "", 5)
	if len(entries) != 1 || entries[0].Count != 2 {
		t.Fatalf("expected trimmed reasons to merge, got %+v", entries)
	}
}

func TestObstaclesEmpty(t *testing.T) {
	entries := Engine{}.Obstacles(nil, nil, "", 3)
	if len(entries) != 0 {
		t.Fatalf("expected empty result, got %+v", entries)
	}
}
