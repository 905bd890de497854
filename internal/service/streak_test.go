package service

import (
	"testing"
	"time"

	"github.com/deenlog/internal/db"
	"gorm.io/gorm"
)

func day(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 0, 0, 0, 0, time.Local)
}

func binaryHabit(id uint) db.Habit {
	return db.Habit{Model: gorm.Model{ID: id}, Kind: db.HabitKindBinary, ScoringEligible: true}
}

func statusLog(habitID uint, date time.Time, status db.LogStatus) db.HabitLog {
	return db.HabitLog{HabitID: habitID, LogDate: date, Status: status}
}

func TestStreakEmptyLogs(t *testing.T) {
	result := Engine{}.Streak(binaryHabit(1), nil, day(2024, 1, 10))
	if result.CurrentStreak != 0 || result.BestStreak != 0 {
		t.Fatalf("expected zero streaks for empty input, got %+v", result)
	}
}

func TestStreakExcusedBridge(t *testing.T) {
	habit := binaryHabit(1)
	today := day(2024, 1, 3)

	withBridge := []db.HabitLog{
		statusLog(1, day(2024, 1, 1), db.LogStatusDone),
		statusLog(1, day(2024, 1, 2), db.LogStatusExcused),
		statusLog(1, day(2024, 1, 3), db.LogStatusDone),
	}
	result := Engine{}.Streak(habit, withBridge, today)
	if result.CurrentStreak != 2 || result.BestStreak != 2 {
		t.Fatalf("expected bridged streak 2/2, got %+v", result)
	}

	// 去掉豁免日：隔一天重新起算
	withoutBridge := []db.HabitLog{
		statusLog(1, day(2024, 1, 1), db.LogStatusDone),
		statusLog(1, day(2024, 1, 3), db.LogStatusDone),
	}
	result = Engine{}.Streak(habit, withoutBridge, today)
	if result.CurrentStreak != 1 {
		t.Fatalf("expected restarted streak 1, got %+v", result)
	}
}

func TestStreakEndToEnd(t *testing.T) {
	habit := binaryHabit(1)

	logs := []db.HabitLog{
		statusLog(1, day(2024, 1, 1), db.LogStatusDone),
		statusLog(1, day(2024, 1, 2), db.LogStatusDone),
		statusLog(1, day(2024, 1, 3), db.LogStatusDone),
		statusLog(1, day(2024, 1, 4), db.LogStatusFail),
		statusLog(1, day(2024, 1, 5), db.LogStatusDone),
		statusLog(1, day(2024, 1, 6), db.LogStatusDone),
	}

	result := Engine{}.Streak(habit, logs, day(2024, 1, 6))
	if result.BestStreak != 3 {
		t.Fatalf("expected best streak 3, got %d", result.BestStreak)
	}
	if result.CurrentStreak != 2 {
		t.Fatalf("expected current streak 2, got %d", result.CurrentStreak)
	}
	if result.BestStreak < result.CurrentStreak {
		t.Fatal("best streak must never be below current streak")
	}
}

func TestStreakTodayUnlogged(t *testing.T) {
	habit := binaryHabit(1)
	logs := []db.HabitLog{
		statusLog(1, day(2024, 1, 4), db.LogStatusDone),
		statusLog(1, day(2024, 1, 5), db.LogStatusDone),
	}

	// 今天还没打卡：连胜挂在昨天，不清零
	result := Engine{}.Streak(habit, logs, day(2024, 1, 6))
	if result.CurrentStreak != 2 {
		t.Fatalf("expected streak to survive an unlogged today, got %+v", result)
	}

	// 隔了两天没有记录：当前连胜归零，最佳保留
	result = Engine{}.Streak(habit, logs, day(2024, 1, 8))
	if result.CurrentStreak != 0 || result.BestStreak != 2 {
		t.Fatalf("expected 0/2 after a stale gap, got %+v", result)
	}
}

func TestStreakWeeklyScheduleBridgesOffDays(t *testing.T) {
	habit := binaryHabit(1)
	habit.Schedule = "weekly:mon"

	logs := []db.HabitLog{
		statusLog(1, day(2024, 1, 8), db.LogStatusDone),  // 周一
		statusLog(1, day(2024, 1, 15), db.LogStatusDone), // 下周一
	}

	result := Engine{}.Streak(habit, logs, day(2024, 1, 15))
	if result.CurrentStreak != 2 || result.BestStreak != 2 {
		t.Fatalf("expected weekly habit to bridge off days, got %+v", result)
	}
}

func TestStreakIncompleteCompoundInvisible(t *testing.T) {
	habit := db.Habit{Model: gorm.Model{ID: 1}, Kind: db.HabitKindCounter, DailyTarget: 2, ScoringEligible: true}

	logs := []db.HabitLog{
		{HabitID: 1, LogDate: day(2024, 1, 5), Value: 11, Status: db.LogStatusDone},
		// 晚间未记录：对连胜而言当天等同没有记录
		{HabitID: 1, LogDate: day(2024, 1, 6), Value: 10, Status: db.LogStatusPending},
	}

	result := Engine{}.Streak(habit, logs, day(2024, 1, 6))
	if result.CurrentStreak != 1 || result.BestStreak != 1 {
		t.Fatalf("expected incomplete compound day to be invisible, got %+v", result)
	}
}

func TestStreakDuplicateLogsKeepLatest(t *testing.T) {
	habit := binaryHabit(1)
	early := db.HabitLog{Model: gorm.Model{ID: 1, UpdatedAt: day(2024, 1, 5).Add(8 * time.Hour)}, HabitID: 1, LogDate: day(2024, 1, 5), Status: db.LogStatusDone}
	late := db.HabitLog{Model: gorm.Model{ID: 2, UpdatedAt: day(2024, 1, 5).Add(20 * time.Hour)}, HabitID: 1, LogDate: day(2024, 1, 5), Status: db.LogStatusFail}

	result := Engine{}.Streak(habit, []db.HabitLog{early, late}, day(2024, 1, 5))
	if result.CurrentStreak != 0 || result.BestStreak != 0 {
		t.Fatalf("expected latest duplicate (a fail) to win, got %+v", result)
	}
}

func TestStreakIgnoresLogsBeforeStartDate(t *testing.T) {
	start := day(2024, 1, 5)
	habit := binaryHabit(1)
	habit.StartDate = &start

	logs := []db.HabitLog{
		statusLog(1, day(2024, 1, 3), db.LogStatusDone),
		statusLog(1, day(2024, 1, 5), db.LogStatusDone),
		statusLog(1, day(2024, 1, 6), db.LogStatusDone),
	}

	result := Engine{}.Streak(habit, logs, day(2024, 1, 6))
	if result.CurrentStreak != 2 || result.BestStreak != 2 {
		t.Fatalf("expected pre-start log to be ignored, got %+v", result)
	}
}

func prayerHabits() []db.Habit {
	habits := make([]db.Habit, 0, 5)
	for i := uint(1); i <= 5; i++ {
		habits = append(habits, db.Habit{
			Model:           gorm.Model{ID: i},
			Kind:            db.HabitKindGraded,
			TypeTag:         db.TypeTagPrayer,
			ScoringEligible: true,
		})
	}
	return habits
}

func prayerDay(logs []db.HabitLog, date time.Time, value int, status db.LogStatus) []db.HabitLog {
	for i := uint(1); i <= 5; i++ {
		logs = append(logs, db.HabitLog{HabitID: i, LogDate: date, Value: value, Status: status})
	}
	return logs
}

func TestGroupStreakFullExcusalBridges(t *testing.T) {
	habits := prayerHabits()

	var logs []db.HabitLog
	logs = prayerDay(logs, day(2024, 2, 9), QualityTakbirah, db.LogStatusDone)
	logs = prayerDay(logs, day(2024, 2, 10), 0, db.LogStatusExcused)
	logs = prayerDay(logs, day(2024, 2, 11), QualityTakbirah, db.LogStatusDone)

	result := Engine{}.GroupStreak(habits, logs, day(2024, 2, 11))
	if result.CurrentStreak != 2 || result.BestStreak != 2 {
		t.Fatalf("expected full excusal to bridge to 2, got %+v", result)
	}
}

func TestGroupStreakPartialExcusalBreaks(t *testing.T) {
	habits := prayerHabits()

	var logs []db.HabitLog
	logs = prayerDay(logs, day(2024, 2, 9), QualityTakbirah, db.LogStatusDone)
	// 2 月 10 日只有三个成员豁免，其余两个正常赢：按普通非赢日处理
	for i := uint(1); i <= 3; i++ {
		logs = append(logs, db.HabitLog{HabitID: i, LogDate: day(2024, 2, 10), Status: db.LogStatusExcused})
	}
	for i := uint(4); i <= 5; i++ {
		logs = append(logs, db.HabitLog{HabitID: i, LogDate: day(2024, 2, 10), Value: QualityTakbirah, Status: db.LogStatusDone})
	}
	logs = prayerDay(logs, day(2024, 2, 11), QualityTakbirah, db.LogStatusDone)

	result := Engine{}.GroupStreak(habits, logs, day(2024, 2, 11))
	if result.CurrentStreak != 1 || result.BestStreak != 1 {
		t.Fatalf("expected partial excusal to break the streak, got %+v", result)
	}
}

func TestGroupStreakRequiresAllWins(t *testing.T) {
	habits := prayerHabits()

	var logs []db.HabitLog
	logs = prayerDay(logs, day(2024, 2, 9), QualityTakbirah, db.LogStatusDone)
	// 2 月 10 日有一位成员只赶上集体礼：当天不算联合赢
	for i := uint(1); i <= 4; i++ {
		logs = append(logs, db.HabitLog{HabitID: i, LogDate: day(2024, 2, 10), Value: QualityTakbirah, Status: db.LogStatusDone})
	}
	logs = append(logs, db.HabitLog{HabitID: 5, LogDate: day(2024, 2, 10), Value: QualityJamaa, Status: db.LogStatusFail})

	result := Engine{}.GroupStreak(habits, logs, day(2024, 2, 10))
	if result.BestStreak != 1 || result.CurrentStreak != 0 {
		t.Fatalf("expected one non-perfect member to break the day, got %+v", result)
	}
}

func TestGroupStreakEmptyMembers(t *testing.T) {
	result := Engine{}.GroupStreak(nil, nil, day(2024, 2, 11))
	if result.CurrentStreak != 0 || result.BestStreak != 0 {
		t.Fatalf("expected zero result for empty member set, got %+v", result)
	}
}
