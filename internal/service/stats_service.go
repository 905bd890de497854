package service

import (
	"errors"
	"fmt"
	"time"

	"github.com/deenlog/internal/db"
	"gorm.io/gorm"
)

// ErrInvalidPeriod 表示环比粒度不在支持范围内
var ErrInvalidPeriod = errors.New("invalid growth period")

// StatsService 是持久层与纯计算引擎的唯一交汇点：
// 读取一份不可变快照，交给 Engine 计算，自己不做任何统计逻辑。
type StatsService struct {
	db       *gorm.DB
	logs     *HabitLogService
	settings *SystemSettingService
}

// HabitStreakEntry 是总览里单个习惯的连胜条目
type HabitStreakEntry struct {
	HabitID         uint
	Name            string
	TypeTag         string
	ScoringEligible bool
	Streak          StreakResult
}

// DashboardOverview 聚合面板需要的所有数字
type DashboardOverview struct {
	Score        ScoreResult
	PrayerStreak StreakResult
	Habits       []HabitStreakEntry
	TopObstacles []ObstacleEntry
}

// NewStatsService 构造 StatsService
func NewStatsService(gdb *gorm.DB) *StatsService {
	return &StatsService{
		db:       gdb,
		logs:     NewHabitLogService(gdb),
		settings: NewSystemSettingService(gdb),
	}
}

// engine 按当前设置构造计算引擎。
func (s *StatsService) engine() (Engine, error) {
	settings, err := s.settings.GetSettings()
	if err != nil {
		return Engine{}, err
	}
	return Engine{HijriOffset: settings.HijriOffset}, nil
}

// HabitStreak 计算单个习惯的连胜。
func (s *StatsService) HabitStreak(habitID uint, today time.Time) (StreakResult, error) {
	engine, err := s.engine()
	if err != nil {
		return StreakResult{}, err
	}

	habits, logs, err := s.logs.Snapshot()
	if err != nil {
		return StreakResult{}, err
	}

	for _, habit := range habits {
		if habit.ID == habitID {
			return engine.Streak(habit, logs, today), nil
		}
	}
	return StreakResult{}, ErrHabitNotFound
}

// PrayerStreak 计算五番礼拜的联合连胜。
func (s *StatsService) PrayerStreak(today time.Time) (StreakResult, error) {
	return s.GroupStreak(db.TypeTagPrayer, today)
}

// GroupStreak 计算某个分类标签下全部习惯的联合连胜。
func (s *StatsService) GroupStreak(typeTag string, today time.Time) (StreakResult, error) {
	engine, err := s.engine()
	if err != nil {
		return StreakResult{}, err
	}

	habits, logs, err := s.logs.Snapshot()
	if err != nil {
		return StreakResult{}, err
	}

	// 不计分习惯不参与联合连胜，否则一个展示性习惯会卡住整组
	members := make([]db.Habit, 0, len(habits))
	for _, habit := range habits {
		if habit.TypeTag == typeTag && habit.ScoringEligible {
			members = append(members, habit)
		}
	}

	return engine.GroupStreak(members, logs, today), nil
}

// Scoreboard 统计全局输赢与胜率。
func (s *StatsService) Scoreboard() (ScoreResult, error) {
	engine, err := s.engine()
	if err != nil {
		return ScoreResult{}, err
	}

	habits, logs, err := s.logs.Snapshot()
	if err != nil {
		return ScoreResult{}, err
	}

	return engine.Score(habits, logs), nil
}

// Growth 计算某习惯在指定粒度下的环比增量。
func (s *StatsService) Growth(habitID uint, period PeriodType, today time.Time) (GrowthResult, error) {
	switch period {
	case PeriodWeek, PeriodMonth, PeriodQuarter, PeriodYear:
	default:
		return GrowthResult{}, fmt.Errorf("%w: %s", ErrInvalidPeriod, period)
	}

	engine, err := s.engine()
	if err != nil {
		return GrowthResult{}, err
	}

	habits, logs, err := s.logs.Snapshot()
	if err != nil {
		return GrowthResult{}, err
	}

	for _, habit := range habits {
		if habit.ID == habitID {
			return engine.Growth(habit, logs, period, today), nil
		}
	}
	return GrowthResult{}, ErrHabitNotFound
}

// Obstacles 返回指定分类下的失败原因排名。
func (s *StatsService) Obstacles(typeTag string, limit int) ([]ObstacleEntry, error) {
	engine, err := s.engine()
	if err != nil {
		return nil, err
	}

	habits, logs, err := s.logs.Snapshot()
	if err != nil {
		return nil, err
	}

	return engine.Obstacles(habits, logs, typeTag, limit), nil
}

// Overview 一次性产出面板所需的全部统计。
// 不计分习惯仍会出现在列表里（用于展示），但不进总分。
func (s *StatsService) Overview(today time.Time) (DashboardOverview, error) {
	engine, err := s.engine()
	if err != nil {
		return DashboardOverview{}, err
	}

	habits, logs, err := s.logs.Snapshot()
	if err != nil {
		return DashboardOverview{}, err
	}

	overview := DashboardOverview{
		Score:        engine.Score(habits, logs),
		TopObstacles: engine.Obstacles(habits, logs, "", 3),
	}

	var prayers []db.Habit
	for _, habit := range habits {
		if habit.TypeTag == db.TypeTagPrayer && habit.ScoringEligible {
			prayers = append(prayers, habit)
		}
		overview.Habits = append(overview.Habits, HabitStreakEntry{
			HabitID:         habit.ID,
			Name:            habit.Name,
			TypeTag:         habit.TypeTag,
			ScoringEligible: habit.ScoringEligible,
			Streak:          engine.Streak(habit, logs, today),
		})
	}
	overview.PrayerStreak = engine.GroupStreak(prayers, logs, today)

	return overview, nil
}
