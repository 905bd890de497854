package service

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/deenlog/internal/db"
	"github.com/microcosm-cc/bluemonday"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

var (
	// ErrLogInvalidStatus 当打卡状态不在支持范围内时返回
	ErrLogInvalidStatus = errors.New("invalid log status")
	// ErrLogInvalidValue 当数值与习惯类型不匹配时返回
	ErrLogInvalidValue = errors.New("invalid log value")
	// ErrLogInvalidPart 当复合编码时段不是 am/pm 时返回
	ErrLogInvalidPart = errors.New("invalid log part")
)

// 自由文本统一走严格策略，剥掉任何 HTML
var textSanitizer = bluemonday.StrictPolicy()

// HabitLogService 负责打卡与日志维护逻辑
type HabitLogService struct {
	db *gorm.DB
}

// HabitLogInput 定义打卡时的输入对象
type HabitLogInput struct {
	HabitID uint
	LogDate time.Time
	Value   int
	Status  db.LogStatus
	Reason  string
	Note    string
	Source  string
}

// HabitLogFilter 指定查询区间
type HabitLogFilter struct {
	HabitID uint
	Start   time.Time
	End     time.Time
}

// NewHabitLogService 构造 HabitLogService
func NewHabitLogService(gdb *gorm.DB) *HabitLogService {
	return &HabitLogService{db: gdb}
}

// Upsert 处理幂等打卡逻辑：同一习惯同一天已有记录则整体覆盖，否则创建。
// 撤销打卡走 Delete，不在这里处理。
func (s *HabitLogService) Upsert(input HabitLogInput) (*db.HabitLog, error) {
	habit, err := s.loadHabit(input.HabitID)
	if err != nil {
		return nil, err
	}

	if err := validateLogInput(*habit, &input); err != nil {
		return nil, err
	}

	record := db.HabitLog{
		HabitID: input.HabitID,
		LogDate: normalizeToDate(input.LogDate),
		Value:   input.Value,
		Status:  input.Status,
		Reason:  sanitizeText(input.Reason),
		Note:    sanitizeText(input.Note),
		Source:  strings.TrimSpace(input.Source),
	}

	if err := s.db.Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "habit_id"}, {Name: "log_date"}},
		DoUpdates: clause.AssignmentColumns([]string{"value", "status", "reason", "note", "source", "updated_at"}),
	}).Create(&record).Error; err != nil {
		return nil, fmt.Errorf("upsert habit log: %w", err)
	}

	if err := s.db.Where("habit_id = ? AND log_date = ?", record.HabitID, record.LogDate).First(&record).Error; err != nil {
		return nil, fmt.Errorf("reload habit log: %w", err)
	}

	return &record, nil
}

// UpsertPart 更新复合编码习惯某一天的单个时段（am/pm）。
// 整数编码只在这里和存储打交道：取出旧值、拆开、替换时段、再编码回去。
// 晚间时段落定后记录转为终态，状态按双段结果推导。
func (s *HabitLogService) UpsertPart(habitID uint, logDate time.Time, part string, state PartState) (*db.HabitLog, error) {
	habit, err := s.loadHabit(habitID)
	if err != nil {
		return nil, err
	}
	if !IsCompound(*habit) {
		return nil, fmt.Errorf("%w: habit %d has no am/pm encoding", ErrLogInvalidPart, habitID)
	}
	if state < PartPending || state > PartFail {
		return nil, fmt.Errorf("%w: state %d", ErrLogInvalidValue, state)
	}

	date := normalizeToDate(logDate)

	var am, pm PartState
	var existing db.HabitLog
	err = s.db.Where("habit_id = ? AND log_date = ?", habitID, date).First(&existing).Error
	switch {
	case err == nil:
		am, pm = DecodeCompound(existing.Value)
	case errors.Is(err, gorm.ErrRecordNotFound):
		// 当天首次记录
	default:
		return nil, fmt.Errorf("load habit log: %w", err)
	}

	switch strings.ToLower(strings.TrimSpace(part)) {
	case "am":
		am = state
	case "pm":
		pm = state
	default:
		return nil, fmt.Errorf("%w: %s", ErrLogInvalidPart, part)
	}

	status := db.LogStatusPending
	if pm != PartPending {
		if am == PartDone && pm == PartDone {
			status = db.LogStatusDone
		} else {
			status = db.LogStatusFail
		}
	}

	return s.Upsert(HabitLogInput{
		HabitID: habitID,
		LogDate: date,
		Value:   EncodeCompound(am, pm),
		Status:  status,
		Reason:  existing.Reason,
		Note:    existing.Note,
		Source:  existing.Source,
	})
}

// Delete 删除指定打卡记录（撤销）
func (s *HabitLogService) Delete(id uint) error {
	if err := s.db.Delete(&db.HabitLog{}, id).Error; err != nil {
		return fmt.Errorf("delete habit log: %w", err)
	}
	return nil
}

// ListBetween 返回指定区间内的打卡记录
func (s *HabitLogService) ListBetween(filter HabitLogFilter) ([]db.HabitLog, error) {
	var logs []db.HabitLog

	if filter.HabitID == 0 {
		return nil, fmt.Errorf("habit id is required")
	}

	start := normalizeToDate(filter.Start)
	end := normalizeToDate(filter.End)

	if err := s.db.Where("habit_id = ?", filter.HabitID).
		Where("log_date BETWEEN ? AND ?", start, end).
		Order("log_date ASC").
		Find(&logs).Error; err != nil {
		return nil, fmt.Errorf("list habit logs: %w", err)
	}

	return logs, nil
}

// Snapshot 返回全量习惯与日志，供纯计算引擎使用。
// 引擎只读快照，这里不做任何过滤。
func (s *HabitLogService) Snapshot() ([]db.Habit, []db.HabitLog, error) {
	var habits []db.Habit
	if err := s.db.Order("created_at ASC").Find(&habits).Error; err != nil {
		return nil, nil, fmt.Errorf("load habits: %w", err)
	}

	var logs []db.HabitLog
	if err := s.db.Order("log_date ASC, id ASC").Find(&logs).Error; err != nil {
		return nil, nil, fmt.Errorf("load habit logs: %w", err)
	}

	return habits, logs, nil
}

func (s *HabitLogService) loadHabit(id uint) (*db.Habit, error) {
	var habit db.Habit
	if err := s.db.First(&habit, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrHabitNotFound
		}
		return nil, fmt.Errorf("load habit: %w", err)
	}
	return &habit, nil
}

func validateLogInput(habit db.Habit, input *HabitLogInput) error {
	switch input.Status {
	case db.LogStatusDone, db.LogStatusFail, db.LogStatusExcused:
	case db.LogStatusPending:
		if !IsCompound(habit) {
			return fmt.Errorf("%w: pending is reserved for am/pm habits", ErrLogInvalidStatus)
		}
	default:
		return fmt.Errorf("%w: %s", ErrLogInvalidStatus, input.Status)
	}

	switch habit.Kind {
	case db.HabitKindGraded:
		if input.Value < QualityMissed || input.Value > QualityTakbirah {
			return fmt.Errorf("%w: quality %d out of range", ErrLogInvalidValue, input.Value)
		}
	case db.HabitKindCounter:
		if IsCompound(habit) {
			am, pm := DecodeCompound(input.Value)
			if EncodeCompound(am, pm) != input.Value {
				return fmt.Errorf("%w: %d is not a valid am/pm code", ErrLogInvalidValue, input.Value)
			}
		} else if input.Value < 0 {
			return fmt.Errorf("%w: negative count", ErrLogInvalidValue)
		}
	}

	return nil
}

func sanitizeText(text string) string {
	return strings.TrimSpace(textSanitizer.Sanitize(text))
}
