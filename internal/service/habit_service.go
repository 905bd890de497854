package service

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/deenlog/internal/db"
	"gorm.io/gorm"
)

var (
	// ErrHabitNotFound 在指定习惯不存在时返回
	ErrHabitNotFound = errors.New("habit not found")
	// ErrHabitInvalidKind 当判定类型不是 binary/counter/graded 时返回
	ErrHabitInvalidKind = errors.New("invalid habit kind")
	// ErrHabitInvalidTarget 当 counter 习惯的每日目标非法时返回
	ErrHabitInvalidTarget = errors.New("invalid habit daily target")
	// ErrHabitInvalidSchedule 当适用日表达式非法时返回
	ErrHabitInvalidSchedule = errors.New("invalid habit schedule")
)

// HabitService 负责 Habit 数据的增删改查
// 主要用于后台管理逻辑，保持与 handler 解耦
// Kind 支持 binary/counter/graded；counter 需要 DailyTarget>=1，
// DailyTarget==2 时启用早/晚复合编码

type HabitService struct {
	db *gorm.DB
}

// HabitFilter 描述后台列表过滤条件
type HabitFilter struct {
	Kind    string
	TypeTag string
	Search  string
}

// HabitInput 定义创建/更新习惯时可配置字段
type HabitInput struct {
	Name            string
	Description     string
	Kind            string
	DailyTarget     int
	ScoringEligible bool
	TypeTag         string
	Schedule        string
	StartDate       *time.Time
}

// NewHabitService 构造 HabitService
func NewHabitService(gdb *gorm.DB) *HabitService {
	return &HabitService{db: gdb}
}

// List 返回习惯集合，支持基本筛选
func (s *HabitService) List(filter HabitFilter) ([]db.Habit, error) {
	var habits []db.Habit

	query := s.db.Model(&db.Habit{})

	if filter.Kind != "" {
		query = query.Where("kind = ?", filter.Kind)
	}
	if filter.TypeTag != "" {
		query = query.Where("type_tag = ?", filter.TypeTag)
	}
	if filter.Search != "" {
		like := fmt.Sprintf("%%%s%%", strings.TrimSpace(filter.Search))
		query = query.Where("name LIKE ? OR description LIKE ?", like, like)
	}

	if err := query.Order("created_at DESC").Find(&habits).Error; err != nil {
		return nil, fmt.Errorf("list habits: %w", err)
	}

	return habits, nil
}

// Get 根据 ID 获取习惯
func (s *HabitService) Get(id uint) (*db.Habit, error) {
	var habit db.Habit
	if err := s.db.First(&habit, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrHabitNotFound
		}
		return nil, fmt.Errorf("get habit: %w", err)
	}
	return &habit, nil
}

// Create 新建习惯
func (s *HabitService) Create(input HabitInput) (*db.Habit, error) {
	if err := validateHabitInput(&input); err != nil {
		return nil, err
	}

	habit := db.Habit{
		Name:            strings.TrimSpace(input.Name),
		Description:     strings.TrimSpace(input.Description),
		Kind:            db.HabitKind(strings.TrimSpace(strings.ToLower(input.Kind))),
		DailyTarget:     input.DailyTarget,
		ScoringEligible: input.ScoringEligible,
		TypeTag:         strings.TrimSpace(input.TypeTag),
		Schedule:        strings.TrimSpace(strings.ToLower(input.Schedule)),
		StartDate:       input.StartDate,
	}

	if err := s.db.Create(&habit).Error; err != nil {
		return nil, fmt.Errorf("create habit: %w", err)
	}
	return &habit, nil
}

// Update 更新习惯
func (s *HabitService) Update(id uint, input HabitInput) (*db.Habit, error) {
	if err := validateHabitInput(&input); err != nil {
		return nil, err
	}

	var existing db.Habit
	if err := s.db.First(&existing, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrHabitNotFound
		}
		return nil, fmt.Errorf("find habit: %w", err)
	}

	existing.Name = strings.TrimSpace(input.Name)
	existing.Description = strings.TrimSpace(input.Description)
	existing.Kind = db.HabitKind(strings.TrimSpace(strings.ToLower(input.Kind)))
	existing.DailyTarget = input.DailyTarget
	existing.ScoringEligible = input.ScoringEligible
	existing.TypeTag = strings.TrimSpace(input.TypeTag)
	existing.Schedule = strings.TrimSpace(strings.ToLower(input.Schedule))
	existing.StartDate = input.StartDate

	if err := s.db.Save(&existing).Error; err != nil {
		return nil, fmt.Errorf("update habit: %w", err)
	}
	return &existing, nil
}

// Delete 删除习惯及其日志（外键级联）
func (s *HabitService) Delete(id uint) error {
	if err := s.db.Delete(&db.Habit{}, id).Error; err != nil {
		return fmt.Errorf("delete habit: %w", err)
	}
	return nil
}

func validateHabitInput(input *HabitInput) error {
	if strings.TrimSpace(input.Name) == "" {
		return fmt.Errorf("habit name is required")
	}

	kind := db.HabitKind(strings.TrimSpace(strings.ToLower(input.Kind)))
	switch kind {
	case db.HabitKindBinary, db.HabitKindGraded:
		// 每日目标只对 counter 有意义
		input.DailyTarget = 0
	case db.HabitKindCounter:
		if input.DailyTarget < 1 {
			return fmt.Errorf("%w: counter habit needs a positive daily target", ErrHabitInvalidTarget)
		}
	default:
		return fmt.Errorf("%w: %s", ErrHabitInvalidKind, input.Kind)
	}

	if err := ParseSchedule(input.Schedule); err != nil {
		return fmt.Errorf("%w: %v", ErrHabitInvalidSchedule, err)
	}

	return nil
}
