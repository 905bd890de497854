package handler

import (
	"github.com/deenlog/internal/service"
	"gorm.io/gorm"
)

// API bundles shared dependencies for HTTP handlers.
type API struct {
	db          *gorm.DB
	habits      *service.HabitService
	habitLogs   *service.HabitLogService
	stats       *service.StatsService
	reflections *service.ReflectionService
	system      *service.SystemSettingService
}

// NewAPI constructs a handler set with shared services.
func NewAPI(gdb *gorm.DB) *API {
	return &API{
		db:          gdb,
		habits:      service.NewHabitService(gdb),
		habitLogs:   service.NewHabitLogService(gdb),
		stats:       service.NewStatsService(gdb),
		reflections: service.NewReflectionService(gdb),
		system:      service.NewSystemSettingService(gdb),
	}
}
