package router

import (
	"net/http"

	"github.com/deenlog/internal/config"
	"github.com/deenlog/internal/db"
	"github.com/deenlog/internal/handler"
	"github.com/gin-contrib/sessions"
	"github.com/gin-contrib/sessions/cookie"
	"github.com/gin-gonic/gin"
)

// SetupRouter 装配全部路由：
// 公开部分只有健康检查与分享只读总览，其余都在登录态之后。
func SetupRouter(cfg config.AppConfig) *gin.Engine {
	r := gin.Default()

	store := cookie.NewStore([]byte(cfg.SessionSecret))
	r.Use(sessions.Sessions("deenlog_session", store))

	api := handler.NewAPI(db.DB)

	r.GET("/ping", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"message": "pong"})
	})

	// 分享链接：口令即凭证，无需登录
	r.GET("/share/:token/overview", api.GetSharedOverview)

	admin := r.Group("/admin")
	{
		admin.POST("/login", handler.Login)
		admin.GET("/logout", handler.Logout)

		authorized := admin.Group("/api")
		authorized.Use(handler.AuthRequired())
		{
			authorized.GET("/habits", api.ListHabits)
			authorized.POST("/habits", api.CreateHabit)
			authorized.GET("/habits/:id", api.GetHabit)
			authorized.PUT("/habits/:id", api.UpdateHabit)
			authorized.DELETE("/habits/:id", api.DeleteHabit)

			authorized.GET("/habits/:id/logs", api.ListHabitLogs)
			authorized.POST("/habits/:id/logs", api.UpsertHabitLog)
			authorized.POST("/habits/:id/logs/part", api.UpsertHabitLogPart)
			authorized.DELETE("/habits/:id/logs/:logId", api.DeleteHabitLog)

			authorized.GET("/stats/overview", api.GetOverview)
			authorized.GET("/stats/scoreboard", api.GetScoreboard)
			authorized.GET("/stats/prayer-streak", api.GetPrayerStreak)
			authorized.GET("/stats/group-streak", api.GetGroupStreak)
			authorized.GET("/stats/obstacles", api.GetObstacles)
			authorized.GET("/stats/habits/:id/streak", api.GetHabitStreak)
			authorized.GET("/stats/habits/:id/growth", api.GetGrowth)

			authorized.GET("/reflections", api.ListReflections)
			authorized.GET("/reflections/:date", api.GetReflection)
			authorized.PUT("/reflections/:date", api.UpsertReflection)
			authorized.DELETE("/reflections/:date", api.DeleteReflection)

			authorized.GET("/settings", api.GetSettings)
			authorized.PUT("/settings", api.UpdateSettings)
			authorized.POST("/settings/share-token/rotate", api.RotateShareToken)
		}
	}

	return r
}
