package handler

import (
	"errors"
	"net/http"
	"strconv"
	"strings"

	"github.com/deenlog/internal/service"
	"github.com/gin-gonic/gin"
)

func serializeStreak(streak service.StreakResult) gin.H {
	return gin.H{
		"current_streak": streak.CurrentStreak,
		"best_streak":    streak.BestStreak,
	}
}

func serializeScore(score service.ScoreResult) gin.H {
	return gin.H{
		"wins":     score.Wins,
		"losses":   score.Losses,
		"win_rate": score.WinRate,
	}
}

func serializeObstacles(entries []service.ObstacleEntry) []gin.H {
	items := make([]gin.H, 0, len(entries))
	for _, entry := range entries {
		items = append(items, gin.H{
			"reason":     entry.Reason,
			"count":      entry.Count,
			"percentage": entry.Percentage,
		})
	}
	return items
}

func serializeOverview(overview service.DashboardOverview) gin.H {
	habits := make([]gin.H, 0, len(overview.Habits))
	for _, entry := range overview.Habits {
		habits = append(habits, gin.H{
			"habit_id":         entry.HabitID,
			"name":             entry.Name,
			"type_tag":         entry.TypeTag,
			"scoring_eligible": entry.ScoringEligible,
			"streak":           serializeStreak(entry.Streak),
		})
	}
	return gin.H{
		"score":         serializeScore(overview.Score),
		"prayer_streak": serializeStreak(overview.PrayerStreak),
		"habits":        habits,
		"top_obstacles": serializeObstacles(overview.TopObstacles),
	}
}

// GetHabitStreak 返回单个习惯的连胜数据
func (a *API) GetHabitStreak(c *gin.Context) {
	habitID, err := parseUintParam(c, "id")
	if err != nil {
		respondError(c, http.StatusBadRequest, "无效的习惯 ID")
		return
	}

	today, ok := resolveToday(c)
	if !ok {
		return
	}

	streak, err := a.stats.HabitStreak(habitID, today)
	if err != nil {
		if errors.Is(err, service.ErrHabitNotFound) {
			respondError(c, http.StatusNotFound, "习惯不存在")
			return
		}
		respondError(c, http.StatusInternalServerError, "计算连胜失败")
		return
	}
	c.JSON(http.StatusOK, serializeStreak(streak))
}

// GetPrayerStreak 返回五番礼拜的联合连胜
func (a *API) GetPrayerStreak(c *gin.Context) {
	today, ok := resolveToday(c)
	if !ok {
		return
	}

	streak, err := a.stats.PrayerStreak(today)
	if err != nil {
		respondError(c, http.StatusInternalServerError, "计算连胜失败")
		return
	}
	c.JSON(http.StatusOK, serializeStreak(streak))
}

// GetGroupStreak 返回某个分类标签下的联合连胜
func (a *API) GetGroupStreak(c *gin.Context) {
	typeTag := strings.TrimSpace(c.Query("type_tag"))
	if typeTag == "" {
		respondError(c, http.StatusBadRequest, "缺少分类标签")
		return
	}

	today, ok := resolveToday(c)
	if !ok {
		return
	}

	streak, err := a.stats.GroupStreak(typeTag, today)
	if err != nil {
		respondError(c, http.StatusInternalServerError, "计算连胜失败")
		return
	}
	c.JSON(http.StatusOK, serializeStreak(streak))
}

// GetScoreboard 返回全局记分牌
func (a *API) GetScoreboard(c *gin.Context) {
	score, err := a.stats.Scoreboard()
	if err != nil {
		respondError(c, http.StatusInternalServerError, "统计得分失败")
		return
	}
	c.JSON(http.StatusOK, serializeScore(score))
}

// GetGrowth 返回习惯在指定粒度下的环比增量；
// 任一周期无数据时 delta 为 null，前端据此显示"暂无数据"而不是 0。
func (a *API) GetGrowth(c *gin.Context) {
	habitID, err := parseUintParam(c, "id")
	if err != nil {
		respondError(c, http.StatusBadRequest, "无效的习惯 ID")
		return
	}

	today, ok := resolveToday(c)
	if !ok {
		return
	}

	period := service.PeriodType(strings.TrimSpace(c.Query("period")))
	result, err := a.stats.Growth(habitID, period, today)
	if err != nil {
		switch {
		case errors.Is(err, service.ErrInvalidPeriod):
			respondError(c, http.StatusBadRequest, "无效的环比粒度")
		case errors.Is(err, service.ErrHabitNotFound):
			respondError(c, http.StatusNotFound, "习惯不存在")
		default:
			respondError(c, http.StatusInternalServerError, "计算环比失败")
		}
		return
	}

	if result.Delta == nil {
		c.JSON(http.StatusOK, gin.H{"period": period, "delta": nil})
		return
	}
	c.JSON(http.StatusOK, gin.H{"period": period, "delta": *result.Delta})
}

// GetObstacles 返回失败原因排名
func (a *API) GetObstacles(c *gin.Context) {
	limit := 0
	if raw := strings.TrimSpace(c.Query("limit")); raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err != nil || parsed < 0 {
			respondError(c, http.StatusBadRequest, "无效的数量上限")
			return
		}
		limit = parsed
	}

	entries, err := a.stats.Obstacles(c.Query("type_tag"), limit)
	if err != nil {
		respondError(c, http.StatusInternalServerError, "统计失败原因失败")
		return
	}
	c.JSON(http.StatusOK, gin.H{"obstacles": serializeObstacles(entries)})
}

// GetOverview 一次性返回面板所需的全部统计，附带当天的希吉来日期
func (a *API) GetOverview(c *gin.Context) {
	today, ok := resolveToday(c)
	if !ok {
		return
	}

	overview, err := a.stats.Overview(today)
	if err != nil {
		respondError(c, http.StatusInternalServerError, "获取总览失败")
		return
	}

	settings, err := a.system.GetSettings()
	if err != nil {
		respondError(c, http.StatusInternalServerError, "获取系统设置失败")
		return
	}

	hijri := service.ToHijri(today, settings.HijriOffset)
	payload := serializeOverview(overview)
	payload["hijri_date"] = gin.H{
		"year":  hijri.Year,
		"month": hijri.Month,
		"day":   hijri.Day,
	}
	c.JSON(http.StatusOK, payload)
}

// GetSharedOverview 是无需登录的只读总览入口。
// 口令不匹配时返回 404 而不是 403，避免暴露口令是否存在。
func (a *API) GetSharedOverview(c *gin.Context) {
	settings, err := a.system.GetSettings()
	if err != nil {
		respondError(c, http.StatusInternalServerError, "获取系统设置失败")
		return
	}

	token := c.Param("token")
	if settings.ShareToken == "" || token != settings.ShareToken {
		respondError(c, http.StatusNotFound, "页面不存在")
		return
	}

	today, ok := resolveToday(c)
	if !ok {
		return
	}

	overview, err := a.stats.Overview(today)
	if err != nil {
		respondError(c, http.StatusInternalServerError, "获取总览失败")
		return
	}
	c.JSON(http.StatusOK, serializeOverview(overview))
}
