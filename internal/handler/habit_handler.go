package handler

import (
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/deenlog/internal/db"
	"github.com/deenlog/internal/service"
	"github.com/gin-gonic/gin"
)

type habitPayload struct {
	Name            string `json:"name"`
	Description     string `json:"description"`
	Kind            string `json:"kind"`
	DailyTarget     int    `json:"daily_target"`
	ScoringEligible *bool  `json:"scoring_eligible"`
	TypeTag         string `json:"type_tag"`
	Schedule        string `json:"schedule"`
	StartDate       string `json:"start_date"`
}

type habitLogPayload struct {
	LogDate string `json:"log_date"`
	Value   int    `json:"value"`
	Status  string `json:"status"`
	Reason  string `json:"reason"`
	Note    string `json:"note"`
	Source  string `json:"source"`
}

type habitLogPartPayload struct {
	LogDate string `json:"log_date"`
	Part    string `json:"part"`
	State   int    `json:"state"`
}

func (p habitPayload) toInput() (service.HabitInput, bool) {
	startDate, ok := parseOptionalDate(p.StartDate)
	if !ok {
		return service.HabitInput{}, false
	}

	scoring := true
	if p.ScoringEligible != nil {
		scoring = *p.ScoringEligible
	}

	return service.HabitInput{
		Name:            p.Name,
		Description:     p.Description,
		Kind:            p.Kind,
		DailyTarget:     p.DailyTarget,
		ScoringEligible: scoring,
		TypeTag:         p.TypeTag,
		Schedule:        p.Schedule,
		StartDate:       startDate,
	}, true
}

func serializeHabit(habit *db.Habit) gin.H {
	var startDate string
	if habit.StartDate != nil {
		startDate = habit.StartDate.Format(dateFormat)
	}
	return gin.H{
		"id":               habit.ID,
		"name":             habit.Name,
		"description":      habit.Description,
		"kind":             habit.Kind,
		"daily_target":     habit.DailyTarget,
		"scoring_eligible": habit.ScoringEligible,
		"type_tag":         habit.TypeTag,
		"schedule":         habit.Schedule,
		"start_date":       startDate,
	}
}

func serializeHabitLog(log *db.HabitLog) gin.H {
	return gin.H{
		"id":       log.ID,
		"habit_id": log.HabitID,
		"log_date": log.LogDate.Format(dateFormat),
		"value":    log.Value,
		"status":   log.Status,
		"reason":   log.Reason,
		"note":     log.Note,
		"source":   log.Source,
	}
}

func habitErrorStatus(err error) int {
	switch {
	case errors.Is(err, service.ErrHabitNotFound):
		return http.StatusNotFound
	case errors.Is(err, service.ErrHabitInvalidKind),
		errors.Is(err, service.ErrHabitInvalidTarget),
		errors.Is(err, service.ErrHabitInvalidSchedule):
		return http.StatusBadRequest
	default:
		return http.StatusInternalServerError
	}
}

// ListHabits 返回习惯列表，支持 kind/type_tag/search 过滤
func (a *API) ListHabits(c *gin.Context) {
	filter := service.HabitFilter{
		Kind:    c.Query("kind"),
		TypeTag: c.Query("type_tag"),
		Search:  c.Query("search"),
	}

	habits, err := a.habits.List(filter)
	if err != nil {
		respondError(c, http.StatusInternalServerError, "获取习惯列表失败")
		return
	}

	items := make([]gin.H, 0, len(habits))
	for i := range habits {
		items = append(items, serializeHabit(&habits[i]))
	}
	c.JSON(http.StatusOK, gin.H{"habits": items})
}

// GetHabit 返回单个习惯
func (a *API) GetHabit(c *gin.Context) {
	id, err := parseUintParam(c, "id")
	if err != nil {
		respondError(c, http.StatusBadRequest, "无效的习惯 ID")
		return
	}

	habit, err := a.habits.Get(id)
	if err != nil {
		respondError(c, habitErrorStatus(err), "习惯不存在")
		return
	}
	c.JSON(http.StatusOK, serializeHabit(habit))
}

// CreateHabit 新建习惯
func (a *API) CreateHabit(c *gin.Context) {
	var payload habitPayload
	if !bindJSON(c, &payload, "请求参数不合法") {
		return
	}

	input, ok := payload.toInput()
	if !ok {
		respondError(c, http.StatusBadRequest, "无效的开始日期")
		return
	}

	habit, err := a.habits.Create(input)
	if err != nil {
		respondError(c, habitErrorStatus(err), err.Error())
		return
	}
	c.JSON(http.StatusCreated, serializeHabit(habit))
}

// UpdateHabit 更新习惯
func (a *API) UpdateHabit(c *gin.Context) {
	id, err := parseUintParam(c, "id")
	if err != nil {
		respondError(c, http.StatusBadRequest, "无效的习惯 ID")
		return
	}

	var payload habitPayload
	if !bindJSON(c, &payload, "请求参数不合法") {
		return
	}

	input, ok := payload.toInput()
	if !ok {
		respondError(c, http.StatusBadRequest, "无效的开始日期")
		return
	}

	habit, err := a.habits.Update(id, input)
	if err != nil {
		respondError(c, habitErrorStatus(err), err.Error())
		return
	}
	c.JSON(http.StatusOK, serializeHabit(habit))
}

// DeleteHabit 删除习惯及其全部记录
func (a *API) DeleteHabit(c *gin.Context) {
	id, err := parseUintParam(c, "id")
	if err != nil {
		respondError(c, http.StatusBadRequest, "无效的习惯 ID")
		return
	}

	if err := a.habits.Delete(id); err != nil {
		respondError(c, habitErrorStatus(err), "删除习惯失败")
		return
	}
	c.JSON(http.StatusOK, gin.H{"deleted": true})
}

// UpsertHabitLog 幂等打卡：同一天重复提交覆盖原记录
func (a *API) UpsertHabitLog(c *gin.Context) {
	habitID, err := parseUintParam(c, "id")
	if err != nil {
		respondError(c, http.StatusBadRequest, "无效的习惯 ID")
		return
	}

	var payload habitLogPayload
	if !bindJSON(c, &payload, "请求参数不合法") {
		return
	}

	logDate, err := time.ParseInLocation(dateFormat, strings.TrimSpace(payload.LogDate), time.Local)
	if err != nil {
		respondError(c, http.StatusBadRequest, "无效的打卡日期")
		return
	}

	record, err := a.habitLogs.Upsert(service.HabitLogInput{
		HabitID: habitID,
		LogDate: logDate,
		Value:   payload.Value,
		Status:  db.LogStatus(payload.Status),
		Reason:  payload.Reason,
		Note:    payload.Note,
		Source:  payload.Source,
	})
	if err != nil {
		respondError(c, logErrorStatus(err), err.Error())
		return
	}
	c.JSON(http.StatusOK, serializeHabitLog(record))
}

// UpsertHabitLogPart 只更新复合编码记录的早/晚一段
func (a *API) UpsertHabitLogPart(c *gin.Context) {
	habitID, err := parseUintParam(c, "id")
	if err != nil {
		respondError(c, http.StatusBadRequest, "无效的习惯 ID")
		return
	}

	var payload habitLogPartPayload
	if !bindJSON(c, &payload, "请求参数不合法") {
		return
	}

	logDate, err := time.ParseInLocation(dateFormat, strings.TrimSpace(payload.LogDate), time.Local)
	if err != nil {
		respondError(c, http.StatusBadRequest, "无效的打卡日期")
		return
	}

	record, err := a.habitLogs.UpsertPart(habitID, logDate, payload.Part, service.PartState(payload.State))
	if err != nil {
		respondError(c, logErrorStatus(err), err.Error())
		return
	}
	c.JSON(http.StatusOK, serializeHabitLog(record))
}

// ListHabitLogs 返回某习惯在区间内的记录
func (a *API) ListHabitLogs(c *gin.Context) {
	habitID, err := parseUintParam(c, "id")
	if err != nil {
		respondError(c, http.StatusBadRequest, "无效的习惯 ID")
		return
	}

	start, okStart := parseOptionalDate(c.Query("start"))
	end, okEnd := parseOptionalDate(c.Query("end"))
	if !okStart || !okEnd {
		respondError(c, http.StatusBadRequest, "无效的日期区间")
		return
	}

	filter := service.HabitLogFilter{HabitID: habitID}
	if start != nil {
		filter.Start = *start
	}
	if end != nil {
		filter.End = *end
	}

	records, err := a.habitLogs.ListBetween(filter)
	if err != nil {
		respondError(c, http.StatusInternalServerError, "获取打卡记录失败")
		return
	}

	items := make([]gin.H, 0, len(records))
	for i := range records {
		items = append(items, serializeHabitLog(&records[i]))
	}
	c.JSON(http.StatusOK, gin.H{"logs": items})
}

// DeleteHabitLog 撤销一条打卡记录
func (a *API) DeleteHabitLog(c *gin.Context) {
	logID, err := parseUintParam(c, "logId")
	if err != nil {
		respondError(c, http.StatusBadRequest, "无效的记录 ID")
		return
	}

	if err := a.habitLogs.Delete(logID); err != nil {
		respondError(c, http.StatusInternalServerError, "删除记录失败")
		return
	}
	c.JSON(http.StatusOK, gin.H{"deleted": true})
}

func logErrorStatus(err error) int {
	switch {
	case errors.Is(err, service.ErrHabitNotFound):
		return http.StatusNotFound
	case errors.Is(err, service.ErrLogInvalidStatus),
		errors.Is(err, service.ErrLogInvalidValue),
		errors.Is(err, service.ErrLogInvalidPart):
		return http.StatusBadRequest
	default:
		return http.StatusInternalServerError
	}
}
