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

type reflectionPayload struct {
	Content string `json:"content"`
}

func serializeReflection(record *db.Reflection) gin.H {
	return gin.H{
		"id":         record.ID,
		"entry_date": record.EntryDate.Format(dateFormat),
		"content":    record.Content,
	}
}

func parseDateParam(c *gin.Context) (time.Time, bool) {
	raw := strings.TrimSpace(c.Param("date"))
	date, err := time.ParseInLocation(dateFormat, raw, time.Local)
	if err != nil {
		respondError(c, http.StatusBadRequest, "无效的日期参数")
		return time.Time{}, false
	}
	return date, true
}

// UpsertReflection 保存某天的反思日记，一天一篇，重复提交覆盖
func (a *API) UpsertReflection(c *gin.Context) {
	date, ok := parseDateParam(c)
	if !ok {
		return
	}

	var payload reflectionPayload
	if !bindJSON(c, &payload, "请求参数不合法") {
		return
	}

	record, err := a.reflections.Upsert(service.ReflectionInput{
		EntryDate: date,
		Content:   payload.Content,
	})
	if err != nil {
		respondError(c, http.StatusInternalServerError, "保存日记失败")
		return
	}
	c.JSON(http.StatusOK, serializeReflection(record))
}

// GetReflection 读取某天的日记；render=1 时附带渲染后的 HTML
func (a *API) GetReflection(c *gin.Context) {
	date, ok := parseDateParam(c)
	if !ok {
		return
	}

	record, err := a.reflections.GetByDate(date)
	if err != nil {
		if errors.Is(err, service.ErrReflectionNotFound) {
			respondError(c, http.StatusNotFound, "当天没有日记")
			return
		}
		respondError(c, http.StatusInternalServerError, "读取日记失败")
		return
	}

	payload := serializeReflection(record)
	if c.Query("render") == "1" {
		html, err := service.RenderMarkdown(record.Content)
		if err != nil {
			respondError(c, http.StatusInternalServerError, "渲染日记失败")
			return
		}
		payload["html"] = html
	}
	c.JSON(http.StatusOK, payload)
}

// ListReflections 返回区间内的全部日记
func (a *API) ListReflections(c *gin.Context) {
	start, okStart := parseOptionalDate(c.Query("start"))
	end, okEnd := parseOptionalDate(c.Query("end"))
	if !okStart || !okEnd || start == nil || end == nil {
		respondError(c, http.StatusBadRequest, "无效的日期区间")
		return
	}

	records, err := a.reflections.ListBetween(*start, *end)
	if err != nil {
		respondError(c, http.StatusInternalServerError, "获取日记列表失败")
		return
	}

	items := make([]gin.H, 0, len(records))
	for i := range records {
		items = append(items, serializeReflection(&records[i]))
	}
	c.JSON(http.StatusOK, gin.H{"reflections": items})
}

// DeleteReflection 删除某天的日记
func (a *API) DeleteReflection(c *gin.Context) {
	date, ok := parseDateParam(c)
	if !ok {
		return
	}

	record, err := a.reflections.GetByDate(date)
	if err != nil {
		if errors.Is(err, service.ErrReflectionNotFound) {
			respondError(c, http.StatusNotFound, "当天没有日记")
			return
		}
		respondError(c, http.StatusInternalServerError, "读取日记失败")
		return
	}

	if err := a.reflections.Delete(record.ID); err != nil {
		respondError(c, http.StatusInternalServerError, "删除日记失败")
		return
	}
	c.JSON(http.StatusOK, gin.H{"deleted": true})
}
