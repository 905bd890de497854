package handler

import (
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
)

const dateFormat = "2006-01-02"

func respondError(c *gin.Context, status int, message string) {
	c.JSON(status, gin.H{"error": message})
}

func bindJSON(c *gin.Context, dst interface{}, message string) bool {
	if err := c.ShouldBindJSON(dst); err != nil {
		respondError(c, http.StatusBadRequest, message)
		return false
	}
	return true
}

func parseUintParam(c *gin.Context, key string) (uint, error) {
	raw := c.Param(key)
	id, err := strconv.ParseUint(raw, 10, 32)
	if err != nil {
		return 0, fmt.Errorf("invalid %s", key)
	}
	return uint(id), nil
}

// resolveToday 读取 today 查询参数；缺省取系统当天。
// 引擎自身不读时钟，"今天"永远由这一层传入。
func resolveToday(c *gin.Context) (time.Time, bool) {
	raw := strings.TrimSpace(c.Query("today"))
	if raw == "" {
		now := time.Now().In(time.Local)
		return time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, now.Location()), true
	}

	today, err := time.ParseInLocation(dateFormat, raw, time.Local)
	if err != nil {
		respondError(c, http.StatusBadRequest, "无效的日期参数")
		return time.Time{}, false
	}
	return today, true
}

func parseOptionalDate(value string) (*time.Time, bool) {
	value = strings.TrimSpace(value)
	if value == "" {
		return nil, true
	}

	t, err := time.ParseInLocation(dateFormat, value, time.Local)
	if err != nil {
		return nil, false
	}

	return &t, true
}
