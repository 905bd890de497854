package handler

import (
	"errors"
	"net/http"

	"github.com/deenlog/internal/service"
	"github.com/gin-gonic/gin"
)

type settingsPayload struct {
	SiteName    string `json:"site_name"`
	HijriOffset int    `json:"hijri_offset"`
}

func serializeSettings(settings service.SystemSettings) gin.H {
	return gin.H{
		"site_name":    settings.SiteName,
		"hijri_offset": settings.HijriOffset,
		"share_token":  settings.ShareToken,
	}
}

// GetSettings 返回系统设置
func (a *API) GetSettings(c *gin.Context) {
	settings, err := a.system.GetSettings()
	if err != nil {
		respondError(c, http.StatusInternalServerError, "获取系统设置失败")
		return
	}
	c.JSON(http.StatusOK, serializeSettings(settings))
}

// UpdateSettings 更新站点名称与希吉来偏移
func (a *API) UpdateSettings(c *gin.Context) {
	var payload settingsPayload
	if !bindJSON(c, &payload, "请求参数不合法") {
		return
	}

	settings, err := a.system.UpdateSettings(service.SystemSettingsInput{
		SiteName:    payload.SiteName,
		HijriOffset: payload.HijriOffset,
	})
	if err != nil {
		if errors.Is(err, service.ErrInvalidHijriOffset) {
			respondError(c, http.StatusBadRequest, "希吉来偏移超出范围")
			return
		}
		respondError(c, http.StatusInternalServerError, "更新系统设置失败")
		return
	}
	c.JSON(http.StatusOK, serializeSettings(settings))
}

// RotateShareToken 重新生成分享口令，旧链接随即失效
func (a *API) RotateShareToken(c *gin.Context) {
	token, err := a.system.RotateShareToken()
	if err != nil {
		respondError(c, http.StatusInternalServerError, "重置分享口令失败")
		return
	}
	c.JSON(http.StatusOK, gin.H{"share_token": token})
}
