package router

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"

	"github.com/deenlog/internal/config"
	"github.com/deenlog/internal/db"
	"github.com/gin-gonic/gin"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

func setupRouterTest(t *testing.T) (*gin.Engine, func()) {
	t.Helper()
	gin.SetMode(gin.TestMode)

	gdb, err := gorm.Open(sqlite.Open("file::memory:?cache=shared"), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		t.Fatalf("failed to open test db: %v", err)
	}
	if err := gdb.AutoMigrate(&db.User{}, &db.Habit{}, &db.HabitLog{}, &db.Reflection{}, &db.SystemSetting{}); err != nil {
		t.Fatalf("failed to migrate test db: %v", err)
	}
	db.DB = gdb

	if err := db.EnsureUser("admin", "secret123"); err != nil {
		t.Fatalf("failed to create admin user: %v", err)
	}

	r := SetupRouter(config.AppConfig{SessionSecret: "test-secret"})

	cleanup := func() {
		gdb.Exec("DELETE FROM habit_logs")
		gdb.Exec("DELETE FROM habits")
		gdb.Exec("DELETE FROM reflections")
		gdb.Exec("DELETE FROM system_settings")
		gdb.Exec("DELETE FROM users")
		if sqlDB, err := gdb.DB(); err == nil {
			sqlDB.Close()
		}
		db.DB = nil
	}
	return r, cleanup
}

func doRequest(t *testing.T, r *gin.Engine, method, path string, body []byte, cookies []*http.Cookie) *httptest.ResponseRecorder {
	t.Helper()
	var reader *bytes.Reader
	if body != nil {
		reader = bytes.NewReader(body)
	} else {
		reader = bytes.NewReader(nil)
	}
	req := httptest.NewRequest(method, path, reader)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	for _, cookie := range cookies {
		req.AddCookie(cookie)
	}
	rr := httptest.NewRecorder()
	r.ServeHTTP(rr, req)
	return rr
}

func loginAdmin(t *testing.T, r *gin.Engine) []*http.Cookie {
	t.Helper()
	form := url.Values{"username": {"admin"}, "password": {"secret123"}}
	req := httptest.NewRequest(http.MethodPost, "/admin/login", strings.NewReader(form.Encode()))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	rr := httptest.NewRecorder()
	r.ServeHTTP(rr, req)
	if rr.Code != http.StatusOK {
		t.Fatalf("login failed with status %d: %s", rr.Code, rr.Body.String())
	}
	return rr.Result().Cookies()
}

func decodeBody(t *testing.T, rr *httptest.ResponseRecorder) map[string]any {
	t.Helper()
	var payload map[string]any
	if err := json.Unmarshal(rr.Body.Bytes(), &payload); err != nil {
		t.Fatalf("failed to decode response %q: %v", rr.Body.String(), err)
	}
	return payload
}

func TestRouterRequiresLogin(t *testing.T) {
	r, cleanup := setupRouterTest(t)
	defer cleanup()

	rr := doRequest(t, r, http.MethodGet, "/admin/api/habits", nil, nil)
	if rr.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401 without session, got %d", rr.Code)
	}

	form := url.Values{"username": {"admin"}, "password": {"wrong"}}
	req := httptest.NewRequest(http.MethodPost, "/admin/login", strings.NewReader(form.Encode()))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	loginRR := httptest.NewRecorder()
	r.ServeHTTP(loginRR, req)
	if loginRR.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401 for wrong password, got %d", loginRR.Code)
	}

	cookies := loginAdmin(t, r)
	rr = doRequest(t, r, http.MethodGet, "/admin/api/habits", nil, cookies)
	if rr.Code != http.StatusOK {
		t.Fatalf("expected 200 with session, got %d: %s", rr.Code, rr.Body.String())
	}
}

func TestRouterHabitLogAndStatsFlow(t *testing.T) {
	r, cleanup := setupRouterTest(t)
	defer cleanup()
	cookies := loginAdmin(t, r)

	body, _ := json.Marshal(map[string]any{
		"name":     "晨礼",
		"kind":     "graded",
		"type_tag": "prayer",
	})
	rr := doRequest(t, r, http.MethodPost, "/admin/api/habits", body, cookies)
	if rr.Code != http.StatusCreated {
		t.Fatalf("create habit failed with status %d: %s", rr.Code, rr.Body.String())
	}
	habitID := int(decodeBody(t, rr)["id"].(float64))

	for _, date := range []string{"2024-05-01", "2024-05-02"} {
		body, _ = json.Marshal(map[string]any{
			"log_date": date,
			"value":    3,
			"status":   "done",
		})
		rr = doRequest(t, r, http.MethodPost, fmt.Sprintf("/admin/api/habits/%d/logs", habitID), body, cookies)
		if rr.Code != http.StatusOK {
			t.Fatalf("upsert log failed with status %d: %s", rr.Code, rr.Body.String())
		}
	}

	rr = doRequest(t, r, http.MethodGet, fmt.Sprintf("/admin/api/stats/habits/%d/streak?today=2024-05-02", habitID), nil, cookies)
	if rr.Code != http.StatusOK {
		t.Fatalf("streak failed with status %d: %s", rr.Code, rr.Body.String())
	}
	streak := decodeBody(t, rr)
	if int(streak["current_streak"].(float64)) != 2 {
		t.Fatalf("expected current streak 2, got %v", streak["current_streak"])
	}

	rr = doRequest(t, r, http.MethodGet, "/admin/api/stats/scoreboard", nil, cookies)
	if rr.Code != http.StatusOK {
		t.Fatalf("scoreboard failed with status %d: %s", rr.Code, rr.Body.String())
	}
	score := decodeBody(t, rr)
	if int(score["wins"].(float64)) != 2 {
		t.Fatalf("expected 2 wins, got %v", score["wins"])
	}
}

func TestRouterSharedOverview(t *testing.T) {
	r, cleanup := setupRouterTest(t)
	defer cleanup()
	cookies := loginAdmin(t, r)

	rr := doRequest(t, r, http.MethodPost, "/admin/api/settings/share-token/rotate", nil, cookies)
	if rr.Code != http.StatusOK {
		t.Fatalf("rotate share token failed with status %d: %s", rr.Code, rr.Body.String())
	}
	token := decodeBody(t, rr)["share_token"].(string)

	rr = doRequest(t, r, http.MethodGet, "/share/"+token+"/overview?today=2024-05-02", nil, nil)
	if rr.Code != http.StatusOK {
		t.Fatalf("shared overview failed with status %d: %s", rr.Code, rr.Body.String())
	}

	rr = doRequest(t, r, http.MethodGet, "/share/not-the-token/overview", nil, nil)
	if rr.Code != http.StatusNotFound {
		t.Fatalf("expected 404 for wrong token, got %d", rr.Code)
	}
}
