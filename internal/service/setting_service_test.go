package service

import (
	"errors"
	"testing"

	"github.com/deenlog/internal/db"
)

func TestSystemSettingsDefaults(t *testing.T) {
	cleanup := setupServiceTestDB(t)
	defer cleanup()

	settings, err := NewSystemSettingService(db.DB).GetSettings()
	if err != nil {
		t.Fatalf("GetSettings returned error: %v", err)
	}

	if settings.SiteName != "DeenLog" {
		t.Fatalf("unexpected default site name: %s", settings.SiteName)
	}
	if settings.HijriOffset != 0 {
		t.Fatalf("unexpected default hijri offset: %d", settings.HijriOffset)
	}
}

func TestSystemSettingsUpdate(t *testing.T) {
	cleanup := setupServiceTestDB(t)
	defer cleanup()

	svc := NewSystemSettingService(db.DB)

	updated, err := svc.UpdateSettings(SystemSettingsInput{SiteName: "我的功课", HijriOffset: -1})
	if err != nil {
		t.Fatalf("UpdateSettings returned error: %v", err)
	}
	if updated.SiteName != "我的功课" || updated.HijriOffset != -1 {
		t.Fatalf("unexpected settings after update: %+v", updated)
	}

	if _, err := svc.UpdateSettings(SystemSettingsInput{HijriOffset: 5}); !errors.Is(err, ErrInvalidHijriOffset) {
		t.Fatalf("expected ErrInvalidHijriOffset, got %v", err)
	}
}

func TestShareTokenLifecycle(t *testing.T) {
	cleanup := setupServiceTestDB(t)
	defer cleanup()

	svc := NewSystemSettingService(db.DB)

	token, err := svc.EnsureShareToken()
	if err != nil {
		t.Fatalf("EnsureShareToken returned error: %v", err)
	}
	if token == "" {
		t.Fatal("expected a non-empty share token")
	}

	// 再取一次应该是同一个
	again, err := svc.EnsureShareToken()
	if err != nil {
		t.Fatalf("EnsureShareToken returned error: %v", err)
	}
	if again != token {
		t.Fatalf("expected stable token, got %s vs %s", again, token)
	}

	rotated, err := svc.RotateShareToken()
	if err != nil {
		t.Fatalf("RotateShareToken returned error: %v", err)
	}
	if rotated == token {
		t.Fatal("expected rotation to produce a new token")
	}
}
