package models

import (
	"testing"
	"time"
)

func TestParseRole(t *testing.T) {
	for _, valid := range []string{"student", "teacher", "volunteer", "parent"} {
		role, err := ParseRole(valid)
		if err != nil {
			t.Errorf("ParseRole(%q) failed: %v", valid, err)
		}
		if string(role) != valid {
			t.Errorf("ParseRole(%q) = %q", valid, role)
		}
	}

	for _, invalid := range []string{"", "admin", "Student", "TEACHER", "students"} {
		if _, err := ParseRole(invalid); err == nil {
			t.Errorf("ParseRole(%q): expected error", invalid)
		}
	}
}

func TestExternalToken_Fresh(t *testing.T) {
	now := time.Date(2026, 6, 1, 12, 0, 0, 0, time.UTC)
	token := &ExternalToken{ExpiresAt: now.Add(time.Hour)}

	if !token.Fresh(now) {
		t.Error("expected token to be fresh before expiry")
	}
	if token.Fresh(now.Add(time.Hour)) {
		t.Error("expected token to be stale at expiry")
	}
	if token.Fresh(now.Add(2 * time.Hour)) {
		t.Error("expected token to be stale after expiry")
	}
}
