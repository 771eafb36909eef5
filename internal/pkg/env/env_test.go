package env

import (
	"log/slog"
	"testing"
	"time"
)

func TestGet(t *testing.T) {
	t.Setenv("VAULT_SOLVER_TEST", "value")
	if got := Get("VAULT_SOLVER_TEST", "fallback"); got != "value" {
		t.Errorf("Get() = %q, want value", got)
	}
	if got := Get("VAULT_SOLVER_UNSET", "fallback"); got != "fallback" {
		t.Errorf("Get() = %q, want fallback", got)
	}
}

func TestTypedGetters(t *testing.T) {
	t.Setenv("TEST_INT", "12")
	t.Setenv("TEST_FLOAT", "2.5")
	t.Setenv("TEST_DURATION", "250ms")
	t.Setenv("TEST_BOOL", "true")
	t.Setenv("TEST_BAD", "nope")

	if v, err := GetInt("TEST_INT", 1); err != nil || v != 12 {
		t.Errorf("GetInt = %d, %v", v, err)
	}
	if v, err := GetInt("TEST_UNSET_INT", 7); err != nil || v != 7 {
		t.Errorf("GetInt default = %d, %v", v, err)
	}
	if _, err := GetInt("TEST_BAD", 1); err == nil {
		t.Error("GetInt should reject non-integers")
	}
	if v, err := GetFloat("TEST_FLOAT", 0); err != nil || v != 2.5 {
		t.Errorf("GetFloat = %v, %v", v, err)
	}
	if v, err := GetDuration("TEST_DURATION", time.Second); err != nil || v != 250*time.Millisecond {
		t.Errorf("GetDuration = %v, %v", v, err)
	}
	if _, err := GetDuration("TEST_BAD", time.Second); err == nil {
		t.Error("GetDuration should reject garbage")
	}
	if v, err := GetBool("TEST_BOOL", false); err != nil || !v {
		t.Errorf("GetBool = %v, %v", v, err)
	}
	if _, err := GetBool("TEST_BAD", false); err == nil {
		t.Error("GetBool should reject garbage")
	}
}

func TestParseLogLevel(t *testing.T) {
	tests := []struct {
		raw  string
		want slog.Level
	}{
		{"debug", slog.LevelDebug},
		{"INFO", slog.LevelInfo},
		{"warn", slog.LevelWarn},
		{"error", slog.LevelError},
		{"", slog.LevelWarn},
		{"verbose", slog.LevelWarn},
	}
	for _, tt := range tests {
		t.Setenv("LOG_LEVEL", tt.raw)
		if got := ParseLogLevel(slog.LevelWarn); got != tt.want {
			t.Errorf("ParseLogLevel(%q) = %v, want %v", tt.raw, got, tt.want)
		}
	}
}
