package env

import "testing"

func TestGetPrefersFirstSetKey(t *testing.T) {
	t.Setenv("COSTUMERZ_LOG_FORMAT", "")
	t.Setenv("LOG_FORMAT", "console")
	if got := Get("json", "COSTUMERZ_LOG_FORMAT", "LOG_FORMAT"); got != "console" {
		t.Fatalf("expected generic fallback key, got %q", got)
	}

	t.Setenv("COSTUMERZ_LOG_FORMAT", " json ")
	if got := Get("console", "COSTUMERZ_LOG_FORMAT", "LOG_FORMAT"); got != "json" {
		t.Fatalf("expected prefixed key to win, got %q", got)
	}

	if got := Get("default"); got != "default" {
		t.Fatalf("expected fallback, got %q", got)
	}
}
