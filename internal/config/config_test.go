package config

import (
	"errors"
	"os"
	"testing"
	"time"
)

func clearEnv(t *testing.T) {
	t.Helper()
	for _, k := range []string{
		"APP_PORT", "BOT_TOKEN", "DATABASE_URL", "REDIS_ADDR", "REDIS_PASSWORD", "REDIS_DB",
		"JWT_SECRET", "ALLOWED_ORIGIN", "LOG_LEVEL", "LOG_JSON", "EVENT_RATE_LIMIT",
		"EVENT_RATE_WINDOW", "API_RATE_LIMIT", "API_RATE_WINDOW", "WORDS_TARGETS_FILE", "WORDS_VALID_FILE",
		"WORDS_DICTIONARY_FILE", "WORDS_COMMON_FILE",
	} {
		t.Setenv(k, "")
		os.Unsetenv(k)
	}
}

func TestParseDefaults(t *testing.T) {
	clearEnv(t)
	t.Setenv("BOT_TOKEN", "123:abc")

	cfg, err := Parse()
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	if cfg.AppPort != "8080" {
		t.Errorf("AppPort = %q, want 8080", cfg.AppPort)
	}
	if cfg.LogLevel != "info" {
		t.Errorf("LogLevel = %q, want info", cfg.LogLevel)
	}
	if cfg.EventRateLimit != 30 {
		t.Errorf("EventRateLimit = %d, want 30", cfg.EventRateLimit)
	}
	if cfg.EventRateWindow != 10*time.Second {
		t.Errorf("EventRateWindow = %v, want 10s", cfg.EventRateWindow)
	}
	if cfg.APIRateLimit != 60 || cfg.APIRateWindow != time.Minute {
		t.Errorf("API limit = %d/%v, want 60/1m", cfg.APIRateLimit, cfg.APIRateWindow)
	}
	if !cfg.BotEnabled() || cfg.WebEnabled() {
		t.Errorf("BotEnabled=%v WebEnabled=%v, want true false", cfg.BotEnabled(), cfg.WebEnabled())
	}
}

func TestParseOverrides(t *testing.T) {
	clearEnv(t)
	t.Setenv("JWT_SECRET", "s3cret")
	t.Setenv("APP_PORT", "9000")
	t.Setenv("REDIS_DB", "3")
	t.Setenv("LOG_JSON", "true")
	t.Setenv("EVENT_RATE_WINDOW", "1m")
	t.Setenv("WORDS_DICTIONARY_FILE", "/tmp/words.txt")

	cfg, err := Parse()
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	if cfg.AppPort != "9000" || cfg.RedisDB != 3 || !cfg.LogJSON {
		t.Errorf("got port=%q db=%d json=%v", cfg.AppPort, cfg.RedisDB, cfg.LogJSON)
	}
	if cfg.EventRateWindow != time.Minute {
		t.Errorf("EventRateWindow = %v, want 1m", cfg.EventRateWindow)
	}
	if cfg.Words.Dictionary != "/tmp/words.txt" {
		t.Errorf("Words.Dictionary = %q", cfg.Words.Dictionary)
	}
	if cfg.BotEnabled() || !cfg.WebEnabled() {
		t.Errorf("BotEnabled=%v WebEnabled=%v, want false true", cfg.BotEnabled(), cfg.WebEnabled())
	}
}

func TestParseRequiresTransport(t *testing.T) {
	clearEnv(t)

	_, err := Parse()
	if !errors.Is(err, ErrNoTransport) {
		t.Fatalf("err = %v, want ErrNoTransport", err)
	}
}

func TestParseRejectsBadValues(t *testing.T) {
	clearEnv(t)
	t.Setenv("BOT_TOKEN", "x")
	t.Setenv("EVENT_RATE_LIMIT", "-1")
	if _, err := Parse(); !errors.Is(err, ErrBadRateLimit) {
		t.Errorf("negative limit: err = %v, want ErrBadRateLimit", err)
	}

	t.Setenv("EVENT_RATE_LIMIT", "5")
	t.Setenv("EVENT_RATE_WINDOW", "0s")
	if _, err := Parse(); !errors.Is(err, ErrBadRateWindow) {
		t.Errorf("zero window: err = %v, want ErrBadRateWindow", err)
	}

	t.Setenv("EVENT_RATE_WINDOW", "10s")
	t.Setenv("API_RATE_WINDOW", "0s")
	if _, err := Parse(); !errors.Is(err, ErrBadAPILimit) {
		t.Errorf("zero api window: err = %v, want ErrBadAPILimit", err)
	}

	t.Setenv("API_RATE_WINDOW", "1m")
	t.Setenv("EVENT_RATE_WINDOW", "soon")
	if _, err := Parse(); err == nil {
		t.Errorf("unparsable duration accepted")
	}
}
