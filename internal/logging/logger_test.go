package logging

import (
	"bytes"
	"encoding/json"
	"log/slog"
	"strings"
	"testing"

	"github.com/i474232898/metar-weather-bot/internal/config"
)

func TestNew_prodIsJSON(t *testing.T) {
	var buf bytes.Buffer
	logger := newWithWriter(&buf, &config.AppConfig{AppEnv: "prod", LogLevel: slog.LevelInfo}, "1.2.3", "metar-weather-bot")

	logger.Debug("hidden")
	logger.Info("posted", "publisher", "mastodon")

	var rec map[string]any
	if err := json.Unmarshal(buf.Bytes(), &rec); err != nil {
		t.Fatalf("log line is not JSON: %v\n%s", err, buf.String())
	}
	want := map[string]string{
		"msg":       "posted",
		"app":       "metar-weather-bot",
		"version":   "1.2.3",
		"env":       "prod",
		"publisher": "mastodon",
	}
	for k, v := range want {
		if rec[k] != v {
			t.Errorf("%s = %v; want %q", k, rec[k], v)
		}
	}
}

func TestNew_devIsText(t *testing.T) {
	var buf bytes.Buffer
	logger := newWithWriter(&buf, &config.AppConfig{AppEnv: "dev", LogLevel: slog.LevelWarn}, "dev", "metar-weather-bot")

	logger.Info("hidden")
	logger.Warn("retrying")

	out := buf.String()
	if strings.Contains(out, "hidden") {
		t.Errorf("info record logged at warn level:\n%s", out)
	}
	if !strings.Contains(out, "retrying") || strings.HasPrefix(out, "{") {
		t.Errorf("dev output = %q; want a text record", out)
	}
}
