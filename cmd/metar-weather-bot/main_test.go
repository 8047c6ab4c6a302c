package main

import (
	"bytes"
	"context"
	"errors"
	"os"
	"testing"
	"time"

	"github.com/i474232898/metar-weather-bot/internal/bot"
	"github.com/i474232898/metar-weather-bot/internal/store"
	"github.com/i474232898/metar-weather-bot/internal/weather"
)

func TestCommandAliases(t *testing.T) {
	root := newRootCmd(&app{})
	aliases := map[string]string{
		"metar":  "fetch-report",
		"abc7":   "fetch-image",
		"airnow": "fetch-air-quality",
		"post":   "compose-and-post",
	}
	for alias, name := range aliases {
		cmd, _, err := root.Find([]string{alias})
		if err != nil {
			t.Errorf("Find(%q) error = %v", alias, err)
			continue
		}
		if cmd.Name() != name {
			t.Errorf("alias %q resolves to %q; want %q", alias, cmd.Name(), name)
		}
	}
}

func setupEnv(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()
	chdirForTest(t, t.TempDir())
	t.Setenv("APP_ENV", "prod")
	t.Setenv("LOG_LEVEL", "error")
	t.Setenv("DATA_DIR", dir)
	t.Setenv("AIRNOW_API_KEY", "")
	t.Setenv("DRY_RUN", "true")
	return dir
}

func TestPreview(t *testing.T) {
	dir := setupEnv(t)
	fs, err := store.NewFileStore(dir)
	if err != nil {
		t.Fatal(err)
	}
	loc, _ := weather.StationLocation()
	temp := "72°F"
	if err := fs.SaveObservation(weather.Observation{
		Temperature: &temp,
		LocalTime:   weather.LocalTime{Time: time.Date(2024, 3, 1, 14, 53, 0, 0, loc)},
	}); err != nil {
		t.Fatal(err)
	}

	a := &app{}
	root := newRootCmd(a)
	var out bytes.Buffer
	root.SetOut(&out)
	root.SetArgs([]string{"preview"})
	if err := root.ExecuteContext(context.Background()); err != nil {
		t.Fatalf("preview error = %v", err)
	}

	want := "LAX at 2:53 PM\n\n🌡️ 72°F\n\n#CAwx\n"
	if out.String() != want {
		t.Errorf("preview output = %q; want %q", out.String(), want)
	}
	if a.publisher.Name() != "stdout" {
		t.Errorf("dry run publishers = %q; want stdout", a.publisher.Name())
	}
}

func TestFetchAirQualityWithoutKey(t *testing.T) {
	setupEnv(t)
	root := newRootCmd(&app{})
	root.SetArgs([]string{"airnow"})
	if err := root.ExecuteContext(context.Background()); !errors.Is(err, bot.ErrAirQualityDisabled) {
		t.Errorf("airnow error = %v; want ErrAirQualityDisabled", err)
	}
}

func TestInvalidConfig(t *testing.T) {
	setupEnv(t)
	t.Setenv("APP_ENV", "staging")
	root := newRootCmd(&app{})
	root.SetArgs([]string{"preview"})
	if err := root.ExecuteContext(context.Background()); err == nil {
		t.Error("preview with invalid APP_ENV error = nil")
	}
}

// chdirForTest changes the working directory for the duration of the test,
// restoring it on cleanup (equivalent of testing.T.Chdir from Go 1.24).
func chdirForTest(t *testing.T, dir string) {
	t.Helper()
	prev, err := os.Getwd()
	if err != nil {
		t.Fatalf("Getwd() error = %v", err)
	}
	if err := os.Chdir(dir); err != nil {
		t.Fatalf("Chdir(%q) error = %v", dir, err)
	}
	t.Cleanup(func() {
		if err := os.Chdir(prev); err != nil {
			t.Fatalf("Chdir(%q) error = %v", prev, err)
		}
	})
}
