package config

import (
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/joho/godotenv"
)

var validate = validator.New()

type MastodonConfig struct {
	Server      string `validate:"omitempty,url"`
	AccessToken string
}

// Enabled reports whether both the server and a token are set.
func (c MastodonConfig) Enabled() bool {
	return c.Server != "" && c.AccessToken != ""
}

type BlueskyConfig struct {
	PDS         string `validate:"omitempty,url"`
	Handle      string
	AppPassword string
}

func (c BlueskyConfig) Enabled() bool {
	return c.Handle != "" && c.AppPassword != ""
}

type MQTTConfig struct {
	Broker   string
	Port     int `validate:"gte=1,lte=65535"`
	Topic    string
	ClientID string
}

func (c MQTTConfig) Enabled() bool {
	return c.Broker != ""
}

type AirNowConfig struct {
	BaseURL  string `validate:"omitempty,url"`
	APIKey   string
	ZIPCode  string `validate:"omitempty,numeric,len=5"`
	Distance int    `validate:"gt=0"`
}

type AppConfig struct {
	AppEnv   string `validate:"oneof=dev prod"`
	LogLevel slog.Level

	// DataDir holds the flat-file snapshots shared by the commands.
	DataDir string `validate:"required"`

	StationLabel       string `validate:"required"`
	Hashtags           string `validate:"required"`
	AQILengthThreshold int    `validate:"gt=0"`
	ImageAltText       string

	METARURL  string `validate:"omitempty,url"`
	WebcamURL string `validate:"omitempty,url"`
	AirNow    AirNowConfig

	HTTPTimeout     time.Duration `validate:"gt=0"`
	RetryAttempts   int           `validate:"gte=1"`
	RetryDelay      time.Duration `validate:"gte=0"`
	RetryMultiplier float64       `validate:"gte=1"`

	Mastodon MastodonConfig
	Bluesky  BlueskyConfig
	MQTT     MQTTConfig

	// DryRun prints posts to stdout instead of publishing them.
	DryRun bool

	ScheduleCron string `validate:"required"`
	Port         string `validate:"required,numeric"`
}

// loadDotEnv loads .env from the working directory without overriding
// variables that are already set. Production runs have no .env file.
func loadDotEnv(logger *slog.Logger) {
	err := godotenv.Load()
	switch {
	case err == nil:
		logger.Debug(".env file loaded")
	case errors.Is(err, fs.ErrNotExist):
		logger.Debug("no .env file found", "error", err)
	default:
		logger.Warn("ignoring malformed .env file", "error", err)
	}
}

// Load reads configuration from environment with sensible defaults. A .env
// file in the working directory is loaded first when present.
func Load() (*AppConfig, error) {
	loadDotEnv(slog.Default())

	cfg := &AppConfig{}

	cfg.AppEnv = getenvDefault("APP_ENV", "dev")
	switch cfg.AppEnv {
	case "dev", "prod":
	default:
		return nil, fmt.Errorf("invalid APP_ENV %q (allowed: dev, prod)", cfg.AppEnv)
	}

	level, err := parseLogLevel(getenvDefault("LOG_LEVEL", "info"))
	if err != nil {
		return nil, err
	}
	cfg.LogLevel = level

	cfg.DataDir = getenvDefault("DATA_DIR", ".")
	cfg.StationLabel = getenvDefault("STATION_LABEL", "LAX")
	cfg.Hashtags = getenvDefault("HASHTAGS", "#CAwx")
	cfg.ImageAltText = getenvDefault("IMAGE_ALT_TEXT", "Latest view from the LAX webcam")
	if cfg.AQILengthThreshold, err = getenvInt("AQI_LENGTH_THRESHOLD", 250); err != nil {
		return nil, err
	}

	cfg.METARURL = os.Getenv("METAR_URL")
	cfg.WebcamURL = os.Getenv("WEBCAM_URL")
	cfg.AirNow = AirNowConfig{
		BaseURL: os.Getenv("AIRNOW_URL"),
		APIKey:  os.Getenv("AIRNOW_API_KEY"),
		ZIPCode: getenvDefault("AIRNOW_ZIP", "90045"),
	}
	if cfg.AirNow.Distance, err = getenvInt("AIRNOW_DISTANCE", 25); err != nil {
		return nil, err
	}

	if cfg.HTTPTimeout, err = getenvDuration("HTTP_TIMEOUT", 30*time.Second); err != nil {
		return nil, err
	}
	if cfg.RetryAttempts, err = getenvInt("RETRY_ATTEMPTS", 3); err != nil {
		return nil, err
	}
	if cfg.RetryDelay, err = getenvDuration("RETRY_DELAY", 5*time.Second); err != nil {
		return nil, err
	}
	if cfg.RetryMultiplier, err = getenvFloat("RETRY_MULTIPLIER", 2); err != nil {
		return nil, err
	}

	cfg.Mastodon = MastodonConfig{
		Server:      os.Getenv("MASTODON_SERVER"),
		AccessToken: os.Getenv("MASTODON_ACCESS_TOKEN"),
	}
	cfg.Bluesky = BlueskyConfig{
		PDS:         getenvDefault("BLUESKY_PDS", "https://bsky.social"),
		Handle:      os.Getenv("BLUESKY_HANDLE"),
		AppPassword: os.Getenv("BLUESKY_APP_PASSWORD"),
	}
	cfg.MQTT = MQTTConfig{
		Broker:   os.Getenv("MQTT_BROKER"),
		Topic:    getenvDefault("MQTT_TOPIC", "weather/lax/post"),
		ClientID: getenvDefault("MQTT_CLIENT_ID", "metar-weather-bot"),
	}
	if cfg.MQTT.Port, err = getenvInt("MQTT_PORT", 1883); err != nil {
		return nil, err
	}

	if cfg.DryRun, err = getenvBool("DRY_RUN", false); err != nil {
		return nil, err
	}

	cfg.ScheduleCron = getenvDefault("SCHEDULE_CRON", "10 * * * *")
	cfg.Port = getenvDefault("PORT", "8080")

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate checks field constraints.
func (c *AppConfig) Validate() error {
	if err := validate.Struct(c); err != nil {
		var verrs validator.ValidationErrors
		if errors.As(err, &verrs) {
			msgs := make([]string, 0, len(verrs))
			for _, fe := range verrs {
				msgs = append(msgs, fmt.Sprintf("%s failed %q", fe.Namespace(), fe.Tag()))
			}
			return fmt.Errorf("invalid config: %s", strings.Join(msgs, "; "))
		}
		return fmt.Errorf("invalid config: %w", err)
	}
	return nil
}

func parseLogLevel(s string) (slog.Level, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "debug":
		return slog.LevelDebug, nil
	case "info":
		return slog.LevelInfo, nil
	case "warn", "warning":
		return slog.LevelWarn, nil
	case "error":
		return slog.LevelError, nil
	default:
		return slog.LevelInfo, fmt.Errorf("invalid LOG_LEVEL %q (allowed: debug, info, warn, error)", s)
	}
}

func getenvDefault(key, def string) string {
	if v := strings.TrimSpace(os.Getenv(key)); v != "" {
		return v
	}
	return def
}

func getenvInt(key string, def int) (int, error) {
	v := strings.TrimSpace(os.Getenv(key))
	if v == "" {
		return def, nil
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return 0, fmt.Errorf("invalid %s %q: %w", key, v, err)
	}
	return n, nil
}

func getenvFloat(key string, def float64) (float64, error) {
	v := strings.TrimSpace(os.Getenv(key))
	if v == "" {
		return def, nil
	}
	f, err := strconv.ParseFloat(v, 64)
	if err != nil {
		return 0, fmt.Errorf("invalid %s %q: %w", key, v, err)
	}
	return f, nil
}

func getenvDuration(key string, def time.Duration) (time.Duration, error) {
	v := strings.TrimSpace(os.Getenv(key))
	if v == "" {
		return def, nil
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		return 0, fmt.Errorf("invalid %s %q: %w", key, v, err)
	}
	return d, nil
}

func getenvBool(key string, def bool) (bool, error) {
	v := strings.TrimSpace(os.Getenv(key))
	if v == "" {
		return def, nil
	}
	b, err := strconv.ParseBool(v)
	if err != nil {
		return false, fmt.Errorf("invalid %s %q: %w", key, v, err)
	}
	return b, nil
}
