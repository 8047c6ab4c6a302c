package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/i474232898/metar-weather-bot/internal/bot"
	"github.com/i474232898/metar-weather-bot/internal/compose"
	"github.com/i474232898/metar-weather-bot/internal/config"
	"github.com/i474232898/metar-weather-bot/internal/logging"
	"github.com/i474232898/metar-weather-bot/internal/publish"
	"github.com/i474232898/metar-weather-bot/internal/store"
	"github.com/i474232898/metar-weather-bot/internal/weather"
	"github.com/i474232898/metar-weather-bot/internal/weather/providers"
)

const appName = "metar-weather-bot"

// Set with -ldflags "-X main.version=...".
var version = "dev"

// app holds everything the subcommands share. It is filled in by the root
// command's PersistentPreRunE.
type app struct {
	cfg       *config.AppConfig
	logger    *slog.Logger
	store     *store.FileStore
	service   *bot.Service
	publisher *publish.Multi
	closers   []func()
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	a := &app{}
	err := newRootCmd(a).ExecuteContext(ctx)
	a.close()
	if err != nil {
		if a.logger != nil {
			a.logger.Error("command failed", "error", err)
		} else {
			fmt.Fprintf(os.Stderr, "%s: %v\n", appName, err)
		}
		stop()
		os.Exit(1)
	}
}

func newRootCmd(a *app) *cobra.Command {
	root := &cobra.Command{
		Use:           appName,
		Short:         "Download, parse and post weather data from LAX airport.",
		Version:       version,
		SilenceErrors: true,
		SilenceUsage:  true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return a.init()
		},
	}

	root.AddCommand(
		fetchReportCmd(a),
		fetchImageCmd(a),
		fetchAirQualityCmd(a),
		postCmd(a),
		previewCmd(a),
		scheduleCmd(a),
		serveCmd(a),
	)
	return root
}

func (a *app) init() error {
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}
	a.cfg = cfg

	a.logger = logging.New(cfg, version, appName)
	slog.SetDefault(a.logger)

	fs, err := store.NewFileStore(cfg.DataDir)
	if err != nil {
		return err
	}
	a.store = fs

	// Shared HTTP client for outbound calls.
	httpClient := &http.Client{Timeout: cfg.HTTPTimeout}
	httpCfg := providers.HTTPClientConfig{
		Client: httpClient,
		Backoff: providers.BackoffConfig{
			MaxAttempts:     cfg.RetryAttempts,
			InitialInterval: cfg.RetryDelay,
			Multiplier:      cfg.RetryMultiplier,
		},
	}

	var airQuality weather.AirQualitySource
	if cfg.AirNow.APIKey != "" {
		airQuality = providers.NewAirNow(providers.AirNowConfig{
			BaseURL:  cfg.AirNow.BaseURL,
			APIKey:   cfg.AirNow.APIKey,
			ZIPCode:  cfg.AirNow.ZIPCode,
			Distance: cfg.AirNow.Distance,
		}, httpCfg, a.logger)
	}

	a.publisher = a.publishers(httpClient)

	composer := compose.New(compose.Options{
		Station:      cfg.StationLabel,
		Hashtags:     cfg.Hashtags,
		AQIThreshold: cfg.AQILengthThreshold,
	}, a.logger)

	svc, err := bot.NewService(bot.Deps{
		Reports:    providers.NewNOAA(cfg.METARURL, httpCfg, a.logger),
		Images:     providers.NewWebcam(cfg.WebcamURL, httpCfg, a.logger),
		AirQuality: airQuality,
		Store:      fs,
		Composer:   composer,
		Publisher:  a.publisher,
		Logger:     a.logger,
		AltText:    cfg.ImageAltText,
	})
	if err != nil {
		return err
	}
	a.service = svc
	return nil
}

// publishers builds the configured platforms. A dry run replaces them all
// with stdout.
func (a *app) publishers(httpClient *http.Client) *publish.Multi {
	cfg := a.cfg
	if cfg.DryRun {
		return publish.NewMulti(a.logger, publish.NewWriter(os.Stdout))
	}

	var pubs []publish.Publisher
	if cfg.Mastodon.Enabled() {
		pubs = append(pubs, publish.NewMastodon(cfg.Mastodon.Server, cfg.Mastodon.AccessToken, httpClient, a.logger))
	}
	if cfg.Bluesky.Enabled() {
		pubs = append(pubs, publish.NewBluesky(cfg.Bluesky.PDS, cfg.Bluesky.Handle, cfg.Bluesky.AppPassword, httpClient, a.logger))
	}
	if cfg.MQTT.Enabled() {
		m := publish.NewMQTT(publish.MQTTOptions{
			Broker:   cfg.MQTT.Broker,
			Port:     cfg.MQTT.Port,
			Topic:    cfg.MQTT.Topic,
			ClientID: cfg.MQTT.ClientID,
		}, a.logger)
		pubs = append(pubs, m)
		a.closers = append(a.closers, m.Close)
	}
	if len(pubs) == 0 {
		a.logger.Debug("no publishers configured")
	}
	return publish.NewMulti(a.logger, pubs...)
}

func (a *app) close() {
	for _, c := range a.closers {
		c()
	}
}

// interrupted reports whether err only reflects a shutdown signal.
func interrupted(err error) bool {
	return errors.Is(err, context.Canceled)
}
