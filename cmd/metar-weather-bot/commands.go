package main

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/spf13/cobra"

	httpapi "github.com/i474232898/metar-weather-bot/internal/api/http"
	"github.com/i474232898/metar-weather-bot/internal/scheduler"
)

func fetchReportCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:     "fetch-report",
		Aliases: []string{"metar"},
		Short:   "Download the latest METAR weather report.",
		Args:    cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			_, err := a.service.FetchReport(cmd.Context())
			return err
		},
	}
}

func fetchImageCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:     "fetch-image",
		Aliases: []string{"abc7"},
		Short:   "Download the ABC7 live camera image.",
		Args:    cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			_, err := a.service.FetchImage(cmd.Context())
			return err
		},
	}
}

func fetchAirQualityCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:     "fetch-air-quality",
		Aliases: []string{"airnow"},
		Short:   "Download current AirNow observations.",
		Args:    cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.service.FetchAirQuality(cmd.Context())
		},
	}
}

func postCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:     "compose-and-post",
		Aliases: []string{"post"},
		Short:   "Compose the message from the latest snapshots and post it.",
		Args:    cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.service.Post(cmd.Context())
		},
	}
}

func previewCmd(a *app) *cobra.Command {
	var threshold int
	cmd := &cobra.Command{
		Use:   "preview",
		Short: "Print the composed message without posting it.",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			text, err := a.service.Compose(threshold)
			if err != nil {
				return err
			}
			_, err = fmt.Fprintln(cmd.OutOrStdout(), text)
			return err
		},
	}
	cmd.Flags().IntVar(&threshold, "aqi-threshold", 0, "override AQI_LENGTH_THRESHOLD")
	return cmd
}

func scheduleCmd(a *app) *cobra.Command {
	var runNow bool
	cmd := &cobra.Command{
		Use:   "schedule",
		Short: "Run the whole pipeline on SCHEDULE_CRON until interrupted.",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			if runNow {
				if err := a.service.RunAll(ctx); err != nil && !interrupted(err) {
					a.logger.Error("initial run failed", "error", err)
				}
			}

			sched := scheduler.New(a.cfg.ScheduleCron, a.service, a.logger)
			if err := sched.Start(); err != nil {
				return fmt.Errorf("failed to start scheduler: %w", err)
			}
			defer sched.Stop()

			<-ctx.Done()
			a.logger.Info("shutting down")
			return nil
		},
	}
	cmd.Flags().BoolVar(&runNow, "run-now", false, "run the pipeline once before waiting for the schedule")
	return cmd
}

func serveCmd(a *app) *cobra.Command {
	var withScheduler bool
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve the latest snapshots and message preview over HTTP.",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()

			if withScheduler {
				sched := scheduler.New(a.cfg.ScheduleCron, a.service, a.logger)
				if err := sched.Start(); err != nil {
					return fmt.Errorf("failed to start scheduler: %w", err)
				}
				defer sched.Stop()
			}

			srv := httpapi.NewApp(appName,
				logger.New(logger.Config{Output: os.Stderr}),
				recover.New(),
			)
			httpapi.RegisterRoutes(srv, a.service)

			errCh := make(chan error, 1)
			go func() {
				a.logger.Info("http server listening", "port", a.cfg.Port)
				errCh <- srv.Listen(":" + a.cfg.Port)
			}()

			select {
			case err := <-errCh:
				return fmt.Errorf("http server stopped: %w", err)
			case <-ctx.Done():
			}

			shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
			defer cancel()
			if err := srv.ShutdownWithContext(shutdownCtx); err != nil {
				a.logger.Error("error during shutdown", "error", err)
			}
			return nil
		},
	}
	cmd.Flags().BoolVar(&withScheduler, "with-scheduler", false, "also run the pipeline on SCHEDULE_CRON")
	return cmd
}
