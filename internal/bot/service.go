// Package bot runs the fetch, compose and post stages against the flat-file store.
package bot

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"time"

	"github.com/i474232898/metar-weather-bot/internal/compose"
	"github.com/i474232898/metar-weather-bot/internal/metar"
	"github.com/i474232898/metar-weather-bot/internal/publish"
	"github.com/i474232898/metar-weather-bot/internal/store"
	"github.com/i474232898/metar-weather-bot/internal/weather"
)

// ErrAirQualityDisabled is returned when no air-quality source is configured.
var ErrAirQualityDisabled = errors.New("air quality source not configured")

type Deps struct {
	Reports    weather.ReportSource
	Images     weather.ImageSource
	AirQuality weather.AirQualitySource // optional
	Store      weather.Store
	Composer   *compose.Composer
	Publisher  publish.Publisher
	Logger     *slog.Logger

	// AltText describes the webcam image to screen readers.
	AltText string
	// Location defaults to the station's zone.
	Location *time.Location
	Now      func() time.Time
}

// Service coordinates sources, the flat-file store, the composer and the publisher.
type Service struct {
	deps   Deps
	logger *slog.Logger
}

func NewService(deps Deps) (*Service, error) {
	if deps.Store == nil {
		return nil, errors.New("bot: store is required")
	}
	if deps.Composer == nil {
		return nil, errors.New("bot: composer is required")
	}
	if deps.Logger == nil {
		deps.Logger = slog.Default()
	}
	if deps.Location == nil {
		loc, err := weather.StationLocation()
		if err != nil {
			return nil, err
		}
		deps.Location = loc
	}
	if deps.Now == nil {
		deps.Now = time.Now
	}
	return &Service{deps: deps, logger: deps.Logger}, nil
}

// FetchReport downloads the latest report, keeps the raw text and stores the
// decoded observation.
func (s *Service) FetchReport(ctx context.Context) (weather.Observation, error) {
	if s.deps.Reports == nil {
		return weather.Observation{}, errors.New("bot: report source not configured")
	}
	s.logger.Info("🌡️ Downloading METAR report")

	text, err := s.deps.Reports.Fetch(ctx)
	if err != nil {
		return weather.Observation{}, fmt.Errorf("fetching report: %w", err)
	}
	if err := s.deps.Store.SaveRawReport(text); err != nil {
		return weather.Observation{}, err
	}

	raw, err := weather.SplitReport(text)
	if err != nil {
		return weather.Observation{}, err
	}
	ref := raw.Issued
	if ref.IsZero() {
		ref = s.deps.Now()
	}

	report, err := metar.Parse(raw.Encoded, ref)
	if err != nil {
		return weather.Observation{}, fmt.Errorf("parsing report: %w", err)
	}

	obs := weather.FromReport(report, s.deps.Location)
	if err := s.deps.Store.SaveObservation(obs); err != nil {
		return weather.Observation{}, err
	}
	s.logger.Debug("observation saved", "station", report.Station, "local_time", obs.LocalTime.Format(weather.LocalTimeLayout))
	return obs, nil
}

// FetchImage streams the webcam image into the store.
func (s *Service) FetchImage(ctx context.Context) (int64, error) {
	if s.deps.Images == nil {
		return 0, errors.New("bot: image source not configured")
	}
	s.logger.Info("📸 Downloading latest photo")

	var n int64
	err := s.deps.Store.SaveImage(func(w io.Writer) error {
		var err error
		n, err = s.deps.Images.Download(ctx, w)
		return err
	})
	if err != nil {
		return 0, fmt.Errorf("fetching image: %w", err)
	}
	s.logger.Debug("image saved", "bytes", n)
	return n, nil
}

// FetchAirQuality stores the raw air-quality payload once it decodes; a
// malformed payload leaves the previous snapshot in place.
func (s *Service) FetchAirQuality(ctx context.Context) error {
	if s.deps.AirQuality == nil {
		return ErrAirQualityDisabled
	}
	s.logger.Info("🟢 Downloading air quality")

	raw, err := s.deps.AirQuality.Fetch(ctx)
	if err != nil {
		return fmt.Errorf("fetching air quality: %w", err)
	}
	readings, err := weather.DecodeAirQuality(raw)
	if err != nil {
		return err
	}
	if err := s.deps.Store.SaveAirQuality(raw); err != nil {
		return err
	}
	if _, ok := weather.SelectPM25(readings); !ok {
		s.logger.Warn("air quality payload has no usable PM2.5 reading", "readings", len(readings))
	}
	return nil
}

// Observation returns the stored observation.
func (s *Service) Observation() (weather.Observation, error) {
	return s.deps.Store.LoadObservation()
}

// AirQuality returns the stored PM2.5 reading, or nil when there is none. A
// missing or malformed snapshot is logged rather than returned.
func (s *Service) AirQuality() *weather.AirQualityReading {
	readings, err := s.deps.Store.LoadAirQuality()
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			s.logger.Info("no air quality snapshot")
		} else {
			s.logger.Warn("air quality snapshot unreadable", "error", err)
		}
		return nil
	}
	r, ok := weather.SelectPM25(readings)
	if !ok {
		return nil
	}
	return &r
}

// Image returns the stored webcam image.
func (s *Service) Image() ([]byte, error) {
	return s.deps.Store.LoadImage()
}

// Compose builds the message from the stored snapshots. A positive
// aqiThreshold overrides the composer's configured one.
func (s *Service) Compose(aqiThreshold int) (string, error) {
	return s.compose(aqiThreshold, s.AirQuality())
}

func (s *Service) compose(aqiThreshold int, aq *weather.AirQualityReading) (string, error) {
	obs, err := s.deps.Store.LoadObservation()
	if err != nil {
		return "", fmt.Errorf("loading observation: %w", err)
	}
	return s.deps.Composer.WithAQIThreshold(aqiThreshold).Compose(obs, aq), nil
}

// Post composes the message from the stored snapshots and publishes it with
// the stored image.
func (s *Service) Post(ctx context.Context) error {
	return s.post(ctx, s.AirQuality())
}

// post publishes with aq as the air-quality reading; nil leaves the AQI line out.
func (s *Service) post(ctx context.Context, aq *weather.AirQualityReading) error {
	if s.deps.Publisher == nil {
		return publish.ErrNoPublishers
	}
	text, err := s.compose(0, aq)
	if err != nil {
		return err
	}
	image, err := s.deps.Store.LoadImage()
	if err != nil {
		return fmt.Errorf("loading image: %w", err)
	}

	s.logger.Info("posting", "publisher", s.deps.Publisher.Name(), "length", len([]rune(text)))
	return s.deps.Publisher.Post(ctx, text, image, s.deps.AltText)
}

// RunAll runs every stage in order. Air quality is optional: when this run
// could not fetch it the message goes out without the AQI line, even if an
// older snapshot is still stored.
func (s *Service) RunAll(ctx context.Context) error {
	if _, err := s.FetchReport(ctx); err != nil {
		return err
	}
	if _, err := s.FetchImage(ctx); err != nil {
		return err
	}

	var aq *weather.AirQualityReading
	if err := s.FetchAirQuality(ctx); err != nil {
		if errors.Is(err, ErrAirQualityDisabled) {
			s.logger.Info("air quality disabled, skipping")
		} else {
			s.logger.Warn("air quality fetch failed, posting without it", "error", err)
		}
	} else {
		aq = s.AirQuality()
	}
	return s.post(ctx, aq)
}
