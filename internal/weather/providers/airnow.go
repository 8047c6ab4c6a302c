package providers

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/url"
	"strconv"
)

const (
	DefaultAirNowURL      = "https://www.airnowapi.org/aq/observation/zipCode/current/"
	DefaultAirNowZIP      = "90045"
	DefaultAirNowDistance = 25
)

var errAirNowKeyMissing = errors.New("airnow: API key not configured")

type AirNowConfig struct {
	BaseURL  string
	APIKey   string
	ZIPCode  string
	Distance int
}

// AirNow fetches current observations for a ZIP code. The body is returned
// verbatim so it can be persisted as-is.
type AirNow struct {
	cfg     AirNowConfig
	fetcher *Fetcher
}

func NewAirNow(cfg AirNowConfig, httpCfg HTTPClientConfig, logger *slog.Logger) *AirNow {
	if cfg.BaseURL == "" {
		cfg.BaseURL = DefaultAirNowURL
	}
	if cfg.ZIPCode == "" {
		cfg.ZIPCode = DefaultAirNowZIP
	}
	if cfg.Distance <= 0 {
		cfg.Distance = DefaultAirNowDistance
	}
	return &AirNow{cfg: cfg, fetcher: NewFetcher("airnow", httpCfg, logger)}
}

func (a *AirNow) Fetch(ctx context.Context) ([]byte, error) {
	if a.cfg.APIKey == "" {
		return nil, errAirNowKeyMissing
	}

	u, err := url.Parse(a.cfg.BaseURL)
	if err != nil {
		return nil, fmt.Errorf("airnow: invalid base URL: %w", err)
	}
	values := u.Query()
	values.Set("format", "application/json")
	values.Set("zipCode", a.cfg.ZIPCode)
	values.Set("distance", strconv.Itoa(a.cfg.Distance))
	values.Set("API_KEY", a.cfg.APIKey)
	u.RawQuery = values.Encode()

	return a.fetcher.Bytes(ctx, u.String())
}
