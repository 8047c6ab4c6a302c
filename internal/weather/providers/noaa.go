package providers

import (
	"context"
	"log/slog"
)

const DefaultMETARURL = "https://tgftp.nws.noaa.gov/data/observations/metar/stations/KLAX.TXT"

// NOAA downloads the station's latest report from the NWS text service.
type NOAA struct {
	url     string
	fetcher *Fetcher
}

func NewNOAA(url string, cfg HTTPClientConfig, logger *slog.Logger) *NOAA {
	if url == "" {
		url = DefaultMETARURL
	}
	return &NOAA{url: url, fetcher: NewFetcher("noaa", cfg, logger)}
}

// Fetch returns the two-line report file: issue time, then the encoded METAR.
func (n *NOAA) Fetch(ctx context.Context) (string, error) {
	return n.fetcher.Text(ctx, n.url)
}
