package providers

import (
	"context"
	"io"
	"log/slog"
)

const DefaultWebcamURL = "https://cdns.abclocal.go.com/three/kabc/webcam/web1-2.jpg?w=630&r=16%3A9"

// Webcam downloads the latest still from the station camera.
type Webcam struct {
	url     string
	fetcher *Fetcher
}

func NewWebcam(url string, cfg HTTPClientConfig, logger *slog.Logger) *Webcam {
	if url == "" {
		url = DefaultWebcamURL
	}
	return &Webcam{url: url, fetcher: NewFetcher("webcam", cfg, logger)}
}

// Download streams the image into w and returns the number of bytes written.
func (c *Webcam) Download(ctx context.Context, w io.Writer) (int64, error) {
	return c.fetcher.Stream(ctx, c.url, w)
}
