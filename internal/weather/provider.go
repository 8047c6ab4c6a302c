package weather

import (
	"context"
	"io"
)

// ReportSource returns the raw text of the station's latest METAR file.
type ReportSource interface {
	Fetch(ctx context.Context) (string, error)
}

// ImageSource streams the latest webcam frame into w.
type ImageSource interface {
	Download(ctx context.Context, w io.Writer) (int64, error)
}

// AirQualitySource returns the raw air-quality JSON payload.
type AirQualitySource interface {
	Fetch(ctx context.Context) ([]byte, error)
}

// Store is the flat-file hand-off between the fetch commands and the post command.
type Store interface {
	SaveRawReport(text string) error
	SaveObservation(obs Observation) error
	LoadObservation() (Observation, error)

	SaveImage(write func(w io.Writer) error) error
	LoadImage() ([]byte, error)

	SaveAirQuality(raw []byte) error
	LoadAirQuality() ([]AirQualityReading, error)
}
