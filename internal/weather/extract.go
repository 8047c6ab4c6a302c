package weather

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"
	_ "time/tzdata"

	"github.com/go-playground/validator/v10"

	"github.com/i474232898/metar-weather-bot/internal/metar"
)

// StationZone is the zone observation times are rendered in.
const StationZone = "America/Los_Angeles"

// reportHeaderLayout is the timestamp on the first line of a NOAA station file.
const reportHeaderLayout = "2006/01/02 15:04"

var (
	// ErrNoObservation is returned when the report text has no encoded line.
	ErrNoObservation = errors.New("report has no observation line")

	validate = validator.New()
)

// StationLocation loads StationZone from the embedded zone database.
func StationLocation() (*time.Location, error) {
	loc, err := time.LoadLocation(StationZone)
	if err != nil {
		return nil, fmt.Errorf("loading %s: %w", StationZone, err)
	}
	return loc, nil
}

// RawReport is a NOAA station file split into its two lines.
type RawReport struct {
	// Issued is the UTC header timestamp, zero if it could not be read.
	Issued  time.Time
	Encoded string
}

// SplitReport separates the header line from the encoded observation, which
// is always the second line.
func SplitReport(text string) (RawReport, error) {
	lines := strings.Split(text, "\n")
	if len(lines) < 2 || strings.TrimSpace(lines[1]) == "" {
		return RawReport{}, ErrNoObservation
	}
	var rr RawReport
	if issued, err := time.ParseInLocation(reportHeaderLayout, strings.TrimSpace(lines[0]), time.UTC); err == nil {
		rr.Issued = issued
	}
	rr.Encoded = strings.TrimSpace(lines[1])
	return rr, nil
}

// FromReport selects the display fields off a decoded report. Runway and
// precipitation are left nil unless the report carries them, and the
// observation time is treated as UTC and converted into loc.
func FromReport(r *metar.Report, loc *time.Location) Observation {
	obs := Observation{
		Wind:       str(r.WindText()),
		Visibility: str(r.VisibilityText()),
		Sky:        str(r.SkyText()),
		LocalTime:  LocalTime{r.Time.UTC().In(loc)},
	}
	if r.Temperature != nil {
		obs.Temperature = str(r.Temperature.Format("F"))
	}
	if r.DewPoint != nil {
		obs.DewPoint = str(r.DewPoint.Format("F"))
	}
	if r.Pressure != nil {
		obs.Pressure = str(r.Pressure.String())
	}
	if len(r.Runways) > 0 {
		obs.Runway = str(r.RunwayText())
	}
	if r.Precip1Hr != nil {
		obs.Precipitation = str(r.Precip1Hr.String())
	}
	return obs
}

// DecodeAirQuality decodes an AirNow observation array.
func DecodeAirQuality(b []byte) ([]AirQualityReading, error) {
	var readings []AirQualityReading
	if err := json.Unmarshal(b, &readings); err != nil {
		return nil, fmt.Errorf("decoding air quality: %w", err)
	}
	return readings, nil
}

// SelectPM25 returns the first well-formed PM2.5 reading. A missing or
// malformed entry is not an error; the message simply omits the AQI line.
func SelectPM25(readings []AirQualityReading) (AirQualityReading, bool) {
	for _, r := range readings {
		if !r.IsPM25() {
			continue
		}
		if err := validate.Struct(r); err != nil {
			continue
		}
		return r, true
	}
	return AirQualityReading{}, false
}
