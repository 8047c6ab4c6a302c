package weather

import (
	"encoding/json"
	"fmt"
	"strings"
	"time"
)

// LocalTimeLayout is the on-disk format of Observation.LocalTime.
const LocalTimeLayout = "2006-01-02 15:04:05-0700"

// legacyLocalTimeLayout is the colon-offset form written by earlier runs.
const legacyLocalTimeLayout = "2006-01-02 15:04:05-07:00"

// LocalTime is an observation time already converted to the station's zone.
type LocalTime struct {
	time.Time
}

func (t LocalTime) MarshalJSON() ([]byte, error) {
	return json.Marshal(t.Format(LocalTimeLayout))
}

func (t *LocalTime) UnmarshalJSON(b []byte) error {
	var s string
	if err := json.Unmarshal(b, &s); err != nil {
		return fmt.Errorf("local_time: %w", err)
	}
	parsed, err := time.Parse(LocalTimeLayout, s)
	if err != nil {
		var legacyErr error
		parsed, legacyErr = time.Parse(legacyLocalTimeLayout, s)
		if legacyErr != nil {
			return fmt.Errorf("local_time %q: %w", s, err)
		}
	}
	t.Time = parsed
	return nil
}

// Observation is the structured snapshot of one METAR report. Every
// display field is optional; nil means the report did not carry it.
type Observation struct {
	Temperature   *string   `json:"temperature"`
	DewPoint      *string   `json:"dewpoint"`
	Wind          *string   `json:"wind"`
	Visibility    *string   `json:"visibility"`
	Runway        *string   `json:"runway"`
	Pressure      *string   `json:"pressure"`
	Sky           *string   `json:"sky"`
	Precipitation *string   `json:"precipitation"`
	LocalTime     LocalTime `json:"local_time"`
}

// AirQualityCategory is the AirNow category block.
type AirQualityCategory struct {
	Number int    `json:"Number" validate:"required"`
	Name   string `json:"Name,omitempty"`
}

// Valid reports whether the category has a defined colour (1 through 6).
func (c AirQualityCategory) Valid() bool {
	return c.Number >= 1 && c.Number <= 6
}

// AirQualityReading is one element of the AirNow current-observation array.
type AirQualityReading struct {
	DateObserved  string             `json:"DateObserved,omitempty"`
	HourObserved  int                `json:"HourObserved,omitempty"`
	LocalTimeZone string             `json:"LocalTimeZone,omitempty"`
	ReportingArea string             `json:"ReportingArea,omitempty"`
	StateCode     string             `json:"StateCode,omitempty"`
	ParameterName string             `json:"ParameterName" validate:"required"`
	AQI           int                `json:"AQI" validate:"gte=0"`
	Category      AirQualityCategory `json:"Category"`
}

// PM25 is the only parameter the message reports.
const PM25 = "PM2.5"

// IsPM25 matches the AirNow parameter name, ignoring case and spacing.
func (r AirQualityReading) IsPM25() bool {
	return strings.EqualFold(strings.TrimSpace(r.ParameterName), PM25)
}

func str(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}
