// Package compose turns an observation into the text of a social post.
package compose

import (
	"fmt"
	"log/slog"
	"strings"
	"unicode/utf8"

	"github.com/i474232898/metar-weather-bot/internal/common"
	"github.com/i474232898/metar-weather-bot/internal/weather"
)

const (
	DefaultStation  = "LAX"
	DefaultHashtags = "#CAwx"
	// DefaultAQIThreshold is the length, in characters, the message must stay
	// under for the AQI line to be appended.
	DefaultAQIThreshold = 250

	headerTimeLayout = "3:04 PM"
)

const (
	glyphThermometer = "🌡️"
	glyphFog         = "🌫️"
	glyphWind        = "🌬️"
	glyphTelescope   = "🔭"
	glyphCloud       = "☁️"
	glyphStopwatch   = "⏱️"
	glyphStorm       = "⛈️"
	glyphRain        = "🌧️"
	glyphSnow        = "🌨️"
)

// aqiGlyphs maps AirNow category numbers to their colour.
var aqiGlyphs = map[int]string{
	1: "🟢", // green
	2: "🟡", // yellow
	3: "🟠", // orange
	4: "🔴", // red
	5: "🟣", // purple
	6: "🟤", // maroon
}

// precipitationGlyphs is checked in order; the first matching rule wins.
var precipitationGlyphs = []struct {
	glyph string
	words []string
}{
	{glyphStorm, []string{"thunder"}},
	{glyphRain, []string{"drizzle", "rain"}},
	{glyphSnow, []string{"snow", "ice"}},
}

type Options struct {
	Station      string
	Hashtags     string
	AQIThreshold int
}

type Composer struct {
	opts   Options
	logger *slog.Logger
}

// New returns a Composer; zero-valued options fall back to the defaults.
func New(opts Options, logger *slog.Logger) *Composer {
	if opts.Station == "" {
		opts.Station = DefaultStation
	}
	if opts.Hashtags == "" {
		opts.Hashtags = DefaultHashtags
	}
	if opts.AQIThreshold <= 0 {
		opts.AQIThreshold = DefaultAQIThreshold
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Composer{opts: opts, logger: logger}
}

// WithAQIThreshold returns a copy of c using threshold when it is positive.
func (c *Composer) WithAQIThreshold(threshold int) *Composer {
	if threshold <= 0 {
		return c
	}
	cp := *c
	cp.opts.AQIThreshold = threshold
	return &cp
}

// Compose builds the post text. aqi may be nil. Fields missing from obs are
// skipped, and the AQI line is dropped rather than truncating anything.
func (c *Composer) Compose(obs weather.Observation, aqi *weather.AirQualityReading) string {
	var b strings.Builder
	fmt.Fprintf(&b, "%s at %s\n\n", c.opts.Station, obs.LocalTime.Format(headerTimeLayout))

	lines := bodyLines(obs)
	b.WriteString(strings.Join(lines, "\n"))

	if line, ok := c.airQualityLine(b.String(), aqi); ok {
		if len(lines) > 0 {
			b.WriteString("\n")
		}
		b.WriteString(line)
		lines = append(lines, line)
	}

	if len(lines) > 0 {
		b.WriteString("\n\n")
	}
	b.WriteString(c.opts.Hashtags)
	return b.String()
}

func bodyLines(obs weather.Observation) []string {
	var lines []string
	add := func(v *string, format func(string) string) {
		if v == nil {
			return
		}
		lines = append(lines, format(*v))
	}

	add(obs.Temperature, func(v string) string {
		return glyphThermometer + " " + v
	})
	add(obs.DewPoint, func(v string) string {
		return glyphFog + " " + v + " dew point"
	})
	add(obs.Wind, func(v string) string {
		return glyphWind + " " + ExpandWind(v)
	})
	add(obs.Visibility, func(v string) string {
		return glyphTelescope + " " + v + " visibility"
	})
	add(obs.Sky, func(v string) string {
		return glyphCloud + " " + common.UpperFirst(v)
	})
	add(obs.Pressure, func(v string) string {
		return glyphStopwatch + " " + v + " air pressure"
	})
	add(obs.Precipitation, func(v string) string {
		v = common.UpperFirst(v)
		return PrecipitationGlyph(v) + " " + v
	})
	return lines
}

func (c *Composer) airQualityLine(soFar string, aqi *weather.AirQualityReading) (string, bool) {
	if aqi == nil {
		c.logger.Info("no PM2.5 air quality reading, skipping AQI line")
		return "", false
	}
	glyph, ok := aqiGlyphs[aqi.Category.Number]
	if !ok {
		c.logger.Warn("air quality category has no colour, skipping AQI line",
			"category", aqi.Category.Number,
			"aqi", aqi.AQI,
		)
		return "", false
	}
	if n := utf8.RuneCountInString(soFar); n >= c.opts.AQIThreshold {
		c.logger.Info("message too long for AQI line",
			"length", n,
			"threshold", c.opts.AQIThreshold,
		)
		return "", false
	}
	return fmt.Sprintf("%s %d AQI", glyph, aqi.AQI), true
}

// PrecipitationGlyph picks the icon for a precipitation description,
// falling back to rain.
func PrecipitationGlyph(text string) string {
	for _, rule := range precipitationGlyphs {
		if common.HasAnyFold(text, rule.words...) {
			return rule.glyph
		}
	}
	return glyphRain
}
