package metar

import (
	"fmt"
	"math"
	"strconv"
	"strings"
)

const hPaPerInHg = 33.8639

// Visibility units.
const (
	UnitStatuteMiles = "SM"
	UnitMetres       = "M"
)

var compassPoints = [16]string{
	"N", "NNE", "NE", "ENE", "E", "ESE", "SE", "SSE",
	"S", "SSW", "SW", "WSW", "W", "WNW", "NW", "NNW",
}

// Compass returns the 16-point abbreviation for a direction in degrees.
func Compass(degrees int) string {
	d := ((degrees % 360) + 360) % 360
	return compassPoints[int(math.Floor((float64(d)+11.25)/22.5))%16]
}

type Wind struct {
	Direction int
	Variable  bool
	Speed     int
	Gust      int
	// Unit is KT, MPS or KMH as reported.
	Unit string

	Varying          bool
	VaryFrom, VaryTo int
}

func (w Wind) Calm() bool {
	return w.Speed == 0 && w.Gust == 0
}

func (w Wind) String() string {
	if w.Calm() {
		return "calm"
	}
	dir := "variable"
	if !w.Variable {
		dir = Compass(w.Direction)
	}
	unit := speedUnit(w.Unit)
	s := fmt.Sprintf("%s at %d%s", dir, w.Speed, unit)
	if w.Gust > 0 {
		s += fmt.Sprintf(", gusting to %d%s", w.Gust, unit)
	}
	if w.Varying {
		s += fmt.Sprintf(", varying from %s to %s", Compass(w.VaryFrom), Compass(w.VaryTo))
	}
	return s
}

func speedUnit(u string) string {
	switch u {
	case "MPS":
		return "mps"
	case "KMH":
		return "km/h"
	default:
		return "kt"
	}
}

type Visibility struct {
	Distance float64
	Unit     string
	// Qualifier is "P" (more than) or "M" (less than) for statute miles.
	Qualifier string
	// Text is the distance as reported, e.g. "1 1/2".
	Text  string
	CAVOK bool
}

func (v Visibility) String() string {
	if v.CAVOK {
		return "10km"
	}
	if v.Unit == UnitMetres {
		if v.Distance >= 9999 {
			return "10km"
		}
		return fmt.Sprintf("%dm", int(v.Distance))
	}
	return qualifier(v.Qualifier) + v.Text + "sm"
}

type RunwayRange struct {
	Runway        string
	Low, High     int
	LowQualifier  string
	HighQualifier string
	Varying       bool
	// Unit is "ft" or "m".
	Unit string
}

func (r RunwayRange) String() string {
	if r.Varying {
		return fmt.Sprintf("runway %s from %s%d%s to %s%d%s",
			r.Runway, qualifier(r.LowQualifier), r.Low, r.Unit, qualifier(r.HighQualifier), r.High, r.Unit)
	}
	return fmt.Sprintf("runway %s at %s%d%s", r.Runway, qualifier(r.LowQualifier), r.Low, r.Unit)
}

func qualifier(q string) string {
	switch q {
	case "P":
		return "more than "
	case "M":
		return "less than "
	default:
		return ""
	}
}

type SkyLayer struct {
	Cover       string
	Height      int
	HeightKnown bool
	// Cloud is CB or TCU when reported.
	Cloud string
}

var skyCover = map[string]string{
	"FEW": "few clouds",
	"SCT": "scattered clouds",
	"BKN": "broken clouds",
	"OVC": "overcast",
	"VV":  "vertical visibility",
}

var cloudTypes = map[string]string{
	"CB":  "cumulonimbus",
	"TCU": "towering cumulus",
}

func (l SkyLayer) String() string {
	s := skyCover[l.Cover]
	if l.HeightKnown {
		if l.Cover == "VV" {
			s += fmt.Sprintf(" %dft", l.Height)
		} else {
			s += fmt.Sprintf(" at %dft", l.Height)
		}
	}
	if c, ok := cloudTypes[l.Cloud]; ok {
		s += " (" + c + ")"
	}
	return s
}

type Temperature struct {
	Celsius float64
}

func (t Temperature) Fahrenheit() float64 {
	return t.Celsius*9/5 + 32
}

// Format renders the temperature rounded to whole degrees in unit "F" or "C".
func (t Temperature) Format(unit string) string {
	v := t.Celsius
	if strings.EqualFold(unit, "F") {
		v = t.Fahrenheit()
	}
	return fmt.Sprintf("%d°%s", roundInt(v), strings.ToUpper(unit))
}

type Pressure struct {
	HPa float64
}

// String renders the pressure in whole millibars.
func (p Pressure) String() string {
	return fmt.Sprintf("%dmb", roundInt(p.HPa))
}

type Precipitation struct {
	Inches float64
	// Trace is set for P0000, measurable but below one hundredth of an inch.
	Trace bool
}

// String renders the amount in hundredths of an inch.
func (p Precipitation) String() string {
	if p.Trace {
		return "trace"
	}
	return strconv.FormatFloat(p.Inches, 'f', 2, 64) + "in"
}

// WindText describes the wind, e.g. "NNE at 8kt". Empty when not reported.
func (r *Report) WindText() string {
	if r.Wind == nil {
		return ""
	}
	return r.Wind.String()
}

func (r *Report) VisibilityText() string {
	if r.Visibility == nil {
		return ""
	}
	return r.Visibility.String()
}

func (r *Report) RunwayText() string {
	parts := make([]string, 0, len(r.Runways))
	for _, rr := range r.Runways {
		parts = append(parts, rr.String())
	}
	return strings.Join(parts, "; ")
}

// SkyText joins the cloud layers, or returns "clear" for CLR/SKC/CAVOK.
func (r *Report) SkyText() string {
	if len(r.Sky) == 0 {
		if r.Clear {
			return "clear"
		}
		return ""
	}
	parts := make([]string, 0, len(r.Sky))
	for _, l := range r.Sky {
		parts = append(parts, l.String())
	}
	return strings.Join(parts, "; ")
}

func roundInt(v float64) int {
	return int(math.Round(v))
}
