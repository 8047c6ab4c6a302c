// Package metar decodes a single encoded METAR observation into typed
// weather quantities. It covers the groups routinely reported by US
// stations; trend groups and unknown tokens are skipped.
package metar

import (
	"errors"
	"fmt"
	"regexp"
	"strconv"
	"strings"
	"time"
)

// ErrInvalidReport is returned when the mandatory station or time group
// cannot be decoded.
var ErrInvalidReport = errors.New("invalid METAR report")

var (
	stationRE  = regexp.MustCompile(`^[A-Z][A-Z0-9]{3}$`)
	timeRE     = regexp.MustCompile(`^(\d{2})(\d{2})(\d{2})Z$`)
	windRE     = regexp.MustCompile(`^(\d{3}|VRB|///)(\d{2,3}|//)(?:G(\d{2,3}))?(KT|MPS|KMH)$`)
	windVarRE  = regexp.MustCompile(`^(\d{3})V(\d{3})$`)
	visSMRE    = regexp.MustCompile(`^([PM])?(\d{1,2}|\d{1,2}/\d{1,2})SM$`)
	visWholeRE = regexp.MustCompile(`^\d$`)
	visMetreRE = regexp.MustCompile(`^(\d{4})(NDV)?$`)
	runwayRE   = regexp.MustCompile(`^R(\d{2}[LCR]?)/([PM])?(\d{4})(?:V([PM])?(\d{4}))?(FT)?(?:/?[UDN])?$`)
	skyRE      = regexp.MustCompile(`^(FEW|SCT|BKN|OVC|VV)(\d{3}|///)(CB|TCU)?$`)
	clearRE    = regexp.MustCompile(`^(CLR|SKC|NSC|NCD)$`)
	tempRE     = regexp.MustCompile(`^(M?\d{2}|//)/(M?\d{2}|//)?$`)
	pressRE    = regexp.MustCompile(`^([AQ])(\d{4})$`)
	precipRE   = regexp.MustCompile(`^P(\d{4})$`)
	tenthsRE   = regexp.MustCompile(`^T([01])(\d{3})(?:([01])(\d{3}))?$`)
)

// Report is one decoded observation. Optional groups that were not
// reported are nil (or empty for slices).
type Report struct {
	Raw     string
	Station string
	// Time is the observation time in UTC.
	Time time.Time

	Wind       *Wind
	Visibility *Visibility
	Runways    []RunwayRange
	Sky        []SkyLayer
	Clear      bool

	Temperature *Temperature
	DewPoint    *Temperature
	Pressure    *Pressure
	Precip1Hr   *Precipitation
}

// Parse decodes raw. The DDHHMMZ time group carries no month or year, so
// it is anchored to ref: the most recent matching day on or before the day
// after ref.
func Parse(raw string, ref time.Time) (*Report, error) {
	text := strings.TrimSpace(strings.TrimSuffix(strings.TrimSpace(raw), "="))
	tokens := strings.Fields(text)

	r := &Report{Raw: text}

	var remarks []string
	for i, tok := range tokens {
		if tok == "RMK" {
			remarks = tokens[i+1:]
			tokens = tokens[:i]
			break
		}
	}

	i := 0
	if i < len(tokens) && (tokens[i] == "METAR" || tokens[i] == "SPECI") {
		i++
	}
	if i >= len(tokens) || !stationRE.MatchString(tokens[i]) {
		return nil, fmt.Errorf("%w: station group %q", ErrInvalidReport, tokenAt(tokens, i))
	}
	r.Station = tokens[i]
	i++

	m := timeRE.FindStringSubmatch(tokenAt(tokens, i))
	if m == nil {
		return nil, fmt.Errorf("%w: time group %q", ErrInvalidReport, tokenAt(tokens, i))
	}
	t, err := observationTime(atoi(m[1]), atoi(m[2]), atoi(m[3]), ref)
	if err != nil {
		return nil, err
	}
	r.Time = t
	i++

	seenTemp := false
	for ; i < len(tokens); i++ {
		tok := tokens[i]
		switch {
		case tok == "AUTO" || tok == "COR" || tok == "NIL":
		case r.Wind == nil && windRE.MatchString(tok):
			r.Wind = parseWind(windRE.FindStringSubmatch(tok))
		case r.Wind != nil && windVarRE.MatchString(tok):
			vm := windVarRE.FindStringSubmatch(tok)
			r.Wind.VaryFrom, r.Wind.VaryTo = atoi(vm[1]), atoi(vm[2])
			r.Wind.Varying = true
		case tok == "CAVOK":
			r.Visibility = &Visibility{CAVOK: true}
			r.Clear = true
		case r.Visibility == nil && visWholeRE.MatchString(tok) && i+1 < len(tokens) && strings.Contains(tokens[i+1], "/") && visSMRE.MatchString(tokens[i+1]):
			r.Visibility = parseStatuteMiles(tok, visSMRE.FindStringSubmatch(tokens[i+1]))
			i++
		case r.Visibility == nil && visSMRE.MatchString(tok):
			r.Visibility = parseStatuteMiles("", visSMRE.FindStringSubmatch(tok))
		case r.Visibility == nil && visMetreRE.MatchString(tok):
			vm := visMetreRE.FindStringSubmatch(tok)
			r.Visibility = &Visibility{Distance: float64(atoi(vm[1])), Unit: UnitMetres, Text: vm[1]}
		case runwayRE.MatchString(tok):
			r.Runways = append(r.Runways, parseRunway(runwayRE.FindStringSubmatch(tok)))
		case clearRE.MatchString(tok):
			r.Clear = true
		case skyRE.MatchString(tok):
			r.Sky = append(r.Sky, parseSky(skyRE.FindStringSubmatch(tok)))
		case !seenTemp && tempRE.MatchString(tok):
			tm := tempRE.FindStringSubmatch(tok)
			r.Temperature = parseWholeTemp(tm[1])
			r.DewPoint = parseWholeTemp(tm[2])
			seenTemp = true
		case r.Pressure == nil && pressRE.MatchString(tok):
			r.Pressure = parsePressure(pressRE.FindStringSubmatch(tok))
		}
	}

	for _, tok := range remarks {
		switch {
		case r.Precip1Hr == nil && precipRE.MatchString(tok):
			pm := precipRE.FindStringSubmatch(tok)
			hundredths := atoi(pm[1])
			r.Precip1Hr = &Precipitation{Inches: float64(hundredths) / 100, Trace: hundredths == 0}
		case tenthsRE.MatchString(tok):
			tm := tenthsRE.FindStringSubmatch(tok)
			r.Temperature = &Temperature{Celsius: tenths(tm[1], tm[2])}
			if tm[3] != "" {
				r.DewPoint = &Temperature{Celsius: tenths(tm[3], tm[4])}
			}
		}
	}

	return r, nil
}

func observationTime(day, hour, minute int, ref time.Time) (time.Time, error) {
	if day < 1 || day > 31 || hour > 23 || minute > 59 {
		return time.Time{}, fmt.Errorf("%w: time %02d%02d%02dZ out of range", ErrInvalidReport, day, hour, minute)
	}
	ref = ref.UTC()
	t := time.Date(ref.Year(), ref.Month(), day, hour, minute, 0, 0, time.UTC)
	if t.Day() != day || t.After(ref.Add(24*time.Hour)) {
		t = time.Date(ref.Year(), ref.Month()-1, day, hour, minute, 0, 0, time.UTC)
	}
	return t, nil
}

func parseWind(m []string) *Wind {
	if m[1] == "///" || m[2] == "//" {
		return nil
	}
	w := &Wind{Speed: atoi(m[2]), Unit: m[4]}
	if m[1] == "VRB" {
		w.Variable = true
	} else {
		w.Direction = atoi(m[1])
	}
	if m[3] != "" {
		w.Gust = atoi(m[3])
	}
	return w
}

func parseStatuteMiles(whole string, m []string) *Visibility {
	dist := parseFraction(m[2])
	text := m[2]
	if whole != "" {
		dist += float64(atoi(whole))
		text = whole + " " + m[2]
	}
	return &Visibility{Distance: dist, Unit: UnitStatuteMiles, Qualifier: m[1], Text: text}
}

func parseRunway(m []string) RunwayRange {
	unit := "m"
	if m[6] == "FT" {
		unit = "ft"
	}
	rr := RunwayRange{
		Runway:        m[1],
		Low:           atoi(m[3]),
		LowQualifier:  m[2],
		HighQualifier: m[4],
		Unit:          unit,
	}
	if m[5] != "" {
		rr.High = atoi(m[5])
		rr.Varying = true
	}
	return rr
}

func parseSky(m []string) SkyLayer {
	l := SkyLayer{Cover: m[1], Cloud: m[3]}
	if m[2] != "///" {
		l.Height = atoi(m[2]) * 100
		l.HeightKnown = true
	}
	return l
}

func parseWholeTemp(s string) *Temperature {
	if s == "" || s == "//" {
		return nil
	}
	neg := strings.HasPrefix(s, "M")
	v := float64(atoi(strings.TrimPrefix(s, "M")))
	if neg {
		v = -v
	}
	return &Temperature{Celsius: v}
}

func parsePressure(m []string) *Pressure {
	v := float64(atoi(m[2]))
	if m[1] == "A" {
		return &Pressure{HPa: v / 100 * hPaPerInHg}
	}
	return &Pressure{HPa: v}
}

func tenths(sign, digits string) float64 {
	v := float64(atoi(digits)) / 10
	if sign == "1" {
		v = -v
	}
	return v
}

func parseFraction(s string) float64 {
	num, den, ok := strings.Cut(s, "/")
	if !ok {
		return float64(atoi(s))
	}
	d := atoi(den)
	if d == 0 {
		return 0
	}
	return float64(atoi(num)) / float64(d)
}

func atoi(s string) int {
	n, _ := strconv.Atoi(s)
	return n
}

func tokenAt(tokens []string, i int) string {
	if i < 0 || i >= len(tokens) {
		return ""
	}
	return tokens[i]
}
