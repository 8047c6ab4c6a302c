package weather

import (
	"encoding/json"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/i474232898/metar-weather-bot/internal/metar"
)

const noaaFile = "2024/03/01 22:53\nKLAX 012253Z 02008KT 10SM CLR 22/12 A3000 RMK AO2 SLP158 T02220122\n"

func TestSplitReport(t *testing.T) {
	rr, err := SplitReport(noaaFile)
	if err != nil {
		t.Fatalf("SplitReport() = %v; want nil", err)
	}
	if want := time.Date(2024, time.March, 1, 22, 53, 0, 0, time.UTC); !rr.Issued.Equal(want) {
		t.Errorf("Issued = %v; want %v", rr.Issued, want)
	}
	if !strings.HasPrefix(rr.Encoded, "KLAX 012253Z") {
		t.Errorf("Encoded = %q; want the second line", rr.Encoded)
	}

	t.Run("header only", func(t *testing.T) {
		_, err := SplitReport("2024/03/01 22:53\n")
		if !errors.Is(err, ErrNoObservation) {
			t.Errorf("SplitReport() = %v; want ErrNoObservation", err)
		}
	})

	t.Run("unreadable header", func(t *testing.T) {
		rr, err := SplitReport("garbage\nKLAX 012253Z 02008KT")
		if err != nil {
			t.Fatalf("SplitReport() = %v; want nil", err)
		}
		if !rr.Issued.IsZero() {
			t.Errorf("Issued = %v; want zero", rr.Issued)
		}
	})
}

func TestFromReport(t *testing.T) {
	loc, err := StationLocation()
	if err != nil {
		t.Fatalf("StationLocation() = %v", err)
	}
	rr, err := SplitReport(noaaFile)
	if err != nil {
		t.Fatal(err)
	}
	rep, err := metar.Parse(rr.Encoded, rr.Issued)
	if err != nil {
		t.Fatalf("metar.Parse() = %v", err)
	}

	obs := FromReport(rep, loc)

	checks := map[string]*string{
		"temperature": obs.Temperature,
		"dewpoint":    obs.DewPoint,
		"wind":        obs.Wind,
		"visibility":  obs.Visibility,
		"pressure":    obs.Pressure,
		"sky":         obs.Sky,
	}
	want := map[string]string{
		"temperature": "72°F",
		"dewpoint":    "54°F",
		"wind":        "NNE at 8kt",
		"visibility":  "10sm",
		"pressure":    "1016mb",
		"sky":         "clear",
	}
	for k, got := range checks {
		if got == nil || *got != want[k] {
			t.Errorf("%s = %v; want %q", k, got, want[k])
		}
	}
	if obs.Runway != nil {
		t.Errorf("runway = %q; want nil", *obs.Runway)
	}
	if obs.Precipitation != nil {
		t.Errorf("precipitation = %q; want nil", *obs.Precipitation)
	}

	if got := obs.LocalTime.Format(LocalTimeLayout); got != "2024-03-01 14:53:00-0800" {
		t.Errorf("local_time = %q; want 2024-03-01 14:53:00-0800", got)
	}
	if obs.LocalTime.Location().String() != StationZone {
		t.Errorf("local_time zone = %s; want %s", obs.LocalTime.Location(), StationZone)
	}
}

func TestObservationJSON(t *testing.T) {
	temp := "72°F"
	obs := Observation{
		Temperature: &temp,
		LocalTime:   LocalTime{time.Date(2024, time.July, 4, 9, 5, 0, 0, time.FixedZone("", -7*3600))},
	}

	b, err := json.Marshal(obs)
	if err != nil {
		t.Fatalf("Marshal() = %v", err)
	}

	var raw map[string]any
	if err := json.Unmarshal(b, &raw); err != nil {
		t.Fatal(err)
	}
	for _, k := range []string{"temperature", "dewpoint", "wind", "visibility", "runway", "pressure", "sky", "precipitation", "local_time"} {
		if _, ok := raw[k]; !ok {
			t.Errorf("key %q missing from %s", k, b)
		}
	}
	if len(raw) != 9 {
		t.Errorf("got %d keys; want 9", len(raw))
	}
	if raw["wind"] != nil {
		t.Errorf("wind = %v; want null", raw["wind"])
	}
	if raw["local_time"] != "2024-07-04 09:05:00-0700" {
		t.Errorf("local_time = %v; want 2024-07-04 09:05:00-0700", raw["local_time"])
	}
}

func TestLocalTimeUnmarshal(t *testing.T) {
	tests := []struct {
		in      string
		want    string
		wantErr bool
	}{
		{in: `"2024-03-01 14:32:00-0800"`, want: "2024-03-01T14:32:00-08:00"},
		{in: `"2024-03-01 14:32:00-08:00"`, want: "2024-03-01T14:32:00-08:00"},
		{in: `"2024-03-01T14:32:00Z"`, wantErr: true},
		{in: `42`, wantErr: true},
	}
	for _, tt := range tests {
		var lt LocalTime
		err := json.Unmarshal([]byte(tt.in), &lt)
		if tt.wantErr {
			if err == nil {
				t.Errorf("Unmarshal(%s) = nil; want error", tt.in)
			}
			continue
		}
		if err != nil {
			t.Errorf("Unmarshal(%s) = %v; want nil", tt.in, err)
			continue
		}
		if got := lt.Format(time.RFC3339); got != tt.want {
			t.Errorf("Unmarshal(%s) = %s; want %s", tt.in, got, tt.want)
		}
	}
}

func TestSelectPM25(t *testing.T) {
	payload := []byte(`[
		{"DateObserved":"2024-03-01 ","HourObserved":14,"ReportingArea":"SW Coastal LA","ParameterName":"O3","AQI":30,"Category":{"Number":1,"Name":"Good"}},
		{"DateObserved":"2024-03-01 ","HourObserved":14,"ReportingArea":"SW Coastal LA","ParameterName":"PM2.5","AQI":57,"Category":{"Number":2,"Name":"Moderate"}}
	]`)
	readings, err := DecodeAirQuality(payload)
	if err != nil {
		t.Fatalf("DecodeAirQuality() = %v", err)
	}

	r, ok := SelectPM25(readings)
	if !ok {
		t.Fatal("SelectPM25() found nothing; want the PM2.5 entry")
	}
	if r.AQI != 57 || r.Category.Number != 2 {
		t.Errorf("SelectPM25() = %+v; want AQI 57 category 2", r)
	}

	t.Run("no pm2.5", func(t *testing.T) {
		if _, ok := SelectPM25(readings[:1]); ok {
			t.Error("SelectPM25(ozone only) = ok; want not found")
		}
	})

	t.Run("malformed entry", func(t *testing.T) {
		bad := []AirQualityReading{{ParameterName: "PM2.5", AQI: -1, Category: AirQualityCategory{Number: 1}}}
		if _, ok := SelectPM25(bad); ok {
			t.Error("SelectPM25(negative AQI) = ok; want not found")
		}
	})

	t.Run("empty", func(t *testing.T) {
		if _, ok := SelectPM25(nil); ok {
			t.Error("SelectPM25(nil) = ok; want not found")
		}
	})
}

func TestDecodeAirQuality_invalid(t *testing.T) {
	if _, err := DecodeAirQuality([]byte(`{"error":"bad key"}`)); err == nil {
		t.Error("DecodeAirQuality(object) = nil; want error")
	}
}

func TestCategoryValid(t *testing.T) {
	for n := -1; n <= 8; n++ {
		want := n >= 1 && n <= 6
		if got := (AirQualityCategory{Number: n}).Valid(); got != want {
			t.Errorf("Category{%d}.Valid() = %v; want %v", n, got, want)
		}
	}
}
