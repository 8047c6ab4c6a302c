package metar

import (
	"errors"
	"testing"
	"time"
)

var ref = time.Date(2024, time.March, 1, 22, 32, 0, 0, time.UTC)

func TestParse_clearDay(t *testing.T) {
	r, err := Parse("KLAX 012232Z 02008KT 10SM CLR 22/12 A3000 RMK AO2 SLP158 T02220122", ref)
	if err != nil {
		t.Fatalf("Parse() = %v; want nil", err)
	}

	if r.Station != "KLAX" {
		t.Errorf("Station = %q; want KLAX", r.Station)
	}
	if want := time.Date(2024, time.March, 1, 22, 32, 0, 0, time.UTC); !r.Time.Equal(want) {
		t.Errorf("Time = %v; want %v", r.Time, want)
	}
	if got := r.WindText(); got != "NNE at 8kt" {
		t.Errorf("WindText() = %q; want %q", got, "NNE at 8kt")
	}
	if got := r.VisibilityText(); got != "10sm" {
		t.Errorf("VisibilityText() = %q; want %q", got, "10sm")
	}
	if got := r.SkyText(); got != "clear" {
		t.Errorf("SkyText() = %q; want %q", got, "clear")
	}
	if r.Temperature == nil || r.Temperature.Format("F") != "72°F" {
		t.Errorf("Temperature = %+v; want 72°F", r.Temperature)
	}
	if r.DewPoint == nil || r.DewPoint.Format("F") != "54°F" {
		t.Errorf("DewPoint = %+v; want 54°F", r.DewPoint)
	}
	if r.Pressure == nil || r.Pressure.String() != "1016mb" {
		t.Errorf("Pressure = %+v; want 1016mb", r.Pressure)
	}
	if r.Precip1Hr != nil {
		t.Errorf("Precip1Hr = %+v; want nil", r.Precip1Hr)
	}
	if len(r.Runways) != 0 || r.RunwayText() != "" {
		t.Errorf("Runways = %+v; want none", r.Runways)
	}
}

func TestParse_stormyDay(t *testing.T) {
	raw := "METAR KLAX 281753Z 25012G20KT 220V280 1 1/2SM R24L/2400FT -RA BR FEW008 BKN015CB OVC030 M02/M05 Q1009 RMK AO2 P0012"
	r, err := Parse(raw, ref)
	if err != nil {
		t.Fatalf("Parse() = %v; want nil", err)
	}

	if want := time.Date(2024, time.February, 28, 17, 53, 0, 0, time.UTC); !r.Time.Equal(want) {
		t.Errorf("Time = %v; want %v (previous month)", r.Time, want)
	}
	if got, want := r.WindText(), "WSW at 12kt, gusting to 20kt, varying from SW to W"; got != want {
		t.Errorf("WindText() = %q; want %q", got, want)
	}
	if got := r.VisibilityText(); got != "1 1/2sm" {
		t.Errorf("VisibilityText() = %q; want %q", got, "1 1/2sm")
	}
	if r.Visibility.Distance != 1.5 {
		t.Errorf("Visibility.Distance = %v; want 1.5", r.Visibility.Distance)
	}
	if got := r.RunwayText(); got != "runway 24L at 2400ft" {
		t.Errorf("RunwayText() = %q; want %q", got, "runway 24L at 2400ft")
	}
	if len(r.Sky) != 3 {
		t.Errorf("Sky = %+v; want three layers after the weather groups", r.Sky)
	}
	if got, want := r.SkyText(), "few clouds at 800ft; broken clouds at 1500ft (cumulonimbus); overcast at 3000ft"; got != want {
		t.Errorf("SkyText() = %q; want %q", got, want)
	}
	if got := r.Temperature.Format("C"); got != "-2°C" {
		t.Errorf("Temperature = %q; want -2°C", got)
	}
	if got := r.Temperature.Format("F"); got != "28°F" {
		t.Errorf("Temperature = %q; want 28°F", got)
	}
	if got := r.DewPoint.Format("C"); got != "-5°C" {
		t.Errorf("DewPoint = %q; want -5°C", got)
	}
	if got := r.Pressure.String(); got != "1009mb" {
		t.Errorf("Pressure = %q; want 1009mb", got)
	}
	if r.Precip1Hr == nil || r.Precip1Hr.String() != "0.12in" {
		t.Errorf("Precip1Hr = %+v; want 0.12in", r.Precip1Hr)
	}
}

func TestParse_groupVariants(t *testing.T) {
	tests := []struct {
		name  string
		raw   string
		check func(t *testing.T, r *Report)
	}{
		{
			name: "calm wind",
			raw:  "KLAX 011053Z 00000KT 10SM SKC 14/10 A2995",
			check: func(t *testing.T, r *Report) {
				if got := r.WindText(); got != "calm" {
					t.Errorf("WindText() = %q; want calm", got)
				}
			},
		},
		{
			name: "variable wind",
			raw:  "KLAX 011053Z VRB03KT P6SM FEW250 14/10 A2995",
			check: func(t *testing.T, r *Report) {
				if got := r.WindText(); got != "variable at 3kt" {
					t.Errorf("WindText() = %q; want variable at 3kt", got)
				}
				if got := r.VisibilityText(); got != "more than 6sm" {
					t.Errorf("VisibilityText() = %q; want more than 6sm", got)
				}
			},
		},
		{
			name: "missing wind",
			raw:  "KLAX 011053Z /////KT M1/4SM VV002 14/ A2995",
			check: func(t *testing.T, r *Report) {
				if r.Wind != nil {
					t.Errorf("Wind = %+v; want nil", r.Wind)
				}
				if got := r.VisibilityText(); got != "less than 1/4sm" {
					t.Errorf("VisibilityText() = %q; want less than 1/4sm", got)
				}
				if got := r.SkyText(); got != "vertical visibility 200ft" {
					t.Errorf("SkyText() = %q; want vertical visibility 200ft", got)
				}
				if r.DewPoint != nil {
					t.Errorf("DewPoint = %+v; want nil", r.DewPoint)
				}
			},
		},
		{
			name: "trace precipitation",
			raw:  "KLAX 011053Z 27005KT 10SM OVC012 14/10 A2995 RMK AO2 P0000",
			check: func(t *testing.T, r *Report) {
				if r.Precip1Hr == nil || !r.Precip1Hr.Trace {
					t.Fatalf("Precip1Hr = %+v; want trace", r.Precip1Hr)
				}
				if got := r.Precip1Hr.String(); got != "trace" {
					t.Errorf("Precip1Hr.String() = %q; want trace", got)
				}
			},
		},
		{
			name: "metric visibility",
			raw:  "EDDT 011220Z 27015KT 9999 SCT030 15/08 Q1013",
			check: func(t *testing.T, r *Report) {
				if got := r.VisibilityText(); got != "10km" {
					t.Errorf("VisibilityText() = %q; want 10km", got)
				}
				if got := r.SkyText(); got != "scattered clouds at 3000ft" {
					t.Errorf("SkyText() = %q", got)
				}
			},
		},
		{
			name: "cavok",
			raw:  "EGLL 011220Z 24010KT CAVOK 15/08 Q1020=",
			check: func(t *testing.T, r *Report) {
				if got := r.SkyText(); got != "clear" {
					t.Errorf("SkyText() = %q; want clear", got)
				}
				if got := r.VisibilityText(); got != "10km" {
					t.Errorf("VisibilityText() = %q; want 10km", got)
				}
			},
		},
		{
			name: "runway range varying",
			raw:  "KLAX 011053Z 27005KT 1/2SM R25R/1000V2000FT FG VV001 12/12 A2995",
			check: func(t *testing.T, r *Report) {
				if got, want := r.RunwayText(), "runway 25R from 1000ft to 2000ft"; got != want {
					t.Errorf("RunwayText() = %q; want %q", got, want)
				}
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r, err := Parse(tt.raw, ref)
			if err != nil {
				t.Fatalf("Parse(%q) = %v; want nil", tt.raw, err)
			}
			tt.check(t, r)
		})
	}
}

func TestParse_invalid(t *testing.T) {
	for _, raw := range []string{
		"",
		"klax 012232Z",
		"KLAX",
		"KLAX 01223Z 02008KT",
		"KLAX 322232Z 02008KT",
		"KLAX 012460Z 02008KT",
	} {
		_, err := Parse(raw, ref)
		if !errors.Is(err, ErrInvalidReport) {
			t.Errorf("Parse(%q) = %v; want ErrInvalidReport", raw, err)
		}
	}
}

func TestCompass(t *testing.T) {
	tests := map[int]string{
		0:   "N",
		20:  "NNE",
		45:  "NE",
		90:  "E",
		180: "S",
		250: "WSW",
		348: "NNW",
		349: "N",
		360: "N",
	}
	for deg, want := range tests {
		if got := Compass(deg); got != want {
			t.Errorf("Compass(%d) = %q; want %q", deg, got, want)
		}
	}
}
