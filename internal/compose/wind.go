package compose

import (
	"strings"

	"github.com/i474232898/metar-weather-bot/internal/common"
)

var compassNames = map[string]string{
	"N":   "North",
	"NNE": "North-northeast",
	"NE":  "Northeast",
	"ENE": "East-northeast",
	"E":   "East",
	"ESE": "East-southeast",
	"SE":  "Southeast",
	"SSE": "South-southeast",
	"S":   "South",
	"SSW": "South-southwest",
	"SW":  "Southwest",
	"WSW": "West-southwest",
	"W":   "West",
	"WNW": "West-northwest",
	"NW":  "Northwest",
	"NNW": "North-northwest",
}

// ExpandWind spells out a leading compass abbreviation ("NNE 8kt" becomes
// "North-northeast 8kt") and capitalizes the first character. Strings that
// do not open with "ABBR " are only capitalized.
func ExpandWind(s string) string {
	if abbr, rest, ok := strings.Cut(s, " "); ok {
		if name, known := compassNames[abbr]; known {
			s = name + " " + rest
		}
	}
	return common.UpperFirst(s)
}
