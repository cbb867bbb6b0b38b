package format

import (
	"fmt"
	"math"
	"strconv"
	"strings"
)

// FormatCoordinate converts a signed decimal latitude/longitude pair into a
// degrees-minutes-seconds string with hemisphere suffixes. Seconds round to
// one decimal place with a trailing ".0" or zero trimmed. Values outside
// ±90/±180 are formatted as given; fidelity beats validation here.
func FormatCoordinate(lat, lon float64) string {
	return dms(lat, "N", "S") + ", " + dms(lon, "E", "W")
}

func dms(v float64, positive, negative string) string {
	hemi := positive
	if v < 0 {
		hemi = negative
	}

	abs := math.Abs(v)
	degrees := int(abs)
	minutesFull := (abs - float64(degrees)) * 60
	minutes := int(minutesFull)
	seconds := math.Round((minutesFull-float64(minutes))*60*10) / 10

	sec := strconv.FormatFloat(seconds, 'f', 1, 64)
	sec = strings.TrimRight(sec, "0")
	sec = strings.TrimRight(sec, ".")

	return fmt.Sprintf("%d°%d'%s\"%s", degrees, minutes, sec, hemi)
}
