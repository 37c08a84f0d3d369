package score

import (
	"math"
	"strconv"
	"strings"
)

// FormatPoints renders a point value the way it appears everywhere in
// the app: integers without decimals, anything else with a single
// decimal and a comma separator ("1,5").
func FormatPoints(v float64) string {
	if v == math.Trunc(v) {
		return strconv.FormatFloat(v, 'f', 0, 64)
	}
	return strings.Replace(strconv.FormatFloat(v, 'f', 1, 64), ".", ",", 1)
}
