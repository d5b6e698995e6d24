package service

import (
	"math"
	"strconv"
	"strings"
)

// parseCoordinate converts a stored decimal to a float. Missing, blank or
// non-finite values report false.
func parseCoordinate(raw *string) (float64, bool) {
	if raw == nil {
		return 0, false
	}
	v, err := strconv.ParseFloat(strings.TrimSpace(*raw), 64)
	if err != nil || !isFinite(v) {
		return 0, false
	}
	return v, true
}

// parsePoint returns a GeoJSON [lon, lat] pair.
func parsePoint(lat, lon *string) ([2]float64, bool) {
	la, ok := parseCoordinate(lat)
	if !ok {
		return [2]float64{}, false
	}
	lo, ok := parseCoordinate(lon)
	if !ok {
		return [2]float64{}, false
	}
	return [2]float64{lo, la}, true
}

func isFinite(v float64) bool {
	return !math.IsNaN(v) && !math.IsInf(v, 0)
}
