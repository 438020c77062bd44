package engine

import "math"

// quantizeScale rounds latitude/longitude to 7 decimal digits (~1.1cm),
// the precision the route and geometry caches key on.
const quantizeScale = 1e7

// Quantize rounds v to 7 decimal digits. It is idempotent:
// Quantize(Quantize(v)) == Quantize(v) for any finite v.
func Quantize(v float64) float64 {
	return math.Round(v*quantizeScale) / quantizeScale
}

// QuantizeCoord quantises both components of a coordinate.
func QuantizeCoord(c Coordinate) Coordinate {
	return Coordinate{Lat: Quantize(c.Lat), Lng: Quantize(c.Lng)}
}
