package routeoracle

import "math"

const earthRadiusKM = 6371.0

// haversineKM returns the great-circle distance between two coordinates in
// kilometers.
func haversineKM(srcLat, srcLng, dstLat, dstLng float64) float64 {
	lat1 := srcLat * math.Pi / 180
	lat2 := dstLat * math.Pi / 180
	dLat := (dstLat - srcLat) * math.Pi / 180
	dLng := (dstLng - srcLng) * math.Pi / 180

	a := math.Sin(dLat/2)*math.Sin(dLat/2) +
		math.Cos(lat1)*math.Cos(lat2)*math.Sin(dLng/2)*math.Sin(dLng/2)
	c := 2 * math.Atan2(math.Sqrt(a), math.Sqrt(1-a))
	return earthRadiusKM * c
}

// fallbackFactor scales the great-circle distance up to approximate
// actual walking distance when no routing provider is available.
const fallbackFactor = 1.4
