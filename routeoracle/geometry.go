package routeoracle

import (
	"github.com/rdinner/engine"
	polyline "github.com/twpayne/go-polyline"
)

// SourceAPI names which tier of the fallback chain produced a distance or
// geometry.
type SourceAPI string

const (
	SourceOSRM       SourceAPI = "osrm"
	SourceOpenRoute  SourceAPI = "openroute"
	SourceFallback   SourceAPI = "fallback"
)

// Geometry is the persisted polyline for one (src, dst) pair, keyed by
// the caller on (event id, quantised src, dst).
type Geometry struct {
	Points          []engine.Coordinate
	DistanceKM      float64
	DurationMinutes *float64
	SourceAPI       SourceAPI
}

// PointCount returns how many points the geometry's polyline carries.
func (g Geometry) PointCount() int {
	return len(g.Points)
}

// encodePolyline renders g.Points with Google's polyline algorithm
// (github.com/twpayne/go-polyline), the compact wire format geometries
// are persisted and surfaced in.
func encodePolyline(points []engine.Coordinate) []byte {
	coords := make([][]float64, len(points))
	for i, p := range points {
		coords[i] = []float64{p.Lat, p.Lng}
	}
	return polyline.EncodeCoords(coords)
}

// decodePolyline is the inverse of encodePolyline.
func decodePolyline(data []byte) ([]engine.Coordinate, error) {
	coords, _, err := polyline.DecodeCoords(data)
	if err != nil {
		return nil, err
	}
	out := make([]engine.Coordinate, len(coords))
	for i, c := range coords {
		out[i] = engine.Coordinate{Lat: c[0], Lng: c[1]}
	}
	return out, nil
}

// straightLine is the last-resort geometry: a two-point straight segment
// from src to dst.
func straightLine(src, dst engine.Coordinate) []engine.Coordinate {
	return []engine.Coordinate{src, dst}
}
