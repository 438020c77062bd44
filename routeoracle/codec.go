package routeoracle

import "encoding/json"

// wireDistanceResult and wireGeometry are the JSON-serializable shadow
// types used to persist cache entries; Geometry's point list is stored as
// an encoded polyline rather than a raw coordinate array.

type wireDistanceResult struct {
	KM     float64   `json:"km"`
	Source SourceAPI `json:"source"`
}

func encodeDistanceResult(r distanceResult) ([]byte, error) {
	return json.Marshal(wireDistanceResult{KM: r.KM, Source: r.Source})
}

func decodeDistanceResult(raw []byte) (distanceResult, error) {
	var w wireDistanceResult
	if err := json.Unmarshal(raw, &w); err != nil {
		return distanceResult{}, err
	}
	return distanceResult{KM: w.KM, Source: w.Source}, nil
}

type wireGeometry struct {
	Polyline        []byte    `json:"polyline"`
	DistanceKM      float64   `json:"distance_km"`
	DurationMinutes *float64  `json:"duration_minutes,omitempty"`
	SourceAPI       SourceAPI `json:"source_api"`
}

func encodeGeometry(g Geometry) ([]byte, error) {
	w := wireGeometry{
		Polyline:        encodePolyline(g.Points),
		DistanceKM:      g.DistanceKM,
		DurationMinutes: g.DurationMinutes,
		SourceAPI:       g.SourceAPI,
	}
	return json.Marshal(w)
}

func decodeGeometry(raw []byte) (Geometry, error) {
	var w wireGeometry
	if err := json.Unmarshal(raw, &w); err != nil {
		return Geometry{}, err
	}
	points, err := decodePolyline(w.Polyline)
	if err != nil {
		return Geometry{}, err
	}
	return Geometry{
		Points:          points,
		DistanceKM:      w.DistanceKM,
		DurationMinutes: w.DurationMinutes,
		SourceAPI:       w.SourceAPI,
	}, nil
}
