// Package geocode resolves a postal address to (lat, lng), deterministic
// and persistently cached.
package geocode

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"hash/fnv"
	"strings"
	"time"

	"github.com/rdinner/engine"
	"github.com/rdinner/engine/store"
)

const keyPrefix = "geocode|"

// defaultTTL is the minimum cache lifetime for a resolved address.
const defaultTTL = 24 * time.Hour

// Geocoder turns a free-form postal address into a coordinate, or nil if
// it cannot. Failure returns nil, not an error.
type Geocoder interface {
	Geocode(address string) *engine.Coordinate
}

// PseudoGeocoder is a deterministic offline fallback: a hash-seeded pick
// within a city bounding box. It never fails (every non-empty address
// maps to a point); an empty address returns nil.
type PseudoGeocoder struct {
	// BoundingBox is the lat/lng rectangle pseudo-geocoded addresses are
	// placed within. Defaults to a box roughly covering central Munich.
	MinLat, MaxLat float64
	MinLng, MaxLng float64
}

// NewPseudoGeocoder returns a PseudoGeocoder over a default bounding box.
func NewPseudoGeocoder() *PseudoGeocoder {
	return &PseudoGeocoder{
		MinLat: 48.10, MaxLat: 48.20,
		MinLng: 11.50, MaxLng: 11.65,
	}
}

// Geocode implements Geocoder.
func (g *PseudoGeocoder) Geocode(address string) *engine.Coordinate {
	norm := normalize(address)
	if norm == "" {
		return nil
	}
	h1 := fnv.New64a()
	h1.Write([]byte(norm))
	h2 := fnv.New64a()
	h2.Write([]byte(norm + "|lng"))

	latFrac := float64(h1.Sum64()%1_000_000) / 1_000_000
	lngFrac := float64(h2.Sum64()%1_000_000) / 1_000_000

	lat := g.MinLat + latFrac*(g.MaxLat-g.MinLat)
	lng := g.MinLng + lngFrac*(g.MaxLng-g.MinLng)
	return &engine.Coordinate{Lat: lat, Lng: lng}
}

// CachedGeocoder wraps a Geocoder backend with a persistent, TTL-bounded
// cache keyed by the hash of the normalised address.
type CachedGeocoder struct {
	backend Geocoder
	store   *store.Store
	ttl     time.Duration
}

// NewCachedGeocoder wraps backend with s as its persistent cache. ttl <= 0
// uses the default of 24 hours.
func NewCachedGeocoder(backend Geocoder, s *store.Store, ttl time.Duration) *CachedGeocoder {
	if ttl <= 0 {
		ttl = defaultTTL
	}
	return &CachedGeocoder{backend: backend, store: s, ttl: ttl}
}

type cachedCoord struct {
	Lat  float64 `json:"lat"`
	Lng  float64 `json:"lng"`
	Miss bool    `json:"miss"` // true means the backend returned nil; cache the miss too
}

// Geocode implements Geocoder, consulting the cache before the backend.
func (g *CachedGeocoder) Geocode(address string) *engine.Coordinate {
	key := cacheKey(address)
	if raw, ok, err := g.store.GetTTL(key); err == nil && ok {
		var c cachedCoord
		if json.Unmarshal(raw, &c) == nil {
			if c.Miss {
				return nil
			}
			return &engine.Coordinate{Lat: c.Lat, Lng: c.Lng}
		}
	}

	result := g.backend.Geocode(address)
	var toCache cachedCoord
	if result == nil {
		toCache = cachedCoord{Miss: true}
	} else {
		toCache = cachedCoord{Lat: result.Lat, Lng: result.Lng}
	}
	if raw, err := json.Marshal(toCache); err == nil {
		_ = g.store.PutTTL(key, raw, g.ttl) // best-effort: a cache write failure never fails geocoding
	}
	return result
}

// InvalidateCache drops the cached geocode result for address, if any,
// so the next Geocode call through a CachedGeocoder bypasses a stale
// entry instead of returning it.
func InvalidateCache(s *store.Store, address string) error {
	return s.Delete(cacheKey(address))
}

func cacheKey(address string) []byte {
	sum := sha256.Sum256([]byte(normalize(address)))
	return []byte(keyPrefix + hex.EncodeToString(sum[:]))
}

func normalize(address string) string {
	return strings.ToLower(strings.Join(strings.Fields(address), " "))
}
