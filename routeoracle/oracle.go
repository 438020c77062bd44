// Package routeoracle maps (coord, coord) to walking distance (km) and
// polyline, cached in memory and in the shared persistent store.
//
// Distance and Geometry are deliberately separate entry points: a caller
// asking only for a scalar never pays the cost of fetching or decoding a
// polyline.
package routeoracle

import (
	"fmt"
	"sync"
	"time"

	lru "github.com/hashicorp/golang-lru"
	"github.com/rdinner/engine"
	"github.com/rdinner/engine/store"
)

// Provider is a pluggable routing backend. Ok is false when the provider
// cannot answer (e.g. upstream error, missing credentials); the Oracle
// falls through to the next tier rather than treating it as fatal.
type Provider interface {
	Name() SourceAPI
	Route(src, dst engine.Coordinate) (km float64, points []engine.Coordinate, ok bool)
}

// deterministicProvider is a network-free stand-in for a real routing
// provider (OSRM, OpenRouteService). It answers every query by scaling
// the haversine distance by a fixed factor, which exercises the
// three-tier fallback chain without credentials, while still leaving
// Provider pluggable for a real client (e.g. an OSRM table-endpoint
// client or an ORS adapter).
type deterministicProvider struct {
	name   SourceAPI
	factor float64
}

// NewDeterministicProvider returns a Provider usable as a primary or
// secondary routing backend in environments without network access.
func NewDeterministicProvider(name SourceAPI, factor float64) Provider {
	return deterministicProvider{name: name, factor: factor}
}

func (p deterministicProvider) Name() SourceAPI { return p.name }

func (p deterministicProvider) Route(src, dst engine.Coordinate) (float64, []engine.Coordinate, bool) {
	km := haversineKM(src.Lat, src.Lng, dst.Lat, dst.Lng) * p.factor
	return km, straightLine(src, dst), true
}

// Oracle resolves distances against an ordered chain of providers, falling
// back to the literal haversine x1.4 estimate if every provider declines.
type Oracle struct {
	primary   Provider
	secondary Provider
	store     *store.Store
	memCache  *lru.Cache
	ttl       time.Duration
	minGap    time.Duration

	mu       sync.Mutex
	lastCall time.Time
}

// Options configures an Oracle. A zero-value Options yields sane defaults
// (no upstream providers, 24h TTL, 1s rate limit, 4096-entry LRU).
type Options struct {
	Primary         Provider
	Secondary       Provider
	TTL             time.Duration
	MinRequestGap   time.Duration
	InMemCacheSize  int
}

// New builds an Oracle over the shared persistent store.
func New(s *store.Store, opts Options) (*Oracle, error) {
	if opts.TTL <= 0 {
		opts.TTL = 24 * time.Hour
	}
	if opts.MinRequestGap <= 0 {
		opts.MinRequestGap = time.Second
	}
	if opts.InMemCacheSize <= 0 {
		opts.InMemCacheSize = 4096
	}
	cache, err := lru.New(opts.InMemCacheSize)
	if err != nil {
		return nil, err
	}
	return &Oracle{
		primary:   opts.Primary,
		secondary: opts.Secondary,
		store:     s,
		memCache:  cache,
		ttl:       opts.TTL,
		minGap:    opts.MinRequestGap,
	}, nil
}

// distanceResult is what gets cached, in memory and on disk.
type distanceResult struct {
	KM     float64
	Source SourceAPI
}

// Distance returns the walking distance between src and dst in km: try
// the primary provider, then the secondary, then haversine x1.4. The
// result is cached at the quantised key; a cache hit never touches the
// rate limiter.
func (o *Oracle) Distance(src, dst engine.Coordinate) (float64, error) {
	key := distanceCacheKey(src, dst)

	if v, ok := o.memCache.Get(key); ok {
		return v.(distanceResult).KM, nil
	}
	if raw, ok, err := o.store.GetTTL([]byte(key)); err == nil && ok {
		res, decodeErr := decodeDistanceResult(raw)
		if decodeErr == nil {
			o.memCache.Add(key, res)
			return res.KM, nil
		}
	}

	res, err := o.fetchDistance(src, dst)
	if err != nil {
		return 0, err
	}
	o.memCache.Add(key, res)
	if encoded, encErr := encodeDistanceResult(res); encErr == nil {
		_ = o.store.PutTTL([]byte(key), encoded, o.ttl)
	}
	return res.KM, nil
}

func (o *Oracle) fetchDistance(src, dst engine.Coordinate) (distanceResult, error) {
	for _, p := range []Provider{o.primary, o.secondary} {
		if p == nil {
			continue
		}
		o.throttle()
		if km, _, ok := p.Route(src, dst); ok {
			return distanceResult{KM: km, Source: p.Name()}, nil
		}
	}
	km := haversineKM(src.Lat, src.Lng, dst.Lat, dst.Lng) * fallbackFactor
	if !(km >= 0) { // NaN from invalid coordinates; 0 is a valid same-point distance
		return distanceResult{}, fmt.Errorf("routeoracle: %w", engine.ErrOracleFailure)
	}
	return distanceResult{KM: km, Source: SourceFallback}, nil
}

// Geometry returns the polyline between src and dst, keyed by (eventID,
// quantised src, quantised dst) so it survives process restarts.
func (o *Oracle) Geometry(eventID int, src, dst engine.Coordinate) (Geometry, error) {
	key := geometryCacheKey(eventID, src, dst)
	if raw, ok, err := o.store.GetTTL([]byte(key)); err == nil && ok {
		if g, decodeErr := decodeGeometry(raw); decodeErr == nil {
			return g, nil
		}
	}

	g, err := o.fetchGeometry(src, dst)
	if err != nil {
		return Geometry{}, err
	}
	if encoded, encErr := encodeGeometry(g); encErr == nil {
		_ = o.store.PutTTL([]byte(key), encoded, o.ttl)
	}
	return g, nil
}

func (o *Oracle) fetchGeometry(src, dst engine.Coordinate) (Geometry, error) {
	for _, p := range []Provider{o.primary, o.secondary} {
		if p == nil {
			continue
		}
		o.throttle()
		if km, points, ok := p.Route(src, dst); ok {
			return Geometry{Points: points, DistanceKM: km, SourceAPI: p.Name()}, nil
		}
	}
	km := haversineKM(src.Lat, src.Lng, dst.Lat, dst.Lng) * fallbackFactor
	return Geometry{Points: straightLine(src, dst), DistanceKM: km, SourceAPI: SourceFallback}, nil
}

// throttle enforces at least minGap between upstream calls. Held only
// around the sleep itself, never across a whole phase.
func (o *Oracle) throttle() {
	o.mu.Lock()
	defer o.mu.Unlock()
	elapsed := time.Since(o.lastCall)
	if elapsed < o.minGap {
		time.Sleep(o.minGap - elapsed)
	}
	o.lastCall = time.Now()
}

func distanceCacheKey(src, dst engine.Coordinate) string {
	qs, qd := engine.QuantizeCoord(src), engine.QuantizeCoord(dst)
	return fmt.Sprintf("dist|%.7f,%.7f|%.7f,%.7f", qs.Lat, qs.Lng, qd.Lat, qd.Lng)
}

func geometryCacheKey(eventID int, src, dst engine.Coordinate) string {
	qs, qd := engine.QuantizeCoord(src), engine.QuantizeCoord(dst)
	return fmt.Sprintf("geom|%d|%.7f,%.7f|%.7f,%.7f", eventID, qs.Lat, qs.Lng, qd.Lat, qd.Lng)
}
