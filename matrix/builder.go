// Package matrix pre-computes all team x team, team x kitchen, and
// team x after-party distances the heuristic and MILP solvers need.
package matrix

import (
	"fmt"
	"sync"

	"github.com/rdinner/engine"
)

// nodeKind distinguishes the three id namespaces sharing one DistanceMatrix.
type nodeKind string

const (
	kindTeam       nodeKind = "team"
	kindKitchen    nodeKind = "kitchen"
	kindAfterParty nodeKind = "afterparty"
)

func teamNode(id engine.TeamID) string       { return fmt.Sprintf("%s_%d", kindTeam, id) }
func kitchenNode(id engine.KitchenID) string { return fmt.Sprintf("%s_%d", kindKitchen, id) }
func afterPartyNode() string                 { return string(kindAfterParty) }

// Oracle is the subset of routeoracle.Oracle the builder depends on,
// kept as an interface so tests can supply a pure distance function
// without any routing machinery.
type Oracle interface {
	Distance(src, dst engine.Coordinate) (float64, error)
}

// Matrix is the partial mapping (source_id, dest_id) -> km. Ids are
// "team_<n>", "kitchen_<n>", or "afterparty".
type Matrix struct {
	distances map[string]map[string]float64
}

func newMatrix() *Matrix {
	return &Matrix{distances: make(map[string]map[string]float64)}
}

func (m *Matrix) set(a, b string, km float64) {
	if m.distances[a] == nil {
		m.distances[a] = make(map[string]float64)
	}
	if m.distances[b] == nil {
		m.distances[b] = make(map[string]float64)
	}
	m.distances[a][b] = km
	m.distances[b][a] = km
}

// TeamDistance returns the cached distance between two teams.
func (m *Matrix) TeamDistance(a, b engine.TeamID) (float64, bool) {
	return m.lookup(teamNode(a), teamNode(b))
}

// TeamKitchenDistance returns the cached distance between a team and a kitchen.
func (m *Matrix) TeamKitchenDistance(t engine.TeamID, k engine.KitchenID) (float64, bool) {
	return m.lookup(teamNode(t), kitchenNode(k))
}

// TeamAfterPartyDistance returns the cached distance between a team and the after-party.
func (m *Matrix) TeamAfterPartyDistance(t engine.TeamID) (float64, bool) {
	return m.lookup(teamNode(t), afterPartyNode())
}

// KitchenAfterPartyDistance returns the cached distance between a kitchen and the after-party.
func (m *Matrix) KitchenAfterPartyDistance(k engine.KitchenID) (float64, bool) {
	return m.lookup(kitchenNode(k), afterPartyNode())
}

func (m *Matrix) lookup(a, b string) (float64, bool) {
	if a == b {
		return 0, true
	}
	row, ok := m.distances[a]
	if !ok {
		return 0, false
	}
	km, ok := row[b]
	return km, ok
}

// Options configures Build's fallback behavior.
type Options struct {
	Fanout            int     // bounded parallel oracle calls (default 4)
	MissingCoordKM    float64 // fallback when either endpoint lacks coordinates (default 3.0)
	UpstreamFailureKM float64 // fallback when the oracle call itself errors (default 2.5)
}

// pairJob is one unordered pair to resolve via the oracle.
type pairJob struct {
	idA, idB     string
	coordA, coordB *engine.Coordinate
}

// Build computes the full distance matrix for roster, kitchens and an
// optional after-party: one oracle.Distance call per unordered pair,
// writing both directions. A build of n teams and K kitchens requires
// at most n(n-1)/2 + n*K + n + K oracle calls.
func Build(oracle Oracle, roster *engine.Roster, kitchens []engine.GuestKitchen, afterParty *engine.AfterParty, opts Options) *Matrix {
	if opts.Fanout <= 0 {
		opts.Fanout = 4
	}
	if opts.MissingCoordKM <= 0 {
		opts.MissingCoordKM = 3.0
	}
	if opts.UpstreamFailureKM <= 0 {
		opts.UpstreamFailureKM = 2.5
	}

	jobs := buildJobs(roster, kitchens, afterParty)
	m := newMatrix()

	var mu sync.Mutex
	sem := make(chan struct{}, opts.Fanout)
	var wg sync.WaitGroup

	for _, j := range jobs {
		j := j
		wg.Add(1)
		sem <- struct{}{}
		go func() {
			defer wg.Done()
			defer func() { <-sem }()

			var km float64
			switch {
			case j.coordA == nil || j.coordB == nil:
				km = opts.MissingCoordKM
			default:
				d, err := oracle.Distance(*j.coordA, *j.coordB)
				if err != nil {
					km = opts.UpstreamFailureKM
				} else {
					km = d
				}
			}

			mu.Lock()
			m.set(j.idA, j.idB, km)
			mu.Unlock()
		}()
	}
	wg.Wait()
	return m
}

func buildJobs(roster *engine.Roster, kitchens []engine.GuestKitchen, afterParty *engine.AfterParty) []pairJob {
	var jobs []pairJob
	ids := roster.Order()

	for i := 0; i < len(ids); i++ {
		for j := i + 1; j < len(ids); j++ {
			ta, tb := roster.Get(ids[i]), roster.Get(ids[j])
			jobs = append(jobs, pairJob{
				idA: teamNode(ta.ID), idB: teamNode(tb.ID),
				coordA: ta.Coord, coordB: tb.Coord,
			})
		}
	}

	for _, id := range ids {
		t := roster.Get(id)
		for _, k := range kitchens {
			kc := k.Coord
			jobs = append(jobs, pairJob{
				idA: teamNode(t.ID), idB: kitchenNode(k.ID),
				coordA: t.Coord, coordB: &kc,
			})
		}
	}

	if afterParty != nil {
		apCoord := afterParty.Coord
		for _, id := range ids {
			t := roster.Get(id)
			jobs = append(jobs, pairJob{
				idA: teamNode(t.ID), idB: afterPartyNode(),
				coordA: t.Coord, coordB: &apCoord,
			})
		}
		for _, k := range kitchens {
			kc := k.Coord
			jobs = append(jobs, pairJob{
				idA: kitchenNode(k.ID), idB: afterPartyNode(),
				coordA: &kc, coordB: &apCoord,
			})
		}
	}

	return jobs
}
