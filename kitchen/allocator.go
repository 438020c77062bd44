// Package kitchen splices guest kitchens into a route: a mandatory pass
// that finds every host-capable team lacking its own kitchen a feasible
// guest kitchen, and an opportunistic pass that re-routes ordinary
// guest visits to a kitchen when doing so meaningfully shortens the leg.
package kitchen

import (
	"fmt"

	"github.com/rdinner/engine"
	"github.com/rdinner/engine/heuristic"
)

// Distancer is the subset of matrix.Matrix the allocator needs.
type Distancer interface {
	TeamKitchenDistance(t engine.TeamID, k engine.KitchenID) (float64, bool)
}

// opportunisticRerouteMarginKM is the minimum distance savings an
// opportunistic kitchen reroute must offer the guest to be worth taking.
const opportunisticRerouteMarginKM = 3.0

// Usage records which kitchen a team is using at a course, whether as
// its mandatory cooking venue (hosting) or an opportunistic reroute
// (guesting).
type Usage struct {
	Kitchen  map[engine.Course]map[engine.TeamID]engine.KitchenID
	capacity map[kitchenCourseKey]int
}

type kitchenCourseKey struct {
	kitchen engine.KitchenID
	course  engine.Course
}

// NewUsage returns an empty Usage tracker.
func NewUsage() *Usage {
	u := &Usage{
		Kitchen:  make(map[engine.Course]map[engine.TeamID]engine.KitchenID, 3),
		capacity: make(map[kitchenCourseKey]int),
	}
	for _, c := range engine.Courses {
		u.Kitchen[c] = make(map[engine.TeamID]engine.KitchenID)
	}
	return u
}

func (u *Usage) used(k engine.KitchenID, c engine.Course) int {
	return u.capacity[kitchenCourseKey{kitchen: k, course: c}]
}

func (u *Usage) reserve(k engine.KitchenID, c engine.Course) {
	u.capacity[kitchenCourseKey{kitchen: k, course: c}]++
}

func (u *Usage) assign(team engine.TeamID, course engine.Course, kitchenID engine.KitchenID) {
	u.Kitchen[course][team] = kitchenID
	u.reserve(kitchenID, course)
}

// AllocateMandatory runs the mandatory pass: every host whose team lacks
// its own kitchen must be given one. Hosts are visited in roster order
// for determinism. Returns engine.ErrKitchenUnavailable if any such host
// has no feasible kitchen left.
func AllocateMandatory(partition heuristic.HostPartition, roster *engine.Roster, kitchens []engine.GuestKitchen, dist Distancer) (*Usage, error) {
	usage := NewUsage()

	for _, course := range engine.Courses {
		for _, hostID := range partition.Hosts(course) {
			team := roster.Get(hostID)
			if !team.NeedsGuestKitchen() {
				continue
			}
			kitchenID, ok := bestFeasibleKitchen(hostID, course, kitchens, usage, dist)
			if !ok {
				return nil, fmt.Errorf("%w: team %d at course %v", engine.ErrKitchenUnavailable, hostID, course)
			}
			usage.assign(hostID, course, kitchenID)
		}
	}
	return usage, nil
}

// AllocateOpportunistic runs the opportunistic pass over rs in place:
// for every guest visit, if a feasible kitchen exists whose distance
// from the guest beats the current leg by at least
// opportunisticRerouteMarginKM, the guest's leg and total are updated to
// route through that kitchen instead of the host directly. The host's
// role is unchanged; only the guest's travel leg and the kitchen's
// capacity bookkeeping are affected.
func AllocateOpportunistic(partition heuristic.HostPartition, roster *engine.Roster, kitchens []engine.GuestKitchen, dist Distancer, usage *Usage, rs *heuristic.RouteState) {
	for _, course := range engine.Courses {
		for _, id := range roster.Order() {
			if partition.HostsCourse(id, course) {
				continue
			}
			current := rs.Distances[id][course]
			kitchenID, km, ok := bestRerouteKitchen(id, course, kitchens, usage, dist, current)
			if !ok {
				continue
			}
			usage.assign(id, course, kitchenID)
			rs.Distances[id][course] = km
		}
	}
	rs.RecomputeTotals(roster)
}

func bestFeasibleKitchen(team engine.TeamID, course engine.Course, kitchens []engine.GuestKitchen, usage *Usage, dist Distancer) (engine.KitchenID, bool) {
	best, bestKM := engine.KitchenID(0), 0.0
	found := false
	for _, k := range kitchens {
		if !k.Allows(course) || usage.used(k.ID, course) >= k.MaxTeams {
			continue
		}
		km, ok := dist.TeamKitchenDistance(team, k.ID)
		if !ok {
			continue
		}
		if !found || km < bestKM {
			best, bestKM, found = k.ID, km, true
		}
	}
	return best, found
}

func bestRerouteKitchen(guest engine.TeamID, course engine.Course, kitchens []engine.GuestKitchen, usage *Usage, dist Distancer, current float64) (engine.KitchenID, float64, bool) {
	best, bestKM := engine.KitchenID(0), 0.0
	found := false
	for _, k := range kitchens {
		if !k.Allows(course) || usage.used(k.ID, course) >= k.MaxTeams {
			continue
		}
		km, ok := dist.TeamKitchenDistance(guest, k.ID)
		if !ok {
			continue
		}
		if current-km < opportunisticRerouteMarginKM {
			continue
		}
		if !found || km < bestKM {
			best, bestKM, found = k.ID, km, true
		}
	}
	return best, bestKM, found
}
