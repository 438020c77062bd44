package heuristic

import (
	"math/rand"
	"testing"

	"github.com/rdinner/engine"
)

// solve runs all five phases end to end, the sequence the n > 6 path
// drives regardless of which package orchestrates it.
func solve(roster *engine.Roster, dist Distancer, rng *rand.Rand) (HostPartition, map[engine.Course]CourseAssignment, *RouteState, error) {
	p := Partition(roster)
	pc := NewPairCounter()
	assignments := make(map[engine.Course]CourseAssignment, 3)
	for _, c := range engine.Courses {
		assignments[c] = AssignGuests(p, c, roster, dist, pc, rng, 0)
	}
	rs := Rethread(p, assignments, roster, dist)
	Improve(p, roster, dist, rs, 10, 0.01)
	err := Validate(p, assignments, roster, rs)
	return p, assignments, rs, err
}

func TestSolveNineTeamsAllHostCapableProducesValidRoute(t *testing.T) {
	roster := teamsRoster(9, 9)
	dist := newGridDistancer(roster)

	_, _, rs, err := solve(roster, dist, nil)
	if err != nil {
		t.Fatalf("solve returned %v, want nil", err)
	}
	for _, id := range roster.Order() {
		if rs.Totals[id] < 0 {
			t.Errorf("team %d total %v is negative", id, rs.Totals[id])
		}
	}
}

func TestSolveHandlesMixedParticipationTypes(t *testing.T) {
	// 9 teams, 3 guest-only: the guest-only trio never hosts but still
	// gets a full three-course route.
	roster := teamsRoster(9, 6)
	dist := newGridDistancer(roster)

	p, _, rs, err := solve(roster, dist, nil)
	if err != nil {
		t.Fatalf("solve returned %v, want nil", err)
	}
	for _, id := range roster.Order() {
		team := roster.Get(id)
		if !team.CanHost() {
			if _, hosts := p.CourseOf[id]; hosts {
				t.Errorf("guest-only team %d was assigned a course to host", id)
			}
		}
	}
	_ = rs
}

func TestSolveTwelveTeamsDistributesGuestsAcrossAllHosts(t *testing.T) {
	roster := teamsRoster(12, 12)
	dist := newGridDistancer(roster)

	p, _, rs, err := solve(roster, dist, nil)
	if err != nil {
		t.Fatalf("solve returned %v, want nil", err)
	}
	for _, c := range engine.Courses {
		for _, h := range p.Hosts(c) {
			found := false
			for _, host := range rs.HostOf[c] {
				if host == h {
					found = true
					break
				}
			}
			if !found {
				t.Errorf("host %d at course %v received no guests", h, c)
			}
		}
	}
}
