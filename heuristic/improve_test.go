package heuristic

import (
	"testing"

	"github.com/rdinner/engine"
)

func TestImprovePreservesCapacityBand(t *testing.T) {
	roster := teamsRoster(9, 9)
	p := Partition(roster)
	dist := newGridDistancer(roster)
	assignments := assignAllCourses(p, roster, dist)
	rs := Rethread(p, assignments, roster, dist)

	Improve(p, roster, dist, rs, 5, 0.01)

	for _, c := range engine.Courses {
		hosts := p.Hosts(c)
		guestCount := len(nonHosts(p, c, roster))
		base := guestCount / len(hosts)
		counts := make(map[engine.TeamID]int, len(hosts))
		for guest, host := range rs.HostOf[c] {
			_ = guest
			counts[host]++
		}
		for _, h := range hosts {
			if n := counts[h]; n < base || n > base+1 {
				t.Errorf("course %v host %d has %d guests after Improve, want %d or %d", c, h, n, base, base+1)
			}
		}
	}
}

func TestImproveIsIdempotentOnceConverged(t *testing.T) {
	roster := teamsRoster(9, 9)
	p := Partition(roster)
	dist := newGridDistancer(roster)
	assignments := assignAllCourses(p, roster, dist)
	rs := Rethread(p, assignments, roster, dist)

	Improve(p, roster, dist, rs, 20, 0.01)
	converged := 0.0
	for _, id := range roster.Order() {
		converged += rs.Totals[id]
	}

	Improve(p, roster, dist, rs, 20, 0.01)
	again := 0.0
	for _, id := range roster.Order() {
		again += rs.Totals[id]
	}

	if converged != again {
		t.Errorf("second Improve call changed total from %v to %v", converged, again)
	}
}
