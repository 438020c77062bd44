package heuristic

import (
	"testing"

	"github.com/rdinner/engine"
)

type gridDistancer struct {
	coords map[engine.TeamID]engine.Coordinate
}

func (g gridDistancer) TeamDistance(a, b engine.TeamID) (float64, bool) {
	ca, ok1 := g.coords[a]
	cb, ok2 := g.coords[b]
	if !ok1 || !ok2 {
		return 0, false
	}
	dx := ca.Lat - cb.Lat
	dy := ca.Lng - cb.Lng
	return dx*dx + dy*dy, true
}

func newGridDistancer(roster *engine.Roster) gridDistancer {
	d := gridDistancer{coords: make(map[engine.TeamID]engine.Coordinate)}
	for _, id := range roster.Order() {
		d.coords[id] = *roster.Get(id).Coord
	}
	return d
}

func TestAssignGuestsCoversEveryNonHost(t *testing.T) {
	roster := teamsRoster(9, 9)
	p := Partition(roster)
	dist := newGridDistancer(roster)
	pc := NewPairCounter()

	a := AssignGuests(p, engine.CourseAppetizer, roster, dist, pc, nil, 0)

	guests := nonHosts(p, engine.CourseAppetizer, roster)
	if len(a.GuestHost) != len(guests) {
		t.Fatalf("assigned %d guests, want %d", len(a.GuestHost), len(guests))
	}
	for _, g := range guests {
		if _, ok := a.GuestHost[g]; !ok {
			t.Errorf("guest %d has no assigned host", g)
		}
	}
}

func TestAssignGuestsRespectsCapacityBand(t *testing.T) {
	roster := teamsRoster(7, 7)
	p := Partition(roster)
	dist := newGridDistancer(roster)
	pc := NewPairCounter()

	for _, c := range engine.Courses {
		a := AssignGuests(p, c, roster, dist, pc, nil, 0)
		guestCount := len(nonHosts(p, c, roster))
		hosts := p.Hosts(c)
		base := guestCount / len(hosts)
		for _, h := range hosts {
			n := len(a.HostGuests[h])
			if n < base || n > base+1 {
				t.Errorf("course %v host %d has %d guests, want %d or %d", c, h, n, base, base+1)
			}
		}
	}
}

func TestAssignGuestsPrefersUnmetPairs(t *testing.T) {
	// Six host-capable teams at (i, i) partition into hosts [1,2] for
	// appetizer, guests [3,4,5,6]. Team 3 is closer to host 2 (dist 2)
	// than to host 1 (dist 8) but has already met host 2 five times;
	// the diversity weight should push it to host 1 regardless.
	roster := teamsRoster(6, 6)
	p := Partition(roster)
	dist := newGridDistancer(roster)
	pc := NewPairCounter()

	for i := 0; i < 5; i++ {
		pc.Increment(3, 2)
	}

	a := AssignGuests(p, engine.CourseAppetizer, roster, dist, pc, nil, 1000.0)
	if a.GuestHost[3] == 2 {
		t.Errorf("guest 3 assigned to over-met host 2 despite diversity weighting")
	}
}
