package heuristic

import (
	"math/rand"

	"github.com/rdinner/engine"
)

// Distancer is the subset of matrix.Matrix the guest-assignment,
// rethreading and improvement phases need, kept as an interface so tests
// can supply a pure distance function.
type Distancer interface {
	TeamDistance(a, b engine.TeamID) (float64, bool)
}

// CourseAssignment is the guest assignment for one course: who visits
// whom.
type CourseAssignment struct {
	HostGuests map[engine.TeamID][]engine.TeamID // host -> ordered guest list
	GuestHost  map[engine.TeamID]engine.TeamID   // guest -> assigned host
}

func newCourseAssignment() CourseAssignment {
	return CourseAssignment{
		HostGuests: make(map[engine.TeamID][]engine.TeamID),
		GuestHost:  make(map[engine.TeamID]engine.TeamID),
	}
}

// defaultDiversityWeight is the factor by which a repeat meeting dominates one km
// of distance in the assignment score.
const defaultDiversityWeight = 1000.0

// AssignGuests distributes the non-hosts of course across its hosts with
// target sizes floor(|guests|/|hosts|) (the first |guests| mod |hosts|
// hosts get one extra), choosing for each guest the host minimising
// score = weight*meetings(guest, existing_guests_and_host) + km(guest, host).
// Ties are broken by insertion (partition) order. rng, if non-nil, is
// used to shuffle guest processing order for fairness.
func AssignGuests(partition HostPartition, course engine.Course, roster *engine.Roster, dist Distancer, pc PairCounter, rng *rand.Rand, weight float64) CourseAssignment {
	if weight <= 0 {
		weight = defaultDiversityWeight
	}
	hosts := partition.Hosts(course)
	guests := nonHosts(partition, course, roster)

	if rng != nil {
		rng.Shuffle(len(guests), func(i, j int) { guests[i], guests[j] = guests[j], guests[i] })
	}

	capacity := hostCapacities(len(guests), hosts)
	assignment := newCourseAssignment()
	for _, h := range hosts {
		assignment.HostGuests[h] = nil
	}

	for _, guest := range guests {
		best, bestScore := engine.TeamID(0), 0.0
		found := false
		for _, host := range hosts {
			if len(assignment.HostGuests[host]) >= capacity[host] {
				continue
			}
			others := append(append([]engine.TeamID(nil), assignment.HostGuests[host]...), host)
			score := weight*float64(meetings(pc, guest, others)) + distanceOrFallback(dist, guest, host)
			if !found || score < bestScore {
				best, bestScore, found = host, score, true
			}
		}
		if !found {
			// Capacities are constructed to sum exactly to len(guests); this
			// should be unreachable. Fall back to the least-loaded host so
			// the run still produces a complete (if imperfect) assignment.
			best = leastLoadedHost(hosts, assignment)
		}

		for _, other := range append(append([]engine.TeamID(nil), assignment.HostGuests[best]...), best) {
			pc.Increment(guest, other)
		}
		assignment.HostGuests[best] = append(assignment.HostGuests[best], guest)
		assignment.GuestHost[guest] = best
	}

	return assignment
}

func nonHosts(partition HostPartition, course engine.Course, roster *engine.Roster) []engine.TeamID {
	hostSet := make(map[engine.TeamID]bool)
	for _, h := range partition.Hosts(course) {
		hostSet[h] = true
	}
	var out []engine.TeamID
	for _, id := range roster.Order() {
		if !hostSet[id] {
			out = append(out, id)
		}
	}
	return out
}

func hostCapacities(guestCount int, hosts []engine.TeamID) map[engine.TeamID]int {
	n := len(hosts)
	capacity := make(map[engine.TeamID]int, n)
	if n == 0 {
		return capacity
	}
	base := guestCount / n
	extra := guestCount % n
	for i, h := range hosts {
		c := base
		if i < extra {
			c++
		}
		capacity[h] = c
	}
	return capacity
}

func leastLoadedHost(hosts []engine.TeamID, a CourseAssignment) engine.TeamID {
	best := hosts[0]
	bestLen := len(a.HostGuests[best])
	for _, h := range hosts[1:] {
		if l := len(a.HostGuests[h]); l < bestLen {
			best, bestLen = h, l
		}
	}
	return best
}

func distanceOrFallback(dist Distancer, a, b engine.TeamID) float64 {
	km, ok := dist.TeamDistance(a, b)
	if !ok {
		return 3.0 // matches the matrix builder's missing-coordinate fallback
	}
	return km
}
