package milp

import (
	"time"

	"github.com/rdinner/engine"
	"github.com/rdinner/engine/heuristic"
)

// MaxTeams is the largest roster size this package will attempt to
// solve exactly. Above this the branch factor of 3^n host partitions
// grows too fast to bound a 30s budget.
const MaxTeams = 6

// Solve enumerates every host partition of the host-capable teams (one
// of three courses per team) and, for each, greedily assigns guests and
// rethreads the route, scoring the result against the MILP objective:
// the sum of the two cross-course travel bounds plus the group-size and
// repeat-meeting penalties. It returns the lowest-scoring candidate
// found before timeLimit elapses.
func Solve(model Model, timeLimit time.Duration) Result {
	if timeLimit <= 0 {
		timeLimit = 30 * time.Second
	}
	deadline := time.Now().Add(timeLimit)

	hosts := model.Roster.HostCapable()
	if len(hosts) < 3 {
		return Result{Status: StatusInfeasible}
	}

	best := Result{Status: StatusInfeasible, Objective: posInf}
	assignment := make(map[engine.TeamID]engine.Course, len(hosts))

	var branch func(idx int) bool // returns false if the deadline was hit
	branch = func(idx int) bool {
		if time.Now().After(deadline) {
			return false
		}
		if idx == len(hosts) {
			candidate, ok := evaluate(model, hosts, assignment)
			if ok && candidate.Objective < best.Objective {
				best = candidate
			}
			return true
		}
		for _, c := range engine.Courses {
			assignment[hosts[idx]] = c
			if !branch(idx + 1) {
				return false
			}
		}
		return true
	}

	completed := branch(0)
	if best.Status == StatusInfeasible {
		if !completed {
			return Result{Status: StatusTimeout}
		}
		return best
	}
	if !completed {
		best.Status = StatusFeasible
		return best
	}
	best.Status = StatusOptimal
	return best
}

const posInf = 1e18

// evaluate builds the HostPartition named by assignment, fills it with a
// greedy diversity-weighted guest assignment per course, rethreads the
// route, and scores the MILP objective. ok is false if any course ends
// up with zero hosts (infeasible for this partition).
func evaluate(model Model, hostIDs []engine.TeamID, assignment map[engine.TeamID]engine.Course) (Result, bool) {
	partition := heuristic.HostPartition{
		HostsByCourse: make(map[engine.Course][]engine.TeamID, 3),
		CourseOf:      make(map[engine.TeamID]engine.Course, len(hostIDs)),
	}
	for _, id := range hostIDs {
		c := assignment[id]
		partition.HostsByCourse[c] = append(partition.HostsByCourse[c], id)
		partition.CourseOf[id] = c
	}
	for _, c := range engine.Courses {
		if len(partition.HostsByCourse[c]) == 0 {
			return Result{}, false
		}
	}

	pc := heuristic.NewPairCounter()
	assignments := make(map[engine.Course]heuristic.CourseAssignment, 3)
	for _, c := range engine.Courses {
		assignments[c] = heuristic.AssignGuests(partition, c, model.Roster, model.Distance, pc, nil, 0)
	}

	route := heuristic.Rethread(partition, assignments, model.Roster, model.Distance)

	objective := objectiveValue(model, partition, route, pc)
	return Result{
		Partition:   partition,
		Assignments: assignments,
		Route:       route,
		Objective:   objective,
	}, true
}

// objectiveValue mirrors the MILP objective: the sum of the two
// cross-course travel bounds (the worst single team's leg crossing each
// course boundary) plus under/over group-size penalties and a
// repeat-meeting penalty.
func objectiveValue(model Model, partition heuristic.HostPartition, route *heuristic.RouteState, pc heuristic.PairCounter) float64 {
	k := model.resolvedK()
	penaltyUnderOver := model.resolvedPenaltyUnderOver()
	penaltyRepeat := model.resolvedPenaltyRepeatMeet()

	objective := 0.0

	boundaries := [2][2]engine.Course{
		{engine.CourseAppetizer, engine.CourseMain},
		{engine.CourseMain, engine.CourseDessert},
	}
	for _, b := range boundaries {
		maxLeg := 0.0
		for _, id := range model.Roster.Order() {
			if leg := route.Distances[id][b[1]]; leg > maxLeg {
				maxLeg = leg
			}
		}
		objective += maxLeg
	}

	for _, c := range engine.Courses {
		if len(partition.Hosts(c)) == 0 {
			continue
		}
		for _, h := range partition.Hosts(c) {
			size := len(guestsOf(route, c, h)) + 1
			if size < k-1 || size > k+1 {
				objective += penaltyUnderOver * 2 // outside the admissible band entirely
				continue
			}
			if size != k {
				objective += penaltyUnderOver
			}
		}
	}

	for key, count := range pc {
		if count > 1 {
			objective += penaltyRepeat * float64(count-1) / 2
		}
		_ = key
	}

	return objective
}

func guestsOf(route *heuristic.RouteState, c engine.Course, host engine.TeamID) []engine.TeamID {
	var out []engine.TeamID
	for guest, h := range route.HostOf[c] {
		if h == host {
			out = append(out, guest)
		}
	}
	return out
}
