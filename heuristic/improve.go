package heuristic

import "github.com/rdinner/engine"

// Improve runs up to maxIterations passes over every course with >= 2
// hosts, moving the single guest whose course-leg distance improves the
// most (by at least minImprovementKM) from an overloaded host to an
// underloaded one, until a full pass finds no qualifying move.
func Improve(partition HostPartition, roster *engine.Roster, dist Distancer, rs *RouteState, maxIterations int, minImprovementKM float64) {
	if maxIterations <= 0 {
		maxIterations = 3
	}
	if minImprovementKM <= 0 {
		minImprovementKM = 0.1
	}

	for iter := 0; iter < maxIterations; iter++ {
		improvedAny := false
		for _, course := range engine.Courses {
			hosts := partition.Hosts(course)
			if len(hosts) < 2 {
				continue
			}
			if improveCourse(partition, course, hosts, roster, dist, rs, minImprovementKM) {
				improvedAny = true
			}
		}
		recomputeRoute(partition, roster, dist, rs)
		if !improvedAny {
			break
		}
	}
}

// improveCourse runs the overloaded/underloaded rebalancing loop for one
// course, returning whether any move was applied.
func improveCourse(partition HostPartition, course engine.Course, hosts []engine.TeamID, roster *engine.Roster, dist Distancer, rs *RouteState, minImprovementKM float64) bool {
	guestTotal := len(nonHosts(partition, course, roster))
	capacity := hostCapacities(guestTotal, hosts)

	anyMove := false
	for {
		guestsOf := groupByHost(rs.HostOf[course], hosts)
		overloaded := overloadedHosts(guestsOf, capacity)
		underloaded := underloadedHosts(guestsOf, capacity)
		if len(overloaded) == 0 || len(underloaded) == 0 {
			return anyMove
		}

		var bestGuest, bestNewHost engine.TeamID
		var bestMargin, bestNewDist float64
		found := false
		for _, host := range overloaded {
			for _, guest := range guestsOf[host] {
				prevPos := rs.prevPosition(partition, guest, course)
				current := rs.Distances[guest][course]
				for _, candidate := range underloaded {
					newDist := legDistance(dist, prevPos, candidate)
					margin := current - newDist
					if margin >= minImprovementKM && (!found || margin > bestMargin) {
						bestGuest, bestNewHost, bestMargin, bestNewDist, found = guest, candidate, margin, newDist, true
					}
				}
			}
		}
		if !found {
			return anyMove
		}

		rs.HostOf[course][bestGuest] = bestNewHost
		rs.Distances[bestGuest][course] = bestNewDist
		anyMove = true
	}
}

func groupByHost(hostOf map[engine.TeamID]engine.TeamID, hosts []engine.TeamID) map[engine.TeamID][]engine.TeamID {
	out := make(map[engine.TeamID][]engine.TeamID, len(hosts))
	for _, h := range hosts {
		out[h] = nil
	}
	for guest, host := range hostOf {
		out[host] = append(out[host], guest)
	}
	return out
}

func overloadedHosts(guestsOf map[engine.TeamID][]engine.TeamID, capacity map[engine.TeamID]int) []engine.TeamID {
	var out []engine.TeamID
	for h, guests := range guestsOf {
		if len(guests) > capacity[h] {
			out = append(out, h)
		}
	}
	return out
}

func underloadedHosts(guestsOf map[engine.TeamID][]engine.TeamID, capacity map[engine.TeamID]int) []engine.TeamID {
	var out []engine.TeamID
	for h, guests := range guestsOf {
		if len(guests) < capacity[h] {
			out = append(out, h)
		}
	}
	return out
}

// recomputeRoute propagates any local-improvement host changes
// downstream: moving a guest to a different host at course c changes
// their position entering course c+1, so every course's legs are
// recomputed from the (now fixed) HostOf assignments in course order.
func recomputeRoute(partition HostPartition, roster *engine.Roster, dist Distancer, rs *RouteState) {
	for _, course := range engine.Courses {
		for _, id := range roster.Order() {
			prevPos := rs.prevPosition(partition, id, course)
			if partition.HostsCourse(id, course) {
				rs.Distances[id][course] = legDistance(dist, prevPos, id)
				continue
			}
			host := rs.HostOf[course][id]
			rs.Distances[id][course] = legDistance(dist, prevPos, host)
		}
	}
	rs.recomputeTotals(roster)
}
