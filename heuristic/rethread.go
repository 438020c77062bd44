package heuristic

import "github.com/rdinner/engine"

// Rethread walks the three courses in order for each team and picks its
// actual location at each one. A hosting team's position is always its
// own home. A guesting team's position is, by default, the host guest
// assignment selected for it, but Rethread overrides that pick with
// whichever host of the course is strictly closer to the team's position
// at the end of the previous course, since the leg is measured from
// there, not from home. A host whose table already holds its share of
// the course's guests (the same floor/ceil split AssignGuests uses) is
// not picked, so the override never breaks the group-size band.
func Rethread(partition HostPartition, courseAssignments map[engine.Course]CourseAssignment, roster *engine.Roster, dist Distancer) *RouteState {
	rs := newRouteState(roster)

	for _, course := range engine.Courses {
		hosts := partition.Hosts(course)
		capacity := hostCapacities(len(nonHosts(partition, course, roster)), hosts)
		load := make(map[engine.TeamID]int, len(hosts))
		for _, id := range roster.Order() {
			prevPos := rs.prevPosition(partition, id, course)

			if partition.HostsCourse(id, course) {
				rs.Distances[id][course] = legDistance(dist, prevPos, id)
				continue
			}

			diversityHost := courseAssignments[course].GuestHost[id]
			bestHost := diversityHost
			bestKM := legDistance(dist, prevPos, diversityHost)
			found := load[diversityHost] < capacity[diversityHost]
			for _, h := range hosts {
				if load[h] >= capacity[h] {
					continue
				}
				if km := legDistance(dist, prevPos, h); !found || km < bestKM {
					bestHost, bestKM, found = h, km, true
				}
			}
			load[bestHost]++
			rs.HostOf[course][id] = bestHost
			rs.Distances[id][course] = bestKM
		}
	}

	rs.recomputeTotals(roster)
	return rs
}

// prevPosition returns the team id at whose home `id` stood at the end of
// the course preceding c, or id itself (home) if c is the first course.
func (rs *RouteState) prevPosition(partition HostPartition, id engine.TeamID, c engine.Course) engine.TeamID {
	if c == engine.CourseAppetizer {
		return id
	}
	prev := engine.CourseAppetizer
	for _, cc := range engine.Courses {
		if cc == c {
			break
		}
		prev = cc
	}
	return rs.positionAt(partition, id, prev)
}
