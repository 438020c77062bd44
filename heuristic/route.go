package heuristic

import "github.com/rdinner/engine"

// RouteState is the per-team route produced by rethreading and refined by
// local improvement: which team each guest actually visits per course
// (after any override), the resulting leg distances, and totals.
type RouteState struct {
	// HostOf[c][guest] is the host guest visits at course c. Hosting teams
	// are never keys of the inner map; HostsCourse on the partition answers
	// "does this team host course c" instead.
	HostOf map[engine.Course]map[engine.TeamID]engine.TeamID

	// Distances[team][c] is the leg arriving at course c: the distance
	// from the team's position at the end of course c-1 (or home, before
	// appetizer) to its position at course c.
	Distances map[engine.TeamID]map[engine.Course]float64

	Totals map[engine.TeamID]float64
}

func newRouteState(roster *engine.Roster) *RouteState {
	rs := &RouteState{
		HostOf:    make(map[engine.Course]map[engine.TeamID]engine.TeamID, 3),
		Distances: make(map[engine.TeamID]map[engine.Course]float64, roster.Len()),
		Totals:    make(map[engine.TeamID]float64, roster.Len()),
	}
	for _, c := range engine.Courses {
		rs.HostOf[c] = make(map[engine.TeamID]engine.TeamID)
	}
	for _, id := range roster.Order() {
		rs.Distances[id] = make(map[engine.Course]float64, 3)
	}
	return rs
}

// PositionAt returns the team id whose home location `id` occupies at the
// end of course c, given the route's fixed HostOf assignments.
func (rs *RouteState) positionAt(partition HostPartition, id engine.TeamID, c engine.Course) engine.TeamID {
	if partition.HostsCourse(id, c) {
		return id
	}
	return rs.HostOf[c][id]
}

// legDistance looks up the team-to-team distance, treating a team's
// distance to itself as 0 and falling back to the missing-coordinate
// constant when the matrix lacks an entry.
func legDistance(dist Distancer, from, to engine.TeamID) float64 {
	if from == to {
		return 0
	}
	return distanceOrFallback(dist, from, to)
}

// recomputeTotals sums each team's three per-course legs into its total
// travel distance.
func (rs *RouteState) recomputeTotals(roster *engine.Roster) {
	for _, id := range roster.Order() {
		total := 0.0
		for _, c := range engine.Courses {
			total += rs.Distances[id][c]
		}
		rs.Totals[id] = total
	}
}

// RecomputeTotals is the exported form of recomputeTotals, for callers
// outside this package that mutate Distances directly (the kitchen
// allocator's opportunistic pass) and need totals resynced afterward.
func (rs *RouteState) RecomputeTotals(roster *engine.Roster) {
	rs.recomputeTotals(roster)
}
