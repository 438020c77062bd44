// Package heuristic is the main solver for larger rosters: host
// partitioning, diversity-weighted guest assignment, route re-threading,
// and local improvement, plus the validation pass required before a run
// is accepted.
package heuristic

import (
	"github.com/rdinner/engine"
)

// HostPartition records which teams host which course.
type HostPartition struct {
	HostsByCourse map[engine.Course][]engine.TeamID
	CourseOf      map[engine.TeamID]engine.Course // host-capable teams only
}

// Partition splits the host-capable teams of roster into three ordered
// groups: sizes floor(n/3), with the first n mod 3 courses getting one
// extra team. Team order is registration order, the engine's sole
// determinism anchor for this phase.
func Partition(roster *engine.Roster) HostPartition {
	hostCapable := roster.HostCapable()
	n := len(hostCapable)
	base := n / 3
	extra := n % 3

	result := HostPartition{
		HostsByCourse: make(map[engine.Course][]engine.TeamID, 3),
		CourseOf:      make(map[engine.TeamID]engine.Course, n),
	}

	idx := 0
	for i, course := range engine.Courses {
		size := base
		if i < extra {
			size++
		}
		group := make([]engine.TeamID, 0, size)
		for j := 0; j < size; j++ {
			id := hostCapable[idx]
			group = append(group, id)
			result.CourseOf[id] = course
			idx++
		}
		result.HostsByCourse[course] = group
	}
	return result
}

// Hosts returns the ids hosting course c, in partition order.
func (p HostPartition) Hosts(c engine.Course) []engine.TeamID {
	return p.HostsByCourse[c]
}

// HostsCourse reports whether id hosts course c.
func (p HostPartition) HostsCourse(id engine.TeamID, c engine.Course) bool {
	course, ok := p.CourseOf[id]
	return ok && course == c
}
