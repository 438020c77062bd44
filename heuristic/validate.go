package heuristic

import (
	"fmt"

	"github.com/rdinner/engine"
)

// Validate recomputes every team's totals from its legs and checks the
// invariants the route must satisfy before a run can be accepted. It
// returns a wrapped engine.ErrInvariantViolation on the first failure it
// finds.
func Validate(partition HostPartition, courseAssignments map[engine.Course]CourseAssignment, roster *engine.Roster, rs *RouteState) error {
	rs.recomputeTotals(roster)

	if err := validateHostsExactlyOneCourse(partition, roster); err != nil {
		return err
	}
	if err := validateOneHostPerNonHostedCourse(partition, roster, rs); err != nil {
		return err
	}
	if err := validateGroupSizeBand(partition, roster, rs); err != nil {
		return err
	}
	if err := validateNonNegativeLegs(roster, rs); err != nil {
		return err
	}
	return nil
}

// validateHostsExactlyOneCourse checks that every host-capable team hosts
// exactly one of the three courses, and that no non-host-capable team
// hosts any.
func validateHostsExactlyOneCourse(partition HostPartition, roster *engine.Roster) error {
	hostedCount := make(map[engine.TeamID]int)
	for _, course := range engine.Courses {
		for _, h := range partition.Hosts(course) {
			hostedCount[h]++
		}
	}
	for _, id := range roster.Order() {
		team := roster.Get(id)
		count := hostedCount[id]
		if team.CanHost() && count != 1 {
			return fmt.Errorf("%w: team %d is host-capable but hosts %d courses, want 1", engine.ErrInvariantViolation, id, count)
		}
		if !team.CanHost() && count != 0 {
			return fmt.Errorf("%w: team %d is guest-only but hosts %d courses", engine.ErrInvariantViolation, id, count)
		}
	}
	return nil
}

// validateOneHostPerNonHostedCourse checks that every team has exactly
// one resolved position (itself, if hosting; otherwise a single host) at
// each of the three courses.
func validateOneHostPerNonHostedCourse(partition HostPartition, roster *engine.Roster, rs *RouteState) error {
	for _, course := range engine.Courses {
		hostSet := make(map[engine.TeamID]bool, len(partition.Hosts(course)))
		for _, h := range partition.Hosts(course) {
			hostSet[h] = true
		}
		for _, id := range roster.Order() {
			if partition.HostsCourse(id, course) {
				continue
			}
			host, ok := rs.HostOf[course][id]
			if !ok {
				return fmt.Errorf("%w: team %d has no assigned host for course %v", engine.ErrInvariantViolation, id, course)
			}
			if !hostSet[host] {
				return fmt.Errorf("%w: team %d assigned to %d, who does not host course %v", engine.ErrInvariantViolation, id, host, course)
			}
		}
	}
	return nil
}

// validateGroupSizeBand checks that every host's guest count at its own
// course stays within one of the two target sizes
// floor(guestCount/hostCount) or that plus one, so no host is left with
// an empty table or an overloaded one. This is checked against the
// route's actual HostOf assignments, which local improvement may have
// rebalanced away from the initial assignment's split.
func validateGroupSizeBand(partition HostPartition, roster *engine.Roster, rs *RouteState) error {
	for _, course := range engine.Courses {
		hosts := partition.Hosts(course)
		if len(hosts) == 0 {
			continue
		}
		guestCount := len(nonHosts(partition, course, roster))
		base := guestCount / len(hosts)
		ceil := base + 1

		counted := make(map[engine.TeamID]int, len(hosts))
		for _, h := range hosts {
			counted[h] = 0
		}
		for guest, host := range rs.HostOf[course] {
			_ = guest
			counted[host]++
		}
		for _, h := range hosts {
			n := counted[h]
			if n < base || n > ceil {
				return fmt.Errorf("%w: host %d at course %v has %d guests, want %d or %d", engine.ErrInvariantViolation, h, course, n, base, ceil)
			}
		}
	}
	return nil
}

// validateNonNegativeLegs checks that every recorded leg distance is
// non-negative and that each team's total equals the sum of its three
// legs.
func validateNonNegativeLegs(roster *engine.Roster, rs *RouteState) error {
	for _, id := range roster.Order() {
		sum := 0.0
		for _, c := range engine.Courses {
			leg := rs.Distances[id][c]
			if leg < 0 {
				return fmt.Errorf("%w: team %d has negative leg distance %.3f at course %v", engine.ErrInvariantViolation, id, leg, c)
			}
			sum += leg
		}
		if diff := sum - rs.Totals[id]; diff > 1e-6 || diff < -1e-6 {
			return fmt.Errorf("%w: team %d total %.6f does not match leg sum %.6f", engine.ErrInvariantViolation, id, rs.Totals[id], sum)
		}
	}
	return nil
}
