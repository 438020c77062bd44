// Package solve adapts the heuristic and milp solver packages to
// engine.Runner's Solver function type, translating each package's own
// result shape into the engine's course/host/route vocabulary so Runner
// never has to import either solver package directly (avoiding an
// import cycle, since both already import engine).
package solve

import (
	"context"
	"time"

	"github.com/rdinner/engine"
	"github.com/rdinner/engine/afterparty"
	"github.com/rdinner/engine/heuristic"
	"github.com/rdinner/engine/kitchen"
	"github.com/rdinner/engine/milp"
)

// Heuristic runs host partitioning, diversity-weighted guest
// assignment, route rethreading, and local improvement, returning the
// result in engine.SolverResult shape.
func Heuristic(ctx context.Context, roster *engine.Roster, dist engine.Matrix, cfg engine.SolverConfig, masterSeed int64) (engine.SolverResult, error) {
	rng := engine.NewPartitionedRNG(masterSeed).ForSubsystem(engine.SubsystemGuestAssignment)

	p := heuristic.Partition(roster)
	pc := heuristic.NewPairCounter()
	assignments := make(map[engine.Course]heuristic.CourseAssignment, 3)
	weight := cfg.DiversityWeight
	if weight <= 0 {
		weight = 1000
	}
	for _, c := range engine.Courses {
		assignments[c] = heuristic.AssignGuests(p, c, roster, dist, pc, rng, weight)
	}

	rs := heuristic.Rethread(p, assignments, roster, dist)
	heuristic.Improve(p, roster, dist, rs, 3, 0.1)

	if err := heuristic.Validate(p, assignments, roster, rs); err != nil {
		return engine.SolverResult{}, err
	}

	return toResult(engine.AlgorithmHeuristic, p, rs, objectiveEstimate(rs)), nil
}

// MILP enumerates host partitions exactly for small rosters, falling
// back to the caller (Runner) trying the heuristic path if it times out
// or the roster is too large.
func MILP(ctx context.Context, roster *engine.Roster, dist engine.Matrix, cfg engine.SolverConfig, masterSeed int64) (engine.SolverResult, error) {
	model := milp.Model{
		Roster:            roster,
		Distance:          dist,
		TargetGroupSize:   cfg.TargetGroupSize,
		PenaltyUnderOver:  cfg.PenaltyUnderOver,
		PenaltyRepeatMeet: cfg.PenaltyRepeatMeet,
	}
	timeLimit := cfg.MILPTimeLimit
	if timeLimit <= 0 {
		timeLimit = 30 * time.Second
	}

	result := milp.Solve(model, timeLimit)
	if result.Status == milp.StatusInfeasible || result.Status == milp.StatusTimeout {
		return engine.SolverResult{}, errStatus(result.Status)
	}

	if err := heuristic.Validate(result.Partition, result.Assignments, roster, result.Route); err != nil {
		return engine.SolverResult{}, err
	}

	out := toResult(engine.AlgorithmMILP, result.Partition, result.Route, result.Objective)
	return out, nil
}

func errStatus(status milp.Status) error {
	return &statusError{status: status}
}

type statusError struct{ status milp.Status }

func (e *statusError) Error() string { return "milp solve did not reach a feasible solution: " + string(e.status) }

func toResult(alg engine.RunAlgorithm, p heuristic.HostPartition, rs *heuristic.RouteState, objective float64) engine.SolverResult {
	return engine.SolverResult{
		Algorithm:      alg,
		ObjectiveValue: objective,
		HostOf:         rs.HostOf,
		Distances:      rs.Distances,
		Totals:         rs.Totals,
		HostCourseOf:   p.CourseOf,
	}
}

// partitionFrom rebuilds a heuristic.HostPartition from the
// host-capable-team-to-course map engine.SolverResult carries, the
// shape every solver result agrees on regardless of which path
// produced it.
func partitionFrom(hostCourseOf map[engine.TeamID]engine.Course) heuristic.HostPartition {
	p := heuristic.HostPartition{
		HostsByCourse: make(map[engine.Course][]engine.TeamID, 3),
		CourseOf:      hostCourseOf,
	}
	for _, c := range engine.Courses {
		for id, course := range hostCourseOf {
			if course == c {
				p.HostsByCourse[c] = append(p.HostsByCourse[c], id)
			}
		}
	}
	return p
}

func routeStateFrom(result *engine.SolverResult) *heuristic.RouteState {
	return &heuristic.RouteState{
		HostOf:    result.HostOf,
		Distances: result.Distances,
		Totals:    result.Totals,
	}
}

// KitchenAllocate runs the mandatory and opportunistic guest-kitchen
// passes over a solved route, matching engine.KitchenAllocator.
func KitchenAllocate(hostCourseOf map[engine.TeamID]engine.Course, roster *engine.Roster, kitchens []engine.GuestKitchen, dist engine.Matrix, result *engine.SolverResult) (map[engine.Course]map[engine.TeamID]engine.KitchenID, error) {
	p := partitionFrom(hostCourseOf)
	rs := routeStateFrom(result)

	usage, err := kitchen.AllocateMandatory(p, roster, kitchens, dist)
	if err != nil {
		return nil, err
	}
	kitchen.AllocateOpportunistic(p, roster, kitchens, dist, usage, rs)

	result.Distances = rs.Distances
	result.Totals = rs.Totals
	return usage.Kitchen, nil
}

// AfterPartyExtend computes the terminal leg to the after-party and
// folds it into result's totals, matching engine.AfterPartyExtender.
func AfterPartyExtend(hostCourseOf map[engine.TeamID]engine.Course, roster *engine.Roster, dist engine.Matrix, kitchenUsage map[engine.Course]map[engine.TeamID]engine.KitchenID, result *engine.SolverResult) (map[engine.TeamID]engine.AfterPartyLeg, engine.AfterPartyStats, error) {
	p := partitionFrom(hostCourseOf)
	rs := routeStateFrom(result)
	usage := &kitchen.Usage{Kitchen: kitchenUsage}

	legs, stats, err := afterparty.Extend(p, roster, dist, usage, rs)
	if err != nil {
		return nil, engine.AfterPartyStats{}, err
	}
	result.Totals = rs.Totals
	return legs, stats, nil
}

// Validate checks a solved route's invariants, matching engine.Validator.
func Validate(hostCourseOf map[engine.TeamID]engine.Course, roster *engine.Roster, result *engine.SolverResult) error {
	p := partitionFrom(hostCourseOf)
	rs := routeStateFrom(result)
	return heuristic.Validate(p, nil, roster, rs)
}

// objectiveEstimate reports the heuristic path's total distance as its
// objective value, since the heuristic has no MILP-style penalty score
// of its own. It already enforces group-size and diversity constraints
// structurally rather than scoring them.
func objectiveEstimate(rs *heuristic.RouteState) float64 {
	total := 0.0
	for _, v := range rs.Totals {
		total += v
	}
	return total
}
