// Package milp is the exact solver path for small rosters: it enumerates
// every admissible host partition, fills each with the heuristic
// package's greedy guest assignment and rethreading (guest assignments
// themselves are not enumerated), and selects the partition minimising
// the same travel/penalty objective the heuristic solver approximates,
// returning a result shaped identically to the heuristic
// package's so the runner can treat both paths uniformly.
package milp

import (
	"github.com/rdinner/engine"
	"github.com/rdinner/engine/heuristic"
)

// Status is the solver adapter's outcome, kept opaque so no
// solver-specific code leaks past this package.
type Status string

const (
	StatusOptimal    Status = "optimal"
	StatusFeasible   Status = "feasible"
	StatusInfeasible Status = "infeasible"
	StatusTimeout    Status = "timeout"
)

// Model is the monomorphic descriptor handed to the solver adapter: the
// roster, the distance function, and the tunables the objective weighs.
type Model struct {
	Roster            *engine.Roster
	Distance          heuristic.Distancer
	TargetGroupSize   int     // k (default 3)
	PenaltyUnderOver  float64 // P1 = P2 (default 100)
	PenaltyRepeatMeet float64 // P3 (default 50)
}

// DefaultModel fills in the standard penalty weights and target group
// size over roster and dist.
func DefaultModel(roster *engine.Roster, dist heuristic.Distancer) Model {
	return Model{
		Roster:            roster,
		Distance:          dist,
		TargetGroupSize:   3,
		PenaltyUnderOver:  100,
		PenaltyRepeatMeet: 50,
	}
}

func (m Model) resolvedK() int {
	if m.TargetGroupSize <= 0 {
		return 3
	}
	return m.TargetGroupSize
}

func (m Model) resolvedPenaltyUnderOver() float64 {
	if m.PenaltyUnderOver <= 0 {
		return 100
	}
	return m.PenaltyUnderOver
}

func (m Model) resolvedPenaltyRepeatMeet() float64 {
	if m.PenaltyRepeatMeet <= 0 {
		return 50
	}
	return m.PenaltyRepeatMeet
}

// Result is what Solve returns: the chosen partition and route, shaped
// like the heuristic package's output so a caller can persist either
// path's result the same way.
type Result struct {
	Status      Status
	Partition   heuristic.HostPartition
	Assignments map[engine.Course]heuristic.CourseAssignment
	Route       *heuristic.RouteState
	Objective   float64
}
