// Package engine provides the Running Dinner assignment engine: the
// algorithmic pipeline that turns a confirmed team roster, a distance
// oracle, optional guest kitchens and an optional after-party into a
// validated per-team schedule.
//
// # Reading Guide
//
// Start with these three files to understand the engine's shape:
//   - types.go: Course, Team, GuestKitchen, AfterParty and the arena (Roster)
//   - assignment.go: Assignment, OptimizationRun — the output of a run
//   - runner.go: Runner — wires every stage below into one pipeline
//
// # Architecture
//
// The engine package defines the shared data model and orchestrates the
// run; implementations of each pipeline stage live in sub-packages:
//   - engine/geocode/: address to coordinate, cached
//   - engine/routeoracle/: coordinate pair to distance + geometry, cached
//   - engine/matrix/: team x team / team x kitchen / team x afterparty distance tables
//   - engine/milp/: exact solver for small rosters
//   - engine/heuristic/: phased solver for larger rosters
//   - engine/kitchen/: mandatory + opportunistic guest-kitchen splicing
//   - engine/afterparty/: terminal leg extension
//   - engine/progress/: TTL-bound durable copy of the progress snapshot and log (the Channel itself is in progress.go)
//   - engine/persist/: atomic publication of the run
//   - engine/cacheinvalidate/: cache invalidation on source mutation
//   - engine/store/: the shared embedded key-value store backing the above
//
// Sub-packages depend on engine for the shared types; engine never imports
// a sub-package back. Runner receives each stage as a function value, and
// cmd/run.go wires the sub-packages' implementations into it.
package engine
