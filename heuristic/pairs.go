package heuristic

import "github.com/rdinner/engine"

// pairKey is a normalised (a, b) key with a < b so (x, y) and (y, x) count
// the same meeting.
type pairKey struct {
	a, b engine.TeamID
}

func normalizedPair(a, b engine.TeamID) pairKey {
	if a > b {
		a, b = b, a
	}
	return pairKey{a: a, b: b}
}

// PairCounter tracks how many times each pair of teams has already shared
// a course, so guest assignment can favor pairs that have never met.
type PairCounter map[pairKey]int

// NewPairCounter returns an empty counter.
func NewPairCounter() PairCounter {
	return make(PairCounter)
}

// Count returns how many times a and b have already met.
func (pc PairCounter) Count(a, b engine.TeamID) int {
	return pc[normalizedPair(a, b)]
}

// Increment records one more meeting between a and b.
func (pc PairCounter) Increment(a, b engine.TeamID) {
	if a == b {
		return
	}
	pc[normalizedPair(a, b)]++
}

// meetings sums Count(guest, other) across others: prior recorded
// pair-wise encounters between guest and every id in others.
func meetings(pc PairCounter, guest engine.TeamID, others []engine.TeamID) int {
	total := 0
	for _, o := range others {
		if o == guest {
			continue
		}
		total += pc.Count(guest, o)
	}
	return total
}
