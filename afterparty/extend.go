// Package afterparty appends the optional terminal leg from each team's
// last stop to the after-party venue, and aggregates the resulting legs
// into summary statistics.
package afterparty

import (
	"fmt"

	"github.com/rdinner/engine"
	"github.com/rdinner/engine/heuristic"
	"github.com/rdinner/engine/kitchen"
)

// Distancer is the subset of matrix.Matrix the extender needs.
type Distancer interface {
	TeamAfterPartyDistance(t engine.TeamID) (float64, bool)
	KitchenAfterPartyDistance(k engine.KitchenID) (float64, bool)
}

// Extend computes every team's last-stop-to-after-party leg, adds it to
// rs's totals, and returns the per-team legs plus the aggregate stats.
// usage may be nil if no kitchens were allocated at all. A team's last
// stop is: the kitchen it was routed through at dessert, if any;
// otherwise the dessert host, or itself if it hosts dessert.
func Extend(partition heuristic.HostPartition, roster *engine.Roster, dist Distancer, usage *kitchen.Usage, rs *heuristic.RouteState) (map[engine.TeamID]engine.AfterPartyLeg, engine.AfterPartyStats, error) {
	legs := make(map[engine.TeamID]engine.AfterPartyLeg, roster.Len())

	for _, id := range roster.Order() {
		leg, err := legFor(id, partition, usage, dist, rs)
		if err != nil {
			return nil, engine.AfterPartyStats{}, err
		}
		legs[id] = leg
		rs.Totals[id] += leg.KM
	}

	stats := aggregate(legs)
	return legs, stats, nil
}

func legFor(id engine.TeamID, partition heuristic.HostPartition, usage *kitchen.Usage, dist Distancer, rs *heuristic.RouteState) (engine.AfterPartyLeg, error) {
	if usage != nil {
		if kitchenID, ok := usage.Kitchen[engine.CourseDessert][id]; ok {
			km, ok := dist.KitchenAfterPartyDistance(kitchenID)
			if !ok {
				return engine.AfterPartyLeg{}, fmt.Errorf("no after-party distance recorded for kitchen %d", kitchenID)
			}
			return engine.AfterPartyLeg{
				FromName: fmt.Sprintf("kitchen_%d", kitchenID),
				ToName:   "afterparty",
				KM:       km,
			}, nil
		}
	}

	last := id
	if !partition.HostsCourse(id, engine.CourseDessert) {
		last = rs.HostOf[engine.CourseDessert][id]
	}
	km, ok := dist.TeamAfterPartyDistance(last)
	if !ok {
		return engine.AfterPartyLeg{}, fmt.Errorf("no after-party distance recorded for team %d", last)
	}
	return engine.AfterPartyLeg{
		FromName: fmt.Sprintf("team_%d", last),
		ToName:   "afterparty",
		KM:       km,
	}, nil
}

func aggregate(legs map[engine.TeamID]engine.AfterPartyLeg) engine.AfterPartyStats {
	if len(legs) == 0 {
		return engine.AfterPartyStats{}
	}
	total := 0.0
	for _, leg := range legs {
		total += leg.KM
	}
	return engine.AfterPartyStats{
		TotalKM:    total,
		AverageKM:  total / float64(len(legs)),
		TeamsCount: len(legs),
	}
}
