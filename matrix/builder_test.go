package matrix

import (
	"errors"
	"testing"

	"github.com/rdinner/engine"
)

type fakeOracle struct {
	fail bool
}

func (f fakeOracle) Distance(src, dst engine.Coordinate) (float64, error) {
	if f.fail {
		return 0, errors.New("upstream down")
	}
	dx := src.Lat - dst.Lat
	dy := src.Lng - dst.Lng
	return dx*dx + dy*dy, nil // cheap stand-in distance, not used for exact values
}

func coordPtr(lat, lng float64) *engine.Coordinate {
	return &engine.Coordinate{Lat: lat, Lng: lng}
}

func triangleRoster() *engine.Roster {
	return engine.NewRoster(1, []engine.Team{
		{ID: 1, Coord: coordPtr(0, 0), Participation: engine.ParticipationFull, HasKitchen: true},
		{ID: 2, Coord: coordPtr(0, 1), Participation: engine.ParticipationFull, HasKitchen: true},
		{ID: 3, Coord: coordPtr(1, 0), Participation: engine.ParticipationFull, HasKitchen: true},
	})
}

func TestBuildSymmetricAndZeroDiagonal(t *testing.T) {
	m := Build(fakeOracle{}, triangleRoster(), nil, nil, Options{})

	d12, ok := m.TeamDistance(1, 2)
	if !ok {
		t.Fatal("expected team 1<->2 distance")
	}
	d21, ok := m.TeamDistance(2, 1)
	if !ok || d12 != d21 {
		t.Errorf("not symmetric: d12=%v d21=%v", d12, d21)
	}
	same, ok := m.TeamDistance(1, 1)
	if !ok || same != 0 {
		t.Errorf("diagonal = %v, want 0", same)
	}
}

func TestBuildMissingCoordinateFallback(t *testing.T) {
	roster := engine.NewRoster(1, []engine.Team{
		{ID: 1, Coord: coordPtr(0, 0), Participation: engine.ParticipationFull},
		{ID: 2, Coord: nil, Participation: engine.ParticipationFull},
	})
	m := Build(fakeOracle{}, roster, nil, nil, Options{MissingCoordKM: 3.0})
	km, ok := m.TeamDistance(1, 2)
	if !ok || km != 3.0 {
		t.Errorf("TeamDistance = %v, want fallback 3.0", km)
	}
}

func TestBuildUpstreamFailureFallback(t *testing.T) {
	m := Build(fakeOracle{fail: true}, triangleRoster(), nil, nil, Options{UpstreamFailureKM: 2.5})
	km, ok := m.TeamDistance(1, 2)
	if !ok || km != 2.5 {
		t.Errorf("TeamDistance = %v, want upstream-failure fallback 2.5", km)
	}
}

func TestBuildIncludesKitchensAndAfterParty(t *testing.T) {
	roster := triangleRoster()
	kitchens := []engine.GuestKitchen{{ID: 1, Coord: engine.Coordinate{Lat: 5, Lng: 5}, MaxTeams: 1}}
	ap := &engine.AfterParty{Coord: engine.Coordinate{Lat: 10, Lng: 10}}

	m := Build(fakeOracle{}, roster, kitchens, ap, Options{})

	if _, ok := m.TeamKitchenDistance(1, 1); !ok {
		t.Error("expected team<->kitchen distance")
	}
	if _, ok := m.TeamAfterPartyDistance(1); !ok {
		t.Error("expected team<->afterparty distance")
	}
	if _, ok := m.KitchenAfterPartyDistance(1); !ok {
		t.Error("expected kitchen<->afterparty distance")
	}
}
