package cmd

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/rdinner/engine"
)

func writeFixtureFile(t *testing.T, name, contents string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	if err := os.WriteFile(path, []byte(contents), 0o644); err != nil {
		t.Fatalf("writing fixture: %v", err)
	}
	return path
}

func TestLoadFixtureDetectsJSON(t *testing.T) {
	path := writeFixtureFile(t, "event.json", `{
		"event_id": 7,
		"teams": [{"id": 1, "home_address": "a", "has_kitchen": true, "participation": "full"}]
	}`)

	f, err := loadFixture(path)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if f.EventID != 7 {
		t.Fatalf("expected event id 7, got %d", f.EventID)
	}
	if len(f.Teams) != 1 || f.Teams[0].HomeAddress != "a" {
		t.Fatalf("unexpected teams: %+v", f.Teams)
	}
}

func TestLoadFixtureFallsBackToYAML(t *testing.T) {
	path := writeFixtureFile(t, "event.yaml", "event_id: 3\nteams:\n  - id: 1\n    home_address: b\n    has_kitchen: false\n    participation: guest_only\n")

	f, err := loadFixture(path)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if f.EventID != 3 {
		t.Fatalf("expected event id 3, got %d", f.EventID)
	}
	if len(f.Teams) != 1 || f.Teams[0].Participation != "guest_only" {
		t.Fatalf("unexpected teams: %+v", f.Teams)
	}
}

func TestParticipationFromWire(t *testing.T) {
	cases := map[string]engine.ParticipationType{
		"kitchen_only": engine.ParticipationKitchenOnly,
		"guest_only":   engine.ParticipationGuestOnly,
		"full":         engine.ParticipationFull,
		"":             engine.ParticipationFull,
		"bogus":        engine.ParticipationFull,
	}
	for in, want := range cases {
		if got := participationFromWire(in); got != want {
			t.Errorf("participationFromWire(%q) = %v, want %v", in, got, want)
		}
	}
}

func TestWireFixtureToRosterPreservesCoordinatesAndDropsMissingOnes(t *testing.T) {
	lat, lng := 48.1, 11.5
	f := wireFixture{
		EventID: 1,
		Teams: []wireTeam{
			{ID: 1, HomeAddress: "has coords", Lat: &lat, Lng: &lng, HasKitchen: true, Participation: "full"},
			{ID: 2, HomeAddress: "no coords yet", HasKitchen: false, Participation: "guest_only"},
		},
	}

	roster := f.toRoster()
	if roster.Len() != 2 {
		t.Fatalf("expected 2 teams, got %d", roster.Len())
	}

	withCoord := roster.Get(1)
	if withCoord.Coord == nil || withCoord.Coord.Lat != lat || withCoord.Coord.Lng != lng {
		t.Fatalf("expected team 1 to keep its coordinate, got %+v", withCoord.Coord)
	}

	withoutCoord := roster.Get(2)
	if withoutCoord.Coord != nil {
		t.Fatalf("expected team 2 to have a nil coordinate pending geocoding, got %+v", withoutCoord.Coord)
	}
	if withoutCoord.Participation != engine.ParticipationGuestOnly {
		t.Fatalf("expected guest_only participation, got %v", withoutCoord.Participation)
	}
}

func TestWireFixtureToKitchens(t *testing.T) {
	f := wireFixture{
		Kitchens: []wireKitchen{
			{ID: 1, Lat: 48.1, Lng: 11.5, MaxTeams: 2},
			{ID: 2, Lat: 48.2, Lng: 11.6, MaxTeams: 1},
		},
	}

	kitchens := f.toKitchens()
	if len(kitchens) != 2 {
		t.Fatalf("expected 2 kitchens, got %d", len(kitchens))
	}
	if kitchens[0].ID != 1 || kitchens[0].MaxTeams != 2 {
		t.Fatalf("unexpected first kitchen: %+v", kitchens[0])
	}
	if kitchens[0].Coord.Lat != 48.1 || kitchens[0].Coord.Lng != 11.5 {
		t.Fatalf("unexpected kitchen coordinate: %+v", kitchens[0].Coord)
	}
}
