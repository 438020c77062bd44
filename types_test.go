package engine

import "testing"

func TestParticipationPredicates(t *testing.T) {
	cases := []struct {
		participation ParticipationType
		canHost       bool
		canGuest      bool
	}{
		{ParticipationFull, true, true},
		{ParticipationKitchenOnly, true, false},
		{ParticipationGuestOnly, false, true},
	}
	for _, c := range cases {
		team := Team{Participation: c.participation}
		if got := team.CanHost(); got != c.canHost {
			t.Errorf("%s: CanHost() = %v, want %v", c.participation, got, c.canHost)
		}
		if got := team.CanGuest(); got != c.canGuest {
			t.Errorf("%s: CanGuest() = %v, want %v", c.participation, got, c.canGuest)
		}
	}
}

func TestRosterHostAndGuestCapableFilterByParticipation(t *testing.T) {
	roster := NewRoster(1, []Team{
		{ID: 1, Participation: ParticipationFull},
		{ID: 2, Participation: ParticipationKitchenOnly},
		{ID: 3, Participation: ParticipationGuestOnly},
	})

	hosts := roster.HostCapable()
	if len(hosts) != 2 || hosts[0] != 1 || hosts[1] != 2 {
		t.Errorf("HostCapable() = %v, want [1 2]", hosts)
	}

	guests := roster.GuestCapable()
	if len(guests) != 2 || guests[0] != 1 || guests[1] != 3 {
		t.Errorf("GuestCapable() = %v, want [1 3]", guests)
	}
}

func TestNeedsGuestKitchen(t *testing.T) {
	if (Team{HasKitchen: true}).NeedsGuestKitchen() {
		t.Error("a team with its own kitchen should not need a guest kitchen")
	}
	if !(Team{HasKitchen: false}).NeedsGuestKitchen() {
		t.Error("a team without a kitchen should need a guest kitchen")
	}
}
