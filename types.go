package engine

import "fmt"

// Course identifies one of the three sequential meal slots. Courses are
// served in ascending order: CourseAppetizer, CourseMain, CourseDessert.
type Course int

const (
	CourseAppetizer Course = iota
	CourseMain
	CourseDessert
)

// Courses lists the three courses in serving order. Callers should range
// over this slice rather than assume the zero value of Course is valid.
var Courses = [3]Course{CourseAppetizer, CourseMain, CourseDessert}

func (c Course) String() string {
	switch c {
	case CourseAppetizer:
		return "appetizer"
	case CourseMain:
		return "main"
	case CourseDessert:
		return "dessert"
	default:
		return fmt.Sprintf("course(%d)", int(c))
	}
}

// Next returns the course following c and false if c is the last course.
func (c Course) Next() (Course, bool) {
	if c == CourseDessert {
		return 0, false
	}
	return c + 1, true
}

// ParticipationType controls which roles a team may take on.
type ParticipationType int

const (
	ParticipationFull ParticipationType = iota
	ParticipationKitchenOnly
	ParticipationGuestOnly
)

func (p ParticipationType) String() string {
	switch p {
	case ParticipationFull:
		return "full"
	case ParticipationKitchenOnly:
		return "kitchen_only"
	case ParticipationGuestOnly:
		return "guest_only"
	default:
		return fmt.Sprintf("participation(%d)", int(p))
	}
}

// TeamID is a stable integer identifier assigned by the persistence layer.
type TeamID int

// KitchenID is a stable integer identifier for a GuestKitchen.
type KitchenID int

// Coordinate is a WGS84 latitude/longitude pair.
type Coordinate struct {
	Lat float64
	Lng float64
}

// Team is one participating team in the dinner.
type Team struct {
	ID                TeamID
	HomeAddress       string
	Coord             *Coordinate // nil until geocoded
	HasKitchen        bool
	Participation     ParticipationType
	Notes             string // free-text passthrough from registration, never interpreted
}

// CanHost reports whether the team is eligible to host a course.
func (t Team) CanHost() bool {
	return t.Participation == ParticipationFull || t.Participation == ParticipationKitchenOnly
}

// CanGuest reports whether the team is eligible to visit as a guest.
func (t Team) CanGuest() bool {
	return t.Participation == ParticipationFull || t.Participation == ParticipationGuestOnly
}

// NeedsGuestKitchen reports whether the team must be given a guest kitchen
// if it is selected to host, because it has none of its own.
func (t Team) NeedsGuestKitchen() bool {
	return !t.HasKitchen
}

// GuestKitchen is an auxiliary cooking venue bound to one course at a time.
type GuestKitchen struct {
	ID             KitchenID
	Coord          Coordinate
	MaxTeams       int
	AllowedCourses map[Course]bool // empty/nil means all courses allowed
}

// Allows reports whether the kitchen may be used for course c.
func (k GuestKitchen) Allows(c Course) bool {
	if len(k.AllowedCourses) == 0 {
		return true
	}
	return k.AllowedCourses[c]
}

// AfterParty is the optional terminal venue all teams travel to after dessert.
type AfterParty struct {
	Coord     Coordinate
	StartTime string
	Name      string
	Address   string
}

// Roster is the arena of teams for one event: the single owner of Team
// values. Every cross-reference elsewhere (hosts, guest lists, kitchen
// usage) is a TeamID/KitchenID into this arena, never a pointer, so the
// assignment graph has no cycles to hide behind lazy loading.
type Roster struct {
	EventID int
	teams   map[TeamID]*Team
	order   []TeamID // registration order; determinism anchor for host partitioning
}

// NewRoster builds a Roster from teams in registration order.
func NewRoster(eventID int, teams []Team) *Roster {
	r := &Roster{
		EventID: eventID,
		teams:   make(map[TeamID]*Team, len(teams)),
		order:   make([]TeamID, 0, len(teams)),
	}
	for i := range teams {
		t := teams[i]
		r.teams[t.ID] = &t
		r.order = append(r.order, t.ID)
	}
	return r
}

// Get returns the team with id, or nil if absent.
func (r *Roster) Get(id TeamID) *Team {
	return r.teams[id]
}

// Len returns the number of teams in the roster.
func (r *Roster) Len() int {
	return len(r.order)
}

// Order returns team ids in registration order. The returned slice must
// not be mutated by callers.
func (r *Roster) Order() []TeamID {
	return r.order
}

// HostCapable returns the ids of teams that can host, in registration order.
func (r *Roster) HostCapable() []TeamID {
	out := make([]TeamID, 0, len(r.order))
	for _, id := range r.order {
		if r.teams[id].CanHost() {
			out = append(out, id)
		}
	}
	return out
}

// GuestCapable returns the ids of teams that can guest, in registration order.
func (r *Roster) GuestCapable() []TeamID {
	out := make([]TeamID, 0, len(r.order))
	for _, id := range r.order {
		if r.teams[id].CanGuest() {
			out = append(out, id)
		}
	}
	return out
}
