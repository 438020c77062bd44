package cmd

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/rdinner/engine"
	"github.com/rdinner/engine/cacheinvalidate"
	"github.com/rdinner/engine/geocode"
)

var (
	geocodeForce  bool
	geocodeTeamID int
)

var geocodeTeamsCmd = &cobra.Command{
	Use:   "geocode_teams",
	Short: "Resolve team home addresses to coordinates against a team fixture",
	Long: `Reads the JSON fixture named by --fixture, geocodes every team missing
coordinates (or every team, with --force), and writes the updated
fixture back to the same path.`,
	RunE: runGeocodeTeams,
}

func init() {
	geocodeTeamsCmd.Flags().BoolVar(&geocodeForce, "force", false, "re-geocode teams that already have coordinates")
	geocodeTeamsCmd.Flags().IntVar(&geocodeTeamID, "team-id", 0, "limit to a single team id (0 means all teams)")
	geocodeTeamsCmd.Flags().StringVar(&runFixturePath, "fixture", "", "path to the team fixture to update in place")
	_ = geocodeTeamsCmd.MarkFlagRequired("fixture")
}

func runGeocodeTeams(cmd *cobra.Command, args []string) error {
	fixture, err := loadFixture(runFixturePath)
	if err != nil {
		return fmt.Errorf("loading fixture: %w", err)
	}

	db, err := openStore()
	if err != nil {
		return fmt.Errorf("opening store: %w", err)
	}
	defer db.Close()

	backend := geocode.NewPseudoGeocoder()
	geocoder := geocode.NewCachedGeocoder(backend, db, cfg.Cache.TTL)

	bus := cacheinvalidate.NewBus(log, 16)
	defer bus.Stop()
	bus.Subscribe(cacheinvalidate.InvalidatorFunc(func(m cacheinvalidate.Mutation) error {
		log.WithFields(logrus.Fields{"kind": m.Kind.String(), "team_id": m.TeamID}).Info("team mutation invalidation notice")
		return nil
	}))

	resolved := 0
	for i := range fixture.Teams {
		t := &fixture.Teams[i]
		if geocodeTeamID != 0 && t.ID != geocodeTeamID {
			continue
		}
		hadCoords := t.Lat != nil && t.Lng != nil
		if !geocodeForce && hadCoords {
			continue
		}
		if geocodeForce && hadCoords {
			// Bypass the persistent cache: otherwise a forced re-geocode of
			// an already-cached address just returns the stale entry.
			if err := geocode.InvalidateCache(db, t.HomeAddress); err != nil {
				log.WithError(err).WithField("team_id", t.ID).Warn("geocode_teams: cache invalidation failed, proceeding anyway")
			}
		}
		coord := geocoder.Geocode(t.HomeAddress)
		if coord == nil {
			log.WithField("team_id", t.ID).Warn("geocode_teams: address did not resolve")
			continue
		}
		lat, lng := engine.Quantize(coord.Lat), engine.Quantize(coord.Lng)
		t.Lat = &lat
		t.Lng = &lng
		resolved++
		bus.Publish(cacheinvalidate.Mutation{Kind: cacheinvalidate.KindTeam, TeamID: t.ID})
	}

	encoded, err := json.MarshalIndent(fixture, "", "  ")
	if err != nil {
		return err
	}
	if err := os.WriteFile(runFixturePath, encoded, 0o644); err != nil {
		return fmt.Errorf("writing fixture: %w", err)
	}

	fmt.Printf("geocoded %d team(s)\n", resolved)
	return nil
}
