package cmd

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/rdinner/engine"
)

var (
	testDataTeams  int
	testDataEvents int
	testDataClean  bool
	testDataDir    string
)

var createTestDataCmd = &cobra.Command{
	Use:   "create_test_data",
	Short: "Generate synthetic event fixtures for load benchmarking",
	RunE:  runCreateTestData,
}

func init() {
	createTestDataCmd.Flags().IntVar(&testDataTeams, "teams", 9, "teams per generated event")
	createTestDataCmd.Flags().IntVar(&testDataEvents, "events", 1, "number of events to generate")
	createTestDataCmd.Flags().BoolVar(&testDataClean, "clean", false, "remove any previously generated fixtures in the output directory first")
	createTestDataCmd.Flags().StringVar(&testDataDir, "dir", "./testdata/generated", "output directory for generated fixture files")
}

// testDataBox is the lat/lng rectangle generated teams and kitchens are
// scattered within, matching geocode.PseudoGeocoder's default central
// Munich bounding box so generated fixtures stay consistent with
// pseudo-geocoded addresses elsewhere in the engine.
var testDataBox = struct{ MinLat, MaxLat, MinLng, MaxLng float64 }{
	MinLat: 48.10, MaxLat: 48.20,
	MinLng: 11.50, MaxLng: 11.65,
}

func runCreateTestData(cmd *cobra.Command, args []string) error {
	if testDataClean {
		if err := os.RemoveAll(testDataDir); err != nil {
			return fmt.Errorf("cleaning %s: %w", testDataDir, err)
		}
	}
	if err := os.MkdirAll(testDataDir, 0o755); err != nil {
		return fmt.Errorf("creating %s: %w", testDataDir, err)
	}

	rng := engine.NewPartitionedRNG(1).ForSubsystem(engine.SubsystemTestDataGen)

	for e := 1; e <= testDataEvents; e++ {
		teams := make([]wireTeam, 0, testDataTeams)
		for i := 1; i <= testDataTeams; i++ {
			lat := testDataBox.MinLat + rng.Float64()*(testDataBox.MaxLat-testDataBox.MinLat)
			lng := testDataBox.MinLng + rng.Float64()*(testDataBox.MaxLng-testDataBox.MinLng)
			lat, lng = engine.Quantize(lat), engine.Quantize(lng)
			teams = append(teams, wireTeam{
				ID:            i,
				HomeAddress:   fmt.Sprintf("Team %d test address, Munich", i),
				Lat:           &lat,
				Lng:           &lng,
				HasKitchen:    rng.Float64() > 0.15,
				Participation: "full",
			})
		}

		fixture := wireFixture{
			EventID: e,
			Teams:   teams,
		}

		path := filepath.Join(testDataDir, fmt.Sprintf("event_%d.json", e))
		encoded, err := json.MarshalIndent(fixture, "", "  ")
		if err != nil {
			return err
		}
		if err := os.WriteFile(path, encoded, 0o644); err != nil {
			return fmt.Errorf("writing %s: %w", path, err)
		}
	}

	fmt.Printf("generated %d event fixture(s) of %d teams each under %s\n", testDataEvents, testDataTeams, testDataDir)
	return nil
}
