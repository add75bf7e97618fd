package scenario

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const sampleYaml = `
scenario:
  map_path: testdata/downtown.json
  seed: 7
  duration_seconds: 120
  save_every_seconds: 30
  spawns:
    - at_seconds: 5
      vehicle_kind: CAR
      start_lane: 1
      goal_lane: 9
    - at_seconds: 0
      vehicle_kind: BUS
      start_lane: 2
      goal_lane: 4
      route: 12
`

func writeScenario(t *testing.T, content string) string {
	t.Helper()
	dir := t.TempDir()
	path := filepath.Join(dir, "scenario.yaml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestFromYaml(t *testing.T) {
	t.Run("loads map path, duration and spawns", func(t *testing.T) {
		path := writeScenario(t, sampleYaml)
		cfg, err := FromYaml(path)
		require.NoError(t, err)

		assert.Equal(t, "testdata/downtown.json", cfg.MapPath)
		assert.Equal(t, int64(7), cfg.Seed)
		assert.Equal(t, 120.0, cfg.DurationS)
		assert.Equal(t, 30.0, cfg.SaveEveryS)
		require.Len(t, cfg.Spawns, 2)
		assert.Equal(t, 5.0, cfg.Spawns[0].AtSeconds)
		assert.Equal(t, 0.0, cfg.Spawns[1].AtSeconds)
	})

	t.Run("duration converts seconds to a time.Duration", func(t *testing.T) {
		path := writeScenario(t, sampleYaml)
		cfg, err := FromYaml(path)
		require.NoError(t, err)
		assert.Equal(t, float64(cfg.DurationS), cfg.Duration().Seconds())
	})

	t.Run("missing file returns an error", func(t *testing.T) {
		_, err := FromYaml(filepath.Join(t.TempDir(), "missing.yaml"))
		assert.Error(t, err)
	})
}

func TestSortedSpawns(t *testing.T) {
	t.Run("orders spawns by at_seconds without mutating the original slice", func(t *testing.T) {
		path := writeScenario(t, sampleYaml)
		cfg, err := FromYaml(path)
		require.NoError(t, err)

		sorted := cfg.SortedSpawns()
		require.Len(t, sorted, 2)
		assert.Equal(t, 0.0, sorted[0].AtSeconds)
		assert.Equal(t, 5.0, sorted[1].AtSeconds)

		// original order preserved
		assert.Equal(t, 5.0, cfg.Spawns[0].AtSeconds)
	})
}
