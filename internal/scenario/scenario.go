// Package scenario loads simulation scenario configuration from YAML
// (map file path, spawn schedule, random seed) via viper, grounded on
// niceyeti-tabular's reinforcement.FromYaml idiom: viper reads the file,
// then the section of interest is round-tripped through yaml.v3 into a
// plain Go struct rather than relying on viper's own (stringly-typed)
// Unmarshal for the nested spawn list.
package scenario

import (
	"fmt"
	"path/filepath"
	"time"

	"github.com/spf13/viper"
	"gopkg.in/yaml.v3"

	"github.com/transitsim/microsim/internal/model"
)

// SpawnEntry schedules one car/bus spawn at a simulated offset from the
// scenario's start.
type SpawnEntry struct {
	AtSeconds   float64          `yaml:"at_seconds"`
	VehicleKind model.VehicleKind `yaml:"vehicle_kind"`
	StartLane   model.LaneID      `yaml:"start_lane"`
	GoalLane    model.LaneID      `yaml:"goal_lane"`
	FromSpot    *model.ParkingSpotID `yaml:"from_spot,omitempty"`
	Route       model.BusRouteID     `yaml:"route,omitempty"`
}

// Config is a fully-resolved scenario: which map to load and what to spawn
// when, plus a seed for any randomized decisions a scenario generator made.
type Config struct {
	MapPath    string       `yaml:"map_path"`
	Seed       int64        `yaml:"seed"`
	DurationS  float64      `yaml:"duration_seconds"`
	Spawns     []SpawnEntry `yaml:"spawns"`
	SaveEveryS float64      `yaml:"save_every_seconds"`
}

// Duration returns the scenario's run length as a time.Duration.
func (c *Config) Duration() time.Duration {
	return time.Duration(c.DurationS * float64(time.Second))
}

// outerConfig mirrors the teacher's OuterConfig wrapper: viper reads the
// whole file, but only the "scenario" section is meaningful to us.
type outerConfig struct {
	Scenario map[string]interface{} `mapstructure:"scenario"`
}

// FromYaml loads a Config from a YAML file on disk.
func FromYaml(path string) (*Config, error) {
	vp := viper.New()
	vp.SetConfigFile(path)
	vp.SetConfigType("yaml")
	vp.AddConfigPath(filepath.Dir(path))
	if err := vp.ReadInConfig(); err != nil {
		return nil, fmt.Errorf("read scenario config: %w", err)
	}

	outer := &outerConfig{}
	if err := vp.Unmarshal(outer); err != nil {
		return nil, fmt.Errorf("unmarshal scenario wrapper: %w", err)
	}

	raw, err := yaml.Marshal(outer.Scenario)
	if err != nil {
		return nil, fmt.Errorf("re-marshal scenario section: %w", err)
	}

	cfg := &Config{}
	if err := yaml.Unmarshal(raw, cfg); err != nil {
		return nil, fmt.Errorf("unmarshal scenario section: %w", err)
	}
	return cfg, nil
}

// SortedSpawns returns spawn entries ordered by scheduled time, the order
// the load step must push them to the scheduler in.
func (c *Config) SortedSpawns() []SpawnEntry {
	out := make([]SpawnEntry, len(c.Spawns))
	copy(out, c.Spawns)
	for i := 1; i < len(out); i++ {
		for j := i; j > 0 && out[j].AtSeconds < out[j-1].AtSeconds; j-- {
			out[j], out[j-1] = out[j-1], out[j]
		}
	}
	return out
}
