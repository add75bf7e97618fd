package persist

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/transitsim/microsim/internal/model"
	"github.com/transitsim/microsim/internal/simtime"
)

func TestSnapshotRoundTrip(t *testing.T) {
	t.Run("marshal then unmarshal preserves cars, queues and path requests", func(t *testing.T) {
		car := model.NewCarID()
		snap := Snapshot{
			SavedAt:    time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC),
			LatestTime: simtime.T(0).Add(simtime.FromSeconds(42)),
			LastTime:   simtime.T(0).Add(simtime.FromSeconds(100)),
			PathRequests: map[model.CarID]model.PathRequest{
				car: {Start: 1, Goal: 2},
			},
			Cars: []CarRecord{
				{
					ID:        car,
					Vehicle:   model.Vehicle{ID: car, Kind: model.VehicleCar, Length: 4.5},
					StateJSON: []byte(`{"kind":"CROSSING"}`),
					Path:      []model.Traversable{model.Lane(1), model.Turn(7)},
				},
			},
			Queues: []QueueRecord{
				{On: model.Lane(1), Cars: []model.CarID{car}},
			},
		}

		data, err := Marshal(snap)
		require.NoError(t, err)

		got, err := Unmarshal(data)
		require.NoError(t, err)

		assert.Equal(t, snap.LatestTime, got.LatestTime)
		assert.Equal(t, snap.LastTime, got.LastTime)
		require.Len(t, got.Cars, 1)
		assert.Equal(t, snap.Cars[0].ID, got.Cars[0].ID)
		assert.Equal(t, snap.Cars[0].Vehicle, got.Cars[0].Vehicle)
		assert.Equal(t, snap.Cars[0].Path, got.Cars[0].Path)
		require.Len(t, got.Queues, 1)
		assert.Equal(t, snap.Queues[0].On, got.Queues[0].On)
		assert.Equal(t, snap.Queues[0].Cars, got.Queues[0].Cars)

		// CarID must round-trip as a JSON object key, not just a struct field —
		// this is the reason MarshalText/UnmarshalText exist on CarID at all.
		require.Contains(t, got.PathRequests, car)
		assert.Equal(t, model.PathRequest{Start: 1, Goal: 2}, got.PathRequests[car])
	})

	t.Run("empty snapshot round-trips without error", func(t *testing.T) {
		data, err := Marshal(Snapshot{})
		require.NoError(t, err)

		got, err := Unmarshal(data)
		require.NoError(t, err)
		assert.Empty(t, got.Cars)
		assert.Empty(t, got.Queues)
	})
}

func TestLoadConfigFromEnv(t *testing.T) {
	t.Run("defaults apply when no env vars are set", func(t *testing.T) {
		cfg := LoadConfigFromEnv()
		assert.Equal(t, "localhost", cfg.Host)
		assert.Equal(t, 5432, cfg.Port)
		assert.Equal(t, "microsim", cfg.Database)
		assert.Equal(t, "disable", cfg.SSLMode)
	})

	t.Run("env vars override defaults", func(t *testing.T) {
		t.Setenv("SIM_DB_HOST", "db.internal")
		t.Setenv("SIM_DB_PORT", "6543")
		cfg := LoadConfigFromEnv()
		assert.Equal(t, "db.internal", cfg.Host)
		assert.Equal(t, 6543, cfg.Port)
	})
}
