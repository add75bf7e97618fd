package scheduler

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/transitsim/microsim/internal/model"
	"github.com/transitsim/microsim/internal/simtime"
)

func seconds(n int) simtime.T {
	return simtime.T(0).Add(simtime.FromSeconds(float64(n)))
}

func TestScheduler(t *testing.T) {
	t.Run("push then get_next returns the command at its time", func(t *testing.T) {
		s := New()
		car := model.NewCarID()
		cmd := model.UpdateCarCommand{CarID: car}
		s.Push(seconds(5), cmd)

		got, at, ok := s.GetNext()
		require.True(t, ok)
		assert.Equal(t, cmd, got)
		assert.Equal(t, seconds(5), at)
		assert.Equal(t, seconds(5), s.LatestTime())
	})

	t.Run("empty scheduler returns no next", func(t *testing.T) {
		s := New()
		_, _, ok := s.GetNext()
		assert.False(t, ok)
		_, ok = s.PeekNextTime()
		assert.False(t, ok)
	})

	t.Run("push of already-live key panics", func(t *testing.T) {
		s := New()
		car := model.NewCarID()
		s.Push(seconds(1), model.UpdateCarCommand{CarID: car})
		assert.Panics(t, func() {
			s.Push(seconds(2), model.UpdateCarCommand{CarID: car})
		})
	})

	t.Run("push before latest time panics", func(t *testing.T) {
		s := New()
		_, _, _ = s.GetNext() // latest stays 0
		s.Push(seconds(5), model.UpdateCarCommand{CarID: model.NewCarID()})
		s.GetNext()
		assert.Panics(t, func() {
			s.Push(seconds(1), model.UpdateCarCommand{CarID: model.NewCarID()})
		})
	})

	t.Run("update replaces scheduled time and the stale entry is dropped silently", func(t *testing.T) {
		// Scenario 6: push(t=5s, UpdateCar(c)); update(t=8s, UpdateCar(c)).
		// get_next returns the command exactly once, observed at 8s.
		s := New()
		car := model.NewCarID()
		cmd := model.UpdateCarCommand{CarID: car}
		s.Push(seconds(5), cmd)
		s.Update(seconds(8), cmd)

		got, at, ok := s.GetNext()
		require.True(t, ok)
		assert.Equal(t, cmd, got)
		assert.Equal(t, seconds(8), at)

		// The stale t=5 entry must not surface as a second live command.
		_, _, ok = s.GetNext()
		assert.False(t, ok)
	})

	t.Run("update of unknown key panics", func(t *testing.T) {
		s := New()
		cmd := model.UpdateCarCommand{CarID: model.NewCarID()}
		assert.Panics(t, func() {
			s.Update(seconds(1), cmd)
		})
	})

	t.Run("update with a different command identity panics", func(t *testing.T) {
		s := New()
		car := model.NewCarID()
		s.Push(seconds(1), model.SpawnCarCommand{Params: model.SpawnCarParams{CarID: car}, Retry: false})
		assert.Panics(t, func() {
			s.Update(seconds(2), model.SpawnCarCommand{Params: model.SpawnCarParams{CarID: car}, Retry: true})
		})
	})

	t.Run("cancel removes the live command and the heap entry goes stale", func(t *testing.T) {
		s := New()
		car := model.NewCarID()
		cmd := model.UpdateCarCommand{CarID: car}
		s.Push(seconds(5), cmd)
		s.Cancel(cmd)

		_, _, ok := s.GetNext()
		assert.False(t, ok)
	})

	t.Run("monotonicity: successive get_next times are non-decreasing", func(t *testing.T) {
		s := New()
		times := []int{3, 1, 4, 8, 5, 9, 2, 6}
		for _, sec := range times {
			s.Push(seconds(sec), model.CallbackCommand{Label: labelFor(sec)})
		}

		var last simtime.T
		for {
			_, at, ok := s.GetNext()
			if !ok {
				break
			}
			assert.GreaterOrEqual(t, at, last)
			last = at
		}
	})

	t.Run("uniqueness: queued_commands never holds duplicate keys", func(t *testing.T) {
		s := New()
		car := model.NewCarID()
		s.Push(seconds(1), model.UpdateCarCommand{CarID: car})
		assert.Equal(t, 1, s.Len())
		s.Cancel(model.UpdateCarCommand{CarID: car})
		assert.Equal(t, 0, s.Len())
	})

	t.Run("same-time ties break deterministically on command key", func(t *testing.T) {
		run := func() []model.CommandKey {
			s := New()
			labels := []string{"zeta", "alpha", "mike", "bravo"}
			for _, l := range labels {
				s.Push(seconds(10), model.CallbackCommand{Label: l})
			}
			var order []model.CommandKey
			for {
				cmd, _, ok := s.GetNext()
				if !ok {
					break
				}
				order = append(order, cmd.Key())
			}
			return order
		}

		first := run()
		second := run()
		assert.Equal(t, first, second)
		// The key total order sorts callback labels lexicographically.
		assert.Equal(t, "alpha", first[0].Label)
		assert.Equal(t, "bravo", first[1].Label)
	})

	t.Run("savestate round-trip preserves spawn path requests", func(t *testing.T) {
		s := New()
		car := model.NewCarID()
		req := model.PathRequest{Start: 1, Goal: 99}
		s.Push(seconds(1), model.SpawnCarCommand{Params: model.SpawnCarParams{CarID: car, Path: req}})

		originals := s.BeforeSavestate()
		require.Equal(t, req, originals[car])

		extracted := s.GetRequestsForSavestate()
		assert.Equal(t, model.PathRequest{}, extracted[car])

		s.AfterSavestate(originals)
		restored := s.GetRequestsForSavestate()
		assert.Equal(t, req, restored[car])
	})
}

func labelFor(sec int) string {
	switch sec {
	case 3:
		return "mike"
	case 1:
		return "alpha"
	case 4:
		return "delta"
	case 8:
		return "hotel"
	case 5:
		return "echo"
	case 9:
		return "nine"
	case 2:
		return "bravo"
	case 6:
		return "foxtrot"
	default:
		return "x"
	}
}
