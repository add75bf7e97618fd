package scheduler

import "github.com/transitsim/microsim/internal/model"

// placeholderPath is swapped in for a live SpawnCarCommand's real path
// request before serialization, and swapped back out on restore. Only the
// request shape need survive a save; the router recomputes an actual path
// from it on load.
var placeholderPath = model.PathRequest{}

// GetRequestsForSavestate returns the path requests carried by every
// currently queued SpawnCarCommand, keyed by CarID — the scheduler does
// not persist this path itself, persist does, but before it can, it must
// pull these requests out.
func (s *Scheduler) GetRequestsForSavestate() map[model.CarID]model.PathRequest {
	out := make(map[model.CarID]model.PathRequest)
	for key, e := range s.queuedCommands {
		if key.Kind != model.KeyCar {
			continue
		}
		if spawn, ok := e.cmd.(model.SpawnCarCommand); ok {
			out[spawn.Params.CarID] = spawn.Params.Path
		}
	}
	return out
}

// BeforeSavestate replaces every live SpawnCarCommand's path request with a
// placeholder, returning the originals keyed by CarID, so the serialized
// form carries no path data that must round-trip byte-for-byte — the
// router recomputes paths from the request shape alone after restore.
func (s *Scheduler) BeforeSavestate() map[model.CarID]model.PathRequest {
	originals := s.GetRequestsForSavestate()
	for key, e := range s.queuedCommands {
		if key.Kind != model.KeyCar {
			continue
		}
		if spawn, ok := e.cmd.(model.SpawnCarCommand); ok {
			spawn.Params.Path = placeholderPath
			s.queuedCommands[key] = entry{cmd: spawn, time: e.time}
		}
	}
	return originals
}

// AfterSavestate restores the path requests extracted by BeforeSavestate.
// Restore order is irrelevant here since the map is keyed by CarID, not
// position — unlike the Rust original's Vec-based extraction, a Go map
// makes "exactly invert the extraction order" trivial rather than
// order-sensitive.
func (s *Scheduler) AfterSavestate(restore map[model.CarID]model.PathRequest) {
	for key, e := range s.queuedCommands {
		if key.Kind != model.KeyCar {
			continue
		}
		spawn, ok := e.cmd.(model.SpawnCarCommand)
		if !ok {
			continue
		}
		if path, found := restore[spawn.Params.CarID]; found {
			spawn.Params.Path = path
			s.queuedCommands[key] = entry{cmd: spawn, time: e.time}
		}
	}
}
