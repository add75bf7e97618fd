// Package router implements the per-car path cursor named in spec.md's
// Router external contract (§3): it reports the current traversable, tells
// the caller whether that is the path's last step, advances the cursor
// across segment boundaries, and resolves what happens when the path
// finally runs out. Grounded on original_source/sim/src/mechanics/
// driving.rs's usage of car.router (head/last_step/next/advance/
// maybe_handle_end) since Router's own implementation file
// (mechanics/router.rs) was not retrieved into original_source/.
package router

import "github.com/transitsim/microsim/internal/model"

// ActionKind discriminates the ActionAtEnd variants named in spec.md §3,
// following the teacher's string-constant-enum idiom.
type ActionKind string

const (
	ActionNone           ActionKind = ""
	ActionVanishAtBorder ActionKind = "VANISH_AT_BORDER"
	ActionStartParking   ActionKind = "START_PARKING"
	ActionGotoLaneEnd    ActionKind = "GOTO_LANE_END"
	ActionStopBiking     ActionKind = "STOP_BIKING"
	ActionBusAtStop      ActionKind = "BUS_AT_STOP"
)

// ActionAtEnd is what happens once a car's path cursor has nothing left to
// advance to. Only the fields relevant to Kind are populated.
type ActionAtEnd struct {
	Kind         ActionKind
	Border       model.IntersectionID
	Spot         model.ParkingSpotID
	Rack         model.ParkingSpotID
	LaneEndDist  float64
}

// None reports whether this is the empty action (Queued should stay put).
func (a ActionAtEnd) None() bool { return a.Kind == ActionNone }

// Router is the path-cursor contract DrivingSim/Car consult (spec.md §3).
type Router interface {
	Head() model.Traversable
	LastStep() bool
	Next() model.Traversable
	// Advance consumes the current step, returning the traversable just
	// finished, and moves the cursor onto Next()'s traversable.
	Advance() model.Traversable
	// MaybeHandleEnd resolves the ActionAtEnd for a car sitting at dist on
	// its last step. Calling it when LastStep() is false is a programmer
	// error. Called twice at the same distance must be idempotent — the
	// pre-resolution during the final Unparking step (§4.4) and the real
	// resolution during Phase 2 must agree.
	MaybeHandleEnd(dist float64) ActionAtEnd
}

// PathCursor is the concrete in-memory Router: a fixed slice of
// traversables to walk plus the action to take once it's exhausted. Which
// spot/rack/border the end action names is decided by whatever built the
// path (a scenario file, a trip manager) — router internals stay agnostic
// to trip/parking bookkeeping per spec.md's Non-goals.
type PathCursor struct {
	steps     []model.Traversable
	idx       int
	endAction ActionAtEnd
}

// NewPathCursor builds a cursor over steps, which must be non-empty.
func NewPathCursor(steps []model.Traversable, endAction ActionAtEnd) *PathCursor {
	if len(steps) == 0 {
		panic("router: path must have at least one step")
	}
	return &PathCursor{steps: steps, endAction: endAction}
}

func (p *PathCursor) Head() model.Traversable {
	return p.steps[p.idx]
}

func (p *PathCursor) LastStep() bool {
	return p.idx == len(p.steps)-1
}

func (p *PathCursor) Next() model.Traversable {
	if p.LastStep() {
		panic("router: Next called on the last step")
	}
	return p.steps[p.idx+1]
}

func (p *PathCursor) Advance() model.Traversable {
	finished := p.steps[p.idx]
	if p.idx+1 < len(p.steps) {
		p.idx++
	}
	return finished
}

func (p *PathCursor) MaybeHandleEnd(dist float64) ActionAtEnd {
	if !p.LastStep() {
		panic("router: MaybeHandleEnd called before the last step")
	}
	return p.endAction
}

// Remaining returns the steps (including the current one) left to walk —
// used by the debug API's get_path introspection.
func (p *PathCursor) Remaining() []model.Traversable {
	out := make([]model.Traversable, len(p.steps)-p.idx)
	copy(out, p.steps[p.idx:])
	return out
}
