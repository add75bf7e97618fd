// Package scheduler implements the simulator's global event scheduler: a
// min-heap of (time, CommandKey) pairs backed by a side-table of canonical
// commands, following the heap.Interface idiom the teacher uses for A*'s
// open set (internal/routing/astar.go's PriorityQueue) generalized to the
// push/update/cancel/peek/pop contract of scheduler.rs.
package scheduler

import (
	"container/heap"
	"fmt"

	"github.com/transitsim/microsim/internal/model"
	"github.com/transitsim/microsim/internal/simtime"
)

// item is one heap entry. Entries are never mutated in place once pushed;
// update() and cancel() instead leave the entry in the heap to go stale and
// rely on queued_commands to filter it out at pop time.
type item struct {
	time  simtime.T
	key   model.CommandKey
	index int
}

// itemHeap implements heap.Interface exactly like the teacher's
// PriorityQueue, except ordered by (time, key) instead of by fScore alone —
// the tie-break on key gives the scheduler its deterministic ordering
// guarantee (§5).
type itemHeap []*item

func (h itemHeap) Len() int { return len(h) }

func (h itemHeap) Less(i, j int) bool {
	if h[i].time != h[j].time {
		return h[i].time < h[j].time
	}
	return h[i].key.Less(h[j].key)
}

func (h itemHeap) Swap(i, j int) {
	h[i], h[j] = h[j], h[i]
	h[i].index = i
	h[j].index = j
}

func (h *itemHeap) Push(x interface{}) {
	n := len(*h)
	it := x.(*item)
	it.index = n
	*h = append(*h, it)
}

func (h *itemHeap) Pop() interface{} {
	old := *h
	n := len(old)
	it := old[n-1]
	old[n-1] = nil
	it.index = -1
	*h = old[0 : n-1]
	return it
}

// entry is the canonical record for one live command.
type entry struct {
	cmd  model.Command
	time simtime.T
}

// Stats are diagnostic counters, explicitly non-authoritative and excluded
// from save/restore, mirroring driving.rs's delta_times/cmd_type_counts.
type Stats struct {
	CommandTypeCounts map[model.CommandKeyKind]int
	DeltaTimes        []simtime.D
}

// Scheduler is the global event queue. It is not safe for concurrent use;
// the simulator is single-threaded and cooperative (§5).
type Scheduler struct {
	items          itemHeap
	queuedCommands map[model.CommandKey]entry
	latestTime     simtime.T
	lastTime       simtime.T

	stats Stats
}

// New returns an empty Scheduler.
func New() *Scheduler {
	return &Scheduler{
		items:          itemHeap{},
		queuedCommands: make(map[model.CommandKey]entry),
		stats: Stats{
			CommandTypeCounts: make(map[model.CommandKeyKind]int),
		},
	}
}

// LatestTime is the time of the most recently popped item.
func (s *Scheduler) LatestTime() simtime.T { return s.latestTime }

// LastTime is the maximum time ever scheduled.
func (s *Scheduler) LastTime() simtime.T { return s.lastTime }

// Push inserts a new command at time t. Panics (a programmer error, not a
// runtime condition) if t predates latestTime or the command's key is
// already live.
func (s *Scheduler) Push(t simtime.T, cmd model.Command) {
	if t < s.latestTime {
		panic(fmt.Sprintf("scheduler: push at %s precedes latest time %s", t, s.latestTime))
	}
	key := cmd.Key()
	if _, live := s.queuedCommands[key]; live {
		panic(fmt.Sprintf("scheduler: push of already-live key %+v", key))
	}
	s.queuedCommands[key] = entry{cmd: cmd, time: t}
	heap.Push(&s.items, &item{time: t, key: key})
	s.bumpLastTime(t)
	s.stats.CommandTypeCounts[key.Kind]++
	s.stats.DeltaTimes = append(s.stats.DeltaTimes, t.Sub(s.latestTime))
}

// Update replaces the scheduled time of a live command. The command
// payload must be identical to what is already queued under this key —
// Update changes *when* a command fires, not *what* it is. The old heap
// entry is left in place and becomes stale; get_next filters it out.
func (s *Scheduler) Update(t simtime.T, cmd model.Command) {
	if t < s.latestTime {
		panic(fmt.Sprintf("scheduler: update at %s precedes latest time %s", t, s.latestTime))
	}
	key := cmd.Key()
	existing, live := s.queuedCommands[key]
	if !live {
		panic(fmt.Sprintf("scheduler: update of unknown key %+v", key))
	}
	if existing.cmd != cmd {
		panic(fmt.Sprintf("scheduler: update changed command identity for key %+v", key))
	}
	s.queuedCommands[key] = entry{cmd: cmd, time: t}
	heap.Push(&s.items, &item{time: t, key: key})
	s.bumpLastTime(t)
}

// Cancel removes a live command. Any heap entries referring to its key
// become stale and are filtered out by GetNext.
func (s *Scheduler) Cancel(cmd model.Command) {
	delete(s.queuedCommands, cmd.Key())
}

// PeekNextTime returns the heap root's time, or false if the scheduler is
// empty. Stale entries are not skipped here — this is a cheap peek, not a
// pop; callers that need the real next command must call GetNext.
func (s *Scheduler) PeekNextTime() (simtime.T, bool) {
	if len(s.items) == 0 {
		return 0, false
	}
	return s.items[0].time, true
}

// GetNext pops the heap root and returns the canonical command if it is
// still live at exactly the popped time, skipping any stale entries it
// encounters first (rescheduled-away or cancelled keys). Returns false
// once the heap is empty. latestTime advances to each popped item's time
// even for stale entries, since a stale pop still represents the passage
// of simulated time past that point.
func (s *Scheduler) GetNext() (model.Command, simtime.T, bool) {
	for len(s.items) > 0 {
		it := heap.Pop(&s.items).(*item)
		s.latestTime = it.time
		e, live := s.queuedCommands[it.key]
		if !live || e.time != it.time {
			continue // stale: cancelled, or superseded by a later Update
		}
		delete(s.queuedCommands, it.key)
		return e.cmd, it.time, true
	}
	return nil, s.latestTime, false
}

func (s *Scheduler) bumpLastTime(t simtime.T) {
	if t > s.lastTime {
		s.lastTime = t
	}
}

// Stats reports diagnostic counters. Not part of the persisted state.
func (s *Scheduler) Stats() Stats {
	counts := make(map[model.CommandKeyKind]int, len(s.stats.CommandTypeCounts))
	for k, v := range s.stats.CommandTypeCounts {
		counts[k] = v
	}
	return Stats{CommandTypeCounts: counts, DeltaTimes: append([]simtime.D(nil), s.stats.DeltaTimes...)}
}

// Len reports how many live commands are currently queued (not the raw
// heap size, which may include stale entries).
func (s *Scheduler) Len() int { return len(s.queuedCommands) }
