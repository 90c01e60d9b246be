// Package sched runs deferred multi-tick work on the simulation thread.
//
// A [Sequence] is an explicit state machine that is resumed once on every
// tick boundary it is due for and reports how long to wait before its next
// resumption. Nothing here spawns goroutines: [Scheduler.Advance] is called
// once per fixed tick and resumes due sequences in the order they were
// started. Sequences are grouped by [Owner] so that every pending step of,
// say, one hand can be abandoned at once.
package sched

// Owner groups sequences for cancellation.
type Owner int

// Handle identifies a started sequence.
type Handle uint64

// Wait is the value a sequence returns from Resume.
type Wait struct {
	Ticks int
	Done  bool
}

// Next resumes on the following tick.
func Next() Wait { return Wait{Ticks: 1} }

// After resumes n ticks later; n < 1 is treated as 1.
func After(n int) Wait {
	if n < 1 {
		n = 1
	}
	return Wait{Ticks: n}
}

// Done finishes the sequence.
func Done() Wait { return Wait{Done: true} }

type Sequence interface {
	Resume(tick uint64) Wait
}

// SequenceFunc adapts a function to [Sequence].
type SequenceFunc func(tick uint64) Wait

func (f SequenceFunc) Resume(tick uint64) Wait { return f(tick) }

type task struct {
	handle    Handle
	owner     Owner
	name      string
	seq       Sequence
	due       uint64
	cancelled bool
}

type Scheduler struct {
	tick  uint64
	next  Handle
	tasks []*task
}

func New() *Scheduler {
	return &Scheduler{next: 1}
}

// Tick is the tick the next Advance will run.
func (s *Scheduler) Tick() uint64 { return s.tick }

// Start schedules seq to first resume delay ticks from now; delay < 1 is
// treated as 1, so a sequence never runs inside the tick that started it.
func (s *Scheduler) Start(owner Owner, name string, seq Sequence, delay int) Handle {
	if delay < 1 {
		delay = 1
	}
	h := s.next
	s.next++
	s.tasks = append(s.tasks, &task{
		handle: h,
		owner:  owner,
		name:   name,
		seq:    seq,
		due:    s.tick + uint64(delay),
	})
	return h
}

// Cancel abandons one sequence. It reports whether the sequence was pending.
func (s *Scheduler) Cancel(h Handle) bool {
	for _, t := range s.tasks {
		if t.handle == h && !t.cancelled {
			t.cancelled = true
			return true
		}
	}
	return false
}

// CancelOwner abandons every pending sequence of owner and returns how many
// were cancelled.
func (s *Scheduler) CancelOwner(owner Owner) int {
	n := 0
	for _, t := range s.tasks {
		if t.owner == owner && !t.cancelled {
			t.cancelled = true
			n++
		}
	}
	return n
}

// Pending returns the names of owner's live sequences in start order.
func (s *Scheduler) Pending(owner Owner) []string {
	var names []string
	for _, t := range s.tasks {
		if t.owner == owner && !t.cancelled {
			names = append(names, t.name)
		}
	}
	return names
}

// Advance resumes every sequence due on the current tick, then moves to the
// next tick. Sequences cancelled during the pass are skipped; sequences
// started during it wait for a later tick.
func (s *Scheduler) Advance() {
	now := s.tick
	count := len(s.tasks)
	for i := 0; i < count; i++ {
		t := s.tasks[i]
		if t.cancelled || t.due > now {
			continue
		}
		w := t.seq.Resume(now)
		if t.cancelled {
			continue
		}
		if w.Done {
			t.cancelled = true
			continue
		}
		ticks := w.Ticks
		if ticks < 1 {
			ticks = 1
		}
		t.due = now + uint64(ticks)
	}

	live := s.tasks[:0]
	for _, t := range s.tasks {
		if !t.cancelled {
			live = append(live, t)
		}
	}
	for i := len(live); i < len(s.tasks); i++ {
		s.tasks[i] = nil
	}
	s.tasks = live
	s.tick++
}
