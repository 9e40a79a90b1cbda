package sched

// Switcher is the architecture's context-switch trampoline, gated
// behind a narrow interface because its real implementations are
// assembly; they live in arch/x86_64 and arch/aarch64.
type Switcher interface {
	// SwitchTo saves old's context and resumes new's kernel context.
	SwitchTo(old, new *Task)
	// SwitchToUser saves old's context and resumes new via the
	// return-to-userspace trampoline (restoring user segments/SPSR).
	SwitchToUser(old, new *Task)
	// SwitchToFirst resumes new without an outgoing context to save —
	// used for the very first task the scheduler ever runs.
	SwitchToFirst(new *Task)
}

// Scheduler is the single-threaded cooperative scheduler: one run
// queue, one set of parked waiters, and an idle task that is never
// itself on the run queue.
type Scheduler struct {
	sw      Switcher
	current *Task
	idle    *Task
	runq    []*Task
	waiting []*Task
}

// NewScheduler constructs a scheduler whose idle task is idle. The
// idle task itself is never enqueued; Schedule falls back to it when
// the run queue is empty.
func NewScheduler(sw Switcher, idle *Task) *Scheduler {
	return &Scheduler{sw: sw, idle: idle}
}

// Current returns the task presently running.
func (s *Scheduler) Current() *Task { return s.current }

// Enqueue makes t runnable.
func (s *Scheduler) Enqueue(t *Task) {
	s.runq = append(s.runq, t)
}

// Schedule picks the next runnable task (FIFO) and switches to it, or
// falls back to idle if the run queue is empty.
func (s *Scheduler) Schedule() {
	var next *Task
	if len(s.runq) > 0 {
		next = s.runq[0]
		s.runq = s.runq[1:]
	} else {
		next = s.idle
	}
	s.switchTo(next)
}

func (s *Scheduler) switchTo(next *Task) {
	old := s.current
	fromUser := next.Flags&New != 0
	if fromUser {
		next.Flags &^= New
	}
	s.current = next
	switch {
	case old == nil:
		s.sw.SwitchToFirst(next)
	case fromUser:
		s.sw.SwitchToUser(old, next)
	default:
		s.sw.SwitchTo(old, next)
	}
}

// Wait parks the current task as a waiter and yields the CPU via
// Schedule. It is a suspension point: no lock may be held across it.
func (s *Scheduler) Wait() {
	t := s.current
	s.waiting = append(s.waiting, t)
	s.Schedule()
}

// WakeUp makes a specific parked task runnable again, if it is
// currently waiting.
func (s *Scheduler) WakeUp(t *Task) bool {
	for i, w := range s.waiting {
		if w == t {
			s.waiting = append(s.waiting[:i], s.waiting[i+1:]...)
			s.runq = append(s.runq, t)
			return true
		}
	}
	return false
}

// WakeUpProcesses moves every currently parked waiter onto the run
// queue. This is the idle loop's "wake_up_processes" step, run after
// halt returns and before the next Schedule call.
func (s *Scheduler) WakeUpProcesses() {
	if len(s.waiting) == 0 {
		return
	}
	s.runq = append(s.runq, s.waiting...)
	s.waiting = nil
}

// Waiting reports how many tasks are presently parked, for tests and
// diagnostics.
func (s *Scheduler) Waiting() int { return len(s.waiting) }
