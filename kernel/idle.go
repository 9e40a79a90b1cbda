package kernel

import "github.com/manticoreos/manticore/sched"

// IdleStep is the body of the idle loop: wake every parked waiter,
// then let the scheduler pick the
// next runnable task (or fall back to idle again). Pulled out as its
// own function so it is exercised directly by a test rather than only
// through a real boot.
func IdleStep(s *sched.Scheduler) {
	s.WakeUpProcesses()
	s.Schedule()
}
