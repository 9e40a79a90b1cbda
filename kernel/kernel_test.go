package kernel

import (
	"testing"

	"github.com/manticoreos/manticore/abi"
	"github.com/manticoreos/manticore/config"
	"github.com/manticoreos/manticore/sched"
)

func TestKernelVMA(t *testing.T) {
	if got := KernelVMA(config.ArchX86_64); got != abi.KernelVMAx86 {
		t.Fatalf("x86_64: got %#x, want %#x", got, abi.KernelVMAx86)
	}
	if got := KernelVMA(config.ArchAArch64); got != abi.KernelVMAarm {
		t.Fatalf("aarch64: got %#x, want %#x", got, abi.KernelVMAarm)
	}
}

type recordingSwitcher struct {
	events []string
}

func (r *recordingSwitcher) SwitchTo(old, new *sched.Task) {
	r.events = append(r.events, "kernel:"+old.Name+"->"+new.Name)
}
func (r *recordingSwitcher) SwitchToUser(old, new *sched.Task) {
	r.events = append(r.events, "user:"+old.Name+"->"+new.Name)
}
func (r *recordingSwitcher) SwitchToFirst(new *sched.Task) {
	r.events = append(r.events, "first:"+new.Name)
}

func TestIdleStepWakesAndSchedules(t *testing.T) {
	sw := &recordingSwitcher{}
	idle := sched.NewTaskState("idle", 0, 0)
	idle.Flags = 0
	s := sched.NewScheduler(sw, idle)

	b := sched.NewTaskState("b", 0x3000, 0x4000)
	s.Enqueue(b)
	IdleStep(s)
	if s.Current() != b {
		t.Fatalf("expected b to run after IdleStep, got %v", s.Current())
	}

	s.Wait()
	if s.Waiting() != 1 {
		t.Fatalf("expected 1 waiting task, got %d", s.Waiting())
	}
	IdleStep(s)
	if s.Waiting() != 0 {
		t.Fatalf("expected IdleStep to drain waiters, got %d", s.Waiting())
	}
}
