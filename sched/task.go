// Package sched implements the single-threaded cooperative task
// scheduler: task state, switch_to/switch_to_first, and the
// wait/wake-up primitives suspension points use.
package sched

// Flag is a bitset of task state flags.
type Flag uint8

// New is set on a task that has never been resumed. Consuming it
// during a switch routes through the architecture's
// return-to-userspace trampoline instead of the ordinary kernel-to-
// kernel resume path.
const New Flag = 1 << 0

// Task is the saved context for one task: the registers a context
// switch needs to resume it, plus scheduling-relevant flags. The
// architecture layer is the only code that interprets
// StackPointer/InstructionPointer as real register values; to sched
// they are opaque.
type Task struct {
	StackPointer       uintptr
	InstructionPointer uintptr
	Flags              Flag
	Name               string
}

// NewTaskState allocates task state for a task that will begin
// executing at entry with the given initial stack pointer, marked
// NEW so its first switch takes the user-entry path.
func NewTaskState(name string, entry, stackTop uintptr) *Task {
	return &Task{
		StackPointer:       stackTop,
		InstructionPointer: entry,
		Flags:              New,
		Name:               name,
	}
}
