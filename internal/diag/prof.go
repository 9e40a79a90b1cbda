// Package diag is the syscall profiling device: an in-memory
// per-syscall cycle/count tally emitted in pprof's wire format, so
// host-side tooling (go tool pprof) can render where syscall time
// went instead of reading a bespoke text dump.
package diag

import (
	"sync"

	"github.com/google/pprof/profile"
)

// sample accumulates call count and total cycles for one syscall
// number.
type sample struct {
	count  int64
	cycles int64
}

// SyscallProfiler tallies per-syscall-number cycle counts. One value
// is shared across the whole kernel; syscall.Dispatcher records into
// it around each Dispatch call.
type SyscallProfiler struct {
	mu      sync.Mutex
	samples map[uint64]*sample
}

// NewSyscallProfiler constructs an empty profiler.
func NewSyscallProfiler() *SyscallProfiler {
	return &SyscallProfiler{samples: make(map[uint64]*sample)}
}

// Record adds one call of syscall nr, having cost cycles CPU cycles,
// to the running tally.
func (p *SyscallProfiler) Record(nr uint64, cycles uint64) {
	p.mu.Lock()
	defer p.mu.Unlock()
	s, ok := p.samples[nr]
	if !ok {
		s = &sample{}
		p.samples[nr] = s
	}
	s.count++
	s.cycles += int64(cycles)
}

// syscallName renders a syscall number as a pprof function name; the
// dispatcher's own abi.Sys* constants give the canonical names, but
// diag has no import-time dependency on abi so it can be used from
// test code that doesn't want the whole syscall ABI in scope — callers
// that want real names pass them as Profile's names map.
func syscallName(nr uint64, names map[uint64]string) string {
	if names != nil {
		if n, ok := names[nr]; ok {
			return n
		}
	}
	return "syscall_unknown"
}

// Profile renders the current tally as a pprof profile.Profile with
// two sample value types, "count" and "cycles" (matching the
// cpu/samples, cpu/nanoseconds convention pprof's own CPU profiles
// use), one synthetic Location+Function per syscall number, and names
// looked up in the optional names map.
func (p *SyscallProfiler) Profile(names map[uint64]string) *profile.Profile {
	p.mu.Lock()
	defer p.mu.Unlock()

	prof := &profile.Profile{
		SampleType: []*profile.ValueType{
			{Type: "count", Unit: "count"},
			{Type: "cycles", Unit: "cycles"},
		},
	}

	var nextID uint64 = 1
	for nr, s := range p.samples {
		fn := &profile.Function{ID: nextID, Name: syscallName(nr, names)}
		loc := &profile.Location{ID: nextID, Line: []profile.Line{{Function: fn}}}
		nextID++
		prof.Function = append(prof.Function, fn)
		prof.Location = append(prof.Location, loc)
		prof.Sample = append(prof.Sample, &profile.Sample{
			Location: []*profile.Location{loc},
			Value:    []int64{s.count, s.cycles},
		})
	}
	return prof
}

// Reset clears the tally, for tests and for a "start a fresh sampling
// window" control path.
func (p *SyscallProfiler) Reset() {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.samples = make(map[uint64]*sample)
}
