// Package rtsentinel is a realtime allocation detector for the driver's
// per-cycle Fill call.
//
// The original implementation this module is grounded on (malloc.rs, a
// thread-local flag plus a global allocator wrapper that panics on any
// allocation observed while the flag is set) relies on Rust's ability to
// install a custom #[global_allocator]. Go has no equivalent allocator hook,
// so this package takes the best available stand-in: runtime.MemStats'
// cumulative Mallocs counter, sampled immediately before and after the
// guarded section. A delta means at least one allocation happened inside
// it. This is diagnostic rather than preventive — it can only report an
// allocation after the fact, and ReadMemStats itself is too heavy to leave
// enabled on every production cycle — so it is meant for development and
// test builds, toggled off by default in a production Driver (§5 of the
// spec it implements).
package rtsentinel

import (
	"fmt"
	"runtime"
)

// FailAction selects what Guard does when it detects an allocation.
type FailAction uint8

const (
	// FailWarn returns an AllocationDetectedError without panicking.
	FailWarn FailAction = iota
	// FailPanic panics with an AllocationDetectedError.
	FailPanic
)

// AllocationDetectedError reports that the guarded section performed at
// least one heap allocation.
type AllocationDetectedError struct {
	Count uint64
}

func (e AllocationDetectedError) Error() string {
	return fmt.Sprintf("rtsentinel: %d allocation(s) detected in guarded section", e.Count)
}

// Sentinel guards a section of code against unexpected heap allocation.
type Sentinel struct {
	action FailAction
}

// New builds a Sentinel with the given failure behavior.
func New(action FailAction) *Sentinel {
	return &Sentinel{action: action}
}

// Guard runs fn, and reports whether it allocated. Disabled entirely when s
// is nil, so callers can hold a *Sentinel that's nil in production builds
// and unconditionally call Guard without a branch at every call site.
func (s *Sentinel) Guard(fn func()) error {
	if s == nil {
		fn()
		return nil
	}
	var before, after runtime.MemStats
	runtime.ReadMemStats(&before)
	fn()
	runtime.ReadMemStats(&after)
	if after.Mallocs <= before.Mallocs {
		return nil
	}
	err := AllocationDetectedError{Count: after.Mallocs - before.Mallocs}
	if s.action == FailPanic {
		panic(err)
	}
	return err
}
