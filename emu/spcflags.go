package emu

import (
	"strings"
	"sync/atomic"
)

// SpcFlag is a bit in the special-flags word checked at block boundaries.
type SpcFlag uint32

// Special flags.
const (
	// SpcExecReturn leaves the innermost Execute.
	SpcExecReturn SpcFlag = 1 << iota
	// SpcEmulReturn quits emulation; sticky across nested Execute calls.
	SpcEmulReturn
	// SpcTriggerInterrupt is armed by any thread to request delivery.
	SpcTriggerInterrupt
	// SpcHandleInterrupt is the second delivery phase, run on the next check.
	SpcHandleInterrupt
	// SpcEnterMonitor requests the interactive monitor.
	SpcEnterMonitor
	// SpcJITExecReturn forces the driver to re-fetch the current block.
	SpcJITExecReturn
	// SpcFatal marks an unrecoverable CPU error.
	SpcFatal
)

var spcFlagNames = []string{
	"exec-return", "emul-return", "trigger-interrupt", "handle-interrupt",
	"enter-monitor", "jit-exec-return", "fatal",
}

func (f SpcFlag) String() string {
	if f == 0 {
		return "none"
	}

	var parts []string
	for i, name := range spcFlagNames {
		if f&(1<<i) != 0 {
			parts = append(parts, name)
		}
	}

	return strings.Join(parts, "|")
}

// SpcFlags is the atomic special-flags word. Any goroutine may set flags;
// the emulation thread tests and clears them.
type SpcFlags struct {
	v atomic.Uint32
}

// Set raises every flag in m.
func (s *SpcFlags) Set(m SpcFlag) { s.v.Or(uint32(m)) }

// Clear lowers every flag in m.
func (s *SpcFlags) Clear(m SpcFlag) { s.v.And(^uint32(m)) }

// Test reports whether any flag in m is raised.
func (s *SpcFlags) Test(m SpcFlag) bool { return SpcFlag(s.v.Load())&m != 0 }

// Get returns the current flag word.
func (s *SpcFlags) Get() SpcFlag { return SpcFlag(s.v.Load()) }

// Any reports whether any flag is raised.
func (s *SpcFlags) Any() bool { return s.v.Load() != 0 }
