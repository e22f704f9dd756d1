package bridge

import (
	"sync/atomic"

	"github.com/sarchlab/sheepcore/emu"
	"github.com/sarchlab/sheepcore/lowmem"
)

// Interrupt source flags.
const (
	IntFlag60Hz   uint32 = 1
	IntFlag1Hz    uint32 = 2
	IntFlagSerial uint32 = 4
	IntFlagEther  uint32 = 8
	IntFlagAudio  uint32 = 16
	IntFlagTimer  uint32 = 32
	IntFlagADB    uint32 = 64
)

// SharedState is the state the emulation thread shares with host threads
// and guest code.
//
// Actor rules:
//   - RunMode is written only by the emulation thread on mode transitions.
//     Guest code and host threads only read it.
//   - IRQNest and the saved 68k r25 live in guest memory. Guest code
//     updates them with its own loads and stores; the host side goes
//     through DisableInterrupt and EnableInterrupt, which are atomic.
//   - Interrupt flags, the pending count and the ready bit may be touched
//     by any goroutine.
type SharedState struct {
	globals *lowmem.Globals
	spc     *emu.SpcFlags

	flags   atomic.Uint32
	pending atomic.Int32
	ready   atomic.Bool
}

// NewSharedState binds the low-memory cells of mem. Delivery requests are
// raised on spc.
func NewSharedState(mem *emu.Memory, spc *emu.SpcFlags) *SharedState {
	return &SharedState{
		globals: lowmem.NewGlobals(mem),
		spc:     spc,
	}
}

// Globals returns the low-memory cells.
func (s *SharedState) Globals() *lowmem.Globals { return s.globals }

// RunMode returns the current run mode.
func (s *SharedState) RunMode() uint32 { return s.globals.RunMode.Load() }

// SetRunMode records a mode transition.
func (s *SharedState) SetRunMode(mode uint32) { s.globals.RunMode.Store(mode) }

// IRQNest returns the interrupt disable depth.
func (s *SharedState) IRQNest() int32 { return int32(s.globals.IRQNest.Load()) }

// SavedR25 returns the 68k r25 saved in low memory.
func (s *SharedState) SavedR25() uint32 { return s.globals.R25.Load() }

// SetSavedR25 replaces the saved 68k r25.
func (s *SharedState) SetSavedR25(v uint32) { s.globals.R25.Store(v) }

// DisableInterrupt raises the nest counter.
func (s *SharedState) DisableInterrupt() {
	s.globals.IRQNest.Add(1)
}

// EnableInterrupt lowers the nest counter. Reaching zero with interrupts
// pending re-arms delivery.
func (s *SharedState) EnableInterrupt() {
	if int32(s.globals.IRQNest.Add(-1)) == 0 && s.pending.Load() > 0 {
		s.Recheck()
	}
}

// SetInterruptFlag raises source flags.
func (s *SharedState) SetInterruptFlag(f uint32) {
	s.flags.Or(f)
}

// ClearInterruptFlag lowers source flags.
func (s *SharedState) ClearInterruptFlag(f uint32) {
	s.flags.And(^f)
}

// InterruptFlags returns the raised source flags.
func (s *SharedState) InterruptFlags() uint32 { return s.flags.Load() }

// TriggerInterrupt schedules delivery at the next block boundary. It is
// safe from any goroutine. Arming is idempotent; every call counts as one
// pending interrupt.
func (s *SharedState) TriggerInterrupt() {
	s.pending.Add(1)
	s.Recheck()
}

// Recheck re-arms delivery of pending interrupts without counting a new
// one.
func (s *SharedState) Recheck() {
	if s.ready.Load() {
		s.spc.Set(emu.SpcTriggerInterrupt)
	}
}

// Pending returns the number of undelivered interrupts.
func (s *SharedState) Pending() int32 { return s.pending.Load() }

// SetReady allows delivery. Interrupts triggered before stay pending and
// are armed now.
func (s *SharedState) SetReady() {
	s.ready.Store(true)
	if s.pending.Load() > 0 {
		s.Recheck()
	}
}

// Ready reports whether SetReady was called.
func (s *SharedState) Ready() bool { return s.ready.Load() }

// rearm arms delivery again while a backlog remains and interrupts are
// enabled.
func (s *SharedState) rearm() {
	if s.pending.Load() > 0 && s.IRQNest() == 0 {
		s.Recheck()
	}
}

// delivered consumes one pending interrupt.
func (s *SharedState) delivered() {
	for {
		n := s.pending.Load()
		if n <= 0 || s.pending.CompareAndSwap(n, n-1) {
			return
		}
	}
}
