//go:build unix

package platform

import (
	"context"
	"os"
	"os/signal"

	"github.com/sirupsen/logrus"
	"golang.org/x/sys/unix"

	"github.com/sarchlab/sheepcore/emu"
)

// SignalRouter turns host signals into emulator requests: SIGUSR2
// triggers an interrupt and SIGUSR1 asks the emulation thread to enter
// the monitor at its next block boundary.
type SignalRouter struct {
	target  Interrupts
	flags   *emu.SpcFlags
	logger  logrus.FieldLogger
	started chan struct{}
}

// NewSignalRouter creates a router. flags are the special flags of the
// emulated CPU.
func NewSignalRouter(target Interrupts, flags *emu.SpcFlags, logger logrus.FieldLogger) *SignalRouter {
	if logger == nil {
		logger = logrus.StandardLogger()
	}

	return &SignalRouter{
		target:  target,
		flags:   flags,
		logger:  logger,
		started: make(chan struct{}),
	}
}

// Name implements Task.
func (*SignalRouter) Name() string { return "signals" }

// Started is closed once the signals are routed.
func (r *SignalRouter) Started() <-chan struct{} { return r.started }

// Run routes signals until ctx is cancelled.
func (r *SignalRouter) Run(ctx context.Context) error {
	ch := make(chan os.Signal, 8)
	signal.Notify(ch, unix.SIGUSR1, unix.SIGUSR2)
	defer signal.Stop(ch)

	close(r.started)

	for {
		select {
		case <-ctx.Done():
			return nil
		case sig := <-ch:
			r.logger.WithField("signal", sig).Debug("host signal")

			switch sig {
			case unix.SIGUSR2:
				r.target.TriggerInterrupt()
			case unix.SIGUSR1:
				r.flags.Set(emu.SpcEnterMonitor)
			}
		}
	}
}
