package machine

import (
	"context"

	"github.com/sarchlab/sheepcore/platform"
)

// Tasks returns the host threads of the machine: the 60Hz tick, host
// signal routing where supported and the NVRAM watchdog when NVRAM is
// persisted.
func (m *Machine) Tasks(opts ...platform.TickerOption) []platform.Task {
	state := m.Bridge.State()

	tasks := []platform.Task{
		platform.NewTicker(state, append([]platform.TickerOption{
			platform.WithTickerLogger(m.logger),
		}, opts...)...),
	}

	if sig := m.signalTask(); sig != nil {
		tasks = append(tasks, sig)
	}

	if m.nvram != nil {
		tasks = append(tasks, platform.NewNVRAMWatchdog(m.XPRAM, m.nvram,
			platform.WithWatchdogLogger(m.logger)))
	}

	return tasks
}

// Start runs the host tasks until ctx is done. The returned function
// waits for them and reports the first failure.
func (m *Machine) Start(ctx context.Context, opts ...platform.TickerOption) (wait func() error) {
	sup := platform.NewSupervisor(m.logger, m.Tasks(opts...)...)

	done := make(chan error, 1)
	go func() { done <- sup.Run(ctx) }()

	return func() error { return <-done }
}
