//go:build unix

package machine

import "github.com/sarchlab/sheepcore/platform"

func (m *Machine) signalTask() platform.Task {
	return platform.NewSignalRouter(m.Bridge.State(), &m.CPU.Flags, m.logger)
}
