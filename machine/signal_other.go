//go:build !unix

package machine

import "github.com/sarchlab/sheepcore/platform"

func (m *Machine) signalTask() platform.Task { return nil }
