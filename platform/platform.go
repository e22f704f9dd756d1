// Package platform runs the host threads around the emulation thread: the
// 60 Hz interrupt tick, the NVRAM watchdog and host signal routing.
package platform

import (
	"context"
	"fmt"

	"github.com/sirupsen/logrus"
	"golang.org/x/sync/errgroup"
)

// Interrupts is the part of the interrupt bridge host threads use.
type Interrupts interface {
	SetInterruptFlag(f uint32)
	TriggerInterrupt()
}

// Task is a host thread. Run returns when ctx is cancelled or the task
// fails.
type Task interface {
	Name() string
	Run(ctx context.Context) error
}

type taskFunc struct {
	name string
	fn   func(ctx context.Context) error
}

func (t taskFunc) Name() string                  { return t.name }
func (t taskFunc) Run(ctx context.Context) error { return t.fn(ctx) }

// TaskFunc wraps fn as a Task.
func TaskFunc(name string, fn func(ctx context.Context) error) Task {
	return taskFunc{name: name, fn: fn}
}

// Supervisor runs tasks together. The first failure cancels the others.
type Supervisor struct {
	tasks  []Task
	logger logrus.FieldLogger
}

// NewSupervisor creates a supervisor for tasks.
func NewSupervisor(logger logrus.FieldLogger, tasks ...Task) *Supervisor {
	if logger == nil {
		logger = logrus.StandardLogger()
	}

	return &Supervisor{tasks: tasks, logger: logger}
}

// Add registers another task. It must be called before Run.
func (s *Supervisor) Add(t Task) {
	s.tasks = append(s.tasks, t)
}

// Run starts every task and waits for all of them. It returns the first
// task error.
func (s *Supervisor) Run(ctx context.Context) error {
	g, ctx := errgroup.WithContext(ctx)

	for _, t := range s.tasks {
		g.Go(func() error {
			log := s.logger.WithField("task", t.Name())
			log.Debug("task started")

			if err := t.Run(ctx); err != nil {
				log.WithError(err).Error("task failed")
				return fmt.Errorf("%s: %w", t.Name(), err)
			}

			log.Debug("task stopped")

			return nil
		})
	}

	return g.Wait()
}
