package platform

import (
	"context"
	"sync/atomic"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/sarchlab/sheepcore/bridge"
)

// TickPeriod is the nominal period of the 60 Hz interrupt.
const TickPeriod = time.Second / 60

// Ticker raises the 60 Hz interrupt, and the 1 Hz one every 60th tick.
type Ticker struct {
	target Interrupts
	period time.Duration
	logger logrus.FieldLogger
	ticks  atomic.Uint64
}

// TickerOption configures a Ticker.
type TickerOption func(*Ticker)

// WithTickPeriod overrides the tick period.
func WithTickPeriod(d time.Duration) TickerOption {
	return func(t *Ticker) {
		t.period = d
	}
}

// WithTickerLogger sets the logger.
func WithTickerLogger(l logrus.FieldLogger) TickerOption {
	return func(t *Ticker) {
		t.logger = l
	}
}

// NewTicker creates a ticker interrupting target.
func NewTicker(target Interrupts, opts ...TickerOption) *Ticker {
	t := &Ticker{
		target: target,
		period: TickPeriod,
		logger: logrus.StandardLogger(),
	}

	for _, opt := range opts {
		opt(t)
	}

	return t
}

// Name implements Task.
func (*Ticker) Name() string { return "tick" }

// Ticks returns the number of ticks so far.
func (t *Ticker) Ticks() uint64 { return t.ticks.Load() }

// Run ticks until ctx is cancelled.
func (t *Ticker) Run(ctx context.Context) error {
	tk := time.NewTicker(t.period)
	defer tk.Stop()

	t.logger.WithField("period", t.period).Debug("ticker running")

	for {
		select {
		case <-ctx.Done():
			return nil
		case <-tk.C:
			t.tick()
		}
	}
}

func (t *Ticker) tick() {
	n := t.ticks.Add(1)

	t.target.SetInterruptFlag(bridge.IntFlag60Hz)
	if n%60 == 0 {
		t.target.SetInterruptFlag(bridge.IntFlag1Hz)
	}

	t.target.TriggerInterrupt()
}
