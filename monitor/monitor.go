// Package monitor is the interactive debugger of the emulator. It is
// entered from the execution engine at a block boundary, or from the
// fault path before an unrecoverable error is reported.
package monitor

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/k0kubun/pp/v3"
	"github.com/sirupsen/logrus"
	"golang.org/x/term"

	"github.com/sarchlab/sheepcore/bridge"
	"github.com/sarchlab/sheepcore/emu"
	"github.com/sarchlab/sheepcore/engine"
)

const prompt = "mon> "

type lineReader interface {
	ReadLine() (string, error)
}

// plainReader reads commands from a non-terminal stream.
type plainReader struct {
	scanner *bufio.Scanner
	out     io.Writer
}

func (p *plainReader) ReadLine() (string, error) {
	fmt.Fprint(p.out, prompt)

	if !p.scanner.Scan() {
		if err := p.scanner.Err(); err != nil {
			return "", err
		}

		return "", io.EOF
	}

	return p.scanner.Text(), nil
}

// Monitor runs debugger sessions. A session ends with g, q or the end of
// input.
type Monitor struct {
	in     io.Reader
	out    io.Writer
	fd     int
	raw    bool
	plain  *plainReader
	logger logrus.FieldLogger
	pp     *pp.PrettyPrinter

	engine *engine.Engine
	bridge *bridge.Bridge

	// session state
	cpu     *emu.CPU
	w       io.Writer
	lastMem uint32
	lastDis uint32
}

// Option configures a Monitor.
type Option func(*Monitor)

// WithIO reads commands from in and writes to out, line by line.
func WithIO(in io.Reader, out io.Writer) Option {
	return func(m *Monitor) {
		m.in = in
		m.out = out
		m.raw = false
	}
}

// WithTerminal puts the terminal fd into raw mode for sessions and edits
// lines with history. in and out must refer to the same terminal.
func WithTerminal(fd int) Option {
	return func(m *Monitor) {
		m.fd = fd
		m.raw = true
	}
}

// WithEngine attaches the engine used by sessions started from the fault
// path.
func WithEngine(e *engine.Engine) Option {
	return func(m *Monitor) {
		m.engine = e
	}
}

// WithBridge makes the interrupt state available to the i command.
func WithBridge(b *bridge.Bridge) Option {
	return func(m *Monitor) {
		m.bridge = b
	}
}

// WithLogger sets the logger.
func WithLogger(l logrus.FieldLogger) Option {
	return func(m *Monitor) {
		m.logger = l
	}
}

// New creates a monitor on stdin and stdout. When stdin is a terminal it
// is used in raw mode.
func New(opts ...Option) *Monitor {
	m := &Monitor{
		in:     os.Stdin,
		out:    os.Stdout,
		fd:     -1,
		logger: logrus.StandardLogger(),
		pp:     pp.New(),
	}

	if fd := int(os.Stdin.Fd()); term.IsTerminal(fd) {
		m.fd = fd
		m.raw = true
	}

	for _, opt := range opts {
		opt(m)
	}

	m.pp.SetColoringEnabled(false)
	m.plain = &plainReader{scanner: bufio.NewScanner(m.in), out: m.out}

	return m
}

// Enter implements engine.Monitor.
func (m *Monitor) Enter(e *engine.Engine) {
	m.engine = e
	m.Session(e.CPU(), "")
}

// OnFault is a bridge.MonitorFunc.
func (m *Monitor) OnFault(c *emu.CPU, reason string) {
	m.Session(c, reason)
}

// Session runs one command loop on c.
func (m *Monitor) Session(c *emu.CPU, reason string) {
	m.cpu = c
	m.lastMem = c.Regs.PC
	m.lastDis = c.Regs.PC

	r, restore := m.reader()
	defer restore()

	if reason != "" {
		fmt.Fprintf(m.w, "*** %s at pc=%08x\n", reason, c.Regs.PC)
	}
	fmt.Fprintf(m.w, "%08x  %s\n", c.Regs.PC, m.disasm(c.Regs.PC))

	for {
		line, err := r.ReadLine()
		if err != nil {
			if err != io.EOF {
				m.logger.WithError(err).Warn("monitor input failed")
			}

			return
		}

		if done := m.exec(strings.Fields(line)); done {
			return
		}
	}
}

// reader sets up the input side of a session.
func (m *Monitor) reader() (lineReader, func()) {
	m.w = m.out

	if !m.raw {
		return m.plain, func() {}
	}

	old, err := term.MakeRaw(m.fd)
	if err != nil {
		m.logger.WithError(err).Warn("monitor: raw mode unavailable")
		return m.plain, func() {}
	}

	t := term.NewTerminal(struct {
		io.Reader
		io.Writer
	}{m.in, m.out}, prompt)
	m.w = t

	return t, func() {
		if err := term.Restore(m.fd, old); err != nil {
			m.logger.WithError(err).Warn("monitor: restoring terminal failed")
		}
	}
}
