package platform

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sync"
	"sync/atomic"
	"time"

	"github.com/cockroachdb/pebble"
	"github.com/sirupsen/logrus"
	"golang.org/x/crypto/blake2b"
)

// XPRAMSize is the size of the extended parameter RAM image.
const XPRAMSize = 0x2000

// XPRAM is the parameter RAM image. Device code writes it from the
// emulation thread while the watchdog reads snapshots.
type XPRAM struct {
	mu   sync.Mutex
	data [XPRAMSize]byte
}

// Read8 returns byte off.
func (x *XPRAM) Read8(off uint32) uint8 {
	x.mu.Lock()
	defer x.mu.Unlock()

	return x.data[off%XPRAMSize]
}

// Write8 stores byte off.
func (x *XPRAM) Write8(off uint32, v uint8) {
	x.mu.Lock()
	defer x.mu.Unlock()

	x.data[off%XPRAMSize] = v
}

// Load replaces the image with data; shorter data leaves the tail zeroed.
func (x *XPRAM) Load(data []byte) {
	x.mu.Lock()
	defer x.mu.Unlock()

	x.data = [XPRAMSize]byte{}
	copy(x.data[:], data)
}

// Snapshot returns a copy of the image.
func (x *XPRAM) Snapshot() []byte {
	x.mu.Lock()
	defer x.mu.Unlock()

	return append([]byte(nil), x.data[:]...)
}

// NVRAMStore persists the XPRAM image.
type NVRAMStore interface {
	// Load returns the saved image, or nil if nothing was saved yet.
	Load() ([]byte, error)
	Save(data []byte) error
	Close() error
}

// LoadXPRAM restores an image from store.
func LoadXPRAM(store NVRAMStore) (*XPRAM, error) {
	data, err := store.Load()
	if err != nil {
		return nil, fmt.Errorf("load xpram: %w", err)
	}

	x := &XPRAM{}
	x.Load(data)

	return x, nil
}

// FileStore keeps the image in a file, replaced atomically on save.
type FileStore struct {
	path string
}

// NewFileStore creates a store at path.
func NewFileStore(path string) *FileStore {
	return &FileStore{path: path}
}

// Load implements NVRAMStore.
func (s *FileStore) Load() ([]byte, error) {
	data, err := os.ReadFile(s.path)
	if errors.Is(err, fs.ErrNotExist) {
		return nil, nil
	}

	return data, err
}

// Save implements NVRAMStore.
func (s *FileStore) Save(data []byte) error {
	tmp, err := os.CreateTemp(filepath.Dir(s.path), filepath.Base(s.path)+".*")
	if err != nil {
		return err
	}

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(tmp.Name())

		return err
	}

	if err := tmp.Close(); err != nil {
		os.Remove(tmp.Name())
		return err
	}

	return os.Rename(tmp.Name(), s.path)
}

// Close implements NVRAMStore.
func (*FileStore) Close() error { return nil }

var xpramKey = []byte("xpram")

// PebbleStore keeps the image in a pebble database.
type PebbleStore struct {
	db *pebble.DB
}

// OpenPebbleStore opens or creates the database in dir.
func OpenPebbleStore(dir string, logger logrus.FieldLogger) (*PebbleStore, error) {
	opts := &pebble.Options{}
	if logger != nil {
		opts.Logger = logger
	}

	db, err := pebble.Open(dir, opts)
	if err != nil {
		return nil, fmt.Errorf("open nvram database %s: %w", dir, err)
	}

	return &PebbleStore{db: db}, nil
}

// Load implements NVRAMStore.
func (s *PebbleStore) Load() ([]byte, error) {
	v, closer, err := s.db.Get(xpramKey)
	if errors.Is(err, pebble.ErrNotFound) {
		return nil, nil
	}

	if err != nil {
		return nil, err
	}
	defer closer.Close()

	return append([]byte(nil), v...), nil
}

// Save implements NVRAMStore.
func (s *PebbleStore) Save(data []byte) error {
	return s.db.Set(xpramKey, data, pebble.Sync)
}

// Close implements NVRAMStore.
func (s *PebbleStore) Close() error { return s.db.Close() }

// NVRAMWatchdog saves the XPRAM image whenever its digest changes.
type NVRAMWatchdog struct {
	xpram  *XPRAM
	store  NVRAMStore
	period time.Duration
	logger logrus.FieldLogger

	last  [blake2b.Size256]byte
	saves atomic.Uint64
}

// WatchdogOption configures an NVRAMWatchdog.
type WatchdogOption func(*NVRAMWatchdog)

// WithWatchdogPeriod overrides the one second check period.
func WithWatchdogPeriod(d time.Duration) WatchdogOption {
	return func(w *NVRAMWatchdog) {
		w.period = d
	}
}

// WithWatchdogLogger sets the logger.
func WithWatchdogLogger(l logrus.FieldLogger) WatchdogOption {
	return func(w *NVRAMWatchdog) {
		w.logger = l
	}
}

// NewNVRAMWatchdog watches x. The current image counts as saved.
func NewNVRAMWatchdog(x *XPRAM, store NVRAMStore, opts ...WatchdogOption) *NVRAMWatchdog {
	w := &NVRAMWatchdog{
		xpram:  x,
		store:  store,
		period: time.Second,
		logger: logrus.StandardLogger(),
		last:   blake2b.Sum256(x.Snapshot()),
	}

	for _, opt := range opts {
		opt(w)
	}

	return w
}

// Name implements Task.
func (*NVRAMWatchdog) Name() string { return "nvram" }

// Saves returns the number of saves so far.
func (w *NVRAMWatchdog) Saves() uint64 { return w.saves.Load() }

// Run checks the image every period and saves a final time on stop.
func (w *NVRAMWatchdog) Run(ctx context.Context) error {
	tk := time.NewTicker(w.period)
	defer tk.Stop()

	for {
		select {
		case <-ctx.Done():
			return w.Check()
		case <-tk.C:
			// A failed save is retried on the next tick.
			if err := w.Check(); err != nil {
				w.logger.WithError(err).Warn("nvram save failed")
			}
		}
	}
}

// Check saves the image if it changed since the last save.
func (w *NVRAMWatchdog) Check() error {
	data := w.xpram.Snapshot()

	sum := blake2b.Sum256(data)
	if sum == w.last {
		return nil
	}

	if err := w.store.Save(data); err != nil {
		return fmt.Errorf("save xpram: %w", err)
	}

	w.last = sum
	w.saves.Add(1)
	w.logger.WithField("digest", fmt.Sprintf("%x", sum[:8])).Debug("nvram saved")

	return nil
}
