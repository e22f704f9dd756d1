package emu

import (
	"os"
	"sync"
)

// FileDescriptor represents an open guest file descriptor.
type FileDescriptor struct {
	HostFile *os.File // nil for the standard streams
	Path     string
	Flags    int
	IsOpen   bool
}

// FDTable maps guest file descriptors to host files.
type FDTable struct {
	fds    map[uint32]*FileDescriptor
	nextFD uint32
	mu     sync.Mutex
}

// NewFDTable creates a table with the standard streams open.
func NewFDTable() *FDTable {
	t := &FDTable{
		fds:    make(map[uint32]*FileDescriptor),
		nextFD: 3,
	}

	t.fds[0] = &FileDescriptor{Path: "stdin", IsOpen: true}
	t.fds[1] = &FileDescriptor{Path: "stdout", IsOpen: true}
	t.fds[2] = &FileDescriptor{Path: "stderr", IsOpen: true}

	return t
}

// Open opens a host file and returns its guest descriptor.
func (t *FDTable) Open(path string, flags int, mode os.FileMode) (uint32, error) {
	t.mu.Lock()
	defer t.mu.Unlock()

	f, err := os.OpenFile(path, flags, mode)
	if err != nil {
		return 0, err
	}

	fd := t.nextFD
	t.nextFD++
	t.fds[fd] = &FileDescriptor{HostFile: f, Path: path, Flags: flags, IsOpen: true}

	return fd, nil
}

// Close closes a descriptor. Standard streams are only marked closed.
func (t *FDTable) Close(fd uint32) error {
	t.mu.Lock()
	defer t.mu.Unlock()

	entry, ok := t.fds[fd]
	if !ok || !entry.IsOpen {
		return os.ErrInvalid
	}

	entry.IsOpen = false
	if entry.HostFile == nil {
		return nil
	}

	err := entry.HostFile.Close()
	entry.HostFile = nil

	return err
}

// IsOpen reports whether fd is open.
func (t *FDTable) IsOpen(fd uint32) bool {
	t.mu.Lock()
	defer t.mu.Unlock()

	entry, ok := t.fds[fd]

	return ok && entry.IsOpen
}

func (t *FDTable) hostFile(fd uint32) *os.File {
	t.mu.Lock()
	defer t.mu.Unlock()

	entry, ok := t.fds[fd]
	if !ok || !entry.IsOpen {
		return nil
	}

	return entry.HostFile
}

// Read reads from a host-backed descriptor.
func (t *FDTable) Read(fd uint32, buf []byte) (int, error) {
	f := t.hostFile(fd)
	if f == nil {
		return 0, os.ErrInvalid
	}

	return f.Read(buf)
}

// Write writes to a host-backed descriptor.
func (t *FDTable) Write(fd uint32, buf []byte) (int, error) {
	f := t.hostFile(fd)
	if f == nil {
		return 0, os.ErrInvalid
	}

	return f.Write(buf)
}
