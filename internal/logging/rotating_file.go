package logging

import (
	"fmt"
	"os"
	"sync"
)

const defaultMaxMB = 10

// rotatingFile caps the log at maxBytes. When a write would cross the cap the
// current file moves to path+".1", replacing any older segment, and a fresh
// file is started. At most two segments exist on disk.
type rotatingFile struct {
	mu       sync.Mutex
	path     string
	maxBytes int64
	f        *os.File
	written  int64
}

func openRotatingFile(path string, maxMB int) (*rotatingFile, error) {
	if maxMB <= 0 {
		maxMB = defaultMaxMB
	}
	rf := &rotatingFile{path: path, maxBytes: int64(maxMB) << 20}
	if err := rf.open(); err != nil {
		return nil, err
	}
	return rf, nil
}

func (rf *rotatingFile) Write(p []byte) (int, error) {
	rf.mu.Lock()
	defer rf.mu.Unlock()
	if rf.f == nil {
		if err := rf.open(); err != nil {
			return 0, err
		}
	}
	if rf.written > 0 && rf.written+int64(len(p)) > rf.maxBytes {
		if err := rf.rotate(); err != nil {
			return 0, err
		}
	}
	n, err := rf.f.Write(p)
	rf.written += int64(n)
	return n, err
}

func (rf *rotatingFile) Close() error {
	rf.mu.Lock()
	defer rf.mu.Unlock()
	if rf.f == nil {
		return nil
	}
	err := rf.f.Close()
	rf.f = nil
	return err
}

func (rf *rotatingFile) previousPath() string { return rf.path + ".1" }

func (rf *rotatingFile) rotate() error {
	if err := rf.f.Close(); err != nil {
		return fmt.Errorf("close log segment: %w", err)
	}
	rf.f = nil
	if err := os.Rename(rf.path, rf.previousPath()); err != nil {
		return fmt.Errorf("rotate log: %w", err)
	}
	return rf.open()
}

// open appends to an existing file so restarts keep counting toward the cap.
func (rf *rotatingFile) open() error {
	f, err := os.OpenFile(rf.path, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0o644)
	if err != nil {
		return err
	}
	info, err := f.Stat()
	if err != nil {
		_ = f.Close()
		return err
	}
	rf.f = f
	rf.written = info.Size()
	return nil
}
