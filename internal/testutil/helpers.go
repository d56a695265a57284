package testutil

import (
	"errors"
	"sync"

	"github.com/hupe1980/treestore/core"
	"github.com/hupe1980/treestore/logging"
)

// FailingAllocator implements core.Allocator and fails every allocation
// after the first FailAfter successes. FailAfter 0 fails immediately.
type FailingAllocator struct {
	FailAfter int
	calls     int
}

var _ core.Allocator = (*FailingAllocator)(nil)

// Tag returns a fixed tag distinguishing test allocations.
func (a *FailingAllocator) Tag() int64 { return -99 }

// Allocate succeeds FailAfter times, then fails.
func (a *FailingAllocator) Allocate(numBytes int64) ([]byte, error) {
	a.calls++
	if a.calls > a.FailAfter {
		return nil, errors.New("testutil: allocation refused")
	}
	return make([]byte, numBytes), nil
}

// Free is a no-op.
func (a *FailingAllocator) Free([]byte) {}

// CapturingLogger implements logging.Logger and records every message for
// later assertion.
type CapturingLogger struct {
	mu       sync.Mutex
	Messages []string
}

var _ logging.Logger = (*CapturingLogger)(nil)

func (l *CapturingLogger) record(msg string) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.Messages = append(l.Messages, msg)
}

// Debug records a debug message.
func (l *CapturingLogger) Debug(msg string, _ ...any) { l.record(msg) }

// Info records an info message.
func (l *CapturingLogger) Info(msg string, _ ...any) { l.record(msg) }

// Warn records a warning message.
func (l *CapturingLogger) Warn(msg string, _ ...any) { l.record(msg) }

// Error records an error message.
func (l *CapturingLogger) Error(msg string, _ ...any) { l.record(msg) }

// Contains reports whether a recorded message equals msg.
func (l *CapturingLogger) Contains(msg string) bool {
	l.mu.Lock()
	defer l.mu.Unlock()
	for _, m := range l.Messages {
		if m == msg {
			return true
		}
	}
	return false
}
