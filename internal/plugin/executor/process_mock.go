package executor

import (
	"context"
	"errors"
	"io"
	"sync"
	"time"
)

// MockProcessRunner is a ProcessRunner for tests.
type MockProcessRunner struct {
	// RunFunc provides custom behaviour. Nil returns an empty JSON object.
	RunFunc func(ctx context.Context, path string, args []string, stdin io.Reader) (stdout, stderr []byte, err error)

	// Delay simulates slow process execution.
	Delay time.Duration

	// ShouldTimeout blocks until the context is cancelled.
	ShouldTimeout bool

	mu        sync.Mutex
	CallCount int
	LastPath  string
	LastArgs  []string
}

// Run executes the mock behaviour.
func (m *MockProcessRunner) Run(ctx context.Context, path string, args []string, stdin io.Reader) ([]byte, []byte, error) {
	m.mu.Lock()
	m.CallCount++
	m.LastPath = path
	m.LastArgs = args
	m.mu.Unlock()

	if m.ShouldTimeout {
		<-ctx.Done()
		return nil, nil, ctx.Err()
	}

	if m.Delay > 0 {
		select {
		case <-time.After(m.Delay):
		case <-ctx.Done():
			return nil, nil, ctx.Err()
		}
	}

	if m.RunFunc != nil {
		return m.RunFunc(ctx, path, args, stdin)
	}
	return []byte("{}"), nil, nil
}

// NewMockProcessRunner creates a new mock process runner.
func NewMockProcessRunner() *MockProcessRunner {
	return &MockProcessRunner{}
}

// NewTimeoutMockProcessRunner creates a mock that hangs until cancelled.
func NewTimeoutMockProcessRunner() *MockProcessRunner {
	return &MockProcessRunner{ShouldTimeout: true}
}

// NewDelayMockProcessRunner creates a mock that answers after delay with
// the given output.
func NewDelayMockProcessRunner(delay time.Duration, stdout []byte) *MockProcessRunner {
	m := NewSuccessMockProcessRunner(stdout)
	m.Delay = delay
	return m
}

// NewErrorMockProcessRunner creates a mock that fails, writing errMsg to
// stderr.
func NewErrorMockProcessRunner(errMsg string) *MockProcessRunner {
	return &MockProcessRunner{
		RunFunc: func(context.Context, string, []string, io.Reader) ([]byte, []byte, error) {
			return nil, []byte(errMsg), errors.New(errMsg)
		},
	}
}

// NewSuccessMockProcessRunner creates a mock that prints stdout.
func NewSuccessMockProcessRunner(stdout []byte) *MockProcessRunner {
	return &MockProcessRunner{
		RunFunc: func(context.Context, string, []string, io.Reader) ([]byte, []byte, error) {
			return stdout, nil, nil
		},
	}
}
