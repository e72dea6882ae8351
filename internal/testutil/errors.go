// Package testutil provides shared test doubles for foundry packages.
//
// It should only be imported by test files (*_test.go).
package testutil

import "errors"

// Mock errors used to simulate provider and tool failures.
var (
	// ErrMockProvider simulates an LLM provider error.
	ErrMockProvider = errors.New("provider error")

	// ErrMockNetwork simulates a network failure.
	ErrMockNetwork = errors.New("network error")

	// ErrMockDisk simulates a disk write failure.
	ErrMockDisk = errors.New("disk full")
)
