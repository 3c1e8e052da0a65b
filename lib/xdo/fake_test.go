// Copyright 2026 The Fabrun Authors
// SPDX-License-Identifier: Apache-2.0

package xdo

import (
	"context"
	"strings"
	"sync"
)

// fakeRunner answers invocations from a handler and records them.
type fakeRunner struct {
	mu          sync.Mutex
	invocations []Invocation
	handle      func(Invocation) ([]byte, error)

	// hang selects invocations that block until their context ends,
	// like an xdotool --sync call against a window that never maps.
	hang func(Invocation) bool
}

func (f *fakeRunner) Run(ctx context.Context, invocation Invocation) ([]byte, error) {
	f.mu.Lock()
	f.invocations = append(f.invocations, invocation)
	f.mu.Unlock()
	if f.hang != nil && f.hang(invocation) {
		<-ctx.Done()
		return nil, ctx.Err()
	}
	if f.handle == nil {
		return nil, nil
	}
	return f.handle(invocation)
}

func (f *fakeRunner) commands() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	commands := make([]string, len(f.invocations))
	for i, invocation := range f.invocations {
		commands[i] = strings.Join(invocation.Argv, " ")
	}
	return commands
}

// countPrefix counts recorded invocations whose joined argv starts with
// prefix.
func (f *fakeRunner) countPrefix(prefix string) int {
	count := 0
	for _, command := range f.commands() {
		if strings.HasPrefix(command, prefix) {
			count++
		}
	}
	return count
}

// subcommand returns the xdotool subcommand of an invocation.
func subcommand(invocation Invocation) string {
	if len(invocation.Argv) < 2 {
		return ""
	}
	return invocation.Argv[1]
}
