// Package scripting runs student robot programs written in Lua inside a
// sandboxed GopherLua state with a deterministic opcode budget.
package scripting

import (
	"context"
	"sync/atomic"

	lua "github.com/yuin/gopher-lua"
)

// DefaultInstructionLimit is the maximum number of Lua opcodes a program may
// execute when no override is configured.
const DefaultInstructionLimit = 100_000

// countingContext cancels itself after Done() has been called limit times.
// GopherLua's mainLoopWithContext calls Done() once per opcode, making this an
// exact opcode limit.
type countingContext struct {
	context.Context
	cancel    context.CancelFunc
	remaining *atomic.Int64
}

// Done decrements the remaining budget and fires cancel once it is spent.
func (c *countingContext) Done() <-chan struct{} {
	if c.remaining.Add(-1) <= 0 {
		c.cancel()
	}
	return c.Context.Done()
}

// exhausted reports whether the opcode budget ran out.
func (c *countingContext) exhausted() bool {
	return c.remaining.Load() <= 0
}

// newCountingContext returns a child of parent that cancels after limit calls
// to Done().
//
// Precondition: limit > 0.
func newCountingContext(parent context.Context, limit int) (*countingContext, context.CancelFunc) {
	base, cancel := context.WithCancel(parent)
	rem := &atomic.Int64{}
	rem.Store(int64(limit))
	return &countingContext{
		Context:   base,
		cancel:    cancel,
		remaining: rem,
	}, cancel
}

// sandboxedState is an LState together with its opcode budget.
type sandboxedState struct {
	*lua.LState
	budget *countingContext
	cancel context.CancelFunc
}

// Close releases the state and its context.
func (s *sandboxedState) Close() {
	s.cancel()
	s.LState.Close()
}

// NewSandboxedState creates a GopherLua LState with:
//   - Only safe stdlib loaded: base, table, string, math
//   - Dangerous globals removed: dofile, loadfile, load, loadstring,
//     collectgarbage, require
//   - Execution limited to at most instLimit Lua opcodes
//
// Precondition: instLimit >= 0; 0 uses DefaultInstructionLimit.
// Postcondition: The caller must call the returned cancel func and L.Close().
func NewSandboxedState(ctx context.Context, instLimit int) (*lua.LState, context.CancelFunc) {
	s := newSandbox(ctx, instLimit)
	return s.LState, s.cancel
}

func newSandbox(ctx context.Context, instLimit int) *sandboxedState {
	limit := instLimit
	if limit <= 0 {
		limit = DefaultInstructionLimit
	}

	L := lua.NewState(lua.Options{SkipOpenLibs: true})
	lua.OpenBase(L)
	lua.OpenTable(L)
	lua.OpenString(L)
	lua.OpenMath(L)

	for _, name := range []string{"dofile", "loadfile", "load", "loadstring", "collectgarbage", "require"} {
		L.SetGlobal(name, lua.LNil)
	}

	budget, cancel := newCountingContext(ctx, limit)
	L.SetContext(budget)
	return &sandboxedState{LState: L, budget: budget, cancel: cancel}
}
