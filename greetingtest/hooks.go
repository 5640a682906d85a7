package greetingtest

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"testing"

	greeting "github.com/openjobspec/ojs-hello-world"
)

// Hook names as recorded by [FakeHooks].
const (
	HookInvoke = "invoke"
	HookError  = "error"
	HookHalt   = "halt"
)

// Call is one recorded hook invocation.
type Call struct {
	Hook      string
	FirstName string
	LastName  string
	Language  greeting.Language
	Reason    string
	Error     greeting.ErrorInfo
}

// FakeHooks records every hook call. Invoke and Error delegate to the
// optional funcs, falling back to a real greeting handler.
type FakeHooks struct {
	InvokeFunc func(ctx context.Context, params greeting.JobParams, ec greeting.ExecutionContext) (greeting.JobResult, error)
	ErrorFunc  func(ctx context.Context, params greeting.ErrorParams) (greeting.JobResult, error)

	mu       sync.Mutex
	calls    []Call
	fallback *greeting.Handler
}

// NewFakeHooks creates a FakeHooks backed by a deterministic handler.
func NewFakeHooks() *FakeHooks {
	h, _ := NewHandler(0)
	return &FakeHooks{fallback: h}
}

// Invoke records the call and runs InvokeFunc or the fallback handler.
func (f *FakeHooks) Invoke(ctx context.Context, params greeting.JobParams, ec greeting.ExecutionContext) (greeting.JobResult, error) {
	f.record(Call{Hook: HookInvoke, FirstName: params.FirstName, LastName: params.LastName, Language: params.Language})
	if f.InvokeFunc != nil {
		return f.InvokeFunc(ctx, params, ec)
	}
	return f.handler().Invoke(ctx, params, ec)
}

// Error records the call and runs ErrorFunc or the fallback handler.
func (f *FakeHooks) Error(ctx context.Context, params greeting.ErrorParams) (greeting.JobResult, error) {
	f.record(Call{Hook: HookError, FirstName: params.FirstName, LastName: params.LastName, Language: params.Language, Error: params.Error})
	if f.ErrorFunc != nil {
		return f.ErrorFunc(ctx, params)
	}
	return f.handler().Error(ctx, params)
}

// Halt records the call.
func (f *FakeHooks) Halt(_ context.Context, params greeting.HaltParams) {
	f.record(Call{Hook: HookHalt, FirstName: params.FirstName, LastName: params.LastName, Reason: params.Reason})
}

// Calls returns the recorded calls, optionally filtered by hook.
func (f *FakeHooks) Calls(hook ...string) []Call {
	f.mu.Lock()
	defer f.mu.Unlock()

	if len(hook) == 0 {
		out := make([]Call, len(f.calls))
		copy(out, f.calls)
		return out
	}

	var out []Call
	for _, c := range f.calls {
		if c.Hook == hook[0] {
			out = append(out, c)
		}
	}
	return out
}

// Reset discards all recorded calls.
func (f *FakeHooks) Reset() {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls = nil
}

func (f *FakeHooks) record(c Call) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls = append(f.calls, c)
}

func (f *FakeHooks) handler() *greeting.Handler {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.fallback == nil {
		f.fallback, _ = NewHandler(0)
	}
	return f.fallback
}

// MatchOption is a functional option for matching recorded calls.
type MatchOption func(*matchCriteria)

type matchCriteria struct {
	reason   string
	language greeting.Language
	errMsg   string
	first    string
	count    int // 0 means "at least 1"
}

// MatchReason requires the halt reason to equal reason.
func MatchReason(reason string) MatchOption {
	return func(c *matchCriteria) { c.reason = reason }
}

// MatchLanguage requires the requested language to equal lang.
func MatchLanguage(lang greeting.Language) MatchOption {
	return func(c *matchCriteria) { c.language = lang }
}

// MatchErrorMessage requires the reported error message to equal msg.
func MatchErrorMessage(msg string) MatchOption {
	return func(c *matchCriteria) { c.errMsg = msg }
}

// MatchFirstName requires the first name to equal name.
func MatchFirstName(name string) MatchOption {
	return func(c *matchCriteria) { c.first = name }
}

// MatchCount requires exactly n matching calls.
func MatchCount(n int) MatchOption {
	return func(c *matchCriteria) { c.count = n }
}

// AssertCalled asserts that hook was called at least once (or exactly
// MatchCount times) with matching arguments.
func AssertCalled(t testing.TB, f *FakeHooks, hook string, opts ...MatchOption) {
	t.Helper()
	criteria := buildCriteria(opts)
	all := f.Calls()
	matches := filterCalls(all, hook, criteria)

	if criteria.count > 0 {
		if len(matches) != criteria.count {
			t.Errorf("AssertCalled: expected %d %s call(s), found %d%s",
				criteria.count, hook, len(matches), describeCalls(all))
		}
	} else if len(matches) == 0 {
		t.Errorf("AssertCalled: expected at least one %s call, found none%s", hook, describeCalls(all))
	}
}

// RefuteCalled asserts that no matching call to hook was recorded.
func RefuteCalled(t testing.TB, f *FakeHooks, hook string, opts ...MatchOption) {
	t.Helper()
	matches := filterCalls(f.Calls(), hook, buildCriteria(opts))
	if len(matches) > 0 {
		t.Errorf("RefuteCalled: expected no %s calls, found %d", hook, len(matches))
	}
}

func buildCriteria(opts []MatchOption) matchCriteria {
	var c matchCriteria
	for _, opt := range opts {
		opt(&c)
	}
	return c
}

func filterCalls(calls []Call, hook string, c matchCriteria) []Call {
	var out []Call
	for _, call := range calls {
		if call.Hook != hook {
			continue
		}
		if c.reason != "" && call.Reason != c.reason {
			continue
		}
		if c.language != "" && call.Language != c.language {
			continue
		}
		if c.errMsg != "" && call.Error.Message != c.errMsg {
			continue
		}
		if c.first != "" && call.FirstName != c.first {
			continue
		}
		out = append(out, call)
	}
	return out
}

func describeCalls(calls []Call) string {
	if len(calls) == 0 {
		return "\n  No hooks were called at all."
	}
	counts := make(map[string]int)
	for _, c := range calls {
		counts[c.Hook]++
	}
	var parts []string
	for _, hook := range []string{HookInvoke, HookError, HookHalt} {
		if n := counts[hook]; n > 0 {
			parts = append(parts, fmt.Sprintf("%s (%d)", hook, n))
		}
	}
	return "\n  Called: " + strings.Join(parts, ", ")
}
