package greetingtest

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	greeting "github.com/openjobspec/ojs-hello-world"
)

func TestFakeHooks_RecordsCalls(t *testing.T) {
	f := NewFakeHooks()
	ctx := context.Background()

	res, err := f.Invoke(ctx, greeting.JobParams{FirstName: "John", LastName: "Doe", Language: "en"}, greeting.ExecutionContext{})
	require.NoError(t, err)
	assert.Equal(t, "Hello World, John Doe!", res.Message)

	_, err = f.Error(ctx, greeting.ErrorParams{
		JobParams: greeting.JobParams{FirstName: "John", LastName: "Doe"},
		Error:     greeting.ErrorInfo{Message: "Database connection failed"},
	})
	require.Error(t, err)

	f.Halt(ctx, greeting.HaltParams{Reason: greeting.HaltReasonTimeout})

	assert.Len(t, f.Calls(), 3)
	AssertCalled(t, f, HookInvoke, MatchLanguage("en"), MatchFirstName("John"), MatchCount(1))
	AssertCalled(t, f, HookError, MatchErrorMessage("Database connection failed"))
	AssertCalled(t, f, HookHalt, MatchReason(greeting.HaltReasonTimeout))
	RefuteCalled(t, f, HookHalt, MatchReason(greeting.HaltReasonCancellation))
}

func TestFakeHooks_CustomFuncs(t *testing.T) {
	f := NewFakeHooks()
	boom := errors.New("greeting template missing")
	f.InvokeFunc = func(context.Context, greeting.JobParams, greeting.ExecutionContext) (greeting.JobResult, error) {
		return greeting.JobResult{}, boom
	}

	_, err := f.Invoke(context.Background(), greeting.JobParams{}, greeting.ExecutionContext{})
	assert.ErrorIs(t, err, boom)
	assert.Len(t, f.Calls(HookInvoke), 1)
	assert.Empty(t, f.Calls(HookError))
}

func TestFakeHooks_Reset(t *testing.T) {
	f := NewFakeHooks()
	f.Halt(context.Background(), greeting.HaltParams{Reason: "x"})
	f.Reset()
	assert.Empty(t, f.Calls())
}
