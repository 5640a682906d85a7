package middleware

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"testing"
	"time"

	greeting "github.com/openjobspec/ojs-hello-world"
	"github.com/openjobspec/ojs-hello-world/greetingtest"
	"github.com/openjobspec/ojs-hello-world/runner"
)

func newTestContext(jobType, jobID string, lang greeting.Language) runner.JobContext {
	return runner.NewJobContextForTest(runner.Job{
		ID:   jobID,
		Type: jobType,
		Params: greeting.JobParams{
			FirstName: "John",
			LastName:  "Doe",
			Language:  lang,
		},
	})
}

// --- Logging tests ---

func TestLogging_Success(t *testing.T) {
	var buf bytes.Buffer
	logger := slog.New(slog.NewJSONHandler(&buf, &slog.HandlerOptions{Level: slog.LevelDebug}))

	mw := Logging(logger)
	ctx := newTestContext("hello.world", "j-1", "es")

	err := mw(ctx, func(ctx runner.JobContext) error {
		return nil
	})
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}

	output := buf.String()
	lines := strings.Split(strings.TrimSpace(output), "\n")
	if len(lines) != 2 {
		t.Fatalf("expected 2 log lines, got %d: %s", len(lines), output)
	}

	// Check start log.
	var startEntry map[string]any
	if err := json.Unmarshal([]byte(lines[0]), &startEntry); err != nil {
		t.Fatalf("failed to parse start log: %v", err)
	}
	if startEntry["msg"] != "job started" {
		t.Errorf("expected 'job started', got %v", startEntry["msg"])
	}
	if startEntry["job.type"] != "hello.world" {
		t.Errorf("expected job.type=hello.world, got %v", startEntry["job.type"])
	}
	if startEntry["greeting.language"] != "es" {
		t.Errorf("expected greeting.language=es, got %v", startEntry["greeting.language"])
	}

	// Check completion log.
	var endEntry map[string]any
	if err := json.Unmarshal([]byte(lines[1]), &endEntry); err != nil {
		t.Fatalf("failed to parse end log: %v", err)
	}
	if endEntry["msg"] != "job completed" {
		t.Errorf("expected 'job completed', got %v", endEntry["msg"])
	}
	if endEntry["level"] != "INFO" {
		t.Errorf("expected level=INFO, got %v", endEntry["level"])
	}
	if _, ok := endEntry["duration_ms"]; !ok {
		t.Error("expected duration_ms in completion log")
	}
}

func TestLogging_Error(t *testing.T) {
	var buf bytes.Buffer
	logger := slog.New(slog.NewJSONHandler(&buf, &slog.HandlerOptions{Level: slog.LevelDebug}))

	mw := Logging(logger)
	ctx := newTestContext("hello.world", "j-2", "en")

	handlerErr := errors.New("greeting template missing")
	err := mw(ctx, func(ctx runner.JobContext) error {
		return handlerErr
	})
	if !errors.Is(err, handlerErr) {
		t.Fatalf("expected handler error, got %v", err)
	}

	output := buf.String()
	lines := strings.Split(strings.TrimSpace(output), "\n")
	if len(lines) != 2 {
		t.Fatalf("expected 2 log lines, got %d", len(lines))
	}

	var endEntry map[string]any
	if err := json.Unmarshal([]byte(lines[1]), &endEntry); err != nil {
		t.Fatalf("failed to parse end log: %v", err)
	}
	if endEntry["msg"] != "job failed" {
		t.Errorf("expected 'job failed', got %v", endEntry["msg"])
	}
	if endEntry["level"] != "ERROR" {
		t.Errorf("expected level=ERROR, got %v", endEntry["level"])
	}
	if endEntry["error"] != "greeting template missing" {
		t.Errorf("expected error message, got %v", endEntry["error"])
	}
}

func TestLogging_NilLogger(t *testing.T) {
	// Should not panic with nil logger.
	mw := Logging(nil)
	ctx := newTestContext("test", "j-3", "")
	err := mw(ctx, func(ctx runner.JobContext) error { return nil })
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
}

// --- Recovery tests ---

func TestRecovery_NoPanic(t *testing.T) {
	mw := Recovery(nil)
	ctx := newTestContext("test", "j-4", "")

	err := mw(ctx, func(ctx runner.JobContext) error {
		return nil
	})
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
}

func TestRecovery_PanicString(t *testing.T) {
	var buf bytes.Buffer
	logger := slog.New(slog.NewJSONHandler(&buf, &slog.HandlerOptions{Level: slog.LevelDebug}))

	mw := Recovery(logger)
	ctx := newTestContext("test.panic", "j-5", "")

	err := mw(ctx, func(ctx runner.JobContext) error {
		panic("something went wrong")
	})
	if err == nil {
		t.Fatal("expected error from panic")
	}
	if !strings.Contains(err.Error(), "something went wrong") {
		t.Errorf("expected panic message in error, got %v", err)
	}
	if !strings.Contains(err.Error(), "test.panic") {
		t.Errorf("expected job type in error, got %v", err)
	}

	// Should have logged the panic.
	if !strings.Contains(buf.String(), "job panicked") {
		t.Error("expected panic log entry")
	}
}

func TestRecovery_PanicError(t *testing.T) {
	mw := Recovery(nil)
	ctx := newTestContext("test", "j-6", "")

	err := mw(ctx, func(ctx runner.JobContext) error {
		panic(fmt.Errorf("runtime error"))
	})
	if err == nil {
		t.Fatal("expected error from panic")
	}
	if !strings.Contains(err.Error(), "runtime error") {
		t.Errorf("expected panic message, got %v", err)
	}
}

func TestRecovery_HandlerError(t *testing.T) {
	mw := Recovery(nil)
	ctx := newTestContext("test", "j-7", "")
	handlerErr := errors.New("handler failed")

	err := mw(ctx, func(ctx runner.JobContext) error {
		return handlerErr
	})
	if !errors.Is(err, handlerErr) {
		t.Fatalf("expected handler error, got %v", err)
	}
}

func TestRecovery_LogsGreetingContext(t *testing.T) {
	var buf bytes.Buffer
	logger := slog.New(slog.NewJSONHandler(&buf, nil))

	mw := Recovery(logger)
	ctx := newTestContext("hello.world", "j-11", "de")

	err := mw(ctx, func(ctx runner.JobContext) error {
		panic("unknown phrase")
	})

	var pe *PanicError
	if !errors.As(err, &pe) {
		t.Fatalf("expected *PanicError, got %T", err)
	}
	if pe.Language != "de" {
		t.Errorf("expected language=de, got %s", pe.Language)
	}
	if len(pe.Stack) == 0 {
		t.Error("expected stack to be captured")
	}

	var entry map[string]any
	if err := json.Unmarshal(buf.Bytes(), &entry); err != nil {
		t.Fatalf("failed to parse log entry: %v", err)
	}
	for key, want := range map[string]string{
		"greeting.language": "de",
		"job.hook":          runner.HookInvoke,
		"person.first_name": "John",
		"person.last_name":  "Doe",
		"panic":             "unknown phrase",
	} {
		if entry[key] != want {
			t.Errorf("expected %s=%q, got %v", key, want, entry[key])
		}
	}
}

func TestRecovery_PanicErrorUnwraps(t *testing.T) {
	cause := greeting.NewCodedError(greeting.ErrCodeLanguage, "language table missing")
	mw := Recovery(nil)

	err := mw(newTestContext("hello.world", "j-12", ""), func(runner.JobContext) error {
		panic(cause)
	})
	if !IsPanic(err) {
		t.Fatalf("expected panic error, got %v", err)
	}
	if !errors.Is(err, cause) {
		t.Error("expected panic value to be unwrapped")
	}
	if code := greeting.ErrorCode(err); code != greeting.ErrCodeLanguage {
		t.Errorf("expected code %s, got %s", greeting.ErrCodeLanguage, code)
	}
	if IsPanic(errors.New("plain")) {
		t.Error("plain error reported as panic")
	}
}

// --- Metrics tests ---

type testRecorder struct {
	mu        sync.Mutex
	started   []metricsEvent
	completed []metricsEvent
	failed    []metricsEvent
}

type metricsEvent struct {
	jobType  string
	language string
	duration time.Duration
}

func (r *testRecorder) JobStarted(jobType, language string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.started = append(r.started, metricsEvent{jobType: jobType, language: language})
}

func (r *testRecorder) JobCompleted(jobType, language string, duration time.Duration) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.completed = append(r.completed, metricsEvent{jobType: jobType, language: language, duration: duration})
}

func (r *testRecorder) JobFailed(jobType, language string, duration time.Duration) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.failed = append(r.failed, metricsEvent{jobType: jobType, language: language, duration: duration})
}

func TestMetrics_Success(t *testing.T) {
	rec := &testRecorder{}
	mw := Metrics(rec)
	ctx := newTestContext("hello.world", "j-8", "fr")

	err := mw(ctx, func(ctx runner.JobContext) error {
		time.Sleep(1 * time.Millisecond)
		return nil
	})
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}

	rec.mu.Lock()
	defer rec.mu.Unlock()

	if len(rec.started) != 1 {
		t.Fatalf("expected 1 started event, got %d", len(rec.started))
	}
	if rec.started[0].jobType != "hello.world" {
		t.Errorf("expected jobType=hello.world, got %s", rec.started[0].jobType)
	}
	if rec.started[0].language != "fr" {
		t.Errorf("expected language=fr, got %s", rec.started[0].language)
	}

	if len(rec.completed) != 1 {
		t.Fatalf("expected 1 completed event, got %d", len(rec.completed))
	}
	if rec.completed[0].duration < 1*time.Millisecond {
		t.Errorf("expected duration >= 1ms, got %v", rec.completed[0].duration)
	}

	if len(rec.failed) != 0 {
		t.Errorf("expected 0 failed events, got %d", len(rec.failed))
	}
}

func TestMetrics_Failure(t *testing.T) {
	rec := &testRecorder{}
	mw := Metrics(rec)
	ctx := newTestContext("hello.world", "j-9", "")

	err := mw(ctx, func(ctx runner.JobContext) error {
		return errors.New("processing failed")
	})
	if err == nil {
		t.Fatal("expected error")
	}

	rec.mu.Lock()
	defer rec.mu.Unlock()

	if len(rec.started) != 1 {
		t.Fatalf("expected 1 started event, got %d", len(rec.started))
	}
	if len(rec.failed) != 1 {
		t.Fatalf("expected 1 failed event, got %d", len(rec.failed))
	}
	if rec.failed[0].language != "random" {
		t.Errorf("expected language=random, got %s", rec.failed[0].language)
	}
	if len(rec.completed) != 0 {
		t.Errorf("expected 0 completed events, got %d", len(rec.completed))
	}
}

func TestMetrics_UnsupportedLanguagesShareLabel(t *testing.T) {
	rec := &testRecorder{}
	mw := Metrics(rec)

	for i, lang := range []greeting.Language{"xx", "zz", "FR"} {
		ctx := newTestContext("hello.world", fmt.Sprintf("j-u%d", i), lang)
		if err := mw(ctx, func(runner.JobContext) error { return nil }); err != nil {
			t.Fatalf("expected no error, got %v", err)
		}
	}

	rec.mu.Lock()
	defer rec.mu.Unlock()

	if len(rec.completed) != 3 {
		t.Fatalf("expected 3 completed events, got %d", len(rec.completed))
	}
	for _, ev := range append(rec.started, rec.completed...) {
		if ev.language != "unknown" {
			t.Errorf("expected language=unknown, got %s", ev.language)
		}
	}
}

// --- Runner integration ---

func TestRecovery_PanicReachesErrorHook(t *testing.T) {
	hooks := greetingtest.NewFakeHooks()
	hooks.InvokeFunc = func(context.Context, greeting.JobParams, greeting.ExecutionContext) (greeting.JobResult, error) {
		panic("language table corrupted")
	}

	r := runner.New(hooks)
	r.UseNamed("recovery", Recovery(nil))

	out := r.Run(context.Background(), runner.Job{
		ID:     "j-10",
		Params: greeting.JobParams{FirstName: "John", LastName: "Doe"},
	})
	if out.State != runner.JobStateRecovered {
		t.Fatalf("expected recovered, got %s (err=%v)", out.State, out.Err)
	}
	if out.Result.Message != "Hello World, John Doe!" {
		t.Errorf("expected english fallback, got %q", out.Result.Message)
	}

	calls := hooks.Calls(greetingtest.HookError)
	if len(calls) != 1 {
		t.Fatalf("expected 1 error hook call, got %d", len(calls))
	}
	if !strings.Contains(calls[0].Error.Message, "panic in job hello.world (id=j-10)") {
		t.Errorf("expected panic description in error message, got %q", calls[0].Error.Message)
	}
}
