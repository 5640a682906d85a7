// Package greetingtest provides test utilities for code built on the
// greeting handler.
//
// It offers deterministic randomness and clocks, a capturing logger, a
// recording fake for the three job hooks, and assertion helpers:
//
//	func TestSpanish(t *testing.T) {
//	    h := greeting.NewHandler(
//	        greeting.WithRandSource(greetingtest.FixedRand(1)),
//	        greeting.WithClock(greetingtest.FixedClock(greetingtest.Epoch)),
//	    )
//	    res, _ := h.Invoke(ctx, greeting.JobParams{FirstName: "Maria", LastName: "Garcia"}, greeting.ExecutionContext{})
//	    greetingtest.AssertGreeting(t, res, greeting.LanguageSpanish, "Maria", "Garcia")
//	}
package greetingtest

import (
	"bufio"
	"bytes"
	"encoding/json"
	"fmt"
	"log/slog"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	greeting "github.com/openjobspec/ojs-hello-world"
)

// Epoch is a fixed instant for deterministic timestamps.
var Epoch = time.Date(2024, time.March, 1, 12, 30, 45, 123_000_000, time.UTC)

// FixedRand always selects index i (modulo n).
type FixedRand int

// IntN implements greeting.RandSource.
func (r FixedRand) IntN(n int) int {
	return int(r) % n
}

// SequenceRand returns the given indexes in order and wraps around.
type SequenceRand struct {
	mu   sync.Mutex
	seq  []int
	next int
}

// NewSequenceRand creates a SequenceRand. An empty sequence always yields 0.
func NewSequenceRand(seq ...int) *SequenceRand {
	return &SequenceRand{seq: seq}
}

// IntN implements greeting.RandSource.
func (r *SequenceRand) IntN(n int) int {
	r.mu.Lock()
	defer r.mu.Unlock()
	if len(r.seq) == 0 {
		return 0
	}
	v := r.seq[r.next%len(r.seq)]
	r.next++
	return v % n
}

// FixedClock returns a clock that always reports t.
func FixedClock(t time.Time) greeting.Clock {
	return func() time.Time { return t }
}

// LogBuffer collects JSON log records written by a logger from [NewLogger].
type LogBuffer struct {
	mu  sync.Mutex
	buf bytes.Buffer
}

func (b *LogBuffer) Write(p []byte) (int, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.buf.Write(p)
}

// String returns the raw log output.
func (b *LogBuffer) String() string {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.buf.String()
}

// Entries decodes every log record.
func (b *LogBuffer) Entries() []map[string]any {
	b.mu.Lock()
	defer b.mu.Unlock()

	var out []map[string]any
	sc := bufio.NewScanner(bytes.NewReader(b.buf.Bytes()))
	for sc.Scan() {
		var entry map[string]any
		if err := json.Unmarshal(sc.Bytes(), &entry); err != nil {
			continue
		}
		out = append(out, entry)
	}
	return out
}

// Messages returns the "msg" field of every log record.
func (b *LogBuffer) Messages() []string {
	var msgs []string
	for _, e := range b.Entries() {
		if m, ok := e["msg"].(string); ok {
			msgs = append(msgs, m)
		}
	}
	return msgs
}

// NewLogger returns a debug-level JSON logger writing into a LogBuffer.
func NewLogger() (*slog.Logger, *LogBuffer) {
	buf := &LogBuffer{}
	return slog.New(slog.NewJSONHandler(buf, &slog.HandlerOptions{Level: slog.LevelDebug})), buf
}

// NewHandler returns a greeting handler with a capturing logger, the given
// random index and the [Epoch] clock.
func NewHandler(randIndex int) (*greeting.Handler, *LogBuffer) {
	logger, buf := NewLogger()
	return greeting.NewHandler(
		greeting.WithLogger(logger),
		greeting.WithRandSource(FixedRand(randIndex)),
		greeting.WithClock(FixedClock(Epoch)),
	), buf
}

// ExpectedMessage formats the message the handler produces for lang.
func ExpectedMessage(lang greeting.Language, first, last string) string {
	phrase, _ := greeting.Phrase(lang)
	return fmt.Sprintf("%s, %s %s!", phrase, first, last)
}

// AssertGreeting asserts that res greets first and last in lang and
// carries a valid timestamp.
func AssertGreeting(t testing.TB, res greeting.JobResult, lang greeting.Language, first, last string) {
	t.Helper()
	assert.Equal(t, ExpectedMessage(lang, first, last), res.Message, "message")
	assert.Equal(t, lang, res.Language, "language")
	AssertTimestamp(t, res)
}

// AssertTimestamp asserts that res.ProcessedAt is an ISO-8601 UTC timestamp.
func AssertTimestamp(t testing.TB, res greeting.JobResult) {
	t.Helper()
	require.NotEmpty(t, res.ProcessedAt, "processed_at")
	ts, err := time.Parse(time.RFC3339Nano, res.ProcessedAt)
	require.NoError(t, err, "processed_at must be ISO-8601")
	assert.Equal(t, time.UTC, ts.Location(), "processed_at must be UTC")
}
