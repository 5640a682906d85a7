package greeting

import (
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"testing"
)

func newBenchHandler() *Handler {
	return NewHandler(WithLogger(slog.New(slog.NewTextHandler(io.Discard, nil))))
}

// --- Hook benchmarks ---

func BenchmarkInvoke_KnownLanguage(b *testing.B) {
	h := newBenchHandler()
	ctx := context.Background()
	params := JobParams{FirstName: "Maria", LastName: "Garcia", Language: LanguageSpanish}
	b.ResetTimer()
	for range b.N {
		_, _ = h.Invoke(ctx, params, ExecutionContext{})
	}
}

func BenchmarkInvoke_RandomLanguage(b *testing.B) {
	h := newBenchHandler()
	ctx := context.Background()
	params := JobParams{FirstName: "Jane", LastName: "Smith"}
	b.ResetTimer()
	for range b.N {
		_, _ = h.Invoke(ctx, params, ExecutionContext{})
	}
}

func BenchmarkInvoke_Parallel(b *testing.B) {
	h := newBenchHandler()
	params := JobParams{FirstName: "Jane", LastName: "Smith"}
	b.RunParallel(func(pb *testing.PB) {
		ctx := context.Background()
		for pb.Next() {
			_, _ = h.Invoke(ctx, params, ExecutionContext{})
		}
	})
}

func BenchmarkError_Recovered(b *testing.B) {
	h := newBenchHandler()
	ctx := context.Background()
	params := ErrorParams{
		JobParams: JobParams{FirstName: "John", LastName: "Doe"},
		Error:     ErrorInfo{Message: "Invalid language specified"},
	}
	b.ResetTimer()
	for range b.N {
		_, _ = h.Error(ctx, params)
	}
}

func BenchmarkError_Unrecoverable(b *testing.B) {
	h := newBenchHandler()
	ctx := context.Background()
	params := ErrorParams{
		JobParams: JobParams{FirstName: "John", LastName: "Doe"},
		Error:     ErrorInfo{Message: "Database connection failed"},
	}
	b.ResetTimer()
	for range b.N {
		_, _ = h.Error(ctx, params)
	}
}

// --- Wire format benchmarks ---

func BenchmarkJobResultMarshalJSON(b *testing.B) {
	res := JobResult{Message: "Hola Mundo, Maria Garcia!", Language: LanguageSpanish, ProcessedAt: "2024-03-01T12:30:45.123Z"}
	b.ResetTimer()
	for range b.N {
		_, _ = json.Marshal(res)
	}
}

func BenchmarkErrorParamsUnmarshalJSON(b *testing.B) {
	data := []byte(`{"first_name":"John","last_name":"Doe","language":"es","error":{"message":"Invalid language specified","code":"language_error"}}`)
	b.ResetTimer()
	for range b.N {
		var params ErrorParams
		_ = json.Unmarshal(data, &params)
	}
}
