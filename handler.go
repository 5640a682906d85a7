package greeting

import (
	"context"
	"fmt"
	"log/slog"
)

// Handler implements the invoke, error and halt hooks of the hello-world
// job. It holds no mutable state and is safe for concurrent use.
type Handler struct {
	logger *slog.Logger
	rand   RandSource
	clock  Clock
}

// NewHandler creates a greeting handler.
//
// Example:
//
//	h := greeting.NewHandler(greeting.WithLogger(logger))
//	res, _ := h.Invoke(ctx, greeting.JobParams{FirstName: "Maria", LastName: "Garcia", Language: "es"}, execCtx)
//	// res.Message == "Hola Mundo, Maria Garcia!"
func NewHandler(opts ...Option) *Handler {
	cfg := resolveHandlerConfig(opts)
	return &Handler{
		logger: cfg.logger,
		rand:   cfg.rand,
		clock:  cfg.clock,
	}
}

// Invoke builds the greeting for params.
//
// A non-empty params.Language is used as the lookup key as is. Unknown
// codes are not rejected: they produce an empty phrase and therefore a
// message like ", John Doe!". An empty language is replaced by a code
// drawn uniformly from [Languages].
//
// Invoke never returns an error; the error return exists so Handler
// satisfies the runner's hook contract.
func (h *Handler) Invoke(ctx context.Context, params JobParams, _ ExecutionContext) (JobResult, error) {
	h.logger.LogAttrs(ctx, slog.LevelInfo, "starting hello world job execution",
		slog.String("job.hook", "invoke"),
	)

	lang := params.Language
	if lang == "" {
		lang = h.randomLanguage()
		h.logger.LogAttrs(ctx, slog.LevelDebug, "no language specified, randomly selected",
			slog.String("greeting.language", string(lang)),
		)
	}

	h.logger.LogAttrs(ctx, slog.LevelDebug, "creating greeting",
		slog.String("greeting.language", string(lang)),
		slog.String("person.first_name", params.FirstName),
		slog.String("person.last_name", params.LastName),
	)

	phrase, _ := Phrase(lang)
	result := h.result(phrase, lang, params.FirstName, params.LastName)

	h.logger.LogAttrs(ctx, slog.LevelInfo, "generated message",
		slog.String("greeting.language", string(lang)),
		slog.String("greeting.message", result.Message),
	)
	return result, nil
}

// Error is called by the job runner after an invoke failure.
//
// Failures whose message mentions "language" or "greeting" are recovered
// with the English greeting. Anything else yields an *UnrecoverableError.
func (h *Handler) Error(ctx context.Context, params ErrorParams) (JobResult, error) {
	h.logger.LogAttrs(ctx, slog.LevelError, "hello world job encountered error",
		slog.String("job.hook", "error"),
		slog.String("person.first_name", params.FirstName),
		slog.String("person.last_name", params.LastName),
		slog.String("error.message", params.Error.Message),
		slog.String("error.code", params.Error.Code),
	)

	if IsRecoverable(params.Error.Message) {
		h.logger.LogAttrs(ctx, slog.LevelWarn, "language error detected, falling back to english",
			slog.String("greeting.language", string(DefaultLanguage)),
		)
		phrase, _ := Phrase(DefaultLanguage)
		return h.result(phrase, DefaultLanguage, params.FirstName, params.LastName), nil
	}

	h.logger.LogAttrs(ctx, slog.LevelError, "unable to recover from error",
		slog.String("person.first_name", params.FirstName),
		slog.String("person.last_name", params.LastName),
	)
	return JobResult{}, &UnrecoverableError{Cause: params.Error}
}

// Halt is called when the job runner terminates a job. There is nothing
// to clean up, so it only logs.
func (h *Handler) Halt(ctx context.Context, params HaltParams) {
	h.logger.LogAttrs(ctx, slog.LevelInfo, "hello world job is being halted",
		slog.String("job.hook", "halt"),
		slog.String("halt.reason", params.Reason),
		slog.String("person.first_name", params.FirstName),
		slog.String("person.last_name", params.LastName),
	)
	h.logger.LogAttrs(ctx, slog.LevelDebug, "performing minimal cleanup operations")
}

func (h *Handler) randomLanguage() Language {
	return languages[h.rand.IntN(len(languages))]
}

func (h *Handler) result(phrase string, lang Language, first, last string) JobResult {
	return JobResult{
		Message:     fmt.Sprintf("%s, %s %s!", phrase, first, last),
		Language:    lang,
		ProcessedAt: formatTimestamp(h.clock()),
	}
}
