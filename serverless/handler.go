package serverless

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	greeting "github.com/openjobspec/ojs-hello-world"
	"github.com/openjobspec/ojs-hello-world/runner"
)

// RequestIDHeader carries the id assigned to every request.
const RequestIDHeader = "X-Request-Id"

// InvokeRequest is the body of POST /invoke.
type InvokeRequest struct {
	Params  greeting.JobParams        `json:"params"`
	Context greeting.ExecutionContext `json:"context"`
}

// FailureResponse is the body returned when a hook call fails.
type FailureResponse struct {
	Status string    `json:"status"`
	Error  PushError `json:"error"`
}

// PushError describes a hook failure.
type PushError struct {
	Code      string `json:"code"`
	Message   string `json:"message"`
	Retryable bool   `json:"retryable"`
}

// Option configures the Handler.
type Option func(*Handler)

// WithLogger sets a custom slog logger.
func WithLogger(logger *slog.Logger) Option {
	return func(h *Handler) {
		h.logger = logger
	}
}

// WithRunner routes /invoke through r, so the runner's middleware chain
// and timeout apply to pushed jobs. The job ID is the request ID.
func WithRunner(r *runner.Runner) Option {
	return func(h *Handler) {
		h.runner = r
	}
}

// Handler exposes the hooks of a greeting job over HTTP.
type Handler struct {
	hooks  runner.Hooks
	runner *runner.Runner
	logger *slog.Logger
	router chi.Router
}

// NewHandler creates a push-delivery handler for hooks.
func NewHandler(hooks runner.Hooks, opts ...Option) *Handler {
	h := &Handler{
		hooks:  hooks,
		logger: slog.Default(),
	}
	for _, opt := range opts {
		opt(h)
	}

	r := chi.NewRouter()
	r.Use(requestID)
	r.Get("/healthz", h.health)
	r.Post("/invoke", h.invokeHook)
	r.Post("/error", h.errorHook)
	r.Post("/halt", h.haltHook)
	h.router = r

	return h
}

// Routes returns the router so it can be mounted under a prefix.
func (h *Handler) Routes() chi.Router {
	return h.router
}

// ServeHTTP implements http.Handler.
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	h.router.ServeHTTP(w, r)
}

func (h *Handler) health(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (h *Handler) invokeHook(w http.ResponseWriter, r *http.Request) {
	var req InvokeRequest
	if !h.decode(w, r, &req) {
		return
	}

	var (
		res greeting.JobResult
		err error
	)
	if h.runner != nil {
		res, err = h.runner.Invoke(r.Context(), runner.Job{
			ID:      w.Header().Get(RequestIDHeader),
			Params:  req.Params,
			Context: req.Context,
		})
	} else {
		res, err = h.hooks.Invoke(r.Context(), req.Params, req.Context)
	}
	if err != nil {
		h.fail(w, r, runner.HookInvoke, err)
		return
	}
	writeJSON(w, http.StatusOK, res)
}

func (h *Handler) errorHook(w http.ResponseWriter, r *http.Request) {
	var params greeting.ErrorParams
	if !h.decode(w, r, &params) {
		return
	}

	res, err := h.hooks.Error(r.Context(), params)
	if err != nil {
		h.fail(w, r, runner.HookError, err)
		return
	}
	writeJSON(w, http.StatusOK, res)
}

func (h *Handler) haltHook(w http.ResponseWriter, r *http.Request) {
	var params greeting.HaltParams
	if !h.decode(w, r, &params) {
		return
	}

	h.hooks.Halt(r.Context(), params)
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) decode(w http.ResponseWriter, r *http.Request, v any) bool {
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		h.logger.LogAttrs(r.Context(), slog.LevelWarn, "failed to decode request body",
			slog.String("request_id", w.Header().Get(RequestIDHeader)),
			slog.String("path", r.URL.Path),
			slog.String("error", err.Error()),
		)
		writeJSON(w, http.StatusBadRequest, FailureResponse{
			Status: "failed",
			Error: PushError{
				Code:      greeting.ErrCodeInvalidRequest,
				Message:   "failed to decode request body",
				Retryable: false,
			},
		})
		return false
	}
	return true
}

// fail writes a hook failure. Unrecoverable errors map to 422 and are not
// retryable; anything else is a retryable 500.
func (h *Handler) fail(w http.ResponseWriter, r *http.Request, hook string, err error) {
	h.logger.LogAttrs(r.Context(), slog.LevelError, "hook failed",
		slog.String("request_id", w.Header().Get(RequestIDHeader)),
		slog.String("job.hook", hook),
		slog.String("error", err.Error()),
	)

	status := http.StatusInternalServerError
	retryable := true
	if errors.Is(err, greeting.ErrUnrecoverable) {
		status = http.StatusUnprocessableEntity
		retryable = false
	}

	writeJSON(w, status, FailureResponse{
		Status: "failed",
		Error: PushError{
			Code:      greeting.ErrorCode(err),
			Message:   err.Error(),
			Retryable: retryable,
		},
	})
}

// requestID assigns a uuid to every request, reusing a valid incoming one.
func requestID(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		id := r.Header.Get(RequestIDHeader)
		if _, err := uuid.Parse(id); err != nil {
			id = uuid.NewString()
		}
		w.Header().Set(RequestIDHeader, id)
		next.ServeHTTP(w, r)
	})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
