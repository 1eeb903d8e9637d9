package app

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/jsamuelsen/quote-engine/internal/platform/logging"
)

// ExecutionStep names one stage of a write use case.
type ExecutionStep string

// Write use cases run Validate, Perform, Verify, Archive and Respond in
// that order. Nothing is stored before Verify accepts Perform's result, so
// a quote that fails a workflow or numbering check is never half-written.
const (
	StepValidate ExecutionStep = "validate"
	StepPerform  ExecutionStep = "perform"
	StepVerify   ExecutionStep = "verify"
	StepArchive  ExecutionStep = "archive"
	StepRespond  ExecutionStep = "respond"
)

// ExecutionError records the step a use case failed in. Domain errors stay
// reachable through errors.Is and errors.As.
type ExecutionError struct {
	Step    ExecutionStep
	Message string
	Cause   error
}

func (e *ExecutionError) Error() string {
	if e.Cause == nil {
		return fmt.Sprintf("%s failed: %s", e.Step, e.Message)
	}

	return fmt.Sprintf("%s failed: %s: %v", e.Step, e.Message, e.Cause)
}

func (e *ExecutionError) Unwrap() error { return e.Cause }

// NewArchiveError reports a persistence failure after verification.
func NewArchiveError(message string, cause error) error {
	return &ExecutionError{Step: StepArchive, Message: message, Cause: cause}
}

// IsExecutionError reports whether err came out of Execute.
func IsExecutionError(err error) bool {
	_, ok := GetExecutionStep(err)
	return ok
}

// GetExecutionStep returns the step err failed in.
func GetExecutionStep(err error) (ExecutionStep, bool) {
	var execErr *ExecutionError
	if !errors.As(err, &execErr) {
		return "", false
	}

	return execErr.Step, true
}

// Executor runs Operations. Its logger is used when the context carries
// none.
type Executor struct {
	logger *slog.Logger
}

// NewExecutor returns an Executor logging to logger, or slog.Default.
func NewExecutor(logger *slog.Logger) *Executor {
	if logger == nil {
		logger = slog.Default()
	}

	return &Executor{logger: logger}
}

// Operation is a write use case. I is the input, P what Perform produces,
// V what Verify accepts and O the caller's result. Nil steps are skipped
// and pass the zero value on.
type Operation[I, P, V, O any] struct {
	Name string

	Validate func(ctx context.Context, in I) error
	Perform  func(ctx context.Context, in I) (P, error)
	Verify   func(ctx context.Context, in I, performed P) (V, error)
	Archive  func(ctx context.Context, in I, verified V) error
	Respond  func(ctx context.Context, in I, verified V) (O, error)
}

// Execute runs op's steps in order and stops at the first failure, which
// is returned as an *ExecutionError. Respond errors are returned as is.
func Execute[I, P, V, O any](ctx context.Context, exec *Executor, op Operation[I, P, V, O], in I) (O, error) {
	var (
		zero      O
		performed P
		verified  V
	)

	logger := logging.FromContextOr(ctx, exec.logger).With(slog.String("operation", op.Name))
	start := time.Now()

	fail := func(step ExecutionStep, message string, err error) (O, error) {
		level := slog.LevelError
		if step == StepValidate {
			level = slog.LevelWarn
		}

		logger.Log(ctx, level, string(step)+" failed", slog.Any("error", err))

		return zero, &ExecutionError{Step: step, Message: message, Cause: err}
	}

	if op.Validate != nil {
		if err := op.Validate(ctx, in); err != nil {
			return fail(StepValidate, "input validation failed", err)
		}
	}

	if op.Perform != nil {
		var err error
		if performed, err = op.Perform(ctx, in); err != nil {
			return fail(StepPerform, "operation failed", err)
		}
	}

	if op.Verify != nil {
		var err error
		if verified, err = op.Verify(ctx, in, performed); err != nil {
			return fail(StepVerify, "verification failed", err)
		}
	}

	if op.Archive != nil {
		if err := op.Archive(ctx, in, verified); err != nil {
			return fail(StepArchive, "state persistence failed", err)
		}
	}

	out := zero

	if op.Respond != nil {
		var err error
		if out, err = op.Respond(ctx, in, verified); err != nil {
			logger.WarnContext(ctx, "respond failed", slog.Any("error", err))
			return zero, err
		}
	}

	logger.InfoContext(ctx, "operation completed", slog.Duration("duration", time.Since(start)))

	return out, nil
}
