package reqscope

import (
	"context"
	"errors"
	"fmt"
)

// ErrApplied is returned when staging onto, or applying, a Scope whose
// batch already ran.
var ErrApplied = errors.New("batch already applied")

// Step is one write in a batch. Undo reverses a successful Apply.
type Step interface {
	Apply(ctx context.Context) error
	Undo(ctx context.Context) error
	String() string
}

// Stage queues step for Apply.
func (s *Scope) Stage(step Step) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.applied {
		return ErrApplied
	}

	s.staged = append(s.staged, step)

	return nil
}

// Staged returns the queued steps in order.
func (s *Scope) Staged() []Step {
	s.mu.Lock()
	defer s.mu.Unlock()

	return append([]Step(nil), s.staged...)
}

// Apply runs the staged steps in order. When one fails, the steps before it
// are undone in reverse order and the returned error joins the failure
// with any undo failures. A failed batch may be applied again.
func (s *Scope) Apply(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.applied {
		return ErrApplied
	}

	for i, step := range s.staged {
		err := step.Apply(ctx)
		if err == nil {
			continue
		}

		errs := []error{fmt.Errorf("%s: %w", step, err)}

		for j := i - 1; j >= 0; j-- {
			if undoErr := s.staged[j].Undo(ctx); undoErr != nil {
				errs = append(errs, fmt.Errorf("undoing %s: %w", s.staged[j], undoErr))
			}
		}

		return errors.Join(errs...)
	}

	s.applied = true

	return nil
}
