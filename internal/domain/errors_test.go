package domain

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSentinelErrors_AreDistinct(t *testing.T) {
	sentinels := []error{
		ErrNotFound,
		ErrConflict,
		ErrValidation,
		ErrForbidden,
		ErrUnavailable,
		ErrPluginResolution,
		ErrWorkflowTransition,
		ErrStaleWrite,
		ErrUnresolvedActor,
	}

	for i, a := range sentinels {
		for j, b := range sentinels {
			if i != j {
				assert.NotErrorIs(t, a, b, "sentinels should be distinct: %v vs %v", a, b)
			}
		}
	}
}

func TestTypedErrors_Messages(t *testing.T) {
	tests := []struct {
		name     string
		err      error
		sentinel error
		expected string
	}{
		{
			name:     "not found with id",
			err:      NewNotFoundError("quote", "q-1"),
			sentinel: ErrNotFound,
			expected: `quote with id "q-1" not found`,
		},
		{
			name:     "not found without id",
			err:      NewNotFoundError("outlet", ""),
			sentinel: ErrNotFound,
			expected: "outlet not found",
		},
		{
			name:     "conflict with details",
			err:      &ConflictError{Entity: "outlet", Reason: "duplicate", Details: "abbreviation NT"},
			sentinel: ErrConflict,
			expected: "outlet conflict: duplicate (abbreviation NT)",
		},
		{
			name:     "validation with field",
			err:      NewValidationError("discount", "not allowed"),
			sentinel: ErrValidation,
			expected: "validation failed for discount: not allowed",
		},
		{
			name:     "forbidden",
			err:      NewForbiddenError("purge", "not owner"),
			sentinel: ErrForbidden,
			expected: `operation "purge" forbidden: not owner`,
		},
		{
			name:     "unavailable",
			err:      NewUnavailableError("account-directory", "timeout"),
			sentinel: ErrUnavailable,
			expected: `service "account-directory" unavailable: timeout`,
		},
		{
			name:     "plugin resolution with reason",
			err:      NewPluginResolutionError("teletext", "unknown variant"),
			sentinel: ErrPluginResolution,
			expected: `line serializer "teletext": unknown variant`,
		},
		{
			name:     "plugin resolution without reason",
			err:      NewPluginResolutionError("teletext", ""),
			sentinel: ErrPluginResolution,
			expected: `line serializer "teletext" cannot be resolved`,
		},
		{
			name:     "workflow transition",
			err:      NewWorkflowTransitionError("quote NT/7", "approve", "draft"),
			sentinel: ErrWorkflowTransition,
			expected: `option "approve" is not available to quote NT/7 in state "draft"`,
		},
		{
			name:     "stale write",
			err:      NewStaleWriteError("quote", "q-1", 3),
			sentinel: ErrStaleWrite,
			expected: `quote "q-1" was modified concurrently (expected version 3)`,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, tt.err.Error())
			require.ErrorIs(t, tt.err, tt.sentinel)
		})
	}
}

func TestStaleWriteError_IsConflict(t *testing.T) {
	err := fmt.Errorf("saving quote: %w", NewStaleWriteError("quote", "q-1", 2))

	assert.True(t, IsStaleWrite(err))
	assert.True(t, IsConflict(err))
	assert.False(t, IsNotFound(err))

	var stale *StaleWriteError
	require.ErrorAs(t, err, &stale)
	assert.Equal(t, int64(2), stale.Expected)
}

func TestIsHelpers(t *testing.T) {
	tests := []struct {
		name  string
		err   error
		check func(error) bool
		want  bool
	}{
		{"not found", NewNotFoundError("quote", "1"), IsNotFound, true},
		{"conflict", NewConflictError("quote", "dup"), IsConflict, true},
		{"validation", NewValidationError("f", "bad"), IsValidation, true},
		{"forbidden", NewForbiddenError("op", ""), IsForbidden, true},
		{"unavailable", NewUnavailableError("svc", ""), IsUnavailable, true},
		{"plugin", NewPluginResolutionError("x", ""), IsPluginResolution, true},
		{"transition", NewWorkflowTransitionError("q", "o", "s"), IsWorkflowTransition, true},
		{"stale", NewStaleWriteError("quote", "1", 1), IsStaleWrite, true},
		{"unresolved actor", fmt.Errorf("resolving: %w", ErrUnresolvedActor), IsUnresolvedActor, true},
		{"plain error", errors.New("boom"), IsNotFound, false},
		{"nil", nil, IsConflict, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, tt.check(tt.err))
		})
	}
}

func TestErrorWrappingChain(t *testing.T) {
	base := NewWorkflowTransitionError("quote NT/1", "reject", "approved")
	wrapped := fmt.Errorf("service: %w", fmt.Errorf("stepping workflow: %w", base))

	assert.True(t, IsWorkflowTransition(wrapped))

	var transitionErr *WorkflowTransitionError
	require.ErrorAs(t, wrapped, &transitionErr)
	assert.Equal(t, "reject", transitionErr.Option)
	assert.Equal(t, "approved", transitionErr.State)
}
