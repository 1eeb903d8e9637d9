package domain

import (
	"fmt"
	"slices"
	"time"
)

// Permission controls who may act while an item is in a state.
type Permission string

// PermissionGroup lets any member of the state's actor role act.
const PermissionGroup Permission = "GROUP"

// Classification buckets an item by where its current state sits in its
// workflow.
type Classification string

// Classifications.
const (
	ClassActive  Classification = "active"
	ClassClosed  Classification = "closed"
	ClassTrashed Classification = "trashed"
)

// ParseClassification maps a string to a Classification.
func ParseClassification(s string) (Classification, error) {
	switch c := Classification(s); c {
	case ClassActive, ClassClosed, ClassTrashed:
		return c, nil
	default:
		return "", NewValidationErrorWithValue("status", "must be one of active, closed, trashed", s)
	}
}

// WorkflowStateOption is an outgoing edge from one state to another.
type WorkflowStateOption struct {
	ID            string `json:"id"`
	Name          string `json:"name"`
	Enabled       bool   `json:"enabled"`
	DisplayOrder  int    `json:"displayOrder"`
	SourceStateID string `json:"sourceStateId"`
	TargetStateID string `json:"targetStateId"`
}

// WorkflowState is a node of a workflow definition.
type WorkflowState struct {
	ID              string                `json:"id"`
	Name            string                `json:"name"`
	Description     string                `json:"description,omitempty"`
	Enabled         bool                  `json:"enabled"`
	ActorRole       string                `json:"actorRole,omitempty"`
	Permission      Permission            `json:"permission"`
	Options         []WorkflowStateOption `json:"options,omitempty"`
	DefaultOptionID string                `json:"defaultOptionId,omitempty"`

	// PullbackEnabled is reserved: it is reported by CanPullback but no
	// transition reverts history.
	PullbackEnabled bool `json:"pullbackEnabled"`
}

// Option returns the outgoing option with the given id.
func (s *WorkflowState) Option(id string) (*WorkflowStateOption, bool) {
	for i := range s.Options {
		if s.Options[i].ID == id {
			return &s.Options[i], true
		}
	}

	return nil, false
}

// WorkflowDefinition is a state graph with one start state, a set of end
// states and one trash state.
type WorkflowDefinition struct {
	ID           string          `json:"id"`
	Name         string          `json:"name"`
	Description  string          `json:"description,omitempty"`
	States       []WorkflowState `json:"states"`
	StartStateID string          `json:"startStateId"`
	EndStateIDs  []string        `json:"endStateIds,omitempty"`
	TrashStateID string          `json:"trashStateId"`
}

// State returns the state with the given id.
func (d *WorkflowDefinition) State(id string) (*WorkflowState, bool) {
	for i := range d.States {
		if d.States[i].ID == id {
			return &d.States[i], true
		}
	}

	return nil, false
}

// Validate checks the graph is closed: start, trash, end states and every
// option target must exist.
func (d *WorkflowDefinition) Validate() error {
	if _, ok := d.State(d.StartStateID); !ok {
		return NewValidationErrorWithValue("startStateId", "must reference a state of the workflow", d.StartStateID)
	}

	if _, ok := d.State(d.TrashStateID); !ok {
		return NewValidationErrorWithValue("trashStateId", "must reference a state of the workflow", d.TrashStateID)
	}

	for _, id := range d.EndStateIDs {
		if _, ok := d.State(id); !ok {
			return NewValidationErrorWithValue("endStateIds", "must reference states of the workflow", id)
		}
	}

	for _, s := range d.States {
		for _, o := range s.Options {
			if _, ok := d.State(o.TargetStateID); !ok {
				return NewValidationError("options",
					fmt.Sprintf("option %q of state %q targets unknown state %q", o.ID, s.ID, o.TargetStateID))
			}
		}
	}

	return nil
}

// Classify reports whether stateID is active, closed or trashed. The trash
// state is trashed even when it is also listed as an end state.
func (d *WorkflowDefinition) Classify(stateID string) Classification {
	switch {
	case stateID == d.TrashStateID:
		return ClassTrashed
	case slices.Contains(d.EndStateIDs, stateID):
		return ClassClosed
	default:
		return ClassActive
	}
}

// LegalOptions returns the enabled options out of stateID ordered for
// display.
func (d *WorkflowDefinition) LegalOptions(stateID string) []WorkflowStateOption {
	state, ok := d.State(stateID)
	if !ok {
		return nil
	}

	opts := make([]WorkflowStateOption, 0, len(state.Options))

	for _, o := range state.Options {
		if o.Enabled {
			opts = append(opts, o)
		}
	}

	slices.SortStableFunc(opts, func(a, b WorkflowStateOption) int {
		return a.DisplayOrder - b.DisplayOrder
	})

	return opts
}

// WorkflowStateTransition is one entry of an item's history. OptionID is
// empty for the initial transition stamped at creation.
type WorkflowStateTransition struct {
	ID        string    `json:"id"`
	Actor     string    `json:"actor,omitempty"`
	Timestamp time.Time `json:"timestamp"`
	OptionID  string    `json:"optionId,omitempty"`
	StateID   string    `json:"stateId"`
}

// Workflowable carries a current state and an append-only transition
// history. Embed it in any entity that moves through a workflow.
type Workflowable struct {
	CurrentState string                    `json:"currentState"`
	History      []WorkflowStateTransition `json:"history"`
}

// Workflow returns the embedded workflow state.
func (w *Workflowable) Workflow() *Workflowable {
	return w
}

func (w *Workflowable) record(t WorkflowStateTransition) {
	w.History = append(w.History, t)
	w.CurrentState = t.StateID
}

// Subject is an entity driven by a workflow definition.
type Subject interface {
	SubjectName() string
	Workflow() *Workflowable
}

// Start places a subject in the start state and stamps the initial
// transition.
func (d *WorkflowDefinition) Start(subject Subject, transitionID, actor string, now time.Time) WorkflowStateTransition {
	t := WorkflowStateTransition{
		ID:        transitionID,
		Actor:     actor,
		Timestamp: now,
		StateID:   d.StartStateID,
	}
	subject.Workflow().record(t)

	return t
}

// Step moves subject along optionID. The option must belong to the
// subject's current state; otherwise a WorkflowTransitionError is returned
// and the subject is left untouched. Disabled options are still legal:
// Enabled only controls whether the option is offered.
func (d *WorkflowDefinition) Step(
	subject Subject, optionID, transitionID, actor string, now time.Time,
) (WorkflowStateTransition, error) {
	wf := subject.Workflow()

	state, ok := d.State(wf.CurrentState)
	if !ok {
		return WorkflowStateTransition{}, NewWorkflowTransitionError(subject.SubjectName(), optionID, wf.CurrentState)
	}

	option, ok := state.Option(optionID)
	if !ok {
		return WorkflowStateTransition{}, NewWorkflowTransitionError(subject.SubjectName(), optionID, wf.CurrentState)
	}

	t := WorkflowStateTransition{
		ID:        transitionID,
		Actor:     actor,
		Timestamp: now,
		OptionID:  option.ID,
		StateID:   option.TargetStateID,
	}
	wf.record(t)

	return t, nil
}

// CanPullback reports whether the current state allows pulling the subject
// back to its previous history entry.
func (d *WorkflowDefinition) CanPullback(subject Subject) bool {
	wf := subject.Workflow()

	state, ok := d.State(wf.CurrentState)
	if !ok {
		return false
	}

	return state.PullbackEnabled && len(wf.History) > 1
}
