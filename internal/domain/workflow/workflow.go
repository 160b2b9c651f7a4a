// Package workflow implements the guarded transition table shared by the
// approval pipelines (discount requests, insurance claims), the admission
// lifecycle and the room maintenance states. A transition is permitted only
// from a specific prior state and only by an actor holding the required
// permission; on any violation the entity state is left untouched.
package workflow

import (
	"errors"
	"fmt"

	"github.com/wardflow/wardflow/internal/domain"
)

var (
	ErrInvalidTransition = errors.New("action not allowed in the current state")
	ErrPermissionDenied  = errors.New("actor lacks the permission required for this action")
)

type Action string

// Rule maps one (prior state, action) pair to its outcome.
type Rule[S ~string] struct {
	From       S
	To         S
	Permission domain.Permission
}

// Machine is a table of (current state, action) -> (next state, required
// permission). The same action may appear with several prior states
// (e.g. cancel from draft or in_progress).
type Machine[S ~string] struct {
	entity string
	rules  map[Action][]Rule[S]
}

func NewMachine[S ~string](entity string, rules map[Action][]Rule[S]) *Machine[S] {
	return &Machine[S]{entity: entity, rules: rules}
}

// Apply resolves the next state for the action. It returns
// ErrInvalidTransition when no rule matches the current state and
// ErrPermissionDenied when the actor's role does not grant the rule's
// permission. The caller assigns the returned state inside its own
// transaction so that check-then-set is one atomic step.
func (m *Machine[S]) Apply(current S, action Action, actor domain.Actor) (S, error) {
	var zero S
	for _, r := range m.rules[action] {
		if r.From != current {
			continue
		}
		if r.Permission != "" && !actor.Can(r.Permission) {
			return zero, fmt.Errorf("%s %s: %w", m.entity, action, ErrPermissionDenied)
		}
		return r.To, nil
	}
	return zero, fmt.Errorf("%s %s from %q: %w", m.entity, action, string(current), ErrInvalidTransition)
}

// Allows reports whether the action could ever fire from the current state,
// ignoring permissions. Used for guard checks that do not change state.
func (m *Machine[S]) Allows(current S, action Action) bool {
	for _, r := range m.rules[action] {
		if r.From == current {
			return true
		}
	}
	return false
}
