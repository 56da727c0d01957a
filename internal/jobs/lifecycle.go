package jobs

import (
	"errors"
	"fmt"

	"github.com/fieldsync/fieldsync/internal/token"
)

// Action is a requested lifecycle operation.
type Action string

const (
	ActionStart    Action = "start"
	ActionComplete Action = "complete"
	ActionAssign   Action = "assign"
	ActionCancel   Action = "cancel"
)

// RoleBackend marks transitions only the dispatch backend may trigger;
// no client session ever carries it.
const RoleBackend = "backend"

var (
	// ErrInvalidTransition is a lifecycle precondition violation,
	// surfaced as a local validation message.
	ErrInvalidTransition = errors.New("invalid status transition")
	// ErrForbidden is a role or ownership check failed locally, before
	// any network call.
	ErrForbidden = errors.New("forbidden")
)

type transitionKey struct {
	from   Status
	action Action
}

type transitionRule struct {
	role string
	to   Status
}

// transitions is the single place role-gated lifecycle rules live;
// screens never re-implement this branching.
var transitions = map[transitionKey]transitionRule{
	{StatusAssigned, ActionStart}:      {token.RoleTechnician, StatusInProgress},
	{StatusInProgress, ActionComplete}: {token.RoleTechnician, StatusCompleted},
	{StatusPending, ActionAssign}:      {RoleBackend, StatusAssigned},
	{StatusPending, ActionCancel}:      {RoleBackend, StatusCancelled},
	{StatusAssigned, ActionCancel}:     {RoleBackend, StatusCancelled},
}

// Transition resolves the target status for (from, action) under the
// given role. ErrInvalidTransition when the lifecycle does not allow
// the action from this status, ErrForbidden when it does but not for
// this role.
func Transition(from Status, action Action, role string) (Status, error) {
	rule, ok := transitions[transitionKey{from, action}]
	if !ok {
		return "", fmt.Errorf("%w: cannot %s a job in status %q", ErrInvalidTransition, action, from)
	}
	if rule.role != role {
		return "", fmt.Errorf("%w: role %q may not %s a job", ErrForbidden, role, action)
	}
	return rule.to, nil
}

// Bucket is the display-only grouping derived from status, distinct
// from the lifecycle machine itself.
type Bucket string

const (
	BucketUpcoming  Bucket = "upcoming"
	BucketCompleted Bucket = "completed"
	BucketCancelled Bucket = "cancelled"
)

// Classify derives the display bucket for tab filters: anything not
// yet finished counts as upcoming.
func Classify(j Job) Bucket {
	switch j.Status {
	case StatusCompleted:
		return BucketCompleted
	case StatusCancelled:
		return BucketCancelled
	default:
		return BucketUpcoming
	}
}
