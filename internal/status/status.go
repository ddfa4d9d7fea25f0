package status

import "errors"

// Kind is the terminal status signal surfaced to the operator.
type Kind string

const (
	Unknown     Kind = "unknown"
	Active      Kind = "active"
	Maintenance Kind = "maintenance"
	Waiting     Kind = "waiting"
	Blocked     Kind = "blocked"
	Error       Kind = "error"
)

// priority decides which status wins when aggregating, higher wins.
var priority = map[Kind]int{
	Unknown:     0,
	Active:      1,
	Maintenance: 2,
	Waiting:     3,
	Blocked:     4,
	Error:       5,
}

// Status is a kind plus a human readable message.
type Status struct {
	Kind    Kind
	Message string
}

func (s Status) String() string {
	if s.Message == "" {
		return string(s.Kind)
	}
	return string(s.Kind) + ": " + s.Message
}

// StatusError lets a reconcile step bail out of the pass carrying the
// status it wants the unit to report, without erroring the unit. Anything
// that is not a StatusError propagates to the host runtime which marks the
// unit errored and re-delivers the event.
type StatusError struct {
	Status Status
}

func (e *StatusError) Error() string {
	return e.Status.String()
}

// ErrWaiting signals missing or incomplete inputs, non fatal.
func ErrWaiting(msg string) error {
	return &StatusError{Status: Status{Kind: Waiting, Message: msg}}
}

// ErrBlocked signals that operator intervention is required.
func ErrBlocked(msg string) error {
	return &StatusError{Status: Status{Kind: Blocked, Message: msg}}
}

// ErrMaintenance signals a long running setup step in progress.
func ErrMaintenance(msg string) error {
	return &StatusError{Status: Status{Kind: Maintenance, Message: msg}}
}

// FromError extracts the carried status, ok is false for plain errors.
func FromError(err error) (Status, bool) {
	var se *StatusError
	if errors.As(err, &se) {
		return se.Status, true
	}
	return Status{}, false
}
