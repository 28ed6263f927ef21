package analyzer

import (
	"errors"
	"fmt"

	"polymarket-smartmoney/internal/storage"
)

// Kind classifies a run failure.
type Kind int

const (
	KindUnknown Kind = iota
	// KindConnection: the analytical engine or the store could not be reached.
	KindConnection
	// KindQuery: the ranking query was rejected or failed while executing.
	KindQuery
	// KindPersistence: the upsert transaction failed and was rolled back.
	KindPersistence
	// KindInvalidInput: the run was asked for something meaningless, such as a negative limit.
	KindInvalidInput
)

func (k Kind) String() string {
	switch k {
	case KindConnection:
		return "connection_failure"
	case KindQuery:
		return "query_failure"
	case KindPersistence:
		return "persistence_failure"
	case KindInvalidInput:
		return "invalid_input"
	default:
		return "unknown"
	}
}

// Error is returned by Run and Fetch for every failure.
type Error struct {
	Kind Kind
	Op   string // stage that failed
	Err  error
}

func (e *Error) Error() string {
	return fmt.Sprintf("%s: %v", e.Op, e.Err)
}

func (e *Error) Unwrap() error {
	return e.Err
}

// KindOf returns the kind of err, or KindUnknown if err is not an *Error.
func KindOf(err error) Kind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return KindUnknown
}

// fetchError classifies a failure from the analytical source.
func fetchError(err error) *Error {
	kind := KindQuery
	switch {
	case errors.Is(err, storage.ErrInvalidInput):
		kind = KindInvalidInput
	case errors.Is(err, storage.ErrUnavailable):
		kind = KindConnection
	}
	return &Error{Kind: kind, Op: "fetch metrics", Err: err}
}

// persistError classifies a failure from the metrics store.
func persistError(err error) *Error {
	kind := KindPersistence
	if errors.Is(err, storage.ErrUnavailable) {
		kind = KindConnection
	}
	return &Error{Kind: kind, Op: "refresh data", Err: err}
}
