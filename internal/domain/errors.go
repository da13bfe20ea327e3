package domain

import "errors"

var (
	// ErrMissingFields is returned when a submission omits required input.
	ErrMissingFields = errors.New("missing required fields")
	// ErrDuplicateSubmission indicates the idempotency key was already consumed.
	ErrDuplicateSubmission = errors.New("duplicate submission")
	// ErrVersionMismatch indicates the caller's stateVersion is stale; the
	// caller must refetch the current question and version before retrying.
	ErrVersionMismatch = errors.New("state version mismatch")
	// ErrQuestionNotFound indicates a submitted question ID is unknown.
	ErrQuestionNotFound = errors.New("question not found")
	// ErrEmptyCatalog indicates the question catalog has no entries at all.
	ErrEmptyCatalog = errors.New("question catalog is empty")
)
