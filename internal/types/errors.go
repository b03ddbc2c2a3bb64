package types

import (
	"errors"
	"fmt"
)

// Business outcomes. These are expected results of normal operation and are
// matched with errors.Is.
var (
	ErrUnknownReviewRequest = errors.New("unknown review request")

	ErrReviewRequestHasBeenAccepted = errors.New("review request has been accepted")

	ErrReviewRequestHasBeenRejected = errors.New("review request has been rejected")

	ErrReviewRequestWasAlreadySharedOnTheCommunitySlack = errors.New(
		"review request was already shared on the community slack",
	)
)

// Failures reported by external collaborators.
var (
	// ErrNotAPreprint is returned when a reference resolves to something
	// other than a preprint.
	ErrNotAPreprint = errors.New("not a preprint")

	// ErrPreprintIsNotFound is returned when a reference looks like a
	// preprint but the server does not know it.
	ErrPreprintIsNotFound = errors.New("preprint is not found")

	// ErrPreprintIsUnavailable is returned when the preprint server could
	// not be reached or answered with a transient failure.
	ErrPreprintIsUnavailable = errors.New("preprint is unavailable")

	ErrFailedToSharePreprintReviewRequest = errors.New(
		"failed to share preprint review request",
	)
)

// StoreError is returned by event log backends.
type StoreError struct {
	Op  string
	Err error
}

func (e *StoreError) Error() string {
	return fmt.Sprintf("event store %s: %v", e.Op, e.Err)
}

func (e *StoreError) Unwrap() error { return e.Err }

// UnableToHandleCommandError is returned when a command could not be decided
// or its event could not be recorded for infrastructure reasons.
type UnableToHandleCommandError struct {
	Cause error
}

func (e *UnableToHandleCommandError) Error() string {
	return fmt.Sprintf("unable to handle command: %v", e.Cause)
}

func (e *UnableToHandleCommandError) Unwrap() error { return e.Cause }

// UnableToQueryError is returned when a projection could not read the log.
type UnableToQueryError struct {
	Cause error
}

func (e *UnableToQueryError) Error() string {
	return fmt.Sprintf("unable to query: %v", e.Cause)
}

func (e *UnableToQueryError) Unwrap() error { return e.Cause }

// FailedToNotifyCommunitySlackError is the single failure reported by the
// community Slack notification reaction. Cause is nil when the underlying
// failure was not one of the known error values.
type FailedToNotifyCommunitySlackError struct {
	ReviewRequestID ReviewRequestID
	Cause           error
	retryable       bool
}

func NewFailedToNotifyCommunitySlack(id ReviewRequestID, cause error, retryable bool) *FailedToNotifyCommunitySlackError {
	return &FailedToNotifyCommunitySlackError{ReviewRequestID: id, Cause: cause, retryable: retryable}
}

func (e *FailedToNotifyCommunitySlackError) Error() string {
	if e.Cause == nil {
		return fmt.Sprintf("failed to notify community slack of review request %s", e.ReviewRequestID)
	}
	return fmt.Sprintf("failed to notify community slack of review request %s: %v", e.ReviewRequestID, e.Cause)
}

func (e *FailedToNotifyCommunitySlackError) Unwrap() error { return e.Cause }

// Retryable reports whether the failure was caused by infrastructure rather
// than by a business outcome.
func (e *FailedToNotifyCommunitySlackError) Retryable() bool { return e.retryable }

// FailedToProcessReceivedReviewRequestError is the single failure reported by
// the received review request reaction.
type FailedToProcessReceivedReviewRequestError struct {
	ReviewRequestID ReviewRequestID
	Cause           error
	retryable       bool
}

func NewFailedToProcessReceivedReviewRequest(id ReviewRequestID, cause error, retryable bool) *FailedToProcessReceivedReviewRequestError {
	return &FailedToProcessReceivedReviewRequestError{ReviewRequestID: id, Cause: cause, retryable: retryable}
}

func (e *FailedToProcessReceivedReviewRequestError) Error() string {
	if e.Cause == nil {
		return fmt.Sprintf("failed to process received review request %s", e.ReviewRequestID)
	}
	return fmt.Sprintf("failed to process received review request %s: %v", e.ReviewRequestID, e.Cause)
}

func (e *FailedToProcessReceivedReviewRequestError) Unwrap() error { return e.Cause }

func (e *FailedToProcessReceivedReviewRequestError) Retryable() bool { return e.retryable }

// IsBusinessError reports whether err is one of the expected business
// outcomes rather than a failure.
func IsBusinessError(err error) bool {
	return errors.Is(err, ErrUnknownReviewRequest) ||
		errors.Is(err, ErrReviewRequestHasBeenAccepted) ||
		errors.Is(err, ErrReviewRequestHasBeenRejected) ||
		errors.Is(err, ErrReviewRequestWasAlreadySharedOnTheCommunitySlack)
}
