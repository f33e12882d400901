package core

import "errors"

var (
	// ErrAuthentication is returned when a bearer credential is missing,
	// invalid or could not be verified. Transport failures during
	// verification surface as the same error so callers cannot probe the
	// verifier.
	ErrAuthentication = errors.New("authentication failed")

	// ErrNotFound is returned when a thread does not exist for the
	// authenticated tenant. A thread owned by another tenant is
	// indistinguishable from a missing one.
	ErrNotFound = errors.New("thread not found")

	// ErrConflict is returned when an optimistic checkpoint append raced a
	// concurrent update. The caller should reload and retry.
	ErrConflict = errors.New("checkpoint version conflict")

	// ErrCapabilityUnavailable indicates the resolved execution context
	// lacks credentials for a required capability.
	ErrCapabilityUnavailable = errors.New("capability unavailable")

	// ErrInvalidResume is returned when a resume decision does not match
	// the outstanding pending approval, or none exists.
	ErrInvalidResume = errors.New("invalid resume decision")

	// ErrToolTimeout indicates a bounded call to an external tool endpoint
	// did not return in time. The thread remains in its last good state.
	ErrToolTimeout = errors.New("external tool timed out")

	// ErrApprovalOutstanding is returned when a node proposes a new
	// approval while one is already pending on the thread. This is a
	// programming error in the node, never silently resolved.
	ErrApprovalOutstanding = errors.New("pending approval already outstanding")

	// ErrThreadSuspended is returned when a new message arrives on a
	// thread that is awaiting a resume decision.
	ErrThreadSuspended = errors.New("thread suspended awaiting approval")
)
