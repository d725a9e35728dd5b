package remote

import "errors"

// Error taxonomy surfaced by the remote store client. The reconciler is the
// only consumer and maps each one to a rollback or a degraded-mode notice; no
// remote error propagates past that boundary.
var (
	// ErrRemoteUnavailable covers network failures, auth rejections and
	// backend 5xx responses.
	ErrRemoteUnavailable = errors.New("remote store unavailable")

	// ErrNotFound means the target object vanished remotely.
	ErrNotFound = errors.New("remote object not found")

	// ErrValidation means the backend rejected the payload.
	ErrValidation = errors.New("remote validation rejected")
)
