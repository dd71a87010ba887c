package applier

import (
	"context"
	"errors"
	"time"

	apierrors "k8s.io/apimachinery/pkg/api/errors"
	"k8s.io/apimachinery/pkg/api/meta"
	"k8s.io/apimachinery/pkg/util/wait"

	"github.com/coxswain-dev/coxswain/pkg/status"
)

// defaultBackoff returns the retry schedule for transient apply failures:
// three retries after 5s, 10s, and 20s.
func defaultBackoff() wait.Backoff {
	return wait.Backoff{
		Duration: 5 * time.Second,
		Factor:   2,
		Steps:    3,
	}
}

// transient reports whether err may clear on retry: timeouts, conflicts,
// throttling, and server-side 5xx failures.
func transient(err status.Error) bool {
	cause := err.Cause()
	return apierrors.IsTimeout(cause) ||
		apierrors.IsServerTimeout(cause) ||
		apierrors.IsConflict(cause) ||
		apierrors.IsTooManyRequests(cause) ||
		apierrors.IsInternalError(cause) ||
		apierrors.IsServiceUnavailable(cause) ||
		apierrors.IsUnexpectedServerError(cause) ||
		errors.Is(cause, context.DeadlineExceeded)
}

// permanent reports whether err cannot clear without the declared state or
// the cluster changing: schema rejections, authorization failures, admission
// webhook denials, kinds the cluster does not serve, and management
// conflicts. A permanent failure stops the sync.
func permanent(err status.Error) bool {
	if err.Code() == ManagementConflictErrorCode {
		return true
	}
	cause := err.Cause()
	return apierrors.IsInvalid(cause) ||
		apierrors.IsBadRequest(cause) ||
		apierrors.IsForbidden(cause) ||
		apierrors.IsUnauthorized(cause) ||
		apierrors.IsMethodNotSupported(cause) ||
		apierrors.IsNotAcceptable(cause) ||
		apierrors.IsRequestEntityTooLargeError(cause) ||
		meta.IsNoMatchError(cause)
}
