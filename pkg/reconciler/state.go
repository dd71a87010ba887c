package reconciler

import (
	"math"
	"time"

	"k8s.io/apimachinery/pkg/apis/meta/v1/unstructured"
	"k8s.io/apimachinery/pkg/runtime/schema"
	"k8s.io/klog/v2"

	"github.com/coxswain-dev/coxswain/pkg/status"
)

const (
	retriesBeforeStartingBackoff = 5
	maxRetryInterval             = time.Duration(5) * time.Minute
)

// revisionCache tracks the progress made for a single resolved commit, so
// repeated passes over an unchanged source skip the read and render steps.
type revisionCache struct {
	// commit is the resolved commit SHA the cache is valid for.
	commit string

	// hasRendered indicates rendered holds the renderer output for commit.
	//
	// An empty rendered slice cannot stand in for this, since an empty source
	// directory legitimately renders to nothing.
	hasRendered bool

	// rendered contains the renderer output. Only set when rendering
	// succeeded.
	rendered []*unstructured.Unstructured
}

func (c *revisionCache) setRendered(result []*unstructured.Unstructured) {
	c.hasRendered = true
	c.rendered = result
}

// reconcilerState carries the in-memory progress of one Application between
// reconcile passes. Access is serialized by the controller workqueue, which
// never runs two passes for the same Application concurrently.
type reconcilerState struct {
	// cache tracks the progress made for the current commit.
	cache revisionCache

	// lastSyncedCommit is the commit of the last successful sync that touched
	// the cluster. Dry runs do not count.
	lastSyncedCommit string

	// appliedGVKs is the declared type set of the last successful sync. It is
	// kept so resources of kinds that disappear from the source entirely are
	// still listed, and pruned, on the next pass.
	appliedGVKs map[schema.GroupVersionKind]struct{}

	// lastResync is when the last forced full re-apply ran.
	lastResync time.Time

	// errs holds the errors of the last failed pass.
	errs status.MultiError

	// needRetry indicates whether the last pass failed and should be retried.
	needRetry bool

	// reconciliationWithSameErrs counts consecutive passes failing with the
	// same errors, driving the retry backoff.
	reconciliationWithSameErrs int

	// nextRetryTime is the earliest the next retry should run.
	nextRetryTime time.Time
}

// checkpoint marks the pass as fully succeeded, including its status update.
func (s *reconcilerState) checkpoint() {
	s.errs = nil
	s.needRetry = false
	s.reconciliationWithSameErrs = 0
	s.nextRetryTime = time.Time{}
}

// invalidate records the errors of a failed pass and schedules a retry.
// Repeated failures with the same errors back off exponentially.
func (s *reconcilerState) invalidate(errs status.MultiError) {
	klog.Errorf("Invalidating reconciler checkpoint: %v", status.FormatError(false, errs))
	sameErrs := status.FormatError(false, s.errs) == status.FormatError(false, errs)
	s.errs = errs
	s.needRetry = true
	if sameErrs {
		s.reconciliationWithSameErrs++
	} else {
		s.reconciliationWithSameErrs = 1
	}
	s.nextRetryTime = calculateNextRetryTime(s.reconciliationWithSameErrs)
}

func calculateNextRetryTime(retries int) time.Time {
	// For the first several retries, the reconciler waits 1 second before
	// retrying.
	if retries <= retriesBeforeStartingBackoff {
		return time.Now().Add(time.Second)
	}

	// For the remaining retries, the reconciler does exponential backoff up
	// to 5 minutes, i.e. 1s, 1s, 1s, 1s, 1s, 2s, 4s, ..., 256s, 5m, 5m, ...
	seconds := int64(math.Pow(2, float64(retries-retriesBeforeStartingBackoff)))
	duration := time.Duration(seconds) * time.Second
	if duration > maxRetryInterval {
		duration = maxRetryInterval
	}
	return time.Now().Add(duration)
}

// resetCache drops the per-commit progress so every step of the next pass
// runs again. Called when a new commit is detected and on forced resyncs.
func (s *reconcilerState) resetCache() {
	s.cache = revisionCache{}
}
