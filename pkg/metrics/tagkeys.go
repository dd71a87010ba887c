// Package metrics defines the OpenCensus measurements recorded by the
// reconciler and the views that aggregate them for export.
package metrics

import (
	"go.opencensus.io/tag"
)

var (
	// KeyApplication groups metrics by the Application they were recorded for.
	KeyApplication, _ = tag.NewKey("application")

	// KeyOperation groups metrics by their operation. Possible values: create, update, delete.
	KeyOperation, _ = tag.NewKey("operation")

	// KeyComponent groups metrics by the pipeline component reporting them.
	// Possible values: source, rendering, diff, sync, health.
	KeyComponent, _ = tag.NewKey("component")

	// KeyErrorCode groups metrics by their error code.
	KeyErrorCode, _ = tag.NewKey("errorcode")

	// KeyStatus groups metrics by their status. Possible values: success, error.
	KeyStatus, _ = tag.NewKey("status")

	// KeyType groups metrics by their resource Kind.
	KeyType, _ = tag.NewKey("type")

	// KeyTrigger groups metrics by what started the reconcile pass.
	// Possible values: poll, resync, retry, drift, manual.
	KeyTrigger, _ = tag.NewKey("trigger")

	// KeyCommit groups metrics by their git commit. This tag has a high
	// cardinality, so it is only used by the last_sync_timestamp metric,
	// which aggregates as LastValue and so records at most one value per
	// commit.
	KeyCommit, _ = tag.NewKey("commit")
)

// StatusTagKey returns a string representation of the error, if it exists, otherwise success.
func StatusTagKey(err error) string {
	if err == nil {
		return "success"
	}
	return "error"
}
