package metrics

import (
	"go.opencensus.io/stats"
)

var (
	// APICallDuration metric measures the latency of API server calls.
	APICallDuration = stats.Float64(
		"api_duration_seconds",
		"The duration of API server calls in seconds",
		stats.UnitSeconds)

	// ReconcileDuration metric measures the latency of reconcile passes.
	ReconcileDuration = stats.Float64(
		"reconcile_duration_seconds",
		"The duration of Application reconcile passes in seconds",
		stats.UnitSeconds)

	// ReconcilerErrors metric measures the number of errors in the reconciler.
	ReconcilerErrors = stats.Int64(
		"reconciler_errors",
		"The current number of errors in the Application reconciler",
		stats.UnitDimensionless)

	// DeclaredResources metric measures the number of declared resources.
	DeclaredResources = stats.Int64(
		"declared_resources",
		"The current number of resources rendered from the source of truth",
		stats.UnitDimensionless)

	// ApplyOperations metric measures the number of applier operations.
	ApplyOperations = stats.Int64(
		"apply_operations",
		"The number of operations performed to sync resources to the rendered state",
		stats.UnitDimensionless)

	// LastSync metric measures the timestamp of the latest completed sync.
	LastSync = stats.Int64(
		"last_sync_timestamp",
		"The timestamp of the most recent completed sync",
		stats.UnitDimensionless)
)
