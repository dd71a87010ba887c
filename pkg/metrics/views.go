package metrics

import (
	"go.opencensus.io/stats/view"
	"go.opencensus.io/tag"
)

var distributionBounds = []float64{.005, .01, .025, .05, .1, .25, .5, 1, 2.5, 5, 10}

var (
	// APICallDurationView aggregates the APICallDuration metric measurements.
	APICallDurationView = &view.View{
		Name:        APICallDuration.Name(),
		Measure:     APICallDuration,
		Description: "The latency distribution of API server calls",
		TagKeys:     []tag.Key{KeyOperation, KeyType, KeyStatus},
		Aggregation: view.Distribution(distributionBounds...),
	}

	// ReconcileDurationView aggregates the ReconcileDuration metric measurements.
	ReconcileDurationView = &view.View{
		Name:        ReconcileDuration.Name(),
		Measure:     ReconcileDuration,
		Description: "The latency distribution of Application reconcile passes",
		TagKeys:     []tag.Key{KeyApplication, KeyTrigger, KeyStatus},
		Aggregation: view.Distribution(distributionBounds...),
	}

	// ReconcilerErrorsView aggregates the ReconcilerErrors metric measurements.
	ReconcilerErrorsView = &view.View{
		Name:        ReconcilerErrors.Name(),
		Measure:     ReconcilerErrors,
		Description: "The current number of errors in the Application reconciler",
		TagKeys:     []tag.Key{KeyApplication, KeyComponent},
		Aggregation: view.LastValue(),
	}

	// DeclaredResourcesView aggregates the DeclaredResources metric measurements.
	DeclaredResourcesView = &view.View{
		Name:        DeclaredResources.Name(),
		Measure:     DeclaredResources,
		Description: "The current number of resources rendered from the source of truth",
		TagKeys:     []tag.Key{KeyApplication},
		Aggregation: view.LastValue(),
	}

	// ApplyOperationsView aggregates the ApplyOperations metric measurements.
	ApplyOperationsView = &view.View{
		Name:        ApplyOperations.Name() + "_total",
		Measure:     ApplyOperations,
		Description: "The total number of operations that have been performed to sync resources to the rendered state",
		TagKeys:     []tag.Key{KeyApplication, KeyOperation, KeyType, KeyStatus},
		Aggregation: view.Count(),
	}

	// LastSyncTimestampView aggregates the LastSync metric measurements.
	LastSyncTimestampView = &view.View{
		Name:        LastSync.Name(),
		Measure:     LastSync,
		Description: "The timestamp of the most recent completed sync",
		TagKeys:     []tag.Key{KeyApplication, KeyCommit},
		Aggregation: view.LastValue(),
	}
)
