package metrics

import (
	"context"
	"time"

	"go.opencensus.io/stats"
	"go.opencensus.io/tag"
	"k8s.io/apimachinery/pkg/runtime/schema"
)

// RecordAPICallDuration produces a measurement for the APICallDuration view.
func RecordAPICallDuration(ctx context.Context, operation, status string, gvk schema.GroupVersionKind, startTime time.Time) {
	tagCtx, _ := tag.New(ctx, tag.Upsert(KeyOperation, operation), tag.Upsert(KeyType, gvk.Kind), tag.Upsert(KeyStatus, status))
	measurement := APICallDuration.M(time.Since(startTime).Seconds())
	stats.Record(tagCtx, measurement)
}

// RecordReconcileDuration produces a measurement for the ReconcileDuration view.
func RecordReconcileDuration(ctx context.Context, app, trigger, status string, startTime time.Time) {
	tagCtx, _ := tag.New(ctx, tag.Upsert(KeyApplication, app), tag.Upsert(KeyTrigger, trigger), tag.Upsert(KeyStatus, status))
	measurement := ReconcileDuration.M(time.Since(startTime).Seconds())
	stats.Record(tagCtx, measurement)
}

// RecordReconcilerErrors produces a measurement for the ReconcilerErrors view.
func RecordReconcilerErrors(ctx context.Context, app, component string, numErrors int) {
	tagCtx, _ := tag.New(ctx, tag.Upsert(KeyApplication, app), tag.Upsert(KeyComponent, component))
	measurement := ReconcilerErrors.M(int64(numErrors))
	stats.Record(tagCtx, measurement)
}

// RecordDeclaredResources produces a measurement for the DeclaredResources view.
func RecordDeclaredResources(ctx context.Context, app string, numResources int) {
	tagCtx, _ := tag.New(ctx, tag.Upsert(KeyApplication, app))
	measurement := DeclaredResources.M(int64(numResources))
	stats.Record(tagCtx, measurement)
}

// RecordApplyOperation produces a measurement for the ApplyOperations view.
func RecordApplyOperation(ctx context.Context, app, operation, status string, gvk schema.GroupVersionKind) {
	tagCtx, _ := tag.New(ctx, tag.Upsert(KeyApplication, app), tag.Upsert(KeyOperation, operation), tag.Upsert(KeyType, gvk.Kind), tag.Upsert(KeyStatus, status))
	measurement := ApplyOperations.M(1)
	stats.Record(tagCtx, measurement)
}

// RecordLastSync produces a measurement for the LastSync view.
func RecordLastSync(ctx context.Context, app, commit string, timestamp time.Time) {
	tagCtx, _ := tag.New(ctx, tag.Upsert(KeyApplication, app), tag.Upsert(KeyCommit, commit))
	measurement := LastSync.M(timestamp.Unix())
	stats.Record(tagCtx, measurement)
}
