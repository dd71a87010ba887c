// Package applier actuates the entries produced by the differ against the
// cluster, retrying transient failures and recording a per-resource outcome
// for each sync attempt.
package applier

import (
	"context"
	"fmt"
	"time"

	"github.com/pkg/errors"
	apierrors "k8s.io/apimachinery/pkg/api/errors"
	metav1 "k8s.io/apimachinery/pkg/apis/meta/v1"
	"k8s.io/apimachinery/pkg/apis/meta/v1/unstructured"
	"k8s.io/apimachinery/pkg/util/wait"
	"k8s.io/klog/v2"
	"k8s.io/kubectl/pkg/util"
	"sigs.k8s.io/controller-runtime/pkg/client"

	"github.com/coxswain-dev/coxswain/pkg/api/gitops/v1alpha1"
	"github.com/coxswain-dev/coxswain/pkg/cluster"
	"github.com/coxswain-dev/coxswain/pkg/core"
	"github.com/coxswain-dev/coxswain/pkg/diff"
	"github.com/coxswain-dev/coxswain/pkg/metadata"
	"github.com/coxswain-dev/coxswain/pkg/metrics"
	"github.com/coxswain-dev/coxswain/pkg/status"
)

// Applier turns computed diff entries into cluster operations.
type Applier struct {
	client  *cluster.Client
	backoff wait.Backoff
}

// New returns an Applier that actuates entries through the given client.
func New(client *cluster.Client) *Applier {
	return &Applier{
		client:  client,
		backoff: defaultBackoff(),
	}
}

// Plan computes the ordered entries which reconcile the rendered resources
// with the live snapshot. Plan performs no cluster mutations; running it
// twice over the same inputs yields identical entries.
func (a *Applier) Plan(app *v1alpha1.Application, desired, live []*unstructured.Unstructured) ([]diff.Entry, status.MultiError) {
	return diff.Diffs(app.Name, desired, live, app.Spec.SyncPolicy.Prune)
}

// Apply actuates entries in order and records the outcome of each. An entry
// that keeps failing transiently is marked Failed and the remaining entries
// still run; a permanent failure stops the sync and marks the remaining
// entries Skipped. When dryRun is set no cluster calls are made and each
// entry reports the action a real sync would take.
func (a *Applier) Apply(ctx context.Context, app *v1alpha1.Application, revision string, entries []diff.Entry, dryRun bool) (*v1alpha1.SyncResult, status.MultiError) {
	result := &v1alpha1.SyncResult{
		Revision:  revision,
		DryRun:    dryRun,
		StartedAt: metav1.Now(),
		Status:    v1alpha1.SyncResultSucceeded,
		Resources: make([]v1alpha1.ResourceResult, 0, len(entries)),
	}

	var errs status.MultiError
	var stopped status.Error
	failed := 0

	for _, e := range entries {
		if stopped == nil && !dryRun && ctx.Err() != nil {
			stopped = ApplierError(errors.Wrap(ctx.Err(), "sync interrupted"))
			errs = status.Append(errs, stopped)
		}

		res := v1alpha1.ResourceResult{
			Group:     e.ID.Group,
			Kind:      e.ID.Kind,
			Namespace: e.ID.Namespace,
			Name:      e.ID.Name,
			Action:    actionFor(e.Type),
			Status:    v1alpha1.ResourceResultApplied,
		}

		switch {
		case stopped != nil:
			res.Status = v1alpha1.ResourceResultSkipped
			res.Message = fmt.Sprintf("not attempted: sync stopped by CSW%s", stopped.Code())
		case dryRun:
			// Planned action only; nothing touches the cluster.
		default:
			action, err := a.actuate(ctx, app.Name, revision, e)
			res.Action = action
			if err != nil {
				failed++
				errs = status.Append(errs, err)
				res.Status = v1alpha1.ResourceResultFailed
				res.Message = err.Error()
				if permanent(err) {
					stopped = err
				}
			}
		}
		result.Resources = append(result.Resources, res)
	}

	result.FinishedAt = metav1.Now()
	switch {
	case stopped != nil:
		result.Status = v1alpha1.SyncResultFailed
		result.Message = fmt.Sprintf("sync stopped by unrecoverable CSW%s error; %d of %d resources failed", stopped.Code(), failed, len(entries))
	case failed > 0:
		result.Status = v1alpha1.SyncResultFailed
		result.Message = fmt.Sprintf("%d of %d resources failed", failed, len(entries))
	case dryRun:
		result.Message = fmt.Sprintf("dry run: evaluated %d resources", len(entries))
	default:
		result.Message = fmt.Sprintf("successfully synced %d resources", len(entries))
	}
	return result, errs
}

// actuate runs one entry, retrying transient failures on the applier's
// backoff schedule. It returns the action taken and the last error if every
// try failed.
func (a *Applier) actuate(ctx context.Context, appName, revision string, e diff.Entry) (v1alpha1.ResourceAction, status.Error) {
	backoff := a.backoff
	action, err := a.actuateOnce(ctx, appName, revision, e)
	for err != nil && transient(err) && backoff.Steps > 0 {
		d := backoff.Step()
		klog.V(2).Infof("Retrying %s of %s in %s: %v", e.Type, e.ID, d, err)
		select {
		case <-ctx.Done():
			return action, err
		case <-time.After(d):
		}
		action, err = a.actuateOnce(ctx, appName, revision, e)
	}
	return action, err
}

func (a *Applier) actuateOnce(ctx context.Context, appName, revision string, e diff.Entry) (v1alpha1.ResourceAction, status.Error) {
	switch e.Type {
	case diff.NoOp:
		return v1alpha1.ActionNone, nil
	case diff.Create:
		return a.create(ctx, appName, revision, e.Declared)
	case diff.Update:
		return a.update(ctx, appName, revision, e.Declared, e.Live)
	case diff.Delete:
		return a.delete(ctx, appName, e.Live)
	default:
		return v1alpha1.ActionNone, status.InternalErrorf("unsupported diff type %q for %s", e.Type, e.ID)
	}
}

// create creates the declared resource with sync metadata and the last
// applied annotation set. A resource that already exists is adopted when no
// other Application manages it, and refused otherwise.
func (a *Applier) create(ctx context.Context, appName, revision string, declared *unstructured.Unstructured) (v1alpha1.ResourceAction, status.Error) {
	u := withSyncMeta(declared, appName, revision)
	if err := util.CreateApplyAnnotation(u, unstructured.UnstructuredJSONScheme); err != nil {
		return v1alpha1.ActionCreate, ApplierError(errors.Wrapf(err, "could not generate apply annotation for %s", core.IDOf(u)))
	}

	start := time.Now()
	err := a.client.Create(ctx, u)
	metrics.RecordAPICallDuration(ctx, "create", metrics.StatusTagKey(err), u.GroupVersionKind(), start)
	metrics.RecordApplyOperation(ctx, appName, "create", metrics.StatusTagKey(err), u.GroupVersionKind())
	if err == nil {
		return v1alpha1.ActionCreate, nil
	}
	if !apierrors.IsAlreadyExists(err.Cause()) {
		return v1alpha1.ActionCreate, err
	}

	// Someone created the object before us.
	live := &unstructured.Unstructured{}
	live.SetGroupVersionKind(declared.GroupVersionKind())
	key := client.ObjectKey{Namespace: declared.GetNamespace(), Name: declared.GetName()}
	if gErr := a.client.Get(ctx, key, live); gErr != nil {
		return v1alpha1.ActionCreate, status.APIServerErrorf(gErr, "failed to look up existing resource %s", core.IDOf(declared))
	}
	return a.update(ctx, appName, revision, declared, live)
}

// update patches live into the declared state. An empty patch makes no
// cluster call and reports no action taken.
func (a *Applier) update(ctx context.Context, appName, revision string, declared, live *unstructured.Unstructured) (v1alpha1.ResourceAction, status.Error) {
	if metadata.IsManaged(live) && !metadata.ManagedBy(live, appName) {
		return v1alpha1.ActionUpdate, ManagementConflictError(live)
	}

	intended := withSyncMeta(declared, appName, revision)
	patchType, patch, err := threeWayMergePatch(intended, live)
	if err != nil {
		return v1alpha1.ActionUpdate, ApplierError(errors.Wrapf(err, "could not calculate patch for %s", core.IDOf(declared)))
	}
	if string(patch) == emptyPatch {
		return v1alpha1.ActionNone, nil
	}

	target := live.DeepCopy()
	start := time.Now()
	pErr := a.client.ApplyPatch(ctx, target, client.RawPatch(patchType, patch))
	metrics.RecordAPICallDuration(ctx, "update", metrics.StatusTagKey(pErr), live.GroupVersionKind(), start)
	metrics.RecordApplyOperation(ctx, appName, "update", metrics.StatusTagKey(pErr), live.GroupVersionKind())
	if pErr != nil {
		return v1alpha1.ActionUpdate, pErr
	}
	klog.V(3).Infof("Patched %s with %s", core.IDOf(declared), patch)
	return v1alpha1.ActionUpdate, nil
}

// delete removes a live resource this Application manages. Resources already
// absent count as deleted.
func (a *Applier) delete(ctx context.Context, appName string, live *unstructured.Unstructured) (v1alpha1.ResourceAction, status.Error) {
	if metadata.IsManaged(live) && !metadata.ManagedBy(live, appName) {
		return v1alpha1.ActionDelete, ManagementConflictError(live)
	}

	start := time.Now()
	err := a.client.Delete(ctx, live.DeepCopy())
	metrics.RecordAPICallDuration(ctx, "delete", metrics.StatusTagKey(err), live.GroupVersionKind(), start)
	metrics.RecordApplyOperation(ctx, appName, "delete", metrics.StatusTagKey(err), live.GroupVersionKind())
	if err != nil {
		return v1alpha1.ActionDelete, err
	}
	return v1alpha1.ActionDelete, nil
}

// withSyncMeta returns a copy of obj carrying the management labels and the
// revision annotation the applier maintains on everything it syncs.
func withSyncMeta(obj *unstructured.Unstructured, appName, revision string) *unstructured.Unstructured {
	u := obj.DeepCopy()
	core.AddLabels(u, metadata.ManagedLabels(appName))
	core.SetAnnotation(u, metadata.RevisionAnnotationKey, revision)
	return u
}

// actionFor maps a diff type to the action recorded for it.
func actionFor(t diff.Type) v1alpha1.ResourceAction {
	switch t {
	case diff.Create:
		return v1alpha1.ActionCreate
	case diff.Update:
		return v1alpha1.ActionUpdate
	case diff.Delete:
		return v1alpha1.ActionDelete
	default:
		return v1alpha1.ActionNone
	}
}
