// Package reconciler drives the sync loop for Application objects: resolve
// the source revision, render manifests, diff them against the live cluster,
// and actuate the result according to the Application's sync policy.
package reconciler

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"path/filepath"
	"sync"
	"time"

	"github.com/go-logr/logr"
	corev1 "k8s.io/api/core/v1"
	apierrors "k8s.io/apimachinery/pkg/api/errors"
	metav1 "k8s.io/apimachinery/pkg/apis/meta/v1"
	"k8s.io/apimachinery/pkg/apis/meta/v1/unstructured"
	"k8s.io/apimachinery/pkg/runtime"
	"k8s.io/apimachinery/pkg/runtime/schema"
	"k8s.io/apimachinery/pkg/types"
	"k8s.io/client-go/tools/record"
	controllerruntime "sigs.k8s.io/controller-runtime"
	"sigs.k8s.io/controller-runtime/pkg/client"
	"sigs.k8s.io/controller-runtime/pkg/controller"
	"sigs.k8s.io/controller-runtime/pkg/controller/controllerutil"
	"sigs.k8s.io/controller-runtime/pkg/event"
	"sigs.k8s.io/controller-runtime/pkg/handler"
	"sigs.k8s.io/controller-runtime/pkg/reconcile"
	ctrlsource "sigs.k8s.io/controller-runtime/pkg/source"

	"github.com/coxswain-dev/coxswain/pkg/api/gitops"
	"github.com/coxswain-dev/coxswain/pkg/api/gitops/v1alpha1"
	"github.com/coxswain-dev/coxswain/pkg/applier"
	"github.com/coxswain-dev/coxswain/pkg/cluster"
	"github.com/coxswain-dev/coxswain/pkg/core"
	"github.com/coxswain-dev/coxswain/pkg/declared"
	"github.com/coxswain-dev/coxswain/pkg/diff"
	"github.com/coxswain-dev/coxswain/pkg/health"
	"github.com/coxswain-dev/coxswain/pkg/kinds"
	"github.com/coxswain-dev/coxswain/pkg/metadata"
	"github.com/coxswain-dev/coxswain/pkg/metrics"
	"github.com/coxswain-dev/coxswain/pkg/render"
	"github.com/coxswain-dev/coxswain/pkg/source"
	"github.com/coxswain-dev/coxswain/pkg/status"
	"github.com/coxswain-dev/coxswain/pkg/watch"
)

// Reasons a reconcile pass runs, recorded on the reconcile duration metric.
const (
	triggerPoll        = "poll"
	triggerRetry       = "retry"
	triggerResync      = "resync"
	triggerSyncRequest = "syncRequest"
	triggerNewRevision = "newRevision"
	triggerDrift       = "drift"
)

// ApplicationReconciler reconciles a single Application per pass. Passes for
// different Applications may run concurrently; per-Application state is
// keyed by name and each name is reconciled by at most one worker at a time.
type ApplicationReconciler struct {
	client   *cluster.Client
	log      logr.Logger
	scheme   *runtime.Scheme
	recorder record.EventRecorder

	applier  *applier.Applier
	declared *declared.Resources
	watches  *watch.Manager
	events   chan event.GenericEvent

	pollingPeriod time.Duration
	resyncPeriod  time.Duration

	// newRepository opens the repository behind an Application source.
	newRepository func(ctx context.Context, repoURL string) (source.Repository, status.Error)

	mux    sync.Mutex
	repos  map[string]source.Repository
	states map[string]*reconcilerState
}

// Options configures an ApplicationReconciler beyond its required
// collaborators. The zero value uses the gitops defaults.
type Options struct {
	// PollingPeriod is the delay between passes over an Application whose
	// previous pass succeeded.
	PollingPeriod time.Duration

	// ResyncPeriod is the interval after which a full re-render and re-apply
	// runs even when the resolved revision has not changed.
	ResyncPeriod time.Duration

	// SourceRoot is the directory under which repository clones are kept.
	SourceRoot string

	// Watches maintains the drift watches covering declared resource types.
	// May be nil, which disables drift watching.
	Watches *watch.Manager

	// DriftEvents carries events from the drift watchers back into the
	// controller queue. May be nil.
	DriftEvents chan event.GenericEvent
}

// New returns an ApplicationReconciler that syncs Applications through the
// given cluster client. The recorder may be nil, in which case no Kubernetes
// events are emitted.
func New(c *cluster.Client, log logr.Logger, scheme *runtime.Scheme, recorder record.EventRecorder, opts Options) *ApplicationReconciler {
	if opts.PollingPeriod == 0 {
		opts.PollingPeriod = gitops.DefaultPollingPeriod
	}
	if opts.ResyncPeriod == 0 {
		opts.ResyncPeriod = gitops.DefaultResyncPeriod
	}
	r := &ApplicationReconciler{
		client:        c,
		log:           log,
		scheme:        scheme,
		recorder:      recorder,
		applier:       applier.New(c),
		declared:      declared.NewResources(),
		watches:       opts.Watches,
		events:        opts.DriftEvents,
		pollingPeriod: opts.PollingPeriod,
		resyncPeriod:  opts.ResyncPeriod,
		repos:         make(map[string]source.Repository),
		states:        make(map[string]*reconcilerState),
	}
	r.newRepository = func(ctx context.Context, repoURL string) (source.Repository, status.Error) {
		return source.NewGitRepository(ctx, repoURL, filepath.Join(opts.SourceRoot, repoDir(repoURL)))
	}
	return r
}

// SetupWithManager registers the reconciler with mgr, watching Application
// objects and, when drift events are wired, the watcher channel.
func (r *ApplicationReconciler) SetupWithManager(mgr controllerruntime.Manager, maxConcurrentReconciles int) error {
	b := controllerruntime.NewControllerManagedBy(mgr).
		For(&v1alpha1.Application{}).
		WithOptions(controller.Options{MaxConcurrentReconciles: maxConcurrentReconciles})
	if r.events != nil {
		b = b.Watches(&ctrlsource.Channel{Source: r.events}, handler.EnqueueRequestsFromMapFunc(r.mapDriftEvent))
	}
	return b.Complete(r)
}

// mapDriftEvent resolves a watch event on a managed resource to the
// Application that declares it.
func (r *ApplicationReconciler) mapDriftEvent(obj client.Object) []reconcile.Request {
	appName := metadata.ApplicationOf(obj)
	if appName == "" {
		var ok bool
		appName, ok = r.declared.AppFor(core.IDOf(obj))
		if !ok {
			return nil
		}
	}
	return []reconcile.Request{{NamespacedName: types.NamespacedName{
		Namespace: gitops.ControllerNamespace,
		Name:      appName,
	}}}
}

// Reconcile runs one pass for the requested Application.
func (r *ApplicationReconciler) Reconcile(ctx context.Context, req controllerruntime.Request) (controllerruntime.Result, error) {
	log := r.log.WithValues("application", req.Name)
	start := time.Now()

	app := &v1alpha1.Application{}
	if err := r.client.Get(ctx, req.NamespacedName, app); err != nil {
		if apierrors.IsNotFound(err) {
			r.forget(req.Name)
			return controllerruntime.Result{}, nil
		}
		return controllerruntime.Result{}, status.APIServerError(err, "failed to get Application")
	}

	if app.GetDeletionTimestamp() != nil {
		return r.finalize(ctx, log, app)
	}

	state := r.stateFor(app.Name)

	syncReq, reqErr := metadata.GetSyncRequest(app)
	if reqErr != nil {
		log.Error(reqErr, "Ignoring malformed sync request annotation")
		r.eventf(app, corev1.EventTypeWarning, "InvalidSyncRequest", "ignoring malformed sync request: %v", reqErr)
		if err := r.clearSyncRequest(ctx, app); err != nil {
			return controllerruntime.Result{}, err
		}
	}
	if syncReq != nil && app.Status.LastSyncResult != nil && app.Status.LastSyncResult.ID == syncReq.ID {
		// The request was already served; only the annotation cleanup is
		// left from the earlier pass.
		if err := r.clearSyncRequest(ctx, app); err != nil {
			return controllerruntime.Result{}, err
		}
		syncReq = nil
	}

	// A spec change or an explicit sync request bypasses the retry backoff.
	userTrigger := syncReq != nil || app.Generation != app.Status.ObservedGeneration
	if state.needRetry && !userTrigger {
		if delay := time.Until(state.nextRetryTime); delay > 0 {
			return controllerruntime.Result{RequeueAfter: delay}, nil
		}
	}

	trigger := triggerPoll
	switch {
	case syncReq != nil:
		trigger = triggerSyncRequest
	case state.needRetry:
		trigger = triggerRetry
	case time.Since(state.lastResync) >= r.resyncPeriod:
		trigger = triggerResync
		state.lastResync = time.Now()
		state.resetCache()
	}

	trigger, errs := r.sync(ctx, log, app, state, syncReq, trigger)
	metrics.RecordReconcileDuration(ctx, app.Name, trigger, metrics.StatusTagKey(errs), start)

	if errs != nil {
		state.invalidate(errs)
		return controllerruntime.Result{RequeueAfter: time.Until(state.nextRetryTime)}, nil
	}
	state.checkpoint()
	return controllerruntime.Result{RequeueAfter: r.pollingPeriod}, nil
}

// sync runs the pipeline for one pass: resolve, render, diff, and, when the
// sync policy or an explicit request calls for it, apply. It always finishes
// by writing the Application status, and returns the refined trigger along
// with every error the pass produced.
func (r *ApplicationReconciler) sync(ctx context.Context, log logr.Logger, app *v1alpha1.Application, state *reconcilerState, syncReq *metadata.SyncRequest, trigger string) (string, status.MultiError) {
	var errs status.MultiError

	repo, repoErr := r.repositoryFor(ctx, app.Spec.Source.RepoURL)
	if repoErr != nil {
		metrics.RecordReconcilerErrors(ctx, app.Name, "source", 1)
		return trigger, r.finish(ctx, app, syncOutcome{sync: v1alpha1.SyncStatusUnknown, errs: status.Append(nil, repoErr)})
	}
	commit, resolveErr := repo.ResolveRevision(ctx, app.Spec.Source.Revision)
	if resolveErr != nil {
		metrics.RecordReconcilerErrors(ctx, app.Name, "source", 1)
		return trigger, r.finish(ctx, app, syncOutcome{sync: v1alpha1.SyncStatusUnknown, errs: status.Append(nil, resolveErr)})
	}
	log = log.WithValues("commit", commit)

	// Render, reusing the cached output while the commit is unchanged. The
	// tree is read from the source path so overlays can reference bases
	// anywhere beneath it.
	if state.cache.commit != commit {
		state.resetCache()
		state.cache.commit = commit
	}
	if !state.cache.hasRendered {
		tree, readErr := source.ReadTree(ctx, repo, commit, app.Spec.Source.Path)
		if readErr != nil {
			metrics.RecordReconcilerErrors(ctx, app.Name, "source", 1)
			return trigger, r.finish(ctx, app, syncOutcome{commit: commit, sync: v1alpha1.SyncStatusUnknown, errs: status.Append(nil, readErr)})
		}
		metrics.RecordReconcilerErrors(ctx, app.Name, "source", 0)
		rendered, renderErr := render.Render(tree, render.Options{
			Path:      app.Spec.Source.Path,
			Overlay:   app.Spec.Source.Overlay,
			Namespace: app.Spec.Destination.Namespace,
		})
		if renderErr != nil {
			metrics.RecordReconcilerErrors(ctx, app.Name, "rendering", 1)
			return trigger, r.failRender(ctx, app, syncReq, commit, renderErr)
		}
		metrics.RecordReconcilerErrors(ctx, app.Name, "rendering", 0)
		state.cache.setRendered(rendered)
	}
	desired := state.cache.rendered
	metrics.RecordDeclaredResources(ctx, app.Name, len(desired))

	// Publish the declared set and align the drift watches with it.
	r.declared.Update(app.Name, desired)
	if r.watches != nil {
		if watchErrs := r.watches.UpdateWatches(ctx, r.declared.GVKs()); watchErrs != nil {
			// Recoverable, the next pass diffs the watch set again.
			log.Error(watchErrs, "Failed to update drift watches")
		}
	}

	// Snapshot the live state of every kind this Application has declared,
	// past or present, so resources dropped from the source still show up.
	gvks := make(map[schema.GroupVersionKind]struct{}, len(desired))
	for _, u := range desired {
		gvks[u.GroupVersionKind()] = struct{}{}
	}
	for gvk := range state.appliedGVKs {
		gvks[gvk] = struct{}{}
	}
	r.seedStatusGVKs(app, gvks)

	live, listErrs := r.listManaged(ctx, app.Name, gvks)
	if listErrs != nil {
		metrics.RecordReconcilerErrors(ctx, app.Name, "sync", errorCount(listErrs))
		return trigger, r.finish(ctx, app, syncOutcome{commit: commit, sync: v1alpha1.SyncStatusUnknown, errs: status.Append(errs, listErrs)})
	}

	entries, planErrs := r.applier.Plan(app, desired, live)
	if planErrs != nil {
		// Malformed live objects are reported and skipped; the rest of the
		// plan still runs.
		errs = status.Append(errs, planErrs)
	}
	actionable := 0
	for _, e := range entries {
		if e.Type != diff.NoOp {
			actionable++
		}
	}
	state.appliedGVKs = trackedGVKs(desired, live)

	apply, dryRun := false, false
	switch {
	case syncReq != nil:
		apply = true
		dryRun = syncReq.DryRun
	case !app.Spec.SyncPolicy.Automated:
		// Manual policy: report state, mutate nothing without a request.
	case trigger == triggerResync:
		apply = true
	case commit != r.syncedCommit(app, state):
		apply = true
		trigger = triggerNewRevision
	case trigger == triggerRetry && actionable > 0:
		apply = true
	case app.Spec.SyncPolicy.SelfHeal && actionable > 0:
		apply = true
		trigger = triggerDrift
	}

	if !apply {
		out := syncOutcome{commit: commit, sync: v1alpha1.SyncStatusSynced, errs: errs}
		if actionable > 0 {
			out.sync = v1alpha1.SyncStatusOutOfSync
		}
		out.health = r.evaluateHealth(ctx, desired, live)
		metrics.RecordReconcilerErrors(ctx, app.Name, "sync", errorCount(errs))
		return trigger, r.finish(ctx, app, out)
	}

	if !dryRun {
		if err := r.ensureFinalizer(ctx, app); err != nil {
			errs = status.Append(errs, err)
			metrics.RecordReconcilerErrors(ctx, app.Name, "sync", errorCount(errs))
			return trigger, r.finish(ctx, app, syncOutcome{commit: commit, sync: v1alpha1.SyncStatusUnknown, errs: errs})
		}
	}

	log.Info("Applying", "trigger", trigger, "resources", len(entries), "actionable", actionable, "dryRun", dryRun)
	result, applyErrs := r.applier.Apply(ctx, app, commit, entries, dryRun)
	if syncReq != nil {
		result.ID = syncReq.ID
	}
	errs = status.Append(errs, applyErrs)

	out := syncOutcome{commit: commit, result: result}
	switch {
	case dryRun:
		out.sync = v1alpha1.SyncStatusSynced
		if actionable > 0 {
			out.sync = v1alpha1.SyncStatusOutOfSync
		}
		out.health = r.evaluateHealth(ctx, desired, live)
	case applyErrs != nil:
		out.sync = v1alpha1.SyncStatusOutOfSync
	default:
		out.sync = v1alpha1.SyncStatusSynced
		state.lastSyncedCommit = commit
		metrics.RecordLastSync(ctx, app.Name, commit, result.FinishedAt.Time)
	}

	// Re-list after a real apply so health reflects what the sync just did.
	if !dryRun {
		relisted, relistErrs := r.listManaged(ctx, app.Name, gvks)
		if relistErrs != nil {
			errs = status.Append(errs, relistErrs)
		} else {
			state.appliedGVKs = trackedGVKs(desired, relisted)
			out.health = r.evaluateHealth(ctx, desired, relisted)
		}
	}

	if result.Status == v1alpha1.SyncResultSucceeded {
		r.eventf(app, corev1.EventTypeNormal, "SyncCompleted", "%s", result.Message)
	} else {
		r.eventf(app, corev1.EventTypeWarning, "SyncFailed", "%s", result.Message)
	}

	out.errs = errs
	metrics.RecordReconcilerErrors(ctx, app.Name, "sync", errorCount(errs))
	errs = r.finish(ctx, app, out)
	if syncReq != nil {
		if err := r.clearSyncRequest(ctx, app); err != nil {
			errs = status.Append(errs, err)
		}
	}
	return trigger, errs
}

// finalize deletes the resources an Application manages before letting the
// object go, honoring the resources finalizer.
func (r *ApplicationReconciler) finalize(ctx context.Context, log logr.Logger, app *v1alpha1.Application) (controllerruntime.Result, error) {
	if !controllerutil.ContainsFinalizer(app, metadata.ResourcesFinalizer) {
		r.forget(app.Name)
		return controllerruntime.Result{}, nil
	}
	log.Info("Deleting managed resources for terminating Application")

	state := r.stateFor(app.Name)
	gvks := make(map[schema.GroupVersionKind]struct{}, len(state.appliedGVKs))
	for gvk := range state.appliedGVKs {
		gvks[gvk] = struct{}{}
	}
	for _, u := range state.cache.rendered {
		gvks[u.GroupVersionKind()] = struct{}{}
	}
	r.seedStatusGVKs(app, gvks)

	live, listErrs := r.listManaged(ctx, app.Name, gvks)
	if listErrs != nil {
		return controllerruntime.Result{}, listErrs
	}
	entries, diffErrs := diff.Diffs(app.Name, nil, live, true)
	if diffErrs != nil {
		return controllerruntime.Result{}, diffErrs
	}

	result, applyErrs := r.applier.Apply(ctx, app, "", entries, false)
	if applyErrs != nil {
		r.eventf(app, corev1.EventTypeWarning, "FinalizeFailed", "%s", result.Message)
		if err := r.updateStatus(ctx, app, syncOutcome{errs: applyErrs}); err != nil {
			applyErrs = status.Append(applyErrs, err)
		}
		return controllerruntime.Result{}, applyErrs
	}

	r.declared.Delete(app.Name)
	if r.watches != nil {
		if err := r.watches.UpdateWatches(ctx, r.declared.GVKs()); err != nil {
			log.Error(err, "Failed to update drift watches")
		}
	}

	_, err := r.client.Update(ctx, app, func(obj client.Object) (client.Object, error) {
		a := obj.(*v1alpha1.Application)
		if !controllerutil.ContainsFinalizer(a, metadata.ResourcesFinalizer) {
			return a, cluster.NoUpdateNeeded()
		}
		controllerutil.RemoveFinalizer(a, metadata.ResourcesFinalizer)
		return a, nil
	})
	if err != nil {
		return controllerruntime.Result{}, err
	}
	r.eventf(app, corev1.EventTypeNormal, "ResourcesDeleted", "deleted %d managed resources", len(entries))
	r.forget(app.Name)
	return controllerruntime.Result{}, nil
}

// syncOutcome carries what a pass learned into the status update. Zero
// fields leave the corresponding status field unchanged.
type syncOutcome struct {
	commit string
	sync   v1alpha1.SyncStatusCode
	health v1alpha1.HealthStatus
	result *v1alpha1.SyncResult
	errs   status.MultiError
}

// finish writes the Application status for a completed pass and returns the
// pass errors merged with any status write failure.
func (r *ApplicationReconciler) finish(ctx context.Context, app *v1alpha1.Application, out syncOutcome) status.MultiError {
	errs := out.errs
	if err := r.updateStatus(ctx, app, out); err != nil {
		errs = status.Append(errs, err)
	}
	return errs
}

func (r *ApplicationReconciler) updateStatus(ctx context.Context, app *v1alpha1.Application, out syncOutcome) status.Error {
	observedGeneration := app.Generation
	_, err := r.client.UpdateStatus(ctx, app, func(obj client.Object) (client.Object, error) {
		a := obj.(*v1alpha1.Application)
		a.Status.ObservedGeneration = observedGeneration
		if out.commit != "" {
			a.Status.ObservedRevision = out.commit
			a.Status.Sync.Revision = out.commit
		}
		if out.sync != "" {
			a.Status.Sync.Status = out.sync
		}
		if out.health != "" {
			a.Status.Health = out.health
		}
		if out.result != nil {
			a.Status.LastSyncResult = out.result
		}
		a.Status.Errors = status.ToAppErrors(out.errs)
		return a, nil
	})
	return err
}

// failRender finishes a pass whose rendering failed. Rendering is
// deterministic for a commit, so a requested sync fails now instead of
// waiting out retries that cannot change the outcome.
func (r *ApplicationReconciler) failRender(ctx context.Context, app *v1alpha1.Application, syncReq *metadata.SyncRequest, commit string, renderErr status.Error) status.MultiError {
	out := syncOutcome{commit: commit, sync: v1alpha1.SyncStatusUnknown, errs: status.Append(nil, renderErr)}
	if syncReq != nil {
		now := metav1.Now()
		out.result = &v1alpha1.SyncResult{
			ID:         syncReq.ID,
			Revision:   commit,
			DryRun:     syncReq.DryRun,
			StartedAt:  now,
			FinishedAt: now,
			Status:     v1alpha1.SyncResultFailed,
			Message:    renderErr.Error(),
		}
		r.eventf(app, corev1.EventTypeWarning, "SyncFailed", "requested sync %s failed: %v", syncReq.ID, renderErr)
	}
	errs := r.finish(ctx, app, out)
	if syncReq != nil {
		if err := r.clearSyncRequest(ctx, app); err != nil {
			errs = status.Append(errs, err)
		}
	}
	return errs
}

// evaluateHealth computes the aggregate health of the desired resources over
// the live snapshot, pulling in the Endpoints behind desired Services.
func (r *ApplicationReconciler) evaluateHealth(ctx context.Context, desired, live []*unstructured.Unstructured) v1alpha1.HealthStatus {
	return health.Aggregate(health.Evaluate(desired, r.withEndpoints(ctx, desired, live)))
}

// withEndpoints appends the Endpoints objects backing desired Services to
// the live snapshot. Endpoints are unlabeled, so the managed listing never
// includes them.
func (r *ApplicationReconciler) withEndpoints(ctx context.Context, desired, live []*unstructured.Unstructured) []*unstructured.Unstructured {
	for _, u := range desired {
		if u.GroupVersionKind().GroupKind() != kinds.Service().GroupKind() {
			continue
		}
		selector, _, _ := unstructured.NestedMap(u.Object, "spec", "selector")
		if len(selector) == 0 {
			continue
		}
		ep := &unstructured.Unstructured{}
		ep.SetGroupVersionKind(kinds.Endpoints())
		key := client.ObjectKey{Namespace: u.GetNamespace(), Name: u.GetName()}
		if err := r.client.Get(ctx, key, ep); err != nil {
			continue
		}
		live = append(live, ep)
	}
	return live
}

// listManaged snapshots every live resource labeled for appName across the
// given kinds.
func (r *ApplicationReconciler) listManaged(ctx context.Context, appName string, gvks map[schema.GroupVersionKind]struct{}) ([]*unstructured.Unstructured, status.MultiError) {
	var live []*unstructured.Unstructured
	var errs status.MultiError
	for gvk := range gvks {
		objs, err := r.client.ListManaged(ctx, gvk, appName)
		if err != nil {
			errs = status.Append(errs, err)
			continue
		}
		live = append(live, objs...)
	}
	return live, errs
}

// seedStatusGVKs recovers resource kinds from the recorded sync result, so a
// restarted reconciler still lists resources whose kinds dropped out of the
// rendered set while it was down.
func (r *ApplicationReconciler) seedStatusGVKs(app *v1alpha1.Application, gvks map[schema.GroupVersionKind]struct{}) {
	if app.Status.LastSyncResult == nil {
		return
	}
	mapper := r.client.RESTMapper()
	if mapper == nil {
		return
	}
	for _, res := range app.Status.LastSyncResult.Resources {
		mapping, err := mapper.RESTMapping(schema.GroupKind{Group: res.Group, Kind: res.Kind})
		if err != nil {
			// The kind may no longer be served.
			continue
		}
		gvks[mapping.GroupVersionKind] = struct{}{}
	}
}

// ensureFinalizer adds the resources finalizer before the first apply, so an
// Application deleted later cannot strand what it created.
func (r *ApplicationReconciler) ensureFinalizer(ctx context.Context, app *v1alpha1.Application) status.Error {
	if controllerutil.ContainsFinalizer(app, metadata.ResourcesFinalizer) {
		return nil
	}
	_, err := r.client.Update(ctx, app, func(obj client.Object) (client.Object, error) {
		a := obj.(*v1alpha1.Application)
		if controllerutil.ContainsFinalizer(a, metadata.ResourcesFinalizer) {
			return a, cluster.NoUpdateNeeded()
		}
		controllerutil.AddFinalizer(a, metadata.ResourcesFinalizer)
		return a, nil
	})
	return err
}

// clearSyncRequest removes the sync request annotation once the request has
// been recorded in status, so a repeated pass cannot run it twice.
func (r *ApplicationReconciler) clearSyncRequest(ctx context.Context, app *v1alpha1.Application) status.Error {
	_, err := r.client.Update(ctx, app, func(obj client.Object) (client.Object, error) {
		a := obj.(*v1alpha1.Application)
		if _, ok := a.GetAnnotations()[metadata.SyncRequestAnnotationKey]; !ok {
			return a, cluster.NoUpdateNeeded()
		}
		metadata.RemoveSyncRequest(a)
		return a, nil
	})
	return err
}

// syncedCommit returns the last commit known to have fully applied, falling
// back to the recorded sync result when the in-memory state is fresh.
func (r *ApplicationReconciler) syncedCommit(app *v1alpha1.Application, state *reconcilerState) string {
	if state.lastSyncedCommit != "" {
		return state.lastSyncedCommit
	}
	last := app.Status.LastSyncResult
	if last != nil && !last.DryRun && last.Status == v1alpha1.SyncResultSucceeded {
		return last.Revision
	}
	return ""
}

func (r *ApplicationReconciler) repositoryFor(ctx context.Context, repoURL string) (source.Repository, status.Error) {
	r.mux.Lock()
	defer r.mux.Unlock()
	if repo, ok := r.repos[repoURL]; ok {
		return repo, nil
	}
	repo, err := r.newRepository(ctx, repoURL)
	if err != nil {
		return nil, err
	}
	r.repos[repoURL] = repo
	return repo, nil
}

func (r *ApplicationReconciler) stateFor(appName string) *reconcilerState {
	r.mux.Lock()
	defer r.mux.Unlock()
	s, ok := r.states[appName]
	if !ok {
		s = &reconcilerState{lastResync: time.Now()}
		r.states[appName] = s
	}
	return s
}

// forget drops the per-Application bookkeeping once the object is gone.
func (r *ApplicationReconciler) forget(appName string) {
	r.mux.Lock()
	defer r.mux.Unlock()
	delete(r.states, appName)
}

func (r *ApplicationReconciler) eventf(app *v1alpha1.Application, eventType, reason, messageFmt string, args ...interface{}) {
	if r.recorder == nil {
		return
	}
	r.recorder.Eventf(app, eventType, reason, messageFmt, args...)
}

// trackedGVKs returns the kinds the next pass must list: everything rendered
// now plus everything the label selector still finds on the cluster.
func trackedGVKs(desired, live []*unstructured.Unstructured) map[schema.GroupVersionKind]struct{} {
	gvks := make(map[schema.GroupVersionKind]struct{}, len(desired))
	for _, u := range desired {
		gvks[u.GroupVersionKind()] = struct{}{}
	}
	for _, u := range live {
		gvks[u.GroupVersionKind()] = struct{}{}
	}
	return gvks
}

func errorCount(errs status.MultiError) int {
	if errs == nil {
		return 0
	}
	return len(errs.Errors())
}

// repoDir returns a stable directory name for a repository clone.
func repoDir(repoURL string) string {
	sum := sha256.Sum256([]byte(repoURL))
	return hex.EncodeToString(sum[:])[:16]
}
