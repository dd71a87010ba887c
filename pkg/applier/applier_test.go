package applier

import (
	"context"
	"fmt"
	"strings"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	corev1 "k8s.io/api/core/v1"
	apierrors "k8s.io/apimachinery/pkg/api/errors"
	"k8s.io/apimachinery/pkg/apis/meta/v1/unstructured"
	"k8s.io/apimachinery/pkg/runtime/schema"
	"k8s.io/apimachinery/pkg/util/wait"
	"k8s.io/kubectl/pkg/util"
	"sigs.k8s.io/controller-runtime/pkg/client"

	"github.com/coxswain-dev/coxswain/pkg/api/gitops/v1alpha1"
	"github.com/coxswain-dev/coxswain/pkg/cluster"
	"github.com/coxswain-dev/coxswain/pkg/cluster/clustertest"
	"github.com/coxswain-dev/coxswain/pkg/core"
	"github.com/coxswain-dev/coxswain/pkg/diff"
	"github.com/coxswain-dev/coxswain/pkg/kinds"
	"github.com/coxswain-dev/coxswain/pkg/metadata"
	"github.com/coxswain-dev/coxswain/pkg/testing/fake"
)

const (
	testApp      = "guestbook"
	testRevision = "3f8c6da2622fec5896c1e230bda3c53c17f61e8a"
)

func testApplier(c client.Client) *Applier {
	a := New(cluster.New(c, nil))
	a.backoff = wait.Backoff{Duration: time.Millisecond, Factor: 1, Steps: 3}
	return a
}

func deploymentObject(replicas int64) *unstructured.Unstructured {
	return &unstructured.Unstructured{Object: map[string]interface{}{
		"apiVersion": "apps/v1",
		"kind":       "Deployment",
		"metadata": map[string]interface{}{
			"name":      "app",
			"namespace": "ns-a",
		},
		"spec": map[string]interface{}{
			"replicas": replicas,
		},
	}}
}

func namespaceObject(name string) *unstructured.Unstructured {
	return &unstructured.Unstructured{Object: map[string]interface{}{
		"apiVersion": "v1",
		"kind":       "Namespace",
		"metadata": map[string]interface{}{
			"name": name,
		},
	}}
}

func configMapObject() *unstructured.Unstructured {
	return &unstructured.Unstructured{Object: map[string]interface{}{
		"apiVersion": "v1",
		"kind":       "ConfigMap",
		"metadata": map[string]interface{}{
			"name":      "settings",
			"namespace": "ns-a",
		},
		"data": map[string]interface{}{
			"greeting": "hello",
		},
	}}
}

func widgetObject(size int64) *unstructured.Unstructured {
	return &unstructured.Unstructured{Object: map[string]interface{}{
		"apiVersion": "example.com/v1",
		"kind":       "Widget",
		"metadata": map[string]interface{}{
			"name":      "w",
			"namespace": "ns-a",
		},
		"spec": map[string]interface{}{
			"size": size,
		},
	}}
}

// asSynced turns a declared resource into the live object a previous sync of
// it would have stored.
func asSynced(t *testing.T, declared *unstructured.Unstructured) *unstructured.Unstructured {
	t.Helper()
	live := withSyncMeta(declared, testApp, testRevision)
	if err := util.CreateApplyAnnotation(live, unstructured.UnstructuredJSONScheme); err != nil {
		t.Fatal(err)
	}
	return live
}

type planned struct {
	ID   core.ID
	Type diff.Type
}

func summarize(entries []diff.Entry) []planned {
	var result []planned
	for _, e := range entries {
		result = append(result, planned{ID: e.ID, Type: e.Type})
	}
	return result
}

func TestApplyCreatesInOrder(t *testing.T) {
	fakeClient := clustertest.NewClient(t)
	a := testApplier(fakeClient)
	app := fake.ApplicationObject(core.Name(testApp))

	declared := []*unstructured.Unstructured{
		deploymentObject(3),
		namespaceObject("ns-a"),
	}

	entries, errs := a.Plan(app, declared, nil)
	if errs != nil {
		t.Fatal(errs)
	}
	wantPlan := []planned{
		{ID: core.IDOf(namespaceObject("ns-a")), Type: diff.Create},
		{ID: core.IDOf(deploymentObject(3)), Type: diff.Create},
	}
	if d := cmp.Diff(wantPlan, summarize(entries)); d != "" {
		t.Fatal(d)
	}

	result, errs := a.Apply(context.Background(), app, testRevision, entries, false)
	if errs != nil {
		t.Fatal(errs)
	}

	wantMutations := []string{
		fmt.Sprintf("create %s", core.IDOf(namespaceObject("ns-a"))),
		fmt.Sprintf("create %s", core.IDOf(deploymentObject(3))),
	}
	if d := cmp.Diff(wantMutations, fakeClient.Mutations); d != "" {
		t.Error(d)
	}

	if result.Status != v1alpha1.SyncResultSucceeded {
		t.Errorf("got sync status %q, want %q", result.Status, v1alpha1.SyncResultSucceeded)
	}
	if result.Revision != testRevision {
		t.Errorf("got sync revision %q, want %q", result.Revision, testRevision)
	}
	for _, r := range result.Resources {
		if r.Action != v1alpha1.ActionCreate || r.Status != v1alpha1.ResourceResultApplied {
			t.Errorf("got %s/%s result %s %s, want Create Applied", r.Kind, r.Name, r.Action, r.Status)
		}
	}

	stored := fakeClient.Objects[core.IDOf(deploymentObject(3))]
	if stored == nil {
		t.Fatal("Deployment was not created")
	}
	if !metadata.ManagedBy(stored, testApp) {
		t.Errorf("created Deployment is missing management labels: %v", stored.GetLabels())
	}
	if got := core.GetAnnotation(stored, metadata.RevisionAnnotationKey); got != testRevision {
		t.Errorf("got revision annotation %q, want %q", got, testRevision)
	}
	if core.GetAnnotation(stored, corev1.LastAppliedConfigAnnotation) == "" {
		t.Error("created Deployment is missing the last-applied configuration")
	}
}

func TestApplySelfHealsDrift(t *testing.T) {
	ctx := context.Background()
	fakeClient := clustertest.NewClient(t)
	a := testApplier(fakeClient)
	app := fake.ApplicationObject(core.Name(testApp))

	declared := []*unstructured.Unstructured{deploymentObject(1)}

	entries, _ := a.Plan(app, declared, nil)
	if _, errs := a.Apply(ctx, app, testRevision, entries, false); errs != nil {
		t.Fatal(errs)
	}

	// Re-planning over the synced state finds nothing to do.
	live, err := a.client.ListManaged(ctx, kinds.Deployment(), testApp)
	if err != nil {
		t.Fatal(err)
	}
	entries, _ = a.Plan(app, declared, live)
	wantPlan := []planned{{ID: core.IDOf(deploymentObject(1)), Type: diff.NoOp}}
	if d := cmp.Diff(wantPlan, summarize(entries)); d != "" {
		t.Fatal(d)
	}
	before := len(fakeClient.Mutations)
	if _, errs := a.Apply(ctx, app, testRevision, entries, false); errs != nil {
		t.Fatal(errs)
	}
	if len(fakeClient.Mutations) != before {
		t.Errorf("no-op sync mutated the cluster: %v", fakeClient.Mutations[before:])
	}

	// Someone scales the Deployment out-of-band.
	id := core.IDOf(deploymentObject(1))
	if err := unstructured.SetNestedField(fakeClient.Objects[id].Object, int64(5), "spec", "replicas"); err != nil {
		t.Fatal(err)
	}

	live, err = a.client.ListManaged(ctx, kinds.Deployment(), testApp)
	if err != nil {
		t.Fatal(err)
	}
	entries, _ = a.Plan(app, declared, live)
	wantPlan = []planned{{ID: id, Type: diff.Update}}
	if d := cmp.Diff(wantPlan, summarize(entries)); d != "" {
		t.Fatal(d)
	}

	result, errs := a.Apply(ctx, app, testRevision, entries, false)
	if errs != nil {
		t.Fatal(errs)
	}
	if result.Resources[0].Action != v1alpha1.ActionUpdate {
		t.Errorf("got action %q, want %q", result.Resources[0].Action, v1alpha1.ActionUpdate)
	}

	replicas, found, err2 := unstructured.NestedInt64(fakeClient.Objects[id].Object, "spec", "replicas")
	if err2 != nil || !found {
		t.Fatalf("replicas not found after sync: %v", err2)
	}
	if replicas != 1 {
		t.Errorf("got replicas %d after sync, want 1", replicas)
	}
}

func TestApplyRemovesDroppedFields(t *testing.T) {
	ctx := context.Background()
	fakeClient := clustertest.NewClient(t)
	a := testApplier(fakeClient)
	app := fake.ApplicationObject(core.Name(testApp))

	paused := deploymentObject(1)
	paused.Object["spec"].(map[string]interface{})["paused"] = true
	entries, _ := a.Plan(app, []*unstructured.Unstructured{paused}, nil)
	if _, errs := a.Apply(ctx, app, testRevision, entries, false); errs != nil {
		t.Fatal(errs)
	}

	// The next revision drops spec.paused.
	declared := []*unstructured.Unstructured{deploymentObject(1)}
	live, err := a.client.ListManaged(ctx, kinds.Deployment(), testApp)
	if err != nil {
		t.Fatal(err)
	}
	entries, _ = a.Plan(app, declared, live)
	if _, errs := a.Apply(ctx, app, "0be31a2d6b1f1a3afaff63cd0a42e38a458b0437", entries, false); errs != nil {
		t.Fatal(errs)
	}

	id := core.IDOf(deploymentObject(1))
	if _, found, _ := unstructured.NestedBool(fakeClient.Objects[id].Object, "spec", "paused"); found {
		t.Error("spec.paused was dropped from the declaration but survived the sync")
	}
}

func TestApplyPrunes(t *testing.T) {
	fakeClient := clustertest.NewClient(t,
		asSynced(t, namespaceObject("ns-a")),
		asSynced(t, deploymentObject(3)),
	)
	a := testApplier(fakeClient)
	app := fake.ApplicationObject(core.Name(testApp))
	app.Spec.SyncPolicy.Prune = true

	live := []*unstructured.Unstructured{
		asSynced(t, namespaceObject("ns-a")),
		asSynced(t, deploymentObject(3)),
	}
	entries, errs := a.Plan(app, nil, live)
	if errs != nil {
		t.Fatal(errs)
	}
	wantPlan := []planned{
		{ID: core.IDOf(deploymentObject(3)), Type: diff.Delete},
		{ID: core.IDOf(namespaceObject("ns-a")), Type: diff.Delete},
	}
	if d := cmp.Diff(wantPlan, summarize(entries)); d != "" {
		t.Fatal(d)
	}

	result, errs := a.Apply(context.Background(), app, testRevision, entries, false)
	if errs != nil {
		t.Fatal(errs)
	}
	if result.Status != v1alpha1.SyncResultSucceeded {
		t.Errorf("got sync status %q, want %q", result.Status, v1alpha1.SyncResultSucceeded)
	}

	// The Deployment goes before its Namespace.
	wantMutations := []string{
		fmt.Sprintf("delete %s", core.IDOf(deploymentObject(3))),
		fmt.Sprintf("delete %s", core.IDOf(namespaceObject("ns-a"))),
	}
	if d := cmp.Diff(wantMutations, fakeClient.Mutations); d != "" {
		t.Error(d)
	}
	fakeClient.Check(t)
}

func TestApplyKeepsOrphansWithoutPrune(t *testing.T) {
	orphan := asSynced(t, deploymentObject(3))
	fakeClient := clustertest.NewClient(t, orphan)
	a := testApplier(fakeClient)
	app := fake.ApplicationObject(core.Name(testApp))

	entries, errs := a.Plan(app, nil, []*unstructured.Unstructured{orphan.DeepCopy()})
	if errs != nil {
		t.Fatal(errs)
	}
	if len(entries) != 1 || entries[0].Type != diff.NoOp || !entries[0].Orphaned {
		t.Fatalf("got entries %+v, want a single orphaned no-op", summarize(entries))
	}

	if _, errs := a.Apply(context.Background(), app, testRevision, entries, false); errs != nil {
		t.Fatal(errs)
	}
	if len(fakeClient.Mutations) != 0 {
		t.Errorf("sync without prune mutated the cluster: %v", fakeClient.Mutations)
	}
	fakeClient.Check(t, orphan)
}

func TestApplyStopsOnManagementConflict(t *testing.T) {
	conflicting := withSyncMeta(deploymentObject(1), "other-app", testRevision)
	fakeClient := clustertest.NewClient(t, conflicting)
	a := testApplier(fakeClient)
	app := fake.ApplicationObject(core.Name(testApp))

	declared := []*unstructured.Unstructured{
		deploymentObject(1),
		configMapObject(),
	}
	entries, errs := a.Plan(app, declared, []*unstructured.Unstructured{conflicting.DeepCopy()})
	if errs != nil {
		t.Fatal(errs)
	}

	result, errs := a.Apply(context.Background(), app, testRevision, entries, false)
	if errs == nil {
		t.Fatal("got Apply() errors nil, want a management conflict error")
	}
	if got := errs.Errors(); len(got) != 1 || got[0].Code() != ManagementConflictErrorCode {
		t.Errorf("got Apply() errors %v, want a single CSW%s", got, ManagementConflictErrorCode)
	}

	if result.Status != v1alpha1.SyncResultFailed {
		t.Errorf("got sync status %q, want %q", result.Status, v1alpha1.SyncResultFailed)
	}
	if result.Resources[0].Status != v1alpha1.ResourceResultFailed {
		t.Errorf("got conflicting resource status %q, want %q", result.Resources[0].Status, v1alpha1.ResourceResultFailed)
	}
	if !strings.Contains(result.Resources[0].Message, "other-app") {
		t.Errorf("conflict message does not name the owning Application: %q", result.Resources[0].Message)
	}
	if result.Resources[1].Status != v1alpha1.ResourceResultSkipped {
		t.Errorf("got remaining resource status %q, want %q", result.Resources[1].Status, v1alpha1.ResourceResultSkipped)
	}
	if len(fakeClient.Mutations) != 0 {
		t.Errorf("conflicting sync mutated the cluster: %v", fakeClient.Mutations)
	}
}

func TestApplyAdoptsUnmanagedResource(t *testing.T) {
	// Present on the cluster but unlabeled, so a live snapshot misses it and
	// the plan says create.
	existing := deploymentObject(1)
	fakeClient := clustertest.NewClient(t, existing)
	a := testApplier(fakeClient)
	app := fake.ApplicationObject(core.Name(testApp))

	entries, _ := a.Plan(app, []*unstructured.Unstructured{deploymentObject(1)}, nil)
	result, errs := a.Apply(context.Background(), app, testRevision, entries, false)
	if errs != nil {
		t.Fatal(errs)
	}

	if result.Resources[0].Action != v1alpha1.ActionUpdate {
		t.Errorf("got action %q for adopted resource, want %q", result.Resources[0].Action, v1alpha1.ActionUpdate)
	}

	stored := fakeClient.Objects[core.IDOf(existing)]
	if !metadata.ManagedBy(stored, testApp) {
		t.Errorf("adopted Deployment is missing management labels: %v", stored.GetLabels())
	}
	if core.GetAnnotation(stored, corev1.LastAppliedConfigAnnotation) == "" {
		t.Error("adopted Deployment is missing the last-applied configuration")
	}
}

func TestApplyRefusesCreateOverOtherApplication(t *testing.T) {
	existing := withSyncMeta(deploymentObject(1), "other-app", testRevision)
	fakeClient := clustertest.NewClient(t, existing)
	a := testApplier(fakeClient)
	app := fake.ApplicationObject(core.Name(testApp))

	entries, _ := a.Plan(app, []*unstructured.Unstructured{deploymentObject(1)}, nil)
	result, errs := a.Apply(context.Background(), app, testRevision, entries, false)
	if errs == nil {
		t.Fatal("got Apply() errors nil, want a management conflict error")
	}
	if result.Status != v1alpha1.SyncResultFailed {
		t.Errorf("got sync status %q, want %q", result.Status, v1alpha1.SyncResultFailed)
	}
	if len(fakeClient.Mutations) != 0 {
		t.Errorf("conflicting create mutated the cluster: %v", fakeClient.Mutations)
	}
}

// flakyCreateClient fails the first failures Create calls with a server
// timeout, then delegates.
type flakyCreateClient struct {
	client.Client
	failures int
	calls    int
}

func (f *flakyCreateClient) Create(ctx context.Context, obj client.Object, opts ...client.CreateOption) error {
	f.calls++
	if f.calls <= f.failures {
		return apierrors.NewServerTimeout(schema.GroupResource{Group: "apps", Resource: "deployments"}, "create", 1)
	}
	return f.Client.Create(ctx, obj, opts...)
}

func TestApplyRetriesTransientFailures(t *testing.T) {
	fakeClient := clustertest.NewClient(t)
	flaky := &flakyCreateClient{Client: fakeClient, failures: 2}
	a := testApplier(flaky)
	app := fake.ApplicationObject(core.Name(testApp))

	entries, _ := a.Plan(app, []*unstructured.Unstructured{deploymentObject(1)}, nil)
	result, errs := a.Apply(context.Background(), app, testRevision, entries, false)
	if errs != nil {
		t.Fatal(errs)
	}

	if result.Status != v1alpha1.SyncResultSucceeded {
		t.Errorf("got sync status %q, want %q", result.Status, v1alpha1.SyncResultSucceeded)
	}
	if flaky.calls != 3 {
		t.Errorf("got %d create calls, want 3", flaky.calls)
	}
	if _, found := fakeClient.Objects[core.IDOf(deploymentObject(1))]; !found {
		t.Error("Deployment was not created after retries")
	}
}

func TestApplyContinuesPastExhaustedRetries(t *testing.T) {
	fakeClient := clustertest.NewClient(t)
	flaky := &flakyCreateClient{Client: fakeClient, failures: 4}
	a := testApplier(flaky)
	app := fake.ApplicationObject(core.Name(testApp))

	// One initial try plus three retries, all failing, then the ConfigMap
	// still syncs.
	declared := []*unstructured.Unstructured{
		deploymentObject(1),
		configMapObject(),
	}
	entries, _ := a.Plan(app, declared, nil)
	result, errs := a.Apply(context.Background(), app, testRevision, entries, false)
	if errs == nil {
		t.Fatal("got Apply() errors nil, want the exhausted create failure")
	}

	if result.Status != v1alpha1.SyncResultFailed {
		t.Errorf("got sync status %q, want %q", result.Status, v1alpha1.SyncResultFailed)
	}
	if !strings.Contains(result.Message, "1 of 2 resources failed") {
		t.Errorf("got sync message %q, want a 1 of 2 failure count", result.Message)
	}
	if result.Resources[0].Status != v1alpha1.ResourceResultFailed {
		t.Errorf("got Deployment status %q, want %q", result.Resources[0].Status, v1alpha1.ResourceResultFailed)
	}
	if result.Resources[1].Status != v1alpha1.ResourceResultApplied {
		t.Errorf("got ConfigMap status %q, want %q", result.Resources[1].Status, v1alpha1.ResourceResultApplied)
	}
	fakeClient.Check(t, asSynced(t, configMapObject()))
}

func TestApplyDryRunTouchesNothing(t *testing.T) {
	drifted := asSynced(t, deploymentObject(5))
	pruned := asSynced(t, configMapObject())
	fakeClient := clustertest.NewClient(t, drifted, pruned)
	a := testApplier(fakeClient)
	app := fake.ApplicationObject(core.Name(testApp))
	app.Spec.SyncPolicy.Prune = true

	declared := []*unstructured.Unstructured{
		deploymentObject(1),
		namespaceObject("ns-a"),
	}
	live := []*unstructured.Unstructured{drifted.DeepCopy(), pruned.DeepCopy()}
	entries, errs := a.Plan(app, declared, live)
	if errs != nil {
		t.Fatal(errs)
	}

	result, errs := a.Apply(context.Background(), app, testRevision, entries, true)
	if errs != nil {
		t.Fatal(errs)
	}

	if !result.DryRun {
		t.Error("got result.DryRun false, want true")
	}
	if result.Status != v1alpha1.SyncResultSucceeded {
		t.Errorf("got sync status %q, want %q", result.Status, v1alpha1.SyncResultSucceeded)
	}
	var actions []v1alpha1.ResourceAction
	for _, r := range result.Resources {
		actions = append(actions, r.Action)
	}
	wantActions := []v1alpha1.ResourceAction{
		v1alpha1.ActionCreate, // ns-a
		v1alpha1.ActionUpdate, // Deployment
		v1alpha1.ActionDelete, // ConfigMap
	}
	if d := cmp.Diff(wantActions, actions); d != "" {
		t.Error(d)
	}
	if len(fakeClient.Mutations) != 0 {
		t.Errorf("dry run mutated the cluster: %v", fakeClient.Mutations)
	}
}

func TestPlanIsReadOnly(t *testing.T) {
	fakeClient := clustertest.NewClient(t, asSynced(t, deploymentObject(5)))
	a := testApplier(fakeClient)
	app := fake.ApplicationObject(core.Name(testApp))

	declared := []*unstructured.Unstructured{
		deploymentObject(1),
		configMapObject(),
	}
	live := []*unstructured.Unstructured{asSynced(t, deploymentObject(5))}

	first, errs := a.Plan(app, declared, live)
	if errs != nil {
		t.Fatal(errs)
	}
	second, errs := a.Plan(app, declared, live)
	if errs != nil {
		t.Fatal(errs)
	}

	if d := cmp.Diff(first, second); d != "" {
		t.Errorf("consecutive plans differ:\n%s", d)
	}
	if len(fakeClient.Mutations) != 0 {
		t.Errorf("planning mutated the cluster: %v", fakeClient.Mutations)
	}
}

func TestApplyInterrupted(t *testing.T) {
	fakeClient := clustertest.NewClient(t)
	a := testApplier(fakeClient)
	app := fake.ApplicationObject(core.Name(testApp))

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	entries, _ := a.Plan(app, []*unstructured.Unstructured{deploymentObject(1), configMapObject()}, nil)
	result, errs := a.Apply(ctx, app, testRevision, entries, false)
	if errs == nil {
		t.Fatal("got Apply() errors nil, want an interruption error")
	}

	if result.Status != v1alpha1.SyncResultFailed {
		t.Errorf("got sync status %q, want %q", result.Status, v1alpha1.SyncResultFailed)
	}
	for _, r := range result.Resources {
		if r.Status != v1alpha1.ResourceResultSkipped {
			t.Errorf("got %s status %q, want %q", r.Name, r.Status, v1alpha1.ResourceResultSkipped)
		}
	}
	if len(fakeClient.Mutations) != 0 {
		t.Errorf("interrupted sync mutated the cluster: %v", fakeClient.Mutations)
	}
}

func TestApplyDeleteAbsentResource(t *testing.T) {
	fakeClient := clustertest.NewClient(t)
	a := testApplier(fakeClient)
	app := fake.ApplicationObject(core.Name(testApp))

	gone := asSynced(t, configMapObject())
	entries := []diff.Entry{{ID: core.IDOf(gone), Type: diff.Delete, Live: gone}}

	result, errs := a.Apply(context.Background(), app, testRevision, entries, false)
	if errs != nil {
		t.Fatal(errs)
	}
	if result.Status != v1alpha1.SyncResultSucceeded {
		t.Errorf("got sync status %q, want %q", result.Status, v1alpha1.SyncResultSucceeded)
	}
	if len(fakeClient.Mutations) != 0 {
		t.Errorf("deleting an absent resource mutated the cluster: %v", fakeClient.Mutations)
	}
}

func TestApplyConvergesUnregisteredKinds(t *testing.T) {
	ctx := context.Background()
	fakeClient := clustertest.NewClient(t)
	a := testApplier(fakeClient)
	app := fake.ApplicationObject(core.Name(testApp))

	widgetGVK := schema.GroupVersionKind{Group: "example.com", Version: "v1", Kind: "Widget"}
	declared := []*unstructured.Unstructured{widgetObject(2)}

	entries, _ := a.Plan(app, declared, nil)
	if _, errs := a.Apply(ctx, app, testRevision, entries, false); errs != nil {
		t.Fatal(errs)
	}

	id := core.IDOf(widgetObject(2))
	if err := unstructured.SetNestedField(fakeClient.Objects[id].Object, int64(9), "spec", "size"); err != nil {
		t.Fatal(err)
	}

	live, err := a.client.ListManaged(ctx, widgetGVK, testApp)
	if err != nil {
		t.Fatal(err)
	}
	entries, _ = a.Plan(app, declared, live)
	wantPlan := []planned{{ID: id, Type: diff.Update}}
	if d := cmp.Diff(wantPlan, summarize(entries)); d != "" {
		t.Fatal(d)
	}

	if _, errs := a.Apply(ctx, app, testRevision, entries, false); errs != nil {
		t.Fatal(errs)
	}
	size, found, err2 := unstructured.NestedInt64(fakeClient.Objects[id].Object, "spec", "size")
	if err2 != nil || !found {
		t.Fatalf("spec.size not found after sync: %v", err2)
	}
	if size != 2 {
		t.Errorf("got spec.size %d after sync, want 2", size)
	}
}

func TestUpdateEmptyPatchMakesNoCalls(t *testing.T) {
	fakeClient := clustertest.NewClient(t)
	a := testApplier(fakeClient)

	declared := deploymentObject(1)
	live := asSynced(t, declared)

	action, err := a.update(context.Background(), testApp, testRevision, declared, live)
	if err != nil {
		t.Fatal(err)
	}
	if action != v1alpha1.ActionNone {
		t.Errorf("got action %q for an unchanged resource, want %q", action, v1alpha1.ActionNone)
	}
	if len(fakeClient.Mutations) != 0 {
		t.Errorf("empty patch mutated the cluster: %v", fakeClient.Mutations)
	}
}
