// Package clustertest provides a fake implementation of client.Client backed
// by an in-memory object map, for tests that exercise cluster interactions.
package clustertest

import (
	"context"
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
	"testing"

	jsonpatch "github.com/evanphx/json-patch"
	"github.com/google/go-cmp/cmp"
	"github.com/pkg/errors"
	apierrors "k8s.io/apimachinery/pkg/api/errors"
	"k8s.io/apimachinery/pkg/api/meta"
	metav1 "k8s.io/apimachinery/pkg/apis/meta/v1"
	"k8s.io/apimachinery/pkg/apis/meta/v1/unstructured"
	"k8s.io/apimachinery/pkg/labels"
	"k8s.io/apimachinery/pkg/runtime"
	"k8s.io/apimachinery/pkg/runtime/schema"
	"k8s.io/apimachinery/pkg/types"
	"k8s.io/apimachinery/pkg/util/strategicpatch"
	clientgoscheme "k8s.io/client-go/kubernetes/scheme"
	"sigs.k8s.io/controller-runtime/pkg/client"

	"github.com/coxswain-dev/coxswain/pkg/api/gitops/v1alpha1"
	"github.com/coxswain-dev/coxswain/pkg/core"
	"github.com/coxswain-dev/coxswain/pkg/kinds"
)

// Client is a fake implementation of client.Client. Objects are stored in
// unstructured form, and patches are applied with real merge-patch semantics
// so tests observe the same post-patch state a cluster would hold.
type Client struct {
	scheme *runtime.Scheme

	// Objects holds the current cluster state.
	Objects map[core.ID]*unstructured.Unstructured

	// Mutations records every state-changing call in order, formatted as
	// "<verb> <id>". Seed objects passed to NewClient are not recorded.
	Mutations []string
}

var _ client.Client = &Client{}

// NewClient instantiates a fake Client pre-populated with the specified
// objects. The client-go and gitops types are registered in its scheme.
//
// Calls t.Fatal if unable to instantiate the Client.
func NewClient(t *testing.T, objs ...client.Object) *Client {
	t.Helper()

	s := runtime.NewScheme()
	if err := clientgoscheme.AddToScheme(s); err != nil {
		t.Fatal(errors.Wrap(err, "unable to create clustertest Client"))
	}
	if err := v1alpha1.AddToScheme(s); err != nil {
		t.Fatal(errors.Wrap(err, "unable to create clustertest Client"))
	}

	result := &Client{
		scheme:  s,
		Objects: make(map[core.ID]*unstructured.Unstructured),
	}
	for _, o := range objs {
		if err := result.Create(context.Background(), o); err != nil {
			t.Fatal(err)
		}
	}
	result.Mutations = nil
	return result
}

// Get implements client.Client.
func (c *Client) Get(_ context.Context, key client.ObjectKey, obj client.Object) error {
	gvk, err := c.gvkOf(obj)
	if err != nil {
		return err
	}

	id := core.ID{GroupKind: gvk.GroupKind(), ObjectKey: key}
	stored, ok := c.Objects[id]
	if !ok {
		return newNotFound(id)
	}
	return copyInto(stored, obj)
}

// List implements client.Client.
//
// Does not paginate results.
func (c *Client) List(_ context.Context, list client.ObjectList, opts ...client.ListOption) error {
	options := client.ListOptions{}
	options.ApplyOptions(opts)
	if err := validateListOptions(options); err != nil {
		return err
	}

	switch l := list.(type) {
	case *unstructured.UnstructuredList:
		return c.listUnstructured(l, options)
	case *v1alpha1.ApplicationList:
		return c.listApplications(l, options)
	default:
		return errors.Errorf("clustertest.Client does not support List(%T)", list)
	}
}

// Create implements client.Client.
func (c *Client) Create(_ context.Context, obj client.Object, opts ...client.CreateOption) error {
	if len(opts) > 0 {
		return errors.Errorf("clustertest.Client.Create does not yet support opts, but got: %+v", opts)
	}

	u, id, err := c.toStored(obj)
	if err != nil {
		return err
	}
	if _, found := c.Objects[id]; found {
		return newAlreadyExists(id)
	}

	u.SetResourceVersion("1")
	c.Objects[id] = u
	c.record("create", id)
	return copyInto(u, obj)
}

// Delete implements client.Client.
func (c *Client) Delete(_ context.Context, obj client.Object, opts ...client.DeleteOption) error {
	if err := validateDeleteOptions(opts); err != nil {
		return err
	}

	_, id, err := c.toStored(obj)
	if err != nil {
		return err
	}
	if _, found := c.Objects[id]; !found {
		return newNotFound(id)
	}

	delete(c.Objects, id)
	c.record("delete", id)
	return nil
}

// Update implements client.Client.
func (c *Client) Update(_ context.Context, obj client.Object, opts ...client.UpdateOption) error {
	if len(opts) > 0 {
		return errors.Errorf("clustertest.Client.Update does not yet support opts, but got: %+v", opts)
	}

	u, id, err := c.toStored(obj)
	if err != nil {
		return err
	}
	stored, found := c.Objects[id]
	if !found {
		return newNotFound(id)
	}
	if rv := u.GetResourceVersion(); rv != "" && rv != stored.GetResourceVersion() {
		return newConflict(id)
	}

	u.SetResourceVersion(nextResourceVersion(stored))
	c.Objects[id] = u
	c.record("update", id)
	return copyInto(u, obj)
}

// Patch implements client.Client. Strategic merge patches and JSON merge
// patches are applied to the stored object; other patch types are not
// supported.
func (c *Client) Patch(_ context.Context, obj client.Object, patch client.Patch, opts ...client.PatchOption) error {
	if len(opts) > 0 {
		return errors.Errorf("clustertest.Client.Patch does not yet support opts, but got: %+v", opts)
	}

	_, id, err := c.toStored(obj)
	if err != nil {
		return err
	}
	stored, found := c.Objects[id]
	if !found {
		return newNotFound(id)
	}

	data, err := patch.Data(obj)
	if err != nil {
		return err
	}
	original, err := json.Marshal(stored.Object)
	if err != nil {
		return errors.Wrapf(err, "unable to marshal %s", id)
	}

	var merged []byte
	switch patch.Type() {
	case types.StrategicMergePatchType:
		versioned, sErr := c.scheme.New(stored.GroupVersionKind())
		if sErr != nil {
			return errors.Wrapf(sErr, "strategic merge patch for unregistered type %s", stored.GroupVersionKind())
		}
		merged, err = strategicpatch.StrategicMergePatch(original, data, versioned)
	case types.MergePatchType:
		merged, err = jsonpatch.MergePatch(original, data)
	default:
		return errors.Errorf("clustertest.Client does not support patch type %q", patch.Type())
	}
	if err != nil {
		return errors.Wrapf(err, "unable to apply patch to %s", id)
	}

	result := &unstructured.Unstructured{}
	if err := json.Unmarshal(merged, result); err != nil {
		return errors.Wrapf(err, "patch produced invalid state for %s", id)
	}
	result.SetResourceVersion(nextResourceVersion(stored))
	c.Objects[id] = result
	c.record("patch", id)
	return copyInto(result, obj)
}

// DeleteAllOf implements client.Client.
func (c *Client) DeleteAllOf(_ context.Context, _ client.Object, _ ...client.DeleteAllOfOption) error {
	return errors.New("clustertest.Client does not support DeleteAllOf()")
}

// Status implements client.Client. Status updates through the fake overwrite
// the whole object, which approximates the status subresource closely enough
// for these tests.
func (c *Client) Status() client.StatusWriter {
	return c
}

// Scheme implements client.Client.
func (c *Client) Scheme() *runtime.Scheme {
	return c.scheme
}

// RESTMapper implements client.Client.
func (c *Client) RESTMapper() meta.RESTMapper {
	return nil
}

// Check reports an error to `t` if the set of objects stored in the Client
// does not match the passed set. ResourceVersions are ignored.
func (c *Client) Check(t *testing.T, wants ...client.Object) {
	t.Helper()

	wantMap := make(map[core.ID]*unstructured.Unstructured)
	for _, obj := range wants {
		u, id, err := c.toStored(obj)
		if err != nil {
			t.Fatal(err)
		}
		wantMap[id] = u
	}

	checked := make(map[core.ID]bool)
	for id, want := range wantMap {
		checked[id] = true
		stored, found := c.Objects[id]
		if !found {
			t.Errorf("clustertest.Client missing %s", id.String())
			continue
		}
		if diff := cmp.Diff(withoutResourceVersion(want), withoutResourceVersion(stored)); diff != "" {
			t.Errorf("diff to clustertest.Client.Objects[%s]:\n%s", id.String(), diff)
		}
	}
	for id := range c.Objects {
		if !checked[id] {
			t.Errorf("clustertest.Client unexpectedly contains %s", id.String())
		}
	}
}

func (c *Client) listUnstructured(list *unstructured.UnstructuredList, options client.ListOptions) error {
	gvk := list.GetObjectKind().GroupVersionKind()
	if gvk.Empty() {
		return errors.Errorf("clustertest.Client.List(UnstructuredList) requires GVK")
	}
	if !strings.HasSuffix(gvk.Kind, "List") {
		return errors.Errorf("clustertest.Client.List(UnstructuredList) called with non-List GVK %q", gvk.String())
	}
	gvk.Kind = strings.TrimSuffix(gvk.Kind, "List")

	for _, obj := range c.list(gvk.GroupKind(), options) {
		list.Items = append(list.Items, *obj.DeepCopy())
	}
	return nil
}

func (c *Client) listApplications(list *v1alpha1.ApplicationList, options client.ListOptions) error {
	for _, obj := range c.list(kinds.Application().GroupKind(), options) {
		app := v1alpha1.Application{}
		if err := copyInto(obj, &app); err != nil {
			return err
		}
		list.Items = append(list.Items, app)
	}
	return nil
}

// list returns the stored objects of the given GroupKind matching options,
// in no particular order.
func (c *Client) list(gk schema.GroupKind, options client.ListOptions) []*unstructured.Unstructured {
	var result []*unstructured.Unstructured
	for _, o := range c.Objects {
		if o.GroupVersionKind().GroupKind() != gk {
			continue
		}
		if options.Namespace != "" && o.GetNamespace() != options.Namespace {
			continue
		}
		if options.LabelSelector != nil && !options.LabelSelector.Matches(labels.Set(o.GetLabels())) {
			continue
		}
		result = append(result, o)
	}
	return result
}

// toStored normalizes obj to the unstructured form the Client stores,
// resolving an empty GroupVersionKind through the scheme.
func (c *Client) toStored(obj client.Object) (*unstructured.Unstructured, core.ID, error) {
	var u *unstructured.Unstructured
	if uo, ok := obj.(*unstructured.Unstructured); ok {
		u = uo.DeepCopy()
	} else {
		content, err := runtime.DefaultUnstructuredConverter.ToUnstructured(obj.DeepCopyObject())
		if err != nil {
			return nil, core.ID{}, errors.Wrapf(err, "unable to convert %T to unstructured", obj)
		}
		u = &unstructured.Unstructured{Object: content}
	}

	if u.GroupVersionKind().Empty() {
		gvks, _, err := c.scheme.ObjectKinds(obj)
		if err != nil {
			return nil, core.ID{}, errors.Wrapf(err, "unregistered type %T; add it to the clustertest scheme", obj)
		}
		if len(gvks) != 1 {
			return nil, core.ID{}, errors.Errorf("ambiguous kinds %v for %T", gvks, obj)
		}
		u.SetGroupVersionKind(gvks[0])
	}
	return u, core.IDOfUnstructured(*u), nil
}

func (c *Client) gvkOf(obj client.Object) (schema.GroupVersionKind, error) {
	gvk := obj.GetObjectKind().GroupVersionKind()
	if !gvk.Empty() {
		return gvk, nil
	}
	gvks, _, err := c.scheme.ObjectKinds(obj)
	if err != nil {
		return schema.GroupVersionKind{}, errors.Wrapf(err, "unregistered type %T; add it to the clustertest scheme", obj)
	}
	if len(gvks) != 1 {
		return schema.GroupVersionKind{}, errors.Errorf("ambiguous kinds %v for %T", gvks, obj)
	}
	return gvks[0], nil
}

func (c *Client) record(verb string, id core.ID) {
	c.Mutations = append(c.Mutations, fmt.Sprintf("%s %s", verb, id))
}

// copyInto round-trips from through JSON into to, approximating how the API
// server deserializes a response into the caller's object.
func copyInto(from *unstructured.Unstructured, to runtime.Object) error {
	jsn, err := json.Marshal(from.Object)
	if err != nil {
		return errors.Wrapf(err, "unable to marshal %v", from)
	}
	if err := json.Unmarshal(jsn, to); err != nil {
		return errors.Wrapf(err, "unable to unmarshal %s", string(jsn))
	}
	return nil
}

func validateListOptions(opts client.ListOptions) error {
	if opts.Continue != "" {
		return errors.Errorf("clustertest.Client.List does not yet support the Continue option, but got: %+v", opts)
	}
	if opts.FieldSelector != nil {
		return errors.Errorf("clustertest.Client.List does not yet support the FieldSelector option, but got: %+v", opts)
	}
	if opts.Limit != 0 {
		return errors.Errorf("clustertest.Client.List does not yet support the Limit option, but got: %+v", opts)
	}
	return nil
}

func validateDeleteOptions(opts []client.DeleteOption) error {
	var unsupported []client.DeleteOption
	for _, opt := range opts {
		switch opt {
		case client.PropagationPolicy(metav1.DeletePropagationBackground):
		default:
			unsupported = append(unsupported, opt)
		}
	}
	if len(unsupported) > 0 {
		return errors.Errorf("clustertest.Client.Delete does not yet support opts, but got: %+v", unsupported)
	}
	return nil
}

func nextResourceVersion(stored *unstructured.Unstructured) string {
	rv, err := strconv.Atoi(stored.GetResourceVersion())
	if err != nil {
		rv = 0
	}
	return strconv.Itoa(rv + 1)
}

func withoutResourceVersion(u *unstructured.Unstructured) *unstructured.Unstructured {
	scrubbed := u.DeepCopy()
	unstructured.RemoveNestedField(scrubbed.Object, "metadata", "resourceVersion")
	return scrubbed
}

func toGR(gk schema.GroupKind) schema.GroupResource {
	return schema.GroupResource{
		Group:    gk.Group,
		Resource: gk.Kind,
	}
}

func newNotFound(id core.ID) error {
	return apierrors.NewNotFound(toGR(id.GroupKind), id.ObjectKey.String())
}

func newAlreadyExists(id core.ID) error {
	return apierrors.NewAlreadyExists(toGR(id.GroupKind), id.ObjectKey.String())
}

func newConflict(id core.ID) error {
	return apierrors.NewConflict(toGR(id.GroupKind), id.ObjectKey.String(),
		errors.New("the object has been modified; apply your changes to the latest version"))
}
