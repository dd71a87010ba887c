// Package cluster contains an enhanced cluster client.
package cluster

import (
	"context"
	"fmt"
	"time"

	"github.com/google/go-cmp/cmp"
	"github.com/prometheus/client_golang/prometheus"
	apierrors "k8s.io/apimachinery/pkg/api/errors"
	metav1 "k8s.io/apimachinery/pkg/apis/meta/v1"
	"k8s.io/apimachinery/pkg/apis/meta/v1/unstructured"
	"k8s.io/apimachinery/pkg/runtime/schema"
	"k8s.io/klog/v2"
	"sigs.k8s.io/controller-runtime/pkg/client"

	"github.com/coxswain-dev/coxswain/pkg/metadata"
	"github.com/coxswain-dev/coxswain/pkg/status"
)

// callTimeout bounds each Client operation, including conflict retries.
const callTimeout = 30 * time.Second

// Client extends the controller-runtime client by exporting prometheus
// metrics, bounding every call with a timeout, and retrying conflicting
// updates.
type Client struct {
	client.Client
	latencyMetric *prometheus.HistogramVec
	MaxTries      int
}

// New returns a new Client.
func New(client client.Client, latencyMetric *prometheus.HistogramVec) *Client {
	return &Client{
		Client:        client,
		MaxTries:      5,
		latencyMetric: latencyMetric,
	}
}

// clientUpdateFn is a Client function signature for updating an entire resource or a resource's status.
type clientUpdateFn func(ctx context.Context, obj client.Object, opts ...client.UpdateOption) error

// update is a function that updates the state of an API object. The argument is a copy of the
// object, so an update function may mutate it freely.
type update func(client.Object) (client.Object, error)

// Create saves the object obj in the Kubernetes cluster and records prometheus metrics.
func (c *Client) Create(ctx context.Context, obj client.Object) status.Error {
	ctx, cancel := context.WithTimeout(ctx, callTimeout)
	defer cancel()

	description := resourceInfo(obj)
	klog.V(1).Infof("Creating %s", description)

	start := time.Now()
	err := c.Client.Create(ctx, obj)
	c.recordLatency(start, "create", obj.GetObjectKind().GroupVersionKind().Kind, statusLabel(err))

	if err != nil {
		return status.ResourceWrap(err, "failed to create "+description, obj)
	}
	klog.V(1).Infof("Create OK for %s", description)
	return nil
}

// Delete deletes the given obj from the Kubernetes cluster and records prometheus metrics.
// Deleting an object which is absent or already terminating counts as success.
// This automatically sets the propagation policy to always be "Background".
func (c *Client) Delete(ctx context.Context, obj client.Object, opts ...client.DeleteOption) status.Error {
	ctx, cancel := context.WithTimeout(ctx, callTimeout)
	defer cancel()

	description := resourceInfo(obj)

	if err := c.Client.Get(ctx, client.ObjectKeyFromObject(obj), obj); err != nil {
		if apierrors.IsNotFound(err) {
			klog.V(3).Infof("Not deleting %s; not found", description)
			return nil
		}
		return status.ResourceWrap(err, "could not look up object we're deleting "+description, obj)
	}
	if isFinalizing(obj) {
		klog.V(3).Infof("Delete skipped, resource is finalizing %s", description)
		return nil
	}

	klog.V(1).Infof("Deleting %s", description)
	start := time.Now()
	opts = append(opts, client.PropagationPolicy(metav1.DeletePropagationBackground))
	err := c.Client.Delete(ctx, obj, opts...)

	if err == nil {
		klog.V(1).Infof("Delete OK for %s", description)
	} else if apierrors.IsNotFound(err) {
		klog.V(3).Infof("Not found during attempted delete %s", description)
		err = nil
	}

	c.recordLatency(start, "delete", obj.GetObjectKind().GroupVersionKind().Kind, statusLabel(err))
	if err != nil {
		return status.ResourceWrap(err, "delete failed for "+description, obj)
	}
	return nil
}

// Update updates the given obj in the Kubernetes cluster.
func (c *Client) Update(ctx context.Context, obj client.Object, updateFn update) (client.Object, status.Error) {
	return c.update(ctx, obj, updateFn, c.Client.Update)
}

// UpdateStatus updates the given obj's status in the Kubernetes cluster.
func (c *Client) UpdateStatus(ctx context.Context, obj client.Object, updateFn update) (client.Object, status.Error) {
	return c.update(ctx, obj, updateFn, c.Client.Status().Update)
}

// update updates the given obj in the Kubernetes cluster using clientUpdateFn and records
// prometheus metrics. In the event of a conflicting update, it will retry.
// This operation always involves retrieving the resource from API Server before actually updating it.
func (c *Client) update(ctx context.Context, obj client.Object, updateFn update,
	clientUpdateFn clientUpdateFn) (client.Object, status.Error) {
	ctx, cancel := context.WithTimeout(ctx, callTimeout)
	defer cancel()

	// We only want to modify the argument after successfully making an update to API Server.
	workingObj := obj.DeepCopyObject().(client.Object)
	description := resourceInfo(workingObj)
	namespacedName := client.ObjectKeyFromObject(workingObj)

	var lastErr error

	for tryNum := 0; tryNum < c.MaxTries; tryNum++ {
		if err := c.Client.Get(ctx, namespacedName, workingObj); err != nil {
			return nil, status.ResourceWrap(err, "failed to get "+description+" for update", obj)
		}
		oldV := workingObj.GetResourceVersion()
		newObj, err := updateFn(workingObj.DeepCopyObject().(client.Object))
		if err != nil {
			if IsNoUpdateNeeded(err) {
				return newObj, nil
			}
			return nil, status.ResourceWrap(err, "failed to update "+description, obj)
		}

		if klog.V(3).Enabled() {
			klog.Warningf("update: %q: try: %v diff old..new:\n%v",
				namespacedName, tryNum, cmp.Diff(workingObj, newObj))
		}

		start := time.Now()
		err = clientUpdateFn(ctx, newObj)
		c.recordLatency(start, "update", obj.GetObjectKind().GroupVersionKind().Kind, statusLabel(err))

		if err == nil {
			newV := newObj.GetResourceVersion()
			if oldV == newV {
				klog.V(3).Infof("Update not needed for %s", description)
			} else {
				klog.V(1).Infof("Update OK for %s from ResourceVersion %s to %s", description, oldV, newV)
			}
			return newObj, nil
		}
		lastErr = err

		if !apierrors.IsConflict(err) {
			return nil, status.ResourceWrap(err, "failed to update "+description, obj)
		}
		<-time.After(100 * time.Millisecond) // Back off on retry a bit.
	}
	return nil, status.ResourceWrap(lastErr, "exceeded max tries to update "+description, obj)
}

// ApplyPatch sends patch to the API server for obj and records prometheus metrics.
// obj is updated in place with the server's view of the patched resource.
func (c *Client) ApplyPatch(ctx context.Context, obj client.Object, patch client.Patch) status.Error {
	ctx, cancel := context.WithTimeout(ctx, callTimeout)
	defer cancel()

	description := resourceInfo(obj)
	klog.V(1).Infof("Patching %s", description)

	start := time.Now()
	err := c.Client.Patch(ctx, obj, patch)
	c.recordLatency(start, "patch", obj.GetObjectKind().GroupVersionKind().Kind, statusLabel(err))

	if err != nil {
		return status.ResourceWrap(err, "failed to patch "+description, obj)
	}
	klog.V(1).Infof("Patch OK for %s", description)
	return nil
}

// ListManaged returns the live resources of the given GroupVersionKind which
// are labeled as managed by the named Application.
func (c *Client) ListManaged(ctx context.Context, gvk schema.GroupVersionKind, appName string) ([]*unstructured.Unstructured, status.Error) {
	ctx, cancel := context.WithTimeout(ctx, callTimeout)
	defer cancel()

	list := &unstructured.UnstructuredList{}
	list.SetGroupVersionKind(gvk.GroupVersion().WithKind(gvk.Kind + "List"))

	start := time.Now()
	err := c.Client.List(ctx, list, client.MatchingLabels{
		metadata.ManagedByKey:     metadata.ManagedByValue,
		metadata.ApplicationLabel: appName,
	})
	c.recordLatency(start, "list", gvk.Kind, statusLabel(err))

	if err != nil {
		return nil, FailedToListResources(err, gvk)
	}

	result := make([]*unstructured.Unstructured, len(list.Items))
	for i := range list.Items {
		result[i] = &list.Items[i]
	}
	return result, nil
}

func (c *Client) recordLatency(start time.Time, lvs ...string) {
	if c.latencyMetric == nil {
		return
	}
	c.latencyMetric.WithLabelValues(lvs...).Observe(time.Since(start).Seconds())
}

// resourceInfo returns a description of the object: its GroupVersionKind and NamespacedName.
func resourceInfo(obj client.Object) string {
	gvk := obj.GetObjectKind().GroupVersionKind()
	return fmt.Sprintf("%q, %q", gvk, client.ObjectKeyFromObject(obj))
}

// isFinalizing returns true if the object is being finalized.
func isFinalizing(obj client.Object) bool {
	return obj.GetDeletionTimestamp() != nil
}
