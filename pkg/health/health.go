// Package health computes the observed health of rendered resources and
// aggregates them into a single Application-level status.
package health

import (
	"fmt"

	corev1 "k8s.io/api/core/v1"
	"k8s.io/apimachinery/pkg/apis/meta/v1/unstructured"
	kstatus "sigs.k8s.io/cli-utils/pkg/kstatus/status"
	"sigs.k8s.io/controller-runtime/pkg/client"

	"github.com/coxswain-dev/coxswain/pkg/api/gitops/v1alpha1"
	"github.com/coxswain-dev/coxswain/pkg/core"
	"github.com/coxswain-dev/coxswain/pkg/kinds"
)

// Result is the evaluated health of a single resource.
type Result struct {
	ID      core.ID
	Status  v1alpha1.HealthStatus
	Message string
}

// precedence orders statuses worst-first for aggregation.
var precedence = map[v1alpha1.HealthStatus]int{
	v1alpha1.HealthDegraded:    0,
	v1alpha1.HealthProgressing: 1,
	v1alpha1.HealthMissing:     2,
	v1alpha1.HealthUnknown:     3,
	v1alpha1.HealthHealthy:     4,
}

func worse(a, b v1alpha1.HealthStatus) bool {
	return precedence[a] < precedence[b]
}

// Aggregate returns the worst status among results. An Application with no
// resources is Healthy.
func Aggregate(results []Result) v1alpha1.HealthStatus {
	aggregate := v1alpha1.HealthHealthy
	for _, r := range results {
		if worse(r.Status, aggregate) {
			aggregate = r.Status
		}
	}
	return aggregate
}

// Evaluate computes the health of every desired resource against the live
// snapshot. A desired resource without a live counterpart is Missing. The
// snapshot must include the Endpoints objects of any desired Services for
// Service health to resolve.
//
// Evaluate reads nothing beyond its arguments and never mutates them.
func Evaluate(desired, live []*unstructured.Unstructured) []Result {
	liveMap := make(map[core.ID]*unstructured.Unstructured, len(live))
	for _, obj := range live {
		liveMap[core.IDOf(obj)] = obj
	}

	results := make([]Result, 0, len(desired))
	for _, obj := range desired {
		id := core.IDOf(obj)
		liveObj, found := liveMap[id]
		if !found {
			results = append(results, Result{
				ID:      id,
				Status:  v1alpha1.HealthMissing,
				Message: "resource not found on cluster",
			})
			continue
		}

		status, message := resourceHealth(liveObj, liveMap)
		results = append(results, Result{ID: id, Status: status, Message: message})
	}
	return results
}

func resourceHealth(obj *unstructured.Unstructured, live map[core.ID]*unstructured.Unstructured) (v1alpha1.HealthStatus, string) {
	switch obj.GroupVersionKind().GroupKind() {
	case kinds.Service().GroupKind():
		return serviceHealth(obj, live)
	case kinds.Ingress().GroupKind():
		return ingressHealth(obj)
	}
	return computedHealth(obj)
}

// computedHealth delegates to the kstatus rules, which cover the workload
// kinds and fall back to standard conditions for everything else. Kinds with
// no rule and no conditions are Healthy.
func computedHealth(obj *unstructured.Unstructured) (v1alpha1.HealthStatus, string) {
	result, err := kstatus.Compute(obj)
	if err != nil {
		return v1alpha1.HealthUnknown, fmt.Sprintf("unable to determine health: %v", err)
	}

	switch result.Status {
	case kstatus.CurrentStatus:
		return v1alpha1.HealthHealthy, result.Message
	case kstatus.InProgressStatus:
		return v1alpha1.HealthProgressing, result.Message
	case kstatus.TerminatingStatus:
		return v1alpha1.HealthProgressing, result.Message
	case kstatus.FailedStatus:
		return v1alpha1.HealthDegraded, result.Message
	case kstatus.NotFoundStatus:
		return v1alpha1.HealthMissing, result.Message
	default:
		return v1alpha1.HealthUnknown, result.Message
	}
}

// serviceHealth reports a selector-based Service Healthy once its Endpoints
// carry at least one address. A Service without a selector manages its
// Endpoints externally and counts as Healthy.
func serviceHealth(svc *unstructured.Unstructured, live map[core.ID]*unstructured.Unstructured) (v1alpha1.HealthStatus, string) {
	selector, found, err := unstructured.NestedMap(svc.Object, "spec", "selector")
	if err != nil {
		return v1alpha1.HealthUnknown, fmt.Sprintf("unable to determine health: %v", err)
	}
	if !found || len(selector) == 0 {
		return v1alpha1.HealthHealthy, ""
	}

	id := core.ID{
		GroupKind: kinds.Endpoints().GroupKind(),
		ObjectKey: client.ObjectKey{Namespace: svc.GetNamespace(), Name: svc.GetName()},
	}
	endpoints, ok := live[id]
	if !ok {
		return v1alpha1.HealthProgressing, "Service has no Endpoints yet"
	}

	addresses, err := endpointAddresses(endpoints)
	if err != nil {
		return v1alpha1.HealthUnknown, fmt.Sprintf("unable to determine health: %v", err)
	}
	if addresses == 0 {
		return v1alpha1.HealthProgressing, "Service has no endpoint addresses"
	}
	return v1alpha1.HealthHealthy, ""
}

func endpointAddresses(obj *unstructured.Unstructured) (int, error) {
	structured, err := core.RemarshalToStructured(obj)
	if err != nil {
		return 0, core.ObjectParseError(obj, err)
	}
	endpoints, ok := structured.(*corev1.Endpoints)
	if !ok {
		return 0, core.ObjectParseError(obj, fmt.Errorf("remarshaled to %T", structured))
	}

	count := 0
	for _, subset := range endpoints.Subsets {
		count += len(subset.Addresses)
	}
	return count, nil
}

// ingressHealth reports an Ingress Healthy once its controller assigns it a
// load balancer.
func ingressHealth(ing *unstructured.Unstructured) (v1alpha1.HealthStatus, string) {
	lbs, _, err := unstructured.NestedSlice(ing.Object, "status", "loadBalancer", "ingress")
	if err != nil {
		return v1alpha1.HealthUnknown, fmt.Sprintf("unable to determine health: %v", err)
	}
	if len(lbs) == 0 {
		return v1alpha1.HealthProgressing, "Ingress has no load balancer assigned"
	}
	return v1alpha1.HealthHealthy, ""
}
