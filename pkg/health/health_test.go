package health

import (
	"testing"

	"github.com/google/go-cmp/cmp"
	"k8s.io/apimachinery/pkg/apis/meta/v1/unstructured"
	"sigs.k8s.io/controller-runtime/pkg/client"

	"github.com/coxswain-dev/coxswain/pkg/api/gitops/v1alpha1"
	"github.com/coxswain-dev/coxswain/pkg/core"
	"github.com/coxswain-dev/coxswain/pkg/kinds"
)

func deploymentObject(mutations ...func(map[string]interface{})) *unstructured.Unstructured {
	obj := map[string]interface{}{
		"apiVersion": "apps/v1",
		"kind":       "Deployment",
		"metadata": map[string]interface{}{
			"name":      "frontend",
			"namespace": "shipping",
		},
		"spec": map[string]interface{}{
			"replicas": int64(3),
		},
	}
	for _, m := range mutations {
		m(obj)
	}
	return &unstructured.Unstructured{Object: obj}
}

func withStatus(status map[string]interface{}) func(map[string]interface{}) {
	return func(obj map[string]interface{}) {
		obj["status"] = status
	}
}

func serviceObject(selector map[string]interface{}) *unstructured.Unstructured {
	spec := map[string]interface{}{
		"ports": []interface{}{
			map[string]interface{}{"port": int64(80)},
		},
	}
	if selector != nil {
		spec["selector"] = selector
	}
	return &unstructured.Unstructured{Object: map[string]interface{}{
		"apiVersion": "v1",
		"kind":       "Service",
		"metadata": map[string]interface{}{
			"name":      "frontend",
			"namespace": "shipping",
		},
		"spec": spec,
	}}
}

func endpointsObject(addresses int) *unstructured.Unstructured {
	var addrs []interface{}
	for i := 0; i < addresses; i++ {
		addrs = append(addrs, map[string]interface{}{
			"ip": "10.0.0.1",
		})
	}
	subset := map[string]interface{}{
		"ports": []interface{}{
			map[string]interface{}{"port": int64(80)},
		},
	}
	if addrs != nil {
		subset["addresses"] = addrs
	}
	return &unstructured.Unstructured{Object: map[string]interface{}{
		"apiVersion": "v1",
		"kind":       "Endpoints",
		"metadata": map[string]interface{}{
			"name":      "frontend",
			"namespace": "shipping",
		},
		"subsets": []interface{}{subset},
	}}
}

func ingressObject(lbHosts ...string) *unstructured.Unstructured {
	obj := map[string]interface{}{
		"apiVersion": "networking.k8s.io/v1",
		"kind":       "Ingress",
		"metadata": map[string]interface{}{
			"name":      "frontend",
			"namespace": "shipping",
		},
	}
	if len(lbHosts) > 0 {
		var ingress []interface{}
		for _, h := range lbHosts {
			ingress = append(ingress, map[string]interface{}{"hostname": h})
		}
		obj["status"] = map[string]interface{}{
			"loadBalancer": map[string]interface{}{
				"ingress": ingress,
			},
		}
	}
	return &unstructured.Unstructured{Object: obj}
}

func configMapObject() *unstructured.Unstructured {
	return &unstructured.Unstructured{Object: map[string]interface{}{
		"apiVersion": "v1",
		"kind":       "ConfigMap",
		"metadata": map[string]interface{}{
			"name":      "settings",
			"namespace": "shipping",
		},
		"data": map[string]interface{}{
			"mode": "live",
		},
	}}
}

func anvilObject() *unstructured.Unstructured {
	gvk := kinds.Anvil()
	return &unstructured.Unstructured{Object: map[string]interface{}{
		"apiVersion": gvk.GroupVersion().String(),
		"kind":       gvk.Kind,
		"metadata": map[string]interface{}{
			"name":      "heavy",
			"namespace": "shipping",
		},
		"spec": map[string]interface{}{
			"lbs": int64(10),
		},
	}}
}

func jobObject(conditions ...map[string]interface{}) *unstructured.Unstructured {
	obj := map[string]interface{}{
		"apiVersion": "batch/v1",
		"kind":       "Job",
		"metadata": map[string]interface{}{
			"name":      "migrate",
			"namespace": "shipping",
		},
	}
	if len(conditions) > 0 {
		var cs []interface{}
		for _, c := range conditions {
			cs = append(cs, c)
		}
		obj["status"] = map[string]interface{}{
			"startTime":  "2022-04-02T10:00:00Z",
			"conditions": cs,
		}
	}
	return &unstructured.Unstructured{Object: obj}
}

func podObject(phase string, ready bool) *unstructured.Unstructured {
	readyStatus := "False"
	if ready {
		readyStatus = "True"
	}
	return &unstructured.Unstructured{Object: map[string]interface{}{
		"apiVersion": "v1",
		"kind":       "Pod",
		"metadata": map[string]interface{}{
			"name":      "worker",
			"namespace": "shipping",
		},
		"status": map[string]interface{}{
			"phase": phase,
			"conditions": []interface{}{
				map[string]interface{}{
					"type":   "Ready",
					"status": readyStatus,
				},
			},
		},
	}}
}

func TestEvaluate(t *testing.T) {
	readyDeployment := withStatus(map[string]interface{}{
		"replicas":          int64(3),
		"updatedReplicas":   int64(3),
		"readyReplicas":     int64(3),
		"availableReplicas": int64(3),
		"conditions": []interface{}{
			map[string]interface{}{
				"type":   "Progressing",
				"status": "True",
				"reason": "NewReplicaSetAvailable",
			},
			map[string]interface{}{
				"type":   "Available",
				"status": "True",
			},
		},
	})
	rollingDeployment := withStatus(map[string]interface{}{
		"replicas":          int64(3),
		"updatedReplicas":   int64(3),
		"readyReplicas":     int64(1),
		"availableReplicas": int64(1),
	})
	stalledDeployment := withStatus(map[string]interface{}{
		"replicas":          int64(3),
		"updatedReplicas":   int64(3),
		"readyReplicas":     int64(0),
		"availableReplicas": int64(0),
		"conditions": []interface{}{
			map[string]interface{}{
				"type":   "Progressing",
				"status": "False",
				"reason": "ProgressDeadlineExceeded",
			},
		},
	})

	testCases := []struct {
		name    string
		desired []*unstructured.Unstructured
		live    []*unstructured.Unstructured
		want    v1alpha1.HealthStatus
	}{
		{
			name:    "deployment fully rolled out",
			desired: []*unstructured.Unstructured{deploymentObject()},
			live:    []*unstructured.Unstructured{deploymentObject(readyDeployment)},
			want:    v1alpha1.HealthHealthy,
		},
		{
			name:    "deployment mid-rollout",
			desired: []*unstructured.Unstructured{deploymentObject()},
			live:    []*unstructured.Unstructured{deploymentObject(rollingDeployment)},
			want:    v1alpha1.HealthProgressing,
		},
		{
			name:    "deployment past its progress deadline",
			desired: []*unstructured.Unstructured{deploymentObject()},
			live:    []*unstructured.Unstructured{deploymentObject(stalledDeployment)},
			want:    v1alpha1.HealthDegraded,
		},
		{
			name:    "deployment being deleted",
			desired: []*unstructured.Unstructured{deploymentObject()},
			live: []*unstructured.Unstructured{deploymentObject(readyDeployment, func(obj map[string]interface{}) {
				metadata := obj["metadata"].(map[string]interface{})
				metadata["deletionTimestamp"] = "2022-04-02T10:00:00Z"
			})},
			want: v1alpha1.HealthProgressing,
		},
		{
			name:    "desired resource absent from cluster",
			desired: []*unstructured.Unstructured{deploymentObject()},
			live:    nil,
			want:    v1alpha1.HealthMissing,
		},
		{
			name:    "malformed live status",
			desired: []*unstructured.Unstructured{deploymentObject()},
			live: []*unstructured.Unstructured{deploymentObject(withStatus(map[string]interface{}{
				"conditions": "garbage",
			}))},
			want: v1alpha1.HealthUnknown,
		},
		{
			name:    "service with ready endpoints",
			desired: []*unstructured.Unstructured{serviceObject(map[string]interface{}{"app": "frontend"})},
			live: []*unstructured.Unstructured{
				serviceObject(map[string]interface{}{"app": "frontend"}),
				endpointsObject(2),
			},
			want: v1alpha1.HealthHealthy,
		},
		{
			name:    "service without endpoints",
			desired: []*unstructured.Unstructured{serviceObject(map[string]interface{}{"app": "frontend"})},
			live:    []*unstructured.Unstructured{serviceObject(map[string]interface{}{"app": "frontend"})},
			want:    v1alpha1.HealthProgressing,
		},
		{
			name:    "service with empty endpoints",
			desired: []*unstructured.Unstructured{serviceObject(map[string]interface{}{"app": "frontend"})},
			live: []*unstructured.Unstructured{
				serviceObject(map[string]interface{}{"app": "frontend"}),
				endpointsObject(0),
			},
			want: v1alpha1.HealthProgressing,
		},
		{
			name:    "selector-less service",
			desired: []*unstructured.Unstructured{serviceObject(nil)},
			live:    []*unstructured.Unstructured{serviceObject(nil)},
			want:    v1alpha1.HealthHealthy,
		},
		{
			name:    "ingress with load balancer",
			desired: []*unstructured.Unstructured{ingressObject()},
			live:    []*unstructured.Unstructured{ingressObject("lb.example.com")},
			want:    v1alpha1.HealthHealthy,
		},
		{
			name:    "ingress awaiting load balancer",
			desired: []*unstructured.Unstructured{ingressObject()},
			live:    []*unstructured.Unstructured{ingressObject()},
			want:    v1alpha1.HealthProgressing,
		},
		{
			name:    "kind without health rules",
			desired: []*unstructured.Unstructured{configMapObject()},
			live:    []*unstructured.Unstructured{configMapObject()},
			want:    v1alpha1.HealthHealthy,
		},
		{
			name:    "custom resource without health rules",
			desired: []*unstructured.Unstructured{anvilObject()},
			live:    []*unstructured.Unstructured{anvilObject()},
			want:    v1alpha1.HealthHealthy,
		},
		{
			name:    "completed job",
			desired: []*unstructured.Unstructured{jobObject()},
			live: []*unstructured.Unstructured{jobObject(map[string]interface{}{
				"type":   "Complete",
				"status": "True",
			})},
			want: v1alpha1.HealthHealthy,
		},
		{
			name:    "failed job",
			desired: []*unstructured.Unstructured{jobObject()},
			live: []*unstructured.Unstructured{jobObject(map[string]interface{}{
				"type":   "Failed",
				"status": "True",
				"reason": "BackoffLimitExceeded",
			})},
			want: v1alpha1.HealthDegraded,
		},
		{
			name:    "running pod",
			desired: []*unstructured.Unstructured{podObject("Running", true)},
			live:    []*unstructured.Unstructured{podObject("Running", true)},
			want:    v1alpha1.HealthHealthy,
		},
		{
			name: "worst status wins",
			desired: []*unstructured.Unstructured{
				configMapObject(),
				deploymentObject(),
				serviceObject(map[string]interface{}{"app": "frontend"}),
			},
			live: []*unstructured.Unstructured{
				configMapObject(),
				deploymentObject(stalledDeployment),
				serviceObject(map[string]interface{}{"app": "frontend"}),
			},
			want: v1alpha1.HealthDegraded,
		},
		{
			name:    "no resources",
			desired: nil,
			live:    nil,
			want:    v1alpha1.HealthHealthy,
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			results := Evaluate(tc.desired, tc.live)
			if len(results) != len(tc.desired) {
				t.Fatalf("got %d results for %d desired resources", len(results), len(tc.desired))
			}
			if got := Aggregate(results); got != tc.want {
				t.Errorf("got aggregate %q, want %q; results: %v", got, tc.want, results)
			}
		})
	}
}

func TestEvaluatePerResource(t *testing.T) {
	desired := []*unstructured.Unstructured{
		deploymentObject(),
		configMapObject(),
	}
	live := []*unstructured.Unstructured{
		configMapObject(),
	}

	got := Evaluate(desired, live)
	want := []Result{
		{
			ID: core.ID{
				GroupKind: kinds.Deployment().GroupKind(),
				ObjectKey: client.ObjectKey{Namespace: "shipping", Name: "frontend"},
			},
			Status:  v1alpha1.HealthMissing,
			Message: "resource not found on cluster",
		},
		{
			ID: core.ID{
				GroupKind: kinds.ConfigMap().GroupKind(),
				ObjectKey: client.ObjectKey{Namespace: "shipping", Name: "settings"},
			},
			Status: v1alpha1.HealthHealthy,
		},
	}

	ignoreMessages := cmp.Comparer(func(a, b Result) bool {
		if a.ID != b.ID || a.Status != b.Status {
			return false
		}
		// Only pin messages we author ourselves.
		if a.Status == v1alpha1.HealthMissing {
			return a.Message == b.Message
		}
		return true
	})
	if d := cmp.Diff(want, got, ignoreMessages); d != "" {
		t.Errorf("unexpected results: %s", d)
	}
}

func TestAggregate(t *testing.T) {
	testCases := []struct {
		name     string
		statuses []v1alpha1.HealthStatus
		want     v1alpha1.HealthStatus
	}{
		{
			name:     "empty",
			statuses: nil,
			want:     v1alpha1.HealthHealthy,
		},
		{
			name:     "all healthy",
			statuses: []v1alpha1.HealthStatus{v1alpha1.HealthHealthy, v1alpha1.HealthHealthy},
			want:     v1alpha1.HealthHealthy,
		},
		{
			name:     "degraded beats progressing",
			statuses: []v1alpha1.HealthStatus{v1alpha1.HealthProgressing, v1alpha1.HealthDegraded},
			want:     v1alpha1.HealthDegraded,
		},
		{
			name:     "progressing beats missing",
			statuses: []v1alpha1.HealthStatus{v1alpha1.HealthMissing, v1alpha1.HealthProgressing},
			want:     v1alpha1.HealthProgressing,
		},
		{
			name:     "missing beats unknown",
			statuses: []v1alpha1.HealthStatus{v1alpha1.HealthUnknown, v1alpha1.HealthMissing},
			want:     v1alpha1.HealthMissing,
		},
		{
			name:     "unknown beats healthy",
			statuses: []v1alpha1.HealthStatus{v1alpha1.HealthHealthy, v1alpha1.HealthUnknown},
			want:     v1alpha1.HealthUnknown,
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			var results []Result
			for _, s := range tc.statuses {
				results = append(results, Result{Status: s})
			}
			if got := Aggregate(results); got != tc.want {
				t.Errorf("got %q, want %q", got, tc.want)
			}
		})
	}
}
