package diff

import (
	"encoding/json"

	corev1 "k8s.io/api/core/v1"
	"k8s.io/apimachinery/pkg/api/equality"
	"k8s.io/apimachinery/pkg/apis/meta/v1/unstructured"

	"github.com/coxswain-dev/coxswain/pkg/metadata"
)

// equal reports whether a declared resource and its live counterpart are
// semantically the same. Two checks must both hold: every declared field is
// present on the live resource with the same value, and the declared content
// matches what was last applied (which covers fields removed from the
// declaration). Server-populated fields and the management metadata the
// applier stamps on every synced resource are scrubbed before comparing.
func equal(declared, live *unstructured.Unstructured) bool {
	scrubbedDeclared := scrub(declared)
	if !subset(scrubbedDeclared.Object, scrub(live).Object) {
		return false
	}

	applied := lastApplied(live)
	if applied == nil {
		// Not applied by us yet, e.g. an adopted resource. Apply it so the
		// live resource gains a last-applied configuration.
		return false
	}
	return equality.Semantic.DeepEqual(scrubbedDeclared.Object, scrub(applied).Object)
}

// scrub returns a copy of obj without the fields the API server or the
// applier populates on every object.
func scrub(obj *unstructured.Unstructured) *unstructured.Unstructured {
	result := obj.DeepCopy()
	unstructured.RemoveNestedField(result.Object, "status")
	unstructured.RemoveNestedField(result.Object, "metadata", "resourceVersion")
	unstructured.RemoveNestedField(result.Object, "metadata", "uid")
	unstructured.RemoveNestedField(result.Object, "metadata", "generation")
	unstructured.RemoveNestedField(result.Object, "metadata", "managedFields")
	unstructured.RemoveNestedField(result.Object, "metadata", "creationTimestamp")
	unstructured.RemoveNestedField(result.Object, "metadata", "selfLink")

	annotations := result.GetAnnotations()
	delete(annotations, corev1.LastAppliedConfigAnnotation)
	delete(annotations, metadata.RevisionAnnotationKey)
	if len(annotations) == 0 {
		unstructured.RemoveNestedField(result.Object, "metadata", "annotations")
	} else {
		result.SetAnnotations(annotations)
	}

	labels := result.GetLabels()
	delete(labels, metadata.ManagedByKey)
	delete(labels, metadata.ApplicationLabel)
	if len(labels) == 0 {
		unstructured.RemoveNestedField(result.Object, "metadata", "labels")
	} else {
		result.SetLabels(labels)
	}
	return result
}

// lastApplied returns the live resource's last-applied configuration, or nil
// if it has none.
func lastApplied(live *unstructured.Unstructured) *unstructured.Unstructured {
	content, found := live.GetAnnotations()[corev1.LastAppliedConfigAnnotation]
	if !found {
		return nil
	}
	u := &unstructured.Unstructured{}
	if err := json.Unmarshal([]byte(content), u); err != nil {
		return nil
	}
	return u
}

// subset reports whether every field of a is present in b with the same
// value. Lists compare pairwise and must have equal length.
func subset(a, b interface{}) bool {
	switch at := a.(type) {
	case map[string]interface{}:
		bt, ok := b.(map[string]interface{})
		if !ok {
			return false
		}
		for key, av := range at {
			bv, found := bt[key]
			if !found || !subset(av, bv) {
				return false
			}
		}
		return true
	case []interface{}:
		bt, ok := b.([]interface{})
		if !ok || len(at) != len(bt) {
			return false
		}
		for i := range at {
			if !subset(at[i], bt[i]) {
				return false
			}
		}
		return true
	default:
		return equality.Semantic.DeepEqual(a, b)
	}
}
