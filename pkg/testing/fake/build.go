package fake

import (
	metav1 "k8s.io/apimachinery/pkg/apis/meta/v1"
	"k8s.io/apimachinery/pkg/apis/meta/v1/unstructured"
	"k8s.io/apimachinery/pkg/runtime/schema"

	"github.com/coxswain-dev/coxswain/pkg/core"
)

// defaultMutations are the standard Meta set on all fake objects. All can be
// overwritten with mutators.
//
// Annotations and Labels are required when constructing any Object as the
// underlying implementations outside of our control handle empty vs nil maps
// inconsistently. Explicitly setting labels and annotations to the empty map
// circumvents the issue.
var defaultMutations = []core.MetaMutator{
	core.Name("default-name"),
	core.Annotations(map[string]string{}),
	core.Labels(map[string]string{}),
}

func defaultMutate(object core.Object) {
	for _, m := range defaultMutations {
		m(object)
	}
}

func mutate(object core.Object, opts ...core.MetaMutator) {
	for _, m := range opts {
		m(object)
	}
}

// ToTypeMeta returns the TypeMeta corresponding to a GroupVersionKind.
func ToTypeMeta(gvk schema.GroupVersionKind) metav1.TypeMeta {
	return metav1.TypeMeta{
		APIVersion: gvk.GroupVersion().String(),
		Kind:       gvk.Kind,
	}
}

// UnstructuredObject initializes an unstructured.Unstructured.
func UnstructuredObject(gvk schema.GroupVersionKind, opts ...core.MetaMutator) *unstructured.Unstructured {
	o := &unstructured.Unstructured{}
	o.GetObjectKind().SetGroupVersionKind(gvk)

	defaultMutate(o)
	mutate(o, opts...)
	return o
}
