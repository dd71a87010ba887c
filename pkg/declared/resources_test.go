package declared

import (
	"testing"

	"k8s.io/apimachinery/pkg/apis/meta/v1/unstructured"
	"k8s.io/apimachinery/pkg/runtime/schema"

	"github.com/coxswain-dev/coxswain/pkg/core"
	"github.com/coxswain-dev/coxswain/pkg/kinds"
)

func asUnstructured(gvk schema.GroupVersionKind, namespace, name string) *unstructured.Unstructured {
	u := &unstructured.Unstructured{}
	u.SetGroupVersionKind(gvk)
	u.SetNamespace(namespace)
	u.SetName(name)
	return u
}

func TestResources(t *testing.T) {
	resources := NewResources()

	deployment := asUnstructured(kinds.Deployment(), "prod", "guestbook")
	service := asUnstructured(kinds.Service(), "prod", "guestbook")
	resources.Update("guestbook", []*unstructured.Unstructured{deployment, service})
	resources.Update("redis", []*unstructured.Unstructured{
		asUnstructured(kinds.StatefulSet(), "prod", "redis"),
	})

	if _, ok := resources.Get("guestbook", core.IDOf(deployment)); !ok {
		t.Error("got Get() not found, want the declared Deployment")
	}
	if _, ok := resources.Get("redis", core.IDOf(deployment)); ok {
		t.Error("got Get() found for the wrong Application, want not found")
	}

	appName, ok := resources.AppFor(core.IDOf(service))
	if !ok || appName != "guestbook" {
		t.Errorf("got AppFor() = %q, %t, want %q, true", appName, ok, "guestbook")
	}

	gkSet := resources.GroupKinds()
	for _, gvk := range []schema.GroupVersionKind{kinds.Deployment(), kinds.Service(), kinds.StatefulSet()} {
		if _, ok := gkSet[gvk.GroupKind()]; !ok {
			t.Errorf("got GroupKinds() missing %v", gvk.GroupKind())
		}
	}

	// An update replaces the previous set.
	resources.Update("guestbook", []*unstructured.Unstructured{deployment})
	if _, ok := resources.AppFor(core.IDOf(service)); ok {
		t.Error("got AppFor() found after the Service was undeclared, want not found")
	}

	resources.Delete("guestbook")
	if _, ok := resources.Get("guestbook", core.IDOf(deployment)); ok {
		t.Error("got Get() found after the Application was deleted, want not found")
	}
}
