// Package declared tracks the most recently rendered resource set of each
// Application, so drift watch events can be matched back to the Application
// that declares the resource.
package declared

import (
	"sync"

	"k8s.io/apimachinery/pkg/apis/meta/v1/unstructured"
	"k8s.io/apimachinery/pkg/runtime/schema"

	"github.com/coxswain-dev/coxswain/pkg/core"
)

// Resources holds the declared resource sets of all Applications. It is safe
// for concurrent use.
type Resources struct {
	mutex sync.RWMutex
	// objectSets maps Application name to its declared resources by ID.
	objectSets map[string]map[core.ID]*unstructured.Unstructured
}

// NewResources creates an empty Resources.
func NewResources() *Resources {
	return &Resources{
		objectSets: make(map[string]map[core.ID]*unstructured.Unstructured),
	}
}

// Update atomically replaces the declared resource set of an Application.
func (r *Resources) Update(appName string, objects []*unstructured.Unstructured) {
	newSet := make(map[core.ID]*unstructured.Unstructured, len(objects))
	for _, obj := range objects {
		newSet[core.IDOf(obj)] = obj
	}

	r.mutex.Lock()
	r.objectSets[appName] = newSet
	r.mutex.Unlock()
}

// Delete drops the declared resource set of an Application.
func (r *Resources) Delete(appName string) {
	r.mutex.Lock()
	delete(r.objectSets, appName)
	r.mutex.Unlock()
}

// Get returns the declaration of the identified resource for an Application.
func (r *Resources) Get(appName string, id core.ID) (*unstructured.Unstructured, bool) {
	r.mutex.RLock()
	defer r.mutex.RUnlock()

	obj, ok := r.objectSets[appName][id]
	return obj, ok
}

// AppFor returns the name of the Application declaring the identified
// resource, if any.
func (r *Resources) AppFor(id core.ID) (string, bool) {
	r.mutex.RLock()
	defer r.mutex.RUnlock()

	for appName, objectSet := range r.objectSets {
		if _, ok := objectSet[id]; ok {
			return appName, true
		}
	}
	return "", false
}

// GroupKinds returns the set of GroupKinds declared across all Applications.
func (r *Resources) GroupKinds() map[schema.GroupKind]struct{} {
	r.mutex.RLock()
	defer r.mutex.RUnlock()

	gkSet := make(map[schema.GroupKind]struct{})
	for _, objectSet := range r.objectSets {
		for id := range objectSet {
			gkSet[id.GroupKind] = struct{}{}
		}
	}
	return gkSet
}

// GVKs returns the set of GroupVersionKinds declared across all Applications,
// as rendered. This is the set of types the drift watchers need to cover.
func (r *Resources) GVKs() map[schema.GroupVersionKind]struct{} {
	r.mutex.RLock()
	defer r.mutex.RUnlock()

	gvkSet := make(map[schema.GroupVersionKind]struct{})
	for _, objectSet := range r.objectSets {
		for _, obj := range objectSet {
			gvkSet[obj.GroupVersionKind()] = struct{}{}
		}
	}
	return gvkSet
}
