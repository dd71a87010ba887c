// Package diff compares rendered desired state against a live cluster
// snapshot and produces the ordered operations that reconcile them.
package diff

import (
	"sort"

	"k8s.io/apimachinery/pkg/apis/meta/v1/unstructured"

	"github.com/coxswain-dev/coxswain/pkg/core"
	"github.com/coxswain-dev/coxswain/pkg/kinds"
	"github.com/coxswain-dev/coxswain/pkg/metadata"
	"github.com/coxswain-dev/coxswain/pkg/status"
)

// Type indicates the operation required to reconcile a resource.
type Type string

const (
	// NoOp indicates that no action should be taken.
	NoOp = Type("no-op")

	// Create indicates the resource should be created.
	Create = Type("create")

	// Update indicates the resource is declared and is on the API server
	// with a semantic difference, so we should calculate a patch and apply
	// it.
	Update = Type("update")

	// Delete indicates the resource should be deleted.
	Delete = Type("delete")
)

// Entry is a single resource operation in a computed diff.
type Entry struct {
	// ID identifies the resource by group, kind, namespace, and name.
	ID core.ID

	// Type is the operation that reconciles declared and live state.
	Type Type

	// Declared is the rendered resource. Nil for delete entries.
	Declared *unstructured.Unstructured

	// Live is the resource in the cluster snapshot. Nil for create entries.
	Live *unstructured.Unstructured

	// Orphaned marks a live resource that is labeled for the Application
	// but no longer declared, while pruning is disabled.
	Orphaned bool
}

// Diffs compares declared resources against a live cluster snapshot and
// returns the operations that reconcile them, in apply order: Namespaces
// first, then the remaining declared resources in declaration order, deletes
// last with Namespaces at the very end.
//
// Live resources labeled for appName but no longer declared become delete
// entries when prune is true, and orphaned no-op entries otherwise. Live
// resources without this Application's label are never touched.
//
// Malformed live resources (missing kind or name) are skipped, each reported
// in the returned MultiError. The entries for everything else are still
// produced.
func Diffs(appName string, declared, live []*unstructured.Unstructured, prune bool) ([]Entry, status.MultiError) {
	var errs status.MultiError

	liveMap := make(map[core.ID]*unstructured.Unstructured, len(live))
	for _, obj := range live {
		if obj.GetKind() == "" || obj.GetName() == "" {
			errs = status.Append(errs, MalformedLiveResource(obj))
			continue
		}
		liveMap[core.IDOf(obj)] = obj
	}

	var namespaces, rest, deletes []Entry
	declaredIDs := make(map[core.ID]bool, len(declared))
	for _, obj := range declared {
		id := core.IDOf(obj)
		declaredIDs[id] = true

		entry := Entry{ID: id, Declared: obj}
		liveObj, found := liveMap[id]
		switch {
		case !found:
			entry.Type = Create
		case equal(obj, liveObj):
			entry.Type = NoOp
			entry.Live = liveObj
		default:
			entry.Type = Update
			entry.Live = liveObj
		}

		if isNamespace(id) {
			namespaces = append(namespaces, entry)
		} else {
			rest = append(rest, entry)
		}
	}

	for id, liveObj := range liveMap {
		if declaredIDs[id] || !metadata.ManagedBy(liveObj, appName) {
			continue
		}
		entry := Entry{ID: id, Live: liveObj}
		if prune {
			entry.Type = Delete
		} else {
			entry.Type = NoOp
			entry.Orphaned = true
		}
		deletes = append(deletes, entry)
	}
	sort.Slice(deletes, func(i, j int) bool {
		if ni, nj := isNamespace(deletes[i].ID), isNamespace(deletes[j].ID); ni != nj {
			return nj
		}
		return deletes[i].ID.String() < deletes[j].ID.String()
	})

	entries := make([]Entry, 0, len(namespaces)+len(rest)+len(deletes))
	entries = append(entries, namespaces...)
	entries = append(entries, rest...)
	entries = append(entries, deletes...)
	return entries, errs
}

func isNamespace(id core.ID) bool {
	return id.GroupKind == kinds.Namespace().GroupKind()
}
