// Package render expands an Application's kustomize entry point into the
// flat, ordered list of resource manifests to apply.
//
// The renderer interprets a subset of the kustomization format: resources
// (files and directories, recursively), patchesStrategicMerge, namespace,
// commonLabels, and commonAnnotations. Anything else in a kustomization
// fails the render rather than being silently dropped.
package render

import (
	"path"

	"k8s.io/apimachinery/pkg/apis/meta/v1/unstructured"
	"k8s.io/apimachinery/pkg/runtime/schema"

	"github.com/coxswain-dev/coxswain/pkg/core"
	"github.com/coxswain-dev/coxswain/pkg/kinds"
	"github.com/coxswain-dev/coxswain/pkg/status"
)

// Options locates the entry kustomization within a source tree and sets the
// destination namespace for the output.
type Options struct {
	// Path is the Application's directory within the repository.
	Path string

	// Overlay, when set, selects <path>/overlays/<overlay> as the entry
	// directory instead of <path>.
	Overlay string

	// Namespace is the destination namespace. It is set on namespaced
	// resources that do not declare one.
	Namespace string
}

// EntryDir returns the directory holding the entry kustomization, relative
// to the repository root.
func (o Options) EntryDir() string {
	dir := path.Join(o.Path)
	if o.Overlay != "" {
		dir = path.Join(o.Path, "overlays", o.Overlay)
	}
	if dir == "." {
		dir = ""
	}
	return dir
}

// Render expands the kustomization at the entry directory of tree into the
// resources to apply. tree maps repository-root-relative paths to file
// contents, as produced by source.ReadTree.
//
// Output order is kustomization declaration order, recursing into directory
// entries depth-first. Patches never reorder resources.
func Render(tree map[string][]byte, opts Options) ([]*unstructured.Unstructured, status.Error) {
	objs, err := accumulate(tree, opts.EntryDir(), make(map[string]bool))
	if err != nil {
		return nil, err
	}

	seen := make(map[core.ID]bool, len(objs))
	for _, obj := range objs {
		if opts.Namespace != "" && obj.GetNamespace() == "" && !isClusterScoped(obj.GroupVersionKind().GroupKind()) {
			obj.SetNamespace(opts.Namespace)
		}

		id := core.IDOf(obj)
		if seen[id] {
			return nil, RenderError("resource %s is declared more than once", id.String())
		}
		seen[id] = true
	}
	return objs, nil
}

// clusterScoped lists the kinds the renderer never namespaces. Unknown kinds
// are assumed namespaced.
var clusterScoped = map[schema.GroupKind]bool{
	kinds.Namespace().GroupKind():          true,
	kinds.Node().GroupKind():               true,
	kinds.PersistentVolume().GroupKind():   true,
	kinds.ClusterRole().GroupKind():        true,
	kinds.ClusterRoleBinding().GroupKind(): true,
	kinds.StorageClass().GroupKind():       true,
	kinds.PriorityClass().GroupKind():      true,
	kinds.CustomResourceDefinition():       true,
}

func isClusterScoped(gk schema.GroupKind) bool {
	return clusterScoped[gk]
}
