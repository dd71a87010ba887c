package render

import (
	"path"
	"strings"

	"k8s.io/apimachinery/pkg/apis/meta/v1/unstructured"
	ktypes "sigs.k8s.io/kustomize/api/types"
	"sigs.k8s.io/yaml"

	"github.com/coxswain-dev/coxswain/pkg/core"
	"github.com/coxswain-dev/coxswain/pkg/status"
)

// kustomizationNames are the file names recognized as a kustomization entry
// point, in lookup order.
var kustomizationNames = []string{"kustomization.yaml", "kustomization.yml"}

func findKustomization(tree map[string][]byte, dir string) (string, bool) {
	for _, name := range kustomizationNames {
		kPath := path.Join(dir, name)
		if _, ok := tree[kPath]; ok {
			return kPath, true
		}
	}
	return "", false
}

func loadKustomization(tree map[string][]byte, dir string) (*ktypes.Kustomization, string, status.Error) {
	kPath, ok := findKustomization(tree, dir)
	if !ok {
		return nil, "", RenderError("no kustomization file in directory %q", displayDir(dir))
	}

	var k ktypes.Kustomization
	if err := yaml.Unmarshal(tree[kPath], &k); err != nil {
		return nil, "", renderErrorBuilder.Wrap(err).
			Sprintf("invalid kustomization").
			BuildWithPaths(kPath)
	}
	k.FixKustomizationPostUnmarshalling()

	if fields := unsupportedFields(&k); len(fields) > 0 {
		return nil, "", renderErrorBuilder.
			Sprintf("unsupported kustomization fields: %s", strings.Join(fields, ", ")).
			BuildWithPaths(kPath)
	}
	return &k, kPath, nil
}

// unsupportedFields returns the names of kustomization fields the renderer
// does not interpret. Rendering fails rather than silently dropping them.
func unsupportedFields(k *ktypes.Kustomization) []string {
	var fields []string
	add := func(name string, used bool) {
		if used {
			fields = append(fields, name)
		}
	}
	add("namePrefix", k.NamePrefix != "")
	add("nameSuffix", k.NameSuffix != "")
	add("patches", len(k.Patches) > 0)
	add("patchesJson6902", len(k.PatchesJson6902) > 0)
	add("configMapGenerator", len(k.ConfigMapGenerator) > 0)
	add("secretGenerator", len(k.SecretGenerator) > 0)
	add("helmCharts", len(k.HelmCharts) > 0)
	add("images", len(k.Images) > 0)
	add("replicas", len(k.Replicas) > 0)
	add("vars", len(k.Vars) > 0)
	add("components", len(k.Components) > 0)
	add("crds", len(k.Crds) > 0)
	add("generators", len(k.Generators) > 0)
	add("transformers", len(k.Transformers) > 0)
	return fields
}

// accumulate loads the kustomization in dir, resolves its resource entries
// depth-first in declaration order, applies its strategic-merge patches, and
// applies its namespace and common metadata.
func accumulate(tree map[string][]byte, dir string, visiting map[string]bool) ([]*unstructured.Unstructured, status.Error) {
	if visiting[dir] {
		return nil, RenderError("kustomization directory %q includes itself through its resources", displayDir(dir))
	}
	visiting[dir] = true
	defer delete(visiting, dir)

	k, kPath, err := loadKustomization(tree, dir)
	if err != nil {
		return nil, err
	}

	var objs []*unstructured.Unstructured
	for _, entry := range k.Resources {
		entryPath, pathErr := resolveEntry(dir, entry)
		if pathErr != nil {
			return nil, pathErr
		}
		switch {
		case fileExists(tree, entryPath):
			parsed, err := ParseFile(entryPath, tree[entryPath])
			if err != nil {
				return nil, err
			}
			objs = append(objs, parsed...)
		case dirExists(tree, entryPath):
			sub, err := accumulate(tree, entryPath, visiting)
			if err != nil {
				return nil, err
			}
			objs = append(objs, sub...)
		default:
			return nil, renderErrorBuilder.
				Sprintf("resource entry %q matches no file or directory in the repository", entry).
				BuildWithPaths(kPath)
		}
	}

	objs, err = applyPatches(tree, dir, kPath, k, objs)
	if err != nil {
		return nil, err
	}

	applyCommon(objs, k)
	return objs, nil
}

// resolveEntry resolves a resource or patch entry relative to the
// kustomization's directory. Entries may step up with ".." (overlays
// referencing their base) but not out of the repository.
func resolveEntry(dir, entry string) (string, status.Error) {
	resolved := path.Join(dir, entry)
	if resolved == ".." || strings.HasPrefix(resolved, "../") {
		return "", RenderError("entry %q resolves outside the repository", entry)
	}
	if resolved == "." {
		resolved = ""
	}
	return resolved, nil
}

func fileExists(tree map[string][]byte, filePath string) bool {
	_, ok := tree[filePath]
	return ok
}

func dirExists(tree map[string][]byte, dir string) bool {
	if dir == "" {
		return len(tree) > 0
	}
	prefix := dir + "/"
	for filePath := range tree {
		if strings.HasPrefix(filePath, prefix) {
			return true
		}
	}
	return false
}

func displayDir(dir string) string {
	if dir == "" {
		return "."
	}
	return dir
}

func applyPatches(tree map[string][]byte, dir, kPath string, k *ktypes.Kustomization, objs []*unstructured.Unstructured) ([]*unstructured.Unstructured, status.Error) {
	for _, patchEntry := range k.PatchesStrategicMerge {
		patchPath, pathErr := resolveEntry(dir, string(patchEntry))
		if pathErr != nil {
			return nil, pathErr
		}
		contents, ok := tree[patchPath]
		if !ok {
			return nil, renderErrorBuilder.
				Sprintf("patch entry %q matches no file in the repository", string(patchEntry)).
				BuildWithPaths(kPath)
		}
		docs, err := ParseFile(patchPath, contents)
		if err != nil {
			return nil, err
		}
		for _, doc := range docs {
			objs, err = applyPatch(objs, doc, patchPath)
			if err != nil {
				return nil, err
			}
		}
	}
	return objs, nil
}

// applyPatch merges a single patch document into the resource it targets.
// The target is the resource with the same group, kind, and name; the
// patch's namespace, when set, must match as well. Patching a resource that
// is not in the accumulated set is an error.
func applyPatch(objs []*unstructured.Unstructured, patch *unstructured.Unstructured, patchPath string) ([]*unstructured.Unstructured, status.Error) {
	if patch.GetKind() == "" || patch.GetName() == "" {
		return nil, renderErrorBuilder.
			Sprintf("patch document must declare kind and metadata.name").
			BuildWithPaths(patchPath)
	}

	gk := patch.GroupVersionKind().GroupKind()
	index := -1
	for i, obj := range objs {
		if obj.GroupVersionKind().GroupKind() != gk || obj.GetName() != patch.GetName() {
			continue
		}
		if ns := patch.GetNamespace(); ns != "" && obj.GetNamespace() != ns {
			continue
		}
		index = i
		break
	}
	if index < 0 {
		return nil, renderErrorBuilder.
			Sprintf("patch targets %s %q which is not in the rendered resources", gk.String(), patch.GetName()).
			BuildWithPaths(patchPath)
	}

	merged, err := mergeMaps(objs[index].Object, patch.Object, "")
	if err != nil {
		return nil, err
	}
	objs[index] = &unstructured.Unstructured{Object: merged}
	return objs, nil
}

func applyCommon(objs []*unstructured.Unstructured, k *ktypes.Kustomization) {
	for _, obj := range objs {
		if k.Namespace != "" && !isClusterScoped(obj.GroupVersionKind().GroupKind()) {
			obj.SetNamespace(k.Namespace)
		}
		if len(k.CommonLabels) > 0 {
			core.AddLabels(obj, k.CommonLabels)
		}
		if len(k.CommonAnnotations) > 0 {
			core.AddAnnotations(obj, k.CommonAnnotations)
		}
	}
}
