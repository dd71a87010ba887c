package status

import (
	"fmt"
	"sort"
	"strings"

	"sigs.k8s.io/controller-runtime/pkg/client"
)

// ResourceErrorCode is the error code for a generic ResourceError.
const ResourceErrorCode = "2010"

var resourceErrorBuilder = NewErrorBuilder(ResourceErrorCode)

// ResourceError defines a status error related to one or more k8s resources.
type ResourceError interface {
	Error
	Resources() []client.Object
}

// ResourceWrap returns a ResourceError wrapping the given error and Resources.
func ResourceWrap(err error, msg string, resources ...client.Object) Error {
	if err == nil {
		return nil
	}
	eb := resourceErrorBuilder.Sprint(msg).Wrap(err)
	if len(resources) == 0 {
		return eb.Build()
	}
	return eb.BuildWithResources(resources...)
}

// printResource returns a human-readable output for the resource.
func printResource(r client.Object) string {
	var sb strings.Builder
	if r.GetNamespace() != "" {
		sb.WriteString(fmt.Sprintf("namespace: %s\n", r.GetNamespace()))
	}
	sb.WriteString(fmt.Sprintf("metadata.name: %s\n", r.GetName()))
	gvk := r.GetObjectKind().GroupVersionKind()
	sb.WriteString(fmt.Sprintf("group: %s\n", gvk.Group))
	sb.WriteString(fmt.Sprintf("version: %s\n", gvk.Version))
	sb.WriteString(fmt.Sprintf("kind: %s", gvk.Kind))
	return sb.String()
}

// formatResources returns a formatted string containing all Resources in the
// ResourceError.
func formatResources(resources []client.Object) string {
	resStrs := make([]string, len(resources))
	for i, res := range resources {
		resStrs[i] = printResource(res)
	}
	// Sort to ensure deterministic resource printing order.
	sort.Strings(resStrs)
	return strings.Join(resStrs, "\n\n")
}
