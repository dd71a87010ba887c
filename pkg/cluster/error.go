package cluster

import (
	"k8s.io/apimachinery/pkg/runtime/schema"

	"github.com/coxswain-dev/coxswain/pkg/status"
)

// FailedToListResourcesCode is the code that represents a failure to list the
// live resources of a managed GroupVersionKind.
const FailedToListResourcesCode = "2007"

var failedToListResourcesBuilder = status.NewErrorBuilder(FailedToListResourcesCode)

// FailedToListResources reports that the live resources of a managed
// GroupVersionKind could not be read from the cluster, and returns the
// underlying error.
func FailedToListResources(reason error, gvk schema.GroupVersionKind) status.Error {
	return failedToListResourcesBuilder.Wrap(reason).
		Sprintf("failed to list %s resources", gvk.GroupKind()).
		Build()
}
