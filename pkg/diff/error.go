package diff

import (
	"sigs.k8s.io/controller-runtime/pkg/client"

	"github.com/coxswain-dev/coxswain/pkg/status"
)

// DiffErrorCode is the error code for malformed live state encountered while
// computing a diff.
const DiffErrorCode = "2005"

var diffErrorBuilder = status.NewErrorBuilder(DiffErrorCode)

// MalformedLiveResource reports a live resource that cannot be diffed because
// its identity is incomplete.
func MalformedLiveResource(obj client.Object) status.ResourceError {
	return diffErrorBuilder.Sprint("live resource is missing kind or name").BuildWithResources(obj)
}
