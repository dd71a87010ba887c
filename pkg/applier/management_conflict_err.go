package applier

import (
	"sigs.k8s.io/controller-runtime/pkg/client"

	"github.com/coxswain-dev/coxswain/pkg/metadata"
	"github.com/coxswain-dev/coxswain/pkg/status"
)

// ManagementConflictErrorCode is the error code for management conflict errors.
const ManagementConflictErrorCode = "1060"

var managementConflictErrorBuilder = status.NewErrorBuilder(ManagementConflictErrorCode)

// ManagementConflictError indicates that the resource is already managed by a
// different Application, so this Application must not actuate it.
func ManagementConflictError(resource client.Object) status.Error {
	return managementConflictErrorBuilder.
		Sprintf("The resource is managed by Application %q. "+
			"Remove the declaration for this resource from either Application's manifests.",
			resource.GetLabels()[metadata.ApplicationLabel]).
		BuildWithResources(resource)
}
