package metadata

import (
	"github.com/coxswain-dev/coxswain/pkg/api/gitops"
	"github.com/coxswain-dev/coxswain/pkg/core"
)

// ManagedByKey is the recommended Kubernetes label for marking a resource as
// managed by an application.
const ManagedByKey = "app.kubernetes.io/managed-by"

// ManagedByValue marks the resource as managed by coxswain.
const ManagedByValue = "coxswain"

// ApplicationLabel records which Application a managed resource was rendered
// from. The applier refuses to touch live resources carrying a different
// Application's value, and prune only considers resources carrying the
// syncing Application's value.
const ApplicationLabel = gitops.ApplicationPrefix + "application"

// ManagedLabels returns the labels stamped onto every resource the applier
// creates or updates on behalf of the named Application.
func ManagedLabels(appName string) map[string]string {
	return map[string]string{
		ManagedByKey:     ManagedByValue,
		ApplicationLabel: appName,
	}
}

// IsManaged returns true if the object carries the coxswain managed-by label.
func IsManaged(obj core.Object) bool {
	return core.GetLabel(obj, ManagedByKey) == ManagedByValue
}

// ApplicationOf returns the name of the Application managing the object, or
// the empty string if the object is unmanaged.
func ApplicationOf(obj core.Object) string {
	return core.GetLabel(obj, ApplicationLabel)
}

// ManagedBy returns true if the object is managed by the named Application.
func ManagedBy(obj core.Object, appName string) bool {
	return ApplicationOf(obj) == appName
}
