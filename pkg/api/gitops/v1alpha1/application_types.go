package v1alpha1

import (
	metav1 "k8s.io/apimachinery/pkg/apis/meta/v1"
)

// +kubebuilder:object:root=true
// +kubebuilder:subresource:status
// +kubebuilder:resource:path=applications,shortName=app
// +kubebuilder:printcolumn:name="Sync",type="string",JSONPath=".status.sync.status"
// +kubebuilder:printcolumn:name="Health",type="string",JSONPath=".status.health"
// +kubebuilder:printcolumn:name="Revision",type="string",JSONPath=".status.observedRevision"

// Application declares a set of Kubernetes resources rendered from a Git
// repository and continuously reconciled onto the cluster.
type Application struct {
	metav1.TypeMeta   `json:",inline"`
	metav1.ObjectMeta `json:"metadata,omitempty"`

	Spec ApplicationSpec `json:"spec,omitempty"`

	// +optional
	Status ApplicationStatus `json:"status,omitempty"`
}

// ApplicationSpec defines the desired state of an Application.
type ApplicationSpec struct {
	// source describes where and how to fetch the desired state.
	Source Source `json:"source"`

	// destination describes defaults applied to rendered resources.
	// +optional
	Destination Destination `json:"destination,omitempty"`

	// syncPolicy controls when rendered resources are applied to the cluster.
	// An empty policy means syncs only run when explicitly requested.
	// +optional
	SyncPolicy SyncPolicy `json:"syncPolicy,omitempty"`
}

// Source describes a directory of manifests within a Git repository.
type Source struct {
	// repoURL is the URL of the Git repository holding the manifests.
	RepoURL string `json:"repoURL"`

	// revision is the branch, tag, or commit SHA to track. Defaults to the
	// repository's default branch head.
	// +optional
	Revision string `json:"revision,omitempty"`

	// path is the directory within the repository holding the manifests,
	// relative to the repository root. Defaults to the root.
	// +optional
	Path string `json:"path,omitempty"`

	// overlay selects an environment overlay under <path>/overlays/<overlay>.
	// When unset, <path> itself is rendered.
	// +optional
	Overlay string `json:"overlay,omitempty"`
}

// Destination describes defaults applied to rendered resources.
type Destination struct {
	// namespace is assigned to namespaced resources that do not declare one.
	// +optional
	Namespace string `json:"namespace,omitempty"`
}

// SyncPolicy controls when rendered resources are applied to the cluster.
type SyncPolicy struct {
	// automated enables applying new revisions without an explicit request.
	// +optional
	Automated bool `json:"automated,omitempty"`

	// selfHeal enables reverting detected drift between the live cluster
	// state and the rendered state. Only meaningful with automated.
	// +optional
	SelfHeal bool `json:"selfHeal,omitempty"`

	// prune enables deletion of managed resources that are no longer
	// rendered from the source.
	// +optional
	Prune bool `json:"prune,omitempty"`
}

// SyncStatusCode describes whether the live cluster state matches the
// rendered state.
type SyncStatusCode string

const (
	// SyncStatusSynced means the live state matched the rendered state when
	// last compared.
	SyncStatusSynced SyncStatusCode = "Synced"
	// SyncStatusOutOfSync means the live state diverged from the rendered
	// state when last compared.
	SyncStatusOutOfSync SyncStatusCode = "OutOfSync"
	// SyncStatusUnknown means the comparison could not be completed.
	SyncStatusUnknown SyncStatusCode = "Unknown"
)

// HealthStatus describes the observed health of a resource or Application.
type HealthStatus string

const (
	// HealthHealthy means the resource matches its desired state and passes
	// its kind-specific health checks.
	HealthHealthy HealthStatus = "Healthy"
	// HealthProgressing means the resource is converging toward a healthy
	// state.
	HealthProgressing HealthStatus = "Progressing"
	// HealthDegraded means the resource reports a failure condition.
	HealthDegraded HealthStatus = "Degraded"
	// HealthMissing means the resource is desired but absent from the
	// cluster.
	HealthMissing HealthStatus = "Missing"
	// HealthUnknown means health could not be determined.
	HealthUnknown HealthStatus = "Unknown"
)

// ApplicationStatus defines the observed state of an Application.
type ApplicationStatus struct {
	// observedGeneration is the most recent generation observed by the
	// reconciler.
	// +optional
	ObservedGeneration int64 `json:"observedGeneration,omitempty"`

	// observedRevision is the commit SHA most recently resolved from the
	// source.
	// +optional
	ObservedRevision string `json:"observedRevision,omitempty"`

	// health is the aggregated health of all resources rendered from the
	// source.
	// +optional
	Health HealthStatus `json:"health,omitempty"`

	// sync describes how the live state compared to the rendered state when
	// last evaluated.
	// +optional
	Sync SyncState `json:"sync,omitempty"`

	// lastSyncResult records the outcome of the most recent sync attempt.
	// +nullable
	// +optional
	LastSyncResult *SyncResult `json:"lastSyncResult,omitempty"`

	// errors is a list of problems encountered during the most recent
	// reconciliation pass.
	// +optional
	Errors []AppError `json:"errors,omitempty"`
}

// SyncState describes the comparison between live and rendered state.
type SyncState struct {
	// status is the comparison outcome.
	// +optional
	Status SyncStatusCode `json:"status,omitempty"`

	// revision is the commit SHA the comparison was performed against.
	// +optional
	Revision string `json:"revision,omitempty"`
}

// SyncResultStatus is the overall outcome of a sync attempt.
type SyncResultStatus string

const (
	// SyncResultSucceeded means every resource was actuated successfully.
	SyncResultSucceeded SyncResultStatus = "Succeeded"
	// SyncResultFailed means at least one resource failed to actuate.
	SyncResultFailed SyncResultStatus = "Failed"
)

// SyncResult records the outcome of a single sync attempt.
type SyncResult struct {
	// id echoes the request token for syncs triggered explicitly, so callers
	// can match a result to their request. Empty for automated syncs.
	// +optional
	ID string `json:"id,omitempty"`

	// revision is the commit SHA that was applied.
	Revision string `json:"revision,omitempty"`

	// dryRun is true if the sync was evaluated without touching the cluster.
	// +optional
	DryRun bool `json:"dryRun,omitempty"`

	// startedAt is when the sync attempt began.
	// +nullable
	// +optional
	StartedAt metav1.Time `json:"startedAt,omitempty"`

	// finishedAt is when the sync attempt completed.
	// +nullable
	// +optional
	FinishedAt metav1.Time `json:"finishedAt,omitempty"`

	// status is the overall outcome.
	Status SyncResultStatus `json:"status,omitempty"`

	// message summarizes the outcome in human-readable form.
	// +optional
	Message string `json:"message,omitempty"`

	// resources holds the per-resource outcomes in actuation order.
	// +optional
	Resources []ResourceResult `json:"resources,omitempty"`
}

// ResourceAction is the operation a sync performed on one resource.
type ResourceAction string

const (
	// ActionCreate means the resource was absent and was created.
	ActionCreate ResourceAction = "Create"
	// ActionUpdate means the resource existed and was patched.
	ActionUpdate ResourceAction = "Update"
	// ActionDelete means the resource was pruned.
	ActionDelete ResourceAction = "Delete"
	// ActionNone means the resource already matched the rendered state.
	ActionNone ResourceAction = "None"
)

// ResourceResultStatus is the per-resource outcome of a sync.
type ResourceResultStatus string

const (
	// ResourceResultApplied means the action completed successfully.
	ResourceResultApplied ResourceResultStatus = "Applied"
	// ResourceResultFailed means the action failed after exhausting retries.
	ResourceResultFailed ResourceResultStatus = "Failed"
	// ResourceResultSkipped means the action was not attempted because an
	// earlier resource failed permanently.
	ResourceResultSkipped ResourceResultStatus = "Skipped"
)

// ResourceResult records the outcome of a sync for one resource.
type ResourceResult struct {
	Group     string `json:"group,omitempty"`
	Kind      string `json:"kind,omitempty"`
	Namespace string `json:"namespace,omitempty"`
	Name      string `json:"name,omitempty"`

	// action is the operation the sync performed.
	Action ResourceAction `json:"action,omitempty"`

	// status is the outcome of the action.
	Status ResourceResultStatus `json:"status,omitempty"`

	// message holds failure detail when status is Failed.
	// +optional
	Message string `json:"message,omitempty"`
}

// AppError represents a problem encountered during reconciliation.
type AppError struct {
	// code is a stable machine-readable error code.
	Code string `json:"code"`

	// message is a human-readable description of the problem.
	Message string `json:"message"`
}

// +kubebuilder:object:root=true

// ApplicationList contains a list of Application.
type ApplicationList struct {
	metav1.TypeMeta `json:",inline"`
	metav1.ListMeta `json:"metadata,omitempty"`
	Items           []Application `json:"items"`
}
