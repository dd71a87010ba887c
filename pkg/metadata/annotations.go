package metadata

import (
	"github.com/coxswain-dev/coxswain/pkg/api/gitops"
)

// Annotations with the `gitops.coxswain.dev/` prefix.
const (
	// SyncRequestAnnotationKey carries a serialized SyncRequest asking the
	// reconciler to run a sync outside the automated policy. Set by the CLI
	// and cleared by the reconciler once the result is recorded.
	SyncRequestAnnotationKey = gitops.ApplicationPrefix + "sync-requested"

	// RevisionAnnotationKey records the commit SHA a managed resource was
	// rendered from. Set by the applier on every create and update.
	RevisionAnnotationKey = gitops.ApplicationPrefix + "revision"
)

// ResourcesFinalizer blocks deletion of an Application until its managed
// resources have been deleted from the cluster.
const ResourcesFinalizer = "resources." + gitops.GroupName
