package gitops

import "time"

const (
	// GroupName is the name of the group of coxswain resources.
	GroupName = "gitops.coxswain.dev"

	// ApplicationPrefix is the prefix for all coxswain annotations and labels.
	ApplicationPrefix = GroupName + "/"

	// ControllerNamespace is the Namespace used for coxswain controllers.
	ControllerNamespace = "coxswain-system"
)

const (
	// DefaultPollingPeriod specifies time between checking the source
	// repository for new revisions.
	DefaultPollingPeriod = 15 * time.Second

	// DefaultResyncPeriod specifies time between forced full re-applies of an
	// Application, even when its revision has not changed.
	DefaultResyncPeriod = 1 * time.Hour
)
