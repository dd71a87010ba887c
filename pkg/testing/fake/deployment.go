package fake

import (
	appsv1 "k8s.io/api/apps/v1"

	"github.com/coxswain-dev/coxswain/pkg/core"
	"github.com/coxswain-dev/coxswain/pkg/kinds"
)

// DeploymentObject initializes a Deployment.
func DeploymentObject(opts ...core.MetaMutator) *appsv1.Deployment {
	result := &appsv1.Deployment{TypeMeta: ToTypeMeta(kinds.Deployment())}
	defaultMutate(result)
	mutate(result, opts...)

	return result
}
