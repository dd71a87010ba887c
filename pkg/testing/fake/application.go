package fake

import (
	"github.com/coxswain-dev/coxswain/pkg/api/gitops"
	"github.com/coxswain-dev/coxswain/pkg/api/gitops/v1alpha1"
	"github.com/coxswain-dev/coxswain/pkg/core"
	"github.com/coxswain-dev/coxswain/pkg/kinds"
)

// ApplicationObject initializes an Application in the controller namespace.
func ApplicationObject(opts ...core.MetaMutator) *v1alpha1.Application {
	result := &v1alpha1.Application{TypeMeta: ToTypeMeta(kinds.Application())}
	defaultMutate(result)
	mutate(result, core.Namespace(gitops.ControllerNamespace))
	mutate(result, opts...)

	return result
}
