// Package restconfig builds rest.Configs for talking to a cluster, either
// from inside a pod or from an operator's kubectl configuration.
package restconfig

import (
	"fmt"
	"strings"

	"github.com/pkg/errors"
	_ "k8s.io/client-go/plugin/pkg/client/auth" // kubectl auth provider plugins
	"k8s.io/client-go/rest"
	"k8s.io/klog/v2"
)

// A source for creating a rest config
type configSource struct {
	name   string                       // The name for the config
	create func() (*rest.Config, error) // The function for creating the config
}

// List of config sources that will be tried in order for creating a rest.Config
var configSources = []configSource{
	{
		name:   "podServiceAccount",
		create: NewLocalClusterConfig,
	},
	{
		name:   "kubectl",
		create: NewKubectlConfig,
	},
}

// NewRestConfig attempts to create a new rest config from all configured
// sources and returns the first successfully created configuration.
func NewRestConfig() (*rest.Config, error) {
	var errorStrs []string
	for _, source := range configSources {
		config, err := source.create()
		if err == nil {
			klog.V(1).Infof("Created rest config from source %s", source.name)
			return config, nil
		}
		klog.V(5).Infof("Failed to create from %s: %s", source.name, err)
		errorStrs = append(errorStrs, fmt.Sprintf("%s: %s", source.name, err))
	}

	return nil, errors.Errorf("unable to create rest config:\n%s", strings.Join(errorStrs, "\n"))
}
