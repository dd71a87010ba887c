package restconfig

import (
	"os"
	"os/user"
	"path/filepath"

	"github.com/pkg/errors"
	"k8s.io/client-go/rest"
	"k8s.io/client-go/tools/clientcmd"
)

const kubectlConfigPath = ".kube/config"

// newConfigPath returns the kubeconfig file path to use, depending on the
// current user settings and the runtime environment.
func newConfigPath() (string, error) {
	// First try the KUBECONFIG variable.
	envPath := os.Getenv("KUBECONFIG")
	if envPath != "" {
		return envPath, nil
	}
	// Fall back to the current user's home directory.
	current, err := user.Current()
	if err != nil {
		return "", errors.Wrap(err, "failed to get current user")
	}
	return filepath.Join(current.HomeDir, kubectlConfigPath), nil
}

// NewKubectlConfig creates a config for whichever context is active in kubectl.
func NewKubectlConfig() (*rest.Config, error) {
	return NewKubectlContextConfig("")
}

// NewKubectlContextConfig creates a config for the named context from the
// kubectl config file on localhost. An empty name selects the active context.
func NewKubectlContextConfig(contextName string) (*rest.Config, error) {
	configPath, err := newConfigPath()
	if err != nil {
		return nil, errors.Wrap(err, "while getting config path")
	}
	clientConfig := clientcmd.NewNonInteractiveDeferredLoadingClientConfig(
		&clientcmd.ClientConfigLoadingRules{ExplicitPath: configPath},
		&clientcmd.ConfigOverrides{CurrentContext: contextName})
	config, err := clientConfig.ClientConfig()
	if err != nil {
		return nil, errors.Wrapf(err, "while loading from %v", configPath)
	}
	return config, nil
}

// NewLocalClusterConfig creates a config for connecting to the local cluster API server.
func NewLocalClusterConfig() (*rest.Config, error) {
	return rest.InClusterConfig()
}
