// Package util holds helpers shared between coxswain subcommands.
package util

import (
	"encoding/json"
	"fmt"

	"github.com/pkg/errors"
	"k8s.io/apimachinery/pkg/runtime"
	clientgoscheme "k8s.io/client-go/kubernetes/scheme"
	"sigs.k8s.io/controller-runtime/pkg/client"

	"github.com/coxswain-dev/coxswain/pkg/api/gitops/v1alpha1"
	"github.com/coxswain-dev/coxswain/pkg/client/restconfig"
)

// NewClient returns a client ready to read and update Applications on the
// cluster selected by the ambient kubectl configuration.
func NewClient() (client.Client, error) {
	cfg, err := restconfig.NewRestConfig()
	if err != nil {
		return nil, errors.Wrap(err, "failed to create rest config")
	}

	scheme := runtime.NewScheme()
	if err := clientgoscheme.AddToScheme(scheme); err != nil {
		return nil, err
	}
	if err := v1alpha1.AddToScheme(scheme); err != nil {
		return nil, err
	}

	c, err := client.New(cfg, client.Options{Scheme: scheme})
	if err != nil {
		return nil, errors.Wrap(err, "failed to create cluster client")
	}
	return c, nil
}

// PrintJSON writes obj to stdout as indented JSON.
func PrintJSON(obj interface{}) error {
	data, err := json.MarshalIndent(obj, "", "  ")
	if err != nil {
		return errors.Wrap(err, "failed to encode output")
	}
	fmt.Println(string(data))
	return nil
}
