package watch

import (
	"context"

	"k8s.io/apimachinery/pkg/api/meta"
	metav1 "k8s.io/apimachinery/pkg/apis/meta/v1"
	"k8s.io/apimachinery/pkg/runtime/schema"
	"k8s.io/apimachinery/pkg/watch"
	"k8s.io/client-go/dynamic"
	"k8s.io/client-go/rest"
	"sigs.k8s.io/controller-runtime/pkg/event"

	"github.com/coxswain-dev/coxswain/pkg/status"
)

type startWatchFunc func(metav1.ListOptions) (watch.Interface, error)

// watcherConfig contains the options needed to create a watcher.
type watcherConfig struct {
	gvk        schema.GroupVersionKind
	mapper     meta.RESTMapper
	config     *rest.Config
	events     chan<- event.GenericEvent
	startWatch startWatchFunc
}

// createWatcherFunc is the type of functions to create watchers.
type createWatcherFunc func(ctx context.Context, cfg watcherConfig) (Runnable, status.Error)

// createWatcher creates a watcher for a given GVK. Watches are cluster
// scoped; the watcher narrows them to managed objects with a label selector.
func createWatcher(ctx context.Context, cfg watcherConfig) (Runnable, status.Error) {
	if cfg.startWatch == nil {
		mapping, err := cfg.mapper.RESTMapping(cfg.gvk.GroupKind(), cfg.gvk.Version)
		if err != nil {
			return nil, status.APIServerErrorf(err, "watcher failed to get REST mapping for %s", cfg.gvk.String())
		}

		dynamicClient, err := dynamic.NewForConfig(cfg.config)
		if err != nil {
			return nil, status.APIServerErrorf(err, "watcher failed to get dynamic client for %s", cfg.gvk.String())
		}

		cfg.startWatch = func(options metav1.ListOptions) (watch.Interface, error) {
			return dynamicClient.Resource(mapping.Resource).Watch(ctx, options)
		}
	}

	return NewFiltered(cfg), nil
}
