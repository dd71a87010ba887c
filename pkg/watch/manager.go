package watch

import (
	"context"
	"sync"

	"k8s.io/apimachinery/pkg/api/meta"
	"k8s.io/apimachinery/pkg/runtime/schema"
	"k8s.io/client-go/rest"
	"k8s.io/klog/v2"
	"sigs.k8s.io/controller-runtime/pkg/event"

	"github.com/coxswain-dev/coxswain/pkg/status"
)

// Manager accepts the set of declared resource types and keeps exactly one
// drift watcher running per type. It is safe for concurrent use.
type Manager struct {
	cfg    *rest.Config
	mapper meta.RESTMapper
	events chan<- event.GenericEvent

	// createWatcherFunc is the function to create a watcher.
	createWatcherFunc createWatcherFunc

	mux sync.Mutex
	// watcherMap maps GVKs to their associated watchers.
	watcherMap map[schema.GroupVersionKind]Runnable
	// needsUpdate indicates the current watches do not match the declared
	// types, usually because a watcher failed to start.
	needsUpdate bool
}

// Options contains options for creating a watch manager.
type Options struct {
	watcherFunc createWatcherFunc
}

// DefaultOptions returns the options used outside of tests.
func DefaultOptions() *Options {
	return &Options{watcherFunc: createWatcher}
}

// NewManager starts a new watch manager.
func NewManager(cfg *rest.Config, mapper meta.RESTMapper, events chan<- event.GenericEvent, options *Options) (*Manager, error) {
	if options == nil {
		options = DefaultOptions()
	}

	return &Manager{
		cfg:               cfg,
		mapper:            mapper,
		events:            events,
		createWatcherFunc: options.watcherFunc,
		watcherMap:        make(map[schema.GroupVersionKind]Runnable),
	}, nil
}

// NeedsUpdate returns true if the Manager's watches do not match the most
// recently declared types.
func (m *Manager) NeedsUpdate() bool {
	m.mux.Lock()
	defer m.mux.Unlock()
	return m.needsUpdate
}

// UpdateWatches accepts the declared set of GVKs, stops watchers for types
// that are no longer declared, and starts watchers for newly declared types.
func (m *Manager) UpdateWatches(ctx context.Context, gvkMap map[schema.GroupVersionKind]struct{}) status.MultiError {
	m.mux.Lock()
	defer m.mux.Unlock()

	m.needsUpdate = false

	var startedWatches, stoppedWatches int
	for gvk, watcher := range m.watcherMap {
		if _, keepWatching := gvkMap[gvk]; !keepWatching {
			// The type is no longer declared by any Application, so it is
			// safe to stop the watcher.
			watcher.Stop()
			delete(m.watcherMap, gvk)
			stoppedWatches++
		}
	}

	var errs status.MultiError
	for gvk := range gvkMap {
		if _, isWatched := m.watcherMap[gvk]; isWatched {
			continue
		}
		if err := m.startWatcher(ctx, gvk); err != nil {
			errs = status.Append(errs, err)
			continue
		}
		startedWatches++
	}

	if startedWatches > 0 || stoppedWatches > 0 {
		klog.Infof("Drift watches updated: started %d, stopped %d", startedWatches, stoppedWatches)
	} else {
		klog.V(4).Info("No drift watches to update")
	}
	return errs
}

// Stop ends all running watchers.
func (m *Manager) Stop() {
	m.mux.Lock()
	defer m.mux.Unlock()

	for gvk, watcher := range m.watcherMap {
		watcher.Stop()
		delete(m.watcherMap, gvk)
	}
}

// startWatcher requires the caller to hold m.mux.
func (m *Manager) startWatcher(ctx context.Context, gvk schema.GroupVersionKind) status.Error {
	cfg := watcherConfig{
		gvk:    gvk,
		mapper: m.mapper,
		config: m.cfg,
		events: m.events,
	}

	w, err := m.createWatcherFunc(ctx, cfg)
	if err != nil {
		m.needsUpdate = true
		return err
	}

	m.watcherMap[gvk] = w
	go w.Run()
	return nil
}

// watchedGVKs returns the GVKs currently being watched.
func (m *Manager) watchedGVKs() []schema.GroupVersionKind {
	m.mux.Lock()
	defer m.mux.Unlock()

	var gvks []schema.GroupVersionKind
	for gvk := range m.watcherMap {
		gvks = append(gvks, gvk)
	}
	return gvks
}
