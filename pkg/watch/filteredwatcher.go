// Package watch maintains a set of API server watches over the resource
// types Applications declare, so drift on managed objects is noticed without
// waiting for the next periodic resync.
package watch

import (
	"sync"
	"time"

	apierrors "k8s.io/apimachinery/pkg/api/errors"
	metav1 "k8s.io/apimachinery/pkg/apis/meta/v1"
	"k8s.io/apimachinery/pkg/labels"
	"k8s.io/apimachinery/pkg/runtime/schema"
	"k8s.io/apimachinery/pkg/watch"
	"k8s.io/klog/v2"
	"sigs.k8s.io/controller-runtime/pkg/client"
	"sigs.k8s.io/controller-runtime/pkg/event"

	"github.com/coxswain-dev/coxswain/pkg/core"
	"github.com/coxswain-dev/coxswain/pkg/metadata"
)

// watchRetryInterval is how long to wait before retrying a watch that could
// not be established.
const watchRetryInterval = time.Second

// Runnable defines the custom watch interface.
type Runnable interface {
	Stop()
	Run()
}

// filteredWatcher is a wrapper around a watch interface. It forwards events
// for objects managed by an Application to the drift event channel and drops
// everything else.
type filteredWatcher struct {
	gvk        schema.GroupVersionKind
	startWatch startWatchFunc
	events     chan<- event.GenericEvent

	mux     sync.Mutex
	base    watch.Interface
	stopped bool
}

var _ Runnable = &filteredWatcher{}

// NewFiltered returns a new filtered watcher running the given startWatch.
func NewFiltered(cfg watcherConfig) Runnable {
	return &filteredWatcher{
		gvk:        cfg.gvk,
		startWatch: cfg.startWatch,
		events:     cfg.events,
	}
}

// Stop ends the current base watch and prevents new ones from starting.
func (w *filteredWatcher) Stop() {
	w.mux.Lock()
	defer w.mux.Unlock()

	w.stopped = true
	if w.base != nil {
		w.base.Stop()
	}
}

func (w *filteredWatcher) isStopped() bool {
	w.mux.Lock()
	defer w.mux.Unlock()
	return w.stopped
}

// Run reads events from the base watch and forwards the ones for managed
// objects. The API server ends every watch eventually, so Run re-establishes
// it from the last observed resourceVersion until Stop is called.
func (w *filteredWatcher) Run() {
	var resourceVersion string
	for {
		if w.isStopped() {
			return
		}

		base, err := w.start(resourceVersion)
		if err != nil {
			if apierrors.IsResourceExpired(err) || apierrors.IsGone(err) {
				klog.V(2).Infof("Watch of %s expired, restarting from most recent state", w.gvk)
				resourceVersion = ""
				continue
			}
			klog.Errorf("Watch of %s failed to start, retrying: %v", w.gvk, err)
			time.Sleep(watchRetryInterval)
			continue
		}
		if base == nil {
			// Stopped while starting.
			return
		}

		for e := range base.ResultChan() {
			resourceVersion = w.handle(e, resourceVersion)
		}
		klog.V(2).Infof("Watch of %s closed, restarting", w.gvk)
	}
}

// start establishes the base watch, filtered server side to objects carrying
// the management label. It returns nil if the watcher was stopped.
func (w *filteredWatcher) start(resourceVersion string) (watch.Interface, error) {
	options := metav1.ListOptions{
		AllowWatchBookmarks: true,
		ResourceVersion:     resourceVersion,
		LabelSelector:       labels.Set{metadata.ManagedByKey: metadata.ManagedByValue}.String(),
	}

	base, err := w.startWatch(options)
	if err != nil {
		return nil, err
	}

	w.mux.Lock()
	defer w.mux.Unlock()
	if w.stopped {
		base.Stop()
		return nil, nil
	}
	w.base = base
	return base, nil
}

// handle filters a single watch event and returns the resourceVersion to
// resume from. Returning an empty string restarts the watch from the most
// recent state.
func (w *filteredWatcher) handle(e watch.Event, resourceVersion string) string {
	switch e.Type {
	case watch.Added, watch.Modified, watch.Deleted, watch.Bookmark:
	case watch.Error:
		err := apierrors.FromObject(e.Object)
		if apierrors.IsResourceExpired(err) || apierrors.IsGone(err) {
			klog.V(2).Infof("Watch of %s expired: %v", w.gvk, err)
			return ""
		}
		klog.Errorf("Watch of %s returned an error: %v", w.gvk, err)
		return resourceVersion
	default:
		klog.Errorf("Unsupported watch event: %#v", e)
		return resourceVersion
	}

	object, ok := e.Object.(client.Object)
	if !ok {
		klog.Warningf("Received non-object in %s watch event: %T", w.gvk, e.Object)
		return resourceVersion
	}
	if rv := object.GetResourceVersion(); rv != "" {
		resourceVersion = rv
	}
	if e.Type == watch.Bookmark {
		return resourceVersion
	}

	// The label selector already filters server side. An object can still
	// arrive without the Application label, for example on the final Deleted
	// event after the labels were stripped.
	appName := metadata.ApplicationOf(object)
	if appName == "" && e.Type != watch.Deleted {
		klog.V(4).Infof("Ignoring event for unmanaged object %s", core.IDOf(object))
		return resourceVersion
	}

	klog.V(2).Infof("Received %s watch event for %s managed by Application %q",
		e.Type, core.IDOf(object), appName)
	w.send(object)
	return resourceVersion
}

// send forwards the object without blocking. Dropping is safe since the
// periodic resync covers any missed event.
func (w *filteredWatcher) send(object client.Object) {
	select {
	case w.events <- event.GenericEvent{Object: object}:
	default:
		klog.Warningf("Drift event channel is full, dropping event for %s", core.IDOf(object))
	}
}
