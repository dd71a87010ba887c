package main

import (
	"flag"
	"os"
	goruntime "runtime"

	"k8s.io/apimachinery/pkg/runtime"
	clientgoscheme "k8s.io/client-go/kubernetes/scheme"
	"k8s.io/klog/v2/klogr"
	ctrl "sigs.k8s.io/controller-runtime"
	"sigs.k8s.io/controller-runtime/pkg/event"

	"github.com/coxswain-dev/coxswain/pkg/api/gitops"
	"github.com/coxswain-dev/coxswain/pkg/api/gitops/v1alpha1"
	"github.com/coxswain-dev/coxswain/pkg/cluster"
	"github.com/coxswain-dev/coxswain/pkg/metrics"
	"github.com/coxswain-dev/coxswain/pkg/profiler"
	"github.com/coxswain-dev/coxswain/pkg/reconciler"
	"github.com/coxswain-dev/coxswain/pkg/service"
	"github.com/coxswain-dev/coxswain/pkg/watch"
)

var (
	pollingPeriod = flag.Duration("polling-period", gitops.DefaultPollingPeriod,
		"Period of time between checking the source repository for new revisions.")

	resyncPeriod = flag.Duration("resync-period", gitops.DefaultResyncPeriod,
		"Period of time between forced re-syncs from the source (even without a new revision).")

	sourceRoot = flag.String("source-root", "/repos",
		"Absolute path under which source repositories are checked out.")

	numWorkers = flag.Int("num-workers", goruntime.NumCPU(),
		"Number of Applications to reconcile concurrently.")

	scheme   = runtime.NewScheme()
	setupLog = ctrl.Log.WithName("setup")
)

func init() {
	// klog flags
	_ = flag.Set("v", "1")
	_ = flag.Set("logtostderr", "true")

	_ = clientgoscheme.AddToScheme(scheme)
	_ = v1alpha1.AddToScheme(scheme)
}

func main() {
	flag.Parse()

	ctrl.SetLogger(klogr.New())
	profiler.Service()
	go service.ServeMetrics()

	mgr, err := ctrl.NewManager(ctrl.GetConfigOrDie(), ctrl.Options{
		Scheme:    scheme,
		Namespace: gitops.ControllerNamespace,
		// The /metrics endpoint is served by pkg/service.
		MetricsBindAddress: "0",
	})
	if err != nil {
		setupLog.Error(err, "unable to start manager")
		os.Exit(1)
	}

	// Buffered so a burst of watch events does not get dropped while every
	// worker is mid-reconcile.
	driftEvents := make(chan event.GenericEvent, 1024)
	watchManager, err := watch.NewManager(mgr.GetConfig(), mgr.GetRESTMapper(), driftEvents, nil)
	if err != nil {
		setupLog.Error(err, "unable to create the drift watch manager")
		os.Exit(1)
	}

	appController := reconciler.New(
		cluster.New(mgr.GetClient(), cluster.APICallDuration),
		ctrl.Log.WithName("controllers").WithName("Application"),
		mgr.GetScheme(),
		mgr.GetEventRecorderFor("application-controller"),
		reconciler.Options{
			PollingPeriod: *pollingPeriod,
			ResyncPeriod:  *resyncPeriod,
			SourceRoot:    *sourceRoot,
			Watches:       watchManager,
			DriftEvents:   driftEvents,
		})
	if err := appController.SetupWithManager(mgr, *numWorkers); err != nil {
		setupLog.Error(err, "unable to create controller", "controller", "Application")
		os.Exit(1)
	}

	// Register the OpenCensus views
	if err := metrics.RegisterReconcilerMetricsViews(); err != nil {
		setupLog.Error(err, "failed to register OpenCensus views")
	}

	setupLog.Info("starting manager",
		"pollingPeriod", pollingPeriod.String(),
		"resyncPeriod", resyncPeriod.String(),
		"workers", *numWorkers)
	if err := mgr.Start(ctrl.SetupSignalHandler()); err != nil {
		setupLog.Error(err, "problem running manager")
		os.Exit(1)
	}
}
