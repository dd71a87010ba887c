// Package service serves the reconciler's monitoring endpoints.
package service

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus/promhttp"
	"k8s.io/klog/v2"

	"github.com/coxswain-dev/coxswain/pkg/metrics"
)

const metricsPort = ":8675"

// ServeMetrics spins up the monitoring HTTP endpoint. It serves the
// Prometheus scrape target on /metrics and a goroutine dump on /threadz,
// and only returns on server failure.
func ServeMetrics() {
	if _, err := metrics.RegisterPrometheusExporter(); err != nil {
		klog.Fatalf("Failed to register the Prometheus exporter: %v", err)
	}

	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.Handler())
	mux.HandleFunc("/threadz", WithRequestLogging(NoCache(goRoutineHandler)))

	server := &http.Server{
		Addr:    metricsPort,
		Handler: mux,
	}
	klog.Infof("Serving metrics on %s/metrics", metricsPort)
	if err := server.ListenAndServe(); err != nil {
		klog.Fatalf("Metrics server failed: %v", err)
	}
}
