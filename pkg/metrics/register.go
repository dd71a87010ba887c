package metrics

import (
	"contrib.go.opencensus.io/exporter/prometheus"
	promclient "github.com/prometheus/client_golang/prometheus"
	"go.opencensus.io/stats/view"
)

// namespace prefixes the exported OpenCensus Prometheus metrics.
const namespace = "coxswain"

// RegisterPrometheusExporter creates the OpenCensus Prometheus metrics
// exporter. It feeds the default prometheus registry, so one scrape endpoint
// covers the OpenCensus views and the directly registered client metrics.
func RegisterPrometheusExporter() (*prometheus.Exporter, error) {
	return prometheus.NewExporter(prometheus.Options{
		Namespace:  namespace,
		Registerer: promclient.DefaultRegisterer,
		Gatherer:   promclient.DefaultGatherer,
	})
}

// RegisterReconcilerMetricsViews registers the views so that recorded metrics
// can be exported by the reconciler process.
func RegisterReconcilerMetricsViews() error {
	return view.Register(
		APICallDurationView,
		ReconcileDurationView,
		ReconcilerErrorsView,
		DeclaredResourcesView,
		ApplyOperationsView,
		LastSyncTimestampView)
}
