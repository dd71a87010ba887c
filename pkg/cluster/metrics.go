package cluster

import "github.com/prometheus/client_golang/prometheus"

// APICallDuration tracks the latency distribution of API server calls made
// through a Client.
var APICallDuration = prometheus.NewHistogramVec(
	prometheus.HistogramOpts{
		Help:      "Distribution of durations of API server calls",
		Namespace: "coxswain",
		Subsystem: "cluster",
		Name:      "api_duration_seconds",
		Buckets:   []float64{.001, .01, .1, 1, 10},
	},
	[]string{"operation", "type", "status"},
)

func init() {
	prometheus.MustRegister(APICallDuration)
}

// statusLabel returns the value of the status metric label for an API call.
func statusLabel(err error) string {
	if err != nil {
		return "error"
	}
	return "success"
}
