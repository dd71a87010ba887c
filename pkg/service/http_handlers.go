package service

import (
	"net/http"

	"k8s.io/klog/v2"
)

// HandlerFunc is a shorthand for a HTTP handler function.
type HandlerFunc func(http.ResponseWriter, *http.Request)

// NoCache positively turns off page caching.
func NoCache(handler HandlerFunc) HandlerFunc {
	return func(w http.ResponseWriter, req *http.Request) {
		w.Header().Set("Cache-Control", "no-cache, no-store, must-revalidate")
		w.Header().Set("Pragma", "no-cache")
		w.Header().Set("Expires", "0")
		handler(w, req)
	}
}

// WithRequestLogging decorates handler with a log statement that prints the
// method and the URL requested.
func WithRequestLogging(handler HandlerFunc) HandlerFunc {
	return func(w http.ResponseWriter, req *http.Request) {
		klog.Infof("Method: %v, URL: %v", req.Method, req.URL)
		handler(w, req)
	}
}
