// Package profiler optionally exposes the pprof endpoint.
package profiler

import (
	"flag"
	"fmt"
	"net/http"

	// Empty import as required by pprof
	_ "net/http/pprof"

	"k8s.io/klog/v2"
)

var enableProfiler = flag.Bool("enable-pprof", false, "enable pprof profiling")
var profilerPort = flag.Int("pprof-port", 6060, "port for pprof profiling. defaulted to 6060 if unspecified")

// Service starts the profiler http endpoint if --enable-pprof flag is passed
func Service() {
	if *enableProfiler {
		go func() {
			klog.Infof("Starting profiling on port %d", *profilerPort)
			addr := fmt.Sprintf(":%d", *profilerPort)
			err := http.ListenAndServe(addr, nil)
			if err != nil {
				klog.Fatalf("Profiler server failed to start: %+v", err)
			}
		}()
	}
}
