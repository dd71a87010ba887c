package service

import (
	"fmt"
	"net/http"
	"runtime/pprof"
)

// goRoutineHandler prints the stacks of all live goroutines to the response.
func goRoutineHandler(w http.ResponseWriter, _ *http.Request) {
	for _, p := range pprof.Profiles() {
		if p.Name() == "goroutine" {
			if err := p.WriteTo(w, 2); err != nil {
				// nolint:errcheck
				_, _ = fmt.Fprintf(w, "error while writing goroutine stacks: %s", err)
			}
			return
		}
	}

	// nolint:errcheck
	_, _ = w.Write([]byte("unable to find profile for goroutines"))
}
