package health

import (
	"encoding/json"
	"net/http"
	"runtime"
	"time"
)

// A response is the JSON body served by Handler.
type response struct {
	Report

	Uptime string   `json:"uptime"`
	Memory memStats `json:"memory"`
}

type memStats struct {
	AllocBytes uint64 `json:"allocBytes"`
	SysBytes   uint64 `json:"sysBytes"`
	Goroutines int    `json:"goroutines"`
}

// Handler serves the aggregated health of the app as JSON,
// including process uptime and memory usage.
//
// Healthy and degraded apps answer 200; only unhealthy answers 503,
// so load balancers keep routing to an app running with reduced
// functionality.
func Handler(a *Aggregator) http.HandlerFunc {
	start := time.Now()

	return func(w http.ResponseWriter, r *http.Request) {
		report := a.Check(r.Context())

		var ms runtime.MemStats
		runtime.ReadMemStats(&ms)

		body := response{
			Report: report,
			Uptime: time.Since(start).Round(time.Second).String(),
			Memory: memStats{
				AllocBytes: ms.Alloc,
				SysBytes:   ms.Sys,
				Goroutines: runtime.NumGoroutine(),
			},
		}

		code := http.StatusOK
		if report.Overall == StatusUnhealthy {
			code = http.StatusServiceUnavailable
		}

		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(code)
		json.NewEncoder(w).Encode(body)
	}
}
