// Package middleware provides HTTP middleware for the API server.
package middleware

import (
	"fmt"
	"log/slog"
	"net/http"
	"net/http/pprof"
	"strings"
)

// ProfilingConfig configures the profiling middleware.
type ProfilingConfig struct {
	// Enabled controls whether profiling endpoints are exposed. Development
	// only; /debug/pprof exposes memory contents and runtime internals.
	Enabled bool

	// Environment guards against enabling profiling in production builds.
	Environment string
}

// Profiling returns middleware exposing the pprof handlers at /debug/pprof/*.
// Requests outside that prefix pass through untouched. Enabling it in a
// production environment is refused regardless of the flag.
func Profiling(config ProfilingConfig) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		if !config.Enabled {
			return next
		}

		if config.Environment == "production" || config.Environment == "prod" {
			slog.Error("refusing to enable profiling in production",
				"environment", config.Environment)
			return next
		}

		slog.Warn("profiling endpoints enabled",
			"environment", config.Environment,
			"endpoints", "/debug/pprof/*")

		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if !strings.HasPrefix(r.URL.Path, "/debug/pprof") {
				next.ServeHTTP(w, r)
				return
			}

			switch r.URL.Path {
			case "/debug/pprof/cmdline":
				pprof.Cmdline(w, r)
			case "/debug/pprof/profile":
				pprof.Profile(w, r)
			case "/debug/pprof/symbol":
				pprof.Symbol(w, r)
			case "/debug/pprof/trace":
				pprof.Trace(w, r)
			default:
				// Index also serves the named profiles (heap, goroutine, ...).
				pprof.Index(w, r)
			}
		})
	}
}

// ProfilingStatus returns a handler reporting whether profiling is enabled.
func ProfilingStatus(config ProfilingConfig) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")

		status := "disabled"
		if config.Enabled {
			status = "enabled"
		}

		response := fmt.Sprintf(`{"profiling_enabled": %t, "environment": %q, "status": %q, "endpoints": "/debug/pprof/"}`,
			config.Enabled, config.Environment, status)

		w.WriteHeader(http.StatusOK)
		if _, err := w.Write([]byte(response)); err != nil {
			slog.Error("failed to write profiling status response", "error", err)
		}
	}
}
