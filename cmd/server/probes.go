package main

import (
	"net/http"

	"github.com/JaimeStill/arcsolve/internal/infrastructure"
	"github.com/JaimeStill/arcsolve/pkg/handlers"
	"github.com/JaimeStill/arcsolve/pkg/module"
)

type probeStatus struct {
	Status string `json:"status"`
}

// registerProbes adds liveness and readiness endpoints outside any module.
// Readiness requires completed startup and, when configured, a reachable
// database.
func registerProbes(router *module.Router, infra *infrastructure.Infrastructure) {
	router.HandleNative("GET /healthz", func(w http.ResponseWriter, r *http.Request) {
		handlers.RespondJSON(w, http.StatusOK, probeStatus{"ok"})
	})

	router.HandleNative("GET /readyz", func(w http.ResponseWriter, r *http.Request) {
		if !infra.Lifecycle.Ready() {
			handlers.RespondJSON(w, http.StatusServiceUnavailable, probeStatus{"starting"})
			return
		}
		if infra.Database != nil {
			if err := infra.Database.Ping(r.Context()); err != nil {
				handlers.RespondJSON(w, http.StatusServiceUnavailable, probeStatus{"database unavailable"})
				return
			}
		}
		handlers.RespondJSON(w, http.StatusOK, probeStatus{"ready"})
	})
}
