// Package admin implements the read-only operator HTTP surface (§7):
// liveness, per-group state inspection, and Prometheus scraping behind one
// httprouter.Router, grounded on the teacher's
// cmd/http-server/http-server.go (one function builds the whole router)
// and handlers/admin/admin.go (a handlers collection closing over its
// collaborators). /metrics is folded into this same router rather than
// given its own listener, since this pipeline has exactly one admin surface
// to expose, unlike the teacher's separate metrics.ListenAndServe.
package admin

import (
	"encoding/json"
	"fmt"
	"net/http"
	"strings"

	"github.com/julienschmidt/httprouter"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/mblakley/video-grouper/apierrors"
	"github.com/mblakley/video-grouper/dirstate"
	"github.com/mblakley/video-grouper/log"
	"github.com/mblakley/video-grouper/middleware"
)

// StateReader is the read-only slice of dirstate.Store the /state/*group
// handler needs.
type StateReader interface {
	Read(groupDir string) (*dirstate.State, error)
}

// Handlers closes over the collaborators the admin endpoints read from,
// the way handlers.AdminHandlersCollection does in the teacher.
type Handlers struct {
	State StateReader
}

// Ok answers liveness checks, grounded on handlers/ok.go.
func (h *Handlers) Ok() httprouter.Handle {
	return func(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
		if _, err := w.Write([]byte("OK")); err != nil {
			log.LogError("admin", "failed writing /ok response", err)
		}
	}
}

// State serves the persisted state.json for one group directory, grounded
// on handlers/admin/admin.go's StateHandler. Group directories are full
// filesystem paths, so the route uses a catch-all (`*group`) rather than a
// single path segment (`:group`).
func (h *Handlers) State() httprouter.Handle {
	return func(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
		groupDir := strings.TrimPrefix(ps.ByName("group"), "/")
		if groupDir == "" {
			apierrors.WriteHTTPBadRequest(w, "missing group directory", nil)
			return
		}

		st, err := h.State.Read(groupDir)
		if err != nil {
			apierrors.WriteHTTPNotFound(w, fmt.Sprintf("no state for %s", groupDir), err)
			return
		}

		w.Header().Set("Content-Type", "application/json")
		if err := json.NewEncoder(w).Encode(st); err != nil {
			log.LogError("admin", "failed encoding state response", err)
		}
	}
}

// NewRouter builds the admin httprouter.Router, wrapping every handle in
// middleware.LogRequest the way StartCatalystAPIRouter wraps its handlers.
func NewRouter(h *Handlers) *httprouter.Router {
	router := httprouter.New()
	router.GET("/ok", middleware.LogRequest()(h.Ok()))
	router.GET("/state/*group", middleware.LogRequest()(h.State()))
	router.Handler(http.MethodGet, "/metrics", promhttp.Handler())
	return router
}

// ListenAndServe starts the admin HTTP surface on the configured port and
// blocks until it exits, mirroring the teacher main's http.ListenAndServe
// call in cmd/http-server/http-server.go.
func ListenAndServe(port int, h *Handlers) error {
	listen := fmt.Sprintf("0.0.0.0:%d", port)
	log.LogNoGroup("starting admin HTTP server", "host", listen)
	return http.ListenAndServe(listen, NewRouter(h))
}
