// Package adminhttp implements a small admin HTTP surface: a gorilla/mux
// router for operating the engine process (health, scheduler
// start/stop/status). It is not a user-facing presentation layer.
package adminhttp

import (
	"encoding/json"
	"net/http"

	"github.com/gorilla/mux"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/Dev-ALPM/imixs-workflow/internal/apperrors"
	"github.com/Dev-ALPM/imixs-workflow/internal/scheduler"
	"github.com/Dev-ALPM/imixs-workflow/internal/store"
)

// Server wires the admin router against its collaborators.
type Server struct {
	docs      store.DocumentStore
	scheduler *scheduler.Scheduler
	router    *mux.Router
}

// NewServer builds a Server and registers its routes.
func NewServer(docs store.DocumentStore, sched *scheduler.Scheduler) *Server {
	s := &Server{docs: docs, scheduler: sched, router: mux.NewRouter()}
	s.routes()
	return s
}

// ServeHTTP implements http.Handler.
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.router.ServeHTTP(w, r)
}

func (s *Server) routes() {
	s.router.HandleFunc("/health", s.handleHealth).Methods(http.MethodGet)
	s.router.Handle("/metrics", promhttp.Handler()).Methods(http.MethodGet)
	s.router.HandleFunc("/schedulers", s.handleListSchedulers).Methods(http.MethodGet)
	s.router.HandleFunc("/schedulers/{id}/start", s.handleStartScheduler).Methods(http.MethodPost)
	s.router.HandleFunc("/schedulers/{id}/stop", s.handleStopScheduler).Methods(http.MethodPost)
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (s *Server) handleListSchedulers(w http.ResponseWriter, r *http.Request) {
	docs, err := s.docs.GetDocumentsByType(r.Context(), scheduler.DocType)
	if err != nil {
		writeError(w, err)
		return
	}
	out := make([]map[string]any, 0, len(docs))
	for _, d := range docs {
		s.scheduler.UpdateTimerDetails(d)
		_, running := s.scheduler.FindTimer(scheduler.ID(d))
		out = append(out, map[string]any{
			"id":      scheduler.ID(d),
			"name":    d.GetItemValueString(scheduler.ItemName),
			"enabled": scheduler.Enabled(d),
			"running": running,
		})
	}
	writeJSON(w, http.StatusOK, out)
}

func (s *Server) handleStartScheduler(w http.ResponseWriter, r *http.Request) {
	id := mux.Vars(r)["id"]
	config, ok, err := s.docs.Load(r.Context(), id)
	if err != nil {
		writeError(w, err)
		return
	}
	if !ok {
		writeError(w, apperrors.SchedulerError("admin-http", "NOT_FOUND", "no scheduler configuration "+id, nil))
		return
	}
	config, err = s.scheduler.Start(config)
	if err != nil {
		writeError(w, err)
		return
	}
	if _, err := s.docs.Save(r.Context(), config); err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "started"})
}

func (s *Server) handleStopScheduler(w http.ResponseWriter, r *http.Request) {
	id := mux.Vars(r)["id"]
	config, ok, err := s.docs.Load(r.Context(), id)
	if err != nil {
		writeError(w, err)
		return
	}
	if !ok {
		writeError(w, apperrors.SchedulerError("admin-http", "NOT_FOUND", "no scheduler configuration "+id, nil))
		return
	}
	config, err = s.scheduler.Stop(config)
	if err != nil {
		writeError(w, err)
		return
	}
	if _, err := s.docs.Save(r.Context(), config); err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "stopped"})
}

func writeJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(body)
}

func writeError(w http.ResponseWriter, err error) {
	writeJSON(w, apperrors.HTTPStatus(err), map[string]string{"error": err.Error()})
}

