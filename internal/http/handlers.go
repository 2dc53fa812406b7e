package http

import (
	"context"
	"errors"
	"net/http"
	"strings"
	"time"

	"taxis/internal/log"
	"taxis/internal/services"
)

func handleHealth(w http.ResponseWriter, r *http.Request) {
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("ok"))
}

// handleReady reports ready once a snapshot has been loaded.
func (s *Server) handleReady(w http.ResponseWriter, r *http.Request) {
	if s.reloader == nil || !s.reloader.Loaded() {
		w.WriteHeader(http.StatusServiceUnavailable)
		_, _ = w.Write([]byte("no data loaded"))
		return
	}
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("ready"))
}

func (s *Server) handleIndex(w http.ResponseWriter, r *http.Request) {
	if s.templates == nil {
		log.FromContext(r.Context()).ErrorContext(r.Context(), "Templates not loaded", log.FieldPath, r.URL.Path)
		http.Error(w, "templates not loaded", http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	s.render(w, r, "index.html", s.destinationsView(r.Context()))
}

func (s *Server) handleDestinations(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	s.render(w, r, "destinations.html", s.destinationsView(r.Context()))
}

func (s *Server) destinationsView(ctx context.Context) destinationsView {
	var view destinationsView
	if s.reloader != nil {
		at, n := s.reloader.LastLoad()
		view.Records = n
		if !at.IsZero() {
			view.LoadedAt = at.Format(time.DateTime)
		}
	}

	cctx, cancel := context.WithTimeout(ctx, storeTimeout)
	defer cancel()
	dests, err := s.reports.Destinations(cctx)
	if err != nil {
		log.FromContext(ctx).ErrorContext(ctx, "List destinations error", log.FieldError, err)
		view.Error = "Could not load destinations"
		return view
	}
	view.Destinations = dests
	return view
}

// handleReport renders the report partial for one destination.
func (s *Server) handleReport(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	ctx := r.Context()
	destination := strings.TrimSpace(r.URL.Query().Get("destination"))
	if destination == "" {
		s.render(w, r, "empty.html", emptyView{Message: "Select a destination to see its report."})
		return
	}

	rep, err := s.report(ctx, destination)
	if errors.Is(err, services.ErrNoData) {
		s.render(w, r, "empty.html", emptyView{
			Destination: destination,
			Message:     "No trips found for this destination.",
		})
		return
	}
	if err != nil {
		log.FromContext(ctx).ErrorContext(ctx, "Report error", log.FieldError, err, log.FieldDestination, destination)
		_, _ = w.Write([]byte(`<section id="report" class="report"><div class="placeholder">Error loading report</div></section>`))
		return
	}
	s.render(w, r, "report.html", newReportView(rep, s.exports.QueueEnabled()))
}

// handleReload reloads the snapshot and returns the refreshed destination list.
func (s *Server) handleReload(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	if s.reloader == nil {
		http.Error(w, "reload not available", http.StatusServiceUnavailable)
		return
	}
	if err := s.reloader.Reload(ctx); err != nil {
		log.FromContext(ctx).ErrorContext(ctx, "Reload failed", log.FieldError, err)
		http.Error(w, "reload failed", http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	s.render(w, r, "destinations.html", s.destinationsView(ctx))
}

func (s *Server) render(w http.ResponseWriter, r *http.Request, name string, data any) {
	if s.templates == nil {
		http.Error(w, "templates not loaded", http.StatusInternalServerError)
		return
	}
	if err := s.templates.ExecuteTemplate(w, name, data); err != nil {
		log.FromContext(r.Context()).ErrorContext(r.Context(), "Template execution failed",
			log.FieldError, err, log.FieldOperation, log.OpRender, "template", name)
	}
}
