// Package api exposes the HTTP surface of the scheduling service.
package api

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"turnero/internal/apperr"
	"turnero/internal/booking"
	"turnero/internal/database"
	"turnero/internal/report"
)

// Server holds the HTTP handlers and their dependencies.
type Server struct {
	svc      *booking.Service
	db       *database.DB
	exporter *report.Exporter
	log      *zerolog.Logger
	router   chi.Router
}

// NewServer builds the router with all routes mounted.
func NewServer(svc *booking.Service, db *database.DB, exporter *report.Exporter, corsOrigins []string, log *zerolog.Logger) *Server {
	s := &Server{
		svc:      svc,
		db:       db,
		exporter: exporter,
		log:      log,
	}

	r := chi.NewRouter()
	r.Use(middleware.Recoverer)
	r.Use(s.requestLogger)
	if len(corsOrigins) > 0 {
		r.Use(cors.Handler(cors.Options{
			AllowedOrigins: corsOrigins,
			AllowedMethods: []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
			AllowedHeaders: []string{"Accept", "Content-Type"},
			MaxAge:         300,
		}))
	}

	r.Route("/api", func(r chi.Router) {
		r.Get("/horarios", s.handleEffectiveHours)

		r.Route("/turnos", func(r chi.Router) {
			r.Get("/disponibilidad", s.handleAvailability)
			r.Post("/", s.handleCreateTurno)
			r.Get("/{id}", s.handleGetTurno)
			r.Patch("/{id}/estado", s.handleUpdateTurnoStatus)
			r.Get("/{id}/saldo", s.handleTurnoBalance)
		})

		r.Route("/config", func(r chi.Router) {
			r.Get("/horario-semanal", s.handleGetWeeklySchedule)
			r.Put("/horario-semanal", s.handleUpdateWeeklySchedule)

			r.Get("/temporadas", s.handleListSeasons)
			r.Post("/temporadas", s.handleCreateSeason)
			r.Put("/temporadas/{id}", s.handleUpdateSeason)
			r.Put("/temporadas/{id}/horario", s.handleUpsertSeasonSchedule)
			r.Delete("/temporadas/{id}", s.handleDeleteSeason)

			r.Get("/dias-especiales", s.handleListSpecialDays)
			r.Put("/dias-especiales", s.handleUpsertSpecialDay)
			r.Delete("/dias-especiales/{fecha}", s.handleDeleteSpecialDay)
		})

		r.Route("/clientes", func(r chi.Router) {
			r.Get("/", s.handleListClients)
			r.Post("/", s.handleCreateClient)
			r.Put("/{id}", s.handleUpdateClient)
		})

		r.Route("/tratamientos", func(r chi.Router) {
			r.Get("/", s.handleListTreatments)
			r.Post("/", s.handleCreateTreatment)
			r.Put("/{id}", s.handleUpdateTreatment)
		})

		r.Post("/pagos", s.handleCreatePayment)

		r.Get("/reportes/agenda", s.handleAgendaReport)
	})

	s.router = r
	return s
}

// Handler returns the mounted router.
func (s *Server) Handler() http.Handler {
	return s.router
}

func (s *Server) requestLogger(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		reqID := r.Header.Get("X-Request-ID")
		if reqID == "" {
			reqID = uuid.NewString()
		}
		next.ServeHTTP(w, r)
		s.log.Info().
			Str("method", r.Method).
			Str("path", r.URL.Path).
			Str("request_id", reqID).
			Int64("duration_ms", time.Since(start).Milliseconds()).
			Msg("http request")
	})
}

func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(payload)
}

func writeError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, map[string]any{"error": message})
}

// writeAppError maps the error taxonomy onto HTTP statuses.
func writeAppError(w http.ResponseWriter, err error) {
	kind, ok := apperr.KindOf(err)
	if !ok {
		writeError(w, http.StatusInternalServerError, "internal error")
		return
	}
	switch kind {
	case apperr.KindNotFound:
		writeError(w, http.StatusNotFound, err.Error())
	case apperr.KindConflict:
		writeError(w, http.StatusConflict, err.Error())
	default:
		writeError(w, http.StatusBadRequest, err.Error())
	}
}

func decodeStrict(r *http.Request, dst any) error {
	decoder := json.NewDecoder(r.Body)
	decoder.DisallowUnknownFields()
	return decoder.Decode(dst)
}

func parseDateParam(value string) (time.Time, error) {
	return time.ParseInLocation("2006-01-02", value, time.Local)
}
