package api

import (
	"database/sql"
	"errors"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"turnero/internal/metrics"
	"turnero/internal/models"
)

// FranjaRequest is one open window in a configuration request.
type FranjaRequest struct {
	HoraInicio string `json:"horaInicio"`
	HoraFin    string `json:"horaFin"`
}

// UpdateWeeklyScheduleRequest is the tagged body for updating one weekday
// of the default weekly schedule.
type UpdateWeeklyScheduleRequest struct {
	Dia     int             `json:"dia"` // 0=domingo..6=sábado
	Activo  bool            `json:"activo"`
	Franjas []FranjaRequest `json:"franjas"`
}

// UpsertSeasonRequest is the tagged body for creating or updating a season.
type UpsertSeasonRequest struct {
	Nombre   string                        `json:"nombre"`
	Desde    string                        `json:"desde"` // YYYY-MM-DD
	Hasta    string                        `json:"hasta"` // YYYY-MM-DD
	Activa   bool                          `json:"activa"`
	Horarios []UpdateWeeklyScheduleRequest `json:"horarios,omitempty"`
}

// UpsertSpecialDayRequest is the tagged body for a single-date override.
type UpsertSpecialDayRequest struct {
	Fecha   string          `json:"fecha"` // YYYY-MM-DD
	Cerrado bool            `json:"cerrado"`
	Motivo  string          `json:"motivo,omitempty"`
	Franjas []FranjaRequest `json:"franjas,omitempty"`
}

func franjasToWindows(franjas []FranjaRequest) ([]models.TimeWindow, error) {
	windows := make([]models.TimeWindow, 0, len(franjas))
	for _, f := range franjas {
		w := models.TimeWindow{Start: f.HoraInicio, End: f.HoraFin}
		if err := w.Validate(); err != nil {
			return nil, err
		}
		windows = append(windows, w)
	}
	return windows, nil
}

func windowsToFranjas(windows []models.TimeWindow) []FranjaResponse {
	franjas := make([]FranjaResponse, 0, len(windows))
	for _, w := range windows {
		franjas = append(franjas, FranjaResponse{HoraInicio: w.Start, HoraFin: w.End})
	}
	return franjas
}

// handleGetWeeklySchedule returns the default weekly schedule, seeding
// defaults on first read.
// GET /api/config/horario-semanal
func (s *Server) handleGetWeeklySchedule(w http.ResponseWriter, r *http.Request) {
	metrics.IncHTTP("get_horario_semanal")

	schedules, err := s.db.GetWeeklySchedules(r.Context())
	if err != nil {
		s.log.Error().Err(err).Msg("failed to load weekly schedules")
		writeError(w, http.StatusInternalServerError, "failed to load weekly schedules")
		return
	}

	type entry struct {
		Dia     int              `json:"dia"`
		Activo  bool             `json:"activo"`
		Franjas []FranjaResponse `json:"franjas"`
	}
	out := make([]entry, 0, len(schedules))
	for _, sched := range schedules {
		out = append(out, entry{
			Dia:     sched.Weekday,
			Activo:  sched.Active,
			Franjas: windowsToFranjas(sched.Windows),
		})
	}
	writeJSON(w, http.StatusOK, out)
}

// handleUpdateWeeklySchedule replaces one weekday of the default schedule.
// PUT /api/config/horario-semanal
func (s *Server) handleUpdateWeeklySchedule(w http.ResponseWriter, r *http.Request) {
	metrics.IncHTTP("update_horario_semanal")

	var req UpdateWeeklyScheduleRequest
	if err := decodeStrict(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON body")
		return
	}
	if req.Dia < 0 || req.Dia > 6 {
		writeError(w, http.StatusBadRequest, "dia must be between 0 (domingo) and 6 (sábado)")
		return
	}
	windows, err := franjasToWindows(req.Franjas)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	if err := s.db.UpdateWeeklySchedule(r.Context(), req.Dia, req.Activo, windows); err != nil {
		s.log.Error().Err(err).Int("dia", req.Dia).Msg("failed to update weekly schedule")
		writeError(w, http.StatusInternalServerError, "failed to update weekly schedule")
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"success": true})
}

func (s *Server) decodeSeasonRequest(w http.ResponseWriter, r *http.Request) (*models.Season, bool) {
	var req UpsertSeasonRequest
	if err := decodeStrict(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON body")
		return nil, false
	}
	if req.Nombre == "" {
		writeError(w, http.StatusBadRequest, "nombre is required")
		return nil, false
	}
	desde, err := parseDateParam(req.Desde)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid desde format; expected YYYY-MM-DD")
		return nil, false
	}
	hasta, err := parseDateParam(req.Hasta)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid hasta format; expected YYYY-MM-DD")
		return nil, false
	}
	if desde.After(hasta) {
		writeError(w, http.StatusBadRequest, "desde must be before or equal to hasta")
		return nil, false
	}

	season := &models.Season{
		Name:      req.Nombre,
		StartDate: desde,
		EndDate:   hasta,
		Active:    req.Activa,
	}
	for _, h := range req.Horarios {
		if h.Dia < 0 || h.Dia > 6 {
			writeError(w, http.StatusBadRequest, "horarios dia must be between 0 and 6")
			return nil, false
		}
		windows, err := franjasToWindows(h.Franjas)
		if err != nil {
			writeError(w, http.StatusBadRequest, err.Error())
			return nil, false
		}
		season.Schedules = append(season.Schedules, models.WeekdaySchedule{
			Weekday: h.Dia,
			Active:  h.Activo,
			Windows: windows,
		})
	}
	return season, true
}

// handleCreateSeason creates a season with its weekday schedules.
// POST /api/config/temporadas
func (s *Server) handleCreateSeason(w http.ResponseWriter, r *http.Request) {
	metrics.IncHTTP("crear_temporada")

	season, ok := s.decodeSeasonRequest(w, r)
	if !ok {
		return
	}
	if err := s.db.CreateSeason(r.Context(), season); err != nil {
		s.log.Error().Err(err).Str("nombre", season.Name).Msg("failed to create season")
		writeError(w, http.StatusInternalServerError, "failed to create season")
		return
	}
	writeJSON(w, http.StatusCreated, season)
}

// handleUpdateSeason updates the season header.
// PUT /api/config/temporadas/{id}
func (s *Server) handleUpdateSeason(w http.ResponseWriter, r *http.Request) {
	metrics.IncHTTP("update_temporada")

	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid season id")
		return
	}
	season, ok := s.decodeSeasonRequest(w, r)
	if !ok {
		return
	}
	season.ID = id

	if err := s.db.UpdateSeason(r.Context(), season); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			writeError(w, http.StatusNotFound, "season not found")
			return
		}
		writeError(w, http.StatusInternalServerError, "failed to update season")
		return
	}
	for _, sched := range season.Schedules {
		if err := s.db.UpsertSeasonSchedule(r.Context(), id, sched.Weekday, sched.Active, sched.Windows); err != nil {
			writeError(w, http.StatusInternalServerError, "failed to update season schedule")
			return
		}
	}
	writeJSON(w, http.StatusOK, map[string]any{"success": true})
}

// handleUpsertSeasonSchedule replaces one weekday of a season.
// PUT /api/config/temporadas/{id}/horario
func (s *Server) handleUpsertSeasonSchedule(w http.ResponseWriter, r *http.Request) {
	metrics.IncHTTP("update_temporada_horario")

	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid season id")
		return
	}
	if _, err := s.db.GetSeason(r.Context(), id); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			writeError(w, http.StatusNotFound, "season not found")
			return
		}
		writeError(w, http.StatusInternalServerError, "failed to load season")
		return
	}

	var req UpdateWeeklyScheduleRequest
	if err := decodeStrict(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON body")
		return
	}
	if req.Dia < 0 || req.Dia > 6 {
		writeError(w, http.StatusBadRequest, "dia must be between 0 and 6")
		return
	}
	windows, err := franjasToWindows(req.Franjas)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	if err := s.db.UpsertSeasonSchedule(r.Context(), id, req.Dia, req.Activo, windows); err != nil {
		writeError(w, http.StatusInternalServerError, "failed to update season schedule")
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"success": true})
}

// handleListSeasons lists all seasons, newest first.
// GET /api/config/temporadas
func (s *Server) handleListSeasons(w http.ResponseWriter, r *http.Request) {
	metrics.IncHTTP("listar_temporadas")

	seasons, err := s.db.ListSeasons(r.Context())
	if err != nil {
		writeError(w, http.StatusInternalServerError, "failed to list seasons")
		return
	}
	if seasons == nil {
		seasons = []models.Season{}
	}
	writeJSON(w, http.StatusOK, seasons)
}

// handleDeleteSeason removes a season and its schedules.
// DELETE /api/config/temporadas/{id}
func (s *Server) handleDeleteSeason(w http.ResponseWriter, r *http.Request) {
	metrics.IncHTTP("borrar_temporada")

	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid season id")
		return
	}
	if err := s.db.DeleteSeason(r.Context(), id); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			writeError(w, http.StatusNotFound, "season not found")
			return
		}
		writeError(w, http.StatusInternalServerError, "failed to delete season")
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"success": true})
}

// handleUpsertSpecialDay creates or replaces a single-date override.
// PUT /api/config/dias-especiales
func (s *Server) handleUpsertSpecialDay(w http.ResponseWriter, r *http.Request) {
	metrics.IncHTTP("update_dia_especial")

	var req UpsertSpecialDayRequest
	if err := decodeStrict(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON body")
		return
	}
	date, err := parseDateParam(req.Fecha)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid fecha format; expected YYYY-MM-DD")
		return
	}

	day := &models.SpecialDay{
		Date:   date,
		Closed: req.Cerrado,
		Reason: req.Motivo,
	}
	if !req.Cerrado {
		windows, err := franjasToWindows(req.Franjas)
		if err != nil {
			writeError(w, http.StatusBadRequest, err.Error())
			return
		}
		day.Windows = windows
	}

	if err := s.db.UpsertSpecialDay(r.Context(), day); err != nil {
		s.log.Error().Err(err).Str("fecha", req.Fecha).Msg("failed to upsert special day")
		writeError(w, http.StatusInternalServerError, "failed to save special day")
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"success": true, "id": day.ID})
}

// handleDeleteSpecialDay removes the override for a date.
// DELETE /api/config/dias-especiales/{fecha}
func (s *Server) handleDeleteSpecialDay(w http.ResponseWriter, r *http.Request) {
	metrics.IncHTTP("borrar_dia_especial")

	date, err := parseDateParam(chi.URLParam(r, "fecha"))
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid fecha format; expected YYYY-MM-DD")
		return
	}
	if err := s.db.DeleteSpecialDay(r.Context(), date); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			writeError(w, http.StatusNotFound, "special day not found")
			return
		}
		writeError(w, http.StatusInternalServerError, "failed to delete special day")
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"success": true})
}

// handleListSpecialDays lists overrides within a date range.
// GET /api/config/dias-especiales?desde=YYYY-MM-DD&hasta=YYYY-MM-DD
func (s *Server) handleListSpecialDays(w http.ResponseWriter, r *http.Request) {
	metrics.IncHTTP("listar_dias_especiales")

	desde, err := parseDateParam(r.URL.Query().Get("desde"))
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid desde format; expected YYYY-MM-DD")
		return
	}
	hasta, err := parseDateParam(r.URL.Query().Get("hasta"))
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid hasta format; expected YYYY-MM-DD")
		return
	}

	days, err := s.db.ListSpecialDays(r.Context(), desde, hasta)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "failed to list special days")
		return
	}
	if days == nil {
		days = []models.SpecialDay{}
	}
	writeJSON(w, http.StatusOK, days)
}
