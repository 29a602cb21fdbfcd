package api

import (
	"net/http"
	"strconv"
	"strings"

	"turnero/internal/metrics"
	"turnero/internal/models"
)

// FranjaResponse is one open window on the wire.
type FranjaResponse struct {
	HoraInicio string `json:"horaInicio"`
	HoraFin    string `json:"horaFin"`
}

// EffectiveHoursResponse is the wire shape for GET /api/horarios.
type EffectiveHoursResponse struct {
	Fecha           string           `json:"fecha"`
	Tipo            string           `json:"tipo"` // "normal" | "temporada" | "especial"
	Cerrado         bool             `json:"cerrado"`
	Motivo          string           `json:"motivo,omitempty"`
	Franjas         []FranjaResponse `json:"franjas"`
	TemporadaNombre string           `json:"temporadaNombre,omitempty"`
}

// SlotResponse is one bookable start on the wire.
type SlotResponse struct {
	Inicio     string `json:"inicio"`
	Fin        string `json:"fin"`
	Disponible bool   `json:"disponible"`
}

var wireKinds = map[string]string{
	models.KindNormal:  "normal",
	models.KindSeason:  "temporada",
	models.KindSpecial: "especial",
}

// handleEffectiveHours resolves the opening hours for one date.
// GET /api/horarios?fecha=YYYY-MM-DD
func (s *Server) handleEffectiveHours(w http.ResponseWriter, r *http.Request) {
	metrics.IncHTTP("horarios")

	fecha := r.URL.Query().Get("fecha")
	if fecha == "" {
		writeError(w, http.StatusBadRequest, "fecha is required")
		return
	}
	date, err := parseDateParam(fecha)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid fecha format; expected YYYY-MM-DD")
		return
	}

	effective, err := s.svc.EffectiveHours(r.Context(), date)
	if err != nil {
		s.log.Error().Err(err).Str("fecha", fecha).Msg("failed to resolve hours")
		writeError(w, http.StatusInternalServerError, "failed to resolve hours")
		return
	}

	franjas := make([]FranjaResponse, 0, len(effective.Windows))
	for _, win := range effective.Windows {
		franjas = append(franjas, FranjaResponse{HoraInicio: win.Start, HoraFin: win.End})
	}

	writeJSON(w, http.StatusOK, EffectiveHoursResponse{
		Fecha:           fecha,
		Tipo:            wireKinds[effective.Kind],
		Cerrado:         effective.Closed,
		Motivo:          effective.Reason,
		Franjas:         franjas,
		TemporadaNombre: effective.SeasonName,
	})
}

// handleAvailability returns the slot list for a date and required duration.
// Duration comes either directly (duracion, minutes) or derived from the
// selected treatments (tratamientos, comma-separated ids).
// GET /api/turnos/disponibilidad?fecha=YYYY-MM-DD&duracion=60
// GET /api/turnos/disponibilidad?fecha=YYYY-MM-DD&tratamientos=1,3
func (s *Server) handleAvailability(w http.ResponseWriter, r *http.Request) {
	metrics.IncHTTP("disponibilidad")

	fecha := r.URL.Query().Get("fecha")
	if fecha == "" {
		writeError(w, http.StatusBadRequest, "fecha is required")
		return
	}
	date, err := parseDateParam(fecha)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid fecha format; expected YYYY-MM-DD")
		return
	}

	duration := 0
	if raw := r.URL.Query().Get("duracion"); raw != "" {
		duration, err = strconv.Atoi(raw)
		if err != nil || duration <= 0 {
			writeError(w, http.StatusBadRequest, "duracion must be a positive number of minutes")
			return
		}
	} else if raw := r.URL.Query().Get("tratamientos"); raw != "" {
		ids, err := parseIDList(raw)
		if err != nil {
			writeError(w, http.StatusBadRequest, "tratamientos must be a comma-separated list of ids")
			return
		}
		duration, err = s.svc.DurationForTreatments(r.Context(), ids)
		if err != nil {
			writeAppError(w, err)
			return
		}
	} else {
		writeError(w, http.StatusBadRequest, "duracion or tratamientos is required")
		return
	}

	generated, err := s.svc.Availability(r.Context(), date, duration)
	if err != nil {
		writeAppError(w, err)
		return
	}

	response := make([]SlotResponse, 0, len(generated))
	for _, slot := range generated {
		response = append(response, SlotResponse{
			Inicio:     slot.Start,
			Fin:        slot.End,
			Disponible: slot.Available,
		})
	}
	writeJSON(w, http.StatusOK, response)
}

func parseIDList(raw string) ([]int64, error) {
	parts := strings.Split(raw, ",")
	ids := make([]int64, 0, len(parts))
	for _, p := range parts {
		id, err := strconv.ParseInt(strings.TrimSpace(p), 10, 64)
		if err != nil {
			return nil, err
		}
		ids = append(ids, id)
	}
	return ids, nil
}
