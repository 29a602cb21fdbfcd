package api

import (
	"database/sql"
	"errors"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"turnero/internal/booking"
	"turnero/internal/metrics"
	"turnero/internal/models"
)

// CreateTurnoRequest is the request body for POST /api/turnos.
type CreateTurnoRequest struct {
	ClienteID    int64   `json:"clienteId"`
	Tratamientos []int64 `json:"tratamientos"`
	Fecha        string  `json:"fecha"`  // YYYY-MM-DD
	Inicio       string  `json:"inicio"` // HH:MM
	Notas        string  `json:"notas,omitempty"`
}

// TurnoResponse is an appointment on the wire.
type TurnoResponse struct {
	ID           int64   `json:"id"`
	ClienteID    int64   `json:"clienteId"`
	Tratamientos []int64 `json:"tratamientos"`
	Fecha        string  `json:"fecha"`
	Inicio       string  `json:"inicio"`
	Fin          string  `json:"fin"`
	Estado       string  `json:"estado"`
	Notas        string  `json:"notas,omitempty"`
}

// UpdateEstadoRequest is the request body for PATCH /api/turnos/{id}/estado.
type UpdateEstadoRequest struct {
	Estado string `json:"estado"`
}

func toTurnoResponse(a *models.Appointment) TurnoResponse {
	return TurnoResponse{
		ID:           a.ID,
		ClienteID:    a.ClientID,
		Tratamientos: a.TreatmentIDs,
		Fecha:        a.StartTime.Format("2006-01-02"),
		Inicio:       a.StartTime.Format("15:04"),
		Fin:          a.EndTime.Format("15:04"),
		Estado:       a.Status,
		Notas:        a.Notes,
	}
}

// handleCreateTurno books an appointment after the submission-time re-check.
// POST /api/turnos
func (s *Server) handleCreateTurno(w http.ResponseWriter, r *http.Request) {
	metrics.IncHTTP("crear_turno")

	var req CreateTurnoRequest
	if err := decodeStrict(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON body")
		return
	}
	if req.Fecha == "" || req.Inicio == "" {
		writeError(w, http.StatusBadRequest, "fecha and inicio are required")
		return
	}
	date, err := parseDateParam(req.Fecha)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid fecha format; expected YYYY-MM-DD")
		return
	}

	appointment, err := s.svc.CreateTurno(r.Context(), booking.CreateTurnoRequest{
		ClientID:     req.ClienteID,
		TreatmentIDs: req.Tratamientos,
		Date:         date,
		Start:        req.Inicio,
		Notes:        req.Notas,
	})
	if err != nil {
		writeAppError(w, err)
		return
	}

	writeJSON(w, http.StatusCreated, toTurnoResponse(appointment))
}

// handleGetTurno returns one appointment.
// GET /api/turnos/{id}
func (s *Server) handleGetTurno(w http.ResponseWriter, r *http.Request) {
	metrics.IncHTTP("get_turno")

	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid turno id")
		return
	}

	appointment, err := s.db.GetAppointment(r.Context(), id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			writeError(w, http.StatusNotFound, "turno not found")
			return
		}
		s.log.Error().Err(err).Int64("turno_id", id).Msg("failed to load turno")
		writeError(w, http.StatusInternalServerError, "failed to load turno")
		return
	}
	writeJSON(w, http.StatusOK, toTurnoResponse(appointment))
}

// handleUpdateTurnoStatus moves an appointment within the status enum.
// PATCH /api/turnos/{id}/estado
func (s *Server) handleUpdateTurnoStatus(w http.ResponseWriter, r *http.Request) {
	metrics.IncHTTP("estado_turno")

	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid turno id")
		return
	}

	var req UpdateEstadoRequest
	if err := decodeStrict(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON body")
		return
	}

	appointment, err := s.svc.UpdateStatus(r.Context(), id, req.Estado)
	if err != nil {
		writeAppError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, toTurnoResponse(appointment))
}

// handleTurnoBalance returns charge, payments and outstanding balance.
// GET /api/turnos/{id}/saldo
func (s *Server) handleTurnoBalance(w http.ResponseWriter, r *http.Request) {
	metrics.IncHTTP("saldo_turno")

	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid turno id")
		return
	}

	if _, err := s.db.GetAppointment(r.Context(), id); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			writeError(w, http.StatusNotFound, "turno not found")
			return
		}
		writeError(w, http.StatusInternalServerError, "failed to load turno")
		return
	}

	charge, err := s.db.AppointmentCharge(r.Context(), id)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "failed to compute balance")
		return
	}
	paid, err := s.db.PaymentsReceived(r.Context(), id)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "failed to compute balance")
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"turnoId": id,
		"importe": charge,
		"pagado":  paid,
		"saldo":   charge - paid,
	})
}

// PaymentRequest is the request body for POST /api/pagos.
type PaymentRequest struct {
	TurnoID int64   `json:"turnoId"`
	Importe float64 `json:"importe"`
	Metodo  string  `json:"metodo,omitempty"`
}

// handleCreatePayment records a payment against an appointment.
// POST /api/pagos
func (s *Server) handleCreatePayment(w http.ResponseWriter, r *http.Request) {
	metrics.IncHTTP("crear_pago")

	var req PaymentRequest
	if err := decodeStrict(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON body")
		return
	}

	payment, err := s.svc.RegisterPayment(r.Context(), req.TurnoID, req.Importe, req.Metodo)
	if err != nil {
		writeAppError(w, err)
		return
	}

	writeJSON(w, http.StatusCreated, map[string]any{
		"id":      payment.ID,
		"turnoId": payment.AppointmentID,
		"importe": payment.Amount,
		"metodo":  payment.Method,
	})
}
