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

// ClientRequest is the tagged body for creating or updating a client.
type ClientRequest struct {
	Nombre   string `json:"nombre"`
	Telefono string `json:"telefono"`
	Email    string `json:"email,omitempty"`
	Notas    string `json:"notas,omitempty"`
}

// TreatmentRequest is the tagged body for creating or updating a treatment.
type TreatmentRequest struct {
	Nombre          string  `json:"nombre"`
	DuracionMinutos int     `json:"duracionMinutos"`
	Precio          float64 `json:"precio"`
	Activo          bool    `json:"activo"`
}

// handleListClients returns all clients ordered by name.
// GET /api/clientes
func (s *Server) handleListClients(w http.ResponseWriter, r *http.Request) {
	metrics.IncHTTP("listar_clientes")

	clients, err := s.db.ListClients(r.Context())
	if err != nil {
		s.log.Error().Err(err).Msg("failed to list clients")
		writeError(w, http.StatusInternalServerError, "failed to list clients")
		return
	}
	if clients == nil {
		clients = []models.Client{}
	}
	writeJSON(w, http.StatusOK, clients)
}

// handleCreateClient registers a new client.
// POST /api/clientes
func (s *Server) handleCreateClient(w http.ResponseWriter, r *http.Request) {
	metrics.IncHTTP("crear_cliente")

	var req ClientRequest
	if err := decodeStrict(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON body")
		return
	}
	if req.Nombre == "" || req.Telefono == "" {
		writeError(w, http.StatusBadRequest, "nombre and telefono are required")
		return
	}

	client := &models.Client{
		Name:  req.Nombre,
		Phone: req.Telefono,
		Email: req.Email,
		Notes: req.Notas,
	}
	if err := s.db.CreateClient(r.Context(), client); err != nil {
		s.log.Error().Err(err).Msg("failed to create client")
		writeError(w, http.StatusInternalServerError, "failed to create client")
		return
	}
	writeJSON(w, http.StatusCreated, client)
}

// handleUpdateClient updates a client's contact details.
// PUT /api/clientes/{id}
func (s *Server) handleUpdateClient(w http.ResponseWriter, r *http.Request) {
	metrics.IncHTTP("update_cliente")

	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid client id")
		return
	}

	var req ClientRequest
	if err := decodeStrict(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON body")
		return
	}
	if req.Nombre == "" || req.Telefono == "" {
		writeError(w, http.StatusBadRequest, "nombre and telefono are required")
		return
	}

	client := &models.Client{
		ID:    id,
		Name:  req.Nombre,
		Phone: req.Telefono,
		Email: req.Email,
		Notes: req.Notas,
	}
	if err := s.db.UpdateClient(r.Context(), client); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			writeError(w, http.StatusNotFound, "client not found")
			return
		}
		writeError(w, http.StatusInternalServerError, "failed to update client")
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"success": true})
}

// handleListTreatments returns the treatment catalog. Pass activos=true to
// filter out retired treatments.
// GET /api/tratamientos
func (s *Server) handleListTreatments(w http.ResponseWriter, r *http.Request) {
	metrics.IncHTTP("listar_tratamientos")

	activeOnly := r.URL.Query().Get("activos") == "true"
	treatments, err := s.db.ListTreatments(r.Context(), activeOnly)
	if err != nil {
		s.log.Error().Err(err).Msg("failed to list treatments")
		writeError(w, http.StatusInternalServerError, "failed to list treatments")
		return
	}
	if treatments == nil {
		treatments = []models.Treatment{}
	}
	writeJSON(w, http.StatusOK, treatments)
}

// handleCreateTreatment adds a treatment to the catalog.
// POST /api/tratamientos
func (s *Server) handleCreateTreatment(w http.ResponseWriter, r *http.Request) {
	metrics.IncHTTP("crear_tratamiento")

	var req TreatmentRequest
	if err := decodeStrict(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON body")
		return
	}
	if req.Nombre == "" {
		writeError(w, http.StatusBadRequest, "nombre is required")
		return
	}
	if req.DuracionMinutos <= 0 {
		writeError(w, http.StatusBadRequest, "duracionMinutos must be positive")
		return
	}

	treatment := &models.Treatment{
		Name:            req.Nombre,
		DurationMinutes: req.DuracionMinutos,
		Price:           req.Precio,
		Active:          req.Activo,
	}
	if err := s.db.CreateTreatment(r.Context(), treatment); err != nil {
		s.log.Error().Err(err).Msg("failed to create treatment")
		writeError(w, http.StatusInternalServerError, "failed to create treatment")
		return
	}
	writeJSON(w, http.StatusCreated, treatment)
}

// handleUpdateTreatment updates a treatment's details.
// PUT /api/tratamientos/{id}
func (s *Server) handleUpdateTreatment(w http.ResponseWriter, r *http.Request) {
	metrics.IncHTTP("update_tratamiento")

	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid treatment id")
		return
	}

	var req TreatmentRequest
	if err := decodeStrict(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON body")
		return
	}
	if req.Nombre == "" {
		writeError(w, http.StatusBadRequest, "nombre is required")
		return
	}
	if req.DuracionMinutos <= 0 {
		writeError(w, http.StatusBadRequest, "duracionMinutos must be positive")
		return
	}

	treatment := &models.Treatment{
		ID:              id,
		Name:            req.Nombre,
		DurationMinutes: req.DuracionMinutos,
		Price:           req.Precio,
		Active:          req.Activo,
	}
	if err := s.db.UpdateTreatment(r.Context(), treatment); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			writeError(w, http.StatusNotFound, "treatment not found")
			return
		}
		writeError(w, http.StatusInternalServerError, "failed to update treatment")
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"success": true})
}
