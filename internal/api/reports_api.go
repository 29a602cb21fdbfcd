package api

import (
	"fmt"
	"net/http"

	"turnero/internal/metrics"
)

// handleAgendaReport streams the agenda workbook for a date range.
// GET /api/reportes/agenda?desde=YYYY-MM-DD&hasta=YYYY-MM-DD
func (s *Server) handleAgendaReport(w http.ResponseWriter, r *http.Request) {
	metrics.IncHTTP("reporte_agenda")

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
	if desde.After(hasta) {
		writeError(w, http.StatusBadRequest, "desde must be before or equal to hasta")
		return
	}

	filename := fmt.Sprintf("agenda_%s_%s.xlsx", desde.Format("2006-01-02"), hasta.Format("2006-01-02"))
	w.Header().Set("Content-Type", "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet")
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", filename))

	if err := s.exporter.WriteAgenda(r.Context(), w, desde, hasta); err != nil {
		s.log.Error().Err(err).Msg("failed to export agenda")
		// Headers are already sent; nothing useful to add for the client.
		return
	}
}
