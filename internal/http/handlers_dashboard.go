package http

import (
	"log/slog"
	"net/http"

	"spendtrack/internal/core"
	"spendtrack/internal/insights"
)

func (s *Server) handleDashboard(w http.ResponseWriter, r *http.Request) {
	if !requireMethod(w, r, http.MethodGet) {
		return
	}
	dash, err := s.insights.DashboardStats(r.Context(), ownerFrom(r.Context()))
	if err != nil {
		slog.ErrorContext(r.Context(), "Dashboard failed", "error", err)
		writeError(w, http.StatusInternalServerError, "could not compute dashboard")
		return
	}
	if dash.CategoryTotals == nil {
		dash.CategoryTotals = []insights.CategoryTotal{}
	}
	if dash.LastFive == nil {
		dash.LastFive = []core.Transaction{}
	}
	writeJSON(w, http.StatusOK, dash)
}
