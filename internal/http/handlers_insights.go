package http

import (
	"context"
	"log/slog"
	"net/http"

	"spendtrack/internal/insights"
)

type seriesResponse struct {
	Series []insights.SeriesPoint `json:"series"`
}

type categoriesResponse struct {
	Series []insights.CategoryTotal `json:"series"`
}

// series handles the shared shape of the three time-bucketed endpoints.
func (s *Server) series(w http.ResponseWriter, r *http.Request,
	query func(ctx context.Context, owner, method string) ([]insights.SeriesPoint, error)) {
	if !requireMethod(w, r, http.MethodGet) {
		return
	}
	points, err := query(r.Context(), ownerFrom(r.Context()), r.URL.Query().Get("method"))
	if err != nil {
		slog.ErrorContext(r.Context(), "Insights query failed", "error", err, "url", r.URL.Path)
		writeError(w, http.StatusInternalServerError, "could not compute insights")
		return
	}
	if points == nil {
		points = []insights.SeriesPoint{}
	}
	writeJSON(w, http.StatusOK, seriesResponse{Series: points})
}

func (s *Server) handleDaily(w http.ResponseWriter, r *http.Request) {
	s.series(w, r, s.insights.Daily)
}

func (s *Server) handleMonthly(w http.ResponseWriter, r *http.Request) {
	s.series(w, r, s.insights.Monthly)
}

func (s *Server) handleYearly(w http.ResponseWriter, r *http.Request) {
	s.series(w, r, s.insights.Yearly)
}

func (s *Server) handleCategories(w http.ResponseWriter, r *http.Request) {
	if !requireMethod(w, r, http.MethodGet) {
		return
	}
	totals, err := s.insights.Categories(r.Context(), ownerFrom(r.Context()), r.URL.Query().Get("method"))
	if err != nil {
		slog.ErrorContext(r.Context(), "Category insights failed", "error", err)
		writeError(w, http.StatusInternalServerError, "could not compute insights")
		return
	}
	if totals == nil {
		totals = []insights.CategoryTotal{}
	}
	writeJSON(w, http.StatusOK, categoriesResponse{Series: totals})
}

func (s *Server) handleSummary(w http.ResponseWriter, r *http.Request) {
	if !requireMethod(w, r, http.MethodGet) {
		return
	}
	sum, err := s.insights.Summarize(r.Context(), ownerFrom(r.Context()))
	if err != nil {
		slog.ErrorContext(r.Context(), "Summary failed", "error", err)
		writeError(w, http.StatusInternalServerError, "could not compute summary")
		return
	}
	writeJSON(w, http.StatusOK, sum)
}
