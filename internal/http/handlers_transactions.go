package http

import (
	"errors"
	"log/slog"
	"net/http"

	"spendtrack/internal/core"
	"spendtrack/internal/importer"
	"spendtrack/internal/parse"
	"spendtrack/internal/services"
)

type createTransactionRequest struct {
	Title         string     `json:"title"`
	Amount        core.Money `json:"amount"`
	Category      string     `json:"category"`
	Date          core.Date  `json:"date"`
	PaymentMethod string     `json:"paymentMethod"`
}

func (s *Server) handleTransactions(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodPost:
		s.handleCreateTransaction(w, r)
	case http.MethodGet:
		s.handleListTransactions(w, r)
	default:
		w.Header().Set("Allow", "GET, POST")
		writeError(w, http.StatusMethodNotAllowed, "method not allowed")
	}
}

func (s *Server) handleCreateTransaction(w http.ResponseWriter, r *http.Request) {
	var req createTransactionRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "malformed request body")
		return
	}

	tx, err := s.txs.Create(r.Context(), core.Transaction{
		Owner:         ownerFrom(r.Context()),
		Title:         req.Title,
		Amount:        req.Amount,
		Category:      req.Category,
		Date:          req.Date,
		PaymentMethod: req.PaymentMethod,
	})
	if err != nil {
		if isValidationError(err) {
			writeError(w, http.StatusUnprocessableEntity, err.Error())
			return
		}
		slog.ErrorContext(r.Context(), "Transaction create failed", "error", err)
		writeError(w, http.StatusInternalServerError, "could not save transaction")
		return
	}
	writeJSON(w, http.StatusCreated, tx)
}

func (s *Server) handleListTransactions(w http.ResponseWriter, r *http.Request) {
	txs, err := s.txs.List(r.Context(), ownerFrom(r.Context()))
	if err != nil {
		slog.ErrorContext(r.Context(), "Transaction list failed", "error", err)
		writeError(w, http.StatusInternalServerError, "could not list transactions")
		return
	}
	if txs == nil {
		txs = []core.Transaction{}
	}
	writeJSON(w, http.StatusOK, txs)
}

type parseRequest struct {
	Text string `json:"text"`
}

func (s *Server) handleParse(w http.ResponseWriter, r *http.Request) {
	if !requireMethod(w, r, http.MethodPost) {
		return
	}
	var req parseRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "malformed request body")
		return
	}

	tx, err := s.txs.SmartCreate(r.Context(), ownerFrom(r.Context()), req.Text)
	if errors.Is(err, parse.ErrAmountNotFound) {
		writeError(w, http.StatusUnprocessableEntity, "no amount found in text")
		return
	}
	if err != nil {
		if isValidationError(err) {
			writeError(w, http.StatusUnprocessableEntity, err.Error())
			return
		}
		slog.ErrorContext(r.Context(), "Smart create failed", "error", err)
		writeError(w, http.StatusInternalServerError, "could not save transaction")
		return
	}
	writeJSON(w, http.StatusCreated, tx)
}

type importRequest struct {
	Data string `json:"data"`
}

type importQueuedResponse struct {
	Queued bool `json:"queued"`
}

func (s *Server) handleImport(w http.ResponseWriter, r *http.Request) {
	if !requireMethod(w, r, http.MethodPost) {
		return
	}
	var req importRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "malformed request body")
		return
	}
	owner := ownerFrom(r.Context())

	if r.URL.Query().Get("async") == "1" {
		err := s.txs.EnqueueImport(r.Context(), owner, req.Data)
		if errors.Is(err, services.ErrAsyncUnavailable) {
			writeError(w, http.StatusServiceUnavailable, "async import not configured")
			return
		}
		if err != nil {
			slog.ErrorContext(r.Context(), "Import enqueue failed", "error", err)
			writeError(w, http.StatusInternalServerError, "could not queue import")
			return
		}
		writeJSON(w, http.StatusAccepted, importQueuedResponse{Queued: true})
		return
	}

	res, err := s.txs.Import(r.Context(), owner, req.Data)
	if err != nil {
		slog.ErrorContext(r.Context(), "Import failed",
			"error", err,
			"created", res.Created,
			"skipped", len(res.Skipped))
		writeError(w, http.StatusInternalServerError, "import failed")
		return
	}
	if res.Skipped == nil {
		res.Skipped = []importer.SkippedRow{}
	}
	writeJSON(w, http.StatusCreated, res)
}

// isValidationError reports whether err is one of the core validation
// sentinels mapped to 422.
func isValidationError(err error) bool {
	return errors.Is(err, core.ErrEmptyOwner) ||
		errors.Is(err, core.ErrEmptyTitle) ||
		errors.Is(err, core.ErrInvalidAmount) ||
		errors.Is(err, core.ErrMissingDate)
}
