package server

import (
	"net/http"
	"strings"

	"github.com/bobmcallan/folio/internal/models"
)

// handleTransactions handles POST (post) and GET (search) on
// /api/portfolios/{pid}/transactions.
func (s *Server) handleTransactions(w http.ResponseWriter, r *http.Request, portfolioID string) {
	if !RequireMethod(w, r, http.MethodGet, http.MethodPost) {
		return
	}
	userID := requireUser(w, r)
	if userID == "" {
		return
	}

	if r.Method == http.MethodPost {
		var req models.TransactionRequest
		if !DecodeJSON(w, r, &req) {
			return
		}
		key := strings.TrimSpace(r.Header.Get("Idempotency-Key"))
		tx, err := s.app.TransactionService.Post(r.Context(), userID, portfolioID, req, key)
		if err != nil {
			s.writeServiceError(w, r, err)
			return
		}
		WriteJSON(w, http.StatusCreated, tx)
		return
	}

	from, err := queryDate(r, "from")
	if err != nil {
		s.writeServiceError(w, r, err)
		return
	}
	to, err := queryDate(r, "to")
	if err != nil {
		s.writeServiceError(w, r, err)
		return
	}
	page, err := queryInt(r, "page", 0)
	if err != nil {
		s.writeServiceError(w, r, err)
		return
	}
	size, err := queryInt(r, "size", 0)
	if err != nil {
		s.writeServiceError(w, r, err)
		return
	}

	result, err := s.app.TransactionService.Search(r.Context(), userID, portfolioID, from, to, page, size)
	if err != nil {
		s.writeServiceError(w, r, err)
		return
	}
	WriteJSON(w, http.StatusOK, result)
}

func (s *Server) handleTransactionGet(w http.ResponseWriter, r *http.Request, portfolioID, transactionID string) {
	if !RequireMethod(w, r, http.MethodGet) {
		return
	}
	userID := requireUser(w, r)
	if userID == "" {
		return
	}

	tx, err := s.app.TransactionService.Get(r.Context(), userID, portfolioID, transactionID)
	if err != nil {
		s.writeServiceError(w, r, err)
		return
	}
	WriteJSON(w, http.StatusOK, tx)
}
