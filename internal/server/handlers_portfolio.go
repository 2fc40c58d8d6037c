package server

import (
	"net/http"
	"strings"
)

type createPortfolioRequest struct {
	Name         string `json:"name"`
	BaseCurrency string `json:"baseCurrency"`
}

type createAccountRequest struct {
	Name     string `json:"name"`
	Currency string `json:"currency"`
}

// handlePortfolios handles GET (list) and POST (create) on /api/portfolios.
func (s *Server) handlePortfolios(w http.ResponseWriter, r *http.Request) {
	if !RequireMethod(w, r, http.MethodGet, http.MethodPost) {
		return
	}
	userID := requireUser(w, r)
	if userID == "" {
		return
	}

	if r.Method == http.MethodGet {
		list, err := s.app.PortfolioService.ListPortfolios(r.Context(), userID)
		if err != nil {
			s.writeServiceError(w, r, err)
			return
		}
		WriteJSON(w, http.StatusOK, list)
		return
	}

	var req createPortfolioRequest
	if !DecodeJSON(w, r, &req) {
		return
	}
	p, err := s.app.PortfolioService.CreatePortfolio(r.Context(), userID, req.Name, req.BaseCurrency)
	if err != nil {
		s.writeServiceError(w, r, err)
		return
	}
	WriteJSON(w, http.StatusCreated, p)
}

func (s *Server) handlePortfolioGet(w http.ResponseWriter, r *http.Request, portfolioID string) {
	if !RequireMethod(w, r, http.MethodGet) {
		return
	}
	userID := requireUser(w, r)
	if userID == "" {
		return
	}

	p, err := s.app.PortfolioService.GetPortfolio(r.Context(), userID, portfolioID)
	if err != nil {
		s.writeServiceError(w, r, err)
		return
	}
	WriteJSON(w, http.StatusOK, p)
}

// handleAccounts handles GET (list) and POST (create) on /api/portfolios/{pid}/accounts.
func (s *Server) handleAccounts(w http.ResponseWriter, r *http.Request, portfolioID string) {
	if !RequireMethod(w, r, http.MethodGet, http.MethodPost) {
		return
	}
	userID := requireUser(w, r)
	if userID == "" {
		return
	}

	if r.Method == http.MethodGet {
		list, err := s.app.PortfolioService.ListAccounts(r.Context(), userID, portfolioID)
		if err != nil {
			s.writeServiceError(w, r, err)
			return
		}
		WriteJSON(w, http.StatusOK, list)
		return
	}

	var req createAccountRequest
	if !DecodeJSON(w, r, &req) {
		return
	}
	a, err := s.app.PortfolioService.CreateAccount(r.Context(), userID, portfolioID, req.Name, strings.TrimSpace(req.Currency))
	if err != nil {
		s.writeServiceError(w, r, err)
		return
	}
	WriteJSON(w, http.StatusCreated, a)
}

func (s *Server) handleAccountGet(w http.ResponseWriter, r *http.Request, portfolioID, accountID string) {
	if !RequireMethod(w, r, http.MethodGet) {
		return
	}
	userID := requireUser(w, r)
	if userID == "" {
		return
	}

	a, err := s.app.PortfolioService.GetAccount(r.Context(), userID, portfolioID, accountID)
	if err != nil {
		s.writeServiceError(w, r, err)
		return
	}
	WriteJSON(w, http.StatusOK, a)
}
