package server

import (
	"net/http"
	"strings"
)

type recomputeRequest struct {
	AccountID string `json:"accountId"`
	SymbolID  string `json:"symbolId"`
}

func (s *Server) handlePositionList(w http.ResponseWriter, r *http.Request, portfolioID string) {
	if !RequireMethod(w, r, http.MethodGet) {
		return
	}
	userID := requireUser(w, r)
	if userID == "" {
		return
	}

	list, err := s.app.PositionService.List(r.Context(), userID, portfolioID)
	if err != nil {
		s.writeServiceError(w, r, err)
		return
	}
	WriteJSON(w, http.StatusOK, list)
}

func (s *Server) handlePositionGet(w http.ResponseWriter, r *http.Request, portfolioID, symbolID string) {
	if !RequireMethod(w, r, http.MethodGet) {
		return
	}
	userID := requireUser(w, r)
	if userID == "" {
		return
	}

	p, err := s.app.PositionService.Get(r.Context(), userID, portfolioID, symbolID)
	if err != nil {
		s.writeServiceError(w, r, err)
		return
	}
	WriteJSON(w, http.StatusOK, p)
}

func (s *Server) handlePositionRecompute(w http.ResponseWriter, r *http.Request, portfolioID string) {
	if !RequireMethod(w, r, http.MethodPost) {
		return
	}
	userID := requireUser(w, r)
	if userID == "" {
		return
	}

	var req recomputeRequest
	if !DecodeJSON(w, r, &req) {
		return
	}
	p, err := s.app.PositionService.RecomputeFor(r.Context(), userID, portfolioID,
		strings.TrimSpace(req.AccountID), strings.TrimSpace(req.SymbolID))
	if err != nil {
		s.writeServiceError(w, r, err)
		return
	}
	WriteJSON(w, http.StatusOK, p)
}
