package server

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/bobmcallan/folio/internal/models"
)

type runValuationRequest struct {
	AsOf *time.Time `json:"asOf,omitempty"`
}

// snapshotView renders a stored snapshot with its payloads inlined as JSON.
type snapshotView struct {
	ID          string          `json:"id"`
	PortfolioID string          `json:"portfolioId"`
	AsOf        time.Time       `json:"asOf"`
	Totals      json.RawMessage `json:"totals"`
	Positions   json.RawMessage `json:"positions"`
	FXUsed      json.RawMessage `json:"fxUsed"`
	CreatedAt   time.Time       `json:"createdAt"`
}

func rawOr(s, empty string) json.RawMessage {
	if s == "" {
		return json.RawMessage(empty)
	}
	return json.RawMessage(s)
}

func newSnapshotView(snap *models.ValuationSnapshot) snapshotView {
	return snapshotView{
		ID:          snap.ID,
		PortfolioID: snap.PortfolioID,
		AsOf:        snap.AsOf,
		Totals:      rawOr(snap.TotalsJSON, "{}"),
		Positions:   rawOr(snap.PositionsJSON, "[]"),
		FXUsed:      rawOr(snap.FXUsedJSON, "{}"),
		CreatedAt:   snap.CreatedAt,
	}
}

func (s *Server) handleValuationRun(w http.ResponseWriter, r *http.Request, portfolioID string) {
	if !RequireMethod(w, r, http.MethodPost) {
		return
	}
	userID := requireUser(w, r)
	if userID == "" {
		return
	}

	// The body is optional; an empty body values the portfolio as of now.
	var req runValuationRequest
	if r.ContentLength != 0 && r.Body != nil && r.Body != http.NoBody {
		if !DecodeJSON(w, r, &req) {
			return
		}
	}
	asOf := time.Time{}
	if req.AsOf != nil {
		asOf = *req.AsOf
	}

	snap, err := s.app.ValuationService.RunValuation(r.Context(), userID, portfolioID, asOf)
	if err != nil {
		s.writeServiceError(w, r, err)
		return
	}
	WriteJSON(w, http.StatusCreated, newSnapshotView(snap))
}

func (s *Server) handleValuationLatest(w http.ResponseWriter, r *http.Request, portfolioID string) {
	if !RequireMethod(w, r, http.MethodGet) {
		return
	}
	userID := requireUser(w, r)
	if userID == "" {
		return
	}

	if _, err := s.app.PortfolioService.GetPortfolio(r.Context(), userID, portfolioID); err != nil {
		s.writeServiceError(w, r, err)
		return
	}

	snap, err := s.app.ValuationService.Latest(r.Context(), userID, portfolioID)
	if errors.Is(err, models.ErrNotFound) {
		// The portfolio exists but was never valued.
		w.WriteHeader(http.StatusNoContent)
		return
	}
	if err != nil {
		s.writeServiceError(w, r, err)
		return
	}
	WriteJSON(w, http.StatusOK, newSnapshotView(snap))
}

func (s *Server) handleValuationHistory(w http.ResponseWriter, r *http.Request, portfolioID string) {
	if !RequireMethod(w, r, http.MethodGet) {
		return
	}
	userID := requireUser(w, r)
	if userID == "" {
		return
	}

	from, to, err := dateRange(r)
	if err != nil {
		s.writeServiceError(w, r, err)
		return
	}
	list, err := s.app.ValuationService.History(r.Context(), userID, portfolioID, from, to)
	if err != nil {
		s.writeServiceError(w, r, err)
		return
	}

	views := make([]snapshotView, 0, len(list))
	for i := range list {
		views = append(views, newSnapshotView(&list[i]))
	}
	WriteJSON(w, http.StatusOK, views)
}

func (s *Server) handleValuationChart(w http.ResponseWriter, r *http.Request, portfolioID string) {
	if !RequireMethod(w, r, http.MethodGet) {
		return
	}
	userID := requireUser(w, r)
	if userID == "" {
		return
	}

	from, to, err := dateRange(r)
	if err != nil {
		s.writeServiceError(w, r, err)
		return
	}
	png, err := s.app.ValuationService.RenderNAVChart(r.Context(), userID, portfolioID, from, to)
	if err != nil {
		s.writeServiceError(w, r, err)
		return
	}

	w.Header().Set("Content-Type", "image/png")
	w.Header().Set("Content-Length", strconv.Itoa(len(png)))
	w.WriteHeader(http.StatusOK)
	w.Write(png)
}
