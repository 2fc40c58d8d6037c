package server

import (
	"net/http"
	"strings"
	"time"

	"github.com/bobmcallan/folio/internal/common"
)

// handleShutdown handles POST /api/shutdown (dev mode only).
func (s *Server) handleShutdown(w http.ResponseWriter, r *http.Request) {
	if !RequireMethod(w, r, http.MethodPost) {
		return
	}

	if s.app.Config.IsProduction() {
		WriteError(w, http.StatusForbidden, "Shutdown endpoint disabled in production")
		return
	}

	s.logger.Info().Msg("Shutdown requested via HTTP endpoint")

	w.WriteHeader(http.StatusOK)
	w.Write([]byte("Shutting down gracefully...\n"))

	if flusher, ok := w.(http.Flusher); ok {
		flusher.Flush()
	}

	if s.shutdownChan != nil {
		go func() {
			time.Sleep(100 * time.Millisecond)
			s.shutdownChan <- struct{}{}
		}()
	}
}

// registerRoutes sets up all REST API routes on the mux.
func (s *Server) registerRoutes(mux *http.ServeMux) {
	// System
	mux.HandleFunc("/api/health", s.handleHealth)
	mux.HandleFunc("/api/version", s.handleVersion)
	mux.HandleFunc("/api/shutdown", s.handleShutdown)

	// Portfolios
	mux.HandleFunc("/api/portfolios/", s.routePortfolios)
	mux.HandleFunc("/api/portfolios", s.handlePortfolios)
}

// routePortfolios dispatches /api/portfolios/{pid}/...
func (s *Server) routePortfolios(w http.ResponseWriter, r *http.Request) {
	path := strings.Trim(strings.TrimPrefix(r.URL.Path, "/api/portfolios/"), "/")
	if path == "" {
		s.handlePortfolios(w, r)
		return
	}

	parts := strings.Split(path, "/")
	pid := parts[0]
	rest := parts[1:]

	switch {
	case len(rest) == 0:
		s.handlePortfolioGet(w, r, pid)

	case rest[0] == "accounts" && len(rest) == 1:
		s.handleAccounts(w, r, pid)
	case rest[0] == "accounts" && len(rest) == 2:
		s.handleAccountGet(w, r, pid, rest[1])

	case rest[0] == "transactions" && len(rest) == 1:
		s.handleTransactions(w, r, pid)
	case rest[0] == "transactions" && len(rest) == 2:
		s.handleTransactionGet(w, r, pid, rest[1])

	case rest[0] == "positions" && len(rest) == 1:
		s.handlePositionList(w, r, pid)
	case rest[0] == "positions" && len(rest) == 2 && rest[1] == "recompute":
		s.handlePositionRecompute(w, r, pid)
	case rest[0] == "positions" && len(rest) == 2:
		s.handlePositionGet(w, r, pid, rest[1])

	case rest[0] == "valuation" && len(rest) == 2:
		switch rest[1] {
		case "run":
			s.handleValuationRun(w, r, pid)
		case "latest":
			s.handleValuationLatest(w, r, pid)
		case "history":
			s.handleValuationHistory(w, r, pid)
		case "chart":
			s.handleValuationChart(w, r, pid)
		default:
			WriteError(w, http.StatusNotFound, "Not found")
		}

	default:
		WriteError(w, http.StatusNotFound, "Not found")
	}
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	if !RequireMethod(w, r, http.MethodGet, http.MethodHead) {
		return
	}
	WriteJSON(w, http.StatusOK, map[string]string{
		"status":  "ok",
		"storage": s.app.Storage.Backend(),
	})
}

func (s *Server) handleVersion(w http.ResponseWriter, r *http.Request) {
	if !RequireMethod(w, r, http.MethodGet, http.MethodHead) {
		return
	}
	WriteJSON(w, http.StatusOK, map[string]string{
		"version": common.GetVersion(),
		"build":   common.GetBuild(),
		"commit":  common.GetGitCommit(),
	})
}
