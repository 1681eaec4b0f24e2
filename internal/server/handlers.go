package server

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/tobilabs/salesbot/internal/catalog"
	"github.com/tobilabs/salesbot/internal/session"
	"github.com/tobilabs/salesbot/internal/upsell"
)

type chatRequest struct {
	Message   string `json:"message"`
	SessionID string `json:"session_id"`
}

type chatResponse struct {
	SessionID       string            `json:"session_id"`
	Response        string            `json:"response"`
	Recommendations []catalog.Product `json:"recommendations,omitempty"`
	Offer           *upsell.Offer     `json:"offer,omitempty"`
	State           session.State     `json:"state"`
}

func (s *Server) handleChat(w http.ResponseWriter, r *http.Request) {
	var req chatRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "invalid request body", http.StatusBadRequest)
		return
	}
	if req.SessionID == "" {
		req.SessionID = uuid.NewString()
	}

	result, err := s.engine.HandleTurn(r.Context(), req.SessionID, req.Message)
	if err != nil {
		if errors.Is(err, session.ErrEmptySessionID) {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}
		http.Error(w, "conversation turn failed", http.StatusInternalServerError)
		return
	}

	writeJSON(w, http.StatusOK, chatResponse{
		SessionID:       req.SessionID,
		Response:        result.Reply,
		Recommendations: result.Products,
		Offer:           result.Offer,
		State:           result.State,
	})
}

func (s *Server) handleProducts(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{
		"products": s.searcher.Products(),
		"count":    len(s.searcher.Products()),
	})
}

func (s *Server) handleSearch(w http.ResponseWriter, r *http.Request) {
	query := chi.URLParam(r, "query")

	limit := s.cfg.Search.TopK
	if v := r.URL.Query().Get("limit"); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			limit = n
		}
	}

	result, err := s.searcher.SearchText(r.Context(), query, limit)
	if err != nil {
		http.Error(w, "search failed", http.StatusInternalServerError)
		return
	}
	writeJSON(w, http.StatusOK, result)
}

func (s *Server) handleSession(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	sess, err := s.store.Get(r.Context(), id)
	if err != nil {
		if errors.Is(err, session.ErrSessionNotFound) || errors.Is(err, session.ErrEmptySessionID) {
			http.Error(w, "session not found", http.StatusNotFound)
			return
		}
		http.Error(w, "session lookup failed", http.StatusInternalServerError)
		return
	}
	writeJSON(w, http.StatusOK, sess)
}

type statsResponse struct {
	Products        int      `json:"products"`
	Brands          []string `json:"brands"`
	OfferCategories int      `json:"offer_categories"`
	Sessions        int      `json:"sessions,omitempty"`
}

func (s *Server) handleStats(w http.ResponseWriter, r *http.Request) {
	resp := statsResponse{
		Products:        len(s.searcher.Products()),
		Brands:          s.searcher.Brands(),
		OfferCategories: s.sequencer.CategoryCount(),
	}
	// Only the in-memory driver can count cheaply.
	if counter, ok := s.store.(interface{ Count() int }); ok {
		resp.Sessions = counter.Count()
	}
	writeJSON(w, http.StatusOK, resp)
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}
