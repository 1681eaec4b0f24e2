package server

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"

	"github.com/tobilabs/salesbot/internal/catalog"
	"github.com/tobilabs/salesbot/internal/config"
	"github.com/tobilabs/salesbot/internal/engine"
	"github.com/tobilabs/salesbot/internal/llm"
	"github.com/tobilabs/salesbot/internal/search"
	"github.com/tobilabs/salesbot/internal/session"
	"github.com/tobilabs/salesbot/internal/upsell"
)

// downLLM fails every call: extraction soft-fails, intent classification
// falls back to keywords and replies fall back to templates.
type downLLM struct{}

func (downLLM) Complete(context.Context, llm.CompletionRequest) (*llm.CompletionResponse, error) {
	return nil, errors.New("collaborator down")
}

func (downLLM) Name() string { return "down" }

type stubEmbedder struct{}

func (stubEmbedder) Embed(_ context.Context, texts []string) ([][]float32, error) {
	out := make([][]float32, len(texts))
	for i := range texts {
		out[i] = []float32{1, 0}
	}
	return out, nil
}

func (stubEmbedder) Dimensions() int { return 2 }
func (stubEmbedder) Name() string    { return "stub" }

func newTestServer(t *testing.T) (*Server, *session.MemoryStore) {
	t.Helper()

	vec := []float32{1, 0}
	products := []catalog.Product{
		{ID: "p1", Name: "Smart Lite", Brand: "Vodafone", MonthlyCost: 15, Storage: "64GB", DataAllowance: "5GB", ContractMonths: 24, Embedding: vec, Index: 0},
		{ID: "p2", Name: "Galaxy S24", Brand: "Samsung", MonthlyCost: 30, Storage: "128GB", DataAllowance: "100GB", ContractMonths: 24, Embedding: vec, Index: 1},
	}

	cfg := config.DefaultConfig()
	cfg.Server.AllowAll = true

	searcher, err := search.NewEngine(products, stubEmbedder{}, cfg.Search.RelaxOrder)
	if err != nil {
		t.Fatalf("search.NewEngine: %v", err)
	}
	sequencer := upsell.NewSequencer(upsell.DefaultCatalog())
	store := session.NewMemoryStore()
	eng := engine.New(cfg, store, downLLM{}, searcher, sequencer)

	return New(cfg, eng, searcher, sequencer, store), store
}

func TestHealthCheck(t *testing.T) {
	srv, _ := newTestServer(t)

	req := httptest.NewRequest("GET", "/healthz", nil)
	w := httptest.NewRecorder()
	srv.Router().ServeHTTP(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", w.Code)
	}

	var body map[string]string
	if err := json.Unmarshal(w.Body.Bytes(), &body); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if body["status"] != "ok" {
		t.Errorf("expected status 'ok', got %q", body["status"])
	}
}

func TestChatAssignsSessionID(t *testing.T) {
	srv, store := newTestServer(t)

	body, _ := json.Marshal(chatRequest{Message: "hi, I want a phone"})
	req := httptest.NewRequest("POST", "/chat", bytes.NewReader(body))
	w := httptest.NewRecorder()
	srv.Router().ServeHTTP(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", w.Code, w.Body.String())
	}

	var resp chatResponse
	if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if resp.SessionID == "" {
		t.Error("expected a generated session id")
	}
	if resp.Response == "" {
		t.Error("expected a reply")
	}
	if resp.State != session.StateCollecting {
		t.Errorf("state = %s, want %s", resp.State, session.StateCollecting)
	}
	if store.Count() != 1 {
		t.Errorf("expected 1 stored session, got %d", store.Count())
	}
}

func TestChatKeepsSessionAcrossTurns(t *testing.T) {
	srv, _ := newTestServer(t)

	send := func(msg, id string) chatResponse {
		t.Helper()
		body, _ := json.Marshal(chatRequest{Message: msg, SessionID: id})
		req := httptest.NewRequest("POST", "/chat", bytes.NewReader(body))
		w := httptest.NewRecorder()
		srv.Router().ServeHTTP(w, req)
		if w.Code != http.StatusOK {
			t.Fatalf("expected 200, got %d: %s", w.Code, w.Body.String())
		}
		var resp chatResponse
		if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
			t.Fatalf("unmarshal: %v", err)
		}
		return resp
	}

	first := send("hello", "")
	second := send("hello again", first.SessionID)
	if second.SessionID != first.SessionID {
		t.Errorf("session id changed between turns: %q vs %q", first.SessionID, second.SessionID)
	}
}

func TestChatRejectsInvalidBody(t *testing.T) {
	srv, _ := newTestServer(t)

	req := httptest.NewRequest("POST", "/chat", bytes.NewReader([]byte("not json")))
	w := httptest.NewRecorder()
	srv.Router().ServeHTTP(w, req)

	if w.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", w.Code)
	}
}

func TestProductsEndpoint(t *testing.T) {
	srv, _ := newTestServer(t)

	req := httptest.NewRequest("GET", "/products", nil)
	w := httptest.NewRecorder()
	srv.Router().ServeHTTP(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", w.Code)
	}

	var body struct {
		Products []catalog.Product `json:"products"`
		Count    int               `json:"count"`
	}
	if err := json.Unmarshal(w.Body.Bytes(), &body); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if body.Count != 2 || len(body.Products) != 2 {
		t.Errorf("expected 2 products, got count=%d len=%d", body.Count, len(body.Products))
	}
}

func TestSearchEndpoint(t *testing.T) {
	srv, _ := newTestServer(t)

	req := httptest.NewRequest("GET", "/search/galaxy?limit=1", nil)
	w := httptest.NewRecorder()
	srv.Router().ServeHTTP(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", w.Code)
	}

	var result search.Result
	if err := json.Unmarshal(w.Body.Bytes(), &result); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if len(result.Items) != 1 {
		t.Errorf("expected 1 result with limit=1, got %d", len(result.Items))
	}
}

func TestSessionEndpoint(t *testing.T) {
	srv, store := newTestServer(t)

	req := httptest.NewRequest("GET", "/session/unknown", nil)
	w := httptest.NewRecorder()
	srv.Router().ServeHTTP(w, req)
	if w.Code != http.StatusNotFound {
		t.Fatalf("expected 404 for unknown session, got %d", w.Code)
	}

	if _, err := store.GetOrCreate(context.Background(), "known"); err != nil {
		t.Fatalf("GetOrCreate: %v", err)
	}
	req = httptest.NewRequest("GET", "/session/known", nil)
	w = httptest.NewRecorder()
	srv.Router().ServeHTTP(w, req)
	if w.Code != http.StatusOK {
		t.Fatalf("expected 200 for known session, got %d", w.Code)
	}

	var sess session.Session
	if err := json.Unmarshal(w.Body.Bytes(), &sess); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if sess.ID != "known" || sess.State != session.StateGreeting {
		t.Errorf("unexpected session payload: id=%q state=%q", sess.ID, sess.State)
	}
}

func TestStatsEndpoint(t *testing.T) {
	srv, _ := newTestServer(t)

	req := httptest.NewRequest("GET", "/stats", nil)
	w := httptest.NewRecorder()
	srv.Router().ServeHTTP(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", w.Code)
	}

	var stats statsResponse
	if err := json.Unmarshal(w.Body.Bytes(), &stats); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if stats.Products != 2 {
		t.Errorf("products = %d, want 2", stats.Products)
	}
	if stats.OfferCategories != 3 {
		t.Errorf("offer categories = %d, want 3", stats.OfferCategories)
	}
	if len(stats.Brands) != 2 {
		t.Errorf("brands = %v, want two entries", stats.Brands)
	}
}

func TestCORSHeaders(t *testing.T) {
	srv, _ := newTestServer(t)

	req := httptest.NewRequest("OPTIONS", "/healthz", nil)
	req.Header.Set("Origin", "http://example.com")
	req.Header.Set("Access-Control-Request-Method", "GET")
	w := httptest.NewRecorder()
	srv.Router().ServeHTTP(w, req)

	if w.Header().Get("Access-Control-Allow-Origin") == "" {
		t.Error("expected CORS Allow-Origin header")
	}
}

// Reads on /session/{id} must be safe while a turn for the same id is
// mid-flight; run with -race to catch snapshot regressions in the store.
func TestConcurrentChatAndSessionRead(t *testing.T) {
	srv, _ := newTestServer(t)

	post := func() int {
		body, _ := json.Marshal(chatRequest{Message: "heavy data under £45", SessionID: "race-1"})
		req := httptest.NewRequest("POST", "/chat", bytes.NewReader(body))
		req.Header.Set("Content-Type", "application/json")
		w := httptest.NewRecorder()
		srv.Router().ServeHTTP(w, req)
		return w.Code
	}

	if code := post(); code != http.StatusOK {
		t.Fatalf("seed chat turn: %d", code)
	}

	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for j := 0; j < 10; j++ {
				if code := post(); code != http.StatusOK {
					t.Errorf("chat returned %d", code)
					return
				}
			}
		}()
		wg.Add(1)
		go func() {
			defer wg.Done()
			for j := 0; j < 10; j++ {
				req := httptest.NewRequest("GET", "/session/race-1", nil)
				w := httptest.NewRecorder()
				srv.Router().ServeHTTP(w, req)
				if w.Code != http.StatusOK {
					t.Errorf("session read returned %d", w.Code)
					return
				}
			}
		}()
	}
	wg.Wait()
}
