package mockapi

import (
	"encoding/json"
	"fmt"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"ovp/internal/model"
)

// Server is a stand-in for the downstream order-acceptance service, for
// local runs and tests. It honors the documented contract: 201 created with
// an assigned reference, 200 "exists" for a known identifier, 422 for
// business rejections, 400 for malformed requests.
type Server struct {
	storePath string
	failFirst int // first N POSTs answer 503, for retry demos

	mu    sync.Mutex
	posts int
	store map[string]storedOrder
}

type storedOrder struct {
	Order     model.OrderRecord `json:"order"`
	Reference string            `json:"reference"`
}

type response struct {
	Status    string `json:"status"`
	Reference string `json:"reference,omitempty"`
	Reason    string `json:"reason,omitempty"`
}

// New loads (or starts empty) the JSON-file backed store at storePath. An
// empty storePath keeps the store memory-only.
func New(storePath string, failFirst int) (*Server, error) {
	s := &Server{storePath: storePath, failFirst: failFirst, store: make(map[string]storedOrder)}
	if storePath == "" {
		return s, nil
	}
	raw, err := os.ReadFile(storePath)
	if os.IsNotExist(err) {
		return s, nil
	}
	if err != nil {
		return nil, fmt.Errorf("read store: %w", err)
	}
	if err := json.Unmarshal(raw, &s.store); err != nil {
		return nil, fmt.Errorf("unmarshal store %s: %w", storePath, err)
	}
	return s, nil
}

func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("/api/orders", s.handleCreate)
	mux.HandleFunc("/api/orders/", s.handleGet)
	return mux
}

func (s *Server) handleCreate(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	s.posts++
	if s.posts <= s.failFirst {
		http.Error(w, "simulated outage", http.StatusServiceUnavailable)
		return
	}

	var o model.OrderRecord
	if err := json.NewDecoder(r.Body).Decode(&o); err != nil {
		http.Error(w, "invalid JSON", http.StatusBadRequest)
		return
	}
	if name, missing := firstMissing(o); missing {
		http.Error(w, "missing required field: "+name, http.StatusBadRequest)
		return
	}
	amt, err := decimal.NewFromString(o.Amount)
	if err != nil {
		writeJSON(w, http.StatusUnprocessableEntity, response{Status: "rejected", Reason: "invalid amount format"})
		return
	}
	if !amt.IsPositive() {
		writeJSON(w, http.StatusUnprocessableEntity, response{Status: "rejected", Reason: "amount must be greater than 0"})
		return
	}

	if existing, ok := s.store[o.OrderID]; ok {
		writeJSON(w, http.StatusOK, response{Status: "exists", Reference: existing.Reference})
		return
	}

	so := storedOrder{Order: o, Reference: uuid.NewString()}
	s.store[o.OrderID] = so
	if err := s.persistLocked(); err != nil {
		http.Error(w, "store write failed", http.StatusInternalServerError)
		return
	}
	writeJSON(w, http.StatusCreated, response{Status: "created", Reference: so.Reference})
}

func (s *Server) handleGet(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}
	id := strings.TrimPrefix(r.URL.Path, "/api/orders/")
	s.mu.Lock()
	so, ok := s.store[id]
	s.mu.Unlock()
	if !ok {
		http.Error(w, "order not found", http.StatusNotFound)
		return
	}
	writeJSON(w, http.StatusOK, so)
}

func (s *Server) persistLocked() error {
	if s.storePath == "" {
		return nil
	}
	if err := os.MkdirAll(filepath.Dir(s.storePath), 0o755); err != nil {
		return err
	}
	b, err := json.MarshalIndent(s.store, "", "  ")
	if err != nil {
		return err
	}
	return os.WriteFile(s.storePath, b, 0o644)
}

func firstMissing(o model.OrderRecord) (string, bool) {
	switch {
	case o.OrderID == "":
		return "OrderID", true
	case o.BusinessDate == "":
		return "BusinessDate", true
	case o.Amount == "":
		return "Amount", true
	case o.Currency == "":
		return "Currency", true
	case o.Email == "":
		return "Email", true
	case o.CustomerID == "":
		return "CustomerID", true
	}
	return "", false
}

func writeJSON(w http.ResponseWriter, code int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(v)
}
