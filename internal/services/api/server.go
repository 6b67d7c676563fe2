// Package api exposes the accounting engine over HTTP JSON.
package api

import (
	"encoding/json"
	"errors"
	"log"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/louisbranch/tally.space/internal/engine"
	"github.com/louisbranch/tally.space/internal/engine/recipe"
)

// Server routes HTTP requests to the engine and recipe interpreter.
type Server struct {
	eng       *engine.Engine
	interp    *recipe.Interpreter
	version   string
	storeKind string
}

// New creates an HTTP server over the given engine and interpreter.
// storeKind labels the active ledger backend in health responses.
func New(eng *engine.Engine, interp *recipe.Interpreter, version, storeKind string) *Server {
	return &Server{eng: eng, interp: interp, version: version, storeKind: storeKind}
}

// Handler builds the route table.
func (s *Server) Handler() http.Handler {
	r := chi.NewRouter()
	r.Get("/health", s.handleHealth)
	r.Get("/balance/{account}", s.handleBalance)
	r.Post("/transfer", s.handleTransfer)
	r.Post("/recipe/{name}", s.handleRecipe)
	r.Get("/recipes", s.handleRecipes)
	r.Get("/transactions", s.handleTransactions)
	r.Get("/ledger", s.handleLedger)
	return r
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{
		"status":  "ok",
		"version": s.version,
		"store":   s.storeKind,
		"recipes": s.interp.Recipes().Len(),
	})
}

func (s *Server) handleBalance(w http.ResponseWriter, r *http.Request) {
	account := chi.URLParam(r, "account")
	balance, err := s.eng.Balance(r.Context(), account)
	if err != nil {
		writeFailure(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"account": account,
		"balance": balance,
	})
}

func (s *Server) handleTransfer(w http.ResponseWriter, r *http.Request) {
	var req struct {
		From     string         `json:"from"`
		To       string         `json:"to"`
		Amount   int64          `json:"amount"`
		Metadata map[string]any `json:"metadata"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "bad_request", "invalid request body")
		return
	}
	id, err := s.eng.Transfer(r.Context(), req.From, req.To, req.Amount, req.Metadata)
	if err != nil {
		writeFailure(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"transfer_id": id})
}

func (s *Server) handleRecipe(w http.ResponseWriter, r *http.Request) {
	name := chi.URLParam(r, "name")

	inputs := map[string]any{}
	if r.Body != nil && r.ContentLength != 0 {
		if err := json.NewDecoder(r.Body).Decode(&inputs); err != nil {
			writeError(w, http.StatusBadRequest, "bad_request", "invalid request body")
			return
		}
	}

	result, err := s.interp.Execute(r.Context(), name, inputs)
	if err != nil {
		writeFailure(w, err)
		return
	}
	if result == nil {
		writeJSON(w, http.StatusOK, map[string]any{"result": nil})
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"result": result})
}

func (s *Server) handleRecipes(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{
		"recipes": s.interp.Recipes().List(),
	})
}

func (s *Server) handleTransactions(w http.ResponseWriter, r *http.Request) {
	entries, err := s.eng.Transfers(r.Context())
	if err != nil {
		writeFailure(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"count":     len(entries),
		"transfers": entries,
	})
}

func (s *Server) handleLedger(w http.ResponseWriter, r *http.Request) {
	state, err := s.eng.LedgerState(r.Context())
	if err != nil {
		writeFailure(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"accounts": len(state),
		"balances": state,
	})
}

// writeFailure translates engine and recipe sentinels into structured
// error responses carrying a kind and message, never internal state.
func writeFailure(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, engine.ErrInvalidAmount):
		writeError(w, http.StatusBadRequest, "invalid_amount", err.Error())
	case errors.Is(err, engine.ErrInsufficientFunds):
		writeError(w, http.StatusUnprocessableEntity, "insufficient_funds", err.Error())
	case errors.Is(err, recipe.ErrUnparseableAmount):
		writeError(w, http.StatusBadRequest, "unparseable_amount", err.Error())
	case errors.Is(err, recipe.ErrRecipeNotFound):
		writeError(w, http.StatusNotFound, "recipe_not_found", err.Error())
	case errors.Is(err, recipe.ErrConditionFailed):
		writeError(w, http.StatusUnprocessableEntity, "condition_failed", err.Error())
	case errors.Is(err, recipe.ErrUnknownOperation):
		writeError(w, http.StatusBadRequest, "unknown_operation", err.Error())
	default:
		log.Printf("api: internal error: %v", err)
		writeError(w, http.StatusInternalServerError, "internal", "internal error")
	}
}

func writeError(w http.ResponseWriter, status int, kind, message string) {
	writeJSON(w, status, map[string]any{
		"error": map[string]string{
			"kind":    kind,
			"message": message,
		},
	})
}

func writeJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(body); err != nil {
		log.Printf("api: encode response: %v", err)
	}
}
