package httpapi

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"finboard/internal/core"
	"finboard/internal/storage"
)

const maxBodyBytes = 1 << 20 // 1MB

const listCacheKey = "all"

type listPayload struct {
	Success bool               `json:"success"`
	Count   int                `json:"count"`
	Data    []core.Transaction `json:"data"`
}

type itemPayload struct {
	Success bool             `json:"success"`
	Data    core.Transaction `json:"data"`
}

type deletePayload struct {
	Success bool         `json:"success"`
	Data    deletedIDRef `json:"data"`
}

type deletedIDRef struct {
	ID string `json:"id"`
}

type errorPayload struct {
	Success bool   `json:"success"`
	Message string `json:"message"`
}

// handleList returns the full ledger, most recent occurrence first.
func (s *Server) handleList(w http.ResponseWriter, r *http.Request) {
	items, ok := s.listCache.Get(listCacheKey)
	if !ok {
		var err error
		items, err = s.ledger.List(r.Context())
		if err != nil {
			slog.ErrorContext(r.Context(), "Failed to list transactions", "error", err)
			writeError(w, http.StatusInternalServerError, "Failed to load transactions.")
			return
		}
		s.listCache.Set(listCacheKey, items)
	}

	writeJSON(w, http.StatusOK, listPayload{Success: true, Count: len(items), Data: items})
}

func (s *Server) handleCreate(w http.ResponseWriter, r *http.Request) {
	draft, ok := decodeDraft(w, r)
	if !ok {
		return
	}

	created, err := s.ledger.Create(r.Context(), draft)
	if err != nil {
		s.writeMutationError(w, r, "create", err)
		return
	}

	s.listCache.Delete(listCacheKey)
	writeJSON(w, http.StatusCreated, itemPayload{Success: true, Data: created})
}

func (s *Server) handleUpdate(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")
	draft, ok := decodeDraft(w, r)
	if !ok {
		return
	}

	updated, err := s.ledger.Update(r.Context(), id, draft)
	if err != nil {
		s.writeMutationError(w, r, "update", err)
		return
	}

	s.listCache.Delete(listCacheKey)
	writeJSON(w, http.StatusOK, itemPayload{Success: true, Data: updated})
}

func (s *Server) handleDelete(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")

	if err := s.ledger.Delete(r.Context(), id); err != nil {
		s.writeMutationError(w, r, "delete", err)
		return
	}

	s.listCache.Delete(listCacheKey)
	writeJSON(w, http.StatusOK, deletePayload{Success: true, Data: deletedIDRef{ID: id}})
}

// decodeDraft reads the request body as a transaction draft. It reports
// false after writing a 400 when the body is unreadable.
func decodeDraft(w http.ResponseWriter, r *http.Request) (core.Draft, bool) {
	var draft core.Draft
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	if err := dec.Decode(&draft); err != nil {
		if core.IsValidationError(err) {
			writeError(w, http.StatusBadRequest, err.Error())
		} else {
			writeError(w, http.StatusBadRequest, "Invalid request body.")
		}
		return core.Draft{}, false
	}
	return draft, true
}

// writeMutationError maps service failures onto the API contract:
// invariant violations are 400 with the invariant's message, a missing
// id is 404, anything else is a 500 with a generic message.
func (s *Server) writeMutationError(w http.ResponseWriter, r *http.Request, op string, err error) {
	switch {
	case core.IsValidationError(err):
		writeError(w, http.StatusBadRequest, err.Error())
	case errors.Is(err, storage.ErrNotFound):
		writeError(w, http.StatusNotFound, "Transaction not found.")
	default:
		slog.ErrorContext(r.Context(), "Transaction mutation failed", "op", op, "error", err)
		writeError(w, http.StatusInternalServerError, "Failed to "+op+" transaction.")
	}
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		slog.Error("Failed to encode response", "error", err)
	}
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, errorPayload{Success: false, Message: msg})
}
