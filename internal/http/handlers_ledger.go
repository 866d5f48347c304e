package http

import (
	"log/slog"
	"net/http"

	"famledger/internal/core"
	"famledger/internal/storage"
)

type ledgerRequest struct {
	Name        string `json:"name"`
	Description string `json:"description"`
}

type ledgerUpdateRequest struct {
	Name        *string `json:"name"`
	Description *string `json:"description"`
}

func (s *Server) handleListLedgers(w http.ResponseWriter, r *http.Request) {
	ledgers, err := s.deps.Ledgers.ListLedgers(r.Context())
	if err != nil {
		slog.ErrorContext(r.Context(), "List ledgers failed", "error", err)
		writeError(w, http.StatusInternalServerError, "list ledgers: storage unavailable")
		return
	}
	writeData(w, http.StatusOK, emptyList(ledgers))
}

func (s *Server) handleAddLedger(w http.ResponseWriter, r *http.Request) {
	var req ledgerRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	ledger := core.Ledger{
		Name:        sanitizeInput(req.Name),
		Description: sanitizeInput(req.Description),
	}
	if err := ledger.Validate(); err != nil {
		writeError(w, http.StatusUnprocessableEntity, err.Error())
		return
	}

	saved, err := s.deps.Ledgers.AddLedger(r.Context(), ledger)
	if err != nil {
		slog.ErrorContext(r.Context(), "Add ledger failed", "error", err)
		writeError(w, http.StatusInternalServerError, "add ledger: storage unavailable")
		return
	}

	s.invalidateCaches()
	writeData(w, http.StatusCreated, saved)
}

func (s *Server) handleUpdateLedger(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	var req ledgerUpdateRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	upd := storage.LedgerUpdate{}
	if req.Description != nil {
		desc := sanitizeInput(*req.Description)
		upd.Description = &desc
	}
	if req.Name != nil {
		name := sanitizeInput(*req.Name)
		if err := (core.Ledger{Name: name}).Validate(); err != nil {
			writeError(w, http.StatusUnprocessableEntity, err.Error())
			return
		}
		upd.Name = &name
	}

	res, err := s.deps.Ledgers.UpdateLedger(r.Context(), id, upd)
	if err != nil {
		slog.ErrorContext(r.Context(), "Update ledger failed", "id", id, "error", err)
		writeError(w, http.StatusInternalServerError, "update ledger: storage unavailable")
		return
	}

	s.invalidateCaches()
	writeData(w, http.StatusOK, res)
}

func (s *Server) handleDeleteLedger(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	res, err := s.deps.Ledgers.DeleteLedger(r.Context(), id)
	if err != nil {
		slog.ErrorContext(r.Context(), "Delete ledger failed", "id", id, "error", err)
		writeError(w, http.StatusInternalServerError, "delete ledger: storage unavailable")
		return
	}

	s.invalidateCaches()
	writeData(w, http.StatusOK, res)
}
