package http

import (
	"log/slog"
	"net/http"

	"famledger/internal/core"
	"famledger/internal/storage"
)

type memberRequest struct {
	LedgerID *int64 `json:"ledgerId"`
	Name     string `json:"name"`
	Avatar   string `json:"avatar"`
}

type memberUpdateRequest struct {
	Name   *string `json:"name"`
	Avatar *string `json:"avatar"`
}

func (s *Server) handleListMembers(w http.ResponseWriter, r *http.Request) {
	ledgerID, err := queryLedgerID(r.URL.Query())
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	members, err := s.deps.Members.ListMembers(r.Context(), ledgerID)
	if err != nil {
		slog.ErrorContext(r.Context(), "List members failed", "ledger_id", ledgerID, "error", err)
		writeError(w, http.StatusInternalServerError, "list members: storage unavailable")
		return
	}
	writeData(w, http.StatusOK, emptyList(members))
}

func (s *Server) handleAddMember(w http.ResponseWriter, r *http.Request) {
	var req memberRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	member := core.Member{
		LedgerID: req.LedgerID,
		Name:     sanitizeInput(req.Name),
		Avatar:   sanitizeInput(req.Avatar),
	}
	if err := member.Validate(); err != nil {
		writeError(w, http.StatusUnprocessableEntity, err.Error())
		return
	}

	saved, err := s.deps.Members.AddMember(r.Context(), member)
	if err != nil {
		slog.ErrorContext(r.Context(), "Add member failed", "error", err)
		writeError(w, http.StatusInternalServerError, "add member: storage unavailable")
		return
	}
	writeData(w, http.StatusCreated, saved)
}

func (s *Server) handleUpdateMember(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	var req memberUpdateRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	upd := storage.MemberUpdate{}
	if req.Avatar != nil {
		avatar := sanitizeInput(*req.Avatar)
		upd.Avatar = &avatar
	}
	if req.Name != nil {
		name := sanitizeInput(*req.Name)
		if err := (core.Member{Name: name}).Validate(); err != nil {
			writeError(w, http.StatusUnprocessableEntity, err.Error())
			return
		}
		upd.Name = &name
	}

	res, err := s.deps.Members.UpdateMember(r.Context(), id, upd)
	if err != nil {
		slog.ErrorContext(r.Context(), "Update member failed", "id", id, "error", err)
		writeError(w, http.StatusInternalServerError, "update member: storage unavailable")
		return
	}
	writeData(w, http.StatusOK, res)
}

func (s *Server) handleDeleteMember(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	res, err := s.deps.Members.DeleteMember(r.Context(), id)
	if err != nil {
		slog.ErrorContext(r.Context(), "Delete member failed", "id", id, "error", err)
		writeError(w, http.StatusInternalServerError, "delete member: storage unavailable")
		return
	}

	// Member references on records are cleared by the delete.
	s.invalidateCaches()
	writeData(w, http.StatusOK, res)
}
