package http

import (
	"log/slog"
	"net/http"

	"famledger/internal/core"
	"famledger/internal/report"
	"famledger/internal/storage"
)

type recordRequest struct {
	LedgerID  int64      `json:"ledgerId"`
	MemberID  *int64     `json:"memberId"`
	Direction string     `json:"direction"`
	Category  string     `json:"category"`
	Amount    core.Money `json:"amount"`
	Date      string     `json:"date"`
	Note      string     `json:"note"`
}

type recordUpdateRequest struct {
	MemberID  optionalID  `json:"memberId"`
	Direction *string     `json:"direction"`
	Category  *string     `json:"category"`
	Amount    *core.Money `json:"amount"`
	Date      *string     `json:"date"`
	Note      *string     `json:"note"`
}

func (s *Server) handleListRecords(w http.ResponseWriter, r *http.Request) {
	ledgerID, err := queryLedgerID(r.URL.Query())
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	filter, err := parseRecordFilter(r.URL.Query())
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	records, err := s.deps.Records.ListRecords(r.Context(), ledgerID, filter)
	if err != nil {
		slog.ErrorContext(r.Context(), "List records failed", "ledger_id", ledgerID, "error", err)
		writeError(w, http.StatusInternalServerError, "list records: storage unavailable")
		return
	}
	writeData(w, http.StatusOK, emptyList(records))
}

func (s *Server) handleAddRecord(w http.ResponseWriter, r *http.Request) {
	var req recordRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	date, err := core.ParseDate(req.Date)
	if err != nil {
		writeError(w, http.StatusUnprocessableEntity, err.Error())
		return
	}
	record := core.Record{
		LedgerID:  req.LedgerID,
		MemberID:  req.MemberID,
		Direction: core.Direction(req.Direction),
		Category:  sanitizeInput(req.Category),
		Amount:    req.Amount,
		Date:      date,
		Note:      sanitizeInput(req.Note),
	}
	if err := record.Validate(); err != nil {
		writeError(w, http.StatusUnprocessableEntity, err.Error())
		return
	}

	saved, err := s.deps.Mutator.CreateRecord(r.Context(), record)
	if err != nil {
		slog.ErrorContext(r.Context(), "Add record failed", "error", err)
		writeError(w, http.StatusInternalServerError, "add record: storage unavailable")
		return
	}

	s.invalidateCaches()
	writeData(w, http.StatusCreated, saved)
}

func (s *Server) handleUpdateRecord(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	var req recordUpdateRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	var upd storage.RecordUpdate
	if req.MemberID.set {
		upd.MemberID = &req.MemberID.value
	}
	if req.Direction != nil {
		dir := core.Direction(*req.Direction)
		if err := dir.Validate(); err != nil {
			writeError(w, http.StatusUnprocessableEntity, err.Error())
			return
		}
		upd.Direction = &dir
	}
	if req.Category != nil {
		category := sanitizeInput(*req.Category)
		if category == "" {
			writeError(w, http.StatusUnprocessableEntity, core.ErrEmptyCategory.Error())
			return
		}
		upd.Category = &category
	}
	if req.Amount != nil {
		if err := req.Amount.Validate(); err != nil {
			writeError(w, http.StatusUnprocessableEntity, err.Error())
			return
		}
		upd.Amount = req.Amount
	}
	if req.Date != nil {
		date, err := core.ParseDate(*req.Date)
		if err != nil {
			writeError(w, http.StatusUnprocessableEntity, err.Error())
			return
		}
		upd.Date = &date
	}
	if req.Note != nil {
		note := sanitizeInput(*req.Note)
		upd.Note = &note
	}

	res, err := s.deps.Mutator.UpdateRecord(r.Context(), id, upd)
	if err != nil {
		slog.ErrorContext(r.Context(), "Update record failed", "id", id, "error", err)
		writeError(w, http.StatusInternalServerError, "update record: storage unavailable")
		return
	}

	s.invalidateCaches()
	writeData(w, http.StatusOK, res)
}

func (s *Server) handleDeleteRecord(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	res, err := s.deps.Mutator.DeleteRecord(r.Context(), id)
	if err != nil {
		slog.ErrorContext(r.Context(), "Delete record failed", "id", id, "error", err)
		writeError(w, http.StatusInternalServerError, "delete record: storage unavailable")
		return
	}

	s.invalidateCaches()
	writeData(w, http.StatusOK, res)
}

func (s *Server) handleSummary(w http.ResponseWriter, r *http.Request) {
	ledgerID, err := queryLedgerID(r.URL.Query())
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	filter, err := parseRecordFilter(r.URL.Query())
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	cacheKey := r.URL.RawQuery
	if summary, ok := s.summaryCache.Get(cacheKey); ok {
		writeData(w, http.StatusOK, summary)
		return
	}

	totals, err := s.deps.Records.SumByDirection(r.Context(), ledgerID, filter)
	if err != nil {
		slog.ErrorContext(r.Context(), "Summary failed", "ledger_id", ledgerID, "error", err)
		writeError(w, http.StatusInternalServerError, "summary: storage unavailable")
		return
	}

	summary := report.Summarize(totals)
	s.summaryCache.Set(cacheKey, summary)
	writeData(w, http.StatusOK, summary)
}

func (s *Server) handleCategorySummary(w http.ResponseWriter, r *http.Request) {
	ledgerID, err := queryLedgerID(r.URL.Query())
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	filter, err := parseRecordFilter(r.URL.Query())
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	// Default to expenses; the direction filter picks the other side.
	direction := filter.Direction
	if direction == "" {
		direction = core.Expense
	}

	cacheKey := r.URL.RawQuery
	if items, ok := s.breakdownCache.Get(cacheKey); ok {
		writeData(w, http.StatusOK, items)
		return
	}

	groups, err := s.deps.Records.SumByCategory(r.Context(), ledgerID, direction, filter)
	if err != nil {
		slog.ErrorContext(r.Context(), "Category summary failed", "ledger_id", ledgerID, "error", err)
		writeError(w, http.StatusInternalServerError, "category summary: storage unavailable")
		return
	}

	items := emptyList(report.CategoryBreakdown(groups))
	s.breakdownCache.Set(cacheKey, items)
	writeData(w, http.StatusOK, items)
}
