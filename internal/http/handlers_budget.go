package http

import (
	"log/slog"
	"net/http"

	"golang.org/x/sync/errgroup"

	"famledger/internal/core"
	"famledger/internal/report"
	"famledger/internal/storage"
)

type budgetRequest struct {
	LedgerID  int64      `json:"ledgerId"`
	MemberID  *int64     `json:"memberId"`
	Direction string     `json:"direction"`
	Category  string     `json:"category"`
	Amount    core.Money `json:"amount"`
	Period    string     `json:"period"`
	Date      string     `json:"date"`
}

type budgetUpdateRequest struct {
	MemberID  optionalID  `json:"memberId"`
	Direction *string     `json:"direction"`
	Category  *string     `json:"category"`
	Amount    *core.Money `json:"amount"`
	Period    *string     `json:"period"`
	Date      *string     `json:"date"`
}

func (s *Server) handleListBudgets(w http.ResponseWriter, r *http.Request) {
	ledgerID, err := queryLedgerID(r.URL.Query())
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	filter, err := parseBudgetFilter(r.URL.Query())
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	budgets, err := s.deps.Budgets.ListBudgets(r.Context(), ledgerID, filter)
	if err != nil {
		slog.ErrorContext(r.Context(), "List budgets failed", "ledger_id", ledgerID, "error", err)
		writeError(w, http.StatusInternalServerError, "list budgets: storage unavailable")
		return
	}
	writeData(w, http.StatusOK, emptyList(budgets))
}

// handleAddBudget upserts by (ledger, category): posting the same pair again
// replaces the stored target instead of adding a second row.
func (s *Server) handleAddBudget(w http.ResponseWriter, r *http.Request) {
	var req budgetRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	date, err := core.ParseDate(req.Date)
	if err != nil {
		writeError(w, http.StatusUnprocessableEntity, err.Error())
		return
	}
	budget := core.Budget{
		LedgerID:  req.LedgerID,
		MemberID:  req.MemberID,
		Direction: core.Direction(req.Direction),
		Category:  sanitizeInput(req.Category),
		Amount:    req.Amount,
		Period:    core.Period(req.Period),
		Date:      date,
	}
	if err := budget.Validate(); err != nil {
		writeError(w, http.StatusUnprocessableEntity, err.Error())
		return
	}

	saved, err := s.deps.Budgets.AddBudget(r.Context(), budget)
	if err != nil {
		slog.ErrorContext(r.Context(), "Add budget failed", "error", err)
		writeError(w, http.StatusInternalServerError, "add budget: storage unavailable")
		return
	}

	s.invalidateCaches()
	writeData(w, http.StatusCreated, saved)
}

func (s *Server) handleUpdateBudget(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	var req budgetUpdateRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	var upd storage.BudgetUpdate
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
	if req.Period != nil {
		period := core.Period(*req.Period)
		if err := period.Validate(); err != nil {
			writeError(w, http.StatusUnprocessableEntity, err.Error())
			return
		}
		upd.Period = &period
	}
	if req.Date != nil {
		date, err := core.ParseDate(*req.Date)
		if err != nil {
			writeError(w, http.StatusUnprocessableEntity, err.Error())
			return
		}
		upd.Date = &date
	}

	res, err := s.deps.Budgets.UpdateBudget(r.Context(), id, upd)
	if err != nil {
		slog.ErrorContext(r.Context(), "Update budget failed", "id", id, "error", err)
		writeError(w, http.StatusInternalServerError, "update budget: storage unavailable")
		return
	}

	s.invalidateCaches()
	writeData(w, http.StatusOK, res)
}

func (s *Server) handleDeleteBudget(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	res, err := s.deps.Budgets.DeleteBudget(r.Context(), id)
	if err != nil {
		slog.ErrorContext(r.Context(), "Delete budget failed", "id", id, "error", err)
		writeError(w, http.StatusInternalServerError, "delete budget: storage unavailable")
		return
	}

	s.invalidateCaches()
	writeData(w, http.StatusOK, res)
}

// handleBudgetExecution reconciles every budget of the ledger against the
// actual per-category totals within the optional date window. Budgets and
// actuals load in parallel.
func (s *Server) handleBudgetExecution(w http.ResponseWriter, r *http.Request) {
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
	if rows, ok := s.executionCache.Get(cacheKey); ok {
		writeData(w, http.StatusOK, rows)
		return
	}

	var (
		budgets []core.Budget
		actual  map[report.ActualKey]int64
	)
	g, ctx := errgroup.WithContext(r.Context())
	g.Go(func() error {
		var err error
		budgets, err = s.deps.Budgets.ListBudgets(ctx, ledgerID, storage.BudgetFilter{})
		return err
	})
	g.Go(func() error {
		var err error
		actual, err = s.deps.Records.SumByDirectionCategory(ctx, ledgerID, filter.StartDate, filter.EndDate)
		return err
	})
	if err := g.Wait(); err != nil {
		slog.ErrorContext(r.Context(), "Budget execution failed", "ledger_id", ledgerID, "error", err)
		writeError(w, http.StatusInternalServerError, "budget execution: storage unavailable")
		return
	}

	rows := emptyList(report.BudgetExecution(budgets, actual))
	s.executionCache.Set(cacheKey, rows)
	writeData(w, http.StatusOK, rows)
}

// handleMonthlyBudgets renders the per-month budget figures for a year, with
// yearly amounts distributed over months that have no explicit budget.
func (s *Server) handleMonthlyBudgets(w http.ResponseWriter, r *http.Request) {
	ledgerID, err := queryLedgerID(r.URL.Query())
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	year, err := queryYear(r.URL.Query())
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	budgets, err := s.deps.Budgets.ListBudgets(r.Context(), ledgerID, storage.BudgetFilter{})
	if err != nil {
		slog.ErrorContext(r.Context(), "Monthly budgets failed", "ledger_id", ledgerID, "error", err)
		writeError(w, http.StatusInternalServerError, "monthly budgets: storage unavailable")
		return
	}

	rows := report.MonthlyBudgets(budgets, year)
	writeData(w, http.StatusOK, emptyList(rows))
}

func (s *Server) handleListCategories(w http.ResponseWriter, r *http.Request) {
	catalog := s.deps.Catalog
	if raw := r.URL.Query().Get("direction"); raw != "" {
		dir := core.Direction(raw)
		if err := dir.Validate(); err != nil {
			writeError(w, http.StatusBadRequest, err.Error())
			return
		}
		catalog = catalog.ByDirection(dir)
	}
	writeData(w, http.StatusOK, emptyList([]core.Category(catalog)))
}
