package http

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"famledger/internal/core"
	"famledger/internal/report"
	"famledger/internal/storage"
)

// fakeStore is an in-memory implementation of every server port. Setting
// failAll makes all calls return a storage fault.
type fakeStore struct {
	failAll bool

	ledgers []core.Ledger
	members []core.Member
	records []core.Record
	budgets []core.Budget

	totals    []report.DirectionTotal
	groups    []report.CategoryTotal
	actual    map[report.ActualKey]int64
	sumCalls  int
	nextID    int64
	mutations int

	lastLedgerUpdate storage.LedgerUpdate
}

var errStorageDown = errors.New("database is locked")

func (f *fakeStore) fail() error {
	if f.failAll {
		return errStorageDown
	}
	return nil
}

func (f *fakeStore) id() int64 {
	f.nextID++
	return f.nextID
}

func (f *fakeStore) ListLedgers(context.Context) ([]core.Ledger, error) {
	return f.ledgers, f.fail()
}

func (f *fakeStore) AddLedger(_ context.Context, l core.Ledger) (core.Ledger, error) {
	if err := f.fail(); err != nil {
		return core.Ledger{}, err
	}
	l.ID = f.id()
	f.ledgers = append(f.ledgers, l)
	return l, nil
}

func (f *fakeStore) UpdateLedger(_ context.Context, id int64, upd storage.LedgerUpdate) (storage.MutationResult, error) {
	if err := f.fail(); err != nil {
		return storage.MutationResult{}, err
	}
	f.lastLedgerUpdate = upd
	for _, l := range f.ledgers {
		if l.ID == id {
			f.mutations++
			return storage.MutationResult{Changes: 1}, nil
		}
	}
	return storage.MutationResult{}, nil
}

func (f *fakeStore) DeleteLedger(_ context.Context, id int64) (storage.MutationResult, error) {
	return f.UpdateLedger(context.Background(), id, storage.LedgerUpdate{})
}

func (f *fakeStore) ListMembers(context.Context, int64) ([]core.Member, error) {
	return f.members, f.fail()
}

func (f *fakeStore) AddMember(_ context.Context, m core.Member) (core.Member, error) {
	if err := f.fail(); err != nil {
		return core.Member{}, err
	}
	m.ID = f.id()
	f.members = append(f.members, m)
	return m, nil
}

func (f *fakeStore) UpdateMember(context.Context, int64, storage.MemberUpdate) (storage.MutationResult, error) {
	return storage.MutationResult{}, f.fail()
}

func (f *fakeStore) DeleteMember(context.Context, int64) (storage.MutationResult, error) {
	return storage.MutationResult{}, f.fail()
}

func (f *fakeStore) ListRecords(context.Context, int64, storage.RecordFilter) ([]core.Record, error) {
	return f.records, f.fail()
}

func (f *fakeStore) SumByDirection(context.Context, int64, storage.RecordFilter) ([]report.DirectionTotal, error) {
	f.sumCalls++
	return f.totals, f.fail()
}

func (f *fakeStore) SumByCategory(context.Context, int64, core.Direction, storage.RecordFilter) ([]report.CategoryTotal, error) {
	return f.groups, f.fail()
}

func (f *fakeStore) SumByDirectionCategory(context.Context, int64, *core.Date, *core.Date) (map[report.ActualKey]int64, error) {
	return f.actual, f.fail()
}

func (f *fakeStore) CreateRecord(_ context.Context, r core.Record) (core.Record, error) {
	if err := f.fail(); err != nil {
		return core.Record{}, err
	}
	r.ID = f.id()
	f.records = append(f.records, r)
	return r, nil
}

func (f *fakeStore) UpdateRecord(context.Context, int64, storage.RecordUpdate) (storage.MutationResult, error) {
	if err := f.fail(); err != nil {
		return storage.MutationResult{}, err
	}
	f.mutations++
	return storage.MutationResult{Changes: 1}, nil
}

func (f *fakeStore) DeleteRecord(context.Context, int64) (storage.MutationResult, error) {
	return storage.MutationResult{}, f.fail()
}

func (f *fakeStore) ListBudgets(context.Context, int64, storage.BudgetFilter) ([]core.Budget, error) {
	return f.budgets, f.fail()
}

func (f *fakeStore) AddBudget(_ context.Context, b core.Budget) (core.Budget, error) {
	if err := f.fail(); err != nil {
		return core.Budget{}, err
	}
	// Upsert by (ledger, category)
	for i, existing := range f.budgets {
		if existing.LedgerID == b.LedgerID && existing.Category == b.Category {
			b.ID = existing.ID
			f.budgets[i] = b
			return b, nil
		}
	}
	b.ID = f.id()
	f.budgets = append(f.budgets, b)
	return b, nil
}

func (f *fakeStore) UpdateBudget(context.Context, int64, storage.BudgetUpdate) (storage.MutationResult, error) {
	return storage.MutationResult{}, f.fail()
}

func (f *fakeStore) DeleteBudget(context.Context, int64) (storage.MutationResult, error) {
	return storage.MutationResult{}, f.fail()
}

func newTestServer(store *fakeStore) *Server {
	return NewServer(":0", Deps{
		Ledgers: store,
		Members: store,
		Records: store,
		Mutator: store,
		Budgets: store,
		Catalog: core.DefaultCatalog(),
	})
}

func doRequest(srv *Server, method, target, body string) *httptest.ResponseRecorder {
	rr := httptest.NewRecorder()
	var req *http.Request
	if body == "" {
		req = httptest.NewRequest(method, target, nil)
	} else {
		req = httptest.NewRequest(method, target, strings.NewReader(body))
		req.Header.Set("Content-Type", "application/json")
	}
	srv.Handler.ServeHTTP(rr, req)
	return rr
}

func decodeEnvelope(t *testing.T, rr *httptest.ResponseRecorder) (bool, json.RawMessage, string) {
	t.Helper()
	var env struct {
		Success bool            `json:"success"`
		Data    json.RawMessage `json:"data"`
		Error   string          `json:"error"`
	}
	if err := json.Unmarshal(rr.Body.Bytes(), &env); err != nil {
		t.Fatalf("response is not an envelope: %v, body: %s", err, rr.Body.String())
	}
	return env.Success, env.Data, env.Error
}

func TestHealthEndpoints(t *testing.T) {
	srv := newTestServer(&fakeStore{})
	for _, path := range []string{"/healthz", "/readyz"} {
		rr := doRequest(srv, http.MethodGet, path, "")
		if rr.Code != 200 {
			t.Fatalf("%s status=%d", path, rr.Code)
		}
	}
}

func TestListLedgers_EmptyArray(t *testing.T) {
	srv := newTestServer(&fakeStore{})

	rr := doRequest(srv, http.MethodGet, "/api/ledgers", "")
	if rr.Code != 200 {
		t.Fatalf("status = %d, want 200", rr.Code)
	}
	success, data, _ := decodeEnvelope(t, rr)
	if !success {
		t.Error("success should be true")
	}
	if string(data) != "[]" {
		t.Errorf("data = %s, want []", data)
	}
}

func TestAddLedger(t *testing.T) {
	t.Run("success", func(t *testing.T) {
		srv := newTestServer(&fakeStore{})

		rr := doRequest(srv, http.MethodPost, "/api/ledgers", `{"name":"household","description":"family book"}`)
		if rr.Code != http.StatusCreated {
			t.Fatalf("status = %d, want 201, body: %s", rr.Code, rr.Body.String())
		}
		success, data, _ := decodeEnvelope(t, rr)
		if !success {
			t.Error("success should be true")
		}
		var ledger core.Ledger
		if err := json.Unmarshal(data, &ledger); err != nil {
			t.Fatalf("decode data: %v", err)
		}
		if ledger.ID == 0 || ledger.Name != "household" {
			t.Errorf("ledger = %+v, want assigned ID and name", ledger)
		}
	})

	t.Run("empty name rejected", func(t *testing.T) {
		srv := newTestServer(&fakeStore{})

		rr := doRequest(srv, http.MethodPost, "/api/ledgers", `{"name":"  "}`)
		if rr.Code != http.StatusUnprocessableEntity {
			t.Fatalf("status = %d, want 422", rr.Code)
		}
		success, _, errMsg := decodeEnvelope(t, rr)
		if success || errMsg == "" {
			t.Errorf("want failure envelope with message, got success=%v error=%q", success, errMsg)
		}
	})

	t.Run("malformed body rejected", func(t *testing.T) {
		srv := newTestServer(&fakeStore{})

		rr := doRequest(srv, http.MethodPost, "/api/ledgers", `{"name":`)
		if rr.Code != http.StatusBadRequest {
			t.Fatalf("status = %d, want 400", rr.Code)
		}
	})

	t.Run("storage fault maps to 500", func(t *testing.T) {
		srv := newTestServer(&fakeStore{failAll: true})

		rr := doRequest(srv, http.MethodPost, "/api/ledgers", `{"name":"household"}`)
		if rr.Code != http.StatusInternalServerError {
			t.Fatalf("status = %d, want 500", rr.Code)
		}
		success, _, errMsg := decodeEnvelope(t, rr)
		if success || errMsg == "" {
			t.Errorf("want failure envelope, got success=%v error=%q", success, errMsg)
		}
	})
}

func TestUpdateLedger_SanitizesFields(t *testing.T) {
	store := &fakeStore{ledgers: []core.Ledger{{ID: 1, Name: "household"}}}
	srv := newTestServer(store)

	body := `{"name":"  house\u0000hold  ","description":"shared\u0001 bills"}`
	rr := doRequest(srv, http.MethodPut, "/api/ledgers/1", body)
	if rr.Code != 200 {
		t.Fatalf("status = %d, want 200, body: %s", rr.Code, rr.Body.String())
	}
	upd := store.lastLedgerUpdate
	if upd.Name == nil || *upd.Name != "household" {
		t.Errorf("updated name = %v, want control characters and padding stripped", upd.Name)
	}
	if upd.Description == nil || *upd.Description != "shared bills" {
		t.Errorf("updated description = %v, want control characters stripped", upd.Description)
	}
}

func TestUpdateLedger_NoOpReportsZeroChanges(t *testing.T) {
	srv := newTestServer(&fakeStore{})

	rr := doRequest(srv, http.MethodPut, "/api/ledgers/99", `{"name":"renamed"}`)
	if rr.Code != 200 {
		t.Fatalf("status = %d, want 200", rr.Code)
	}
	success, data, _ := decodeEnvelope(t, rr)
	if !success {
		t.Error("no-op update should still be a success envelope")
	}
	var res storage.MutationResult
	if err := json.Unmarshal(data, &res); err != nil {
		t.Fatalf("decode data: %v", err)
	}
	if res.Changes != 0 {
		t.Errorf("changes = %d, want 0", res.Changes)
	}
}

func TestListRecords_RequiresLedgerID(t *testing.T) {
	srv := newTestServer(&fakeStore{})

	rr := doRequest(srv, http.MethodGet, "/api/records", "")
	if rr.Code != http.StatusBadRequest {
		t.Fatalf("status = %d, want 400", rr.Code)
	}
}

func TestAddRecord(t *testing.T) {
	t.Run("success", func(t *testing.T) {
		store := &fakeStore{}
		srv := newTestServer(store)

		body := `{"ledgerId":1,"direction":"expense","category":"food","amount":1250,"date":"2025-03-10","note":"groceries"}`
		rr := doRequest(srv, http.MethodPost, "/api/records", body)
		if rr.Code != http.StatusCreated {
			t.Fatalf("status = %d, want 201, body: %s", rr.Code, rr.Body.String())
		}
		if len(store.records) != 1 || store.records[0].Amount.Cents != 1250 {
			t.Errorf("stored records = %+v, want one with 1250 cents", store.records)
		}
	})

	t.Run("decimal string amount", func(t *testing.T) {
		store := &fakeStore{}
		srv := newTestServer(store)

		body := `{"ledgerId":1,"direction":"expense","category":"food","amount":"12.50","date":"2025-03-10"}`
		rr := doRequest(srv, http.MethodPost, "/api/records", body)
		if rr.Code != http.StatusCreated {
			t.Fatalf("status = %d, want 201, body: %s", rr.Code, rr.Body.String())
		}
		if len(store.records) != 1 || store.records[0].Amount.Cents != 1250 {
			t.Errorf("stored records = %+v, want one with 1250 cents", store.records)
		}
	})

	t.Run("invalid direction rejected", func(t *testing.T) {
		srv := newTestServer(&fakeStore{})

		body := `{"ledgerId":1,"direction":"sideways","category":"food","amount":1250,"date":"2025-03-10"}`
		rr := doRequest(srv, http.MethodPost, "/api/records", body)
		if rr.Code != http.StatusUnprocessableEntity {
			t.Fatalf("status = %d, want 422", rr.Code)
		}
	})

	t.Run("malformed date rejected", func(t *testing.T) {
		srv := newTestServer(&fakeStore{})

		body := `{"ledgerId":1,"direction":"expense","category":"food","amount":1250,"date":"10/03/2025"}`
		rr := doRequest(srv, http.MethodPost, "/api/records", body)
		if rr.Code != http.StatusUnprocessableEntity {
			t.Fatalf("status = %d, want 422", rr.Code)
		}
	})
}

func TestSummary(t *testing.T) {
	store := &fakeStore{totals: []report.DirectionTotal{
		{Direction: core.Income, Cents: 250000},
		{Direction: core.Expense, Cents: 100000},
	}}
	srv := newTestServer(store)

	rr := doRequest(srv, http.MethodGet, "/api/records/summary?ledger_id=1", "")
	if rr.Code != 200 {
		t.Fatalf("status = %d, want 200", rr.Code)
	}
	_, data, _ := decodeEnvelope(t, rr)
	var summary report.Summary
	if err := json.Unmarshal(data, &summary); err != nil {
		t.Fatalf("decode data: %v", err)
	}
	if summary.Income.Cents != 250000 || summary.Expense.Cents != 100000 || summary.Balance.Cents != 150000 {
		t.Errorf("summary = %+v, want 2500/1000/1500", summary)
	}
}

func TestSummary_CachedAndInvalidated(t *testing.T) {
	store := &fakeStore{}
	srv := newTestServer(store)

	doRequest(srv, http.MethodGet, "/api/records/summary?ledger_id=1", "")
	doRequest(srv, http.MethodGet, "/api/records/summary?ledger_id=1", "")
	if store.sumCalls != 1 {
		t.Fatalf("sumCalls = %d, want 1 (second hit served from cache)", store.sumCalls)
	}

	// A mutation purges the cache.
	body := `{"ledgerId":1,"direction":"expense","category":"food","amount":1250,"date":"2025-03-10"}`
	doRequest(srv, http.MethodPost, "/api/records", body)

	doRequest(srv, http.MethodGet, "/api/records/summary?ledger_id=1", "")
	if store.sumCalls != 2 {
		t.Errorf("sumCalls = %d, want 2 after invalidation", store.sumCalls)
	}
}

func TestCategorySummary(t *testing.T) {
	store := &fakeStore{groups: []report.CategoryTotal{
		{Category: "food", Cents: 7500, Count: 3},
		{Category: "transport", Cents: 2500, Count: 1},
	}}
	srv := newTestServer(store)

	rr := doRequest(srv, http.MethodGet, "/api/records/category-summary?ledger_id=1", "")
	if rr.Code != 200 {
		t.Fatalf("status = %d, want 200", rr.Code)
	}
	_, data, _ := decodeEnvelope(t, rr)
	var items []report.CategorySummaryItem
	if err := json.Unmarshal(data, &items); err != nil {
		t.Fatalf("decode data: %v", err)
	}
	if len(items) != 2 {
		t.Fatalf("items = %d, want 2", len(items))
	}
	if items[0].Category != "food" || items[0].Percentage != 75 {
		t.Errorf("first item = %+v, want food at 75%%", items[0])
	}
}

func TestBudgetExecution(t *testing.T) {
	store := &fakeStore{
		budgets: []core.Budget{
			{ID: 1, LedgerID: 1, Direction: core.Expense, Category: "food",
				Amount: core.Money{Cents: 50000}, Period: core.Monthly, Date: core.NewDate(2025, 3, 1)},
			{ID: 2, LedgerID: 1, Direction: core.Expense, Category: "transport",
				Amount: core.Money{Cents: 20000}, Period: core.Monthly, Date: core.NewDate(2025, 3, 1)},
		},
		actual: map[report.ActualKey]int64{
			{Direction: core.Expense, Category: "food"}: 60000,
		},
	}
	srv := newTestServer(store)

	rr := doRequest(srv, http.MethodGet, "/api/budgets/execution?ledger_id=1", "")
	if rr.Code != 200 {
		t.Fatalf("status = %d, want 200", rr.Code)
	}
	_, data, _ := decodeEnvelope(t, rr)
	var rows []report.BudgetExecutionRow
	if err := json.Unmarshal(data, &rows); err != nil {
		t.Fatalf("decode data: %v", err)
	}
	if len(rows) != 2 {
		t.Fatalf("rows = %d, want every budget present", len(rows))
	}
	byCategory := map[string]report.BudgetExecutionRow{}
	for _, row := range rows {
		byCategory[row.Category] = row
	}
	if !byCategory["food"].IsOverBudget || byCategory["food"].Actual.Cents != 60000 {
		t.Errorf("food row = %+v, want over budget with 60000 actual", byCategory["food"])
	}
	if byCategory["transport"].IsOverBudget || byCategory["transport"].Remaining.Cents != 20000 {
		t.Errorf("transport row = %+v, want untouched budget", byCategory["transport"])
	}
}

func TestMonthlyBudgets_YearlyFallback(t *testing.T) {
	store := &fakeStore{
		budgets: []core.Budget{
			{ID: 1, LedgerID: 1, Direction: core.Expense, Category: "food",
				Amount: core.Money{Cents: 120000}, Period: core.Yearly, Date: core.NewDate(2025, 1, 1)},
			{ID: 2, LedgerID: 1, Direction: core.Expense, Category: "food",
				Amount: core.Money{Cents: 10000}, Period: core.Monthly, Date: core.NewDate(2025, 1, 1)},
		},
	}
	srv := newTestServer(store)

	rr := doRequest(srv, http.MethodGet, "/api/budgets/monthly?ledger_id=1&year=2025", "")
	if rr.Code != 200 {
		t.Fatalf("status = %d, want 200", rr.Code)
	}
	_, data, _ := decodeEnvelope(t, rr)
	var rows []report.MonthlyBudgetRow
	if err := json.Unmarshal(data, &rows); err != nil {
		t.Fatalf("decode data: %v", err)
	}
	if len(rows) != 1 {
		t.Fatalf("rows = %d, want 1", len(rows))
	}
	january := rows[0].Months[0]
	if !january.Explicit || january.Amount.Cents != 10000 {
		t.Errorf("january = %+v, want explicit 10000", january)
	}
	february := rows[0].Months[1]
	if february.Explicit || february.Amount.Cents != 10000 {
		t.Errorf("february = %+v, want derived (120000-10000)/11 = 10000", february)
	}
}

func TestListCategories(t *testing.T) {
	srv := newTestServer(&fakeStore{})

	rr := doRequest(srv, http.MethodGet, "/api/categories?direction=income", "")
	if rr.Code != 200 {
		t.Fatalf("status = %d, want 200", rr.Code)
	}
	_, data, _ := decodeEnvelope(t, rr)
	var categories []core.Category
	if err := json.Unmarshal(data, &categories); err != nil {
		t.Fatalf("decode data: %v", err)
	}
	if len(categories) == 0 {
		t.Fatal("expected seeded income categories")
	}
	for _, c := range categories {
		if c.Direction != core.Income {
			t.Errorf("category %q has direction %q, want income", c.Code, c.Direction)
		}
	}
}

func TestSuspiciousRequestRejected(t *testing.T) {
	srv := newTestServer(&fakeStore{})

	rr := doRequest(srv, http.MethodGet, "/api/ledgers?file=../../etc/passwd", "")
	if rr.Code != http.StatusBadRequest {
		t.Fatalf("status = %d, want 400", rr.Code)
	}
}

func TestMutationRateLimit(t *testing.T) {
	srv := newTestServer(&fakeStore{})

	var lastCode int
	for i := 0; i < mutationRateLimit+1; i++ {
		rr := doRequest(srv, http.MethodPost, "/api/ledgers", fmt.Sprintf(`{"name":"book-%d"}`, i))
		lastCode = rr.Code
	}
	if lastCode != http.StatusTooManyRequests {
		t.Errorf("status after exceeding limit = %d, want 429", lastCode)
	}
}
