package storage

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"famledger/internal/core"
	"famledger/internal/report"

	_ "modernc.org/sqlite"
)

// MemberScope controls whether members belong to one ledger or are shared
// across all ledgers. The schema supports both; the scope decides which read
// and write paths apply.
type MemberScope string

const (
	MemberScopeGlobal MemberScope = "global"
	MemberScopeLedger MemberScope = "ledger"
)

// MutationResult reports how many rows a mutation actually touched. A no-op
// update or delete is not an error; callers decide whether zero changes is
// unexpected.
type MutationResult struct {
	Changes int64 `json:"changes"`
}

// RecordFilter narrows record queries. Dates are inclusive bounds on the
// record date. Zero-valued fields are ignored.
type RecordFilter struct {
	StartDate *core.Date
	EndDate   *core.Date
	Direction core.Direction
	Category  string
	MemberID  *int64
	Limit     int
	Offset    int
}

// BudgetFilter narrows budget queries. Zero-valued fields are ignored.
type BudgetFilter struct {
	Direction core.Direction
	Period    core.Period
	MemberID  *int64
}

// LedgerUpdate carries the fields of a partial ledger update. Nil means
// leave unchanged.
type LedgerUpdate struct {
	Name        *string
	Description *string
}

// MemberUpdate carries the fields of a partial member update.
type MemberUpdate struct {
	Name   *string
	Avatar *string
}

// RecordUpdate carries the fields of a partial record update.
type RecordUpdate struct {
	MemberID  **int64
	Direction *core.Direction
	Category  *string
	Amount    *core.Money
	Date      *core.Date
	Note      *string
}

// BudgetUpdate carries the fields of a partial budget update.
type BudgetUpdate struct {
	MemberID  **int64
	Direction *core.Direction
	Category  *string
	Amount    *core.Money
	Period    *core.Period
	Date      *core.Date
}

// PendingSyncRecord is the minimal row shape the export worker needs.
type PendingSyncRecord struct {
	ID        int64
	Version   int64
	CreatedAt time.Time
}

// Store is the SQLite-backed ledger store. It is constructed explicitly and
// injected where needed; there is no process-wide handle.
type Store struct {
	db          *sql.DB
	memberScope MemberScope
}

func NewStore(dbPath string, memberScope MemberScope) (*Store, error) {
	if err := os.MkdirAll(filepath.Dir(dbPath), 0755); err != nil {
		return nil, fmt.Errorf("create db directory: %w", err)
	}

	// Foreign keys drive the cascade and set-null behavior on delete.
	db, err := sql.Open("sqlite", dbPath+"?_pragma=foreign_keys(1)")
	if err != nil {
		return nil, fmt.Errorf("open sqlite database: %w", err)
	}

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}

	if err := RunMigrations(dbPath); err != nil {
		db.Close()
		return nil, fmt.Errorf("run migrations: %w", err)
	}

	if memberScope == "" {
		memberScope = MemberScopeGlobal
	}

	return &Store{db: db, memberScope: memberScope}, nil
}

func (s *Store) Close() error {
	if s.db != nil {
		return s.db.Close()
	}
	return nil
}

// MemberScope returns the configured member scoping mode.
func (s *Store) MemberScope() MemberScope {
	return s.memberScope
}

// --- ledgers ---

func (s *Store) ListLedgers(ctx context.Context) ([]core.Ledger, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, name, description, created_at FROM ledgers ORDER BY id`)
	if err != nil {
		return nil, fmt.Errorf("list ledgers: %w", err)
	}
	defer rows.Close()

	var ledgers []core.Ledger
	for rows.Next() {
		var l core.Ledger
		if err := rows.Scan(&l.ID, &l.Name, &l.Description, &l.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan ledger: %w", err)
		}
		ledgers = append(ledgers, l)
	}
	return ledgers, rows.Err()
}

func (s *Store) AddLedger(ctx context.Context, l core.Ledger) (core.Ledger, error) {
	l.CreatedAt = time.Now().UTC()
	res, err := s.db.ExecContext(ctx,
		`INSERT INTO ledgers (name, description, created_at) VALUES (?, ?, ?)`,
		l.Name, l.Description, l.CreatedAt)
	if err != nil {
		return core.Ledger{}, fmt.Errorf("add ledger: %w", err)
	}
	l.ID, err = res.LastInsertId()
	if err != nil {
		return core.Ledger{}, fmt.Errorf("ledger insert id: %w", err)
	}

	slog.InfoContext(ctx, "Ledger created", "id", l.ID, "name", l.Name)
	return l, nil
}

func (s *Store) GetLedger(ctx context.Context, id int64) (core.Ledger, error) {
	var l core.Ledger
	err := s.db.QueryRowContext(ctx,
		`SELECT id, name, description, created_at FROM ledgers WHERE id = ?`, id).
		Scan(&l.ID, &l.Name, &l.Description, &l.CreatedAt)
	if err != nil {
		return core.Ledger{}, fmt.Errorf("get ledger %d: %w", id, err)
	}
	return l, nil
}

func (s *Store) UpdateLedger(ctx context.Context, id int64, upd LedgerUpdate) (MutationResult, error) {
	sets, args := []string{}, []any{}
	if upd.Name != nil {
		sets, args = append(sets, "name = ?"), append(args, *upd.Name)
	}
	if upd.Description != nil {
		sets, args = append(sets, "description = ?"), append(args, *upd.Description)
	}
	if len(sets) == 0 {
		return MutationResult{}, nil
	}
	args = append(args, id)

	res, err := s.db.ExecContext(ctx,
		`UPDATE ledgers SET `+strings.Join(sets, ", ")+` WHERE id = ?`, args...)
	if err != nil {
		return MutationResult{}, fmt.Errorf("update ledger: %w", err)
	}
	return mutation(res)
}

// DeleteLedger removes a ledger. Its records and budgets go with it via the
// foreign keys; ledger-scoped members are detached, not deleted.
func (s *Store) DeleteLedger(ctx context.Context, id int64) (MutationResult, error) {
	res, err := s.db.ExecContext(ctx, `DELETE FROM ledgers WHERE id = ?`, id)
	if err != nil {
		return MutationResult{}, fmt.Errorf("delete ledger: %w", err)
	}
	return mutation(res)
}

// --- members ---

// ListMembers returns all members visible to the ledger. In global scope
// every member is visible to every ledger; in ledger scope only the ledger's
// own members (and detached ones) are returned.
func (s *Store) ListMembers(ctx context.Context, ledgerID int64) ([]core.Member, error) {
	query := `SELECT id, ledger_id, name, avatar, created_at FROM members ORDER BY id`
	args := []any{}
	if s.memberScope == MemberScopeLedger {
		query = `SELECT id, ledger_id, name, avatar, created_at FROM members
			WHERE ledger_id = ? OR ledger_id IS NULL ORDER BY id`
		args = append(args, ledgerID)
	}

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list members: %w", err)
	}
	defer rows.Close()

	var members []core.Member
	for rows.Next() {
		var m core.Member
		var ledger sql.NullInt64
		if err := rows.Scan(&m.ID, &ledger, &m.Name, &m.Avatar, &m.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan member: %w", err)
		}
		if ledger.Valid {
			v := ledger.Int64
			m.LedgerID = &v
		}
		members = append(members, m)
	}
	return members, rows.Err()
}

func (s *Store) AddMember(ctx context.Context, m core.Member) (core.Member, error) {
	if s.memberScope == MemberScopeGlobal {
		// Global members never carry a ledger link.
		m.LedgerID = nil
	}
	m.CreatedAt = time.Now().UTC()

	res, err := s.db.ExecContext(ctx,
		`INSERT INTO members (ledger_id, name, avatar, created_at) VALUES (?, ?, ?, ?)`,
		nullableID(m.LedgerID), m.Name, m.Avatar, m.CreatedAt)
	if err != nil {
		return core.Member{}, fmt.Errorf("add member: %w", err)
	}
	m.ID, err = res.LastInsertId()
	if err != nil {
		return core.Member{}, fmt.Errorf("member insert id: %w", err)
	}
	return m, nil
}

func (s *Store) GetMember(ctx context.Context, id int64) (core.Member, error) {
	var m core.Member
	var ledger sql.NullInt64
	err := s.db.QueryRowContext(ctx,
		`SELECT id, ledger_id, name, avatar, created_at FROM members WHERE id = ?`, id).
		Scan(&m.ID, &ledger, &m.Name, &m.Avatar, &m.CreatedAt)
	if err != nil {
		return core.Member{}, fmt.Errorf("get member %d: %w", id, err)
	}
	if ledger.Valid {
		v := ledger.Int64
		m.LedgerID = &v
	}
	return m, nil
}

func (s *Store) UpdateMember(ctx context.Context, id int64, upd MemberUpdate) (MutationResult, error) {
	sets, args := []string{}, []any{}
	if upd.Name != nil {
		sets, args = append(sets, "name = ?"), append(args, *upd.Name)
	}
	if upd.Avatar != nil {
		sets, args = append(sets, "avatar = ?"), append(args, *upd.Avatar)
	}
	if len(sets) == 0 {
		return MutationResult{}, nil
	}
	args = append(args, id)

	res, err := s.db.ExecContext(ctx,
		`UPDATE members SET `+strings.Join(sets, ", ")+` WHERE id = ?`, args...)
	if err != nil {
		return MutationResult{}, fmt.Errorf("update member: %w", err)
	}
	return mutation(res)
}

// DeleteMember removes a member. References from records and budgets are
// cleared, not cascade-deleted.
func (s *Store) DeleteMember(ctx context.Context, id int64) (MutationResult, error) {
	res, err := s.db.ExecContext(ctx, `DELETE FROM members WHERE id = ?`, id)
	if err != nil {
		return MutationResult{}, fmt.Errorf("delete member: %w", err)
	}
	return mutation(res)
}

// --- records ---

const recordColumns = `id, ledger_id, member_id, direction, category, amount_cents, date, note, created_at`

// ListRecords returns records ordered by date descending, tie-broken by
// creation order descending.
func (s *Store) ListRecords(ctx context.Context, ledgerID int64, f RecordFilter) ([]core.Record, error) {
	where, args := recordWhere(ledgerID, f)
	query := `SELECT ` + recordColumns + ` FROM records ` + where + ` ORDER BY date DESC, id DESC`
	if f.Limit > 0 {
		query += fmt.Sprintf(" LIMIT %d OFFSET %d", f.Limit, f.Offset)
	}

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list records: %w", err)
	}
	defer rows.Close()

	var records []core.Record
	for rows.Next() {
		r, err := scanRecord(rows)
		if err != nil {
			return nil, err
		}
		records = append(records, r)
	}
	return records, rows.Err()
}

func (s *Store) GetRecord(ctx context.Context, id int64) (core.Record, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT `+recordColumns+` FROM records WHERE id = ?`, id)
	r, err := scanRecord(row)
	if err != nil {
		return core.Record{}, fmt.Errorf("get record %d: %w", id, err)
	}
	return r, nil
}

func (s *Store) AddRecord(ctx context.Context, r core.Record) (core.Record, error) {
	r.CreatedAt = time.Now().UTC()
	res, err := s.db.ExecContext(ctx,
		`INSERT INTO records (ledger_id, member_id, direction, category, amount_cents, date, note, created_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		r.LedgerID, nullableID(r.MemberID), string(r.Direction), r.Category,
		r.Amount.Cents, r.Date.String(), r.Note, r.CreatedAt)
	if err != nil {
		return core.Record{}, fmt.Errorf("add record: %w", err)
	}
	r.ID, err = res.LastInsertId()
	if err != nil {
		return core.Record{}, fmt.Errorf("record insert id: %w", err)
	}

	slog.InfoContext(ctx, "Record saved",
		"id", r.ID,
		"ledger_id", r.LedgerID,
		"direction", r.Direction,
		"category", r.Category,
		"amount_cents", r.Amount.Cents,
		"date", r.Date.String())
	return r, nil
}

func (s *Store) UpdateRecord(ctx context.Context, id int64, upd RecordUpdate) (MutationResult, error) {
	sets, args := []string{}, []any{}
	if upd.MemberID != nil {
		sets, args = append(sets, "member_id = ?"), append(args, nullableID(*upd.MemberID))
	}
	if upd.Direction != nil {
		sets, args = append(sets, "direction = ?"), append(args, string(*upd.Direction))
	}
	if upd.Category != nil {
		sets, args = append(sets, "category = ?"), append(args, *upd.Category)
	}
	if upd.Amount != nil {
		sets, args = append(sets, "amount_cents = ?"), append(args, upd.Amount.Cents)
	}
	if upd.Date != nil {
		sets, args = append(sets, "date = ?"), append(args, upd.Date.String())
	}
	if upd.Note != nil {
		sets, args = append(sets, "note = ?"), append(args, *upd.Note)
	}
	if len(sets) == 0 {
		return MutationResult{}, nil
	}
	// Any content change re-queues the record for export.
	sets = append(sets, "sync_status = 'pending'", "sync_version = sync_version + 1")
	args = append(args, id)

	res, err := s.db.ExecContext(ctx,
		`UPDATE records SET `+strings.Join(sets, ", ")+` WHERE id = ?`, args...)
	if err != nil {
		return MutationResult{}, fmt.Errorf("update record: %w", err)
	}
	return mutation(res)
}

func (s *Store) DeleteRecord(ctx context.Context, id int64) (MutationResult, error) {
	res, err := s.db.ExecContext(ctx, `DELETE FROM records WHERE id = ?`, id)
	if err != nil {
		return MutationResult{}, fmt.Errorf("delete record: %w", err)
	}
	return mutation(res)
}

// --- aggregate queries ---

// SumByDirection sums record amounts per direction within the filter.
func (s *Store) SumByDirection(ctx context.Context, ledgerID int64, f RecordFilter) ([]report.DirectionTotal, error) {
	where, args := recordWhere(ledgerID, f)
	rows, err := s.db.QueryContext(ctx,
		`SELECT direction, COALESCE(SUM(amount_cents), 0) FROM records `+where+` GROUP BY direction`,
		args...)
	if err != nil {
		return nil, fmt.Errorf("sum by direction: %w", err)
	}
	defer rows.Close()

	var totals []report.DirectionTotal
	for rows.Next() {
		var t report.DirectionTotal
		var dir string
		if err := rows.Scan(&dir, &t.Cents); err != nil {
			return nil, fmt.Errorf("scan direction total: %w", err)
		}
		t.Direction = core.Direction(dir)
		totals = append(totals, t)
	}
	return totals, rows.Err()
}

// SumByCategory sums record amounts per category for one direction.
func (s *Store) SumByCategory(ctx context.Context, ledgerID int64, direction core.Direction, f RecordFilter) ([]report.CategoryTotal, error) {
	f.Direction = direction
	where, args := recordWhere(ledgerID, f)
	rows, err := s.db.QueryContext(ctx,
		`SELECT category, COALESCE(SUM(amount_cents), 0), COUNT(*) FROM records `+where+` GROUP BY category`,
		args...)
	if err != nil {
		return nil, fmt.Errorf("sum by category: %w", err)
	}
	defer rows.Close()

	var totals []report.CategoryTotal
	for rows.Next() {
		var t report.CategoryTotal
		if err := rows.Scan(&t.Category, &t.Cents, &t.Count); err != nil {
			return nil, fmt.Errorf("scan category total: %w", err)
		}
		totals = append(totals, t)
	}
	return totals, rows.Err()
}

// SumByDirectionCategory sums record amounts grouped by (direction, category)
// in the date window, feeding budget execution in a single query.
func (s *Store) SumByDirectionCategory(ctx context.Context, ledgerID int64, start, end *core.Date) (map[report.ActualKey]int64, error) {
	where, args := recordWhere(ledgerID, RecordFilter{StartDate: start, EndDate: end})
	rows, err := s.db.QueryContext(ctx,
		`SELECT direction, category, COALESCE(SUM(amount_cents), 0) FROM records `+where+` GROUP BY direction, category`,
		args...)
	if err != nil {
		return nil, fmt.Errorf("sum by direction and category: %w", err)
	}
	defer rows.Close()

	actual := make(map[report.ActualKey]int64)
	for rows.Next() {
		var dir, cat string
		var cents int64
		if err := rows.Scan(&dir, &cat, &cents); err != nil {
			return nil, fmt.Errorf("scan grouped total: %w", err)
		}
		actual[report.ActualKey{Direction: core.Direction(dir), Category: cat}] = cents
	}
	return actual, rows.Err()
}

// --- budgets ---

const budgetColumns = `id, ledger_id, member_id, direction, category, amount_cents, period, date, created_at`

func (s *Store) ListBudgets(ctx context.Context, ledgerID int64, f BudgetFilter) ([]core.Budget, error) {
	conds, args := []string{"ledger_id = ?"}, []any{ledgerID}
	if f.Direction != "" {
		conds, args = append(conds, "direction = ?"), append(args, string(f.Direction))
	}
	if f.Period != "" {
		conds, args = append(conds, "period = ?"), append(args, string(f.Period))
	}
	if f.MemberID != nil {
		conds, args = append(conds, "member_id = ?"), append(args, *f.MemberID)
	}

	rows, err := s.db.QueryContext(ctx,
		`SELECT `+budgetColumns+` FROM budgets WHERE `+strings.Join(conds, " AND ")+` ORDER BY category`,
		args...)
	if err != nil {
		return nil, fmt.Errorf("list budgets: %w", err)
	}
	defer rows.Close()

	var budgets []core.Budget
	for rows.Next() {
		b, err := scanBudget(rows)
		if err != nil {
			return nil, err
		}
		budgets = append(budgets, b)
	}
	return budgets, rows.Err()
}

// AddBudget upserts by (ledger_id, category): adding a budget for an existing
// category updates it in place rather than creating a duplicate.
func (s *Store) AddBudget(ctx context.Context, b core.Budget) (core.Budget, error) {
	b.CreatedAt = time.Now().UTC()
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO budgets (ledger_id, member_id, direction, category, amount_cents, period, date, created_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?)
		 ON CONFLICT (ledger_id, category) DO UPDATE SET
			member_id = excluded.member_id,
			direction = excluded.direction,
			amount_cents = excluded.amount_cents,
			period = excluded.period,
			date = excluded.date`,
		b.LedgerID, nullableID(b.MemberID), string(b.Direction), b.Category,
		b.Amount.Cents, string(b.Period), b.Date.String(), b.CreatedAt)
	if err != nil {
		return core.Budget{}, fmt.Errorf("add budget: %w", err)
	}

	// Re-read so the caller gets the stored row on both insert and update.
	row := s.db.QueryRowContext(ctx,
		`SELECT `+budgetColumns+` FROM budgets WHERE ledger_id = ? AND category = ?`,
		b.LedgerID, b.Category)
	stored, err := scanBudget(row)
	if err != nil {
		return core.Budget{}, fmt.Errorf("read back budget: %w", err)
	}
	return stored, nil
}

func (s *Store) UpdateBudget(ctx context.Context, id int64, upd BudgetUpdate) (MutationResult, error) {
	sets, args := []string{}, []any{}
	if upd.MemberID != nil {
		sets, args = append(sets, "member_id = ?"), append(args, nullableID(*upd.MemberID))
	}
	if upd.Direction != nil {
		sets, args = append(sets, "direction = ?"), append(args, string(*upd.Direction))
	}
	if upd.Category != nil {
		sets, args = append(sets, "category = ?"), append(args, *upd.Category)
	}
	if upd.Amount != nil {
		sets, args = append(sets, "amount_cents = ?"), append(args, upd.Amount.Cents)
	}
	if upd.Period != nil {
		sets, args = append(sets, "period = ?"), append(args, string(*upd.Period))
	}
	if upd.Date != nil {
		sets, args = append(sets, "date = ?"), append(args, upd.Date.String())
	}
	if len(sets) == 0 {
		return MutationResult{}, nil
	}
	args = append(args, id)

	res, err := s.db.ExecContext(ctx,
		`UPDATE budgets SET `+strings.Join(sets, ", ")+` WHERE id = ?`, args...)
	if err != nil {
		return MutationResult{}, fmt.Errorf("update budget: %w", err)
	}
	return mutation(res)
}

func (s *Store) DeleteBudget(ctx context.Context, id int64) (MutationResult, error) {
	res, err := s.db.ExecContext(ctx, `DELETE FROM budgets WHERE id = ?`, id)
	if err != nil {
		return MutationResult{}, fmt.Errorf("delete budget: %w", err)
	}
	return mutation(res)
}

// --- export sync queue ---

// GetPendingSyncRecords returns records waiting to be mirrored to the
// spreadsheet, oldest first.
func (s *Store) GetPendingSyncRecords(ctx context.Context, limit int) ([]PendingSyncRecord, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, sync_version, created_at FROM records
		 WHERE sync_status = 'pending' ORDER BY id LIMIT ?`, int64(limit))
	if err != nil {
		return nil, fmt.Errorf("get pending sync records: %w", err)
	}
	defer rows.Close()

	var pending []PendingSyncRecord
	for rows.Next() {
		var p PendingSyncRecord
		if err := rows.Scan(&p.ID, &p.Version, &p.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan pending record: %w", err)
		}
		pending = append(pending, p)
	}
	return pending, rows.Err()
}

// RecordSyncVersion returns the current export version of a record.
func (s *Store) RecordSyncVersion(ctx context.Context, id int64) (int64, error) {
	var version int64
	err := s.db.QueryRowContext(ctx,
		`SELECT sync_version FROM records WHERE id = ?`, id).Scan(&version)
	if err != nil {
		return 0, fmt.Errorf("record sync version %d: %w", id, err)
	}
	return version, nil
}

func (s *Store) MarkRecordSynced(ctx context.Context, id int64) error {
	if _, err := s.db.ExecContext(ctx,
		`UPDATE records SET sync_status = 'synced' WHERE id = ?`, id); err != nil {
		return fmt.Errorf("mark record synced: %w", err)
	}
	slog.InfoContext(ctx, "Record marked as synced", "id", id)
	return nil
}

func (s *Store) MarkRecordSyncError(ctx context.Context, id int64) error {
	if _, err := s.db.ExecContext(ctx,
		`UPDATE records SET sync_status = 'error' WHERE id = ?`, id); err != nil {
		return fmt.Errorf("mark record sync error: %w", err)
	}
	slog.WarnContext(ctx, "Record marked with sync error", "id", id)
	return nil
}

// --- helpers ---

type rowScanner interface {
	Scan(dest ...any) error
}

func scanRecord(row rowScanner) (core.Record, error) {
	var r core.Record
	var member sql.NullInt64
	var dir, date string
	if err := row.Scan(&r.ID, &r.LedgerID, &member, &dir, &r.Category,
		&r.Amount.Cents, &date, &r.Note, &r.CreatedAt); err != nil {
		return core.Record{}, fmt.Errorf("scan record: %w", err)
	}
	if member.Valid {
		v := member.Int64
		r.MemberID = &v
	}
	r.Direction = core.Direction(dir)
	d, err := core.ParseDate(date)
	if err != nil {
		return core.Record{}, fmt.Errorf("record %d has malformed date %q", r.ID, date)
	}
	r.Date = d
	return r, nil
}

func scanBudget(row rowScanner) (core.Budget, error) {
	var b core.Budget
	var member sql.NullInt64
	var dir, period, date string
	if err := row.Scan(&b.ID, &b.LedgerID, &member, &dir, &b.Category,
		&b.Amount.Cents, &period, &date, &b.CreatedAt); err != nil {
		return core.Budget{}, fmt.Errorf("scan budget: %w", err)
	}
	if member.Valid {
		v := member.Int64
		b.MemberID = &v
	}
	b.Direction = core.Direction(dir)
	b.Period = core.Period(period)
	d, err := core.ParseDate(date)
	if err != nil {
		return core.Budget{}, fmt.Errorf("budget %d has malformed date %q", b.ID, date)
	}
	b.Date = d
	return b, nil
}

func recordWhere(ledgerID int64, f RecordFilter) (string, []any) {
	conds, args := []string{"ledger_id = ?"}, []any{ledgerID}
	if f.StartDate != nil {
		conds, args = append(conds, "date >= ?"), append(args, f.StartDate.String())
	}
	if f.EndDate != nil {
		conds, args = append(conds, "date <= ?"), append(args, f.EndDate.String())
	}
	if f.Direction != "" {
		conds, args = append(conds, "direction = ?"), append(args, string(f.Direction))
	}
	if f.Category != "" {
		conds, args = append(conds, "category = ?"), append(args, f.Category)
	}
	if f.MemberID != nil {
		conds, args = append(conds, "member_id = ?"), append(args, *f.MemberID)
	}
	return "WHERE " + strings.Join(conds, " AND "), args
}

func nullableID(id *int64) any {
	if id == nil {
		return nil
	}
	return *id
}

func mutation(res sql.Result) (MutationResult, error) {
	changes, err := res.RowsAffected()
	if err != nil {
		return MutationResult{}, fmt.Errorf("rows affected: %w", err)
	}
	return MutationResult{Changes: changes}, nil
}
