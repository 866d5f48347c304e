package worker

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"testing"

	"famledger/internal/amqp"
	"famledger/internal/core"
	"famledger/internal/export"
	"famledger/internal/storage"
)

// fakeAppender collects exported rows and can be told to fail.
type fakeAppender struct {
	rows []export.Row
	err  error
}

func (f *fakeAppender) Append(_ context.Context, row export.Row) (string, error) {
	if f.err != nil {
		return "", f.err
	}
	f.rows = append(f.rows, row)
	return fmt.Sprintf("2025 Records!A%d:G%d", len(f.rows), len(f.rows)), nil
}

func newTestWorker(t *testing.T) (*ExportWorker, *storage.Store, *fakeAppender) {
	t.Helper()

	dbPath := filepath.Join(t.TempDir(), "test.db")
	store, err := storage.NewStore(dbPath, storage.MemberScopeGlobal)
	if err != nil {
		t.Fatalf("NewStore() error = %v", err)
	}
	t.Cleanup(func() { store.Close() })

	appender := &fakeAppender{}
	return NewExportWorker(store, appender, 10), store, appender
}

func seedRecord(t *testing.T, store *storage.Store, memberID *int64) core.Record {
	t.Helper()
	ctx := context.Background()

	ledger, err := store.AddLedger(ctx, core.Ledger{Name: "household"})
	if err != nil {
		t.Fatalf("AddLedger() error = %v", err)
	}

	record, err := store.AddRecord(ctx, core.Record{
		LedgerID:  ledger.ID,
		MemberID:  memberID,
		Direction: core.Expense,
		Category:  "food",
		Amount:    core.Money{Cents: 1250},
		Date:      core.NewDate(2025, 3, 10),
		Note:      "groceries",
	})
	if err != nil {
		t.Fatalf("AddRecord() error = %v", err)
	}
	return record
}

func TestHandleRecordEvent(t *testing.T) {
	w, store, appender := newTestWorker(t)
	ctx := context.Background()

	member, err := store.AddMember(ctx, core.Member{Name: "Anna"})
	if err != nil {
		t.Fatalf("AddMember() error = %v", err)
	}
	record := seedRecord(t, store, &member.ID)

	if err := w.HandleRecordEvent(ctx, amqp.NewRecordEventMessage(record.ID, 1)); err != nil {
		t.Fatalf("HandleRecordEvent() error = %v", err)
	}

	if len(appender.rows) != 1 {
		t.Fatalf("appended rows = %d, want 1", len(appender.rows))
	}
	row := appender.rows[0]
	if row.Date != "2025-03-10" || row.Ledger != "household" || row.Member != "Anna" {
		t.Errorf("row = %+v, want date/ledger/member resolved", row)
	}
	if row.Direction != "expense" || row.Category != "food" || row.Amount != 12.50 {
		t.Errorf("row = %+v, want expense/food/12.50", row)
	}

	pending, err := store.GetPendingSyncRecords(ctx, 10)
	if err != nil {
		t.Fatalf("GetPendingSyncRecords() error = %v", err)
	}
	if len(pending) != 0 {
		t.Errorf("pending after export = %d, want 0", len(pending))
	}
}

func TestHandleRecordEvent_Delete(t *testing.T) {
	w, _, appender := newTestWorker(t)

	if err := w.HandleRecordEvent(context.Background(), amqp.NewRecordDeleteMessage(42)); err != nil {
		t.Fatalf("HandleRecordEvent() error = %v", err)
	}
	if len(appender.rows) != 0 {
		t.Errorf("delete event should not append rows, got %d", len(appender.rows))
	}
}

func TestHandleRecordEvent_RecordDeletedBeforeConsume(t *testing.T) {
	w, store, appender := newTestWorker(t)
	ctx := context.Background()

	record := seedRecord(t, store, nil)
	if _, err := store.DeleteRecord(ctx, record.ID); err != nil {
		t.Fatalf("DeleteRecord() error = %v", err)
	}

	// The sync event raced with the delete. An error here would requeue the
	// message indefinitely, so the event must be treated as a clean skip.
	if err := w.HandleRecordEvent(ctx, amqp.NewRecordEventMessage(record.ID, 1)); err != nil {
		t.Fatalf("HandleRecordEvent() error = %v, want nil for a vanished record", err)
	}
	if len(appender.rows) != 0 {
		t.Errorf("appended rows = %d, want 0", len(appender.rows))
	}
}

func TestHandleRecordEvent_MissingMemberExportsWithoutName(t *testing.T) {
	w, store, appender := newTestWorker(t)
	ctx := context.Background()

	member, err := store.AddMember(ctx, core.Member{Name: "Anna"})
	if err != nil {
		t.Fatalf("AddMember() error = %v", err)
	}
	record := seedRecord(t, store, &member.ID)

	if _, err := store.DeleteMember(ctx, member.ID); err != nil {
		t.Fatalf("DeleteMember() error = %v", err)
	}

	if err := w.HandleRecordEvent(ctx, amqp.NewRecordEventMessage(record.ID, 1)); err != nil {
		t.Fatalf("HandleRecordEvent() error = %v", err)
	}
	if len(appender.rows) != 1 || appender.rows[0].Member != "" {
		t.Errorf("rows = %+v, want one row with empty member name", appender.rows)
	}
}

func TestProcessPendingRecords(t *testing.T) {
	w, store, appender := newTestWorker(t)
	ctx := context.Background()

	seedRecord(t, store, nil)

	if err := w.ProcessPendingRecords(ctx); err != nil {
		t.Fatalf("ProcessPendingRecords() error = %v", err)
	}
	if len(appender.rows) != 1 {
		t.Fatalf("appended rows = %d, want 1", len(appender.rows))
	}

	// A second sweep finds nothing to do.
	if err := w.ProcessPendingRecords(ctx); err != nil {
		t.Fatalf("ProcessPendingRecords() error = %v", err)
	}
	if len(appender.rows) != 1 {
		t.Errorf("appended rows after second sweep = %d, want 1", len(appender.rows))
	}
}

func TestProcessPendingRecords_AppendFailureMarksError(t *testing.T) {
	w, store, appender := newTestWorker(t)
	ctx := context.Background()

	record := seedRecord(t, store, nil)
	appender.err = errors.New("sheet unavailable")

	if err := w.ProcessPendingRecords(ctx); err != nil {
		t.Fatalf("ProcessPendingRecords() error = %v", err)
	}

	// The record left the pending queue and is flagged as errored, so the
	// sweep does not retry it forever on a broken sheet.
	pending, err := store.GetPendingSyncRecords(ctx, 10)
	if err != nil {
		t.Fatalf("GetPendingSyncRecords() error = %v", err)
	}
	for _, p := range pending {
		if p.ID == record.ID {
			t.Errorf("record %d still pending after append failure", record.ID)
		}
	}
}

func TestStartupCheck(t *testing.T) {
	w, store, appender := newTestWorker(t)
	ctx := context.Background()

	for i := 0; i < 3; i++ {
		seedRecord(t, store, nil)
	}

	if err := w.StartupCheck(ctx); err != nil {
		t.Fatalf("StartupCheck() error = %v", err)
	}
	if len(appender.rows) != 3 {
		t.Errorf("appended rows = %d, want 3", len(appender.rows))
	}
}
