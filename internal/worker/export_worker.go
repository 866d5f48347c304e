package worker

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"famledger/internal/amqp"
	"famledger/internal/core"
	"famledger/internal/export"
	"famledger/internal/storage"
)

// ExportWorker mirrors ledger records from SQLite to the spreadsheet. It is
// driven by AMQP notifications, with a periodic pending-queue sweep as backup
// in case messages are lost.
type ExportWorker struct {
	store     *storage.Store
	appender  export.RowAppender
	batchSize int
}

func NewExportWorker(store *storage.Store, appender export.RowAppender, batchSize int) *ExportWorker {
	return &ExportWorker{
		store:     store,
		appender:  appender,
		batchSize: batchSize,
	}
}

// HandleRecordEvent processes a single record notification from AMQP.
func (w *ExportWorker) HandleRecordEvent(ctx context.Context, msg *amqp.RecordEventMessage) error {
	slog.InfoContext(ctx, "Processing record event",
		"id", msg.ID,
		"version", msg.Version,
		"deleted", msg.Deleted)

	if msg.Deleted {
		// The row stays in the sheet as history; nothing to export.
		slog.InfoContext(ctx, "Record deleted locally, sheet row kept", "id", msg.ID)
		return nil
	}

	record, err := w.store.GetRecord(ctx, msg.ID)
	if errors.Is(err, sql.ErrNoRows) {
		// The record was deleted before the event reached us. Returning an
		// error here would requeue the message forever, so treat it like a
		// delete event.
		slog.InfoContext(ctx, "Record no longer exists, skipping export", "id", msg.ID)
		return nil
	}
	if err != nil {
		return fmt.Errorf("get record from storage: %w", err)
	}

	if err := w.exportRecord(ctx, record); err != nil {
		return fmt.Errorf("export record: %w", err)
	}

	return nil
}

// ProcessPendingRecords exports records that are still queued. This is the
// backup path for lost AMQP messages.
func (w *ExportWorker) ProcessPendingRecords(ctx context.Context) error {
	pending, err := w.store.GetPendingSyncRecords(ctx, w.batchSize)
	if err != nil {
		return fmt.Errorf("get pending records: %w", err)
	}

	if len(pending) == 0 {
		return nil
	}

	slog.InfoContext(ctx, "Processing pending records", "count", len(pending))

	for _, p := range pending {
		record, err := w.store.GetRecord(ctx, p.ID)
		if err != nil {
			slog.ErrorContext(ctx, "Failed to get record", "id", p.ID, "error", err)
			if err := w.store.MarkRecordSyncError(ctx, p.ID); err != nil {
				slog.ErrorContext(ctx, "Failed to mark sync error", "id", p.ID, "error", err)
			}
			continue
		}

		if err := w.exportRecord(ctx, record); err != nil {
			slog.ErrorContext(ctx, "Failed to export record", "id", p.ID, "error", err)
			continue
		}
	}

	return nil
}

// StartupCheck drains the pending queue at worker startup to recover from
// missed notifications or worker downtime. It uses a larger batch than the
// periodic sweep.
func (w *ExportWorker) StartupCheck(ctx context.Context) error {
	pending, err := w.store.GetPendingSyncRecords(ctx, w.batchSize*5)
	if err != nil {
		return fmt.Errorf("get pending records for startup check: %w", err)
	}

	if len(pending) == 0 {
		slog.InfoContext(ctx, "No pending records found on startup")
		return nil
	}

	slog.InfoContext(ctx, "Found pending records on startup, processing...",
		"count", len(pending))

	successCount := 0
	errorCount := 0

	for _, p := range pending {
		record, err := w.store.GetRecord(ctx, p.ID)
		if err != nil {
			slog.ErrorContext(ctx, "Failed to get record for startup export",
				"id", p.ID, "error", err)
			if err := w.store.MarkRecordSyncError(ctx, p.ID); err != nil {
				slog.ErrorContext(ctx, "Failed to mark sync error", "id", p.ID, "error", err)
			}
			errorCount++
			continue
		}

		if err := w.exportRecord(ctx, record); err != nil {
			slog.ErrorContext(ctx, "Failed to export record during startup",
				"id", p.ID, "error", err)
			errorCount++
			continue
		}

		successCount++
	}

	slog.InfoContext(ctx, "Startup export completed",
		"total", len(pending),
		"exported", successCount,
		"errors", errorCount)

	return nil
}

// Run consumes record events and sweeps the pending queue on a ticker until
// the context is cancelled.
func (w *ExportWorker) Run(ctx context.Context, client *amqp.Client, sweepInterval time.Duration) error {
	if err := w.StartupCheck(ctx); err != nil {
		slog.ErrorContext(ctx, "Startup check failed", "error", err)
	}

	go func() {
		ticker := time.NewTicker(sweepInterval)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				if err := w.ProcessPendingRecords(ctx); err != nil {
					slog.ErrorContext(ctx, "Pending sweep failed", "error", err)
				}
			}
		}
	}()

	return client.ConsumeRecordEvents(ctx, func(msg *amqp.RecordEventMessage) error {
		return w.HandleRecordEvent(ctx, msg)
	})
}

func (w *ExportWorker) exportRecord(ctx context.Context, record core.Record) error {
	row, err := w.buildRow(ctx, record)
	if err != nil {
		return err
	}

	ref, err := w.appender.Append(ctx, row)
	if err != nil {
		if markErr := w.store.MarkRecordSyncError(ctx, record.ID); markErr != nil {
			slog.ErrorContext(ctx, "Failed to mark sync error", "id", record.ID, "error", markErr)
		}
		return fmt.Errorf("append to sheet: %w", err)
	}

	if err := w.store.MarkRecordSynced(ctx, record.ID); err != nil {
		slog.ErrorContext(ctx, "Failed to mark as synced", "id", record.ID, "error", err)
		// The export itself worked, don't fail the message.
	}

	slog.InfoContext(ctx, "Record exported",
		"id", record.ID,
		"sheet_ref", ref,
		"category", record.Category,
		"amount", record.Amount.Format())

	return nil
}

// buildRow flattens a record with its ledger and member names for the sheet.
func (w *ExportWorker) buildRow(ctx context.Context, record core.Record) (export.Row, error) {
	ledger, err := w.store.GetLedger(ctx, record.LedgerID)
	if err != nil {
		return export.Row{}, fmt.Errorf("resolve ledger %d: %w", record.LedgerID, err)
	}

	memberName := ""
	if record.MemberID != nil {
		member, err := w.store.GetMember(ctx, *record.MemberID)
		if err != nil {
			// The member may have been deleted since; export without a name.
			slog.WarnContext(ctx, "Failed to resolve member",
				"record_id", record.ID, "member_id", *record.MemberID, "error", err)
		} else {
			memberName = member.Name
		}
	}

	return export.Row{
		Date:      record.Date.String(),
		Ledger:    ledger.Name,
		Member:    memberName,
		Direction: string(record.Direction),
		Category:  record.Category,
		Amount:    record.Amount.Units(),
		Note:      record.Note,
	}, nil
}
