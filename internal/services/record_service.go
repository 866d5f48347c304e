package services

import (
	"context"
	"fmt"
	"log/slog"

	"famledger/internal/amqp"
	"famledger/internal/core"
	"famledger/internal/storage"
)

// RecordService orchestrates record mutations across SQLite and AMQP. Writes
// land in SQLite first; the export notification is best effort and never
// fails the request.
type RecordService struct {
	store      *storage.Store
	amqpClient *amqp.Client
}

func NewRecordService(store *storage.Store, amqpClient *amqp.Client) *RecordService {
	return &RecordService{
		store:      store,
		amqpClient: amqpClient,
	}
}

// CreateRecord saves a record locally and publishes an export notification.
func (s *RecordService) CreateRecord(ctx context.Context, r core.Record) (core.Record, error) {
	saved, err := s.store.AddRecord(ctx, r)
	if err != nil {
		return core.Record{}, fmt.Errorf("save record: %w", err)
	}

	// Non-blocking, version 1 for a new record.
	if err := s.publishSync(ctx, saved.ID, 1); err != nil {
		slog.ErrorContext(ctx, "Failed to publish record sync message",
			"id", saved.ID, "error", err)
		// The record is saved locally, don't fail the request.
	}

	return saved, nil
}

// UpdateRecord applies a partial update and publishes an export notification
// when a row actually changed.
func (s *RecordService) UpdateRecord(ctx context.Context, id int64, upd storage.RecordUpdate) (storage.MutationResult, error) {
	res, err := s.store.UpdateRecord(ctx, id, upd)
	if err != nil {
		return storage.MutationResult{}, fmt.Errorf("update record: %w", err)
	}

	if res.Changes > 0 {
		version, err := s.store.RecordSyncVersion(ctx, id)
		if err != nil {
			slog.ErrorContext(ctx, "Failed to read record sync version",
				"id", id, "error", err)
			return res, nil
		}
		if err := s.publishSync(ctx, id, version); err != nil {
			slog.ErrorContext(ctx, "Failed to publish record sync message",
				"id", id, "error", err)
		}
	}

	return res, nil
}

// DeleteRecord removes a record locally and publishes a delete notification.
func (s *RecordService) DeleteRecord(ctx context.Context, id int64) (storage.MutationResult, error) {
	res, err := s.store.DeleteRecord(ctx, id)
	if err != nil {
		return storage.MutationResult{}, fmt.Errorf("delete record: %w", err)
	}

	if res.Changes > 0 {
		if err := s.publishDelete(ctx, id); err != nil {
			slog.ErrorContext(ctx, "Failed to publish record delete message",
				"id", id, "error", err)
		}
	}

	return res, nil
}

func (s *RecordService) publishSync(ctx context.Context, id, version int64) error {
	if s.amqpClient == nil {
		slog.WarnContext(ctx, "AMQP client not available, skipping sync message")
		return nil
	}

	return s.amqpClient.PublishRecordSync(ctx, id, version)
}

func (s *RecordService) publishDelete(ctx context.Context, id int64) error {
	if s.amqpClient == nil {
		slog.WarnContext(ctx, "AMQP client not available, skipping delete message")
		return nil
	}

	return s.amqpClient.PublishRecordDelete(ctx, id)
}

// Close closes both storage and AMQP connections.
func (s *RecordService) Close() error {
	var errs []error

	if s.store != nil {
		if err := s.store.Close(); err != nil {
			errs = append(errs, fmt.Errorf("storage: %w", err))
		}
	}

	if s.amqpClient != nil {
		if err := s.amqpClient.Close(); err != nil {
			errs = append(errs, fmt.Errorf("amqp: %w", err))
		}
	}

	if len(errs) > 0 {
		return fmt.Errorf("close record service: %v", errs)
	}

	return nil
}
