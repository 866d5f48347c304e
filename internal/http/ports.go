package http

import (
	"context"

	"famledger/internal/core"
	"famledger/internal/report"
	"famledger/internal/storage"
)

// Ports the server depends on. *storage.Store satisfies the read/write
// interfaces; *services.RecordService satisfies RecordMutator so record
// writes flow through the export pipeline.
type (
	LedgerStore interface {
		ListLedgers(ctx context.Context) ([]core.Ledger, error)
		AddLedger(ctx context.Context, l core.Ledger) (core.Ledger, error)
		UpdateLedger(ctx context.Context, id int64, upd storage.LedgerUpdate) (storage.MutationResult, error)
		DeleteLedger(ctx context.Context, id int64) (storage.MutationResult, error)
	}

	MemberStore interface {
		ListMembers(ctx context.Context, ledgerID int64) ([]core.Member, error)
		AddMember(ctx context.Context, m core.Member) (core.Member, error)
		UpdateMember(ctx context.Context, id int64, upd storage.MemberUpdate) (storage.MutationResult, error)
		DeleteMember(ctx context.Context, id int64) (storage.MutationResult, error)
	}

	RecordReader interface {
		ListRecords(ctx context.Context, ledgerID int64, f storage.RecordFilter) ([]core.Record, error)
		SumByDirection(ctx context.Context, ledgerID int64, f storage.RecordFilter) ([]report.DirectionTotal, error)
		SumByCategory(ctx context.Context, ledgerID int64, direction core.Direction, f storage.RecordFilter) ([]report.CategoryTotal, error)
		SumByDirectionCategory(ctx context.Context, ledgerID int64, start, end *core.Date) (map[report.ActualKey]int64, error)
	}

	RecordMutator interface {
		CreateRecord(ctx context.Context, r core.Record) (core.Record, error)
		UpdateRecord(ctx context.Context, id int64, upd storage.RecordUpdate) (storage.MutationResult, error)
		DeleteRecord(ctx context.Context, id int64) (storage.MutationResult, error)
	}

	BudgetStore interface {
		ListBudgets(ctx context.Context, ledgerID int64, f storage.BudgetFilter) ([]core.Budget, error)
		AddBudget(ctx context.Context, b core.Budget) (core.Budget, error)
		UpdateBudget(ctx context.Context, id int64, upd storage.BudgetUpdate) (storage.MutationResult, error)
		DeleteBudget(ctx context.Context, id int64) (storage.MutationResult, error)
	}
)

// Deps bundles the server's collaborators.
type Deps struct {
	Ledgers LedgerStore
	Members MemberStore
	Records RecordReader
	Mutator RecordMutator
	Budgets BudgetStore
	Catalog core.Catalog
}
