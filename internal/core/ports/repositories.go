package ports

import (
	"context"
	"time"

	"github.com/pesoflow/lending_backend/internal/core/domain"
	"github.com/shopspring/decimal"
)

// FloatRepositoryFacade persists float issuance and handover rows. Methods
// that touch the ledger or the balance snapshot do all their writes inside
// one database transaction.
type FloatRepositoryFacade interface {
	// SaveFloat inserts a new pending float row. Returns
	// apperrors.ErrDuplicateFloat if a non-rejected issuance already exists
	// for the (collector, date); a partial unique index enforces this, so
	// concurrent issuers cannot both win.
	SaveFloat(ctx context.Context, float domain.CashFloat) error

	FindFloatByID(ctx context.Context, tenantID, floatID string) (*domain.CashFloat, error)

	// FindActiveIssuance returns the pending or confirmed issuance for the
	// date, or apperrors.ErrNotFound.
	FindActiveIssuance(ctx context.Context, tenantID, collectorID string, date time.Time) (*domain.CashFloat, error)

	// FindPendingHandover returns the pending handover for the date, or
	// apperrors.ErrNotFound.
	FindPendingHandover(ctx context.Context, tenantID, collectorID string, date time.Time) (*domain.CashFloat, error)

	// ConfirmIssuance marks the float confirmed, appends the FLOAT_RECEIVED
	// ledger transaction, and creates the day's balance snapshot, all in one
	// database transaction.
	ConfirmIssuance(ctx context.Context, float domain.CashFloat, txn domain.CashTransaction, balance domain.CollectorDailyBalance) error

	// ResolveHandover applies the cashier's decision. On accept, txn is the
	// HANDOVER ledger entry; the snapshot is zeroed and the day closed in
	// the same database transaction. On reject txn is nil and only the
	// float row changes.
	ResolveHandover(ctx context.Context, handover domain.CashFloat, txn *domain.CashTransaction) error

	ListFloats(ctx context.Context, tenantID, collectorID string, kind domain.FloatKind, from, to time.Time, limit int, nextToken *string) ([]domain.CashFloat, *string, error)

	// ListPendingFloats lists unresolved rows of one kind, optionally
	// narrowed to a collector.
	ListPendingFloats(ctx context.Context, tenantID string, kind domain.FloatKind, collectorID string) ([]domain.CashFloat, error)
}

// LedgerRepositoryFacade is the append-only cash transaction log plus the
// denormalized balance snapshot it keeps in lockstep.
type LedgerRepositoryFacade interface {
	// AppendTransaction validates and persists one ledger entry and the
	// matching snapshot update, plus the optional audit row, in one
	// database transaction. It returns the persisted entry and the updated
	// snapshot.
	//
	// Errors: ErrStaleBalance when txn.BalanceBefore no longer matches the
	// locked snapshot; ErrDayAlreadyClosed, ErrUnconfirmedFloat,
	// ErrInsufficientFloat when the snapshot state forbids the write. A
	// previously seen LocalTransactionID for the collector returns the
	// prior row idempotently with no new writes.
	AppendTransaction(ctx context.Context, txn domain.CashTransaction, auditLog *domain.CollectorActionLog) (*domain.CashTransaction, *domain.CollectorDailyBalance, error)

	FindByLocalTransactionID(ctx context.Context, tenantID, collectorID, localTxnID string) (*domain.CashTransaction, error)

	// ListTransactionsForDay returns the day's entries in append order, for
	// replay verification and handover reconciliation.
	ListTransactionsForDay(ctx context.Context, tenantID, collectorID string, date time.Time) ([]domain.CashTransaction, error)

	ListTransactions(ctx context.Context, tenantID, collectorID string, txnType domain.CashTransactionType, from, to time.Time, limit int, nextToken *string) ([]domain.CashTransaction, *string, error)

	// SumAmountByType totals entries of one type in a date window. Used for
	// the rolling daily/monthly disbursement limits, summed at
	// authorization time rather than kept in a counter table.
	SumAmountByType(ctx context.Context, tenantID, collectorID string, txnType domain.CashTransactionType, from, to time.Time) (decimal.Decimal, int, error)
}

// BalanceRepositoryFacade reads the denormalized daily snapshots. All writes
// go through LedgerRepositoryFacade / FloatRepositoryFacade transactions.
type BalanceRepositoryFacade interface {
	GetBalance(ctx context.Context, tenantID, collectorID string, date time.Time) (*domain.CollectorDailyBalance, error)
	ListBalancesForDate(ctx context.Context, tenantID string, date time.Time) ([]domain.CollectorDailyBalance, error)
}

// LimitsRepositoryFacade persists versioned authority limits.
type LimitsRepositoryFacade interface {
	// FindActiveLimits returns the limits version in force for the
	// collector on the given date, or apperrors.ErrNotFound.
	FindActiveLimits(ctx context.Context, tenantID, collectorID string, asOf time.Time) (*domain.CollectorLimits, error)

	// SaveLimitsVersion end-dates the currently active version and inserts
	// the new one in a single database transaction.
	SaveLimitsVersion(ctx context.Context, limits domain.CollectorLimits) error
}

// ActionLogRepositoryFacade is the append-only guarded-action audit log.
type ActionLogRepositoryFacade interface {
	SaveLog(ctx context.Context, log domain.CollectorActionLog) error
	FindLogByID(ctx context.Context, tenantID, logID string) (*domain.CollectorActionLog, error)

	// FindResolutionFor returns the resolution row referencing logID, or
	// apperrors.ErrNotFound if the original is still unresolved.
	FindResolutionFor(ctx context.Context, tenantID, logID string) (*domain.CollectorActionLog, error)

	ListLogs(ctx context.Context, tenantID, collectorID string, actionType domain.ActionType, status domain.ActionStatus, from, to time.Time, limit int) ([]domain.CollectorActionLog, error)

	// ListPendingUnresolved returns PENDING_APPROVAL rows that no resolution
	// row references yet, oldest first.
	ListPendingUnresolved(ctx context.Context, tenantID string, limit int) ([]domain.CollectorActionLog, error)

	// CountActionsForDay counts successful same-category actions on a date,
	// for the max-approvals-per-day check.
	CountActionsForDay(ctx context.Context, tenantID, collectorID string, actionType domain.ActionType, date time.Time) (int, error)

	SumActionAmounts(ctx context.Context, tenantID, collectorID string, actionType domain.ActionType, from, to time.Time) (decimal.Decimal, int, error)
}

// RepositoryContainer bundles the repositories for wiring.
type RepositoryContainer struct {
	Float     FloatRepositoryFacade
	Ledger    LedgerRepositoryFacade
	Balance   BalanceRepositoryFacade
	Limits    LimitsRepositoryFacade
	ActionLog ActionLogRepositoryFacade
}
