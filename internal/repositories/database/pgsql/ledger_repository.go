package pgsql

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/pesoflow/lending_backend/internal/apperrors"
	"github.com/pesoflow/lending_backend/internal/core/domain"
	portsrepo "github.com/pesoflow/lending_backend/internal/core/ports"
	"github.com/pesoflow/lending_backend/internal/models"
	"github.com/pesoflow/lending_backend/internal/utils/mapping"
	"github.com/pesoflow/lending_backend/internal/utils/pagination"
	"github.com/shopspring/decimal"
)

const transactionColumns = `
	transaction_id, tenant_id, collector_id, txn_date, txn_type, amount,
	balance_before, balance_after, loan_id, payment_id, float_id,
	latitude, longitude, local_transaction_id, is_synced, notes,
	created_at, created_by, last_updated_at, last_updated_by`

const balanceColumns = `
	balance_id, tenant_id, collector_id, balance_date,
	opening_float, total_collections, total_disbursements, current_balance,
	daily_cap, available_for_disbursement, is_float_confirmed, is_day_closed,
	day_closed_at, float_issuance_id, handover_id,
	created_at, created_by, last_updated_at, last_updated_by`

// execer is satisfied by both *pgxpool.Pool and pgx.Tx so the insert
// helpers can run inside or outside an explicit transaction.
type execer interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
}

func insertTransactionTx(ctx context.Context, db execer, m models.CashTransaction) error {
	_, err := db.Exec(ctx, `
		INSERT INTO cash_transactions (`+transactionColumns+`)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16, $17, $18, $19, $20);
	`,
		m.TransactionID, m.TenantID, m.CollectorID, m.TxnDate, m.TxnType, m.Amount,
		m.BalanceBefore, m.BalanceAfter, m.LoanID, m.PaymentID, m.FloatID,
		m.Latitude, m.Longitude, m.LocalTransactionID, m.IsSynced, m.Notes,
		m.CreatedAt, m.CreatedBy, m.LastUpdatedAt, m.LastUpdatedBy,
	)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == "23505" { // unique_violation
			return apperrors.ErrDuplicate
		}
		return apperrors.NewAppError(500, "failed to insert cash transaction "+m.TransactionID, err)
	}
	return nil
}

func insertActionLogTx(ctx context.Context, db execer, m models.CollectorActionLog) error {
	_, err := db.Exec(ctx, `
		INSERT INTO collector_action_logs (
			log_id, tenant_id, collector_id, action_type, loan_id, payment_id,
			amount, previous_value, new_value, status, flagged_for_review,
			rejection_reason, approved_by, approved_at, resolves_log_id,
			notes, latitude, longitude, device_info, created_at, created_by
		)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16, $17, $18, $19, $20, $21);
	`,
		m.LogID, m.TenantID, m.CollectorID, m.ActionType, m.LoanID, m.PaymentID,
		m.Amount, m.PreviousValue, m.NewValue, m.Status, m.FlaggedForReview,
		m.RejectionReason, m.ApprovedBy, m.ApprovedAt, m.ResolvesLogID,
		m.Notes, m.Latitude, m.Longitude, m.DeviceInfo, m.CreatedAt, m.CreatedBy,
	)
	if err != nil {
		return apperrors.NewAppError(500, "failed to insert action log "+m.LogID, err)
	}
	return nil
}

func scanTransaction(row rowScanner) (models.CashTransaction, error) {
	var m models.CashTransaction
	err := row.Scan(
		&m.TransactionID, &m.TenantID, &m.CollectorID, &m.TxnDate, &m.TxnType, &m.Amount,
		&m.BalanceBefore, &m.BalanceAfter, &m.LoanID, &m.PaymentID, &m.FloatID,
		&m.Latitude, &m.Longitude, &m.LocalTransactionID, &m.IsSynced, &m.Notes,
		&m.CreatedAt, &m.CreatedBy, &m.LastUpdatedAt, &m.LastUpdatedBy,
	)
	return m, err
}

func scanBalance(row rowScanner) (models.CollectorDailyBalance, error) {
	var m models.CollectorDailyBalance
	err := row.Scan(
		&m.BalanceID, &m.TenantID, &m.CollectorID, &m.BalanceDate,
		&m.OpeningFloat, &m.TotalCollections, &m.TotalDisbursements, &m.CurrentBalance,
		&m.DailyCap, &m.AvailableForDisbursement, &m.IsFloatConfirmed, &m.IsDayClosed,
		&m.DayClosedAt, &m.FloatIssuanceID, &m.HandoverID,
		&m.CreatedAt, &m.CreatedBy, &m.LastUpdatedAt, &m.LastUpdatedBy,
	)
	return m, err
}

type PgxLedgerRepository struct {
	BaseRepository
}

// newPgxLedgerRepository creates a new repository for the cash ledger.
func newPgxLedgerRepository(pool *pgxpool.Pool) portsrepo.LedgerRepositoryFacade {
	return &PgxLedgerRepository{BaseRepository: BaseRepository{Pool: pool}}
}

var _ portsrepo.LedgerRepositoryFacade = (*PgxLedgerRepository)(nil)

// AppendTransaction persists one ledger entry and the snapshot update in a
// single database transaction. The snapshot row is locked FOR UPDATE so
// concurrent appends for the same collector serialize; all state checks run
// under that lock.
func (r *PgxLedgerRepository) AppendTransaction(ctx context.Context, txn domain.CashTransaction, auditLog *domain.CollectorActionLog) (*domain.CashTransaction, *domain.CollectorDailyBalance, error) {
	tx, err := r.Begin(ctx)
	if err != nil {
		return nil, nil, err
	}
	defer r.Rollback(ctx, tx)

	mb, err := scanBalance(tx.QueryRow(ctx, `
		SELECT `+balanceColumns+`
		FROM collector_daily_balances
		WHERE tenant_id = $1 AND collector_id = $2 AND balance_date = $3
		FOR UPDATE;
	`, txn.TenantID, txn.CollectorID, txn.Date))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			// No snapshot means the day's float was never confirmed.
			return nil, nil, apperrors.ErrUnconfirmedFloat
		}
		return nil, nil, apperrors.NewAppError(500, "failed to lock balance snapshot", err)
	}
	balance := mapping.ToDomainDailyBalance(mb)

	// Idempotent replay: a token already applied for this collector returns
	// the original row unchanged. Checked under the lock so two replays of
	// the same token cannot both insert.
	if txn.LocalTransactionID != "" {
		mt, err := scanTransaction(tx.QueryRow(ctx, `
			SELECT `+transactionColumns+`
			FROM cash_transactions
			WHERE tenant_id = $1 AND collector_id = $2 AND local_transaction_id = $3;
		`, txn.TenantID, txn.CollectorID, txn.LocalTransactionID))
		if err == nil {
			prior := mapping.ToDomainCashTransaction(mt)
			return &prior, &balance, nil
		}
		if !errors.Is(err, pgx.ErrNoRows) {
			return nil, nil, apperrors.NewAppError(500, "failed idempotency lookup", err)
		}
	}

	if balance.IsDayClosed {
		return nil, nil, apperrors.ErrDayAlreadyClosed
	}
	if !balance.IsFloatConfirmed {
		return nil, nil, apperrors.ErrUnconfirmedFloat
	}
	if !txn.BalanceBefore.Equal(balance.CurrentBalance) {
		return nil, nil, apperrors.ErrStaleBalance
	}
	if txn.Type == domain.TxnDisbursement && txn.Amount.GreaterThan(balance.AvailableForDisbursement) {
		return nil, nil, apperrors.ErrInsufficientFloat
	}

	if err := balance.Apply(txn); err != nil {
		return nil, nil, apperrors.NewAppError(500, "failed to fold transaction into snapshot", err)
	}
	if !txn.BalanceAfter.Equal(balance.CurrentBalance) {
		return nil, nil, apperrors.ErrStaleBalance
	}

	if err := insertTransactionTx(ctx, tx, mapping.ToModelCashTransaction(txn)); err != nil {
		return nil, nil, err
	}

	_, err = tx.Exec(ctx, `
		UPDATE collector_daily_balances
		SET total_collections = $1, total_disbursements = $2, current_balance = $3,
		    available_for_disbursement = $4, last_updated_at = $5, last_updated_by = $6
		WHERE tenant_id = $7 AND balance_id = $8;
	`, balance.TotalCollections, balance.TotalDisbursements, balance.CurrentBalance,
		balance.AvailableForDisbursement, txn.LastUpdatedAt, txn.LastUpdatedBy,
		balance.TenantID, balance.BalanceID)
	if err != nil {
		return nil, nil, apperrors.NewAppError(500, "failed to update balance snapshot "+balance.BalanceID, err)
	}
	balance.LastUpdatedAt = txn.LastUpdatedAt
	balance.LastUpdatedBy = txn.LastUpdatedBy

	if auditLog != nil {
		if err := insertActionLogTx(ctx, tx, mapping.ToModelActionLog(*auditLog)); err != nil {
			return nil, nil, err
		}
	}

	if err := r.Commit(ctx, tx); err != nil {
		return nil, nil, err
	}
	return &txn, &balance, nil
}

func (r *PgxLedgerRepository) FindByLocalTransactionID(ctx context.Context, tenantID, collectorID, localTxnID string) (*domain.CashTransaction, error) {
	m, err := scanTransaction(r.Pool.QueryRow(ctx, `
		SELECT `+transactionColumns+`
		FROM cash_transactions
		WHERE tenant_id = $1 AND collector_id = $2 AND local_transaction_id = $3;
	`, tenantID, collectorID, localTxnID))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.ErrNotFound
		}
		return nil, apperrors.NewAppError(500, "failed to find transaction by local id", err)
	}
	d := mapping.ToDomainCashTransaction(m)
	return &d, nil
}

// ListTransactionsForDay returns the day's entries in append order.
func (r *PgxLedgerRepository) ListTransactionsForDay(ctx context.Context, tenantID, collectorID string, date time.Time) ([]domain.CashTransaction, error) {
	rows, err := r.Pool.Query(ctx, `
		SELECT `+transactionColumns+`
		FROM cash_transactions
		WHERE tenant_id = $1 AND collector_id = $2 AND txn_date = $3
		ORDER BY created_at ASC;
	`, tenantID, collectorID, date)
	if err != nil {
		return nil, apperrors.NewAppError(500, "failed to list day transactions", err)
	}
	defer rows.Close()

	var txns []domain.CashTransaction
	for rows.Next() {
		m, err := scanTransaction(rows)
		if err != nil {
			return nil, apperrors.NewAppError(500, "failed to scan transaction row", err)
		}
		txns = append(txns, mapping.ToDomainCashTransaction(m))
	}
	return txns, rows.Err()
}

func (r *PgxLedgerRepository) ListTransactions(ctx context.Context, tenantID, collectorID string, txnType domain.CashTransactionType, from, to time.Time, limit int, nextToken *string) ([]domain.CashTransaction, *string, error) {
	args := []any{tenantID}
	query := `SELECT ` + transactionColumns + ` FROM cash_transactions WHERE tenant_id = $1`

	if collectorID != "" {
		args = append(args, collectorID)
		query += fmt.Sprintf(" AND collector_id = $%d", len(args))
	}
	if txnType != "" {
		args = append(args, string(txnType))
		query += fmt.Sprintf(" AND txn_type = $%d", len(args))
	}
	if !from.IsZero() {
		args = append(args, from)
		query += fmt.Sprintf(" AND txn_date >= $%d", len(args))
	}
	if !to.IsZero() {
		args = append(args, to)
		query += fmt.Sprintf(" AND txn_date <= $%d", len(args))
	}
	if nextToken != nil {
		tokenDate, tokenCreated, err := pagination.DecodeToken(*nextToken)
		if err != nil {
			return nil, nil, fmt.Errorf("%w: %s", apperrors.ErrValidation, err.Error())
		}
		args = append(args, tokenDate, tokenCreated)
		query += fmt.Sprintf(" AND (txn_date, created_at) < ($%d, $%d)", len(args)-1, len(args))
	}

	args = append(args, limit+1)
	query += fmt.Sprintf(" ORDER BY txn_date DESC, created_at DESC LIMIT $%d;", len(args))

	rows, err := r.Pool.Query(ctx, query, args...)
	if err != nil {
		return nil, nil, apperrors.NewAppError(500, "failed to list transactions", err)
	}
	defer rows.Close()

	var txns []domain.CashTransaction
	for rows.Next() {
		m, err := scanTransaction(rows)
		if err != nil {
			return nil, nil, apperrors.NewAppError(500, "failed to scan transaction row", err)
		}
		txns = append(txns, mapping.ToDomainCashTransaction(m))
	}
	if err := rows.Err(); err != nil {
		return nil, nil, apperrors.NewAppError(500, "failed reading transaction rows", err)
	}

	var token *string
	if len(txns) > limit {
		txns = txns[:limit]
		last := txns[len(txns)-1]
		t := pagination.EncodeToken(last.Date, last.CreatedAt)
		token = &t
	}
	return txns, token, nil
}

// SumAmountByType totals entries of one type in a date window.
func (r *PgxLedgerRepository) SumAmountByType(ctx context.Context, tenantID, collectorID string, txnType domain.CashTransactionType, from, to time.Time) (decimal.Decimal, int, error) {
	var total decimal.Decimal
	var count int
	err := r.Pool.QueryRow(ctx, `
		SELECT COALESCE(SUM(amount), 0), COUNT(*)
		FROM cash_transactions
		WHERE tenant_id = $1 AND collector_id = $2 AND txn_type = $3
		  AND txn_date >= $4 AND txn_date <= $5;
	`, tenantID, collectorID, string(txnType), from, to).Scan(&total, &count)
	if err != nil {
		return decimal.Zero, 0, apperrors.NewAppError(500, "failed to sum transactions", err)
	}
	return total, count, nil
}
