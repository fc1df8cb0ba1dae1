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
)

const floatColumns = `
	float_id, tenant_id, collector_id, cashier_id, amount, kind, status, float_date,
	daily_cap, opening_float, collections, disbursements, expected_amount, actual_amount, variance,
	issuance_latitude, issuance_longitude, handover_latitude, handover_longitude,
	collector_confirmed_at, cashier_confirmed_at, rejection_reason, notes,
	created_at, created_by, last_updated_at, last_updated_by`

type PgxFloatRepository struct {
	BaseRepository
}

// newPgxFloatRepository creates a new repository for cash float data.
func newPgxFloatRepository(pool *pgxpool.Pool) portsrepo.FloatRepositoryFacade {
	return &PgxFloatRepository{BaseRepository: BaseRepository{Pool: pool}}
}

var _ portsrepo.FloatRepositoryFacade = (*PgxFloatRepository)(nil)

type rowScanner interface {
	Scan(dest ...any) error
}

func scanFloat(row rowScanner) (models.CashFloat, error) {
	var m models.CashFloat
	err := row.Scan(
		&m.FloatID, &m.TenantID, &m.CollectorID, &m.CashierID, &m.Amount, &m.Kind, &m.Status, &m.FloatDate,
		&m.DailyCap, &m.OpeningFloat, &m.Collections, &m.Disbursements, &m.ExpectedAmount, &m.ActualAmount, &m.Variance,
		&m.IssuanceLatitude, &m.IssuanceLongitude, &m.HandoverLatitude, &m.HandoverLongitude,
		&m.CollectorConfirmedAt, &m.CashierConfirmedAt, &m.RejectionReason, &m.Notes,
		&m.CreatedAt, &m.CreatedBy, &m.LastUpdatedAt, &m.LastUpdatedBy,
	)
	return m, err
}

// SaveFloat inserts a new pending float row. The partial unique index on
// non-rejected issuances makes concurrent duplicate issuance a database
// error which is mapped to ErrDuplicateFloat.
func (r *PgxFloatRepository) SaveFloat(ctx context.Context, float domain.CashFloat) error {
	m := mapping.ToModelCashFloat(float)
	query := `
		INSERT INTO cash_floats (` + floatColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8,
		        $9, $10, $11, $12, $13, $14, $15,
		        $16, $17, $18, $19,
		        $20, $21, $22, $23,
		        $24, $25, $26, $27);
	`
	_, err := r.Pool.Exec(ctx, query,
		m.FloatID, m.TenantID, m.CollectorID, m.CashierID, m.Amount, m.Kind, m.Status, m.FloatDate,
		m.DailyCap, m.OpeningFloat, m.Collections, m.Disbursements, m.ExpectedAmount, m.ActualAmount, m.Variance,
		m.IssuanceLatitude, m.IssuanceLongitude, m.HandoverLatitude, m.HandoverLongitude,
		m.CollectorConfirmedAt, m.CashierConfirmedAt, m.RejectionReason, m.Notes,
		m.CreatedAt, m.CreatedBy, m.LastUpdatedAt, m.LastUpdatedBy,
	)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == "23505" { // unique_violation
			return apperrors.ErrDuplicateFloat
		}
		return apperrors.NewAppError(500, "failed to insert cash float "+m.FloatID, err)
	}
	return nil
}

// FindFloatByID retrieves a float row by its ID within a tenant.
func (r *PgxFloatRepository) FindFloatByID(ctx context.Context, tenantID, floatID string) (*domain.CashFloat, error) {
	query := `SELECT ` + floatColumns + ` FROM cash_floats WHERE tenant_id = $1 AND float_id = $2;`
	m, err := scanFloat(r.Pool.QueryRow(ctx, query, tenantID, floatID))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.ErrNotFound
		}
		return nil, apperrors.NewAppError(500, "failed to find cash float "+floatID, err)
	}
	d := mapping.ToDomainCashFloat(m)
	return &d, nil
}

// FindActiveIssuance returns the pending or confirmed issuance for the date.
func (r *PgxFloatRepository) FindActiveIssuance(ctx context.Context, tenantID, collectorID string, date time.Time) (*domain.CashFloat, error) {
	query := `
		SELECT ` + floatColumns + `
		FROM cash_floats
		WHERE tenant_id = $1 AND collector_id = $2 AND float_date = $3
		  AND kind = $4 AND status IN ($5, $6)
		LIMIT 1;
	`
	m, err := scanFloat(r.Pool.QueryRow(ctx, query, tenantID, collectorID, date,
		string(domain.FloatIssuance), string(domain.FloatPending), string(domain.FloatConfirmed)))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.ErrNotFound
		}
		return nil, apperrors.NewAppError(500, "failed to find active issuance", err)
	}
	d := mapping.ToDomainCashFloat(m)
	return &d, nil
}

// FindPendingHandover returns the pending handover for the date.
func (r *PgxFloatRepository) FindPendingHandover(ctx context.Context, tenantID, collectorID string, date time.Time) (*domain.CashFloat, error) {
	query := `
		SELECT ` + floatColumns + `
		FROM cash_floats
		WHERE tenant_id = $1 AND collector_id = $2 AND float_date = $3
		  AND kind = $4 AND status = $5
		LIMIT 1;
	`
	m, err := scanFloat(r.Pool.QueryRow(ctx, query, tenantID, collectorID, date,
		string(domain.FloatHandover), string(domain.FloatPending)))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.ErrNotFound
		}
		return nil, apperrors.NewAppError(500, "failed to find pending handover", err)
	}
	d := mapping.ToDomainCashFloat(m)
	return &d, nil
}

// ConfirmIssuance marks the float confirmed, appends the FLOAT_RECEIVED
// ledger entry, and creates the day's balance snapshot in one transaction.
func (r *PgxFloatRepository) ConfirmIssuance(ctx context.Context, float domain.CashFloat, txn domain.CashTransaction, balance domain.CollectorDailyBalance) error {
	tx, err := r.Begin(ctx)
	if err != nil {
		return err
	}
	defer r.Rollback(ctx, tx)

	tag, err := tx.Exec(ctx, `
		UPDATE cash_floats
		SET status = $1, collector_confirmed_at = $2, last_updated_at = $3, last_updated_by = $4
		WHERE tenant_id = $5 AND float_id = $6 AND status = $7;
	`, string(domain.FloatConfirmed), float.CollectorConfirmedAt, float.LastUpdatedAt, float.LastUpdatedBy,
		float.TenantID, float.FloatID, string(domain.FloatPending))
	if err != nil {
		return apperrors.NewAppError(500, "failed to confirm float "+float.FloatID, err)
	}
	if tag.RowsAffected() == 0 {
		// Raced with another confirmation; the caller rechecks and treats
		// the confirmed row idempotently.
		return apperrors.ErrDuplicate
	}

	if err := insertTransactionTx(ctx, tx, mapping.ToModelCashTransaction(txn)); err != nil {
		return err
	}

	mb := mapping.ToModelDailyBalance(balance)
	_, err = tx.Exec(ctx, `
		INSERT INTO collector_daily_balances (
			balance_id, tenant_id, collector_id, balance_date,
			opening_float, total_collections, total_disbursements, current_balance,
			daily_cap, available_for_disbursement, is_float_confirmed, is_day_closed,
			day_closed_at, float_issuance_id, handover_id,
			created_at, created_by, last_updated_at, last_updated_by
		)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16, $17, $18, $19);
	`,
		mb.BalanceID, mb.TenantID, mb.CollectorID, mb.BalanceDate,
		mb.OpeningFloat, mb.TotalCollections, mb.TotalDisbursements, mb.CurrentBalance,
		mb.DailyCap, mb.AvailableForDisbursement, mb.IsFloatConfirmed, mb.IsDayClosed,
		mb.DayClosedAt, mb.FloatIssuanceID, mb.HandoverID,
		mb.CreatedAt, mb.CreatedBy, mb.LastUpdatedAt, mb.LastUpdatedBy,
	)
	if err != nil {
		return apperrors.NewAppError(500, "failed to create balance snapshot for collector "+mb.CollectorID, err)
	}

	return r.Commit(ctx, tx)
}

// ResolveHandover applies the cashier's decision in one transaction. On
// accept txn is the HANDOVER ledger entry and the day is closed; on reject
// only the float row changes.
func (r *PgxFloatRepository) ResolveHandover(ctx context.Context, handover domain.CashFloat, txn *domain.CashTransaction) error {
	tx, err := r.Begin(ctx)
	if err != nil {
		return err
	}
	defer r.Rollback(ctx, tx)

	m := mapping.ToModelCashFloat(handover)
	tag, err := tx.Exec(ctx, `
		UPDATE cash_floats
		SET status = $1, actual_amount = $2, variance = $3, cashier_confirmed_at = $4,
		    handover_latitude = $5, handover_longitude = $6, rejection_reason = $7, notes = $8,
		    last_updated_at = $9, last_updated_by = $10
		WHERE tenant_id = $11 AND float_id = $12 AND status = $13;
	`, m.Status, m.ActualAmount, m.Variance, m.CashierConfirmedAt,
		m.HandoverLatitude, m.HandoverLongitude, m.RejectionReason, m.Notes,
		m.LastUpdatedAt, m.LastUpdatedBy,
		m.TenantID, m.FloatID, string(domain.FloatPending))
	if err != nil {
		return apperrors.NewAppError(500, "failed to resolve handover "+m.FloatID, err)
	}
	if tag.RowsAffected() == 0 {
		return apperrors.ErrNotFound
	}

	if txn != nil {
		if err := insertTransactionTx(ctx, tx, mapping.ToModelCashTransaction(*txn)); err != nil {
			return err
		}

		_, err = tx.Exec(ctx, `
			UPDATE collector_daily_balances
			SET current_balance = 0, available_for_disbursement = 0,
			    is_day_closed = TRUE, day_closed_at = $1, handover_id = $2,
			    last_updated_at = $3, last_updated_by = $4
			WHERE tenant_id = $5 AND collector_id = $6 AND balance_date = $7;
		`, handover.CashierConfirmedAt, handover.FloatID,
			handover.LastUpdatedAt, handover.LastUpdatedBy,
			handover.TenantID, handover.CollectorID, handover.FloatDate)
		if err != nil {
			return apperrors.NewAppError(500, "failed to close day for collector "+handover.CollectorID, err)
		}
	}

	return r.Commit(ctx, tx)
}

// ListFloats returns float history ordered newest first with token
// pagination keyed on (float_date, created_at).
func (r *PgxFloatRepository) ListFloats(ctx context.Context, tenantID, collectorID string, kind domain.FloatKind, from, to time.Time, limit int, nextToken *string) ([]domain.CashFloat, *string, error) {
	args := []any{tenantID}
	query := `SELECT ` + floatColumns + ` FROM cash_floats WHERE tenant_id = $1`

	if collectorID != "" {
		args = append(args, collectorID)
		query += fmt.Sprintf(" AND collector_id = $%d", len(args))
	}
	if kind != "" {
		args = append(args, string(kind))
		query += fmt.Sprintf(" AND kind = $%d", len(args))
	}
	if !from.IsZero() {
		args = append(args, from)
		query += fmt.Sprintf(" AND float_date >= $%d", len(args))
	}
	if !to.IsZero() {
		args = append(args, to)
		query += fmt.Sprintf(" AND float_date <= $%d", len(args))
	}
	if nextToken != nil {
		tokenDate, tokenCreated, err := pagination.DecodeToken(*nextToken)
		if err != nil {
			return nil, nil, fmt.Errorf("%w: %s", apperrors.ErrValidation, err.Error())
		}
		args = append(args, tokenDate, tokenCreated)
		query += fmt.Sprintf(" AND (float_date, created_at) < ($%d, $%d)", len(args)-1, len(args))
	}

	args = append(args, limit+1)
	query += fmt.Sprintf(" ORDER BY float_date DESC, created_at DESC LIMIT $%d;", len(args))

	rows, err := r.Pool.Query(ctx, query, args...)
	if err != nil {
		return nil, nil, apperrors.NewAppError(500, "failed to list cash floats", err)
	}
	defer rows.Close()

	var floats []domain.CashFloat
	for rows.Next() {
		m, err := scanFloat(rows)
		if err != nil {
			return nil, nil, apperrors.NewAppError(500, "failed to scan cash float row", err)
		}
		floats = append(floats, mapping.ToDomainCashFloat(m))
	}
	if err := rows.Err(); err != nil {
		return nil, nil, apperrors.NewAppError(500, "failed reading cash float rows", err)
	}

	var token *string
	if len(floats) > limit {
		floats = floats[:limit]
		last := floats[len(floats)-1]
		t := pagination.EncodeToken(last.FloatDate, last.CreatedAt)
		token = &t
	}
	return floats, token, nil
}

// ListPendingFloats lists unresolved rows of one kind, oldest first so the
// cashier works the queue in order.
func (r *PgxFloatRepository) ListPendingFloats(ctx context.Context, tenantID string, kind domain.FloatKind, collectorID string) ([]domain.CashFloat, error) {
	args := []any{tenantID, string(kind), string(domain.FloatPending)}
	query := `SELECT ` + floatColumns + ` FROM cash_floats WHERE tenant_id = $1 AND kind = $2 AND status = $3`
	if collectorID != "" {
		args = append(args, collectorID)
		query += fmt.Sprintf(" AND collector_id = $%d", len(args))
	}
	query += " ORDER BY created_at ASC;"

	rows, err := r.Pool.Query(ctx, query, args...)
	if err != nil {
		return nil, apperrors.NewAppError(500, "failed to list pending floats", err)
	}
	defer rows.Close()

	var floats []domain.CashFloat
	for rows.Next() {
		m, err := scanFloat(rows)
		if err != nil {
			return nil, apperrors.NewAppError(500, "failed to scan pending float row", err)
		}
		floats = append(floats, mapping.ToDomainCashFloat(m))
	}
	return floats, rows.Err()
}
