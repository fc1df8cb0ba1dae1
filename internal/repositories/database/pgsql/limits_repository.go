package pgsql

import (
	"context"
	"errors"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/pesoflow/lending_backend/internal/apperrors"
	"github.com/pesoflow/lending_backend/internal/core/domain"
	portsrepo "github.com/pesoflow/lending_backend/internal/core/ports"
	"github.com/pesoflow/lending_backend/internal/models"
	"github.com/pesoflow/lending_backend/internal/utils/mapping"
)

const limitsColumns = `
	limits_id, tenant_id, collector_id,
	max_approval_amount, max_approval_per_day,
	max_disbursement_amount, daily_disbursement_limit, monthly_disbursement_limit,
	max_penalty_waiver_amount, max_penalty_waiver_percent,
	requires_manager_approval_above, max_cash_collection_per_transaction,
	is_active, effective_from, effective_to,
	created_at, created_by, last_updated_at, last_updated_by`

type PgxLimitsRepository struct {
	BaseRepository
}

// newPgxLimitsRepository creates a new repository for collector limits.
func newPgxLimitsRepository(pool *pgxpool.Pool) portsrepo.LimitsRepositoryFacade {
	return &PgxLimitsRepository{BaseRepository: BaseRepository{Pool: pool}}
}

var _ portsrepo.LimitsRepositoryFacade = (*PgxLimitsRepository)(nil)

func scanLimits(row rowScanner) (models.CollectorLimits, error) {
	var m models.CollectorLimits
	err := row.Scan(
		&m.LimitsID, &m.TenantID, &m.CollectorID,
		&m.MaxApprovalAmount, &m.MaxApprovalPerDay,
		&m.MaxDisbursementAmount, &m.DailyDisbursementLimit, &m.MonthlyDisbursementLimit,
		&m.MaxPenaltyWaiverAmount, &m.MaxPenaltyWaiverPct,
		&m.RequiresManagerApprovalAbove, &m.MaxCashCollectionPerTxn,
		&m.IsActive, &m.EffectiveFrom, &m.EffectiveTo,
		&m.CreatedAt, &m.CreatedBy, &m.LastUpdatedAt, &m.LastUpdatedBy,
	)
	return m, err
}

// FindActiveLimits returns the limits version in force for the collector on
// the given date.
func (r *PgxLimitsRepository) FindActiveLimits(ctx context.Context, tenantID, collectorID string, asOf time.Time) (*domain.CollectorLimits, error) {
	m, err := scanLimits(r.Pool.QueryRow(ctx, `
		SELECT `+limitsColumns+`
		FROM collector_limits
		WHERE tenant_id = $1 AND collector_id = $2 AND is_active = TRUE
		  AND effective_from <= $3
		  AND (effective_to IS NULL OR effective_to >= $3)
		ORDER BY effective_from DESC
		LIMIT 1;
	`, tenantID, collectorID, asOf))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.ErrNotFound
		}
		return nil, apperrors.NewAppError(500, "failed to find active limits for collector "+collectorID, err)
	}
	d := mapping.ToDomainCollectorLimits(m)
	return &d, nil
}

// SaveLimitsVersion end-dates the currently active version and inserts the
// new one in a single database transaction, so exactly one version is in
// force at any instant.
func (r *PgxLimitsRepository) SaveLimitsVersion(ctx context.Context, limits domain.CollectorLimits) error {
	tx, err := r.Begin(ctx)
	if err != nil {
		return err
	}
	defer r.Rollback(ctx, tx)

	_, err = tx.Exec(ctx, `
		UPDATE collector_limits
		SET is_active = FALSE, effective_to = $1, last_updated_at = $2, last_updated_by = $3
		WHERE tenant_id = $4 AND collector_id = $5 AND is_active = TRUE;
	`, limits.EffectiveFrom, limits.LastUpdatedAt, limits.LastUpdatedBy,
		limits.TenantID, limits.CollectorID)
	if err != nil {
		return apperrors.NewAppError(500, "failed to end-date active limits for collector "+limits.CollectorID, err)
	}

	m := mapping.ToModelCollectorLimits(limits)
	_, err = tx.Exec(ctx, `
		INSERT INTO collector_limits (`+limitsColumns+`)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16, $17, $18, $19);
	`,
		m.LimitsID, m.TenantID, m.CollectorID,
		m.MaxApprovalAmount, m.MaxApprovalPerDay,
		m.MaxDisbursementAmount, m.DailyDisbursementLimit, m.MonthlyDisbursementLimit,
		m.MaxPenaltyWaiverAmount, m.MaxPenaltyWaiverPct,
		m.RequiresManagerApprovalAbove, m.MaxCashCollectionPerTxn,
		m.IsActive, m.EffectiveFrom, m.EffectiveTo,
		m.CreatedAt, m.CreatedBy, m.LastUpdatedAt, m.LastUpdatedBy,
	)
	if err != nil {
		return apperrors.NewAppError(500, "failed to insert limits version "+m.LimitsID, err)
	}

	return r.Commit(ctx, tx)
}
