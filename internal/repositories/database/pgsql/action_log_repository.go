package pgsql

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/pesoflow/lending_backend/internal/apperrors"
	"github.com/pesoflow/lending_backend/internal/core/domain"
	portsrepo "github.com/pesoflow/lending_backend/internal/core/ports"
	"github.com/pesoflow/lending_backend/internal/models"
	"github.com/pesoflow/lending_backend/internal/utils/mapping"
	"github.com/shopspring/decimal"
)

const actionLogColumns = `
	log_id, tenant_id, collector_id, action_type, loan_id, payment_id,
	amount, previous_value, new_value, status, flagged_for_review,
	rejection_reason, approved_by, approved_at, resolves_log_id,
	notes, latitude, longitude, device_info, created_at, created_by`

type PgxActionLogRepository struct {
	BaseRepository
}

// newPgxActionLogRepository creates a new repository for the guarded-action
// audit log.
func newPgxActionLogRepository(pool *pgxpool.Pool) portsrepo.ActionLogRepositoryFacade {
	return &PgxActionLogRepository{BaseRepository: BaseRepository{Pool: pool}}
}

var _ portsrepo.ActionLogRepositoryFacade = (*PgxActionLogRepository)(nil)

func scanActionLog(row rowScanner) (models.CollectorActionLog, error) {
	var m models.CollectorActionLog
	err := row.Scan(
		&m.LogID, &m.TenantID, &m.CollectorID, &m.ActionType, &m.LoanID, &m.PaymentID,
		&m.Amount, &m.PreviousValue, &m.NewValue, &m.Status, &m.FlaggedForReview,
		&m.RejectionReason, &m.ApprovedBy, &m.ApprovedAt, &m.ResolvesLogID,
		&m.Notes, &m.Latitude, &m.Longitude, &m.DeviceInfo, &m.CreatedAt, &m.CreatedBy,
	)
	return m, err
}

func (r *PgxActionLogRepository) SaveLog(ctx context.Context, log domain.CollectorActionLog) error {
	return insertActionLogTx(ctx, r.Pool, mapping.ToModelActionLog(log))
}

func (r *PgxActionLogRepository) FindLogByID(ctx context.Context, tenantID, logID string) (*domain.CollectorActionLog, error) {
	m, err := scanActionLog(r.Pool.QueryRow(ctx, `
		SELECT `+actionLogColumns+` FROM collector_action_logs WHERE tenant_id = $1 AND log_id = $2;
	`, tenantID, logID))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.ErrNotFound
		}
		return nil, apperrors.NewAppError(500, "failed to find action log "+logID, err)
	}
	d := mapping.ToDomainActionLog(m)
	return &d, nil
}

// FindResolutionFor returns the resolution row referencing logID.
func (r *PgxActionLogRepository) FindResolutionFor(ctx context.Context, tenantID, logID string) (*domain.CollectorActionLog, error) {
	m, err := scanActionLog(r.Pool.QueryRow(ctx, `
		SELECT `+actionLogColumns+` FROM collector_action_logs WHERE tenant_id = $1 AND resolves_log_id = $2;
	`, tenantID, logID))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.ErrNotFound
		}
		return nil, apperrors.NewAppError(500, "failed to find resolution for action log "+logID, err)
	}
	d := mapping.ToDomainActionLog(m)
	return &d, nil
}

func (r *PgxActionLogRepository) ListLogs(ctx context.Context, tenantID, collectorID string, actionType domain.ActionType, status domain.ActionStatus, from, to time.Time, limit int) ([]domain.CollectorActionLog, error) {
	args := []any{tenantID}
	query := `SELECT ` + actionLogColumns + ` FROM collector_action_logs WHERE tenant_id = $1`

	if collectorID != "" {
		args = append(args, collectorID)
		query += fmt.Sprintf(" AND collector_id = $%d", len(args))
	}
	if actionType != "" {
		args = append(args, string(actionType))
		query += fmt.Sprintf(" AND action_type = $%d", len(args))
	}
	if status != "" {
		args = append(args, string(status))
		query += fmt.Sprintf(" AND status = $%d", len(args))
	}
	if !from.IsZero() {
		args = append(args, from)
		query += fmt.Sprintf(" AND created_at >= $%d", len(args))
	}
	if !to.IsZero() {
		args = append(args, to)
		query += fmt.Sprintf(" AND created_at <= $%d", len(args))
	}
	args = append(args, limit)
	query += fmt.Sprintf(" ORDER BY created_at DESC LIMIT $%d;", len(args))

	rows, err := r.Pool.Query(ctx, query, args...)
	if err != nil {
		return nil, apperrors.NewAppError(500, "failed to list action logs", err)
	}
	defer rows.Close()

	var logs []domain.CollectorActionLog
	for rows.Next() {
		m, err := scanActionLog(rows)
		if err != nil {
			return nil, apperrors.NewAppError(500, "failed to scan action log row", err)
		}
		logs = append(logs, mapping.ToDomainActionLog(m))
	}
	return logs, rows.Err()
}

// ListPendingUnresolved returns the approval queue: PENDING_APPROVAL rows
// with no resolution row referencing them, oldest first.
func (r *PgxActionLogRepository) ListPendingUnresolved(ctx context.Context, tenantID string, limit int) ([]domain.CollectorActionLog, error) {
	rows, err := r.Pool.Query(ctx, `
		SELECT `+actionLogColumns+`
		FROM collector_action_logs l
		WHERE l.tenant_id = $1 AND l.status = $2
		  AND NOT EXISTS (
			SELECT 1 FROM collector_action_logs res
			WHERE res.tenant_id = l.tenant_id AND res.resolves_log_id = l.log_id
		  )
		ORDER BY l.created_at ASC
		LIMIT $3;
	`, tenantID, string(domain.ActionPendingApproval), limit)
	if err != nil {
		return nil, apperrors.NewAppError(500, "failed to list pending approvals", err)
	}
	defer rows.Close()

	var logs []domain.CollectorActionLog
	for rows.Next() {
		m, err := scanActionLog(rows)
		if err != nil {
			return nil, apperrors.NewAppError(500, "failed to scan action log row", err)
		}
		logs = append(logs, mapping.ToDomainActionLog(m))
	}
	return logs, rows.Err()
}

// CountActionsForDay counts successful same-category actions on a date.
func (r *PgxActionLogRepository) CountActionsForDay(ctx context.Context, tenantID, collectorID string, actionType domain.ActionType, date time.Time) (int, error) {
	var count int
	err := r.Pool.QueryRow(ctx, `
		SELECT COUNT(*)
		FROM collector_action_logs
		WHERE tenant_id = $1 AND collector_id = $2 AND action_type = $3
		  AND status = $4 AND created_at >= $5 AND created_at < $6;
	`, tenantID, collectorID, string(actionType), string(domain.ActionSuccess),
		date, date.AddDate(0, 0, 1)).Scan(&count)
	if err != nil {
		return 0, apperrors.NewAppError(500, "failed to count day actions", err)
	}
	return count, nil
}

// SumActionAmounts totals successful same-category actions in a window, for
// the rolling daily and monthly authority checks.
func (r *PgxActionLogRepository) SumActionAmounts(ctx context.Context, tenantID, collectorID string, actionType domain.ActionType, from, to time.Time) (decimal.Decimal, int, error) {
	var total decimal.Decimal
	var count int
	err := r.Pool.QueryRow(ctx, `
		SELECT COALESCE(SUM(amount), 0), COUNT(*)
		FROM collector_action_logs
		WHERE tenant_id = $1 AND collector_id = $2 AND action_type = $3
		  AND status = $4 AND created_at >= $5 AND created_at < $6;
	`, tenantID, collectorID, string(actionType), string(domain.ActionSuccess),
		from, to).Scan(&total, &count)
	if err != nil {
		return decimal.Zero, 0, apperrors.NewAppError(500, "failed to sum action amounts", err)
	}
	return total, count, nil
}
