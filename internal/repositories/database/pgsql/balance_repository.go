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
	"github.com/pesoflow/lending_backend/internal/utils/mapping"
)

type PgxBalanceRepository struct {
	BaseRepository
}

// newPgxBalanceRepository creates a new read-side repository for daily
// balance snapshots.
func newPgxBalanceRepository(pool *pgxpool.Pool) portsrepo.BalanceRepositoryFacade {
	return &PgxBalanceRepository{BaseRepository: BaseRepository{Pool: pool}}
}

var _ portsrepo.BalanceRepositoryFacade = (*PgxBalanceRepository)(nil)

func (r *PgxBalanceRepository) GetBalance(ctx context.Context, tenantID, collectorID string, date time.Time) (*domain.CollectorDailyBalance, error) {
	m, err := scanBalance(r.Pool.QueryRow(ctx, `
		SELECT `+balanceColumns+`
		FROM collector_daily_balances
		WHERE tenant_id = $1 AND collector_id = $2 AND balance_date = $3;
	`, tenantID, collectorID, date))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.ErrNotFound
		}
		return nil, apperrors.NewAppError(500, "failed to get balance snapshot", err)
	}
	d := mapping.ToDomainDailyBalance(m)
	return &d, nil
}

// ListBalancesForDate returns every collector's snapshot for the date, for
// the back-office monitoring view.
func (r *PgxBalanceRepository) ListBalancesForDate(ctx context.Context, tenantID string, date time.Time) ([]domain.CollectorDailyBalance, error) {
	rows, err := r.Pool.Query(ctx, `
		SELECT `+balanceColumns+`
		FROM collector_daily_balances
		WHERE tenant_id = $1 AND balance_date = $2
		ORDER BY collector_id ASC;
	`, tenantID, date)
	if err != nil {
		return nil, apperrors.NewAppError(500, "failed to list balance snapshots", err)
	}
	defer rows.Close()

	var balances []domain.CollectorDailyBalance
	for rows.Next() {
		m, err := scanBalance(rows)
		if err != nil {
			return nil, apperrors.NewAppError(500, "failed to scan balance row", err)
		}
		balances = append(balances, mapping.ToDomainDailyBalance(m))
	}
	return balances, rows.Err()
}
