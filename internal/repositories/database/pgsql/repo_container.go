package pgsql

import (
	"github.com/jackc/pgx/v5/pgxpool"
	portsrepo "github.com/pesoflow/lending_backend/internal/core/ports"
)

func NewRepositoryContainer(dbPool *pgxpool.Pool) portsrepo.RepositoryContainer {
	return portsrepo.RepositoryContainer{
		Float:     newPgxFloatRepository(dbPool),
		Ledger:    newPgxLedgerRepository(dbPool),
		Balance:   newPgxBalanceRepository(dbPool),
		Limits:    newPgxLimitsRepository(dbPool),
		ActionLog: newPgxActionLogRepository(dbPool),
	}
}
