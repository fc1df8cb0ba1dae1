package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// CollectorDailyBalance is the storage shape of the per-day snapshot row.
type CollectorDailyBalance struct {
	BalanceID   string    `db:"balance_id"`
	TenantID    string    `db:"tenant_id"`
	CollectorID string    `db:"collector_id"`
	BalanceDate time.Time `db:"balance_date"`

	OpeningFloat             decimal.Decimal `db:"opening_float"`
	TotalCollections         decimal.Decimal `db:"total_collections"`
	TotalDisbursements       decimal.Decimal `db:"total_disbursements"`
	CurrentBalance           decimal.Decimal `db:"current_balance"`
	DailyCap                 decimal.Decimal `db:"daily_cap"`
	AvailableForDisbursement decimal.Decimal `db:"available_for_disbursement"`

	IsFloatConfirmed bool       `db:"is_float_confirmed"`
	IsDayClosed      bool       `db:"is_day_closed"`
	DayClosedAt      *time.Time `db:"day_closed_at"`

	FloatIssuanceID *string `db:"float_issuance_id"`
	HandoverID      *string `db:"handover_id"`

	AuditFields
}
