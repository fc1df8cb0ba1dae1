package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// CashFloat is the storage shape of a float issuance or handover row.
// Handover-only and issuance-only columns are nullable.
type CashFloat struct {
	FloatID     string          `db:"float_id"`
	TenantID    string          `db:"tenant_id"`
	CollectorID string          `db:"collector_id"`
	CashierID   string          `db:"cashier_id"`
	Amount      decimal.Decimal `db:"amount"`
	Kind        string          `db:"kind"`
	Status      string          `db:"status"`
	FloatDate   time.Time       `db:"float_date"`

	DailyCap *decimal.Decimal `db:"daily_cap"`

	OpeningFloat   *decimal.Decimal `db:"opening_float"`
	Collections    *decimal.Decimal `db:"collections"`
	Disbursements  *decimal.Decimal `db:"disbursements"`
	ExpectedAmount *decimal.Decimal `db:"expected_amount"`
	ActualAmount   *decimal.Decimal `db:"actual_amount"`
	Variance       *decimal.Decimal `db:"variance"`

	IssuanceLatitude  *float64 `db:"issuance_latitude"`
	IssuanceLongitude *float64 `db:"issuance_longitude"`
	HandoverLatitude  *float64 `db:"handover_latitude"`
	HandoverLongitude *float64 `db:"handover_longitude"`

	CollectorConfirmedAt *time.Time `db:"collector_confirmed_at"`
	CashierConfirmedAt   *time.Time `db:"cashier_confirmed_at"`
	RejectionReason      *string    `db:"rejection_reason"`
	Notes                *string    `db:"notes"`

	AuditFields
}
