package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// CollectorLimits is the storage shape of one limits version.
type CollectorLimits struct {
	LimitsID    string `db:"limits_id"`
	TenantID    string `db:"tenant_id"`
	CollectorID string `db:"collector_id"`

	MaxApprovalAmount decimal.Decimal `db:"max_approval_amount"`
	MaxApprovalPerDay int             `db:"max_approval_per_day"`

	MaxDisbursementAmount    decimal.Decimal `db:"max_disbursement_amount"`
	DailyDisbursementLimit   decimal.Decimal `db:"daily_disbursement_limit"`
	MonthlyDisbursementLimit decimal.Decimal `db:"monthly_disbursement_limit"`

	MaxPenaltyWaiverAmount decimal.Decimal `db:"max_penalty_waiver_amount"`
	MaxPenaltyWaiverPct    decimal.Decimal `db:"max_penalty_waiver_percent"`

	RequiresManagerApprovalAbove decimal.Decimal `db:"requires_manager_approval_above"`

	MaxCashCollectionPerTxn decimal.Decimal `db:"max_cash_collection_per_transaction"`

	IsActive      bool       `db:"is_active"`
	EffectiveFrom time.Time  `db:"effective_from"`
	EffectiveTo   *time.Time `db:"effective_to"`

	AuditFields
}
