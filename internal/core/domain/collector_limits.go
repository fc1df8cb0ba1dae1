package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

// CollectorLimits is the authority ceiling configuration for one collector.
// Rows are versioned by effective date range rather than overwritten, so a
// historical action can be re-evaluated against the limits in force at the
// time it happened.
type CollectorLimits struct {
	LimitsID    string `json:"limitsID"`
	TenantID    string `json:"tenantID"`
	CollectorID string `json:"collectorID"`

	MaxApprovalAmount decimal.Decimal `json:"maxApprovalAmount"`
	MaxApprovalPerDay int             `json:"maxApprovalPerDay"`

	MaxDisbursementAmount    decimal.Decimal `json:"maxDisbursementAmount"`
	DailyDisbursementLimit   decimal.Decimal `json:"dailyDisbursementLimit"`
	MonthlyDisbursementLimit decimal.Decimal `json:"monthlyDisbursementLimit"`

	MaxPenaltyWaiverAmount decimal.Decimal `json:"maxPenaltyWaiverAmount"`
	MaxPenaltyWaiverPct    decimal.Decimal `json:"maxPenaltyWaiverPercent"`

	// Amounts above this are auto-approved but flagged for review; amounts
	// above the per-category ceiling escalate to a manager instead.
	RequiresManagerApprovalAbove decimal.Decimal `json:"requiresManagerApprovalAbove"`

	MaxCashCollectionPerTxn decimal.Decimal `json:"maxCashCollectionPerTransaction"`

	IsActive      bool       `json:"isActive"`
	EffectiveFrom time.Time  `json:"effectiveFrom"`
	EffectiveTo   *time.Time `json:"effectiveTo,omitempty"`

	AuditFields
}

// DefaultLimits is the authority configuration a collector operates under
// until a tenant admin sets an explicit version.
func DefaultLimits(tenantID, collectorID string) CollectorLimits {
	return CollectorLimits{
		TenantID:                     tenantID,
		CollectorID:                  collectorID,
		MaxApprovalAmount:            decimal.NewFromInt(50000),
		MaxApprovalPerDay:            10,
		MaxDisbursementAmount:        decimal.NewFromInt(100000),
		DailyDisbursementLimit:       decimal.NewFromInt(500000),
		MonthlyDisbursementLimit:     decimal.NewFromInt(5000000),
		MaxPenaltyWaiverAmount:       decimal.NewFromInt(5000),
		MaxPenaltyWaiverPct:          decimal.NewFromInt(50),
		RequiresManagerApprovalAbove: decimal.NewFromInt(2000),
		MaxCashCollectionPerTxn:      decimal.NewFromInt(50000),
		IsActive:                     true,
	}
}

// CeilingFor returns the hard per-transaction ceiling for an action type.
func (l *CollectorLimits) CeilingFor(action ActionType) decimal.Decimal {
	switch action {
	case ActionApproveApplication:
		return l.MaxApprovalAmount
	case ActionDisburseLoan:
		return l.MaxDisbursementAmount
	case ActionCollectPayment:
		return l.MaxCashCollectionPerTxn
	case ActionWaivePenalty:
		return l.MaxPenaltyWaiverAmount
	default:
		return decimal.Zero
	}
}

// InEffectOn reports whether this limits version applies on the given date.
func (l *CollectorLimits) InEffectOn(date time.Time) bool {
	if !l.IsActive {
		return false
	}
	if date.Before(l.EffectiveFrom) {
		return false
	}
	if l.EffectiveTo != nil && date.After(*l.EffectiveTo) {
		return false
	}
	return true
}
