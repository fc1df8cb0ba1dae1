package dto

import (
	"time"

	"github.com/pesoflow/lending_backend/internal/core/domain"
	"github.com/shopspring/decimal"
)

// UpdateLimitsRequest creates a new limits version for a collector. The
// previous version is end-dated, never overwritten, so historical actions
// can be re-evaluated against the limits in force at the time.
type UpdateLimitsRequest struct {
	MaxApprovalAmount decimal.Decimal `json:"maxApprovalAmount" binding:"required"`
	MaxApprovalPerDay int             `json:"maxApprovalPerDay" binding:"required,min=1"`

	MaxDisbursementAmount    decimal.Decimal `json:"maxDisbursementAmount" binding:"required"`
	DailyDisbursementLimit   decimal.Decimal `json:"dailyDisbursementLimit" binding:"required"`
	MonthlyDisbursementLimit decimal.Decimal `json:"monthlyDisbursementLimit" binding:"required"`

	MaxPenaltyWaiverAmount decimal.Decimal `json:"maxPenaltyWaiverAmount" binding:"required"`
	MaxPenaltyWaiverPct    decimal.Decimal `json:"maxPenaltyWaiverPercent" binding:"required"`

	RequiresManagerApprovalAbove decimal.Decimal `json:"requiresManagerApprovalAbove" binding:"required"`

	MaxCashCollectionPerTxn decimal.Decimal `json:"maxCashCollectionPerTransaction" binding:"required"`

	EffectiveFrom string `json:"effectiveFrom" binding:"omitempty,datetime=2006-01-02"`
}

// LimitsResponse is the API shape of a limits version.
type LimitsResponse struct {
	LimitsID    string `json:"limitsID"`
	CollectorID string `json:"collectorID"`

	MaxApprovalAmount decimal.Decimal `json:"maxApprovalAmount"`
	MaxApprovalPerDay int             `json:"maxApprovalPerDay"`

	MaxDisbursementAmount    decimal.Decimal `json:"maxDisbursementAmount"`
	DailyDisbursementLimit   decimal.Decimal `json:"dailyDisbursementLimit"`
	MonthlyDisbursementLimit decimal.Decimal `json:"monthlyDisbursementLimit"`

	MaxPenaltyWaiverAmount decimal.Decimal `json:"maxPenaltyWaiverAmount"`
	MaxPenaltyWaiverPct    decimal.Decimal `json:"maxPenaltyWaiverPercent"`

	RequiresManagerApprovalAbove decimal.Decimal `json:"requiresManagerApprovalAbove"`

	MaxCashCollectionPerTxn decimal.Decimal `json:"maxCashCollectionPerTransaction"`

	IsActive      bool       `json:"isActive"`
	EffectiveFrom time.Time  `json:"effectiveFrom"`
	EffectiveTo   *time.Time `json:"effectiveTo,omitempty"`
}

// UsageResponse is today's rolling usage against the collector's limits.
type UsageResponse struct {
	Approvals     UsageBucket `json:"approvals"`
	Disbursements UsageBucket `json:"disbursements"`
	Collections   UsageBucket `json:"collections"`
}

// UsageBucket is a count and running total for one action category.
type UsageBucket struct {
	Count int             `json:"count"`
	Total decimal.Decimal `json:"total"`
}

// ToLimitsResponse converts a domain limits version to its API shape.
func ToLimitsResponse(l *domain.CollectorLimits) LimitsResponse {
	return LimitsResponse{
		LimitsID:                     l.LimitsID,
		CollectorID:                  l.CollectorID,
		MaxApprovalAmount:            l.MaxApprovalAmount,
		MaxApprovalPerDay:            l.MaxApprovalPerDay,
		MaxDisbursementAmount:        l.MaxDisbursementAmount,
		DailyDisbursementLimit:       l.DailyDisbursementLimit,
		MonthlyDisbursementLimit:     l.MonthlyDisbursementLimit,
		MaxPenaltyWaiverAmount:       l.MaxPenaltyWaiverAmount,
		MaxPenaltyWaiverPct:          l.MaxPenaltyWaiverPct,
		RequiresManagerApprovalAbove: l.RequiresManagerApprovalAbove,
		MaxCashCollectionPerTxn:      l.MaxCashCollectionPerTxn,
		IsActive:                     l.IsActive,
		EffectiveFrom:                l.EffectiveFrom,
		EffectiveTo:                  l.EffectiveTo,
	}
}
