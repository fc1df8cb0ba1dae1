package mapping

import (
	"github.com/pesoflow/lending_backend/internal/core/domain"
	"github.com/pesoflow/lending_backend/internal/models"
)

// ToModelCollectorLimits converts a domain limits version to its storage shape.
func ToModelCollectorLimits(d domain.CollectorLimits) models.CollectorLimits {
	return models.CollectorLimits{
		LimitsID:                     d.LimitsID,
		TenantID:                     d.TenantID,
		CollectorID:                  d.CollectorID,
		MaxApprovalAmount:            d.MaxApprovalAmount,
		MaxApprovalPerDay:            d.MaxApprovalPerDay,
		MaxDisbursementAmount:        d.MaxDisbursementAmount,
		DailyDisbursementLimit:       d.DailyDisbursementLimit,
		MonthlyDisbursementLimit:     d.MonthlyDisbursementLimit,
		MaxPenaltyWaiverAmount:       d.MaxPenaltyWaiverAmount,
		MaxPenaltyWaiverPct:          d.MaxPenaltyWaiverPct,
		RequiresManagerApprovalAbove: d.RequiresManagerApprovalAbove,
		MaxCashCollectionPerTxn:      d.MaxCashCollectionPerTxn,
		IsActive:                     d.IsActive,
		EffectiveFrom:                d.EffectiveFrom,
		EffectiveTo:                  d.EffectiveTo,
		AuditFields:                  ToModelAuditFields(d.AuditFields),
	}
}

// ToDomainCollectorLimits converts a storage limits row to the domain shape.
func ToDomainCollectorLimits(m models.CollectorLimits) domain.CollectorLimits {
	return domain.CollectorLimits{
		LimitsID:                     m.LimitsID,
		TenantID:                     m.TenantID,
		CollectorID:                  m.CollectorID,
		MaxApprovalAmount:            m.MaxApprovalAmount,
		MaxApprovalPerDay:            m.MaxApprovalPerDay,
		MaxDisbursementAmount:        m.MaxDisbursementAmount,
		DailyDisbursementLimit:       m.DailyDisbursementLimit,
		MonthlyDisbursementLimit:     m.MonthlyDisbursementLimit,
		MaxPenaltyWaiverAmount:       m.MaxPenaltyWaiverAmount,
		MaxPenaltyWaiverPct:          m.MaxPenaltyWaiverPct,
		RequiresManagerApprovalAbove: m.RequiresManagerApprovalAbove,
		MaxCashCollectionPerTxn:      m.MaxCashCollectionPerTxn,
		IsActive:                     m.IsActive,
		EffectiveFrom:                m.EffectiveFrom,
		EffectiveTo:                  m.EffectiveTo,
		AuditFields:                  ToDomainAuditFields(m.AuditFields),
	}
}
