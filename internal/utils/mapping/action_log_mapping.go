package mapping

import (
	"github.com/pesoflow/lending_backend/internal/core/domain"
	"github.com/pesoflow/lending_backend/internal/models"
)

// ToModelActionLog converts a domain audit row to its storage shape.
func ToModelActionLog(d domain.CollectorActionLog) models.CollectorActionLog {
	m := models.CollectorActionLog{
		LogID:            d.LogID,
		TenantID:         d.TenantID,
		CollectorID:      d.CollectorID,
		ActionType:       string(d.ActionType),
		LoanID:           strPtr(d.LoanID),
		PaymentID:        strPtr(d.PaymentID),
		Amount:           d.Amount,
		PreviousValue:    strPtr(d.PreviousValue),
		NewValue:         strPtr(d.NewValue),
		Status:           string(d.Status),
		FlaggedForReview: d.FlaggedForReview,
		RejectionReason:  strPtr(d.RejectionReason),
		ApprovedBy:       strPtr(d.ApprovedBy),
		ApprovedAt:       d.ApprovedAt,
		ResolvesLogID:    strPtr(d.ResolvesLogID),
		Notes:            strPtr(d.Notes),
		DeviceInfo:       strPtr(d.DeviceInfo),
		CreatedAt:        d.CreatedAt,
		CreatedBy:        d.CreatedBy,
	}
	m.Latitude, m.Longitude = locPtrs(d.Location)
	return m
}

// ToDomainActionLog converts a storage audit row to the domain shape.
func ToDomainActionLog(m models.CollectorActionLog) domain.CollectorActionLog {
	return domain.CollectorActionLog{
		LogID:            m.LogID,
		TenantID:         m.TenantID,
		CollectorID:      m.CollectorID,
		ActionType:       domain.ActionType(m.ActionType),
		LoanID:           strVal(m.LoanID),
		PaymentID:        strVal(m.PaymentID),
		Amount:           m.Amount,
		PreviousValue:    strVal(m.PreviousValue),
		NewValue:         strVal(m.NewValue),
		Status:           domain.ActionStatus(m.Status),
		FlaggedForReview: m.FlaggedForReview,
		RejectionReason:  strVal(m.RejectionReason),
		ApprovedBy:       strVal(m.ApprovedBy),
		ApprovedAt:       m.ApprovedAt,
		ResolvesLogID:    strVal(m.ResolvesLogID),
		Notes:            strVal(m.Notes),
		Location:         locVal(m.Latitude, m.Longitude),
		DeviceInfo:       strVal(m.DeviceInfo),
		CreatedAt:        m.CreatedAt,
		CreatedBy:        m.CreatedBy,
	}
}
