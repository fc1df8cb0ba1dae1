package mapping

import (
	"github.com/pesoflow/lending_backend/internal/core/domain"
	"github.com/pesoflow/lending_backend/internal/models"
	"github.com/shopspring/decimal"
)

// ToModelCashFloat converts a domain CashFloat to its storage shape.
func ToModelCashFloat(d domain.CashFloat) models.CashFloat {
	m := models.CashFloat{
		FloatID:              d.FloatID,
		TenantID:             d.TenantID,
		CollectorID:          d.CollectorID,
		CashierID:            d.CashierID,
		Amount:               d.Amount,
		Kind:                 string(d.Kind),
		Status:               string(d.Status),
		FloatDate:            d.FloatDate,
		CollectorConfirmedAt: d.CollectorConfirmedAt,
		CashierConfirmedAt:   d.CashierConfirmedAt,
		RejectionReason:      strPtr(d.RejectionReason),
		Notes:                strPtr(d.Notes),
		AuditFields:          ToModelAuditFields(d.AuditFields),
	}

	m.IssuanceLatitude, m.IssuanceLongitude = locPtrs(d.IssuanceLocation)
	m.HandoverLatitude, m.HandoverLongitude = locPtrs(d.HandoverLocation)

	switch d.Kind {
	case domain.FloatIssuance:
		cap := d.DailyCap
		m.DailyCap = &cap
	case domain.FloatHandover:
		opening := d.OpeningFloat
		collections := d.Collections
		disbursements := d.Disbursements
		expected := d.ExpectedAmount
		actual := d.ActualAmount
		variance := d.Variance
		m.OpeningFloat = &opening
		m.Collections = &collections
		m.Disbursements = &disbursements
		m.ExpectedAmount = &expected
		m.ActualAmount = &actual
		m.Variance = &variance
	}

	return m
}

// ToDomainCashFloat converts a storage CashFloat back to the domain shape.
func ToDomainCashFloat(m models.CashFloat) domain.CashFloat {
	d := domain.CashFloat{
		FloatID:              m.FloatID,
		TenantID:             m.TenantID,
		CollectorID:          m.CollectorID,
		CashierID:            m.CashierID,
		Amount:               m.Amount,
		Kind:                 domain.FloatKind(m.Kind),
		Status:               domain.FloatStatus(m.Status),
		FloatDate:            m.FloatDate,
		DailyCap:             decimalVal(m.DailyCap),
		OpeningFloat:         decimalVal(m.OpeningFloat),
		Collections:          decimalVal(m.Collections),
		Disbursements:        decimalVal(m.Disbursements),
		ExpectedAmount:       decimalVal(m.ExpectedAmount),
		ActualAmount:         decimalVal(m.ActualAmount),
		Variance:             decimalVal(m.Variance),
		IssuanceLocation:     locVal(m.IssuanceLatitude, m.IssuanceLongitude),
		HandoverLocation:     locVal(m.HandoverLatitude, m.HandoverLongitude),
		CollectorConfirmedAt: m.CollectorConfirmedAt,
		CashierConfirmedAt:   m.CashierConfirmedAt,
		RejectionReason:      strVal(m.RejectionReason),
		Notes:                strVal(m.Notes),
		AuditFields:          ToDomainAuditFields(m.AuditFields),
	}
	return d
}

func decimalVal(p *decimal.Decimal) decimal.Decimal {
	if p == nil {
		return decimal.Zero
	}
	return *p
}
