package mapping

import (
	"github.com/pesoflow/lending_backend/internal/core/domain"
	"github.com/pesoflow/lending_backend/internal/models"
)

// ToModelCashTransaction converts a domain ledger entry to its storage shape.
func ToModelCashTransaction(d domain.CashTransaction) models.CashTransaction {
	m := models.CashTransaction{
		TransactionID:      d.TransactionID,
		TenantID:           d.TenantID,
		CollectorID:        d.CollectorID,
		TxnDate:            d.Date,
		TxnType:            string(d.Type),
		Amount:             d.Amount,
		BalanceBefore:      d.BalanceBefore,
		BalanceAfter:       d.BalanceAfter,
		LoanID:             strPtr(d.LoanID),
		PaymentID:          strPtr(d.PaymentID),
		FloatID:            strPtr(d.FloatID),
		LocalTransactionID: strPtr(d.LocalTransactionID),
		IsSynced:           d.IsSynced,
		Notes:              strPtr(d.Notes),
		AuditFields:        ToModelAuditFields(d.AuditFields),
	}
	m.Latitude, m.Longitude = locPtrs(d.Location)
	return m
}

// ToDomainCashTransaction converts a storage ledger row to the domain shape.
func ToDomainCashTransaction(m models.CashTransaction) domain.CashTransaction {
	return domain.CashTransaction{
		TransactionID:      m.TransactionID,
		TenantID:           m.TenantID,
		CollectorID:        m.CollectorID,
		Date:               m.TxnDate,
		Type:               domain.CashTransactionType(m.TxnType),
		Amount:             m.Amount,
		BalanceBefore:      m.BalanceBefore,
		BalanceAfter:       m.BalanceAfter,
		LoanID:             strVal(m.LoanID),
		PaymentID:          strVal(m.PaymentID),
		FloatID:            strVal(m.FloatID),
		Location:           locVal(m.Latitude, m.Longitude),
		LocalTransactionID: strVal(m.LocalTransactionID),
		IsSynced:           m.IsSynced,
		Notes:              strVal(m.Notes),
		AuditFields:        ToDomainAuditFields(m.AuditFields),
	}
}

// ToDomainDailyBalance converts a storage snapshot row to the domain shape.
func ToDomainDailyBalance(m models.CollectorDailyBalance) domain.CollectorDailyBalance {
	return domain.CollectorDailyBalance{
		BalanceID:                m.BalanceID,
		TenantID:                 m.TenantID,
		CollectorID:              m.CollectorID,
		BalanceDate:              m.BalanceDate,
		OpeningFloat:             m.OpeningFloat,
		TotalCollections:         m.TotalCollections,
		TotalDisbursements:       m.TotalDisbursements,
		CurrentBalance:           m.CurrentBalance,
		DailyCap:                 m.DailyCap,
		AvailableForDisbursement: m.AvailableForDisbursement,
		IsFloatConfirmed:         m.IsFloatConfirmed,
		IsDayClosed:              m.IsDayClosed,
		DayClosedAt:              m.DayClosedAt,
		FloatIssuanceID:          strVal(m.FloatIssuanceID),
		HandoverID:               strVal(m.HandoverID),
		AuditFields:              ToDomainAuditFields(m.AuditFields),
	}
}

// ToModelDailyBalance converts a domain snapshot to its storage shape.
func ToModelDailyBalance(d domain.CollectorDailyBalance) models.CollectorDailyBalance {
	return models.CollectorDailyBalance{
		BalanceID:                d.BalanceID,
		TenantID:                 d.TenantID,
		CollectorID:              d.CollectorID,
		BalanceDate:              d.BalanceDate,
		OpeningFloat:             d.OpeningFloat,
		TotalCollections:         d.TotalCollections,
		TotalDisbursements:       d.TotalDisbursements,
		CurrentBalance:           d.CurrentBalance,
		DailyCap:                 d.DailyCap,
		AvailableForDisbursement: d.AvailableForDisbursement,
		IsFloatConfirmed:         d.IsFloatConfirmed,
		IsDayClosed:              d.IsDayClosed,
		DayClosedAt:              d.DayClosedAt,
		FloatIssuanceID:          strPtr(d.FloatIssuanceID),
		HandoverID:               strPtr(d.HandoverID),
		AuditFields:              ToModelAuditFields(d.AuditFields),
	}
}
