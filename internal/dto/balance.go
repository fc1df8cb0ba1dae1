package dto

import (
	"time"

	"github.com/pesoflow/lending_backend/internal/core/domain"
	"github.com/shopspring/decimal"
)

// BalanceResponse is the API shape of a collector's daily cash position.
type BalanceResponse struct {
	CollectorID string `json:"collectorID"`
	BalanceDate string `json:"balanceDate"`

	OpeningFloat             decimal.Decimal `json:"openingFloat"`
	TotalCollections         decimal.Decimal `json:"totalCollections"`
	TotalDisbursements       decimal.Decimal `json:"totalDisbursements"`
	CurrentBalance           decimal.Decimal `json:"currentBalance"`
	DailyCap                 decimal.Decimal `json:"dailyCap"`
	AvailableForDisbursement decimal.Decimal `json:"availableForDisbursement"`

	IsFloatConfirmed bool       `json:"isFloatConfirmed"`
	IsDayClosed      bool       `json:"isDayClosed"`
	DayClosedAt      *time.Time `json:"dayClosedAt,omitempty"`
}

// ToBalanceResponse converts a domain snapshot to its API shape.
func ToBalanceResponse(b *domain.CollectorDailyBalance) BalanceResponse {
	return BalanceResponse{
		CollectorID:              b.CollectorID,
		BalanceDate:              b.BalanceDate.Format("2006-01-02"),
		OpeningFloat:             b.OpeningFloat,
		TotalCollections:         b.TotalCollections,
		TotalDisbursements:       b.TotalDisbursements,
		CurrentBalance:           b.CurrentBalance,
		DailyCap:                 b.DailyCap,
		AvailableForDisbursement: b.AvailableForDisbursement,
		IsFloatConfirmed:         b.IsFloatConfirmed,
		IsDayClosed:              b.IsDayClosed,
		DayClosedAt:              b.DayClosedAt,
	}
}

// ToBalanceResponses converts a slice of snapshots (balance monitor view).
func ToBalanceResponses(balances []domain.CollectorDailyBalance) []BalanceResponse {
	responses := make([]BalanceResponse, len(balances))
	for i := range balances {
		responses[i] = ToBalanceResponse(&balances[i])
	}
	return responses
}
