package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

// CollectorDailyBalance is the denormalized cash position of one collector
// for one day. It is a cache over the ledger, recomputed transactionally on
// every append; the ledger remains the source of truth.
type CollectorDailyBalance struct {
	BalanceID   string    `json:"balanceID"`
	TenantID    string    `json:"tenantID"`
	CollectorID string    `json:"collectorID"`
	BalanceDate time.Time `json:"balanceDate"`

	OpeningFloat             decimal.Decimal `json:"openingFloat"`
	TotalCollections         decimal.Decimal `json:"totalCollections"`
	TotalDisbursements       decimal.Decimal `json:"totalDisbursements"`
	CurrentBalance           decimal.Decimal `json:"currentBalance"`
	DailyCap                 decimal.Decimal `json:"dailyCap"`
	AvailableForDisbursement decimal.Decimal `json:"availableForDisbursement"`

	IsFloatConfirmed bool       `json:"isFloatConfirmed"`
	IsDayClosed      bool       `json:"isDayClosed"`
	DayClosedAt      *time.Time `json:"dayClosedAt,omitempty"`

	FloatIssuanceID string `json:"floatIssuanceID,omitempty"`
	HandoverID      string `json:"handoverID,omitempty"`

	AuditFields
}

// ComputeAvailable derives the disbursable amount from a balance and cap:
// at most the cash on hand, at most what remains of the daily cap, never
// negative.
func ComputeAvailable(currentBalance, dailyCap, totalDisbursements decimal.Decimal) decimal.Decimal {
	remainingCap := dailyCap.Sub(totalDisbursements)
	available := decimal.Min(currentBalance, remainingCap)
	if available.IsNegative() {
		return decimal.Zero
	}
	return available
}

// Apply folds one ledger transaction into the snapshot, keeping the derived
// fields consistent. The caller guarantees txn.BalanceBefore was validated
// against CurrentBalance inside the same database transaction.
func (b *CollectorDailyBalance) Apply(txn CashTransaction) error {
	delta, err := txn.SignedAmount()
	if err != nil {
		return err
	}

	switch txn.Type {
	case TxnFloatReceived:
		b.OpeningFloat = b.OpeningFloat.Add(txn.Amount)
	case TxnCollection:
		b.TotalCollections = b.TotalCollections.Add(txn.Amount)
	case TxnDisbursement:
		b.TotalDisbursements = b.TotalDisbursements.Add(txn.Amount)
	}

	b.CurrentBalance = b.CurrentBalance.Add(delta)
	b.AvailableForDisbursement = ComputeAvailable(b.CurrentBalance, b.DailyCap, b.TotalDisbursements)
	return nil
}

// ExpectedHandover is the ledger-derived amount the collector should hand
// back at end of day.
func (b *CollectorDailyBalance) ExpectedHandover() decimal.Decimal {
	return b.OpeningFloat.Add(b.TotalCollections).Sub(b.TotalDisbursements)
}
