package domain

import (
	"fmt"
	"time"

	"github.com/shopspring/decimal"
)

// CashTransactionType classifies a ledger entry.
type CashTransactionType string

const (
	TxnFloatReceived CashTransactionType = "FLOAT_RECEIVED"
	TxnCollection    CashTransactionType = "COLLECTION"
	TxnDisbursement  CashTransactionType = "DISBURSEMENT"
	TxnHandover      CashTransactionType = "HANDOVER"
	TxnAdjustment    CashTransactionType = "ADJUSTMENT"
)

// CashTransaction is one immutable entry in the per-collector cash ledger.
// Entries are causally ordered by their BalanceBefore/BalanceAfter chain,
// never edited; corrections are new ADJUSTMENT rows.
type CashTransaction struct {
	TransactionID string              `json:"transactionID"`
	TenantID      string              `json:"tenantID"`
	CollectorID   string              `json:"collectorID"`
	Date          time.Time           `json:"date"`
	Type          CashTransactionType `json:"type"`
	Amount        decimal.Decimal     `json:"amount"`
	BalanceBefore decimal.Decimal     `json:"balanceBefore"`
	BalanceAfter  decimal.Decimal     `json:"balanceAfter"`

	// Optional references back to the rows that caused the movement.
	LoanID    string `json:"loanID,omitempty"`
	PaymentID string `json:"paymentID,omitempty"`
	FloatID   string `json:"floatID,omitempty"`

	Location *Geolocation `json:"location,omitempty"`

	// LocalTransactionID is the client-assigned token for offline replay.
	// Appends carrying a previously seen token for the same collector are
	// applied at most once.
	LocalTransactionID string `json:"localTransactionID,omitempty"`
	IsSynced           bool   `json:"isSynced"`

	Notes string `json:"notes,omitempty"`
	AuditFields
}

// SignedAmount returns the delta this transaction applies to the collector's
// on-hand balance. Handover rows close the day to zero regardless of the
// cash actually surrendered, so their delta is the negated opening balance.
func (t *CashTransaction) SignedAmount() (decimal.Decimal, error) {
	switch t.Type {
	case TxnFloatReceived, TxnCollection:
		return t.Amount, nil
	case TxnDisbursement:
		return t.Amount.Neg(), nil
	case TxnHandover:
		return t.BalanceBefore.Neg(), nil
	case TxnAdjustment:
		// Adjustments carry their own sign.
		return t.Amount, nil
	default:
		return decimal.Zero, fmt.Errorf("unknown cash transaction type %q", t.Type)
	}
}

// ReplayBalance reduces an ordered transaction sequence to the closing
// balance. Used to assert that the denormalized snapshot matches the ledger.
func ReplayBalance(txns []CashTransaction) (decimal.Decimal, error) {
	balance := decimal.Zero
	for i := range txns {
		delta, err := txns[i].SignedAmount()
		if err != nil {
			return decimal.Zero, err
		}
		balance = balance.Add(delta)
	}
	return balance, nil
}
