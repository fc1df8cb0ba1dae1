package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// CashTransaction is the storage shape of one ledger row.
type CashTransaction struct {
	TransactionID string          `db:"transaction_id"`
	TenantID      string          `db:"tenant_id"`
	CollectorID   string          `db:"collector_id"`
	TxnDate       time.Time       `db:"txn_date"`
	TxnType       string          `db:"txn_type"`
	Amount        decimal.Decimal `db:"amount"`
	BalanceBefore decimal.Decimal `db:"balance_before"`
	BalanceAfter  decimal.Decimal `db:"balance_after"`

	LoanID    *string `db:"loan_id"`
	PaymentID *string `db:"payment_id"`
	FloatID   *string `db:"float_id"`

	Latitude  *float64 `db:"latitude"`
	Longitude *float64 `db:"longitude"`

	LocalTransactionID *string `db:"local_transaction_id"`
	IsSynced           bool    `db:"is_synced"`

	Notes *string `db:"notes"`
	AuditFields
}
