package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// CollectorActionLog is the storage shape of one audit row.
type CollectorActionLog struct {
	LogID       string `db:"log_id"`
	TenantID    string `db:"tenant_id"`
	CollectorID string `db:"collector_id"`
	ActionType  string `db:"action_type"`

	LoanID    *string `db:"loan_id"`
	PaymentID *string `db:"payment_id"`

	Amount        decimal.Decimal `db:"amount"`
	PreviousValue *string         `db:"previous_value"`
	NewValue      *string         `db:"new_value"`

	Status           string     `db:"status"`
	FlaggedForReview bool       `db:"flagged_for_review"`
	RejectionReason  *string    `db:"rejection_reason"`
	ApprovedBy       *string    `db:"approved_by"`
	ApprovedAt       *time.Time `db:"approved_at"`
	ResolvesLogID    *string    `db:"resolves_log_id"`

	Notes      *string  `db:"notes"`
	Latitude   *float64 `db:"latitude"`
	Longitude  *float64 `db:"longitude"`
	DeviceInfo *string  `db:"device_info"`

	CreatedAt time.Time `db:"created_at"`
	CreatedBy string    `db:"created_by"`
}
