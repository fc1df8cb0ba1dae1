package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

// ActionType names the guarded collector actions.
type ActionType string

const (
	ActionApproveApplication ActionType = "APPROVE_APPLICATION"
	ActionDisburseLoan       ActionType = "DISBURSE_LOAN"
	ActionCollectPayment     ActionType = "COLLECT_PAYMENT"
	ActionWaivePenalty       ActionType = "WAIVE_PENALTY"
)

// ActionStatus is the outcome recorded for a guarded action.
type ActionStatus string

const (
	ActionSuccess         ActionStatus = "SUCCESS"
	ActionFailed          ActionStatus = "FAILED"
	ActionPendingApproval ActionStatus = "PENDING_APPROVAL"
	ActionRejected        ActionStatus = "REJECTED"
)

// CollectorActionLog is one audit row for a guarded action. The table is
// append-only: a PENDING_APPROVAL row is completed by inserting a resolution
// row that references it, never by mutating the original.
type CollectorActionLog struct {
	LogID       string     `json:"logID"`
	TenantID    string     `json:"tenantID"`
	CollectorID string     `json:"collectorID"`
	ActionType  ActionType `json:"actionType"`

	LoanID    string `json:"loanID,omitempty"`
	PaymentID string `json:"paymentID,omitempty"`

	Amount        decimal.Decimal `json:"amount"`
	PreviousValue string          `json:"previousValue,omitempty"` // JSON snapshot before the action
	NewValue      string          `json:"newValue,omitempty"`      // JSON snapshot after the action

	Status           ActionStatus `json:"status"`
	FlaggedForReview bool         `json:"flaggedForReview"`
	RejectionReason  string       `json:"rejectionReason,omitempty"`
	ApprovedBy       string       `json:"approvedBy,omitempty"`
	ApprovedAt       *time.Time   `json:"approvedAt,omitempty"`

	// ResolvesLogID links a resolution row back to the PENDING_APPROVAL
	// row it completes.
	ResolvesLogID string `json:"resolvesLogID,omitempty"`

	Notes      string       `json:"notes,omitempty"`
	Location   *Geolocation `json:"location,omitempty"`
	DeviceInfo string       `json:"deviceInfo,omitempty"` // JSON blob from the client

	CreatedAt time.Time `json:"createdAt"`
	CreatedBy string    `json:"createdBy"`
}

// IsPending reports whether the row still awaits a manager resolution.
func (l *CollectorActionLog) IsPending() bool {
	return l.Status == ActionPendingApproval
}
