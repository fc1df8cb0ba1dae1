package dto

import (
	"time"

	"github.com/pesoflow/lending_backend/internal/core/domain"
	"github.com/shopspring/decimal"
)

// ResolveApprovalRequest is a manager's decision on a pending approval.
type ResolveApprovalRequest struct {
	Decision string `json:"decision" binding:"required,oneof=APPROVE REJECT"`
	Notes    string `json:"notes"`
}

// ListActionLogsParams filters the audit log.
type ListActionLogsParams struct {
	CollectorID string `form:"collectorID"`
	ActionType  string `form:"actionType" binding:"omitempty,oneof=APPROVE_APPLICATION DISBURSE_LOAN COLLECT_PAYMENT WAIVE_PENALTY"`
	Status      string `form:"status" binding:"omitempty,oneof=SUCCESS FAILED PENDING_APPROVAL REJECTED"`
	FromDate    string `form:"from" binding:"omitempty,datetime=2006-01-02"`
	ToDate      string `form:"to" binding:"omitempty,datetime=2006-01-02"`
	Limit       int    `form:"limit,default=50" binding:"omitempty,min=1,max=200"`
}

// ActionLogResponse is the API shape of one audit row.
type ActionLogResponse struct {
	LogID            string          `json:"logID"`
	CollectorID      string          `json:"collectorID"`
	ActionType       string          `json:"actionType"`
	Amount           decimal.Decimal `json:"amount"`
	Status           string          `json:"status"`
	FlaggedForReview bool            `json:"flaggedForReview"`
	LoanID           string          `json:"loanID,omitempty"`
	PaymentID        string          `json:"paymentID,omitempty"`
	RejectionReason  string          `json:"rejectionReason,omitempty"`
	ApprovedBy       string          `json:"approvedBy,omitempty"`
	ApprovedAt       *time.Time      `json:"approvedAt,omitempty"`
	ResolvesLogID    string          `json:"resolvesLogID,omitempty"`
	Notes            string          `json:"notes,omitempty"`
	CreatedAt        time.Time       `json:"createdAt"`
}

// ToActionLogResponse converts a domain audit row to its API shape.
func ToActionLogResponse(l *domain.CollectorActionLog) ActionLogResponse {
	return ActionLogResponse{
		LogID:            l.LogID,
		CollectorID:      l.CollectorID,
		ActionType:       string(l.ActionType),
		Amount:           l.Amount,
		Status:           string(l.Status),
		FlaggedForReview: l.FlaggedForReview,
		LoanID:           l.LoanID,
		PaymentID:        l.PaymentID,
		RejectionReason:  l.RejectionReason,
		ApprovedBy:       l.ApprovedBy,
		ApprovedAt:       l.ApprovedAt,
		ResolvesLogID:    l.ResolvesLogID,
		Notes:            l.Notes,
		CreatedAt:        l.CreatedAt,
	}
}

// ToActionLogResponses converts a slice of audit rows.
func ToActionLogResponses(logs []domain.CollectorActionLog) []ActionLogResponse {
	responses := make([]ActionLogResponse, len(logs))
	for i := range logs {
		responses[i] = ToActionLogResponse(&logs[i])
	}
	return responses
}
