package dto

import (
	"time"

	"github.com/pesoflow/lending_backend/internal/core/domain"
	"github.com/shopspring/decimal"
)

// RecordCollectionRequest records cash received from a borrower.
// LocalTransactionID is the client-assigned token that makes offline replay
// idempotent.
type RecordCollectionRequest struct {
	CollectorID        string          `json:"collectorID"`
	Amount             decimal.Decimal `json:"amount" binding:"required"`
	LoanID             string          `json:"loanID"`
	PaymentID          string          `json:"paymentID"`
	LocalTransactionID string          `json:"localTransactionID" binding:"required"`
	Notes              string          `json:"notes"`
	Location           *GeolocationDTO `json:"location"`
	DeviceInfo         string          `json:"deviceInfo"`
}

// RecordDisbursementRequest records cash paid out against a loan.
type RecordDisbursementRequest struct {
	CollectorID        string          `json:"collectorID"`
	Amount             decimal.Decimal `json:"amount" binding:"required"`
	LoanID             string          `json:"loanID"`
	LocalTransactionID string          `json:"localTransactionID" binding:"required"`
	Notes              string          `json:"notes"`
	Location           *GeolocationDTO `json:"location"`
	DeviceInfo         string          `json:"deviceInfo"`
}

// WaivePenaltyRequest waives part of a penalty. Routed through the same
// authority guard and database transaction as cash movements.
type WaivePenaltyRequest struct {
	CollectorID   string          `json:"collectorID"`
	LoanID        string          `json:"loanID" binding:"required"`
	PenaltyAmount decimal.Decimal `json:"penaltyAmount" binding:"required"`
	WaiverAmount  decimal.Decimal `json:"waiverAmount" binding:"required"`
	Reason        string          `json:"reason"`
	Location      *GeolocationDTO `json:"location"`
	DeviceInfo    string          `json:"deviceInfo"`
}

// ListTransactionsParams filters ledger history.
type ListTransactionsParams struct {
	CollectorID string  `form:"collectorID"`
	FromDate    string  `form:"from" binding:"omitempty,datetime=2006-01-02"`
	ToDate      string  `form:"to" binding:"omitempty,datetime=2006-01-02"`
	TxnType     string  `form:"type" binding:"omitempty,oneof=FLOAT_RECEIVED COLLECTION DISBURSEMENT HANDOVER ADJUSTMENT"`
	Limit       int     `form:"limit,default=50" binding:"omitempty,min=1,max=200"`
	NextToken   *string `form:"nextToken"`
}

// CashTransactionResponse is the API shape of one ledger row.
type CashTransactionResponse struct {
	TransactionID      string          `json:"transactionID"`
	CollectorID        string          `json:"collectorID"`
	Date               string          `json:"date"`
	Type               string          `json:"type"`
	Amount             decimal.Decimal `json:"amount"`
	BalanceBefore      decimal.Decimal `json:"balanceBefore"`
	BalanceAfter       decimal.Decimal `json:"balanceAfter"`
	LoanID             string          `json:"loanID,omitempty"`
	PaymentID          string          `json:"paymentID,omitempty"`
	FloatID            string          `json:"floatID,omitempty"`
	LocalTransactionID string          `json:"localTransactionID,omitempty"`
	Notes              string          `json:"notes,omitempty"`
	CreatedAt          time.Time       `json:"createdAt"`
}

// ListTransactionsResponse is a page of ledger history.
type ListTransactionsResponse struct {
	Transactions []CashTransactionResponse `json:"transactions"`
	NextToken    *string                   `json:"nextToken,omitempty"`
}

// GuardedActionStatus tells the client which of the three distinct outcomes
// a guarded action had; pending approval is a valid result, not a failure.
type GuardedActionStatus string

const (
	GuardedExecuted        GuardedActionStatus = "EXECUTED"
	GuardedPendingApproval GuardedActionStatus = "PENDING_APPROVAL"
)

// GuardedActionResponse is the result of a collection, disbursement, or
// waiver request after it passed through the authority limit guard.
type GuardedActionResponse struct {
	Status           GuardedActionStatus      `json:"status"`
	FlaggedForReview bool                     `json:"flaggedForReview"`
	Transaction      *CashTransactionResponse `json:"transaction,omitempty"`
	ApprovalLog      *ActionLogResponse       `json:"approvalLog,omitempty"`
	Balance          *BalanceResponse         `json:"balance,omitempty"`
}

// ToCashTransactionResponse converts a domain ledger entry to its API shape.
func ToCashTransactionResponse(t *domain.CashTransaction) CashTransactionResponse {
	return CashTransactionResponse{
		TransactionID:      t.TransactionID,
		CollectorID:        t.CollectorID,
		Date:               t.Date.Format("2006-01-02"),
		Type:               string(t.Type),
		Amount:             t.Amount,
		BalanceBefore:      t.BalanceBefore,
		BalanceAfter:       t.BalanceAfter,
		LoanID:             t.LoanID,
		PaymentID:          t.PaymentID,
		FloatID:            t.FloatID,
		LocalTransactionID: t.LocalTransactionID,
		Notes:              t.Notes,
		CreatedAt:          t.CreatedAt,
	}
}

// ToCashTransactionResponses converts a slice of ledger entries.
func ToCashTransactionResponses(txns []domain.CashTransaction) []CashTransactionResponse {
	responses := make([]CashTransactionResponse, len(txns))
	for i := range txns {
		responses[i] = ToCashTransactionResponse(&txns[i])
	}
	return responses
}
