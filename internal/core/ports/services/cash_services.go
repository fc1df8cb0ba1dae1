package services

import (
	"context"
	"time"

	"github.com/pesoflow/lending_backend/internal/core/domain"
	"github.com/pesoflow/lending_backend/internal/dto"
)

// GuardedActionResult is the outcome of a cash action routed through the
// authority limit guard. Escalation is a valid outcome, not an error: when
// Executed is false the action was parked as a pending approval and Log
// carries the PENDING_APPROVAL audit row.
type GuardedActionResult struct {
	Executed         bool
	FlaggedForReview bool
	Transaction      *domain.CashTransaction
	Balance          *domain.CollectorDailyBalance
	Log              *domain.CollectorActionLog
}

// FloatSvcFacade covers the float issuance morning workflow.
type FloatSvcFacade interface {
	// IssueFloat creates a pending issuance for the collector and date.
	IssueFloat(ctx context.Context, actor domain.Principal, req dto.IssueFloatRequest) (*domain.CashFloat, error)

	// ConfirmFloatReceipt is the collector's acknowledgement. Idempotent:
	// confirming an already confirmed float returns it unchanged.
	ConfirmFloatReceipt(ctx context.Context, actor domain.Principal, floatID string, location *domain.Geolocation) (*domain.CashFloat, error)

	ListFloatHistory(ctx context.Context, actor domain.Principal, params dto.ListFloatsParams) (*dto.ListFloatsResponse, error)
	ListPendingIssuances(ctx context.Context, actor domain.Principal) ([]domain.CashFloat, error)
}

// HandoverSvcFacade covers the end-of-day reconciliation workflow.
type HandoverSvcFacade interface {
	// InitiateHandover freezes the expected amount from the snapshot and
	// creates a pending handover. Further ledger writes for the collector
	// are blocked until the handover resolves.
	InitiateHandover(ctx context.Context, actor domain.Principal, req dto.InitiateHandoverRequest) (*domain.CashFloat, error)

	// ConfirmHandover applies the cashier's accept/reject decision. Accept
	// closes the day; reject lets the collector initiate a fresh handover.
	ConfirmHandover(ctx context.Context, actor domain.Principal, handoverID string, req dto.ConfirmHandoverRequest) (*domain.CashFloat, error)

	ListPendingHandovers(ctx context.Context, actor domain.Principal) ([]domain.CashFloat, error)
}

// LedgerSvcFacade covers guarded cash movements and ledger reads.
type LedgerSvcFacade interface {
	RecordCollection(ctx context.Context, actor domain.Principal, req dto.RecordCollectionRequest) (*GuardedActionResult, error)
	RecordDisbursement(ctx context.Context, actor domain.Principal, req dto.RecordDisbursementRequest) (*GuardedActionResult, error)
	WaivePenalty(ctx context.Context, actor domain.Principal, req dto.WaivePenaltyRequest) (*GuardedActionResult, error)

	GetBalance(ctx context.Context, actor domain.Principal, collectorID string, date time.Time) (*domain.CollectorDailyBalance, error)

	// GetBalanceMonitor returns every collector's snapshot for the date.
	GetBalanceMonitor(ctx context.Context, actor domain.Principal, date time.Time) ([]domain.CollectorDailyBalance, error)

	ListTransactions(ctx context.Context, actor domain.Principal, params dto.ListTransactionsParams) (*dto.ListTransactionsResponse, error)
}

// AuthoritySvcFacade covers limit management and approval resolution.
type AuthoritySvcFacade interface {
	// ResolveApproval is the manager's decision on a PENDING_APPROVAL audit
	// row. Approval executes the deferred action; both the resolution row
	// and the execution commit together.
	ResolveApproval(ctx context.Context, actor domain.Principal, logID string, req dto.ResolveApprovalRequest) (*domain.CollectorActionLog, error)

	ListPendingApprovals(ctx context.Context, actor domain.Principal) ([]domain.CollectorActionLog, error)
	ListActionLogs(ctx context.Context, actor domain.Principal, params dto.ListActionLogsParams) ([]domain.CollectorActionLog, error)

	GetLimits(ctx context.Context, actor domain.Principal, collectorID string) (*domain.CollectorLimits, error)
	UpdateLimits(ctx context.Context, actor domain.Principal, collectorID string, req dto.UpdateLimitsRequest) (*domain.CollectorLimits, error)

	// GetTodayUsage reports rolling usage against the collector's limits.
	GetTodayUsage(ctx context.Context, actor domain.Principal, collectorID string) (*dto.UsageResponse, error)
}

// ServiceContainer holds instances of all the application services. This is
// the main entry point for accessing service functionality from handlers.
type ServiceContainer struct {
	Float     FloatSvcFacade
	Handover  HandoverSvcFacade
	Ledger    LedgerSvcFacade
	Authority AuthoritySvcFacade
}
