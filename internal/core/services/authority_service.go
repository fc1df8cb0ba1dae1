package services

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/pesoflow/lending_backend/internal/apperrors"
	"github.com/pesoflow/lending_backend/internal/core/domain"
	portsrepo "github.com/pesoflow/lending_backend/internal/core/ports"
	portssvc "github.com/pesoflow/lending_backend/internal/core/ports/services"
	"github.com/pesoflow/lending_backend/internal/dto"
	"github.com/pesoflow/lending_backend/internal/middleware"
)

// deferredExecutor replays a parked action once a manager approves it.
type deferredExecutor interface {
	executeDeferred(ctx context.Context, actor domain.Principal, original domain.CollectorActionLog, resolution domain.CollectorActionLog) (*domain.CashTransaction, *domain.CollectorDailyBalance, error)
}

// authorityService handles limit management and approval resolution.
type authorityService struct {
	limitsRepo    portsrepo.LimitsRepositoryFacade
	actionLogRepo portsrepo.ActionLogRepositoryFacade
	ledgerRepo    portsrepo.LedgerRepositoryFacade
	executor      deferredExecutor
	now           func() time.Time
}

// NewAuthorityService creates a new AuthorityService. The executor is the
// ledger service, which owns deferred-action execution.
func NewAuthorityService(
	limitsRepo portsrepo.LimitsRepositoryFacade,
	actionLogRepo portsrepo.ActionLogRepositoryFacade,
	ledgerRepo portsrepo.LedgerRepositoryFacade,
	executor deferredExecutor,
) portssvc.AuthoritySvcFacade {
	return &authorityService{
		limitsRepo:    limitsRepo,
		actionLogRepo: actionLogRepo,
		ledgerRepo:    ledgerRepo,
		executor:      executor,
		now:           time.Now,
	}
}

var _ portssvc.AuthoritySvcFacade = (*authorityService)(nil)

// ResolveApproval applies a manager's decision to a PENDING_APPROVAL row.
// The original row is never mutated; resolution is a new row referencing
// it. Approval executes the deferred action before returning.
func (s *authorityService) ResolveApproval(ctx context.Context, actor domain.Principal, logID string, req dto.ResolveApprovalRequest) (*domain.CollectorActionLog, error) {
	logger := middleware.GetLoggerFromCtx(ctx)

	if !actor.CanManage() {
		return nil, apperrors.ErrNotAuthorized
	}

	original, err := s.actionLogRepo.FindLogByID(ctx, actor.TenantID, logID)
	if err != nil {
		return nil, err
	}
	if !original.IsPending() {
		return nil, apperrors.NewAppError(400, "action log is not awaiting approval", apperrors.ErrValidation)
	}
	if original.CollectorID == actor.UserID {
		// A manager cannot resolve their own escalation.
		return nil, apperrors.ErrNotAuthorized
	}
	if _, err := s.actionLogRepo.FindResolutionFor(ctx, actor.TenantID, logID); err == nil {
		return nil, apperrors.NewAppError(409, "approval already resolved", apperrors.ErrDuplicate)
	} else if !errors.Is(err, apperrors.ErrNotFound) {
		return nil, err
	}

	now := s.now().UTC()
	resolution := domain.CollectorActionLog{
		LogID:         uuid.NewString(),
		TenantID:      original.TenantID,
		CollectorID:   original.CollectorID,
		ActionType:    original.ActionType,
		LoanID:        original.LoanID,
		PaymentID:     original.PaymentID,
		Amount:        original.Amount,
		PreviousValue: original.PreviousValue,
		NewValue:      original.NewValue,
		ResolvesLogID: original.LogID,
		Notes:         req.Notes,
		CreatedAt:     now,
		CreatedBy:     actor.UserID,
	}

	if req.Decision == "REJECT" {
		resolution.Status = domain.ActionRejected
		resolution.RejectionReason = req.Notes
		if err := s.actionLogRepo.SaveLog(ctx, resolution); err != nil {
			return nil, err
		}
		logger.Info("Pending approval rejected", slog.String("log_id", logID), slog.String("resolved_by", actor.UserID))
		return &resolution, nil
	}

	resolution.Status = domain.ActionSuccess
	resolution.ApprovedBy = actor.UserID
	resolution.ApprovedAt = &now

	if _, _, err := s.executor.executeDeferred(ctx, actor, *original, resolution); err != nil {
		logger.Error("Failed to execute approved action",
			slog.String("log_id", logID),
			slog.String("action_type", string(original.ActionType)),
			slog.String("error", err.Error()))
		return nil, err
	}

	logger.Info("Pending approval executed",
		slog.String("log_id", logID),
		slog.String("resolution_id", resolution.LogID),
		slog.String("approved_by", actor.UserID))
	return &resolution, nil
}

func (s *authorityService) ListPendingApprovals(ctx context.Context, actor domain.Principal) ([]domain.CollectorActionLog, error) {
	if !actor.CanManage() {
		return nil, apperrors.ErrNotAuthorized
	}
	return s.actionLogRepo.ListPendingUnresolved(ctx, actor.TenantID, 200)
}

func (s *authorityService) ListActionLogs(ctx context.Context, actor domain.Principal, params dto.ListActionLogsParams) ([]domain.CollectorActionLog, error) {
	collectorID := params.CollectorID
	if actor.Role == domain.RoleCollector {
		collectorID = actor.UserID
	}

	var from, to time.Time
	if params.FromDate != "" {
		from = parseDateOr(params.FromDate, time.Time{})
	}
	if params.ToDate != "" {
		// Upper bound is exclusive of nothing: include the whole day.
		to = parseDateOr(params.ToDate, time.Time{}).AddDate(0, 0, 1)
	}

	return s.actionLogRepo.ListLogs(ctx, actor.TenantID, collectorID, domain.ActionType(params.ActionType), domain.ActionStatus(params.Status), from, to, params.Limit)
}

func (s *authorityService) GetLimits(ctx context.Context, actor domain.Principal, collectorID string) (*domain.CollectorLimits, error) {
	if actor.Role == domain.RoleCollector {
		collectorID = actor.UserID
	}
	limits, err := s.limitsRepo.FindActiveLimits(ctx, actor.TenantID, collectorID, dateOnly(s.now().UTC()))
	if err != nil {
		if errors.Is(err, apperrors.ErrNotFound) {
			def := domain.DefaultLimits(actor.TenantID, collectorID)
			return &def, nil
		}
		return nil, err
	}
	return limits, nil
}

// UpdateLimits creates a new limits version for the collector; the previous
// version is end-dated, never overwritten.
func (s *authorityService) UpdateLimits(ctx context.Context, actor domain.Principal, collectorID string, req dto.UpdateLimitsRequest) (*domain.CollectorLimits, error) {
	logger := middleware.GetLoggerFromCtx(ctx)

	if !actor.CanManage() {
		return nil, apperrors.ErrNotAuthorized
	}

	now := s.now().UTC()
	limits := domain.CollectorLimits{
		LimitsID:                     uuid.NewString(),
		TenantID:                     actor.TenantID,
		CollectorID:                  collectorID,
		MaxApprovalAmount:            req.MaxApprovalAmount,
		MaxApprovalPerDay:            req.MaxApprovalPerDay,
		MaxDisbursementAmount:        req.MaxDisbursementAmount,
		DailyDisbursementLimit:       req.DailyDisbursementLimit,
		MonthlyDisbursementLimit:     req.MonthlyDisbursementLimit,
		MaxPenaltyWaiverAmount:       req.MaxPenaltyWaiverAmount,
		MaxPenaltyWaiverPct:          req.MaxPenaltyWaiverPct,
		RequiresManagerApprovalAbove: req.RequiresManagerApprovalAbove,
		MaxCashCollectionPerTxn:      req.MaxCashCollectionPerTxn,
		IsActive:                     true,
		EffectiveFrom:                dateOnly(parseDateOr(req.EffectiveFrom, now)),
		AuditFields: domain.AuditFields{
			CreatedAt:     now,
			CreatedBy:     actor.UserID,
			LastUpdatedAt: now,
			LastUpdatedBy: actor.UserID,
		},
	}

	if err := s.limitsRepo.SaveLimitsVersion(ctx, limits); err != nil {
		return nil, err
	}

	logger.Info("Collector limits updated",
		slog.String("limits_id", limits.LimitsID),
		slog.String("collector_id", collectorID),
		slog.String("updated_by", actor.UserID))
	return &limits, nil
}

// GetTodayUsage reports rolling usage against the collector's limits,
// summed from the ledger and the audit log at call time.
func (s *authorityService) GetTodayUsage(ctx context.Context, actor domain.Principal, collectorID string) (*dto.UsageResponse, error) {
	if actor.Role == domain.RoleCollector {
		collectorID = actor.UserID
	}

	today := dateOnly(s.now().UTC())

	approvalTotal, approvalCount, err := s.actionLogRepo.SumActionAmounts(ctx, actor.TenantID, collectorID, domain.ActionApproveApplication, today, today.AddDate(0, 0, 1))
	if err != nil {
		return nil, err
	}
	disbTotal, disbCount, err := s.ledgerRepo.SumAmountByType(ctx, actor.TenantID, collectorID, domain.TxnDisbursement, today, today)
	if err != nil {
		return nil, err
	}
	collTotal, collCount, err := s.ledgerRepo.SumAmountByType(ctx, actor.TenantID, collectorID, domain.TxnCollection, today, today)
	if err != nil {
		return nil, err
	}

	return &dto.UsageResponse{
		Approvals:     dto.UsageBucket{Count: approvalCount, Total: approvalTotal},
		Disbursements: dto.UsageBucket{Count: disbCount, Total: disbTotal},
		Collections:   dto.UsageBucket{Count: collCount, Total: collTotal},
	}, nil
}
