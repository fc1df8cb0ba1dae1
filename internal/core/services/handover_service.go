package services

import (
	"context"
	"errors"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/pesoflow/lending_backend/internal/apperrors"
	"github.com/pesoflow/lending_backend/internal/core/domain"
	portsrepo "github.com/pesoflow/lending_backend/internal/core/ports"
	portssvc "github.com/pesoflow/lending_backend/internal/core/ports/services"
	"github.com/pesoflow/lending_backend/internal/dto"
	"github.com/pesoflow/lending_backend/internal/middleware"
	"github.com/shopspring/decimal"
)

// handoverService handles the end-of-day cash reconciliation workflow.
type handoverService struct {
	floatRepo   portsrepo.FloatRepositoryFacade
	balanceRepo portsrepo.BalanceRepositoryFacade
	now         func() time.Time
}

// NewHandoverService creates a new HandoverService.
func NewHandoverService(floatRepo portsrepo.FloatRepositoryFacade, balanceRepo portsrepo.BalanceRepositoryFacade) portssvc.HandoverSvcFacade {
	return &handoverService{floatRepo: floatRepo, balanceRepo: balanceRepo, now: time.Now}
}

var _ portssvc.HandoverSvcFacade = (*handoverService)(nil)

// InitiateHandover freezes the expected amount from the day's snapshot and
// creates a pending handover. The expected amount is computed server-side;
// the collector only reports what they physically counted.
func (s *handoverService) InitiateHandover(ctx context.Context, actor domain.Principal, req dto.InitiateHandoverRequest) (*domain.CashFloat, error) {
	logger := middleware.GetLoggerFromCtx(ctx)

	if actor.Role != domain.RoleCollector {
		return nil, apperrors.ErrForbidden
	}
	if req.ActualAmount.IsNegative() {
		return nil, apperrors.NewAppError(400, "counted amount cannot be negative", apperrors.ErrValidation)
	}

	now := s.now().UTC()
	today := dateOnly(now)

	balance, err := s.balanceRepo.GetBalance(ctx, actor.TenantID, actor.UserID, today)
	if err != nil {
		if errors.Is(err, apperrors.ErrNotFound) {
			return nil, apperrors.ErrUnconfirmedFloat
		}
		return nil, err
	}
	if !balance.IsFloatConfirmed {
		return nil, apperrors.ErrUnconfirmedFloat
	}
	if balance.IsDayClosed {
		return nil, apperrors.ErrDayAlreadyClosed
	}

	if _, err := s.floatRepo.FindPendingHandover(ctx, actor.TenantID, actor.UserID, today); err == nil {
		return nil, apperrors.ErrHandoverPending
	} else if !errors.Is(err, apperrors.ErrNotFound) {
		return nil, err
	}

	expected := balance.ExpectedHandover()
	variance := req.ActualAmount.Sub(expected)

	handover := domain.CashFloat{
		FloatID:          uuid.NewString(),
		TenantID:         actor.TenantID,
		CollectorID:      actor.UserID,
		Amount:           req.ActualAmount,
		Kind:             domain.FloatHandover,
		Status:           domain.FloatPending,
		FloatDate:        today,
		OpeningFloat:     balance.OpeningFloat,
		Collections:      balance.TotalCollections,
		Disbursements:    balance.TotalDisbursements,
		ExpectedAmount:   expected,
		ActualAmount:     req.ActualAmount,
		Variance:         variance,
		HandoverLocation: req.Location.ToDomain(),
		Notes:            req.Notes,
		AuditFields: domain.AuditFields{
			CreatedAt:     now,
			CreatedBy:     actor.UserID,
			LastUpdatedAt: now,
			LastUpdatedBy: actor.UserID,
		},
	}

	if err := s.floatRepo.SaveFloat(ctx, handover); err != nil {
		logger.Error("Failed to initiate handover", slog.String("collector_id", actor.UserID), slog.String("error", err.Error()))
		return nil, err
	}

	if !variance.IsZero() {
		logger.Warn("Handover initiated with variance",
			slog.String("handover_id", handover.FloatID),
			slog.String("collector_id", actor.UserID),
			slog.String("expected", expected.String()),
			slog.String("actual", req.ActualAmount.String()),
			slog.String("variance", variance.String()))
	} else {
		logger.Info("Handover initiated", slog.String("handover_id", handover.FloatID), slog.String("collector_id", actor.UserID))
	}
	return &handover, nil
}

// ConfirmHandover applies the cashier's accept or reject decision. Accept
// appends the closing ledger entry and closes the day; reject leaves the
// ledger untouched so the collector can initiate a fresh handover.
func (s *handoverService) ConfirmHandover(ctx context.Context, actor domain.Principal, handoverID string, req dto.ConfirmHandoverRequest) (*domain.CashFloat, error) {
	logger := middleware.GetLoggerFromCtx(ctx)

	if actor.Role == domain.RoleCollector {
		return nil, apperrors.ErrForbidden
	}
	if !req.Accepted && strings.TrimSpace(req.RejectionReason) == "" {
		return nil, apperrors.NewAppError(400, "rejection reason is required", apperrors.ErrValidation)
	}

	handover, err := s.floatRepo.FindFloatByID(ctx, actor.TenantID, handoverID)
	if err != nil {
		return nil, err
	}
	if handover.Kind != domain.FloatHandover {
		return nil, apperrors.NewAppError(400, "not a handover", apperrors.ErrValidation)
	}
	if handover.IsResolved() {
		return nil, apperrors.NewAppError(409, "handover already resolved", apperrors.ErrDuplicate)
	}

	now := s.now().UTC()
	handover.CashierID = actor.UserID
	handover.CashierConfirmedAt = &now
	handover.HandoverLocation = req.Location.ToDomain()
	if req.Notes != "" {
		handover.Notes = req.Notes
	}
	handover.LastUpdatedAt = now
	handover.LastUpdatedBy = actor.UserID

	if !req.Accepted {
		handover.Status = domain.FloatRejected
		handover.RejectionReason = req.RejectionReason
		if err := s.floatRepo.ResolveHandover(ctx, *handover, nil); err != nil {
			return nil, err
		}
		logger.Info("Handover rejected", slog.String("handover_id", handoverID), slog.String("reason", req.RejectionReason))
		return handover, nil
	}

	balance, err := s.balanceRepo.GetBalance(ctx, actor.TenantID, handover.CollectorID, dateOnly(handover.FloatDate))
	if err != nil {
		return nil, err
	}
	if balance.IsDayClosed {
		return nil, apperrors.ErrDayAlreadyClosed
	}

	handover.Status = domain.FloatConfirmed

	// The closing entry zeroes the ledger balance regardless of the cash
	// actually surrendered; any variance stays visible on the handover row.
	txn := domain.CashTransaction{
		TransactionID: uuid.NewString(),
		TenantID:      handover.TenantID,
		CollectorID:   handover.CollectorID,
		Date:          handover.FloatDate,
		Type:          domain.TxnHandover,
		Amount:        handover.ActualAmount,
		BalanceBefore: balance.CurrentBalance,
		BalanceAfter:  decimal.Zero,
		FloatID:       handover.FloatID,
		Location:      req.Location.ToDomain(),
		IsSynced:      true,
		AuditFields: domain.AuditFields{
			CreatedAt:     now,
			CreatedBy:     actor.UserID,
			LastUpdatedAt: now,
			LastUpdatedBy: actor.UserID,
		},
	}

	if err := s.floatRepo.ResolveHandover(ctx, *handover, &txn); err != nil {
		logger.Error("Failed to confirm handover", slog.String("handover_id", handoverID), slog.String("error", err.Error()))
		return nil, err
	}

	logger.Info("Handover confirmed, day closed",
		slog.String("handover_id", handoverID),
		slog.String("collector_id", handover.CollectorID),
		slog.String("variance", handover.Variance.String()))
	return handover, nil
}

func (s *handoverService) ListPendingHandovers(ctx context.Context, actor domain.Principal) ([]domain.CashFloat, error) {
	collectorID := ""
	if actor.Role == domain.RoleCollector {
		collectorID = actor.UserID
	}
	return s.floatRepo.ListPendingFloats(ctx, actor.TenantID, domain.FloatHandover, collectorID)
}
