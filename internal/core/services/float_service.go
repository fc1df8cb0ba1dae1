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
	"github.com/shopspring/decimal"
)

// floatService handles the morning float issuance workflow.
type floatService struct {
	floatRepo portsrepo.FloatRepositoryFacade
	now       func() time.Time
}

// NewFloatService creates a new FloatService.
func NewFloatService(floatRepo portsrepo.FloatRepositoryFacade) portssvc.FloatSvcFacade {
	return &floatService{floatRepo: floatRepo, now: time.Now}
}

var _ portssvc.FloatSvcFacade = (*floatService)(nil)

// IssueFloat creates a pending issuance for the collector. The cashier
// issues; the collector must confirm receipt before the cash is usable.
func (s *floatService) IssueFloat(ctx context.Context, actor domain.Principal, req dto.IssueFloatRequest) (*domain.CashFloat, error) {
	logger := middleware.GetLoggerFromCtx(ctx)

	if actor.Role == domain.RoleCollector {
		return nil, apperrors.ErrForbidden
	}
	if !req.Amount.IsPositive() {
		return nil, apperrors.NewAppError(400, "float amount must be positive", apperrors.ErrValidation)
	}
	if !req.DailyCap.IsPositive() {
		return nil, apperrors.NewAppError(400, "daily cap must be positive", apperrors.ErrValidation)
	}

	now := s.now().UTC()
	floatDate := dateOnly(parseDateOr(req.FloatDate, now))

	// Friendly pre-check; the partial unique index is the real arbiter
	// under concurrency.
	if _, err := s.floatRepo.FindActiveIssuance(ctx, actor.TenantID, req.CollectorID, floatDate); err == nil {
		return nil, apperrors.ErrDuplicateFloat
	} else if !errors.Is(err, apperrors.ErrNotFound) {
		return nil, err
	}

	float := domain.CashFloat{
		FloatID:          uuid.NewString(),
		TenantID:         actor.TenantID,
		CollectorID:      req.CollectorID,
		CashierID:        actor.UserID,
		Amount:           req.Amount,
		Kind:             domain.FloatIssuance,
		Status:           domain.FloatPending,
		FloatDate:        floatDate,
		DailyCap:         req.DailyCap,
		IssuanceLocation: req.Location.ToDomain(),
		Notes:            req.Notes,
		AuditFields: domain.AuditFields{
			CreatedAt:     now,
			CreatedBy:     actor.UserID,
			LastUpdatedAt: now,
			LastUpdatedBy: actor.UserID,
		},
	}

	if err := s.floatRepo.SaveFloat(ctx, float); err != nil {
		logger.Error("Failed to issue float", slog.String("collector_id", req.CollectorID), slog.String("error", err.Error()))
		return nil, err
	}

	logger.Info("Float issued", slog.String("float_id", float.FloatID), slog.String("collector_id", req.CollectorID), slog.String("amount", req.Amount.String()))
	return &float, nil
}

// ConfirmFloatReceipt is the collector's acknowledgement. Confirming an
// already confirmed float returns it unchanged.
func (s *floatService) ConfirmFloatReceipt(ctx context.Context, actor domain.Principal, floatID string, location *domain.Geolocation) (*domain.CashFloat, error) {
	logger := middleware.GetLoggerFromCtx(ctx)

	float, err := s.floatRepo.FindFloatByID(ctx, actor.TenantID, floatID)
	if err != nil {
		return nil, err
	}
	if float.Kind != domain.FloatIssuance {
		return nil, apperrors.NewAppError(400, "not a float issuance", apperrors.ErrValidation)
	}
	if float.CollectorID != actor.UserID {
		return nil, apperrors.ErrForbidden
	}
	if float.Status == domain.FloatConfirmed {
		return float, nil
	}
	if float.Status == domain.FloatRejected {
		return nil, apperrors.NewAppError(400, "float issuance was rejected", apperrors.ErrValidation)
	}

	now := s.now().UTC()
	float.Status = domain.FloatConfirmed
	float.CollectorConfirmedAt = &now
	float.LastUpdatedAt = now
	float.LastUpdatedBy = actor.UserID

	txn := domain.CashTransaction{
		TransactionID: uuid.NewString(),
		TenantID:      float.TenantID,
		CollectorID:   float.CollectorID,
		Date:          float.FloatDate,
		Type:          domain.TxnFloatReceived,
		Amount:        float.Amount,
		BalanceBefore: decimal.Zero,
		BalanceAfter:  float.Amount,
		FloatID:       float.FloatID,
		Location:      location,
		IsSynced:      true,
		AuditFields: domain.AuditFields{
			CreatedAt:     now,
			CreatedBy:     actor.UserID,
			LastUpdatedAt: now,
			LastUpdatedBy: actor.UserID,
		},
	}

	balance := domain.CollectorDailyBalance{
		BalanceID:                uuid.NewString(),
		TenantID:                 float.TenantID,
		CollectorID:              float.CollectorID,
		BalanceDate:              float.FloatDate,
		OpeningFloat:             float.Amount,
		CurrentBalance:           float.Amount,
		DailyCap:                 float.DailyCap,
		AvailableForDisbursement: domain.ComputeAvailable(float.Amount, float.DailyCap, decimal.Zero),
		IsFloatConfirmed:         true,
		FloatIssuanceID:          float.FloatID,
		AuditFields:              txn.AuditFields,
	}

	if err := s.floatRepo.ConfirmIssuance(ctx, *float, txn, balance); err != nil {
		// Lost a confirmation race: the row is already confirmed, return it.
		if errors.Is(err, apperrors.ErrDuplicate) {
			return s.floatRepo.FindFloatByID(ctx, actor.TenantID, floatID)
		}
		logger.Error("Failed to confirm float receipt", slog.String("float_id", floatID), slog.String("error", err.Error()))
		return nil, err
	}

	logger.Info("Float receipt confirmed", slog.String("float_id", floatID), slog.String("collector_id", float.CollectorID))
	return float, nil
}

func (s *floatService) ListFloatHistory(ctx context.Context, actor domain.Principal, params dto.ListFloatsParams) (*dto.ListFloatsResponse, error) {
	collectorID := params.CollectorID
	if actor.Role == domain.RoleCollector {
		// Collectors see only their own history.
		collectorID = actor.UserID
	}

	var from, to time.Time
	if params.FromDate != "" {
		from = parseDateOr(params.FromDate, time.Time{})
	}
	if params.ToDate != "" {
		to = parseDateOr(params.ToDate, time.Time{})
	}

	floats, nextToken, err := s.floatRepo.ListFloats(ctx, actor.TenantID, collectorID, domain.FloatKind(params.Kind), from, to, params.Limit, params.NextToken)
	if err != nil {
		return nil, err
	}

	return &dto.ListFloatsResponse{
		Floats:    dto.ToCashFloatResponses(floats),
		NextToken: nextToken,
	}, nil
}

func (s *floatService) ListPendingIssuances(ctx context.Context, actor domain.Principal) ([]domain.CashFloat, error) {
	collectorID := ""
	if actor.Role == domain.RoleCollector {
		collectorID = actor.UserID
	}
	return s.floatRepo.ListPendingFloats(ctx, actor.TenantID, domain.FloatIssuance, collectorID)
}
