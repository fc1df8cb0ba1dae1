package services

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
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

// staleRetries bounds how often an append is retried after losing a
// balance race to a concurrent writer.
const staleRetries = 3

// deferredAction is the payload parked inside a PENDING_APPROVAL audit row,
// replayed verbatim when a manager approves.
type deferredAction struct {
	ActionType         domain.ActionType   `json:"actionType"`
	Amount             decimal.Decimal     `json:"amount"`
	PenaltyAmount      decimal.Decimal     `json:"penaltyAmount,omitempty"`
	LoanID             string              `json:"loanID,omitempty"`
	PaymentID          string              `json:"paymentID,omitempty"`
	LocalTransactionID string              `json:"localTransactionID,omitempty"`
	Notes              string              `json:"notes,omitempty"`
	Location           *domain.Geolocation `json:"location,omitempty"`
}

// guardVerdict is the outcome of evaluating an action against the
// collector's authority limits.
type guardVerdict struct {
	escalate bool
	flagged  bool
	reason   string
}

// ledgerService handles guarded cash movements and ledger reads.
type ledgerService struct {
	ledgerRepo    portsrepo.LedgerRepositoryFacade
	balanceRepo   portsrepo.BalanceRepositoryFacade
	floatRepo     portsrepo.FloatRepositoryFacade
	limitsRepo    portsrepo.LimitsRepositoryFacade
	actionLogRepo portsrepo.ActionLogRepositoryFacade
	now           func() time.Time
}

// NewLedgerService creates a new LedgerService.
func NewLedgerService(
	ledgerRepo portsrepo.LedgerRepositoryFacade,
	balanceRepo portsrepo.BalanceRepositoryFacade,
	floatRepo portsrepo.FloatRepositoryFacade,
	limitsRepo portsrepo.LimitsRepositoryFacade,
	actionLogRepo portsrepo.ActionLogRepositoryFacade,
) portssvc.LedgerSvcFacade {
	return &ledgerService{
		ledgerRepo:    ledgerRepo,
		balanceRepo:   balanceRepo,
		floatRepo:     floatRepo,
		limitsRepo:    limitsRepo,
		actionLogRepo: actionLogRepo,
		now:           time.Now,
	}
}

var _ portssvc.LedgerSvcFacade = (*ledgerService)(nil)

// resolveActingCollector determines which collector's ledger an action
// targets. Collectors act only on their own ledger; back-office roles must
// name the collector explicitly.
func resolveActingCollector(actor domain.Principal, requested string) (string, error) {
	if actor.Role == domain.RoleCollector {
		if requested != "" && requested != actor.UserID {
			return "", apperrors.ErrForbidden
		}
		return actor.UserID, nil
	}
	if requested == "" {
		return "", apperrors.NewAppError(400, "collectorID is required", apperrors.ErrValidation)
	}
	return requested, nil
}

// loadLimits returns the limits version in force for the collector today,
// falling back to tenant defaults when none is configured.
func (s *ledgerService) loadLimits(ctx context.Context, tenantID, collectorID string, asOf time.Time) (*domain.CollectorLimits, error) {
	limits, err := s.limitsRepo.FindActiveLimits(ctx, tenantID, collectorID, asOf)
	if err != nil {
		if errors.Is(err, apperrors.ErrNotFound) {
			def := domain.DefaultLimits(tenantID, collectorID)
			return &def, nil
		}
		return nil, err
	}
	return limits, nil
}

// evaluateGuard applies the three authority bands: at or below the flag
// threshold the action runs clean, between the threshold and the category
// ceiling it runs flagged for review, above the ceiling it escalates to a
// manager. Rolling allowances are consumed on top of the bands: approvals
// against a per-day count, disbursements against daily and monthly totals,
// both read from the audit log and ledger at evaluation time.
func (s *ledgerService) evaluateGuard(ctx context.Context, limits *domain.CollectorLimits, action domain.ActionType, amount decimal.Decimal, today time.Time) (guardVerdict, error) {
	v := guardVerdict{}

	ceiling := limits.CeilingFor(action)
	if amount.GreaterThan(ceiling) {
		v.escalate = true
		v.reason = fmt.Sprintf("amount %s exceeds %s ceiling %s", amount, action, ceiling)
		return v, nil
	}

	if action == domain.ActionApproveApplication {
		approvals, err := s.actionLogRepo.CountActionsForDay(ctx, limits.TenantID, limits.CollectorID, action, today)
		if err != nil {
			return v, err
		}
		if approvals >= limits.MaxApprovalPerDay {
			v.escalate = true
			v.reason = fmt.Sprintf("daily approval allowance of %d exhausted", limits.MaxApprovalPerDay)
			return v, nil
		}
	}

	if action == domain.ActionDisburseLoan {
		dailyTotal, _, err := s.ledgerRepo.SumAmountByType(ctx, limits.TenantID, limits.CollectorID, domain.TxnDisbursement, today, today)
		if err != nil {
			return v, err
		}
		if dailyTotal.Add(amount).GreaterThan(limits.DailyDisbursementLimit) {
			v.escalate = true
			v.reason = fmt.Sprintf("daily disbursement limit %s exhausted: %s used, %s requested", limits.DailyDisbursementLimit, dailyTotal, amount)
			return v, nil
		}

		monthTotal, _, err := s.ledgerRepo.SumAmountByType(ctx, limits.TenantID, limits.CollectorID, domain.TxnDisbursement, monthStart(today), today)
		if err != nil {
			return v, err
		}
		if monthTotal.Add(amount).GreaterThan(limits.MonthlyDisbursementLimit) {
			v.escalate = true
			v.reason = fmt.Sprintf("monthly disbursement limit %s exhausted: %s used, %s requested", limits.MonthlyDisbursementLimit, monthTotal, amount)
			return v, nil
		}
	}

	v.flagged = amount.GreaterThan(limits.RequiresManagerApprovalAbove)
	return v, nil
}

// parkForApproval writes the PENDING_APPROVAL audit row carrying the full
// request payload, so approval can replay it without the client resending.
func (s *ledgerService) parkForApproval(ctx context.Context, actor domain.Principal, collectorID string, payload deferredAction, deviceInfo, reason string) (*domain.CollectorActionLog, error) {
	logger := middleware.GetLoggerFromCtx(ctx)

	raw, err := json.Marshal(payload)
	if err != nil {
		return nil, apperrors.NewAppError(500, "failed to encode deferred action", err)
	}

	log := domain.CollectorActionLog{
		LogID:       uuid.NewString(),
		TenantID:    actor.TenantID,
		CollectorID: collectorID,
		ActionType:  payload.ActionType,
		LoanID:      payload.LoanID,
		PaymentID:   payload.PaymentID,
		Amount:      payload.Amount,
		NewValue:    string(raw),
		Status:      domain.ActionPendingApproval,
		Notes:       reason,
		Location:    payload.Location,
		DeviceInfo:  deviceInfo,
		CreatedAt:   s.now().UTC(),
		CreatedBy:   actor.UserID,
	}

	if err := s.actionLogRepo.SaveLog(ctx, log); err != nil {
		return nil, err
	}

	logger.Info("Action escalated for manager approval",
		slog.String("log_id", log.LogID),
		slog.String("collector_id", collectorID),
		slog.String("action_type", string(payload.ActionType)),
		slog.String("reason", reason))
	return &log, nil
}

// checkHandoverFreeze blocks ledger writes while a handover initiated by
// the collector awaits cashier resolution.
func (s *ledgerService) checkHandoverFreeze(ctx context.Context, tenantID, collectorID string) error {
	today := dateOnly(s.now().UTC())
	if _, err := s.floatRepo.FindPendingHandover(ctx, tenantID, collectorID, today); err == nil {
		return apperrors.ErrHandoverPending
	} else if !errors.Is(err, apperrors.ErrNotFound) {
		return err
	}
	return nil
}

// appendWithAudit builds the ledger entry against the current snapshot and
// commits it together with the audit row, retrying a bounded number of
// times when a concurrent append moves the balance first.
func (s *ledgerService) appendWithAudit(ctx context.Context, actor domain.Principal, collectorID string, txnType domain.CashTransactionType, payload deferredAction, auditLog domain.CollectorActionLog) (*domain.CashTransaction, *domain.CollectorDailyBalance, error) {
	now := s.now().UTC()
	today := dateOnly(now)

	var lastErr error
	for attempt := 0; attempt < staleRetries; attempt++ {
		balance, err := s.balanceRepo.GetBalance(ctx, actor.TenantID, collectorID, today)
		if err != nil {
			if errors.Is(err, apperrors.ErrNotFound) {
				return nil, nil, apperrors.ErrUnconfirmedFloat
			}
			return nil, nil, err
		}

		txn := domain.CashTransaction{
			TransactionID:      uuid.NewString(),
			TenantID:           actor.TenantID,
			CollectorID:        collectorID,
			Date:               today,
			Type:               txnType,
			Amount:             payload.Amount,
			BalanceBefore:      balance.CurrentBalance,
			LoanID:             payload.LoanID,
			PaymentID:          payload.PaymentID,
			Location:           payload.Location,
			LocalTransactionID: payload.LocalTransactionID,
			IsSynced:           true,
			Notes:              payload.Notes,
			AuditFields: domain.AuditFields{
				CreatedAt:     now,
				CreatedBy:     actor.UserID,
				LastUpdatedAt: now,
				LastUpdatedBy: actor.UserID,
			},
		}
		delta, err := txn.SignedAmount()
		if err != nil {
			return nil, nil, apperrors.NewAppError(500, "failed to sign transaction amount", err)
		}
		txn.BalanceAfter = txn.BalanceBefore.Add(delta)

		persistedTxn, persistedBalance, err := s.ledgerRepo.AppendTransaction(ctx, txn, &auditLog)
		if err != nil {
			if errors.Is(err, apperrors.ErrStaleBalance) {
				lastErr = err
				continue
			}
			return nil, nil, err
		}
		return persistedTxn, persistedBalance, nil
	}
	return nil, nil, lastErr
}

// recordGuarded is the shared path for collections and disbursements:
// idempotency replay, handover block, authority guard, then the atomic
// ledger append.
func (s *ledgerService) recordGuarded(ctx context.Context, actor domain.Principal, collectorID string, action domain.ActionType, txnType domain.CashTransactionType, payload deferredAction, deviceInfo string) (*portssvc.GuardedActionResult, error) {
	logger := middleware.GetLoggerFromCtx(ctx)
	today := dateOnly(s.now().UTC())

	if !payload.Amount.IsPositive() {
		return nil, apperrors.NewAppError(400, "amount must be positive", apperrors.ErrValidation)
	}

	// Idempotent replay: a token the ledger has already seen returns the
	// original outcome without touching the guard again.
	if payload.LocalTransactionID != "" {
		prior, err := s.ledgerRepo.FindByLocalTransactionID(ctx, actor.TenantID, collectorID, payload.LocalTransactionID)
		if err == nil {
			balance, berr := s.balanceRepo.GetBalance(ctx, actor.TenantID, collectorID, dateOnly(prior.Date))
			if berr != nil && !errors.Is(berr, apperrors.ErrNotFound) {
				return nil, berr
			}
			logger.Info("Replayed transaction returned idempotently",
				slog.String("local_transaction_id", payload.LocalTransactionID),
				slog.String("transaction_id", prior.TransactionID))
			return &portssvc.GuardedActionResult{Executed: true, Transaction: prior, Balance: balance}, nil
		}
		if !errors.Is(err, apperrors.ErrNotFound) {
			return nil, err
		}
	}

	if err := s.checkHandoverFreeze(ctx, actor.TenantID, collectorID); err != nil {
		return nil, err
	}

	limits, err := s.loadLimits(ctx, actor.TenantID, collectorID, today)
	if err != nil {
		return nil, err
	}
	verdict, err := s.evaluateGuard(ctx, limits, action, payload.Amount, today)
	if err != nil {
		return nil, err
	}

	if verdict.escalate {
		log, err := s.parkForApproval(ctx, actor, collectorID, payload, deviceInfo, verdict.reason)
		if err != nil {
			return nil, err
		}
		return &portssvc.GuardedActionResult{Executed: false, Log: log}, nil
	}

	auditLog := domain.CollectorActionLog{
		LogID:            uuid.NewString(),
		TenantID:         actor.TenantID,
		CollectorID:      collectorID,
		ActionType:       action,
		LoanID:           payload.LoanID,
		PaymentID:        payload.PaymentID,
		Amount:           payload.Amount,
		Status:           domain.ActionSuccess,
		FlaggedForReview: verdict.flagged,
		Notes:            payload.Notes,
		Location:         payload.Location,
		DeviceInfo:       deviceInfo,
		CreatedAt:        s.now().UTC(),
		CreatedBy:        actor.UserID,
	}

	txn, balance, err := s.appendWithAudit(ctx, actor, collectorID, txnType, payload, auditLog)
	if err != nil {
		return nil, err
	}

	logger.Info("Cash transaction recorded",
		slog.String("transaction_id", txn.TransactionID),
		slog.String("collector_id", collectorID),
		slog.String("type", string(txnType)),
		slog.String("amount", payload.Amount.String()),
		slog.Bool("flagged", verdict.flagged))
	return &portssvc.GuardedActionResult{
		Executed:         true,
		FlaggedForReview: verdict.flagged,
		Transaction:      txn,
		Balance:          balance,
		Log:              &auditLog,
	}, nil
}

func (s *ledgerService) RecordCollection(ctx context.Context, actor domain.Principal, req dto.RecordCollectionRequest) (*portssvc.GuardedActionResult, error) {
	collectorID, err := resolveActingCollector(actor, req.CollectorID)
	if err != nil {
		return nil, err
	}
	payload := deferredAction{
		ActionType:         domain.ActionCollectPayment,
		Amount:             req.Amount,
		LoanID:             req.LoanID,
		PaymentID:          req.PaymentID,
		LocalTransactionID: req.LocalTransactionID,
		Notes:              req.Notes,
		Location:           req.Location.ToDomain(),
	}
	return s.recordGuarded(ctx, actor, collectorID, domain.ActionCollectPayment, domain.TxnCollection, payload, req.DeviceInfo)
}

func (s *ledgerService) RecordDisbursement(ctx context.Context, actor domain.Principal, req dto.RecordDisbursementRequest) (*portssvc.GuardedActionResult, error) {
	collectorID, err := resolveActingCollector(actor, req.CollectorID)
	if err != nil {
		return nil, err
	}
	payload := deferredAction{
		ActionType:         domain.ActionDisburseLoan,
		Amount:             req.Amount,
		LoanID:             req.LoanID,
		LocalTransactionID: req.LocalTransactionID,
		Notes:              req.Notes,
		Location:           req.Location.ToDomain(),
	}
	return s.recordGuarded(ctx, actor, collectorID, domain.ActionDisburseLoan, domain.TxnDisbursement, payload, req.DeviceInfo)
}

// WaivePenalty runs through the same authority guard as cash movements but
// moves no cash; execution is the SUCCESS audit row alone.
func (s *ledgerService) WaivePenalty(ctx context.Context, actor domain.Principal, req dto.WaivePenaltyRequest) (*portssvc.GuardedActionResult, error) {
	logger := middleware.GetLoggerFromCtx(ctx)

	collectorID, err := resolveActingCollector(actor, req.CollectorID)
	if err != nil {
		return nil, err
	}
	if !req.WaiverAmount.IsPositive() {
		return nil, apperrors.NewAppError(400, "waiver amount must be positive", apperrors.ErrValidation)
	}
	if req.WaiverAmount.GreaterThan(req.PenaltyAmount) {
		return nil, apperrors.NewAppError(400, "waiver cannot exceed the penalty", apperrors.ErrValidation)
	}

	today := dateOnly(s.now().UTC())
	limits, err := s.loadLimits(ctx, actor.TenantID, collectorID, today)
	if err != nil {
		return nil, err
	}

	payload := deferredAction{
		ActionType:    domain.ActionWaivePenalty,
		Amount:        req.WaiverAmount,
		PenaltyAmount: req.PenaltyAmount,
		LoanID:        req.LoanID,
		Notes:         req.Reason,
		Location:      req.Location.ToDomain(),
	}

	verdict, err := s.evaluateGuard(ctx, limits, domain.ActionWaivePenalty, req.WaiverAmount, today)
	if err != nil {
		return nil, err
	}
	if !verdict.escalate && req.PenaltyAmount.IsPositive() {
		pct := req.WaiverAmount.Div(req.PenaltyAmount).Mul(decimal.NewFromInt(100))
		if pct.GreaterThan(limits.MaxPenaltyWaiverPct) {
			verdict.escalate = true
			verdict.reason = fmt.Sprintf("waiver is %s%% of the penalty, above the %s%% limit", pct.StringFixed(1), limits.MaxPenaltyWaiverPct)
		}
	}

	if verdict.escalate {
		log, err := s.parkForApproval(ctx, actor, collectorID, payload, req.DeviceInfo, verdict.reason)
		if err != nil {
			return nil, err
		}
		return &portssvc.GuardedActionResult{Executed: false, Log: log}, nil
	}

	log := waiverSuccessLog(actor, collectorID, req, verdict.flagged, "", s.now().UTC())
	if err := s.actionLogRepo.SaveLog(ctx, log); err != nil {
		return nil, err
	}

	logger.Info("Penalty waived",
		slog.String("log_id", log.LogID),
		slog.String("collector_id", collectorID),
		slog.String("loan_id", req.LoanID),
		slog.String("amount", req.WaiverAmount.String()))
	return &portssvc.GuardedActionResult{Executed: true, FlaggedForReview: verdict.flagged, Log: &log}, nil
}

// waiverSuccessLog builds the SUCCESS audit row for a waiver, with before
// and after penalty snapshots.
func waiverSuccessLog(actor domain.Principal, collectorID string, req dto.WaivePenaltyRequest, flagged bool, resolvesLogID string, now time.Time) domain.CollectorActionLog {
	prev, _ := json.Marshal(map[string]string{"penaltyAmount": req.PenaltyAmount.String()})
	next, _ := json.Marshal(map[string]string{"penaltyAmount": req.PenaltyAmount.Sub(req.WaiverAmount).String(), "waivedAmount": req.WaiverAmount.String()})
	return domain.CollectorActionLog{
		LogID:            uuid.NewString(),
		TenantID:         actor.TenantID,
		CollectorID:      collectorID,
		ActionType:       domain.ActionWaivePenalty,
		LoanID:           req.LoanID,
		Amount:           req.WaiverAmount,
		PreviousValue:    string(prev),
		NewValue:         string(next),
		Status:           domain.ActionSuccess,
		FlaggedForReview: flagged,
		ResolvesLogID:    resolvesLogID,
		Notes:            req.Reason,
		Location:         req.Location.ToDomain(),
		DeviceInfo:       req.DeviceInfo,
		CreatedAt:        now,
		CreatedBy:        actor.UserID,
	}
}

func (s *ledgerService) GetBalance(ctx context.Context, actor domain.Principal, collectorID string, date time.Time) (*domain.CollectorDailyBalance, error) {
	if actor.Role == domain.RoleCollector {
		collectorID = actor.UserID
	} else if collectorID == "" {
		return nil, apperrors.NewAppError(400, "collectorID is required", apperrors.ErrValidation)
	}
	if date.IsZero() {
		date = dateOnly(s.now().UTC())
	}
	return s.balanceRepo.GetBalance(ctx, actor.TenantID, collectorID, dateOnly(date))
}

// GetBalanceMonitor is the back-office view over every collector's cash
// position for a date.
func (s *ledgerService) GetBalanceMonitor(ctx context.Context, actor domain.Principal, date time.Time) ([]domain.CollectorDailyBalance, error) {
	if actor.Role == domain.RoleCollector {
		return nil, apperrors.ErrForbidden
	}
	if date.IsZero() {
		date = dateOnly(s.now().UTC())
	}
	return s.balanceRepo.ListBalancesForDate(ctx, actor.TenantID, dateOnly(date))
}

func (s *ledgerService) ListTransactions(ctx context.Context, actor domain.Principal, params dto.ListTransactionsParams) (*dto.ListTransactionsResponse, error) {
	collectorID := params.CollectorID
	if actor.Role == domain.RoleCollector {
		collectorID = actor.UserID
	}

	var from, to time.Time
	if params.FromDate != "" {
		from = parseDateOr(params.FromDate, time.Time{})
	}
	if params.ToDate != "" {
		to = parseDateOr(params.ToDate, time.Time{})
	}

	txns, nextToken, err := s.ledgerRepo.ListTransactions(ctx, actor.TenantID, collectorID, domain.CashTransactionType(params.TxnType), from, to, params.Limit, params.NextToken)
	if err != nil {
		return nil, err
	}

	return &dto.ListTransactionsResponse{
		Transactions: dto.ToCashTransactionResponses(txns),
		NextToken:    nextToken,
	}, nil
}

// executeDeferred replays a parked action after manager approval. The
// resolution audit row commits in the same database transaction as the
// ledger entry for cash-moving actions. The pending-handover freeze is
// re-checked here: a handover initiated after the escalation still blocks
// the replay, same as it blocks a fresh write.
func (s *ledgerService) executeDeferred(ctx context.Context, actor domain.Principal, original domain.CollectorActionLog, resolution domain.CollectorActionLog) (*domain.CashTransaction, *domain.CollectorDailyBalance, error) {
	var payload deferredAction
	if err := json.Unmarshal([]byte(original.NewValue), &payload); err != nil {
		return nil, nil, apperrors.NewAppError(500, "failed to decode deferred action "+original.LogID, err)
	}

	switch payload.ActionType {
	case domain.ActionCollectPayment:
		if err := s.checkHandoverFreeze(ctx, actor.TenantID, original.CollectorID); err != nil {
			return nil, nil, err
		}
		txn, bal, err := s.appendWithAudit(ctx, actor, original.CollectorID, domain.TxnCollection, payload, resolution)
		return txn, bal, err
	case domain.ActionDisburseLoan:
		if err := s.checkHandoverFreeze(ctx, actor.TenantID, original.CollectorID); err != nil {
			return nil, nil, err
		}
		txn, bal, err := s.appendWithAudit(ctx, actor, original.CollectorID, domain.TxnDisbursement, payload, resolution)
		return txn, bal, err
	case domain.ActionWaivePenalty:
		return nil, nil, s.actionLogRepo.SaveLog(ctx, resolution)
	default:
		return nil, nil, apperrors.NewAppError(500, fmt.Sprintf("deferred action %s has no executor", payload.ActionType), apperrors.ErrInternal)
	}
}
