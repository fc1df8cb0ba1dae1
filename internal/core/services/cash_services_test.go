package services_test

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/pesoflow/lending_backend/internal/apperrors"
	"github.com/pesoflow/lending_backend/internal/core/domain"
	portsrepo "github.com/pesoflow/lending_backend/internal/core/ports"
	portssvc "github.com/pesoflow/lending_backend/internal/core/ports/services"
	"github.com/pesoflow/lending_backend/internal/core/services"
	"github.com/pesoflow/lending_backend/internal/dto"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"github.com/stretchr/testify/suite"
)

// --- Mock FloatRepository ---
type MockFloatRepository struct {
	mock.Mock
}

var _ portsrepo.FloatRepositoryFacade = (*MockFloatRepository)(nil)

func (m *MockFloatRepository) SaveFloat(ctx context.Context, float domain.CashFloat) error {
	args := m.Called(ctx, float)
	return args.Error(0)
}

func (m *MockFloatRepository) FindFloatByID(ctx context.Context, tenantID, floatID string) (*domain.CashFloat, error) {
	args := m.Called(ctx, tenantID, floatID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.CashFloat), args.Error(1)
}

func (m *MockFloatRepository) FindActiveIssuance(ctx context.Context, tenantID, collectorID string, date time.Time) (*domain.CashFloat, error) {
	args := m.Called(ctx, tenantID, collectorID, date)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.CashFloat), args.Error(1)
}

func (m *MockFloatRepository) FindPendingHandover(ctx context.Context, tenantID, collectorID string, date time.Time) (*domain.CashFloat, error) {
	args := m.Called(ctx, tenantID, collectorID, date)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.CashFloat), args.Error(1)
}

func (m *MockFloatRepository) ConfirmIssuance(ctx context.Context, float domain.CashFloat, txn domain.CashTransaction, balance domain.CollectorDailyBalance) error {
	args := m.Called(ctx, float, txn, balance)
	return args.Error(0)
}

func (m *MockFloatRepository) ResolveHandover(ctx context.Context, handover domain.CashFloat, txn *domain.CashTransaction) error {
	args := m.Called(ctx, handover, txn)
	return args.Error(0)
}

func (m *MockFloatRepository) ListFloats(ctx context.Context, tenantID, collectorID string, kind domain.FloatKind, from, to time.Time, limit int, nextToken *string) ([]domain.CashFloat, *string, error) {
	args := m.Called(ctx, tenantID, collectorID, kind, from, to, limit, nextToken)
	if args.Get(0) == nil {
		return nil, nil, args.Error(2)
	}
	var token *string
	if args.Get(1) != nil {
		v := args.Get(1).(string)
		token = &v
	}
	return args.Get(0).([]domain.CashFloat), token, args.Error(2)
}

func (m *MockFloatRepository) ListPendingFloats(ctx context.Context, tenantID string, kind domain.FloatKind, collectorID string) ([]domain.CashFloat, error) {
	args := m.Called(ctx, tenantID, kind, collectorID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]domain.CashFloat), args.Error(1)
}

// --- Mock LedgerRepository ---
type MockLedgerRepository struct {
	mock.Mock
}

var _ portsrepo.LedgerRepositoryFacade = (*MockLedgerRepository)(nil)

func (m *MockLedgerRepository) AppendTransaction(ctx context.Context, txn domain.CashTransaction, auditLog *domain.CollectorActionLog) (*domain.CashTransaction, *domain.CollectorDailyBalance, error) {
	args := m.Called(ctx, txn, auditLog)
	if args.Get(0) == nil {
		return nil, nil, args.Error(2)
	}
	return args.Get(0).(*domain.CashTransaction), args.Get(1).(*domain.CollectorDailyBalance), args.Error(2)
}

func (m *MockLedgerRepository) FindByLocalTransactionID(ctx context.Context, tenantID, collectorID, localTxnID string) (*domain.CashTransaction, error) {
	args := m.Called(ctx, tenantID, collectorID, localTxnID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.CashTransaction), args.Error(1)
}

func (m *MockLedgerRepository) ListTransactionsForDay(ctx context.Context, tenantID, collectorID string, date time.Time) ([]domain.CashTransaction, error) {
	args := m.Called(ctx, tenantID, collectorID, date)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]domain.CashTransaction), args.Error(1)
}

func (m *MockLedgerRepository) ListTransactions(ctx context.Context, tenantID, collectorID string, txnType domain.CashTransactionType, from, to time.Time, limit int, nextToken *string) ([]domain.CashTransaction, *string, error) {
	args := m.Called(ctx, tenantID, collectorID, txnType, from, to, limit, nextToken)
	if args.Get(0) == nil {
		return nil, nil, args.Error(2)
	}
	var token *string
	if args.Get(1) != nil {
		v := args.Get(1).(string)
		token = &v
	}
	return args.Get(0).([]domain.CashTransaction), token, args.Error(2)
}

func (m *MockLedgerRepository) SumAmountByType(ctx context.Context, tenantID, collectorID string, txnType domain.CashTransactionType, from, to time.Time) (decimal.Decimal, int, error) {
	args := m.Called(ctx, tenantID, collectorID, txnType, from, to)
	return args.Get(0).(decimal.Decimal), args.Int(1), args.Error(2)
}

// --- Mock BalanceRepository ---
type MockBalanceRepository struct {
	mock.Mock
}

var _ portsrepo.BalanceRepositoryFacade = (*MockBalanceRepository)(nil)

func (m *MockBalanceRepository) GetBalance(ctx context.Context, tenantID, collectorID string, date time.Time) (*domain.CollectorDailyBalance, error) {
	args := m.Called(ctx, tenantID, collectorID, date)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.CollectorDailyBalance), args.Error(1)
}

func (m *MockBalanceRepository) ListBalancesForDate(ctx context.Context, tenantID string, date time.Time) ([]domain.CollectorDailyBalance, error) {
	args := m.Called(ctx, tenantID, date)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]domain.CollectorDailyBalance), args.Error(1)
}

// --- Mock LimitsRepository ---
type MockLimitsRepository struct {
	mock.Mock
}

var _ portsrepo.LimitsRepositoryFacade = (*MockLimitsRepository)(nil)

func (m *MockLimitsRepository) FindActiveLimits(ctx context.Context, tenantID, collectorID string, asOf time.Time) (*domain.CollectorLimits, error) {
	args := m.Called(ctx, tenantID, collectorID, asOf)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.CollectorLimits), args.Error(1)
}

func (m *MockLimitsRepository) SaveLimitsVersion(ctx context.Context, limits domain.CollectorLimits) error {
	args := m.Called(ctx, limits)
	return args.Error(0)
}

// --- Mock ActionLogRepository ---
type MockActionLogRepository struct {
	mock.Mock
}

var _ portsrepo.ActionLogRepositoryFacade = (*MockActionLogRepository)(nil)

func (m *MockActionLogRepository) SaveLog(ctx context.Context, log domain.CollectorActionLog) error {
	args := m.Called(ctx, log)
	return args.Error(0)
}

func (m *MockActionLogRepository) FindLogByID(ctx context.Context, tenantID, logID string) (*domain.CollectorActionLog, error) {
	args := m.Called(ctx, tenantID, logID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.CollectorActionLog), args.Error(1)
}

func (m *MockActionLogRepository) FindResolutionFor(ctx context.Context, tenantID, logID string) (*domain.CollectorActionLog, error) {
	args := m.Called(ctx, tenantID, logID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.CollectorActionLog), args.Error(1)
}

func (m *MockActionLogRepository) ListLogs(ctx context.Context, tenantID, collectorID string, actionType domain.ActionType, status domain.ActionStatus, from, to time.Time, limit int) ([]domain.CollectorActionLog, error) {
	args := m.Called(ctx, tenantID, collectorID, actionType, status, from, to, limit)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]domain.CollectorActionLog), args.Error(1)
}

func (m *MockActionLogRepository) ListPendingUnresolved(ctx context.Context, tenantID string, limit int) ([]domain.CollectorActionLog, error) {
	args := m.Called(ctx, tenantID, limit)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]domain.CollectorActionLog), args.Error(1)
}

func (m *MockActionLogRepository) CountActionsForDay(ctx context.Context, tenantID, collectorID string, actionType domain.ActionType, date time.Time) (int, error) {
	args := m.Called(ctx, tenantID, collectorID, actionType, date)
	return args.Int(0), args.Error(1)
}

func (m *MockActionLogRepository) SumActionAmounts(ctx context.Context, tenantID, collectorID string, actionType domain.ActionType, from, to time.Time) (decimal.Decimal, int, error) {
	args := m.Called(ctx, tenantID, collectorID, actionType, from, to)
	return args.Get(0).(decimal.Decimal), args.Int(1), args.Error(2)
}

// --- FloatService suite ---

type FloatServiceTestSuite struct {
	suite.Suite
	floatRepo *MockFloatRepository
	service   portssvc.FloatSvcFacade

	tenantID  string
	cashier   domain.Principal
	collector domain.Principal
}

func (s *FloatServiceTestSuite) SetupTest() {
	s.floatRepo = new(MockFloatRepository)
	s.service = services.NewFloatService(s.floatRepo)

	s.tenantID = uuid.NewString()
	s.cashier = domain.Principal{TenantID: s.tenantID, UserID: uuid.NewString(), Role: domain.RoleCashier}
	s.collector = domain.Principal{TenantID: s.tenantID, UserID: uuid.NewString(), Role: domain.RoleCollector}
}

func (s *FloatServiceTestSuite) TestIssueFloat_Success() {
	ctx := context.Background()
	req := dto.IssueFloatRequest{
		CollectorID: s.collector.UserID,
		Amount:      decimal.NewFromInt(50000),
		DailyCap:    decimal.NewFromInt(30000),
	}

	s.floatRepo.On("FindActiveIssuance", ctx, s.tenantID, s.collector.UserID, mock.Anything).Return(nil, apperrors.ErrNotFound).Once()
	s.floatRepo.On("SaveFloat", ctx, mock.MatchedBy(func(f domain.CashFloat) bool {
		return f.Kind == domain.FloatIssuance &&
			f.Status == domain.FloatPending &&
			f.Amount.Equal(decimal.NewFromInt(50000)) &&
			f.CashierID == s.cashier.UserID &&
			f.CollectorID == s.collector.UserID
	})).Return(nil).Once()

	float, err := s.service.IssueFloat(ctx, s.cashier, req)

	require.NoError(s.T(), err)
	assert.Equal(s.T(), domain.FloatPending, float.Status)
	assert.NotEmpty(s.T(), float.FloatID)
	s.floatRepo.AssertExpectations(s.T())
}

func (s *FloatServiceTestSuite) TestIssueFloat_DuplicateSameDay() {
	ctx := context.Background()
	req := dto.IssueFloatRequest{
		CollectorID: s.collector.UserID,
		Amount:      decimal.NewFromInt(50000),
		DailyCap:    decimal.NewFromInt(30000),
	}
	existing := &domain.CashFloat{FloatID: uuid.NewString(), Status: domain.FloatPending}

	s.floatRepo.On("FindActiveIssuance", ctx, s.tenantID, s.collector.UserID, mock.Anything).Return(existing, nil).Once()

	_, err := s.service.IssueFloat(ctx, s.cashier, req)

	assert.ErrorIs(s.T(), err, apperrors.ErrDuplicateFloat)
	s.floatRepo.AssertNotCalled(s.T(), "SaveFloat", mock.Anything, mock.Anything)
}

func (s *FloatServiceTestSuite) TestIssueFloat_CollectorForbidden() {
	ctx := context.Background()
	req := dto.IssueFloatRequest{
		CollectorID: s.collector.UserID,
		Amount:      decimal.NewFromInt(50000),
		DailyCap:    decimal.NewFromInt(30000),
	}

	_, err := s.service.IssueFloat(ctx, s.collector, req)

	assert.ErrorIs(s.T(), err, apperrors.ErrForbidden)
}

func (s *FloatServiceTestSuite) TestConfirmFloatReceipt_CreatesLedgerEntryAndSnapshot() {
	ctx := context.Background()
	floatID := uuid.NewString()
	pending := &domain.CashFloat{
		FloatID:     floatID,
		TenantID:    s.tenantID,
		CollectorID: s.collector.UserID,
		Amount:      decimal.NewFromInt(50000),
		Kind:        domain.FloatIssuance,
		Status:      domain.FloatPending,
		FloatDate:   time.Date(2026, 8, 30, 0, 0, 0, 0, time.UTC),
		DailyCap:    decimal.NewFromInt(30000),
	}

	s.floatRepo.On("FindFloatByID", ctx, s.tenantID, floatID).Return(pending, nil).Once()
	s.floatRepo.On("ConfirmIssuance", ctx,
		mock.MatchedBy(func(f domain.CashFloat) bool {
			return f.Status == domain.FloatConfirmed && f.CollectorConfirmedAt != nil
		}),
		mock.MatchedBy(func(t domain.CashTransaction) bool {
			return t.Type == domain.TxnFloatReceived &&
				t.BalanceBefore.IsZero() &&
				t.BalanceAfter.Equal(decimal.NewFromInt(50000)) &&
				t.FloatID == floatID
		}),
		mock.MatchedBy(func(b domain.CollectorDailyBalance) bool {
			return b.OpeningFloat.Equal(decimal.NewFromInt(50000)) &&
				b.CurrentBalance.Equal(decimal.NewFromInt(50000)) &&
				b.AvailableForDisbursement.Equal(decimal.NewFromInt(30000)) &&
				b.IsFloatConfirmed && !b.IsDayClosed
		}),
	).Return(nil).Once()

	confirmed, err := s.service.ConfirmFloatReceipt(ctx, s.collector, floatID, nil)

	require.NoError(s.T(), err)
	assert.Equal(s.T(), domain.FloatConfirmed, confirmed.Status)
	s.floatRepo.AssertExpectations(s.T())
}

func (s *FloatServiceTestSuite) TestConfirmFloatReceipt_AlreadyConfirmedIsIdempotent() {
	ctx := context.Background()
	floatID := uuid.NewString()
	confirmedAt := time.Now().UTC()
	confirmed := &domain.CashFloat{
		FloatID:              floatID,
		TenantID:             s.tenantID,
		CollectorID:          s.collector.UserID,
		Kind:                 domain.FloatIssuance,
		Status:               domain.FloatConfirmed,
		CollectorConfirmedAt: &confirmedAt,
	}

	s.floatRepo.On("FindFloatByID", ctx, s.tenantID, floatID).Return(confirmed, nil).Once()

	got, err := s.service.ConfirmFloatReceipt(ctx, s.collector, floatID, nil)

	require.NoError(s.T(), err)
	assert.Equal(s.T(), confirmed, got)
	s.floatRepo.AssertNotCalled(s.T(), "ConfirmIssuance", mock.Anything, mock.Anything, mock.Anything, mock.Anything)
}

func (s *FloatServiceTestSuite) TestConfirmFloatReceipt_WrongCollector() {
	ctx := context.Background()
	floatID := uuid.NewString()
	someoneElses := &domain.CashFloat{
		FloatID:     floatID,
		TenantID:    s.tenantID,
		CollectorID: uuid.NewString(),
		Kind:        domain.FloatIssuance,
		Status:      domain.FloatPending,
	}

	s.floatRepo.On("FindFloatByID", ctx, s.tenantID, floatID).Return(someoneElses, nil).Once()

	_, err := s.service.ConfirmFloatReceipt(ctx, s.collector, floatID, nil)

	assert.ErrorIs(s.T(), err, apperrors.ErrForbidden)
}

func TestFloatServiceTestSuite(t *testing.T) {
	suite.Run(t, new(FloatServiceTestSuite))
}

// --- HandoverService suite ---

type HandoverServiceTestSuite struct {
	suite.Suite
	floatRepo   *MockFloatRepository
	balanceRepo *MockBalanceRepository
	service     portssvc.HandoverSvcFacade

	tenantID  string
	cashier   domain.Principal
	collector domain.Principal
	balance   *domain.CollectorDailyBalance
}

func (s *HandoverServiceTestSuite) SetupTest() {
	s.floatRepo = new(MockFloatRepository)
	s.balanceRepo = new(MockBalanceRepository)
	s.service = services.NewHandoverService(s.floatRepo, s.balanceRepo)

	s.tenantID = uuid.NewString()
	s.cashier = domain.Principal{TenantID: s.tenantID, UserID: uuid.NewString(), Role: domain.RoleCashier}
	s.collector = domain.Principal{TenantID: s.tenantID, UserID: uuid.NewString(), Role: domain.RoleCollector}

	// Opening 50000, collected 5000, disbursed 20000: expected handover 35000.
	s.balance = &domain.CollectorDailyBalance{
		BalanceID:          uuid.NewString(),
		TenantID:           s.tenantID,
		CollectorID:        s.collector.UserID,
		OpeningFloat:       decimal.NewFromInt(50000),
		TotalCollections:   decimal.NewFromInt(5000),
		TotalDisbursements: decimal.NewFromInt(20000),
		CurrentBalance:     decimal.NewFromInt(35000),
		DailyCap:           decimal.NewFromInt(30000),
		IsFloatConfirmed:   true,
	}
}

func (s *HandoverServiceTestSuite) TestInitiateHandover_FreezesExpectedAndVariance() {
	ctx := context.Background()

	s.balanceRepo.On("GetBalance", ctx, s.tenantID, s.collector.UserID, mock.Anything).Return(s.balance, nil).Once()
	s.floatRepo.On("FindPendingHandover", ctx, s.tenantID, s.collector.UserID, mock.Anything).Return(nil, apperrors.ErrNotFound).Once()
	s.floatRepo.On("SaveFloat", ctx, mock.MatchedBy(func(f domain.CashFloat) bool {
		return f.Kind == domain.FloatHandover &&
			f.Status == domain.FloatPending &&
			f.ExpectedAmount.Equal(decimal.NewFromInt(35000)) &&
			f.ActualAmount.Equal(decimal.NewFromInt(34500)) &&
			f.Variance.Equal(decimal.NewFromInt(-500))
	})).Return(nil).Once()

	handover, err := s.service.InitiateHandover(ctx, s.collector, dto.InitiateHandoverRequest{
		ActualAmount: decimal.NewFromInt(34500),
	})

	require.NoError(s.T(), err)
	assert.True(s.T(), handover.Variance.Equal(decimal.NewFromInt(-500)))
	s.floatRepo.AssertExpectations(s.T())
}

func (s *HandoverServiceTestSuite) TestInitiateHandover_UnconfirmedFloat() {
	ctx := context.Background()
	s.balanceRepo.On("GetBalance", ctx, s.tenantID, s.collector.UserID, mock.Anything).Return(nil, apperrors.ErrNotFound).Once()

	_, err := s.service.InitiateHandover(ctx, s.collector, dto.InitiateHandoverRequest{
		ActualAmount: decimal.NewFromInt(1000),
	})

	assert.ErrorIs(s.T(), err, apperrors.ErrUnconfirmedFloat)
}

func (s *HandoverServiceTestSuite) TestInitiateHandover_AlreadyPending() {
	ctx := context.Background()
	s.balanceRepo.On("GetBalance", ctx, s.tenantID, s.collector.UserID, mock.Anything).Return(s.balance, nil).Once()
	s.floatRepo.On("FindPendingHandover", ctx, s.tenantID, s.collector.UserID, mock.Anything).Return(&domain.CashFloat{FloatID: uuid.NewString()}, nil).Once()

	_, err := s.service.InitiateHandover(ctx, s.collector, dto.InitiateHandoverRequest{
		ActualAmount: decimal.NewFromInt(35000),
	})

	assert.ErrorIs(s.T(), err, apperrors.ErrHandoverPending)
}

func (s *HandoverServiceTestSuite) TestInitiateHandover_DayClosed() {
	ctx := context.Background()
	closed := *s.balance
	closed.IsDayClosed = true
	s.balanceRepo.On("GetBalance", ctx, s.tenantID, s.collector.UserID, mock.Anything).Return(&closed, nil).Once()

	_, err := s.service.InitiateHandover(ctx, s.collector, dto.InitiateHandoverRequest{
		ActualAmount: decimal.NewFromInt(35000),
	})

	assert.ErrorIs(s.T(), err, apperrors.ErrDayAlreadyClosed)
}

func (s *HandoverServiceTestSuite) TestConfirmHandover_AcceptClosesDayToZero() {
	ctx := context.Background()
	handoverID := uuid.NewString()
	pending := &domain.CashFloat{
		FloatID:        handoverID,
		TenantID:       s.tenantID,
		CollectorID:    s.collector.UserID,
		Amount:         decimal.NewFromInt(34500),
		Kind:           domain.FloatHandover,
		Status:         domain.FloatPending,
		FloatDate:      time.Date(2026, 8, 30, 0, 0, 0, 0, time.UTC),
		ExpectedAmount: decimal.NewFromInt(35000),
		ActualAmount:   decimal.NewFromInt(34500),
		Variance:       decimal.NewFromInt(-500),
	}

	s.floatRepo.On("FindFloatByID", ctx, s.tenantID, handoverID).Return(pending, nil).Once()
	s.balanceRepo.On("GetBalance", ctx, s.tenantID, s.collector.UserID, pending.FloatDate).Return(s.balance, nil).Once()
	s.floatRepo.On("ResolveHandover", ctx,
		mock.MatchedBy(func(f domain.CashFloat) bool {
			return f.Status == domain.FloatConfirmed && f.CashierConfirmedAt != nil && f.CashierID == s.cashier.UserID
		}),
		mock.MatchedBy(func(t *domain.CashTransaction) bool {
			return t != nil &&
				t.Type == domain.TxnHandover &&
				t.BalanceBefore.Equal(decimal.NewFromInt(35000)) &&
				t.BalanceAfter.IsZero()
		}),
	).Return(nil).Once()

	confirmed, err := s.service.ConfirmHandover(ctx, s.cashier, handoverID, dto.ConfirmHandoverRequest{Accepted: true})

	require.NoError(s.T(), err)
	assert.Equal(s.T(), domain.FloatConfirmed, confirmed.Status)
	s.floatRepo.AssertExpectations(s.T())
}

func (s *HandoverServiceTestSuite) TestConfirmHandover_RejectLeavesLedgerUntouched() {
	ctx := context.Background()
	handoverID := uuid.NewString()
	pending := &domain.CashFloat{
		FloatID:     handoverID,
		TenantID:    s.tenantID,
		CollectorID: s.collector.UserID,
		Kind:        domain.FloatHandover,
		Status:      domain.FloatPending,
	}

	s.floatRepo.On("FindFloatByID", ctx, s.tenantID, handoverID).Return(pending, nil).Once()
	s.floatRepo.On("ResolveHandover", ctx,
		mock.MatchedBy(func(f domain.CashFloat) bool {
			return f.Status == domain.FloatRejected && f.RejectionReason == "count mismatch"
		}),
		(*domain.CashTransaction)(nil),
	).Return(nil).Once()

	rejected, err := s.service.ConfirmHandover(ctx, s.cashier, handoverID, dto.ConfirmHandoverRequest{
		Accepted:        false,
		RejectionReason: "count mismatch",
	})

	require.NoError(s.T(), err)
	assert.Equal(s.T(), domain.FloatRejected, rejected.Status)
	s.floatRepo.AssertExpectations(s.T())
}

func (s *HandoverServiceTestSuite) TestConfirmHandover_RejectRequiresReason() {
	ctx := context.Background()

	_, err := s.service.ConfirmHandover(ctx, s.cashier, uuid.NewString(), dto.ConfirmHandoverRequest{Accepted: false})

	assert.ErrorIs(s.T(), err, apperrors.ErrValidation)
}

func TestHandoverServiceTestSuite(t *testing.T) {
	suite.Run(t, new(HandoverServiceTestSuite))
}

// --- LedgerService suite ---

type LedgerServiceTestSuite struct {
	suite.Suite
	ledgerRepo    *MockLedgerRepository
	balanceRepo   *MockBalanceRepository
	floatRepo     *MockFloatRepository
	limitsRepo    *MockLimitsRepository
	actionLogRepo *MockActionLogRepository
	service       portssvc.LedgerSvcFacade

	tenantID  string
	collector domain.Principal
	limits    *domain.CollectorLimits
	balance   *domain.CollectorDailyBalance
}

func (s *LedgerServiceTestSuite) SetupTest() {
	s.ledgerRepo = new(MockLedgerRepository)
	s.balanceRepo = new(MockBalanceRepository)
	s.floatRepo = new(MockFloatRepository)
	s.limitsRepo = new(MockLimitsRepository)
	s.actionLogRepo = new(MockActionLogRepository)
	s.service = services.NewLedgerService(s.ledgerRepo, s.balanceRepo, s.floatRepo, s.limitsRepo, s.actionLogRepo)

	s.tenantID = uuid.NewString()
	s.collector = domain.Principal{TenantID: s.tenantID, UserID: uuid.NewString(), Role: domain.RoleCollector}

	s.limits = &domain.CollectorLimits{
		TenantID:                     s.tenantID,
		CollectorID:                  s.collector.UserID,
		MaxApprovalAmount:            decimal.NewFromInt(50000),
		MaxApprovalPerDay:            10,
		MaxDisbursementAmount:        decimal.NewFromInt(10000),
		DailyDisbursementLimit:       decimal.NewFromInt(500000),
		MonthlyDisbursementLimit:     decimal.NewFromInt(5000000),
		MaxPenaltyWaiverAmount:       decimal.NewFromInt(5000),
		MaxPenaltyWaiverPct:          decimal.NewFromInt(50),
		RequiresManagerApprovalAbove: decimal.NewFromInt(2000),
		MaxCashCollectionPerTxn:      decimal.NewFromInt(50000),
		IsActive:                     true,
	}

	s.balance = &domain.CollectorDailyBalance{
		BalanceID:                uuid.NewString(),
		TenantID:                 s.tenantID,
		CollectorID:              s.collector.UserID,
		OpeningFloat:             decimal.NewFromInt(50000),
		CurrentBalance:           decimal.NewFromInt(50000),
		DailyCap:                 decimal.NewFromInt(30000),
		AvailableForDisbursement: decimal.NewFromInt(30000),
		IsFloatConfirmed:         true,
	}
}

func (s *LedgerServiceTestSuite) expectGuardPreamble(localTxnID string) {
	ctx := context.Background()
	if localTxnID != "" {
		s.ledgerRepo.On("FindByLocalTransactionID", ctx, s.tenantID, s.collector.UserID, localTxnID).Return(nil, apperrors.ErrNotFound).Once()
	}
	s.floatRepo.On("FindPendingHandover", ctx, s.tenantID, s.collector.UserID, mock.Anything).Return(nil, apperrors.ErrNotFound).Once()
	s.limitsRepo.On("FindActiveLimits", ctx, s.tenantID, s.collector.UserID, mock.Anything).Return(s.limits, nil).Once()
}

func (s *LedgerServiceTestSuite) TestRecordCollection_ExecutesBelowThreshold() {
	ctx := context.Background()
	localTxnID := uuid.NewString()
	s.expectGuardPreamble(localTxnID)

	s.balanceRepo.On("GetBalance", ctx, s.tenantID, s.collector.UserID, mock.Anything).Return(s.balance, nil).Once()

	persistedBalance := *s.balance
	persistedBalance.TotalCollections = decimal.NewFromInt(1500)
	persistedBalance.CurrentBalance = decimal.NewFromInt(51500)
	var persistedTxn domain.CashTransaction
	s.ledgerRepo.On("AppendTransaction", ctx,
		mock.MatchedBy(func(t domain.CashTransaction) bool {
			persistedTxn = t
			return t.Type == domain.TxnCollection &&
				t.Amount.Equal(decimal.NewFromInt(1500)) &&
				t.BalanceBefore.Equal(decimal.NewFromInt(50000)) &&
				t.BalanceAfter.Equal(decimal.NewFromInt(51500)) &&
				t.LocalTransactionID == localTxnID
		}),
		mock.MatchedBy(func(l *domain.CollectorActionLog) bool {
			return l != nil && l.Status == domain.ActionSuccess && !l.FlaggedForReview
		}),
	).Return(&persistedTxn, &persistedBalance, nil).Once()

	result, err := s.service.RecordCollection(ctx, s.collector, dto.RecordCollectionRequest{
		Amount:             decimal.NewFromInt(1500),
		LocalTransactionID: localTxnID,
	})

	require.NoError(s.T(), err)
	assert.True(s.T(), result.Executed)
	assert.False(s.T(), result.FlaggedForReview)
	assert.True(s.T(), result.Balance.CurrentBalance.Equal(decimal.NewFromInt(51500)))
	s.ledgerRepo.AssertExpectations(s.T())
}

func (s *LedgerServiceTestSuite) TestRecordCollection_ReplayReturnsOriginal() {
	ctx := context.Background()
	localTxnID := uuid.NewString()
	prior := &domain.CashTransaction{
		TransactionID:      uuid.NewString(),
		TenantID:           s.tenantID,
		CollectorID:        s.collector.UserID,
		Type:               domain.TxnCollection,
		Amount:             decimal.NewFromInt(1500),
		LocalTransactionID: localTxnID,
	}

	s.ledgerRepo.On("FindByLocalTransactionID", ctx, s.tenantID, s.collector.UserID, localTxnID).Return(prior, nil).Once()
	s.balanceRepo.On("GetBalance", ctx, s.tenantID, s.collector.UserID, mock.Anything).Return(s.balance, nil).Once()

	result, err := s.service.RecordCollection(ctx, s.collector, dto.RecordCollectionRequest{
		Amount:             decimal.NewFromInt(1500),
		LocalTransactionID: localTxnID,
	})

	require.NoError(s.T(), err)
	assert.True(s.T(), result.Executed)
	assert.Equal(s.T(), prior.TransactionID, result.Transaction.TransactionID)
	s.ledgerRepo.AssertNotCalled(s.T(), "AppendTransaction", mock.Anything, mock.Anything, mock.Anything)
}

func (s *LedgerServiceTestSuite) TestRecordDisbursement_AboveCeilingParksForApproval() {
	ctx := context.Background()
	localTxnID := uuid.NewString()
	s.expectGuardPreamble(localTxnID)

	s.actionLogRepo.On("SaveLog", ctx, mock.MatchedBy(func(l domain.CollectorActionLog) bool {
		return l.Status == domain.ActionPendingApproval &&
			l.ActionType == domain.ActionDisburseLoan &&
			l.Amount.Equal(decimal.NewFromInt(15000)) &&
			l.NewValue != ""
	})).Return(nil).Once()

	result, err := s.service.RecordDisbursement(ctx, s.collector, dto.RecordDisbursementRequest{
		Amount:             decimal.NewFromInt(15000),
		LoanID:             uuid.NewString(),
		LocalTransactionID: localTxnID,
	})

	require.NoError(s.T(), err)
	assert.False(s.T(), result.Executed)
	assert.Nil(s.T(), result.Transaction)
	require.NotNil(s.T(), result.Log)
	assert.Equal(s.T(), domain.ActionPendingApproval, result.Log.Status)
	s.ledgerRepo.AssertNotCalled(s.T(), "AppendTransaction", mock.Anything, mock.Anything, mock.Anything)
}

func (s *LedgerServiceTestSuite) TestRecordDisbursement_MidBandExecutesFlagged() {
	ctx := context.Background()
	localTxnID := uuid.NewString()
	s.expectGuardPreamble(localTxnID)

	// Within the 10000 ceiling but above the 2000 review threshold.
	s.ledgerRepo.On("SumAmountByType", ctx, s.tenantID, s.collector.UserID, domain.TxnDisbursement, mock.Anything, mock.Anything).Return(decimal.Zero, 0, nil).Twice()
	s.balanceRepo.On("GetBalance", ctx, s.tenantID, s.collector.UserID, mock.Anything).Return(s.balance, nil).Once()

	persistedBalance := *s.balance
	persistedBalance.TotalDisbursements = decimal.NewFromInt(5000)
	persistedBalance.CurrentBalance = decimal.NewFromInt(45000)
	var persistedTxn domain.CashTransaction
	s.ledgerRepo.On("AppendTransaction", ctx,
		mock.MatchedBy(func(t domain.CashTransaction) bool {
			persistedTxn = t
			return t.Type == domain.TxnDisbursement &&
				t.BalanceAfter.Equal(decimal.NewFromInt(45000))
		}),
		mock.MatchedBy(func(l *domain.CollectorActionLog) bool {
			return l != nil && l.Status == domain.ActionSuccess && l.FlaggedForReview
		}),
	).Return(&persistedTxn, &persistedBalance, nil).Once()

	result, err := s.service.RecordDisbursement(ctx, s.collector, dto.RecordDisbursementRequest{
		Amount:             decimal.NewFromInt(5000),
		LoanID:             uuid.NewString(),
		LocalTransactionID: localTxnID,
	})

	require.NoError(s.T(), err)
	assert.True(s.T(), result.Executed)
	assert.True(s.T(), result.FlaggedForReview)
}

func (s *LedgerServiceTestSuite) TestRecordDisbursement_InsufficientFloat() {
	ctx := context.Background()
	localTxnID := uuid.NewString()
	s.expectGuardPreamble(localTxnID)

	// 35000 requested with only 30000 available: the repository refuses
	// inside the transaction. 35000 > 10000 would escalate first, so use
	// a limits version with a high ceiling.
	s.limits.MaxDisbursementAmount = decimal.NewFromInt(100000)
	s.ledgerRepo.On("SumAmountByType", ctx, s.tenantID, s.collector.UserID, domain.TxnDisbursement, mock.Anything, mock.Anything).Return(decimal.Zero, 0, nil).Twice()
	s.balanceRepo.On("GetBalance", ctx, s.tenantID, s.collector.UserID, mock.Anything).Return(s.balance, nil).Once()
	s.ledgerRepo.On("AppendTransaction", ctx, mock.Anything, mock.Anything).Return(nil, nil, apperrors.ErrInsufficientFloat).Once()

	_, err := s.service.RecordDisbursement(ctx, s.collector, dto.RecordDisbursementRequest{
		Amount:             decimal.NewFromInt(35000),
		LoanID:             uuid.NewString(),
		LocalTransactionID: localTxnID,
	})

	assert.ErrorIs(s.T(), err, apperrors.ErrInsufficientFloat)
}

func (s *LedgerServiceTestSuite) TestRecordCollection_RejectsNonPositiveAmount() {
	ctx := context.Background()

	_, err := s.service.RecordCollection(ctx, s.collector, dto.RecordCollectionRequest{
		Amount:             decimal.Zero,
		LocalTransactionID: uuid.NewString(),
	})

	assert.ErrorIs(s.T(), err, apperrors.ErrValidation)
	s.ledgerRepo.AssertNotCalled(s.T(), "AppendTransaction", mock.Anything, mock.Anything, mock.Anything)
}

func (s *LedgerServiceTestSuite) TestRecordCollection_BlockedByPendingHandover() {
	ctx := context.Background()
	localTxnID := uuid.NewString()

	s.ledgerRepo.On("FindByLocalTransactionID", ctx, s.tenantID, s.collector.UserID, localTxnID).Return(nil, apperrors.ErrNotFound).Once()
	s.floatRepo.On("FindPendingHandover", ctx, s.tenantID, s.collector.UserID, mock.Anything).Return(&domain.CashFloat{FloatID: uuid.NewString()}, nil).Once()

	_, err := s.service.RecordCollection(ctx, s.collector, dto.RecordCollectionRequest{
		Amount:             decimal.NewFromInt(1000),
		LocalTransactionID: localTxnID,
	})

	assert.ErrorIs(s.T(), err, apperrors.ErrHandoverPending)
}

func (s *LedgerServiceTestSuite) TestRecordCollection_DayClosed() {
	ctx := context.Background()
	localTxnID := uuid.NewString()
	s.expectGuardPreamble(localTxnID)

	s.balanceRepo.On("GetBalance", ctx, s.tenantID, s.collector.UserID, mock.Anything).Return(s.balance, nil).Once()
	s.ledgerRepo.On("AppendTransaction", ctx, mock.Anything, mock.Anything).Return(nil, nil, apperrors.ErrDayAlreadyClosed).Once()

	_, err := s.service.RecordCollection(ctx, s.collector, dto.RecordCollectionRequest{
		Amount:             decimal.NewFromInt(1000),
		LocalTransactionID: localTxnID,
	})

	assert.ErrorIs(s.T(), err, apperrors.ErrDayAlreadyClosed)
}

func (s *LedgerServiceTestSuite) TestWaivePenalty_PercentageEscalates() {
	ctx := context.Background()

	s.floatRepo.On("FindPendingHandover", ctx, s.tenantID, s.collector.UserID, mock.Anything).Return(nil, apperrors.ErrNotFound).Maybe()
	s.limitsRepo.On("FindActiveLimits", ctx, s.tenantID, s.collector.UserID, mock.Anything).Return(s.limits, nil).Once()

	// 1500 of a 2000 penalty is 75%, above the 50% cap even though the
	// absolute amount is under the 5000 ceiling.
	s.actionLogRepo.On("SaveLog", ctx, mock.MatchedBy(func(l domain.CollectorActionLog) bool {
		return l.Status == domain.ActionPendingApproval && l.ActionType == domain.ActionWaivePenalty
	})).Return(nil).Once()

	result, err := s.service.WaivePenalty(ctx, s.collector, dto.WaivePenaltyRequest{
		LoanID:        uuid.NewString(),
		PenaltyAmount: decimal.NewFromInt(2000),
		WaiverAmount:  decimal.NewFromInt(1500),
	})

	require.NoError(s.T(), err)
	assert.False(s.T(), result.Executed)
}

func (s *LedgerServiceTestSuite) TestWaivePenalty_ExceedsPenalty() {
	ctx := context.Background()

	_, err := s.service.WaivePenalty(ctx, s.collector, dto.WaivePenaltyRequest{
		LoanID:        uuid.NewString(),
		PenaltyAmount: decimal.NewFromInt(1000),
		WaiverAmount:  decimal.NewFromInt(1500),
	})

	assert.ErrorIs(s.T(), err, apperrors.ErrValidation)
}

func TestLedgerServiceTestSuite(t *testing.T) {
	suite.Run(t, new(LedgerServiceTestSuite))
}

// --- AuthorityService suite ---

type AuthorityServiceTestSuite struct {
	suite.Suite
	ledgerRepo    *MockLedgerRepository
	balanceRepo   *MockBalanceRepository
	floatRepo     *MockFloatRepository
	limitsRepo    *MockLimitsRepository
	actionLogRepo *MockActionLogRepository
	service       portssvc.AuthoritySvcFacade

	tenantID  string
	manager   domain.Principal
	collector domain.Principal
}

func (s *AuthorityServiceTestSuite) SetupTest() {
	s.ledgerRepo = new(MockLedgerRepository)
	s.balanceRepo = new(MockBalanceRepository)
	s.floatRepo = new(MockFloatRepository)
	s.limitsRepo = new(MockLimitsRepository)
	s.actionLogRepo = new(MockActionLogRepository)

	repos := portsrepo.RepositoryContainer{
		Float:     s.floatRepo,
		Ledger:    s.ledgerRepo,
		Balance:   s.balanceRepo,
		Limits:    s.limitsRepo,
		ActionLog: s.actionLogRepo,
	}
	container := services.NewServiceContainer(repos)
	s.service = container.Authority

	s.tenantID = uuid.NewString()
	s.manager = domain.Principal{TenantID: s.tenantID, UserID: uuid.NewString(), Role: domain.RoleManager}
	s.collector = domain.Principal{TenantID: s.tenantID, UserID: uuid.NewString(), Role: domain.RoleCollector}
}

func (s *AuthorityServiceTestSuite) pendingDisbursement(amount int64) *domain.CollectorActionLog {
	return &domain.CollectorActionLog{
		LogID:       uuid.NewString(),
		TenantID:    s.tenantID,
		CollectorID: s.collector.UserID,
		ActionType:  domain.ActionDisburseLoan,
		Amount:      decimal.NewFromInt(amount),
		NewValue:    `{"actionType":"DISBURSE_LOAN","amount":"` + decimal.NewFromInt(amount).String() + `","loanID":"loan-1"}`,
		Status:      domain.ActionPendingApproval,
		CreatedBy:   s.collector.UserID,
	}
}

func (s *AuthorityServiceTestSuite) TestResolveApproval_ApproveExecutesDeferred() {
	ctx := context.Background()
	pending := s.pendingDisbursement(15000)

	balance := &domain.CollectorDailyBalance{
		TenantID:                 s.tenantID,
		CollectorID:              s.collector.UserID,
		CurrentBalance:           decimal.NewFromInt(50000),
		DailyCap:                 decimal.NewFromInt(100000),
		AvailableForDisbursement: decimal.NewFromInt(50000),
		IsFloatConfirmed:         true,
	}

	s.actionLogRepo.On("FindLogByID", ctx, s.tenantID, pending.LogID).Return(pending, nil).Once()
	s.actionLogRepo.On("FindResolutionFor", ctx, s.tenantID, pending.LogID).Return(nil, apperrors.ErrNotFound).Once()
	s.floatRepo.On("FindPendingHandover", ctx, s.tenantID, s.collector.UserID, mock.Anything).Return(nil, apperrors.ErrNotFound).Once()
	s.balanceRepo.On("GetBalance", ctx, s.tenantID, s.collector.UserID, mock.Anything).Return(balance, nil).Once()

	persistedBalance := *balance
	persistedBalance.CurrentBalance = decimal.NewFromInt(35000)
	var persistedTxn domain.CashTransaction
	s.ledgerRepo.On("AppendTransaction", ctx,
		mock.MatchedBy(func(t domain.CashTransaction) bool {
			persistedTxn = t
			return t.Type == domain.TxnDisbursement &&
				t.Amount.Equal(decimal.NewFromInt(15000)) &&
				t.BalanceAfter.Equal(decimal.NewFromInt(35000))
		}),
		mock.MatchedBy(func(l *domain.CollectorActionLog) bool {
			return l != nil &&
				l.Status == domain.ActionSuccess &&
				l.ResolvesLogID == pending.LogID &&
				l.ApprovedBy == s.manager.UserID
		}),
	).Return(&persistedTxn, &persistedBalance, nil).Once()

	resolution, err := s.service.ResolveApproval(ctx, s.manager, pending.LogID, dto.ResolveApprovalRequest{Decision: "APPROVE"})

	require.NoError(s.T(), err)
	assert.Equal(s.T(), domain.ActionSuccess, resolution.Status)
	assert.Equal(s.T(), pending.LogID, resolution.ResolvesLogID)
	s.ledgerRepo.AssertExpectations(s.T())
}

func (s *AuthorityServiceTestSuite) TestResolveApproval_ApproveBlockedByPendingHandover() {
	ctx := context.Background()
	pending := s.pendingDisbursement(15000)

	s.actionLogRepo.On("FindLogByID", ctx, s.tenantID, pending.LogID).Return(pending, nil).Once()
	s.actionLogRepo.On("FindResolutionFor", ctx, s.tenantID, pending.LogID).Return(nil, apperrors.ErrNotFound).Once()
	s.floatRepo.On("FindPendingHandover", ctx, s.tenantID, s.collector.UserID, mock.Anything).Return(&domain.CashFloat{FloatID: uuid.NewString()}, nil).Once()

	_, err := s.service.ResolveApproval(ctx, s.manager, pending.LogID, dto.ResolveApprovalRequest{Decision: "APPROVE"})

	assert.ErrorIs(s.T(), err, apperrors.ErrHandoverPending)
	s.ledgerRepo.AssertNotCalled(s.T(), "AppendTransaction", mock.Anything, mock.Anything, mock.Anything)
	s.actionLogRepo.AssertNotCalled(s.T(), "SaveLog", mock.Anything, mock.Anything)
}

func (s *AuthorityServiceTestSuite) TestResolveApproval_Reject() {
	ctx := context.Background()
	pending := s.pendingDisbursement(15000)

	s.actionLogRepo.On("FindLogByID", ctx, s.tenantID, pending.LogID).Return(pending, nil).Once()
	s.actionLogRepo.On("FindResolutionFor", ctx, s.tenantID, pending.LogID).Return(nil, apperrors.ErrNotFound).Once()
	s.actionLogRepo.On("SaveLog", ctx, mock.MatchedBy(func(l domain.CollectorActionLog) bool {
		return l.Status == domain.ActionRejected && l.ResolvesLogID == pending.LogID
	})).Return(nil).Once()

	resolution, err := s.service.ResolveApproval(ctx, s.manager, pending.LogID, dto.ResolveApprovalRequest{
		Decision: "REJECT",
		Notes:    "over branch budget",
	})

	require.NoError(s.T(), err)
	assert.Equal(s.T(), domain.ActionRejected, resolution.Status)
	s.ledgerRepo.AssertNotCalled(s.T(), "AppendTransaction", mock.Anything, mock.Anything, mock.Anything)
}

func (s *AuthorityServiceTestSuite) TestResolveApproval_NonManagerForbidden() {
	ctx := context.Background()

	_, err := s.service.ResolveApproval(ctx, s.collector, uuid.NewString(), dto.ResolveApprovalRequest{Decision: "APPROVE"})

	assert.ErrorIs(s.T(), err, apperrors.ErrNotAuthorized)
}

func (s *AuthorityServiceTestSuite) TestResolveApproval_AlreadyResolved() {
	ctx := context.Background()
	pending := s.pendingDisbursement(15000)
	resolution := &domain.CollectorActionLog{LogID: uuid.NewString(), ResolvesLogID: pending.LogID, Status: domain.ActionSuccess}

	s.actionLogRepo.On("FindLogByID", ctx, s.tenantID, pending.LogID).Return(pending, nil).Once()
	s.actionLogRepo.On("FindResolutionFor", ctx, s.tenantID, pending.LogID).Return(resolution, nil).Once()

	_, err := s.service.ResolveApproval(ctx, s.manager, pending.LogID, dto.ResolveApprovalRequest{Decision: "APPROVE"})

	assert.ErrorIs(s.T(), err, apperrors.ErrDuplicate)
}

func (s *AuthorityServiceTestSuite) TestUpdateLimits_VersionsAndReturns() {
	ctx := context.Background()

	s.limitsRepo.On("SaveLimitsVersion", ctx, mock.MatchedBy(func(l domain.CollectorLimits) bool {
		return l.IsActive &&
			l.CollectorID == s.collector.UserID &&
			l.MaxDisbursementAmount.Equal(decimal.NewFromInt(20000))
	})).Return(nil).Once()

	limits, err := s.service.UpdateLimits(ctx, s.manager, s.collector.UserID, dto.UpdateLimitsRequest{
		MaxApprovalAmount:            decimal.NewFromInt(50000),
		MaxApprovalPerDay:            10,
		MaxDisbursementAmount:        decimal.NewFromInt(20000),
		DailyDisbursementLimit:       decimal.NewFromInt(500000),
		MonthlyDisbursementLimit:     decimal.NewFromInt(5000000),
		MaxPenaltyWaiverAmount:       decimal.NewFromInt(5000),
		MaxPenaltyWaiverPct:          decimal.NewFromInt(50),
		RequiresManagerApprovalAbove: decimal.NewFromInt(2000),
		MaxCashCollectionPerTxn:      decimal.NewFromInt(50000),
	})

	require.NoError(s.T(), err)
	assert.NotEmpty(s.T(), limits.LimitsID)
	s.limitsRepo.AssertExpectations(s.T())
}

func (s *AuthorityServiceTestSuite) TestGetLimits_FallsBackToDefaults() {
	ctx := context.Background()

	s.limitsRepo.On("FindActiveLimits", ctx, s.tenantID, s.collector.UserID, mock.Anything).Return(nil, apperrors.ErrNotFound).Once()

	limits, err := s.service.GetLimits(ctx, s.manager, s.collector.UserID)

	require.NoError(s.T(), err)
	assert.True(s.T(), limits.MaxDisbursementAmount.Equal(decimal.NewFromInt(100000)))
	assert.True(s.T(), limits.RequiresManagerApprovalAbove.Equal(decimal.NewFromInt(2000)))
}

func TestAuthorityServiceTestSuite(t *testing.T) {
	suite.Run(t, new(AuthorityServiceTestSuite))
}
