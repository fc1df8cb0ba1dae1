package handlers_test

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/pesoflow/lending_backend/internal/apperrors"
	"github.com/pesoflow/lending_backend/internal/core/domain"
	portssvc "github.com/pesoflow/lending_backend/internal/core/ports/services"
	"github.com/pesoflow/lending_backend/internal/dto"
	"github.com/pesoflow/lending_backend/internal/handlers"
	"github.com/pesoflow/lending_backend/internal/middleware"
	"github.com/pesoflow/lending_backend/pkg/config"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"github.com/stretchr/testify/suite"
)

// --- Mock FloatService ---
type MockFloatService struct {
	mock.Mock
}

var _ portssvc.FloatSvcFacade = (*MockFloatService)(nil)

func (m *MockFloatService) IssueFloat(ctx context.Context, actor domain.Principal, req dto.IssueFloatRequest) (*domain.CashFloat, error) {
	args := m.Called(ctx, actor, req)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.CashFloat), args.Error(1)
}

func (m *MockFloatService) ConfirmFloatReceipt(ctx context.Context, actor domain.Principal, floatID string, location *domain.Geolocation) (*domain.CashFloat, error) {
	args := m.Called(ctx, actor, floatID, location)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.CashFloat), args.Error(1)
}

func (m *MockFloatService) ListFloatHistory(ctx context.Context, actor domain.Principal, params dto.ListFloatsParams) (*dto.ListFloatsResponse, error) {
	args := m.Called(ctx, actor, params)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*dto.ListFloatsResponse), args.Error(1)
}

func (m *MockFloatService) ListPendingIssuances(ctx context.Context, actor domain.Principal) ([]domain.CashFloat, error) {
	args := m.Called(ctx, actor)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]domain.CashFloat), args.Error(1)
}

// --- Mock HandoverService ---
type MockHandoverService struct {
	mock.Mock
}

var _ portssvc.HandoverSvcFacade = (*MockHandoverService)(nil)

func (m *MockHandoverService) InitiateHandover(ctx context.Context, actor domain.Principal, req dto.InitiateHandoverRequest) (*domain.CashFloat, error) {
	args := m.Called(ctx, actor, req)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.CashFloat), args.Error(1)
}

func (m *MockHandoverService) ConfirmHandover(ctx context.Context, actor domain.Principal, handoverID string, req dto.ConfirmHandoverRequest) (*domain.CashFloat, error) {
	args := m.Called(ctx, actor, handoverID, req)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.CashFloat), args.Error(1)
}

func (m *MockHandoverService) ListPendingHandovers(ctx context.Context, actor domain.Principal) ([]domain.CashFloat, error) {
	args := m.Called(ctx, actor)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]domain.CashFloat), args.Error(1)
}

// --- Mock LedgerService ---
type MockLedgerService struct {
	mock.Mock
}

var _ portssvc.LedgerSvcFacade = (*MockLedgerService)(nil)

func (m *MockLedgerService) RecordCollection(ctx context.Context, actor domain.Principal, req dto.RecordCollectionRequest) (*portssvc.GuardedActionResult, error) {
	args := m.Called(ctx, actor, req)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*portssvc.GuardedActionResult), args.Error(1)
}

func (m *MockLedgerService) RecordDisbursement(ctx context.Context, actor domain.Principal, req dto.RecordDisbursementRequest) (*portssvc.GuardedActionResult, error) {
	args := m.Called(ctx, actor, req)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*portssvc.GuardedActionResult), args.Error(1)
}

func (m *MockLedgerService) WaivePenalty(ctx context.Context, actor domain.Principal, req dto.WaivePenaltyRequest) (*portssvc.GuardedActionResult, error) {
	args := m.Called(ctx, actor, req)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*portssvc.GuardedActionResult), args.Error(1)
}

func (m *MockLedgerService) GetBalance(ctx context.Context, actor domain.Principal, collectorID string, date time.Time) (*domain.CollectorDailyBalance, error) {
	args := m.Called(ctx, actor, collectorID, date)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.CollectorDailyBalance), args.Error(1)
}

func (m *MockLedgerService) GetBalanceMonitor(ctx context.Context, actor domain.Principal, date time.Time) ([]domain.CollectorDailyBalance, error) {
	args := m.Called(ctx, actor, date)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]domain.CollectorDailyBalance), args.Error(1)
}

func (m *MockLedgerService) ListTransactions(ctx context.Context, actor domain.Principal, params dto.ListTransactionsParams) (*dto.ListTransactionsResponse, error) {
	args := m.Called(ctx, actor, params)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*dto.ListTransactionsResponse), args.Error(1)
}

// --- Mock AuthorityService ---
type MockAuthorityService struct {
	mock.Mock
}

var _ portssvc.AuthoritySvcFacade = (*MockAuthorityService)(nil)

func (m *MockAuthorityService) ResolveApproval(ctx context.Context, actor domain.Principal, logID string, req dto.ResolveApprovalRequest) (*domain.CollectorActionLog, error) {
	args := m.Called(ctx, actor, logID, req)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.CollectorActionLog), args.Error(1)
}

func (m *MockAuthorityService) ListPendingApprovals(ctx context.Context, actor domain.Principal) ([]domain.CollectorActionLog, error) {
	args := m.Called(ctx, actor)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]domain.CollectorActionLog), args.Error(1)
}

func (m *MockAuthorityService) ListActionLogs(ctx context.Context, actor domain.Principal, params dto.ListActionLogsParams) ([]domain.CollectorActionLog, error) {
	args := m.Called(ctx, actor, params)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]domain.CollectorActionLog), args.Error(1)
}

func (m *MockAuthorityService) GetLimits(ctx context.Context, actor domain.Principal, collectorID string) (*domain.CollectorLimits, error) {
	args := m.Called(ctx, actor, collectorID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.CollectorLimits), args.Error(1)
}

func (m *MockAuthorityService) UpdateLimits(ctx context.Context, actor domain.Principal, collectorID string, req dto.UpdateLimitsRequest) (*domain.CollectorLimits, error) {
	args := m.Called(ctx, actor, collectorID, req)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.CollectorLimits), args.Error(1)
}

func (m *MockAuthorityService) GetTodayUsage(ctx context.Context, actor domain.Principal, collectorID string) (*dto.UsageResponse, error) {
	args := m.Called(ctx, actor, collectorID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*dto.UsageResponse), args.Error(1)
}

// --- Test Suite ---

type LedgerHandlerTestSuite struct {
	suite.Suite
	router           *gin.Engine
	jwtSecret        string
	mockFloatSvc     *MockFloatService
	mockHandoverSvc  *MockHandoverService
	mockLedgerSvc    *MockLedgerService
	mockAuthoritySvc *MockAuthorityService

	tenantID    string
	collectorID string
}

func (suite *LedgerHandlerTestSuite) generateTestToken(userID string, role domain.Role) string {
	claims := middleware.AuthClaims{
		TenantID: suite.tenantID,
		Role:     string(role),
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   userID,
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour)),
			IssuedAt:  jwt.NewNumericDate(time.Now()),
		},
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString([]byte(suite.jwtSecret))
	require.NoError(suite.T(), err)
	return signed
}

func (suite *LedgerHandlerTestSuite) SetupTest() {
	gin.SetMode(gin.TestMode)
	suite.router = gin.New()
	suite.jwtSecret = "test-secret-key-that-is-long-enough"

	suite.mockFloatSvc = new(MockFloatService)
	suite.mockHandoverSvc = new(MockHandoverService)
	suite.mockLedgerSvc = new(MockLedgerService)
	suite.mockAuthoritySvc = new(MockAuthorityService)

	cfg := &config.Config{JWTSecret: suite.jwtSecret}
	services := &portssvc.ServiceContainer{
		Float:     suite.mockFloatSvc,
		Handover:  suite.mockHandoverSvc,
		Ledger:    suite.mockLedgerSvc,
		Authority: suite.mockAuthoritySvc,
	}
	handlers.RegisterRoutes(suite.router, cfg, services)

	suite.tenantID = uuid.NewString()
	suite.collectorID = uuid.NewString()
}

func (suite *LedgerHandlerTestSuite) performRequest(method, path, token string, body any) *httptest.ResponseRecorder {
	var buf bytes.Buffer
	if body != nil {
		require.NoError(suite.T(), json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	w := httptest.NewRecorder()
	suite.router.ServeHTTP(w, req)
	return w
}

func (suite *LedgerHandlerTestSuite) TestHealth_NoAuthRequired() {
	w := suite.performRequest(http.MethodGet, "/health", "", nil)
	suite.Equal(http.StatusOK, w.Code)
}

func (suite *LedgerHandlerTestSuite) TestRecordCollection_Unauthorized() {
	w := suite.performRequest(http.MethodPost, "/api/v1/cash/collections", "", gin.H{
		"amount":             1500,
		"localTransactionID": uuid.NewString(),
	})
	suite.Equal(http.StatusUnauthorized, w.Code)
}

func (suite *LedgerHandlerTestSuite) TestRecordCollection_Executed() {
	token := suite.generateTestToken(suite.collectorID, domain.RoleCollector)

	txn := &domain.CashTransaction{
		TransactionID: uuid.NewString(),
		CollectorID:   suite.collectorID,
		Type:          domain.TxnCollection,
		Amount:        decimal.NewFromInt(1500),
		BalanceBefore: decimal.NewFromInt(50000),
		BalanceAfter:  decimal.NewFromInt(51500),
	}
	suite.mockLedgerSvc.On("RecordCollection", mock.Anything,
		mock.MatchedBy(func(p domain.Principal) bool {
			return p.TenantID == suite.tenantID && p.UserID == suite.collectorID && p.Role == domain.RoleCollector
		}),
		mock.MatchedBy(func(req dto.RecordCollectionRequest) bool {
			return req.Amount.Equal(decimal.NewFromInt(1500))
		}),
	).Return(&portssvc.GuardedActionResult{Executed: true, Transaction: txn}, nil).Once()

	w := suite.performRequest(http.MethodPost, "/api/v1/cash/collections", token, gin.H{
		"amount":             1500,
		"localTransactionID": uuid.NewString(),
	})

	suite.Equal(http.StatusCreated, w.Code)
	var resp dto.GuardedActionResponse
	require.NoError(suite.T(), json.Unmarshal(w.Body.Bytes(), &resp))
	suite.Equal(dto.GuardedExecuted, resp.Status)
	require.NotNil(suite.T(), resp.Transaction)
	suite.Equal(txn.TransactionID, resp.Transaction.TransactionID)
	suite.mockLedgerSvc.AssertExpectations(suite.T())
}

func (suite *LedgerHandlerTestSuite) TestRecordDisbursement_PendingApproval() {
	token := suite.generateTestToken(suite.collectorID, domain.RoleCollector)

	log := &domain.CollectorActionLog{
		LogID:       uuid.NewString(),
		CollectorID: suite.collectorID,
		ActionType:  domain.ActionDisburseLoan,
		Amount:      decimal.NewFromInt(15000),
		Status:      domain.ActionPendingApproval,
	}
	suite.mockLedgerSvc.On("RecordDisbursement", mock.Anything, mock.Anything, mock.Anything).
		Return(&portssvc.GuardedActionResult{Executed: false, Log: log}, nil).Once()

	w := suite.performRequest(http.MethodPost, "/api/v1/cash/disbursements", token, gin.H{
		"amount":             15000,
		"loanID":             uuid.NewString(),
		"localTransactionID": uuid.NewString(),
	})

	suite.Equal(http.StatusAccepted, w.Code)
	var resp dto.GuardedActionResponse
	require.NoError(suite.T(), json.Unmarshal(w.Body.Bytes(), &resp))
	suite.Equal(dto.GuardedPendingApproval, resp.Status)
	require.NotNil(suite.T(), resp.ApprovalLog)
	suite.Equal(log.LogID, resp.ApprovalLog.LogID)
	suite.Nil(resp.Transaction)
}

func (suite *LedgerHandlerTestSuite) TestRecordDisbursement_InsufficientFloat() {
	token := suite.generateTestToken(suite.collectorID, domain.RoleCollector)

	suite.mockLedgerSvc.On("RecordDisbursement", mock.Anything, mock.Anything, mock.Anything).
		Return(nil, apperrors.ErrInsufficientFloat).Once()

	w := suite.performRequest(http.MethodPost, "/api/v1/cash/disbursements", token, gin.H{
		"amount":             35000,
		"loanID":             uuid.NewString(),
		"localTransactionID": uuid.NewString(),
	})

	suite.Equal(http.StatusUnprocessableEntity, w.Code)
}

func (suite *LedgerHandlerTestSuite) TestRecordCollection_DayClosedConflict() {
	token := suite.generateTestToken(suite.collectorID, domain.RoleCollector)

	suite.mockLedgerSvc.On("RecordCollection", mock.Anything, mock.Anything, mock.Anything).
		Return(nil, apperrors.ErrDayAlreadyClosed).Once()

	w := suite.performRequest(http.MethodPost, "/api/v1/cash/collections", token, gin.H{
		"amount":             1000,
		"localTransactionID": uuid.NewString(),
	})

	suite.Equal(http.StatusConflict, w.Code)
}

func (suite *LedgerHandlerTestSuite) TestRecordCollection_ZeroAmountRejected() {
	token := suite.generateTestToken(suite.collectorID, domain.RoleCollector)

	// The binding layer does not reject a zero decimal; the service's
	// positive-amount check is the enforcement point.
	suite.mockLedgerSvc.On("RecordCollection", mock.Anything, mock.Anything, mock.Anything).
		Return(nil, apperrors.NewAppError(http.StatusBadRequest, "amount must be positive", apperrors.ErrValidation)).Maybe()

	w := suite.performRequest(http.MethodPost, "/api/v1/cash/collections", token, gin.H{
		"amount":             0,
		"localTransactionID": uuid.NewString(),
	})

	suite.Equal(http.StatusBadRequest, w.Code)
}

func (suite *LedgerHandlerTestSuite) TestIssueFloat_DuplicateConflict() {
	cashierID := uuid.NewString()
	token := suite.generateTestToken(cashierID, domain.RoleCashier)

	suite.mockFloatSvc.On("IssueFloat", mock.Anything, mock.Anything, mock.Anything).
		Return(nil, apperrors.ErrDuplicateFloat).Once()

	w := suite.performRequest(http.MethodPost, "/api/v1/cash/floats", token, gin.H{
		"collectorID": suite.collectorID,
		"amount":      50000,
		"dailyCap":    30000,
	})

	suite.Equal(http.StatusConflict, w.Code)
}

func TestLedgerHandlerTestSuite(t *testing.T) {
	suite.Run(t, new(LedgerHandlerTestSuite))
}
