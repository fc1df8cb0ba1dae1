package domain_test

import (
	"testing"

	"github.com/pesoflow/lending_backend/internal/core/domain"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCashTransaction_SignedAmount(t *testing.T) {
	tests := []struct {
		name string
		txn  domain.CashTransaction
		want decimal.Decimal
	}{
		{
			name: "float received adds to balance",
			txn: domain.CashTransaction{
				Type:   domain.TxnFloatReceived,
				Amount: decimal.NewFromInt(50000),
			},
			want: decimal.NewFromInt(50000),
		},
		{
			name: "collection adds to balance",
			txn: domain.CashTransaction{
				Type:   domain.TxnCollection,
				Amount: decimal.NewFromInt(5000),
			},
			want: decimal.NewFromInt(5000),
		},
		{
			name: "disbursement subtracts from balance",
			txn: domain.CashTransaction{
				Type:   domain.TxnDisbursement,
				Amount: decimal.NewFromInt(20000),
			},
			want: decimal.NewFromInt(-20000),
		},
		{
			name: "handover closes to zero even with variance",
			txn: domain.CashTransaction{
				Type:          domain.TxnHandover,
				Amount:        decimal.NewFromInt(34500), // actual handed over
				BalanceBefore: decimal.NewFromInt(35000), // ledger expected
			},
			want: decimal.NewFromInt(-35000),
		},
		{
			name: "adjustment carries its own sign",
			txn: domain.CashTransaction{
				Type:   domain.TxnAdjustment,
				Amount: decimal.NewFromInt(-150),
			},
			want: decimal.NewFromInt(-150),
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := tt.txn.SignedAmount()
			require.NoError(t, err)
			assert.True(t, tt.want.Equal(got), "want %s got %s", tt.want, got)
		})
	}
}

func TestCashTransaction_SignedAmount_UnknownType(t *testing.T) {
	txn := domain.CashTransaction{Type: "TELEPORT", Amount: decimal.NewFromInt(1)}
	_, err := txn.SignedAmount()
	assert.Error(t, err)
}

func TestReplayBalance_MatchesSnapshotArithmetic(t *testing.T) {
	txns := []domain.CashTransaction{
		{Type: domain.TxnFloatReceived, Amount: decimal.NewFromInt(50000)},
		{Type: domain.TxnDisbursement, Amount: decimal.NewFromInt(20000)},
		{Type: domain.TxnCollection, Amount: decimal.NewFromInt(5000)},
	}

	balance, err := domain.ReplayBalance(txns)
	require.NoError(t, err)

	// opening + collections - disbursements
	assert.True(t, decimal.NewFromInt(35000).Equal(balance), "got %s", balance)
}

func TestReplayBalance_HandoverZeroesTheDay(t *testing.T) {
	txns := []domain.CashTransaction{
		{Type: domain.TxnFloatReceived, Amount: decimal.NewFromInt(50000)},
		{Type: domain.TxnCollection, Amount: decimal.NewFromInt(5000)},
		{Type: domain.TxnHandover, Amount: decimal.NewFromInt(55000), BalanceBefore: decimal.NewFromInt(55000)},
	}

	balance, err := domain.ReplayBalance(txns)
	require.NoError(t, err)
	assert.True(t, balance.IsZero(), "got %s", balance)
}

func TestComputeAvailable(t *testing.T) {
	tests := []struct {
		name          string
		balance       int64
		cap           int64
		disbursements int64
		want          int64
	}{
		{"cash on hand is the binding constraint", 30000, 100000, 0, 30000},
		{"remaining cap is the binding constraint", 30000, 25000, 0, 25000},
		{"cap already partially consumed", 30000, 50000, 40000, 10000},
		{"cap exhausted clamps to zero", 30000, 50000, 60000, 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := domain.ComputeAvailable(
				decimal.NewFromInt(tt.balance),
				decimal.NewFromInt(tt.cap),
				decimal.NewFromInt(tt.disbursements),
			)
			assert.True(t, decimal.NewFromInt(tt.want).Equal(got), "want %d got %s", tt.want, got)
		})
	}
}

func TestCollectorDailyBalance_Apply(t *testing.T) {
	b := domain.CollectorDailyBalance{DailyCap: decimal.NewFromInt(50000)}

	require.NoError(t, b.Apply(domain.CashTransaction{Type: domain.TxnFloatReceived, Amount: decimal.NewFromInt(50000)}))
	assert.True(t, decimal.NewFromInt(50000).Equal(b.CurrentBalance))
	assert.True(t, decimal.NewFromInt(50000).Equal(b.AvailableForDisbursement))

	require.NoError(t, b.Apply(domain.CashTransaction{Type: domain.TxnDisbursement, Amount: decimal.NewFromInt(20000)}))
	assert.True(t, decimal.NewFromInt(30000).Equal(b.CurrentBalance))
	assert.True(t, decimal.NewFromInt(30000).Equal(b.AvailableForDisbursement))

	require.NoError(t, b.Apply(domain.CashTransaction{Type: domain.TxnCollection, Amount: decimal.NewFromInt(5000)}))
	assert.True(t, decimal.NewFromInt(35000).Equal(b.CurrentBalance))
	// cap remaining is 30000, cash on hand 35000
	assert.True(t, decimal.NewFromInt(30000).Equal(b.AvailableForDisbursement))

	assert.True(t, decimal.NewFromInt(35000).Equal(b.ExpectedHandover()))
}
