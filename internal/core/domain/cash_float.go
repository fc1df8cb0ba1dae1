package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

// FloatKind distinguishes the two events recorded in the cash_floats table.
type FloatKind string

const (
	FloatIssuance FloatKind = "ISSUANCE"
	FloatHandover FloatKind = "HANDOVER"
)

// FloatStatus is the confirmation state of a float row. Transitions are
// PENDING -> CONFIRMED or PENDING -> REJECTED, exactly once; a resolved row
// is immutable.
type FloatStatus string

const (
	FloatPending   FloatStatus = "PENDING"
	FloatConfirmed FloatStatus = "CONFIRMED"
	FloatRejected  FloatStatus = "REJECTED"
)

// CashFloat is one issuance or handover event. Issuance rows are created by
// the cashier and confirmed by the collector; handover rows the reverse.
type CashFloat struct {
	FloatID     string          `json:"floatID"`
	TenantID    string          `json:"tenantID"`
	CollectorID string          `json:"collectorID"`
	CashierID   string          `json:"cashierID"`
	Amount      decimal.Decimal `json:"amount"`
	Kind        FloatKind       `json:"kind"`
	Status      FloatStatus     `json:"status"`
	FloatDate   time.Time       `json:"floatDate"`

	// Issuance only.
	DailyCap decimal.Decimal `json:"dailyCap"`

	// Handover only: the reconciliation snapshot frozen at initiation time.
	OpeningFloat   decimal.Decimal `json:"openingFloat"`
	Collections    decimal.Decimal `json:"collections"`
	Disbursements  decimal.Decimal `json:"disbursements"`
	ExpectedAmount decimal.Decimal `json:"expectedAmount"`
	ActualAmount   decimal.Decimal `json:"actualAmount"`
	Variance       decimal.Decimal `json:"variance"`

	IssuanceLocation *Geolocation `json:"issuanceLocation,omitempty"`
	HandoverLocation *Geolocation `json:"handoverLocation,omitempty"`

	CollectorConfirmedAt *time.Time `json:"collectorConfirmedAt,omitempty"`
	CashierConfirmedAt   *time.Time `json:"cashierConfirmedAt,omitempty"`
	RejectionReason      string     `json:"rejectionReason,omitempty"`
	Notes                string     `json:"notes,omitempty"`

	AuditFields
}

// IsResolved reports whether the float reached a terminal status.
func (f *CashFloat) IsResolved() bool {
	return f.Status == FloatConfirmed || f.Status == FloatRejected
}
