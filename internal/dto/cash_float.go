package dto

import (
	"time"

	"github.com/pesoflow/lending_backend/internal/core/domain"
	"github.com/shopspring/decimal"
)

// GeolocationDTO is an optional GPS fix on mobile-originated requests.
type GeolocationDTO struct {
	Latitude  float64 `json:"latitude" binding:"required,gte=-90,lte=90"`
	Longitude float64 `json:"longitude" binding:"required,gte=-180,lte=180"`
}

func (g *GeolocationDTO) ToDomain() *domain.Geolocation {
	if g == nil {
		return nil
	}
	return &domain.Geolocation{Latitude: g.Latitude, Longitude: g.Longitude}
}

// IssueFloatRequest is the cashier's morning float issuance.
type IssueFloatRequest struct {
	CollectorID string          `json:"collectorID" binding:"required"`
	Amount      decimal.Decimal `json:"amount" binding:"required"`
	DailyCap    decimal.Decimal `json:"dailyCap" binding:"required"`
	FloatDate   string          `json:"floatDate" binding:"omitempty,datetime=2006-01-02"`
	Notes       string          `json:"notes"`
	Location    *GeolocationDTO `json:"location"`
}

// ConfirmFloatReceiptRequest is the collector's acknowledgement.
type ConfirmFloatReceiptRequest struct {
	Location *GeolocationDTO `json:"location"`
}

// InitiateHandoverRequest is the collector's end-of-day cash count.
type InitiateHandoverRequest struct {
	ActualAmount decimal.Decimal `json:"actualAmount" binding:"required"`
	Notes        string          `json:"notes"`
	Location     *GeolocationDTO `json:"location"`
}

// ConfirmHandoverRequest is the cashier's accept/reject decision. Variance is
// informational; rejection is a judgment call, not a threshold rule.
type ConfirmHandoverRequest struct {
	Accepted        bool            `json:"accepted"`
	RejectionReason string          `json:"rejectionReason"`
	Location        *GeolocationDTO `json:"location"`
	Notes           string          `json:"notes"`
}

// ListFloatsParams filters float history.
type ListFloatsParams struct {
	CollectorID string  `form:"collectorID"`
	FromDate    string  `form:"from" binding:"omitempty,datetime=2006-01-02"`
	ToDate      string  `form:"to" binding:"omitempty,datetime=2006-01-02"`
	Kind        string  `form:"kind" binding:"omitempty,oneof=ISSUANCE HANDOVER"`
	Limit       int     `form:"limit,default=50" binding:"omitempty,min=1,max=200"`
	NextToken   *string `form:"nextToken"`
}

// CashFloatResponse is the API shape of a float row.
type CashFloatResponse struct {
	FloatID     string          `json:"floatID"`
	CollectorID string          `json:"collectorID"`
	CashierID   string          `json:"cashierID"`
	Amount      decimal.Decimal `json:"amount"`
	Kind        string          `json:"kind"`
	Status      string          `json:"status"`
	FloatDate   string          `json:"floatDate"`

	DailyCap *decimal.Decimal `json:"dailyCap,omitempty"`

	OpeningFloat   *decimal.Decimal `json:"openingFloat,omitempty"`
	Collections    *decimal.Decimal `json:"collections,omitempty"`
	Disbursements  *decimal.Decimal `json:"disbursements,omitempty"`
	ExpectedAmount *decimal.Decimal `json:"expectedAmount,omitempty"`
	ActualAmount   *decimal.Decimal `json:"actualAmount,omitempty"`
	Variance       *decimal.Decimal `json:"variance,omitempty"`

	CollectorConfirmedAt *time.Time `json:"collectorConfirmedAt,omitempty"`
	CashierConfirmedAt   *time.Time `json:"cashierConfirmedAt,omitempty"`
	RejectionReason      string     `json:"rejectionReason,omitempty"`
	Notes                string     `json:"notes,omitempty"`
	CreatedAt            time.Time  `json:"createdAt"`
}

// ListFloatsResponse is a page of float history.
type ListFloatsResponse struct {
	Floats    []CashFloatResponse `json:"floats"`
	NextToken *string             `json:"nextToken,omitempty"`
}

// ToCashFloatResponse converts a domain CashFloat to its API shape.
func ToCashFloatResponse(f *domain.CashFloat) CashFloatResponse {
	resp := CashFloatResponse{
		FloatID:              f.FloatID,
		CollectorID:          f.CollectorID,
		CashierID:            f.CashierID,
		Amount:               f.Amount,
		Kind:                 string(f.Kind),
		Status:               string(f.Status),
		FloatDate:            f.FloatDate.Format("2006-01-02"),
		CollectorConfirmedAt: f.CollectorConfirmedAt,
		CashierConfirmedAt:   f.CashierConfirmedAt,
		RejectionReason:      f.RejectionReason,
		Notes:                f.Notes,
		CreatedAt:            f.CreatedAt,
	}

	switch f.Kind {
	case domain.FloatIssuance:
		cap := f.DailyCap
		resp.DailyCap = &cap
	case domain.FloatHandover:
		opening := f.OpeningFloat
		collections := f.Collections
		disbursements := f.Disbursements
		expected := f.ExpectedAmount
		actual := f.ActualAmount
		variance := f.Variance
		resp.OpeningFloat = &opening
		resp.Collections = &collections
		resp.Disbursements = &disbursements
		resp.ExpectedAmount = &expected
		resp.ActualAmount = &actual
		resp.Variance = &variance
	}

	return resp
}

// ToCashFloatResponses converts a slice of floats.
func ToCashFloatResponses(floats []domain.CashFloat) []CashFloatResponse {
	responses := make([]CashFloatResponse, len(floats))
	for i := range floats {
		responses[i] = ToCashFloatResponse(&floats[i])
	}
	return responses
}
