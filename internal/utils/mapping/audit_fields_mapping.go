package mapping

import (
	"github.com/pesoflow/lending_backend/internal/core/domain"
	"github.com/pesoflow/lending_backend/internal/models"
)

// ToModelAuditFields converts a domain AuditFields to a model AuditFields
func ToModelAuditFields(d domain.AuditFields) models.AuditFields {
	return models.AuditFields{
		CreatedAt:     d.CreatedAt,
		CreatedBy:     d.CreatedBy,
		LastUpdatedAt: d.LastUpdatedAt,
		LastUpdatedBy: d.LastUpdatedBy,
	}
}

// ToDomainAuditFields converts a model AuditFields to a domain AuditFields
func ToDomainAuditFields(m models.AuditFields) domain.AuditFields {
	return domain.AuditFields{
		CreatedAt:     m.CreatedAt,
		CreatedBy:     m.CreatedBy,
		LastUpdatedAt: m.LastUpdatedAt,
		LastUpdatedBy: m.LastUpdatedBy,
	}
}

// strPtr returns nil for the empty string, a pointer otherwise. Nullable
// text columns store NULL rather than "".
func strPtr(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}

func strVal(p *string) string {
	if p == nil {
		return ""
	}
	return *p
}

// locPtrs splits an optional geolocation into nullable lat/lng columns.
func locPtrs(g *domain.Geolocation) (*float64, *float64) {
	if g == nil {
		return nil, nil
	}
	lat, lng := g.Latitude, g.Longitude
	return &lat, &lng
}

func locVal(lat, lng *float64) *domain.Geolocation {
	if lat == nil || lng == nil {
		return nil
	}
	return &domain.Geolocation{Latitude: *lat, Longitude: *lng}
}
