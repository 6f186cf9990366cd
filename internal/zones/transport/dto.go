// Package transport defines request/response DTOs for the zones API.
package transport

import (
	"iei_backend/internal/engine"
	"iei_backend/internal/pricing"
)

// CreateZoneRequest creates a zone.
type CreateZoneRequest struct {
	ZoneKey      string                  `json:"zone_key" validate:"required,zone_key,max=64"`
	Municipality string                  `json:"municipality" validate:"required,max=120"`
	BasePerM2    float64                 `json:"base_per_m2" validate:"required,gt=0"`
	Demand       string                  `json:"demand" validate:"required"`
	IsActive     *bool                   `json:"is_active"`
	IsPremium    bool                    `json:"is_premium"`
	PolicyName   *string                 `json:"policy_name" validate:"omitempty,max=64"`
	Pricing      *pricing.PriceTable     `json:"pricing"`
	Overrides    *engine.FactorOverrides `json:"overrides"`
}

// UpdateZoneRequest patches a zone. Absent fields stay unchanged; pricing and
// overrides replace the whole document when present.
type UpdateZoneRequest struct {
	Municipality *string                 `json:"municipality" validate:"omitempty,max=120"`
	BasePerM2    *float64                `json:"base_per_m2" validate:"omitempty,gt=0"`
	Demand       *string                 `json:"demand"`
	IsActive     *bool                   `json:"is_active"`
	IsPremium    *bool                   `json:"is_premium"`
	PolicyName   *string                 `json:"policy_name" validate:"omitempty,max=64"`
	Pricing      *pricing.PriceTable     `json:"pricing"`
	Overrides    *engine.FactorOverrides `json:"overrides"`
}

// ZoneResponse is the API view of a zone row.
type ZoneResponse struct {
	ZoneKey      string                  `json:"zone_key"`
	Municipality string                  `json:"municipality"`
	BasePerM2    float64                 `json:"base_per_m2"`
	Demand       string                  `json:"demand"`
	IsActive     bool                    `json:"is_active"`
	IsPremium    bool                    `json:"is_premium"`
	PolicyName   *string                 `json:"policy_name,omitempty"`
	Pricing      *pricing.PriceTable     `json:"pricing,omitempty"`
	Overrides    *engine.FactorOverrides `json:"overrides,omitempty"`
	CreatedAt    string                  `json:"created_at"`
	UpdatedAt    string                  `json:"updated_at"`
}

// ListZonesResponse wraps the zone list.
type ListZonesResponse struct {
	Zones []ZoneResponse `json:"zones"`
	Total int            `json:"total"`
}

// SeedResult reports the outcome of a seed-file import.
type SeedResult struct {
	Seeded int `json:"seeded"`
}
