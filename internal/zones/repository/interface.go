package repository

import (
	"context"

	"github.com/google/uuid"
)

// Zone represents a configured market zone row.
type Zone struct {
	ID            uuid.UUID `db:"id"`
	ZoneKey       string    `db:"zone_key"`
	Municipality  string    `db:"municipality"`
	BasePerM2     float64   `db:"base_per_m2"`
	Demand        string    `db:"demand"`
	IsActive      bool      `db:"is_active"`
	IsPremium     bool      `db:"is_premium"`
	PolicyName    *string   `db:"policy_name"`
	PricingJSON   []byte    `db:"pricing_json"`
	OverridesJSON []byte    `db:"overrides_json"`
	CreatedAt     string    `db:"created_at"`
	UpdatedAt     string    `db:"updated_at"`
}

// CreateZoneParams contains data for creating a zone.
type CreateZoneParams struct {
	ZoneKey       string
	Municipality  string
	BasePerM2     float64
	Demand        string
	IsActive      bool
	IsPremium     bool
	PolicyName    *string
	PricingJSON   []byte
	OverridesJSON []byte
}

// UpdateZoneParams contains the patchable zone fields. Nil means unchanged.
type UpdateZoneParams struct {
	ZoneKey       string
	Municipality  *string
	BasePerM2     *float64
	Demand        *string
	IsActive      *bool
	IsPremium     *bool
	PolicyName    *string
	PricingJSON   []byte
	OverridesJSON []byte
}

// Repository defines zone persistence operations.
type Repository interface {
	Create(ctx context.Context, params CreateZoneParams) (Zone, error)
	Update(ctx context.Context, params UpdateZoneParams) (Zone, error)
	GetByKey(ctx context.Context, zoneKey string) (Zone, error)
	List(ctx context.Context, activeOnly bool) ([]Zone, error)
	Upsert(ctx context.Context, params CreateZoneParams) (Zone, error)
}
