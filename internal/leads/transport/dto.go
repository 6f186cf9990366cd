// Package transport defines request/response DTOs for the leads API.
package transport

import (
	"github.com/google/uuid"

	"iei_backend/internal/engine"
	"iei_backend/internal/pricing"
)

// ContactPayload identifies the property owner.
type ContactPayload struct {
	Name  string `json:"name" validate:"required,max=120"`
	Phone string `json:"phone" validate:"required,max=32"`
	Email string `json:"email" validate:"required,email,max=254"`
}

// PropertyPayload describes the property being valued. Enum fields carry the
// Spanish wire values of the intake contract; unknown values are rejected.
type PropertyPayload struct {
	ZoneKey      string   `json:"zone_key" validate:"required,zone_key,max=64"`
	Municipality string   `json:"municipality" validate:"required,max=120"`
	Neighborhood *string  `json:"neighborhood" validate:"omitempty,max=120"`
	PostalCode   *string  `json:"postal_code" validate:"omitempty,max=10"`
	PropertyType string   `json:"property_type" validate:"required"`
	M2           float64  `json:"m2" validate:"required,gt=0,lte=10000"`
	Condition    string   `json:"condition" validate:"required"`
	YearBuilt    *int     `json:"year_built" validate:"omitempty,gte=1800,lte=2100"`
	HasElevator  bool     `json:"has_elevator"`
	HasTerrace   bool     `json:"has_terrace"`
	TerraceM2    *float64 `json:"terrace_m2" validate:"omitempty,gte=0"`
	HasParking   bool     `json:"has_parking"`
	HasViews     bool     `json:"has_views"`
}

// SignalsPayload carries the owner's sale signals.
type SignalsPayload struct {
	SaleHorizon   string   `json:"sale_horizon" validate:"required"`
	Motivation    string   `json:"motivation" validate:"required"`
	AlreadyListed string   `json:"already_listed" validate:"required"`
	Exclusivity   string   `json:"exclusivity" validate:"required"`
	ExpectedPrice *float64 `json:"expected_price" validate:"omitempty,gt=0"`
	// Confidence qualifies how reliable the submitted data is. Optional;
	// unrecognized values degrade to medium instead of failing.
	Confidence *string `json:"data_confidence" validate:"omitempty,max=16"`
}

// IntakeLeadRequest is the public lead submission.
type IntakeLeadRequest struct {
	Contact  ContactPayload  `json:"contact" validate:"required"`
	Property PropertyPayload `json:"property" validate:"required"`
	Signals  SignalsPayload  `json:"signals" validate:"required"`
	Source   *string         `json:"source" validate:"omitempty,max=64"`
}

// ScoreRequest is the stateless scoring call: same inputs as intake, minus
// the contact. Nothing is persisted.
type ScoreRequest struct {
	Property PropertyPayload `json:"property" validate:"required"`
	Signals  SignalsPayload  `json:"signals" validate:"required"`
}

// ScoreResponse is the stateless scoring result.
type ScoreResponse struct {
	Result  engine.Result  `json:"result"`
	Pricing pricing.Result `json:"pricing"`
}

// IntakeLeadResponse acknowledges a stored lead. The owner-facing body stays
// lean; the full card is for the back office.
type IntakeLeadResponse struct {
	LeadID        uuid.UUID            `json:"lead_id"`
	IEIScore      int                  `json:"iei_score"`
	Tier          engine.Tier          `json:"tier"`
	PriceEstimate engine.PriceEstimate `json:"price_estimate"`
}

// LeadSummary is one row of the admin lead list.
type LeadSummary struct {
	LeadID    uuid.UUID   `json:"lead_id"`
	ZoneKey   string      `json:"zone_key"`
	Status    string      `json:"status"`
	Tier      engine.Tier `json:"tier"`
	IEIScore  int         `json:"iei_score"`
	PriceEUR  float64     `json:"lead_price_eur"`
	CreatedAt string      `json:"created_at"`
}

// ListLeadsRequest filters the admin lead list.
type ListLeadsRequest struct {
	Status  string `form:"status" validate:"omitempty,max=32"`
	Tier    string `form:"tier" validate:"omitempty,oneof=A B C D"`
	ZoneKey string `form:"zone_key" validate:"omitempty,max=64"`
	Limit   int    `form:"limit" validate:"omitempty,gte=1,lte=200"`
	Offset  int    `form:"offset" validate:"omitempty,gte=0"`
}

// ListLeadsResponse wraps the admin lead list.
type ListLeadsResponse struct {
	Leads []LeadSummary `json:"leads"`
	Total int           `json:"total"`
}

// LeadDetailResponse is the full back-office view of a lead.
type LeadDetailResponse struct {
	LeadID    uuid.UUID      `json:"lead_id"`
	Status    string         `json:"status"`
	Contact   ContactPayload `json:"contact"`
	Source    *string        `json:"source,omitempty"`
	LeadCard  map[string]any `json:"lead_card"`
	Pricing   pricing.Result `json:"pricing"`
	CreatedAt string         `json:"created_at"`
}
