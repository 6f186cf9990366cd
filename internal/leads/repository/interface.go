package repository

import (
	"context"

	"github.com/google/uuid"
)

// Lead is the core lead row.
type Lead struct {
	ID           uuid.UUID `db:"id"`
	ContactName  string    `db:"contact_name"`
	ContactPhone string    `db:"contact_phone"`
	ContactEmail string    `db:"contact_email"`
	ZoneKey      string    `db:"zone_key"`
	Status       string    `db:"status"`
	Source       *string   `db:"source"`
	CreatedAt    string    `db:"created_at"`
	UpdatedAt    string    `db:"updated_at"`
}

// LeadSummaryRow is one row of the admin list query.
type LeadSummaryRow struct {
	ID           uuid.UUID
	ZoneKey      string
	Status       string
	Tier         string
	IEIScore     int
	LeadPriceEUR float64
	CreatedAt    string
}

// LeadDetail joins the lead with its stored scoring artifacts.
type LeadDetail struct {
	Lead
	EngineVersion string
	IEIScore      int
	Tier          string
	LeadPriceEUR  float64
	InputJSON     []byte
	ResultJSON    []byte
	PricingJSON   []byte
	LeadCardJSON  []byte
}

// CreateLeadParams contains everything persisted at intake: the lead row,
// the immutable input snapshot and the scoring artifacts.
type CreateLeadParams struct {
	ContactName   string
	ContactPhone  string
	ContactEmail  string
	ZoneKey       string
	Status        string
	Source        *string
	EngineVersion string
	IEIScore      int
	Tier          string
	LeadPriceEUR  float64
	InputJSON     []byte
	ResultJSON    []byte
	PricingJSON   []byte
	LeadCardJSON  []byte
}

// ListLeadsParams filters the admin list. Empty strings mean no filter.
type ListLeadsParams struct {
	Status  string
	Tier    string
	ZoneKey string
	Limit   int
	Offset  int
}

// Repository defines lead persistence operations.
type Repository interface {
	CreateLead(ctx context.Context, params CreateLeadParams) (Lead, error)
	ListLeads(ctx context.Context, params ListLeadsParams) ([]LeadSummaryRow, int, error)
	GetLead(ctx context.Context, id uuid.UUID) (LeadDetail, error)
}
