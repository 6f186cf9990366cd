// Package events provides domain event definitions for decoupled
// communication between modules.
// Infrastructure (Bus, Handler) is in platform/events.
package events

import (
	"iei_backend/platform/events"

	"github.com/google/uuid"
)

// Re-export platform types for convenience
type (
	Event       = events.Event
	Bus         = events.Bus
	Handler     = events.Handler
	HandlerFunc = events.HandlerFunc
	BaseEvent   = events.BaseEvent
)

// Re-export platform functions
var (
	NewBaseEvent   = events.NewBaseEvent
	NewInMemoryBus = events.NewInMemoryBus
)

// =============================================================================
// Zones Domain Events
// =============================================================================

// ZoneChanged is published when a zone is created, patched or reseeded.
// Subscribers invalidate the cached zone table so the next score uses fresh
// pricing data.
type ZoneChanged struct {
	BaseEvent
	ZoneKey string `json:"zoneKey"`
	Change  string `json:"change"` // "created", "updated", "seeded"
}

func (e ZoneChanged) EventName() string { return "zones.zone.changed" }

// =============================================================================
// Leads Domain Events
// =============================================================================

// LeadScored is published after a lead is scored and priced at intake.
type LeadScored struct {
	BaseEvent
	LeadID  uuid.UUID `json:"leadId"`
	ZoneKey string    `json:"zoneKey"`
	Tier    string    `json:"tier"`
	Score   int       `json:"ieiScore"`
}

func (e LeadScored) EventName() string { return "leads.lead.scored" }

// =============================================================================
// Commercial Domain Events
// =============================================================================

// LeadReserved is published when an agency places a reservation on a lead.
type LeadReserved struct {
	BaseEvent
	LeadID    uuid.UUID `json:"leadId"`
	AgencyID  uuid.UUID `json:"agencyId"`
	ExpiresAt string    `json:"expiresAt"`
}

func (e LeadReserved) EventName() string { return "commercial.lead.reserved" }

// LeadSold is published when a sale is recorded for a lead.
type LeadSold struct {
	BaseEvent
	LeadID   uuid.UUID `json:"leadId"`
	AgencyID uuid.UUID `json:"agencyId"`
	PriceEUR float64   `json:"priceEur"`
}

func (e LeadSold) EventName() string { return "commercial.lead.sold" }

// ReservationReleased is published when a reservation is released, whether
// explicitly or as a side effect of a sale.
type ReservationReleased struct {
	BaseEvent
	LeadID   uuid.UUID `json:"leadId"`
	AgencyID uuid.UUID `json:"agencyId"`
	Reason   string    `json:"reason"` // "released", "superseded_by_sale"
}

func (e ReservationReleased) EventName() string { return "commercial.reservation.released" }
