// Package transport defines request/response DTOs for the commercial API.
package transport

import "github.com/google/uuid"

// CreateAgencyRequest registers a client agency.
type CreateAgencyRequest struct {
	Name  string  `json:"name" validate:"required,max=120"`
	Email string  `json:"email" validate:"required,email,max=254"`
	Phone *string `json:"phone" validate:"omitempty,max=32"`
}

// AgencyResponse is the API view of an agency.
type AgencyResponse struct {
	ID        uuid.UUID `json:"id"`
	Name      string    `json:"name"`
	Email     string    `json:"email"`
	Phone     *string   `json:"phone,omitempty"`
	IsActive  bool      `json:"is_active"`
	CreatedAt string    `json:"created_at"`
}

// ReserveRequest places a reservation on a lead.
type ReserveRequest struct {
	AgencyID uuid.UUID `json:"agency_id" validate:"required"`
	Hours    *int      `json:"hours" validate:"omitempty,gt=0,lte=168"`
}

// SellRequest records a sale.
type SellRequest struct {
	AgencyID uuid.UUID `json:"agency_id" validate:"required"`
	PriceEUR float64   `json:"price_eur" validate:"required,gt=0"`
	Notes    *string   `json:"notes" validate:"omitempty,max=2000"`
}

// ReservationView is the API view of a reservation.
type ReservationView struct {
	AgencyID  uuid.UUID `json:"agency_id"`
	ExpiresAt string    `json:"expires_at"`
}

// SaleView is the API view of a sale.
type SaleView struct {
	AgencyID uuid.UUID `json:"agency_id"`
	PriceEUR float64   `json:"price_eur"`
	Notes    *string   `json:"notes,omitempty"`
	SoldAt   string    `json:"sold_at"`
}

// CommercialStateResponse is the lifecycle state of a lead.
type CommercialStateResponse struct {
	LeadID      uuid.UUID        `json:"lead_id"`
	State       string           `json:"state"` // "available", "reserved", "sold"
	Reservation *ReservationView `json:"reservation,omitempty"`
	Sale        *SaleView        `json:"sale,omitempty"`
}
