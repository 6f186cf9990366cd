package repository

import (
	"context"
	"time"

	"github.com/google/uuid"
)

// Reservation statuses.
const (
	ReservationActive   = "active"
	ReservationReleased = "released"
	ReservationExpired  = "expired"
)

// Agency represents a client agency that buys leads.
type Agency struct {
	ID        uuid.UUID `db:"id"`
	Name      string    `db:"name"`
	Email     string    `db:"email"`
	Phone     *string   `db:"phone"`
	IsActive  bool      `db:"is_active"`
	CreatedAt string    `db:"created_at"`
	UpdatedAt string    `db:"updated_at"`
}

// Reservation is a time-boxed hold an agency places on a lead. A lead has at
// most one active reservation; the row is reused across reserve cycles.
type Reservation struct {
	ID        uuid.UUID `db:"id"`
	LeadID    uuid.UUID `db:"lead_id"`
	AgencyID  uuid.UUID `db:"agency_id"`
	Status    string    `db:"status"`
	ExpiresAt time.Time `db:"expires_at"`
	CreatedAt string    `db:"created_at"`
	UpdatedAt string    `db:"updated_at"`
}

// Sale records a lead sold to an agency. Sales are terminal and append-only.
// Tier is frozen at sale time so later re-imports of zone data cannot
// rewrite export history.
type Sale struct {
	ID       uuid.UUID `db:"id"`
	LeadID   uuid.UUID `db:"lead_id"`
	AgencyID uuid.UUID `db:"agency_id"`
	PriceEUR float64   `db:"price_eur"`
	Tier     string    `db:"tier_snapshot"`
	Notes    *string   `db:"notes"`
	SoldAt   time.Time `db:"sold_at"`
}

// InsertSaleParams contains data for recording a sale.
type InsertSaleParams struct {
	LeadID   uuid.UUID
	AgencyID uuid.UUID
	PriceEUR float64
	Tier     string
	Notes    *string
}

// LeadState is the commercial view of a lead row.
type LeadState struct {
	LeadID       uuid.UUID
	Status       string
	Tier         string
	LeadPriceEUR float64
	ZoneKey      string
}

// SaleExportRow is one line of the sales export, joined with lead contact
// data.
type SaleExportRow struct {
	SaleID       uuid.UUID
	LeadID       uuid.UUID
	AgencyName   string
	ZoneKey      string
	Tier         string
	PriceEUR     float64
	SoldAt       time.Time
	ContactName  string
	ContactPhone string
	ContactEmail string
}

// CreateAgencyParams contains data for creating an agency.
type CreateAgencyParams struct {
	Name  string
	Email string
	Phone *string
}

// Store holds the lead-scoped commercial operations. Inside InLeadTx they
// run against the transaction that holds the lead row lock.
type Store interface {
	GetLeadState(ctx context.Context, leadID uuid.UUID) (LeadState, error)
	GetReservation(ctx context.Context, leadID uuid.UUID) (*Reservation, error)
	GetSale(ctx context.Context, leadID uuid.UUID) (*Sale, error)
	UpsertActiveReservation(ctx context.Context, leadID, agencyID uuid.UUID, expiresAt time.Time) (Reservation, error)
	MarkReservation(ctx context.Context, reservationID uuid.UUID, status string) error
	InsertSale(ctx context.Context, params InsertSaleParams) (Sale, error)
	SetLeadStatus(ctx context.Context, leadID uuid.UUID, status string) error
}

// Repository defines commercial persistence operations.
type Repository interface {
	Store

	// InLeadTx runs fn in a transaction holding a row lock on the lead, so
	// concurrent transitions on the same lead serialize.
	InLeadTx(ctx context.Context, leadID uuid.UUID, fn func(ctx context.Context, store Store) error) error

	CreateAgency(ctx context.Context, params CreateAgencyParams) (Agency, error)
	GetAgency(ctx context.Context, id uuid.UUID) (Agency, error)
	ListAgencies(ctx context.Context) ([]Agency, error)
	ListSales(ctx context.Context, from, to *time.Time) ([]SaleExportRow, error)
}
