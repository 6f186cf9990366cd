// Package repository implements commercial persistence over Postgres.
package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"iei_backend/platform/apperr"
)

const (
	leadNotFoundMessage   = "lead not found"
	agencyNotFoundMessage = "agency not found"
)

// querier is satisfied by both *pgxpool.Pool and pgx.Tx, so the same store
// code runs inside and outside transactions.
type querier interface {
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
}

type store struct {
	q querier
}

// Repo implements the commercial repository.
type Repo struct {
	store
	pool *pgxpool.Pool
}

// New creates a new commercial repository.
func New(pool *pgxpool.Pool) *Repo {
	return &Repo{store: store{q: pool}, pool: pool}
}

// Compile-time check that Repo implements Repository.
var _ Repository = (*Repo)(nil)

// InLeadTx locks the lead row and runs fn against the transaction. All state
// transitions for a lead serialize on this lock.
func (r *Repo) InLeadTx(ctx context.Context, leadID uuid.UUID, fn func(ctx context.Context, s Store) error) error {
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("begin lead tx: %w", err)
	}
	defer tx.Rollback(ctx) //nolint:errcheck

	var locked uuid.UUID
	if err := tx.QueryRow(ctx, `SELECT id FROM leads WHERE id = $1 FOR UPDATE`, leadID).Scan(&locked); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return apperr.NotFound(leadNotFoundMessage)
		}
		return fmt.Errorf("lock lead: %w", err)
	}

	if err := fn(ctx, &store{q: tx}); err != nil {
		return err
	}
	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("commit lead tx: %w", err)
	}
	return nil
}

// GetLeadState reads the commercial view of a lead.
func (s *store) GetLeadState(ctx context.Context, leadID uuid.UUID) (LeadState, error) {
	query := `
		SELECT l.id, l.status, r.tier, r.lead_price_eur, l.zone_key
		FROM leads l
		JOIN iei_results r ON r.lead_id = l.id
		WHERE l.id = $1`

	var state LeadState
	if err := s.q.QueryRow(ctx, query, leadID).Scan(
		&state.LeadID, &state.Status, &state.Tier, &state.LeadPriceEUR, &state.ZoneKey,
	); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return LeadState{}, apperr.NotFound(leadNotFoundMessage)
		}
		return LeadState{}, fmt.Errorf("get lead state: %w", err)
	}
	return state, nil
}

// GetReservation returns the lead's reservation row in any status, or nil.
// Expiry is the service's concern; this returns the row as stored.
func (s *store) GetReservation(ctx context.Context, leadID uuid.UUID) (*Reservation, error) {
	query := `
		SELECT id, lead_id, agency_id, status, expires_at, created_at, updated_at
		FROM lead_reservations
		WHERE lead_id = $1`

	res, err := scanReservation(s.q.QueryRow(ctx, query, leadID))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("get reservation: %w", err)
	}
	return &res, nil
}

// GetSale returns the lead's sale, or nil.
func (s *store) GetSale(ctx context.Context, leadID uuid.UUID) (*Sale, error) {
	query := `
		SELECT id, lead_id, agency_id, price_eur, tier_snapshot, notes, sold_at
		FROM lead_sales
		WHERE lead_id = $1`

	var sale Sale
	if err := s.q.QueryRow(ctx, query, leadID).Scan(
		&sale.ID, &sale.LeadID, &sale.AgencyID, &sale.PriceEUR, &sale.Tier, &sale.Notes, &sale.SoldAt,
	); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("get sale: %w", err)
	}
	return &sale, nil
}

// UpsertActiveReservation writes the lead's reservation row. One row per
// lead; re-reserving reuses the row instead of accumulating history.
func (s *store) UpsertActiveReservation(ctx context.Context, leadID, agencyID uuid.UUID, expiresAt time.Time) (Reservation, error) {
	query := `
		INSERT INTO lead_reservations (lead_id, agency_id, status, expires_at)
		VALUES ($1, $2, 'active', $3)
		ON CONFLICT (lead_id) DO UPDATE SET
			agency_id = EXCLUDED.agency_id,
			status = 'active',
			expires_at = EXCLUDED.expires_at,
			updated_at = now()
		RETURNING id, lead_id, agency_id, status, expires_at, created_at, updated_at`

	res, err := scanReservation(s.q.QueryRow(ctx, query, leadID, agencyID, expiresAt))
	if err != nil {
		return Reservation{}, fmt.Errorf("upsert reservation: %w", err)
	}
	return res, nil
}

// MarkReservation sets the reservation status.
func (s *store) MarkReservation(ctx context.Context, reservationID uuid.UUID, status string) error {
	query := `UPDATE lead_reservations SET status = $2, updated_at = now() WHERE id = $1`
	tag, err := s.q.Exec(ctx, query, reservationID, status)
	if err != nil {
		return fmt.Errorf("mark reservation: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return apperr.NotFound("reservation not found")
	}
	return nil
}

// InsertSale records a sale.
func (s *store) InsertSale(ctx context.Context, params InsertSaleParams) (Sale, error) {
	query := `
		INSERT INTO lead_sales (lead_id, agency_id, price_eur, tier_snapshot, notes)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING id, lead_id, agency_id, price_eur, tier_snapshot, notes, sold_at`

	var sale Sale
	if err := s.q.QueryRow(ctx, query,
		params.LeadID, params.AgencyID, params.PriceEUR, params.Tier, params.Notes,
	).Scan(
		&sale.ID, &sale.LeadID, &sale.AgencyID, &sale.PriceEUR, &sale.Tier, &sale.Notes, &sale.SoldAt,
	); err != nil {
		return Sale{}, fmt.Errorf("insert sale: %w", err)
	}
	return sale, nil
}

// SetLeadStatus updates the lead's coarse status.
func (s *store) SetLeadStatus(ctx context.Context, leadID uuid.UUID, status string) error {
	tag, err := s.q.Exec(ctx, `UPDATE leads SET status = $2, updated_at = now() WHERE id = $1`, leadID, status)
	if err != nil {
		return fmt.Errorf("set lead status: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return apperr.NotFound(leadNotFoundMessage)
	}
	return nil
}

func scanReservation(row pgx.Row) (Reservation, error) {
	var res Reservation
	var createdAt, updatedAt time.Time
	if err := row.Scan(&res.ID, &res.LeadID, &res.AgencyID, &res.Status, &res.ExpiresAt, &createdAt, &updatedAt); err != nil {
		return Reservation{}, err
	}
	res.CreatedAt = createdAt.Format(time.RFC3339)
	res.UpdatedAt = updatedAt.Format(time.RFC3339)
	return res, nil
}

// CreateAgency creates an agency.
func (r *Repo) CreateAgency(ctx context.Context, params CreateAgencyParams) (Agency, error) {
	query := `
		INSERT INTO agencies (name, email, phone)
		VALUES ($1, $2, $3)
		RETURNING id, name, email, phone, is_active, created_at, updated_at`

	agency, err := scanAgency(r.pool.QueryRow(ctx, query, params.Name, params.Email, params.Phone))
	if err != nil {
		if isUniqueViolation(err) {
			return Agency{}, apperr.Conflict(apperr.CodeConflict, "agency email already registered")
		}
		return Agency{}, fmt.Errorf("create agency: %w", err)
	}
	return agency, nil
}

// GetAgency retrieves an agency by ID.
func (r *Repo) GetAgency(ctx context.Context, id uuid.UUID) (Agency, error) {
	query := `
		SELECT id, name, email, phone, is_active, created_at, updated_at
		FROM agencies WHERE id = $1`

	agency, err := scanAgency(r.pool.QueryRow(ctx, query, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return Agency{}, apperr.NotFound(agencyNotFoundMessage)
		}
		return Agency{}, fmt.Errorf("get agency: %w", err)
	}
	return agency, nil
}

// ListAgencies lists all agencies.
func (r *Repo) ListAgencies(ctx context.Context) ([]Agency, error) {
	query := `
		SELECT id, name, email, phone, is_active, created_at, updated_at
		FROM agencies ORDER BY name`

	rows, err := r.pool.Query(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("list agencies: %w", err)
	}
	defer rows.Close()

	var agencies []Agency
	for rows.Next() {
		agency, err := scanAgency(rows)
		if err != nil {
			return nil, fmt.Errorf("scan agency: %w", err)
		}
		agencies = append(agencies, agency)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("list agencies: %w", err)
	}
	return agencies, nil
}

// ListSales lists sales joined with agency and lead contact data for export.
func (r *Repo) ListSales(ctx context.Context, from, to *time.Time) ([]SaleExportRow, error) {
	query := `
		SELECT s.id, s.lead_id, a.name, l.zone_key, s.tier_snapshot, s.price_eur, s.sold_at,
			l.contact_name, l.contact_phone, l.contact_email
		FROM lead_sales s
		JOIN agencies a ON a.id = s.agency_id
		JOIN leads l ON l.id = s.lead_id
		WHERE ($1::timestamptz IS NULL OR s.sold_at >= $1)
		  AND ($2::timestamptz IS NULL OR s.sold_at < $2)
		ORDER BY s.sold_at`

	rows, err := r.pool.Query(ctx, query, from, to)
	if err != nil {
		return nil, fmt.Errorf("list sales: %w", err)
	}
	defer rows.Close()

	var sales []SaleExportRow
	for rows.Next() {
		var row SaleExportRow
		if err := rows.Scan(
			&row.SaleID, &row.LeadID, &row.AgencyName, &row.ZoneKey, &row.Tier,
			&row.PriceEUR, &row.SoldAt, &row.ContactName, &row.ContactPhone, &row.ContactEmail,
		); err != nil {
			return nil, fmt.Errorf("scan sale: %w", err)
		}
		sales = append(sales, row)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("list sales: %w", err)
	}
	return sales, nil
}

func scanAgency(row pgx.Row) (Agency, error) {
	var a Agency
	var createdAt, updatedAt time.Time
	if err := row.Scan(&a.ID, &a.Name, &a.Email, &a.Phone, &a.IsActive, &createdAt, &updatedAt); err != nil {
		return Agency{}, err
	}
	a.CreatedAt = createdAt.Format(time.RFC3339)
	a.UpdatedAt = updatedAt.Format(time.RFC3339)
	return a, nil
}

func isUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		return pgErr.Code == "23505"
	}
	return false
}
