package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"iei_backend/platform/apperr"
)

const zoneNotFoundMessage = "zone not found"

const zoneColumns = `id, zone_key, municipality, base_per_m2, demand, is_active,
		is_premium, policy_name, pricing_json, overrides_json, created_at, updated_at`

// Repo implements the zones repository.
type Repo struct {
	pool *pgxpool.Pool
}

// New creates a new zones repository.
func New(pool *pgxpool.Pool) *Repo {
	return &Repo{pool: pool}
}

// Compile-time check that Repo implements Repository.
var _ Repository = (*Repo)(nil)

func scanZone(row pgx.Row) (Zone, error) {
	var z Zone
	var createdAt, updatedAt time.Time
	err := row.Scan(
		&z.ID, &z.ZoneKey, &z.Municipality, &z.BasePerM2, &z.Demand, &z.IsActive,
		&z.IsPremium, &z.PolicyName, &z.PricingJSON, &z.OverridesJSON, &createdAt, &updatedAt,
	)
	if err != nil {
		return Zone{}, err
	}
	z.CreatedAt = createdAt.Format(time.RFC3339)
	z.UpdatedAt = updatedAt.Format(time.RFC3339)
	return z, nil
}

// Create inserts a zone.
func (r *Repo) Create(ctx context.Context, params CreateZoneParams) (Zone, error) {
	query := `
		INSERT INTO zones (zone_key, municipality, base_per_m2, demand, is_active,
			is_premium, policy_name, pricing_json, overrides_json)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
		RETURNING ` + zoneColumns

	zone, err := scanZone(r.pool.QueryRow(ctx, query,
		params.ZoneKey, params.Municipality, params.BasePerM2, params.Demand,
		params.IsActive, params.IsPremium, params.PolicyName, params.PricingJSON, params.OverridesJSON,
	))
	if err != nil {
		if isUniqueViolation(err) {
			return Zone{}, apperr.Conflict(apperr.CodeConflict, "zone key already exists")
		}
		return Zone{}, fmt.Errorf("create zone: %w", err)
	}
	return zone, nil
}

// Update patches a zone by key. Nil params leave the column unchanged;
// pricing and overrides JSON replace the whole document when present.
func (r *Repo) Update(ctx context.Context, params UpdateZoneParams) (Zone, error) {
	query := `
		UPDATE zones
		SET municipality = COALESCE($2, municipality),
			base_per_m2 = COALESCE($3, base_per_m2),
			demand = COALESCE($4, demand),
			is_active = COALESCE($5, is_active),
			is_premium = COALESCE($6, is_premium),
			policy_name = COALESCE($7, policy_name),
			pricing_json = COALESCE($8, pricing_json),
			overrides_json = COALESCE($9, overrides_json),
			updated_at = now()
		WHERE zone_key = $1
		RETURNING ` + zoneColumns

	zone, err := scanZone(r.pool.QueryRow(ctx, query,
		params.ZoneKey, params.Municipality, params.BasePerM2, params.Demand,
		params.IsActive, params.IsPremium, params.PolicyName, params.PricingJSON, params.OverridesJSON,
	))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return Zone{}, apperr.NotFound(zoneNotFoundMessage)
		}
		return Zone{}, fmt.Errorf("update zone: %w", err)
	}
	return zone, nil
}

// GetByKey retrieves a zone by its key.
func (r *Repo) GetByKey(ctx context.Context, zoneKey string) (Zone, error) {
	query := `SELECT ` + zoneColumns + ` FROM zones WHERE zone_key = $1`

	zone, err := scanZone(r.pool.QueryRow(ctx, query, zoneKey))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return Zone{}, apperr.NotFound(zoneNotFoundMessage)
		}
		return Zone{}, fmt.Errorf("get zone by key: %w", err)
	}
	return zone, nil
}

// List retrieves zones, optionally restricted to active ones.
func (r *Repo) List(ctx context.Context, activeOnly bool) ([]Zone, error) {
	query := `SELECT ` + zoneColumns + ` FROM zones`
	if activeOnly {
		query += ` WHERE is_active`
	}
	query += ` ORDER BY zone_key`

	rows, err := r.pool.Query(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("list zones: %w", err)
	}
	defer rows.Close()

	var zones []Zone
	for rows.Next() {
		zone, err := scanZone(rows)
		if err != nil {
			return nil, fmt.Errorf("scan zone: %w", err)
		}
		zones = append(zones, zone)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("list zones: %w", err)
	}
	return zones, nil
}

// Upsert inserts a zone or refreshes an existing row by key. Used by the
// seed loader; manual edits to municipality or flags survive reseeding only
// for columns the seed does not carry.
func (r *Repo) Upsert(ctx context.Context, params CreateZoneParams) (Zone, error) {
	query := `
		INSERT INTO zones (zone_key, municipality, base_per_m2, demand, is_active,
			is_premium, policy_name, pricing_json, overrides_json)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
		ON CONFLICT (zone_key) DO UPDATE SET
			municipality = EXCLUDED.municipality,
			base_per_m2 = EXCLUDED.base_per_m2,
			demand = EXCLUDED.demand,
			is_active = EXCLUDED.is_active,
			is_premium = EXCLUDED.is_premium,
			policy_name = COALESCE(EXCLUDED.policy_name, zones.policy_name),
			pricing_json = COALESCE(EXCLUDED.pricing_json, zones.pricing_json),
			overrides_json = COALESCE(EXCLUDED.overrides_json, zones.overrides_json),
			updated_at = now()
		RETURNING ` + zoneColumns

	zone, err := scanZone(r.pool.QueryRow(ctx, query,
		params.ZoneKey, params.Municipality, params.BasePerM2, params.Demand,
		params.IsActive, params.IsPremium, params.PolicyName, params.PricingJSON, params.OverridesJSON,
	))
	if err != nil {
		return Zone{}, fmt.Errorf("upsert zone: %w", err)
	}
	return zone, nil
}

func isUniqueViolation(err error) bool {
	var pgErr interface{ SQLState() string }
	if errors.As(err, &pgErr) {
		return pgErr.SQLState() == "23505"
	}
	return false
}
