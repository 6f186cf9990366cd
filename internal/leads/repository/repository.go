// Package repository implements lead persistence over Postgres.
package repository

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"iei_backend/platform/apperr"
)

const leadNotFoundMessage = "lead not found"

// Repo implements the leads repository.
type Repo struct {
	pool *pgxpool.Pool
}

// New creates a new leads repository.
func New(pool *pgxpool.Pool) *Repo {
	return &Repo{pool: pool}
}

// Compile-time check that Repo implements Repository.
var _ Repository = (*Repo)(nil)

// CreateLead inserts the lead row, the input snapshot and the scoring result
// in one transaction. A scored lead without its artifacts must not exist.
func (r *Repo) CreateLead(ctx context.Context, params CreateLeadParams) (Lead, error) {
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return Lead{}, fmt.Errorf("begin create lead: %w", err)
	}
	defer tx.Rollback(ctx) //nolint:errcheck

	leadQuery := `
		INSERT INTO leads (contact_name, contact_phone, contact_email, zone_key, status, source)
		VALUES ($1, $2, $3, $4, $5, $6)
		RETURNING id, contact_name, contact_phone, contact_email, zone_key, status, source, created_at, updated_at`

	var lead Lead
	var createdAt, updatedAt time.Time
	if err := tx.QueryRow(ctx, leadQuery,
		params.ContactName, params.ContactPhone, params.ContactEmail,
		params.ZoneKey, params.Status, params.Source,
	).Scan(
		&lead.ID, &lead.ContactName, &lead.ContactPhone, &lead.ContactEmail,
		&lead.ZoneKey, &lead.Status, &lead.Source, &createdAt, &updatedAt,
	); err != nil {
		return Lead{}, fmt.Errorf("insert lead: %w", err)
	}
	lead.CreatedAt = createdAt.Format(time.RFC3339)
	lead.UpdatedAt = updatedAt.Format(time.RFC3339)

	if _, err := tx.Exec(ctx,
		`INSERT INTO lead_properties (lead_id, payload) VALUES ($1, $2)`,
		lead.ID, params.InputJSON,
	); err != nil {
		return Lead{}, fmt.Errorf("insert lead property snapshot: %w", err)
	}

	if _, err := tx.Exec(ctx, `
		INSERT INTO iei_results (lead_id, engine_version, iei_score, tier, lead_price_eur,
			result_json, pricing_json, lead_card)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)`,
		lead.ID, params.EngineVersion, params.IEIScore, params.Tier, params.LeadPriceEUR,
		params.ResultJSON, params.PricingJSON, params.LeadCardJSON,
	); err != nil {
		return Lead{}, fmt.Errorf("insert iei result: %w", err)
	}

	if err := tx.Commit(ctx); err != nil {
		return Lead{}, fmt.Errorf("commit create lead: %w", err)
	}
	return lead, nil
}

// ListLeads lists leads with filters and pagination.
func (r *Repo) ListLeads(ctx context.Context, params ListLeadsParams) ([]LeadSummaryRow, int, error) {
	whereClauses := []string{"1=1"}
	args := []any{}

	if params.Status != "" {
		args = append(args, params.Status)
		whereClauses = append(whereClauses, fmt.Sprintf("l.status = $%d", len(args)))
	}
	if params.Tier != "" {
		args = append(args, params.Tier)
		whereClauses = append(whereClauses, fmt.Sprintf("r.tier = $%d", len(args)))
	}
	if params.ZoneKey != "" {
		args = append(args, params.ZoneKey)
		whereClauses = append(whereClauses, fmt.Sprintf("l.zone_key = $%d", len(args)))
	}
	where := strings.Join(whereClauses, " AND ")

	countQuery := `
		SELECT count(*)
		FROM leads l JOIN iei_results r ON r.lead_id = l.id
		WHERE ` + where

	var total int
	if err := r.pool.QueryRow(ctx, countQuery, args...).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("count leads: %w", err)
	}

	limit := params.Limit
	if limit <= 0 {
		limit = 50
	}
	args = append(args, limit, params.Offset)

	listQuery := fmt.Sprintf(`
		SELECT l.id, l.zone_key, l.status, r.tier, r.iei_score, r.lead_price_eur, l.created_at
		FROM leads l JOIN iei_results r ON r.lead_id = l.id
		WHERE %s
		ORDER BY l.created_at DESC
		LIMIT $%d OFFSET $%d`, where, len(args)-1, len(args))

	rows, err := r.pool.Query(ctx, listQuery, args...)
	if err != nil {
		return nil, 0, fmt.Errorf("list leads: %w", err)
	}
	defer rows.Close()

	var leads []LeadSummaryRow
	for rows.Next() {
		var row LeadSummaryRow
		var createdAt time.Time
		if err := rows.Scan(&row.ID, &row.ZoneKey, &row.Status, &row.Tier, &row.IEIScore, &row.LeadPriceEUR, &createdAt); err != nil {
			return nil, 0, fmt.Errorf("scan lead: %w", err)
		}
		row.CreatedAt = createdAt.Format(time.RFC3339)
		leads = append(leads, row)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, fmt.Errorf("list leads: %w", err)
	}
	return leads, total, nil
}

// GetLead retrieves the full back-office view of a lead.
func (r *Repo) GetLead(ctx context.Context, id uuid.UUID) (LeadDetail, error) {
	query := `
		SELECT l.id, l.contact_name, l.contact_phone, l.contact_email, l.zone_key,
			l.status, l.source, l.created_at, l.updated_at,
			r.engine_version, r.iei_score, r.tier, r.lead_price_eur,
			p.payload, r.result_json, r.pricing_json, r.lead_card
		FROM leads l
		JOIN iei_results r ON r.lead_id = l.id
		JOIN lead_properties p ON p.lead_id = l.id
		WHERE l.id = $1`

	var detail LeadDetail
	var createdAt, updatedAt time.Time
	if err := r.pool.QueryRow(ctx, query, id).Scan(
		&detail.ID, &detail.ContactName, &detail.ContactPhone, &detail.ContactEmail, &detail.ZoneKey,
		&detail.Status, &detail.Source, &createdAt, &updatedAt,
		&detail.EngineVersion, &detail.IEIScore, &detail.Tier, &detail.LeadPriceEUR,
		&detail.InputJSON, &detail.ResultJSON, &detail.PricingJSON, &detail.LeadCardJSON,
	); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return LeadDetail{}, apperr.NotFound(leadNotFoundMessage)
		}
		return LeadDetail{}, fmt.Errorf("get lead: %w", err)
	}
	detail.CreatedAt = createdAt.Format(time.RFC3339)
	detail.UpdatedAt = updatedAt.Format(time.RFC3339)
	return detail, nil
}
