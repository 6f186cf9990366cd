// Package service implements zone configuration business logic.
package service

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"strings"

	"gopkg.in/yaml.v3"

	"iei_backend/internal/engine"
	domainevents "iei_backend/internal/events"
	"iei_backend/internal/pricing"
	"iei_backend/internal/zones/repository"
	"iei_backend/internal/zones/transport"
	"iei_backend/platform/apperr"
	"iei_backend/platform/logger"
)

// Service provides zone CRUD, the seed loader, and the read models consumed
// by scoring and pricing.
type Service struct {
	repo repository.Repository
	bus  domainevents.Bus
	log  *logger.Logger
}

// New creates a new zones service.
func New(repo repository.Repository, bus domainevents.Bus, log *logger.Logger) *Service {
	return &Service{repo: repo, bus: bus, log: log}
}

// NormalizeZoneKey lowercases and trims a zone key. All lookups go through
// normalized keys.
func NormalizeZoneKey(raw string) string {
	return strings.ToLower(strings.TrimSpace(raw))
}

// Create creates a zone and invalidates the cached table via the event bus.
func (s *Service) Create(ctx context.Context, req transport.CreateZoneRequest) (transport.ZoneResponse, error) {
	if _, err := engine.ParseDemandLevel(req.Demand); err != nil {
		return transport.ZoneResponse{}, apperr.Validation(err.Error())
	}

	isActive := true
	if req.IsActive != nil {
		isActive = *req.IsActive
	}

	pricingJSON, overridesJSON, err := marshalZoneDocs(req.Pricing, req.Overrides)
	if err != nil {
		return transport.ZoneResponse{}, apperr.Validation(err.Error())
	}

	zone, err := s.repo.Create(ctx, repository.CreateZoneParams{
		ZoneKey:       NormalizeZoneKey(req.ZoneKey),
		Municipality:  req.Municipality,
		BasePerM2:     req.BasePerM2,
		Demand:        req.Demand,
		IsActive:      isActive,
		IsPremium:     req.IsPremium,
		PolicyName:    req.PolicyName,
		PricingJSON:   pricingJSON,
		OverridesJSON: overridesJSON,
	})
	if err != nil {
		return transport.ZoneResponse{}, err
	}

	s.publishZoneChanged(ctx, zone.ZoneKey, "created")
	return s.toResponse(zone), nil
}

// Patch updates a zone in place and invalidates the cached table.
func (s *Service) Patch(ctx context.Context, zoneKey string, req transport.UpdateZoneRequest) (transport.ZoneResponse, error) {
	if req.Demand != nil {
		if _, err := engine.ParseDemandLevel(*req.Demand); err != nil {
			return transport.ZoneResponse{}, apperr.Validation(err.Error())
		}
	}

	pricingJSON, overridesJSON, err := marshalZoneDocs(req.Pricing, req.Overrides)
	if err != nil {
		return transport.ZoneResponse{}, apperr.Validation(err.Error())
	}

	zone, err := s.repo.Update(ctx, repository.UpdateZoneParams{
		ZoneKey:       NormalizeZoneKey(zoneKey),
		Municipality:  req.Municipality,
		BasePerM2:     req.BasePerM2,
		Demand:        req.Demand,
		IsActive:      req.IsActive,
		IsPremium:     req.IsPremium,
		PolicyName:    req.PolicyName,
		PricingJSON:   pricingJSON,
		OverridesJSON: overridesJSON,
	})
	if err != nil {
		return transport.ZoneResponse{}, err
	}

	s.publishZoneChanged(ctx, zone.ZoneKey, "updated")
	return s.toResponse(zone), nil
}

// Get retrieves a zone by key.
func (s *Service) Get(ctx context.Context, zoneKey string) (transport.ZoneResponse, error) {
	zone, err := s.repo.GetByKey(ctx, NormalizeZoneKey(zoneKey))
	if err != nil {
		return transport.ZoneResponse{}, err
	}
	return s.toResponse(zone), nil
}

// List retrieves all zones, optionally including inactive ones.
func (s *Service) List(ctx context.Context, includeInactive bool) (transport.ListZonesResponse, error) {
	zones, err := s.repo.List(ctx, !includeInactive)
	if err != nil {
		return transport.ListZonesResponse{}, err
	}

	out := make([]transport.ZoneResponse, 0, len(zones))
	for _, zone := range zones {
		out = append(out, s.toResponse(zone))
	}
	return transport.ListZonesResponse{Zones: out, Total: len(out)}, nil
}

// ActiveZoneTable builds the scoring zone table from active zone rows. It is
// the loader behind the caching table provider. A malformed overrides
// document disables overrides for that zone instead of dropping it.
func (s *Service) ActiveZoneTable(ctx context.Context) (map[string]engine.ZoneInfo, error) {
	zones, err := s.repo.List(ctx, true)
	if err != nil {
		return nil, err
	}

	table := make(map[string]engine.ZoneInfo, len(zones))
	for _, zone := range zones {
		demand, err := engine.ParseDemandLevel(zone.Demand)
		if err != nil {
			s.log.DatabaseError("zones.active_zone_table.demand", fmt.Errorf("zone %s: %w", zone.ZoneKey, err))
			continue
		}
		info := engine.ZoneInfo{BasePerM2: zone.BasePerM2, Demand: demand}
		if len(zone.OverridesJSON) > 0 {
			var overrides engine.FactorOverrides
			if err := json.Unmarshal(zone.OverridesJSON, &overrides); err != nil {
				s.log.DatabaseError("zones.active_zone_table.overrides", fmt.Errorf("zone %s: %w", zone.ZoneKey, err))
			} else {
				info.Overrides = &overrides
			}
		}
		table[NormalizeZoneKey(zone.ZoneKey)] = info
	}
	return table, nil
}

// PolicyRecord returns the pricing view of a zone, or (nil, nil) when the
// zone has no row. Implements the pricing service's zone port.
func (s *Service) PolicyRecord(ctx context.Context, zoneKey string) (*pricing.ZoneRecord, error) {
	zone, err := s.repo.GetByKey(ctx, NormalizeZoneKey(zoneKey))
	if err != nil {
		if apperr.Is(err, apperr.KindNotFound) {
			return nil, nil
		}
		return nil, err
	}

	record := &pricing.ZoneRecord{
		ZoneKey:   zone.ZoneKey,
		IsPremium: zone.IsPremium,
	}
	if zone.PolicyName != nil {
		record.PolicyName = *zone.PolicyName
	}
	if len(zone.PricingJSON) > 0 {
		var table pricing.PriceTable
		if err := json.Unmarshal(zone.PricingJSON, &table); err != nil {
			s.log.DatabaseError("zones.policy_record.pricing", fmt.Errorf("zone %s: %w", zone.ZoneKey, err))
		} else {
			record.PriceTable = &table
		}
	}
	return record, nil
}

// seedZone is one entry in the YAML seed file.
type seedZone struct {
	ZoneKey      string                  `yaml:"zone_key"`
	Municipality string                  `yaml:"municipality"`
	BasePerM2    float64                 `yaml:"base_per_m2"`
	Demand       string                  `yaml:"demand"`
	IsActive     *bool                   `yaml:"is_active"`
	IsPremium    bool                    `yaml:"is_premium"`
	PolicyName   *string                 `yaml:"policy_name"`
	Pricing      *pricing.PriceTable     `yaml:"pricing"`
	Overrides    *engine.FactorOverrides `yaml:"overrides"`
}

type seedFile struct {
	Zones []seedZone `yaml:"zones"`
}

// SeedFromFile upserts zones from a YAML seed file. Invalid entries fail the
// whole import; a partial seed would leave the table inconsistent.
func (s *Service) SeedFromFile(ctx context.Context, path string) (int, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return 0, fmt.Errorf("read seed file: %w", err)
	}

	var file seedFile
	if err := yaml.Unmarshal(raw, &file); err != nil {
		return 0, fmt.Errorf("parse seed file: %w", err)
	}

	for i, entry := range file.Zones {
		if entry.ZoneKey == "" || entry.BasePerM2 <= 0 {
			return 0, fmt.Errorf("seed entry %d: zone_key and positive base_per_m2 required", i)
		}
		if _, err := engine.ParseDemandLevel(entry.Demand); err != nil {
			return 0, fmt.Errorf("seed entry %d (%s): %w", i, entry.ZoneKey, err)
		}
		if entry.Pricing != nil {
			for bucket := range entry.Pricing.Confidence {
				if !pricing.KnownConfidenceBucket(bucket) {
					return 0, fmt.Errorf("seed entry %d (%s): unknown confidence bucket %q", i, entry.ZoneKey, bucket)
				}
			}
		}
	}

	for _, entry := range file.Zones {
		isActive := true
		if entry.IsActive != nil {
			isActive = *entry.IsActive
		}
		pricingJSON, overridesJSON, err := marshalZoneDocs(entry.Pricing, entry.Overrides)
		if err != nil {
			return 0, fmt.Errorf("seed zone %s: %w", entry.ZoneKey, err)
		}
		if _, err := s.repo.Upsert(ctx, repository.CreateZoneParams{
			ZoneKey:       NormalizeZoneKey(entry.ZoneKey),
			Municipality:  entry.Municipality,
			BasePerM2:     entry.BasePerM2,
			Demand:        entry.Demand,
			IsActive:      isActive,
			IsPremium:     entry.IsPremium,
			PolicyName:    entry.PolicyName,
			PricingJSON:   pricingJSON,
			OverridesJSON: overridesJSON,
		}); err != nil {
			return 0, fmt.Errorf("seed zone %s: %w", entry.ZoneKey, err)
		}
	}

	if len(file.Zones) > 0 {
		s.publishZoneChanged(ctx, "*", "seeded")
	}
	return len(file.Zones), nil
}

// publishZoneChanged is synchronous: the cache invalidation must land before
// the mutation response returns, or a scoring request right after a zone
// patch could still read the stale table.
func (s *Service) publishZoneChanged(ctx context.Context, zoneKey, change string) {
	if err := s.bus.PublishSync(ctx, domainevents.ZoneChanged{
		BaseEvent: domainevents.NewBaseEvent(),
		ZoneKey:   zoneKey,
		Change:    change,
	}); err != nil {
		s.log.Error("zone change handler failed", "zone_key", zoneKey, "error", err)
	}
}

func (s *Service) toResponse(zone repository.Zone) transport.ZoneResponse {
	resp := transport.ZoneResponse{
		ZoneKey:      zone.ZoneKey,
		Municipality: zone.Municipality,
		BasePerM2:    zone.BasePerM2,
		Demand:       zone.Demand,
		IsActive:     zone.IsActive,
		IsPremium:    zone.IsPremium,
		PolicyName:   zone.PolicyName,
		CreatedAt:    zone.CreatedAt,
		UpdatedAt:    zone.UpdatedAt,
	}
	if len(zone.PricingJSON) > 0 {
		var table pricing.PriceTable
		if err := json.Unmarshal(zone.PricingJSON, &table); err == nil {
			resp.Pricing = &table
		}
	}
	if len(zone.OverridesJSON) > 0 {
		var overrides engine.FactorOverrides
		if err := json.Unmarshal(zone.OverridesJSON, &overrides); err == nil {
			resp.Overrides = &overrides
		}
	}
	return resp
}

func marshalZoneDocs(table *pricing.PriceTable, overrides *engine.FactorOverrides) ([]byte, []byte, error) {
	var pricingJSON, overridesJSON []byte
	if table != nil {
		for bucket := range table.Confidence {
			if !pricing.KnownConfidenceBucket(bucket) {
				return nil, nil, fmt.Errorf("unknown confidence bucket %q", bucket)
			}
		}
		raw, err := json.Marshal(table)
		if err != nil {
			return nil, nil, fmt.Errorf("encode pricing table: %w", err)
		}
		pricingJSON = raw
	}
	if overrides != nil {
		raw, err := json.Marshal(overrides)
		if err != nil {
			return nil, nil, fmt.Errorf("encode overrides: %w", err)
		}
		overridesJSON = raw
	}
	return pricingJSON, overridesJSON, nil
}
