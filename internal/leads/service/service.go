// Package service implements lead intake and scoring orchestration: one zone
// table snapshot per request, engine scoring, pricing, then persistence.
package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/google/uuid"

	"iei_backend/internal/engine"
	domainevents "iei_backend/internal/events"
	"iei_backend/internal/leads/repository"
	"iei_backend/internal/leads/transport"
	"iei_backend/internal/pricing"
	"iei_backend/internal/zones"
	zonesvc "iei_backend/internal/zones/service"
	"iei_backend/platform/apperr"
	"iei_backend/platform/config"
	"iei_backend/platform/logger"
)

// LeadStatusNew is the coarse status of a freshly scored lead.
const LeadStatusNew = "nuevo"

// Service orchestrates intake and scoring.
type Service struct {
	repo     repository.Repository
	provider zones.TableProvider
	pricing  *pricing.Service
	cfg      config.EngineConfig
	bus      domainevents.Bus
	log      *logger.Logger
}

// New creates a new leads service.
func New(repo repository.Repository, provider zones.TableProvider, pricingSvc *pricing.Service, cfg config.EngineConfig, bus domainevents.Bus, log *logger.Logger) *Service {
	return &Service{repo: repo, provider: provider, pricing: pricingSvc, cfg: cfg, bus: bus, log: log}
}

// buildInput converts wire payloads into a typed engine input. Enum parsing
// fails closed: an unknown wire value is a validation error, never a default.
func buildInput(property transport.PropertyPayload, signals transport.SignalsPayload) (engine.LeadInput, error) {
	propertyType, err := engine.ParsePropertyType(property.PropertyType)
	if err != nil {
		return engine.LeadInput{}, apperr.Validation(err.Error())
	}
	condition, err := engine.ParseCondition(property.Condition)
	if err != nil {
		return engine.LeadInput{}, apperr.Validation(err.Error())
	}
	horizon, err := engine.ParseSaleHorizon(signals.SaleHorizon)
	if err != nil {
		return engine.LeadInput{}, apperr.Validation(err.Error())
	}
	motivation, err := engine.ParseMotivation(signals.Motivation)
	if err != nil {
		return engine.LeadInput{}, apperr.Validation(err.Error())
	}
	listed, err := engine.ParseListingStatus(signals.AlreadyListed)
	if err != nil {
		return engine.LeadInput{}, apperr.Validation(err.Error())
	}
	exclusivity, err := engine.ParseExclusivity(signals.Exclusivity)
	if err != nil {
		return engine.LeadInput{}, apperr.Validation(err.Error())
	}

	return engine.LeadInput{
		Property: engine.PropertyFeatures{
			ZoneKey:      zonesvc.NormalizeZoneKey(property.ZoneKey),
			Municipality: property.Municipality,
			Neighborhood: property.Neighborhood,
			PostalCode:   property.PostalCode,
			PropertyType: propertyType,
			M2:           property.M2,
			Condition:    condition,
			YearBuilt:    property.YearBuilt,
			HasElevator:  property.HasElevator,
			HasTerrace:   property.HasTerrace,
			TerraceM2:    property.TerraceM2,
			HasParking:   property.HasParking,
			HasViews:     property.HasViews,
		},
		Owner: engine.OwnerSignals{
			SaleHorizon:   horizon,
			Motivation:    motivation,
			AlreadyListed: listed,
			Exclusivity:   exclusivity,
			ExpectedPrice: signals.ExpectedPrice,
		},
	}, nil
}

// score runs the engine against the current zone table snapshot and prices
// the outcome. The parsed input is returned alongside so callers persisting
// artifacts don't parse the payload a second time.
func (s *Service) score(ctx context.Context, property transport.PropertyPayload, signals transport.SignalsPayload) (engine.LeadInput, engine.Result, pricing.Result, error) {
	input, err := buildInput(property, signals)
	if err != nil {
		return engine.LeadInput{}, engine.Result{}, pricing.Result{}, err
	}

	table, err := s.provider.Snapshot(ctx)
	if err != nil {
		return engine.LeadInput{}, engine.Result{}, pricing.Result{}, fmt.Errorf("zone table snapshot: %w", err)
	}

	result, err := engine.ComputeIEI(input, table)
	if err != nil {
		if errors.Is(err, engine.ErrZoneNotConfigured) {
			return engine.LeadInput{}, engine.Result{}, pricing.Result{}, apperr.ZoneNotConfigured(input.Property.ZoneKey)
		}
		return engine.LeadInput{}, engine.Result{}, pricing.Result{}, apperr.Validation(err.Error())
	}

	priced := s.pricing.Price(ctx, pricing.Context{
		Tier:          result.Tier,
		ZoneKey:       input.Property.ZoneKey,
		SaleHorizon:   input.Owner.SaleHorizon,
		AlreadyListed: input.Owner.AlreadyListed,
		GapPercent:    result.PricingAlignment.GapPercent,
		Demand:        result.PriceEstimate.DemandLevel,
		Confidence:    signals.Confidence,
	})
	return input, result, priced, nil
}

// Score is the stateless scoring operation: full engine plus pricing output,
// nothing persisted.
func (s *Service) Score(ctx context.Context, req transport.ScoreRequest) (transport.ScoreResponse, error) {
	_, result, priced, err := s.score(ctx, req.Property, req.Signals)
	if err != nil {
		return transport.ScoreResponse{}, err
	}
	return transport.ScoreResponse{Result: result, Pricing: priced}, nil
}

// Intake scores a submitted lead and persists the lead, its immutable input
// snapshot and the scoring artifacts.
func (s *Service) Intake(ctx context.Context, req transport.IntakeLeadRequest) (transport.IntakeLeadResponse, error) {
	input, result, priced, err := s.score(ctx, req.Property, req.Signals)
	if err != nil {
		return transport.IntakeLeadResponse{}, err
	}
	card := engine.LeadCard(input, result)

	inputJSON, err := json.Marshal(map[string]any{"property": req.Property, "signals": req.Signals})
	if err != nil {
		return transport.IntakeLeadResponse{}, apperr.Internal("encode input snapshot")
	}
	resultJSON, err := json.Marshal(result)
	if err != nil {
		return transport.IntakeLeadResponse{}, apperr.Internal("encode scoring result")
	}
	pricingJSON, err := json.Marshal(priced)
	if err != nil {
		return transport.IntakeLeadResponse{}, apperr.Internal("encode pricing result")
	}
	cardJSON, err := json.Marshal(card)
	if err != nil {
		return transport.IntakeLeadResponse{}, apperr.Internal("encode lead card")
	}

	lead, err := s.repo.CreateLead(ctx, repository.CreateLeadParams{
		ContactName:   req.Contact.Name,
		ContactPhone:  req.Contact.Phone,
		ContactEmail:  req.Contact.Email,
		ZoneKey:       input.Property.ZoneKey,
		Status:        LeadStatusNew,
		Source:        req.Source,
		EngineVersion: s.cfg.GetEngineVersion(),
		IEIScore:      result.IEIScore,
		Tier:          string(result.Tier),
		LeadPriceEUR:  priced.LeadPriceEUR,
		InputJSON:     inputJSON,
		ResultJSON:    resultJSON,
		PricingJSON:   pricingJSON,
		LeadCardJSON:  cardJSON,
	})
	if err != nil {
		return transport.IntakeLeadResponse{}, err
	}

	s.log.LeadScored(lead.ID.String(), lead.ZoneKey, string(result.Tier), result.IEIScore)
	s.bus.Publish(ctx, domainevents.LeadScored{
		BaseEvent: domainevents.NewBaseEvent(),
		LeadID:    lead.ID,
		ZoneKey:   lead.ZoneKey,
		Tier:      string(result.Tier),
		Score:     result.IEIScore,
	})

	return transport.IntakeLeadResponse{
		LeadID:        lead.ID,
		IEIScore:      result.IEIScore,
		Tier:          result.Tier,
		PriceEstimate: result.PriceEstimate,
	}, nil
}

// List retrieves the admin lead list.
func (s *Service) List(ctx context.Context, req transport.ListLeadsRequest) (transport.ListLeadsResponse, error) {
	rows, total, err := s.repo.ListLeads(ctx, repository.ListLeadsParams{
		Status:  req.Status,
		Tier:    req.Tier,
		ZoneKey: zonesvc.NormalizeZoneKey(req.ZoneKey),
		Limit:   req.Limit,
		Offset:  req.Offset,
	})
	if err != nil {
		return transport.ListLeadsResponse{}, err
	}

	leads := make([]transport.LeadSummary, 0, len(rows))
	for _, row := range rows {
		leads = append(leads, transport.LeadSummary{
			LeadID:    row.ID,
			ZoneKey:   row.ZoneKey,
			Status:    row.Status,
			Tier:      engine.Tier(row.Tier),
			IEIScore:  row.IEIScore,
			PriceEUR:  row.LeadPriceEUR,
			CreatedAt: row.CreatedAt,
		})
	}
	return transport.ListLeadsResponse{Leads: leads, Total: total}, nil
}

// Get retrieves the full back-office view of a lead.
func (s *Service) Get(ctx context.Context, id uuid.UUID) (transport.LeadDetailResponse, error) {
	detail, err := s.repo.GetLead(ctx, id)
	if err != nil {
		return transport.LeadDetailResponse{}, err
	}

	var card map[string]any
	if err := json.Unmarshal(detail.LeadCardJSON, &card); err != nil {
		return transport.LeadDetailResponse{}, apperr.Internal("decode lead card")
	}
	var priced pricing.Result
	if err := json.Unmarshal(detail.PricingJSON, &priced); err != nil {
		return transport.LeadDetailResponse{}, apperr.Internal("decode pricing result")
	}

	return transport.LeadDetailResponse{
		LeadID: detail.ID,
		Status: detail.Status,
		Contact: transport.ContactPayload{
			Name:  detail.ContactName,
			Phone: detail.ContactPhone,
			Email: detail.ContactEmail,
		},
		Source:    detail.Source,
		LeadCard:  card,
		Pricing:   priced,
		CreatedAt: detail.CreatedAt,
	}, nil
}
