package service

import (
	"context"
	"encoding/json"
	"testing"

	"github.com/google/uuid"

	"iei_backend/internal/leads/repository"
	"iei_backend/internal/leads/transport"
	"iei_backend/internal/pricing"
	"iei_backend/internal/zones"
	"iei_backend/platform/apperr"
	"iei_backend/platform/events"
	"iei_backend/platform/logger"
)

type fakeRepo struct {
	created []repository.CreateLeadParams
	leads   map[uuid.UUID]repository.LeadDetail
}

func newFakeRepo() *fakeRepo {
	return &fakeRepo{leads: make(map[uuid.UUID]repository.LeadDetail)}
}

var _ repository.Repository = (*fakeRepo)(nil)

func (f *fakeRepo) CreateLead(_ context.Context, params repository.CreateLeadParams) (repository.Lead, error) {
	f.created = append(f.created, params)
	lead := repository.Lead{
		ID:           uuid.New(),
		ContactName:  params.ContactName,
		ContactPhone: params.ContactPhone,
		ContactEmail: params.ContactEmail,
		ZoneKey:      params.ZoneKey,
		Status:       params.Status,
		Source:       params.Source,
	}
	f.leads[lead.ID] = repository.LeadDetail{
		Lead:          lead,
		EngineVersion: params.EngineVersion,
		IEIScore:      params.IEIScore,
		Tier:          params.Tier,
		LeadPriceEUR:  params.LeadPriceEUR,
		InputJSON:     params.InputJSON,
		ResultJSON:    params.ResultJSON,
		PricingJSON:   params.PricingJSON,
		LeadCardJSON:  params.LeadCardJSON,
	}
	return lead, nil
}

func (f *fakeRepo) ListLeads(_ context.Context, _ repository.ListLeadsParams) ([]repository.LeadSummaryRow, int, error) {
	var rows []repository.LeadSummaryRow
	for _, detail := range f.leads {
		rows = append(rows, repository.LeadSummaryRow{
			ID: detail.ID, ZoneKey: detail.ZoneKey, Status: detail.Status,
			Tier: detail.Tier, IEIScore: detail.IEIScore, LeadPriceEUR: detail.LeadPriceEUR,
		})
	}
	return rows, len(rows), nil
}

func (f *fakeRepo) GetLead(_ context.Context, id uuid.UUID) (repository.LeadDetail, error) {
	detail, ok := f.leads[id]
	if !ok {
		return repository.LeadDetail{}, apperr.NotFound("lead not found")
	}
	return detail, nil
}

type noZoneReader struct{}

func (noZoneReader) PolicyRecord(context.Context, string) (*pricing.ZoneRecord, error) {
	return nil, nil
}

type testEngineConfig struct{}

func (testEngineConfig) GetEngineVersion() string { return "iei-test" }

func newTestService(repo repository.Repository) *Service {
	log := logger.New("test")
	return New(
		repo,
		zones.NewStaticProvider(nil),
		pricing.NewService(noZoneReader{}, log),
		testEngineConfig{},
		events.NewInMemoryBus(log),
		log,
	)
}

func intakeRequest() transport.IntakeLeadRequest {
	expected := 380000.0
	return transport.IntakeLeadRequest{
		Contact: transport.ContactPayload{
			Name: "Maria Garcia", Phone: "+34600111222", Email: "maria@example.com",
		},
		Property: transport.PropertyPayload{
			ZoneKey:      "Castelldefels",
			Municipality: "Castelldefels",
			PropertyType: "piso",
			M2:           90,
			Condition:    "buen_estado",
			HasElevator:  true,
			HasTerrace:   true,
			TerraceM2:    ptrFloat(8),
		},
		Signals: transport.SignalsPayload{
			SaleHorizon:   "3-6m",
			Motivation:    "compra_otra",
			AlreadyListed: "no",
			Exclusivity:   "depende",
			ExpectedPrice: &expected,
		},
	}
}

func ptrFloat(f float64) *float64 { return &f }

func TestIntake_ScoresAndPersists(t *testing.T) {
	repo := newFakeRepo()
	svc := newTestService(repo)

	resp, err := svc.Intake(context.Background(), intakeRequest())
	if err != nil {
		t.Fatalf("Intake: %v", err)
	}
	if resp.IEIScore != 63 || resp.Tier != "C" {
		t.Fatalf("score = %d tier = %s, want 63 C", resp.IEIScore, resp.Tier)
	}
	if resp.PriceEstimate.AdjustedPrice != 319500 {
		t.Fatalf("adjusted = %v, want 319500", resp.PriceEstimate.AdjustedPrice)
	}

	if len(repo.created) != 1 {
		t.Fatalf("created %d leads, want 1", len(repo.created))
	}
	stored := repo.created[0]
	if stored.Status != LeadStatusNew || stored.ZoneKey != "castelldefels" {
		t.Fatalf("stored = %+v", stored)
	}
	if stored.EngineVersion != "iei-test" {
		t.Fatalf("engine version = %s", stored.EngineVersion)
	}
	// Tier C in a premium zone prices at 25 under the built-in premium table.
	if stored.LeadPriceEUR != 25 {
		t.Fatalf("lead price = %v, want 25", stored.LeadPriceEUR)
	}

	var card map[string]any
	if err := json.Unmarshal(stored.LeadCardJSON, &card); err != nil {
		t.Fatalf("card does not decode: %v", err)
	}
	if _, ok := card["iei_score"]; !ok {
		t.Fatalf("card missing iei_score: %v", card)
	}
	// The card is built from the same parsed input that was scored, so the
	// zone key inside it is the normalized one.
	zone, _ := card["zone"].(map[string]any)
	if zone["zone_key"] != "castelldefels" {
		t.Fatalf("card zone = %v, want normalized castelldefels", zone["zone_key"])
	}
}

func TestIntake_UnknownZone(t *testing.T) {
	repo := newFakeRepo()
	svc := newTestService(repo)

	req := intakeRequest()
	req.Property.ZoneKey = "vilanova"

	_, err := svc.Intake(context.Background(), req)
	if apperr.GetCode(err) != apperr.CodeZoneNotConfigured {
		t.Fatalf("code = %s, want ZONE_NOT_CONFIGURED", apperr.GetCode(err))
	}
	if len(repo.created) != 0 {
		t.Fatal("failed intake must not persist")
	}
}

func TestIntake_UnknownEnumFailsClosed(t *testing.T) {
	repo := newFakeRepo()
	svc := newTestService(repo)

	req := intakeRequest()
	req.Signals.Motivation = "aburrimiento"

	_, err := svc.Intake(context.Background(), req)
	if !apperr.Is(err, apperr.KindValidation) {
		t.Fatalf("err = %v, want validation", err)
	}
}

func TestScore_StatelessDoesNotPersist(t *testing.T) {
	repo := newFakeRepo()
	svc := newTestService(repo)

	req := intakeRequest()
	resp, err := svc.Score(context.Background(), transport.ScoreRequest{
		Property: req.Property,
		Signals:  req.Signals,
	})
	if err != nil {
		t.Fatalf("Score: %v", err)
	}
	if resp.Result.IEIScore != 63 {
		t.Fatalf("score = %d, want 63", resp.Result.IEIScore)
	}
	if resp.Pricing.Policy == "" {
		t.Fatal("pricing missing from stateless score")
	}
	if len(repo.created) != 0 {
		t.Fatal("stateless score must not persist")
	}
}

func TestGet_DecodesStoredArtifacts(t *testing.T) {
	repo := newFakeRepo()
	svc := newTestService(repo)

	created, err := svc.Intake(context.Background(), intakeRequest())
	if err != nil {
		t.Fatalf("Intake: %v", err)
	}

	detail, err := svc.Get(context.Background(), created.LeadID)
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if detail.Contact.Name != "Maria Garcia" {
		t.Fatalf("contact = %+v", detail.Contact)
	}
	if detail.Pricing.Policy != pricing.PolicyPremium {
		t.Fatalf("policy = %s, want premium", detail.Pricing.Policy)
	}
	if detail.LeadCard["tier"] != "C" {
		t.Fatalf("card tier = %v", detail.LeadCard["tier"])
	}
}
