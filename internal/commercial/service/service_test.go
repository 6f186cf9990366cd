package service

import (
	"bytes"
	"context"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"

	"iei_backend/internal/commercial/repository"
	"iei_backend/internal/commercial/transport"
	"iei_backend/platform/apperr"
	"iei_backend/platform/events"
	"iei_backend/platform/logger"
)

type fakeRepo struct {
	leads        map[uuid.UUID]repository.LeadState
	reservations map[uuid.UUID]*repository.Reservation // keyed by lead ID
	sales        map[uuid.UUID]*repository.Sale
	agencies     map[uuid.UUID]repository.Agency
	exportRows   []repository.SaleExportRow
}

func newFakeRepo() *fakeRepo {
	return &fakeRepo{
		leads:        make(map[uuid.UUID]repository.LeadState),
		reservations: make(map[uuid.UUID]*repository.Reservation),
		sales:        make(map[uuid.UUID]*repository.Sale),
		agencies:     make(map[uuid.UUID]repository.Agency),
	}
}

var _ repository.Repository = (*fakeRepo)(nil)

func (f *fakeRepo) InLeadTx(ctx context.Context, leadID uuid.UUID, fn func(ctx context.Context, s repository.Store) error) error {
	if _, ok := f.leads[leadID]; !ok {
		return apperr.NotFound("lead not found")
	}
	return fn(ctx, f)
}

func (f *fakeRepo) GetLeadState(_ context.Context, leadID uuid.UUID) (repository.LeadState, error) {
	state, ok := f.leads[leadID]
	if !ok {
		return repository.LeadState{}, apperr.NotFound("lead not found")
	}
	return state, nil
}

func (f *fakeRepo) GetReservation(_ context.Context, leadID uuid.UUID) (*repository.Reservation, error) {
	res, ok := f.reservations[leadID]
	if !ok {
		return nil, nil
	}
	copied := *res
	return &copied, nil
}

func (f *fakeRepo) GetSale(_ context.Context, leadID uuid.UUID) (*repository.Sale, error) {
	sale, ok := f.sales[leadID]
	if !ok {
		return nil, nil
	}
	copied := *sale
	return &copied, nil
}

func (f *fakeRepo) UpsertActiveReservation(_ context.Context, leadID, agencyID uuid.UUID, expiresAt time.Time) (repository.Reservation, error) {
	res, ok := f.reservations[leadID]
	if !ok {
		res = &repository.Reservation{ID: uuid.New(), LeadID: leadID}
		f.reservations[leadID] = res
	}
	res.AgencyID = agencyID
	res.Status = repository.ReservationActive
	res.ExpiresAt = expiresAt
	return *res, nil
}

func (f *fakeRepo) MarkReservation(_ context.Context, reservationID uuid.UUID, status string) error {
	for _, res := range f.reservations {
		if res.ID == reservationID {
			res.Status = status
			return nil
		}
	}
	return apperr.NotFound("reservation not found")
}

func (f *fakeRepo) InsertSale(_ context.Context, params repository.InsertSaleParams) (repository.Sale, error) {
	sale := &repository.Sale{
		ID: uuid.New(), LeadID: params.LeadID, AgencyID: params.AgencyID,
		PriceEUR: params.PriceEUR, Tier: params.Tier, Notes: params.Notes, SoldAt: time.Now(),
	}
	f.sales[params.LeadID] = sale
	return *sale, nil
}

func (f *fakeRepo) SetLeadStatus(_ context.Context, leadID uuid.UUID, status string) error {
	state, ok := f.leads[leadID]
	if !ok {
		return apperr.NotFound("lead not found")
	}
	state.Status = status
	f.leads[leadID] = state
	return nil
}

func (f *fakeRepo) CreateAgency(_ context.Context, params repository.CreateAgencyParams) (repository.Agency, error) {
	agency := repository.Agency{ID: uuid.New(), Name: params.Name, Email: params.Email, Phone: params.Phone, IsActive: true}
	f.agencies[agency.ID] = agency
	return agency, nil
}

func (f *fakeRepo) GetAgency(_ context.Context, id uuid.UUID) (repository.Agency, error) {
	agency, ok := f.agencies[id]
	if !ok {
		return repository.Agency{}, apperr.NotFound("agency not found")
	}
	return agency, nil
}

func (f *fakeRepo) ListAgencies(_ context.Context) ([]repository.Agency, error) {
	var out []repository.Agency
	for _, agency := range f.agencies {
		out = append(out, agency)
	}
	return out, nil
}

func (f *fakeRepo) ListSales(_ context.Context, _, _ *time.Time) ([]repository.SaleExportRow, error) {
	return f.exportRows, nil
}

type testConfig struct {
	reservations bool
	hours        int
	pii          bool
}

func (c testConfig) GetFeatureReservations() bool    { return c.reservations }
func (c testConfig) GetDefaultReservationHours() int { return c.hours }
func (c testConfig) GetExportPII() bool              { return c.pii }

type fixture struct {
	svc     *Service
	repo    *fakeRepo
	leadID  uuid.UUID
	agency  repository.Agency
	agency2 repository.Agency
	clock   time.Time
}

func newFixture(t *testing.T, cfg testConfig) *fixture {
	t.Helper()
	repo := newFakeRepo()
	log := logger.New("test")
	svc := New(repo, cfg, events.NewInMemoryBus(log), log)

	f := &fixture{svc: svc, repo: repo, clock: time.Date(2026, 3, 10, 12, 0, 0, 0, time.UTC)}
	svc.now = func() time.Time { return f.clock }

	f.leadID = uuid.New()
	repo.leads[f.leadID] = repository.LeadState{
		LeadID: f.leadID, Status: "nuevo", Tier: "A", LeadPriceEUR: 90, ZoneKey: "castelldefels",
	}
	f.agency, _ = repo.CreateAgency(context.Background(), repository.CreateAgencyParams{Name: "Alfa", Email: "alfa@example.com"})
	f.agency2, _ = repo.CreateAgency(context.Background(), repository.CreateAgencyParams{Name: "Beta", Email: "beta@example.com"})
	return f
}

func defaultConfig() testConfig {
	return testConfig{reservations: true, hours: 48}
}

func TestReserve_TierALead(t *testing.T) {
	f := newFixture(t, defaultConfig())

	resp, err := f.svc.Reserve(context.Background(), f.leadID, transport.ReserveRequest{AgencyID: f.agency.ID})
	if err != nil {
		t.Fatalf("Reserve: %v", err)
	}
	if resp.State != StateReserved || resp.Reservation == nil {
		t.Fatalf("resp = %+v", resp)
	}
	wantExpiry := f.clock.Add(48 * time.Hour).Format(time.RFC3339)
	if resp.Reservation.ExpiresAt != wantExpiry {
		t.Fatalf("expiry = %s, want %s", resp.Reservation.ExpiresAt, wantExpiry)
	}
}

func TestReserve_FeatureDisabled(t *testing.T) {
	f := newFixture(t, testConfig{reservations: false, hours: 48})

	_, err := f.svc.Reserve(context.Background(), f.leadID, transport.ReserveRequest{AgencyID: f.agency.ID})
	if apperr.GetCode(err) != apperr.CodeFeatureDisabled {
		t.Fatalf("code = %s, want FEATURE_DISABLED", apperr.GetCode(err))
	}
}

func TestReserve_InactiveAgencyTreatedAsMissing(t *testing.T) {
	f := newFixture(t, defaultConfig())
	agency := f.repo.agencies[f.agency.ID]
	agency.IsActive = false
	f.repo.agencies[f.agency.ID] = agency

	_, err := f.svc.Reserve(context.Background(), f.leadID, transport.ReserveRequest{AgencyID: f.agency.ID})
	if !apperr.Is(err, apperr.KindNotFound) {
		t.Fatalf("err = %v, want not found", err)
	}
}

func TestReserve_NonTierARejected(t *testing.T) {
	f := newFixture(t, defaultConfig())
	state := f.repo.leads[f.leadID]
	state.Tier = "B"
	f.repo.leads[f.leadID] = state

	_, err := f.svc.Reserve(context.Background(), f.leadID, transport.ReserveRequest{AgencyID: f.agency.ID})
	if apperr.GetCode(err) != apperr.CodeReservationTierA {
		t.Fatalf("code = %s, want RESERVATION_ONLY_TIER_A", apperr.GetCode(err))
	}
}

func TestReserve_TierGateOutranksSoldConflict(t *testing.T) {
	f := newFixture(t, defaultConfig())

	if _, err := f.svc.Sell(context.Background(), f.leadID, transport.SellRequest{AgencyID: f.agency.ID, PriceEUR: 90}); err != nil {
		t.Fatalf("sell: %v", err)
	}
	state := f.repo.leads[f.leadID]
	state.Tier = "B"
	f.repo.leads[f.leadID] = state

	_, err := f.svc.Reserve(context.Background(), f.leadID, transport.ReserveRequest{AgencyID: f.agency.ID})
	if apperr.GetCode(err) != apperr.CodeReservationTierA {
		t.Fatalf("code = %s, want RESERVATION_ONLY_TIER_A for a sold non-A lead", apperr.GetCode(err))
	}
}

func TestReserve_BlockedByOtherAgency(t *testing.T) {
	f := newFixture(t, defaultConfig())

	if _, err := f.svc.Reserve(context.Background(), f.leadID, transport.ReserveRequest{AgencyID: f.agency.ID}); err != nil {
		t.Fatalf("first reserve: %v", err)
	}
	_, err := f.svc.Reserve(context.Background(), f.leadID, transport.ReserveRequest{AgencyID: f.agency2.ID})
	if apperr.GetCode(err) != apperr.CodeReserved {
		t.Fatalf("code = %s, want RESERVED", apperr.GetCode(err))
	}
}

func TestReserve_SameAgencyBlockedWhileHoldLive(t *testing.T) {
	f := newFixture(t, defaultConfig())

	if _, err := f.svc.Reserve(context.Background(), f.leadID, transport.ReserveRequest{AgencyID: f.agency.ID}); err != nil {
		t.Fatalf("first reserve: %v", err)
	}

	f.clock = f.clock.Add(24 * time.Hour)
	_, err := f.svc.Reserve(context.Background(), f.leadID, transport.ReserveRequest{AgencyID: f.agency.ID})
	if apperr.GetCode(err) != apperr.CodeReserved {
		t.Fatalf("code = %s, want RESERVED even for the holding agency", apperr.GetCode(err))
	}
}

func TestReserve_RowReusedAfterRelease(t *testing.T) {
	f := newFixture(t, defaultConfig())

	if _, err := f.svc.Reserve(context.Background(), f.leadID, transport.ReserveRequest{AgencyID: f.agency.ID}); err != nil {
		t.Fatalf("reserve: %v", err)
	}
	firstID := f.repo.reservations[f.leadID].ID
	if _, err := f.svc.Release(context.Background(), f.leadID); err != nil {
		t.Fatalf("release: %v", err)
	}

	resp, err := f.svc.Reserve(context.Background(), f.leadID, transport.ReserveRequest{AgencyID: f.agency2.ID})
	if err != nil {
		t.Fatalf("re-reserve: %v", err)
	}
	if resp.Reservation.AgencyID != f.agency2.ID {
		t.Fatalf("holder = %s, want second agency", resp.Reservation.AgencyID)
	}
	if f.repo.reservations[f.leadID].ID != firstID {
		t.Fatal("re-reserve must reuse the reservation row")
	}
}

func TestReserve_ExpiredHoldIsReclaimable(t *testing.T) {
	f := newFixture(t, defaultConfig())

	if _, err := f.svc.Reserve(context.Background(), f.leadID, transport.ReserveRequest{AgencyID: f.agency.ID}); err != nil {
		t.Fatalf("first reserve: %v", err)
	}

	f.clock = f.clock.Add(49 * time.Hour)
	resp, err := f.svc.Reserve(context.Background(), f.leadID, transport.ReserveRequest{AgencyID: f.agency2.ID})
	if err != nil {
		t.Fatalf("reserve after expiry: %v", err)
	}
	if resp.Reservation.AgencyID != f.agency2.ID {
		t.Fatalf("holder = %s, want second agency", resp.Reservation.AgencyID)
	}
}

func TestReserve_UnknownLead(t *testing.T) {
	f := newFixture(t, defaultConfig())
	_, err := f.svc.Reserve(context.Background(), uuid.New(), transport.ReserveRequest{AgencyID: f.agency.ID})
	if !apperr.Is(err, apperr.KindNotFound) {
		t.Fatalf("err = %v, want not found", err)
	}
}

func TestRelease(t *testing.T) {
	f := newFixture(t, defaultConfig())

	if _, err := f.svc.Reserve(context.Background(), f.leadID, transport.ReserveRequest{AgencyID: f.agency.ID}); err != nil {
		t.Fatalf("reserve: %v", err)
	}

	resp, err := f.svc.Release(context.Background(), f.leadID)
	if err != nil {
		t.Fatalf("release: %v", err)
	}
	if resp.State != StateAvailable {
		t.Fatalf("state = %s, want available", resp.State)
	}
	if f.repo.reservations[f.leadID].Status != repository.ReservationReleased {
		t.Fatalf("row status = %s", f.repo.reservations[f.leadID].Status)
	}

	// Not idempotent-guarded: a second release just re-stamps the row.
	if _, err := f.svc.Release(context.Background(), f.leadID); err != nil {
		t.Fatalf("double release: %v", err)
	}
}

func TestRelease_ExpiredHoldStillReleasable(t *testing.T) {
	f := newFixture(t, defaultConfig())

	if _, err := f.svc.Reserve(context.Background(), f.leadID, transport.ReserveRequest{AgencyID: f.agency.ID}); err != nil {
		t.Fatalf("reserve: %v", err)
	}
	f.repo.reservations[f.leadID].Status = repository.ReservationExpired

	if _, err := f.svc.Release(context.Background(), f.leadID); err != nil {
		t.Fatalf("release of expired hold: %v", err)
	}
	if f.repo.reservations[f.leadID].Status != repository.ReservationReleased {
		t.Fatalf("row status = %s, want released", f.repo.reservations[f.leadID].Status)
	}
}

func TestRelease_NoReservationRow(t *testing.T) {
	f := newFixture(t, defaultConfig())

	_, err := f.svc.Release(context.Background(), f.leadID)
	if !apperr.Is(err, apperr.KindNotFound) {
		t.Fatalf("err = %v, want not found", err)
	}
}

func TestSell_RecordsSale(t *testing.T) {
	f := newFixture(t, defaultConfig())
	notes := "negotiated at visit"

	resp, err := f.svc.Sell(context.Background(), f.leadID, transport.SellRequest{
		AgencyID: f.agency.ID, PriceEUR: 120.5, Notes: &notes,
	})
	if err != nil {
		t.Fatalf("Sell: %v", err)
	}
	if resp.State != StateSold || resp.Sale == nil {
		t.Fatalf("resp = %+v", resp)
	}
	if resp.Sale.PriceEUR != 120.5 {
		t.Fatalf("price = %v, want 120.5", resp.Sale.PriceEUR)
	}
	if resp.Sale.Notes == nil || *resp.Sale.Notes != notes {
		t.Fatalf("notes = %v, want %q", resp.Sale.Notes, notes)
	}
	if f.repo.leads[f.leadID].Status != LeadStatusSold {
		t.Fatalf("lead status = %s, want %s", f.repo.leads[f.leadID].Status, LeadStatusSold)
	}
	if f.repo.sales[f.leadID].Tier != "A" {
		t.Fatalf("tier snapshot = %s, want A", f.repo.sales[f.leadID].Tier)
	}
}

func TestSell_ReleasesOwnReservation(t *testing.T) {
	f := newFixture(t, defaultConfig())

	if _, err := f.svc.Reserve(context.Background(), f.leadID, transport.ReserveRequest{AgencyID: f.agency.ID}); err != nil {
		t.Fatalf("reserve: %v", err)
	}
	if _, err := f.svc.Sell(context.Background(), f.leadID, transport.SellRequest{AgencyID: f.agency.ID, PriceEUR: 90}); err != nil {
		t.Fatalf("sell: %v", err)
	}
	if f.repo.reservations[f.leadID].Status != repository.ReservationReleased {
		t.Fatalf("reservation status = %s, want released", f.repo.reservations[f.leadID].Status)
	}
}

func TestSell_BlockedByForeignReservation(t *testing.T) {
	f := newFixture(t, defaultConfig())

	if _, err := f.svc.Reserve(context.Background(), f.leadID, transport.ReserveRequest{AgencyID: f.agency.ID}); err != nil {
		t.Fatalf("reserve: %v", err)
	}
	_, err := f.svc.Sell(context.Background(), f.leadID, transport.SellRequest{AgencyID: f.agency2.ID, PriceEUR: 90})
	if apperr.GetCode(err) != apperr.CodeReservedForOther {
		t.Fatalf("code = %s, want RESERVED_FOR_OTHER", apperr.GetCode(err))
	}
}

func TestSell_AlreadySold(t *testing.T) {
	f := newFixture(t, defaultConfig())

	if _, err := f.svc.Sell(context.Background(), f.leadID, transport.SellRequest{AgencyID: f.agency.ID, PriceEUR: 90}); err != nil {
		t.Fatalf("first sell: %v", err)
	}
	_, err := f.svc.Sell(context.Background(), f.leadID, transport.SellRequest{AgencyID: f.agency2.ID, PriceEUR: 95})
	if apperr.GetCode(err) != apperr.CodeSold {
		t.Fatalf("code = %s, want SOLD", apperr.GetCode(err))
	}
}

func TestSell_InactiveAgencyTreatedAsMissing(t *testing.T) {
	f := newFixture(t, defaultConfig())
	agency := f.repo.agencies[f.agency.ID]
	agency.IsActive = false
	f.repo.agencies[f.agency.ID] = agency

	_, err := f.svc.Sell(context.Background(), f.leadID, transport.SellRequest{AgencyID: f.agency.ID, PriceEUR: 90})
	if !apperr.Is(err, apperr.KindNotFound) {
		t.Fatalf("err = %v, want not found", err)
	}
}

func TestSell_WorksWhenReservationsDisabled(t *testing.T) {
	f := newFixture(t, testConfig{reservations: false, hours: 48})

	if _, err := f.svc.Sell(context.Background(), f.leadID, transport.SellRequest{AgencyID: f.agency.ID, PriceEUR: 90}); err != nil {
		t.Fatalf("sell with reservations off: %v", err)
	}
}

func TestState_LazyExpiryOnRead(t *testing.T) {
	f := newFixture(t, defaultConfig())

	if _, err := f.svc.Reserve(context.Background(), f.leadID, transport.ReserveRequest{AgencyID: f.agency.ID}); err != nil {
		t.Fatalf("reserve: %v", err)
	}

	resp, err := f.svc.State(context.Background(), f.leadID)
	if err != nil {
		t.Fatalf("State: %v", err)
	}
	if resp.State != StateReserved {
		t.Fatalf("state = %s, want reserved", resp.State)
	}

	f.clock = f.clock.Add(49 * time.Hour)
	resp, err = f.svc.State(context.Background(), f.leadID)
	if err != nil {
		t.Fatalf("State after expiry: %v", err)
	}
	if resp.State != StateAvailable {
		t.Fatalf("state = %s, want available after lazy expiry", resp.State)
	}
	if f.repo.reservations[f.leadID].Status != repository.ReservationExpired {
		t.Fatalf("row status = %s, want expired", f.repo.reservations[f.leadID].Status)
	}
}

func TestExportSalesCSV_MasksPIIByDefault(t *testing.T) {
	f := newFixture(t, defaultConfig())
	f.repo.exportRows = []repository.SaleExportRow{{
		SaleID: uuid.New(), LeadID: f.leadID, AgencyName: "Alfa",
		ZoneKey: "castelldefels", Tier: "A", PriceEUR: 90,
		SoldAt:      time.Date(2026, 3, 10, 12, 0, 0, 0, time.UTC),
		ContactName: "Maria Garcia", ContactPhone: "+34600111222", ContactEmail: "maria@example.com",
	}}

	var buf bytes.Buffer
	if err := f.svc.ExportSalesCSV(context.Background(), nil, nil, &buf); err != nil {
		t.Fatalf("ExportSalesCSV: %v", err)
	}
	out := buf.String()
	if !strings.HasPrefix(out, "sale_id,lead_id,agency,zone_key,tier,price_eur,sold_at") {
		t.Fatalf("header missing: %q", out)
	}
	if strings.Contains(out, "Maria Garcia") || strings.Contains(out, "maria@example.com") || strings.Contains(out, "600111222") {
		t.Fatalf("PII leaked into masked export: %q", out)
	}
	if !strings.Contains(out, "M. G.") || !strings.Contains(out, "ma***@example.com") || !strings.Contains(out, "+34***22") {
		t.Fatalf("masked values missing: %q", out)
	}
}

func TestExportSalesCSV_IncludesPIIWhenEnabled(t *testing.T) {
	f := newFixture(t, testConfig{reservations: true, hours: 48, pii: true})
	f.repo.exportRows = []repository.SaleExportRow{{
		SaleID: uuid.New(), LeadID: f.leadID, AgencyName: "Alfa",
		ZoneKey: "castelldefels", Tier: "A", PriceEUR: 90,
		SoldAt:      time.Date(2026, 3, 10, 12, 0, 0, 0, time.UTC),
		ContactName: "Maria Garcia", ContactPhone: "+34600111222", ContactEmail: "maria@example.com",
	}}

	var buf bytes.Buffer
	if err := f.svc.ExportSalesCSV(context.Background(), nil, nil, &buf); err != nil {
		t.Fatalf("ExportSalesCSV: %v", err)
	}
	if !strings.Contains(buf.String(), "Maria Garcia") {
		t.Fatalf("PII missing from enabled export: %q", buf.String())
	}
}
