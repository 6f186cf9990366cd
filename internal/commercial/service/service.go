// Package service implements the commercial lifecycle of a lead: reserve,
// release and sell, plus the sales export.
package service

import (
	"context"
	"time"

	"github.com/google/uuid"

	"iei_backend/internal/commercial/repository"
	"iei_backend/internal/commercial/transport"
	"iei_backend/internal/engine"
	domainevents "iei_backend/internal/events"
	"iei_backend/platform/apperr"
	"iei_backend/platform/config"
	"iei_backend/platform/logger"
)

// LeadStatusSold is the coarse lead status written when a sale lands.
const LeadStatusSold = "vendido"

// Lifecycle states reported to the API.
const (
	StateAvailable = "available"
	StateReserved  = "reserved"
	StateSold      = "sold"
)

// Config combines the settings the commercial service reads.
type Config interface {
	config.CommercialConfig
	config.ExportConfig
}

// Service drives the commercial lifecycle. All transitions run inside a
// per-lead transaction lock; expiry is lazy and happens on every read of a
// reservation, so no background sweeper is needed.
type Service struct {
	repo repository.Repository
	cfg  Config
	bus  domainevents.Bus
	log  *logger.Logger
	now  func() time.Time
}

// New creates a new commercial service.
func New(repo repository.Repository, cfg Config, bus domainevents.Bus, log *logger.Logger) *Service {
	return &Service{repo: repo, cfg: cfg, bus: bus, log: log, now: time.Now}
}

// CreateAgency registers an agency.
func (s *Service) CreateAgency(ctx context.Context, req transport.CreateAgencyRequest) (transport.AgencyResponse, error) {
	agency, err := s.repo.CreateAgency(ctx, repository.CreateAgencyParams{
		Name:  req.Name,
		Email: req.Email,
		Phone: req.Phone,
	})
	if err != nil {
		return transport.AgencyResponse{}, err
	}
	return toAgencyResponse(agency), nil
}

// ListAgencies lists registered agencies.
func (s *Service) ListAgencies(ctx context.Context) ([]transport.AgencyResponse, error) {
	agencies, err := s.repo.ListAgencies(ctx)
	if err != nil {
		return nil, err
	}
	out := make([]transport.AgencyResponse, 0, len(agencies))
	for _, agency := range agencies {
		out = append(out, toAgencyResponse(agency))
	}
	return out, nil
}

// Reserve places a time-boxed hold on a lead for an agency. Only tier A
// leads are reservable; an unexpired hold blocks re-reserving even by the
// holding agency. Expired and released rows are reused.
func (s *Service) Reserve(ctx context.Context, leadID uuid.UUID, req transport.ReserveRequest) (transport.CommercialStateResponse, error) {
	if !s.cfg.GetFeatureReservations() {
		return transport.CommercialStateResponse{}, apperr.FeatureDisabled("reservations")
	}

	agency, err := s.repo.GetAgency(ctx, req.AgencyID)
	if err != nil {
		return transport.CommercialStateResponse{}, err
	}
	if !agency.IsActive {
		return transport.CommercialStateResponse{}, apperr.NotFound("agency not found")
	}

	hours := s.cfg.GetDefaultReservationHours()
	if req.Hours != nil {
		hours = *req.Hours
	}

	var reserved repository.Reservation
	err = s.repo.InLeadTx(ctx, leadID, func(ctx context.Context, store repository.Store) error {
		// The tier gate outranks the sold conflict: a sold non-A lead gets
		// RESERVATION_ONLY_TIER_A, not SOLD.
		state, err := store.GetLeadState(ctx, leadID)
		if err != nil {
			return err
		}
		if state.Tier != string(engine.TierA) {
			return apperr.PolicyViolation(apperr.CodeReservationTierA, "reservations are limited to tier A leads")
		}

		sale, err := store.GetSale(ctx, leadID)
		if err != nil {
			return err
		}
		if sale != nil {
			return apperr.Conflict(apperr.CodeSold, "lead already sold")
		}

		current, err := s.normalizeReservation(ctx, store, leadID)
		if err != nil {
			return err
		}
		if activeHold(current) != nil {
			return apperr.Conflict(apperr.CodeReserved, "lead already reserved")
		}

		reserved, err = store.UpsertActiveReservation(ctx, leadID, req.AgencyID, s.now().Add(time.Duration(hours)*time.Hour))
		return err
	})
	if err != nil {
		return transport.CommercialStateResponse{}, err
	}

	s.log.CommercialEvent("reserved", leadID.String(), req.AgencyID.String())
	s.bus.Publish(ctx, domainevents.LeadReserved{
		BaseEvent: domainevents.NewBaseEvent(),
		LeadID:    leadID,
		AgencyID:  req.AgencyID,
		ExpiresAt: reserved.ExpiresAt.UTC().Format(time.RFC3339),
	})

	return transport.CommercialStateResponse{
		LeadID: leadID,
		State:  StateReserved,
		Reservation: &transport.ReservationView{
			AgencyID:  reserved.AgencyID,
			ExpiresAt: reserved.ExpiresAt.UTC().Format(time.RFC3339),
		},
	}, nil
}

// Release drops the lead's reservation. It is not guarded by ownership and
// not idempotent: an already-released or expired row is accepted and
// re-stamped, only a lead with no reservation row at all is NotFound.
func (s *Service) Release(ctx context.Context, leadID uuid.UUID) (transport.CommercialStateResponse, error) {
	var released repository.Reservation
	err := s.repo.InLeadTx(ctx, leadID, func(ctx context.Context, store repository.Store) error {
		current, err := store.GetReservation(ctx, leadID)
		if err != nil {
			return err
		}
		if current == nil {
			return apperr.NotFound("no reservation for lead")
		}
		released = *current
		return store.MarkReservation(ctx, current.ID, repository.ReservationReleased)
	})
	if err != nil {
		return transport.CommercialStateResponse{}, err
	}

	s.log.CommercialEvent("released", leadID.String(), released.AgencyID.String())
	s.bus.Publish(ctx, domainevents.ReservationReleased{
		BaseEvent: domainevents.NewBaseEvent(),
		LeadID:    leadID,
		AgencyID:  released.AgencyID,
		Reason:    "released",
	})

	return transport.CommercialStateResponse{LeadID: leadID, State: StateAvailable}, nil
}

// Sell records a sale. A reservation held by another agency blocks the sale;
// the seller's own reservation is released as a side effect. Selling does not
// require a reservation.
func (s *Service) Sell(ctx context.Context, leadID uuid.UUID, req transport.SellRequest) (transport.CommercialStateResponse, error) {
	agency, err := s.repo.GetAgency(ctx, req.AgencyID)
	if err != nil {
		return transport.CommercialStateResponse{}, err
	}
	if !agency.IsActive {
		return transport.CommercialStateResponse{}, apperr.NotFound("agency not found")
	}

	var (
		sale       repository.Sale
		superseded *repository.Reservation
	)
	err = s.repo.InLeadTx(ctx, leadID, func(ctx context.Context, store repository.Store) error {
		existing, err := store.GetSale(ctx, leadID)
		if err != nil {
			return err
		}
		if existing != nil {
			return apperr.Conflict(apperr.CodeSold, "lead already sold")
		}

		state, err := store.GetLeadState(ctx, leadID)
		if err != nil {
			return err
		}

		current, err := s.normalizeReservation(ctx, store, leadID)
		if err != nil {
			return err
		}
		if hold := activeHold(current); hold != nil {
			if hold.AgencyID != req.AgencyID {
				return apperr.Conflict(apperr.CodeReservedForOther, "lead is reserved for another agency")
			}
			if err := store.MarkReservation(ctx, hold.ID, repository.ReservationReleased); err != nil {
				return err
			}
			superseded = hold
		}

		sale, err = store.InsertSale(ctx, repository.InsertSaleParams{
			LeadID:   leadID,
			AgencyID: req.AgencyID,
			PriceEUR: req.PriceEUR,
			Tier:     state.Tier,
			Notes:    req.Notes,
		})
		if err != nil {
			return err
		}
		return store.SetLeadStatus(ctx, leadID, LeadStatusSold)
	})
	if err != nil {
		return transport.CommercialStateResponse{}, err
	}

	s.log.CommercialEvent("sold", leadID.String(), req.AgencyID.String())
	if superseded != nil {
		s.bus.Publish(ctx, domainevents.ReservationReleased{
			BaseEvent: domainevents.NewBaseEvent(),
			LeadID:    leadID,
			AgencyID:  superseded.AgencyID,
			Reason:    "superseded_by_sale",
		})
	}
	s.bus.Publish(ctx, domainevents.LeadSold{
		BaseEvent: domainevents.NewBaseEvent(),
		LeadID:    leadID,
		AgencyID:  req.AgencyID,
		PriceEUR:  sale.PriceEUR,
	})

	return transport.CommercialStateResponse{
		LeadID: leadID,
		State:  StateSold,
		Sale: &transport.SaleView{
			AgencyID: sale.AgencyID,
			PriceEUR: sale.PriceEUR,
			Notes:    sale.Notes,
			SoldAt:   sale.SoldAt.UTC().Format(time.RFC3339),
		},
	}, nil
}

// State reports the lifecycle state of a lead. Reading also applies lazy
// expiry, so an expired hold flips to available on the first read after its
// deadline.
func (s *Service) State(ctx context.Context, leadID uuid.UUID) (transport.CommercialStateResponse, error) {
	resp := transport.CommercialStateResponse{LeadID: leadID, State: StateAvailable}
	err := s.repo.InLeadTx(ctx, leadID, func(ctx context.Context, store repository.Store) error {
		sale, err := store.GetSale(ctx, leadID)
		if err != nil {
			return err
		}
		if sale != nil {
			resp.State = StateSold
			resp.Sale = &transport.SaleView{
				AgencyID: sale.AgencyID,
				PriceEUR: sale.PriceEUR,
				Notes:    sale.Notes,
				SoldAt:   sale.SoldAt.UTC().Format(time.RFC3339),
			}
			return nil
		}

		current, err := s.normalizeReservation(ctx, store, leadID)
		if err != nil {
			return err
		}
		if hold := activeHold(current); hold != nil {
			resp.State = StateReserved
			resp.Reservation = &transport.ReservationView{
				AgencyID:  hold.AgencyID,
				ExpiresAt: hold.ExpiresAt.UTC().Format(time.RFC3339),
			}
		}
		return nil
	})
	if err != nil {
		return transport.CommercialStateResponse{}, err
	}
	return resp, nil
}

// normalizeReservation fetches the lead's reservation row and applies lazy
// expiry: an active row past its deadline is marked expired in place. The
// returned row carries the normalized status; nil means no row exists.
func (s *Service) normalizeReservation(ctx context.Context, store repository.Store, leadID uuid.UUID) (*repository.Reservation, error) {
	current, err := store.GetReservation(ctx, leadID)
	if err != nil {
		return nil, err
	}
	if current == nil {
		return nil, nil
	}
	if current.Status == repository.ReservationActive && !s.now().Before(current.ExpiresAt) {
		if err := store.MarkReservation(ctx, current.ID, repository.ReservationExpired); err != nil {
			return nil, err
		}
		current.Status = repository.ReservationExpired
	}
	return current, nil
}

// activeHold filters a normalized reservation down to a live hold.
func activeHold(res *repository.Reservation) *repository.Reservation {
	if res == nil || res.Status != repository.ReservationActive {
		return nil
	}
	return res
}

func toAgencyResponse(agency repository.Agency) transport.AgencyResponse {
	return transport.AgencyResponse{
		ID:        agency.ID,
		Name:      agency.Name,
		Email:     agency.Email,
		Phone:     agency.Phone,
		IsActive:  agency.IsActive,
		CreatedAt: agency.CreatedAt,
	}
}
