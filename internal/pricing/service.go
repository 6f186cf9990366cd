package pricing

import (
	"context"

	"iei_backend/platform/logger"
)

// ZoneReader is the zone lookup the pricing service needs. A (nil, nil)
// return means the zone has no record; built-in fallbacks apply.
type ZoneReader interface {
	PolicyRecord(ctx context.Context, zoneKey string) (*ZoneRecord, error)
}

type Service struct {
	zones ZoneReader
	log   *logger.Logger
}

func NewService(zones ZoneReader, log *logger.Logger) *Service {
	return &Service{zones: zones, log: log}
}

// Price resolves the zone's policy record and computes the lead price. A
// failed zone lookup degrades to the built-in default tables instead of
// failing the lead; pricing must never block intake.
func (s *Service) Price(ctx context.Context, pctx Context) Result {
	zone, err := s.zones.PolicyRecord(ctx, pctx.ZoneKey)
	if err != nil {
		s.log.DatabaseError("pricing.policy_record", err)
		zone = nil
	}
	return ComputePricing(pctx, zone)
}
