// Package pricing resolves zone pricing policies and computes the monetary
// price of a scored lead. The resolver is pure; zone records arrive as
// explicit inputs.
package pricing

import (
	"math"
	"strings"

	"iei_backend/internal/engine"
)

// Built-in policies. Zones without an explicit price table fall back to one
// of these, so unconfigured zones keep working.
const (
	PolicyPremium  = "baix_llobregat_premium"
	PolicyStandard = "standard_mvp_policy"
	PolicyVersion  = "v1"
)

// premiumZones are zones priced with the premium table even before they get
// an explicit policy record.
var premiumZones = map[string]bool{
	"castelldefels": true,
	"gava":          true,
	"sitges":        true,
}

// Segment is the pricing-relevant refinement of a tier. It equals the tier
// except for the A_PLUS upgrade.
type Segment string

const SegmentAPlus Segment = "A_PLUS"

// ConfidenceBucket qualifies how reliable the lead's data is, independent of
// its tier.
type ConfidenceBucket string

const (
	ConfidenceHigh       ConfidenceBucket = "high"
	ConfidenceMedium     ConfidenceBucket = "medium"
	ConfidenceLow        ConfidenceBucket = "low"
	ConfidenceUnreliable ConfidenceBucket = "unreliable"
)

// PriceTable maps tiers (plus the A_PLUS segment) to lead prices in EUR and
// carries per-bucket confidence multipliers. The JSON shape is the zone
// pricing contract.
type PriceTable struct {
	A          float64            `json:"A" yaml:"A"`
	B          float64            `json:"B" yaml:"B"`
	C          float64            `json:"C" yaml:"C"`
	D          float64            `json:"D" yaml:"D"`
	APlus      float64            `json:"A_PLUS" yaml:"A_PLUS"`
	Confidence map[string]float64 `json:"confidence,omitempty" yaml:"confidence,omitempty"`
}

// DefaultPremiumTable is the built-in premium price table.
func DefaultPremiumTable() PriceTable {
	return PriceTable{
		A: 90, B: 55, C: 25, D: 0, APlus: 150,
		Confidence: defaultConfidence(),
	}
}

// DefaultStandardTable is the built-in standard price table.
func DefaultStandardTable() PriceTable {
	return PriceTable{
		A: 45, B: 30, C: 15, D: 0, APlus: 70,
		Confidence: defaultConfidence(),
	}
}

// KnownConfidenceBucket reports whether name is a defined confidence bucket.
// Table inputs are checked against it so a misspelled bucket fails instead of
// silently falling back to the 1.0 multiplier.
func KnownConfidenceBucket(name string) bool {
	switch ConfidenceBucket(name) {
	case ConfidenceHigh, ConfidenceMedium, ConfidenceLow, ConfidenceUnreliable:
		return true
	}
	return false
}

func defaultConfidence() map[string]float64 {
	return map[string]float64{
		string(ConfidenceHigh):       1.2,
		string(ConfidenceMedium):     1.0,
		string(ConfidenceLow):        0.8,
		string(ConfidenceUnreliable): 0.0,
	}
}

// ZoneRecord is the pricing-relevant view of a zone row. A nil *ZoneRecord
// means the zone has no row at all; fallbacks still apply.
type ZoneRecord struct {
	ZoneKey    string
	PolicyName string
	IsPremium  bool
	PriceTable *PriceTable
}

// Context carries the sale signals the resolver needs.
type Context struct {
	Tier          engine.Tier
	ZoneKey       string
	SaleHorizon   engine.SaleHorizon
	AlreadyListed engine.ListingStatus
	GapPercent    *float64
	Demand        engine.DemandLevel
	Confidence    *string
}

// Result is the computed commercial price for a lead.
type Result struct {
	LeadPriceEUR     float64          `json:"lead_price_eur"`
	Segment          Segment          `json:"segment"`
	Policy           string           `json:"policy"`
	PolicyVersion    string           `json:"policy_version"`
	ConfidenceBucket ConfidenceBucket `json:"confidence_bucket"`
	IsPremiumZone    bool             `json:"is_premium_zone"`
	PriceTable       PriceTable       `json:"policy_table"`
}

// ResolvePolicy picks the effective policy for a zone: an explicit zone price
// table wins; otherwise premium zones (by flag, policy name or built-in set)
// get the premium defaults and everything else the standard defaults.
func ResolvePolicy(zone *ZoneRecord, zoneKey string) (string, bool, PriceTable) {
	normalized := strings.ToLower(strings.TrimSpace(zoneKey))

	if zone != nil && zone.PriceTable != nil {
		policyName := zone.PolicyName
		if policyName == "" {
			policyName = PolicyPremium
		}
		return policyName, zone.IsPremium, *zone.PriceTable
	}

	zoneIsPremium := premiumZones[normalized]
	zonePolicy := ""
	if zone != nil {
		zoneIsPremium = zone.IsPremium
		zonePolicy = zone.PolicyName
	}

	if zoneIsPremium || zonePolicy == PolicyPremium {
		return PolicyPremium, true, DefaultPremiumTable()
	}

	if zonePolicy == "" {
		zonePolicy = PolicyStandard
	}
	return zonePolicy, false, DefaultStandardTable()
}

// ResolveConfidenceBucket normalizes a raw confidence signal. Unrecognized or
// absent values become medium; this is the one categorical input that is
// specified to default instead of failing closed.
func ResolveConfidenceBucket(raw *string) ConfidenceBucket {
	if raw == nil || *raw == "" {
		return ConfidenceMedium
	}
	switch b := ConfidenceBucket(strings.ToLower(strings.TrimSpace(*raw))); b {
	case ConfidenceHigh, ConfidenceMedium, ConfidenceLow, ConfidenceUnreliable:
		return b
	}
	return ConfidenceMedium
}

// ResolveSegment upgrades only the most certain, fastest, most in-demand
// Tier-A leads to the A_PLUS premium sub-tier.
func ResolveSegment(ctx Context) Segment {
	if ctx.Tier != engine.TierA {
		return Segment(ctx.Tier)
	}

	confidenceOK := true
	if ctx.Confidence != nil && *ctx.Confidence != "" {
		confidenceOK = ResolveConfidenceBucket(ctx.Confidence) == ConfidenceHigh
	}

	if ctx.SaleHorizon == engine.HorizonUnder3M &&
		ctx.AlreadyListed == engine.ListedNo &&
		ctx.Demand == engine.DemandAlta &&
		ctx.GapPercent != nil && *ctx.GapPercent <= 5.0 &&
		confidenceOK {
		return SegmentAPlus
	}

	return Segment(engine.TierA)
}

// roundMoney rounds half-up to 2 decimals.
func roundMoney(v float64) float64 {
	return math.Floor(v*100+0.5) / 100
}

// ComputePricing computes the monetary lead price for a tier in a zone.
// Tier D is hard-overridden to price 0 and segment D; a zero confidence
// multiplier forces price 0 regardless of the base tier price.
func ComputePricing(ctx Context, zone *ZoneRecord) Result {
	policyName, isPremiumZone, table := ResolvePolicy(zone, ctx.ZoneKey)
	bucket := ResolveConfidenceBucket(ctx.Confidence)
	segment := ResolveSegment(ctx)

	multiplier := 1.0
	if table.Confidence != nil {
		if m, ok := table.Confidence[string(bucket)]; ok {
			multiplier = m
		}
	}

	basePrice := table.D
	if segment == SegmentAPlus {
		basePrice = table.APlus
	} else {
		switch ctx.Tier {
		case engine.TierA:
			basePrice = table.A
		case engine.TierB:
			basePrice = table.B
		case engine.TierC:
			basePrice = table.C
		case engine.TierD:
			basePrice = table.D
		}
	}

	leadPrice := 0.0
	if multiplier > 0 {
		leadPrice = roundMoney(basePrice * multiplier)
	}

	if ctx.Tier == engine.TierD {
		leadPrice = 0.0
		segment = Segment(engine.TierD)
	}

	return Result{
		LeadPriceEUR:     leadPrice,
		Segment:          segment,
		Policy:           policyName,
		PolicyVersion:    PolicyVersion,
		ConfidenceBucket: bucket,
		IsPremiumZone:    isPremiumZone,
		PriceTable:       table,
	}
}
