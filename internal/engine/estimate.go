package engine

import (
	"errors"
	"fmt"
	"math"
)

// ErrZoneNotConfigured is returned when the zone key is absent from the
// effective zone table. Inactive zones never enter a table, so absence covers
// both cases.
var ErrZoneNotConfigured = errors.New("zone not configured")

// Default pricing factor tables. Zones may override individual entries via
// FactorOverrides.
const (
	extraElevator     = 0.04
	extraParking      = 0.04
	extraViews        = 0.06
	extraTerraceBig   = 0.03 // terrace > 10 m2
	extraTerraceSmall = 0.02 // terrace <= 10 m2 or size unknown
	extrasCap         = 0.10 // max cumulative extras bonus
)

// Extra override keys accepted in FactorOverrides.Extras.
const (
	ExtraKeyElevator     = "elevator"
	ExtraKeyParking      = "parking"
	ExtraKeyViews        = "views"
	ExtraKeyTerraceBig   = "terrace_big"
	ExtraKeyTerraceSmall = "terrace_small"
)

// FactorOverrides carries optional per-zone pricing factor overrides. Absent
// entries fall back to the built-in defaults, merged deterministically.
type FactorOverrides struct {
	Type      map[PropertyType]float64 `json:"type,omitempty" yaml:"type,omitempty"`
	Condition map[Condition]float64    `json:"condition,omitempty" yaml:"condition,omitempty"`
	Extras    map[string]float64       `json:"extras,omitempty" yaml:"extras,omitempty"`
	ExtrasCap *float64                 `json:"extras_cap,omitempty" yaml:"extras_cap,omitempty"`
}

// ZoneInfo is one zone's entry in the effective zone table.
type ZoneInfo struct {
	BasePerM2 float64
	Demand    DemandLevel
	Overrides *FactorOverrides
}

// Table is an immutable snapshot of the effective zone tables. Scoring reads
// exactly one snapshot per invocation; providers swap whole snapshots.
type Table struct {
	zones map[string]ZoneInfo
}

// NewTable builds a snapshot from the given zone map. The map is copied so
// callers cannot mutate the snapshot afterwards.
func NewTable(zones map[string]ZoneInfo) Table {
	copied := make(map[string]ZoneInfo, len(zones))
	for k, v := range zones {
		copied[k] = v
	}
	return Table{zones: copied}
}

// Lookup returns the zone entry for a normalized key.
func (t Table) Lookup(zoneKey string) (ZoneInfo, bool) {
	info, ok := t.zones[zoneKey]
	return info, ok
}

// Len returns the number of zones in the snapshot.
func (t Table) Len() int {
	return len(t.zones)
}

// PriceEstimate is the conservative price range derived for a property.
// It is recomputed per request and never persisted mutably.
type PriceEstimate struct {
	BasePerM2      float64            `json:"base_per_m2"`
	BasePrice      float64            `json:"base_price"`
	AdjustedPrice  float64            `json:"adjusted_price"`
	RangeLow       float64            `json:"range_low"`
	RangeHigh      float64            `json:"range_high"`
	DemandLevel    DemandLevel        `json:"demand_level"`
	AppliedFactors map[string]float64 `json:"applied_factors"`
}

// typeFactor returns the pricing multiplier for a property type, honoring
// zone overrides.
func typeFactor(t PropertyType, ov *FactorOverrides) float64 {
	if ov != nil {
		if f, ok := ov.Type[t]; ok {
			return f
		}
	}
	switch t {
	case TypePiso:
		return 1.00
	case TypeAtico:
		return 1.08
	case TypePlantaBaja:
		return 0.93
	case TypeCasaAdosada:
		return 1.05
	case TypeChalet:
		return 1.12
	}
	return 1.00
}

// conditionFactor returns the pricing multiplier for a condition, honoring
// zone overrides.
func conditionFactor(c Condition, ov *FactorOverrides) float64 {
	if ov != nil {
		if f, ok := ov.Condition[c]; ok {
			return f
		}
	}
	switch c {
	case CondReformado:
		return 1.08
	case CondBuenEstado:
		return 1.00
	case CondReformarParcial:
		return 0.92
	case CondReformarIntegral:
		return 0.85
	}
	return 1.00
}

func extraValue(key string, fallback float64, ov *FactorOverrides) float64 {
	if ov != nil {
		if v, ok := ov.Extras[key]; ok {
			return v
		}
	}
	return fallback
}

// RoundPrice rounds to the nearest 500 EUR for sales credibility, half-up on
// the quotient.
func RoundPrice(x float64) float64 {
	return math.Floor(x/500.0+0.5) * 500.0
}

// EstimatePrice derives a conservative price range for the property against
// the given zone table snapshot.
func EstimatePrice(p PropertyFeatures, table Table) (PriceEstimate, error) {
	if err := p.Validate(); err != nil {
		return PriceEstimate{}, err
	}

	zone, ok := table.Lookup(p.ZoneKey)
	if !ok {
		return PriceEstimate{}, fmt.Errorf("%w: %s", ErrZoneNotConfigured, p.ZoneKey)
	}

	basePrice := p.M2 * zone.BasePerM2

	factors := map[string]float64{}
	fType := typeFactor(p.PropertyType, zone.Overrides)
	fCond := conditionFactor(p.Condition, zone.Overrides)
	factors["type"] = fType
	factors["condition"] = fCond

	extrasAdd := 0.0
	if p.HasElevator {
		v := extraValue(ExtraKeyElevator, extraElevator, zone.Overrides)
		extrasAdd += v
		factors["extra_elevator"] = 1.0 + v
	}
	if p.HasParking {
		v := extraValue(ExtraKeyParking, extraParking, zone.Overrides)
		extrasAdd += v
		factors["extra_parking"] = 1.0 + v
	}
	if p.HasViews {
		v := extraValue(ExtraKeyViews, extraViews, zone.Overrides)
		extrasAdd += v
		factors["extra_views"] = 1.0 + v
	}
	if p.HasTerrace {
		var v float64
		if p.TerraceM2 != nil && *p.TerraceM2 > 10 {
			v = extraValue(ExtraKeyTerraceBig, extraTerraceBig, zone.Overrides)
		} else {
			v = extraValue(ExtraKeyTerraceSmall, extraTerraceSmall, zone.Overrides)
		}
		extrasAdd += v
		factors["extra_terrace"] = 1.0 + v
	}

	capLimit := extrasCap
	if zone.Overrides != nil && zone.Overrides.ExtrasCap != nil {
		capLimit = *zone.Overrides.ExtrasCap
	}
	extrasAdd = clampFloat(extrasAdd, 0.0, capLimit)
	extrasFactor := 1.0 + extrasAdd
	factors["extras_factor_capped"] = extrasFactor

	adjusted := basePrice * fType * fCond * extrasFactor

	// Asymmetric on purpose: underselling risk costs more than overselling.
	low := adjusted * 0.97
	high := adjusted * 1.05

	return PriceEstimate{
		BasePerM2:      zone.BasePerM2,
		BasePrice:      RoundPrice(basePrice),
		AdjustedPrice:  RoundPrice(adjusted),
		RangeLow:       RoundPrice(low),
		RangeHigh:      RoundPrice(high),
		DemandLevel:    zone.Demand,
		AppliedFactors: factors,
	}, nil
}

func clampFloat(n, lo, hi float64) float64 {
	return math.Max(lo, math.Min(hi, n))
}

func clampInt(n, lo, hi int) int {
	if n < lo {
		return lo
	}
	if n > hi {
		return hi
	}
	return n
}
