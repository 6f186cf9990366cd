package engine

import "fmt"

// PropertyFeatures is the immutable property side of a scoring request.
type PropertyFeatures struct {
	ZoneKey      string // normalized: lowercase, trimmed
	Municipality string
	Neighborhood *string
	PostalCode   *string
	PropertyType PropertyType
	M2           float64
	Condition    Condition
	YearBuilt    *int

	HasElevator bool
	HasTerrace  bool
	TerraceM2   *float64
	HasParking  bool
	HasViews    bool
}

// Validate checks enum membership and basic numeric sanity. The HTTP layer
// parses raw values through the Parse helpers, but the engine re-checks so
// that constructed inputs fail closed too.
func (p PropertyFeatures) Validate() error {
	if _, err := ParsePropertyType(string(p.PropertyType)); err != nil {
		return err
	}
	if _, err := ParseCondition(string(p.Condition)); err != nil {
		return err
	}
	if p.M2 <= 0 {
		return fmt.Errorf("m2 must be positive, got %v", p.M2)
	}
	return nil
}

// OwnerSignals is the immutable owner side of a scoring request.
type OwnerSignals struct {
	SaleHorizon   SaleHorizon
	Motivation    Motivation
	AlreadyListed ListingStatus
	Exclusivity   Exclusivity
	ExpectedPrice *float64 // owner's expectation in EUR, may be absent
}

// Validate checks enum membership.
func (o OwnerSignals) Validate() error {
	if _, err := ParseSaleHorizon(string(o.SaleHorizon)); err != nil {
		return err
	}
	if _, err := ParseMotivation(string(o.Motivation)); err != nil {
		return err
	}
	if _, err := ParseListingStatus(string(o.AlreadyListed)); err != nil {
		return err
	}
	if _, err := ParseExclusivity(string(o.Exclusivity)); err != nil {
		return err
	}
	return nil
}

// LeadInput bundles the two sides of a scoring request.
type LeadInput struct {
	Property PropertyFeatures
	Owner    OwnerSignals
}

// Validate checks both halves.
func (l LeadInput) Validate() error {
	if err := l.Property.Validate(); err != nil {
		return err
	}
	return l.Owner.Validate()
}
