package engine

import "testing"

func referenceLead() LeadInput {
	terrace := 8.0
	expected := 380000.0
	p := baseProperty()
	p.HasElevator = true
	p.HasTerrace = true
	p.TerraceM2 = &terrace

	return LeadInput{
		Property: p,
		Owner: OwnerSignals{
			SaleHorizon:   Horizon3To6M,
			Motivation:    MotivCompraOtra,
			AlreadyListed: ListedNo,
			Exclusivity:   ExclusivityDepende,
			ExpectedPrice: &expected,
		},
	}
}

func TestComputeIEI_ReferenceLead(t *testing.T) {
	result, err := ComputeIEI(referenceLead(), testZoneTable())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	// horizon 14 + motivation 7 + not listed 4 + exclusivity depende 4
	if result.Breakdown.Intention != 29 {
		t.Fatalf("expected intention 29, got %d", result.Breakdown.Intention)
	}
	// +18.9% gap lands in the <=25% bucket
	if result.Breakdown.PriceAlignment != 6 {
		t.Fatalf("expected price alignment 6, got %d", result.Breakdown.PriceAlignment)
	}
	// alta 12 + piso 8 + buen_estado 6 + 2 extras
	if result.Breakdown.Market != 28 {
		t.Fatalf("expected market 28, got %d", result.Breakdown.Market)
	}
	if result.IEIScore != 63 {
		t.Fatalf("expected total 63, got %d", result.IEIScore)
	}
	if result.Tier != TierC {
		t.Fatalf("expected tier C, got %s", result.Tier)
	}
	if result.Recommendation == "" {
		t.Fatal("expected non-empty recommendation")
	}
}

func TestComputeIEI_BreakdownSumsToTotal(t *testing.T) {
	table := testZoneTable()

	horizons := []SaleHorizon{HorizonUnder3M, Horizon3To6M, Horizon6To12M, HorizonValorando}
	motivations := []Motivation{MotivTraslado, MotivMejora, MotivInversion, MotivCuriosidad}
	expectations := []*float64{nil, ptrFloat(250000), ptrFloat(320000), ptrFloat(450000)}

	for _, h := range horizons {
		for _, m := range motivations {
			for _, exp := range expectations {
				lead := referenceLead()
				lead.Owner.SaleHorizon = h
				lead.Owner.Motivation = m
				lead.Owner.ExpectedPrice = exp

				result, err := ComputeIEI(lead, table)
				if err != nil {
					t.Fatalf("unexpected error: %v", err)
				}

				b := result.Breakdown
				if b.Intention < 0 || b.Intention > 40 {
					t.Fatalf("intention out of range: %d", b.Intention)
				}
				if b.PriceAlignment < 0 || b.PriceAlignment > 30 {
					t.Fatalf("price alignment out of range: %d", b.PriceAlignment)
				}
				if b.Market < 0 || b.Market > 30 {
					t.Fatalf("market out of range: %d", b.Market)
				}
				if result.IEIScore < 0 || result.IEIScore > 100 {
					t.Fatalf("total out of range: %d", result.IEIScore)
				}
				if sum := b.Intention + b.PriceAlignment + b.Market; sum != result.IEIScore {
					t.Fatalf("breakdown sum %d != total %d", sum, result.IEIScore)
				}
			}
		}
	}
}

func TestComputeIEI_UnknownZone(t *testing.T) {
	lead := referenceLead()
	lead.Property.ZoneKey = "vilanova"
	if _, err := ComputeIEI(lead, testZoneTable()); err == nil {
		t.Fatal("expected error for unconfigured zone")
	}
}

func TestComputeIEI_InvalidOwnerSignalFailsClosed(t *testing.T) {
	lead := referenceLead()
	lead.Owner.Motivation = Motivation("boredom")
	if _, err := ComputeIEI(lead, testZoneTable()); err == nil {
		t.Fatal("expected error for unknown motivation")
	}
}

func TestLeadCard_Shape(t *testing.T) {
	lead := referenceLead()
	result, err := ComputeIEI(lead, testZoneTable())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	card := LeadCard(lead, result)
	for _, key := range []string{"iei_score", "tier", "breakdown", "zone", "property", "pricing", "owner_signals", "recommendation"} {
		if _, ok := card[key]; !ok {
			t.Fatalf("lead card missing key %q", key)
		}
	}

	pricing, ok := card["pricing"].(map[string]any)
	if !ok {
		t.Fatal("pricing section has wrong shape")
	}
	rng, ok := pricing["estimated_range"].([]float64)
	if !ok || len(rng) != 2 {
		t.Fatalf("estimated_range has wrong shape: %v", pricing["estimated_range"])
	}
}

func ptrFloat(v float64) *float64 {
	return &v
}
