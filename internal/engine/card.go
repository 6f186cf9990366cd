package engine

// LeadCard builds the JSON-serializable card sold to agencies. Everything in
// it is scalar/array/object so it can be persisted and exported as-is.
func LeadCard(lead LeadInput, result Result) map[string]any {
	p := lead.Property
	o := lead.Owner
	est := result.PriceEstimate
	align := result.PricingAlignment

	return map[string]any{
		"iei_score": result.IEIScore,
		"tier":      string(result.Tier),
		"breakdown": map[string]int{
			"intention":       result.Breakdown.Intention,
			"price_alignment": result.Breakdown.PriceAlignment,
			"market":          result.Breakdown.Market,
		},
		"zone": map[string]any{
			"zone_key":     p.ZoneKey,
			"municipality": p.Municipality,
			"neighborhood": p.Neighborhood,
			"postal_code":  p.PostalCode,
			"demand_level": string(est.DemandLevel),
		},
		"property": map[string]any{
			"type":       string(p.PropertyType),
			"m2":         p.M2,
			"condition":  string(p.Condition),
			"year_built": p.YearBuilt,
			"extras": map[string]any{
				"elevator":   p.HasElevator,
				"terrace":    p.HasTerrace,
				"terrace_m2": p.TerraceM2,
				"parking":    p.HasParking,
				"views":      p.HasViews,
			},
		},
		"pricing": map[string]any{
			"estimated_range":  []float64{est.RangeLow, est.RangeHigh},
			"estimated_center": est.AdjustedPrice,
			"owner_expected":   align.ExpectedPrice,
			"gap_percent":      align.GapPercent,
			"note":             align.Note,
		},
		"owner_signals": map[string]any{
			"sale_horizon":   string(o.SaleHorizon),
			"motivation":     string(o.Motivation),
			"already_listed": string(o.AlreadyListed),
			"exclusivity":    string(o.Exclusivity),
		},
		"recommendation": result.Recommendation,
	}
}
