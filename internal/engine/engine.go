package engine

// Breakdown is the three-way decomposition of an IEI score. The parts sum to
// the total before clamping; clamping can only break the equality at the
// 0/100 boundary.
type Breakdown struct {
	Intention      int `json:"intention"`
	PriceAlignment int `json:"price_alignment"`
	Market         int `json:"market"`
}

// Result is the full outcome of scoring one lead.
type Result struct {
	IEIScore         int           `json:"iei_score"`
	Tier             Tier          `json:"tier"`
	Breakdown        Breakdown     `json:"breakdown"`
	PriceEstimate    PriceEstimate `json:"price_estimate"`
	PricingAlignment Alignment     `json:"pricing_alignment"`
	Recommendation   string        `json:"recommendation"`
}

// ComputeIEI is the single external entry point of the engine. It is pure
// given the zone table snapshot.
func ComputeIEI(lead LeadInput, table Table) (Result, error) {
	if err := lead.Validate(); err != nil {
		return Result{}, err
	}

	est, err := EstimatePrice(lead.Property, table)
	if err != nil {
		return Result{}, err
	}

	sIntention := ScoreIntention(lead.Owner)
	sAlignment, alignment := ScorePriceAlignment(lead.Owner.ExpectedPrice, est)
	sMarket := ScoreMarket(lead.Property, est)

	total := clampInt(sIntention+sAlignment+sMarket, 0, 100)
	tier := TierFromScore(total)

	return Result{
		IEIScore: total,
		Tier:     tier,
		Breakdown: Breakdown{
			Intention:      sIntention,
			PriceAlignment: sAlignment,
			Market:         sMarket,
		},
		PriceEstimate:    est,
		PricingAlignment: alignment,
		Recommendation:   recommendation(total, alignment.Note),
	}, nil
}
