package engine

import "math"

// Sub-score ceilings. Intention + price alignment + market == 100.
const (
	maxIntentionScore = 40
	maxAlignmentScore = 30
	maxMarketScore    = 30
)

// Alignment notes surfaced on lead cards and recommendations.
const (
	noteNoExpectation = "No owner price expectation: partial alignment (reduced commercial precision)."
	noteAligned       = "Owner expectation aligned with market."
	noteOverpriced    = "Owner expectation above market: sale may drag."
	noteUnderpriced   = "Owner expectation below market: could sell fast, review condition."
)

// ScoreIntention rates the owner's intention to sell in [0, 40]. The tables
// sum to at most 40 by construction; the clamp is a safety net.
func ScoreIntention(o OwnerSignals) int {
	pts := 0

	switch o.SaleHorizon {
	case HorizonUnder3M:
		pts += 18
	case Horizon3To6M:
		pts += 14
	case Horizon6To12M:
		pts += 8
	case HorizonValorando:
		pts += 0
	}

	// Life events signal real intention; curiosity signals none.
	switch o.Motivation {
	case MotivTraslado, MotivHerencia, MotivDivorcio, MotivFinanzas:
		pts += 10
	case MotivMejora, MotivCompraOtra:
		pts += 7
	case MotivInversion, MotivOtro:
		pts += 4
	case MotivCuriosidad:
		pts += 0
	}

	switch o.AlreadyListed {
	case ListedNo:
		pts += 4
	case ListedWithAgency:
		pts += 2
	case ListedPrivately:
		pts += 3
	}

	switch o.Exclusivity {
	case ExclusivitySi:
		pts += 8
	case ExclusivityDepende:
		pts += 4
	case ExclusivityNo:
		pts += 0
	}

	return clampInt(pts, 0, maxIntentionScore)
}

// Alignment records how the owner's price expectation relates to the
// estimated range.
type Alignment struct {
	ExpectedPrice  *float64   `json:"expected_price"`
	EstimatedRange [2]float64 `json:"estimated_range"`
	Delta          *float64   `json:"delta"`
	GapPercent     *float64   `json:"gap_percent"`
	Note           string     `json:"note"`
}

// ScorePriceAlignment rates how realistic the owner's expectation is, in
// [0, 30], along with the alignment record.
//
// A missing expectation scores a fixed 10: worse than alignment, better than
// overpricing. Deltas below -10% score 20 regardless of bucket; heavy
// under-asking is its own risk class (possible hidden defects), not "good
// alignment".
func ScorePriceAlignment(expectedPrice *float64, est PriceEstimate) (int, Alignment) {
	if expectedPrice == nil || *expectedPrice <= 0 {
		return 10, Alignment{
			ExpectedPrice:  expectedPrice,
			EstimatedRange: [2]float64{est.RangeLow, est.RangeHigh},
			Note:           noteNoExpectation,
		}
	}

	// Delta relative to the adjusted price, the center of the range.
	ref := est.AdjustedPrice
	delta := (*expectedPrice - ref) / ref

	var score int
	switch {
	case delta <= 0.05:
		score = 30
	case delta <= 0.10:
		score = 22
	case delta <= 0.15:
		score = 14
	case delta <= 0.25:
		score = 6
	default:
		score = 0
	}

	if delta < -0.10 {
		score = 20
	}

	gapPercent := math.Round(delta*1000) / 10

	note := noteOverpriced
	if score >= 22 {
		note = noteAligned
	}
	if delta < -0.10 {
		note = noteUnderpriced
	}

	rounded := RoundPrice(*expectedPrice)
	return score, Alignment{
		ExpectedPrice:  &rounded,
		EstimatedRange: [2]float64{est.RangeLow, est.RangeHigh},
		Delta:          &delta,
		GapPercent:     &gapPercent,
		Note:           note,
	}
}

// ScoreMarket rates the property's sellability in [0, 30].
func ScoreMarket(p PropertyFeatures, est PriceEstimate) int {
	pts := 0

	switch est.DemandLevel {
	case DemandAlta:
		pts += 12
	case DemandMedia:
		pts += 8
	case DemandBaja:
		pts += 4
	}

	// Sellability by typology; distinct from the pricing factor table.
	switch p.PropertyType {
	case TypePiso:
		pts += 8
	case TypeAtico, TypeCasaAdosada, TypeChalet:
		pts += 10
	case TypePlantaBaja:
		pts += 5
	}

	switch p.Condition {
	case CondReformado:
		pts += 8
	case CondBuenEstado:
		pts += 6
	case CondReformarParcial:
		pts += 3
	case CondReformarIntegral:
		pts += 2
	}

	pts += extrasPoints(p)

	return clampInt(pts, 0, maxMarketScore)
}

// extrasPoints gives one point per present extra, capped at 4.
func extrasPoints(p PropertyFeatures) int {
	pts := 0
	if p.HasElevator {
		pts++
	}
	if p.HasParking {
		pts++
	}
	if p.HasTerrace {
		pts++
	}
	if p.HasViews {
		pts++
	}
	if pts > 4 {
		pts = 4
	}
	return pts
}

// TierFromScore maps a total score to its tier. Thresholds are exact:
// 85 → A, 70 → B, 55 → C.
func TierFromScore(score int) Tier {
	switch {
	case score >= 85:
		return TierA
	case score >= 70:
		return TierB
	case score >= 55:
		return TierC
	default:
		return TierD
	}
}

func recommendation(score int, priceNote string) string {
	switch {
	case score >= 85:
		return "High sellability. Active sale strategy and an exclusive mandate proposal (clear plan plus calendar) recommended."
	case score >= 70:
		return "Good sellability. " + priceNote + " Prepare the property and define a pricing strategy to accelerate."
	case score >= 55:
		return "Medium sellability. " + priceNote + " Adjust expectations and improve presentation before going to market."
	default:
		return "Low sellability. " + priceNote + " Review price or condition, or wait for a better market moment."
	}
}
