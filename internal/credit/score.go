package credit

import (
	"math"

	"spazapos/m/domain"
)

// Tier is a discrete risk classification with its loan terms.
type Tier struct {
	RiskTier     string
	Rating       string
	MaxLoan      float64
	InterestRate float64
}

// The single source of truth for score-to-tier mapping. Evaluated highest
// tier first; thresholds do not overlap.
var tiers = []struct {
	minScore int
	tier     Tier
}{
	{80, Tier{RiskTier: "Low Risk", Rating: "Excellent", MaxLoan: 5000, InterestRate: 12}},
	{60, Tier{RiskTier: "Medium Risk", Rating: "Good", MaxLoan: 3000, InterestRate: 15}},
	{40, Tier{RiskTier: "High Risk", Rating: "Fair", MaxLoan: 1500, InterestRate: 18}},
	{0, Tier{RiskTier: "Very High Risk", Rating: "Poor", MaxLoan: 500, InterestRate: 22}},
}

// Classify maps a score to its risk tier.
func Classify(score int) Tier {
	for _, t := range tiers {
		if score >= t.minScore {
			return t.tier
		}
	}
	return tiers[len(tiers)-1].tier
}

// Score computes the weighted credit score and derived loan terms from ledger
// aggregates:
//
//	score = min(100, floor(0.4*(totalSales/10) + 0.3*(count*5)
//	                     + 0.2*(avgTransaction/2) + 0.1*(digitalAdoption*2)))
//
// An empty ledger scores zero.
func Score(agg domain.Aggregates) domain.CreditAssessment {
	a := domain.CreditAssessment{
		TotalSales:       agg.TotalSales,
		TransactionCount: agg.TransactionCount,
	}

	if agg.TransactionCount > 0 {
		a.AverageTransaction = agg.TotalSales / float64(agg.TransactionCount)
		digital := agg.TransactionCount - agg.CashCount
		a.DigitalAdoptionPercent = 100 * float64(digital) / float64(agg.TransactionCount)
	}

	raw := 0.4*(a.TotalSales/10) +
		0.3*(float64(a.TransactionCount)*5) +
		0.2*(a.AverageTransaction/2) +
		0.1*(a.DigitalAdoptionPercent*2)

	score := int(math.Floor(raw))
	if score > 100 {
		score = 100
	}
	if score < 0 {
		score = 0
	}
	a.Score = score

	t := Classify(score)
	a.RiskTier = t.RiskTier
	a.Rating = t.Rating
	a.MaxLoanAmount = t.MaxLoan
	a.InterestRate = t.InterestRate
	return a
}
