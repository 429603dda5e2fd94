package decision

import (
	"math"
	"sort"
	"strings"

	"github.com/secondsight/secondsight/internal/models"
	"github.com/secondsight/secondsight/internal/textutil"
)

// Fixed weight tables for expression scoring. Never mutated after init.
var (
	confidenceWeight = map[models.ConfidenceLevel]float64{
		models.ConfidenceLow:  0.4,
		models.ConfidenceMed:  0.7,
		models.ConfidenceHigh: 1,
	}

	lagWeight = map[models.LagBand]float64{
		models.LagImmediate: 1,
		models.LagM3To6:     0.9,
		models.LagM6To18:    0.75,
		models.LagM18Plus:   0.6,
	}
)

const (
	// Long-lag shocks are discounted further when the request horizon is
	// 12 months or less.
	shortHorizonMonths    = 12
	shortHorizonLagWeight = 0.4

	largeBandThreshold  = 0.06
	mediumBandThreshold = 0.03

	largeBaseCap  = 0.05
	mediumBaseCap = 0.025
	smallBaseCap  = 0.01

	// New positions may take at most 5% of the actionable FREE weight.
	freeWeightCapShare = 0.05

	maxLongPicks  = 4
	maxShortPicks = 3
)

// exposureFactorKey maps a shock's node key onto the universe exposure
// column naming convention. The match is best-effort: LLM-authored slugs
// only align with a universe's exp_* factors when the uploader tagged rows
// with matching keys, and a miss contributes zero.
func exposureFactorKey(nodeKey string) string {
	return "exp_" + nodeKey
}

// BuildExpressionRecommendations scores every universe row against the
// branch-weighted node shocks and returns a fixed-size long/short
// shortlist: the top 4 positive rows by descending score plus the top 3
// negative rows most negative first.
func BuildExpressionRecommendations(
	branches []models.Branch,
	shocks []models.NodeShock,
	universe []models.UniverseRow,
	holdings []models.HoldingInput,
	horizonMonths int,
) []models.ExpressionRecommendation {
	holdingKeys := make(map[string]struct{}, len(holdings))
	for _, h := range holdings {
		key := textutil.NormalizeKey(strings.TrimSpace(h.Ticker + " " + h.Name))
		holdingKeys[key] = struct{}{}
	}

	actionableFreeWeight := 0.0
	for _, h := range holdings {
		if h.Constraint == models.ConstraintFree && h.Weight != nil {
			actionableFreeWeight += *h.Weight
		}
	}

	shocksByBranch := make(map[models.BranchName][]models.NodeShock)
	for _, s := range shocks {
		shocksByBranch[s.BranchName] = append(shocksByBranch[s.BranchName], s)
	}

	scored := make([]models.ExpressionRecommendation, 0, len(universe))
	for _, row := range universe {
		score := 0.0
		for _, branch := range branches {
			for _, shock := range shocksByBranch[branch.Name] {
				beta := row.ExposureVector[exposureFactorKey(shock.NodeKey)]
				lagAdj := lagWeight[shock.Lag]
				if horizonMonths <= shortHorizonMonths && shock.Lag == models.LagM18Plus {
					lagAdj = shortHorizonLagWeight
				}
				score += branch.Probability * shock.MagnitudePct * beta * confidenceWeight[shock.Confidence] * lagAdj
			}
		}

		direction := models.DirectionPos
		if score < 0 {
			direction = models.DirectionNeg
		}

		absScore := math.Abs(score)
		band := models.SizingSmall
		baseCap := smallBaseCap
		switch {
		case absScore >= largeBandThreshold:
			band = models.SizingLarge
			baseCap = largeBaseCap
		case absScore >= mediumBandThreshold:
			band = models.SizingMedium
			baseCap = mediumBaseCap
		}

		freeCap := baseCap
		if actionableFreeWeight > 0 {
			freeCap = actionableFreeWeight * freeWeightCapShare
		}
		maxPositionPct := math.Min(baseCap, math.Min(freeCap, row.MaxPositionDefaultPct))

		_, symbolHeld := holdingKeys[textutil.NormalizeKey(row.Symbol)]
		_, nameHeld := holdingKeys[textutil.NormalizeKey(row.CompanyName)]
		alreadyExpressed := symbolHeld || nameHeld
		actionable := actionableFreeWeight > 0 && !alreadyExpressed

		action := "OVERWEIGHT"
		role := "core"
		if direction == models.DirectionNeg {
			action = "UNDERWEIGHT"
			role = "hedge"
		}
		catalystWindow := "12-36 months"
		if horizonMonths <= shortHorizonMonths {
			catalystWindow = "0-12 months"
		}

		scored = append(scored, models.ExpressionRecommendation{
			Symbol:              row.Symbol,
			Name:                row.CompanyName,
			AssetType:           row.AssetType,
			Direction:           direction,
			Action:              action,
			SizingBand:          band,
			MaxPositionPct:      maxPositionPct,
			Score:               score,
			Mechanism:           "Exposure vector aligns with branch-weighted node shocks.",
			CatalystWindow:      catalystWindow,
			PricedInNote:        "Assess valuation and crowding before execution.",
			RiskNote:            "Model relies on simplified exposure vectors and manual tagging.",
			InvalidationTrigger: "Primary node shocks fail to materialize for two consecutive review cycles.",
			PortfolioRole:       role,
			Actionable:          actionable,
			AlreadyExpressed:    alreadyExpressed,
		})
	}

	longs := make([]models.ExpressionRecommendation, 0, maxLongPicks)
	shorts := make([]models.ExpressionRecommendation, 0, maxShortPicks)
	for _, rec := range scored {
		if rec.Direction == models.DirectionPos {
			longs = append(longs, rec)
		} else {
			shorts = append(shorts, rec)
		}
	}
	sort.SliceStable(longs, func(i, j int) bool { return longs[i].Score > longs[j].Score })
	sort.SliceStable(shorts, func(i, j int) bool { return shorts[i].Score < shorts[j].Score })
	if len(longs) > maxLongPicks {
		longs = longs[:maxLongPicks]
	}
	if len(shorts) > maxShortPicks {
		shorts = shorts[:maxShortPicks]
	}

	return append(longs, shorts...)
}
