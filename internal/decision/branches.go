// Package decision holds the deterministic stages that turn a validated
// reasoning output into scenario branches, node shocks, sized expression
// recommendations, indicator definitions, and the final decision brief.
package decision

import "github.com/secondsight/secondsight/internal/models"

// defaultBranches returns the three fixed scenario branches with their
// default probabilities and rationales. Fresh slice per call so callers
// can never mutate the defaults.
func defaultBranches() []models.Branch {
	return []models.Branch{
		{Name: models.BranchBase, Probability: 0.5, Rationale: "Most likely trajectory."},
		{Name: models.BranchBull, Probability: 0.25, Rationale: "Constructive upside scenario."},
		{Name: models.BranchBear, Probability: 0.25, Rationale: "Downside stress scenario."},
	}
}

// NormalizeBranchProbabilities merges user overrides onto the fixed
// branch set by name and renormalizes to sum to 1. Overrides summing to
// zero or less fall back to the defaults unchanged.
func NormalizeBranchProbabilities(overrides []models.BranchOverride) []models.Branch {
	branches := defaultBranches()
	if len(overrides) == 0 {
		return branches
	}

	byName := make(map[models.BranchName]float64, len(overrides))
	for _, o := range overrides {
		byName[o.Name] = o.Probability
	}

	total := 0.0
	for i := range branches {
		if p, ok := byName[branches[i].Name]; ok {
			branches[i].Probability = p
		}
		total += branches[i].Probability
	}
	if total <= 0 {
		return defaultBranches()
	}
	for i := range branches {
		branches[i].Probability /= total
	}
	return branches
}
