package decision

import (
	"math"
	"testing"

	"github.com/secondsight/secondsight/internal/models"
)

func shockOutput() *models.AnalysisOutput {
	return &models.AnalysisOutput{
		EffectsByLayer: models.EffectsByLayer{
			First: []models.CausalEffect{
				{Description: "Currency depreciation", ImpactDirection: models.ImpactPositive, Confidence: models.ConfidenceHigh},
				{Description: "Imported inflation", ImpactDirection: models.ImpactNegative, Confidence: models.ConfidenceMed},
			},
			Second: []models.CausalEffect{
				{Description: "Policy response unclear", ImpactDirection: models.ImpactUncertain, Confidence: models.ConfidenceLow},
			},
		},
	}
}

func TestBuildNodeShocksPerBranchExpansion(t *testing.T) {
	branches := NormalizeBranchProbabilities(nil)
	shocks := BuildNodeShocks(shockOutput(), branches)

	// 3 effects expanded once per branch.
	if len(shocks) != 9 {
		t.Fatalf("shocks = %d, want 9", len(shocks))
	}

	byBranch := make(map[models.BranchName][]models.NodeShock)
	for _, s := range shocks {
		byBranch[s.BranchName] = append(byBranch[s.BranchName], s)
	}
	for name, branchShocks := range byBranch {
		if len(branchShocks) != 3 {
			t.Errorf("branch %s shocks = %d, want 3", name, len(branchShocks))
		}
	}
}

func TestBuildNodeShocksMagnitudes(t *testing.T) {
	branches := NormalizeBranchProbabilities(nil)
	shocks := BuildNodeShocks(shockOutput(), branches)

	find := func(branch models.BranchName, key string) models.NodeShock {
		t.Helper()
		for _, s := range shocks {
			if s.BranchName == branch && s.NodeKey == key {
				return s
			}
		}
		t.Fatalf("no shock for branch %s key %s", branch, key)
		return models.NodeShock{}
	}

	base := find(models.BranchBase, "currency-depreciation")
	if base.Direction != models.ShockUp || math.Abs(base.MagnitudePct-0.08) > 1e-9 {
		t.Errorf("base shock = %+v, want UP 0.08", base)
	}
	if base.Strength != models.StrengthStrong || base.Lag != models.LagImmediate {
		t.Errorf("first-order shock strength/lag = %s/%s", base.Strength, base.Lag)
	}

	bull := find(models.BranchBull, "imported-inflation")
	if bull.Direction != models.ShockDown || math.Abs(bull.MagnitudePct-(-0.096)) > 1e-9 {
		t.Errorf("bull shock = %+v, want DOWN -0.096", bull)
	}

	bear := find(models.BranchBear, "policy-response-unclear")
	if bear.Direction != models.ShockFlat || bear.MagnitudePct != 0 {
		t.Errorf("uncertain shock = %+v, want FLAT 0", bear)
	}
	if bear.Strength != models.StrengthMed || bear.Lag != models.LagM3To6 {
		t.Errorf("second-order shock strength/lag = %s/%s", bear.Strength, bear.Lag)
	}
}

func TestBuildNodeShocksCapsEffectsPerLayer(t *testing.T) {
	output := &models.AnalysisOutput{
		EffectsByLayer: models.EffectsByLayer{
			First: []models.CausalEffect{
				{Description: "Effect one", ImpactDirection: models.ImpactPositive, Confidence: models.ConfidenceHigh},
				{Description: "Effect two", ImpactDirection: models.ImpactPositive, Confidence: models.ConfidenceHigh},
				{Description: "Effect three", ImpactDirection: models.ImpactPositive, Confidence: models.ConfidenceHigh},
				{Description: "Effect four", ImpactDirection: models.ImpactPositive, Confidence: models.ConfidenceHigh},
			},
		},
	}

	shocks := BuildNodeShocks(output, NormalizeBranchProbabilities(nil))
	if len(shocks) != 9 {
		t.Errorf("shocks = %d, want 9 (3 effects x 3 branches)", len(shocks))
	}
	for _, s := range shocks {
		if s.NodeKey == "effect-four" {
			t.Error("fourth effect should not be expanded")
		}
	}
}

func TestBuildNodeShocksFallbackNodeKey(t *testing.T) {
	output := &models.AnalysisOutput{
		EffectsByLayer: models.EffectsByLayer{
			First: []models.CausalEffect{
				{Description: "!!!", ImpactDirection: models.ImpactPositive, Confidence: models.ConfidenceHigh},
			},
		},
	}

	shocks := BuildNodeShocks(output, []models.Branch{{Name: models.BranchBase, Probability: 1}})
	if len(shocks) != 1 {
		t.Fatalf("shocks = %d, want 1", len(shocks))
	}
	if shocks[0].NodeKey != "macro-node" {
		t.Errorf("node key = %q, want macro-node", shocks[0].NodeKey)
	}
}
