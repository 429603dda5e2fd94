package decision

import (
	"math"
	"strings"
	"testing"

	"github.com/secondsight/secondsight/internal/models"
)

func TestBranchImpacts(t *testing.T) {
	impacts := BranchImpacts(-0.2, NormalizeBranchProbabilities(nil))
	if len(impacts) != 3 {
		t.Fatalf("impacts = %d, want 3", len(impacts))
	}

	byName := make(map[models.BranchName]float64, len(impacts))
	for _, impact := range impacts {
		byName[impact.BranchName] = impact.Score
	}
	if math.Abs(byName[models.BranchBase]-(-0.2)) > 1e-9 {
		t.Errorf("base impact = %v, want -0.2", byName[models.BranchBase])
	}
	if math.Abs(byName[models.BranchBull]-(-0.16)) > 1e-9 {
		t.Errorf("bull impact = %v, want -0.16", byName[models.BranchBull])
	}
	if math.Abs(byName[models.BranchBear]-(-0.24)) > 1e-9 {
		t.Errorf("bear impact = %v, want -0.24", byName[models.BranchBear])
	}
}

func TestPercentile(t *testing.T) {
	values := []float64{3, 1, 2, 5, 4}

	tests := []struct {
		p    float64
		want float64
	}{
		{p: 0, want: 1},
		{p: 0.1, want: 1},
		{p: 0.5, want: 3},
		{p: 0.9, want: 4},
		{p: 1, want: 5},
	}
	for _, tt := range tests {
		if got := percentile(values, tt.p); got != tt.want {
			t.Errorf("percentile(p=%v) = %v, want %v", tt.p, got, tt.want)
		}
	}

	if got := percentile(nil, 0.5); got != 0 {
		t.Errorf("percentile of empty slice = %v, want 0", got)
	}
}

func TestBuildDecisionSummaryPercentiles(t *testing.T) {
	impacts := BranchImpacts(-0.2, NormalizeBranchProbabilities(nil))
	summary := BuildDecisionSummary(impacts, nil, nil)

	if math.Abs(summary.PortfolioImpactP10-(-0.288)) > 1e-9 {
		t.Errorf("p10 = %v, want -0.288", summary.PortfolioImpactP10)
	}
	if math.Abs(summary.PortfolioImpactP50-(-0.192)) > 1e-9 {
		t.Errorf("p50 = %v, want -0.192", summary.PortfolioImpactP50)
	}
	if math.Abs(summary.PortfolioImpactP90-(-0.16)) > 1e-9 {
		t.Errorf("p90 = %v, want -0.16", summary.PortfolioImpactP90)
	}
}

func TestBuildDecisionSummaryListsPadToThree(t *testing.T) {
	recommendations := []models.ExpressionRecommendation{
		{Symbol: "EXPT", Action: "OVERWEIGHT", MaxPositionPct: 0.025, Actionable: true},
		{Symbol: "HELD", Action: "OVERWEIGHT", MaxPositionPct: 0.05, Actionable: false},
		{Symbol: "IMPT", Action: "UNDERWEIGHT", MaxPositionPct: 0.01, Actionable: true},
	}
	indicators := []models.IndicatorDefinition{
		{IndicatorName: "Gilt auction bid-to-cover"},
	}

	summary := BuildDecisionSummary(nil, recommendations, indicators)

	if len(summary.TopActions) != 3 {
		t.Fatalf("actions = %d, want 3", len(summary.TopActions))
	}
	if !strings.Contains(summary.TopActions[0], "EXPT") {
		t.Errorf("first action = %q, want EXPT entry", summary.TopActions[0])
	}
	// Non-actionable rows are skipped.
	if !strings.Contains(summary.TopActions[1], "IMPT") {
		t.Errorf("second action = %q, want IMPT entry", summary.TopActions[1])
	}
	if summary.TopActions[2] != "No additional actionable change required." {
		t.Errorf("filler action = %q", summary.TopActions[2])
	}

	if len(summary.TopMonitors) != 3 {
		t.Fatalf("monitors = %d, want 3", len(summary.TopMonitors))
	}
	if summary.TopMonitors[0] != "Gilt auction bid-to-cover" {
		t.Errorf("first monitor = %q", summary.TopMonitors[0])
	}
	if len(summary.ChangeMyMind) == 0 {
		t.Error("change-my-mind triggers should never be empty")
	}
}
