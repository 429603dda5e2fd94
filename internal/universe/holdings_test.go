package universe

import (
	"math"
	"strings"
	"testing"

	"github.com/secondsight/secondsight/internal/models"
)

func TestParseHoldingsCSVAliasesAndDefaults(t *testing.T) {
	csv := strings.Join([]string{
		"Holding Name,Symbol,Weight %,Sensitivity,Constraint,Purpose,Exposure Tags",
		"Global Equity Fund,VWRL,60,HIGH,LOCKED,LONG_TERM_GROWTH,equity|global",
		"\"Gilts, Short Duration\",IGLS,40,,,,",
	}, "\n")

	holdings, err := ParseHoldingsCSV(csv)
	if err != nil {
		t.Fatalf("ParseHoldingsCSV: %v", err)
	}
	if len(holdings) != 2 {
		t.Fatalf("holdings = %d, want 2", len(holdings))
	}

	first := holdings[0]
	if first.Name != "Global Equity Fund" || first.Ticker != "VWRL" {
		t.Errorf("unexpected first holding: %+v", first)
	}
	// 60 reads as a percent and becomes 0.6.
	if first.Weight == nil || math.Abs(*first.Weight-0.6) > 1e-9 {
		t.Errorf("weight = %v, want 0.6", first.Weight)
	}
	if first.Sensitivity != models.SensitivityHigh || first.Constraint != models.ConstraintLocked {
		t.Errorf("sensitivity/constraint = %s/%s", first.Sensitivity, first.Constraint)
	}
	if len(first.ExposureTags) != 2 || first.ExposureTags[0] != "equity" {
		t.Errorf("tags = %v", first.ExposureTags)
	}

	second := holdings[1]
	if second.Name != "Gilts, Short Duration" {
		t.Errorf("quoted name = %q", second.Name)
	}
	if second.Sensitivity != models.SensitivityMed ||
		second.Constraint != models.ConstraintFree ||
		second.Purpose != models.PurposeLongTermGrowth {
		t.Errorf("defaults = %s/%s/%s", second.Sensitivity, second.Constraint, second.Purpose)
	}
}

func TestParseHoldingsCSVDerivesWeightsFromAmounts(t *testing.T) {
	csv := strings.Join([]string{
		"Name,Ticker,Market Value",
		"Fund A,AAA,\"£7,500.00\"",
		"Fund B,BBB,£2500",
	}, "\n")

	holdings, err := ParseHoldingsCSV(csv)
	if err != nil {
		t.Fatalf("ParseHoldingsCSV: %v", err)
	}
	if holdings[0].Weight == nil || math.Abs(*holdings[0].Weight-0.75) > 1e-9 {
		t.Errorf("derived weight A = %v, want 0.75", holdings[0].Weight)
	}
	if holdings[1].Weight == nil || math.Abs(*holdings[1].Weight-0.25) > 1e-9 {
		t.Errorf("derived weight B = %v, want 0.25", holdings[1].Weight)
	}
}

func TestParseHoldingsCSVPrefersLatestDatedColumn(t *testing.T) {
	csv := strings.Join([]string{
		"Name,01/01/2026,01/06/2026",
		"Fund A,100,300",
		"Fund B,900,100",
	}, "\n")

	holdings, err := ParseHoldingsCSV(csv)
	if err != nil {
		t.Fatalf("ParseHoldingsCSV: %v", err)
	}
	// Weights come from the June column, not January.
	if holdings[0].Weight == nil || math.Abs(*holdings[0].Weight-0.75) > 1e-9 {
		t.Errorf("weight A = %v, want 0.75", holdings[0].Weight)
	}
	if holdings[1].Weight == nil || math.Abs(*holdings[1].Weight-0.25) > 1e-9 {
		t.Errorf("weight B = %v, want 0.25", holdings[1].Weight)
	}
}

func TestParseHoldingsCSVSkipsPreambleAndTruncatesSummary(t *testing.T) {
	csv := strings.Join([]string{
		"Portfolio Export",
		"Generated 2026-08-01",
		"Name,Ticker,Weight",
		"Fund A,AAA,0.5",
		"Bucket,Sum of holdings,",
		"Fund ignored,XXX,0.5",
	}, "\n")

	holdings, err := ParseHoldingsCSV(csv)
	if err != nil {
		t.Fatalf("ParseHoldingsCSV: %v", err)
	}
	if len(holdings) != 1 || holdings[0].Name != "Fund A" {
		t.Errorf("holdings = %+v, want only Fund A", holdings)
	}
}

func TestParseHoldingsCSVSummarySentinels(t *testing.T) {
	for _, sentinel := range []string{"Summary", "Grand Total"} {
		csv := strings.Join([]string{
			"Name,Weight",
			"Fund A,0.5",
			sentinel + ",1.0",
			"Trailing Row,0.5",
		}, "\n")

		holdings, err := ParseHoldingsCSV(csv)
		if err != nil {
			t.Fatalf("ParseHoldingsCSV(%s): %v", sentinel, err)
		}
		if len(holdings) != 1 {
			t.Errorf("sentinel %q: holdings = %d, want 1", sentinel, len(holdings))
		}
	}
}

func TestParseHoldingsCSVErrors(t *testing.T) {
	tests := []struct {
		name string
		csv  string
		want string
	}{
		{name: "empty", csv: "  \n \n", want: "empty"},
		{name: "no name column", csv: "foo,bar\n1,2", want: "name column"},
		{name: "no data rows", csv: "Name,Weight\nSummary,1.0", want: "no valid holding rows"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := ParseHoldingsCSV(tt.csv)
			if err == nil || !strings.Contains(err.Error(), tt.want) {
				t.Errorf("error = %v, want to contain %q", err, tt.want)
			}
		})
	}
}
