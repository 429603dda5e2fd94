package universe

import (
	"fmt"
	"math"
	"strconv"
	"strings"
	"time"

	"github.com/secondsight/secondsight/internal/models"
)

// Holdings CSV exports come from spreadsheets: quoted cells, currency
// symbols, percent signs, date-stamped value columns, and trailing
// summary blocks. The importer matches columns by normalized alias and
// truncates at the first summary sentinel row.

var (
	nameAliases        = []string{"name", "holding", "holdingname", "assetname"}
	tickerAliases      = []string{"ticker", "symbol"}
	weightAliases      = []string{"weight", "allocation", "portfolioweight"}
	weightPctAliases   = []string{"weightpct", "weightpercent", "weightpercentage", "allocationpct"}
	amountAliases      = []string{"amount", "value", "marketvalue", "positionvalue", "gbpamount", "amountgbp", "valuegbp", "holdingvalue"}
	sensitivityAliases = []string{"sensitivity", "exposuresensitivity"}
	constraintAliases  = []string{"constraint", "capitalconstraint"}
	purposeAliases     = []string{"purpose", "bucketpurpose"}
	tagAliases         = []string{"tags", "exposuretags"}
)

// splitCSVRow splits one line honoring double-quoted cells with escaped
// quotes.
func splitCSVRow(line string) []string {
	cells := []string{}
	var current strings.Builder
	inQuotes := false

	runes := []rune(line)
	for i := 0; i < len(runes); i++ {
		c := runes[i]
		if c == '"' {
			if inQuotes && i+1 < len(runes) && runes[i+1] == '"' {
				current.WriteRune('"')
				i++
			} else {
				inQuotes = !inQuotes
			}
			continue
		}
		if c == ',' && !inQuotes {
			cells = append(cells, strings.TrimSpace(current.String()))
			current.Reset()
			continue
		}
		current.WriteRune(c)
	}
	cells = append(cells, strings.TrimSpace(current.String()))
	return cells
}

// normalizeAlias strips everything outside [a-z0-9] so "Weight %" and
// "weight_pct" style headers collapse onto their aliases.
func normalizeAlias(header string) string {
	var b strings.Builder
	for _, r := range strings.ToLower(strings.TrimSpace(header)) {
		if (r >= 'a' && r <= 'z') || (r >= '0' && r <= '9') {
			b.WriteRune(r)
		}
	}
	return b.String()
}

func aliasIndex(normalized []string, aliases []string) int {
	for i, h := range normalized {
		for _, alias := range aliases {
			if h == alias {
				return i
			}
		}
	}
	return -1
}

// parseNumeric strips currency symbols, separators, percent signs, and
// whitespace before parsing. Returns NaN when the cell has no number.
func parseNumeric(value string) float64 {
	cleaned := strings.Map(func(r rune) rune {
		switch r {
		case '£', '$', '€', ',', '%', ' ', '\t':
			return -1
		}
		return r
	}, value)
	if cleaned == "" {
		return math.NaN()
	}
	parsed, err := strconv.ParseFloat(cleaned, 64)
	if err != nil {
		return math.NaN()
	}
	return parsed
}

// parseHeaderDate recognizes dd/mm/yyyy or any layout time.Parse accepts
// for date-stamped value columns.
func parseHeaderDate(value string) (time.Time, bool) {
	trimmed := strings.TrimSpace(value)
	if trimmed == "" {
		return time.Time{}, false
	}
	for _, layout := range []string{"2/1/2006", "02/01/2006", "2006-01-02", "Jan 2, 2006", "2 Jan 2006"} {
		if t, err := time.Parse(layout, trimmed); err == nil {
			return t, true
		}
	}
	return time.Time{}, false
}

// percentToDecimal reinterprets values above 1 as percentages.
func percentToDecimal(value float64) float64 {
	if value > 1 {
		return value / 100
	}
	return value
}

// ParseHoldingsCSV parses a holdings export into HoldingInput records.
// Columns are matched by alias; when no explicit weight column exists but
// an amount column does (preferring the latest date-stamped column), each
// holding's weight is derived as its share of the total amount. Summary,
// bucket, and grand-total sentinel rows truncate the table the way
// spreadsheet exports append totals below the data.
func ParseHoldingsCSV(text string) ([]models.HoldingInput, error) {
	lines := []string{}
	for _, line := range strings.Split(text, "\n") {
		if trimmed := strings.TrimSpace(strings.TrimSuffix(line, "\r")); trimmed != "" {
			lines = append(lines, trimmed)
		}
	}
	if len(lines) == 0 {
		return nil, fmt.Errorf("holdings CSV is empty")
	}

	rows := make([][]string, len(lines))
	for i, line := range lines {
		rows[i] = splitCSVRow(line)
	}

	// The header row is wherever a name-like column first appears; rows
	// above it are titles or export metadata.
	headerRow := -1
	for i, row := range rows {
		normalized := make([]string, len(row))
		for j, cell := range row {
			normalized[j] = normalizeAlias(cell)
		}
		if aliasIndex(normalized, nameAliases) >= 0 {
			headerRow = i
			break
		}
	}
	if headerRow < 0 {
		return nil, fmt.Errorf("holdings CSV must include a name column")
	}

	headers := make([]string, len(rows[headerRow]))
	for i, cell := range rows[headerRow] {
		headers[i] = normalizeAlias(cell)
	}

	nameIdx := aliasIndex(headers, nameAliases)
	tickerIdx := aliasIndex(headers, tickerAliases)
	weightIdx := aliasIndex(headers, weightAliases)
	weightPctIdx := aliasIndex(headers, weightPctAliases)
	amountIdx := aliasIndex(headers, amountAliases)
	sensitivityIdx := aliasIndex(headers, sensitivityAliases)
	constraintIdx := aliasIndex(headers, constraintAliases)
	purposeIdx := aliasIndex(headers, purposeAliases)
	tagsIdx := aliasIndex(headers, tagAliases)

	// Prefer the most recent date-stamped column over a generic amount
	// column; portfolio exports often carry one value column per date.
	chosenAmountIdx := amountIdx
	var latestDate time.Time
	for i, header := range rows[headerRow] {
		if d, ok := parseHeaderDate(header); ok && d.After(latestDate) {
			latestDate = d
			chosenAmountIdx = i
		}
	}

	type stagedHolding struct {
		models.HoldingInput
		rawAmount float64
	}

	staged := []stagedHolding{}
	for _, cells := range rows[headerRow+1:] {
		name := cellAt(cells, nameIdx)
		normalizedName := normalizeAlias(name)
		secondCell := normalizeAlias(cellAt(cells, 1))

		if normalizedName == "summary" || normalizedName == "grandtotal" ||
			(normalizedName == "bucket" && strings.HasPrefix(secondCell, "sumof")) {
			break
		}
		if name == "" || normalizedName == "bucket" {
			continue
		}
		empty := true
		for _, cell := range cells {
			if strings.TrimSpace(cell) != "" {
				empty = false
				break
			}
		}
		if empty {
			continue
		}

		var weight *float64
		if w := parseNumeric(cellAt(cells, weightIdx)); !math.IsNaN(w) {
			dec := percentToDecimal(w)
			weight = &dec
		} else if w := parseNumeric(cellAt(cells, weightPctIdx)); !math.IsNaN(w) {
			dec := percentToDecimal(w)
			weight = &dec
		}

		sensitivity := models.SensitivityLevel(strings.ToUpper(cellAt(cells, sensitivityIdx)))
		if !sensitivity.Valid() {
			sensitivity = models.SensitivityMed
		}
		constraint := models.HoldingConstraint(strings.ToUpper(cellAt(cells, constraintIdx)))
		if !constraint.Valid() {
			constraint = models.ConstraintFree
		}
		purpose := models.HoldingPurpose(strings.ToUpper(cellAt(cells, purposeIdx)))
		if !purpose.Valid() {
			purpose = models.PurposeLongTermGrowth
		}

		staged = append(staged, stagedHolding{
			HoldingInput: models.HoldingInput{
				Name:         name,
				Ticker:       cellAt(cells, tickerIdx),
				Weight:       weight,
				Sensitivity:  sensitivity,
				Constraint:   constraint,
				Purpose:      purpose,
				ExposureTags: splitTags(cellAt(cells, tagsIdx)),
			},
			rawAmount: parseNumeric(cellAt(cells, chosenAmountIdx)),
		})
	}

	if len(staged) == 0 {
		return nil, fmt.Errorf("no valid holding rows found in CSV")
	}

	hasExplicitWeight := false
	hasAmounts := false
	totalAmount := 0.0
	for _, h := range staged {
		if h.Weight != nil {
			hasExplicitWeight = true
		}
		if !math.IsNaN(h.rawAmount) && h.rawAmount > 0 {
			hasAmounts = true
			totalAmount += h.rawAmount
		}
	}

	if !hasExplicitWeight && hasAmounts {
		if totalAmount <= 0 {
			return nil, fmt.Errorf("holdings CSV amount column found, but total amount is zero")
		}
		for i := range staged {
			if !math.IsNaN(staged[i].rawAmount) && staged[i].rawAmount > 0 {
				w := staged[i].rawAmount / totalAmount
				staged[i].Weight = &w
			}
		}
	}

	holdings := make([]models.HoldingInput, len(staged))
	for i, h := range staged {
		holdings[i] = h.HoldingInput
	}
	return holdings, nil
}
