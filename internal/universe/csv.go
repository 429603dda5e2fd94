// Package universe parses delimited instrument and holdings tables into
// typed records, tolerating the column aliases and formatting quirks of
// spreadsheet exports.
package universe

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/secondsight/secondsight/internal/models"
	"github.com/secondsight/secondsight/internal/textutil"
)

const (
	exposureColumnPrefix = "exp_"
	defaultMaxPosition   = 0.05
	defaultLiquidity     = "daily"
)

// ParseResult carries the surviving rows plus the non-fatal warnings
// accumulated while filtering.
type ParseResult struct {
	Rows     []models.UniverseRow
	Warnings []string
}

// normalizeHeader lowercases a header cell and strips everything outside
// [a-z0-9_-] so aliases match regardless of spacing and punctuation.
// Hyphens survive because exp_* factor columns carry hyphenated node keys.
func normalizeHeader(value string) string {
	var b strings.Builder
	for _, r := range strings.ToLower(strings.TrimSpace(value)) {
		if (r >= 'a' && r <= 'z') || (r >= '0' && r <= '9') || r == '_' || r == '-' {
			b.WriteRune(r)
		}
	}
	return b.String()
}

func headerIndex(normalized []string, aliases ...string) int {
	for i, h := range normalized {
		for _, alias := range aliases {
			if h == alias {
				return i
			}
		}
	}
	return -1
}

func cellAt(cells []string, idx int) string {
	if idx < 0 || idx >= len(cells) {
		return ""
	}
	return strings.TrimSpace(cells[idx])
}

func clamp(v, lo, hi float64) float64 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}

func splitTags(value string) []string {
	if value == "" {
		return []string{}
	}
	tags := []string{}
	for _, part := range strings.FieldsFunc(value, func(r rune) bool {
		return r == '|' || r == ',' || r == ';'
	}) {
		if t := strings.TrimSpace(part); t != "" {
			tags = append(tags, t)
		}
	}
	return tags
}

// ParseUniverseCSV parses a comma-delimited universe table. The header
// must carry symbol, company name, asset type, and liquidity class plus at
// least one exp_* exposure column. Duplicate symbols, invalid asset types,
// and all-zero exposure rows are dropped with warnings; exposure values
// are clamped to [-1, 1].
func ParseUniverseCSV(csvText string) (*ParseResult, error) {
	lines := []string{}
	for _, line := range strings.Split(csvText, "\n") {
		if trimmed := strings.TrimSpace(strings.TrimSuffix(line, "\r")); trimmed != "" {
			lines = append(lines, trimmed)
		}
	}
	if len(lines) < 2 {
		return nil, fmt.Errorf("universe CSV must include a header and at least one data row")
	}

	headers := strings.Split(lines[0], ",")
	normalized := make([]string, len(headers))
	for i, h := range headers {
		normalized[i] = normalizeHeader(h)
	}

	type exposureColumn struct {
		key   string
		index int
	}
	expCols := []exposureColumn{}
	for i, h := range normalized {
		if strings.HasPrefix(h, exposureColumnPrefix) {
			expCols = append(expCols, exposureColumn{key: h, index: i})
		}
	}
	if len(expCols) == 0 {
		return nil, fmt.Errorf("universe CSV must include at least one %s* exposure column", exposureColumnPrefix)
	}

	symbolIdx := headerIndex(normalized, "symbol")
	nameIdx := headerIndex(normalized, "company_name", "companyname")
	assetTypeIdx := headerIndex(normalized, "asset_type", "assettype")
	liquidityIdx := headerIndex(normalized, "liquidity_class", "liquidityclass")
	regionIdx := headerIndex(normalized, "region")
	currencyIdx := headerIndex(normalized, "currency")
	maxPosIdx := headerIndex(normalized, "max_position_pct", "maxpositionpct")
	tagsIdx := headerIndex(normalized, "tags")

	if symbolIdx < 0 || nameIdx < 0 || assetTypeIdx < 0 || liquidityIdx < 0 {
		return nil, fmt.Errorf("universe CSV missing one of required columns: symbol, company_name, asset_type, liquidity_class")
	}

	seen := make(map[string]struct{})
	result := &ParseResult{Rows: []models.UniverseRow{}, Warnings: []string{}}

	for _, line := range lines[1:] {
		cells := strings.Split(line, ",")

		symbol := strings.ToUpper(cellAt(cells, symbolIdx))
		if symbol == "" {
			continue
		}
		dedupeKey := textutil.NormalizeKey(symbol)
		if _, dup := seen[dedupeKey]; dup {
			result.Warnings = append(result.Warnings, fmt.Sprintf("Duplicate symbol dropped: %s", symbol))
			continue
		}
		seen[dedupeKey] = struct{}{}

		assetType := models.AssetType(strings.ToUpper(cellAt(cells, assetTypeIdx)))
		if assetType != models.AssetEquity && assetType != models.AssetETF {
			result.Warnings = append(result.Warnings, fmt.Sprintf("Invalid asset_type for %s; row skipped.", symbol))
			continue
		}

		vector := make(map[string]float64, len(expCols))
		hasSignal := false
		for _, col := range expCols {
			parsed, err := strconv.ParseFloat(cellAt(cells, col.index), 64)
			if err != nil {
				parsed = 0
			}
			parsed = clamp(parsed, -1, 1)
			vector[col.key] = parsed
			if parsed != 0 {
				hasSignal = true
			}
		}
		if !hasSignal {
			result.Warnings = append(result.Warnings, fmt.Sprintf("All-zero exposures dropped: %s", symbol))
			continue
		}

		maxPos := defaultMaxPosition
		if raw := cellAt(cells, maxPosIdx); raw != "" {
			if parsed, err := strconv.ParseFloat(raw, 64); err == nil {
				if parsed > 1 {
					parsed /= 100
				}
				maxPos = clamp(parsed, 0, 1)
			}
		}

		companyName := cellAt(cells, nameIdx)
		if companyName == "" {
			companyName = symbol
		}
		liquidity := cellAt(cells, liquidityIdx)
		if liquidity == "" {
			liquidity = defaultLiquidity
		}

		result.Rows = append(result.Rows, models.UniverseRow{
			Symbol:                symbol,
			CompanyName:           companyName,
			AssetType:             assetType,
			Region:                cellAt(cells, regionIdx),
			Currency:              cellAt(cells, currencyIdx),
			LiquidityClass:        liquidity,
			MaxPositionDefaultPct: maxPos,
			Tags:                  splitTags(cellAt(cells, tagsIdx)),
			ExposureVector:        vector,
		})
	}

	if len(result.Rows) == 0 {
		return nil, fmt.Errorf("universe CSV did not produce any valid rows")
	}

	return result, nil
}
