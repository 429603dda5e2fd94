package reasoning

import (
	"fmt"
	"strings"

	"github.com/secondsight/secondsight/internal/models"
)

const systemPrompt = "You are a macro systems thinker focused on portfolio stress testing. " +
	"Given a structural change, generate a concrete causal map and portfolio impacts. " +
	"Respond with valid JSON matching the requested shape exactly."

// BuildAnalysisPrompt assembles the user prompt for one analyze request.
// The rules restate the output invariants the orchestrator enforces so a
// compliant model passes validation on the first attempt; a non-empty
// hint from a failed attempt is appended last.
func BuildAnalysisPrompt(req *models.AnalyzeRequest, hint string) string {
	var holdings strings.Builder
	for _, h := range req.Holdings {
		ticker := h.Ticker
		if ticker == "" {
			ticker = "N/A"
		}
		tags := strings.Join(h.ExposureTags, ", ")
		if tags == "" {
			tags = "none"
		}
		fmt.Fprintf(&holdings, "- %s (%s), sensitivity=%s, tags=%s\n", h.Name, ticker, h.Sensitivity, tags)
	}

	sections := []string{
		"Rules:",
		"- Be specific and mechanism-driven.",
		fmt.Sprintf("- Keep exposureType concise (<= %d chars) and mechanism concise (<= %d chars).", models.MaxExposureTypeLen, models.MaxMechanismLen),
		"- Avoid repeating the same idea across layers.",
		"- Keep a coherent first->second->third->fourth order chain with at least 2 first-order and 2 second-order effects.",
		"- Provide exactly one holding mapping per unique holding name (even if the same name appears multiple times).",
		"- If second, third, or fourth order effects are present, include at least one asset recommendation tied to those layers (source_layer SECOND, THIRD, or FOURTH).",
		"- Use confidence levels LOW/MED/HIGH and impact directions POS/NEG/MIXED/UNCERTAIN.",
		"",
		fmt.Sprintf("Structural shift: %s", req.Statement),
		fmt.Sprintf("Probability: %v", req.Probability),
		fmt.Sprintf("Horizon months: %d", req.HorizonMonths),
		"Holdings:",
		strings.TrimRight(holdings.String(), "\n"),
		"",
		"Return a JSON object with this shape:",
		outputShape,
	}

	if hint != "" {
		sections = append(sections, "", hint)
	}

	return strings.Join(sections, "\n")
}

// outputShape documents the output contract inside the prompt. Providers
// run in JSON mode but do not all support strict schemas, so the shape is
// spelled out and the parser validates what comes back.
const outputShape = `{
  "effects_by_layer": {
    "first": [{"description": "...", "impact_direction": "POS|NEG|MIXED|UNCERTAIN", "confidence": "LOW|MED|HIGH"}],
    "second": [...], "third": [...], "fourth": [...]
  },
  "assumptions": [{"assumption": "...", "breakpoint_signal": "..."}],
  "leading_indicators": [{"name": "...", "rationale": "..."}],
  "holding_mappings": [{"holding_name": "...", "exposure_type": "...", "net_impact": "POS|NEG|MIXED|UNCERTAIN", "mechanism": "...", "confidence": "LOW|MED|HIGH"}],
  "asset_recommendations": [{"asset_name": "...", "category": "...", "source_layer": "SECOND|THIRD|FOURTH", "direction": "POS|NEG|MIXED|UNCERTAIN", "action": "...", "rationale": "...", "confidence": "LOW|MED|HIGH", "mechanism": "...", "time_horizon": "..."}]
}`
