package database

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/secondsight/secondsight/internal/models"
)

// ThemeRepository persists analysis runs: the theme row, its relational
// breakdown, and the audit snapshot, all in one transaction.
type ThemeRepository struct {
	db *sql.DB
}

// NewThemeRepository creates a theme repository.
func NewThemeRepository(db *sql.DB) *ThemeRepository {
	return &ThemeRepository{db: db}
}

// SaveAnalysis writes a completed run atomically. The raw result JSON goes
// into the run snapshot so the full payload can be replayed without
// re-joining the relational rows.
func (r *ThemeRepository) SaveAnalysis(ctx context.Context, theme models.Theme, result *models.AnalysisResult, modelName, promptVersion string) (string, error) {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return "", fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	themeID := uuid.New().String()
	now := time.Now()

	_, err = tx.ExecContext(ctx, `
		INSERT INTO themes (id, user_id, statement, probability, horizon_months, portfolio_scenario_id, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
	`, themeID, nullableString(theme.UserID), theme.Statement, theme.Probability, theme.HorizonMonths, nullableString(theme.PortfolioScenarioID), now)
	if err != nil {
		return "", fmt.Errorf("failed to create theme: %w", err)
	}

	for _, layer := range result.Analysis.EffectsByLayer.Ordered() {
		for position, effect := range layer.Effects {
			_, err = tx.ExecContext(ctx, `
				INSERT INTO theme_effects (id, theme_id, layer, position, description, impact_direction, confidence)
				VALUES ($1, $2, $3, $4, $5, $6, $7)
			`, uuid.New().String(), themeID, string(layer.Layer), position, effect.Description, string(effect.ImpactDirection), string(effect.Confidence))
			if err != nil {
				return "", fmt.Errorf("failed to save %s-order effect: %w", layer.Layer, err)
			}
		}
	}

	for _, mapping := range result.Analysis.HoldingMappings {
		_, err = tx.ExecContext(ctx, `
			INSERT INTO holding_mappings (id, theme_id, holding_name, exposure_type, net_impact, mechanism, confidence)
			VALUES ($1, $2, $3, $4, $5, $6, $7)
		`, uuid.New().String(), themeID, mapping.HoldingName, mapping.ExposureType, string(mapping.NetImpact), mapping.Mechanism, string(mapping.Confidence))
		if err != nil {
			return "", fmt.Errorf("failed to save holding mapping: %w", err)
		}
	}

	for _, rec := range result.Analysis.AssetRecommendations {
		_, err = tx.ExecContext(ctx, `
			INSERT INTO asset_recommendations (id, theme_id, asset_name, category, source_layer, direction, action, rationale, confidence, mechanism, time_horizon)
			VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)
		`, uuid.New().String(), themeID, rec.AssetName, rec.Category, string(rec.SourceLayer), string(rec.Direction), rec.Action, rec.Rationale, string(rec.Confidence), rec.Mechanism, rec.TimeHorizon)
		if err != nil {
			return "", fmt.Errorf("failed to save asset recommendation: %w", err)
		}
	}

	// Assumptions and leading indicators are paired positionally into
	// invalidation items so observations can flip their status later.
	for i, assumption := range result.Analysis.Assumptions {
		indicatorName := ""
		if i < len(result.Analysis.LeadingIndicators) {
			indicatorName = result.Analysis.LeadingIndicators[i].Name
		}
		_, err = tx.ExecContext(ctx, `
			INSERT INTO invalidation_items (id, theme_id, assumption, breakpoint_signal, indicator_name, latest_status, updated_at)
			VALUES ($1, $2, $3, $4, $5, $6, $7)
		`, uuid.New().String(), themeID, assumption.Assumption, assumption.BreakpointSignal, indicatorName, string(models.StatusUnknown), now)
		if err != nil {
			return "", fmt.Errorf("failed to save invalidation item: %w", err)
		}
	}

	for _, def := range result.IndicatorDefinitions {
		_, err = tx.ExecContext(ctx, `
			INSERT INTO indicator_definitions (id, theme_id, indicator_name, supports_direction, green_threshold, yellow_threshold, red_threshold, expected_window)
			VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		`, uuid.New().String(), themeID, def.IndicatorName, string(def.SupportsDirection), def.GreenThreshold, def.YellowThreshold, def.RedThreshold, def.ExpectedWindow)
		if err != nil {
			return "", fmt.Errorf("failed to save indicator definition: %w", err)
		}
	}

	for _, branch := range result.Branches {
		_, err = tx.ExecContext(ctx, `
			INSERT INTO theme_branches (id, theme_id, name, probability, rationale)
			VALUES ($1, $2, $3, $4, $5)
		`, uuid.New().String(), themeID, string(branch.Name), branch.Probability, branch.Rationale)
		if err != nil {
			return "", fmt.Errorf("failed to save branch: %w", err)
		}
	}

	for _, shock := range result.NodeShocks {
		_, err = tx.ExecContext(ctx, `
			INSERT INTO node_shocks (id, theme_id, branch_name, node_key, node_label, direction, magnitude_pct, strength, lag, confidence, evidence_note)
			VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)
		`, uuid.New().String(), themeID, string(shock.BranchName), shock.NodeKey, shock.NodeLabel, string(shock.Direction), shock.MagnitudePct, string(shock.Strength), string(shock.Lag), string(shock.Confidence), shock.EvidenceNote)
		if err != nil {
			return "", fmt.Errorf("failed to save node shock: %w", err)
		}
	}

	for _, rec := range result.Recommendations {
		_, err = tx.ExecContext(ctx, `
			INSERT INTO expression_recommendations (id, theme_id, symbol, name, asset_type, direction, action, sizing_band, max_position_pct, score, mechanism, catalyst_window, priced_in_note, risk_note, invalidation_trigger, portfolio_role, actionable, already_expressed)
			VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16, $17, $18)
		`, uuid.New().String(), themeID, rec.Symbol, rec.Name, string(rec.AssetType), string(rec.Direction), rec.Action, string(rec.SizingBand), rec.MaxPositionPct, rec.Score, rec.Mechanism, rec.CatalystWindow, rec.PricedInNote, rec.RiskNote, rec.InvalidationTrigger, rec.PortfolioRole, rec.Actionable, rec.AlreadyExpressed)
		if err != nil {
			return "", fmt.Errorf("failed to save expression recommendation: %w", err)
		}
	}

	result.ThemeID = themeID
	rawJSON, err := json.Marshal(result)
	if err != nil {
		return "", fmt.Errorf("failed to marshal result snapshot: %w", err)
	}

	_, err = tx.ExecContext(ctx, `
		INSERT INTO run_snapshots (id, theme_id, model_name, prompt_version, raw_output_json, computed_bias_score, bias_label, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
	`, uuid.New().String(), themeID, modelName, promptVersion, rawJSON, result.Bias.PortfolioBias, string(result.Bias.BiasLabel), now)
	if err != nil {
		return "", fmt.Errorf("failed to save run snapshot: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return "", fmt.Errorf("failed to commit transaction: %w", err)
	}

	return themeID, nil
}

// SaveFailure records an audit trail for a run that never produced a
// result: the theme row plus a neutral snapshot carrying the error.
func (r *ThemeRepository) SaveFailure(ctx context.Context, theme models.Theme, modelName, promptVersion string, cause error) (string, error) {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return "", fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	themeID := uuid.New().String()
	now := time.Now()

	_, err = tx.ExecContext(ctx, `
		INSERT INTO themes (id, user_id, statement, probability, horizon_months, portfolio_scenario_id, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
	`, themeID, nullableString(theme.UserID), theme.Statement, theme.Probability, theme.HorizonMonths, nullableString(theme.PortfolioScenarioID), now)
	if err != nil {
		return "", fmt.Errorf("failed to create theme: %w", err)
	}

	rawJSON, err := json.Marshal(map[string]string{"error": cause.Error()})
	if err != nil {
		return "", fmt.Errorf("failed to marshal failure snapshot: %w", err)
	}

	_, err = tx.ExecContext(ctx, `
		INSERT INTO run_snapshots (id, theme_id, model_name, prompt_version, raw_output_json, computed_bias_score, bias_label, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
	`, uuid.New().String(), themeID, modelName, promptVersion, rawJSON, 0.0, string(models.BiasNeutral), now)
	if err != nil {
		return "", fmt.Errorf("failed to save failure snapshot: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return "", fmt.Errorf("failed to commit transaction: %w", err)
	}

	return themeID, nil
}

// GetTheme returns a theme with its latest snapshot and invalidation items.
func (r *ThemeRepository) GetTheme(ctx context.Context, id string) (*models.ThemeDetail, error) {
	var detail models.ThemeDetail
	var userID, scenarioID sql.NullString

	err := r.db.QueryRowContext(ctx, `
		SELECT id, user_id, statement, probability, horizon_months, portfolio_scenario_id, created_at
		FROM themes
		WHERE id = $1
	`, id).Scan(&detail.Theme.ID, &userID, &detail.Theme.Statement, &detail.Theme.Probability, &detail.Theme.HorizonMonths, &scenarioID, &detail.Theme.CreatedAt)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, fmt.Errorf("theme not found")
		}
		return nil, fmt.Errorf("failed to get theme: %w", err)
	}
	detail.Theme.UserID = userID.String
	detail.Theme.PortfolioScenarioID = scenarioID.String

	err = r.db.QueryRowContext(ctx, `
		SELECT id, theme_id, model_name, prompt_version, raw_output_json, computed_bias_score, bias_label, created_at
		FROM run_snapshots
		WHERE theme_id = $1
		ORDER BY created_at DESC
		LIMIT 1
	`, id).Scan(&detail.Snapshot.ID, &detail.Snapshot.ThemeID, &detail.Snapshot.ModelName, &detail.Snapshot.PromptVersion, &detail.Snapshot.RawOutputJSON, &detail.Snapshot.ComputedBiasScore, &detail.Snapshot.BiasLabel, &detail.Snapshot.CreatedAt)
	if err != nil && err != sql.ErrNoRows {
		return nil, fmt.Errorf("failed to get run snapshot: %w", err)
	}

	items, err := r.ListInvalidationItems(ctx, id)
	if err != nil {
		return nil, err
	}
	detail.InvalidationItems = items

	return &detail, nil
}

// ListThemes returns themes newest first, with each theme's latest bias.
func (r *ThemeRepository) ListThemes(ctx context.Context, userID string, limit int) ([]models.ThemeSummary, error) {
	if limit <= 0 {
		limit = 50
	}

	query := `
		SELECT t.id, t.statement, t.probability, t.horizon_months, t.created_at,
		       COALESCE(s.computed_bias_score, 0), COALESCE(s.bias_label, 'NEUTRAL')
		FROM themes t
		LEFT JOIN LATERAL (
			SELECT computed_bias_score, bias_label
			FROM run_snapshots
			WHERE theme_id = t.id
			ORDER BY created_at DESC
			LIMIT 1
		) s ON true
	`
	args := []interface{}{}
	if userID != "" {
		query += " WHERE t.user_id = $1 ORDER BY t.created_at DESC LIMIT $2"
		args = append(args, userID, limit)
	} else {
		query += " ORDER BY t.created_at DESC LIMIT $1"
		args = append(args, limit)
	}

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list themes: %w", err)
	}
	defer rows.Close()

	var themes []models.ThemeSummary
	for rows.Next() {
		var summary models.ThemeSummary
		err := rows.Scan(&summary.ID, &summary.Statement, &summary.Probability, &summary.HorizonMonths, &summary.CreatedAt, &summary.BiasScore, &summary.BiasLabel)
		if err != nil {
			return nil, fmt.Errorf("failed to scan theme: %w", err)
		}
		themes = append(themes, summary)
	}
	return themes, rows.Err()
}

// ListInvalidationItems returns the invalidation items for a theme.
func (r *ThemeRepository) ListInvalidationItems(ctx context.Context, themeID string) ([]models.InvalidationItem, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT id, theme_id, assumption, breakpoint_signal, indicator_name, latest_status, COALESCE(latest_note, ''), updated_at
		FROM invalidation_items
		WHERE theme_id = $1
		ORDER BY updated_at DESC
	`, themeID)
	if err != nil {
		return nil, fmt.Errorf("failed to list invalidation items: %w", err)
	}
	defer rows.Close()

	var items []models.InvalidationItem
	for rows.Next() {
		var item models.InvalidationItem
		err := rows.Scan(&item.ID, &item.ThemeID, &item.Assumption, &item.BreakpointSignal, &item.IndicatorName, &item.LatestStatus, &item.LatestNote, &item.UpdatedAt)
		if err != nil {
			return nil, fmt.Errorf("failed to scan invalidation item: %w", err)
		}
		items = append(items, item)
	}
	return items, rows.Err()
}

// ListStaleInvalidationItems returns items with no observation since the
// cutoff, excluding items already marked UNKNOWN.
func (r *ThemeRepository) ListStaleInvalidationItems(ctx context.Context, cutoff time.Time) ([]models.InvalidationItem, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT id, theme_id, assumption, breakpoint_signal, indicator_name, latest_status, COALESCE(latest_note, ''), updated_at
		FROM invalidation_items
		WHERE updated_at < $1 AND latest_status != $2
		ORDER BY updated_at ASC
	`, cutoff, string(models.StatusUnknown))
	if err != nil {
		return nil, fmt.Errorf("failed to list stale invalidation items: %w", err)
	}
	defer rows.Close()

	var items []models.InvalidationItem
	for rows.Next() {
		var item models.InvalidationItem
		err := rows.Scan(&item.ID, &item.ThemeID, &item.Assumption, &item.BreakpointSignal, &item.IndicatorName, &item.LatestStatus, &item.LatestNote, &item.UpdatedAt)
		if err != nil {
			return nil, fmt.Errorf("failed to scan invalidation item: %w", err)
		}
		items = append(items, item)
	}
	return items, rows.Err()
}

// GetIndicatorDefinitions returns the monitoring thresholds saved with a
// theme, keyed by indicator name.
func (r *ThemeRepository) GetIndicatorDefinitions(ctx context.Context, themeID string) ([]models.IndicatorDefinition, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT indicator_name, supports_direction, green_threshold, yellow_threshold, red_threshold, expected_window
		FROM indicator_definitions
		WHERE theme_id = $1
	`, themeID)
	if err != nil {
		return nil, fmt.Errorf("failed to get indicator definitions: %w", err)
	}
	defer rows.Close()

	var defs []models.IndicatorDefinition
	for rows.Next() {
		var def models.IndicatorDefinition
		err := rows.Scan(&def.IndicatorName, &def.SupportsDirection, &def.GreenThreshold, &def.YellowThreshold, &def.RedThreshold, &def.ExpectedWindow)
		if err != nil {
			return nil, fmt.Errorf("failed to scan indicator definition: %w", err)
		}
		defs = append(defs, def)
	}
	return defs, rows.Err()
}

// UpdateInvalidationStatus records an indicator observation against the
// invalidation items watching that indicator.
func (r *ThemeRepository) UpdateInvalidationStatus(ctx context.Context, themeID, indicatorName string, status models.IndicatorStatus, note string) error {
	result, err := r.db.ExecContext(ctx, `
		UPDATE invalidation_items
		SET latest_status = $3, latest_note = $4, updated_at = NOW()
		WHERE theme_id = $1 AND indicator_name = $2
	`, themeID, indicatorName, string(status), note)
	if err != nil {
		return fmt.Errorf("failed to update invalidation status: %w", err)
	}

	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}
	if affected == 0 {
		return fmt.Errorf("no invalidation item watches indicator %q", indicatorName)
	}
	return nil
}

// nullableString maps "" to NULL for optional foreign keys.
func nullableString(s string) interface{} {
	if s == "" {
		return nil
	}
	return s
}
