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

// ScenarioRepository persists named, reusable holdings sets. Holdings are
// stored as a JSONB document since they are always read and written whole.
type ScenarioRepository struct {
	db *sql.DB
}

// NewScenarioRepository creates a scenario repository.
func NewScenarioRepository(db *sql.DB) *ScenarioRepository {
	return &ScenarioRepository{db: db}
}

// Create stores a scenario and returns it with its assigned ID.
func (r *ScenarioRepository) Create(ctx context.Context, scenario models.PortfolioScenario) (*models.PortfolioScenario, error) {
	holdingsJSON, err := json.Marshal(scenario.Holdings)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal holdings: %w", err)
	}

	scenario.ID = uuid.New().String()
	scenario.CreatedAt = time.Now()

	_, err = r.db.ExecContext(ctx, `
		INSERT INTO portfolio_scenarios (id, user_id, name, holdings, created_at)
		VALUES ($1, $2, $3, $4, $5)
	`, scenario.ID, nullableString(scenario.UserID), scenario.Name, holdingsJSON, scenario.CreatedAt)
	if err != nil {
		return nil, fmt.Errorf("failed to create scenario: %w", err)
	}

	return &scenario, nil
}

// Get retrieves one scenario by ID.
func (r *ScenarioRepository) Get(ctx context.Context, id string) (*models.PortfolioScenario, error) {
	var scenario models.PortfolioScenario
	var userID sql.NullString
	var holdingsJSON []byte

	err := r.db.QueryRowContext(ctx, `
		SELECT id, user_id, name, holdings, created_at
		FROM portfolio_scenarios
		WHERE id = $1
	`, id).Scan(&scenario.ID, &userID, &scenario.Name, &holdingsJSON, &scenario.CreatedAt)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, fmt.Errorf("scenario not found")
		}
		return nil, fmt.Errorf("failed to get scenario: %w", err)
	}
	scenario.UserID = userID.String

	if err := json.Unmarshal(holdingsJSON, &scenario.Holdings); err != nil {
		return nil, fmt.Errorf("failed to unmarshal holdings: %w", err)
	}
	return &scenario, nil
}

// List returns scenarios newest first, optionally filtered by owner.
func (r *ScenarioRepository) List(ctx context.Context, userID string) ([]models.PortfolioScenario, error) {
	query := `
		SELECT id, user_id, name, holdings, created_at
		FROM portfolio_scenarios
	`
	args := []interface{}{}
	if userID != "" {
		query += " WHERE user_id = $1"
		args = append(args, userID)
	}
	query += " ORDER BY created_at DESC"

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list scenarios: %w", err)
	}
	defer rows.Close()

	var scenarios []models.PortfolioScenario
	for rows.Next() {
		var scenario models.PortfolioScenario
		var owner sql.NullString
		var holdingsJSON []byte

		if err := rows.Scan(&scenario.ID, &owner, &scenario.Name, &holdingsJSON, &scenario.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan scenario: %w", err)
		}
		scenario.UserID = owner.String
		if err := json.Unmarshal(holdingsJSON, &scenario.Holdings); err != nil {
			return nil, fmt.Errorf("failed to unmarshal holdings: %w", err)
		}
		scenarios = append(scenarios, scenario)
	}
	return scenarios, rows.Err()
}

// Delete removes a scenario.
func (r *ScenarioRepository) Delete(ctx context.Context, id string) error {
	result, err := r.db.ExecContext(ctx, `DELETE FROM portfolio_scenarios WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("failed to delete scenario: %w", err)
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}
	if affected == 0 {
		return fmt.Errorf("scenario not found")
	}
	return nil
}
