package database

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/lib/pq"
	"github.com/secondsight/secondsight/internal/models"
)

// UniverseRepository persists uploaded universe versions. The version row
// carries metadata; instrument rows are relational so symbols stay
// queryable, with each exposure vector as a JSONB column.
type UniverseRepository struct {
	db *sql.DB
}

// NewUniverseRepository creates a universe repository.
func NewUniverseRepository(db *sql.DB) *UniverseRepository {
	return &UniverseRepository{db: db}
}

// CreateVersion stores a parsed universe upload atomically.
func (r *UniverseRepository) CreateVersion(ctx context.Context, version models.UniverseVersion) (*models.UniverseVersion, error) {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	version.ID = uuid.New().String()
	version.CreatedAt = time.Now()

	_, err = tx.ExecContext(ctx, `
		INSERT INTO universe_versions (id, user_id, name, row_count, created_at)
		VALUES ($1, $2, $3, $4, $5)
	`, version.ID, nullableString(version.UserID), version.Name, len(version.Rows), version.CreatedAt)
	if err != nil {
		return nil, fmt.Errorf("failed to create universe version: %w", err)
	}

	for _, row := range version.Rows {
		exposureJSON, err := json.Marshal(row.ExposureVector)
		if err != nil {
			return nil, fmt.Errorf("failed to marshal exposure vector: %w", err)
		}
		_, err = tx.ExecContext(ctx, `
			INSERT INTO universe_rows (id, version_id, symbol, company_name, asset_type, region, currency, liquidity_class, max_position_default_pct, tags, exposure_vector)
			VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)
		`, uuid.New().String(), version.ID, row.Symbol, row.CompanyName, string(row.AssetType), row.Region, row.Currency, row.LiquidityClass, row.MaxPositionDefaultPct, pq.Array(row.Tags), exposureJSON)
		if err != nil {
			return nil, fmt.Errorf("failed to save universe row %s: %w", row.Symbol, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("failed to commit transaction: %w", err)
	}
	return &version, nil
}

// GetVersion retrieves a universe version with all instrument rows.
func (r *UniverseRepository) GetVersion(ctx context.Context, id string) (*models.UniverseVersion, error) {
	var version models.UniverseVersion
	var userID sql.NullString

	err := r.db.QueryRowContext(ctx, `
		SELECT id, user_id, name, created_at
		FROM universe_versions
		WHERE id = $1
	`, id).Scan(&version.ID, &userID, &version.Name, &version.CreatedAt)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, fmt.Errorf("universe version not found")
		}
		return nil, fmt.Errorf("failed to get universe version: %w", err)
	}
	version.UserID = userID.String

	rows, err := r.db.QueryContext(ctx, `
		SELECT symbol, company_name, asset_type, COALESCE(region, ''), COALESCE(currency, ''), liquidity_class, max_position_default_pct, tags, exposure_vector
		FROM universe_rows
		WHERE version_id = $1
		ORDER BY symbol
	`, id)
	if err != nil {
		return nil, fmt.Errorf("failed to query universe rows: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var row models.UniverseRow
		var exposureJSON []byte
		err := rows.Scan(&row.Symbol, &row.CompanyName, &row.AssetType, &row.Region, &row.Currency, &row.LiquidityClass, &row.MaxPositionDefaultPct, pq.Array(&row.Tags), &exposureJSON)
		if err != nil {
			return nil, fmt.Errorf("failed to scan universe row: %w", err)
		}
		if err := json.Unmarshal(exposureJSON, &row.ExposureVector); err != nil {
			return nil, fmt.Errorf("failed to unmarshal exposure vector: %w", err)
		}
		version.Rows = append(version.Rows, row)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return &version, nil
}

// ListVersions returns version metadata newest first, without rows.
func (r *UniverseRepository) ListVersions(ctx context.Context, userID string) ([]models.UniverseVersionSummary, error) {
	query := `
		SELECT id, name, row_count, created_at
		FROM universe_versions
	`
	args := []interface{}{}
	if userID != "" {
		query += " WHERE user_id = $1"
		args = append(args, userID)
	}
	query += " ORDER BY created_at DESC"

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list universe versions: %w", err)
	}
	defer rows.Close()

	var versions []models.UniverseVersionSummary
	for rows.Next() {
		var summary models.UniverseVersionSummary
		if err := rows.Scan(&summary.ID, &summary.Name, &summary.RowCount, &summary.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan universe version: %w", err)
		}
		versions = append(versions, summary)
	}
	return versions, rows.Err()
}
