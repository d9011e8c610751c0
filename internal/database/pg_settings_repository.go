package database

import (
	"context"
	"errors"
	"fmt"

	"storyrunner/internal/interfaces"
	"storyrunner/internal/models"

	"github.com/georgysavva/scany/v2/pgxscan"
	"github.com/jackc/pgx/v5"
	"go.uber.org/zap"
)

var _ interfaces.SettingsRepository = (*pgSettingsRepository)(nil)

type pgSettingsRepository struct {
	logger *zap.Logger
}

// NewPgSettingsRepository creates a repository over the flavor catalogs.
func NewPgSettingsRepository(logger *zap.Logger) interfaces.SettingsRepository {
	return &pgSettingsRepository{logger: logger.Named("PgSettingsRepo")}
}

// The two catalogs live in separate tables with identical shape.
func flavorTable(kind models.FlavorKind) (string, error) {
	switch kind {
	case models.FlavorKindTone:
		return "tone_styles", nil
	case models.FlavorKindTime:
		return "time_flavors", nil
	default:
		return "", fmt.Errorf("unknown flavor kind %q", kind)
	}
}

func (r *pgSettingsRepository) ListFlavors(ctx context.Context, querier interfaces.DBTX, kind models.FlavorKind) ([]models.FlavorOption, error) {
	table, err := flavorTable(kind)
	if err != nil {
		return nil, err
	}
	query := fmt.Sprintf(`SELECT id, label, description FROM %s ORDER BY id`, table)

	options := make([]models.FlavorOption, 0)
	if err := pgxscan.Select(ctx, querier, &options, query); err != nil {
		r.logger.Error("Failed to list flavors", zap.Error(err), zap.String("kind", string(kind)))
		return nil, err
	}
	return options, nil
}

func (r *pgSettingsRepository) GetFlavor(ctx context.Context, querier interfaces.DBTX, kind models.FlavorKind, id string) (*models.FlavorOption, error) {
	table, err := flavorTable(kind)
	if err != nil {
		return nil, err
	}
	query := fmt.Sprintf(`SELECT id, label, description FROM %s WHERE id = $1`, table)

	option := &models.FlavorOption{}
	err = querier.QueryRow(ctx, query, id).Scan(&option.ID, &option.Label, &option.Description)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, models.ErrNotFound
		}
		r.logger.Error("Failed to get flavor", zap.Error(err), zap.String("kind", string(kind)), zap.String("id", id))
		return nil, err
	}
	return option, nil
}

func (r *pgSettingsRepository) UpsertFlavor(ctx context.Context, querier interfaces.DBTX, kind models.FlavorKind, option models.FlavorOption) error {
	table, err := flavorTable(kind)
	if err != nil {
		return err
	}
	query := fmt.Sprintf(`
INSERT INTO %s (id, label, description)
VALUES ($1, $2, $3)
ON CONFLICT (id) DO UPDATE SET label = EXCLUDED.label, description = EXCLUDED.description`, table)

	if _, err := querier.Exec(ctx, query, option.ID, option.Label, option.Description); err != nil {
		r.logger.Error("Failed to upsert flavor", zap.Error(err), zap.String("kind", string(kind)), zap.String("id", option.ID))
		return err
	}
	return nil
}

func (r *pgSettingsRepository) DeleteFlavor(ctx context.Context, querier interfaces.DBTX, kind models.FlavorKind, id string) error {
	table, err := flavorTable(kind)
	if err != nil {
		return err
	}
	query := fmt.Sprintf(`DELETE FROM %s WHERE id = $1`, table)

	tag, err := querier.Exec(ctx, query, id)
	if err != nil {
		r.logger.Error("Failed to delete flavor", zap.Error(err), zap.String("kind", string(kind)), zap.String("id", id))
		return err
	}
	if tag.RowsAffected() == 0 {
		return models.ErrNotFound
	}
	return nil
}
