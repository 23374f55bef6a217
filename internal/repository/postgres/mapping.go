package postgres

import (
	"context"
	"fmt"

	"github.com/astrozeneka/review-dashboard-flex-living/internal/domain"
	"github.com/astrozeneka/review-dashboard-flex-living/internal/repository"
	apperrors "github.com/astrozeneka/review-dashboard-flex-living/pkg/errors"
)

// MappingRepository implements repository.MappingRepository using PostgreSQL.
type MappingRepository struct {
	db repository.DB
}

// NewMappingRepository creates a new PostgreSQL-backed mapping repository.
func NewMappingRepository(db repository.DB) *MappingRepository {
	return &MappingRepository{db: db}
}

// List returns every listing-to-place mapping, oldest first.
func (r *MappingRepository) List(ctx context.Context) ([]domain.ListingPlaceMapping, error) {
	query := `
		SELECT id, listing_id, google_place_id, listing_name, place_name, created_at, updated_at
		FROM listing_place_mappings
		ORDER BY id ASC`

	rows, err := r.db.Query(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("list place mappings: %w", err)
	}
	defer rows.Close()

	mappings := []domain.ListingPlaceMapping{}
	for rows.Next() {
		var m domain.ListingPlaceMapping
		if err := rows.Scan(
			&m.ID,
			&m.ListingID,
			&m.GooglePlaceID,
			&m.ListingName,
			&m.PlaceName,
			&m.CreatedAt,
			&m.UpdatedAt,
		); err != nil {
			return nil, fmt.Errorf("scan place mapping row: %w", err)
		}
		mappings = append(mappings, m)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate place mapping rows: %w", err)
	}

	return mappings, nil
}

// UpdatePlaceName refreshes the cached place display name after a sync run.
func (r *MappingRepository) UpdatePlaceName(ctx context.Context, id int64, placeName string) error {
	ct, err := r.db.Exec(ctx,
		`UPDATE listing_place_mappings SET place_name = $1, updated_at = NOW() WHERE id = $2`,
		placeName, id,
	)
	if err != nil {
		return fmt.Errorf("update place name: %w", err)
	}
	if ct.RowsAffected() == 0 {
		return apperrors.NotFound("place mapping", fmt.Sprintf("%d", id))
	}
	return nil
}
