package repository

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"

	"github.com/astrozeneka/review-dashboard-flex-living/internal/domain"
)

// DB is the subset of pgxpool.Pool the repositories use. pgxmock's
// PgxPoolIface satisfies it too, so repositories are testable without a
// live database.
type DB interface {
	Exec(ctx context.Context, sql string, arguments ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

// PublicationFilter is the tri-state publication constraint on review queries.
type PublicationFilter int

const (
	PublicationAny PublicationFilter = iota
	PublicationPublished
	PublicationPending
)

// ReviewFilter describes the filter dimensions of a paginated review fetch.
// Channel and ListingName impose no constraint when empty or set to the
// "all" sentinel. RatingBucket is a 5-star bucket (1-5), 0 meaning absent.
type ReviewFilter struct {
	Publication  PublicationFilter
	Channel      string
	ListingName  string
	RatingBucket int
	Sort         domain.SortOption
}

// ReviewRepository is the review store accessor.
type ReviewRepository interface {
	GetByID(ctx context.Context, id int64) (*domain.Review, error)
	List(ctx context.Context, filter ReviewFilter, offset, limit int) ([]domain.Review, error)
	ListByListing(ctx context.Context, listingID int64, publishedOnly bool) ([]domain.Review, error)
	Approve(ctx context.Context, id int64) (*domain.Review, error)
	Channels(ctx context.Context) ([]string, error)
	Stats(ctx context.Context, listingID int64, now time.Time) (*domain.ReviewStatistics, error)
	AverageRating(ctx context.Context, listingID int64) (*float64, error)
	CountByListing(ctx context.Context, listingID int64, publishedOnly bool) (int, error)
	RepairRating(ctx context.Context, id int64, rating float64) error
	InsertIngested(ctx context.Context, review *domain.Review) (bool, error)
}

// UserRepository is the host account store accessor.
type UserRepository interface {
	Create(ctx context.Context, user *domain.User) error
	GetByEmail(ctx context.Context, email string) (*domain.User, error)
	GetByID(ctx context.Context, id uuid.UUID) (*domain.User, error)
}

// MappingRepository is the listing-place mapping store accessor.
type MappingRepository interface {
	List(ctx context.Context) ([]domain.ListingPlaceMapping, error)
	UpdatePlaceName(ctx context.Context, id int64, placeName string) error
}
