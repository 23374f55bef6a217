package postgres

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/jackc/pgx/v5"

	"github.com/astrozeneka/review-dashboard-flex-living/internal/domain"
	"github.com/astrozeneka/review-dashboard-flex-living/internal/repository"
	apperrors "github.com/astrozeneka/review-dashboard-flex-living/pkg/errors"
)

const reviewColumns = `id, hostaway_id, google_review_uid, type, rating, public_review, review_category, submitted_at, guest_name, listing_name, listing_id, channel, is_published, created_at, updated_at`

// ReviewRepository implements repository.ReviewRepository using PostgreSQL.
type ReviewRepository struct {
	db repository.DB
}

// NewReviewRepository creates a new PostgreSQL-backed review repository.
func NewReviewRepository(db repository.DB) *ReviewRepository {
	return &ReviewRepository{db: db}
}

// GetByID retrieves a review by its ID.
func (r *ReviewRepository) GetByID(ctx context.Context, id int64) (*domain.Review, error) {
	query := fmt.Sprintf(`SELECT %s FROM reviews WHERE id = $1`, reviewColumns)
	return r.scanReview(r.db.QueryRow(ctx, query, id))
}

// List returns one page of reviews matching the filter. Ordering is fully
// deterministic: every sort key carries an id tie-break so repeated calls
// against unchanged data paginate consistently.
func (r *ReviewRepository) List(ctx context.Context, filter repository.ReviewFilter, offset, limit int) ([]domain.Review, error) {
	var (
		conditions []string
		args       []any
		argIndex   = 1
	)

	switch filter.Publication {
	case repository.PublicationPublished:
		conditions = append(conditions, "is_published = TRUE")
	case repository.PublicationPending:
		conditions = append(conditions, "is_published = FALSE")
	}

	if filter.Channel != "" && filter.Channel != "all" {
		conditions = append(conditions, fmt.Sprintf("channel = $%d", argIndex))
		args = append(args, filter.Channel)
		argIndex++
	}

	if filter.ListingName != "" && filter.ListingName != "all" {
		conditions = append(conditions, fmt.Sprintf("listing_name = $%d", argIndex))
		args = append(args, filter.ListingName)
		argIndex++
	}

	if low, high, ok := domain.RatingBucketBounds(filter.RatingBucket); ok {
		conditions = append(conditions, fmt.Sprintf("rating > $%d AND rating <= $%d", argIndex, argIndex+1))
		args = append(args, low, high)
		argIndex += 2
	}

	whereClause := ""
	if len(conditions) > 0 {
		whereClause = "WHERE " + strings.Join(conditions, " AND ")
	}

	query := fmt.Sprintf(`
		SELECT %s
		FROM reviews
		%s
		ORDER BY %s
		LIMIT $%d OFFSET $%d`,
		reviewColumns, whereClause, orderClause(filter.Sort), argIndex, argIndex+1,
	)

	args = append(args, limit, offset)

	rows, err := r.db.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list reviews: %w", err)
	}
	defer rows.Close()

	return r.collectReviews(rows)
}

// ListByListing returns all reviews for a listing, newest first, optionally
// restricted to published ones.
func (r *ReviewRepository) ListByListing(ctx context.Context, listingID int64, publishedOnly bool) ([]domain.Review, error) {
	query := fmt.Sprintf(`SELECT %s FROM reviews WHERE listing_id = $1`, reviewColumns)
	if publishedOnly {
		query += " AND is_published = TRUE"
	}
	query += " ORDER BY submitted_at DESC, id ASC"

	rows, err := r.db.Query(ctx, query, listingID)
	if err != nil {
		return nil, fmt.Errorf("list reviews by listing: %w", err)
	}
	defer rows.Close()

	return r.collectReviews(rows)
}

// Approve sets the publication flag unconditionally and returns the updated
// review. Approving an already-published review is a no-op update.
func (r *ReviewRepository) Approve(ctx context.Context, id int64) (*domain.Review, error) {
	query := fmt.Sprintf(`
		UPDATE reviews
		SET is_published = TRUE, updated_at = NOW()
		WHERE id = $1
		RETURNING %s`, reviewColumns)

	review, err := r.scanReview(r.db.QueryRow(ctx, query, id))
	if err != nil {
		if errors.Is(err, apperrors.ErrNotFound) {
			return nil, apperrors.NotFound("review", fmt.Sprintf("%d", id))
		}
		return nil, fmt.Errorf("approve review: %w", err)
	}
	return review, nil
}

// Channels returns the distinct channel tags across all stored reviews,
// regardless of publication state.
func (r *ReviewRepository) Channels(ctx context.Context) ([]string, error) {
	rows, err := r.db.Query(ctx, `SELECT DISTINCT channel FROM reviews ORDER BY channel`)
	if err != nil {
		return nil, fmt.Errorf("list channels: %w", err)
	}
	defer rows.Close()

	channels := []string{}
	for rows.Next() {
		var c string
		if err := rows.Scan(&c); err != nil {
			return nil, fmt.Errorf("scan channel: %w", err)
		}
		channels = append(channels, c)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate channels: %w", err)
	}

	return channels, nil
}

// Stats computes the per-listing aggregate over published reviews in one
// query. AVG skips null ratings; COALESCE turns empty windows into 0.
func (r *ReviewRepository) Stats(ctx context.Context, listingID int64, now time.Time) (*domain.ReviewStatistics, error) {
	windowStart := now.Add(-90 * 24 * time.Hour)
	previousStart := now.Add(-180 * 24 * time.Hour)

	query := `
		SELECT
			COALESCE(AVG(rating) FILTER (WHERE submitted_at >= $2), 0),
			COALESCE(AVG(rating) FILTER (WHERE submitted_at >= $3 AND submitted_at < $2), 0),
			COALESCE(AVG(rating), 0),
			COUNT(*),
			COUNT(*) FILTER (WHERE rating = 2),
			COUNT(*) FILTER (WHERE rating = 4),
			COUNT(*) FILTER (WHERE rating = 6),
			COUNT(*) FILTER (WHERE rating = 8),
			COUNT(*) FILTER (WHERE rating = 10)
		FROM reviews
		WHERE listing_id = $1 AND is_published = TRUE`

	stats := &domain.ReviewStatistics{Histogram: make(map[int]int, len(domain.HistogramKeys))}
	var h2, h4, h6, h8, h10 int

	err := r.db.QueryRow(ctx, query, listingID, windowStart, previousStart).Scan(
		&stats.AverageRating,
		&stats.PreviousAverageRating,
		&stats.AllTimeAverageRating,
		&stats.ReviewsCount,
		&h2, &h4, &h6, &h8, &h10,
	)
	if err != nil {
		return nil, fmt.Errorf("review stats: %w", err)
	}

	stats.Histogram[2] = h2
	stats.Histogram[4] = h4
	stats.Histogram[6] = h6
	stats.Histogram[8] = h8
	stats.Histogram[10] = h10

	return stats, nil
}

// AverageRating returns the all-time average rating over a listing's
// published reviews, or nil when it has none.
func (r *ReviewRepository) AverageRating(ctx context.Context, listingID int64) (*float64, error) {
	var avg *float64
	err := r.db.QueryRow(ctx,
		`SELECT AVG(rating) FROM reviews WHERE listing_id = $1 AND is_published = TRUE`,
		listingID,
	).Scan(&avg)
	if err != nil {
		return nil, fmt.Errorf("average rating: %w", err)
	}
	return avg, nil
}

// CountByListing counts a listing's reviews, optionally published-only.
func (r *ReviewRepository) CountByListing(ctx context.Context, listingID int64, publishedOnly bool) (int, error) {
	query := `SELECT COUNT(*) FROM reviews WHERE listing_id = $1`
	if publishedOnly {
		query += " AND is_published = TRUE"
	}

	var count int
	if err := r.db.QueryRow(ctx, query, listingID).Scan(&count); err != nil {
		return 0, fmt.Errorf("count reviews: %w", err)
	}
	return count, nil
}

// RepairRating persists a backfilled rating. The value is a deterministic
// mean of immutable category ratings, so concurrent repairs of the same row
// are last-writer-wins safe.
func (r *ReviewRepository) RepairRating(ctx context.Context, id int64, rating float64) error {
	ct, err := r.db.Exec(ctx,
		`UPDATE reviews SET rating = $1, updated_at = NOW() WHERE id = $2`,
		rating, id,
	)
	if err != nil {
		return fmt.Errorf("repair rating: %w", err)
	}
	if ct.RowsAffected() == 0 {
		return apperrors.NotFound("review", fmt.Sprintf("%d", id))
	}
	return nil
}

// InsertIngested inserts a review ingested by the sync job and sets the
// generated ID on it. The unique index on google_review_uid enforces dedup;
// a conflicting insert is skipped and reported as not inserted.
func (r *ReviewRepository) InsertIngested(ctx context.Context, review *domain.Review) (bool, error) {
	categoryJSON, err := json.Marshal(review.ReviewCategory)
	if err != nil {
		return false, fmt.Errorf("marshal review_category: %w", err)
	}

	query := `
		INSERT INTO reviews (
			hostaway_id, google_review_uid, type, rating, public_review,
			review_category, submitted_at, guest_name, listing_name,
			listing_id, channel, is_published, created_at, updated_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, NOW(), NOW())
		ON CONFLICT (google_review_uid) DO NOTHING
		RETURNING id`

	err = r.db.QueryRow(ctx, query,
		review.HostawayID,
		review.GoogleUID,
		review.Type,
		review.Rating,
		review.PublicReview,
		categoryJSON,
		review.SubmittedAt,
		review.GuestName,
		review.ListingName,
		review.ListingID,
		review.Channel,
		review.IsPublished,
	).Scan(&review.ID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return false, nil
		}
		return false, fmt.Errorf("insert ingested review: %w", err)
	}

	return true, nil
}

// orderClause maps a sort option to a deterministic ORDER BY clause. Rating
// sorts push null ratings last so unrepaired rows do not lead the page.
func orderClause(sort domain.SortOption) string {
	switch sort {
	case domain.SortDateAsc:
		return "submitted_at ASC, id ASC"
	case domain.SortRatingDesc:
		return "rating DESC NULLS LAST, id ASC"
	case domain.SortRatingAsc:
		return "rating ASC NULLS LAST, id ASC"
	default:
		return "submitted_at DESC, id ASC"
	}
}

func (r *ReviewRepository) collectReviews(rows pgx.Rows) ([]domain.Review, error) {
	reviews := []domain.Review{}
	for rows.Next() {
		review, err := scanReviewFrom(rows)
		if err != nil {
			return nil, err
		}
		reviews = append(reviews, *review)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate review rows: %w", err)
	}
	return reviews, nil
}

func (r *ReviewRepository) scanReview(row pgx.Row) (*domain.Review, error) {
	review, err := scanReviewFrom(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.ErrNotFound
		}
		return nil, err
	}
	return review, nil
}

func scanReviewFrom(row pgx.Row) (*domain.Review, error) {
	var (
		review       domain.Review
		categoryJSON []byte
	)

	if err := row.Scan(
		&review.ID,
		&review.HostawayID,
		&review.GoogleUID,
		&review.Type,
		&review.Rating,
		&review.PublicReview,
		&categoryJSON,
		&review.SubmittedAt,
		&review.GuestName,
		&review.ListingName,
		&review.ListingID,
		&review.Channel,
		&review.IsPublished,
		&review.CreatedAt,
		&review.UpdatedAt,
	); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, pgx.ErrNoRows
		}
		return nil, fmt.Errorf("scan review row: %w", err)
	}

	if categoryJSON != nil {
		if err := json.Unmarshal(categoryJSON, &review.ReviewCategory); err != nil {
			return nil, fmt.Errorf("unmarshal review_category: %w", err)
		}
	}
	if review.ReviewCategory == nil {
		review.ReviewCategory = []domain.ReviewCategory{}
	}

	return &review, nil
}
