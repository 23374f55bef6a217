// Package event publishes review lifecycle events. Publishing is best
// effort: the dashboard keeps working when the broker is unreachable, so
// every method tolerates a nil producer and callers log rather than fail.
package event

import (
	"context"
	"fmt"
	"log/slog"
	"strconv"
	"time"

	"github.com/astrozeneka/review-dashboard-flex-living/internal/domain"
	"github.com/astrozeneka/review-dashboard-flex-living/pkg/kafka"
	"github.com/astrozeneka/review-dashboard-flex-living/pkg/logger"
)

const (
	source = "review-dashboard"

	TopicReviews = "reviews.events"

	TypeReviewApproved = "review.approved"
	TypeReviewIngested = "review.ingested"
)

// ReviewApprovedData is the payload of a review.approved event.
type ReviewApprovedData struct {
	ReviewID    int64     `json:"reviewId"`
	ListingID   int64     `json:"listingId"`
	ListingName string    `json:"listingName"`
	Channel     string    `json:"channel"`
	ApprovedAt  time.Time `json:"approvedAt"`
}

// ReviewIngestedData is the payload of a review.ingested event.
type ReviewIngestedData struct {
	ReviewID    int64     `json:"reviewId"`
	ListingID   int64     `json:"listingId"`
	ListingName string    `json:"listingName"`
	Channel     string    `json:"channel"`
	SubmittedAt time.Time `json:"submittedAt"`
}

// Publisher emits review events to Kafka. A nil Publisher or one built with
// a nil producer silently drops events.
type Publisher struct {
	producer *kafka.Producer
	logger   *slog.Logger
}

// NewPublisher creates a Publisher. producer may be nil when eventing is
// disabled.
func NewPublisher(producer *kafka.Producer, log *slog.Logger) *Publisher {
	return &Publisher{producer: producer, logger: log}
}

// ReviewApproved publishes a review.approved event.
func (p *Publisher) ReviewApproved(ctx context.Context, review *domain.Review) error {
	return p.publish(ctx, TypeReviewApproved, review.ID, ReviewApprovedData{
		ReviewID:    review.ID,
		ListingID:   review.ListingID,
		ListingName: review.ListingName,
		Channel:     review.Channel,
		ApprovedAt:  time.Now().UTC(),
	})
}

// ReviewIngested publishes a review.ingested event for a newly synced review.
func (p *Publisher) ReviewIngested(ctx context.Context, review *domain.Review) error {
	return p.publish(ctx, TypeReviewIngested, review.ID, ReviewIngestedData{
		ReviewID:    review.ID,
		ListingID:   review.ListingID,
		ListingName: review.ListingName,
		Channel:     review.Channel,
		SubmittedAt: review.SubmittedAt,
	})
}

func (p *Publisher) publish(ctx context.Context, eventType string, reviewID int64, data any) error {
	if p == nil || p.producer == nil {
		return nil
	}

	evt, err := kafka.NewEvent(eventType, strconv.FormatInt(reviewID, 10), "review", source, data)
	if err != nil {
		return fmt.Errorf("build %s event: %w", eventType, err)
	}
	if cid := logger.CorrelationIDFromContext(ctx); cid != "" {
		evt.WithCorrelationID(cid)
	}

	if err := p.producer.Publish(ctx, TopicReviews, evt); err != nil {
		return fmt.Errorf("publish %s: %w", eventType, err)
	}
	return nil
}
