package service

import (
	"context"
	"encoding/json"
	"time"

	"github.com/google/uuid"
	"github.com/nats-io/nats.go"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
)

// EvaluationFinalizedEvent is broadcast when a teacher finalizes a
// submission's evaluation, so dashboards and notifiers can react.
type EvaluationFinalizedEvent struct {
	Source        string    `json:"source"`
	SubmissionID  uint      `json:"submission_id"`
	AssignmentID  uint      `json:"assignment_id"`
	StudentID     uint      `json:"student_id"`
	EvaluatedBy   uint      `json:"evaluated_by"`
	TotalAwarded  float64   `json:"total_awarded"`
	TotalPossible float64   `json:"total_possible"`
	Percentage    float64   `json:"percentage"`
	FinalizedAt   time.Time `json:"finalized_at"`
}

// EventPublisher broadcasts evaluation lifecycle events.
type EventPublisher interface {
	PublishEvaluationFinalized(ctx context.Context, event EvaluationFinalizedEvent) error
}

type brokerEventPublisher struct {
	redis        *redis.Client
	redisChannel string
	nats         *nats.Conn
	natsSubject  string
	logger       zerolog.Logger
	nodeID       string
}

// NewBrokerEventPublisher fans events out over redis pub/sub and NATS.
// Either broker may be nil; publishing to none is a no-op.
func NewBrokerEventPublisher(redisClient *redis.Client, natsConn *nats.Conn, channelBase string, logger zerolog.Logger) EventPublisher {
	channel := ""
	subject := ""
	if channelBase != "" {
		channel = channelBase + ":evaluations"
		subject = channelBase + ".evaluations.finalized"
	}

	return &brokerEventPublisher{
		redis:        redisClient,
		redisChannel: channel,
		nats:         natsConn,
		natsSubject:  subject,
		logger:       logger.With().Str("component", "event_publisher").Logger(),
		nodeID:       uuid.NewString(),
	}
}

func (p *brokerEventPublisher) PublishEvaluationFinalized(ctx context.Context, event EvaluationFinalizedEvent) error {
	event.Source = p.nodeID
	if event.FinalizedAt.IsZero() {
		event.FinalizedAt = time.Now().UTC()
	}

	payload, err := json.Marshal(event)
	if err != nil {
		return err
	}

	if p.redis != nil && p.redisChannel != "" {
		if err := p.redis.Publish(ctx, p.redisChannel, payload).Err(); err != nil {
			return err
		}
	}

	if p.nats != nil && p.natsSubject != "" {
		if err := p.nats.Publish(p.natsSubject, payload); err != nil {
			return err
		}
	}

	return nil
}
