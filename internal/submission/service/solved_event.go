package service

import (
	"context"
	"encoding/json"
	"strconv"
	"time"

	"probsvc/internal/common/cache"
	"probsvc/internal/common/mq"
	"probsvc/internal/userclient"
	appErr "probsvc/pkg/errors"
	"probsvc/pkg/utils/logger"

	"go.uber.org/zap"
)

const (
	// DefaultSolvedTopic is the queue topic for solved-problem events.
	DefaultSolvedTopic = "problem.solved"

	solvedSetKeyPrefix = "user:solved:"
)

// ProblemSolvedEvent is published when a submission is accepted for a
// problem the user had not solved before. ProblemSolved carries the full
// list snapshot so the consumer can replace the user's list without a
// read-modify-write round trip.
type ProblemSolvedEvent struct {
	UserID        string    `json:"userId"`
	ProblemID     int64     `json:"problemId"`
	SubmissionID  int64     `json:"submissionId"`
	ProblemSolved []int64   `json:"problemSolved"`
	SolvedAt      time.Time `json:"solvedAt"`
}

// SolvedPublisher records first-time solves in Redis and emits queue events
// for downstream delivery. All of its failures are reported as errors to
// the caller but are intended to be logged and swallowed: a solved-list
// update must never fail an accepted submission.
type SolvedPublisher struct {
	cache cache.Cache
	queue mq.Producer
	topic string
}

// NewSolvedPublisher creates a publisher. Topic falls back to
// DefaultSolvedTopic when empty.
func NewSolvedPublisher(cacheClient cache.Cache, queue mq.Producer, topic string) *SolvedPublisher {
	if topic == "" {
		topic = DefaultSolvedTopic
	}
	return &SolvedPublisher{cache: cacheClient, queue: queue, topic: topic}
}

// PublishIfFirstSolve marks the problem solved for the user and publishes
// an event unless it was already in the user's solved set. Returns whether
// an event was published.
func (p *SolvedPublisher) PublishIfFirstSolve(ctx context.Context, userID string, problemID, submissionID int64) (bool, error) {
	key := solvedSetKey(userID)
	member := strconv.FormatInt(problemID, 10)

	already, err := p.cache.SIsMember(ctx, key, member)
	if err != nil {
		return false, appErr.Wrap(err, appErr.CacheError)
	}
	if already {
		return false, nil
	}

	if err := p.cache.SAdd(ctx, key, member); err != nil {
		return false, appErr.Wrap(err, appErr.CacheError)
	}

	solved, err := p.solvedList(ctx, key)
	if err != nil {
		return false, err
	}

	payload, err := json.Marshal(ProblemSolvedEvent{
		UserID:        userID,
		ProblemID:     problemID,
		SubmissionID:  submissionID,
		ProblemSolved: solved,
		SolvedAt:      time.Now().UTC(),
	})
	if err != nil {
		return false, appErr.Wrap(err, appErr.InternalServerError)
	}

	msg := mq.NewMessage(payload)
	msg.SetHeader("event", "problem.solved")
	if err := p.queue.Publish(ctx, p.topic, msg); err != nil {
		return false, appErr.Wrapf(err, appErr.SolvedEventPublishFailed, "publish solved event: %v", err)
	}
	return true, nil
}

func (p *SolvedPublisher) solvedList(ctx context.Context, key string) ([]int64, error) {
	members, err := p.cache.SMembers(ctx, key)
	if err != nil {
		return nil, appErr.Wrap(err, appErr.CacheError)
	}
	solved := make([]int64, 0, len(members))
	for _, m := range members {
		id, err := strconv.ParseInt(m, 10, 64)
		if err != nil {
			continue
		}
		solved = append(solved, id)
	}
	return solved, nil
}

func solvedSetKey(userID string) string {
	return solvedSetKeyPrefix + userID
}

// SolvedConsumer delivers solved events to the user service. Retries and
// dead-lettering are handled by the queue subscription.
type SolvedConsumer struct {
	users *userclient.Client
}

// NewSolvedConsumer creates a consumer.
func NewSolvedConsumer(users *userclient.Client) *SolvedConsumer {
	return &SolvedConsumer{users: users}
}

// RegisterConsumer subscribes the solved-event handler on the queue.
func (c *SolvedConsumer) RegisterConsumer(ctx context.Context, queue mq.Consumer, topic string) error {
	if topic == "" {
		topic = DefaultSolvedTopic
	}
	return queue.SubscribeWithOptions(ctx, topic, c.HandleSolvedMessage, &mq.SubscribeOptions{
		ConsumerGroup:   "probsvc-solved",
		MaxRetries:      5,
		RetryDelay:      2 * time.Second,
		DeadLetterTopic: topic + ".dlq",
	})
}

// HandleSolvedMessage processes one solved event from the queue.
func (c *SolvedConsumer) HandleSolvedMessage(ctx context.Context, msg *mq.Message) error {
	if msg == nil {
		return appErr.New(appErr.InvalidParams).WithMessage("message is nil")
	}
	var event ProblemSolvedEvent
	if err := json.Unmarshal(msg.Body, &event); err != nil {
		return appErr.Wrapf(err, appErr.InvalidParams, "decode solved event failed")
	}
	if event.UserID == "" {
		return appErr.New(appErr.InvalidParams).WithMessage("solved event has no user id")
	}

	if err := c.users.UpdateSolvedProblems(ctx, event.UserID, event.ProblemSolved); err != nil {
		logger.Warn(ctx, "solved list delivery failed",
			zap.String("user_id", event.UserID),
			zap.Int64("problem_id", event.ProblemID),
			zap.Error(err),
		)
		return err
	}

	logger.Info(ctx, "solved list delivered",
		zap.String("user_id", event.UserID),
		zap.Int64("problem_id", event.ProblemID),
		zap.Int("solved_count", len(event.ProblemSolved)),
	)
	return nil
}
