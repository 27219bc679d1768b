package redis

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"

	"github.com/oncallhq/pager-api/pkg/circuitbreaker"
	"github.com/oncallhq/pager-api/pkg/queue"
)

const defaultKey = "paging:jobs"

type Config struct {
	URL          string
	Key          string
	MaxRetries   int
	RetryBackoff time.Duration
	PoolSize     int
	MinIdleConns int
}

// DelayQueue is a redis sorted set keyed on due time (unix milliseconds).
// A job is claimed by removing its member; ZREM returning 1 proves exactly
// one worker owns it, so concurrent workers never double-execute.
type DelayQueue struct {
	client *redis.Client
	key    string
	cb     *circuitbreaker.CircuitBreaker
	logger *zerolog.Logger
}

func NewDelayQueue(config Config, logger *zerolog.Logger) (*DelayQueue, error) {
	opts, err := redis.ParseURL(config.URL)
	if err != nil {
		return nil, fmt.Errorf("failed to parse Redis URL: %w", err)
	}

	opts.MaxRetries = config.MaxRetries
	opts.MinRetryBackoff = config.RetryBackoff
	opts.PoolSize = config.PoolSize
	opts.MinIdleConns = config.MinIdleConns

	client := redis.NewClient(opts)
	if err := client.Ping(context.Background()).Err(); err != nil {
		return nil, fmt.Errorf("failed to connect to Redis: %w", err)
	}

	key := config.Key
	if key == "" {
		key = defaultKey
	}

	cb := circuitbreaker.NewCircuitBreaker(circuitbreaker.Settings{
		Name:        "paging-queue",
		MaxFailures: 5,
		Timeout:     5 * time.Second,
	})

	return &DelayQueue{
		client: client,
		key:    key,
		cb:     cb,
		logger: logger,
	}, nil
}

func (q *DelayQueue) Enqueue(ctx context.Context, job queue.Job, delay time.Duration) error {
	env := &queue.Envelope{
		ID:         uuid.New(),
		Deliveries: 0,
		EnqueuedAt: time.Now(),
		Job:        job,
	}
	return q.add(ctx, env, delay)
}

func (q *DelayQueue) Requeue(ctx context.Context, env *queue.Envelope, delay time.Duration) error {
	return q.add(ctx, env, delay)
}

func (q *DelayQueue) add(ctx context.Context, env *queue.Envelope, delay time.Duration) error {
	payload, err := json.Marshal(env)
	if err != nil {
		return fmt.Errorf("failed to marshal job envelope: %w", err)
	}
	due := float64(time.Now().Add(delay).UnixMilli())

	return q.cb.Execute(func() error {
		if err := q.client.ZAdd(ctx, q.key, redis.Z{Score: due, Member: payload}).Err(); err != nil {
			return fmt.Errorf("failed to enqueue job: %w", err)
		}
		return nil
	})
}

func (q *DelayQueue) Due(ctx context.Context, limit int) ([]*queue.Envelope, error) {
	now := fmt.Sprintf("%d", time.Now().UnixMilli())

	members, err := q.client.ZRangeByScore(ctx, q.key, &redis.ZRangeBy{
		Min:   "-inf",
		Max:   now,
		Count: int64(limit),
	}).Result()
	if err != nil {
		return nil, fmt.Errorf("failed to read due jobs: %w", err)
	}

	envelopes := make([]*queue.Envelope, 0, len(members))
	for _, member := range members {
		removed, err := q.client.ZRem(ctx, q.key, member).Result()
		if err != nil {
			return envelopes, fmt.Errorf("failed to claim job: %w", err)
		}
		if removed == 0 {
			// Another worker claimed it first.
			continue
		}

		var env queue.Envelope
		if err := json.Unmarshal([]byte(member), &env); err != nil {
			q.logger.Error().Err(err).Msg("dropping undecodable job payload")
			continue
		}
		env.Deliveries++
		envelopes = append(envelopes, &env)
	}
	return envelopes, nil
}

// Depth returns the number of scheduled jobs, due or not.
func (q *DelayQueue) Depth(ctx context.Context) (int64, error) {
	n, err := q.client.ZCard(ctx, q.key).Result()
	if err != nil {
		return 0, fmt.Errorf("failed to read queue depth: %w", err)
	}
	return n, nil
}

func (q *DelayQueue) Close() error {
	return q.client.Close()
}
