package notification

import (
	"context"
	"encoding/json"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"

	"withdrawal-service/internal/domain"
)

const (
	defaultQueueSize   = 256
	defaultMaxAttempts = 3
	defaultRetryDelay  = 2 * time.Second
	publishTimeout     = 5 * time.Second
)

// streamAppender is the slice of the Redis client the publisher needs.
type streamAppender interface {
	XAdd(ctx context.Context, a *redis.XAddArgs) *redis.StringCmd
}

// Publisher delivers withdrawal events to a Redis stream outside the request
// path. Publish hands the event to a buffered queue and returns immediately;
// a single worker goroutine drains the queue and retries transient transport
// failures with a doubling delay. Delivery is best-effort: after retries
// exhaust the event is logged and dropped, never surfaced to the caller.
type Publisher struct {
	client streamAppender
	topic  string
	region string
	logger *slog.Logger

	maxAttempts int
	retryDelay  time.Duration

	mu      sync.RWMutex
	closed  bool
	queue   chan domain.WithdrawalEvent
	stopped chan struct{}
}

func NewPublisher(client *redis.Client, topic, region string, logger *slog.Logger) *Publisher {
	p := &Publisher{
		client:      client,
		topic:       topic,
		region:      region,
		logger:      logger,
		maxAttempts: defaultMaxAttempts,
		retryDelay:  defaultRetryDelay,
		queue:       make(chan domain.WithdrawalEvent, defaultQueueSize),
		stopped:     make(chan struct{}),
	}

	go p.run()
	return p
}

// Publish enqueues event for asynchronous delivery. It never blocks: if the
// queue is full or the publisher is closed, the event is dropped with a log.
func (p *Publisher) Publish(event domain.WithdrawalEvent) {
	p.mu.RLock()
	defer p.mu.RUnlock()

	if p.closed {
		p.logger.Warn("Publisher closed, dropping withdrawal event", "account_id", event.AccountID)
		return
	}

	select {
	case p.queue <- event:
	default:
		p.logger.Error("Notification queue full, dropping withdrawal event", "account_id", event.AccountID)
	}
}

// Close stops accepting events and waits for the queue to drain.
func (p *Publisher) Close() {
	p.mu.Lock()
	if p.closed {
		p.mu.Unlock()
		return
	}
	p.closed = true
	close(p.queue)
	p.mu.Unlock()

	<-p.stopped
}

func (p *Publisher) run() {
	defer close(p.stopped)

	for event := range p.queue {
		p.deliver(event)
	}
}

func (p *Publisher) deliver(event domain.WithdrawalEvent) {
	payload, err := json.Marshal(event)
	if err != nil {
		p.logger.Error("Failed to marshal withdrawal event", "account_id", event.AccountID, "error", err)
		return
	}

	var lastErr error
	for attempt := 0; attempt < p.maxAttempts; attempt++ {
		if attempt > 0 {
			time.Sleep(p.retryDelay << (attempt - 1))
		}

		if lastErr = p.send(payload); lastErr == nil {
			p.logger.Info("Withdrawal event published",
				"account_id", event.AccountID,
				"status", event.Status,
				"topic", p.topic,
				"attempt", attempt+1)
			return
		}

		p.logger.Warn("Failed to publish withdrawal event, will retry",
			"account_id", event.AccountID,
			"attempt", attempt+1,
			"error", lastErr)
	}

	p.logger.Error("Dropping withdrawal event after exhausting retries",
		"account_id", event.AccountID,
		"attempts", p.maxAttempts,
		"error", lastErr)
}

func (p *Publisher) send(payload []byte) error {
	ctx, cancel := context.WithTimeout(context.Background(), publishTimeout)
	defer cancel()

	args := &redis.XAddArgs{
		Stream: p.topic,
		Values: map[string]any{
			"message_id": uuid.NewString(),
			"region":     p.region,
			"event":      payload,
		},
	}

	return p.client.XAdd(ctx, args).Err()
}
