// Package kafka publishes conversation audit events to a Kafka topic.
package kafka

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"github.com/aretw0/storefront/internal/logging"
	"github.com/aretw0/storefront/pkg/domain"
	"github.com/google/uuid"
	"github.com/segmentio/kafka-go"
)

const (
	EventTransition = "conversation.transition"
	EventFailure    = "conversation.failure"

	DefaultBuffer = 256
)

// Envelope is the JSON value of every audit message.
type Envelope struct {
	ID         string          `json:"id"`
	Type       string          `json:"type"`
	Version    int             `json:"version"`
	OccurredAt time.Time       `json:"occurred_at"`
	UserID     string          `json:"user_id"`
	EventID    string          `json:"event_id,omitempty"`
	Payload    json.RawMessage `json:"payload"`
}

// TransitionPayload describes a persisted transition.
type TransitionPayload struct {
	Intent     string `json:"intent"`
	From       string `json:"from"`
	To         string `json:"to"`
	DurationMS int64  `json:"duration_ms"`
}

// FailurePayload describes an event answered with a retry prompt.
type FailurePayload struct {
	Intent string `json:"intent,omitempty"`
	State  string `json:"state,omitempty"`
	Error  string `json:"error"`
}

// messageWriter is the subset of *kafka.Writer used by the publisher.
type messageWriter interface {
	WriteMessages(ctx context.Context, msgs ...kafka.Message) error
	Close() error
}

// Publisher queues audit messages and writes them from a single goroutine, so
// engine hooks never wait on the broker. When the queue is full messages are dropped.
type Publisher struct {
	w       messageWriter
	inbox   chan kafka.Message
	done    chan struct{}
	logger  *slog.Logger
	dropped atomic.Int64

	closeOnce sync.Once
	mu        sync.RWMutex
	closed    bool
}

type Option func(*Publisher)

func WithLogger(logger *slog.Logger) Option {
	return func(p *Publisher) {
		p.logger = logger
	}
}

func WithBuffer(n int) Option {
	return func(p *Publisher) {
		if n > 0 {
			p.inbox = make(chan kafka.Message, n)
		}
	}
}

// NewWriter builds a writer keyed by user id, so one user's events stay ordered.
func NewWriter(brokers []string, topic string) *kafka.Writer {
	return &kafka.Writer{
		Addr:         kafka.TCP(brokers...),
		Topic:        topic,
		Balancer:     &kafka.Hash{},
		RequiredAcks: kafka.RequireAll,
		BatchTimeout: 50 * time.Millisecond,
	}
}

// NewPublisher starts the write loop over w.
func NewPublisher(w messageWriter, opts ...Option) (*Publisher, error) {
	if w == nil {
		return nil, errors.New("kafka: writer must not be nil")
	}
	p := &Publisher{
		w:     w,
		inbox: make(chan kafka.Message, DefaultBuffer),
		done:  make(chan struct{}),
	}
	for _, opt := range opts {
		opt(p)
	}
	if p.logger == nil {
		p.logger = logging.NewNop()
	}
	go p.loop()
	return p, nil
}

func (p *Publisher) loop() {
	defer close(p.done)
	for m := range p.inbox {
		if err := p.w.WriteMessages(context.Background(), m); err != nil {
			p.logger.Warn("audit publish failed", "user_id", string(m.Key), "err", err)
		}
	}
}

// Publish enqueues one envelope. It never blocks.
func (p *Publisher) Publish(env Envelope) {
	value, err := json.Marshal(env)
	if err != nil {
		p.logger.Error("audit marshal failed", "type", env.Type, "err", err)
		return
	}
	msg := kafka.Message{
		Key:   []byte(env.UserID),
		Value: value,
		Time:  env.OccurredAt,
		Headers: []kafka.Header{
			{Key: "x-event-type", Value: []byte(env.Type)},
			{Key: "x-event-version", Value: []byte("1")},
		},
	}

	p.mu.RLock()
	defer p.mu.RUnlock()
	if p.closed {
		return
	}
	select {
	case p.inbox <- msg:
	default:
		p.dropped.Add(1)
		p.logger.Warn("audit queue full, dropping message", "user_id", env.UserID, "type", env.Type)
	}
}

// Dropped reports how many messages were discarded because the queue was full.
func (p *Publisher) Dropped() int64 {
	return p.dropped.Load()
}

// Hooks returns lifecycle hooks that publish transitions and failures.
func (p *Publisher) Hooks() domain.LifecycleHooks {
	return domain.LifecycleHooks{
		OnTransition: func(_ context.Context, e *domain.TransitionEvent) {
			p.Publish(newEnvelope(EventTransition, e.HookBase, TransitionPayload{
				Intent:     e.Intent,
				From:       string(e.From),
				To:         string(e.To),
				DurationMS: e.Duration.Milliseconds(),
			}))
		},
		OnFailure: func(_ context.Context, e *domain.FailureEvent) {
			p.Publish(newEnvelope(EventFailure, e.HookBase, FailurePayload{
				Intent: e.Intent,
				State:  string(e.State),
				Error:  e.Error,
			}))
		},
	}
}

func newEnvelope(typ string, base domain.HookBase, payload any) Envelope {
	raw, _ := json.Marshal(payload)
	occurred := base.Timestamp
	if occurred.IsZero() {
		occurred = time.Now().UTC()
	}
	return Envelope{
		ID:         uuid.NewString(),
		Type:       typ,
		Version:    1,
		OccurredAt: occurred,
		UserID:     base.UserID,
		EventID:    base.EventID,
		Payload:    raw,
	}
}

// Close flushes queued messages and closes the writer.
func (p *Publisher) Close() error {
	var err error
	p.closeOnce.Do(func() {
		p.mu.Lock()
		p.closed = true
		close(p.inbox)
		p.mu.Unlock()
		<-p.done
		err = p.w.Close()
	})
	return err
}
