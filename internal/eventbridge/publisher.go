// Package eventbridge publishes due events onto NATS JetStream via a
// Watermill publisher, wrapped in a circuit breaker so a NATS outage
// degrades to dropped-and-logged publishes instead of blocking the
// Schedule callback that feeds it — a blocked callback would stall the
// whole cooperative scheduling loop.
package eventbridge

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/ThreeDotsLabs/watermill"
	wmnats "github.com/ThreeDotsLabs/watermill-nats/v2/pkg/nats"
	"github.com/ThreeDotsLabs/watermill/message"
	"github.com/goccy/go-json"
	natsgo "github.com/nats-io/nats.go"
	"github.com/rs/zerolog"
	gobreaker "github.com/sony/gobreaker/v2"

	"github.com/neevany/timingsrc/interval"
	"github.com/neevany/timingsrc/schedule"
)

// MetricsSink receives observability events from a Publisher. Defined
// locally so this package stays free of the metrics dependency;
// cmd/timingcore-demo wires the Prometheus-backed sink.
type MetricsSink interface {
	ObservePublish(outcome string, duration time.Duration)
}

type noopMetrics struct{}

func (noopMetrics) ObservePublish(string, time.Duration) {}

// DueEventMessage is the wire shape of a schedule.DueEvent.
type DueEventMessage struct {
	Key       string      `json:"key"`
	Endpoint  float64     `json:"endpoint"`
	Side      string      `json:"side"`
	Direction string      `json:"direction"`
	Timestamp float64     `json:"timestamp"`
	Data      interface{} `json:"data,omitempty"`
}

func sideName(s interval.Side) string {
	if s == interval.Low {
		return "low"
	}
	return "high"
}

func messagesFromDue(due []schedule.DueEvent) []DueEventMessage {
	out := make([]DueEventMessage, len(due))
	for i, ev := range due {
		out[i] = DueEventMessage{
			Key:       ev.Cue.Key,
			Endpoint:  ev.Endpoint,
			Side:      sideName(ev.Side),
			Direction: string(ev.Direction),
			Timestamp: ev.Timestamp,
			Data:      ev.Cue.Data,
		}
	}
	return out
}

// Publisher wraps a Watermill NATS publisher with a circuit breaker.
type Publisher struct {
	pub     message.Publisher
	subject string
	breaker *gobreaker.CircuitBreaker[interface{}]

	mu     sync.RWMutex
	closed bool

	log     zerolog.Logger
	metrics MetricsSink
}

// Option configures a Publisher at construction time.
type Option func(*Publisher)

// WithLogger attaches a logger.
func WithLogger(l zerolog.Logger) Option { return func(p *Publisher) { p.log = l } }

// WithMetrics attaches a MetricsSink. Defaults to a no-op sink.
func WithMetrics(m MetricsSink) Option { return func(p *Publisher) { p.metrics = m } }

// New connects a Watermill/NATS JetStream publisher per cfg, guarded
// by a circuit breaker that opens after cfg.BreakerFailureThreshold
// consecutive failures.
func New(cfg Config, opts ...Option) (*Publisher, error) {
	logger := watermill.NewStdLogger(false, false)

	natsOpts := []natsgo.Option{
		natsgo.RetryOnFailedConnect(true),
		natsgo.MaxReconnects(cfg.MaxReconnects),
		natsgo.ReconnectWait(cfg.ReconnectWait),
		natsgo.ReconnectBufSize(cfg.ReconnectBuffer),
	}

	wmConfig := wmnats.PublisherConfig{
		URL:         cfg.URL,
		NatsOptions: natsOpts,
		Marshaler:   &wmnats.NATSMarshaler{},
		JetStream: wmnats.JetStreamConfig{
			Disabled:      false,
			AutoProvision: true,
			TrackMsgId:    true,
		},
	}

	pub, err := wmnats.NewPublisher(wmConfig, logger)
	if err != nil {
		return nil, fmt.Errorf("eventbridge: connect publisher: %w", err)
	}

	breakerSettings := gobreaker.Settings{
		Name:        "eventbridge-publish",
		MaxRequests: 1,
		Timeout:     cfg.BreakerTimeout,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= cfg.BreakerFailureThreshold
		},
	}

	p := &Publisher{
		pub:     pub,
		subject: cfg.Subject,
		breaker: gobreaker.NewCircuitBreaker[interface{}](breakerSettings),
		log:     zerolog.Nop(),
		metrics: noopMetrics{},
	}
	for _, opt := range opts {
		opt(p)
	}
	return p, nil
}

// Callback returns a schedule.ChangeHandler that publishes every due
// batch. Publish errors (including a tripped breaker) are logged and
// counted, never propagated back into the scheduling loop.
func (p *Publisher) Callback() schedule.ChangeHandler {
	return func(due []schedule.DueEvent, _ *schedule.Schedule) {
		if len(due) == 0 {
			return
		}
		if err := p.Publish(context.Background(), due); err != nil {
			p.log.Warn().Err(err).Int("count", len(due)).Msg("eventbridge publish failed")
		}
	}
}

// Publish serializes due and publishes it to the configured subject,
// through the circuit breaker. An empty batch publishes nothing.
func (p *Publisher) Publish(ctx context.Context, due []schedule.DueEvent) error {
	p.mu.RLock()
	closed := p.closed
	p.mu.RUnlock()
	if closed {
		return ErrClosed
	}
	if len(due) == 0 {
		return nil
	}

	payload, err := json.Marshal(messagesFromDue(due))
	if err != nil {
		return fmt.Errorf("eventbridge: marshal due events: %w", err)
	}
	msg := message.NewMessage(newMessageID(due), payload)

	start := time.Now()
	_, err = p.breaker.Execute(func() (interface{}, error) {
		return nil, p.pub.Publish(p.subject, msg)
	})
	elapsed := time.Since(start)

	switch {
	case err == nil:
		p.metrics.ObservePublish("success", elapsed)
		return nil
	case err == gobreaker.ErrOpenState, err == gobreaker.ErrTooManyRequests:
		p.metrics.ObservePublish("breaker_open", elapsed)
		return fmt.Errorf("eventbridge: circuit open: %w", err)
	default:
		p.metrics.ObservePublish("error", elapsed)
		return fmt.Errorf("eventbridge: publish: %w", err)
	}
}

// newMessageID derives a stable ID from the batch's leading cue so
// NATS JetStream's message-ID dedup can collapse a resend.
func newMessageID(due []schedule.DueEvent) string {
	if len(due) == 0 {
		return ""
	}
	lead := due[0]
	return fmt.Sprintf("%s-%.9f-%s", lead.Cue.Key, lead.Timestamp, lead.Direction)
}

// Close shuts down the underlying publisher.
func (p *Publisher) Close() error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.closed {
		return nil
	}
	p.closed = true
	return p.pub.Close()
}
