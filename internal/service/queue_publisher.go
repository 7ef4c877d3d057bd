package service

import (
	"context"
	"encoding/json"
	"sync"
	"time"

	amqp "github.com/rabbitmq/amqp091-go"
	"github.com/rs/zerolog"

	"github.com/iliyamo/healthcare-backend/internal/queue"
)

// EventPublisher delivers one audit event to the broker.
type EventPublisher interface {
	Publish(ctx context.Context, ev queue.AuditEvent) error
}

// AMQPPublisher publishes audit events to a durable RabbitMQ queue. It dials
// per publish, which keeps it stateless across broker restarts.
type AMQPPublisher struct {
	URL   string
	Queue string
}

func NewAMQPPublisher(url, queueName string) *AMQPPublisher {
	if queueName == "" {
		queueName = queue.DefaultQueueName
	}
	return &AMQPPublisher{URL: url, Queue: queueName}
}

func (p *AMQPPublisher) Publish(ctx context.Context, ev queue.AuditEvent) error {
	conn, err := amqp.Dial(p.URL)
	if err != nil {
		return err
	}
	defer func() { _ = conn.Close() }()

	ch, err := conn.Channel()
	if err != nil {
		return err
	}
	defer func() { _ = ch.Close() }()

	if _, err := ch.QueueDeclare(p.Queue, true, false, false, false, nil); err != nil {
		return err
	}

	body, err := json.Marshal(ev)
	if err != nil {
		return err
	}
	return ch.PublishWithContext(ctx, "", p.Queue, false, false, amqp.Publishing{
		ContentType:  "application/json",
		DeliveryMode: amqp.Persistent,
		Timestamp:    time.Now().UTC(),
		Type:         ev.Type,
		Body:         body,
	})
}

// Emitter is what handlers use to report audit events. Emit never blocks on
// the broker and never fails the caller.
type Emitter interface {
	Emit(ev queue.AuditEvent)
}

// NopEmitter discards every event.
type NopEmitter struct{}

func (NopEmitter) Emit(queue.AuditEvent) {}

// AsyncEmitter hands events to a single background worker that publishes
// them. When the buffer is full new events are dropped and logged.
type AsyncEmitter struct {
	pub     EventPublisher
	log     zerolog.Logger
	timeout time.Duration

	events chan queue.AuditEvent
	wg     sync.WaitGroup
	once   sync.Once
}

func NewAsyncEmitter(pub EventPublisher, log zerolog.Logger, buffer int) *AsyncEmitter {
	if buffer <= 0 {
		buffer = 256
	}
	e := &AsyncEmitter{
		pub:     pub,
		log:     log,
		timeout: 5 * time.Second,
		events:  make(chan queue.AuditEvent, buffer),
	}
	e.wg.Add(1)
	go e.run()
	return e
}

func (e *AsyncEmitter) Emit(ev queue.AuditEvent) {
	select {
	case e.events <- ev:
	default:
		e.log.Warn().Str("event", ev.Type).Msg("audit buffer full, event dropped")
	}
}

// Close stops accepting events and waits for the buffer to drain.
func (e *AsyncEmitter) Close() {
	e.once.Do(func() { close(e.events) })
	e.wg.Wait()
}

func (e *AsyncEmitter) run() {
	defer e.wg.Done()
	for ev := range e.events {
		ctx, cancel := context.WithTimeout(context.Background(), e.timeout)
		if err := e.pub.Publish(ctx, ev); err != nil {
			e.log.Warn().Err(err).Str("event", ev.Type).Msg("audit publish failed")
		}
		cancel()
	}
}
