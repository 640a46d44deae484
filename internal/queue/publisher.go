package queue

import (
	"context"
	"encoding/json"
	"log/slog"
	"sync"
	"time"

	amqp "github.com/rabbitmq/amqp091-go"

	"github.com/Baguette21/ECTrivia/internal/events"
)

const (
	gameEventsQueue = "trivia_game_events"
	publishTimeout  = 5 * time.Second
	outboxSize      = 256
)

// RabbitPublisher ships event envelopes to a durable RabbitMQ queue.
// Publish never blocks the caller: envelopes go through a buffered
// outbox drained by a worker goroutine, so a room goroutine is never
// stuck on broker I/O. Delivery is best-effort from the game's point of
// view; failures are logged and the event dropped.
type RabbitPublisher struct {
	conn   *amqp.Connection
	ch     *amqp.Channel
	q      amqp.Queue
	logger *slog.Logger

	outbox       chan events.Envelope
	wg           sync.WaitGroup
	shutdownChan chan struct{}
	closeOnce    sync.Once
}

func NewRabbitPublisher(url string, logger *slog.Logger) (*RabbitPublisher, error) {
	conn, err := amqp.Dial(url)
	if err != nil {
		return nil, err
	}

	ch, err := conn.Channel()
	if err != nil {
		conn.Close()
		return nil, err
	}

	q, err := ch.QueueDeclare(
		gameEventsQueue, // name
		true,            // durable
		false,           // delete when unused
		false,           // exclusive
		false,           // no-wait
		nil,             // arguments
	)
	if err != nil {
		ch.Close()
		conn.Close()
		return nil, err
	}

	p := &RabbitPublisher{
		conn:         conn,
		ch:           ch,
		q:            q,
		logger:       logger,
		outbox:       make(chan events.Envelope, outboxSize),
		shutdownChan: make(chan struct{}),
	}
	p.wg.Add(1)
	go p.drain()
	return p, nil
}

// Publish queues one envelope for delivery. If the outbox is full the
// event is dropped with a warning rather than stalling the room.
func (p *RabbitPublisher) Publish(env events.Envelope) {
	select {
	case p.outbox <- env:
	default:
		p.logger.Warn("event outbox full, dropping event",
			"event_id", env.EventID, "event_type", env.EventType, "room_code", env.RoomCode)
	}
}

func (p *RabbitPublisher) drain() {
	defer p.wg.Done()
	for {
		select {
		case env := <-p.outbox:
			p.deliver(env)
		case <-p.shutdownChan:
			// Flush whatever is left before exiting.
			for {
				select {
				case env := <-p.outbox:
					p.deliver(env)
				default:
					return
				}
			}
		}
	}
}

func (p *RabbitPublisher) deliver(env events.Envelope) {
	body, err := json.Marshal(env)
	if err != nil {
		p.logger.Error("failed to marshal event", "event_id", env.EventID, "error", err)
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), publishTimeout)
	defer cancel()

	err = p.ch.PublishWithContext(ctx,
		"",       // exchange
		p.q.Name, // routing key
		false,    // mandatory
		false,    // immediate
		amqp.Publishing{
			DeliveryMode: amqp.Persistent,
			ContentType:  "application/json",
			MessageId:    env.EventID,
			Timestamp:    env.OccurredAt,
			Type:         string(env.EventType),
			Body:         body,
		})
	if err != nil {
		p.logger.Error("failed to publish event",
			"event_id", env.EventID, "event_type", env.EventType, "room_code", env.RoomCode, "error", err)
	}
}

// Close flushes the outbox and tears the connection down.
func (p *RabbitPublisher) Close() {
	p.closeOnce.Do(func() {
		close(p.shutdownChan)
		p.wg.Wait()
		p.ch.Close()
		p.conn.Close()
	})
}

// NopPublisher discards events. Used when no broker is configured and
// in tests.
type NopPublisher struct{}

func (NopPublisher) Publish(events.Envelope) {}
