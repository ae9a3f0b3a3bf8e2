package queue

import (
	"context"
	"fmt"

	amqp "github.com/rabbitmq/amqp091-go"
	"github.com/rs/zerolog/log"
)

// Topology names the broker objects jobs flow through.
type Topology struct {
	Exchange   string
	Queue      string
	RoutingKey string
}

// declareTopology sets up the durable exchange, queue, and binding. Both
// ends declare so either can start first.
func declareTopology(ch *amqp.Channel, t Topology) error {
	if err := ch.ExchangeDeclare(t.Exchange, "direct", true, false, false, false, nil); err != nil {
		return fmt.Errorf("declare exchange %s: %w", t.Exchange, err)
	}
	if _, err := ch.QueueDeclare(t.Queue, true, false, false, false, nil); err != nil {
		return fmt.Errorf("declare queue %s: %w", t.Queue, err)
	}
	if err := ch.QueueBind(t.Queue, t.RoutingKey, t.Exchange, false, nil); err != nil {
		return fmt.Errorf("bind queue %s: %w", t.Queue, err)
	}
	return nil
}

// AMQPPublisher publishes jobs to a RabbitMQ exchange.
type AMQPPublisher struct {
	conn     *amqp.Connection
	ch       *amqp.Channel
	topology Topology
}

func NewAMQPPublisher(url string, t Topology) (*AMQPPublisher, error) {
	conn, err := amqp.Dial(url)
	if err != nil {
		return nil, fmt.Errorf("dial broker: %w", err)
	}
	ch, err := conn.Channel()
	if err != nil {
		conn.Close()
		return nil, fmt.Errorf("open channel: %w", err)
	}
	if err := declareTopology(ch, t); err != nil {
		ch.Close()
		conn.Close()
		return nil, err
	}
	return &AMQPPublisher{conn: conn, ch: ch, topology: t}, nil
}

func (p *AMQPPublisher) Publish(ctx context.Context, msg JobMessage) error {
	body, err := encode(msg)
	if err != nil {
		return err
	}
	return p.ch.PublishWithContext(ctx, p.topology.Exchange, p.topology.RoutingKey, false, false, amqp.Publishing{
		ContentType:  "application/json",
		DeliveryMode: amqp.Persistent,
		Body:         body,
	})
}

func (p *AMQPPublisher) Close() error {
	p.ch.Close()
	return p.conn.Close()
}

// AMQPConsumer delivers jobs from a RabbitMQ queue one at a time.
type AMQPConsumer struct {
	conn     *amqp.Connection
	ch       *amqp.Channel
	topology Topology
}

func NewAMQPConsumer(url string, t Topology) (*AMQPConsumer, error) {
	conn, err := amqp.Dial(url)
	if err != nil {
		return nil, fmt.Errorf("dial broker: %w", err)
	}
	ch, err := conn.Channel()
	if err != nil {
		conn.Close()
		return nil, fmt.Errorf("open channel: %w", err)
	}
	if err := declareTopology(ch, t); err != nil {
		ch.Close()
		conn.Close()
		return nil, err
	}
	if err := ch.Qos(1, 0, false); err != nil {
		ch.Close()
		conn.Close()
		return nil, fmt.Errorf("set qos: %w", err)
	}
	return &AMQPConsumer{conn: conn, ch: ch, topology: t}, nil
}

// Consume acks every delivery regardless of handler outcome. The failure
// state lives in the meeting row, so redelivering a job the handler already
// marked FAILED would only race the user's reprocess request.
func (c *AMQPConsumer) Consume(ctx context.Context, handle func(ctx context.Context, msg JobMessage) error) error {
	deliveries, err := c.ch.Consume(c.topology.Queue, "", false, false, false, false, nil)
	if err != nil {
		return fmt.Errorf("consume %s: %w", c.topology.Queue, err)
	}
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case d, ok := <-deliveries:
			if !ok {
				return fmt.Errorf("delivery channel closed for %s", c.topology.Queue)
			}
			msg, err := decode(d.Body)
			if err != nil {
				log.Error().Err(err).Msg("dropping undecodable job message")
				d.Ack(false)
				continue
			}
			if err := handle(ctx, msg); err != nil {
				log.Error().Err(err).Int32("meeting_id", msg.MeetingID).Msg("job handler failed")
			}
			d.Ack(false)
		}
	}
}

func (c *AMQPConsumer) Close() error {
	c.ch.Close()
	return c.conn.Close()
}
