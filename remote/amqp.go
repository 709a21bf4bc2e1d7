package remote

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/google/uuid"
	amqp "github.com/rabbitmq/amqp091-go"
)

// AMQP calls services listening on a RabbitMQ queue using the request/reply
// pattern: each request carries a correlation id and the name of an
// exclusive reply queue.
type AMQP struct {
	// Queue receives the requests. It is used as the routing key.
	Queue    string
	Exchange string
}

// NewInvoker validates uri. The broker connection is opened on the first call.
func (d AMQP) NewInvoker(uri string) (Invoker, error) {
	if _, err := amqp.ParseURI(uri); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrMalformedEndpoint, err)
	}
	if d.Queue == "" {
		return nil, errors.New("remote: amqp request queue is required")
	}

	return &amqpInvoker{
		uri:      uri,
		queue:    d.Queue,
		exchange: d.Exchange,
	}, nil
}

type amqpInvoker struct {
	uri      string
	queue    string
	exchange string

	mu     sync.Mutex
	conn   *amqp.Connection
	closed bool
}

func (c *amqpInvoker) connection() (*amqp.Connection, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.closed {
		return nil, ErrClosed
	}
	if c.conn != nil && !c.conn.IsClosed() {
		return c.conn, nil
	}

	conn, err := amqp.Dial(c.uri)
	if err != nil {
		return nil, fmt.Errorf("remote: connect to broker: %w", err)
	}
	c.conn = conn

	return conn, nil
}

func (c *amqpInvoker) Invoke(
	ctx context.Context,
	method string,
	params []interface{},
	reply interface{},
) error {
	conn, err := c.connection()
	if err != nil {
		return err
	}

	ch, err := conn.Channel()
	if err != nil {
		return fmt.Errorf("remote: open channel: %w", err)
	}
	defer ch.Close()

	replyQueue, err := ch.QueueDeclare("", false, true, true, false, nil)
	if err != nil {
		return fmt.Errorf("remote: declare reply queue: %w", err)
	}
	deliveries, err := ch.Consume(replyQueue.Name, "", true, true, false, false, nil)
	if err != nil {
		return fmt.Errorf("remote: consume reply queue: %w", err)
	}

	id := uuid.NewString()
	body, err := encodeRequest(id, method, params)
	if err != nil {
		return fmt.Errorf("remote: encode %s request: %w", method, err)
	}

	err = ch.PublishWithContext(ctx, c.exchange, c.queue, false, false, amqp.Publishing{
		ContentType:   "application/json",
		CorrelationId: id,
		ReplyTo:       replyQueue.Name,
		MessageId:     id,
		Type:          method,
		Body:          body,
	})
	if err != nil {
		return fmt.Errorf("remote: publish %s request: %w", method, err)
	}

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case d, ok := <-deliveries:
			if !ok {
				return fmt.Errorf("remote: reply queue closed while waiting for %s", method)
			}
			if d.CorrelationId != id {
				continue
			}
			return decodeResponse(d.Body, id, reply)
		}
	}
}

func (c *amqpInvoker) Close() error {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.closed = true
	if c.conn == nil || c.conn.IsClosed() {
		return nil
	}

	return c.conn.Close()
}
