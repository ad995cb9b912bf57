package rabbitmq

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/streadway/amqp"
	"github.com/zennieheo/hackathon2024-BE/services/trackLog"
)

// ErrNotConnected is returned when publishing before Connect succeeded.
var ErrNotConnected = errors.New("rabbitmq: not connected")

// Message is one publish request.
type Message struct {
	Queue         string
	ReplyTo       string
	ContentType   string
	CorrelationID string
	Priority      uint8
	Body          []byte
}

// Connection is a named amqp connection bound to a fixed set of queues.
type Connection struct {
	mu      sync.Mutex
	name    string
	domain  string
	Conn    *amqp.Connection
	Channel *amqp.Channel
	Queues  []string
	// Err fires when the current connection closes. The consumer loop owns reconnecting.
	Err chan error

	retryDelay time.Duration
}

var (
	poolMu         sync.Mutex
	connectionPool = make(map[string]*Connection)
)

// NewConnection returns the pooled connection for name, creating it on first use.
func NewConnection(name, domain string, queues []string) *Connection {
	poolMu.Lock()
	defer poolMu.Unlock()
	if c, ok := connectionPool[name]; ok {
		return c
	}
	c := &Connection{
		name:       name,
		domain:     domain,
		Queues:     queues,
		Err:        make(chan error, 1),
		retryDelay: 60 * time.Second,
	}
	connectionPool[name] = c
	return c
}

// GetConnection returns the connection which was instantiated
func GetConnection(name string) *Connection {
	poolMu.Lock()
	defer poolMu.Unlock()
	return connectionPool[name]
}

func (c *Connection) Name() string {
	return c.name
}

// Connect dials a fresh connection and closes the one it replaces.
func (c *Connection) Connect() error {
	c.mu.Lock()
	defer c.mu.Unlock()

	conn, err := amqp.Dial(c.domain)
	if err != nil {
		return fmt.Errorf("create rabbitmq connection %s: %w", c.name, err)
	}
	if c.Conn != nil && !c.Conn.IsClosed() {
		c.Conn.Close()
	}
	c.Conn, c.Channel = conn, nil

	closed := conn.NotifyClose(make(chan *amqp.Error, 1))
	go func() {
		<-closed
		c.mu.Lock()
		current := c.Conn == conn
		c.mu.Unlock()
		if current {
			notify(c.Err, errors.New("connection closed"))
		}
	}()

	c.Channel, err = conn.Channel()
	if err != nil {
		return fmt.Errorf("open channel: %w", err)
	}
	return nil
}

// Inspect reports the state of every bound queue without reconnecting.
func (c *Connection) Inspect() ([]amqp.Queue, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.Conn == nil || c.Conn.IsClosed() || c.Channel == nil {
		return nil, ErrNotConnected
	}
	queues := make([]amqp.Queue, 0, len(c.Queues))
	for _, q := range c.Queues {
		queue, err := c.Channel.QueueInspect(q)
		if err != nil {
			return nil, fmt.Errorf("inspect queue %s: %w", q, err)
		}
		queues = append(queues, queue)
	}
	return queues, nil
}

func notify(ch chan error, err error) {
	select {
	case ch <- err:
	default:
	}
}

func (c *Connection) BindQueue() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.Channel == nil {
		return ErrNotConnected
	}
	for _, q := range c.Queues {
		if _, err := c.Channel.QueueDeclare(q, true, false, false, false, nil); err != nil {
			return fmt.Errorf("declare queue %s: %w", q, err)
		}
	}
	return nil
}

//Reconnect reconnects the connection
func (c *Connection) Reconnect() error {
	if err := c.Connect(); err != nil {
		return err
	}
	return c.BindQueue()
}

func (c *Connection) Consume() (map[string]<-chan amqp.Delivery, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.Channel == nil {
		return nil, ErrNotConnected
	}
	m := make(map[string]<-chan amqp.Delivery)
	for _, q := range c.Queues {
		deliveries, err := c.Channel.Consume(q, "", true, false, false, false, nil)
		if err != nil {
			return nil, fmt.Errorf("consume %s: %w", q, err)
		}
		m[q] = deliveries
	}
	return m, nil
}

// Publish sends one persistent message.
func (c *Connection) Publish(ctx context.Context, m Message) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.Channel == nil {
		return ErrNotConnected
	}
	contentType := m.ContentType
	if contentType == "" {
		contentType = "application/json"
	}
	err := c.Channel.Publish("", m.Queue, false, false, amqp.Publishing{
		ContentType:   contentType,
		DeliveryMode:  amqp.Persistent,
		ReplyTo:       m.ReplyTo,
		CorrelationId: m.CorrelationID,
		Priority:      m.Priority,
		Timestamp:     time.Now(),
		Body:          m.Body,
	})
	if err != nil {
		return fmt.Errorf("publish to %s: %w", m.Queue, err)
	}
	return nil
}

// HandleConsumedDeliveries runs fn over the deliveries of q and re-consumes after a reconnect.
// It returns when ctx is done.
func (c *Connection) HandleConsumedDeliveries(ctx context.Context, q string, delivery <-chan amqp.Delivery, fn func(context.Context, string, <-chan amqp.Delivery)) {
	logger := trackLog.WithFields(logrus.Fields{"task": "rabbitmq", "connection": c.name, "queue": q})
	logger.Info("waiting for deliveries")
	for {
		go fn(ctx, q, delivery)

		select {
		case <-ctx.Done():
			return
		case err := <-c.Err:
			logger.Warnf("consumer lost: %v", err)
		}

		for {
			if err := c.Reconnect(); err == nil {
				deliveries, err := c.Consume()
				if err == nil {
					delivery = deliveries[q]
					logger.Info("reconnected")
					break
				}
				logger.Errorf("consume after reconnect: %v", err)
			} else {
				logger.Errorf("reconnect: %v", err)
			}

			select {
			case <-ctx.Done():
				return
			case <-time.After(c.retryDelay):
			}
		}
	}
}

func (c *Connection) Close() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.Conn == nil {
		return nil
	}
	return c.Conn.Close()
}
