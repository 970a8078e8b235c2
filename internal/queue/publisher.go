package queue

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net"
	"sync"
	"time"

	amqp "github.com/rabbitmq/amqp091-go"

	"github.com/iliyamo/movie-review-api/internal/logging"
)

const (
	dialTimeout     = 2 * time.Second
	heartbeat       = 10 * time.Second
	maxRetryBackoff = 30 * time.Second
)

// ErrNotConnected is returned by Publish while the broker connection is down.
// The event is dropped.
var ErrNotConnected = errors.New("queue: publisher not connected")

// Publisher publishes activity events over one long-lived connection.
// Publish never dials: a lost connection is restored by a background loop
// and events published meanwhile are dropped.
type Publisher struct {
	url  string
	dial func(url string) (*amqp.Connection, error)

	mu   sync.Mutex
	conn *amqp.Connection
	ch   *amqp.Channel

	kick      chan struct{}
	done      chan struct{}
	closeOnce sync.Once
}

func newPublisher(url string) *Publisher {
	return &Publisher{
		url:  url,
		dial: dialBroker,
		kick: make(chan struct{}, 1),
		done: make(chan struct{}),
	}
}

func dialBroker(url string) (*amqp.Connection, error) {
	return amqp.DialConfig(url, amqp.Config{
		Heartbeat: heartbeat,
		Locale:    "en_US",
		Dial:      amqp.DefaultDial(dialTimeout),
	})
}

// Dial connects to the broker at url, declares the activity queue and starts
// the reconnect loop.
func Dial(url string) (*Publisher, error) {
	p := newPublisher(url)
	if err := p.connect(); err != nil {
		return nil, err
	}
	go p.reconnectLoop()
	return p, nil
}

// connect dials without holding mu and swaps the new channel in.
func (p *Publisher) connect() error {
	conn, err := p.dial(p.url)
	if err != nil {
		return fmt.Errorf("dial broker: %w", err)
	}
	ch, err := conn.Channel()
	if err != nil {
		_ = conn.Close()
		return fmt.Errorf("channel open: %w", err)
	}
	// Durable so events survive broker restarts.
	if _, err := ch.QueueDeclare(ActivityQueue, true, false, false, false, nil); err != nil {
		_ = conn.Close()
		return fmt.Errorf("queue declare: %w", err)
	}

	p.mu.Lock()
	if p.closed() {
		p.mu.Unlock()
		_ = conn.Close()
		return amqp.ErrClosed
	}
	oldConn := p.conn
	p.conn, p.ch = conn, ch
	p.mu.Unlock()
	if oldConn != nil {
		_ = oldConn.Close()
	}

	closed := conn.NotifyClose(make(chan *amqp.Error, 1))
	go func() {
		<-closed
		p.signal()
	}()
	return nil
}

func (p *Publisher) closed() bool {
	select {
	case <-p.done:
		return true
	default:
		return false
	}
}

func (p *Publisher) signal() {
	select {
	case p.kick <- struct{}{}:
	default:
	}
}

func (p *Publisher) connected() bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.ch != nil && !p.ch.IsClosed()
}

func (p *Publisher) reconnectLoop() {
	log := logging.With().Str("component", "activity-publisher").Logger()
	for {
		select {
		case <-p.done:
			return
		case <-p.kick:
		}
		backoff := time.Second
		for !p.closed() && !p.connected() {
			err := p.connect()
			if err == nil {
				log.Info().Msg("broker reconnected")
				break
			}
			log.Warn().Err(err).Dur("retry_in", backoff).Msg("broker reconnect failed")
			select {
			case <-p.done:
				return
			case <-time.After(backoff):
			}
			if backoff < maxRetryBackoff {
				backoff *= 2
			}
		}
	}
}

// Publish sends ev as a persistent JSON message.  It returns ErrNotConnected
// at once when the broker is unreachable.
func (p *Publisher) Publish(ctx context.Context, ev ActivityEvent) error {
	if ev.OccurredAt.IsZero() {
		ev.OccurredAt = time.Now().UTC()
	}
	body, err := json.Marshal(ev)
	if err != nil {
		return fmt.Errorf("marshal event: %w", err)
	}
	msg := amqp.Publishing{
		ContentType:  "application/json",
		DeliveryMode: amqp.Persistent,
		Timestamp:    ev.OccurredAt,
		Type:         ev.Type,
		Body:         body,
	}

	p.mu.Lock()
	ch := p.ch
	p.mu.Unlock()
	if ch == nil || ch.IsClosed() {
		p.signal()
		return ErrNotConnected
	}
	// default exchange, routing key = queue name
	if err := ch.PublishWithContext(ctx, "", ActivityQueue, false, false, msg); err != nil {
		if errors.Is(err, amqp.ErrClosed) || isNetErr(err) {
			p.signal()
		}
		return err
	}
	return nil
}

func isNetErr(err error) bool {
	var ne net.Error
	return errors.As(err, &ne)
}

// Close stops the reconnect loop and shuts the connection down.
func (p *Publisher) Close() error {
	p.closeOnce.Do(func() { close(p.done) })
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.ch != nil {
		_ = p.ch.Close()
	}
	if p.conn != nil {
		return p.conn.Close()
	}
	return nil
}
