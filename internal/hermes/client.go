package hermes

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/nats-io/nats.go"
)

// QueueGroup load-balances inbound SMS across interview workers.
const QueueGroup = "josh-interview"

type Client struct {
	conn   *nats.Conn
	subs   []*nats.Subscription
	closed chan struct{}
	logger *slog.Logger
}

func NewClient(ctx context.Context, url, token string, logger *slog.Logger) (*Client, error) {
	closed := make(chan struct{})
	opts := []nats.Option{
		nats.Name("josh-interview"),
		nats.RetryOnFailedConnect(true),
		nats.MaxReconnects(60),
		nats.ReconnectWait(2 * time.Second),
		nats.DisconnectErrHandler(func(_ *nats.Conn, err error) {
			if err != nil {
				logger.Warn("nats disconnected", "error", err)
			}
		}),
		nats.ReconnectHandler(func(_ *nats.Conn) {
			logger.Info("nats reconnected")
		}),
		nats.ClosedHandler(func(_ *nats.Conn) {
			close(closed)
		}),
	}
	if token != "" {
		opts = append(opts, nats.Token(token))
	}

	nc, err := nats.Connect(url, opts...)
	if err != nil {
		return nil, fmt.Errorf("nats connect: %w", err)
	}

	return &Client{conn: nc, closed: closed, logger: logger}, nil
}

func (c *Client) Publish(subject string, data any) error {
	payload, err := json.Marshal(data)
	if err != nil {
		return fmt.Errorf("marshal payload: %w", err)
	}
	return c.conn.Publish(subject, payload)
}

// PublishReply sends the outbound SMS for one processed turn.
func (c *Client) PublishReply(msg OutboundSMS) error {
	return c.Publish(SubjectOutbound, msg)
}

// PublishEvent appends a domain event to the interview event stream.
func (c *Client) PublishEvent(ev ProfileEvent) error {
	return c.Publish(SubjectProfileEvent, ev)
}

func (c *Client) Subscribe(subject string, handler func(subject string, data []byte)) error {
	sub, err := c.conn.Subscribe(subject, func(msg *nats.Msg) {
		handler(msg.Subject, msg.Data)
	})
	if err != nil {
		return fmt.Errorf("subscribe %s: %w", subject, err)
	}
	c.subs = append(c.subs, sub)
	c.logger.Info("subscribed", "subject", subject)
	return nil
}

// SubscribeInbound delivers decoded inbound SMS to handler through the
// worker queue group. Messages that fail to decode are logged and dropped.
func (c *Client) SubscribeInbound(handler func(InboundSMS)) error {
	sub, err := c.conn.QueueSubscribe(SubjectInbound, QueueGroup, func(msg *nats.Msg) {
		in, err := DecodeInbound(msg.Data)
		if err != nil {
			c.logger.Warn("dropping inbound sms", "subject", msg.Subject, "error", err)
			return
		}
		handler(in)
	})
	if err != nil {
		return fmt.Errorf("queue subscribe %s: %w", SubjectInbound, err)
	}
	c.subs = append(c.subs, sub)
	c.logger.Info("subscribed", "subject", SubjectInbound, "queue", QueueGroup)
	return nil
}

// Flush waits until the server has processed everything published so far.
func (c *Client) Flush(ctx context.Context) error {
	return c.conn.FlushWithContext(ctx)
}

// Drain stops delivery, lets in-flight handlers finish, flushes pending
// publishes and closes the connection. It returns when the connection is
// closed or ctx is done.
func (c *Client) Drain(ctx context.Context) error {
	if err := c.conn.Drain(); err != nil {
		return fmt.Errorf("nats drain: %w", err)
	}
	select {
	case <-c.closed:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (c *Client) Close() {
	if c.conn.IsClosed() {
		return
	}
	for _, sub := range c.subs {
		_ = sub.Unsubscribe()
	}
	c.conn.Close()
}
