// Package outbox queues outgoing mail on NATS JetStream and sends it from a
// worker, so callers are not blocked on the mail service. Jobs that cannot
// be delivered end up on a dead letter stream.
package outbox

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/goccy/go-json"
	"github.com/nats-io/nats.go"
	"github.com/sirupsen/logrus"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/propagation"

	"github.com/zcatalyst/catalyst-go-sdk/telemetry"
)

// Client represents a NATS JetStream client for the outbox streams.
type Client struct {
	nc     *nats.Conn
	js     nats.JetStreamContext
	config *Config
	logger logrus.FieldLogger
}

// NewClient connects to NATS and creates or updates the outbox streams.
func NewClient(config *Config) (*Client, error) {
	logger := telemetry.L().WithField("component", "outbox")

	opts := []nats.Option{
		nats.Name(config.Name),
		nats.MaxReconnects(-1),
		nats.ReconnectWait(2 * time.Second),
		nats.DisconnectErrHandler(func(nc *nats.Conn, err error) {
			if err != nil {
				logger.WithError(err).Warn("NATS disconnected")
			}
		}),
		nats.ReconnectHandler(func(nc *nats.Conn) {
			logger.WithField("url", nc.ConnectedUrl()).Info("NATS reconnected")
		}),
		nats.ErrorHandler(func(nc *nats.Conn, sub *nats.Subscription, err error) {
			logger.WithError(err).Error("NATS error")
		}),
	}
	if config.User != "" && config.Password != "" {
		opts = append(opts, nats.UserInfo(config.User, config.Password))
	}

	nc, err := nats.Connect(config.URL, opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to NATS: %w", err)
	}

	js, err := nc.JetStream()
	if err != nil {
		nc.Close()
		return nil, fmt.Errorf("failed to create JetStream context: %w", err)
	}

	client := &Client{nc: nc, js: js, config: config, logger: logger}
	if err := client.initializeStreams(); err != nil {
		nc.Close()
		return nil, fmt.Errorf("failed to initialize streams: %w", err)
	}
	return client, nil
}

func (c *Client) initializeStreams() error {
	streams := []*nats.StreamConfig{
		{
			Name:        c.config.StreamName,
			Description: "Catalyst mail outbox",
			Subjects:    []string{SubjectSend},
			Retention:   nats.WorkQueuePolicy,
			MaxAge:      c.config.StreamMaxAge,
			Replicas:    c.config.StreamReplicas,
			Duplicates:  5 * time.Minute,
			Storage:     nats.FileStorage,
		},
		{
			Name:        c.config.DLQStreamName,
			Description: "Catalyst mail outbox dead letters",
			Subjects:    []string{SubjectDLQ},
			Retention:   nats.LimitsPolicy,
			MaxAge:      c.config.DLQMaxAge,
			Replicas:    c.config.StreamReplicas,
			Storage:     nats.FileStorage,
		},
	}

	for _, cfg := range streams {
		if _, err := c.js.AddStream(cfg); err != nil {
			if _, err := c.js.UpdateStream(cfg); err != nil {
				return fmt.Errorf("failed to create/update stream %s: %w", cfg.Name, err)
			}
		}
	}
	return nil
}

// Enqueue publishes job and waits for the stream to store it. The job id
// is the deduplication key, so enqueueing the same job twice within the
// duplicate window sends it once.
func (c *Client) Enqueue(ctx context.Context, job *Job) error {
	data, err := job.Marshal()
	if err != nil {
		return fmt.Errorf("failed to marshal job: %w", err)
	}

	msg := nats.NewMsg(SubjectSend)
	msg.Data = data
	otel.GetTextMapPropagator().Inject(ctx, propagation.HeaderCarrier(msg.Header))

	return c.publish(ctx, msg, nats.MsgId(job.ID))
}

// deadLetter moves a failed message to the dead letter stream.
func (c *Client) deadLetter(ctx context.Context, msg *nats.Msg, cause error, deliveries uint64) error {
	job := json.RawMessage(msg.Data)
	if !json.Valid(msg.Data) {
		quoted, err := json.Marshal(string(msg.Data))
		if err != nil {
			return fmt.Errorf("failed to encode dead letter payload: %w", err)
		}
		job = quoted
	}

	letter := &DeadLetter{
		Job:        job,
		Subject:    msg.Subject,
		Error:      cause.Error(),
		FailedAt:   time.Now().UTC(),
		Deliveries: deliveries,
	}
	data, err := letter.Marshal()
	if err != nil {
		return fmt.Errorf("failed to marshal dead letter: %w", err)
	}

	out := nats.NewMsg(SubjectDLQ)
	out.Data = data
	out.Header.Set("X-Original-Subject", msg.Subject)
	out.Header.Set("X-Failed-At", letter.FailedAt.Format(time.RFC3339))
	out.Header.Set("X-Deliveries", strconv.FormatUint(deliveries, 10))
	return c.publish(ctx, out)
}

func (c *Client) publish(ctx context.Context, msg *nats.Msg, opts ...nats.PubOpt) error {
	ack, err := c.js.PublishMsgAsync(msg, opts...)
	if err != nil {
		return fmt.Errorf("failed to publish to %s: %w", msg.Subject, err)
	}

	select {
	case <-ack.Ok():
		return nil
	case err := <-ack.Err():
		return fmt.Errorf("publish to %s failed: %w", msg.Subject, err)
	case <-ctx.Done():
		return ctx.Err()
	}
}

// consumer creates or updates the durable pull consumer of the outbox.
func (c *Client) consumer() error {
	cfg := &nats.ConsumerConfig{
		Durable:       c.config.ConsumerName,
		AckPolicy:     nats.AckExplicitPolicy,
		AckWait:       c.config.AckWait,
		MaxDeliver:    c.config.MaxDeliver,
		FilterSubject: SubjectSend,
		DeliverPolicy: nats.DeliverAllPolicy,
		ReplayPolicy:  nats.ReplayInstantPolicy,
	}
	if _, err := c.js.AddConsumer(c.config.StreamName, cfg); err != nil {
		if _, err := c.js.UpdateConsumer(c.config.StreamName, cfg); err != nil {
			return fmt.Errorf("failed to create/update consumer: %w", err)
		}
	}
	return nil
}

// fetch pulls the next batch. A timeout yields an empty batch.
func (c *Client) fetch(ctx context.Context, sub *nats.Subscription) ([]*nats.Msg, error) {
	ctx, cancel := context.WithTimeout(ctx, c.config.BatchTimeout)
	defer cancel()

	msgs, err := sub.Fetch(c.config.BatchSize, nats.Context(ctx))
	if errors.Is(err, nats.ErrTimeout) || errors.Is(err, context.DeadlineExceeded) {
		return nil, nil
	}
	return msgs, err
}

// Health checks the NATS connection health
func (c *Client) Health() error {
	if !c.nc.IsConnected() {
		return errors.New("NATS is not connected")
	}
	if _, err := c.js.AccountInfo(); err != nil {
		return fmt.Errorf("JetStream health check failed: %w", err)
	}
	return nil
}

// Config returns the client configuration.
func (c *Client) Config() *Config {
	return c.config
}

// Close drains the connection.
func (c *Client) Close() error {
	return c.nc.Drain()
}
