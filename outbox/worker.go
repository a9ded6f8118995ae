package outbox

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"sync/atomic"
	"time"

	"github.com/nats-io/nats.go"
	"github.com/sirupsen/logrus"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/propagation"
	"go.opentelemetry.io/otel/trace"

	"github.com/zcatalyst/catalyst-go-sdk/core"
	"github.com/zcatalyst/catalyst-go-sdk/mail"
	"github.com/zcatalyst/catalyst-go-sdk/storage"
	"github.com/zcatalyst/catalyst-go-sdk/telemetry"
	"github.com/zcatalyst/catalyst-go-sdk/transport"
)

// Sender sends a mail. *mail.Email implements it.
type Sender interface {
	SendMail(ctx context.Context, m *mail.Mail) (*mail.Response, error)
}

// AttachmentSource resolves attachment keys. *storage.Bucket implements it.
type AttachmentSource interface {
	Attachments(ctx context.Context, keys ...string) ([]mail.Attachment, error)
}

// Archiver stores a copy of each sent mail. *storage.Bucket implements it.
type Archiver interface {
	Archive(ctx context.Context, name string, resp *mail.Response) (string, error)
}

// fetchRetryDelay is the pause after a failed fetch before the next one.
const fetchRetryDelay = time.Second

// Stats counts processed jobs.
type Stats struct {
	Processed    int64
	Succeeded    int64
	Retried      int64
	DeadLettered int64
}

// Worker consumes the outbox and sends each job.
type Worker struct {
	client      *Client
	sender      Sender
	attachments AttachmentSource
	archiver    Archiver
	logger      logrus.FieldLogger
	tracer      trace.Tracer
	retryDelay  time.Duration

	processed    atomic.Int64
	succeeded    atomic.Int64
	retried      atomic.Int64
	deadLettered atomic.Int64
}

// NewWorker creates a worker reading from client and sending through sender.
func NewWorker(client *Client, sender Sender) *Worker {
	return &Worker{
		client: client,
		sender: sender,
		logger:     telemetry.L().WithField("component", "outbox-worker"),
		tracer:     telemetry.Tracer(),
		retryDelay: fetchRetryDelay,
	}
}

// WithAttachments sets the source of attachment keys. Without one, jobs
// carrying attachment keys are dead-lettered.
func (w *Worker) WithAttachments(src AttachmentSource) *Worker {
	w.attachments = src
	return w
}

// WithArchiver sets where jobs with an archive name are archived.
func (w *Worker) WithArchiver(a Archiver) *Worker {
	w.archiver = a
	return w
}

// WithLogger sets the logger.
func (w *Worker) WithLogger(l logrus.FieldLogger) *Worker {
	w.logger = l
	return w
}

// Stats returns a snapshot of the counters.
func (w *Worker) Stats() Stats {
	return Stats{
		Processed:    w.processed.Load(),
		Succeeded:    w.succeeded.Load(),
		Retried:      w.retried.Load(),
		DeadLettered: w.deadLettered.Load(),
	}
}

// Run processes jobs until ctx is done. It returns an error when the
// connection or subscription is closed underneath it.
func (w *Worker) Run(ctx context.Context) error {
	if err := w.client.consumer(); err != nil {
		return err
	}

	cfg := w.client.config
	sub, err := w.client.js.PullSubscribe(SubjectSend, cfg.ConsumerName,
		nats.ManualAck(),
		nats.Bind(cfg.StreamName, cfg.ConsumerName),
	)
	if err != nil {
		return fmt.Errorf("failed to create subscription: %w", err)
	}
	defer func() { _ = sub.Unsubscribe() }()

	w.logger.WithField("consumer", cfg.ConsumerName).Info("Outbox worker started")
	for {
		if ctx.Err() != nil {
			w.logger.WithFields(logrus.Fields{
				"processed":     w.processed.Load(),
				"dead_lettered": w.deadLettered.Load(),
			}).Info("Outbox worker stopped")
			return nil
		}

		msgs, err := w.client.fetch(ctx, sub)
		if err != nil {
			if err := w.fetchFailed(ctx, err); err != nil {
				return err
			}
			continue
		}
		for _, msg := range msgs {
			w.process(ctx, msg)
		}
	}
}

// fetchFailed handles a failed fetch. A closed connection or subscription
// never recovers and is returned; any other error is logged and Run waits
// retryDelay before fetching again.
func (w *Worker) fetchFailed(ctx context.Context, err error) error {
	if ctx.Err() != nil {
		return nil
	}
	if errors.Is(err, nats.ErrConnectionClosed) || errors.Is(err, nats.ErrBadSubscription) {
		return fmt.Errorf("outbox subscription closed: %w", err)
	}

	w.logger.WithError(err).Warn("Failed to fetch jobs")
	select {
	case <-ctx.Done():
	case <-time.After(w.retryDelay):
	}
	return nil
}

// process handles one delivery and settles it.
func (w *Worker) process(ctx context.Context, msg *nats.Msg) {
	w.processed.Add(1)

	ctx = otel.GetTextMapPropagator().Extract(ctx, propagation.HeaderCarrier(msg.Header))
	ctx, span := w.tracer.Start(ctx, "outbox process",
		trace.WithSpanKind(trace.SpanKindConsumer),
		trace.WithAttributes(
			attribute.String("messaging.system", "nats"),
			attribute.String("messaging.destination", msg.Subject),
		),
	)
	defer span.End()

	var deliveries uint64 = 1
	if meta, err := msg.Metadata(); err == nil {
		deliveries = meta.NumDelivered
	}

	job, err := UnmarshalJob(msg.Data)
	if err == nil {
		span.SetAttributes(attribute.String("outbox.job_id", job.ID))
		err = w.Handle(ctx, job)
	} else {
		err = fmt.Errorf("failed to decode job: %w", err)
	}

	entry := telemetry.EntryWithContext(w.logger, ctx).WithField("deliveries", deliveries)
	if job != nil {
		entry = entry.WithField("job_id", job.ID)
	}

	if err == nil {
		w.succeeded.Add(1)
		span.SetStatus(codes.Ok, "")
		if ackErr := msg.Ack(); ackErr != nil {
			entry.WithError(ackErr).Warn("Failed to ack job")
		}
		return
	}

	span.RecordError(err)
	span.SetStatus(codes.Error, err.Error())

	// A job that does not decode never will.
	if job != nil && Retryable(err) && deliveries < uint64(w.client.config.MaxDeliver) {
		w.retried.Add(1)
		entry.WithError(err).Warn("Mail job failed, will retry")
		if nakErr := msg.Nak(); nakErr != nil {
			entry.WithError(nakErr).Warn("Failed to nak job")
		}
		return
	}

	w.deadLettered.Add(1)
	entry.WithError(err).Error("Mail job dead-lettered")
	if dlqErr := w.client.deadLetter(ctx, msg, err, deliveries); dlqErr != nil {
		entry.WithError(dlqErr).Error("Failed to publish dead letter")
		_ = msg.Nak()
		return
	}
	if termErr := msg.Term(); termErr != nil {
		entry.WithError(termErr).Warn("Failed to terminate job")
	}
}

// Handle sends one job: it resolves attachments, sends the mail and
// archives the response. An archive failure is logged, not returned, as
// the mail has already gone out.
func (w *Worker) Handle(ctx context.Context, job *Job) error {
	m := job.Mail()

	if len(job.AttachmentKeys) > 0 {
		if w.attachments == nil {
			return core.NewError(core.CodeInvalidArgument, "job has attachment keys but no attachment source is configured", job.AttachmentKeys).
				WithComponent(core.ComponentMail)
		}
		attachments, err := w.attachments.Attachments(ctx, job.AttachmentKeys...)
		if err != nil {
			return fmt.Errorf("failed to load attachments: %w", err)
		}
		m.Attachments = attachments
	}

	resp, err := w.sender.SendMail(ctx, m)
	if err != nil {
		return err
	}

	if job.ArchiveName != "" && w.archiver != nil {
		key, err := w.archiver.Archive(ctx, job.ArchiveName, resp)
		if err != nil {
			telemetry.EntryWithContext(w.logger, ctx).WithError(err).
				WithField("job_id", job.ID).
				Warn("Failed to archive sent mail")
		} else {
			telemetry.EntryWithContext(w.logger, ctx).WithFields(logrus.Fields{
				"job_id": job.ID,
				"key":    key,
			}).Debug("Archived sent mail")
		}
	}
	return nil
}

// Retryable reports whether a failed job may succeed on redelivery.
// Validation failures, missing attachment objects and client errors other
// than 408 and 429 are final.
func Retryable(err error) bool {
	if err == nil {
		return false
	}
	if core.IsValidation(err) || errors.Is(err, storage.ErrNotFound) {
		return false
	}
	var apiErr *transport.APIError
	if errors.As(err, &apiErr) {
		switch {
		case apiErr.StatusCode == http.StatusRequestTimeout, apiErr.StatusCode == http.StatusTooManyRequests:
			return true
		case apiErr.StatusCode >= 400 && apiErr.StatusCode < 500:
			return false
		}
	}
	return true
}
