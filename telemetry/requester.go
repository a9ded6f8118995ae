package telemetry

import (
	"context"
	"io"
	"time"

	"github.com/sirupsen/logrus"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	semconv "go.opentelemetry.io/otel/semconv/v1.4.0"
	"go.opentelemetry.io/otel/trace"

	"github.com/zcatalyst/catalyst-go-sdk/core"
)

// TracingRequester wraps a core.Requester with one client span per request
// and a debug log line carrying the span ids.
//
// Example:
//
//	r := telemetry.NewTracingRequester(httpTransport, nil)
//	app := catalyst.New(r)
type TracingRequester struct {
	next   core.Requester
	tracer trace.Tracer
	logger logrus.FieldLogger
}

var _ core.Requester = (*TracingRequester)(nil)

// NewTracingRequester wraps next. A nil tracer uses the global provider.
func NewTracingRequester(next core.Requester, tracer trace.Tracer) *TracingRequester {
	if tracer == nil {
		tracer = Tracer()
	}
	return &TracingRequester{next: next, tracer: tracer, logger: L()}
}

// WithLogger sets the logger used for request lines.
func (t *TracingRequester) WithLogger(l logrus.FieldLogger) *TracingRequester {
	t.logger = l
	return t
}

// Send implements core.Requester
func (t *TracingRequester) Send(ctx context.Context, req *core.Request) (*core.Response, error) {
	ctx, span := t.tracer.Start(ctx, "catalyst "+req.Method+" "+Route(req.Path),
		trace.WithSpanKind(trace.SpanKindClient),
		trace.WithAttributes(
			semconv.HTTPMethodKey.String(req.Method),
			semconv.HTTPTargetKey.String(req.Path),
			attribute.String("catalyst.service", string(req.Service)),
			attribute.String("catalyst.role", string(req.Role)),
			attribute.String("catalyst.encoding", req.Encoding.String()),
		),
	)
	defer span.End()

	start := time.Now()
	resp, err := t.next.Send(ctx, req)

	entry := EntryWithContext(t.logger, ctx).WithFields(logrus.Fields{
		"method":   req.Method,
		"path":     req.Path,
		"duration": time.Since(start).Milliseconds(),
	})
	if resp != nil {
		span.SetAttributes(semconv.HTTPStatusCodeKey.Int(resp.StatusCode))
		entry = entry.WithField("status", resp.StatusCode)
	}

	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		entry.WithError(err).Debug("Catalyst request failed")
		return resp, err
	}

	span.SetStatus(codes.Ok, "")
	entry.Debug("Catalyst request completed")
	return resp, nil
}

// Close closes the wrapped requester if it holds resources.
func (t *TracingRequester) Close() error {
	if c, ok := t.next.(io.Closer); ok {
		return c.Close()
	}
	return nil
}
