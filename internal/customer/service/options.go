package service

import (
	"context"
	"log/slog"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/trace"

	"onboarding/internal/customer/metrics"
	"onboarding/pkg/requestcontext"
)

// DefaultSignedURLTTL is how long a KYC download URL stays valid.
const DefaultSignedURLTTL = 300 * time.Second

const tracerName = "onboarding/internal/customer/service"

type options struct {
	logger       *slog.Logger
	metrics      *metrics.Metrics
	tracer       trace.Tracer
	signedURLTTL time.Duration
}

// Option configures the registry, address book, ledger and façade.
type Option func(o *options)

func WithLogger(logger *slog.Logger) Option {
	return func(o *options) {
		o.logger = logger
	}
}

func WithMetrics(m *metrics.Metrics) Option {
	return func(o *options) {
		o.metrics = m
	}
}

func WithTracer(t trace.Tracer) Option {
	return func(o *options) {
		o.tracer = t
	}
}

// WithSignedURLTTL overrides the download URL lifetime. Non-positive values are ignored.
func WithSignedURLTTL(ttl time.Duration) Option {
	return func(o *options) {
		if ttl > 0 {
			o.signedURLTTL = ttl
		}
	}
}

func newOptions(opts []Option) options {
	o := options{signedURLTTL: DefaultSignedURLTTL}
	for _, opt := range opts {
		opt(&o)
	}
	if o.tracer == nil {
		o.tracer = otel.Tracer(tracerName)
	}
	return o
}

func (o *options) logAudit(ctx context.Context, event string, attributes ...any) {
	if o.logger == nil {
		return
	}
	if requestID := requestcontext.RequestID(ctx); requestID != "" {
		attributes = append(attributes, "request_id", requestID)
	}
	args := append(attributes, "event", event, "log_type", "audit")
	o.logger.InfoContext(ctx, event, args...)
}

func (o *options) logWarn(ctx context.Context, msg string, attributes ...any) {
	if o.logger == nil {
		return
	}
	if requestID := requestcontext.RequestID(ctx); requestID != "" {
		attributes = append(attributes, "request_id", requestID)
	}
	o.logger.WarnContext(ctx, msg, attributes...)
}
