package api

import (
	"context"
	"net/http"
	"time"

	log "github.com/sirupsen/logrus"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

const (
	tracerName         = "kairo-api/api"
	authSpanName       = "kairo.api.auth.request"
	authEventName      = "auth.request"
	authEventDomain    = "kairo.api"
	observabilityEvent = "observability.event"
)

// authRequestMetrics records one register or login request as a span and
// a matching structured log entry.
type authRequestMetrics struct {
	logger         *log.Logger
	span           trace.Span
	route          string
	start          time.Time
	lookupDuration time.Duration
	hashDuration   time.Duration
	userFound      bool
	errorStage     string
}

func newAuthRequestMetrics(ctx context.Context, logger *log.Logger, route string) (*authRequestMetrics, context.Context) {
	ctx, span := otel.Tracer(tracerName).Start(ctx, authSpanName, trace.WithSpanKind(trace.SpanKindServer))
	return &authRequestMetrics{
		logger: logger,
		span:   span,
		route:  route,
		start:  time.Now(),
	}, ctx
}

func (m *authRequestMetrics) ObserveLookup(d time.Duration) {
	if d > 0 {
		m.lookupDuration = d
	}
}

func (m *authRequestMetrics) ObserveHash(d time.Duration) {
	if d > 0 {
		m.hashDuration = d
	}
}

func (m *authRequestMetrics) SetUserFound(found bool) { m.userFound = found }

func (m *authRequestMetrics) SetErrorStage(stage string) {
	if stage != "" {
		m.errorStage = stage
	}
}

// Log ends the span. err is the internal failure, if any, behind status.
func (m *authRequestMetrics) Log(status int, err error) {
	if m == nil {
		return
	}
	attrs := []attribute.KeyValue{
		attribute.String("http.route", m.route),
		attribute.Int("http.status_code", status),
		attribute.Float64("kairo.auth.total_ms", durationToMillis(time.Since(m.start))),
		attribute.Bool("kairo.auth.user_found", m.userFound),
	}
	if m.lookupDuration > 0 {
		attrs = append(attrs, attribute.Float64("kairo.auth.lookup_ms", durationToMillis(m.lookupDuration)))
	}
	if m.hashDuration > 0 {
		attrs = append(attrs, attribute.Float64("kairo.auth.hash_ms", durationToMillis(m.hashDuration)))
	}
	if m.errorStage != "" {
		attrs = append(attrs, attribute.String("kairo.auth.error_stage", m.errorStage))
	}
	if err != nil {
		attrs = append(attrs, attribute.String("error.message", err.Error()))
	}

	text, number := severityForStatus(status, err)
	m.span.SetAttributes(attrs...)
	eventAttrs := append([]attribute.KeyValue{
		attribute.String("event.name", authEventName),
		attribute.String("event.domain", authEventDomain),
		attribute.String("severity_text", text),
		attribute.Int("severity_number", number),
	}, attrs...)
	m.span.AddEvent(observabilityEvent, trace.WithAttributes(eventAttrs...))
	switch {
	case err != nil:
		m.span.SetStatus(codes.Error, err.Error())
	case status >= http.StatusInternalServerError:
		m.span.SetStatus(codes.Error, http.StatusText(status))
	default:
		m.span.SetStatus(codes.Ok, "")
	}
	sc := m.span.SpanContext()
	m.span.End()

	if m.logger == nil {
		return
	}
	attrMap := make(map[string]any, len(attrs))
	for _, kv := range attrs {
		attrMap[string(kv.Key)] = kv.Value.AsInterface()
	}
	fields := log.Fields{
		"event.name":      authEventName,
		"event.domain":    authEventDomain,
		"severity_text":   text,
		"severity_number": number,
		"attributes":      attrMap,
	}
	if sc.HasTraceID() {
		fields["trace_id"] = sc.TraceID().String()
	}
	if sc.HasSpanID() {
		fields["span_id"] = sc.SpanID().String()
	}
	entry := m.logger.WithFields(fields)
	switch text {
	case "ERROR":
		entry.Error(observabilityEvent)
	case "WARN":
		entry.Warn(observabilityEvent)
	default:
		entry.Info(observabilityEvent)
	}
}

// severityForStatus maps a response to OpenTelemetry log severity.
func severityForStatus(status int, err error) (string, int) {
	switch {
	case err != nil || status >= http.StatusInternalServerError:
		return "ERROR", 17
	case status >= http.StatusBadRequest:
		return "WARN", 13
	default:
		return "INFO", 9
	}
}

func durationToMillis(d time.Duration) float64 {
	if d <= 0 {
		return 0
	}
	return float64(d) / float64(time.Millisecond)
}
