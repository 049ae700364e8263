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
	tracerName       = "kanban-api/api"
	boardSpanName    = "board.request"
	boardEventName   = "board.request.metrics"
	boardEventDomain = "kanban"
	boardRoute       = "/api/board"
)

type boardRequestMetrics struct {
	logger         *log.Logger
	span           trace.Span
	start          time.Time
	fetchDuration  time.Duration
	encodeDuration time.Duration
	cardsReturned  int
	divergent      bool
	errorStage     string
}

func newBoardRequestMetrics(ctx context.Context, logger *log.Logger) (*boardRequestMetrics, context.Context) {
	if ctx == nil {
		ctx = context.Background()
	}
	spanCtx, span := otel.Tracer(tracerName).Start(ctx, boardSpanName)
	return &boardRequestMetrics{logger: logger, span: span, start: time.Now()}, spanCtx
}

func (m *boardRequestMetrics) ObserveFetch(duration time.Duration) {
	if duration <= 0 {
		return
	}
	m.fetchDuration = duration
}

func (m *boardRequestMetrics) ObserveEncode(duration time.Duration) {
	if duration <= 0 {
		return
	}
	m.encodeDuration = duration
}

func (m *boardRequestMetrics) SetCardsReturned(count int) {
	if count < 0 {
		count = 0
	}
	m.cardsReturned = count
}

func (m *boardRequestMetrics) SetDivergent(divergent bool) {
	m.divergent = divergent
}

func (m *boardRequestMetrics) SetErrorStage(stage string) {
	if stage == "" {
		return
	}
	m.errorStage = stage
}

// Log finishes the request span and mirrors its observability event into the
// structured log so the trace and the log line carry the same attributes.
func (m *boardRequestMetrics) Log(status int, err error) {
	if m == nil {
		return
	}
	total := time.Since(m.start)
	severityText, severityNumber := severityForStatus(status, err)

	attrs := []attribute.KeyValue{
		attribute.String("http.route", boardRoute),
		attribute.Int("http.status_code", status),
		attribute.Float64("kanban.board.total_ms", durationToMillis(total)),
		attribute.Int("kanban.board.cards_returned", m.cardsReturned),
		attribute.Bool("kanban.board.divergent", m.divergent),
	}
	if m.fetchDuration > 0 {
		attrs = append(attrs, attribute.Float64("kanban.board.fetch_ms", durationToMillis(m.fetchDuration)))
	}
	if m.encodeDuration > 0 {
		attrs = append(attrs, attribute.Float64("kanban.board.encode_ms", durationToMillis(m.encodeDuration)))
	}
	if m.errorStage != "" {
		attrs = append(attrs, attribute.String("kanban.board.error_stage", m.errorStage))
	}
	if err != nil {
		attrs = append(attrs, attribute.String("error.message", err.Error()))
	}

	eventAttrs := append([]attribute.KeyValue{
		attribute.String("event.name", boardEventName),
		attribute.String("event.domain", boardEventDomain),
		attribute.String("severity_text", severityText),
		attribute.Int("severity_number", severityNumber),
	}, attrs...)

	var traceID string
	if m.span != nil {
		m.span.SetAttributes(attrs...)
		m.span.AddEvent("observability.event", trace.WithAttributes(eventAttrs...))
		if err != nil || status >= http.StatusInternalServerError {
			msg := "board request failed"
			if err != nil {
				msg = err.Error()
			}
			m.span.SetStatus(codes.Error, msg)
		} else {
			m.span.SetStatus(codes.Ok, "")
		}
		if sc := m.span.SpanContext(); sc.HasTraceID() {
			traceID = sc.TraceID().String()
		}
		m.span.End()
	}

	if m.logger == nil {
		return
	}
	fields := log.Fields{
		"event.name":      boardEventName,
		"event.domain":    boardEventDomain,
		"severity_text":   severityText,
		"severity_number": severityNumber,
		"attributes":      attributesToFields(attrs),
	}
	if traceID != "" {
		fields["trace_id"] = traceID
	}
	entry := m.logger.WithFields(fields)
	switch {
	case severityNumber >= 17:
		entry.Error("observability.event")
	case severityNumber >= 13:
		entry.Warn("observability.event")
	default:
		entry.Info("observability.event")
	}
}

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

func attributesToFields(attrs []attribute.KeyValue) map[string]any {
	out := make(map[string]any, len(attrs))
	for _, kv := range attrs {
		out[string(kv.Key)] = kv.Value.AsInterface()
	}
	return out
}

func durationToMillis(d time.Duration) float64 {
	if d <= 0 {
		return 0
	}
	return float64(d) / float64(time.Millisecond)
}
