package tasks

import (
	"context"
	"errors"
	"log/slog"

	"github.com/prometheus/client_golang/prometheus"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

var storeOperations = prometheus.NewCounterVec(
	prometheus.CounterOpts{
		Name: "taskboard_store_operations_total",
		Help: "Task store operations by operation and result",
	},
	[]string{"op", "result"},
)

func init() {
	prometheus.MustRegister(storeOperations)
}

// Instrumented wraps a Store with a span, a counter, and a log line per call.
type Instrumented struct {
	next   Store
	logger *slog.Logger
	tracer trace.Tracer
}

func NewInstrumented(next Store, logger *slog.Logger) *Instrumented {
	return &Instrumented{
		next:   next,
		logger: logger,
		tracer: otel.Tracer("taskboard/tasks"),
	}
}

func (s *Instrumented) List(ctx context.Context, q Query) ([]Task, error) {
	var out []Task
	err := s.observe(ctx, "list", []attribute.KeyValue{
		attribute.String("tasks.filter", string(q.Status)),
		attribute.String("tasks.category", q.Category),
	}, func(ctx context.Context) error {
		var err error
		out, err = s.next.List(ctx, q)
		return err
	})
	return out, err
}

func (s *Instrumented) Categories(ctx context.Context) ([]string, error) {
	var out []string
	err := s.observe(ctx, "categories", nil, func(ctx context.Context) error {
		var err error
		out, err = s.next.Categories(ctx)
		return err
	})
	return out, err
}

func (s *Instrumented) Add(ctx context.Context, d Draft) error {
	return s.observe(ctx, "add", []attribute.KeyValue{
		attribute.String("tasks.priority", string(d.Priority)),
		attribute.String("tasks.category", d.Category),
	}, func(ctx context.Context) error {
		return s.next.Add(ctx, d)
	})
}

func (s *Instrumented) Toggle(ctx context.Context, id int64) error {
	return s.observe(ctx, "toggle", idAttr(id), func(ctx context.Context) error {
		return s.next.Toggle(ctx, id)
	})
}

func (s *Instrumented) Remove(ctx context.Context, id int64) error {
	return s.observe(ctx, "remove", idAttr(id), func(ctx context.Context) error {
		return s.next.Remove(ctx, id)
	})
}

func (s *Instrumented) SetPriority(ctx context.Context, id int64, p Priority) error {
	attrs := append(idAttr(id), attribute.String("tasks.priority", string(p)))
	return s.observe(ctx, "set_priority", attrs, func(ctx context.Context) error {
		return s.next.SetPriority(ctx, id, p)
	})
}

func (s *Instrumented) SetCategory(ctx context.Context, id int64, category string) error {
	attrs := append(idAttr(id), attribute.String("tasks.category", category))
	return s.observe(ctx, "set_category", attrs, func(ctx context.Context) error {
		return s.next.SetCategory(ctx, id, category)
	})
}

func (s *Instrumented) observe(ctx context.Context, op string, attrs []attribute.KeyValue, fn func(context.Context) error) error {
	ctx, span := s.tracer.Start(ctx, "tasks."+op, trace.WithAttributes(attrs...))
	defer span.End()

	err := fn(ctx)
	result := resultLabel(err)
	storeOperations.WithLabelValues(op, result).Inc()

	switch result {
	case "error":
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		s.logger.ErrorContext(ctx, "task_"+op+"_failed", slog.String("error", err.Error()))
	case "ok":
		if op != "list" && op != "categories" {
			s.logger.InfoContext(ctx, "task_"+op, attrsToLog(attrs)...)
		}
	}
	return err
}

func resultLabel(err error) string {
	switch {
	case err == nil:
		return "ok"
	case errors.Is(err, ErrContentRequired), errors.Is(err, ErrInvalidPriority):
		return "rejected"
	case errors.Is(err, ErrTaskNotFound):
		return "not_found"
	default:
		return "error"
	}
}

func idAttr(id int64) []attribute.KeyValue {
	return []attribute.KeyValue{attribute.Int64("tasks.id", id)}
}

func attrsToLog(attrs []attribute.KeyValue) []any {
	out := make([]any, 0, len(attrs))
	for _, a := range attrs {
		out = append(out, slog.String(string(a.Key), a.Value.Emit()))
	}
	return out
}
