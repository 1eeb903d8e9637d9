package app

import (
	"context"
	"log/slog"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"

	"github.com/jsamuelsen/quote-engine/internal/domain"
)

const instrumentationName = "github.com/jsamuelsen/quote-engine/internal/app"

type quoteMetrics struct {
	created     metric.Int64Counter
	transitions metric.Int64Counter
}

// newQuoteMetrics registers the quote counters. Registration errors are
// logged and leave the counters unset.
func newQuoteMetrics(meter metric.Meter, logger *slog.Logger) *quoteMetrics {
	if meter == nil {
		meter = otel.Meter(instrumentationName)
	}

	created, err := meter.Int64Counter(
		"quotes.created",
		metric.WithDescription("Number of quotes created"),
	)
	if err != nil {
		logger.Warn("registering quotes.created counter", slog.Any("error", err))
		return &quoteMetrics{}
	}

	transitions, err := meter.Int64Counter(
		"quotes.transitions",
		metric.WithDescription("Number of workflow transitions applied to quotes"),
	)
	if err != nil {
		logger.Warn("registering quotes.transitions counter", slog.Any("error", err))
		return &quoteMetrics{}
	}

	return &quoteMetrics{created: created, transitions: transitions}
}

func (m *quoteMetrics) quoteCreated(ctx context.Context, outletID, typeID string) {
	if m.created == nil {
		return
	}

	m.created.Add(ctx, 1, metric.WithAttributes(
		attribute.String("outlet.id", outletID),
		attribute.String("quote_type.id", typeID),
	))
}

func (m *quoteMetrics) quoteTransitioned(ctx context.Context, t domain.WorkflowStateTransition) {
	if m.transitions == nil {
		return
	}

	m.transitions.Add(ctx, 1, metric.WithAttributes(
		attribute.String("workflow.option", t.OptionID),
		attribute.String("workflow.state", t.StateID),
	))
}
