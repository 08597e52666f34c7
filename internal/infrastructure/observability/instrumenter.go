package observability

import (
	"context"
	"strconv"
	"time"

	"github.com/rs/zerolog"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/trace"

	"github.com/janhq/drivethru-server/internal/domain/contextres"
	"github.com/janhq/drivethru-server/internal/domain/intent"
	"github.com/janhq/drivethru-server/internal/domain/pipeline"
	"github.com/janhq/drivethru-server/internal/domain/workflow"
	"github.com/janhq/drivethru-server/internal/infrastructure/metrics"
)

const instrumentationName = "github.com/janhq/drivethru-server/pipeline"

// StageInstrumenter wraps every pipeline stage in a span and records its
// latency to both OpenTelemetry and Prometheus.
type StageInstrumenter struct {
	tracer        trace.Tracer
	stageDuration metric.Float64Histogram
	turns         metric.Int64Counter
	log           zerolog.Logger
	now           func() time.Time
}

var _ pipeline.Observer = (*StageInstrumenter)(nil)

// NewStageInstrumenter creates an instrumenter. Instruments that fail to
// register are skipped.
func NewStageInstrumenter(tp trace.TracerProvider, mp metric.MeterProvider, log zerolog.Logger) *StageInstrumenter {
	logger := log.With().Str("component", "stage-instrumenter").Logger()
	meter := mp.Meter(instrumentationName)

	stageDuration, err := meter.Float64Histogram(
		"drivethru.pipeline.stage.duration",
		metric.WithDescription("Duration of a pipeline stage"),
		metric.WithUnit("s"),
	)
	if err != nil {
		logger.Warn().Err(err).Msg("stage duration histogram unavailable")
		stageDuration = nil
	}
	turns, err := meter.Int64Counter(
		"drivethru.pipeline.turns",
		metric.WithDescription("Utterances processed by workflow and outcome"),
	)
	if err != nil {
		logger.Warn().Err(err).Msg("turn counter unavailable")
		turns = nil
	}

	return &StageInstrumenter{
		tracer:        tp.Tracer(instrumentationName),
		stageDuration: stageDuration,
		turns:         turns,
		log:           logger,
		now:           time.Now,
	}
}

// StartStage implements pipeline.Observer.
func (s *StageInstrumenter) StartStage(ctx context.Context, stage string) (context.Context, func(string)) {
	started := s.now()
	ctx, span := s.tracer.Start(ctx, "pipeline."+stage, trace.WithAttributes(attribute.String("pipeline.stage", stage)))

	return ctx, func(outcome string) {
		elapsed := s.now().Sub(started)
		span.SetAttributes(attribute.String("pipeline.outcome", outcome))
		if outcome == string(workflow.OutcomeError) {
			span.SetStatus(codes.Error, "stage ended in error")
		}
		span.End()

		metrics.StageDuration.WithLabelValues(stage).Observe(elapsed.Seconds())
		if s.stageDuration != nil {
			s.stageDuration.Record(ctx, elapsed.Seconds(), metric.WithAttributes(
				attribute.String("stage", stage),
				attribute.String("outcome", outcome),
			))
		}
		s.log.Debug().Str("stage", stage).Str("outcome", outcome).Dur("elapsed", elapsed).Msg("stage finished")
	}
}

// ContextResolved implements pipeline.Observer.
func (s *StageInstrumenter) ContextResolved(status contextres.Status, used bool) {
	metrics.ContextResolutions.WithLabelValues(string(status), strconv.FormatBool(used)).Inc()
}

// TurnCompleted implements pipeline.Observer.
func (s *StageInstrumenter) TurnCompleted(in intent.Intent, res workflow.Result, elapsed time.Duration) {
	metrics.Utterances.WithLabelValues(string(in)).Inc()
	metrics.WorkflowOutcomes.WithLabelValues(string(res.Workflow), string(res.Outcome)).Inc()
	metrics.TurnDuration.Observe(elapsed.Seconds())
	if s.turns != nil {
		s.turns.Add(context.Background(), 1, metric.WithAttributes(
			attribute.String("workflow", string(res.Workflow)),
			attribute.String("outcome", string(res.Outcome)),
		))
	}
}
