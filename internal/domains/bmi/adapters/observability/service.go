package observability

import (
	"context"
	"io"
	"log/slog"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/trace"
	nooptrace "go.opentelemetry.io/otel/trace/noop"

	bmitypes "github.com/Apurer/go-gin-bmi-server/internal/domains/bmi/application/types"
	"github.com/Apurer/go-gin-bmi-server/internal/domains/bmi/domain"
	"github.com/Apurer/go-gin-bmi-server/internal/domains/bmi/ports"
)

const tracerName = "github.com/Apurer/go-gin-bmi-server/internal/domains/bmi/adapters/observability/service"

// Service decorates the BMI port with tracing, logging, and metrics.
type Service struct {
	inner   ports.Service
	tracer  trace.Tracer
	logger  *slog.Logger
	metrics serviceMetrics
}

type Option func(*Service)

// WithLogger injects a slog logger.
func WithLogger(logger *slog.Logger) Option {
	return func(s *Service) {
		s.logger = logger
	}
}

// WithTracer injects a tracer implementation.
func WithTracer(tr trace.Tracer) Option {
	return func(s *Service) {
		s.tracer = tr
	}
}

// WithMeter injects the meter used to create service metrics instruments.
func WithMeter(m metric.Meter) Option {
	return func(s *Service) {
		s.metrics = newServiceMetrics(m)
	}
}

// New wires a decorator around the core service.
func New(inner ports.Service, opts ...Option) ports.Service {
	s := &Service{
		inner:   inner,
		tracer:  nooptrace.NewTracerProvider().Tracer(tracerName),
		logger:  defaultLogger(),
		metrics: newServiceMetrics(nil),
	}
	for _, opt := range opts {
		if opt != nil {
			opt(s)
		}
	}
	if s.tracer == nil {
		s.tracer = nooptrace.NewTracerProvider().Tracer(tracerName)
	}
	if s.logger == nil {
		s.logger = defaultLogger()
	}
	return s
}

// Calculate runs a stateless calculation with instrumentation.
func (s *Service) Calculate(ctx context.Context, input bmitypes.CalculateInput) (*bmitypes.CalculationProjection, error) {
	ctx, span := s.startSpan(ctx, "Service.Calculate", unitAttributes(input)...)
	defer span.End()

	result, err := s.inner.Calculate(ctx, input)
	if err != nil {
		s.metrics.recordRejected(ctx, domain.FieldOf(err))
		return nil, s.handleError(ctx, span, err, "bmi calculation rejected", slog.String("field", domain.FieldOf(err)))
	}
	s.observeResult(ctx, span, result, s.metrics.calculated)
	return result, nil
}

// RecordCalculation calculates and stores a result with instrumentation.
func (s *Service) RecordCalculation(ctx context.Context, input bmitypes.CalculateInput) (*bmitypes.CalculationProjection, error) {
	attrs := append(unitAttributes(input), attribute.Bool("bmi.idempotent", input.IdempotencyKey != ""))
	ctx, span := s.startSpan(ctx, "Service.RecordCalculation", attrs...)
	defer span.End()

	s.logInfo(ctx, "recording calculation", slog.String("subject.id", input.SubjectID))
	result, err := s.inner.RecordCalculation(ctx, input)
	if err != nil {
		if field := domain.FieldOf(err); field != "" {
			s.metrics.recordRejected(ctx, field)
		}
		return nil, s.handleError(ctx, span, err, "failed to record calculation", slog.String("subject.id", input.SubjectID))
	}
	s.observeResult(ctx, span, result, s.metrics.recorded)
	if result != nil && result.Calculation != nil {
		span.SetAttributes(attribute.String("bmi.calculation.id", result.Calculation.ID))
		s.logInfo(ctx, "calculation recorded",
			slog.String("calculation.id", result.Calculation.ID),
			slog.String("category", string(result.Calculation.Result.Category.Key)),
		)
	}
	return result, nil
}

// GetCalculation loads a recorded calculation.
func (s *Service) GetCalculation(ctx context.Context, input bmitypes.CalculationIdentifier) (*bmitypes.CalculationProjection, error) {
	ctx, span := s.startSpan(ctx, "Service.GetCalculation", attribute.String("bmi.calculation.id", input.ID))
	defer span.End()

	result, err := s.inner.GetCalculation(ctx, input)
	if err != nil {
		return nil, s.handleError(ctx, span, err, "failed to load calculation", slog.String("calculation.id", input.ID))
	}
	return result, nil
}

// ListCalculations returns the history newest first.
func (s *Service) ListCalculations(ctx context.Context, input bmitypes.ListCalculationsInput) ([]*bmitypes.CalculationProjection, error) {
	ctx, span := s.startSpan(ctx, "Service.ListCalculations",
		attribute.String("bmi.subject.id", input.SubjectID),
		attribute.Int("bmi.limit", input.Limit),
	)
	defer span.End()

	result, err := s.inner.ListCalculations(ctx, input)
	if err != nil {
		return nil, s.handleError(ctx, span, err, "failed to list calculations", slog.String("subject.id", input.SubjectID))
	}
	span.SetAttributes(attribute.Int("bmi.result.count", len(result)))
	s.logInfo(ctx, "listed calculations", slog.Int("count", len(result)))
	return result, nil
}

// DeleteCalculation removes a recorded calculation.
func (s *Service) DeleteCalculation(ctx context.Context, input bmitypes.CalculationIdentifier) error {
	ctx, span := s.startSpan(ctx, "Service.DeleteCalculation", attribute.String("bmi.calculation.id", input.ID))
	defer span.End()

	if err := s.inner.DeleteCalculation(ctx, input); err != nil {
		return s.handleError(ctx, span, err, "failed to delete calculation", slog.String("calculation.id", input.ID))
	}
	s.metrics.recordDeleted(ctx, 1)
	s.logInfo(ctx, "calculation deleted", slog.String("calculation.id", input.ID))
	return nil
}

// PurgeCalculations removes history older than the cutoff.
func (s *Service) PurgeCalculations(ctx context.Context, input bmitypes.PurgeCalculationsInput) (int64, error) {
	ctx, span := s.startSpan(ctx, "Service.PurgeCalculations", attribute.String("bmi.purge.before", input.Before.UTC().String()))
	defer span.End()

	removed, err := s.inner.PurgeCalculations(ctx, input)
	if err != nil {
		return 0, s.handleError(ctx, span, err, "failed to purge calculations")
	}
	span.SetAttributes(attribute.Int64("bmi.purge.removed", removed))
	s.metrics.recordDeleted(ctx, removed)
	s.logInfo(ctx, "calculations purged", slog.Int64("removed", removed), slog.Time("before", input.Before))
	return removed, nil
}

// Categories lists the classification ladder.
func (s *Service) Categories(ctx context.Context) []domain.Category {
	return s.inner.Categories(ctx)
}

// DefaultForm describes the reset form.
func (s *Service) DefaultForm(ctx context.Context) bmitypes.FormState {
	return s.inner.DefaultForm(ctx)
}

func (s *Service) observeResult(ctx context.Context, span trace.Span, result *bmitypes.CalculationProjection, counter metric.Int64Counter) {
	if result == nil || result.Calculation == nil {
		return
	}
	r := result.Calculation.Result
	span.SetAttributes(
		attribute.Float64("bmi.value", r.BMI),
		attribute.String("bmi.category", string(r.Category.Key)),
		attribute.String("bmi.recommendation", string(r.Recommendation.Kind)),
		attribute.Bool("bmi.height_auto_corrected", r.HeightAutoCorrected),
	)
	addCounter(ctx, counter, 1, attribute.String("bmi.category", string(r.Category.Key)))
	if r.HeightAutoCorrected {
		addCounter(ctx, s.metrics.autoCorrected, 1)
	}
}

func unitAttributes(input bmitypes.CalculateInput) []attribute.KeyValue {
	return []attribute.KeyValue{
		attribute.String("bmi.weight.unit", string(domain.ParseWeightUnit(input.Weight.Unit))),
		attribute.String("bmi.height.unit", string(domain.ParseHeightUnit(input.Height.Unit))),
	}
}

func (s *Service) startSpan(ctx context.Context, name string, attrs ...attribute.KeyValue) (context.Context, trace.Span) {
	tracer := s.tracer
	if tracer == nil {
		tracer = nooptrace.NewTracerProvider().Tracer(tracerName)
	}
	return tracer.Start(ctx, name, trace.WithAttributes(attrs...))
}

func (s *Service) logInfo(ctx context.Context, msg string, attrs ...slog.Attr) {
	if s.logger == nil {
		return
	}
	s.logger.LogAttrs(ctx, slog.LevelInfo, msg, attrs...)
}

func (s *Service) logError(ctx context.Context, msg string, err error, attrs ...slog.Attr) {
	if s.logger == nil {
		return
	}
	if err != nil {
		attrs = append(attrs, slog.String("error", err.Error()))
	}
	s.logger.LogAttrs(ctx, slog.LevelError, msg, attrs...)
}

func (s *Service) handleError(ctx context.Context, span trace.Span, err error, msg string, attrs ...slog.Attr) error {
	if err == nil {
		return nil
	}
	if span != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
	}
	s.logError(ctx, msg, err, attrs...)
	return err
}

func defaultLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

type serviceMetrics struct {
	calculated    metric.Int64Counter
	recorded      metric.Int64Counter
	rejected      metric.Int64Counter
	deleted       metric.Int64Counter
	autoCorrected metric.Int64Counter
}

func newServiceMetrics(m metric.Meter) serviceMetrics {
	if m == nil {
		return serviceMetrics{}
	}
	calculated, _ := m.Int64Counter("bmi.service.calculated", metric.WithDescription("Number of stateless BMI calculations"))
	recorded, _ := m.Int64Counter("bmi.service.recorded", metric.WithDescription("Number of calculations stored in history"))
	rejected, _ := m.Int64Counter("bmi.service.rejected", metric.WithDescription("Number of submissions rejected by validation"))
	deleted, _ := m.Int64Counter("bmi.service.deleted", metric.WithDescription("Number of history entries removed"))
	autoCorrected, _ := m.Int64Counter("bmi.service.height_auto_corrected", metric.WithDescription("Number of heights reinterpreted as centimeters"))
	return serviceMetrics{
		calculated:    calculated,
		recorded:      recorded,
		rejected:      rejected,
		deleted:       deleted,
		autoCorrected: autoCorrected,
	}
}

func (m serviceMetrics) recordRejected(ctx context.Context, field string) {
	addCounter(ctx, m.rejected, 1, attribute.String("bmi.field", field))
}

func (m serviceMetrics) recordDeleted(ctx context.Context, n int64) {
	if n <= 0 {
		return
	}
	addCounter(ctx, m.deleted, n)
}

func addCounter(ctx context.Context, counter metric.Int64Counter, value int64, attrs ...attribute.KeyValue) {
	if counter == nil {
		return
	}
	counter.Add(ctx, value, metric.WithAttributes(attrs...))
}

var _ ports.Service = (*Service)(nil)
