package application

import (
	"context"
	"errors"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"

	types "github.com/Apurer/go-gin-bmi-server/internal/domains/bmi/application/types"
	"github.com/Apurer/go-gin-bmi-server/internal/domains/bmi/domain"
	"github.com/Apurer/go-gin-bmi-server/internal/domains/bmi/ports"
)

// Service orchestrates the BMI bounded context use cases.
type Service struct {
	repo        ports.Repository
	idempotency ports.IdempotencyStore
	events      ports.EventPublisher
	logger      *slog.Logger
	now         func() time.Time
	newID       func() string
}

// Option customises the service wiring.
type Option func(*Service)

// WithIdempotencyStore enables Idempotency-Key handling on RecordCalculation.
func WithIdempotencyStore(store ports.IdempotencyStore) Option {
	return func(s *Service) {
		s.idempotency = store
	}
}

// WithEventPublisher routes CalculationRecorded events to a broker.
func WithEventPublisher(publisher ports.EventPublisher) Option {
	return func(s *Service) {
		if publisher != nil {
			s.events = publisher
		}
	}
}

// WithLogger sets where best-effort failures are reported.
func WithLogger(logger *slog.Logger) Option {
	return func(s *Service) {
		if logger != nil {
			s.logger = logger
		}
	}
}

// WithClock overrides the time source for deterministic testing.
func WithClock(now func() time.Time) Option {
	return func(s *Service) {
		if now != nil {
			s.now = now
		}
	}
}

// WithIDGenerator overrides how calculation IDs are minted.
func WithIDGenerator(newID func() string) Option {
	return func(s *Service) {
		if newID != nil {
			s.newID = newID
		}
	}
}

// NewService wires the BMI service with its dependencies. A nil repository limits it to stateless calculations.
func NewService(repo ports.Repository, opts ...Option) *Service {
	s := &Service{
		repo:   repo,
		events: ports.NoopEventPublisher,
		logger: slog.Default(),
		now:    time.Now,
		newID:  uuid.NewString,
	}
	for _, opt := range opts {
		if opt != nil {
			opt(s)
		}
	}
	return s
}

// Calculate validates the raw form values and returns the result without storing it.
func (s *Service) Calculate(_ context.Context, input types.CalculateInput) (*types.CalculationProjection, error) {
	weight, height, err := parseMeasurements(input)
	if err != nil {
		return nil, mapError(err)
	}
	result, err := domain.Calculate(weight, height)
	if err != nil {
		return nil, mapError(err)
	}
	calc := &domain.Calculation{
		SubjectID:    strings.TrimSpace(input.SubjectID),
		Weight:       weight,
		Height:       height,
		Result:       result,
		CalculatedAt: s.now().UTC(),
	}
	return &types.CalculationProjection{Calculation: calc}, nil
}

// RecordCalculation calculates and appends the result to the history.
func (s *Service) RecordCalculation(ctx context.Context, input types.CalculateInput) (*types.CalculationProjection, error) {
	if s.repo == nil {
		return nil, errors.New("calculation history not configured")
	}
	key := strings.TrimSpace(input.IdempotencyKey)
	var fingerprint string
	if key != "" && s.idempotency != nil {
		hash, err := FingerprintCalculation(input)
		if err != nil {
			return nil, err
		}
		fingerprint = hash
		replayed, err := s.replay(ctx, key, fingerprint)
		if err != nil || replayed != nil {
			return replayed, err
		}
	}

	computed, err := s.Calculate(ctx, input)
	if err != nil {
		return nil, err
	}
	draft := computed.Calculation
	calc, err := domain.NewCalculation(s.newID(), draft.SubjectID, draft.Weight, draft.Height, draft.Result, draft.CalculatedAt)
	if err != nil {
		return nil, mapError(err)
	}
	saved, err := s.repo.Save(ctx, calc)
	if err != nil {
		return nil, mapError(err)
	}

	if fingerprint != "" {
		stored, err := s.idempotency.Save(ctx, ports.IdempotencyRecord{
			Key:           key,
			RequestHash:   fingerprint,
			CalculationID: calc.ID,
		})
		if err != nil {
			// A concurrent request claimed the key first; keep its calculation.
			if delErr := s.repo.Delete(ctx, calc.ID); delErr != nil {
				s.logger.LogAttrs(ctx, slog.LevelWarn, "failed to remove calculation after idempotency save failed",
					slog.String("calculationID", calc.ID),
					slog.String("error", delErr.Error()),
				)
			}
			if errors.Is(err, ports.ErrIdempotencyConflict) && stored != nil && stored.RequestHash == fingerprint {
				return s.loadCalculation(ctx, stored.CalculationID)
			}
			return nil, err
		}
	}

	if err := s.events.PublishCalculationRecorded(ctx, ports.CalculationRecorded{
		CalculationID:       calc.ID,
		SubjectID:           calc.SubjectID,
		BMI:                 calc.Result.BMI,
		Category:            string(calc.Result.Category.Key),
		HeightAutoCorrected: calc.Result.HeightAutoCorrected,
		RecordedAt:          calc.CalculatedAt,
	}); err != nil {
		s.logger.LogAttrs(ctx, slog.LevelWarn, "failed to publish calculation recorded event",
			slog.String("calculationID", calc.ID),
			slog.String("error", err.Error()),
		)
	}
	return saved, nil
}

// GetCalculation loads a single recorded calculation.
func (s *Service) GetCalculation(ctx context.Context, input types.CalculationIdentifier) (*types.CalculationProjection, error) {
	if strings.TrimSpace(input.ID) == "" {
		return nil, mapError(domain.ErrEmptyCalculationID)
	}
	return s.loadCalculation(ctx, strings.TrimSpace(input.ID))
}

// ListCalculations returns history newest first.
func (s *Service) ListCalculations(ctx context.Context, input types.ListCalculationsInput) ([]*types.CalculationProjection, error) {
	if input.Limit < 0 {
		return nil, mapError(ErrInvalidLimit)
	}
	if s.repo == nil {
		return nil, nil
	}
	result, err := s.repo.List(ctx, strings.TrimSpace(input.SubjectID), input.Limit)
	if err != nil {
		return nil, mapError(err)
	}
	return result, nil
}

// DeleteCalculation removes a recorded calculation.
func (s *Service) DeleteCalculation(ctx context.Context, input types.CalculationIdentifier) error {
	id := strings.TrimSpace(input.ID)
	if id == "" {
		return mapError(domain.ErrEmptyCalculationID)
	}
	if s.repo == nil {
		return ports.ErrNotFound
	}
	if err := s.repo.Delete(ctx, id); err != nil {
		return mapError(err)
	}
	return nil
}

// PurgeCalculations drops history recorded before the cutoff.
func (s *Service) PurgeCalculations(ctx context.Context, input types.PurgeCalculationsInput) (int64, error) {
	if input.Before.IsZero() {
		return 0, mapError(domain.ErrMissingTimestamp)
	}
	if s.repo == nil {
		return 0, nil
	}
	removed, err := s.repo.PurgeBefore(ctx, input.Before.UTC())
	if err != nil {
		return 0, mapError(err)
	}
	return removed, nil
}

// Categories lists the classification ladder.
func (s *Service) Categories(_ context.Context) []domain.Category {
	return domain.Categories()
}

// DefaultForm describes the form after a reset.
func (s *Service) DefaultForm(_ context.Context) types.FormState {
	return types.FormState{
		WeightUnit: domain.DefaultWeightUnit,
		HeightUnit: domain.DefaultHeightUnit,
		FocusField: domain.FieldWeight,
	}
}

func (s *Service) replay(ctx context.Context, key, fingerprint string) (*types.CalculationProjection, error) {
	record, err := s.idempotency.Get(ctx, key)
	if err != nil {
		return nil, err
	}
	if record == nil {
		return nil, nil
	}
	if record.RequestHash != fingerprint {
		return nil, ports.ErrIdempotencyConflict
	}
	return s.loadCalculation(ctx, record.CalculationID)
}

func (s *Service) loadCalculation(ctx context.Context, id string) (*types.CalculationProjection, error) {
	if s.repo == nil {
		return nil, ports.ErrNotFound
	}
	projection, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, mapError(err)
	}
	return projection, nil
}

// parseMeasurements checks weight completely before looking at height.
func parseMeasurements(input types.CalculateInput) (domain.WeightMeasurement, domain.HeightMeasurement, error) {
	weightValue, err := parsePositive(domain.FieldWeight, input.Weight.Value)
	if err != nil {
		return domain.WeightMeasurement{}, domain.HeightMeasurement{}, err
	}
	heightValue, err := parsePositive(domain.FieldHeight, input.Height.Value)
	if err != nil {
		return domain.WeightMeasurement{}, domain.HeightMeasurement{}, err
	}
	weight := domain.WeightMeasurement{Value: weightValue, Unit: domain.ParseWeightUnit(input.Weight.Unit)}
	height := domain.HeightMeasurement{Value: heightValue, Unit: domain.ParseHeightUnit(input.Height.Unit)}
	return weight, height, nil
}

func parsePositive(field, raw string) (float64, error) {
	value, err := domain.ParseAmount(field, raw)
	if err != nil {
		return 0, domain.InvalidField(field, "", err)
	}
	if value <= 0 {
		return 0, domain.InvalidField(field, "must be a positive number", nil)
	}
	return value, nil
}

var _ ports.Service = (*Service)(nil)
