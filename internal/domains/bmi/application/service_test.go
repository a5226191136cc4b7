package application

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	bmimemory "github.com/Apurer/go-gin-bmi-server/internal/domains/bmi/adapters/memory"
	bmitypes "github.com/Apurer/go-gin-bmi-server/internal/domains/bmi/application/types"
	"github.com/Apurer/go-gin-bmi-server/internal/domains/bmi/domain"
	"github.com/Apurer/go-gin-bmi-server/internal/domains/bmi/ports"
)

type recordingPublisher struct {
	events []ports.CalculationRecorded
	err    error
}

func (p *recordingPublisher) PublishCalculationRecorded(_ context.Context, event ports.CalculationRecorded) error {
	p.events = append(p.events, event)
	return p.err
}

func steppingClock(start time.Time) func() time.Time {
	current := start
	return func() time.Time {
		current = current.Add(time.Minute)
		return current
	}
}

func sequentialIDs() func() string {
	n := 0
	return func() string {
		n++
		return fmt.Sprintf("calc-%d", n)
	}
}

func input(weight, weightUnit, height, heightUnit string) bmitypes.CalculateInput {
	return bmitypes.CalculateInput{
		Weight: bmitypes.RawMeasurement{Value: weight, Unit: weightUnit},
		Height: bmitypes.RawMeasurement{Value: height, Unit: heightUnit},
	}
}

func TestCalculate_Success(t *testing.T) {
	svc := NewService(nil)

	proj, err := svc.Calculate(context.Background(), input(" 70 ", "kg", "1.75", "m"))
	require.NoError(t, err)
	require.NotNil(t, proj.Calculation)
	require.Empty(t, proj.Calculation.ID)
	require.Equal(t, 22.9, proj.Calculation.Result.BMI)
	require.Equal(t, domain.KeyNormal, proj.Calculation.Result.Category.Key)
	require.Equal(t, domain.Kilogram, proj.Calculation.Weight.Unit)
}

func TestCalculate_DefaultsUnits(t *testing.T) {
	svc := NewService(nil)

	proj, err := svc.Calculate(context.Background(), input("70", "", "1.75", ""))
	require.NoError(t, err)
	require.Equal(t, domain.Kilogram, proj.Calculation.Weight.Unit)
	require.Equal(t, domain.Meter, proj.Calculation.Height.Unit)
	require.Equal(t, 22.9, proj.Calculation.Result.BMI)
}

func TestCalculate_InvalidInput(t *testing.T) {
	tests := []struct {
		name     string
		in       bmitypes.CalculateInput
		field    string
		sentinel error
		cause    error
	}{
		{name: "empty weight", in: input("", "kg", "1.75", "m"), field: domain.FieldWeight, sentinel: domain.ErrInvalidWeight, cause: domain.ErrEmptyInput},
		{name: "weight not a number", in: input("abc", "kg", "1.75", "m"), field: domain.FieldWeight, sentinel: domain.ErrInvalidWeight, cause: domain.ErrNotANumber},
		{name: "zero weight", in: input("0", "kg", "1.75", "m"), field: domain.FieldWeight, sentinel: domain.ErrInvalidWeight},
		{name: "negative height", in: input("70", "kg", "-2", "m"), field: domain.FieldHeight, sentinel: domain.ErrInvalidHeight},
		{name: "blank height", in: input("70", "kg", "   ", "m"), field: domain.FieldHeight, sentinel: domain.ErrInvalidHeight, cause: domain.ErrEmptyInput},
		{name: "both invalid reports weight", in: input("-1", "kg", "x", "m"), field: domain.FieldWeight, sentinel: domain.ErrInvalidWeight},
		{name: "infinite height", in: input("70", "kg", "Inf", "m"), field: domain.FieldHeight, sentinel: domain.ErrInvalidHeight, cause: domain.ErrNotFinite},
	}
	svc := NewService(nil)
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := svc.Calculate(context.Background(), tt.in)
			require.ErrorIs(t, err, ErrInvalidInput)
			require.ErrorIs(t, err, tt.sentinel)
			if tt.cause != nil {
				require.ErrorIs(t, err, tt.cause)
			}
			require.Equal(t, tt.field, domain.FieldOf(err))
		})
	}
}

func TestRecordCalculation_PersistsAndPublishes(t *testing.T) {
	repo := bmimemory.NewRepository()
	publisher := &recordingPublisher{}
	svc := NewService(repo,
		WithEventPublisher(publisher),
		WithIDGenerator(sequentialIDs()),
		WithClock(steppingClock(time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC))),
	)

	in := input("100", "kg", "170", "cm")
	in.SubjectID = "alice"
	proj, err := svc.RecordCalculation(context.Background(), in)
	require.NoError(t, err)
	require.Equal(t, "calc-1", proj.Calculation.ID)
	require.Equal(t, "alice", proj.Calculation.SubjectID)
	require.Equal(t, 34.6, proj.Calculation.Result.BMI)
	require.False(t, proj.Metadata.CreatedAt.IsZero())

	stored, err := svc.GetCalculation(context.Background(), bmitypes.CalculationIdentifier{ID: "calc-1"})
	require.NoError(t, err)
	require.Equal(t, proj.Calculation.Result, stored.Calculation.Result)

	require.Len(t, publisher.events, 1)
	assert.Equal(t, "calc-1", publisher.events[0].CalculationID)
	assert.Equal(t, string(domain.KeyObese), publisher.events[0].Category)
}

func TestRecordCalculation_PublisherFailureDoesNotFail(t *testing.T) {
	repo := bmimemory.NewRepository()
	publisher := &recordingPublisher{err: fmt.Errorf("broker down")}
	var logs bytes.Buffer
	svc := NewService(repo, WithEventPublisher(publisher), WithLogger(slog.New(slog.NewTextHandler(&logs, nil))))

	proj, err := svc.RecordCalculation(context.Background(), input("70", "kg", "1.75", "m"))
	require.NoError(t, err)
	require.NotEmpty(t, proj.Calculation.ID)
	assert.Contains(t, logs.String(), "failed to publish calculation recorded event")
	assert.Contains(t, logs.String(), "broker down")
	assert.Contains(t, logs.String(), proj.Calculation.ID)
}

type failingDeleteRepository struct {
	*bmimemory.Repository
}

func (r failingDeleteRepository) Delete(context.Context, string) error {
	return errors.New("disk full")
}

type failingIdempotencyStore struct{}

func (failingIdempotencyStore) Get(context.Context, string) (*ports.IdempotencyRecord, error) {
	return nil, nil
}

func (failingIdempotencyStore) Save(context.Context, ports.IdempotencyRecord) (*ports.IdempotencyRecord, error) {
	return nil, errors.New("store unavailable")
}

func TestRecordCalculation_LogsFailedCompensation(t *testing.T) {
	var logs bytes.Buffer
	svc := NewService(failingDeleteRepository{bmimemory.NewRepository()},
		WithIdempotencyStore(failingIdempotencyStore{}),
		WithIDGenerator(sequentialIDs()),
		WithLogger(slog.New(slog.NewTextHandler(&logs, nil))),
	)

	in := input("70", "kg", "1.75", "m")
	in.IdempotencyKey = "key-1"
	_, err := svc.RecordCalculation(context.Background(), in)
	require.EqualError(t, err, "store unavailable")
	assert.Contains(t, logs.String(), "failed to remove calculation after idempotency save failed")
	assert.Contains(t, logs.String(), "calculationID=calc-1")
	assert.Contains(t, logs.String(), "disk full")
}

func TestRecordCalculation_InvalidInputIsNotStored(t *testing.T) {
	repo := bmimemory.NewRepository()
	svc := NewService(repo)

	_, err := svc.RecordCalculation(context.Background(), input("70", "kg", "0", "m"))
	require.ErrorIs(t, err, ErrInvalidInput)

	list, err := svc.ListCalculations(context.Background(), bmitypes.ListCalculationsInput{})
	require.NoError(t, err)
	require.Empty(t, list)
}

func TestRecordCalculation_IdempotentReplay(t *testing.T) {
	repo := bmimemory.NewRepository()
	publisher := &recordingPublisher{}
	svc := NewService(repo,
		WithIdempotencyStore(bmimemory.NewIdempotencyStore()),
		WithEventPublisher(publisher),
		WithIDGenerator(sequentialIDs()),
	)

	in := input("70", "kg", "1.75", "m")
	in.IdempotencyKey = "key-1"
	first, err := svc.RecordCalculation(context.Background(), in)
	require.NoError(t, err)

	// Same payload with cosmetic differences replays the stored calculation.
	again := input(" 70", "KG", "1.75 ", "meters")
	again.IdempotencyKey = "key-1"
	second, err := svc.RecordCalculation(context.Background(), again)
	require.NoError(t, err)
	require.Equal(t, first.Calculation.ID, second.Calculation.ID)
	require.Len(t, publisher.events, 1)

	list, err := svc.ListCalculations(context.Background(), bmitypes.ListCalculationsInput{})
	require.NoError(t, err)
	require.Len(t, list, 1)
}

func TestRecordCalculation_IdempotencyConflict(t *testing.T) {
	repo := bmimemory.NewRepository()
	svc := NewService(repo, WithIdempotencyStore(bmimemory.NewIdempotencyStore()))

	in := input("70", "kg", "1.75", "m")
	in.IdempotencyKey = "key-1"
	_, err := svc.RecordCalculation(context.Background(), in)
	require.NoError(t, err)

	changed := input("71", "kg", "1.75", "m")
	changed.IdempotencyKey = "key-1"
	_, err = svc.RecordCalculation(context.Background(), changed)
	require.ErrorIs(t, err, ports.ErrIdempotencyConflict)
}

func TestRecordCalculation_RequiresRepository(t *testing.T) {
	svc := NewService(nil)
	_, err := svc.RecordCalculation(context.Background(), input("70", "kg", "1.75", "m"))
	require.Error(t, err)
}

func TestListCalculations_NewestFirstWithLimit(t *testing.T) {
	repo := bmimemory.NewRepository()
	svc := NewService(repo,
		WithIDGenerator(sequentialIDs()),
		WithClock(steppingClock(time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC))),
	)
	for i, subject := range []string{"alice", "bob", "alice"} {
		in := input(fmt.Sprintf("%d", 60+i), "kg", "1.75", "m")
		in.SubjectID = subject
		_, err := svc.RecordCalculation(context.Background(), in)
		require.NoError(t, err)
	}

	all, err := svc.ListCalculations(context.Background(), bmitypes.ListCalculationsInput{})
	require.NoError(t, err)
	require.Len(t, all, 3)
	require.Equal(t, "calc-3", all[0].Calculation.ID)
	require.Equal(t, "calc-1", all[2].Calculation.ID)

	alice, err := svc.ListCalculations(context.Background(), bmitypes.ListCalculationsInput{SubjectID: "alice", Limit: 1})
	require.NoError(t, err)
	require.Len(t, alice, 1)
	require.Equal(t, "calc-3", alice[0].Calculation.ID)

	_, err = svc.ListCalculations(context.Background(), bmitypes.ListCalculationsInput{Limit: -1})
	require.ErrorIs(t, err, ErrInvalidInput)
}

func TestDeleteCalculation(t *testing.T) {
	repo := bmimemory.NewRepository()
	svc := NewService(repo, WithIDGenerator(sequentialIDs()))

	_, err := svc.RecordCalculation(context.Background(), input("70", "kg", "1.75", "m"))
	require.NoError(t, err)

	require.NoError(t, svc.DeleteCalculation(context.Background(), bmitypes.CalculationIdentifier{ID: "calc-1"}))
	require.ErrorIs(t, svc.DeleteCalculation(context.Background(), bmitypes.CalculationIdentifier{ID: "calc-1"}), ports.ErrNotFound)
	require.ErrorIs(t, svc.DeleteCalculation(context.Background(), bmitypes.CalculationIdentifier{ID: " "}), ErrInvalidInput)

	_, err = svc.GetCalculation(context.Background(), bmitypes.CalculationIdentifier{ID: "calc-1"})
	require.ErrorIs(t, err, ports.ErrNotFound)
}

func TestPurgeCalculations(t *testing.T) {
	repo := bmimemory.NewRepository()
	start := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	svc := NewService(repo,
		WithIDGenerator(sequentialIDs()),
		WithClock(steppingClock(start)),
	)
	for i := 0; i < 3; i++ {
		_, err := svc.RecordCalculation(context.Background(), input("70", "kg", "1.75", "m"))
		require.NoError(t, err)
	}

	removed, err := svc.PurgeCalculations(context.Background(), bmitypes.PurgeCalculationsInput{Before: start.Add(150 * time.Second)})
	require.NoError(t, err)
	require.Equal(t, int64(2), removed)

	remaining, err := svc.ListCalculations(context.Background(), bmitypes.ListCalculationsInput{})
	require.NoError(t, err)
	require.Len(t, remaining, 1)
	require.Equal(t, "calc-3", remaining[0].Calculation.ID)

	_, err = svc.PurgeCalculations(context.Background(), bmitypes.PurgeCalculationsInput{})
	require.ErrorIs(t, err, ErrInvalidInput)
}

func TestDefaultFormAndCategories(t *testing.T) {
	svc := NewService(nil)

	form := svc.DefaultForm(context.Background())
	require.Equal(t, domain.Kilogram, form.WeightUnit)
	require.Equal(t, domain.Meter, form.HeightUnit)
	require.Empty(t, form.WeightValue)
	require.Empty(t, form.HeightValue)
	require.Equal(t, domain.FieldWeight, form.FocusField)

	categories := svc.Categories(context.Background())
	require.Len(t, categories, 4)
	require.Equal(t, domain.KeyUnderweight, categories[0].Key)
}

func TestFingerprintCalculation_IgnoresKeyAndFormatting(t *testing.T) {
	a := input("70", "kg", "1.75", "m")
	a.IdempotencyKey = "one"
	b := input(" 70 ", "kilograms", "1.75", "M")
	b.IdempotencyKey = "two"

	fa, err := FingerprintCalculation(a)
	require.NoError(t, err)
	fb, err := FingerprintCalculation(b)
	require.NoError(t, err)
	require.Equal(t, fa, fb)

	c := input("70", "lb", "1.75", "m")
	fc, err := FingerprintCalculation(c)
	require.NoError(t, err)
	require.NotEqual(t, fa, fc)
}
