package ports

import (
	"context"
	"time"
)

// CalculationRecorded is emitted after a calculation lands in the history.
type CalculationRecorded struct {
	CalculationID       string    `json:"calculationId"`
	SubjectID           string    `json:"subjectId,omitempty"`
	BMI                 float64   `json:"bmi"`
	Category            string    `json:"category"`
	HeightAutoCorrected bool      `json:"heightAutoCorrected"`
	RecordedAt          time.Time `json:"recordedAt"`
}

// EventPublisher fans calculation events out to downstream consumers.
type EventPublisher interface {
	PublishCalculationRecorded(ctx context.Context, event CalculationRecorded) error
}

// NoopEventPublisher is a safe default when no broker is configured.
var NoopEventPublisher EventPublisher = noopEventPublisher{}

type noopEventPublisher struct{}

func (noopEventPublisher) PublishCalculationRecorded(_ context.Context, _ CalculationRecorded) error {
	return nil
}
