package domain

import (
	"errors"
	"strings"
	"time"
)

var (
	ErrEmptyCalculationID = errors.New("calculation id is required")
	ErrMissingTimestamp   = errors.New("calculation timestamp is required")
)

// Calculation is a recorded result together with the measurements that produced it.
type Calculation struct {
	ID           string
	SubjectID    string
	Weight       WeightMeasurement
	Height       HeightMeasurement
	Result       Result
	CalculatedAt time.Time
}

// NewCalculation builds a history entry ensuring required invariants.
func NewCalculation(id, subjectID string, w WeightMeasurement, h HeightMeasurement, result Result, at time.Time) (*Calculation, error) {
	c := &Calculation{
		ID:           strings.TrimSpace(id),
		SubjectID:    strings.TrimSpace(subjectID),
		Weight:       w,
		Height:       h,
		Result:       result,
		CalculatedAt: at.UTC(),
	}
	if err := c.Validate(); err != nil {
		return nil, err
	}
	return c, nil
}

// Validate re-applies core invariants for persistence.
func (c *Calculation) Validate() error {
	if strings.TrimSpace(c.ID) == "" {
		return ErrEmptyCalculationID
	}
	if c.CalculatedAt.IsZero() {
		return ErrMissingTimestamp
	}
	if _, err := Normalize(c.Weight, c.Height); err != nil {
		return err
	}
	return nil
}

// Notes returns advisory lines to show alongside the main message.
func (r Result) Notes() []string {
	if r.HeightAutoCorrected {
		return []string{HeightAutoCorrectedNote}
	}
	return nil
}

// HeightAutoCorrectedNote is shown when the centimeter heuristic rewrote the height.
const HeightAutoCorrectedNote = "Note: You entered height like centimeters but unit was meters — I converted it automatically."
