package application

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"strings"

	"github.com/Apurer/go-gin-bmi-server/internal/domains/bmi/application/types"
	"github.com/Apurer/go-gin-bmi-server/internal/domains/bmi/domain"
)

type normalizedCalculateInput struct {
	SubjectID string                `json:"subjectId"`
	Weight    normalizedMeasurement `json:"weight"`
	Height    normalizedMeasurement `json:"height"`
}

type normalizedMeasurement struct {
	Value string `json:"value"`
	Unit  string `json:"unit"`
}

// FingerprintCalculation builds a deterministic hash of the record request payload (excluding the idempotency key).
func FingerprintCalculation(input types.CalculateInput) (string, error) {
	normalized := normalizeCalculateInput(input)
	payload, err := json.Marshal(normalized)
	if err != nil {
		return "", err
	}
	sum := sha256.Sum256(payload)
	return hex.EncodeToString(sum[:]), nil
}

func normalizeCalculateInput(input types.CalculateInput) normalizedCalculateInput {
	return normalizedCalculateInput{
		SubjectID: strings.TrimSpace(input.SubjectID),
		Weight: normalizedMeasurement{
			Value: strings.TrimSpace(input.Weight.Value),
			Unit:  string(domain.ParseWeightUnit(input.Weight.Unit)),
		},
		Height: normalizedMeasurement{
			Value: strings.TrimSpace(input.Height.Value),
			Unit:  string(domain.ParseHeightUnit(input.Height.Unit)),
		},
	}
}
