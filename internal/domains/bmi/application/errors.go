package application

import (
	"errors"
	"fmt"

	"github.com/Apurer/go-gin-bmi-server/internal/domains/bmi/domain"
)

// ErrInvalidInput signals the request violated a domain invariant.
var ErrInvalidInput = errors.New("invalid bmi input")

// ErrInvalidLimit is returned for negative history page sizes.
var ErrInvalidLimit = errors.New("limit must not be negative")

func mapError(err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, domain.ErrInvalidWeight) ||
		errors.Is(err, domain.ErrInvalidHeight) ||
		errors.Is(err, domain.ErrEmptyCalculationID) ||
		errors.Is(err, domain.ErrMissingTimestamp) ||
		errors.Is(err, ErrInvalidLimit) {
		return fmt.Errorf("%w: %w", ErrInvalidInput, err)
	}
	return err
}
