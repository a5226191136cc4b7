package ports

import (
	"context"
	"errors"
	"time"

	"github.com/Apurer/go-gin-bmi-server/internal/domains/bmi/application/types"
	"github.com/Apurer/go-gin-bmi-server/internal/domains/bmi/domain"
)

var ErrNotFound = errors.New("calculation not found")

// Repository persists recorded calculations.
type Repository interface {
	Save(ctx context.Context, calc *domain.Calculation) (*types.CalculationProjection, error)
	GetByID(ctx context.Context, id string) (*types.CalculationProjection, error)
	// List returns newest first. An empty subject matches every calculation; limit <= 0 means no limit.
	List(ctx context.Context, subjectID string, limit int) ([]*types.CalculationProjection, error)
	Delete(ctx context.Context, id string) error
	// PurgeBefore deletes calculations recorded strictly before the cutoff and reports how many went.
	PurgeBefore(ctx context.Context, cutoff time.Time) (int64, error)
}
