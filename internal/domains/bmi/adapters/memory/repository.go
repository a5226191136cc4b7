package memory

import (
	"context"
	"errors"
	"sort"
	"sync"
	"time"

	"github.com/Apurer/go-gin-bmi-server/internal/domains/bmi/application/types"
	"github.com/Apurer/go-gin-bmi-server/internal/domains/bmi/domain"
	"github.com/Apurer/go-gin-bmi-server/internal/domains/bmi/ports"
)

var _ ports.Repository = (*Repository)(nil)

// Repository is an in-memory calculation history used for demos/tests.
type Repository struct {
	mu           sync.RWMutex
	calculations map[string]*storedCalculation
	now          func() time.Time
}

type storedCalculation struct {
	calculation domain.Calculation
	metadata    types.CalculationMetadata
}

// NewRepository constructs an empty in-memory history.
func NewRepository() *Repository {
	return &Repository{
		calculations: map[string]*storedCalculation{},
		now:          time.Now,
	}
}

// WithClock overrides the time source for deterministic testing.
func (r *Repository) WithClock(now func() time.Time) {
	if now != nil {
		r.now = now
	}
}

// Save inserts or replaces a calculation while maintaining metadata.
func (r *Repository) Save(_ context.Context, calc *domain.Calculation) (*types.CalculationProjection, error) {
	if calc == nil {
		return nil, errors.New("cannot save nil calculation")
	}
	if err := calc.Validate(); err != nil {
		return nil, err
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	timestamp := r.now()
	metadata := types.CalculationMetadata{CreatedAt: timestamp, UpdatedAt: timestamp}
	if entry, ok := r.calculations[calc.ID]; ok {
		metadata.CreatedAt = entry.metadata.CreatedAt
	}
	stored := &storedCalculation{calculation: *calc, metadata: metadata}
	r.calculations[calc.ID] = stored
	return projectionCopy(stored), nil
}

// GetByID fetches a calculation if present.
func (r *Repository) GetByID(_ context.Context, id string) (*types.CalculationProjection, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	entry, ok := r.calculations[id]
	if !ok {
		return nil, ports.ErrNotFound
	}
	return projectionCopy(entry), nil
}

// List returns the newest calculations first.
func (r *Repository) List(_ context.Context, subjectID string, limit int) ([]*types.CalculationProjection, error) {
	r.mu.RLock()
	entries := make([]*storedCalculation, 0, len(r.calculations))
	for _, entry := range r.calculations {
		if subjectID != "" && entry.calculation.SubjectID != subjectID {
			continue
		}
		entries = append(entries, entry)
	}
	r.mu.RUnlock()

	sort.Slice(entries, func(i, j int) bool {
		a, b := entries[i].calculation, entries[j].calculation
		if !a.CalculatedAt.Equal(b.CalculatedAt) {
			return a.CalculatedAt.After(b.CalculatedAt)
		}
		return a.ID < b.ID
	})
	if limit > 0 && len(entries) > limit {
		entries = entries[:limit]
	}
	result := make([]*types.CalculationProjection, 0, len(entries))
	for _, entry := range entries {
		result = append(result, projectionCopy(entry))
	}
	return result, nil
}

// Delete removes a calculation.
func (r *Repository) Delete(_ context.Context, id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.calculations[id]; !ok {
		return ports.ErrNotFound
	}
	delete(r.calculations, id)
	return nil
}

// PurgeBefore removes calculations recorded before the cutoff.
func (r *Repository) PurgeBefore(_ context.Context, cutoff time.Time) (int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var removed int64
	for id, entry := range r.calculations {
		if entry.calculation.CalculatedAt.Before(cutoff) {
			delete(r.calculations, id)
			removed++
		}
	}
	return removed, nil
}

func projectionCopy(entry *storedCalculation) *types.CalculationProjection {
	calc := entry.calculation
	return &types.CalculationProjection{Calculation: &calc, Metadata: entry.metadata}
}
