package postgres

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/lib/pq"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/Apurer/go-gin-bmi-server/internal/domains/bmi/application/types"
	"github.com/Apurer/go-gin-bmi-server/internal/domains/bmi/domain"
	"github.com/Apurer/go-gin-bmi-server/internal/domains/bmi/ports"
)

var _ ports.Repository = (*Repository)(nil)

// Repository persists calculation history in PostgreSQL using GORM.
type Repository struct {
	db *gorm.DB
}

// NewRepository wires a PostgreSQL-backed repository. Caller manages DB lifecycle and migrations.
func NewRepository(db *gorm.DB) *Repository {
	return &Repository{db: db}
}

type calculationRecord struct {
	ID                    string         `gorm:"primaryKey;column:id;size:64"`
	SubjectID             string         `gorm:"column:subject_id;size:255;index"`
	WeightValue           float64        `gorm:"column:weight_value"`
	WeightUnit            string         `gorm:"column:weight_unit;type:varchar(16)"`
	HeightValue           float64        `gorm:"column:height_value"`
	HeightUnit            string         `gorm:"column:height_unit;type:varchar(16)"`
	MassKg                float64        `gorm:"column:mass_kg"`
	HeightM               float64        `gorm:"column:height_m"`
	BMI                   float64        `gorm:"column:bmi"`
	Category              string         `gorm:"column:category;type:varchar(32);index"`
	HealthyMinKg          float64        `gorm:"column:healthy_min_kg"`
	HealthyMaxKg          float64        `gorm:"column:healthy_max_kg"`
	RecommendationKind    string         `gorm:"column:recommendation_kind;type:varchar(16)"`
	RecommendationDeltaKg float64        `gorm:"column:recommendation_delta_kg"`
	RecommendationMessage string         `gorm:"column:recommendation_message"`
	HeightAutoCorrected   bool           `gorm:"column:height_auto_corrected"`
	Notes                 pq.StringArray `gorm:"column:notes;type:text[]"`
	CalculatedAt          time.Time      `gorm:"column:calculated_at;index"`
	CreatedAt             time.Time      `gorm:"column:created_at"`
	UpdatedAt             time.Time      `gorm:"column:updated_at"`
}

func (calculationRecord) TableName() string { return "bmi_calculations" }

// Save inserts or replaces a calculation keyed by ID.
func (r *Repository) Save(ctx context.Context, calc *domain.Calculation) (*types.CalculationProjection, error) {
	if err := r.ensureDB(); err != nil {
		return nil, err
	}
	if calc == nil {
		return nil, errors.New("calculation is nil")
	}
	if err := calc.Validate(); err != nil {
		return nil, err
	}
	record := toRecord(calc)
	if err := r.db.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns: []clause.Column{{Name: "id"}},
			DoUpdates: clause.AssignmentColumns([]string{
				"subject_id", "weight_value", "weight_unit", "height_value", "height_unit",
				"mass_kg", "height_m", "bmi", "category", "healthy_min_kg", "healthy_max_kg",
				"recommendation_kind", "recommendation_delta_kg", "recommendation_message",
				"height_auto_corrected", "notes", "calculated_at", "updated_at",
			}),
		}).
		Create(&record).Error; err != nil {
		return nil, err
	}
	return r.GetByID(ctx, record.ID)
}

// GetByID fetches a calculation by ID.
func (r *Repository) GetByID(ctx context.Context, id string) (*types.CalculationProjection, error) {
	if err := r.ensureDB(); err != nil {
		return nil, err
	}
	var record calculationRecord
	if err := r.db.WithContext(ctx).First(&record, "id = ?", strings.TrimSpace(id)).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ports.ErrNotFound
		}
		return nil, err
	}
	return record.toProjection(), nil
}

// List returns calculations newest first, optionally scoped to one subject.
func (r *Repository) List(ctx context.Context, subjectID string, limit int) ([]*types.CalculationProjection, error) {
	if err := r.ensureDB(); err != nil {
		return nil, err
	}
	query := r.db.WithContext(ctx).Order("calculated_at DESC").Order("id ASC")
	if subjectID = strings.TrimSpace(subjectID); subjectID != "" {
		query = query.Where("subject_id = ?", subjectID)
	}
	if limit > 0 {
		query = query.Limit(limit)
	}
	var records []calculationRecord
	if err := query.Find(&records).Error; err != nil {
		return nil, err
	}
	result := make([]*types.CalculationProjection, 0, len(records))
	for i := range records {
		result = append(result, records[i].toProjection())
	}
	return result, nil
}

// Delete removes a calculation by ID.
func (r *Repository) Delete(ctx context.Context, id string) error {
	if err := r.ensureDB(); err != nil {
		return err
	}
	result := r.db.WithContext(ctx).Where("id = ?", strings.TrimSpace(id)).Delete(&calculationRecord{})
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return ports.ErrNotFound
	}
	return nil
}

// PurgeBefore deletes calculations recorded before the cutoff.
func (r *Repository) PurgeBefore(ctx context.Context, cutoff time.Time) (int64, error) {
	if err := r.ensureDB(); err != nil {
		return 0, err
	}
	result := r.db.WithContext(ctx).Where("calculated_at < ?", cutoff).Delete(&calculationRecord{})
	if result.Error != nil {
		return 0, result.Error
	}
	return result.RowsAffected, nil
}

func (r *Repository) ensureDB() error {
	if r == nil || r.db == nil {
		return errors.New("postgres calculation repository not configured")
	}
	return nil
}

func toRecord(calc *domain.Calculation) calculationRecord {
	result := calc.Result
	return calculationRecord{
		ID:                    calc.ID,
		SubjectID:             calc.SubjectID,
		WeightValue:           calc.Weight.Value,
		WeightUnit:            string(calc.Weight.Unit),
		HeightValue:           calc.Height.Value,
		HeightUnit:            string(calc.Height.Unit),
		MassKg:                result.Inputs.MassKg,
		HeightM:               result.Inputs.HeightM,
		BMI:                   result.BMI,
		Category:              string(result.Category.Key),
		HealthyMinKg:          result.HealthyRange.MinKg,
		HealthyMaxKg:          result.HealthyRange.MaxKg,
		RecommendationKind:    string(result.Recommendation.Kind),
		RecommendationDeltaKg: result.Recommendation.DeltaKg,
		RecommendationMessage: result.Recommendation.Message,
		HeightAutoCorrected:   result.HeightAutoCorrected,
		Notes:                 pq.StringArray(result.Notes()),
		CalculatedAt:          calc.CalculatedAt,
	}
}

func (r calculationRecord) toProjection() *types.CalculationProjection {
	category, ok := domain.CategoryByKey(r.Category)
	if !ok {
		category = domain.Classify(r.BMI)
	}
	calc := &domain.Calculation{
		ID:        r.ID,
		SubjectID: r.SubjectID,
		Weight:    domain.WeightMeasurement{Value: r.WeightValue, Unit: domain.WeightUnit(r.WeightUnit)},
		Height:    domain.HeightMeasurement{Value: r.HeightValue, Unit: domain.HeightUnit(r.HeightUnit)},
		Result: domain.Result{
			BMI:      r.BMI,
			Category: category,
			HealthyRange: domain.HealthyRange{
				MinKg: r.HealthyMinKg,
				MaxKg: r.HealthyMaxKg,
			},
			Recommendation: domain.Recommendation{
				Kind:    domain.RecommendationKind(r.RecommendationKind),
				DeltaKg: r.RecommendationDeltaKg,
				Message: r.RecommendationMessage,
			},
			HeightAutoCorrected: r.HeightAutoCorrected,
			Inputs: domain.NormalizedInputs{
				MassKg:              r.MassKg,
				HeightM:             r.HeightM,
				HeightAutoCorrected: r.HeightAutoCorrected,
			},
		},
		CalculatedAt: r.CalculatedAt.UTC(),
	}
	return types.NewCalculationProjection(calc, r.CreatedAt, r.UpdatedAt)
}
