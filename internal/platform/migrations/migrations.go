package migrations

import (
	"time"

	"github.com/lib/pq"
	"gorm.io/gorm"
)

// Run applies the schema for the bounded contexts. Intended to replace adapter-level automigrate.
func Run(db *gorm.DB) error {
	if db == nil {
		return nil
	}
	return db.AutoMigrate(
		&calculationRecord{},
		&idempotencyRecord{},
	)
}

// Calculation schema mirrors the bmi Postgres adapter.
type calculationRecord struct {
	ID                    string         `gorm:"primaryKey;column:id;size:64"`
	SubjectID             string         `gorm:"column:subject_id;size:255;index:idx_bmi_calculations_subject_time"`
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
	CalculatedAt          time.Time      `gorm:"column:calculated_at;index;index:idx_bmi_calculations_subject_time"`
	CreatedAt             time.Time      `gorm:"column:created_at"`
	UpdatedAt             time.Time      `gorm:"column:updated_at"`
}

func (calculationRecord) TableName() string { return "bmi_calculations" }

// Idempotency schema mirrors the bmi idempotency store.
type idempotencyRecord struct {
	Key           string    `gorm:"primaryKey;column:key;size:255"`
	RequestHash   string    `gorm:"column:request_hash;size:128"`
	CalculationID string    `gorm:"column:calculation_id;size:64;index"`
	CreatedAt     time.Time `gorm:"column:created_at;index"`
	UpdatedAt     time.Time `gorm:"column:updated_at"`
}

func (idempotencyRecord) TableName() string { return "bmi_idempotency_keys" }
