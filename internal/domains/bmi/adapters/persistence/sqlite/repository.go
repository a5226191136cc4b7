// Package sqlite keeps a local calculation history in a single SQLite file.
package sqlite

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	_ "github.com/mattn/go-sqlite3"

	"github.com/Apurer/go-gin-bmi-server/internal/domains/bmi/application/types"
	"github.com/Apurer/go-gin-bmi-server/internal/domains/bmi/domain"
	"github.com/Apurer/go-gin-bmi-server/internal/domains/bmi/ports"
)

var _ ports.Repository = (*Repository)(nil)

// Fixed width so lexical order matches chronological order.
const timeLayout = "2006-01-02T15:04:05.000000000Z"

// Repository stores calculations in SQLite.
type Repository struct {
	db  *sql.DB
	now func() time.Time
}

// Open opens (or creates) the history file and ensures the schema exists.
func Open(path string) (*Repository, error) {
	if strings.TrimSpace(path) == "" {
		return nil, errors.New("sqlite history path is empty")
	}
	db, err := sql.Open("sqlite3", path)
	if err != nil {
		return nil, err
	}
	if _, err := db.Exec(`PRAGMA journal_mode=WAL;`); err != nil {
		_ = db.Close()
		return nil, err
	}
	repo := &Repository{db: db, now: time.Now}
	if err := repo.ensureSchema(); err != nil {
		_ = db.Close()
		return nil, err
	}
	return repo, nil
}

// WithClock overrides the time source for deterministic testing.
func (r *Repository) WithClock(now func() time.Time) {
	if now != nil {
		r.now = now
	}
}

func (r *Repository) Close() error { return r.db.Close() }

func (r *Repository) ensureSchema() error {
	const createTable = `
CREATE TABLE IF NOT EXISTS calculations (
  id TEXT PRIMARY KEY,
  subject_id TEXT NOT NULL DEFAULT '',
  weight_value REAL NOT NULL,
  weight_unit TEXT NOT NULL,
  height_value REAL NOT NULL,
  height_unit TEXT NOT NULL,
  bmi REAL NOT NULL,
  category TEXT NOT NULL,
  notes_json TEXT NOT NULL DEFAULT '[]',
  calculated_at TEXT NOT NULL,
  created_at TEXT NOT NULL,
  updated_at TEXT NOT NULL
);
`
	if _, err := r.db.Exec(createTable); err != nil {
		return err
	}
	if _, err := r.db.Exec(`CREATE INDEX IF NOT EXISTS idx_calculations_subject ON calculations(subject_id, calculated_at);`); err != nil {
		return err
	}
	return nil
}

// Save inserts or replaces a calculation keyed by ID.
func (r *Repository) Save(ctx context.Context, calc *domain.Calculation) (*types.CalculationProjection, error) {
	if calc == nil {
		return nil, errors.New("calculation is nil")
	}
	if err := calc.Validate(); err != nil {
		return nil, err
	}
	notes, err := json.Marshal(calc.Result.Notes())
	if err != nil {
		return nil, err
	}
	now := formatTime(r.now())
	_, err = r.db.ExecContext(ctx, `
INSERT INTO calculations
(id, subject_id, weight_value, weight_unit, height_value, height_unit, bmi, category, notes_json, calculated_at, created_at, updated_at)
VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
ON CONFLICT(id) DO UPDATE SET
  subject_id = excluded.subject_id,
  weight_value = excluded.weight_value,
  weight_unit = excluded.weight_unit,
  height_value = excluded.height_value,
  height_unit = excluded.height_unit,
  bmi = excluded.bmi,
  category = excluded.category,
  notes_json = excluded.notes_json,
  calculated_at = excluded.calculated_at,
  updated_at = excluded.updated_at
`,
		calc.ID, calc.SubjectID,
		calc.Weight.Value, string(calc.Weight.Unit),
		calc.Height.Value, string(calc.Height.Unit),
		calc.Result.BMI, string(calc.Result.Category.Key), string(notes),
		formatTime(calc.CalculatedAt), now, now,
	)
	if err != nil {
		return nil, err
	}
	return r.GetByID(ctx, calc.ID)
}

const selectColumns = `id, subject_id, weight_value, weight_unit, height_value, height_unit, calculated_at, created_at, updated_at`

// GetByID fetches a calculation by ID.
func (r *Repository) GetByID(ctx context.Context, id string) (*types.CalculationProjection, error) {
	row := r.db.QueryRowContext(ctx, `SELECT `+selectColumns+` FROM calculations WHERE id = ?`, strings.TrimSpace(id))
	projection, err := scanProjection(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ports.ErrNotFound
	}
	return projection, err
}

// List returns calculations newest first.
func (r *Repository) List(ctx context.Context, subjectID string, limit int) ([]*types.CalculationProjection, error) {
	query := `SELECT ` + selectColumns + ` FROM calculations`
	var args []any
	if subjectID = strings.TrimSpace(subjectID); subjectID != "" {
		query += ` WHERE subject_id = ?`
		args = append(args, subjectID)
	}
	query += ` ORDER BY calculated_at DESC, id ASC`
	if limit > 0 {
		query += ` LIMIT ?`
		args = append(args, limit)
	}
	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var result []*types.CalculationProjection
	for rows.Next() {
		projection, err := scanProjection(rows)
		if err != nil {
			return nil, err
		}
		result = append(result, projection)
	}
	return result, rows.Err()
}

// Delete removes a calculation by ID.
func (r *Repository) Delete(ctx context.Context, id string) error {
	res, err := r.db.ExecContext(ctx, `DELETE FROM calculations WHERE id = ?`, strings.TrimSpace(id))
	if err != nil {
		return err
	}
	affected, _ := res.RowsAffected()
	if affected == 0 {
		return ports.ErrNotFound
	}
	return nil
}

// PurgeBefore deletes calculations recorded before the cutoff.
func (r *Repository) PurgeBefore(ctx context.Context, cutoff time.Time) (int64, error) {
	res, err := r.db.ExecContext(ctx, `DELETE FROM calculations WHERE calculated_at < ?`, formatTime(cutoff))
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}

type scanner interface {
	Scan(dest ...any) error
}

// scanProjection recomputes the result from the stored inputs.
func scanProjection(row scanner) (*types.CalculationProjection, error) {
	var (
		id, subjectID, weightUnit, heightUnit string
		weightValue, heightValue              float64
		calculatedAt, createdAt, updatedAt    string
	)
	if err := row.Scan(&id, &subjectID, &weightValue, &weightUnit, &heightValue, &heightUnit, &calculatedAt, &createdAt, &updatedAt); err != nil {
		return nil, err
	}
	weight := domain.WeightMeasurement{Value: weightValue, Unit: domain.WeightUnit(weightUnit)}
	height := domain.HeightMeasurement{Value: heightValue, Unit: domain.HeightUnit(heightUnit)}
	result, err := domain.Calculate(weight, height)
	if err != nil {
		return nil, fmt.Errorf("stored calculation %s: %w", id, err)
	}
	at, err := parseTime(calculatedAt)
	if err != nil {
		return nil, err
	}
	created, err := parseTime(createdAt)
	if err != nil {
		return nil, err
	}
	updated, err := parseTime(updatedAt)
	if err != nil {
		return nil, err
	}
	calc := &domain.Calculation{
		ID:           id,
		SubjectID:    subjectID,
		Weight:       weight,
		Height:       height,
		Result:       result,
		CalculatedAt: at,
	}
	return types.NewCalculationProjection(calc, created, updated), nil
}

func formatTime(t time.Time) string {
	return t.UTC().Format(timeLayout)
}

func parseTime(raw string) (time.Time, error) {
	return time.Parse(timeLayout, raw)
}
