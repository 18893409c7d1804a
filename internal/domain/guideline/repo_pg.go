package guideline

import (
	"context"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/rxguard/rxguard/internal/platform/db"
)

type queryable interface {
	Query(ctx context.Context, sql string, args ...interface{}) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...interface{}) pgx.Row
	Exec(ctx context.Context, sql string, args ...interface{}) (pgconn.CommandTag, error)
}

type repoPG struct{ pool *pgxpool.Pool }

func NewRepoPG(pool *pgxpool.Pool) Repository { return &repoPG{pool: pool} }

func (r *repoPG) conn(ctx context.Context) queryable {
	if tx := db.TxFromContext(ctx); tx != nil {
		return tx
	}
	return r.pool
}

const ruleCols = `id, name, diagnosis_codes, criteria, first_line_medication_id, first_line_dose,
	alternatives, aware_preference, guideline_source, evidence_level, active, created_at, updated_at`

func (r *repoPG) scanRule(row pgx.Row) (*TreatmentRule, error) {
	var rule TreatmentRule
	err := row.Scan(&rule.ID, &rule.Name, &rule.DiagnosisCodes, &rule.Criteria,
		&rule.FirstLineMedicationID, &rule.FirstLineDose, &rule.Alternatives,
		&rule.AWaRePreference, &rule.GuidelineSource, &rule.EvidenceLevel,
		&rule.Active, &rule.CreatedAt, &rule.UpdatedAt)
	return &rule, err
}

func (r *repoPG) Create(ctx context.Context, rule *TreatmentRule) error {
	rule.ID = uuid.New()
	_, err := r.conn(ctx).Exec(ctx, `
		INSERT INTO treatment_rule (id, name, diagnosis_codes, criteria, first_line_medication_id,
			first_line_dose, alternatives, aware_preference, guideline_source, evidence_level, active)
		VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11)`,
		rule.ID, rule.Name, rule.DiagnosisCodes, rule.Criteria, rule.FirstLineMedicationID,
		rule.FirstLineDose, rule.Alternatives, rule.AWaRePreference, rule.GuidelineSource,
		rule.EvidenceLevel, rule.Active)
	return err
}

func (r *repoPG) GetByID(ctx context.Context, id uuid.UUID) (*TreatmentRule, error) {
	return r.scanRule(r.conn(ctx).QueryRow(ctx,
		`SELECT `+ruleCols+` FROM treatment_rule WHERE id = $1`, id))
}

func (r *repoPG) Update(ctx context.Context, rule *TreatmentRule) error {
	_, err := r.conn(ctx).Exec(ctx, `
		UPDATE treatment_rule SET name=$2, diagnosis_codes=$3, criteria=$4, first_line_medication_id=$5,
			first_line_dose=$6, alternatives=$7, aware_preference=$8, guideline_source=$9,
			evidence_level=$10, active=$11, updated_at=NOW()
		WHERE id = $1`,
		rule.ID, rule.Name, rule.DiagnosisCodes, rule.Criteria, rule.FirstLineMedicationID,
		rule.FirstLineDose, rule.Alternatives, rule.AWaRePreference, rule.GuidelineSource,
		rule.EvidenceLevel, rule.Active)
	return err
}

func (r *repoPG) Delete(ctx context.Context, id uuid.UUID) error {
	_, err := r.conn(ctx).Exec(ctx, `DELETE FROM treatment_rule WHERE id = $1`, id)
	return err
}

func (r *repoPG) List(ctx context.Context, limit, offset int) ([]*TreatmentRule, int, error) {
	var total int
	if err := r.conn(ctx).QueryRow(ctx, `SELECT COUNT(*) FROM treatment_rule`).Scan(&total); err != nil {
		return nil, 0, err
	}
	rows, err := r.conn(ctx).Query(ctx,
		`SELECT `+ruleCols+` FROM treatment_rule ORDER BY updated_at DESC LIMIT $1 OFFSET $2`, limit, offset)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()
	var items []*TreatmentRule
	for rows.Next() {
		rule, err := r.scanRule(rows)
		if err != nil {
			return nil, 0, err
		}
		items = append(items, rule)
	}
	return items, total, nil
}

func (r *repoPG) ListActiveByDiagnosisCode(ctx context.Context, code string) ([]*TreatmentRule, error) {
	rows, err := r.conn(ctx).Query(ctx, `
		SELECT `+ruleCols+` FROM treatment_rule
		WHERE active = TRUE AND $1 = ANY(diagnosis_codes)
		ORDER BY updated_at DESC, name ASC`, code)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var items []*TreatmentRule
	for rows.Next() {
		rule, err := r.scanRule(rows)
		if err != nil {
			return nil, err
		}
		items = append(items, rule)
	}
	return items, nil
}
