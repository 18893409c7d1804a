package formulary

import (
	"context"
	"errors"

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

// =========== Medication Repository ===========

type medicationRepoPG struct{ pool *pgxpool.Pool }

func NewMedicationRepoPG(pool *pgxpool.Pool) MedicationRepository {
	return &medicationRepoPG{pool: pool}
}

func (r *medicationRepoPG) conn(ctx context.Context) queryable {
	if tx := db.TxFromContext(ctx); tx != nil {
		return tx
	}
	return r.pool
}

const medicationCols = `id, generic_name, brand_name, atc_code, aware_category, is_antibiotic,
	therapeutic_class, dosage_form, strength, route, active, created_at, updated_at`

func (r *medicationRepoPG) scanMedication(row pgx.Row) (*Medication, error) {
	var m Medication
	err := row.Scan(&m.ID, &m.GenericName, &m.BrandName, &m.ATCCode, &m.AWaReCategory, &m.IsAntibiotic,
		&m.TherapeuticClass, &m.DosageForm, &m.Strength, &m.Route, &m.Active, &m.CreatedAt, &m.UpdatedAt)
	return &m, err
}

func (r *medicationRepoPG) Create(ctx context.Context, m *Medication) error {
	m.ID = uuid.New()
	_, err := r.conn(ctx).Exec(ctx, `
		INSERT INTO medication (id, generic_name, brand_name, atc_code, aware_category, is_antibiotic,
			therapeutic_class, dosage_form, strength, route, active)
		VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11)`,
		m.ID, m.GenericName, m.BrandName, m.ATCCode, m.AWaReCategory, m.IsAntibiotic,
		m.TherapeuticClass, m.DosageForm, m.Strength, m.Route, m.Active)
	return err
}

func (r *medicationRepoPG) GetByID(ctx context.Context, id uuid.UUID) (*Medication, error) {
	m, err := r.scanMedication(r.conn(ctx).QueryRow(ctx,
		`SELECT `+medicationCols+` FROM medication WHERE id = $1`, id))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrMedicationNotFound
	}
	if err != nil {
		return nil, err
	}
	return m, nil
}

func (r *medicationRepoPG) Update(ctx context.Context, m *Medication) error {
	_, err := r.conn(ctx).Exec(ctx, `
		UPDATE medication SET generic_name=$2, brand_name=$3, atc_code=$4, aware_category=$5,
			is_antibiotic=$6, therapeutic_class=$7, dosage_form=$8, strength=$9, route=$10,
			active=$11, updated_at=NOW()
		WHERE id = $1`,
		m.ID, m.GenericName, m.BrandName, m.ATCCode, m.AWaReCategory,
		m.IsAntibiotic, m.TherapeuticClass, m.DosageForm, m.Strength, m.Route, m.Active)
	return err
}

func (r *medicationRepoPG) Delete(ctx context.Context, id uuid.UUID) error {
	_, err := r.conn(ctx).Exec(ctx, `DELETE FROM medication WHERE id = $1`, id)
	return err
}

func (r *medicationRepoPG) List(ctx context.Context, limit, offset int) ([]*Medication, int, error) {
	var total int
	if err := r.conn(ctx).QueryRow(ctx, `SELECT COUNT(*) FROM medication`).Scan(&total); err != nil {
		return nil, 0, err
	}
	rows, err := r.conn(ctx).Query(ctx,
		`SELECT `+medicationCols+` FROM medication ORDER BY generic_name ASC LIMIT $1 OFFSET $2`, limit, offset)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()
	var items []*Medication
	for rows.Next() {
		m, err := r.scanMedication(rows)
		if err != nil {
			return nil, 0, err
		}
		items = append(items, m)
	}
	return items, total, nil
}

func (r *medicationRepoPG) SearchByName(ctx context.Context, name string, limit, offset int) ([]*Medication, int, error) {
	pattern := "%" + name + "%"
	var total int
	if err := r.conn(ctx).QueryRow(ctx,
		`SELECT COUNT(*) FROM medication WHERE generic_name ILIKE $1 OR brand_name ILIKE $1`,
		pattern).Scan(&total); err != nil {
		return nil, 0, err
	}
	rows, err := r.conn(ctx).Query(ctx,
		`SELECT `+medicationCols+` FROM medication
		 WHERE generic_name ILIKE $1 OR brand_name ILIKE $1
		 ORDER BY generic_name ASC LIMIT $2 OFFSET $3`, pattern, limit, offset)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()
	var items []*Medication
	for rows.Next() {
		m, err := r.scanMedication(rows)
		if err != nil {
			return nil, 0, err
		}
		items = append(items, m)
	}
	return items, total, nil
}

func (r *medicationRepoPG) ListActiveAccessAntibiotics(ctx context.Context, limit int) ([]*Medication, error) {
	rows, err := r.conn(ctx).Query(ctx,
		`SELECT `+medicationCols+` FROM medication
		 WHERE active = TRUE AND is_antibiotic = TRUE AND aware_category = $1
		 ORDER BY generic_name ASC LIMIT $2`, AWaReAccess, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var items []*Medication
	for rows.Next() {
		m, err := r.scanMedication(rows)
		if err != nil {
			return nil, err
		}
		items = append(items, m)
	}
	return items, nil
}

// =========== Drug Interaction Repository ===========

type interactionRepoPG struct{ pool *pgxpool.Pool }

func NewInteractionRepoPG(pool *pgxpool.Pool) InteractionRepository {
	return &interactionRepoPG{pool: pool}
}

func (r *interactionRepoPG) conn(ctx context.Context) queryable {
	if tx := db.TxFromContext(ctx); tx != nil {
		return tx
	}
	return r.pool
}

const interactionCols = `id, medication_a_id, medication_b_id, severity, description, management,
	active, created_at, updated_at`

func (r *interactionRepoPG) scanInteraction(row pgx.Row) (*DrugInteraction, error) {
	var d DrugInteraction
	err := row.Scan(&d.ID, &d.MedicationAID, &d.MedicationBID, &d.Severity, &d.Description, &d.Management,
		&d.Active, &d.CreatedAt, &d.UpdatedAt)
	return &d, err
}

func (r *interactionRepoPG) Create(ctx context.Context, d *DrugInteraction) error {
	d.ID = uuid.New()
	_, err := r.conn(ctx).Exec(ctx, `
		INSERT INTO drug_interaction (id, medication_a_id, medication_b_id, severity, description, management, active)
		VALUES ($1,$2,$3,$4,$5,$6,$7)`,
		d.ID, d.MedicationAID, d.MedicationBID, d.Severity, d.Description, d.Management, d.Active)
	return err
}

func (r *interactionRepoPG) GetByID(ctx context.Context, id uuid.UUID) (*DrugInteraction, error) {
	return r.scanInteraction(r.conn(ctx).QueryRow(ctx,
		`SELECT `+interactionCols+` FROM drug_interaction WHERE id = $1`, id))
}

func (r *interactionRepoPG) Update(ctx context.Context, d *DrugInteraction) error {
	_, err := r.conn(ctx).Exec(ctx, `
		UPDATE drug_interaction SET severity=$2, description=$3, management=$4, active=$5, updated_at=NOW()
		WHERE id = $1`,
		d.ID, d.Severity, d.Description, d.Management, d.Active)
	return err
}

func (r *interactionRepoPG) Delete(ctx context.Context, id uuid.UUID) error {
	_, err := r.conn(ctx).Exec(ctx, `DELETE FROM drug_interaction WHERE id = $1`, id)
	return err
}

func (r *interactionRepoPG) List(ctx context.Context, limit, offset int) ([]*DrugInteraction, int, error) {
	var total int
	if err := r.conn(ctx).QueryRow(ctx, `SELECT COUNT(*) FROM drug_interaction`).Scan(&total); err != nil {
		return nil, 0, err
	}
	rows, err := r.conn(ctx).Query(ctx,
		`SELECT `+interactionCols+` FROM drug_interaction ORDER BY created_at DESC LIMIT $1 OFFSET $2`, limit, offset)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()
	var items []*DrugInteraction
	for rows.Next() {
		d, err := r.scanInteraction(rows)
		if err != nil {
			return nil, 0, err
		}
		items = append(items, d)
	}
	return items, total, nil
}

func (r *interactionRepoPG) FindBetween(ctx context.Context, a, b uuid.UUID) (*DrugInteraction, error) {
	d, err := r.scanInteraction(r.conn(ctx).QueryRow(ctx, `
		SELECT `+interactionCols+` FROM drug_interaction
		WHERE active = TRUE
		  AND ((medication_a_id = $1 AND medication_b_id = $2)
		    OR (medication_a_id = $2 AND medication_b_id = $1))
		LIMIT 1`, a, b))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return d, nil
}
