package patient

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

type repoPG struct{ pool *pgxpool.Pool }

func NewRepoPG(pool *pgxpool.Pool) Repository { return &repoPG{pool: pool} }

func (r *repoPG) conn(ctx context.Context) queryable {
	if tx := db.TxFromContext(ctx); tx != nil {
		return tx
	}
	return r.pool
}

const patientCols = `id, mrn, first_name, last_name, birth_date, gender, weight_kg, body_surface_area,
	is_pregnant, is_lactating, egfr, hepatic_function, active, created_at, updated_at`

func (r *repoPG) scanPatient(row pgx.Row) (*Patient, error) {
	var p Patient
	err := row.Scan(&p.ID, &p.MRN, &p.FirstName, &p.LastName, &p.BirthDate, &p.Gender, &p.WeightKG, &p.BodySurfaceArea,
		&p.IsPregnant, &p.IsLactating, &p.EGFR, &p.HepaticFunction, &p.Active, &p.CreatedAt, &p.UpdatedAt)
	return &p, err
}

func (r *repoPG) Create(ctx context.Context, p *Patient) error {
	p.ID = uuid.New()
	_, err := r.conn(ctx).Exec(ctx, `
		INSERT INTO patient (id, mrn, first_name, last_name, birth_date, gender, weight_kg, body_surface_area,
			is_pregnant, is_lactating, egfr, hepatic_function, active)
		VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12,$13)`,
		p.ID, p.MRN, p.FirstName, p.LastName, p.BirthDate, p.Gender, p.WeightKG, p.BodySurfaceArea,
		p.IsPregnant, p.IsLactating, p.EGFR, p.HepaticFunction, p.Active)
	return err
}

func (r *repoPG) GetByID(ctx context.Context, id uuid.UUID) (*Patient, error) {
	p, err := r.scanPatient(r.conn(ctx).QueryRow(ctx,
		`SELECT `+patientCols+` FROM patient WHERE id = $1`, id))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrPatientNotFound
	}
	if err != nil {
		return nil, err
	}
	return p, nil
}

func (r *repoPG) Update(ctx context.Context, p *Patient) error {
	_, err := r.conn(ctx).Exec(ctx, `
		UPDATE patient SET mrn=$2, first_name=$3, last_name=$4, birth_date=$5, gender=$6,
			weight_kg=$7, body_surface_area=$8, is_pregnant=$9, is_lactating=$10,
			egfr=$11, hepatic_function=$12, active=$13, updated_at=NOW()
		WHERE id = $1`,
		p.ID, p.MRN, p.FirstName, p.LastName, p.BirthDate, p.Gender,
		p.WeightKG, p.BodySurfaceArea, p.IsPregnant, p.IsLactating,
		p.EGFR, p.HepaticFunction, p.Active)
	return err
}

func (r *repoPG) Delete(ctx context.Context, id uuid.UUID) error {
	_, err := r.conn(ctx).Exec(ctx, `DELETE FROM patient WHERE id = $1`, id)
	return err
}

func (r *repoPG) List(ctx context.Context, limit, offset int) ([]*Patient, int, error) {
	var total int
	if err := r.conn(ctx).QueryRow(ctx, `SELECT COUNT(*) FROM patient`).Scan(&total); err != nil {
		return nil, 0, err
	}
	rows, err := r.conn(ctx).Query(ctx,
		`SELECT `+patientCols+` FROM patient ORDER BY created_at DESC LIMIT $1 OFFSET $2`, limit, offset)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()
	var items []*Patient
	for rows.Next() {
		p, err := r.scanPatient(rows)
		if err != nil {
			return nil, 0, err
		}
		items = append(items, p)
	}
	return items, total, nil
}

// -- Allergies --

func (r *repoPG) AddAllergy(ctx context.Context, a *PatientAllergy) error {
	a.ID = uuid.New()
	_, err := r.conn(ctx).Exec(ctx, `
		INSERT INTO patient_allergy (id, patient_id, allergen, severity, reaction)
		VALUES ($1,$2,$3,$4,$5)`,
		a.ID, a.PatientID, a.Allergen, a.Severity, a.Reaction)
	return err
}

func (r *repoPG) GetAllergies(ctx context.Context, patientID uuid.UUID) ([]*PatientAllergy, error) {
	rows, err := r.conn(ctx).Query(ctx, `
		SELECT id, patient_id, allergen, severity, reaction, recorded_at
		FROM patient_allergy WHERE patient_id = $1 ORDER BY recorded_at ASC`, patientID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var items []*PatientAllergy
	for rows.Next() {
		var a PatientAllergy
		if err := rows.Scan(&a.ID, &a.PatientID, &a.Allergen, &a.Severity, &a.Reaction, &a.RecordedAt); err != nil {
			return nil, err
		}
		items = append(items, &a)
	}
	return items, nil
}

func (r *repoPG) RemoveAllergy(ctx context.Context, id uuid.UUID) error {
	_, err := r.conn(ctx).Exec(ctx, `DELETE FROM patient_allergy WHERE id = $1`, id)
	return err
}

// -- Conditions --

func (r *repoPG) AddCondition(ctx context.Context, c *PatientCondition) error {
	c.ID = uuid.New()
	_, err := r.conn(ctx).Exec(ctx, `
		INSERT INTO patient_condition (id, patient_id, diagnosis_code, diagnosis_name, active, onset_date)
		VALUES ($1,$2,$3,$4,$5,$6)`,
		c.ID, c.PatientID, c.DiagnosisCode, c.DiagnosisName, c.Active, c.OnsetDate)
	return err
}

func (r *repoPG) GetActiveConditions(ctx context.Context, patientID uuid.UUID) ([]*PatientCondition, error) {
	rows, err := r.conn(ctx).Query(ctx, `
		SELECT id, patient_id, diagnosis_code, diagnosis_name, active, onset_date, recorded_at
		FROM patient_condition WHERE patient_id = $1 AND active = TRUE ORDER BY recorded_at ASC`, patientID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var items []*PatientCondition
	for rows.Next() {
		var c PatientCondition
		if err := rows.Scan(&c.ID, &c.PatientID, &c.DiagnosisCode, &c.DiagnosisName, &c.Active, &c.OnsetDate, &c.RecordedAt); err != nil {
			return nil, err
		}
		items = append(items, &c)
	}
	return items, nil
}

func (r *repoPG) RemoveCondition(ctx context.Context, id uuid.UUID) error {
	_, err := r.conn(ctx).Exec(ctx, `DELETE FROM patient_condition WHERE id = $1`, id)
	return err
}

// -- Current medications --

func (r *repoPG) AddMedication(ctx context.Context, m *PatientMedication) error {
	m.ID = uuid.New()
	_, err := r.conn(ctx).Exec(ctx, `
		INSERT INTO patient_medication (id, patient_id, medication_id, generic_name, dose, active, started_at)
		VALUES ($1,$2,$3,$4,$5,$6,$7)`,
		m.ID, m.PatientID, m.MedicationID, m.GenericName, m.Dose, m.Active, m.StartedAt)
	return err
}

func (r *repoPG) GetActiveMedications(ctx context.Context, patientID uuid.UUID) ([]*PatientMedication, error) {
	rows, err := r.conn(ctx).Query(ctx, `
		SELECT id, patient_id, medication_id, generic_name, dose, active, started_at, stopped_at, recorded_at
		FROM patient_medication WHERE patient_id = $1 AND active = TRUE ORDER BY recorded_at ASC`, patientID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var items []*PatientMedication
	for rows.Next() {
		var m PatientMedication
		if err := rows.Scan(&m.ID, &m.PatientID, &m.MedicationID, &m.GenericName, &m.Dose, &m.Active, &m.StartedAt, &m.StoppedAt, &m.RecordedAt); err != nil {
			return nil, err
		}
		items = append(items, &m)
	}
	return items, nil
}

func (r *repoPG) RemoveMedication(ctx context.Context, id uuid.UUID) error {
	_, err := r.conn(ctx).Exec(ctx, `DELETE FROM patient_medication WHERE id = $1`, id)
	return err
}
