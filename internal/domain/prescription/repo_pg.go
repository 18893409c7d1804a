package prescription

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

func NewRepoPG(pool *pgxpool.Pool) Repository {
	return &repoPG{pool: pool}
}

func (r *repoPG) conn(ctx context.Context) queryable {
	if tx := db.TxFromContext(ctx); tx != nil {
		return tx
	}
	return r.pool
}

const prescriptionCols = `id, patient_id, prescriber_id, status, notes, created_at, updated_at`

func (r *repoPG) scanPrescription(row pgx.Row) (*Prescription, error) {
	var p Prescription
	err := row.Scan(&p.ID, &p.PatientID, &p.PrescriberID, &p.Status, &p.Notes, &p.CreatedAt, &p.UpdatedAt)
	return &p, err
}

func (r *repoPG) Create(ctx context.Context, p *Prescription) error {
	p.ID = uuid.New()
	_, err := r.conn(ctx).Exec(ctx, `
		INSERT INTO prescription (id, patient_id, prescriber_id, status, notes)
		VALUES ($1,$2,$3,$4,$5)`,
		p.ID, p.PatientID, p.PrescriberID, p.Status, p.Notes)
	return err
}

func (r *repoPG) GetByID(ctx context.Context, id uuid.UUID) (*Prescription, error) {
	p, err := r.scanPrescription(r.conn(ctx).QueryRow(ctx,
		`SELECT `+prescriptionCols+` FROM prescription WHERE id = $1`, id))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrPrescriptionNotFound
	}
	if err != nil {
		return nil, err
	}
	if p.Items, err = r.GetItems(ctx, p.ID); err != nil {
		return nil, err
	}
	if p.Alerts, err = r.GetAlerts(ctx, p.ID); err != nil {
		return nil, err
	}
	return p, nil
}

func (r *repoPG) List(ctx context.Context, limit, offset int) ([]*Prescription, int, error) {
	var total int
	if err := r.conn(ctx).QueryRow(ctx, `SELECT COUNT(*) FROM prescription`).Scan(&total); err != nil {
		return nil, 0, err
	}
	rows, err := r.conn(ctx).Query(ctx,
		`SELECT `+prescriptionCols+` FROM prescription ORDER BY created_at DESC LIMIT $1 OFFSET $2`, limit, offset)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()
	var items []*Prescription
	for rows.Next() {
		p, err := r.scanPrescription(rows)
		if err != nil {
			return nil, 0, err
		}
		items = append(items, p)
	}
	return items, total, nil
}

func (r *repoPG) ListByPatient(ctx context.Context, patientID uuid.UUID, limit, offset int) ([]*Prescription, int, error) {
	var total int
	if err := r.conn(ctx).QueryRow(ctx,
		`SELECT COUNT(*) FROM prescription WHERE patient_id = $1`, patientID).Scan(&total); err != nil {
		return nil, 0, err
	}
	rows, err := r.conn(ctx).Query(ctx,
		`SELECT `+prescriptionCols+` FROM prescription
		 WHERE patient_id = $1 ORDER BY created_at DESC LIMIT $2 OFFSET $3`, patientID, limit, offset)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()
	var items []*Prescription
	for rows.Next() {
		p, err := r.scanPrescription(rows)
		if err != nil {
			return nil, 0, err
		}
		items = append(items, p)
	}
	return items, total, nil
}

func (r *repoPG) UpdateStatus(ctx context.Context, id uuid.UUID, status string) error {
	tag, err := r.conn(ctx).Exec(ctx,
		`UPDATE prescription SET status = $2, updated_at = NOW() WHERE id = $1`, id, status)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrPrescriptionNotFound
	}
	return nil
}

func (r *repoPG) AddItem(ctx context.Context, item *PrescriptionItem) error {
	item.ID = uuid.New()
	_, err := r.conn(ctx).Exec(ctx, `
		INSERT INTO prescription_item (id, prescription_id, medication_id, dose, frequency, route, duration)
		VALUES ($1,$2,$3,$4,$5,$6,$7)`,
		item.ID, item.PrescriptionID, item.MedicationID, item.Dose, item.Frequency, item.Route, item.Duration)
	return err
}

func (r *repoPG) GetItems(ctx context.Context, prescriptionID uuid.UUID) ([]*PrescriptionItem, error) {
	rows, err := r.conn(ctx).Query(ctx, `
		SELECT id, prescription_id, medication_id, dose, frequency, route, duration, created_at
		FROM prescription_item WHERE prescription_id = $1 ORDER BY created_at ASC`, prescriptionID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var items []*PrescriptionItem
	for rows.Next() {
		var it PrescriptionItem
		if err := rows.Scan(&it.ID, &it.PrescriptionID, &it.MedicationID, &it.Dose,
			&it.Frequency, &it.Route, &it.Duration, &it.CreatedAt); err != nil {
			return nil, err
		}
		items = append(items, &it)
	}
	return items, nil
}

func (r *repoPG) AddAlert(ctx context.Context, alert *PrescriptionAlert) error {
	alert.ID = uuid.New()
	_, err := r.conn(ctx).Exec(ctx, `
		INSERT INTO prescription_alert (id, prescription_id, hazard_type, severity, message, rationale,
			overridden, override_justification)
		VALUES ($1,$2,$3,$4,$5,$6,$7,$8)`,
		alert.ID, alert.PrescriptionID, alert.HazardType, alert.Severity, alert.Message, alert.Rationale,
		alert.Overridden, alert.OverrideJustification)
	return err
}

func (r *repoPG) GetAlerts(ctx context.Context, prescriptionID uuid.UUID) ([]*PrescriptionAlert, error) {
	rows, err := r.conn(ctx).Query(ctx, `
		SELECT id, prescription_id, hazard_type, severity, message, rationale, overridden,
			override_justification, created_at
		FROM prescription_alert WHERE prescription_id = $1 ORDER BY created_at ASC`, prescriptionID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var alerts []*PrescriptionAlert
	for rows.Next() {
		var a PrescriptionAlert
		if err := rows.Scan(&a.ID, &a.PrescriptionID, &a.HazardType, &a.Severity, &a.Message,
			&a.Rationale, &a.Overridden, &a.OverrideJustification, &a.CreatedAt); err != nil {
			return nil, err
		}
		alerts = append(alerts, &a)
	}
	return alerts, nil
}
