package prescription

import (
	"context"

	"github.com/google/uuid"
)

type Repository interface {
	Create(ctx context.Context, p *Prescription) error
	GetByID(ctx context.Context, id uuid.UUID) (*Prescription, error)
	List(ctx context.Context, limit, offset int) ([]*Prescription, int, error)
	ListByPatient(ctx context.Context, patientID uuid.UUID, limit, offset int) ([]*Prescription, int, error)
	UpdateStatus(ctx context.Context, id uuid.UUID, status string) error

	AddItem(ctx context.Context, item *PrescriptionItem) error
	GetItems(ctx context.Context, prescriptionID uuid.UUID) ([]*PrescriptionItem, error)

	AddAlert(ctx context.Context, alert *PrescriptionAlert) error
	GetAlerts(ctx context.Context, prescriptionID uuid.UUID) ([]*PrescriptionAlert, error)
}
