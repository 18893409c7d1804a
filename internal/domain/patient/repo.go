package patient

import (
	"context"

	"github.com/google/uuid"
)

type Repository interface {
	Create(ctx context.Context, p *Patient) error
	GetByID(ctx context.Context, id uuid.UUID) (*Patient, error)
	Update(ctx context.Context, p *Patient) error
	Delete(ctx context.Context, id uuid.UUID) error
	List(ctx context.Context, limit, offset int) ([]*Patient, int, error)
	// Allergies
	AddAllergy(ctx context.Context, a *PatientAllergy) error
	GetAllergies(ctx context.Context, patientID uuid.UUID) ([]*PatientAllergy, error)
	RemoveAllergy(ctx context.Context, id uuid.UUID) error
	// Conditions
	AddCondition(ctx context.Context, c *PatientCondition) error
	GetActiveConditions(ctx context.Context, patientID uuid.UUID) ([]*PatientCondition, error)
	RemoveCondition(ctx context.Context, id uuid.UUID) error
	// Current medications
	AddMedication(ctx context.Context, m *PatientMedication) error
	GetActiveMedications(ctx context.Context, patientID uuid.UUID) ([]*PatientMedication, error)
	RemoveMedication(ctx context.Context, id uuid.UUID) error
}
