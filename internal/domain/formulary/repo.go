package formulary

import (
	"context"

	"github.com/google/uuid"
)

type MedicationRepository interface {
	Create(ctx context.Context, m *Medication) error
	GetByID(ctx context.Context, id uuid.UUID) (*Medication, error)
	Update(ctx context.Context, m *Medication) error
	Delete(ctx context.Context, id uuid.UUID) error
	List(ctx context.Context, limit, offset int) ([]*Medication, int, error)
	SearchByName(ctx context.Context, name string, limit, offset int) ([]*Medication, int, error)
	ListActiveAccessAntibiotics(ctx context.Context, limit int) ([]*Medication, error)
}

type InteractionRepository interface {
	Create(ctx context.Context, d *DrugInteraction) error
	GetByID(ctx context.Context, id uuid.UUID) (*DrugInteraction, error)
	Update(ctx context.Context, d *DrugInteraction) error
	Delete(ctx context.Context, id uuid.UUID) error
	List(ctx context.Context, limit, offset int) ([]*DrugInteraction, int, error)
	// FindBetween returns the active interaction for the unordered pair, or nil
	// if none is recorded.
	FindBetween(ctx context.Context, a, b uuid.UUID) (*DrugInteraction, error)
}
