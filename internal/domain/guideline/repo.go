package guideline

import (
	"context"

	"github.com/google/uuid"
)

type Repository interface {
	Create(ctx context.Context, r *TreatmentRule) error
	GetByID(ctx context.Context, id uuid.UUID) (*TreatmentRule, error)
	Update(ctx context.Context, r *TreatmentRule) error
	Delete(ctx context.Context, id uuid.UUID) error
	List(ctx context.Context, limit, offset int) ([]*TreatmentRule, int, error)
	ListActiveByDiagnosisCode(ctx context.Context, code string) ([]*TreatmentRule, error)
}
