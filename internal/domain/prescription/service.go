package prescription

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/rxguard/rxguard/internal/domain/patient"
	"github.com/rxguard/rxguard/internal/domain/recommendation"
	"github.com/rxguard/rxguard/internal/domain/safety"
)

var (
	ErrPrescriptionNotFound = errors.New("prescription not found")

	// ErrBlockedBySafety means at least one critical alert cannot be
	// overridden; the prescription is rejected unconditionally.
	ErrBlockedBySafety = errors.New("prescription blocked by non-overridable safety alert")

	// ErrJustificationRequired means a critical alert can be overridden but
	// the request carried no justification for it.
	ErrJustificationRequired = errors.New("override justification required for critical safety alert")
)

// ContextBuilder assembles the evaluation snapshot for a patient.
type ContextBuilder interface {
	BuildContext(ctx context.Context, patientID uuid.UUID) (*patient.Context, error)
}

// SafetyChecker evaluates a proposed therapy against a patient snapshot.
type SafetyChecker interface {
	PerformSafetyCheck(ctx context.Context, pc *patient.Context, proposed []safety.ProposedMedication) (*safety.CheckResult, error)
}

// Recommender produces guideline-driven treatment suggestions.
type Recommender interface {
	GetRecommendations(ctx context.Context, pc *patient.Context, cc patient.ClinicalContext) (*recommendation.Result, error)
}

// TxRunner executes fn atomically. Production wiring backs it with
// db.WithTx over the pgx pool.
type TxRunner func(ctx context.Context, fn func(ctx context.Context) error) error

type Service struct {
	repo        Repository
	contexts    ContextBuilder
	safety      SafetyChecker
	recommender Recommender
	runTx       TxRunner
	logger      zerolog.Logger
}

func NewService(repo Repository, contexts ContextBuilder, checker SafetyChecker, recommender Recommender, runTx TxRunner, logger zerolog.Logger) *Service {
	return &Service{
		repo:        repo,
		contexts:    contexts,
		safety:      checker,
		recommender: recommender,
		runTx:       runTx,
		logger:      logger,
	}
}

type ItemInput struct {
	MedicationID uuid.UUID `json:"medication_id"`
	Dose         string    `json:"dose"`
	Frequency    *string   `json:"frequency,omitempty"`
	Route        *string   `json:"route,omitempty"`
	Duration     *string   `json:"duration,omitempty"`
}

// AlertOverride acknowledges one critical alert. The message must match the
// alert being overridden; clients obtain it from a prior safety check.
type AlertOverride struct {
	AlertMessage  string `json:"alert_message"`
	Justification string `json:"justification"`
}

type CreateInput struct {
	PatientID uuid.UUID       `json:"patient_id"`
	Notes     *string         `json:"notes,omitempty"`
	Items     []ItemInput     `json:"items"`
	Overrides []AlertOverride `json:"overrides,omitempty"`
}

func (in *CreateInput) validate() error {
	if in.PatientID == uuid.Nil {
		return fmt.Errorf("patient_id is required")
	}
	if len(in.Items) == 0 {
		return fmt.Errorf("at least one item is required")
	}
	for i, item := range in.Items {
		if item.MedicationID == uuid.Nil {
			return fmt.Errorf("items[%d]: medication_id is required", i)
		}
		if item.Dose == "" {
			return fmt.Errorf("items[%d]: dose is required", i)
		}
	}
	return nil
}

// Create runs the full safety gate before persisting anything. Every safety
// finding is stored alongside the prescription so the override trail is
// auditable later.
func (s *Service) Create(ctx context.Context, prescriberID string, in *CreateInput) (*Prescription, error) {
	if err := in.validate(); err != nil {
		return nil, err
	}

	pc, err := s.contexts.BuildContext(ctx, in.PatientID)
	if err != nil {
		return nil, err
	}

	proposed := make([]safety.ProposedMedication, 0, len(in.Items))
	for _, item := range in.Items {
		proposed = append(proposed, safety.ProposedMedication{MedicationID: item.MedicationID, Dose: item.Dose})
	}

	check, err := s.safety.PerformSafetyCheck(ctx, pc, proposed)
	if err != nil {
		return nil, err
	}

	if check.RequiresOverride {
		s.logger.Warn().
			Str("patient_id", in.PatientID.String()).
			Str("prescriber_id", prescriberID).
			Int("critical_alerts", len(check.CriticalAlerts)).
			Msg("prescription blocked by safety check")
		return nil, ErrBlockedBySafety
	}

	overridden := make(map[string]string)
	if !check.Safe {
		for _, alert := range check.CriticalAlerts {
			justification := findJustification(in.Overrides, alert.Message)
			if justification == "" {
				return nil, fmt.Errorf("%w: %s", ErrJustificationRequired, alert.Message)
			}
			overridden[alert.Message] = justification
		}
	}

	p := &Prescription{
		PatientID:    in.PatientID,
		PrescriberID: prescriberID,
		Status:       StatusActive,
		Notes:        in.Notes,
	}
	err = s.runTx(ctx, func(ctx context.Context) error {
		if err := s.repo.Create(ctx, p); err != nil {
			return fmt.Errorf("create prescription: %w", err)
		}
		for _, item := range in.Items {
			it := &PrescriptionItem{
				PrescriptionID: p.ID,
				MedicationID:   item.MedicationID,
				Dose:           item.Dose,
				Frequency:      item.Frequency,
				Route:          item.Route,
				Duration:       item.Duration,
			}
			if err := s.repo.AddItem(ctx, it); err != nil {
				return fmt.Errorf("add item: %w", err)
			}
			p.Items = append(p.Items, it)
		}
		for _, alert := range check.Alerts {
			pa := alertFromFinding(alert)
			pa.PrescriptionID = p.ID
			if justification, ok := overridden[alert.Message]; ok && alert.Severity == safety.SeverityCritical {
				pa.Overridden = true
				pa.OverrideJustification = &justification
			}
			if err := s.repo.AddAlert(ctx, pa); err != nil {
				return fmt.Errorf("add alert: %w", err)
			}
			p.Alerts = append(p.Alerts, pa)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.logger.Info().
		Str("prescription_id", p.ID.String()).
		Str("patient_id", in.PatientID.String()).
		Str("prescriber_id", prescriberID).
		Int("items", len(p.Items)).
		Int("alerts", len(p.Alerts)).
		Bool("overridden", len(overridden) > 0).
		Msg("prescription created")
	return p, nil
}

func findJustification(overrides []AlertOverride, message string) string {
	for _, o := range overrides {
		if o.AlertMessage == message && o.Justification != "" {
			return o.Justification
		}
	}
	return ""
}

func (s *Service) Get(ctx context.Context, id uuid.UUID) (*Prescription, error) {
	return s.repo.GetByID(ctx, id)
}

func (s *Service) List(ctx context.Context, limit, offset int) ([]*Prescription, int, error) {
	return s.repo.List(ctx, limit, offset)
}

func (s *Service) ListByPatient(ctx context.Context, patientID uuid.UUID, limit, offset int) ([]*Prescription, int, error) {
	return s.repo.ListByPatient(ctx, patientID, limit, offset)
}

func (s *Service) Cancel(ctx context.Context, id uuid.UUID) error {
	return s.repo.UpdateStatus(ctx, id, StatusCancelled)
}

// Suggest asks the rules engine for treatment recommendations against the
// patient's current snapshot.
func (s *Service) Suggest(ctx context.Context, patientID uuid.UUID, cc patient.ClinicalContext) (*recommendation.Result, error) {
	pc, err := s.contexts.BuildContext(ctx, patientID)
	if err != nil {
		return nil, err
	}
	return s.recommender.GetRecommendations(ctx, pc, cc)
}

// CheckSafety runs the safety engine without persisting anything, so clients
// can preview alerts before committing a prescription.
func (s *Service) CheckSafety(ctx context.Context, patientID uuid.UUID, proposed []safety.ProposedMedication) (*safety.CheckResult, error) {
	pc, err := s.contexts.BuildContext(ctx, patientID)
	if err != nil {
		return nil, err
	}
	return s.safety.PerformSafetyCheck(ctx, pc, proposed)
}
