package guideline

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/google/uuid"

	"github.com/rxguard/rxguard/internal/domain/patient"
)

// ── Mock Repository ──

type mockRepo struct {
	data map[uuid.UUID]*TreatmentRule
}

func (m *mockRepo) Create(_ context.Context, r *TreatmentRule) error {
	r.ID = uuid.New()
	m.data[r.ID] = r
	return nil
}
func (m *mockRepo) GetByID(_ context.Context, id uuid.UUID) (*TreatmentRule, error) {
	if r, ok := m.data[id]; ok {
		return r, nil
	}
	return nil, fmt.Errorf("not found")
}
func (m *mockRepo) Update(_ context.Context, r *TreatmentRule) error {
	if _, ok := m.data[r.ID]; !ok {
		return fmt.Errorf("not found")
	}
	m.data[r.ID] = r
	return nil
}
func (m *mockRepo) Delete(_ context.Context, id uuid.UUID) error {
	delete(m.data, id)
	return nil
}
func (m *mockRepo) List(_ context.Context, limit, offset int) ([]*TreatmentRule, int, error) {
	var out []*TreatmentRule
	for _, r := range m.data {
		out = append(out, r)
	}
	return out, len(out), nil
}
func (m *mockRepo) ListActiveByDiagnosisCode(_ context.Context, code string) ([]*TreatmentRule, error) {
	var out []*TreatmentRule
	for _, r := range m.data {
		if r.Active && r.MatchesDiagnosisCode(code) {
			out = append(out, r)
		}
	}
	return out, nil
}

func intPtr(i int) *int          { return &i }
func strPtr(s string) *string    { return &s }

// ── Tests ──

func TestCreate_Validation(t *testing.T) {
	svc := NewService(&mockRepo{data: make(map[uuid.UUID]*TreatmentRule)})
	ctx := context.Background()
	medID := uuid.New()

	if err := svc.Create(ctx, &TreatmentRule{
		DiagnosisCodes: []string{"J18.9"}, FirstLineMedicationID: medID,
	}); err == nil {
		t.Error("expected error for missing name")
	}
	if err := svc.Create(ctx, &TreatmentRule{
		Name: "CAP adult", FirstLineMedicationID: medID,
	}); err == nil {
		t.Error("expected error for missing diagnosis codes")
	}
	if err := svc.Create(ctx, &TreatmentRule{
		Name: "CAP adult", DiagnosisCodes: []string{"J18.9"},
	}); err == nil {
		t.Error("expected error for missing first-line medication")
	}
	if err := svc.Create(ctx, &TreatmentRule{
		Name: "CAP adult", DiagnosisCodes: []string{"J18.9"},
		FirstLineMedicationID: medID, EvidenceLevel: strPtr("D"),
	}); err == nil {
		t.Error("expected error for invalid evidence level")
	}
	if err := svc.Create(ctx, &TreatmentRule{
		Name: "CAP adult", DiagnosisCodes: []string{"J18.9"},
		FirstLineMedicationID: medID,
		Alternatives:          []Alternative{{MedicationID: uuid.New()}},
	}); err == nil {
		t.Error("expected error for alternative without reason")
	}
	if err := svc.Create(ctx, &TreatmentRule{
		Name: "CAP adult", DiagnosisCodes: []string{"J18.9"},
		FirstLineMedicationID: medID, EvidenceLevel: strPtr(EvidenceLevelA),
		Active: true,
	}); err != nil {
		t.Errorf("unexpected error: %v", err)
	}
}

func TestFindActiveRulesByDiagnosisCode_EmptyCode(t *testing.T) {
	svc := NewService(&mockRepo{data: make(map[uuid.UUID]*TreatmentRule)})
	rules, err := svc.FindActiveRulesByDiagnosisCode(context.Background(), "")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if rules != nil {
		t.Error("expected no rules for empty diagnosis code")
	}
}

func TestMostRecentlyUpdated(t *testing.T) {
	base := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	older := &TreatmentRule{Name: "older", UpdatedAt: base}
	newer := &TreatmentRule{Name: "newer", UpdatedAt: base.Add(time.Hour)}

	if got := MostRecentlyUpdated([]*TreatmentRule{older, newer}); got != newer {
		t.Errorf("expected newer rule, got %s", got.Name)
	}
	if got := MostRecentlyUpdated(nil); got != nil {
		t.Error("expected nil for empty input")
	}
}

func TestMostRecentlyUpdated_TieBreaksOnName(t *testing.T) {
	at := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	b := &TreatmentRule{Name: "bravo", UpdatedAt: at}
	a := &TreatmentRule{Name: "alpha", UpdatedAt: at}

	if got := MostRecentlyUpdated([]*TreatmentRule{b, a}); got != a {
		t.Errorf("expected alpha on timestamp tie, got %s", got.Name)
	}
	// Same winner regardless of input order.
	if got := MostRecentlyUpdated([]*TreatmentRule{a, b}); got != a {
		t.Errorf("expected alpha on timestamp tie, got %s", got.Name)
	}
}

func TestCriterion_AgeBetween(t *testing.T) {
	c := Criterion{Type: CriterionAgeBetween, MinAge: intPtr(18), MaxAge: intPtr(65)}
	tests := []struct {
		age  int
		want bool
	}{
		{17, false}, {18, true}, {40, true}, {65, true}, {66, false},
	}
	for _, tt := range tests {
		got, err := c.Matches(&patient.Context{Age: tt.age})
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if got != tt.want {
			t.Errorf("age %d: got %v, want %v", tt.age, got, tt.want)
		}
	}
}

func TestCriterion_ExcludesCondition(t *testing.T) {
	c := Criterion{Type: CriterionExcludesCondition, Condition: "renal failure"}

	pc := &patient.Context{Age: 40, Conditions: []patient.Condition{{Code: "N17", Name: "Acute Renal Failure"}}}
	got, err := c.Matches(pc)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got {
		t.Error("expected false when excluded condition is present")
	}

	pc = &patient.Context{Age: 40, Conditions: []patient.Condition{{Code: "J45", Name: "Asthma"}}}
	got, err = c.Matches(pc)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !got {
		t.Error("expected true when excluded condition is absent")
	}
}

func TestCriterion_GenderIs(t *testing.T) {
	c := Criterion{Type: CriterionGenderIs, Gender: "female"}
	got, err := c.Matches(&patient.Context{Age: 30, Gender: "Female"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !got {
		t.Error("expected case-insensitive gender match")
	}
}

func TestCriterion_UnknownType(t *testing.T) {
	c := Criterion{Type: "weight-above"}
	if _, err := c.Matches(&patient.Context{Age: 30}); err == nil {
		t.Error("expected error for unknown criterion type")
	}
	if err := c.Validate(); err == nil {
		t.Error("expected validation error for unknown criterion type")
	}
}

func TestMatchesAll(t *testing.T) {
	criteria := []Criterion{
		{Type: CriterionAgeBetween, MinAge: intPtr(18)},
		{Type: CriterionExcludesCondition, Condition: "pregnancy"},
	}
	pc := &patient.Context{Age: 30}
	ok, err := MatchesAll(criteria, pc)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !ok {
		t.Error("expected all criteria to match")
	}

	pc = &patient.Context{Age: 12}
	ok, err = MatchesAll(criteria, pc)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if ok {
		t.Error("expected age criterion to fail")
	}

	ok, err = MatchesAll(nil, pc)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !ok {
		t.Error("expected empty criteria to match everything")
	}
}
