package formulary

import (
	"context"
	"sort"
	"testing"

	"github.com/google/uuid"
)

// ── Mock Repositories ──

type mockMedicationRepo struct {
	data map[uuid.UUID]*Medication
}

func (m *mockMedicationRepo) Create(_ context.Context, med *Medication) error {
	med.ID = uuid.New()
	m.data[med.ID] = med
	return nil
}
func (m *mockMedicationRepo) GetByID(_ context.Context, id uuid.UUID) (*Medication, error) {
	if med, ok := m.data[id]; ok {
		return med, nil
	}
	return nil, ErrMedicationNotFound
}
func (m *mockMedicationRepo) Update(_ context.Context, med *Medication) error {
	if _, ok := m.data[med.ID]; !ok {
		return ErrMedicationNotFound
	}
	m.data[med.ID] = med
	return nil
}
func (m *mockMedicationRepo) Delete(_ context.Context, id uuid.UUID) error {
	delete(m.data, id)
	return nil
}
func (m *mockMedicationRepo) List(_ context.Context, limit, offset int) ([]*Medication, int, error) {
	var out []*Medication
	for _, med := range m.data {
		out = append(out, med)
	}
	return out, len(out), nil
}
func (m *mockMedicationRepo) SearchByName(_ context.Context, name string, limit, offset int) ([]*Medication, int, error) {
	var out []*Medication
	for _, med := range m.data {
		if med.GenericName == name {
			out = append(out, med)
		}
	}
	return out, len(out), nil
}
func (m *mockMedicationRepo) ListActiveAccessAntibiotics(_ context.Context, limit int) ([]*Medication, error) {
	var out []*Medication
	for _, med := range m.data {
		if med.Active && med.IsAntibiotic && med.AWaReCategory == AWaReAccess {
			out = append(out, med)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].GenericName < out[j].GenericName })
	if len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

type mockInteractionRepo struct {
	data map[uuid.UUID]*DrugInteraction
}

func (m *mockInteractionRepo) Create(_ context.Context, d *DrugInteraction) error {
	d.ID = uuid.New()
	m.data[d.ID] = d
	return nil
}
func (m *mockInteractionRepo) GetByID(_ context.Context, id uuid.UUID) (*DrugInteraction, error) {
	if d, ok := m.data[id]; ok {
		return d, nil
	}
	return nil, ErrMedicationNotFound
}
func (m *mockInteractionRepo) Update(_ context.Context, d *DrugInteraction) error {
	m.data[d.ID] = d
	return nil
}
func (m *mockInteractionRepo) Delete(_ context.Context, id uuid.UUID) error {
	delete(m.data, id)
	return nil
}
func (m *mockInteractionRepo) List(_ context.Context, limit, offset int) ([]*DrugInteraction, int, error) {
	var out []*DrugInteraction
	for _, d := range m.data {
		out = append(out, d)
	}
	return out, len(out), nil
}
func (m *mockInteractionRepo) FindBetween(_ context.Context, a, b uuid.UUID) (*DrugInteraction, error) {
	for _, d := range m.data {
		if !d.Active {
			continue
		}
		if (d.MedicationAID == a && d.MedicationBID == b) || (d.MedicationAID == b && d.MedicationBID == a) {
			return d, nil
		}
	}
	return nil, nil
}

func newTestService() (*Service, *mockMedicationRepo, *mockInteractionRepo) {
	meds := &mockMedicationRepo{data: make(map[uuid.UUID]*Medication)}
	inter := &mockInteractionRepo{data: make(map[uuid.UUID]*DrugInteraction)}
	return NewService(meds, inter), meds, inter
}

// ── Tests ──

func TestCreateMedication_RequiresGenericName(t *testing.T) {
	svc, _, _ := newTestService()
	err := svc.CreateMedication(context.Background(), &Medication{})
	if err == nil {
		t.Fatal("expected error for missing generic_name")
	}
}

func TestCreateMedication_DefaultsAWaReCategory(t *testing.T) {
	svc, _, _ := newTestService()
	m := &Medication{GenericName: "Paracetamol"}
	if err := svc.CreateMedication(context.Background(), m); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if m.AWaReCategory != AWaReNotApplicable {
		t.Errorf("expected default category %s, got %s", AWaReNotApplicable, m.AWaReCategory)
	}
}

func TestCreateMedication_RejectsInvalidCategory(t *testing.T) {
	svc, _, _ := newTestService()
	err := svc.CreateMedication(context.Background(), &Medication{
		GenericName:   "Amoxicillin",
		AWaReCategory: "restricted",
	})
	if err == nil {
		t.Fatal("expected error for invalid aware_category")
	}
}

func TestGetMedication_NotFound(t *testing.T) {
	svc, _, _ := newTestService()
	_, err := svc.GetMedication(context.Background(), uuid.New())
	if err != ErrMedicationNotFound {
		t.Fatalf("expected ErrMedicationNotFound, got %v", err)
	}
}

func TestFindActiveAccessAntibiotics_FiltersAndSorts(t *testing.T) {
	svc, meds, _ := newTestService()
	ctx := context.Background()
	for _, m := range []*Medication{
		{GenericName: "Doxycycline", AWaReCategory: AWaReWatch, IsAntibiotic: true, Active: true},
		{GenericName: "Cephalexin", AWaReCategory: AWaReAccess, IsAntibiotic: true, Active: true},
		{GenericName: "Amoxicillin", AWaReCategory: AWaReAccess, IsAntibiotic: true, Active: true},
		{GenericName: "Ibuprofen", AWaReCategory: AWaReNotApplicable, IsAntibiotic: false, Active: true},
		{GenericName: "Ampicillin", AWaReCategory: AWaReAccess, IsAntibiotic: true, Active: false},
	} {
		if err := meds.Create(ctx, m); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
	}

	out, err := svc.FindActiveAccessAntibiotics(ctx, 5)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(out) != 2 {
		t.Fatalf("expected 2 access antibiotics, got %d", len(out))
	}
	if out[0].GenericName != "Amoxicillin" || out[1].GenericName != "Cephalexin" {
		t.Errorf("unexpected ordering: %s, %s", out[0].GenericName, out[1].GenericName)
	}
}

func TestCreateInteraction_Validation(t *testing.T) {
	svc, _, _ := newTestService()
	ctx := context.Background()
	a, b := uuid.New(), uuid.New()

	if err := svc.CreateInteraction(ctx, &DrugInteraction{MedicationBID: b, Severity: SeverityMajor}); err == nil {
		t.Error("expected error for missing medication_a_id")
	}
	if err := svc.CreateInteraction(ctx, &DrugInteraction{MedicationAID: a, MedicationBID: a, Severity: SeverityMajor}); err == nil {
		t.Error("expected error for identical medication pair")
	}
	if err := svc.CreateInteraction(ctx, &DrugInteraction{MedicationAID: a, MedicationBID: b, Severity: "fatal"}); err == nil {
		t.Error("expected error for invalid severity")
	}
	if err := svc.CreateInteraction(ctx, &DrugInteraction{MedicationAID: a, MedicationBID: b, Severity: SeverityMajor, Active: true}); err != nil {
		t.Errorf("unexpected error: %v", err)
	}
}

func TestFindInteraction_Symmetric(t *testing.T) {
	svc, _, inter := newTestService()
	ctx := context.Background()
	a, b := uuid.New(), uuid.New()

	d := &DrugInteraction{MedicationAID: a, MedicationBID: b, Severity: SeverityMajor, Active: true}
	if err := inter.Create(ctx, d); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	forward, err := svc.FindInteraction(ctx, a, b)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	reverse, err := svc.FindInteraction(ctx, b, a)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if forward == nil || reverse == nil {
		t.Fatal("expected interaction for both orderings")
	}
	if forward.ID != reverse.ID {
		t.Error("expected same interaction record for both orderings")
	}
}

func TestFindInteraction_NoneRecorded(t *testing.T) {
	svc, _, _ := newTestService()
	d, err := svc.FindInteraction(context.Background(), uuid.New(), uuid.New())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if d != nil {
		t.Error("expected nil for unrecorded pair")
	}
}
