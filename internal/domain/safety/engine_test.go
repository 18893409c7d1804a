package safety

import (
	"context"
	"reflect"
	"testing"

	"github.com/google/uuid"

	"github.com/rxguard/rxguard/internal/domain/formulary"
	"github.com/rxguard/rxguard/internal/domain/patient"
)

// ── Mock Catalog ──

type mockCatalog struct {
	meds             map[uuid.UUID]*formulary.Medication
	interactions     []*formulary.DrugInteraction
	interactionCalls int
}

func newMockCatalog() *mockCatalog {
	return &mockCatalog{meds: make(map[uuid.UUID]*formulary.Medication)}
}

func (m *mockCatalog) FindMedicationByID(_ context.Context, id uuid.UUID) (*formulary.Medication, error) {
	if med, ok := m.meds[id]; ok {
		return med, nil
	}
	return nil, formulary.ErrMedicationNotFound
}

func (m *mockCatalog) FindInteraction(_ context.Context, a, b uuid.UUID) (*formulary.DrugInteraction, error) {
	m.interactionCalls++
	for _, d := range m.interactions {
		if (d.MedicationAID == a && d.MedicationBID == b) || (d.MedicationAID == b && d.MedicationBID == a) {
			return d, nil
		}
	}
	return nil, nil
}

func (m *mockCatalog) addMed(name string, class string) *formulary.Medication {
	med := &formulary.Medication{ID: uuid.New(), GenericName: name, Active: true}
	if class != "" {
		med.TherapeuticClass = &class
	}
	m.meds[med.ID] = med
	return med
}

func floatPtr(f float64) *float64 { return &f }

func propose(meds ...*formulary.Medication) []ProposedMedication {
	var out []ProposedMedication
	for _, m := range meds {
		out = append(out, ProposedMedication{MedicationID: m.ID, Dose: "500mg"})
	}
	return out
}

func alertsOf(t *testing.T, res *CheckResult, hazard string) []Alert {
	t.Helper()
	var out []Alert
	for _, a := range res.Alerts {
		if a.HazardType == hazard {
			out = append(out, a)
		}
	}
	return out
}

// ── Allergy check ──

func TestAllergy_SevereDirectMatch(t *testing.T) {
	catalog := newMockCatalog()
	amox := catalog.addMed("Amoxicillin", "")
	engine := NewEngine(catalog)

	pc := &patient.Context{
		Age:       40,
		Allergies: []patient.Allergy{{Allergen: "Penicillin", Severity: patient.AllergySeveritySevere}},
	}
	res, err := engine.PerformSafetyCheck(context.Background(), pc, propose(amox))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	allergyAlerts := alertsOf(t, res, HazardAllergy)
	if len(allergyAlerts) != 2 {
		t.Fatalf("expected direct plus cross-sensitivity alerts, got %d", len(allergyAlerts))
	}
	direct := allergyAlerts[0]
	if direct.Severity != SeverityCritical {
		t.Errorf("expected critical for severe allergy, got %s", direct.Severity)
	}
	// Severe is overridable; only life-threatening blocks.
	if !direct.CanOverride {
		t.Error("expected severe allergy alert to be overridable")
	}
	cross := allergyAlerts[1]
	if cross.Severity != SeverityWarning || !cross.CanOverride {
		t.Errorf("expected overridable warning for cross-sensitivity, got %+v", cross)
	}
	if res.Safe {
		t.Error("expected safe=false with a critical alert")
	}
	if res.RequiresOverride {
		t.Error("expected requiresOverride=false when all criticals are overridable")
	}
}

func TestAllergy_LifeThreateningBlocks(t *testing.T) {
	catalog := newMockCatalog()
	pen := catalog.addMed("Penicillin V", "")
	engine := NewEngine(catalog)

	pc := &patient.Context{
		Age:       40,
		Allergies: []patient.Allergy{{Allergen: "Penicillin", Severity: patient.AllergySeverityLifeThreatening}},
	}
	res, err := engine.PerformSafetyCheck(context.Background(), pc, propose(pen))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	allergyAlerts := alertsOf(t, res, HazardAllergy)
	if len(allergyAlerts) == 0 {
		t.Fatal("expected allergy alert")
	}
	if allergyAlerts[0].CanOverride {
		t.Error("expected life-threatening allergy alert to be non-overridable")
	}
	if !res.RequiresOverride {
		t.Error("expected requiresOverride=true")
	}
}

func TestAllergy_MildDirectMatchIsWarning(t *testing.T) {
	catalog := newMockCatalog()
	ibu := catalog.addMed("Ibuprofen", "")
	engine := NewEngine(catalog)

	pc := &patient.Context{
		Age:       40,
		Allergies: []patient.Allergy{{Allergen: "Ibuprofen", Severity: patient.AllergySeverityMild}},
	}
	res, err := engine.PerformSafetyCheck(context.Background(), pc, propose(ibu))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	allergyAlerts := alertsOf(t, res, HazardAllergy)
	if len(allergyAlerts) != 1 {
		t.Fatalf("expected exactly one direct alert, got %d", len(allergyAlerts))
	}
	if allergyAlerts[0].Severity != SeverityWarning {
		t.Errorf("expected warning for mild allergy, got %s", allergyAlerts[0].Severity)
	}
	if !res.Safe {
		t.Error("expected safe=true with no critical alerts")
	}
}

// ── Interaction check ──

func TestInteraction_PairwiseCompleteness(t *testing.T) {
	catalog := newMockCatalog()
	a := catalog.addMed("DrugA", "")
	b := catalog.addMed("DrugB", "")
	c := catalog.addMed("DrugC", "")
	d := catalog.addMed("DrugD", "")
	engine := NewEngine(catalog)

	pc := &patient.Context{Age: 40}
	_, err := engine.PerformSafetyCheck(context.Background(), pc, propose(a, b, c, d))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	// C(4,2) = 6 lookups, no current medications.
	if catalog.interactionCalls != 6 {
		t.Errorf("expected 6 pairwise lookups, got %d", catalog.interactionCalls)
	}
}

func TestInteraction_SeverityMapping(t *testing.T) {
	tests := []struct {
		severity     string
		wantSeverity string
		wantOverride bool
	}{
		{formulary.SeverityContraindicated, SeverityCritical, false},
		{formulary.SeverityMajor, SeverityCritical, true},
		{formulary.SeverityModerate, SeverityWarning, true},
		{formulary.SeverityMinor, SeverityInfo, true},
	}
	for _, tt := range tests {
		t.Run(tt.severity, func(t *testing.T) {
			catalog := newMockCatalog()
			a := catalog.addMed("DrugA", "")
			b := catalog.addMed("DrugB", "")
			catalog.interactions = []*formulary.DrugInteraction{{
				ID: uuid.New(), MedicationAID: a.ID, MedicationBID: b.ID,
				Severity: tt.severity, Active: true,
			}}
			engine := NewEngine(catalog)

			res, err := engine.PerformSafetyCheck(context.Background(), &patient.Context{Age: 40}, propose(a, b))
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			got := alertsOf(t, res, HazardInteraction)
			if len(got) != 1 {
				t.Fatalf("expected one interaction alert, got %d", len(got))
			}
			if got[0].Severity != tt.wantSeverity {
				t.Errorf("expected severity %s, got %s", tt.wantSeverity, got[0].Severity)
			}
			if got[0].CanOverride != tt.wantOverride {
				t.Errorf("expected canOverride=%v, got %v", tt.wantOverride, got[0].CanOverride)
			}
		})
	}
}

func TestInteraction_ProposedAgainstCurrent(t *testing.T) {
	catalog := newMockCatalog()
	warfarin := catalog.addMed("Warfarin", "")
	aspirin := catalog.addMed("Aspirin", "")
	catalog.interactions = []*formulary.DrugInteraction{{
		ID: uuid.New(), MedicationAID: warfarin.ID, MedicationBID: aspirin.ID,
		Severity: formulary.SeverityMajor, Active: true,
	}}
	engine := NewEngine(catalog)

	pc := &patient.Context{
		Age: 40,
		CurrentMedications: []patient.CurrentMedication{
			{MedicationID: warfarin.ID, GenericName: "Warfarin"},
		},
	}
	res, err := engine.PerformSafetyCheck(context.Background(), pc, propose(aspirin))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	got := alertsOf(t, res, HazardInteraction)
	if len(got) != 1 {
		t.Fatalf("expected one interaction alert against current medication, got %d", len(got))
	}
	if got[0].Severity != SeverityCritical {
		t.Errorf("expected critical for major interaction, got %s", got[0].Severity)
	}
}

// ── Contraindication check ──

func TestContraindication_ConditionBlocksDrug(t *testing.T) {
	catalog := newMockCatalog()
	ibu := catalog.addMed("Ibuprofen", "")
	engine := NewEngine(catalog)

	pc := &patient.Context{
		Age:        50,
		Conditions: []patient.Condition{{Code: "K27", Name: "Peptic Ulcer Disease"}},
	}
	res, err := engine.PerformSafetyCheck(context.Background(), pc, propose(ibu))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	got := alertsOf(t, res, HazardContraindication)
	if len(got) != 1 {
		t.Fatalf("expected one contraindication alert, got %d", len(got))
	}
	if got[0].Severity != SeverityCritical || got[0].CanOverride {
		t.Errorf("expected critical non-overridable, got %+v", got[0])
	}
	if !res.RequiresOverride {
		t.Error("expected requiresOverride=true")
	}
}

// ── Duplicate therapy check ──

func TestDuplicateTherapy_SameMedication(t *testing.T) {
	catalog := newMockCatalog()
	metf := catalog.addMed("Metformin", "biguanide")
	engine := NewEngine(catalog)

	pc := &patient.Context{
		Age: 50,
		CurrentMedications: []patient.CurrentMedication{
			{MedicationID: metf.ID, GenericName: "Metformin"},
		},
	}
	res, err := engine.PerformSafetyCheck(context.Background(), pc, propose(metf))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	got := alertsOf(t, res, HazardDuplicateTherapy)
	if len(got) == 0 {
		t.Fatal("expected duplicate therapy alert")
	}
	if got[0].Severity != SeverityWarning || !got[0].CanOverride {
		t.Errorf("expected overridable warning, got %+v", got[0])
	}
}

func TestDuplicateTherapy_SharedClass(t *testing.T) {
	catalog := newMockCatalog()
	ibu := catalog.addMed("Ibuprofen", "NSAID")
	nap := catalog.addMed("Naproxen", "NSAID")
	engine := NewEngine(catalog)

	res, err := engine.PerformSafetyCheck(context.Background(), &patient.Context{Age: 40}, propose(ibu, nap))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	got := alertsOf(t, res, HazardDuplicateTherapy)
	if len(got) != 1 {
		t.Fatalf("expected one shared-class alert, got %d", len(got))
	}
}

// ── Dose range check ──

func TestDoseRange_PediatricMissingWeight(t *testing.T) {
	catalog := newMockCatalog()
	amox := catalog.addMed("Amoxicillin", "")
	engine := NewEngine(catalog)

	res, err := engine.PerformSafetyCheck(context.Background(), &patient.Context{Age: 6}, propose(amox))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	got := alertsOf(t, res, HazardDoseRange)
	if len(got) != 1 {
		t.Fatalf("expected weight-required warning, got %d alerts", len(got))
	}
	if got[0].Severity != SeverityWarning {
		t.Errorf("expected warning, got %s", got[0].Severity)
	}
}

func TestDoseRange_PediatricWarningSurvivesStaleID(t *testing.T) {
	catalog := newMockCatalog()
	engine := NewEngine(catalog)

	// Every proposed entry has an unknown id; the patient-level warning must
	// still fire.
	proposed := []ProposedMedication{{MedicationID: uuid.New(), Dose: "250mg"}}
	res, err := engine.PerformSafetyCheck(context.Background(), &patient.Context{Age: 6}, proposed)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	got := alertsOf(t, res, HazardDoseRange)
	if len(got) != 1 {
		t.Fatalf("expected weight-required warning despite stale ids, got %d alerts", len(got))
	}
}

func TestDoseRange_UnusuallyHighDose(t *testing.T) {
	catalog := newMockCatalog()
	amox := catalog.addMed("Amoxicillin", "")
	engine := NewEngine(catalog)

	proposed := []ProposedMedication{{MedicationID: amox.ID, Dose: "6000mg"}}
	res, err := engine.PerformSafetyCheck(context.Background(), &patient.Context{Age: 40}, proposed)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	got := alertsOf(t, res, HazardDoseRange)
	if len(got) != 1 {
		t.Fatalf("expected high-dose alert, got %d", len(got))
	}
	if got[0].Severity != SeverityCritical || !got[0].CanOverride {
		t.Errorf("expected critical but overridable, got %+v", got[0])
	}
}

func TestLeadingNumber(t *testing.T) {
	tests := []struct {
		dose  string
		want  float64
		valid bool
	}{
		{"500mg", 500, true},
		{" 6000 mg", 6000, true},
		{"2.5mg", 2.5, true},
		{"As directed", 0, false},
		{"", 0, false},
	}
	for _, tt := range tests {
		got, ok := leadingNumber(tt.dose)
		if ok != tt.valid || got != tt.want {
			t.Errorf("leadingNumber(%q) = %g,%v; want %g,%v", tt.dose, got, ok, tt.want, tt.valid)
		}
	}
}

// ── Organ function check ──

func TestOrganFunction_RenalThresholds(t *testing.T) {
	catalog := newMockCatalog()
	metf := catalog.addMed("Metformin", "")
	engine := NewEngine(catalog)

	// eGFR 25: critical, non-overridable.
	pc := &patient.Context{Age: 60, EGFR: floatPtr(25)}
	res, err := engine.PerformSafetyCheck(context.Background(), pc, propose(metf))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	got := alertsOf(t, res, HazardOrganFunction)
	if len(got) != 1 {
		t.Fatalf("expected one organ-function alert, got %d", len(got))
	}
	if got[0].Severity != SeverityCritical || got[0].CanOverride {
		t.Errorf("expected critical non-overridable at eGFR 25, got %+v", got[0])
	}

	// eGFR 55: warning, overridable.
	pc = &patient.Context{Age: 60, EGFR: floatPtr(55)}
	res, err = engine.PerformSafetyCheck(context.Background(), pc, propose(metf))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	got = alertsOf(t, res, HazardOrganFunction)
	if len(got) != 1 {
		t.Fatalf("expected one organ-function alert, got %d", len(got))
	}
	if got[0].Severity != SeverityWarning || !got[0].CanOverride {
		t.Errorf("expected overridable warning at eGFR 55, got %+v", got[0])
	}

	// eGFR 70: no alert.
	pc = &patient.Context{Age: 60, EGFR: floatPtr(70)}
	res, err = engine.PerformSafetyCheck(context.Background(), pc, propose(metf))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(alertsOf(t, res, HazardOrganFunction)) != 0 {
		t.Error("expected no organ-function alert at eGFR 70")
	}
}

func TestOrganFunction_Hepatic(t *testing.T) {
	catalog := newMockCatalog()
	warf := catalog.addMed("Warfarin", "")
	engine := NewEngine(catalog)

	pc := &patient.Context{Age: 60, HepaticFunction: patient.HepaticModerate}
	res, err := engine.PerformSafetyCheck(context.Background(), pc, propose(warf))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	got := alertsOf(t, res, HazardOrganFunction)
	if len(got) != 1 {
		t.Fatalf("expected hepatic caution alert, got %d", len(got))
	}
	if got[0].Severity != SeverityWarning || !got[0].CanOverride {
		t.Errorf("expected overridable warning, got %+v", got[0])
	}

	// Mild impairment: no alert.
	pc = &patient.Context{Age: 60, HepaticFunction: patient.HepaticMild}
	res, err = engine.PerformSafetyCheck(context.Background(), pc, propose(warf))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(alertsOf(t, res, HazardOrganFunction)) != 0 {
		t.Error("expected no alert for mild hepatic impairment")
	}
}

// ── Pregnancy and lactation check ──

func TestPregnancy_ContraindicatedBlocks(t *testing.T) {
	catalog := newMockCatalog()
	mtx := catalog.addMed("Methotrexate", "")
	engine := NewEngine(catalog)

	pc := &patient.Context{Age: 30, IsPregnant: true}
	res, err := engine.PerformSafetyCheck(context.Background(), pc, propose(mtx))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	got := alertsOf(t, res, HazardPregnancy)
	if len(got) != 1 {
		t.Fatalf("expected one pregnancy alert, got %d", len(got))
	}
	if got[0].Severity != SeverityCritical || got[0].CanOverride {
		t.Errorf("expected critical non-overridable, got %+v", got[0])
	}
	if !res.RequiresOverride {
		t.Error("expected requiresOverride=true")
	}
}

func TestPregnancy_CautionWarns(t *testing.T) {
	catalog := newMockCatalog()
	lis := catalog.addMed("Lisinopril", "")
	engine := NewEngine(catalog)

	pc := &patient.Context{Age: 30, IsPregnant: true}
	res, err := engine.PerformSafetyCheck(context.Background(), pc, propose(lis))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	got := alertsOf(t, res, HazardPregnancy)
	if len(got) != 1 {
		t.Fatalf("expected one pregnancy alert, got %d", len(got))
	}
	if got[0].Severity != SeverityWarning || !got[0].CanOverride {
		t.Errorf("expected overridable warning, got %+v", got[0])
	}
}

func TestPregnancy_CombinationProductRationaleIsStable(t *testing.T) {
	catalog := newMockCatalog()
	combo := catalog.addMed("Lisinopril/Ibuprofen", "")
	engine := NewEngine(catalog)

	pc := &patient.Context{Age: 30, IsPregnant: true}
	for i := 0; i < 10; i++ {
		res, err := engine.PerformSafetyCheck(context.Background(), pc, propose(combo))
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		got := alertsOf(t, res, HazardPregnancy)
		if len(got) != 1 {
			t.Fatalf("expected one pregnancy alert, got %d", len(got))
		}
		// Both keywords match; the table order decides, every time.
		if got[0].Rationale != "ACE inhibitors risk fetal renal injury" {
			t.Fatalf("run %d: unexpected rationale %q", i, got[0].Rationale)
		}
	}
}

func TestLactation_CautionWarns(t *testing.T) {
	catalog := newMockCatalog()
	cod := catalog.addMed("Codeine", "")
	engine := NewEngine(catalog)

	pc := &patient.Context{Age: 30, IsLactating: true}
	res, err := engine.PerformSafetyCheck(context.Background(), pc, propose(cod))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	got := alertsOf(t, res, HazardPregnancy)
	if len(got) != 1 {
		t.Fatalf("expected one lactation alert, got %d", len(got))
	}
	if got[0].Severity != SeverityWarning {
		t.Errorf("expected warning, got %s", got[0].Severity)
	}
}

// ── Age-specific check ──

func TestAge_ReyesSyndromeBoundary(t *testing.T) {
	catalog := newMockCatalog()
	asp := catalog.addMed("Aspirin", "")
	engine := NewEngine(catalog)

	// Age 8: critical, non-overridable.
	res, err := engine.PerformSafetyCheck(context.Background(), &patient.Context{Age: 8, WeightKG: floatPtr(26)}, propose(asp))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	got := alertsOf(t, res, HazardAge)
	if len(got) != 1 {
		t.Fatalf("expected exactly one age alert, got %d", len(got))
	}
	if got[0].Severity != SeverityCritical || got[0].CanOverride {
		t.Errorf("expected critical non-overridable at age 8, got %+v", got[0])
	}

	// Age 15: warning, overridable.
	res, err = engine.PerformSafetyCheck(context.Background(), &patient.Context{Age: 15, WeightKG: floatPtr(55)}, propose(asp))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	got = alertsOf(t, res, HazardAge)
	if len(got) != 1 {
		t.Fatalf("expected exactly one age alert, got %d", len(got))
	}
	if got[0].Severity != SeverityWarning || !got[0].CanOverride {
		t.Errorf("expected overridable warning at age 15, got %+v", got[0])
	}
}

func TestAge_GeriatricCautionIsInfo(t *testing.T) {
	catalog := newMockCatalog()
	diaz := catalog.addMed("Diazepam", "")
	engine := NewEngine(catalog)

	res, err := engine.PerformSafetyCheck(context.Background(), &patient.Context{Age: 72}, propose(diaz))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	got := alertsOf(t, res, HazardAge)
	if len(got) != 1 {
		t.Fatalf("expected one geriatric alert, got %d", len(got))
	}
	if got[0].Severity != SeverityInfo || !got[0].CanOverride {
		t.Errorf("expected overridable info, got %+v", got[0])
	}
}

// ── Aggregation and engine-level behavior ──

func TestPerformSafetyCheck_SkipsMissingMedication(t *testing.T) {
	catalog := newMockCatalog()
	ibu := catalog.addMed("Ibuprofen", "")
	engine := NewEngine(catalog)

	pc := &patient.Context{
		Age:        50,
		Conditions: []patient.Condition{{Code: "K27", Name: "Peptic Ulcer"}},
	}
	proposed := []ProposedMedication{
		{MedicationID: uuid.New(), Dose: "10mg"}, // not in catalog
		{MedicationID: ibu.ID, Dose: "400mg"},
	}
	res, err := engine.PerformSafetyCheck(context.Background(), pc, proposed)
	if err != nil {
		t.Fatalf("expected missing medication to be skipped, got error: %v", err)
	}
	if len(alertsOf(t, res, HazardContraindication)) != 1 {
		t.Error("expected findings for the resolvable entry despite a bad id")
	}
}

func TestPerformSafetyCheck_Idempotent(t *testing.T) {
	catalog := newMockCatalog()
	asp := catalog.addMed("Aspirin", "NSAID")
	ibu := catalog.addMed("Ibuprofen", "NSAID")
	catalog.interactions = []*formulary.DrugInteraction{{
		ID: uuid.New(), MedicationAID: asp.ID, MedicationBID: ibu.ID,
		Severity: formulary.SeverityModerate, Active: true,
	}}
	engine := NewEngine(catalog)

	pc := &patient.Context{
		Age:       70,
		EGFR:      floatPtr(45),
		Allergies: []patient.Allergy{{Allergen: "Aspirin", Severity: patient.AllergySeverityModerate}},
	}
	first, err := engine.PerformSafetyCheck(context.Background(), pc, propose(asp, ibu))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	second, err := engine.PerformSafetyCheck(context.Background(), pc, propose(asp, ibu))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !reflect.DeepEqual(first, second) {
		t.Error("expected identical results for identical inputs")
	}
}

func TestPerformSafetyCheck_AlertSetIndependentOfInputOrder(t *testing.T) {
	catalog := newMockCatalog()
	asp := catalog.addMed("Aspirin", "NSAID")
	ibu := catalog.addMed("Ibuprofen", "NSAID")
	catalog.interactions = []*formulary.DrugInteraction{{
		ID: uuid.New(), MedicationAID: asp.ID, MedicationBID: ibu.ID,
		Severity: formulary.SeverityMajor, Active: true,
	}}
	engine := NewEngine(catalog)
	pc := &patient.Context{Age: 40}

	forward, err := engine.PerformSafetyCheck(context.Background(), pc, propose(asp, ibu))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	reverse, err := engine.PerformSafetyCheck(context.Background(), pc, propose(ibu, asp))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(forward.Alerts) != len(reverse.Alerts) {
		t.Fatalf("alert counts differ: %d vs %d", len(forward.Alerts), len(reverse.Alerts))
	}
	// Same unordered set: every forward alert appears in reverse.
	for _, fa := range forward.Alerts {
		found := false
		for _, ra := range reverse.Alerts {
			if fa.HazardType == ra.HazardType && fa.Severity == ra.Severity && fa.CanOverride == ra.CanOverride {
				found = true
				break
			}
		}
		if !found {
			t.Errorf("alert missing after reordering input: %+v", fa)
		}
	}
}

func TestPerformSafetyCheck_NonOverrideInvariant(t *testing.T) {
	catalog := newMockCatalog()
	mtx := catalog.addMed("Methotrexate", "")
	engine := NewEngine(catalog)

	pc := &patient.Context{Age: 30, IsPregnant: true}
	res, err := engine.PerformSafetyCheck(context.Background(), pc, propose(mtx))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	hasBlocking := false
	for _, a := range res.Alerts {
		if a.Severity == SeverityCritical && !a.CanOverride {
			hasBlocking = true
		}
	}
	if hasBlocking != res.RequiresOverride {
		t.Errorf("requiresOverride=%v inconsistent with blocking alerts=%v", res.RequiresOverride, hasBlocking)
	}
}

func TestPerformSafetyCheck_CleanResult(t *testing.T) {
	catalog := newMockCatalog()
	amox := catalog.addMed("Amoxicillin", "")
	engine := NewEngine(catalog)

	res, err := engine.PerformSafetyCheck(context.Background(), &patient.Context{Age: 40}, propose(amox))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !res.Safe || res.RequiresOverride || len(res.Alerts) != 0 {
		t.Errorf("expected clean result, got %+v", res)
	}
}

func TestPerformSafetyCheck_AllChecksRunTogether(t *testing.T) {
	catalog := newMockCatalog()
	asp := catalog.addMed("Aspirin", "NSAID")
	engine := NewEngine(catalog)

	// One proposed drug that trips allergy, contraindication, pregnancy and
	// age checks simultaneously.
	pc := &patient.Context{
		Age:        10,
		WeightKG:   floatPtr(30),
		IsPregnant: false,
		Allergies:  []patient.Allergy{{Allergen: "Aspirin", Severity: patient.AllergySeverityMild}},
		Conditions: []patient.Condition{{Code: "J45", Name: "Asthma"}},
	}
	res, err := engine.PerformSafetyCheck(context.Background(), pc, propose(asp))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	for _, hazard := range []string{HazardAllergy, HazardContraindication, HazardAge} {
		if len(alertsOf(t, res, hazard)) == 0 {
			t.Errorf("expected %s finding in combined run", hazard)
		}
	}
}
