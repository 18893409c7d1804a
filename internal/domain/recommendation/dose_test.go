package recommendation

import (
	"testing"

	"github.com/rxguard/rxguard/internal/domain/formulary"
	"github.com/rxguard/rxguard/internal/domain/patient"
)

func floatPtr(f float64) *float64 { return &f }
func strPtr(s string) *string     { return &s }

func TestDeriveDose_Defaults(t *testing.T) {
	med := &formulary.Medication{GenericName: "Amoxicillin", Strength: strPtr("500mg")}
	pc := &patient.Context{Age: 40, EGFR: floatPtr(90)}

	d := deriveDose(med, "", pc, patient.ClinicalContext{})
	if d.Dose != "500mg" {
		t.Errorf("expected dose 500mg, got %s", d.Dose)
	}
	if d.Frequency != "twice daily" {
		t.Errorf("expected default frequency twice daily, got %s", d.Frequency)
	}
	if d.Duration != "7 days" {
		t.Errorf("expected default duration 7 days, got %s", d.Duration)
	}
	if d.Route != "oral" {
		t.Errorf("expected default route oral, got %s", d.Route)
	}
}

func TestDeriveDose_TemplateOverridesStrength(t *testing.T) {
	med := &formulary.Medication{GenericName: "Amoxicillin", Strength: strPtr("500mg")}
	d := deriveDose(med, "875mg", &patient.Context{Age: 40}, patient.ClinicalContext{})
	if d.Dose != "875mg" {
		t.Errorf("expected template dose 875mg, got %s", d.Dose)
	}
}

func TestDeriveDose_NoStrength(t *testing.T) {
	med := &formulary.Medication{GenericName: "Amoxicillin"}
	d := deriveDose(med, "", &patient.Context{Age: 40}, patient.ClinicalContext{})
	if d.Dose != "As directed" {
		t.Errorf("expected As directed, got %s", d.Dose)
	}
}

func TestDeriveDose_PediatricWithWeight(t *testing.T) {
	med := &formulary.Medication{GenericName: "Amoxicillin", Strength: strPtr("500mg")}
	pc := &patient.Context{Age: 9, WeightKG: floatPtr(28)}

	d := deriveDose(med, "", pc, patient.ClinicalContext{})
	if d.Dose != "Based on 28kg" {
		t.Errorf("expected weight-scaled placeholder, got %s", d.Dose)
	}
}

func TestDeriveDose_PediatricWithoutWeight(t *testing.T) {
	med := &formulary.Medication{GenericName: "Amoxicillin", Strength: strPtr("500mg")}
	pc := &patient.Context{Age: 9}

	d := deriveDose(med, "", pc, patient.ClinicalContext{})
	if d.Dose != "500mg" {
		t.Errorf("expected nominal strength when weight unknown, got %s", d.Dose)
	}
}

func TestDeriveDose_RenalReducesFrequencyOnly(t *testing.T) {
	med := &formulary.Medication{GenericName: "Cephalexin", Strength: strPtr("250mg")}
	pc := &patient.Context{Age: 70, EGFR: floatPtr(40)}

	d := deriveDose(med, "", pc, patient.ClinicalContext{})
	if d.Frequency != "once daily" {
		t.Errorf("expected once daily for eGFR<50, got %s", d.Frequency)
	}
	if d.Dose != "250mg" {
		t.Errorf("expected dose quantity unchanged, got %s", d.Dose)
	}
}

func TestDeriveDose_RenalBoundary(t *testing.T) {
	med := &formulary.Medication{GenericName: "Cephalexin", Strength: strPtr("250mg")}
	pc := &patient.Context{Age: 70, EGFR: floatPtr(50)}

	d := deriveDose(med, "", pc, patient.ClinicalContext{})
	if d.Frequency != "twice daily" {
		t.Errorf("expected no adjustment at eGFR=50, got %s", d.Frequency)
	}
}

func TestDeriveDose_SevereOral(t *testing.T) {
	med := &formulary.Medication{GenericName: "Amoxicillin", Strength: strPtr("500mg")}
	pc := &patient.Context{Age: 40}

	d := deriveDose(med, "", pc, patient.ClinicalContext{Severity: "severe"})
	if d.Frequency != "three times daily" {
		t.Errorf("expected three times daily for severe oral, got %s", d.Frequency)
	}
	if d.Duration != "10-14 days" {
		t.Errorf("expected extended duration, got %s", d.Duration)
	}
}

func TestDeriveDose_SevereIV(t *testing.T) {
	med := &formulary.Medication{GenericName: "Ceftriaxone", Strength: strPtr("1g"), Route: strPtr("IV")}
	pc := &patient.Context{Age: 40}

	d := deriveDose(med, "", pc, patient.ClinicalContext{Severity: "severe"})
	if d.Frequency != "four times daily" {
		t.Errorf("expected four times daily for severe IV, got %s", d.Frequency)
	}
	if d.Duration != "10-14 days" {
		t.Errorf("expected extended duration, got %s", d.Duration)
	}
}

func TestDeriveDose_SeverityOverwritesRenal(t *testing.T) {
	med := &formulary.Medication{GenericName: "Amoxicillin", Strength: strPtr("500mg")}
	pc := &patient.Context{Age: 70, EGFR: floatPtr(40)}

	d := deriveDose(med, "", pc, patient.ClinicalContext{Severity: "severe"})
	if d.Frequency != "three times daily" {
		t.Errorf("expected severity to overwrite renal frequency, got %s", d.Frequency)
	}
}
