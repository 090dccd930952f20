package core

import (
	"strings"
	"testing"

	"voicetriage/pkg"
)

func strptr(s string) *string { return &s }
func intptr(i int) *int       { return &i }

func TestComposePrompt_FieldOrder(t *testing.T) {
	profile := pkg.PatientProfile{
		Name:         strptr("John Smith"),
		Age:          intptr(45),
		Injury:       strptr("car accident"),
		PainLocation: strptr("chest"),
		PainLevel:    intptr(7),
		Allergies:    strptr("Penicillin"),
	}
	record := &pkg.PatientRecord{
		Name:           "John Smith",
		Age:            45,
		MedicalHistory: "Hypertension",
		Allergies:      "Penicillin",
	}
	matches := []pkg.KnowledgeEntry{{
		Symptom:    "chest pain",
		Severity:   pkg.SeverityCritical,
		Conditions: []string{"Myocardial infarction", "Angina"},
		Treatment:  "Seek emergency cardiac care.",
	}}

	prompt := ComposePrompt("raw transcript", profile, record, matches, nil, pkg.RoleRequester)

	markers := []string{
		"Patient Information: raw transcript",
		"Name: John Smith",
		"Age: 45 years old",
		"Injury/Condition: car accident",
		"Pain Location: chest",
		"Pain Level: 7/10",
		"Allergies: Penicillin",
		"Patient Medical History from Database:",
		"- Complete Medical History: Hypertension",
		"Medical Knowledge Base Match Results:",
		"- Symptom: chest pain",
		"  Severity: Critical",
		"  Possible Conditions: Myocardial infarction, Angina",
		"Please provide professional medical advice",
	}
	last := -1
	for _, m := range markers {
		idx := strings.Index(prompt, m)
		if idx < 0 {
			t.Fatalf("prompt missing %q:\n%s", m, prompt)
		}
		if idx < last {
			t.Fatalf("marker %q out of order:\n%s", m, prompt)
		}
		last = idx
	}
}

func TestComposePrompt_AbsentFieldsOmitted(t *testing.T) {
	prompt := ComposePrompt("short", pkg.PatientProfile{}, nil, nil, nil, pkg.RoleRequester)

	for _, label := range []string{"Name:", "Age:", "Injury", "Pain Location:", "Pain Level:", "Allergies:", "Database", "Knowledge Base"} {
		if strings.Contains(prompt, label) {
			t.Fatalf("prompt fabricated %q for an empty profile:\n%s", label, prompt)
		}
	}
}

func TestComposePrompt_OperatorHospitalBlockCapped(t *testing.T) {
	hospitals := []pkg.HospitalResource{{
		ID:      "h-001",
		Name:    "St. Mary General Hospital",
		Address: "200 Riverside Dr",
		BloodPlasma: []pkg.BloodPlasma{
			{Type: "O-", Volume: "450ml", Stock: 12},
			{Type: "A+", Volume: "450ml", Stock: 20},
			{Type: "B+", Volume: "450ml", Stock: 7},
			{Type: "AB-", Volume: "450ml", Stock: 2},
		},
		Medications: []pkg.Medication{
			{Name: "Epinephrine", Dosage: "0.3mg", Stock: 40},
			{Name: "Morphine", Dosage: "10mg", Stock: 25},
			{Name: "Amoxicillin", Dosage: "500mg", Stock: 100},
			{Name: "Tranexamic acid", Dosage: "1g", Stock: 18},
		},
	}}

	prompt := ComposePrompt("dispatch", pkg.PatientProfile{}, nil, nil, hospitals, pkg.RoleOperator)

	if !strings.Contains(prompt, "Hospital: St. Mary General Hospital (200 Riverside Dr)") {
		t.Fatalf("missing hospital header:\n%s", prompt)
	}
	if got := strings.Count(prompt, "Blood Plasma:"); got != 3 {
		t.Fatalf("expected 3 blood plasma rows, got %d:\n%s", got, prompt)
	}
	if got := strings.Count(prompt, "Medication:"); got != 3 {
		t.Fatalf("expected 3 medication rows, got %d:\n%s", got, prompt)
	}
	if strings.Contains(prompt, "Tranexamic acid") {
		t.Fatalf("fourth medication should be cut:\n%s", prompt)
	}
	if !strings.Contains(prompt, "recommend which hospital to dispatch") {
		t.Fatalf("missing dispatch closing instruction:\n%s", prompt)
	}
}

func TestComposePrompt_RequesterIgnoresHospitals(t *testing.T) {
	hospitals := []pkg.HospitalResource{{ID: "h-001", Name: "St. Mary General Hospital"}}
	prompt := ComposePrompt("x", pkg.PatientProfile{}, nil, nil, hospitals, pkg.RoleRequester)
	if strings.Contains(prompt, "Hospital") {
		t.Fatalf("requester prompt must not include hospital resources:\n%s", prompt)
	}
}
