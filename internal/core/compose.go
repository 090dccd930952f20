package core

import (
	"fmt"
	"strings"

	"voicetriage/pkg"
)

// maxResourceRows caps how many blood-plasma and medication rows of each
// hospital make it into a dispatch prompt.
const maxResourceRows = 3

// ComposePrompt assembles the advisory prompt from everything the pipeline
// has gathered. Output is deterministic and ordered: transcript, profile
// fields, registry record, knowledge matches, and (operator role only) the
// hospital resource snapshot, followed by a role-specific instruction.
// Every line derives from a field that is present; nothing is fabricated.
func ComposePrompt(transcript string, profile pkg.PatientProfile, record *pkg.PatientRecord, matches []pkg.KnowledgeEntry, hospitals []pkg.HospitalResource, role pkg.Role) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Patient Information: %s\n\n", transcript)

	if profile.Name != nil {
		fmt.Fprintf(&b, "Name: %s\n", *profile.Name)
	}
	if profile.Age != nil {
		fmt.Fprintf(&b, "Age: %d years old\n", *profile.Age)
	}
	if profile.Injury != nil {
		fmt.Fprintf(&b, "Injury/Condition: %s\n", *profile.Injury)
	}
	if profile.PainLocation != nil {
		fmt.Fprintf(&b, "Pain Location: %s\n", *profile.PainLocation)
	}
	if profile.PainLevel != nil {
		fmt.Fprintf(&b, "Pain Level: %d/10\n", *profile.PainLevel)
	}
	if profile.Allergies != nil {
		fmt.Fprintf(&b, "Allergies: %s\n", *profile.Allergies)
	}

	if record != nil {
		b.WriteString("\nPatient Medical History from Database:\n")
		fmt.Fprintf(&b, "- Complete Medical History: %s\n", record.MedicalHistory)
		fmt.Fprintf(&b, "- Known Allergies: %s\n", record.Allergies)
	}

	if len(matches) > 0 {
		b.WriteString("\nMedical Knowledge Base Match Results:\n")
		for _, m := range matches {
			fmt.Fprintf(&b, "- Symptom: %s\n", m.Symptom)
			fmt.Fprintf(&b, "  Severity: %s\n", m.Severity)
			fmt.Fprintf(&b, "  Possible Conditions: %s\n", strings.Join(m.Conditions, ", "))
			fmt.Fprintf(&b, "  Recommended Treatment: %s\n", m.Treatment)
		}
	}

	if role == pkg.RoleOperator && len(hospitals) > 0 {
		b.WriteString("\nNearby Hospital Resources:\n")
		for _, h := range hospitals {
			fmt.Fprintf(&b, "- Hospital: %s (%s)\n", h.Name, h.Address)
			for i, bp := range h.BloodPlasma {
				if i >= maxResourceRows {
					break
				}
				fmt.Fprintf(&b, "  Blood Plasma: %s %s, stock %d\n", bp.Type, bp.Volume, bp.Stock)
			}
			for i, m := range h.Medications {
				if i >= maxResourceRows {
					break
				}
				fmt.Fprintf(&b, "  Medication: %s %s, stock %d\n", m.Name, m.Dosage, m.Stock)
			}
		}
	}

	if role == pkg.RoleOperator {
		b.WriteString("\nPlease recommend which hospital to dispatch the patient to based on the above information.")
	} else {
		b.WriteString("\nPlease provide professional medical advice based on the above information.")
	}
	return b.String()
}

// systemPromptFor picks the system instruction for a role.
func systemPromptFor(role pkg.Role) string {
	if role == pkg.RoleOperator {
		return DispatchSystemPrompt
	}
	return AdvisorySystemPrompt
}
