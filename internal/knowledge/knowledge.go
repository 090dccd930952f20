// Package knowledge holds the medical knowledge base and the matcher that
// maps extracted symptom text onto it. The table is embedded at build time,
// loaded once, and treated as read-only for the life of the process.
package knowledge

import (
	"encoding/json"
	"fmt"
	"strings"

	_ "embed"

	"voicetriage/pkg"
)

//go:embed kb.json
var kbJSON []byte

// keywordMapping maps bilingual symptom keywords to the canonical symptom
// keys used by the knowledge table. Many keywords collapse onto the same
// canonical key. Order matters only for the determinism of results, not for
// which entries match.
type keywordMapping struct {
	keyword string
	symptom string
}

var symptomMappings = []keywordMapping{
	// Traffic accidents
	{"车祸", "car accident"},
	{"交通事故", "car accident"},
	{"car accident", "car accident"},
	{"traffic accident", "car accident"},
	{"motor vehicle accident", "car accident"},

	{"脚踝", "sprained ankle"},
	{"脚腕", "sprained ankle"},
	{"ankle", "sprained ankle"},

	{"晕倒", "unconsciousness"},
	{"昏倒", "unconsciousness"},
	{"昏迷", "unconsciousness"},
	{"fainted", "unconsciousness"},
	{"collapsed", "unconsciousness"},
	{"unconscious", "unconsciousness"},

	// Hypertension can present as loss of consciousness
	{"高血压", "unconsciousness"},
	{"hypertension", "unconsciousness"},
	{"high blood pressure", "unconsciousness"},

	{"胸", "chest pain"},
	{"chest", "chest pain"},

	{"呼吸困难", "difficulty breathing"},
	{"difficulty breathing", "difficulty breathing"},
	{"shortness of breath", "difficulty breathing"},

	{"出血", "severe bleeding"},
	{"bleeding", "severe bleeding"},

	{"腹", "severe abdominal pain"},
	{"stomach", "severe abdominal pain"},
	{"abdomen", "severe abdominal pain"},

	{"发烧", "high fever"},
	{"fever", "high fever"},

	{"骨折", "broken bone"},
	{"broken", "broken bone"},
	{"fracture", "broken bone"},

	{"过敏", "allergic reaction"},
	{"allergic", "allergic reaction"},
	{"allergy", "allergic reaction"},
}

// Base is the loaded, immutable knowledge table.
type Base struct {
	entries []pkg.KnowledgeEntry
}

// Load parses the embedded knowledge table. It is called once at start-up.
func Load() (*Base, error) {
	var entries []pkg.KnowledgeEntry
	if err := json.Unmarshal(kbJSON, &entries); err != nil {
		return nil, fmt.Errorf("parse knowledge base: %w", err)
	}
	return &Base{entries: entries}, nil
}

// Entries returns a copy of the full table.
func (b *Base) Entries() []pkg.KnowledgeEntry {
	out := make([]pkg.KnowledgeEntry, len(b.entries))
	copy(out, b.entries)
	return out
}

// Match returns the knowledge entries relevant to a profile. The pain
// location, injury and symptom texts are folded into one lowercase blob;
// any mapping keyword found as a literal substring marks its canonical
// symptom as matched, and matched symptoms select table entries by
// case-insensitive key equality. Results keep first-seen order and drop
// entries already present, so overlapping keywords never duplicate a row.
func (b *Base) Match(profile pkg.PatientProfile) []pkg.KnowledgeEntry {
	var blob strings.Builder
	if profile.PainLocation != nil {
		blob.WriteString(" " + *profile.PainLocation)
	}
	if profile.Injury != nil {
		blob.WriteString(" " + *profile.Injury)
	}
	for _, s := range profile.Symptoms {
		blob.WriteString(" " + s)
	}
	search := strings.ToLower(blob.String())

	var matched []string
	seen := make(map[string]struct{})
	for _, m := range symptomMappings {
		if !strings.Contains(search, strings.ToLower(m.keyword)) {
			continue
		}
		if _, dup := seen[m.symptom]; dup {
			continue
		}
		seen[m.symptom] = struct{}{}
		matched = append(matched, m.symptom)
	}

	var results []pkg.KnowledgeEntry
	for _, symptom := range matched {
		for _, entry := range b.entries {
			if !strings.EqualFold(symptom, entry.Symptom) {
				continue
			}
			if containsEntry(results, entry) {
				continue
			}
			results = append(results, entry)
		}
	}
	return results
}

func containsEntry(entries []pkg.KnowledgeEntry, e pkg.KnowledgeEntry) bool {
	for _, existing := range entries {
		if existing.Equal(e) {
			return true
		}
	}
	return false
}
