// Package extract turns a raw transcript into a structured patient profile
// using ordered, per-field pattern cascades. Rules support both Chinese and
// English phrasing; the first rule that matches a field wins and the rest
// are skipped. Extraction never fails: a field with no matching rule is
// simply left absent.
package extract

import (
	"regexp"
	"strconv"
	"strings"

	"voicetriage/pkg"
)

// captureRule pairs a compiled pattern with the submatch index whose text
// becomes the field value. Group 0 keeps the whole match.
type captureRule struct {
	re    *regexp.Regexp
	group int
}

// firstMatch evaluates rules in order and returns the capture of the first
// rule that matches anywhere in the transcript.
func firstMatch(rules []captureRule, transcript string) (string, bool) {
	for _, r := range rules {
		m := r.re.FindStringSubmatch(transcript)
		if m == nil || r.group >= len(m) {
			continue
		}
		return m[r.group], true
	}
	return "", false
}

// Chinese rules precede English ones in each cascade, mirroring how the
// assistant is primarily used. CJK rules need no case folding; the English
// rules are case-insensitive.
var (
	nameRules = []captureRule{
		{regexp.MustCompile(`患者名叫([A-Za-z\x{4e00}-\x{9fa5}\s]+?)(?:[,，。.]|$)`), 1},
		{regexp.MustCompile(`我叫([A-Za-z\x{4e00}-\x{9fa5}]+)`), 1},
		{regexp.MustCompile(`(?i)(?:my name is|I am|I'm)\s+([A-Za-z\s]+?)(?:[,.]|$)`), 1},
	}

	ageRules = []captureRule{
		{regexp.MustCompile(`(\d+)岁`), 1},
		{regexp.MustCompile(`(?i)(\d+)\s+years?\s+old`), 1},
		{regexp.MustCompile(`(?i)I am (\d+)`), 1},
	}

	injuryRules = []captureRule{
		{regexp.MustCompile(`发生了?(车祸|交通事故)`), 0},
		{regexp.MustCompile(`从(.+?)摔下来`), 0},
		{regexp.MustCompile(`被(.+?)(撞|打|咬)`), 0},
		{regexp.MustCompile(`(摔|跌|撞)(?:倒|伤)`), 0},
		{regexp.MustCompile(`因为(.+?)(晕倒|昏倒|昏迷)`), 0},
		{regexp.MustCompile(`(高血压|低血压|糖尿病|心脏病)`), 0},
		{regexp.MustCompile(`(?i)(car accident|traffic accident|motor vehicle accident)`), 0},
		{regexp.MustCompile(`(?i)(fell|fainted|collapsed|injured|hit|cut|burned|broke)`), 0},
		{regexp.MustCompile(`(?i)because of\s+(.+?)(?:\.|,|$)`), 0},
		{regexp.MustCompile(`(?i)(high blood pressure|low blood pressure|diabetes|heart attack|stroke)`), 0},
	}

	painLocationRules = []captureRule{
		{regexp.MustCompile(`([\x{4e00}-\x{9fa5}]+?)(很|特别|非常)?(痛|疼)`), 1},
		{regexp.MustCompile(`(头|脚|手|腿|腰|背|胸|腹|肚子|脖子|颈|膝盖|脚踝|脚腕|手腕|肩膀|关节).*?(痛|疼)`), 1},
		{regexp.MustCompile(`(?i)(head|chest|stomach|abdomen|back|neck|shoulder|arm|leg|knee|ankle|wrist|foot|hand)\s+(?:pain|hurt|ache)`), 1},
		{regexp.MustCompile(`(?i)pain.*?\bin (?:my|the)\s+([a-z]+)`), 1},
	}

	painLevelRules = []captureRule{
		{regexp.MustCompile(`疼痛等级.*?(\d+)`), 1},
		{regexp.MustCompile(`(?i)pain level.*?(\d+)`), 1},
	}

	allergyRules = []captureRule{
		{regexp.MustCompile(`对(.+?)过敏`), 1},
		{regexp.MustCompile(`(?i)allergic to\s+([a-z\s]+)`), 1},
	}

	// Unlike the cascades above, every symptom rule that matches
	// contributes its matched text. Duplicate texts are suppressed, but
	// two different phrasings of the same symptom both survive.
	symptomRules = []*regexp.Regexp{
		regexp.MustCompile(`(?i)(晕倒|昏倒|昏迷|fainted|collapsed|unconscious)`),
		regexp.MustCompile(`(?i)(高血压|low blood pressure|high blood pressure|hypertension)`),
		regexp.MustCompile(`(?i)(呼吸困难|difficulty breathing|shortness of breath)`),
		regexp.MustCompile(`(?i)(出血|bleeding)`),
		regexp.MustCompile(`(?i)(骨折|broken bone|fracture)`),
	}
)

// Extract derives a patient profile from a transcript. It is pure and
// deterministic; each field is evaluated independently, so a miss on one
// field never affects another.
func Extract(transcript string) pkg.PatientProfile {
	profile := pkg.PatientProfile{Symptoms: []string{}}

	if v, ok := firstMatch(nameRules, transcript); ok {
		name := strings.TrimSpace(v)
		profile.Name = &name
	}
	if v, ok := firstMatch(ageRules, transcript); ok {
		if age, err := strconv.Atoi(v); err == nil {
			profile.Age = &age
		}
	}
	if v, ok := firstMatch(injuryRules, transcript); ok {
		profile.Injury = &v
	}
	if v, ok := firstMatch(painLocationRules, transcript); ok {
		profile.PainLocation = &v
	}
	if v, ok := firstMatch(painLevelRules, transcript); ok {
		// No upper bound is enforced on the parsed level; the source
		// accepts values beyond 10 and so do we.
		if level, err := strconv.Atoi(v); err == nil {
			profile.PainLevel = &level
		}
	}
	if v, ok := firstMatch(allergyRules, transcript); ok {
		allergies := strings.TrimSpace(v)
		profile.Allergies = &allergies
	}

	seen := make(map[string]struct{})
	for _, re := range symptomRules {
		m := re.FindString(transcript)
		if m == "" {
			continue
		}
		if _, dup := seen[m]; dup {
			continue
		}
		seen[m] = struct{}{}
		profile.Symptoms = append(profile.Symptoms, m)
	}

	return profile
}
