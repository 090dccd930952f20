package pkg

import "encoding/json"

// Role classifies a connected client. A requester is the party whose audio
// initiates triage requests; an operator passively observes a mirrored
// stream of requester events and may run dispatcher queries of its own.
type Role string

const (
	RoleRequester Role = "requester"
	RoleOperator  Role = "operator"
)

// PatientProfile is the structured record extracted from one transcript.
// Every field is optional; absence means the matching rules found nothing.
// A profile is created fresh per request and never merged across requests.
type PatientProfile struct {
	Name         *string  `json:"name,omitempty"`
	Age          *int     `json:"age,omitempty"`
	Injury       *string  `json:"injury,omitempty"`
	PainLocation *string  `json:"pain_location,omitempty"`
	PainLevel    *int     `json:"pain_level,omitempty"`
	Allergies    *string  `json:"allergies,omitempty"`
	Symptoms     []string `json:"symptoms"`
}

// PatientRecord is a read-only projection from the patient registry.
type PatientRecord struct {
	Name           string `json:"name"`
	Age            int    `json:"age"`
	MedicalHistory string `json:"medical_history"`
	Allergies      string `json:"allergies"`
}

// Severity levels used by the knowledge base and resource prioritisation.
const (
	SeverityCritical = "Critical"
	SeverityModerate = "Moderate"
	SeverityStable   = "Stable"
)

// KnowledgeEntry is one row of the medical knowledge base. The table is
// loaded once at start-up and never mutated.
type KnowledgeEntry struct {
	Symptom    string   `json:"symptom"`
	Severity   string   `json:"severity"`
	Conditions []string `json:"conditions"`
	Treatment  string   `json:"treatment"`
}

// Equal reports whether two entries are identical field for field. The
// matcher uses it to drop duplicate results reached via different keywords.
func (e KnowledgeEntry) Equal(other KnowledgeEntry) bool {
	if e.Symptom != other.Symptom || e.Severity != other.Severity || e.Treatment != other.Treatment {
		return false
	}
	if len(e.Conditions) != len(other.Conditions) {
		return false
	}
	for i := range e.Conditions {
		if e.Conditions[i] != other.Conditions[i] {
			return false
		}
	}
	return true
}

// BloodPlasma is one blood-plasma stock row of a hospital snapshot.
type BloodPlasma struct {
	Type       string `json:"type"`
	Volume     string `json:"volume"`
	Stock      int    `json:"stock"`
	Expiration string `json:"expiration"`
}

// Medication is one medication stock row of a hospital snapshot.
type Medication struct {
	Name   string `json:"name"`
	Type   string `json:"type"`
	Dosage string `json:"dosage"`
	Stock  int    `json:"stock"`
}

// HospitalResource is a per-hospital inventory snapshot. Stock counts
// reflect the store at fetch time; blood and medication are independent
// reads with no cross-query consistency guarantee.
type HospitalResource struct {
	ID          string        `json:"id"`
	Name        string        `json:"name"`
	Address     string        `json:"address"`
	Latitude    float64       `json:"latitude"`
	Longitude   float64       `json:"longitude"`
	BloodPlasma []BloodPlasma `json:"blood_plasma"`
	Medications []Medication  `json:"medications"`
}

// Event names emitted over the realtime surface. Each payload carries the
// request's correlation id so a client can reassemble partial results.
const (
	EventTranscription       = "transcription"
	EventNoSpeech            = "no_speech"
	EventTranscriptionFailed = "transcription_failed"
	EventRecordFound         = "record_found"
	EventProfile             = "profile"
	EventKnowledgeMatches    = "knowledge_matches"
	EventHospitalResources   = "hospital_resources"
	EventAdvisory            = "advisory"
	EventAudioReady          = "audio_ready"
	EventTTSFailed           = "tts_failed"
)

// Event is the wire envelope for every outbound realtime message.
type Event struct {
	Event     string          `json:"event"`
	RequestID string          `json:"request_id"`
	Data      json.RawMessage `json:"data,omitempty"`
}

// NewEvent builds an Event from a payload. Payloads are our own value
// types, so a marshal failure indicates a programming error and yields an
// event without data rather than an error return.
func NewEvent(name, requestID string, payload any) Event {
	data, err := json.Marshal(payload)
	if err != nil {
		return Event{Event: name, RequestID: requestID}
	}
	return Event{Event: name, RequestID: requestID, Data: data}
}

// ClientCommand is an inbound JSON message from a connected client. Audio
// blobs arrive as binary websocket frames instead; the only text command
// today is a direct text-to-speech request.
type ClientCommand struct {
	Action    string `json:"action"`
	Text      string `json:"text,omitempty"`
	RequestID string `json:"request_id,omitempty"`
}

// TranscriptionPayload is the data of a "transcription" event.
type TranscriptionPayload struct {
	Text string `json:"text"`
}

// NoticePayload carries a human-readable message for no_speech and the
// failure events.
type NoticePayload struct {
	Message string `json:"message"`
}

// KnowledgeMatchesPayload is the data of a "knowledge_matches" event.
type KnowledgeMatchesPayload struct {
	Results []KnowledgeEntry `json:"results"`
}

// HospitalResourcesPayload is the data of a "hospital_resources" event.
type HospitalResourcesPayload struct {
	Severity  string             `json:"severity"`
	Hospitals []HospitalResource `json:"hospitals"`
}

// AdvisoryPayload is the data of an "advisory" event. Degraded marks a
// delivery where advisory generation failed and Text is empty; clients see
// the missing stage instead of a silently absent event.
type AdvisoryPayload struct {
	Text     string `json:"text"`
	Degraded bool   `json:"degraded,omitempty"`
}

// AudioPayload is the data of an "audio_ready" event. URL is a path served
// by the audio file endpoint.
type AudioPayload struct {
	URL string `json:"url"`
}
