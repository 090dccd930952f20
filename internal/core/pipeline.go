// Package core drives a triage request from raw audio to delivered
// advisory. Each request runs as its own state machine instance; the only
// shared state it touches is the session hub it emits events through.
package core

import (
	"context"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"voicetriage/internal/extract"
	"voicetriage/internal/llm"
	"voicetriage/internal/speech"
	"voicetriage/pkg"
)

// stage names used in logs and to keep the pipeline's progression explicit.
const (
	stageTranscribing  = "transcribing"
	stageExtracting    = "extracting"
	stagePatientLookup = "patient_lookup"
	stageKnowledge     = "knowledge_matching"
	stageResources     = "resource_aggregation"
	stageAdvisory      = "advisory_generating"
	stageSpeaking      = "speaking"
	stageDelivered     = "delivered"
)

// Emitter routes pipeline events to the originating session and, for
// requester-originated requests, to operator observers.
type Emitter interface {
	SendTo(sessionID string, event pkg.Event)
	BroadcastOperators(event pkg.Event, excludeSessionID string)
}

// Registry is the read-only patient and hospital lookup dependency.
type Registry interface {
	FindPatient(ctx context.Context, name string, age *int) (*pkg.PatientRecord, error)
	ListHospitalResources(ctx context.Context) ([]pkg.HospitalResource, error)
}

// Matcher maps a profile onto knowledge-base entries.
type Matcher interface {
	Match(profile pkg.PatientProfile) []pkg.KnowledgeEntry
}

// AudioStore persists synthesized audio and returns the URL it is served
// under.
type AudioStore interface {
	Save(audio []byte) (string, error)
}

// Timeouts bounds the external calls of one request. A zero value disables
// the deadline for that call.
type Timeouts struct {
	STT time.Duration
	LLM time.Duration
	TTS time.Duration
}

// Pipeline owns the collaborators shared by all requests. It is safe for
// concurrent use; per-request state lives on the stack of each Run call.
type Pipeline struct {
	stt      speech.Transcriber
	tts      speech.Synthesizer
	advisor  llm.Client
	registry Registry
	matcher  Matcher
	store    AudioStore
	emitter  Emitter
	log      zerolog.Logger

	// fallbackName is the safety-net identity looked up when no name was
	// extracted, so downstream stages always have some record to reason
	// about. Configurable so tests and deployments can substitute it.
	fallbackName string
	timeouts     Timeouts
}

// NewPipeline wires a Pipeline from its collaborators.
func NewPipeline(stt speech.Transcriber, tts speech.Synthesizer, advisor llm.Client, registry Registry, matcher Matcher, store AudioStore, emitter Emitter, log zerolog.Logger, fallbackName string, timeouts Timeouts) *Pipeline {
	return &Pipeline{
		stt:          stt,
		tts:          tts,
		advisor:      advisor,
		registry:     registry,
		matcher:      matcher,
		store:        store,
		emitter:      emitter,
		log:          log,
		fallbackName: fallbackName,
		timeouts:     timeouts,
	}
}

// emit sends an event to the originating session and, when mirror is true
// and the originating role is requester, to every operator observer.
func (p *Pipeline) emit(sessionID string, role pkg.Role, mirror bool, event pkg.Event) {
	p.emitter.SendTo(sessionID, event)
	if mirror && role == pkg.RoleRequester {
		p.emitter.BroadcastOperators(event, sessionID)
	}
}

func withTimeout(ctx context.Context, d time.Duration) (context.Context, context.CancelFunc) {
	if d <= 0 {
		return ctx, func() {}
	}
	return context.WithTimeout(ctx, d)
}

// Run drives one triage request end to end. It never returns an error: a
// failed mandatory stage logs and stops after notifying the origin, and
// every later stage degrades instead of aborting.
func (p *Pipeline) Run(ctx context.Context, sessionID string, role pkg.Role, audio []byte) {
	requestID := uuid.NewString()
	logger := p.log.With().
		Str("request_id", requestID).
		Str("session_id", sessionID).
		Str("role", string(role)).
		Logger()

	// Transcribing
	sttCtx, cancel := withTimeout(ctx, p.timeouts.STT)
	transcript, err := p.stt.Transcribe(sttCtx, audio)
	cancel()
	if err != nil {
		logger.Error().Err(err).Str("stage", stageTranscribing).Msg("transcription failed")
		p.emit(sessionID, role, false, pkg.NewEvent(pkg.EventTranscriptionFailed, requestID,
			pkg.NoticePayload{Message: "Transcription failed. Please try again."}))
		return
	}
	if strings.TrimSpace(transcript) == "" {
		logger.Info().Str("stage", stageTranscribing).Msg("no speech detected")
		p.emit(sessionID, role, false, pkg.NewEvent(pkg.EventNoSpeech, requestID,
			pkg.NoticePayload{Message: "No speech was detected in the recording."}))
		return
	}
	logger.Info().Str("stage", stageTranscribing).Str("transcript", transcript).Msg("transcribed")
	p.emit(sessionID, role, true, pkg.NewEvent(pkg.EventTranscription, requestID,
		pkg.TranscriptionPayload{Text: transcript}))

	// Extracting
	profile := extract.Extract(transcript)
	logger.Debug().Str("stage", stageExtracting).Interface("profile", profile).Msg("extracted profile")

	// Patient lookup. With an extracted name the record back-fills only
	// absent fields; the fallback identity replaces name, age and
	// allergies wholesale, matching how the original demo behaves.
	record := p.lookupPatient(ctx, logger, &profile)
	if record != nil {
		p.emit(sessionID, role, true, pkg.NewEvent(pkg.EventRecordFound, requestID, record))
	}
	p.emit(sessionID, role, true, pkg.NewEvent(pkg.EventProfile, requestID, profile))

	// Knowledge matching
	matches := p.matcher.Match(profile)
	if len(matches) > 0 {
		logger.Info().Str("stage", stageKnowledge).Int("matches", len(matches)).Msg("knowledge matches found")
		p.emit(sessionID, role, true, pkg.NewEvent(pkg.EventKnowledgeMatches, requestID,
			pkg.KnowledgeMatchesPayload{Results: matches}))
	}

	// Resource aggregation, operator-originated requests only.
	var hospitals []pkg.HospitalResource
	if role == pkg.RoleOperator {
		severity := pkg.SeverityModerate
		if len(matches) > 0 {
			severity = matches[0].Severity
		}
		hs, err := p.registry.ListHospitalResources(ctx)
		if err != nil {
			logger.Error().Err(err).Str("stage", stageResources).Msg("hospital inventory lookup failed")
		} else {
			hospitals = hs
			p.emit(sessionID, role, false, pkg.NewEvent(pkg.EventHospitalResources, requestID,
				pkg.HospitalResourcesPayload{Severity: severity, Hospitals: hospitals}))
		}
	}

	// Advisory generation. Failure degrades to an explicitly-absent
	// advisory rather than aborting the delivery.
	prompt := ComposePrompt(transcript, profile, record, matches, hospitals, role)
	llmCtx, cancel := withTimeout(ctx, p.timeouts.LLM)
	advisory, err := p.advisor.Advise(llmCtx, systemPromptFor(role), prompt)
	cancel()
	if err != nil {
		logger.Error().Err(err).Str("stage", stageAdvisory).Msg("advisory generation failed")
		p.emit(sessionID, role, true, pkg.NewEvent(pkg.EventAdvisory, requestID,
			pkg.AdvisoryPayload{Degraded: true}))
		p.emit(sessionID, role, false, pkg.NewEvent(pkg.EventTTSFailed, requestID,
			pkg.NoticePayload{Message: "No advisory text available to synthesize."}))
		return
	}
	p.emit(sessionID, role, true, pkg.NewEvent(pkg.EventAdvisory, requestID,
		pkg.AdvisoryPayload{Text: advisory}))

	// Speaking
	url, err := p.synthesize(ctx, advisory)
	if err != nil {
		logger.Error().Err(err).Str("stage", stageSpeaking).Msg("speech synthesis failed")
		p.emit(sessionID, role, false, pkg.NewEvent(pkg.EventTTSFailed, requestID,
			pkg.NoticePayload{Message: "Speech synthesis failed."}))
		return
	}
	p.emit(sessionID, role, true, pkg.NewEvent(pkg.EventAudioReady, requestID,
		pkg.AudioPayload{URL: url}))
	logger.Info().Str("stage", stageDelivered).Msg("request delivered")
}

// lookupPatient queries the registry and enriches the profile in place.
// Registry errors degrade to an unenriched profile.
func (p *Pipeline) lookupPatient(ctx context.Context, logger zerolog.Logger, profile *pkg.PatientProfile) *pkg.PatientRecord {
	if profile.Name != nil {
		record, err := p.registry.FindPatient(ctx, *profile.Name, profile.Age)
		if err != nil {
			logger.Error().Err(err).Str("stage", stagePatientLookup).Msg("patient lookup failed")
			return nil
		}
		if record == nil {
			return nil
		}
		if profile.Age == nil {
			age := record.Age
			profile.Age = &age
		}
		if profile.Allergies == nil && record.Allergies != "" {
			allergies := record.Allergies
			profile.Allergies = &allergies
		}
		return record
	}

	record, err := p.registry.FindPatient(ctx, p.fallbackName, nil)
	if err != nil {
		logger.Error().Err(err).Str("stage", stagePatientLookup).Msg("fallback patient lookup failed")
		return nil
	}
	if record == nil {
		return nil
	}
	logger.Info().Str("stage", stagePatientLookup).Str("fallback", p.fallbackName).Msg("using fallback identity")
	name, age, allergies := record.Name, record.Age, record.Allergies
	profile.Name = &name
	profile.Age = &age
	if allergies != "" {
		profile.Allergies = &allergies
	}
	return record
}

// synthesize runs text-to-speech and stores the result, returning the URL
// path the audio is served under.
func (p *Pipeline) synthesize(ctx context.Context, text string) (string, error) {
	ttsCtx, cancel := withTimeout(ctx, p.timeouts.TTS)
	defer cancel()
	audio, err := p.tts.Synthesize(ttsCtx, text)
	if err != nil {
		return "", err
	}
	return p.store.Save(audio)
}

// Speak handles a direct text-to-speech request, bypassing the triage
// pipeline. Used for replaying arbitrary text with the assistant's voice.
func (p *Pipeline) Speak(ctx context.Context, sessionID, text, requestID string) {
	if requestID == "" {
		requestID = uuid.NewString()
	}
	logger := p.log.With().Str("request_id", requestID).Str("session_id", sessionID).Logger()

	if strings.TrimSpace(text) == "" {
		p.emitter.SendTo(sessionID, pkg.NewEvent(pkg.EventTTSFailed, requestID,
			pkg.NoticePayload{Message: "No text provided for TTS."}))
		return
	}
	url, err := p.synthesize(ctx, text)
	if err != nil {
		logger.Error().Err(err).Str("stage", stageSpeaking).Msg("direct synthesis failed")
		p.emitter.SendTo(sessionID, pkg.NewEvent(pkg.EventTTSFailed, requestID,
			pkg.NoticePayload{Message: "TTS synthesis failed."}))
		return
	}
	p.emitter.SendTo(sessionID, pkg.NewEvent(pkg.EventAudioReady, requestID,
		pkg.AudioPayload{URL: url}))
}
