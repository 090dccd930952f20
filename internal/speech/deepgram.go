// Package speech wraps the external speech services: Deepgram's REST API
// for transcription and synthesis, and the local store for synthesized
// audio files.
package speech

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"
)

const (
	deepgramSTTURL = "https://api.deepgram.com/v1/listen"
	deepgramTTSURL = "https://api.deepgram.com/v1/speak"
)

// Transcriber converts a raw audio payload into text. An empty transcript
// with a nil error means the service detected no speech.
type Transcriber interface {
	Transcribe(ctx context.Context, audio []byte) (string, error)
}

// Synthesizer converts text into a raw audio payload.
type Synthesizer interface {
	Synthesize(ctx context.Context, text string) ([]byte, error)
}

// DeepgramClient calls the Deepgram REST endpoints for both directions.
type DeepgramClient struct {
	apiKey   string
	sttModel string
	ttsModel string
	http     *http.Client
}

// NewDeepgramClient constructs a client. Timeout zero disables the per-call
// deadline, preserving the wait-forever behaviour of the original system.
func NewDeepgramClient(apiKey, sttModel, ttsModel string, timeout time.Duration) *DeepgramClient {
	return &DeepgramClient{
		apiKey:   apiKey,
		sttModel: sttModel,
		ttsModel: ttsModel,
		http:     &http.Client{Timeout: timeout},
	}
}

// sttResponse mirrors the slice of Deepgram's transcription response we
// actually read.
type sttResponse struct {
	Results struct {
		Channels []struct {
			Alternatives []struct {
				Transcript string `json:"transcript"`
			} `json:"alternatives"`
		} `json:"channels"`
	} `json:"results"`
}

// Transcribe posts the audio blob to Deepgram and returns the transcript of
// the first channel alternative.
func (c *DeepgramClient) Transcribe(ctx context.Context, audio []byte) (string, error) {
	q := url.Values{}
	q.Set("model", c.sttModel)
	q.Set("smart_format", "true")

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, deepgramSTTURL+"?"+q.Encode(), bytes.NewReader(audio))
	if err != nil {
		return "", err
	}
	req.Header.Set("Authorization", "Token "+c.apiKey)
	req.Header.Set("Content-Type", "audio/webm")

	resp, err := c.http.Do(req)
	if err != nil {
		return "", fmt.Errorf("deepgram stt request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		return "", fmt.Errorf("deepgram stt: status %d: %s", resp.StatusCode, body)
	}

	var parsed sttResponse
	if err := json.NewDecoder(resp.Body).Decode(&parsed); err != nil {
		return "", fmt.Errorf("deepgram stt response: %w", err)
	}
	if len(parsed.Results.Channels) == 0 || len(parsed.Results.Channels[0].Alternatives) == 0 {
		return "", nil
	}
	return parsed.Results.Channels[0].Alternatives[0].Transcript, nil
}

// Synthesize posts text to Deepgram's speak endpoint and returns the mp3
// bytes.
func (c *DeepgramClient) Synthesize(ctx context.Context, text string) ([]byte, error) {
	payload, err := json.Marshal(map[string]string{"text": text})
	if err != nil {
		return nil, err
	}

	q := url.Values{}
	q.Set("model", c.ttsModel)
	q.Set("encoding", "mp3")

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, deepgramTTSURL+"?"+q.Encode(), bytes.NewReader(payload))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Authorization", "Token "+c.apiKey)
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("deepgram tts request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		return nil, fmt.Errorf("deepgram tts: status %d: %s", resp.StatusCode, body)
	}
	return io.ReadAll(resp.Body)
}
