package speech

import (
	"fmt"
	"os"
	"path/filepath"
	"sync/atomic"
	"time"
)

// Store persists synthesized audio under a local directory and hands back
// the URL path clients fetch it from.
type Store struct {
	dir string
	seq atomic.Uint64
}

// NewStore creates the audio directory if needed and returns a Store.
func NewStore(dir string) (*Store, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("create audio dir: %w", err)
	}
	return &Store{dir: dir}, nil
}

// Dir returns the directory audio files are written to.
func (s *Store) Dir() string { return s.dir }

// Save writes the audio bytes to a timestamp-named mp3 file and returns the
// URL path it is served under. A sequence suffix keeps names unique when
// two requests finish within the same second.
func (s *Store) Save(audio []byte) (string, error) {
	name := fmt.Sprintf("%s_%04d.mp3", time.Now().Format("20060102_150405"), s.seq.Add(1)%10000)
	if err := os.WriteFile(filepath.Join(s.dir, name), audio, 0o644); err != nil {
		return "", fmt.Errorf("save audio: %w", err)
	}
	return "/audio/" + name, nil
}
