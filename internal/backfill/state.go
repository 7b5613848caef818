package backfill

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"slices"
	"time"
)

// DefaultStatePath is where progress is kept between runs.
const DefaultStatePath = "~/.secondthought/backfill-state.json"

// State tracks progress for resumable backfill runs.
type State struct {
	StartedAt        time.Time         `json:"started_at"`
	LastProcessedAt  time.Time         `json:"last_processed_at"`
	FilesProcessed   []string          `json:"files_processed"`
	FilesRemaining   int               `json:"files_remaining"`
	AssessmentsSaved int               `json:"assessments_saved"`
	LowTrust         int               `json:"low_trust"`
	Fingerprints     map[string]string `json:"fingerprints"`
	Errors           []string          `json:"errors"`

	path string
}

// LoadState loads state from path, or starts a new one if none exists.
func LoadState(path string) (*State, error) {
	p := expandHome(path)

	data, err := os.ReadFile(p)
	if err != nil {
		if os.IsNotExist(err) {
			return &State{
				StartedAt:    time.Now().UTC(),
				Fingerprints: make(map[string]string),
				path:         p,
			}, nil
		}
		return nil, fmt.Errorf("read state: %w", err)
	}

	var s State
	if err := json.Unmarshal(data, &s); err != nil {
		return nil, fmt.Errorf("parse state: %w", err)
	}
	if s.Fingerprints == nil {
		s.Fingerprints = make(map[string]string)
	}
	s.path = p
	return &s, nil
}

// Save persists the state to disk.
func (s *State) Save() error {
	s.LastProcessedAt = time.Now().UTC()

	if err := os.MkdirAll(filepath.Dir(s.path), 0o755); err != nil {
		return fmt.Errorf("mkdir: %w", err)
	}

	data, err := json.MarshalIndent(s, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal state: %w", err)
	}

	return os.WriteFile(s.path, data, 0o644)
}

func (s *State) IsProcessed(path string) bool {
	return slices.Contains(s.FilesProcessed, path)
}

func (s *State) MarkProcessed(path string) {
	s.FilesProcessed = append(s.FilesProcessed, path)
}

// Seen reports the file an identical transcript was first analyzed from.
func (s *State) Seen(fingerprint string) (string, bool) {
	path, ok := s.Fingerprints[fingerprint]
	return path, ok
}

func (s *State) Remember(fingerprint, path string) {
	if s.Fingerprints == nil {
		s.Fingerprints = make(map[string]string)
	}
	s.Fingerprints[fingerprint] = path
}

func (s *State) AddError(msg string) {
	s.Errors = append(s.Errors, msg)
}

func expandHome(path string) string {
	if len(path) > 1 && path[0] == '~' && path[1] == '/' {
		home, err := os.UserHomeDir()
		if err != nil {
			return path
		}
		return filepath.Join(home, path[2:])
	}
	return path
}
