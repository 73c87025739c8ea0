package runstate

import (
	"encoding/json"
	"os"
	"path/filepath"
	"time"

	"github.com/rotisserie/eris"
)

// State is the outcome of the last successful load.
type State struct {
	LastLoadAt  time.Time `json:"last_load_at"`
	LoadID      string    `json:"load_id,omitempty"`
	InputDigest string    `json:"input_digest,omitempty"`
	Companies   int       `json:"companies"`
}

// Unchanged reports whether digest matches the recorded input.
func (s *State) Unchanged(digest string) bool {
	return s != nil && digest != "" && s.InputDigest == digest
}

// Load returns the saved state, or an empty State when none exists yet.
func Load(path string) (*State, error) {
	if path == "" {
		return nil, eris.New("runstate: path is required")
	}
	payload, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return &State{}, nil
		}
		return nil, eris.Wrapf(err, "runstate: read %s", path)
	}
	var state State
	if err := json.Unmarshal(payload, &state); err != nil {
		return nil, eris.Wrapf(err, "runstate: decode %s", path)
	}
	return &state, nil
}

func Save(path string, state *State) error {
	if path == "" {
		return eris.New("runstate: path is required")
	}
	if state == nil {
		return eris.New("runstate: state is nil")
	}
	dir := filepath.Dir(path)
	if dir != "." && dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return eris.Wrapf(err, "runstate: create %s", dir)
		}
	}
	payload, err := json.Marshal(state)
	if err != nil {
		return eris.Wrap(err, "runstate: encode")
	}
	return eris.Wrap(os.WriteFile(path, append(payload, '\n'), 0o644), "runstate: write")
}
