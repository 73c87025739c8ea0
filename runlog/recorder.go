package runlog

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/google/uuid"
	"github.com/rotisserie/eris"
)

type Status string

const (
	StatusStarted   Status = "started"
	StatusCompleted Status = "completed"
	StatusFailed    Status = "failed"
)

// RunRecord describes one load. It is rewritten on start and on finish.
type RunRecord struct {
	ID          string            `json:"id"`
	Origin      string            `json:"origin,omitempty"`
	StartedAt   time.Time         `json:"started_at"`
	CompletedAt time.Time         `json:"completed_at,omitempty"`
	Status      Status            `json:"status"`
	Error       string            `json:"error,omitempty"`
	Metrics     map[string]int64  `json:"metrics,omitempty"`
	Tags        map[string]string `json:"tags,omitempty"`
}

type Recorder struct {
	dir   string
	now   func() time.Time
	newID func() string
}

func NewRecorder(dir string) *Recorder {
	return &Recorder{
		dir:   dir,
		now:   time.Now,
		newID: uuid.NewString,
	}
}

// Start writes a started record. An empty id is replaced by a new UUID.
func (r *Recorder) Start(id, origin string) (*RunRecord, error) {
	if r == nil {
		return nil, eris.New("runlog: recorder is nil")
	}
	if r.dir == "" {
		return nil, eris.New("runlog: directory is required")
	}
	if id == "" {
		id = r.newID()
	}
	record := &RunRecord{
		ID:        id,
		Origin:    origin,
		StartedAt: r.now(),
		Status:    StatusStarted,
	}
	if err := r.write(record); err != nil {
		return nil, err
	}
	return record, nil
}

func (r *Recorder) Finish(record *RunRecord, metrics map[string]int64, runErr error) error {
	if r == nil {
		return eris.New("runlog: recorder is nil")
	}
	if record == nil {
		return eris.New("runlog: record is nil")
	}
	record.CompletedAt = r.now()
	if len(metrics) > 0 {
		record.Metrics = metrics
	}
	if runErr != nil {
		record.Status = StatusFailed
		record.Error = runErr.Error()
	} else {
		record.Status = StatusCompleted
		record.Error = ""
	}
	return r.write(record)
}

// Read loads a previously written record by id.
func (r *Recorder) Read(id string) (*RunRecord, error) {
	if r == nil {
		return nil, eris.New("runlog: recorder is nil")
	}
	payload, err := os.ReadFile(r.path(id))
	if err != nil {
		return nil, eris.Wrapf(err, "runlog: read run %s", id)
	}
	var record RunRecord
	if err := json.Unmarshal(payload, &record); err != nil {
		return nil, eris.Wrapf(err, "runlog: decode run %s", id)
	}
	return &record, nil
}

func (r *Recorder) path(id string) string {
	return filepath.Join(r.dir, fmt.Sprintf("run-%s.json", id))
}

func (r *Recorder) write(record *RunRecord) error {
	if err := os.MkdirAll(r.dir, 0o755); err != nil {
		return eris.Wrapf(err, "runlog: create %s", r.dir)
	}
	payload, err := json.Marshal(record)
	if err != nil {
		return eris.Wrap(err, "runlog: encode record")
	}
	return eris.Wrap(os.WriteFile(r.path(record.ID), append(payload, '\n'), 0o644), "runlog: write record")
}
