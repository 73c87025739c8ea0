package rawstore

import (
	"bufio"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/rotisserie/eris"

	"github.com/ITP-ICN-G05/ICN-Mobile-sub001/model"
)

// RejectedRecord is one skipped raw row with the load that skipped it.
type RejectedRecord struct {
	LoadID     string    `json:"load_id"`
	ObservedAt time.Time `json:"observed_at"`
	model.Rejection
}

// FileStore appends rejected records to daily rotated JSONL files named
// rejected-YYYYMMDD.jsonl.
type FileStore struct {
	dir         string
	now         func() time.Time
	mu          sync.Mutex
	currentDate string
	file        *os.File
	writer      *bufio.Writer
}

func NewFileStore(dir string) *FileStore {
	return &FileStore{
		dir: dir,
		now: time.Now,
	}
}

func (s *FileStore) Append(rec RejectedRecord) error {
	if s == nil {
		return eris.New("rawstore: store is nil")
	}
	if s.dir == "" {
		return eris.New("rawstore: directory is required")
	}
	if rec.ObservedAt.IsZero() {
		rec.ObservedAt = s.now()
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	dateKey := rec.ObservedAt.Format("20060102")
	if err := s.ensureWriter(dateKey); err != nil {
		return err
	}

	payload, err := json.Marshal(rec)
	if err != nil {
		return eris.Wrap(err, "rawstore: encode record")
	}
	if _, err := s.writer.Write(append(payload, '\n')); err != nil {
		return eris.Wrap(err, "rawstore: write record")
	}
	return nil
}

// AppendAll writes every rejection of one load and flushes.
func (s *FileStore) AppendAll(loadID string, rejections []model.Rejection) error {
	if len(rejections) == 0 {
		return nil
	}
	observedAt := s.now()
	for _, rejection := range rejections {
		if err := s.Append(RejectedRecord{LoadID: loadID, ObservedAt: observedAt, Rejection: rejection}); err != nil {
			return err
		}
	}
	return s.Flush()
}

func (s *FileStore) Flush() error {
	if s == nil {
		return nil
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.writer == nil {
		return nil
	}
	return eris.Wrap(s.writer.Flush(), "rawstore: flush")
}

func (s *FileStore) Close() error {
	if s == nil {
		return nil
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.closeLocked()
}

func (s *FileStore) closeLocked() error {
	if s.writer != nil {
		if err := s.writer.Flush(); err != nil {
			return eris.Wrap(err, "rawstore: flush")
		}
	}
	if s.file != nil {
		if err := s.file.Close(); err != nil {
			return eris.Wrap(err, "rawstore: close")
		}
	}
	s.writer = nil
	s.file = nil
	s.currentDate = ""
	return nil
}

func (s *FileStore) ensureWriter(dateKey string) error {
	if s.writer != nil && s.currentDate == dateKey {
		return nil
	}
	return s.rotate(dateKey)
}

func (s *FileStore) rotate(dateKey string) error {
	if err := s.closeLocked(); err != nil {
		return err
	}
	if err := os.MkdirAll(s.dir, 0o755); err != nil {
		return eris.Wrapf(err, "rawstore: create %s", s.dir)
	}

	path := filepath.Join(s.dir, fmt.Sprintf("rejected-%s.jsonl", dateKey))
	file, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
	if err != nil {
		return eris.Wrapf(err, "rawstore: open %s", path)
	}
	s.file = file
	s.writer = bufio.NewWriterSize(file, 64*1024)
	s.currentDate = dateKey
	return nil
}
