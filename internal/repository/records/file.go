package records

import (
	"bufio"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"github.com/oshokin/accirescue/internal/config"
	domain "github.com/oshokin/accirescue/internal/domain/alert"
)

// FileRepository appends the notification log to a JSON-lines file on disk.
type FileRepository struct {
	// path is the filesystem location of the log.
	path string
	// mu serializes appends and reads of the file.
	mu sync.Mutex
}

// NewFileRepository creates a repository that reads/writes JSON lines at the provided path.
func NewFileRepository(path string) *FileRepository {
	return &FileRepository{
		path: filepath.Clean(path),
	}
}

// Append writes the record as one line at the end of the file.
func (r *FileRepository) Append(_ context.Context, record *domain.NotificationRecord) error {
	if record == nil {
		return errRecordRequired
	}

	data, err := json.Marshal(record)
	if err != nil {
		return fmt.Errorf("encode record: %w", err)
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	f, err := os.OpenFile(r.path, os.O_CREATE|os.O_APPEND|os.O_WRONLY, config.DefaultFilePermissions)
	if err != nil {
		return fmt.Errorf("open records file: %w", err)
	}

	if _, err = f.Write(append(data, '\n')); err != nil {
		_ = f.Close()
		return fmt.Errorf("write records file: %w", err)
	}

	if err = f.Close(); err != nil {
		return fmt.Errorf("close records file: %w", err)
	}

	return nil
}

// List returns the records of one alert in write order. Empty alertID returns all records.
// ErrNotFound is returned when no record matches.
func (r *FileRepository) List(_ context.Context, alertID string) ([]*domain.NotificationRecord, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	f, err := os.Open(r.path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, ErrNotFound
		}

		return nil, fmt.Errorf("open records file: %w", err)
	}

	defer func() {
		_ = f.Close()
	}()

	var (
		out     []*domain.NotificationRecord
		scanner = bufio.NewScanner(f)
	)

	for scanner.Scan() {
		line := scanner.Bytes()
		if len(line) == 0 {
			continue
		}

		var record domain.NotificationRecord
		if err = json.Unmarshal(line, &record); err != nil {
			return nil, fmt.Errorf("decode record: %w", err)
		}

		if alertID != "" && record.AlertID != alertID {
			continue
		}

		out = append(out, &record)
	}

	if err = scanner.Err(); err != nil {
		return nil, fmt.Errorf("scan records file: %w", err)
	}

	if len(out) == 0 {
		return nil, ErrNotFound
	}

	return out, nil
}
