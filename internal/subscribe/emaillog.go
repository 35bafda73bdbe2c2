package subscribe

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"inspirewall/pkg/models"
)

// ISOTimestamp is the layout of EmailRecord.Timestamp.
const ISOTimestamp = "2006-01-02T15:04:05.000Z07:00"

// EmailLog is the local JSON backup of every accepted address. The whole
// array is rewritten on each append.
type EmailLog struct {
	mu   sync.Mutex
	path string
	now  func() time.Time
}

func NewEmailLog(path string) *EmailLog {
	return &EmailLog{path: path, now: time.Now}
}

func (l *EmailLog) Path() string { return l.path }

// ensure creates the file holding an empty array if it does not exist yet.
func (l *EmailLog) ensure() error {
	if err := os.MkdirAll(filepath.Dir(l.path), 0o755); err != nil {
		return fmt.Errorf("create data dir: %w", err)
	}
	if _, err := os.Stat(l.path); os.IsNotExist(err) {
		if err := os.WriteFile(l.path, []byte("[]"), 0o644); err != nil {
			return fmt.Errorf("create email log: %w", err)
		}
	}
	return nil
}

func (l *EmailLog) readLocked() ([]models.EmailRecord, error) {
	if err := l.ensure(); err != nil {
		return nil, err
	}
	data, err := os.ReadFile(l.path)
	if err != nil {
		return nil, fmt.Errorf("read email log: %w", err)
	}
	var all []models.EmailRecord
	if err := json.Unmarshal(data, &all); err != nil {
		return nil, fmt.Errorf("decode email log: %w", err)
	}
	if all == nil {
		all = []models.EmailRecord{}
	}
	return all, nil
}

// Append adds one record stamped with the current UTC time.
func (l *EmailLog) Append(email string) (models.EmailRecord, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	all, err := l.readLocked()
	if err != nil {
		return models.EmailRecord{}, err
	}
	rec := models.EmailRecord{Email: email, Timestamp: l.now().UTC().Format(ISOTimestamp)}
	all = append(all, rec)

	data, err := json.MarshalIndent(all, "", "  ")
	if err != nil {
		return models.EmailRecord{}, fmt.Errorf("encode email log: %w", err)
	}
	if err := os.WriteFile(l.path, data, 0o644); err != nil {
		return models.EmailRecord{}, fmt.Errorf("write email log: %w", err)
	}
	return rec, nil
}

func (l *EmailLog) All() ([]models.EmailRecord, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.readLocked()
}
