package autosave

import (
	"sync"
	"time"

	"github.com/wdcollab/wdcore/pkg/identity"
)

// Sidecar is the metadata record written next to every autosave snapshot
// (spec.md §4.7 "a sidecar metadata record {doc_id, original_path?,
// timestamp, version}").
type Sidecar struct {
	DocID        identity.NodeID `json:"doc_id"`
	OriginalPath string          `json:"original_path,omitempty"`
	Timestamp    time.Time       `json:"timestamp"`
	Version      int64           `json:"version"`
}

// Status is the observable autosave state a host surfaces through its
// AutosaveStatusChanged subscription (spec.md §6). LastError persists
// across cycles so a host can show "last autosave failed at ..." instead
// of the error disappearing the instant the next cycle starts (spec.md §7
// "Autosave failures are recorded in AutosaveStatus.last_error and
// retried on the next interval").
type Status struct {
	mu         sync.RWMutex
	saving     bool
	lastSaved  time.Time
	lastError  error
	saveCount  int64
	errorCount int64
}

// Snapshot returns a copy of the current status fields.
func (s *Status) Snapshot() (saving bool, lastSaved time.Time, lastErr error, saveCount, errorCount int64) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.saving, s.lastSaved, s.lastError, s.saveCount, s.errorCount
}

func (s *Status) beginSave() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.saving = true
}

func (s *Status) endSave(at time.Time, err error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.saving = false
	if err != nil {
		s.lastError = err
		s.errorCount++
		return
	}
	s.lastSaved = at
	s.lastError = nil
	s.saveCount++
}
