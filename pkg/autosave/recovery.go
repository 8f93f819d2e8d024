package autosave

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/wdcollab/wdcore/pkg/identity"
)

// DefaultRecoveryDir is where autosave snapshots and sidecars live,
// distinct from the user's own save file (spec.md §4.7).
const DefaultRecoveryDir = ".autosave"

// DefaultRetention is how long an unresolved autosave survives before
// Sweep reclaims it (spec.md §4.7 "Autosaves older than a retention
// window (default 7 days) are swept").
const DefaultRetention = 7 * 24 * time.Hour

const (
	snapshotSuffix = ".autosave.wdj"
	sidecarSuffix  = ".autosave.json"
)

// Store persists autosave snapshots and their sidecars to disk. It is the
// filesystem-backed implementation of the recovery location spec.md §4.7
// describes; a document owner task never writes its real save file
// through here.
type Store struct {
	dir string
}

// NewStore creates a Store rooted at dir, creating it if necessary.
// dir == "" uses DefaultRecoveryDir.
func NewStore(dir string) (*Store, error) {
	if dir == "" {
		dir = DefaultRecoveryDir
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("autosave: create recovery dir: %w", err)
	}
	return &Store{dir: dir}, nil
}

func (s *Store) snapshotPath(docID identity.NodeID) string {
	return filepath.Join(s.dir, docID.String()+snapshotSuffix)
}

func (s *Store) sidecarPath(docID identity.NodeID) string {
	return filepath.Join(s.dir, docID.String()+sidecarSuffix)
}

// Write persists data and sidecar atomically with respect to crashes: both
// files are written to temp names and renamed into place, data first. If
// the sidecar write fails, the just-written snapshot is removed so a
// reader never observes a snapshot with no sidecar (spec.md §8 T7 "either
// both ... exist and are internally consistent, or neither exists").
func (s *Store) Write(ctx context.Context, docID identity.NodeID, data []byte, sidecar Sidecar) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	snapPath := s.snapshotPath(docID)
	if err := writeFileAtomic(snapPath, data); err != nil {
		return fmt.Errorf("autosave: write snapshot: %w", err)
	}

	encoded, err := json.Marshal(sidecar)
	if err != nil {
		_ = os.Remove(snapPath)
		return fmt.Errorf("autosave: encode sidecar: %w", err)
	}

	if err := writeFileAtomic(s.sidecarPath(docID), encoded); err != nil {
		_ = os.Remove(snapPath)
		return fmt.Errorf("autosave: write sidecar: %w", err)
	}
	return nil
}

func writeFileAtomic(path string, data []byte) error {
	tmp := path + ".tmp"
	if err := os.WriteFile(tmp, data, 0o644); err != nil {
		return err
	}
	return os.Rename(tmp, path)
}

// List enumerates every sidecar present in the recovery directory (spec.md
// §4.7 "a recovery manager enumerates sidecars in the recovery
// directory"). Used on startup to infer a crash: if any exist, the host
// is offered the list.
func (s *Store) List(ctx context.Context) ([]Sidecar, error) {
	entries, err := os.ReadDir(s.dir)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("autosave: list recovery dir: %w", err)
	}

	var out []Sidecar
	for _, e := range entries {
		if e.IsDir() || !strings.HasSuffix(e.Name(), sidecarSuffix) {
			continue
		}
		raw, err := os.ReadFile(filepath.Join(s.dir, e.Name()))
		if err != nil {
			continue
		}
		var sidecar Sidecar
		if err := json.Unmarshal(raw, &sidecar); err != nil {
			continue
		}
		out = append(out, sidecar)
	}

	sort.Slice(out, func(i, j int) bool { return out[i].Timestamp.Before(out[j].Timestamp) })
	return out, nil
}

// Recover reads back a document's autosaved snapshot and sidecar.
func (s *Store) Recover(ctx context.Context, docID identity.NodeID) ([]byte, Sidecar, error) {
	data, err := os.ReadFile(s.snapshotPath(docID))
	if err != nil {
		return nil, Sidecar{}, fmt.Errorf("autosave: read snapshot: %w", err)
	}
	raw, err := os.ReadFile(s.sidecarPath(docID))
	if err != nil {
		return nil, Sidecar{}, fmt.Errorf("autosave: read sidecar: %w", err)
	}
	var sidecar Sidecar
	if err := json.Unmarshal(raw, &sidecar); err != nil {
		return nil, Sidecar{}, fmt.Errorf("autosave: decode sidecar: %w", err)
	}
	return data, sidecar, nil
}

// Discard removes both files for docID (spec.md §4.7 "Discarding removes
// both files"). Recovering also removes both files once the user's next
// save succeeds ("on next user save, removes both files"), so Discard
// serves both call sites.
func (s *Store) Discard(ctx context.Context, docID identity.NodeID) error {
	var firstErr error
	for _, path := range []string{s.snapshotPath(docID), s.sidecarPath(docID)} {
		if err := os.Remove(path); err != nil && !os.IsNotExist(err) && firstErr == nil {
			firstErr = err
		}
	}
	return firstErr
}

// Sweep removes every autosave older than retention, as measured from its
// sidecar's Timestamp against now (spec.md §4.7 "Autosaves older than a
// retention window ... are swept").
func (s *Store) Sweep(ctx context.Context, retention time.Duration, now time.Time) (removed int, err error) {
	if retention <= 0 {
		retention = DefaultRetention
	}
	sidecars, err := s.List(ctx)
	if err != nil {
		return 0, err
	}
	for _, sidecar := range sidecars {
		if now.Sub(sidecar.Timestamp) > retention {
			if err := s.Discard(ctx, sidecar.DocID); err == nil {
				removed++
			}
		}
	}
	return removed, nil
}

// HumanAge renders "N minutes ago"-style text for a recovery list entry
// (spec.md §4.7 "a human-readable 'N minutes ago'").
func HumanAge(at, now time.Time) string {
	d := now.Sub(at)
	switch {
	case d < time.Minute:
		return "just now"
	case d < time.Hour:
		n := int(d / time.Minute)
		return fmt.Sprintf("%d minute%s ago", n, plural(n))
	case d < 24*time.Hour:
		n := int(d / time.Hour)
		return fmt.Sprintf("%d hour%s ago", n, plural(n))
	default:
		n := int(d / (24 * time.Hour))
		return fmt.Sprintf("%d day%s ago", n, plural(n))
	}
}

func plural(n int) string {
	if n == 1 {
		return ""
	}
	return "s"
}
