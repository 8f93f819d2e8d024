// Package presence implements the per-client transient collaboration state
// described in spec.md §4.5: display name, color, current selection and
// last-seen timestamp for every client editing a document, plus the
// capability checks (permissions.go) gating local commands and outgoing
// CRDT operations. Presence is explicitly not a CRDT: it is replaced
// wholesale on each update and garbage-collected after an idle timeout,
// so it is backed by pkg/presence/cache rather than pkg/opstore.
package presence

import (
	"context"
	"encoding/json"
	"fmt"
	"sort"
	"time"

	"github.com/wdcollab/wdcore/pkg/identity"
	"github.com/wdcollab/wdcore/pkg/presence/cache"
	"github.com/wdcollab/wdcore/pkg/selection"
)

// DefaultIdleTimeout is how long a client's presence survives without an
// update before GC reclaims it (spec.md §4.5 "garbage-collected after an
// idle timeout").
const DefaultIdleTimeout = 30 * time.Second

// cacheTTLMultiplier sets the cache TTL to four times the tracker's idle
// timeout, well above it, so a slow GC sweep never
// races a cache eviction: GC always decides staleness from LastSeen, not
// from whether the cache entry happens to still exist.
const cacheTTLMultiplier = 4

// State is one client's transient presence in one document.
type State struct {
	Client      identity.ClientID
	Document    identity.NodeID
	DisplayName string
	Color       string
	Selection   selection.Selection
	LastSeen    time.Time
}

func (s State) idle(now time.Time, timeout time.Duration) bool {
	return now.Sub(s.LastSeen) > timeout
}

// Tracker holds presence for every document being collaboratively edited.
// It keeps two kinds of cache entries per document: one State per client,
// and a roster listing which clients currently have one, since Cache has
// no key-enumeration primitive of its own.
type Tracker struct {
	cache       cache.Cache
	idleTimeout time.Duration
}

// NewTracker creates a Tracker backed by c. idleTimeout <= 0 uses
// DefaultIdleTimeout.
func NewTracker(c cache.Cache, idleTimeout time.Duration) *Tracker {
	if idleTimeout <= 0 {
		idleTimeout = DefaultIdleTimeout
	}
	return &Tracker{cache: c, idleTimeout: idleTimeout}
}

func stateKey(document identity.NodeID, client identity.ClientID) string {
	return fmt.Sprintf("presence:%s:client:%s", document, client)
}

func rosterKey(document identity.NodeID) string {
	return fmt.Sprintf("presence:%s:roster", document)
}

// Update records that client is still active in document, at the given
// selection, under displayName. The client's color is assigned from
// Palette and is stable across calls. Update is the only write path:
// presence has no incremental delta, it is always replaced wholesale.
func (t *Tracker) Update(ctx context.Context, document identity.NodeID, client identity.ClientID, displayName string, sel selection.Selection) (State, error) {
	st := State{
		Client:      client,
		Document:    document,
		DisplayName: displayName,
		Color:       ColorFor(client),
		Selection:   sel,
		LastSeen:    time.Now(),
	}

	ttl := t.idleTimeout * cacheTTLMultiplier
	if err := t.cache.Set(ctx, stateKey(document, client), st, ttl); err != nil {
		return State{}, fmt.Errorf("presence: update %s: %w", client, err)
	}

	if err := t.addToRoster(ctx, document, client, ttl); err != nil {
		return State{}, err
	}
	return st, nil
}

// Remove drops client's presence from document immediately (an explicit
// "leave", as opposed to idle GC).
func (t *Tracker) Remove(ctx context.Context, document identity.NodeID, client identity.ClientID) error {
	if err := t.cache.Delete(ctx, stateKey(document, client)); err != nil {
		return fmt.Errorf("presence: remove %s: %w", client, err)
	}
	return t.removeFromRoster(ctx, document, client)
}

// List returns every non-idle client currently present in document, sorted
// by client id for deterministic output. Entries whose state has aged past
// the idle timeout, or whose cache entry has already expired, are pruned
// from the roster as a side effect.
func (t *Tracker) List(ctx context.Context, document identity.NodeID) ([]State, error) {
	roster, err := t.readRoster(ctx, document)
	if err != nil {
		return nil, err
	}

	now := time.Now()
	out := make([]State, 0, len(roster))
	var stale []identity.ClientID
	for _, client := range roster {
		var st State
		err := t.cache.Get(ctx, stateKey(document, client), &st)
		if err == cache.ErrNotFound {
			stale = append(stale, client)
			continue
		}
		if err != nil {
			return nil, fmt.Errorf("presence: list %s: %w", client, err)
		}
		if st.idle(now, t.idleTimeout) {
			stale = append(stale, client)
			continue
		}
		out = append(out, st)
	}

	if len(stale) > 0 {
		t.pruneRoster(ctx, document, stale)
	}

	sort.Slice(out, func(i, j int) bool { return out[i].Client < out[j].Client })
	return out, nil
}

// GC sweeps document's roster and removes every client whose presence has
// gone idle, including deleting its cache entry outright (List only prunes
// the roster; GC is for callers that run a periodic background sweep and
// want the cache entries reclaimed too, not left to expire on their own).
func (t *Tracker) GC(ctx context.Context, document identity.NodeID) (removed int, err error) {
	roster, err := t.readRoster(ctx, document)
	if err != nil {
		return 0, err
	}

	now := time.Now()
	var stale []identity.ClientID
	for _, client := range roster {
		var st State
		err := t.cache.Get(ctx, stateKey(document, client), &st)
		if err == cache.ErrNotFound || st.idle(now, t.idleTimeout) {
			stale = append(stale, client)
			continue
		}
		if err != nil {
			return 0, fmt.Errorf("presence: gc %s: %w", client, err)
		}
	}

	for _, client := range stale {
		_ = t.cache.Delete(ctx, stateKey(document, client))
	}
	t.pruneRoster(ctx, document, stale)
	return len(stale), nil
}

func (t *Tracker) readRoster(ctx context.Context, document identity.NodeID) ([]identity.ClientID, error) {
	var roster []identity.ClientID
	err := t.cache.Get(ctx, rosterKey(document), &roster)
	if err == cache.ErrNotFound {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("presence: roster %s: %w", document, err)
	}
	return roster, nil
}

func (t *Tracker) writeRoster(ctx context.Context, document identity.NodeID, roster []identity.ClientID, ttl time.Duration) error {
	if err := t.cache.Set(ctx, rosterKey(document), roster, ttl); err != nil {
		return fmt.Errorf("presence: roster %s: %w", document, err)
	}
	return nil
}

func (t *Tracker) addToRoster(ctx context.Context, document identity.NodeID, client identity.ClientID, ttl time.Duration) error {
	roster, err := t.readRoster(ctx, document)
	if err != nil {
		return err
	}
	for _, c := range roster {
		if c == client {
			return t.writeRoster(ctx, document, roster, ttl)
		}
	}
	return t.writeRoster(ctx, document, append(roster, client), ttl)
}

func (t *Tracker) removeFromRoster(ctx context.Context, document identity.NodeID, client identity.ClientID) error {
	t.pruneRoster(ctx, document, []identity.ClientID{client})
	return nil
}

func (t *Tracker) pruneRoster(ctx context.Context, document identity.NodeID, remove []identity.ClientID) {
	roster, err := t.readRoster(ctx, document)
	if err != nil || len(roster) == 0 {
		return
	}
	drop := make(map[identity.ClientID]bool, len(remove))
	for _, c := range remove {
		drop[c] = true
	}
	kept := roster[:0]
	for _, c := range roster {
		if !drop[c] {
			kept = append(kept, c)
		}
	}
	_ = t.writeRoster(ctx, document, kept, t.idleTimeout*cacheTTLMultiplier)
}

// MarshalState allows callers that broadcast presence over their own
// transport (e.g. a websocket hub) to reuse the same JSON shape the cache
// stores, so a client's wire format doesn't drift from what Tracker itself
// round-trips.
func MarshalState(st State) ([]byte, error) {
	return json.Marshal(st)
}
