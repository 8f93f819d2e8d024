// Package registry implements the document-wide side tables described in
// spec.md §3: styles, numbering, bookmarks, comments, revisions, and
// protected regions. All are keyed by identity.NodeID and held on the
// document rather than in the tree itself.
package registry

import (
	"fmt"

	lru "github.com/hashicorp/golang-lru/v2"

	"github.com/wdcollab/wdcore/pkg/identity"
)

// StyleKind distinguishes the four style families sharing one registry.
type StyleKind int

const (
	StyleParagraph StyleKind = iota
	StyleCharacter
	StyleTable
	StyleNumbering
)

// Style is a named, inheritable formatting record. Resolving a run's
// effective formatting walks BasedOn to the root style, then overlays each
// level's Properties in order (spec.md §3 "overlaying direct formatting
// last").
type Style struct {
	ID         identity.NodeID
	Name       string
	Kind       StyleKind
	BasedOn    identity.NodeID // zero if none
	NextStyle  identity.NodeID // style applied to a new paragraph after this one
	Properties map[string]any
}

// StyleRegistry holds every named style in the document.
type StyleRegistry struct {
	styles map[identity.NodeID]*Style
	byName map[string]identity.NodeID
	cache  *lru.Cache[identity.NodeID, map[string]any]
}

// NewStyleRegistry creates an empty registry. A small LRU caches resolved
// style chains: resolution re-walks BasedOn on every run render otherwise,
// and runs sharing a style are common (SPEC_FULL.md domain stack: the
// teacher's go.mod golang-lru dependency is wired in here).
func NewStyleRegistry() *StyleRegistry {
	cache, _ := lru.New[identity.NodeID, map[string]any](256)
	return &StyleRegistry{
		styles: make(map[identity.NodeID]*Style),
		byName: make(map[string]identity.NodeID),
		cache:  cache,
	}
}

// Add registers a style, rejecting a BasedOn chain that would cycle
// (spec.md §3 invariant 6).
func (r *StyleRegistry) Add(s *Style) error {
	if s.ID.IsNil() {
		s.ID = identity.NewNodeID()
	}
	if !s.BasedOn.IsNil() {
		if _, ok := r.styles[s.BasedOn]; !ok {
			return fmt.Errorf("registry: based_on style %s does not exist", s.BasedOn)
		}
	}
	r.styles[s.ID] = s
	r.byName[s.Name] = s.ID

	if err := r.checkAcyclic(s.ID); err != nil {
		delete(r.styles, s.ID)
		delete(r.byName, s.Name)
		return err
	}
	r.cache.Purge()
	return nil
}

// Get returns a style by id.
func (r *StyleRegistry) Get(id identity.NodeID) (*Style, bool) {
	s, ok := r.styles[id]
	return s, ok
}

// GetByName returns a style by its unique name.
func (r *StyleRegistry) GetByName(name string) (*Style, bool) {
	id, ok := r.byName[name]
	if !ok {
		return nil, false
	}
	s, ok := r.styles[id]
	return s, ok
}

// checkAcyclic verifies traversing BasedOn from id terminates (T6).
func (r *StyleRegistry) checkAcyclic(id identity.NodeID) error {
	seen := make(map[identity.NodeID]bool)
	cur := id
	for {
		if seen[cur] {
			return fmt.Errorf("registry: style %s has a cyclic based_on chain", id)
		}
		seen[cur] = true
		s, ok := r.styles[cur]
		if !ok || s.BasedOn.IsNil() {
			return nil
		}
		cur = s.BasedOn
	}
}

// Resolve computes the effective properties for id by walking BasedOn from
// the furthest ancestor down, overlaying each level. Direct formatting on
// the run itself is the caller's responsibility to overlay last.
func (r *StyleRegistry) Resolve(id identity.NodeID) (map[string]any, error) {
	if cached, ok := r.cache.Get(id); ok {
		return cloneProps(cached), nil
	}

	var chain []*Style
	seen := make(map[identity.NodeID]bool)
	cur := id
	for {
		if seen[cur] {
			return nil, fmt.Errorf("registry: cyclic based_on chain resolving style %s", id)
		}
		seen[cur] = true
		s, ok := r.styles[cur]
		if !ok {
			break
		}
		chain = append(chain, s)
		if s.BasedOn.IsNil() {
			break
		}
		cur = s.BasedOn
	}

	resolved := make(map[string]any)
	for i := len(chain) - 1; i >= 0; i-- {
		for k, v := range chain[i].Properties {
			resolved[k] = v
		}
	}

	r.cache.Add(id, cloneProps(resolved))
	return resolved, nil
}

func cloneProps(m map[string]any) map[string]any {
	out := make(map[string]any, len(m))
	for k, v := range m {
		out[k] = v
	}
	return out
}
