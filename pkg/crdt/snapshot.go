package crdt

import (
	"github.com/wdcollab/wdcore/pkg/doctree"
	"github.com/wdcollab/wdcore/pkg/identity"
)

// Snapshot is a point-in-time capture of an engine's state: the version
// counter lets a host decide whether its own copy is stale without
// comparing the (larger) vector clock or tree, the vector clock is what a
// reconnecting replica compares against to know which operations it still
// needs, and Tree is the materialized projection a host can render or save
// directly (spec.md §4.4 "Snapshots" — taken at policy-driven intervals,
// never from inside the delivery loop, so a snapshot always reflects a
// fully-applied, internally consistent state).
type Snapshot struct {
	Version int64
	Clock   identity.VectorClock
	Tree    *doctree.Tree
}

// Snapshot materializes the engine's current state. version is supplied by
// the caller (e.g. an autosave sequence counter) rather than tracked
// internally, so the engine has no opinion on snapshot cadence.
func (e *Engine) Snapshot(version int64) Snapshot {
	return Snapshot{Version: version, Clock: e.vc.Clone(), Tree: e.Materialize()}
}

// Materialize projects the engine's CRDT-native structural and text state
// into a doctree.Tree: a fresh walk from the engine's known root, in RGA
// child order, with each leaf run's text pulled from its RGASequence. This
// is the only place the engine's internal representation and doctree.Tree
// meet; local edits never touch the engine at all; only collaborative
// sessions round-trip through Materialize to hand a tree to the rest of
// the system (rendering, saving, undo history).
func (e *Engine) Materialize() *doctree.Tree {
	root := e.rootID()
	rootKind := doctree.KindDocument
	if k, ok := e.nodeKind[root]; ok {
		rootKind = doctree.Kind(k)
	}
	t := doctree.NewRooted(root, rootKind)

	var walk func(parent identity.NodeID)
	walk = func(parent identity.NodeID) {
		for i, child := range e.Children(parent) {
			kind := doctree.Kind(e.nodeKind[child])
			node := doctree.NewNode(kind)
			node.ID = child
			if doctree.IsLeaf(kind) {
				node.Text = e.Text(child)
			}
			next, err := t.Insert(node, parent, i)
			if err != nil {
				continue
			}
			t = next
			walk(child)
		}
	}
	walk(root)
	return t
}

// FlattenNodes walks the snapshot's tree from its root and returns every
// reachable node in pre-order. Storage backends use this to persist a
// snapshot as a flat row set rather than needing doctree.Tree to expose its
// internal arena directly.
func (s Snapshot) FlattenNodes() []*doctree.Node {
	if s.Tree == nil {
		return nil
	}
	var out []*doctree.Node
	var walk func(id identity.NodeID)
	walk = func(id identity.NodeID) {
		n, ok := s.Tree.Get(id)
		if !ok {
			return
		}
		out = append(out, n)
		for _, child := range s.Tree.Children(id) {
			walk(child)
		}
	}
	walk(s.Tree.Root())
	return out
}

// rootID returns the one structural node tracked in e.children that has no
// recorded parent: every node placed by a StructureInsert gets a parentOf
// entry, so the root (registered directly by NewEngine) is the exception.
func (e *Engine) rootID() identity.NodeID {
	for id := range e.children {
		if _, has := e.parentOf[id]; !has {
			return id
		}
	}
	return identity.NilNodeID
}
