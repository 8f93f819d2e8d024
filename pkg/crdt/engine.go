// Package crdt also hosts the operation-based CRDT core of spec.md §4.4:
// an Engine applies TextInsert/TextDelete/StructureInsert/StructureDelete/
// FormatSet/Move operations to a document's CRDT-native state (RGA text
// sequences, RGA-ordered structural children, OpID-stamped format
// registers), buffering remote operations until they are causally ready.
//
// The engine intentionally does not mutate a pkg/doctree.Tree directly:
// convergence has to be provable per operation kind independent of the
// tree's own invariant checks, so the engine keeps its own minimal
// structural model and exposes Materialize to project it into a Tree for
// rendering or saving. Local (non-collaborative) edits bypass the engine
// entirely and mutate a Tree directly through pkg/command, per spec.md
// §4.4 "Local versus tracked edits".
package crdt

import (
	"fmt"

	"github.com/wdcollab/wdcore/pkg/identity"
)

// formatKey identifies a (target, attribute) pair for the FormatSet LWW
// registry.
type formatKey struct {
	target    identity.NodeID
	attribute string
}

// Engine holds one document's CRDT-native state.
type Engine struct {
	clock *identity.Clock
	vc    identity.VectorClock

	textSeqs map[identity.NodeID]*RGASequence
	opToSeq  map[identity.OpID]identity.NodeID // which sequence a TextInsert's OpID belongs to, for TextDelete

	children  map[identity.NodeID]*OrderedSet[identity.NodeID] // parent -> ordered live children
	nodeKind  map[identity.NodeID]int
	parentOf  map[identity.NodeID]identity.NodeID
	insertOp  map[identity.NodeID]identity.OpID // which op placed a structural node, for anchor lookups
	live      *ORSet

	formats map[formatKey]*LWWRegister

	pending *PendingBuffer
}

// NewEngine creates an engine for the given local client, rooted at root
// (the document's pre-existing root node id, registered as already live so
// the first real StructureInsert has somewhere to anchor).
func NewEngine(client identity.ClientID, root identity.NodeID) *Engine {
	e := &Engine{
		clock:    identity.NewClock(client),
		vc:       identity.NewVectorClock(),
		textSeqs: make(map[identity.NodeID]*RGASequence),
		opToSeq:  make(map[identity.OpID]identity.NodeID),
		children: make(map[identity.NodeID]*OrderedSet[identity.NodeID]),
		nodeKind: make(map[identity.NodeID]int),
		parentOf: make(map[identity.NodeID]identity.NodeID),
		insertOp: make(map[identity.NodeID]identity.OpID),
		live:     NewORSet(),
		formats:  make(map[formatKey]*LWWRegister),
		pending:  NewPendingBuffer(),
	}
	e.live.Add(root.String())
	e.children[root] = NewOrderedSet[identity.NodeID]()
	return e
}

// LocalClock exposes the engine's clock so callers can stamp operations
// they originate.
func (e *Engine) LocalClock() *identity.Clock { return e.clock }

// VectorClock returns a copy of the engine's current local clock.
func (e *Engine) VectorClock() identity.VectorClock { return e.vc.Clone() }

func (e *Engine) seq(node identity.NodeID) *RGASequence {
	s, ok := e.textSeqs[node]
	if !ok {
		s = NewRGASequence()
		e.textSeqs[node] = s
	}
	return s
}

func (e *Engine) childSet(node identity.NodeID) *OrderedSet[identity.NodeID] {
	s, ok := e.children[node]
	if !ok {
		s = NewOrderedSet[identity.NodeID]()
		e.children[node] = s
	}
	return s
}

// Stamp mints a fresh OpID for a locally-originated operation and attaches
// the current vector clock as the send-time stamp, advancing the local
// clock's own entry in vc.
func (e *Engine) Stamp() (identity.OpID, identity.VectorClock) {
	id := e.clock.Next()
	e.vc.Observe(id)
	return id, e.vc.Clone()
}

// Apply applies a single, already-causally-ready operation to the
// engine's state. Callers delivering remote operations should go through
// Deliver rather than calling Apply directly, so causal ordering is
// respected; Apply is exported for locally-originated operations, which
// are ready by construction.
func (e *Engine) Apply(op Operation) error {
	switch op.Kind {
	case OpTextInsert:
		e.seq(op.Seq).Insert(op.ID, op.ParentOp, op.Char)
		e.opToSeq[op.ID] = op.Seq
	case OpTextDelete:
		if seqID, ok := e.opToSeq[op.TargetOp]; ok {
			e.seq(seqID).Delete(op.TargetOp)
		}
	case OpStructureInsert:
		e.applyStructureInsert(op)
	case OpStructureDelete:
		e.applyStructureDelete(op)
	case OpFormatSet:
		e.applyFormatSet(op)
	case OpMove:
		e.applyMove(op)
	default:
		return fmt.Errorf("crdt: unknown operation kind %v", op.Kind)
	}
	e.vc.Observe(op.ID)
	return nil
}

func (e *Engine) applyStructureInsert(op Operation) {
	if _, already := e.nodeKind[op.Node]; already {
		return
	}
	e.nodeKind[op.Node] = op.NodeKind
	e.parentOf[op.Node] = op.Parent
	e.insertOp[op.Node] = op.ID
	e.live.Add(op.Node.String())
	e.childSet(op.Parent).Insert(op.ID, op.IndexAnchor, op.Node)
}

// applyStructureDelete removes Target from the tree. Any node inserted
// concurrently as a child of Target is reparented to Target's former
// parent at Target's former position, preserving relative order (spec.md
// §4.4 "StructureDelete vs. concurrent inserts").
func (e *Engine) applyStructureDelete(op Operation) {
	target := op.Target
	if !e.live.Contains(target.String()) {
		return
	}
	parent, ok := e.parentOf[target]
	if !ok {
		return
	}
	anchorOp := e.insertOp[target]

	orphans := e.childSet(target).Live()
	parentSet := e.childSet(parent)
	chainAnchor := anchorOp
	for _, child := range orphans {
		childOp := e.insertOp[child]
		parentSet.Insert(childOp, chainAnchor, child)
		e.parentOf[child] = parent
		chainAnchor = childOp
	}

	parentSet.Delete(anchorOp)
	e.live.Remove(target.String())
}

func (e *Engine) applyFormatSet(op Operation) {
	key := formatKey{target: op.Target, attribute: op.Attribute}
	reg, ok := e.formats[key]
	if !ok {
		reg = NewLWWRegister()
		e.formats[key] = reg
	}
	reg.Set(op.Value, op.ID)
}

// Format returns the resolved value for (target, attribute) and true, or
// (nil, false) if never set.
func (e *Engine) Format(target identity.NodeID, attribute string) (any, bool) {
	reg, ok := e.formats[formatKey{target: target, attribute: attribute}]
	if !ok {
		return nil, false
	}
	v, stamp := reg.Get()
	return v, !stamp.IsZero()
}

// applyMove relocates Node under Parent. If doing so would create a cycle
// (a concurrent move elsewhere made Parent a descendant of Node), the two
// moves conflict: the one with the smaller OpID loses. If the incoming op
// is the loser it is simply not applied. If the incoming op wins, the
// loser's edge is still standing in the tree and would close a real cycle
// the moment the winner's edge goes in, so it must be undone first: the
// node the loser placed directly beneath Target is detached and
// re-anchored under the document root as a compensating move, per spec.md
// §4.4 "Move" ("the losing move must be undone via a compensating
// operation before the winner is installed").
func (e *Engine) applyMove(op Operation) {
	if op.Target == op.Parent {
		return // degenerate: a node can never become its own parent
	}
	if breaker, ok := e.cycleBreaker(op.Target, op.Parent); ok {
		conflicting := e.insertOp[breaker]
		if !op.ID.Greater(conflicting) {
			return
		}
		e.detach(breaker, conflicting, e.rootID())
	}

	oldParent, ok := e.parentOf[op.Target]
	if !ok {
		return
	}
	oldAnchor := e.insertOp[op.Target]
	e.childSet(oldParent).Delete(oldAnchor)

	e.parentOf[op.Target] = op.Parent
	e.insertOp[op.Target] = op.ID
	e.childSet(op.Parent).Insert(op.ID, op.IndexAnchor, op.Target)
}

// cycleBreaker walks newParent's ancestor chain looking for node. If
// found, it returns the node whose parent edge points directly at node —
// the last link in the chain, which once node is reparented under
// newParent would close the cycle. That edge, not newParent's own, is the
// one that has to be retracted: in the one-hop case (newParent's direct
// parent is node) the two coincide, but this walk can pass through several
// concurrently-moved ancestors first. The degenerate node == newParent case
// is handled separately in applyMove, since it has no ancestor edge to
// retract.
func (e *Engine) cycleBreaker(node, newParent identity.NodeID) (identity.NodeID, bool) {
	if node == newParent {
		return identity.NilNodeID, false
	}
	cur := newParent
	for {
		next, ok := e.parentOf[cur]
		if !ok {
			return identity.NilNodeID, false
		}
		if next == node {
			return cur, true
		}
		cur = next
	}
}

// detach splices node out of its current parent's live children and
// re-anchors it under dest, stamped with stamp. stamp is derived from
// state every replica already holds (the OpID of the move being undone),
// so every replica applying the same triggering op computes the same
// compensating edge without exchanging a new operation for it.
func (e *Engine) detach(node identity.NodeID, stamp identity.OpID, dest identity.NodeID) {
	oldParent, ok := e.parentOf[node]
	if !ok {
		return
	}
	oldAnchor := e.insertOp[node]
	e.childSet(oldParent).Delete(oldAnchor)

	e.parentOf[node] = dest
	e.insertOp[node] = stamp
	e.childSet(dest).Insert(stamp, identity.OpID{}, node)
}

// Children returns the live children of a structural node in RGA order.
func (e *Engine) Children(node identity.NodeID) []identity.NodeID {
	return e.childSet(node).Live()
}

// Text returns the materialized text of a sequence node.
func (e *Engine) Text(node identity.NodeID) string {
	return e.seq(node).Text()
}
