// Package command implements the typed edit layer described in spec.md
// §4.2: each command observes a document.State and returns a new one plus
// the command that undoes it, computed while the pre-state is still at
// hand rather than reconstructed later from a diff.
package command

import (
	"github.com/wdcollab/wdcore/pkg/document"
	"github.com/wdcollab/wdcore/pkg/identity"
	"github.com/wdcollab/wdcore/pkg/selection"
)

// Command is a typed edit. Apply is pure: given a principal and the
// current state it returns the new state and a Command that, applied to
// the result, restores the original state. On error the returned state
// must be the zero value and st must be left untouched by the caller (no
// partial mutation is ever produced, since every mutation here is
// copy-on-write).
type Command interface {
	Apply(principal string, st document.State) (document.State, Command, error)
	// TransformSelection adjusts a selection that did not itself originate
	// this command (e.g. a peer's cursor) to account for the structural
	// change this command made.
	TransformSelection(sel selection.Selection) selection.Selection
	DisplayName() string
}

// Coalescable is implemented by commands history may merge with an
// immediately preceding command of the same kind touching the same target
// (spec.md §4.3: "only explicitly-coalescable commands merge").
type Coalescable interface {
	CoalesceKey() string
}

// checkLocked consults the document's protected-region registry before a
// command touches target, per spec.md §4.2 "locked regions".
func checkLocked(doc *document.Document, principal string, target identity.NodeID) error {
	return doc.Protections.CheckEditable(doc.Tree, target, principal)
}
