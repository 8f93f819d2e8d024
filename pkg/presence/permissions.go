package presence

import (
	"fmt"
	"sync"

	"github.com/wdcollab/wdcore/pkg/identity"
	"github.com/wdcollab/wdcore/pkg/wderrors"
)

// Capability is one level in the {Read, Comment, Edit, Admin} ladder
// spec.md §4.5 names. Capabilities are cumulative, the same way the
// teacher's workspace roles are (Owner/Admin can do everything Member can):
// granting Edit implies Comment and Read.
type Capability int

const (
	CapabilityRead Capability = iota
	CapabilityComment
	CapabilityEdit
	CapabilityAdmin
)

func (c Capability) String() string {
	switch c {
	case CapabilityRead:
		return "read"
	case CapabilityComment:
		return "comment"
	case CapabilityEdit:
		return "edit"
	case CapabilityAdmin:
		return "admin"
	default:
		return "unknown"
	}
}

// Satisfies reports whether c grants at least the required capability.
func (c Capability) Satisfies(required Capability) bool {
	return c >= required
}

type principalKey struct {
	document  identity.NodeID
	principal string
}

// Permissions holds the capability grant for every (document, principal)
// pair. Unlike presence it is not transient and not cached: a grant is
// authoritative state a caller sets deliberately (e.g. when a document is
// shared), not something that decays on its own, so it lives in-process
// guarded by a mutex the same way pkg/registry's side tables do.
type Permissions struct {
	mu     sync.RWMutex
	grants map[principalKey]Capability
}

// NewPermissions creates an empty grant table; every principal defaults to
// no access until granted one.
func NewPermissions() *Permissions {
	return &Permissions{grants: make(map[principalKey]Capability)}
}

// Grant sets principal's capability on document, replacing any previous
// grant (a principal holds exactly one capability level per document, the
// one most recently given, even if lower than before).
func (p *Permissions) Grant(document identity.NodeID, principal string, capability Capability) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.grants[principalKey{document, principal}] = capability
}

// Revoke removes principal's access to document entirely.
func (p *Permissions) Revoke(document identity.NodeID, principal string) {
	p.mu.Lock()
	defer p.mu.Unlock()
	delete(p.grants, principalKey{document, principal})
}

// Capability returns principal's current capability on document. A
// principal with no grant has no access, represented by ok == false rather
// than by a CapabilityRead zero value, so callers can distinguish
// "explicitly read-only" from "never granted anything".
func (p *Permissions) Capability(document identity.NodeID, principal string) (c Capability, ok bool) {
	p.mu.RLock()
	defer p.mu.RUnlock()
	c, ok = p.grants[principalKey{document, principal}]
	return c, ok
}

// PermissionDenied reports that principal lacked the capability required
// for operation. It classifies as wderrors.KindPermissionDenied so callers
// already switching on Kind (e.g. a transport layer turning errors into
// status codes) handle it without a type assertion on this package.
func PermissionDenied(operation, principal string, required Capability) error {
	return wderrors.New(wderrors.KindPermissionDenied, operation,
		fmt.Sprintf("principal %q lacks %s", principal, required))
}

// Check verifies principal holds at least required on document. Denied
// checks return a PermissionDenied error and must short-circuit the
// caller: spec.md §4.5 "Denied operations fail with PermissionDenied; they
// do not enter history" — neither the command layer's history nor the
// CRDT engine's operation log may record anything once Check fails.
func (p *Permissions) Check(document identity.NodeID, principal string, required Capability, operation string) error {
	granted, ok := p.Capability(document, principal)
	if !ok || !granted.Satisfies(required) {
		return PermissionDenied(operation, principal, required)
	}
	return nil
}

// CheckCommand is the gate every incoming local command passes through
// before command.Command.Apply runs (spec.md §4.5 "Every incoming local
// command ... is checked against the current principal's capabilities").
// Comment-only commands should call Check directly with CapabilityComment;
// CheckCommand is for commands that mutate document content.
func (p *Permissions) CheckCommand(document identity.NodeID, principal string, commandName string) error {
	return p.Check(document, principal, CapabilityEdit, commandName)
}

// CheckOperation is the gate every outgoing CRDT operation passes through
// before broadcast (spec.md §4.5 "every outgoing CRDT operation is checked
// against the current principal's capabilities").
func (p *Permissions) CheckOperation(document identity.NodeID, principal string) error {
	return p.Check(document, principal, CapabilityEdit, "crdt.Operation")
}
