package registry

import (
	"sort"
	"time"

	"github.com/wdcollab/wdcore/pkg/doctree"
	"github.com/wdcollab/wdcore/pkg/identity"
)

// Comment is a threaded annotation anchored to a position range in the
// document. Top-level comments have a zero Parent; replies chain off it.
type Comment struct {
	ID        identity.NodeID
	Parent    identity.NodeID
	Author    string
	Body      string
	Anchor    doctree.Position
	AnchorEnd doctree.Position
	CreatedAt time.Time
	Resolved  bool
}

// CommentRegistry holds every comment thread in the document.
type CommentRegistry struct {
	comments map[identity.NodeID]*Comment
}

// NewCommentRegistry creates an empty registry.
func NewCommentRegistry() *CommentRegistry {
	return &CommentRegistry{comments: make(map[identity.NodeID]*Comment)}
}

// Add registers a new comment or reply.
func (r *CommentRegistry) Add(c *Comment) identity.NodeID {
	if c.ID.IsNil() {
		c.ID = identity.NewNodeID()
	}
	r.comments[c.ID] = c
	return c.ID
}

// Get returns a comment by id.
func (r *CommentRegistry) Get(id identity.NodeID) (*Comment, bool) {
	c, ok := r.comments[id]
	return c, ok
}

// Thread returns a top-level comment followed by all of its replies, oldest
// first by CreatedAt.
func (r *CommentRegistry) Thread(rootID identity.NodeID) []*Comment {
	var out []*Comment
	if root, ok := r.comments[rootID]; ok {
		out = append(out, root)
	}
	var replies []*Comment
	for _, c := range r.comments {
		if c.Parent == rootID {
			replies = append(replies, c)
		}
	}
	sort.SliceStable(replies, func(i, j int) bool { return replies[i].CreatedAt.Before(replies[j].CreatedAt) })
	return append(out, replies...)
}

// Resolve marks a thread's root comment resolved; replies remain visible but
// the thread no longer surfaces as open.
func (r *CommentRegistry) Resolve(id identity.NodeID) {
	if c, ok := r.comments[id]; ok {
		c.Resolved = true
	}
}

// Rebase retargets any comment anchored to `from` onto `to` (same purpose as
// BookmarkRegistry.Rebase: anchors must follow their node across splits).
func (r *CommentRegistry) Rebase(from, to identity.NodeID) {
	for _, c := range r.comments {
		if c.Anchor.Node == from {
			c.Anchor.Node = to
		}
		if c.AnchorEnd.Node == from {
			c.AnchorEnd.Node = to
		}
	}
}
