package registry

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/wdcollab/wdcore/pkg/identity"
)

func TestStyleResolveMergesBasedOnChain(t *testing.T) {
	r := NewStyleRegistry()

	base := &Style{Name: "Normal", Kind: StyleParagraph, Properties: map[string]any{"font": "Calibri", "size": 11}}
	require.NoError(t, r.Add(base))

	heading := &Style{Name: "Heading1", Kind: StyleParagraph, BasedOn: base.ID, Properties: map[string]any{"size": 20, "bold": true}}
	require.NoError(t, r.Add(heading))

	resolved, err := r.Resolve(heading.ID)
	require.NoError(t, err)
	assert.Equal(t, "Calibri", resolved["font"])
	assert.Equal(t, 20, resolved["size"])
	assert.Equal(t, true, resolved["bold"])
}

func TestStyleResolveRejectsCycle(t *testing.T) {
	r := NewStyleRegistry()

	a := &Style{Name: "A", Kind: StyleParagraph}
	require.NoError(t, r.Add(a))
	b := &Style{Name: "B", Kind: StyleParagraph, BasedOn: a.ID}
	require.NoError(t, r.Add(b))

	// Point a at b, closing a cycle a -> b -> a.
	aNode, _ := r.Get(a.ID)
	aNode.BasedOn = b.ID

	_, err := r.Resolve(a.ID)
	assert.Error(t, err)
}

func TestStyleAddRejectsUnknownBasedOn(t *testing.T) {
	r := NewStyleRegistry()
	s := &Style{Name: "Orphan", Kind: StyleParagraph, BasedOn: identity.NewNodeID()}
	err := r.Add(s)
	assert.Error(t, err)
}
