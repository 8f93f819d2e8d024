package resource

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/wdcollab/wdcore/pkg/wderrors"
)

var pngMagic = []byte{0x89, 'P', 'N', 'G', 0x0D, 0x0A, 0x1A, 0x0A, 0, 0, 0}

func TestDetectFormat(t *testing.T) {
	assert.Equal(t, FormatPNG, DetectFormat(pngMagic))
	assert.Equal(t, FormatJPEG, DetectFormat([]byte{0xFF, 0xD8, 0xFF, 0xE0}))
	assert.Equal(t, FormatGIF, DetectFormat([]byte("GIF89a...")))
	assert.Equal(t, FormatSVG, DetectFormat([]byte(`<svg xmlns="http://www.w3.org/2000/svg"></svg>`)))
	assert.Equal(t, FormatSVG, DetectFormat([]byte(`<?xml version="1.0"?><svg></svg>`)))
	assert.Equal(t, FormatUnknown, DetectFormat([]byte("not a resource")))
}

func TestNewIDIsContentAddressed(t *testing.T) {
	a := NewID([]byte("hello"))
	b := NewID([]byte("hello"))
	c := NewID([]byte("world"))
	assert.Equal(t, a, b)
	assert.NotEqual(t, a, c)
}

func TestMemoryStoreRoundTrip(t *testing.T) {
	ctx := context.Background()
	store := NewMemoryStore(0)

	id, err := store.Store(ctx, pngMagic, "logo.png")
	require.NoError(t, err)
	assert.Equal(t, NewID(pngMagic), id)

	got, err := store.Get(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, pngMagic, got)

	require.NoError(t, store.Remove(ctx, id))
	_, err = store.Get(ctx, id)
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestMemoryStoreRejectsOversizeBlob(t *testing.T) {
	ctx := context.Background()
	store := NewMemoryStore(4)

	_, err := store.Store(ctx, pngMagic, "")
	require.Error(t, err)
	assert.True(t, wderrors.Is(err, wderrors.KindResourceTooLarge))
}

func TestMemoryStoreRejectsUnknownFormat(t *testing.T) {
	ctx := context.Background()
	store := NewMemoryStore(0)

	_, err := store.Store(ctx, []byte("plain text, not a resource"), "")
	require.Error(t, err)
	assert.True(t, wderrors.Is(err, wderrors.KindResourceFormatInvalid))
}

func TestMemoryStoreDeduplicatesIdenticalContent(t *testing.T) {
	ctx := context.Background()
	store := NewMemoryStore(0)

	id1, err := store.Store(ctx, pngMagic, "a.png")
	require.NoError(t, err)
	id2, err := store.Store(ctx, pngMagic, "b.png")
	require.NoError(t, err)
	assert.Equal(t, id1, id2)
}
