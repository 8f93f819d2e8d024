package wderrors

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestErrorMessage(t *testing.T) {
	e := New(KindLockedRegion, "DeleteRange", "Header region")
	assert.Equal(t, "LockedRegion: DeleteRange: Header region", e.Error())
}

func TestOnlyIOIsRetryable(t *testing.T) {
	assert.True(t, New(KindIO, "opstore.Append", "").IsRetryable())
	assert.False(t, New(KindDocumentModelViolation, "Insert", "").IsRetryable())
}

func TestWrapPreservesCause(t *testing.T) {
	cause := errors.New("disk full")
	wrapped := Wrap(cause, KindIO, "autosave.Write")

	assert.Same(t, cause, errors.Unwrap(wrapped))
	assert.True(t, Is(wrapped, KindIO))
}

func TestWrapNilReturnsNil(t *testing.T) {
	assert.Nil(t, Wrap(nil, KindIO, "op"))
}
