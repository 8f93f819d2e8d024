// Package resource implements the content-addressed blob store described
// in spec.md §4.8: images, embedded fonts and other binary resources a
// document references by id rather than embeds inline. store is
// idempotent for identical content (spec.md §5 "the returned id is the
// content hash"), so two documents that embed the same image share one
// blob.
package resource

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"fmt"

	"github.com/wdcollab/wdcore/pkg/wderrors"
)

// ID is a content-addressed resource identifier: the hex-encoded SHA-256
// of the blob's bytes.
type ID string

// NewID computes the content-addressed id for data.
func NewID(data []byte) ID {
	sum := sha256.Sum256(data)
	return ID(hex.EncodeToString(sum[:]))
}

// DefaultMaxSize bounds any single blob (spec.md §4.8 "Maximum per-blob
// size is enforced at store time").
const DefaultMaxSize = 25 << 20 // 25 MiB

// Format is a recognized resource format, detected from magic bytes.
type Format string

const (
	FormatPNG     Format = "png"
	FormatJPEG    Format = "jpeg"
	FormatGIF     Format = "gif"
	FormatWebP    Format = "webp"
	FormatSVG     Format = "svg"
	FormatTTF     Format = "ttf"
	FormatOTF     Format = "otf"
	FormatWOFF    Format = "woff"
	FormatWOFF2   Format = "woff2"
	FormatUnknown Format = ""
)

// DetectFormat inspects data's magic bytes and returns the format it
// recognizes, or FormatUnknown. Unsupported formats are the caller's
// (Store's) responsibility to reject, per spec.md §4.8 "unsupported
// formats are rejected" — detection itself never errors, it just may
// come back empty.
func DetectFormat(data []byte) Format {
	switch {
	case hasPrefix(data, []byte{0x89, 'P', 'N', 'G', 0x0D, 0x0A, 0x1A, 0x0A}):
		return FormatPNG
	case hasPrefix(data, []byte{0xFF, 0xD8, 0xFF}):
		return FormatJPEG
	case hasPrefix(data, []byte("GIF87a")), hasPrefix(data, []byte("GIF89a")):
		return FormatGIF
	case hasPrefix(data, []byte("RIFF")) && len(data) >= 12 && string(data[8:12]) == "WEBP":
		return FormatWebP
	case hasPrefix(data, []byte("wOFF")):
		return FormatWOFF
	case hasPrefix(data, []byte("wOF2")):
		return FormatWOFF2
	case hasPrefix(data, []byte{0x00, 0x01, 0x00, 0x00}), hasPrefix(data, []byte("true")):
		return FormatTTF
	case hasPrefix(data, []byte("OTTO")):
		return FormatOTF
	case looksLikeSVG(data):
		return FormatSVG
	default:
		return FormatUnknown
	}
}

func hasPrefix(data, prefix []byte) bool {
	if len(data) < len(prefix) {
		return false
	}
	for i, b := range prefix {
		if data[i] != b {
			return false
		}
	}
	return true
}

// looksLikeSVG does a cheap textual sniff since SVG has no fixed magic
// bytes: an XML document, possibly preceded by a BOM or XML prolog, whose
// first element is <svg ...>.
func looksLikeSVG(data []byte) bool {
	const scanWindow = 256
	n := len(data)
	if n > scanWindow {
		n = scanWindow
	}
	head := data[:n]
	for i := 0; i < len(head); i++ {
		switch head[i] {
		case ' ', '\t', '\n', '\r', 0xEF, 0xBB, 0xBF:
			continue
		case '<':
			return containsSVGTag(head[i:])
		default:
			return false
		}
	}
	return false
}

func containsSVGTag(head []byte) bool {
	const needle = "<svg"
	if len(head) >= len(needle) && string(head[:len(needle)]) == needle {
		return true
	}
	// Skip a leading <?xml ... ?> prolog or <!DOCTYPE ...> before the
	// root element.
	for i := 1; i < len(head); i++ {
		if head[i] == '<' && len(head)-i >= len(needle) && string(head[i:i+len(needle)]) == needle {
			return true
		}
	}
	return false
}

// Store is the content-addressed blob store contract (spec.md §4.8
// "store(bytes, name?) -> resource_id, get(resource_id) -> bytes|NotFound,
// remove(resource_id)").
type Store interface {
	// Store persists data under its content-addressed id, enforcing
	// MaxSize and format allowlisting. name is an optional display hint
	// (e.g. the original filename) and has no bearing on the id.
	Store(ctx context.Context, data []byte, name string) (ID, error)
	// Get retrieves a previously stored blob. Returns
	// wderrors.KindIO-classified ErrNotFound if id is unknown.
	Get(ctx context.Context, id ID) ([]byte, error)
	// Remove deletes a blob. Removing an unknown id is not an error,
	// matching the content-addressed store's idempotent semantics.
	Remove(ctx context.Context, id ID) error
}

// ErrNotFound is returned by Get for an id the store doesn't have.
var ErrNotFound = wderrors.New(wderrors.KindIO, "resource.Get", "resource not found")

// checkBlob enforces the size and format rules every Store implementation
// shares, so each backend's Store method is just I/O plus this call.
func checkBlob(data []byte, maxSize int) (Format, error) {
	if maxSize <= 0 {
		maxSize = DefaultMaxSize
	}
	if len(data) > maxSize {
		return "", wderrors.New(wderrors.KindResourceTooLarge, "resource.Store",
			fmt.Sprintf("%d bytes exceeds maximum of %d", len(data), maxSize))
	}
	format := DetectFormat(data)
	if format == FormatUnknown {
		return "", wderrors.New(wderrors.KindResourceFormatInvalid, "resource.Store", "unrecognized magic bytes")
	}
	return format, nil
}
