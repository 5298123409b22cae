package exifgps

import (
	"io"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestLocate_NotAnImage(t *testing.T) {
	l := NewLocator(slog.New(slog.NewTextHandler(io.Discard, nil)))

	_, _, ok := l.Locate([]byte("definitely not a jpeg"))
	assert.False(t, ok)
}

func TestLocate_EmptyInput(t *testing.T) {
	l := NewLocator(slog.New(slog.NewTextHandler(io.Discard, nil)))

	_, _, ok := l.Locate(nil)
	assert.False(t, ok)
}

// minimalJPEG is a bare JPEG header with no EXIF segment.
var minimalJPEG = []byte{0xff, 0xd8, 0xff, 0xdb, 0x00, 0x04, 0x00, 0x00, 0xff, 0xd9}

func TestLocate_NoEXIF(t *testing.T) {
	l := NewLocator(slog.New(slog.NewTextHandler(io.Discard, nil)))

	_, _, ok := l.Locate(minimalJPEG)
	assert.False(t, ok)
}
