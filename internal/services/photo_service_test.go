package services

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// Minimal valid PNG header, enough for content sniffing.
var pngHeader = []byte{0x89, 'P', 'N', 'G', '\r', '\n', 0x1a, '\n', 0, 0, 0, 13, 'I', 'H', 'D', 'R'}

func TestSniffContentTypePNG(t *testing.T) {
	r := bytes.NewReader(pngHeader)

	contentType, err := sniffContentType(r)
	require.NoError(t, err)
	assert.Equal(t, "image/png", contentType)

	// The reader must be rewound for the actual upload.
	pos, err := r.Seek(0, 1)
	require.NoError(t, err)
	assert.Equal(t, int64(0), pos)
}

func TestSniffContentTypeNotAnImage(t *testing.T) {
	contentType, err := sniffContentType(bytes.NewReader([]byte("just some text, definitely not pixels")))
	require.NoError(t, err)
	assert.Equal(t, "text/plain; charset=utf-8", contentType)
}

func TestDefaultPhotoStorageConfig(t *testing.T) {
	cfg := DefaultPhotoStorageConfig("ecolearn/submissions")
	assert.Equal(t, int64(10*1024*1024), cfg.MaxFileSize)
	assert.Contains(t, cfg.AllowedTypes, "image/jpeg")
	assert.Contains(t, cfg.AllowedTypes, "image/png")
	assert.Equal(t, "ecolearn/submissions", cfg.Folder)
}
