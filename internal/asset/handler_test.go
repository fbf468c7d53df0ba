package asset

import (
	"bytes"
	"image"
	"image/color"
	"image/png"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func samplePNG(t *testing.T, w, h int) []byte {
	t.Helper()
	img := image.NewNRGBA(image.Rect(0, 0, w, h))
	img.Set(0, 0, color.NRGBA{R: 0xff, A: 0xff})
	var buf bytes.Buffer
	require.NoError(t, png.Encode(&buf, img))
	return buf.Bytes()
}

func TestSaveOpenDelete(t *testing.T) {
	s, err := NewStore(t.TempDir(), "/thumbnails")
	require.NoError(t, err)

	info, err := s.Save("thumb_1", bytes.NewReader(samplePNG(t, 12, 7)))
	require.NoError(t, err)
	assert.Equal(t, "/thumbnails/thumb_1.png", info.URL)
	assert.Equal(t, 12, info.Width)
	assert.Equal(t, 7, info.Height)

	rc, err := s.Open("thumb_1")
	require.NoError(t, err)
	data, err := io.ReadAll(rc)
	rc.Close()
	require.NoError(t, err)
	cfg, err := png.DecodeConfig(bytes.NewReader(data))
	require.NoError(t, err)
	assert.Equal(t, 12, cfg.Width)

	require.NoError(t, s.Delete("thumb_1"))
	_, err = s.Open("thumb_1")
	require.ErrorIs(t, err, ErrNotFound)
	require.ErrorIs(t, s.Delete("thumb_1"), ErrNotFound)
}

func TestSaveRejects(t *testing.T) {
	s, err := NewStore(t.TempDir(), "/thumbnails/")
	require.NoError(t, err)

	_, err = s.Save("thumb_1", strings.NewReader("not an image"))
	require.ErrorIs(t, err, ErrInvalidImage)

	_, err = s.Save("../escape", bytes.NewReader(samplePNG(t, 1, 1)))
	require.ErrorIs(t, err, ErrInvalidID)
}

func TestServe(t *testing.T) {
	s, err := NewStore(t.TempDir(), "/thumbnails/")
	require.NoError(t, err)
	_, err = s.Save("thumb_2", bytes.NewReader(samplePNG(t, 3, 3)))
	require.NoError(t, err)

	rec := httptest.NewRecorder()
	s.Serve().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/thumbnails/thumb_2.png", nil))
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Header().Get("Cache-Control"), "immutable")
	assert.Equal(t, "image/png", rec.Header().Get("Content-Type"))
}
