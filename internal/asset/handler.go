// Package asset stores rendered design thumbnails on disk and serves them.
package asset

import (
	"bytes"
	"errors"
	"fmt"
	"image"
	_ "image/jpeg"
	"image/png"
	"io"
	"log/slog"
	"net/http"
	"os"
	"path/filepath"
	"strings"
)

const MaxUploadSize = 10 << 20 // 10MB

var (
	ErrNotFound     = errors.New("asset not found")
	ErrInvalidImage = errors.New("invalid image")
	ErrInvalidID    = errors.New("invalid asset id")
)

// Info describes a stored image.
type Info struct {
	ID     string `json:"id"`
	URL    string `json:"url"`
	Path   string `json:"-"`
	Width  int    `json:"width"`
	Height int    `json:"height"`
}

// Store keeps PNG files named by id under dir. URLs are rooted at prefix.
type Store struct {
	dir    string
	prefix string
}

// NewStore creates the directory if needed.
func NewStore(dir, prefix string) (*Store, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("create asset dir: %w", err)
	}
	if !strings.HasSuffix(prefix, "/") {
		prefix += "/"
	}
	return &Store{dir: dir, prefix: prefix}, nil
}

func (s *Store) Prefix() string { return s.prefix }

func (s *Store) path(id string) (string, error) {
	if id == "" || strings.ContainsAny(id, `/\.`) {
		return "", ErrInvalidID
	}
	return filepath.Join(s.dir, id+".png"), nil
}

// Save decodes a PNG or JPEG image from r and stores it as PNG under id.
// Reads are capped at MaxUploadSize.
func (s *Store) Save(id string, r io.Reader) (*Info, error) {
	filePath, err := s.path(id)
	if err != nil {
		return nil, err
	}

	data, err := io.ReadAll(io.LimitReader(r, MaxUploadSize+1))
	if err != nil {
		return nil, fmt.Errorf("read image: %w", err)
	}
	if len(data) > MaxUploadSize {
		return nil, fmt.Errorf("%w: larger than %d bytes", ErrInvalidImage, MaxUploadSize)
	}

	img, _, err := image.Decode(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalidImage, err)
	}

	out, err := os.Create(filePath)
	if err != nil {
		return nil, fmt.Errorf("create asset file: %w", err)
	}
	defer out.Close()

	if err := png.Encode(out, img); err != nil {
		os.Remove(filePath)
		return nil, fmt.Errorf("encode png: %w", err)
	}

	b := img.Bounds()
	return &Info{
		ID:     id,
		URL:    s.prefix + id + ".png",
		Path:   filePath,
		Width:  b.Dx(),
		Height: b.Dy(),
	}, nil
}

// Open returns the stored PNG for id.
func (s *Store) Open(id string) (io.ReadCloser, error) {
	filePath, err := s.path(id)
	if err != nil {
		return nil, err
	}
	f, err := os.Open(filePath)
	if errors.Is(err, os.ErrNotExist) {
		return nil, ErrNotFound
	}
	return f, err
}

// Delete removes the file for id.
func (s *Store) Delete(id string) error {
	filePath, err := s.path(id)
	if err != nil {
		return err
	}
	if err := os.Remove(filePath); err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return ErrNotFound
		}
		return fmt.Errorf("delete asset: %w", err)
	}
	return nil
}

// Serve returns an http.Handler that serves stored files with caching
// headers. Mount it at the store prefix.
func (s *Store) Serve() http.Handler {
	fs := http.FileServer(http.Dir(s.dir))
	return http.StripPrefix(s.prefix, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		// Asset IDs are unique, so files are immutable
		w.Header().Set("Cache-Control", "public, max-age=31536000, immutable")
		slog.Debug("serve asset", "path", r.URL.Path)
		fs.ServeHTTP(w, r)
	}))
}
