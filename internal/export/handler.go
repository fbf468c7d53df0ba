// Package export renders posted documents to PNG over HTTP.
package export

import (
	"crypto/sha256"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strconv"
	"strings"

	lru "github.com/hashicorp/golang-lru/v2"

	"github.com/sysdraw/sysdraw/backend-go/internal/document"
	"github.com/sysdraw/sysdraw/backend-go/internal/thumbnail"
)

const (
	maxUploadSize = 8 << 20 // 8MB
	maxDimension  = 4096
	cacheSize     = 128
	defaultPad    = 24
)

type Handler struct {
	cache *lru.Cache[[32]byte, []byte]
}

func NewHandler() *Handler {
	cache, err := lru.New[[32]byte, []byte](cacheSize)
	if err != nil {
		// Only returned for a non-positive size.
		panic(err)
	}
	return &Handler{cache: cache}
}

type options struct {
	width, height int
	fit           bool
	padding       float64
}

func parseOptions(r *http.Request) (options, error) {
	q := r.URL.Query()
	o := options{
		width:   thumbnail.DefaultWidth,
		height:  thumbnail.DefaultHeight,
		fit:     q.Get("view") != "camera",
		padding: defaultPad,
	}
	for key, dst := range map[string]*int{"width": &o.width, "height": &o.height} {
		v := q.Get(key)
		if v == "" {
			continue
		}
		n, err := strconv.Atoi(v)
		if err != nil || n < 0 || n > maxDimension {
			return o, fmt.Errorf("invalid %s: must be 0..%d", key, maxDimension)
		}
		*dst = n
	}
	if v := q.Get("padding"); v != "" {
		p, err := strconv.ParseFloat(v, 64)
		if err != nil || p < 0 {
			return o, fmt.Errorf("invalid padding")
		}
		o.padding = p
	}
	return o, nil
}

// ExportPNG handles POST /export/png with a document in the wire schema as
// the body. Query parameters: width, height, padding and view=camera to use
// the document's own camera instead of fitting the diagram.
func (h *Handler) ExportPNG(w http.ResponseWriter, r *http.Request) {
	if r.Method == http.MethodOptions {
		w.WriteHeader(http.StatusOK)
		return
	}

	opts, err := parseOptions(r)
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	r.Body = http.MaxBytesReader(w, r.Body, maxUploadSize)
	body, err := io.ReadAll(r.Body)
	if err != nil {
		http.Error(w, "request too large", http.StatusBadRequest)
		return
	}

	key := cacheKey(body, opts)
	if data, ok := h.cache.Get(key); ok {
		writePNG(w, r, data)
		return
	}

	var doc document.Document
	if err := json.Unmarshal(body, &doc); err != nil {
		http.Error(w, "invalid document: "+err.Error(), http.StatusBadRequest)
		return
	}

	var data []byte
	if opts.fit {
		data, err = thumbnail.RenderFit(&doc, opts.width, opts.height, opts.padding)
	} else {
		data, err = thumbnail.RenderView(&doc, opts.width, opts.height)
	}
	if err != nil {
		slog.Error("render png", "error", err)
		http.Error(w, "render failed", http.StatusInternalServerError)
		return
	}

	h.cache.Add(key, data)
	slog.Debug("export rendered", "width", opts.width, "height", opts.height, "shapes", len(doc.Shapes))
	writePNG(w, r, data)
}

func cacheKey(body []byte, o options) [32]byte {
	h := sha256.New()
	h.Write(body)
	fmt.Fprintf(h, "|%d|%d|%t|%g", o.width, o.height, o.fit, o.padding)
	var key [32]byte
	copy(key[:], h.Sum(nil))
	return key
}

func writePNG(w http.ResponseWriter, r *http.Request, data []byte) {
	name := sanitize(r.URL.Query().Get("name"))
	w.Header().Set("Content-Type", "image/png")
	w.Header().Set("Content-Length", strconv.Itoa(len(data)))
	w.Header().Set("Content-Disposition", fmt.Sprintf(`inline; filename="%s.png"`, name))
	w.WriteHeader(http.StatusOK)
	w.Write(data)
}

func sanitize(name string) string {
	if name == "" {
		return "design"
	}
	return strings.Map(func(r rune) rune {
		if (r >= 'a' && r <= 'z') || (r >= 'A' && r <= 'Z') || (r >= '0' && r <= '9') || r == '-' || r == '_' {
			return r
		}
		return '-'
	}, name)
}
