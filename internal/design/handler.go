package design

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"github.com/gorilla/mux"

	"github.com/sysdraw/sysdraw/backend-go/internal/asset"
	"github.com/sysdraw/sysdraw/backend-go/internal/auth"
	"github.com/sysdraw/sysdraw/backend-go/internal/document"
)

const maxDocumentSize = 8 << 20

type Handler struct {
	service *Service
}

func NewHandler(service *Service) *Handler {
	return &Handler{service: service}
}

// Register mounts the design routes on r. r is expected to carry the auth
// middleware.
func (h *Handler) Register(r *mux.Router) {
	r.HandleFunc("/designs", h.List).Methods("GET")
	r.HandleFunc("/designs", h.Create).Methods("POST")
	r.HandleFunc("/designs/{designId}", h.Get).Methods("GET")
	r.HandleFunc("/designs/{designId}", h.Save).Methods("PUT")
	r.HandleFunc("/designs/{designId}", h.Delete).Methods("DELETE")
	r.HandleFunc("/designs/{designId}/thumbnail", h.UploadThumbnail).Methods("POST")
	r.HandleFunc("/designs/{designId}/thumbnail", h.GetThumbnail).Methods("GET")
}

func decodeBody(w http.ResponseWriter, r *http.Request) (*document.Document, bool) {
	r.Body = http.MaxBytesReader(w, r.Body, maxDocumentSize)
	var doc document.Document
	if err := json.NewDecoder(r.Body).Decode(&doc); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid document"})
		return nil, false
	}
	return &doc, true
}

func (h *Handler) Create(w http.ResponseWriter, r *http.Request) {
	userID := auth.UserIDFromContext(r.Context())

	doc, ok := decodeBody(w, r)
	if !ok {
		return
	}

	d, err := h.service.Create(r.Context(), userID, doc)
	if err != nil {
		handleServiceError(w, err)
		return
	}

	writeJSON(w, http.StatusCreated, d)
}

// Get responds with the document in the wire schema.
func (h *Handler) Get(w http.ResponseWriter, r *http.Request) {
	userID := auth.UserIDFromContext(r.Context())
	designID := mux.Vars(r)["designId"]

	_, doc, err := h.service.Get(r.Context(), designID, userID)
	if err != nil {
		handleServiceError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, doc)
}

func (h *Handler) Save(w http.ResponseWriter, r *http.Request) {
	userID := auth.UserIDFromContext(r.Context())
	designID := mux.Vars(r)["designId"]

	doc, ok := decodeBody(w, r)
	if !ok {
		return
	}

	d, err := h.service.Save(r.Context(), designID, userID, doc)
	if err != nil {
		handleServiceError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, d)
}

func (h *Handler) List(w http.ResponseWriter, r *http.Request) {
	userID := auth.UserIDFromContext(r.Context())

	designs, err := h.service.List(r.Context(), userID)
	if err != nil {
		handleServiceError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, designs)
}

func (h *Handler) Delete(w http.ResponseWriter, r *http.Request) {
	userID := auth.UserIDFromContext(r.Context())
	designID := mux.Vars(r)["designId"]

	if err := h.service.Delete(r.Context(), designID, userID); err != nil {
		handleServiceError(w, err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

// UploadThumbnail accepts a raw PNG or JPEG request body.
func (h *Handler) UploadThumbnail(w http.ResponseWriter, r *http.Request) {
	userID := auth.UserIDFromContext(r.Context())
	designID := mux.Vars(r)["designId"]

	r.Body = http.MaxBytesReader(w, r.Body, asset.MaxUploadSize)
	t, err := h.service.UploadThumbnail(r.Context(), designID, userID, r.Body)
	if err != nil {
		handleServiceError(w, err)
		return
	}

	writeJSON(w, http.StatusCreated, t)
}

func (h *Handler) GetThumbnail(w http.ResponseWriter, r *http.Request) {
	userID := auth.UserIDFromContext(r.Context())
	designID := mux.Vars(r)["designId"]

	t, err := h.service.LatestThumbnail(r.Context(), designID, userID)
	if err != nil {
		handleServiceError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, t)
}

func handleServiceError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, ErrNotFound):
		writeJSON(w, http.StatusNotFound, map[string]string{"error": "not found"})
	case errors.Is(err, ErrForbidden):
		writeJSON(w, http.StatusForbidden, map[string]string{"error": "forbidden"})
	case errors.Is(err, ErrInvalidDocument):
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid document"})
	case errors.Is(err, asset.ErrInvalidImage):
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid image"})
	default:
		slog.Error("service error", "error", err)
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "internal error"})
	}
}

func writeJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(data)
}
