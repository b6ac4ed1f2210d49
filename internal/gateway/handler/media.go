package handler

import (
	"errors"
	"log"
	"net/http"
	"strings"

	"l2wp/internal/gateway/repository/media"
)

// MediaHandler serves imported assets as /{importID}/{name...} from store.
type MediaHandler struct {
	store media.Store
}

func NewMediaHandler(store media.Store) *MediaHandler {
	return &MediaHandler{store: store}
}

func (h *MediaHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	importID, name, ok := strings.Cut(strings.TrimPrefix(r.URL.Path, "/"), "/")
	if !ok || importID == "" || name == "" {
		http.NotFound(w, r)
		return
	}
	data, err := h.store.Get(r.Context(), importID, name)
	if err != nil {
		if errors.Is(err, media.ErrNotFound) {
			http.NotFound(w, r)
			return
		}
		log.Printf("media: get %s/%s: %v", importID, name, err)
		http.Error(w, "media unavailable", http.StatusBadGateway)
		return
	}
	w.Header().Set("Content-Type", media.ContentType(name))
	w.Header().Set("X-Content-Type-Options", "nosniff")
	_, _ = w.Write(data)
}
