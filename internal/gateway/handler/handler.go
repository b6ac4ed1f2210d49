package handler

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"log"
	"net/http"
	"strings"

	"l2wp/internal/apperr"
	"l2wp/internal/gateway/service/converter"
	"l2wp/internal/util/jsonutil"
)

// UserHeader names the caller; analyses are kept per user.
const UserHeader = "X-User-ID"

// maxJSONBody caps JSON request bodies; design documents are the largest.
const maxJSONBody = 8 << 20

// ConverterHandler serves the JSON API.
type ConverterHandler struct {
	svc *converter.Service
}

func NewConverterHandler(svc *converter.Service) *ConverterHandler {
	return &ConverterHandler{svc: svc}
}

// Register mounts every route on mux.
func (h *ConverterHandler) Register(mux *http.ServeMux) {
	mux.HandleFunc("POST /api/analyze", h.HandleAnalyze)
	mux.HandleFunc("GET /api/detections", h.HandleDetections)
	mux.HandleFunc("GET /api/solutions/{key}", h.HandleSolutions)
	mux.HandleFunc("GET /api/style", h.HandleStyle)
	mux.HandleFunc("GET /api/translate", h.HandleTranslate)
	mux.HandleFunc("POST /api/import", h.HandleImport)
	mux.HandleFunc("GET /api/import/ws", h.HandleImportWS)
	mux.HandleFunc("POST /api/exports", h.HandleExport)
	mux.HandleFunc("GET /api/exports", h.HandleListExports)
	mux.HandleFunc("DELETE /api/exports/{id}", h.HandleUntag)
	mux.HandleFunc("GET /api/documents/{id}/render", h.HandleRenderDocument)
	mux.HandleFunc("POST /api/resolve", h.HandleResolve)
	mux.HandleFunc("GET /api/fields/{contentType}", h.HandleFields)
	mux.HandleFunc("GET /api/placeholder-widget", h.HandlePlaceholderWidget)
	mux.HandleFunc("GET /api/preferences", h.HandlePreferences)
	mux.HandleFunc("DELETE /api/preferences", h.HandleClearPreferences)
}

func userOf(r *http.Request) string {
	return strings.TrimSpace(r.Header.Get(UserHeader))
}

func (h *ConverterHandler) HandleAnalyze(w http.ResponseWriter, r *http.Request) {
	file, header, err := r.FormFile("file")
	if err != nil {
		writeError(w, "analyze", apperr.Validation("analyze upload", "No file uploaded", "file"))
		return
	}
	defer file.Close()

	res, err := h.svc.Analyze(r.Context(), converter.Upload{
		User: userOf(r),
		Name: header.Filename,
		Size: header.Size,
		Body: file,
	})
	if err != nil {
		writeError(w, "analyze", err)
		return
	}
	writeJSON(w, http.StatusOK, res)
}

func (h *ConverterHandler) HandleDetections(w http.ResponseWriter, r *http.Request) {
	res, err := h.svc.Detect(r.Context(), userOf(r))
	if err != nil {
		writeError(w, "detect", err)
		return
	}
	writeJSON(w, http.StatusOK, res)
}

func (h *ConverterHandler) HandleSolutions(w http.ResponseWriter, r *http.Request) {
	key := r.PathValue("key")
	writeJSON(w, http.StatusOK, map[string]any{
		"key":       key,
		"solutions": h.svc.Solutions(r.Context(), key),
	})
}

func (h *ConverterHandler) HandleStyle(w http.ResponseWriter, r *http.Request) {
	data, err := h.svc.Style(userOf(r))
	if err != nil {
		writeError(w, "style", err)
		return
	}
	writeJSON(w, http.StatusOK, data)
}

func (h *ConverterHandler) HandleTranslate(w http.ResponseWriter, r *http.Request) {
	docs, err := h.svc.Translate(userOf(r))
	if err != nil {
		writeError(w, "translate", err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"documents": docs})
}

func (h *ConverterHandler) HandleImport(w http.ResponseWriter, r *http.Request) {
	var opts converter.ImportOptions
	if err := decodeBody(r, "import", &opts); err != nil {
		writeError(w, "import", err)
		return
	}
	res, err := h.svc.Import(r.Context(), userOf(r), opts, nil)
	if err != nil {
		writeError(w, "import", err)
		return
	}
	writeJSON(w, http.StatusOK, res)
}

func (h *ConverterHandler) HandleExport(w http.ResponseWriter, r *http.Request) {
	data, err := io.ReadAll(http.MaxBytesReader(w, r.Body, maxJSONBody))
	if err != nil {
		writeError(w, "export", apperr.Validation("export", "Request body too large", "body"))
		return
	}
	res, err := h.svc.Export(r.Context(), data)
	if err != nil {
		writeError(w, "export", err)
		return
	}
	writeJSON(w, http.StatusCreated, res)
}

func (h *ConverterHandler) HandleListExports(w http.ResponseWriter, r *http.Request) {
	docs, err := h.svc.ListExports(r.Context())
	if err != nil {
		writeError(w, "list exports", err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"documents": docs})
}

func (h *ConverterHandler) HandleUntag(w http.ResponseWriter, r *http.Request) {
	if err := h.svc.Untag(r.Context(), r.PathValue("id")); err != nil {
		writeError(w, "untag", err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// HandleRenderDocument resolves a stored document against ?context_id=.
func (h *ConverterHandler) HandleRenderDocument(w http.ResponseWriter, r *http.Request) {
	out, err := h.svc.RenderDocument(r.Context(), r.PathValue("id"), r.URL.Query().Get("context_id"))
	if err != nil {
		writeError(w, "render document", err)
		return
	}
	writeJSON(w, http.StatusOK, out)
}

type resolveRequest struct {
	Text      string `json:"text"`
	ContextID string `json:"context_id"`
}

func (h *ConverterHandler) HandleResolve(w http.ResponseWriter, r *http.Request) {
	var in resolveRequest
	if err := decodeBody(r, "resolve", &in); err != nil {
		writeError(w, "resolve", err)
		return
	}
	writeJSON(w, http.StatusOK, h.svc.Resolve(r.Context(), in.Text, strings.TrimSpace(in.ContextID)))
}

func (h *ConverterHandler) HandleFields(w http.ResponseWriter, r *http.Request) {
	defs, err := h.svc.Fields(r.Context(), r.PathValue("contentType"))
	if err != nil {
		writeError(w, "fields", err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"fields": defs})
}

func (h *ConverterHandler) HandlePlaceholderWidget(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	token := strings.TrimSpace(q.Get("token"))
	if token == "" {
		writeError(w, "placeholder widget", apperr.Validation("placeholder widget", "token is required", "token"))
		return
	}
	node, err := h.svc.PlaceholderWidget(r.Context(), token, strings.TrimSpace(q.Get("content_type")))
	if err != nil {
		writeError(w, "placeholder widget", err)
		return
	}
	if node == nil {
		writeError(w, "placeholder widget", apperr.Validation("placeholder widget", "Not a placeholder: "+token, token))
		return
	}
	writeJSON(w, http.StatusOK, node)
}

func (h *ConverterHandler) HandlePreferences(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{"preferences": h.svc.Preferences(r.Context())})
}

func (h *ConverterHandler) HandleClearPreferences(w http.ResponseWriter, r *http.Request) {
	if err := h.svc.ClearPreferences(r.Context()); err != nil {
		writeError(w, "clear preferences", err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func decodeBody(r *http.Request, op string, v any) error {
	data, err := io.ReadAll(io.LimitReader(r.Body, maxJSONBody))
	if err != nil {
		return apperr.Validation(op, "Could not read request body", "body")
	}
	return jsonutil.Decode(op, data, v)
}

// Status maps an error to its HTTP status.
func Status(err error) int {
	switch {
	case errors.Is(err, apperr.ErrValidation), errors.Is(err, apperr.ErrMalformedInput):
		return http.StatusBadRequest
	case errors.Is(err, apperr.ErrFileNotFound), errors.Is(err, apperr.ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, apperr.ErrCollaborator):
		return http.StatusBadGateway
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		return http.StatusServiceUnavailable
	default:
		return http.StatusInternalServerError
	}
}

type errorBody struct {
	Error string   `json:"error"`
	Kind  string   `json:"kind,omitempty"`
	Items []string `json:"items,omitempty"`
}

func writeError(w http.ResponseWriter, op string, err error) {
	status := Status(err)
	body := errorBody{Error: apperr.Public(err)}
	var ae *apperr.Error
	if errors.As(err, &ae) {
		body.Kind = string(ae.Kind)
		body.Items = ae.Items
	}
	if status >= http.StatusInternalServerError {
		log.Printf("%s failed: %v", op, err)
		if status == http.StatusInternalServerError {
			body.Error = "internal error"
		}
	}
	writeJSON(w, status, body)
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
