package handler

import (
	"archive/zip"
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"l2wp/internal/apperr"
	"l2wp/internal/archive"
	"l2wp/internal/gateway/repository/document"
	"l2wp/internal/gateway/repository/media"
	"l2wp/internal/gateway/service/converter"
	"l2wp/internal/importer"
	"l2wp/internal/placeholder"
	"l2wp/internal/recommender"
	"l2wp/internal/registry"
	"l2wp/internal/translator"
)

func newTestServer(t *testing.T) *httptest.Server {
	t.Helper()
	docs := document.NewMemoryStore()
	rec := recommender.New(nil, registry.NewMemoryRegistry())
	tr := translator.New()
	contexts := placeholder.NewMemoryContexts()
	contexts.Put("7", placeholder.Context{Title: "Espresso"})
	svc := converter.New(converter.Deps{
		Analyzer:    &archive.Analyzer{TempDir: t.TempDir()},
		Recommender: rec,
		Translator:  tr,
		Exporter:    translator.NewExporter(tr, docs),
		Importer:    importer.New(rec, docs, importer.WithTranslator(tr)),
		Resolver:    placeholder.NewResolver(contexts, nil),
	})
	t.Cleanup(svc.Close)
	mux := http.NewServeMux()
	NewConverterHandler(svc).Register(mux)
	srv := httptest.NewServer(mux)
	t.Cleanup(srv.Close)
	return srv
}

func projectZip(t *testing.T) []byte {
	t.Helper()
	var buf bytes.Buffer
	zw := zip.NewWriter(&buf)
	for name, body := range map[string]string{
		"package.json":        `{"name":"demo"}`,
		"src/pages/Index.tsx": `<section><h1>Hi</h1></section>`,
		"public/robots.txt":   "x",
	} {
		w, err := zw.Create(name)
		require.NoError(t, err)
		_, err = w.Write([]byte(body))
		require.NoError(t, err)
	}
	require.NoError(t, zw.Close())
	return buf.Bytes()
}

func postUpload(t *testing.T, srv *httptest.Server, user string) *http.Response {
	t.Helper()
	var body bytes.Buffer
	mw := multipart.NewWriter(&body)
	fw, err := mw.CreateFormFile("file", "demo.zip")
	require.NoError(t, err)
	_, err = fw.Write(projectZip(t))
	require.NoError(t, err)
	require.NoError(t, mw.Close())

	req, err := http.NewRequest(http.MethodPost, srv.URL+"/api/analyze", &body)
	require.NoError(t, err)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	req.Header.Set(UserHeader, user)
	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	t.Cleanup(func() { resp.Body.Close() })
	return resp
}

func decode(t *testing.T, resp *http.Response) map[string]any {
	t.Helper()
	var out map[string]any
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&out))
	return out
}

func TestAnalyzeAndTranslate(t *testing.T) {
	srv := newTestServer(t)
	resp := postUpload(t, srv, "alice")
	require.Equal(t, http.StatusOK, resp.StatusCode)
	body := decode(t, resp)
	model := body["model"].(map[string]any)
	assert.Equal(t, "demo", model["name"])

	req, _ := http.NewRequest(http.MethodGet, srv.URL+"/api/translate", nil)
	req.Header.Set(UserHeader, "alice")
	tr, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	defer tr.Body.Close()
	require.Equal(t, http.StatusOK, tr.StatusCode)
	docs := decode(t, tr)["documents"].([]any)
	require.Len(t, docs, 1)
	assert.Equal(t, "Index", docs[0].(map[string]any)["title"])
}

func TestAnalyzeWithoutFile(t *testing.T) {
	srv := newTestServer(t)
	resp, err := http.Post(srv.URL+"/api/analyze", "text/plain", strings.NewReader("x"))
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	assert.Equal(t, "No file uploaded", decode(t, resp)["error"])
}

func TestDetectionsWithoutAnalysisIs404(t *testing.T) {
	srv := newTestServer(t)
	resp, err := http.Get(srv.URL + "/api/detections")
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
	assert.Equal(t, string(apperr.KindNotFound), decode(t, resp)["kind"])
}

func TestExportMalformedJSON(t *testing.T) {
	srv := newTestServer(t)
	resp, err := http.Post(srv.URL+"/api/exports", "application/json", strings.NewReader(`{"title": `))
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	assert.Equal(t, "Invalid JSON: Syntax error, malformed JSON", decode(t, resp)["error"])
}

func TestExportListUntag(t *testing.T) {
	srv := newTestServer(t)
	resp, err := http.Post(srv.URL+"/api/exports", "application/json",
		strings.NewReader(`{"proyecto":{"nombre":"Cafe","estructura_paginas":{"paginas":[{"nombre":"Home","secciones":[{"nombre":"Hero"}]}]}}}`))
	require.NoError(t, err)
	defer resp.Body.Close()
	require.Equal(t, http.StatusCreated, resp.StatusCode)
	created := decode(t, resp)
	assert.Equal(t, "Cafe", created["title"])
	id := created["id"].(string)

	req, _ := http.NewRequest(http.MethodDelete, srv.URL+"/api/exports/"+id, nil)
	del, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	del.Body.Close()
	assert.Equal(t, http.StatusNoContent, del.StatusCode)

	req, _ = http.NewRequest(http.MethodDelete, srv.URL+"/api/exports/nope", nil)
	del, err = http.DefaultClient.Do(req)
	require.NoError(t, err)
	del.Body.Close()
	assert.Equal(t, http.StatusNotFound, del.StatusCode)
}

func TestRenderDocument(t *testing.T) {
	srv := newTestServer(t)
	resp, err := http.Post(srv.URL+"/api/exports", "application/json",
		strings.NewReader(`{"title":"Menu","sections":[{"columns":[{"widgets":[{"type":"heading","content":"Today: {{post.title}} {{acf.price}}"}]}]}]}`))
	require.NoError(t, err)
	created := decode(t, resp)
	resp.Body.Close()
	id := created["id"].(string)

	resp, err = http.Get(srv.URL + "/api/documents/" + id + "/render?context_id=7")
	require.NoError(t, err)
	defer resp.Body.Close()
	require.Equal(t, http.StatusOK, resp.StatusCode)
	var out converter.RenderedDocument
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&out))
	title, _ := out.Document.Content[0].Children[0].Children[0].Settings.Get("title")
	assert.Equal(t, "Today: Espresso {{acf.price}}", title)

	missing, err := http.Get(srv.URL + "/api/documents/nope/render?context_id=7")
	require.NoError(t, err)
	missing.Body.Close()
	assert.Equal(t, http.StatusNotFound, missing.StatusCode)
}

func TestSolutionsUnknownKey(t *testing.T) {
	srv := newTestServer(t)
	resp, err := http.Get(srv.URL + "/api/solutions/teleport")
	require.NoError(t, err)
	defer resp.Body.Close()
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Empty(t, decode(t, resp)["solutions"])
}

func TestImportOverWebsocket(t *testing.T) {
	srv := newTestServer(t)
	require.Equal(t, http.StatusOK, postUpload(t, srv, "bob").StatusCode)

	url := "ws" + strings.TrimPrefix(srv.URL, "http") + "/api/import/ws"
	conn, resp, err := websocket.DefaultDialer.Dial(url, http.Header{UserHeader: []string{"bob"}})
	require.NoError(t, err)
	defer resp.Body.Close()
	defer conn.Close()

	require.NoError(t, conn.WriteJSON(converter.ImportOptions{}))
	var stages []string
	for {
		var msg importWSOutbound
		require.NoError(t, conn.ReadJSON(&msg))
		if msg.Type == "progress" {
			stages = append(stages, msg.Event.Stage)
			continue
		}
		require.Equal(t, "result", msg.Type, msg.Message)
		assert.Equal(t, importer.StatusSuccess, msg.Result.Status)
		assert.Equal(t, 1, msg.Result.CreatedPages)
		break
	}
	assert.Equal(t, []string{importer.StagePages, importer.StageDone}, stages)
}

func TestImportOverWebsocketWithoutAnalysis(t *testing.T) {
	srv := newTestServer(t)
	url := "ws" + strings.TrimPrefix(srv.URL, "http") + "/api/import/ws?user_id=nobody"
	conn, resp, err := websocket.DefaultDialer.Dial(url, nil)
	require.NoError(t, err)
	defer resp.Body.Close()
	defer conn.Close()

	require.NoError(t, conn.WriteJSON(converter.ImportOptions{}))
	var msg importWSOutbound
	require.NoError(t, conn.ReadJSON(&msg))
	assert.Equal(t, "error", msg.Type)
	assert.Equal(t, "not_found", msg.Code)
}

func TestStatus(t *testing.T) {
	tests := []struct {
		err  error
		want int
	}{
		{apperr.Validation("op", "bad"), http.StatusBadRequest},
		{apperr.Malformed("op", apperr.DecodeSyntax, errors.New("x")), http.StatusBadRequest},
		{apperr.FileNotFound("op", "a.zip"), http.StatusNotFound},
		{apperr.NotFound("op", "document", "1"), http.StatusNotFound},
		{apperr.Collaborator("op", errors.New("down")), http.StatusBadGateway},
		{fmt.Errorf("wrapped: %w", apperr.Collaborator("op", errors.New("down"))), http.StatusBadGateway},
		{errors.New("boom"), http.StatusInternalServerError},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, Status(tt.err), tt.err.Error())
	}
}

func TestMediaHandler(t *testing.T) {
	store := media.NewMemoryStore()
	require.NoError(t, store.Put(context.Background(), "imp1", "public/logo.svg", []byte("<svg/>")))
	h := http.StripPrefix("/media/", NewMediaHandler(store))

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/media/imp1/public/logo.svg", nil))
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "image/svg+xml", rec.Header().Get("Content-Type"))
	assert.Equal(t, "<svg/>", rec.Body.String())

	rec = httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/media/imp1/missing.png", nil))
	assert.Equal(t, http.StatusNotFound, rec.Code)
}
