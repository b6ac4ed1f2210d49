package rpc

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"connectrpc.com/connect"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"google.golang.org/protobuf/types/known/structpb"

	"l2wp/internal/fields"
	"l2wp/internal/gateway/repository/document"
	"l2wp/internal/gateway/service/converter"
	"l2wp/internal/placeholder"
	"l2wp/internal/translator"
)

func newClient(t *testing.T, procedure string) *connect.Client[structpb.Struct, structpb.Struct] {
	t.Helper()
	tr := translator.New()
	contexts := placeholder.NewMemoryContexts()
	contexts.Put("7", placeholder.Context{Title: "About us"})
	svc := converter.New(converter.Deps{
		Translator: tr,
		Exporter:   translator.NewExporter(tr, document.NewMemoryStore()),
		Resolver:   placeholder.NewResolver(contexts, fields.NewSet()),
	})
	t.Cleanup(svc.Close)

	mux := http.NewServeMux()
	mux.Handle(NewConverterServiceHandler(NewConverterHandler(svc)))
	srv := httptest.NewServer(mux)
	t.Cleanup(srv.Close)
	return connect.NewClient[structpb.Struct, structpb.Struct](srv.Client(), srv.URL+procedure)
}

func mustStruct(t *testing.T, v map[string]any) *structpb.Struct {
	t.Helper()
	s, err := structpb.NewStruct(v)
	require.NoError(t, err)
	return s
}

func TestResolve(t *testing.T) {
	client := newClient(t, ConverterResolveProcedure)
	resp, err := client.CallUnary(context.Background(), connect.NewRequest(mustStruct(t, map[string]any{
		"text":       "{{post.title}} page",
		"context_id": "7",
	})))
	require.NoError(t, err)
	assert.Equal(t, "About us page", resp.Msg.GetFields()["text"].GetStringValue())
}

func TestExport(t *testing.T) {
	client := newClient(t, ConverterExportProcedure)
	resp, err := client.CallUnary(context.Background(), connect.NewRequest(mustStruct(t, map[string]any{
		"design": map[string]any{"title": "Landing"},
	})))
	require.NoError(t, err)
	out := resp.Msg.GetFields()
	assert.Equal(t, "Landing", out["title"].GetStringValue())
	assert.NotEmpty(t, out["id"].GetStringValue())
}

func TestExportRequiresDesign(t *testing.T) {
	client := newClient(t, ConverterExportProcedure)
	_, err := client.CallUnary(context.Background(), connect.NewRequest(mustStruct(t, map[string]any{})))
	require.Error(t, err)
	assert.Equal(t, connect.CodeInvalidArgument, connect.CodeOf(err))
}

func TestDetectWithoutAnalysis(t *testing.T) {
	client := newClient(t, ConverterDetectProcedure)
	_, err := client.CallUnary(context.Background(), connect.NewRequest(mustStruct(t, map[string]any{"user_id": "ghost"})))
	require.Error(t, err)
	assert.Equal(t, connect.CodeNotFound, connect.CodeOf(err))
}

func TestAnalyzeRejectsBadArchive(t *testing.T) {
	client := newClient(t, ConverterAnalyzeProcedure)
	_, err := client.CallUnary(context.Background(), connect.NewRequest(mustStruct(t, map[string]any{"archive": "%%%"})))
	require.Error(t, err)
	assert.Equal(t, connect.CodeInvalidArgument, connect.CodeOf(err))
}
