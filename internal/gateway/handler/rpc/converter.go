package rpc

import (
	"bytes"
	"context"
	"encoding/base64"
	"fmt"
	"net/http"
	"strings"

	"connectrpc.com/connect"
	"google.golang.org/protobuf/encoding/protojson"
	"google.golang.org/protobuf/types/known/structpb"

	"l2wp/internal/gateway/service/converter"
)

const ConverterServiceName = "l2wp.v1.ConverterService"

const (
	ConverterAnalyzeProcedure = "/" + ConverterServiceName + "/Analyze"
	ConverterDetectProcedure  = "/" + ConverterServiceName + "/Detect"
	ConverterExportProcedure  = "/" + ConverterServiceName + "/Export"
	ConverterResolveProcedure = "/" + ConverterServiceName + "/Resolve"
)

type (
	structRequest  = connect.Request[structpb.Struct]
	structResponse = connect.Response[structpb.Struct]
)

// ConverterHandler exposes the converter as unary connect procedures
// carrying google.protobuf.Struct messages.
type ConverterHandler struct {
	svc *converter.Service
}

func NewConverterHandler(svc *converter.Service) *ConverterHandler {
	return &ConverterHandler{svc: svc}
}

// NewConverterServiceHandler returns the path prefix and handler to mount.
func NewConverterServiceHandler(h *ConverterHandler, opts ...connect.HandlerOption) (string, http.Handler) {
	mux := http.NewServeMux()
	mux.Handle(ConverterAnalyzeProcedure, connect.NewUnaryHandler(ConverterAnalyzeProcedure, h.Analyze, opts...))
	mux.Handle(ConverterDetectProcedure, connect.NewUnaryHandler(ConverterDetectProcedure, h.Detect, opts...))
	mux.Handle(ConverterExportProcedure, connect.NewUnaryHandler(ConverterExportProcedure, h.Export, opts...))
	mux.Handle(ConverterResolveProcedure, connect.NewUnaryHandler(ConverterResolveProcedure, h.Resolve, opts...))
	return "/" + ConverterServiceName + "/", mux
}

// Analyze takes {user_id, name, archive} where archive is the base64 zip.
func (h *ConverterHandler) Analyze(ctx context.Context, req *structRequest) (*structResponse, error) {
	in := fieldsOf(req.Msg)
	raw := in.str("archive")
	if raw == "" {
		return nil, connect.NewError(connect.CodeInvalidArgument, fmt.Errorf("archive is required"))
	}
	data, err := base64.StdEncoding.DecodeString(raw)
	if err != nil {
		return nil, connect.NewError(connect.CodeInvalidArgument, fmt.Errorf("archive must be base64: %w", err))
	}
	name := in.str("name")
	if name == "" {
		name = "project.zip"
	}
	res, err := h.svc.Analyze(ctx, converter.Upload{
		User: in.str("user_id"),
		Name: name,
		Size: int64(len(data)),
		Body: bytes.NewReader(data),
	})
	if err != nil {
		return nil, toConnectError(err)
	}
	return respond(res)
}

// Detect takes {user_id}.
func (h *ConverterHandler) Detect(ctx context.Context, req *structRequest) (*structResponse, error) {
	res, err := h.svc.Detect(ctx, fieldsOf(req.Msg).str("user_id"))
	if err != nil {
		return nil, toConnectError(err)
	}
	return respond(res)
}

// Export takes {design} holding the design document itself.
func (h *ConverterHandler) Export(ctx context.Context, req *structRequest) (*structResponse, error) {
	design := req.Msg.GetFields()["design"]
	if design == nil {
		return nil, connect.NewError(connect.CodeInvalidArgument, fmt.Errorf("design is required"))
	}
	data, err := protojson.Marshal(design)
	if err != nil {
		return nil, connect.NewError(connect.CodeInvalidArgument, err)
	}
	res, err := h.svc.Export(ctx, data)
	if err != nil {
		return nil, toConnectError(err)
	}
	return respond(res)
}

// Resolve takes {text, context_id}.
func (h *ConverterHandler) Resolve(ctx context.Context, req *structRequest) (*structResponse, error) {
	in := fieldsOf(req.Msg)
	return respond(h.svc.Resolve(ctx, in.rawStr("text"), in.str("context_id")))
}

type structFields map[string]*structpb.Value

func fieldsOf(s *structpb.Struct) structFields {
	return structFields(s.GetFields())
}

func (f structFields) rawStr(key string) string {
	if v, ok := f[key]; ok {
		return v.GetStringValue()
	}
	return ""
}

func (f structFields) str(key string) string {
	return strings.TrimSpace(f.rawStr(key))
}
