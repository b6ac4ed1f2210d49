package rpc

import (
	"errors"
	"fmt"

	"connectrpc.com/connect"
	"google.golang.org/protobuf/encoding/protojson"
	"google.golang.org/protobuf/types/known/structpb"

	"l2wp/internal/apperr"
	"l2wp/internal/util/jsonutil"
)

// toStruct round-trips v through JSON so struct tags decide the field
// names on the wire.
func toStruct(v any) (*structpb.Struct, error) {
	data, err := jsonutil.MarshalNoEscape(v)
	if err != nil {
		return nil, err
	}
	out := &structpb.Struct{}
	if err := protojson.Unmarshal(data, out); err != nil {
		return nil, err
	}
	return out, nil
}

func respond(v any) (*structResponse, error) {
	msg, err := toStruct(v)
	if err != nil {
		return nil, connect.NewError(connect.CodeInternal, fmt.Errorf("encode response: %w", err))
	}
	return connect.NewResponse(msg), nil
}

func toConnectError(err error) error {
	if err == nil {
		return nil
	}
	msg := errors.New(apperr.Public(err))
	switch {
	case errors.Is(err, apperr.ErrValidation), errors.Is(err, apperr.ErrMalformedInput):
		return connect.NewError(connect.CodeInvalidArgument, msg)
	case errors.Is(err, apperr.ErrFileNotFound), errors.Is(err, apperr.ErrNotFound):
		return connect.NewError(connect.CodeNotFound, msg)
	case errors.Is(err, apperr.ErrCollaborator):
		return connect.NewError(connect.CodeUnavailable, msg)
	}
	return connect.NewError(connect.CodeInternal, fmt.Errorf("converter failed: %w", err))
}
