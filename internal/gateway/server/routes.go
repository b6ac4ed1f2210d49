package server

import (
	"net/http"

	"l2wp/internal/gateway/handler"
	"l2wp/internal/gateway/handler/rpc"
	"l2wp/internal/gateway/middleware"
)

// NewMux mounts the JSON API, the connect service and, when media is
// non-nil, the media files under /media/.
func NewMux(api *handler.ConverterHandler, converterRPC *rpc.ConverterHandler, media http.Handler) http.Handler {
	mux := http.NewServeMux()

	// RPC Handlers
	mux.Handle(rpc.NewConverterServiceHandler(converterRPC))

	// JSON API and import websocket
	api.Register(mux)

	if media != nil {
		mux.Handle("GET /media/", http.StripPrefix("/media/", media))
	}
	mux.HandleFunc("GET /healthz", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	})

	// Middleware
	return middleware.CORS(mux)
}
