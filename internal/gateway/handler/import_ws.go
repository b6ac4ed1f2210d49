package handler

import (
	"context"
	"encoding/json"
	"log"
	"net/http"
	"time"

	"github.com/gorilla/websocket"

	"l2wp/internal/apperr"
	"l2wp/internal/gateway/service/converter"
	"l2wp/internal/importer"
)

const (
	importWSWriteWait = 10 * time.Second
	importWSReadWait  = 60 * time.Second
	importWSPingEvery = (importWSReadWait * 9) / 10
)

var importWSUpgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin: func(_ *http.Request) bool {
		return true
	},
}

type importWSOutbound struct {
	Type    string           `json:"type"`
	Event   *importer.Event  `json:"event,omitempty"`
	Result  *importer.Result `json:"result,omitempty"`
	Code    string           `json:"code,omitempty"`
	Message string           `json:"message,omitempty"`
}

// HandleImportWS runs one import per connection. The client sends the
// import options as its first message and receives "progress" messages
// followed by a single "result" or "error".
func (h *ConverterHandler) HandleImportWS(w http.ResponseWriter, r *http.Request) {
	user := userOf(r)
	if user == "" {
		user = r.URL.Query().Get("user_id")
	}
	conn, err := importWSUpgrader.Upgrade(w, r, nil)
	if err != nil {
		return
	}
	defer conn.Close()

	ctx, cancel := context.WithCancel(r.Context())
	defer cancel()

	if err := conn.SetReadDeadline(time.Now().Add(importWSReadWait)); err != nil {
		log.Printf("import ws: set read deadline failed: %v", err)
		return
	}
	_, raw, err := conn.ReadMessage()
	if err != nil {
		return
	}
	var opts converter.ImportOptions
	if err := json.Unmarshal(raw, &opts); err != nil {
		_ = writeWS(conn, importWSOutbound{Type: "error", Code: "invalid_argument", Message: "invalid import options"})
		return
	}

	writeCh := make(chan importWSOutbound, 32)
	writerDone := make(chan struct{})
	go func() {
		defer close(writerDone)
		defer cancel()
		ticker := time.NewTicker(importWSPingEvery)
		defer ticker.Stop()
		for {
			select {
			case out, ok := <-writeCh:
				if !ok {
					return
				}
				if err := writeWS(conn, out); err != nil {
					return
				}
			case <-ticker.C:
				if err := conn.SetWriteDeadline(time.Now().Add(importWSWriteWait)); err != nil {
					return
				}
				if err := conn.WriteMessage(websocket.PingMessage, nil); err != nil {
					return
				}
			}
		}
	}()

	send := func(out importWSOutbound) {
		select {
		case writeCh <- out:
		case <-ctx.Done():
		}
	}
	res, err := h.svc.Import(ctx, user, opts, func(ev importer.Event) {
		send(importWSOutbound{Type: "progress", Event: &ev})
	})
	if err != nil {
		send(importWSOutbound{Type: "error", Code: wsCode(err), Message: apperr.Public(err)})
	} else {
		send(importWSOutbound{Type: "result", Result: res})
	}
	close(writeCh)
	<-writerDone
	_ = conn.WriteControl(websocket.CloseMessage,
		websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""),
		time.Now().Add(importWSWriteWait))
}

func writeWS(conn *websocket.Conn, out importWSOutbound) error {
	if err := conn.SetWriteDeadline(time.Now().Add(importWSWriteWait)); err != nil {
		return err
	}
	return conn.WriteJSON(out)
}

func wsCode(err error) string {
	switch Status(err) {
	case http.StatusBadRequest:
		return "invalid_argument"
	case http.StatusNotFound:
		return "not_found"
	case http.StatusBadGateway:
		return "unavailable"
	default:
		return "internal"
	}
}
