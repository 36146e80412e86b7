package routes

import (
	"encoding/json"
	"fmt"
	"net/http"

	"ziggie/ziggie/controllers"
	"ziggie/ziggie/errs"
	"ziggie/ziggie/types"

	"github.com/coder/websocket"
	"github.com/go-chi/chi/v5"
)

func ChatRoutes(ctrl *controllers.ChatController, writeErr ErrorWriter) chi.Router {
	r := chi.NewRouter()

	// POST /chat : send a message, get the model reply
	r.Post("/", handleJSON(writeErr, func(r *http.Request) (any, int, error) {
		var req types.ChatRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			return nil, 0, errs.Validation("Invalid JSON body")
		}
		if err := req.Validate(); err != nil {
			return nil, 0, err
		}
		resp, err := ctrl.Chat(r.Context(), req)
		if err != nil {
			return nil, 0, err
		}
		return resp, http.StatusOK, nil
	}))

	// GET /chat/{sessionId} : full history, oldest first
	r.Get("/{sessionId}", handleJSON(writeErr, func(r *http.Request) (any, int, error) {
		sessionID := chi.URLParam(r, "sessionId")
		msgs, err := ctrl.History(r.Context(), sessionID)
		if err != nil {
			return nil, 0, err
		}
		return map[string]any{
			"sessionId":    sessionID,
			"messages":     msgs,
			"messageCount": len(msgs),
		}, http.StatusOK, nil
	}))

	// DELETE /chat/{sessionId} : clear history
	r.Delete("/{sessionId}", handleJSON(writeErr, func(r *http.Request) (any, int, error) {
		sessionID := chi.URLParam(r, "sessionId")
		count, err := ctrl.ClearHistory(r.Context(), sessionID)
		if err != nil {
			return nil, 0, err
		}
		return map[string]any{
			"sessionId": sessionID,
			"cleared":   true,
			"message":   fmt.Sprintf("%d messages cleared", count),
		}, http.StatusOK, nil
	}))

	// GET /chat/ws : websocket variant streaming the reply in chunks
	r.HandleFunc("/ws", func(w http.ResponseWriter, r *http.Request) {
		conn, err := websocket.Accept(w, r, nil)
		if err != nil {
			return
		}
		defer conn.Close(websocket.StatusInternalError, "internal error")

		ctx := r.Context()
		typ, data, err := conn.Read(ctx)
		if err != nil {
			return
		}
		if typ != websocket.MessageText {
			conn.Close(websocket.StatusUnsupportedData, "unsupported data")
			return
		}
		var req types.ChatRequest
		if err := json.Unmarshal(data, &req); err != nil {
			conn.Write(ctx, websocket.MessageText, []byte(`{"error":"invalid json"}`))
			return
		}
		if err := req.Validate(); err != nil {
			conn.Write(ctx, websocket.MessageText, []byte(`{"error":"`+err.Message+`"}`))
			conn.Close(websocket.StatusPolicyViolation, "invalid request")
			return
		}

		ch, err := ctrl.ChatStream(ctx, req)
		if err != nil {
			conn.Write(ctx, websocket.MessageText, []byte(`{"error":"`+err.Error()+`"}`))
			conn.Close(websocket.StatusInternalError, "stream error")
			return
		}
		for chunk := range ch {
			if err := conn.Write(ctx, websocket.MessageText, []byte(chunk)); err != nil {
				return
			}
		}
		conn.Close(websocket.StatusNormalClosure, "")
	})

	return r
}
