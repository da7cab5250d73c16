package ws

import (
	"encoding/json"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5/middleware"
	"github.com/google/uuid"
	"github.com/gorilla/websocket"

	"github.com/jonatasJS/back-end/internal/chat"
	"github.com/jonatasJS/back-end/internal/lib/logger/sl"
	wsproto "github.com/jonatasJS/back-end/internal/ws"
	"github.com/jonatasJS/back-end/internal/ws/hub"
)

var upgrader = websocket.Upgrader{
	CheckOrigin: func(r *http.Request) bool { return true },
}

// WSHandler upgrades the connection and bridges it to the session
// controller. The client supplies nickname and userId as query params.
func WSHandler(h *hub.Hub, ctrl *chat.Controller, log *slog.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		const op = "handlers.ws.WSHandler"

		log := log.With(
			slog.String("op", op),
			slog.String("request_id", middleware.GetReqID(r.Context())),
		)

		conn, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			log.Error("ws upgrade error", sl.Err(err))
			return
		}
		defer conn.Close()

		nickname := r.URL.Query().Get("nickname")
		userID := r.URL.Query().Get("userId")

		hc := hub.NewConnection(conn, uuid.NewString())
		hc.SetupKeepalive()
		go hc.WritePump()

		// Replay happens before the connection joins the broadcast set,
		// so the initial batch can never duplicate a live event.
		sess := ctrl.Connect(r.Context(), hc.ID(), nickname, userID, hc)

		h.Register(hc)
		defer func() {
			h.Unregister(hc)
			ctrl.Disconnect(sess)
		}()

		for {
			_, data, err := conn.ReadMessage()
			if err != nil {
				if websocket.IsUnexpectedCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway) {
					log.Error("ws read error", sl.Err(err))
				}
				return
			}

			var evt wsproto.ClientEvent
			if err := json.Unmarshal(data, &evt); err != nil {
				log.Error("ws bad json", sl.Err(err))
				continue
			}

			switch evt.Type {
			case wsproto.InboundMessage:
				var msg wsproto.MessageData
				if err := json.Unmarshal(evt.Data, &msg); err != nil {
					log.Error("ws bad message data", sl.Err(err))
					continue
				}
				// Persistence failures are logged inside; the client
				// gets no error event on this path.
				_ = ctrl.HandleMessage(r.Context(), sess, msg)

			case wsproto.InboundUserConnected:
				var announce wsproto.UserConnectedData
				if err := json.Unmarshal(evt.Data, &announce); err != nil {
					log.Error("ws bad userConnected data", sl.Err(err))
					continue
				}
				ctrl.HandleUserConnected(sess, announce)

			default:
				log.Info("ws unknown event type", slog.String("event type", evt.Type))
			}
		}
	}
}
