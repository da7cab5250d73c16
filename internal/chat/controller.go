package chat

import (
	"context"
	"log/slog"

	"github.com/jonatasJS/back-end/internal/identity"
	"github.com/jonatasJS/back-end/internal/lib/logger/sl"
	"github.com/jonatasJS/back-end/internal/messages"
	"github.com/jonatasJS/back-end/internal/presence"
	"github.com/jonatasJS/back-end/internal/ws"
)

// Sender delivers an event to a single connection.
type Sender interface {
	Send(b []byte)
}

// Broadcaster fans an event out to every live connection.
type Broadcaster interface {
	Broadcast(payload []byte)
}

// Session is the per-connection state. Nickname and color are only
// established by the client's userConnected announcement.
type Session struct {
	ConnID   string
	UserID   string
	Nickname string
	Color    string
}

// Controller orchestrates the room: replay on connect, persist then
// broadcast on message, presence announcements, departure events.
type Controller struct {
	store    messages.Store
	registry *presence.Registry
	fanout   Broadcaster
	log      *slog.Logger

	// uploadColorFromSession switches the audio-upload path from the
	// entity's default color to the sender's announced session color.
	uploadColorFromSession bool
}

func NewController(
	store messages.Store,
	registry *presence.Registry,
	fanout Broadcaster,
	log *slog.Logger,
	uploadColorFromSession bool,
) *Controller {
	return &Controller{
		store:                  store,
		registry:               registry,
		fanout:                 fanout,
		log:                    log,
		uploadColorFromSession: uploadColorFromSession,
	}
}

// Connect resolves the client's identity and replays history to it.
// The caller must register the connection for broadcasts only after
// Connect returns, so the replay batch can never overlap live events.
func (c *Controller) Connect(ctx context.Context, connID, nickname, userID string, to Sender) *Session {
	const op = "chat.Connect"

	log := c.log.With(slog.String("op", op), slog.String("conn_id", connID))

	sess := &Session{
		ConnID: connID,
		UserID: identity.Ensure(nickname, userID),
	}

	if evt, err := ws.NewEvent(ws.EventSaveUserInfo, ws.SaveUserInfoPayload{
		Nickname: nickname,
		UserID:   sess.UserID,
	}); err != nil {
		log.Error("failed to build saveUserInfo event", sl.Err(err))
	} else {
		to.Send(evt)
	}

	history, err := c.store.Messages(ctx)
	if err != nil {
		// Client starts with an empty view; live messages still arrive.
		log.Error("failed to load history", sl.Err(err))
		return sess
	}

	if evt, err := ws.NewEvent(ws.EventMessages, history); err != nil {
		log.Error("failed to build messages event", sl.Err(err))
	} else {
		to.Send(evt)
	}

	return sess
}

// HandleMessage persists an inbound message and, only on success,
// broadcasts it to the room.
func (c *Controller) HandleMessage(ctx context.Context, sess *Session, data ws.MessageData) error {
	const op = "chat.HandleMessage"

	msg := messages.New(data.Text, data.File, sess.Nickname, sess.Color)

	saved, err := c.store.AddMessage(ctx, msg)
	if err != nil {
		c.log.Error("failed to save message",
			slog.String("op", op),
			slog.String("conn_id", sess.ConnID),
			sl.Err(err),
		)
		return err
	}

	c.broadcast(op, ws.EventMessage, saved)

	return nil
}

// HandleUserConnected establishes the session's nickname, assigns its
// color and announces the arrival to the whole room.
func (c *Controller) HandleUserConnected(sess *Session, data ws.UserConnectedData) {
	const op = "chat.HandleUserConnected"

	color := messages.RandomColor()

	sess.Nickname = data.Nickname
	sess.Color = color
	if data.UserID != "" {
		sess.UserID = data.UserID
	}

	c.registry.Set(sess.ConnID, presence.Info{
		Nickname: data.Nickname,
		Color:    color,
	})

	c.broadcast(op, ws.EventUserConnected, ws.UserConnectedPayload{
		Nickname: data.Nickname,
		Color:    color,
	})
}

// Disconnect announces the departure of a session that had announced
// itself. Safe to call more than once; the event fires at most once.
func (c *Controller) Disconnect(sess *Session) {
	const op = "chat.Disconnect"

	if !c.registry.Clear(sess.ConnID) {
		return
	}

	c.broadcast(op, ws.EventUserDisconnected, ws.UserDisconnectedPayload{
		Nickname: sess.Nickname,
	})
}

// IngestAttachment persists a stored upload as a message and, only on
// success, broadcasts it.
func (c *Controller) IngestAttachment(ctx context.Context, sender, fileURL string) (messages.Message, error) {
	const op = "chat.IngestAttachment"

	color := ""
	if c.uploadColorFromSession {
		if info, ok := c.registry.Find(sender); ok {
			color = info.Color
		}
	}

	msg := messages.New(nil, &fileURL, sender, color)

	saved, err := c.store.AddMessage(ctx, msg)
	if err != nil {
		c.log.Error("failed to save attachment message",
			slog.String("op", op),
			slog.String("sender", sender),
			sl.Err(err),
		)
		return messages.Message{}, err
	}

	c.broadcast(op, ws.EventMessage, saved)

	return saved, nil
}

func (c *Controller) broadcast(op, eventType string, payload any) {
	evt, err := ws.NewEvent(eventType, payload)
	if err != nil {
		c.log.Error("failed to build ws event",
			slog.String("op", op),
			slog.String("event", eventType),
			sl.Err(err),
		)
		return
	}

	c.fanout.Broadcast(evt)
}
