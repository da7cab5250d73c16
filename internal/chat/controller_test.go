package chat

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"regexp"
	"strings"
	"testing"
	"time"

	"github.com/jonatasJS/back-end/internal/messages"
	"github.com/jonatasJS/back-end/internal/presence"
	"github.com/jonatasJS/back-end/internal/ws"
)

var colorRe = regexp.MustCompile(`^#[0-9A-F]{6}$`)

type fakeStore struct {
	saved   []messages.Message
	failing bool
	nextID  int64
}

func (s *fakeStore) AddMessage(_ context.Context, m messages.Message) (messages.Message, error) {
	if s.failing {
		return messages.Message{}, errors.New("store unreachable")
	}
	s.nextID++
	m.ID = s.nextID
	m.CreatedAt = time.Now()
	s.saved = append(s.saved, m)
	return m, nil
}

func (s *fakeStore) Messages(_ context.Context) ([]messages.Message, error) {
	if s.failing {
		return nil, errors.New("store unreachable")
	}
	return s.saved, nil
}

func (s *fakeStore) Close() error { return nil }

type fakeFanout struct {
	payloads [][]byte
}

func (f *fakeFanout) Broadcast(payload []byte) {
	f.payloads = append(f.payloads, payload)
}

type fakeSender struct {
	sent [][]byte
}

func (s *fakeSender) Send(b []byte) {
	s.sent = append(s.sent, b)
}

func decodeEvent(t *testing.T, b []byte) (string, json.RawMessage) {
	t.Helper()

	var env struct {
		Type    string          `json:"type"`
		Payload json.RawMessage `json:"payload"`
	}
	if err := json.Unmarshal(b, &env); err != nil {
		t.Fatalf("failed to decode event %s: %v", b, err)
	}
	return env.Type, env.Payload
}

func countEvents(t *testing.T, payloads [][]byte, eventType string) int {
	t.Helper()

	n := 0
	for _, p := range payloads {
		if typ, _ := decodeEvent(t, p); typ == eventType {
			n++
		}
	}
	return n
}

func newTestController(store messages.Store, fanout Broadcaster) *Controller {
	log := slog.New(slog.NewTextHandler(io.Discard, nil))
	return NewController(store, presence.NewRegistry(), fanout, log, false)
}

func strPtr(s string) *string { return &s }

func TestConnectSendsIdentityThenHistory(t *testing.T) {
	store := &fakeStore{}
	if _, err := store.AddMessage(context.Background(), messages.New(strPtr("old"), nil, "Bob", "#112233")); err != nil {
		t.Fatal(err)
	}

	ctrl := newTestController(store, &fakeFanout{})
	to := &fakeSender{}

	sess := ctrl.Connect(context.Background(), "c1", "Ana", "", to)

	if !strings.HasPrefix(sess.UserID, "Ana-") {
		t.Errorf("minted user id = %q, want Ana- prefix", sess.UserID)
	}

	if len(to.sent) != 2 {
		t.Fatalf("got %d direct events, want saveUserInfo + messages", len(to.sent))
	}

	typ, payload := decodeEvent(t, to.sent[0])
	if typ != ws.EventSaveUserInfo {
		t.Fatalf("first event = %q, want %q", typ, ws.EventSaveUserInfo)
	}
	var info ws.SaveUserInfoPayload
	if err := json.Unmarshal(payload, &info); err != nil {
		t.Fatal(err)
	}
	if info.Nickname != "Ana" || info.UserID != sess.UserID {
		t.Errorf("saveUserInfo payload = %+v", info)
	}

	typ, payload = decodeEvent(t, to.sent[1])
	if typ != ws.EventMessages {
		t.Fatalf("second event = %q, want %q", typ, ws.EventMessages)
	}
	var history []messages.Message
	if err := json.Unmarshal(payload, &history); err != nil {
		t.Fatal(err)
	}
	if len(history) != 1 || *history[0].Text != "old" {
		t.Errorf("history = %+v, want the stored message", history)
	}
}

func TestConnectKeepsSuppliedUserID(t *testing.T) {
	ctrl := newTestController(&fakeStore{}, &fakeFanout{})
	to := &fakeSender{}

	sess := ctrl.Connect(context.Background(), "c1", "Ana", "Ana-known", to)

	if sess.UserID != "Ana-known" {
		t.Errorf("user id = %q, want supplied id kept", sess.UserID)
	}
}

func TestConnectHistoryFailureStillSendsIdentity(t *testing.T) {
	ctrl := newTestController(&fakeStore{failing: true}, &fakeFanout{})
	to := &fakeSender{}

	ctrl.Connect(context.Background(), "c1", "Ana", "", to)

	if len(to.sent) != 1 {
		t.Fatalf("got %d direct events, want saveUserInfo only", len(to.sent))
	}
	if typ, _ := decodeEvent(t, to.sent[0]); typ != ws.EventSaveUserInfo {
		t.Errorf("event = %q, want %q", typ, ws.EventSaveUserInfo)
	}
}

func TestHandleMessageBroadcastsAfterPersist(t *testing.T) {
	store := &fakeStore{}
	fanout := &fakeFanout{}
	ctrl := newTestController(store, fanout)

	sess := ctrl.Connect(context.Background(), "c1", "Ana", "", &fakeSender{})
	ctrl.HandleUserConnected(sess, ws.UserConnectedData{Nickname: "Ana", UserID: sess.UserID})
	announced := sess.Color

	if err := ctrl.HandleMessage(context.Background(), sess, ws.MessageData{Text: strPtr("hi")}); err != nil {
		t.Fatalf("HandleMessage failed: %v", err)
	}

	if len(store.saved) != 1 {
		t.Fatalf("persisted %d messages, want 1", len(store.saved))
	}
	saved := store.saved[0]
	if saved.User != "Ana" || saved.Color != announced {
		t.Errorf("saved user=%q color=%q, want session snapshot (%q)", saved.User, saved.Color, announced)
	}

	if n := countEvents(t, fanout.payloads, ws.EventMessage); n != 1 {
		t.Fatalf("got %d message broadcasts, want exactly 1", n)
	}

	_, payload := decodeEvent(t, fanout.payloads[len(fanout.payloads)-1])
	var msg messages.Message
	if err := json.Unmarshal(payload, &msg); err != nil {
		t.Fatal(err)
	}
	if *msg.Text != "hi" || msg.User != "Ana" || msg.Color != announced {
		t.Errorf("broadcast message = %+v", msg)
	}
}

func TestHandleMessageWithoutAnnounceUsesDefaults(t *testing.T) {
	store := &fakeStore{}
	ctrl := newTestController(store, &fakeFanout{})

	sess := ctrl.Connect(context.Background(), "c1", "Ana", "", &fakeSender{})

	if err := ctrl.HandleMessage(context.Background(), sess, ws.MessageData{Text: strPtr("hi")}); err != nil {
		t.Fatalf("HandleMessage failed: %v", err)
	}

	saved := store.saved[0]
	if saved.User != messages.AnonymousUser {
		t.Errorf("user = %q, want %q", saved.User, messages.AnonymousUser)
	}
	if !colorRe.MatchString(saved.Color) {
		t.Errorf("color = %q, want generated default", saved.Color)
	}
}

func TestHandleMessageStoreFailureBroadcastsNothing(t *testing.T) {
	fanout := &fakeFanout{}
	ctrl := newTestController(&fakeStore{failing: true}, fanout)
	sess := &Session{ConnID: "c1", Nickname: "Ana", Color: "#AABBCC"}

	if err := ctrl.HandleMessage(context.Background(), sess, ws.MessageData{Text: strPtr("hi")}); err == nil {
		t.Fatal("HandleMessage succeeded against failing store")
	}

	if len(fanout.payloads) != 0 {
		t.Errorf("got %d broadcasts after failed append, want 0", len(fanout.payloads))
	}
}

func TestUserConnectedAnnouncement(t *testing.T) {
	fanout := &fakeFanout{}
	ctrl := newTestController(&fakeStore{}, fanout)
	sess := &Session{ConnID: "c1", UserID: "Ana-x"}

	ctrl.HandleUserConnected(sess, ws.UserConnectedData{Nickname: "Ana", UserID: "Ana-x"})

	if sess.Nickname != "Ana" || !colorRe.MatchString(sess.Color) {
		t.Errorf("session = %+v, want nickname and color set", sess)
	}

	if len(fanout.payloads) != 1 {
		t.Fatalf("got %d broadcasts, want 1", len(fanout.payloads))
	}
	typ, payload := decodeEvent(t, fanout.payloads[0])
	if typ != ws.EventUserConnected {
		t.Fatalf("event = %q, want %q", typ, ws.EventUserConnected)
	}
	var p ws.UserConnectedPayload
	if err := json.Unmarshal(payload, &p); err != nil {
		t.Fatal(err)
	}
	if p.Nickname != "Ana" || p.Color != sess.Color {
		t.Errorf("payload = %+v", p)
	}
}

func TestDisconnectAnnouncedExactlyOnce(t *testing.T) {
	fanout := &fakeFanout{}
	ctrl := newTestController(&fakeStore{}, fanout)
	sess := &Session{ConnID: "c1", UserID: "Ana-x"}

	ctrl.HandleUserConnected(sess, ws.UserConnectedData{Nickname: "Ana", UserID: "Ana-x"})

	ctrl.Disconnect(sess)
	ctrl.Disconnect(sess) // repeated disconnect signal

	if n := countEvents(t, fanout.payloads, ws.EventUserDisconnected); n != 1 {
		t.Fatalf("got %d userDisconnected broadcasts, want exactly 1", n)
	}

	for _, p := range fanout.payloads {
		typ, payload := decodeEvent(t, p)
		if typ != ws.EventUserDisconnected {
			continue
		}
		var dp ws.UserDisconnectedPayload
		if err := json.Unmarshal(payload, &dp); err != nil {
			t.Fatal(err)
		}
		if dp.Nickname != "Ana" {
			t.Errorf("payload = %+v", dp)
		}
	}
}

func TestDisconnectSilentWithoutAnnouncement(t *testing.T) {
	fanout := &fakeFanout{}
	ctrl := newTestController(&fakeStore{}, fanout)

	sess := ctrl.Connect(context.Background(), "c1", "Ana", "", &fakeSender{})
	ctrl.Disconnect(sess)

	if n := countEvents(t, fanout.payloads, ws.EventUserDisconnected); n != 0 {
		t.Errorf("got %d userDisconnected broadcasts for silent connection, want 0", n)
	}
}

func TestIngestAttachment(t *testing.T) {
	store := &fakeStore{}
	fanout := &fakeFanout{}
	ctrl := newTestController(store, fanout)

	saved, err := ctrl.IngestAttachment(context.Background(), "Bob", "/files/1693526400000.ogg")
	if err != nil {
		t.Fatalf("IngestAttachment failed: %v", err)
	}

	if saved.Text != nil {
		t.Errorf("Text = %v, want nil", saved.Text)
	}
	if saved.File == nil || *saved.File != "/files/1693526400000.ogg" {
		t.Errorf("File = %v", saved.File)
	}
	if saved.User != "Bob" {
		t.Errorf("User = %q, want %q", saved.User, "Bob")
	}
	if !colorRe.MatchString(saved.Color) {
		t.Errorf("Color = %q, want generated default", saved.Color)
	}

	if n := countEvents(t, fanout.payloads, ws.EventMessage); n != 1 {
		t.Errorf("got %d message broadcasts, want 1", n)
	}
}

func TestIngestAttachmentStoreFailure(t *testing.T) {
	fanout := &fakeFanout{}
	ctrl := newTestController(&fakeStore{failing: true}, fanout)

	if _, err := ctrl.IngestAttachment(context.Background(), "Bob", "/files/x.ogg"); err == nil {
		t.Fatal("IngestAttachment succeeded against failing store")
	}
	if len(fanout.payloads) != 0 {
		t.Errorf("got %d broadcasts after failed append, want 0", len(fanout.payloads))
	}
}

func TestIngestAttachmentSessionColorPolicy(t *testing.T) {
	store := &fakeStore{}
	registry := presence.NewRegistry()
	log := slog.New(slog.NewTextHandler(io.Discard, nil))
	ctrl := NewController(store, registry, &fakeFanout{}, log, true)

	sess := &Session{ConnID: "c1", UserID: "Bob-x"}
	ctrl.HandleUserConnected(sess, ws.UserConnectedData{Nickname: "Bob", UserID: "Bob-x"})

	saved, err := ctrl.IngestAttachment(context.Background(), "Bob", "/files/x.ogg")
	if err != nil {
		t.Fatalf("IngestAttachment failed: %v", err)
	}

	if saved.Color != sess.Color {
		t.Errorf("color = %q, want announced session color %q", saved.Color, sess.Color)
	}
}
