/*
Copyright © 2026 Seednode <seednode@seedno.de>
*/

package tower

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func TestGateway_Join(t *testing.T) {
	gw, reg, _ := newTestGateway(t)
	a, b, c := testClient("a"), testClient("b"), testClient("c")

	gw.Handle(a, ClientMessage{Type: "join", Room: "ROOM01"})
	assert.Equal(t, []any{
		SlotAssignedMessage{Type: "slot_assigned", Slot: First},
		CurrentTurnMessage{Type: "current_turn", Turn: First},
	}, drain(a))
	assert.Equal(t, 1, reg.Len())

	gw.Handle(b, ClientMessage{Type: "join", Room: "ROOM01"})
	assert.Equal(t, []any{
		SlotAssignedMessage{Type: "slot_assigned", Slot: Second},
		CurrentTurnMessage{Type: "current_turn", Turn: First},
	}, drain(b))

	gw.Handle(c, ClientMessage{Type: "join", Room: "ROOM01"})
	assert.Equal(t, []any{
		SlotAssignedMessage{Type: "slot_assigned", Slot: Spectator},
		CurrentTurnMessage{Type: "current_turn", Turn: First},
	}, drain(c))

	// re-join is idempotent
	gw.Handle(a, ClientMessage{Type: "join", Room: "ROOM01"})
	assert.Equal(t, []any{
		SlotAssignedMessage{Type: "slot_assigned", Slot: First},
		CurrentTurnMessage{Type: "current_turn", Turn: First},
	}, drain(a))

	room, ok := reg.Lookup("ROOM01")
	require.True(t, ok)
	assert.Equal(t, 3, room.Attached())
}

func TestGateway_JoinSecondRoomIgnored(t *testing.T) {
	gw, reg, _ := newTestGateway(t)
	a := testClient("a")

	gw.Handle(a, ClientMessage{Type: "join", Room: "ROOM01"})
	drain(a)

	gw.Handle(a, ClientMessage{Type: "join", Room: "ROOM02"})
	assert.Empty(t, drain(a))

	_, ok := reg.Lookup("ROOM02")
	assert.False(t, ok)
}

func TestGateway_JoinAfterExpiry(t *testing.T) {
	gw, reg, _ := newTestGateway(t)
	a := testClient("a")

	gw.Handle(a, ClientMessage{Type: "join", Room: "ROOM01"})
	drain(a)
	old, _ := reg.Lookup("ROOM01")

	require.True(t, reg.Delete("ROOM01"))

	gw.Handle(a, ClientMessage{Type: "join", Room: "ROOM01"})
	assert.Len(t, drain(a), 2)

	fresh, ok := reg.Lookup("ROOM01")
	require.True(t, ok)
	assert.NotSame(t, old, fresh)
	assert.Equal(t, 0, old.Attached())
	assert.Equal(t, 1, fresh.Attached())
}

func TestGateway_ActScenario(t *testing.T) {
	gw, _, metrics := newTestGateway(t)
	a, b, c := testClient("a"), testClient("b"), testClient("c")

	for _, cl := range []*Client{a, b, c} {
		gw.Handle(cl, ClientMessage{Type: "join", Room: "ROOM01"})
		drain(cl)
	}

	gw.Handle(a, ClientMessage{Type: "act", Room: "ROOM01", Block: intPtr(7)})
	want := []any{ActedMessage{Type: "acted", Block: 7, Turn: Second}}
	assert.Equal(t, want, drain(a))
	assert.Equal(t, want, drain(b))
	assert.Equal(t, want, drain(c), "spectators observe the room")

	gw.Handle(b, ClientMessage{Type: "act", Room: "ROOM01", Block: intPtr(3), Content: "q"})
	want = []any{ActedMessage{Type: "acted", Block: 3, Turn: First, Content: "q"}}
	assert.Equal(t, want, drain(a))
	assert.Equal(t, want, drain(b))
	assert.Equal(t, want, drain(c))

	gw.Handle(b, ClientMessage{Type: "act", Room: "ROOM01", Block: intPtr(4)})
	assert.Equal(t, []any{SimpleMessage{Type: "not_your_turn", Message: "It is not your turn."}}, drain(b))
	assert.Empty(t, drain(a))
	assert.Empty(t, drain(c))

	gw.Handle(c, ClientMessage{Type: "act", Room: "ROOM01", Block: intPtr(5)})
	assert.Len(t, drain(c), 1)
	assert.Empty(t, drain(a))
	assert.Empty(t, drain(b))

	assert.Equal(t, float64(2), testutil.ToFloat64(metrics.actions.WithLabelValues("accepted")))
	assert.Equal(t, float64(2), testutil.ToFloat64(metrics.actions.WithLabelValues("rejected")))
}

func TestGateway_ActUnknownRoomIsNoop(t *testing.T) {
	gw, reg, _ := newTestGateway(t)
	a := testClient("a")

	gw.Handle(a, ClientMessage{Type: "act", Room: "GHOST1", Block: intPtr(1)})

	assert.Empty(t, drain(a))
	assert.Equal(t, 0, reg.Len(), "act must not create rooms")
}

func TestGateway_ShareIsUngated(t *testing.T) {
	gw, reg, metrics := newTestGateway(t)
	a, b := testClient("a"), testClient("b")

	for _, cl := range []*Client{a, b} {
		gw.Handle(cl, ClientMessage{Type: "join", Room: "ROOM01"})
		drain(cl)
	}

	room, _ := reg.Lookup("ROOM01")

	want := []any{
		ContentSharedMessage{Type: "content_shared", Content: "pet's name?", ForSlot: Second},
		ContentSharedMessage{Type: "content_shared", Content: "pet's name?", ForSlot: First},
	}

	// slot 1 shares on slot 0's turn
	gw.Handle(b, ClientMessage{Type: "share", Room: "ROOM01", Content: "pet's name?"})
	assert.Equal(t, want, drain(a))
	assert.Equal(t, want, drain(b))
	assert.Equal(t, First, room.Turn())

	// a connection outside the room may share too
	outsider := testClient("x")
	gw.Handle(outsider, ClientMessage{Type: "share", Room: "ROOM01", Content: "pet's name?"})
	assert.Equal(t, want, drain(a))
	assert.Empty(t, drain(outsider))

	assert.Equal(t, float64(2), testutil.ToFloat64(metrics.contentShared))
}

func TestGateway_Chat(t *testing.T) {
	gw, _, _ := newTestGateway(t)
	a, b := testClient("a"), testClient("b")

	for _, cl := range []*Client{a, b} {
		gw.Handle(cl, ClientMessage{Type: "join", Room: "ROOM01"})
		drain(cl)
	}

	gw.Handle(a, ClientMessage{Type: "chat", Room: "ROOM01", Sender: "ana", Text: "hi"})
	assert.Empty(t, drain(a))
	assert.Equal(t, []any{ChatMessage{Type: "chat", Sender: "ana", Text: "hi"}}, drain(b))

	outsider := testClient("x")
	gw.Handle(outsider, ClientMessage{Type: "chat", Room: "ROOM01", Sender: "eve", Text: "spam"})
	assert.Empty(t, drain(a))
	assert.Empty(t, drain(b))
}

func TestGateway_DropsMalformed(t *testing.T) {
	tests := []struct {
		name string
		msg  ClientMessage
	}{
		{name: "missing room", msg: ClientMessage{Type: "join"}},
		{name: "room with spaces", msg: ClientMessage{Type: "join", Room: "RO OM"}},
		{name: "oversized room", msg: ClientMessage{Type: "join", Room: strings.Repeat("A", maxCodeLength+1)}},
		{name: "unknown type", msg: ClientMessage{Type: "changeTurn", Room: "ROOM01"}},
		{name: "act without block", msg: ClientMessage{Type: "act", Room: "ROOM01"}},
		{name: "empty share", msg: ClientMessage{Type: "share", Room: "ROOM01"}},
		{name: "oversized share", msg: ClientMessage{Type: "share", Room: "ROOM01", Content: strings.Repeat("x", maxContentLength+1)}},
		{name: "empty chat", msg: ClientMessage{Type: "chat", Room: "ROOM01"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			gw, reg, metrics := newTestGateway(t)
			a, b := testClient("a"), testClient("b")
			for _, cl := range []*Client{a, b} {
				gw.Handle(cl, ClientMessage{Type: "join", Room: "ROOM01"})
				drain(cl)
			}

			gw.Handle(a, tt.msg)

			assert.Empty(t, drain(a))
			assert.Empty(t, drain(b))
			assert.Equal(t, 1, reg.Len())
			assert.Equal(t, float64(1), testutil.ToFloat64(metrics.droppedFrames))

			room, _ := reg.Lookup("ROOM01")
			assert.Equal(t, First, room.Turn())
		})
	}
}

type frame struct {
	Type    string `json:"type"`
	Slot    *int   `json:"slot"`
	Turn    *int   `json:"turn"`
	Block   *int   `json:"block"`
	Content string `json:"content"`
	ForSlot *int   `json:"for_slot"`
	Message string `json:"message"`
}

func dial(t *testing.T, url string) *websocket.Conn {
	t.Helper()

	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	require.NoError(t, err)
	t.Cleanup(func() { _ = conn.Close() })

	return conn
}

func readFrame(t *testing.T, conn *websocket.Conn) frame {
	t.Helper()

	require.NoError(t, conn.SetReadDeadline(time.Now().Add(2*time.Second)))

	var f frame
	require.NoError(t, conn.ReadJSON(&f))

	return f
}

func TestGateway_ServeWS(t *testing.T) {
	metrics := NewMetrics(prometheus.NewRegistry())
	reg := NewRegistry(time.Hour, metrics, zap.NewNop())
	gw := NewGateway(reg, metrics, zap.NewNop(), 16)

	srv := httptest.NewServer(http.HandlerFunc(gw.ServeWS))
	defer srv.Close()

	url := "ws" + strings.TrimPrefix(srv.URL, "http")

	a := dial(t, url)
	require.NoError(t, a.WriteJSON(ClientMessage{Type: "join", Room: "ROOM01"}))

	f := readFrame(t, a)
	assert.Equal(t, "slot_assigned", f.Type)
	require.NotNil(t, f.Slot)
	assert.Equal(t, 0, *f.Slot)

	f = readFrame(t, a)
	assert.Equal(t, "current_turn", f.Type)
	require.NotNil(t, f.Turn)
	assert.Equal(t, 0, *f.Turn)

	b := dial(t, url)
	require.NoError(t, b.WriteJSON(ClientMessage{Type: "join", Room: "ROOM01"}))

	f = readFrame(t, b)
	require.NotNil(t, f.Slot)
	assert.Equal(t, 1, *f.Slot)
	readFrame(t, b)

	// malformed frames are dropped without closing the connection
	require.NoError(t, a.WriteMessage(websocket.TextMessage, []byte("{not json")))

	require.NoError(t, a.WriteJSON(ClientMessage{Type: "act", Room: "ROOM01", Block: intPtr(7)}))
	for _, conn := range []*websocket.Conn{a, b} {
		f = readFrame(t, conn)
		assert.Equal(t, "acted", f.Type)
		require.NotNil(t, f.Block)
		assert.Equal(t, 7, *f.Block)
		require.NotNil(t, f.Turn)
		assert.Equal(t, 1, *f.Turn)
	}

	require.NoError(t, a.WriteJSON(ClientMessage{Type: "act", Room: "ROOM01", Block: intPtr(8)}))
	f = readFrame(t, a)
	assert.Equal(t, "not_your_turn", f.Type)

	require.NoError(t, b.WriteJSON(ClientMessage{Type: "share", Room: "ROOM01", Content: "q"}))
	for _, conn := range []*websocket.Conn{a, b} {
		first, second := readFrame(t, conn), readFrame(t, conn)
		assert.Equal(t, "content_shared", first.Type)
		assert.Equal(t, "q", first.Content)
		require.NotNil(t, first.ForSlot)
		require.NotNil(t, second.ForSlot)
		assert.Equal(t, 1, *first.ForSlot)
		assert.Equal(t, 0, *second.ForSlot)
	}

	require.NoError(t, b.WriteJSON(ClientMessage{Type: "act", Room: "ROOM01", Block: intPtr(2)}))
	for _, conn := range []*websocket.Conn{a, b} {
		f = readFrame(t, conn)
		assert.Equal(t, "acted", f.Type)
		assert.Equal(t, 0, *f.Turn)
	}

	// closing a detaches it; the room keeps running for b
	require.NoError(t, a.Close())
	room, ok := reg.Lookup("ROOM01")
	require.True(t, ok)
	assert.Eventually(t, func() bool {
		return room.Attached() == 1
	}, 2*time.Second, 10*time.Millisecond)
}
