package realtime

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/goccy/go-json"
	"github.com/gorilla/websocket"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestClient(h *Hub, who Identity) *Client {
	c := NewClient(h, nil, who)
	h.Add(c)
	return c
}

// flush delivers every queued event synchronously.
func flush(h *Hub) {
	for {
		select {
		case env := <-h.broadcast:
			h.deliver(env)
		default:
			return
		}
	}
}

func drain(c *Client) []Message {
	var out []Message
	for {
		select {
		case m, ok := <-c.send:
			if !ok {
				return out
			}
			out = append(out, m)
		default:
			return out
		}
	}
}

func types(msgs []Message) []string {
	out := make([]string, 0, len(msgs))
	for _, m := range msgs {
		out = append(out, m.Type)
	}
	return out
}

func TestRoomsReceiveOnlyTheirEvents(t *testing.T) {
	h := NewHub(zerolog.Nop())
	dash := newTestClient(h, Identity{MemberID: "a"})
	viewer := newTestClient(h, Identity{MemberID: "b"})
	other := newTestClient(h, Identity{MemberID: "c"})
	h.Join(dash, RoomDashboard)
	h.Join(viewer, "ticket_E1")
	h.Join(other, "ticket_E2")

	h.StatusChanged("E1", Event{"ticket_id": "E1", "new_status": "Closed"})
	flush(h)

	assert.Equal(t, []string{"ticket_status_changed", "ticket_updated"}, types(drain(dash)))
	assert.Equal(t, []string{"ticket_status_changed"}, types(drain(viewer)))
	assert.Empty(t, drain(other))
}

func TestForwardAndTakeoverTargetUserRooms(t *testing.T) {
	h := NewHub(zerolog.Nop())
	target := newTestClient(h, Identity{MemberID: "m2"})
	prev := newTestClient(h, Identity{MemberID: "m3"})
	h.Join(target, "user_m2")
	h.Join(prev, "user_m3")

	h.TicketForwarded("E1", Event{"forwarded_to_id": "m2"})
	h.TicketTakenOver("E1", Event{"previous_assignee_id": "m3"})
	flush(h)

	assert.Equal(t, []string{"ticket_forwarded_to_you"}, types(drain(target)))
	assert.Equal(t, []string{"ticket_reassigned"}, types(drain(prev)))
}

func TestTechDirectorReferral(t *testing.T) {
	h := NewHub(zerolog.Nop())
	td := newTestClient(h, Identity{MemberID: "td", Role: "Technical Director"})
	dash := newTestClient(h, Identity{MemberID: "a"})
	td.handle(inbound{Type: "join_role_room"})
	td.handle(inbound{Type: "join_user_room"})
	h.Join(dash, RoomDashboard)
	flush(h)
	drain(td)

	h.TechDirectorReferral("E1", Event{"ticket_id": "E1", "tech_director_id": "td"})
	flush(h)

	assert.Equal(t, []string{"ticket_referred_to_director", "ticket_referred_to_you"}, types(drain(td)))
	msgs := drain(dash)
	require.Len(t, msgs, 1)
	assert.Equal(t, "ticket_forwarded", msgs[0].Type)
	assert.Equal(t, true, msgs[0].Data.(Event)["is_tech_director_referral"])
}

func TestTypingExcludesSender(t *testing.T) {
	h := NewHub(zerolog.Nop())
	a := newTestClient(h, Identity{MemberID: "a"})
	b := newTestClient(h, Identity{MemberID: "b"})
	a.handle(inbound{Type: "join_ticket", Data: map[string]any{"ticket_id": "E1"}})
	b.handle(inbound{Type: "join_ticket", Data: map[string]any{"ticket_id": "E1"}})
	flush(h)
	drain(a)
	drain(b)
	require.Equal(t, 2, h.RoomSize("ticket_E1"))

	a.handle(inbound{Type: "typing", Data: map[string]any{"ticket_id": "E1", "user_name": "Alice"}})
	flush(h)

	assert.Empty(t, drain(a))
	assert.Equal(t, []string{"typing"}, types(drain(b)))

	a.handle(inbound{Type: "leave_ticket", Data: map[string]any{"ticket_id": "E1"}})
	assert.Equal(t, 1, h.RoomSize("ticket_E1"))
}

func TestSlowClientIsDropped(t *testing.T) {
	h := NewHub(zerolog.Nop())
	c := newTestClient(h, Identity{MemberID: "slow"})
	h.Join(c, RoomDashboard)
	for i := 0; i < cap(c.send); i++ {
		c.send <- Message{Type: "filler"}
	}

	h.NewTicket(Event{"ticket_id": "E1"})
	flush(h)

	assert.Equal(t, 0, h.ClientCount())
	assert.Equal(t, 0, h.RoomSize(RoomDashboard))
	h.Remove(c)
}

func TestRunWithContextClosesClients(t *testing.T) {
	h := NewHub(zerolog.Nop())
	c := newTestClient(h, Identity{MemberID: "a"})

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- h.RunWithContext(ctx) }()
	cancel()

	select {
	case err := <-done:
		assert.ErrorIs(t, err, context.Canceled)
	case <-time.After(2 * time.Second):
		t.Fatal("hub did not stop")
	}
	_, ok := <-c.send
	assert.False(t, ok, "send channel should be closed")
}

func TestWebsocketRoundTrip(t *testing.T) {
	h := NewHub(zerolog.Nop())
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go func() { _ = h.RunWithContext(ctx) }()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		conn, err := Upgrader.Upgrade(w, r, nil)
		if err != nil {
			return
		}
		Serve(h, conn, Identity{MemberID: "m1", Role: "Administrator"})
	}))
	defer srv.Close()

	conn, _, err := websocket.DefaultDialer.Dial("ws"+strings.TrimPrefix(srv.URL, "http"), nil)
	require.NoError(t, err)
	defer conn.Close()

	read := func() Message {
		require.NoError(t, conn.SetReadDeadline(time.Now().Add(2*time.Second)))
		_, raw, err := conn.ReadMessage()
		require.NoError(t, err)
		var m Message
		require.NoError(t, json.Unmarshal(raw, &m))
		return m
	}

	assert.Equal(t, "connected", read().Type)
	require.NoError(t, conn.WriteMessage(websocket.TextMessage, []byte(`{"type":"ping"}`)))
	assert.Equal(t, "pong", read().Type)
	require.NoError(t, conn.WriteMessage(websocket.TextMessage, []byte(`{"type":"join_dashboard"}`)))
	assert.Equal(t, "joined_dashboard", read().Type)

	h.NewTicket(Event{"ticket_id": "E9"})
	m := read()
	assert.Equal(t, "new_ticket", m.Type)
	assert.Equal(t, "E9", m.Data.(map[string]any)["ticket_id"])
}
