package wsserver

import (
	"encoding/json"
	"net"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/require"

	"bigtwo/internal/bus"
	"bigtwo/internal/events"
	"bigtwo/internal/identity"
	"bigtwo/internal/rooms"
	"bigtwo/internal/session"
)

type fixedToken struct{ n int }

func (f *fixedToken) GenerateToken() string {
	f.n++
	return "room" + strings.Repeat("z", f.n)
}

type stubNames struct{}

func (stubNames) GenerateName() string { return "Test Player" }

func newTestSetup(t *testing.T) (*Server, *bus.Bus, *rooms.Coordinator, *identity.Registry, *session.Manager) {
	t.Helper()
	return newTestSetupWithDeadline(t, 200*time.Millisecond)
}

func newTestSetupWithDeadline(t *testing.T, outboundDeadline time.Duration) (*Server, *bus.Bus, *rooms.Coordinator, *identity.Registry, *session.Manager) {
	t.Helper()
	b := bus.New(nil)
	coordinator := rooms.NewCoordinator(b, &fixedToken{}, nil)
	identities := identity.NewRegistry(stubNames{})
	manager := session.NewManager("secret", time.Hour, session.NewMemoryStore())
	srv := New(b, coordinator, manager, identities, outboundDeadline, nil)
	return srv, b, coordinator, identities, manager
}

func dialWithToken(t *testing.T, wsURL, token string) *websocket.Conn {
	t.Helper()
	header := http.Header{}
	header.Set("Sec-WebSocket-Protocol", "bearer, "+token)
	conn, resp, err := websocket.DefaultDialer.Dial(wsURL, header)
	require.NoError(t, err)
	if resp != nil {
		resp.Body.Close()
	}
	return conn
}

func readEnvelope(t *testing.T, conn *websocket.Conn) Envelope {
	t.Helper()
	_ = conn.SetReadDeadline(time.Now().Add(2 * time.Second))
	var env Envelope
	require.NoError(t, conn.ReadJSON(&env))
	return env
}

// TestUpgradeRejectsUnseatedPlayer covers spec.md §4.8: only a room member
// may open the socket.
func TestUpgradeRejectsUnseatedPlayer(t *testing.T) {
	srv, _, coordinator, identities, manager := newTestSetup(t)
	room := coordinator.Create("host", "Host")
	srv.Egress(room.ID)

	outsider := identities.NewHuman()
	_, _, err := manager.Issue(t.Context(), outsider.ID, outsider.Name)
	require.NoError(t, err)
	_, token, err := manager.Issue(t.Context(), outsider.ID, outsider.Name)
	require.NoError(t, err)

	ts := httptest.NewServer(srv.Router())
	defer ts.Close()
	wsURL := "ws" + strings.TrimPrefix(ts.URL, "http") + "/" + room.ID

	header := http.Header{}
	header.Set("Sec-WebSocket-Protocol", "bearer, "+token)
	_, resp, err := websocket.DefaultDialer.Dial(wsURL, header)
	require.Error(t, err)
	require.NotNil(t, resp)
	require.Equal(t, http.StatusForbidden, resp.StatusCode)
}

// TestUpgradeRejectsUnknownRoom covers spec.md §6: an unmatched room id path
// segment refuses the upgrade with 404.
func TestUpgradeRejectsUnknownRoom(t *testing.T) {
	srv, _, _, _, _ := newTestSetup(t)
	ts := httptest.NewServer(srv.Router())
	defer ts.Close()
	wsURL := "ws" + strings.TrimPrefix(ts.URL, "http") + "/does-not-exist"

	_, resp, err := websocket.DefaultDialer.Dial(wsURL, nil)
	require.Error(t, err)
	require.NotNil(t, resp)
	require.Equal(t, http.StatusNotFound, resp.StatusCode)
}

// TestConnectBroadcastsPlayersList verifies every connected client receives
// a fresh PLAYERS_LIST when a new seat comes online.
func TestConnectBroadcastsPlayersList(t *testing.T) {
	srv, _, coordinator, identities, manager := newTestSetup(t)
	host := identities.NewHuman()
	room := coordinator.Create(host.ID, host.Name)
	srv.Egress(room.ID)

	_, hostToken, err := manager.Issue(t.Context(), host.ID, host.Name)
	require.NoError(t, err)

	guest := identities.NewHuman()
	require.NoError(t, coordinator.Join(room.ID, guest.ID, guest.Name, identity.Human))
	_, guestToken, err := manager.Issue(t.Context(), guest.ID, guest.Name)
	require.NoError(t, err)

	ts := httptest.NewServer(srv.Router())
	defer ts.Close()
	wsURL := "ws" + strings.TrimPrefix(ts.URL, "http") + "/" + room.ID

	hostConn := dialWithToken(t, wsURL, hostToken)
	defer hostConn.Close()
	first := readEnvelope(t, hostConn) // PLAYERS_LIST from the host's own connect
	require.Equal(t, wirePlayersList, first.Type)

	guestConn := dialWithToken(t, wsURL, guestToken)
	defer guestConn.Close()

	// Both clients see a fresh PLAYERS_LIST once the guest connects.
	second := readEnvelope(t, hostConn)
	require.Equal(t, wirePlayersList, second.Type)
	var list []playerView
	require.NoError(t, json.Unmarshal(second.Payload, &list))
	require.Len(t, list, 2)
}

// TestMoveFrameReachesBus verifies a full ingress round trip: a MOVE frame
// parses into a TryPlayMove intent event on the room's bus. Wiring a real
// gamesub.Subscriber to answer it is exercised at the process level in
// cmd/bigtwoserver, not here.
func TestMoveFrameReachesBus(t *testing.T) {
	srv, b, coordinator, identities, manager := newTestSetup(t)
	host := identities.NewHuman()
	room := coordinator.Create(host.ID, host.Name)
	srv.Egress(room.ID)
	observer := b.Subscribe(room.ID)

	_, token, err := manager.Issue(t.Context(), host.ID, host.Name)
	require.NoError(t, err)

	ts := httptest.NewServer(srv.Router())
	defer ts.Close()
	wsURL := "ws" + strings.TrimPrefix(ts.URL, "http") + "/" + room.ID
	conn := dialWithToken(t, wsURL, token)
	defer conn.Close()
	readEnvelope(t, conn) // PLAYERS_LIST on connect
	connected := <-observer
	require.Equal(t, "PlayerConnected", string(connected.Kind))

	require.NoError(t, conn.WriteJSON(map[string]any{"type": frameMove, "payload": map[string]any{"cards": []string{"3D"}}}))

	select {
	case ev := <-observer:
		require.Equal(t, "TryPlayMove", string(ev.Kind))
	case <-time.After(2 * time.Second):
		t.Fatal("expected the intent event to reach the bus")
	}
}

// TestChatFrameBroadcastsToOtherSeat covers spec.md §4.7 line 126: CHAT
// broadcasts to every connected seat, including seats other than the
// sender.
func TestChatFrameBroadcastsToOtherSeat(t *testing.T) {
	srv, _, coordinator, identities, manager := newTestSetup(t)
	host := identities.NewHuman()
	room := coordinator.Create(host.ID, host.Name)
	srv.Egress(room.ID)

	_, hostToken, err := manager.Issue(t.Context(), host.ID, host.Name)
	require.NoError(t, err)

	guest := identities.NewHuman()
	require.NoError(t, coordinator.Join(room.ID, guest.ID, guest.Name, identity.Human))
	_, guestToken, err := manager.Issue(t.Context(), guest.ID, guest.Name)
	require.NoError(t, err)

	ts := httptest.NewServer(srv.Router())
	defer ts.Close()
	wsURL := "ws" + strings.TrimPrefix(ts.URL, "http") + "/" + room.ID

	hostConn := dialWithToken(t, wsURL, hostToken)
	defer hostConn.Close()
	readEnvelope(t, hostConn) // PLAYERS_LIST from the host's own connect

	guestConn := dialWithToken(t, wsURL, guestToken)
	defer guestConn.Close()
	readEnvelope(t, guestConn) // PLAYERS_LIST from the guest's own connect
	readEnvelope(t, hostConn)  // PLAYERS_LIST refreshed by the guest's connect

	require.NoError(t, hostConn.WriteJSON(map[string]any{"type": frameChat, "payload": map[string]any{"content": "gg"}}))

	env := readEnvelope(t, guestConn)
	require.Equal(t, wireChat, env.Type)
	var payload struct {
		SeatID string `json:"seat_id"`
		Text   string `json:"text"`
	}
	require.NoError(t, json.Unmarshal(env.Payload, &payload))
	require.Equal(t, host.ID, payload.SeatID)
	require.Equal(t, "gg", payload.Text)
}

// TestReconnectPublishesUnicastRoomSnapshot covers spec.md §4.7 line 126:
// a seat reconnecting after a disconnect gets a targeted ROOM_SNAPSHOT that
// no other seat receives.
func TestReconnectPublishesUnicastRoomSnapshot(t *testing.T) {
	srv, _, coordinator, identities, manager := newTestSetup(t)
	host := identities.NewHuman()
	room := coordinator.Create(host.ID, host.Name)
	srv.Egress(room.ID)

	guest := identities.NewHuman()
	require.NoError(t, coordinator.Join(room.ID, guest.ID, guest.Name, identity.Human))

	_, hostToken, err := manager.Issue(t.Context(), host.ID, host.Name)
	require.NoError(t, err)
	_, guestToken, err := manager.Issue(t.Context(), guest.ID, guest.Name)
	require.NoError(t, err)

	ts := httptest.NewServer(srv.Router())
	defer ts.Close()
	wsURL := "ws" + strings.TrimPrefix(ts.URL, "http") + "/" + room.ID

	hostConn := dialWithToken(t, wsURL, hostToken)
	readEnvelope(t, hostConn) // PLAYERS_LIST from the host's own connect

	guestConn := dialWithToken(t, wsURL, guestToken)
	readEnvelope(t, guestConn) // PLAYERS_LIST from the guest's own connect
	readEnvelope(t, hostConn)  // PLAYERS_LIST refreshed by the guest's connect

	guestConn.Close()
	readEnvelope(t, hostConn) // PLAYERS_LIST refreshed by the guest's disconnect
	time.Sleep(50 * time.Millisecond)

	reconnected := dialWithToken(t, wsURL, guestToken)
	defer reconnected.Close()

	// The reconnecting seat gets both the broadcast PLAYERS_LIST every seat
	// gets on connect and, published right after it, a seat-only
	// ROOM_SNAPSHOT.
	first := readEnvelope(t, reconnected)
	require.Equal(t, wirePlayersList, first.Type)
	second := readEnvelope(t, reconnected)
	require.Equal(t, wireRoomSnapshot, second.Type)
	var snapshot struct {
		Room struct {
			ID    string `json:"id"`
			Seats []struct {
				PlayerID string `json:"player_id"`
			} `json:"seats"`
		} `json:"room"`
	}
	require.NoError(t, json.Unmarshal(second.Payload, &snapshot))
	require.Equal(t, room.ID, snapshot.Room.ID)
	require.Len(t, snapshot.Room.Seats, 2)

	// The host, who never disconnected, only ever sees PLAYERS_LIST — no
	// ROOM_SNAPSHOT leaks to a seat that didn't reconnect.
	hostSees := readEnvelope(t, hostConn)
	require.Equal(t, wirePlayersList, hostSees.Type)
}

// TestSlowClientForceClosedAfterDeadline covers spec.md §8 scenario 6: once
// a seat's outbound queue is frozen and enough MOVE_PLAYED broadcasts are
// emitted to fill it, that seat's connection is force-closed after the
// outbound deadline while the other seat keeps receiving.
func TestSlowClientForceClosedAfterDeadline(t *testing.T) {
	srv, b, coordinator, identities, manager := newTestSetupWithDeadline(t, 150*time.Millisecond)
	host := identities.NewHuman()
	room := coordinator.Create(host.ID, host.Name)
	guest := identities.NewHuman()
	require.NoError(t, coordinator.Join(room.ID, guest.ID, guest.Name, identity.Human))
	srv.Egress(room.ID)

	_, hostToken, err := manager.Issue(t.Context(), host.ID, host.Name)
	require.NoError(t, err)
	_, guestToken, err := manager.Issue(t.Context(), guest.ID, guest.Name)
	require.NoError(t, err)

	ts := httptest.NewServer(srv.Router())
	defer ts.Close()
	wsURL := "ws" + strings.TrimPrefix(ts.URL, "http") + "/" + room.ID

	hostConn := dialWithToken(t, wsURL, hostToken)
	defer hostConn.Close()
	readEnvelope(t, hostConn) // PLAYERS_LIST from the host's own connect

	guestConn := dialWithToken(t, wsURL, guestToken)
	readEnvelope(t, guestConn) // PLAYERS_LIST from the guest's own connect
	readEnvelope(t, hostConn)  // PLAYERS_LIST refreshed by the guest's connect

	// Freeze seat guest's outbound queue: shrink its receive window to the
	// kernel floor and stop reading entirely, so the server's write pump
	// stalls on the raw socket write after only a handful of messages.
	tcpConn, ok := guestConn.UnderlyingConn().(*net.TCPConn)
	require.True(t, ok)
	require.NoError(t, tcpConn.SetReadBuffer(1))

	guestClient, ok := srv.hub.get(room.ID, guest.ID)
	require.True(t, ok)

	// Keep draining the host so it can prove it stays alive throughout.
	hostEnvelopes := make(chan Envelope, 512)
	go func() {
		for {
			var env Envelope
			if err := hostConn.ReadJSON(&env); err != nil {
				close(hostEnvelopes)
				return
			}
			hostEnvelopes <- env
		}
	}()

	go func() {
		// Mirrors spec.md §8 scenario 6's "emit 200 MOVE_PLAYED events",
		// scaled past this server's 256-deep outbound queue so the guest's
		// queue overflows regardless of exactly when the frozen socket
		// write stalls.
		for i := 0; i < 300; i++ {
			b.Publish(room.ID, events.Broadcast(events.KindMovePlayed, events.MovePlayedPayload{
				SeatID:       host.ID,
				Hand:         events.HandView{},
				NewGameState: events.GameSnapshot{},
			}))
		}
	}()

	select {
	case <-guestClient.closed:
	case <-time.After(3 * time.Second):
		t.Fatal("expected the frozen guest connection to be force-closed after the outbound deadline")
	}

	b.Publish(room.ID, events.Broadcast(events.KindMovePlayed, events.MovePlayedPayload{
		SeatID:       "final-check",
		Hand:         events.HandView{},
		NewGameState: events.GameSnapshot{},
	}))

	deadline := time.After(3 * time.Second)
	for {
		select {
		case env, ok := <-hostEnvelopes:
			require.True(t, ok, "host connection closed unexpectedly")
			if env.Type != wireMovePlayed {
				continue
			}
			var payload struct {
				SeatID string `json:"seat_id"`
			}
			require.NoError(t, json.Unmarshal(env.Payload, &payload))
			if payload.SeatID == "final-check" {
				return
			}
		case <-deadline:
			t.Fatal("host stopped receiving broadcasts after the guest was force-closed")
		}
	}
}
