package tetris

import (
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/progate-hackathon-strawberry-flavor/vibetris-backend/internal/config"
)

func newTestManager(t *testing.T) *SessionManager {
	t.Helper()
	sm := NewSessionManager(ManagerOptions{
		TickInterval:      5 * time.Millisecond,
		BroadcastInterval: 5 * time.Millisecond,
		TargetScore:       1000,
		SoundsEnabled:     true,
		Seed:              1,
	})
	t.Cleanup(sm.Shutdown)
	return sm
}

// serveRoom はクエリの user でルームに接続させるだけのテスト用サーバーです。
func serveRoom(t *testing.T, sm *SessionManager, roomID string) *httptest.Server {
	t.Helper()
	upgrader := websocket.Upgrader{}
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		conn, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			return
		}
		if err := sm.RegisterClient(roomID, r.URL.Query().Get("user"), conn); err != nil {
			conn.Close()
		}
	}))
	t.Cleanup(srv.Close)
	return srv
}

func dial(t *testing.T, srv *httptest.Server, userID string) *websocket.Conn {
	t.Helper()
	conn, _, err := websocket.DefaultDialer.Dial("ws"+strings.TrimPrefix(srv.URL, "http")+"?user="+userID, nil)
	require.NoError(t, err)
	t.Cleanup(func() { conn.Close() })
	return conn
}

func readUntil(t *testing.T, conn *websocket.Conn, accept func(ServerMessage) bool) ServerMessage {
	t.Helper()
	conn.SetReadDeadline(time.Now().Add(5 * time.Second))
	for {
		var msg ServerMessage
		require.NoError(t, conn.ReadJSON(&msg))
		if accept(msg) {
			return msg
		}
	}
}

func TestSessionManager_Errors(t *testing.T) {
	sm := newTestManager(t)

	_, err := sm.CreateRoom("owner", Mode("coop"), config.Medium)
	assert.True(t, errors.Is(err, ErrUnknownMode))

	_, err = sm.GetRoomStatus("missing")
	assert.True(t, errors.Is(err, ErrRoomNotFound))

	err = sm.RegisterClient("missing", "owner", nil)
	assert.True(t, errors.Is(err, ErrRoomNotFound))
}

func TestSessionManager_DemoRoomBroadcastsAIPlay(t *testing.T) {
	sm := newTestManager(t)
	roomID, err := sm.CreateRoom("owner", ModeDemo, config.Hard)
	require.NoError(t, err)

	status, err := sm.GetRoomStatus(roomID)
	require.NoError(t, err)
	assert.Equal(t, RoomWaiting, status.Status)
	assert.Equal(t, "hard", status.Difficulty)

	conn := dial(t, serveRoom(t, sm, roomID), "owner")

	hello := readUntil(t, conn, func(m ServerMessage) bool { return m.Type == "hello" })
	assert.Equal(t, RoleOwner, hello.Role)
	assert.Equal(t, roomID, hello.RoomID)

	// AIが操作したイベントが届く
	msg := readUntil(t, conn, func(m ServerMessage) bool {
		return m.Type == "state" && m.Events != nil && len(m.Events.Player) > 0
	})
	require.NotNil(t, msg.State)
	assert.Equal(t, ModeDemo, msg.State.Mode)
	assert.Equal(t, "hard", msg.State.Difficulty)

	status, err = sm.GetRoomStatus(roomID)
	require.NoError(t, err)
	assert.Equal(t, RoomPlaying, status.Status)
	assert.NotNil(t, status.State)
}

func TestSessionManager_OwnerInputs(t *testing.T) {
	sm := newTestManager(t)
	roomID, err := sm.CreateRoom("owner", ModeSingle, config.Medium)
	require.NoError(t, err)
	srv := serveRoom(t, sm, roomID)

	owner := dial(t, srv, "owner")
	readUntil(t, owner, func(m ServerMessage) bool { return m.Type == "state" })

	viewer := dial(t, srv, "viewer")
	assert.Equal(t, RoleSpectator, readUntil(t, viewer, func(m ServerMessage) bool { return m.Type == "hello" }).Role)

	require.NoError(t, owner.WriteJSON(PlayerInputEvent{Action: string(ActionHardDrop)}))

	// 観戦者にも同じ状態が配信される
	msg := readUntil(t, viewer, func(m ServerMessage) bool {
		return m.Type == "state" && m.State != nil && m.State.Player.Board.FilledCells() > 0
	})
	assert.Greater(t, msg.State.Player.Board.FilledCells(), 0)
}

func TestSessionManager_ShutdownClosesRooms(t *testing.T) {
	sm := newTestManager(t)
	for i := 0; i < 3; i++ {
		_, err := sm.CreateRoom("owner", ModeBattle, config.Easy)
		require.NoError(t, err)
	}
	assert.Equal(t, 3, sm.RoomCount())

	sm.Shutdown()

	assert.Equal(t, 0, sm.RoomCount())
	_, err := sm.CreateRoom("owner", ModeSingle, config.Medium)
	assert.True(t, errors.Is(err, ErrManagerShutdown))
}

func TestSessionManager_CreateRoomRacingShutdown(t *testing.T) {
	sm := newTestManager(t)

	var wg sync.WaitGroup
	start := make(chan struct{})
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			<-start
			if _, err := sm.CreateRoom("owner", ModeSingle, config.Medium); err != nil {
				assert.True(t, errors.Is(err, ErrManagerShutdown))
			}
		}()
	}
	close(start)
	sm.Shutdown()
	wg.Wait()

	// Shutdown の後に作られて残るルームはない
	assert.Equal(t, 0, sm.RoomCount())
	_, err := sm.CreateRoom("owner", ModeSingle, config.Medium)
	assert.True(t, errors.Is(err, ErrManagerShutdown))
}
