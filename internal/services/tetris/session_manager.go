package tetris

import (
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"math/rand"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket" // WebSocketライブラリのインポート

	"github.com/progate-hackathon-strawberry-flavor/vibetris-backend/internal/config"
)

var (
	ErrRoomNotFound    = errors.New("room not found")
	ErrNotRoomOwner    = errors.New("only the room owner can control the match")
	ErrManagerShutdown = errors.New("session manager is shut down")
)

// クライアントの役割です。操作できるのはルームの作成者 (owner) だけです。
const (
	RoleOwner     = "owner"
	RoleSpectator = "spectator"
)

// ルームの状態です。
const (
	RoomWaiting  = "waiting"  // オーナーの接続待ち
	RoomPlaying  = "playing"  // 試合中
	RoomFinished = "finished" // 決着済み、またはオーナーが退出した
)

const (
	clientSendBuffer = 256
	readLimit        = 1024
	readTimeout      = 300 * time.Second
	writeTimeout     = 10 * time.Second
	pingInterval     = 60 * time.Second
	// ownerJoinTimeout を過ぎてもオーナーが接続しないルームは閉じる
	ownerJoinTimeout = 2 * time.Minute
)

// Client はWebSocket接続を持つ単一のクライアントを表します。
type Client struct {
	UserID string          // このクライアントに紐づくユーザーのID
	Conn   *websocket.Conn // クライアントとの実際のWebSocketコネクション
	Send   chan []byte     // クライアントへメッセージを送信するためのバッファ付きチャネル
	RoomID string          // このクライアントが参加しているルームのID
	Role   string          // RoleOwner または RoleSpectator
	closed bool            // チャネルが閉じられたかどうかのフラグ
	mu     sync.Mutex      // closedフラグ保護用
}

// SafeSend は安全にチャネルにメッセージを送信します（closedチェック付き）
func (c *Client) SafeSend(message []byte) bool {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.closed {
		return false // 既に閉じられている
	}

	select {
	case c.Send <- message:
		return true
	default:
		return false // チャネルがフル
	}
}

// SafeClose は安全にチャネルを閉じます
func (c *Client) SafeClose() {
	c.mu.Lock()
	defer c.mu.Unlock()

	if !c.closed {
		close(c.Send)
		c.closed = true
	}
}

// PlayerInputEvent はクライアントから受け取る操作メッセージです。
type PlayerInputEvent struct {
	UserID string `json:"-"`
	Action string `json:"action"`
}

// ServerMessage はクライアントへ送るメッセージです。
type ServerMessage struct {
	Type          string         `json:"type"` // hello, state, error
	RoomID        string         `json:"room_id,omitempty"`
	Role          string         `json:"role,omitempty"`
	SoundsEnabled *bool          `json:"sounds_enabled,omitempty"`
	State         *MatchSnapshot `json:"state,omitempty"`
	Events        *MatchEvents   `json:"events,omitempty"`
	Error         string         `json:"error,omitempty"`
}

// ManagerOptions は SessionManager の設定です。
type ManagerOptions struct {
	TickInterval      time.Duration
	BroadcastInterval time.Duration
	TargetScore       int
	RepeatChance      float64
	SoundsEnabled     bool
	Seed              int64 // 0 の場合は現在時刻から種を作る
}

// ManagerOptionsFromConfig は設定から ManagerOptions を作成します。
func ManagerOptionsFromConfig(cfg *config.Config) ManagerOptions {
	return ManagerOptions{
		TickInterval:      cfg.TickInterval(),
		BroadcastInterval: cfg.BroadcastInterval,
		TargetScore:       cfg.BattleTargetScore,
		RepeatChance:      cfg.RepeatChance,
		SoundsEnabled:     cfg.SoundsEnabled,
	}
}

// Room は1つの試合をホストします。試合 (match) を触るのはルームのゴルーチンだけです。
type Room struct {
	ID         string
	OwnerID    string
	Mode       Mode
	Difficulty config.Difficulty
	CreatedAt  time.Time

	match      *Match
	clients    map[*Client]bool
	register   chan *Client
	unregister chan *Client
	inputs     chan PlayerInputEvent
	done       chan struct{}

	mu     sync.RWMutex // status と latest の保護用
	status string
	latest *MatchSnapshot
}

// RoomStatus はHTTPで返すルームの状態です。
type RoomStatus struct {
	RoomID     string         `json:"room_id"`
	OwnerID    string         `json:"owner_id"`
	Mode       Mode           `json:"mode"`
	Difficulty string         `json:"difficulty,omitempty"`
	Status     string         `json:"status"`
	State      *MatchSnapshot `json:"state,omitempty"`
}

// SessionManager はルームとWebSocketクライアント接続の全体を管理します。
// これはアプリケーション内でシングルトンとして動作することが想定されます。
type SessionManager struct {
	opts   ManagerOptions
	rooms  map[string]*Room
	mu     sync.RWMutex // rooms マップへのアクセス保護用
	seeds  *rand.Rand
	seedMu sync.Mutex
	quit   chan struct{}
	wg     sync.WaitGroup
	once   sync.Once
	// lifeMu は quit の確認と wg.Add を Shutdown の close(quit) と排他にする
	lifeMu sync.Mutex
}

// NewSessionManager は新しい SessionManager インスタンスを作成します。
//
// Parameters:
//
//	opts : ティック間隔・ブロードキャスト間隔などの設定
//
// Returns:
//
//	*SessionManager: 初期化されたセッションマネージャーのポインタ
func NewSessionManager(opts ManagerOptions) *SessionManager {
	if opts.TickInterval <= 0 {
		opts.TickInterval = time.Second / 60
	}
	seed := opts.Seed
	if seed == 0 {
		seed = time.Now().UnixNano()
	}
	return &SessionManager{
		opts:  opts,
		rooms: make(map[string]*Room),
		seeds: rand.New(rand.NewSource(seed)),
		quit:  make(chan struct{}),
	}
}

func (sm *SessionManager) nextSeed() int64 {
	sm.seedMu.Lock()
	defer sm.seedMu.Unlock()
	return sm.seeds.Int63()
}

// CreateRoom は新しいルームを作成し、そのゴルーチンを開始します。
// 試合はオーナーが最初に接続した時点で始まります。
//
// Parameters:
//
//	ownerID    : ルームを操作するユーザーのID
//	mode       : 試合の種類
//	difficulty : battle のAIの強さ
//
// Returns:
//
//	string: 作成されたルームのID
//	error : エラーが発生した場合
func (sm *SessionManager) CreateRoom(ownerID string, mode Mode, difficulty config.Difficulty) (string, error) {
	if _, err := ParseMode(string(mode)); err != nil {
		return "", err
	}
	room := &Room{
		ID:         uuid.New().String(),
		OwnerID:    ownerID,
		Mode:       mode,
		Difficulty: difficulty,
		CreatedAt:  time.Now(),
		clients:    make(map[*Client]bool),
		register:   make(chan *Client),
		unregister: make(chan *Client),
		inputs:     make(chan PlayerInputEvent, 64),
		done:       make(chan struct{}),
		status:     RoomWaiting,
	}

	sm.lifeMu.Lock()
	select {
	case <-sm.quit:
		sm.lifeMu.Unlock()
		return "", ErrManagerShutdown
	default:
	}
	sm.mu.Lock()
	sm.rooms[room.ID] = room
	sm.mu.Unlock()
	sm.wg.Add(1)
	go sm.runRoom(room)
	sm.lifeMu.Unlock()

	log.Printf("[SessionManager] Created room %s (mode: %s, owner: %s)", room.ID, mode, ownerID)
	return room.ID, nil
}

// GetRoomStatus は指定されたルームの状態と最新のスナップショットを返します。
func (sm *SessionManager) GetRoomStatus(roomID string) (RoomStatus, error) {
	sm.mu.RLock()
	room, ok := sm.rooms[roomID]
	sm.mu.RUnlock()
	if !ok {
		return RoomStatus{}, fmt.Errorf("%w: %s", ErrRoomNotFound, roomID)
	}

	room.mu.RLock()
	defer room.mu.RUnlock()
	status := RoomStatus{
		RoomID:  room.ID,
		OwnerID: room.OwnerID,
		Mode:    room.Mode,
		Status:  room.status,
		State:   room.latest,
	}
	if room.Mode != ModeSingle {
		status.Difficulty = room.Difficulty.Name
	}
	return status, nil
}

// RoomCount は現在のルーム数を返します。
func (sm *SessionManager) RoomCount() int {
	sm.mu.RLock()
	defer sm.mu.RUnlock()
	return len(sm.rooms)
}

// RegisterClient は新しいWebSocketクライアントをルームに登録し、読み書きのゴルーチンを開始します。
//
// Parameters:
//
//	roomID : クライアントが参加するルームのID
//	userID : クライアントのユーザーID
//	conn   : WebSocketコネクション
//
// Returns:
//
//	error: ルームが存在しない場合は ErrRoomNotFound
func (sm *SessionManager) RegisterClient(roomID, userID string, conn *websocket.Conn) error {
	sm.mu.RLock()
	room, ok := sm.rooms[roomID]
	sm.mu.RUnlock()
	if !ok {
		return fmt.Errorf("%w: %s", ErrRoomNotFound, roomID)
	}

	role := RoleSpectator
	if userID == room.OwnerID {
		role = RoleOwner
	}
	client := &Client{
		UserID: userID,
		Conn:   conn,
		Send:   make(chan []byte, clientSendBuffer),
		RoomID: roomID,
		Role:   role,
	}

	select {
	case room.register <- client:
	case <-room.done:
		return fmt.Errorf("%w: %s", ErrRoomNotFound, roomID)
	}

	go sm.readPump(room, client)
	go client.writePump()

	log.Printf("[SessionManager] Client %s registered for room %s as %s", userID, roomID, role)
	return nil
}

// runRoom はルームのメインループです。
// クライアントの登録/解除、操作の適用、ティックごとの更新、スナップショットの送信を1つのゴルーチンで行います。
func (sm *SessionManager) runRoom(room *Room) {
	defer sm.wg.Done()
	defer sm.closeRoom(room)

	ticker := time.NewTicker(sm.opts.TickInterval)
	defer ticker.Stop()

	var (
		lastBroadcast time.Time
		pending       MatchEvents
		dirty         bool
	)

	for {
		select {
		case client := <-room.register:
			room.clients[client] = true
			client.SafeSend(sm.helloMessage(room, client))
			if client.Role == RoleOwner && room.match == nil {
				sm.startMatch(room)
			}
			if room.match != nil {
				// 途中から接続したクライアントにもすぐに現在の状態を送る
				client.SafeSend(sm.stateMessage(room, nil))
			}

		case client := <-room.unregister:
			if !room.clients[client] {
				continue
			}
			delete(room.clients, client)
			client.SafeClose()
			log.Printf("[SessionManager] Client %s left room %s", client.UserID, room.ID)
			if client.Role == RoleOwner {
				log.Printf("[SessionManager] Owner %s left room %s. Ending room.", client.UserID, room.ID)
				return
			}

		case event := <-room.inputs:
			if event.UserID != room.OwnerID {
				log.Printf("[SessionManager] Ignored input from %s in room %s: %v", event.UserID, room.ID, ErrNotRoomOwner)
				continue
			}
			action, ok := ParseAction(event.Action)
			if !ok {
				log.Printf("[SessionManager] Unknown action %q from %s", event.Action, event.UserID)
				continue
			}
			if room.match != nil && room.match.Apply(action) {
				dirty = true
			}

		case <-ticker.C:
			if room.match == nil {
				if time.Since(room.CreatedAt) > ownerJoinTimeout {
					log.Printf("[SessionManager] Owner never joined room %s. Ending room.", room.ID)
					return
				}
				continue
			}
			room.match.Update(time.Now())
			dirty = true

		case <-sm.quit:
			return
		}

		if room.match == nil {
			continue
		}
		events := room.match.DrainEvents()
		pending.Player = append(pending.Player, events.Player...)
		pending.Opponent = append(pending.Opponent, events.Opponent...)

		decided := room.match.Decided()
		if dirty && (decided || time.Since(lastBroadcast) >= sm.opts.BroadcastInterval) {
			sm.broadcast(room, sm.stateMessage(room, &pending))
			lastBroadcast = time.Now()
			pending = MatchEvents{}
			dirty = false
		}
		if decided {
			log.Printf("[SessionManager] Match in room %s is decided. Ending room.", room.ID)
			return
		}
	}
}

func (sm *SessionManager) startMatch(room *Room) {
	opts := MatchOptions{
		Mode:         room.Mode,
		Difficulty:   room.Difficulty,
		TargetScore:  sm.opts.TargetScore,
		RepeatChance: sm.opts.RepeatChance,
	}
	rng := rand.New(rand.NewSource(sm.nextSeed()))
	room.match = NewMatch(room.OwnerID, opts, rng, time.Now())

	room.mu.Lock()
	room.status = RoomPlaying
	room.mu.Unlock()
	log.Printf("[SessionManager] Match started in room %s (mode: %s)", room.ID, room.Mode)
}

func (sm *SessionManager) helloMessage(room *Room, client *Client) []byte {
	sounds := sm.opts.SoundsEnabled
	return sm.marshal(room, ServerMessage{
		Type:          "hello",
		RoomID:        room.ID,
		Role:          client.Role,
		SoundsEnabled: &sounds,
	})
}

// stateMessage は最新のスナップショットを保存し、送信用のJSONを返します。
func (sm *SessionManager) stateMessage(room *Room, events *MatchEvents) []byte {
	snap := room.match.Snapshot()

	room.mu.Lock()
	room.latest = &snap
	room.mu.Unlock()

	msg := ServerMessage{Type: "state", State: &snap}
	if events != nil && !events.Empty() {
		msg.Events = events
	}
	return sm.marshal(room, msg)
}

func (sm *SessionManager) marshal(room *Room, msg ServerMessage) []byte {
	data, err := json.Marshal(msg)
	if err != nil {
		log.Printf("[SessionManager] Error marshaling %s message for room %s: %v", msg.Type, room.ID, err)
		return nil
	}
	return data
}

func (sm *SessionManager) broadcast(room *Room, message []byte) {
	if message == nil {
		return
	}
	for client := range room.clients {
		if !client.SafeSend(message) {
			log.Printf("[SessionManager] Failed to send to client %s (channel closed or full)", client.UserID)
		}
	}
}

// closeRoom は全てのクライアントを切断し、ルームをマネージャーから削除します。
func (sm *SessionManager) closeRoom(room *Room) {
	close(room.done)

	room.mu.Lock()
	room.status = RoomFinished
	room.mu.Unlock()

	for client := range room.clients {
		client.SafeClose()
		delete(room.clients, client)
	}

	sm.mu.Lock()
	delete(sm.rooms, room.ID)
	sm.mu.Unlock()
	log.Printf("[SessionManager] Removed room %s", room.ID)
}

// readPump はクライアントからのWebSocketメッセージを読み込み、ルームの inputs チャネルに送信します。
func (sm *SessionManager) readPump(room *Room, client *Client) {
	defer func() {
		if r := recover(); r != nil {
			log.Printf("[SessionManager] Panic in readPump for user %s: %v", client.UserID, r)
		}
		select {
		case room.unregister <- client:
		case <-room.done:
		}
		if err := client.Conn.Close(); err != nil {
			log.Printf("[SessionManager] Error closing WebSocket connection for user %s: %v", client.UserID, err)
		}
	}()

	client.Conn.SetReadLimit(readLimit)
	client.Conn.SetReadDeadline(time.Now().Add(readTimeout))
	client.Conn.SetPongHandler(func(string) error {
		client.Conn.SetReadDeadline(time.Now().Add(readTimeout))
		return nil
	})

	for {
		_, message, err := client.Conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure, websocket.CloseNormalClosure) {
				log.Printf("[SessionManager] WebSocket unexpected close error for user %s: %v", client.UserID, err)
			}
			return
		}
		if len(message) == 0 {
			continue
		}

		var input PlayerInputEvent
		if err := json.Unmarshal(message, &input); err != nil {
			log.Printf("[SessionManager] Failed to unmarshal input message from %s: %v", client.UserID, err)
			continue
		}
		input.UserID = client.UserID // 送信者のIDは接続から決める

		select {
		case room.inputs <- input:
		case <-room.done:
			return
		default:
			log.Printf("[SessionManager] Input channel is full, dropping message from user %s", client.UserID)
		}
	}
}

// writePump は Client の Send チャネルからのメッセージをWebSocketコネクションに書き込みます。
// クライアントごとにこのゴルーチンが動作します。
func (c *Client) writePump() {
	ticker := time.NewTicker(pingInterval)
	defer func() {
		if r := recover(); r != nil {
			log.Printf("[Client] Panic in writePump for user %s: %v", c.UserID, r)
		}
		ticker.Stop()
		c.Conn.Close()
	}()

	for {
		select {
		case message, ok := <-c.Send:
			c.Conn.SetWriteDeadline(time.Now().Add(writeTimeout))
			if !ok {
				// ルームがチャネルを閉じた
				c.Conn.WriteMessage(websocket.CloseMessage, websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""))
				return
			}
			if err := c.Conn.WriteMessage(websocket.TextMessage, message); err != nil {
				log.Printf("[Client] Error writing message for user %s: %v", c.UserID, err)
				return
			}
		case <-ticker.C:
			c.Conn.SetWriteDeadline(time.Now().Add(writeTimeout))
			if err := c.Conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				log.Printf("[Client] Error sending ping for user %s: %v", c.UserID, err)
				return
			}
		}
	}
}

// Shutdown は全てのルームを終了させ、ゴルーチンの終了を待ちます。
func (sm *SessionManager) Shutdown() {
	sm.once.Do(func() {
		log.Printf("[SessionManager] シャットダウン開始...")
		sm.lifeMu.Lock()
		close(sm.quit)
		sm.lifeMu.Unlock()
		sm.wg.Wait()
		log.Printf("[SessionManager] シャットダウン完了")
	})
}
