package tetris

// EventType は描画・サウンド層へ通知する状態遷移の種類です。
type EventType string

const (
	EventMove      EventType = "move"
	EventRotate    EventType = "rotate"
	EventLock      EventType = "lock"
	EventLineClear EventType = "line_clear"
	EventLevelUp   EventType = "level_up"
	EventHold      EventType = "hold"
	EventGameOver  EventType = "game_over"
	EventPause     EventType = "pause"
	EventResume    EventType = "resume"
)

// Event はゲームセッションで発生した遷移です。シミュレーションには影響しません。
type Event struct {
	Type  EventType `json:"type"`
	Rows  []int     `json:"rows,omitempty"`  // line_clear: 消去対象の行
	Level int       `json:"level,omitempty"` // level_up: 新しいレベル
}

func (s *PlayerGameState) emit(e Event) {
	s.events = append(s.events, e)
}

// DrainEvents は溜まっているイベントを返し、内部のリストを空にします。
func (s *PlayerGameState) DrainEvents() []Event {
	events := s.events
	s.events = nil
	return events
}
