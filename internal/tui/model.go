package tui

import (
	"fmt"
	"time"

	tea "github.com/charmbracelet/bubbletea"

	game "github.com/progate-hackathon-strawberry-flavor/vibetris-backend/internal/services/tetris"
)

// softDropHold はキーリピートが途切れてからソフトドロップを解除するまでの時間です。
// 端末ではキーを離したイベントが取れないため、押下の継続をリピート間隔で判定します。
const softDropHold = 150 * time.Millisecond

const eventLabelDuration = 1500 * time.Millisecond

type frameMsg time.Time

var keyActions = map[string]game.Action{
	"left":  game.ActionMoveLeft,
	"h":     game.ActionMoveLeft,
	"right": game.ActionMoveRight,
	"l":     game.ActionMoveRight,
	"up":    game.ActionRotate,
	"x":     game.ActionRotate,
	" ":     game.ActionHardDrop,
	"c":     game.ActionHold,
	"p":     game.ActionPause,
	"r":     game.ActionReset,
}

// Model は端末上で1つの試合を動かす bubbletea のモデルです。
type Model struct {
	match         *game.Match
	width         int
	height        int
	now           time.Time
	softDropUntil time.Time
	lastEvent     string
	lastEventTil  time.Time
}

// NewModel は試合を表示・操作するモデルを作成します。
func NewModel(match *game.Match) Model {
	return Model{match: match}
}

func (m Model) Init() tea.Cmd {
	return frameCmd()
}

func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		return m, nil
	case frameMsg:
		m.now = time.Time(msg)
		if !m.softDropUntil.IsZero() && !m.now.Before(m.softDropUntil) {
			m.match.Apply(game.ActionSoftDropOff)
			m.softDropUntil = time.Time{}
		}
		m.match.Update(m.now)
		m.collectEvents()
		return m, frameCmd()
	case tea.KeyMsg:
		switch key := msg.String(); key {
		case "q", "esc", "ctrl+c":
			return m, tea.Quit
		case "down", "j":
			m.match.Apply(game.ActionSoftDropOn)
			if m.match.Player.SoftDrop {
				m.softDropUntil = m.now.Add(softDropHold)
			}
		default:
			if action, ok := keyActions[key]; ok {
				m.match.Apply(action)
			}
		}
		m.collectEvents()
	}
	return m, nil
}

func (m Model) View() string {
	return viewMatch(m)
}

// collectEvents は試合のイベントを取り出し、表示用のラベルにします。
func (m *Model) collectEvents() {
	events := m.match.DrainEvents()
	m.showEvents(events.Player, "")
	m.showEvents(events.Opponent, "AI ")
}

func (m *Model) showEvents(events []game.Event, prefix string) {
	for _, e := range events {
		if label := eventLabel(e); label != "" {
			m.lastEvent = prefix + label
			m.lastEventTil = m.now.Add(eventLabelDuration)
		}
	}
}

func eventLabel(e game.Event) string {
	switch e.Type {
	case game.EventLineClear:
		switch len(e.Rows) {
		case 1:
			return "SINGLE"
		case 2:
			return "DOUBLE"
		case 3:
			return "TRIPLE"
		default:
			return "TETRIS"
		}
	case game.EventLevelUp:
		return fmt.Sprintf("LEVEL %d", e.Level)
	case game.EventGameOver:
		return "GAME OVER"
	}
	return ""
}

func frameCmd() tea.Cmd {
	return tea.Tick(game.FrameInterval, func(t time.Time) tea.Msg { return frameMsg(t) })
}
