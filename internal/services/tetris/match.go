package tetris

import (
	"errors"
	"fmt"
	"log"
	"math/rand"
	"time"

	"github.com/progate-hackathon-strawberry-flavor/vibetris-backend/internal/config"
	"github.com/progate-hackathon-strawberry-flavor/vibetris-backend/internal/models/tetris"
)

// ErrUnknownMode は未知のモード名が指定されたことを表します。
var ErrUnknownMode = errors.New("unknown match mode")

// Mode は試合の種類です。
type Mode string

const (
	ModeSingle Mode = "single" // 人間1人
	ModeDemo   Mode = "demo"   // AIが1人でプレイ
	ModeBattle Mode = "battle" // 人間 vs AI
)

// ParseMode はモード名から Mode を返します。空文字列は single として扱います。
func ParseMode(s string) (Mode, error) {
	switch Mode(s) {
	case "", ModeSingle:
		return ModeSingle, nil
	case ModeDemo:
		return ModeDemo, nil
	case ModeBattle:
		return ModeBattle, nil
	}
	return "", fmt.Errorf("%w: %q", ErrUnknownMode, s)
}

// Winner は対戦の勝者です。未決着の間は空文字列です。
type Winner string

const (
	WinnerNone   Winner = ""
	WinnerPlayer Winner = "player"
	WinnerAI     Winner = "ai"
)

// AIUserID はAIが操作するゲーム状態のユーザーIDです。
const AIUserID = "ai"

// DefaultTargetScore は battle の既定の勝利スコアです。
const DefaultTargetScore = 1000

// MatchOptions は試合の設定です。
type MatchOptions struct {
	Mode         Mode
	Difficulty   config.Difficulty // AIの強さ (demo で未指定なら config.DemoDifficulty)
	TargetScore  int               // battle の勝利スコア
	RepeatChance float64
}

// DefaultMatchOptions は指定モードの既定設定を返します。
func DefaultMatchOptions(mode Mode) MatchOptions {
	return MatchOptions{
		Mode:         mode,
		Difficulty:   config.Medium,
		TargetScore:  DefaultTargetScore,
		RepeatChance: tetris.DefaultRepeatChance,
	}
}

// Match は1つの試合 (single / demo / battle) を進行させます。
// 2つのゲーム状態は互いに独立していて、乱数ジェネレータも別々に持ちます。
// Match はゴルーチンセーフではありません。所有者 (ルームのゴルーチン等) だけが操作します。
type Match struct {
	Mode        Mode
	Difficulty  config.Difficulty
	TargetScore int
	Player      *PlayerGameState // 人間のゲーム状態 (demo ではAIが操作)
	Opponent    *PlayerGameState // battle のAI側。他のモードでは nil
	Winner      Winner

	ai         *AIPlayer
	lastAIMove time.Time
	now        time.Time
	reported   bool
}

// NewMatch は新しい試合を作成します。
//
// Parameters:
//
//	userID : 人間のプレイヤーのユーザーID
//	opts   : 試合の設定
//	rng    : 各ゲーム状態とAIの乱数の種を作るための乱数ジェネレータ
//	now    : 試合開始時刻
func NewMatch(userID string, opts MatchOptions, rng *rand.Rand, now time.Time) *Match {
	m := &Match{
		Mode:        opts.Mode,
		Difficulty:  opts.Difficulty,
		TargetScore: opts.TargetScore,
		now:         now,
		lastAIMove:  now,
	}
	fork := func() *rand.Rand { return rand.New(rand.NewSource(rng.Int63())) }

	switch opts.Mode {
	case ModeDemo:
		if m.Difficulty.Name == "" {
			m.Difficulty = config.DemoDifficulty
		}
		m.Player = NewPlayerGameState(AIUserID, fork(), opts.RepeatChance, now)
		m.ai = NewAIPlayer(m.Player, m.Difficulty.MistakeChance, fork())
	case ModeBattle:
		m.Player = NewPlayerGameState(userID, fork(), opts.RepeatChance, now)
		m.Opponent = NewPlayerGameState(AIUserID, fork(), opts.RepeatChance, now)
		m.ai = NewAIPlayer(m.Opponent, m.Difficulty.MistakeChance, fork())
	default:
		m.Mode = ModeSingle
		m.Player = NewPlayerGameState(userID, fork(), opts.RepeatChance, now)
	}
	return m
}

// AI は試合のAIプレイヤーを返します。single では nil です。
func (m *Match) AI() *AIPlayer {
	return m.ai
}

// Apply は人間の操作を試合に適用します。
// demo では一時停止とリセットだけを受け付けます。battle の一時停止は両方の盤面を止めます。
// 決着後はリセット以外を無視します。
func (m *Match) Apply(action Action) bool {
	if action == ActionReset {
		m.reset()
		return true
	}
	if m.Decided() {
		return false
	}

	switch m.Mode {
	case ModeDemo:
		if action != ActionPause {
			return false
		}
		return ApplyPlayerInput(m.Player, action)
	case ModeBattle:
		if action == ActionPause {
			changed := ApplyPlayerInput(m.Player, action)
			if m.Opponent.Paused != m.Player.Paused {
				ApplyPlayerInput(m.Opponent, action)
			}
			return changed
		}
	}
	return ApplyPlayerInput(m.Player, action)
}

func (m *Match) reset() {
	ApplyPlayerInput(m.Player, ActionReset)
	if m.Opponent != nil {
		ApplyPlayerInput(m.Opponent, ActionReset)
	}
	if m.ai != nil {
		m.ai.moveQueue = nil
	}
	m.Winner = WinnerNone
	m.lastAIMove = m.now
	m.reported = false
}

// Update は試合を now まで進めます。AIは難易度の MoveDelay ごとに1操作だけ行います。
func (m *Match) Update(now time.Time) {
	m.now = now
	if m.Decided() {
		return
	}

	Update(m.Player, now)
	if m.Opponent != nil {
		Update(m.Opponent, now)
	}

	if m.ai != nil && now.Sub(m.lastAIMove) >= m.Difficulty.MoveDelay {
		if _, ok := m.ai.ExecuteMove(); ok {
			m.lastAIMove = now
		}
	}

	if m.Mode == ModeBattle {
		m.Winner = m.checkWinner()
	}
	if m.Decided() && !m.reported {
		m.reported = true
		m.logResult()
	}
}

// checkWinner は決められた順番で勝敗を判定します。
func (m *Match) checkWinner() Winner {
	switch {
	case m.Player.Score >= m.TargetScore:
		return WinnerPlayer
	case m.Opponent.Score >= m.TargetScore:
		return WinnerAI
	case m.Player.IsGameOver:
		return WinnerAI
	case m.Opponent.IsGameOver:
		return WinnerPlayer
	}
	return WinnerNone
}

// Decided は試合が終わったかどうかを返します。
// battle は勝者が決まったとき、それ以外はゲームオーバーになったときです。
func (m *Match) Decided() bool {
	if m.Mode == ModeBattle {
		return m.Winner != WinnerNone
	}
	return m.Player.IsGameOver
}

func (m *Match) logResult() {
	if m.Mode == ModeBattle {
		log.Printf("[Match] Battle finished. Winner: %s (player %d - ai %d, difficulty %s)",
			m.Winner, m.Player.Score, m.Opponent.Score, m.Difficulty.Name)
		return
	}
	log.Printf("[Match] %s game finished. Score: %d, Lines: %d, Level: %d",
		m.Mode, m.Player.Score, m.Player.LinesCleared, m.Player.Level)
}

// MatchSnapshot は試合全体の描画用スナップショットです。
type MatchSnapshot struct {
	Mode        Mode             `json:"mode"`
	Difficulty  string           `json:"difficulty,omitempty"`
	TargetScore int              `json:"target_score,omitempty"`
	Winner      Winner           `json:"winner,omitempty"`
	Finished    bool             `json:"finished"`
	Player      SessionSnapshot  `json:"player"`
	Opponent    *SessionSnapshot `json:"opponent,omitempty"`
}

// Snapshot は現在の試合状態のコピーを返します。
func (m *Match) Snapshot() MatchSnapshot {
	snap := MatchSnapshot{
		Mode:     m.Mode,
		Winner:   m.Winner,
		Finished: m.Decided(),
		Player:   m.Player.Snapshot(),
	}
	if m.ai != nil {
		snap.Difficulty = m.Difficulty.Name
	}
	if m.Mode == ModeBattle {
		snap.TargetScore = m.TargetScore
		opponent := m.Opponent.Snapshot()
		snap.Opponent = &opponent
	}
	return snap
}

// MatchEvents は前回の取得以降に発生したイベントです。
type MatchEvents struct {
	Player   []Event `json:"player,omitempty"`
	Opponent []Event `json:"opponent,omitempty"`
}

// Empty はイベントが1つもないかどうかを返します。
func (e MatchEvents) Empty() bool {
	return len(e.Player) == 0 && len(e.Opponent) == 0
}

// DrainEvents は両方のゲーム状態のイベントを取り出します。
func (m *Match) DrainEvents() MatchEvents {
	events := MatchEvents{Player: m.Player.DrainEvents()}
	if m.Opponent != nil {
		events.Opponent = m.Opponent.DrainEvents()
	}
	return events
}
