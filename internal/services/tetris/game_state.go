package tetris

import (
	"math/rand"
	"time"

	"github.com/progate-hackathon-strawberry-flavor/vibetris-backend/internal/models/tetris"
)

// Phase はゲームセッションの進行状態です。
// Paused はこれと直交するフラグとして PlayerGameState.Paused で表します。
type Phase string

const (
	PhaseFalling  Phase = "falling"  // ピース操作中
	PhaseClearing Phase = "clearing" // ライン消去アニメーション中
	PhaseGameOver Phase = "game_over"
)

// LineClearAnimationDuration はライン消去アニメーションの長さです。
const LineClearAnimationDuration = 500 * time.Millisecond

// PlayerGameState は単一プレイヤーのテトリスゲーム状態です。
// 1つのゲームにつき1つだけ存在し、ボード・ピース・タイマーをすべて自分で所有します。
// 対戦モードでは独立した2つの PlayerGameState を使い、可変状態は共有しません。
type PlayerGameState struct {
	UserID       string        `json:"user_id"`
	Board        tetris.Board  `json:"board"`         // 現在のゲームボード
	CurrentPiece *tetris.Piece `json:"current_piece"` // 現在操作中のテトリミノ (アニメーション中は nil)
	NextPiece    *tetris.Piece `json:"next_piece"`    // 次に出現するテトリミノ
	HeldPiece    *tetris.Piece `json:"held_piece"`    // ホールド中のテトリミノ
	CanHold      bool          `json:"can_hold"`      // 現在のピースでホールド可能か
	Score        int           `json:"score"`
	LinesCleared int           `json:"lines_cleared"`
	Level        int           `json:"level"`
	Phase        Phase         `json:"phase"`
	Paused       bool          `json:"paused"`
	IsGameOver   bool          `json:"is_game_over"`
	SoftDrop     bool          `json:"soft_drop"`
	DropInterval time.Duration `json:"drop_interval"`
	PieceCount   int           `json:"piece_count"` // 操作対象になったピースの数 (出現とホールドで増える)

	randomizer   *tetris.Randomizer
	rng          *rand.Rand
	repeatChance float64
	now          time.Time // 最後に Update で渡された時刻
	lastFallTime time.Time // 最後の自動落下の時刻
	clearingRows []int     // アニメーション中の消去対象行
	clearStart   time.Time // アニメーション開始時刻
	events       []Event
}

// NewPlayerGameState は新しいプレイヤーのゲーム状態を初期化して返します。
//
// Parameters:
//
//	userID       : プレイヤーのユーザーID (AIの場合は "ai" など)
//	rng          : ピース生成用の乱数ジェネレータ
//	repeatChance : 同じピースが連続で出る確率
//	now          : ゲーム開始時刻 (単調時計)
//
// Returns:
//
//	*PlayerGameState: 初期化されたゲーム状態のポインタ
func NewPlayerGameState(userID string, rng *rand.Rand, repeatChance float64, now time.Time) *PlayerGameState {
	state := &PlayerGameState{
		UserID:       userID,
		rng:          rng,
		repeatChance: repeatChance,
	}
	state.reset(now)
	return state
}

// reset はボード・ピース・スコアをすべて初期状態に戻します。
func (s *PlayerGameState) reset(now time.Time) {
	s.Board = tetris.NewBoard()
	s.randomizer = tetris.NewRandomizer(s.rng, s.repeatChance)
	s.CurrentPiece = tetris.NewPiece(s.randomizer.Next())
	s.NextPiece = tetris.NewPiece(s.randomizer.Next())
	s.HeldPiece = nil
	s.CanHold = true
	s.Score = 0
	s.LinesCleared = 0
	s.Level = 1
	s.Phase = PhaseFalling
	s.Paused = false
	s.IsGameOver = false
	s.SoftDrop = false
	s.DropInterval = GetFallInterval(1)
	s.PieceCount = 1
	s.now = now
	s.lastFallTime = now
	s.clearingRows = nil
	s.clearStart = time.Time{}
}

// SpawnNewPiece は「次」のピースを現在のピースに昇格させ、新しい「次」のピースを引きます。
// 出現位置で既に衝突している場合はゲームオーバーになります。
func (s *PlayerGameState) SpawnNewPiece() {
	s.CurrentPiece = s.NextPiece
	s.CurrentPiece.X, s.CurrentPiece.Y, s.CurrentPiece.Rotation = tetris.SpawnX, tetris.SpawnY, 0
	s.NextPiece = tetris.NewPiece(s.randomizer.Next())
	s.CanHold = true
	s.PieceCount++
	s.Phase = PhaseFalling
	s.lastFallTime = s.now

	if !s.CurrentPiece.IsValidPosition(&s.Board) {
		s.setGameOver()
	}
}

// Hold は現在のピースをホールドします。
// ホールドが空なら「次」のピースを現在のピースにし、既にあれば現在のピースと入れ替えます。
// 次にピースが固定されるまで再度ホールドはできません。
func (s *PlayerGameState) Hold() bool {
	if !s.CanHold || s.CurrentPiece == nil {
		return false
	}

	current := s.CurrentPiece.Type
	if s.HeldPiece == nil {
		s.HeldPiece = tetris.NewPiece(current)
		s.CurrentPiece = s.NextPiece
		s.NextPiece = tetris.NewPiece(s.randomizer.Next())
	} else {
		s.CurrentPiece = tetris.NewPiece(s.HeldPiece.Type)
		s.HeldPiece = tetris.NewPiece(current)
	}
	s.CurrentPiece.X, s.CurrentPiece.Y, s.CurrentPiece.Rotation = tetris.SpawnX, tetris.SpawnY, 0
	s.CanHold = false
	s.PieceCount++
	s.emit(Event{Type: EventHold})

	// ホールド後のピースが衝突する場合はゲームオーバー
	if !s.CurrentPiece.IsValidPosition(&s.Board) {
		s.setGameOver()
	}
	return true
}

// AcceptsInput は操作入力 (移動・回転・ドロップ・ホールド) を受け付ける状態かどうかを返します。
func (s *PlayerGameState) AcceptsInput() bool {
	return !s.IsGameOver && !s.Paused && s.Phase == PhaseFalling && s.CurrentPiece != nil
}

// GhostPosition は現在のピースの着地予定位置を返します。ピースがない場合は false です。
func (s *PlayerGameState) GhostPosition() (int, int, bool) {
	if s.CurrentPiece == nil || s.IsGameOver {
		return 0, 0, false
	}
	x, y := s.CurrentPiece.GhostPosition(&s.Board)
	return x, y, true
}

// ClearingRows はアニメーション中の消去対象行を返します。
func (s *PlayerGameState) ClearingRows() []int {
	return append([]int(nil), s.clearingRows...)
}

// AnimationProgress はライン消去アニメーションの進捗 (0〜1) を返します。
func (s *PlayerGameState) AnimationProgress() float64 {
	if s.Phase != PhaseClearing {
		return 0
	}
	p := float64(s.now.Sub(s.clearStart)) / float64(LineClearAnimationDuration)
	if p < 0 {
		return 0
	}
	if p > 1 {
		return 1
	}
	return p
}

func (s *PlayerGameState) setGameOver() {
	if s.IsGameOver {
		return
	}
	s.IsGameOver = true
	s.Phase = PhaseGameOver
	s.SoftDrop = false
	s.emit(Event{Type: EventGameOver})
}
