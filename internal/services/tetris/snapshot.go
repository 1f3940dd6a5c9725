package tetris

import (
	"math"

	"github.com/progate-hackathon-strawberry-flavor/vibetris-backend/internal/models/tetris"
)

// flashCycles はライン消去アニメーション中に点滅する回数 (半周期単位) です。
const flashCycles = 10

// PieceView は描画用のピース情報です。
type PieceView struct {
	Type     string       `json:"type"`
	X        int          `json:"x"`
	Y        int          `json:"y"`
	Rotation int          `json:"rotation"`
	Color    tetris.Color `json:"color"`
	Cells    [4][2]int    `json:"cells"` // ボード上の絶対座標
}

// Position はボード上の座標です。
type Position struct {
	X int `json:"x"`
	Y int `json:"y"`
}

// SessionSnapshot は描画層に渡す読み取り専用のゲーム状態です。
// シミュレーションの内部状態は含みません。
type SessionSnapshot struct {
	UserID            string       `json:"user_id"`
	Board             tetris.Board `json:"board"`
	CurrentPiece      *PieceView   `json:"current_piece"`
	NextPiece         *PieceView   `json:"next_piece"`
	HeldPiece         *PieceView   `json:"held_piece,omitempty"`
	Ghost             *Position    `json:"ghost,omitempty"`
	CanHold           bool         `json:"can_hold"`
	Score             int          `json:"score"`
	Level             int          `json:"level"`
	LinesCleared      int          `json:"lines_cleared"`
	Phase             Phase        `json:"phase"`
	Paused            bool         `json:"paused"`
	IsGameOver        bool         `json:"is_game_over"`
	ClearingRows      []int        `json:"clearing_rows,omitempty"`
	AnimationProgress float64      `json:"animation_progress"`
	FlashIntensity    float64      `json:"flash_intensity"`
}

func newPieceView(p *tetris.Piece) *PieceView {
	if p == nil {
		return nil
	}
	return &PieceView{
		Type:     p.Type.String(),
		X:        p.X,
		Y:        p.Y,
		Rotation: p.Rotation,
		Color:    p.Type.Color(),
		Cells:    p.Cells(),
	}
}

// Snapshot は現在のゲーム状態のコピーを返します。
func (s *PlayerGameState) Snapshot() SessionSnapshot {
	snap := SessionSnapshot{
		UserID:       s.UserID,
		Board:        s.Board,
		CurrentPiece: newPieceView(s.CurrentPiece),
		NextPiece:    newPieceView(s.NextPiece),
		HeldPiece:    newPieceView(s.HeldPiece),
		CanHold:      s.CanHold,
		Score:        s.Score,
		Level:        s.Level,
		LinesCleared: s.LinesCleared,
		Phase:        s.Phase,
		Paused:       s.Paused,
		IsGameOver:   s.IsGameOver,
		ClearingRows: s.ClearingRows(),
	}
	if x, y, ok := s.GhostPosition(); ok {
		snap.Ghost = &Position{X: x, Y: y}
	}
	if s.Phase == PhaseClearing {
		snap.AnimationProgress = s.AnimationProgress()
		snap.FlashIntensity = FlashIntensity(snap.AnimationProgress)
	}
	return snap
}

// FlashIntensity はアニメーション進捗 (0〜1) から消去行の白さ (0〜1) を返します。
func FlashIntensity(progress float64) float64 {
	return math.Abs(math.Sin(progress * flashCycles * math.Pi))
}

// BlendTowardWhite は色を intensity の割合だけ白に近づけます。
func BlendTowardWhite(c tetris.Color, intensity float64) tetris.Color {
	if intensity < 0 {
		intensity = 0
	} else if intensity > 1 {
		intensity = 1
	}
	blend := func(v uint8) uint8 {
		return uint8(math.Round(float64(v) + (255-float64(v))*intensity))
	}
	return tetris.Color{R: blend(c.R), G: blend(c.G), B: blend(c.B)}
}
