package tetris

import (
	"log"
	"time"
)

// ゲーム全体の速度・レベル設定です。
const (
	InitialFallInterval = 500 * time.Millisecond // レベル1の自動落下間隔
	MinFallInterval     = 100 * time.Millisecond // 自動落下間隔の下限
	FallIntervalStep    = 20 * time.Millisecond  // レベルが1上がるごとの短縮幅
	SoftDropDivisor     = 10                     // ソフトドロップ中は落下間隔が1/10になる
	LevelUpLines        = 10                     // レベルアップに必要なライン数
)

// Action はプレイヤー (またはAI) の操作コマンドです。
type Action string

const (
	ActionMoveLeft    Action = "move_left"
	ActionMoveRight   Action = "move_right"
	ActionRotate      Action = "rotate"
	ActionSoftDropOn  Action = "soft_drop_on"
	ActionSoftDropOff Action = "soft_drop_off"
	ActionHardDrop    Action = "hard_drop"
	ActionHold        Action = "hold"
	ActionPause       Action = "pause"
	ActionReset       Action = "reset"
)

var knownActions = map[Action]bool{
	ActionMoveLeft:    true,
	ActionMoveRight:   true,
	ActionRotate:      true,
	ActionSoftDropOn:  true,
	ActionSoftDropOff: true,
	ActionHardDrop:    true,
	ActionHold:        true,
	ActionPause:       true,
	ActionReset:       true,
}

// ParseAction は文字列を Action に変換します。未知の操作は false を返します。
func ParseAction(s string) (Action, bool) {
	a := Action(s)
	return a, knownActions[a]
}

// GetFallInterval は現在のレベルに基づいた自動落下間隔を計算して返します。
func GetFallInterval(level int) time.Duration {
	interval := InitialFallInterval - time.Duration(level-1)*FallIntervalStep
	if interval < MinFallInterval {
		interval = MinFallInterval
	}
	return interval
}

// CalculateScore は同時に消したライン数と現在のレベルから獲得スコアを計算します。
//
// Parameters:
//
//	clearedLines : 同時に消したライン数 (1-4)
//	level        : 加算前のレベル
//
// Returns:
//
//	int: 獲得スコア。1〜4ライン以外は0
func CalculateScore(clearedLines int, level int) int {
	baseScore := 0
	switch clearedLines {
	case 1: // Single
		baseScore = 100
	case 2: // Double
		baseScore = 300
	case 3: // Triple
		baseScore = 500
	case 4: // Tetris
		baseScore = 800
	}
	return baseScore * level
}

// ApplyPlayerInput はプレイヤーの入力（アクション）に基づいて、ゲーム状態を更新します。
// 人間の入力とAIの入力は同じ経路で適用されます。
//
// Parameters:
//
//	state  : 更新するプレイヤーのゲーム状態のポインタ
//	action : 実行するアクション（例: ActionMoveLeft, ActionRotate）
//
// Returns:
//
//	bool: ゲーム状態が実際に変更された場合はtrue、変更されなかった場合はfalse
func ApplyPlayerInput(state *PlayerGameState, action Action) bool {
	switch action {
	case ActionReset:
		state.reset(state.now)
		return true
	case ActionPause:
		if state.IsGameOver {
			return false
		}
		state.Paused = !state.Paused
		if state.Paused {
			state.emit(Event{Type: EventPause})
		} else {
			state.emit(Event{Type: EventResume})
		}
		return true
	case ActionSoftDropOn, ActionSoftDropOff:
		on := action == ActionSoftDropOn
		if state.IsGameOver || state.SoftDrop == on {
			return false
		}
		state.SoftDrop = on
		return true
	}

	if !state.AcceptsInput() {
		return false
	}

	switch action {
	case ActionMoveLeft, ActionMoveRight:
		dx := -1
		if action == ActionMoveRight {
			dx = 1
		}
		if !state.CurrentPiece.Move(&state.Board, dx, 0) {
			return false
		}
		state.emit(Event{Type: EventMove})
		return true
	case ActionRotate:
		if !state.CurrentPiece.Rotate(&state.Board) {
			return false
		}
		state.emit(Event{Type: EventRotate})
		return true
	case ActionHardDrop:
		state.CurrentPiece.HardDrop(&state.Board)
		handlePieceLock(state)
		return true
	case ActionHold:
		return state.Hold()
	}
	return false
}

// Update は1フレーム分ゲームを進めます。呼び出し側が毎フレーム現在時刻を渡します。
// 一時停止中は全てのタイマーを止め、落下・固定・アニメーションの遷移は起きません。
func Update(state *PlayerGameState, now time.Time) {
	elapsed := now.Sub(state.now)
	state.now = now

	if state.IsGameOver {
		return
	}
	if state.Paused {
		// タイマーを経過時間分ずらして凍結する
		state.lastFallTime = state.lastFallTime.Add(elapsed)
		state.clearStart = state.clearStart.Add(elapsed)
		return
	}

	if state.Phase == PhaseClearing {
		if now.Sub(state.clearStart) >= LineClearAnimationDuration {
			finishLineClearing(state)
		}
		return
	}

	interval := state.DropInterval
	if state.SoftDrop {
		interval /= SoftDropDivisor
	}
	if now.Sub(state.lastFallTime) < interval {
		return
	}
	if !state.CurrentPiece.Move(&state.Board, 0, 1) {
		handlePieceLock(state)
	}
	state.lastFallTime = now
}

// handlePieceLock は現在のピースをボードに固定し、ライン判定を行います。
// 揃ったラインがあれば消去アニメーションに入り、なければすぐに次のピースを出現させます。
func handlePieceLock(state *PlayerGameState) {
	if !state.Board.MergePiece(state.CurrentPiece) {
		// ボードより上で固定された
		state.setGameOver()
		log.Printf("[Game] Player %s locked above the grid. Final Score: %d, Lines Cleared: %d", state.UserID, state.Score, state.LinesCleared)
		return
	}
	state.emit(Event{Type: EventLock})

	rows := state.Board.CompletedLines()
	if len(rows) > 0 {
		state.Phase = PhaseClearing
		state.clearingRows = rows
		state.clearStart = state.now
		state.CurrentPiece = nil
		state.emit(Event{Type: EventLineClear, Rows: append([]int(nil), rows...)})
		return
	}

	state.SpawnNewPiece()
	if state.IsGameOver {
		log.Printf("[Game] Player %s Game Over! Final Score: %d, Lines Cleared: %d", state.UserID, state.Score, state.LinesCleared)
	}
}

// finishLineClearing はアニメーション終了後に実際にラインを消去し、スコア・レベル・落下速度を更新します。
func finishLineClearing(state *PlayerGameState) {
	cleared := state.Board.ClearLines(state.clearingRows)
	state.clearingRows = nil

	// スコアは更新前のレベルで計算する
	state.Score += CalculateScore(cleared, state.Level)
	state.LinesCleared += cleared

	oldLevel := state.Level
	state.Level = state.LinesCleared/LevelUpLines + 1
	if state.Level > oldLevel {
		state.emit(Event{Type: EventLevelUp, Level: state.Level})
	}
	state.DropInterval = GetFallInterval(state.Level)

	state.SpawnNewPiece()
	if state.IsGameOver {
		log.Printf("[Game] Player %s Game Over! Final Score: %d, Lines Cleared: %d", state.UserID, state.Score, state.LinesCleared)
	}
}
