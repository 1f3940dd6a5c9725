package tetris

import (
	"math"
	"math/rand"

	"github.com/progate-hackathon-strawberry-flavor/vibetris-backend/internal/models/tetris"
)

// AI が使う基本操作です。人間の入力と同じ Action として適用されます。
var aiMoveOptions = []Action{ActionMoveLeft, ActionMoveRight, ActionRotate, ActionHardDrop}

// minTargetX は探索する最も左の基準X座標です。回転後の形状は基準点より左に伸びることがあります。
const minTargetX = -2

// AIPlayer はゲーム状態を観察して操作を決める自動プレイヤーです。
// 盤面の状態は持たず、探索は全てボードとピースのコピー上で行います。
type AIPlayer struct {
	MistakeChance float64

	state      *PlayerGameState
	evaluator  Evaluator
	rng        *rand.Rand
	moveQueue  []Action
	plannedFor int // moveQueue を計画したときの PieceCount
}

// NewAIPlayer は指定されたゲーム状態を操作するAIを返します。
//
// Parameters:
//
//	state         : 操作対象のゲーム状態
//	mistakeChance : 最善手を捨ててミスをする確率 (0〜1)
//	rng           : ミス判定用の乱数ジェネレータ
func NewAIPlayer(state *PlayerGameState, mistakeChance float64, rng *rand.Rand) *AIPlayer {
	return &AIPlayer{
		MistakeChance: mistakeChance,
		state:         state,
		evaluator:     NewHeuristicEvaluator(),
		rng:           rng,
	}
}

// SetEvaluator は盤面評価器を差し替えます。
func (ai *AIPlayer) SetEvaluator(e Evaluator) {
	ai.evaluator = e
}

// PendingMoves は計画済みでまだ実行していない操作です。
func (ai *AIPlayer) PendingMoves() []Action {
	return append([]Action(nil), ai.moveQueue...)
}

// DecideMove は次に実行する操作を1つ返します。
// キューが空なら現在のピースについて計画を立て直します。
func (ai *AIPlayer) DecideMove() Action {
	if len(ai.moveQueue) > 0 && ai.plannedFor != ai.state.PieceCount {
		// 計画後にピースが変わった (自動落下で固定された等)
		ai.moveQueue = nil
	}
	if len(ai.moveQueue) == 0 {
		best, ok := ai.BestMoves()
		if !ok {
			return ActionHardDrop
		}
		ai.moveQueue = ai.applyMistake(best)
		ai.plannedFor = ai.state.PieceCount
	}

	move := ai.moveQueue[0]
	ai.moveQueue = ai.moveQueue[1:]
	return move
}

// ExecuteMove は次の操作を決めてゲーム状態に適用し、実行した操作を返します。
// 操作を受け付けない状態 (一時停止・アニメーション中・ゲームオーバー) では何もせず false を返します。
func (ai *AIPlayer) ExecuteMove() (Action, bool) {
	if !ai.state.AcceptsInput() {
		return "", false
	}
	move := ai.DecideMove()
	ApplyPlayerInput(ai.state, move)
	return move, true
}

// BestMoves は全ての回転状態と基準X座標の組み合わせを試し、最も評価の高い操作列を返します。
// 同点の場合は先に見つかった (回転が小さく、Xが小さい) 候補を採用します。
// 到達可能な候補が1つもなければ false を返します。
func (ai *AIPlayer) BestMoves() ([]Action, bool) {
	piece := ai.state.CurrentPiece
	if piece == nil {
		return nil, false
	}
	board := ai.state.Board

	bestScore := math.Inf(-1)
	var bestMoves []Action

	for rotation := 0; rotation < 4; rotation++ {
		for targetX := minTargetX; targetX < tetris.BoardWidth; targetX++ {
			moves, score, ok := ai.simulate(&board, piece, rotation, targetX)
			if !ok {
				continue
			}
			if score > bestScore {
				bestScore = score
				bestMoves = moves
			}
		}
	}
	return bestMoves, bestMoves != nil
}

// simulate はピースのコピーを回転・横移動させ、ボードのコピー上で落として評価します。
func (ai *AIPlayer) simulate(board *tetris.Board, piece *tetris.Piece, rotation, targetX int) ([]Action, float64, bool) {
	test := piece.Clone()
	var moves []Action

	for i := 0; i < rotation; i++ {
		if !test.Rotate(board) {
			break
		}
		moves = append(moves, ActionRotate)
	}

	for test.X < targetX {
		if !test.Move(board, 1, 0) {
			break
		}
		moves = append(moves, ActionMoveRight)
	}
	for test.X > targetX {
		if !test.Move(board, -1, 0) {
			break
		}
		moves = append(moves, ActionMoveLeft)
	}
	if test.X != targetX {
		return nil, 0, false
	}

	scratch := *board
	test.HardDrop(&scratch)
	scratch.StampPiece(test)

	moves = append(moves, ActionHardDrop)
	return moves, ai.evaluator.Evaluate(&scratch), true
}

// applyMistake は MistakeChance の確率で最善手を崩します。
// 半分の確率でランダムな操作1つに置き換え、残りは先頭の操作を回転に変えます
// (操作が1つしかない場合はハードドロップだけにします)。
func (ai *AIPlayer) applyMistake(best []Action) []Action {
	if ai.rng.Float64() >= ai.MistakeChance {
		return best
	}
	if ai.rng.Intn(2) == 0 {
		return []Action{aiMoveOptions[ai.rng.Intn(len(aiMoveOptions))]}
	}
	if len(best) > 1 {
		return append([]Action{ActionRotate}, best[1:]...)
	}
	return []Action{ActionHardDrop}
}
