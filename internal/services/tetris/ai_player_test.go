package tetris

import (
	"fmt"
	"math/rand"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/google/go-cmp/cmp/cmpopts"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/progate-hackathon-strawberry-flavor/vibetris-backend/internal/models/tetris"
)

func newTestAI(t *testing.T, state *PlayerGameState, mistakeChance float64) *AIPlayer {
	t.Helper()
	return NewAIPlayer(state, mistakeChance, rand.New(rand.NewSource(7)))
}

// assertPlanShape は操作列が「回転・横移動の後にハードドロップ1回」の形であることを確認します。
func assertPlanShape(t *testing.T, plan []Action) {
	t.Helper()
	require.NotEmpty(t, plan)
	assert.Equal(t, ActionHardDrop, plan[len(plan)-1])
	for _, a := range plan[:len(plan)-1] {
		assert.Contains(t, []Action{ActionRotate, ActionMoveLeft, ActionMoveRight}, a)
	}
}

func TestBestMoves_EveryPieceTypeAndRotation(t *testing.T) {
	for _, pt := range tetris.AllPieceTypes {
		for rotation := 0; rotation < 4; rotation++ {
			t.Run(fmt.Sprintf("%s/rotation%d", pt, rotation), func(t *testing.T) {
				state := newTestState(t)
				state.CurrentPiece = tetris.NewPiece(pt)
				state.CurrentPiece.Y = 3
				state.CurrentPiece.Rotation = rotation
				require.True(t, state.CurrentPiece.IsValidPosition(&state.Board))

				plan, ok := newTestAI(t, state, 0).BestMoves()
				require.True(t, ok)
				assertPlanShape(t, plan)
			})
		}
	}
}

func TestBestMoves_DoesNotTouchState(t *testing.T) {
	state := newTestState(t)
	fillRowsExcept(&state.Board, []int{17, 18, 19}, 0, 3)
	board := state.Board
	piece := *state.CurrentPiece

	_, ok := newTestAI(t, state, 0).BestMoves()
	require.True(t, ok)

	assert.Empty(t, cmp.Diff(board, state.Board))
	assert.Equal(t, piece, *state.CurrentPiece)
}

func TestBestMoves_FillsWell(t *testing.T) {
	state := newTestState(t)
	fillRowsExcept(&state.Board, []int{16, 17, 18, 19}, 9)
	state.CurrentPiece = tetris.NewPiece(tetris.TypeI)

	plan, ok := newTestAI(t, state, 0).BestMoves()
	require.True(t, ok)

	want := []Action{ActionMoveRight, ActionMoveRight, ActionMoveRight, ActionMoveRight, ActionMoveRight, ActionHardDrop}
	if diff := cmp.Diff(want, plan); diff != "" {
		t.Errorf("plan mismatch (-want +got):\n%s", diff)
	}
}

func TestExecuteMove_PlaysPlanThroughInputs(t *testing.T) {
	state := newTestState(t)
	fillRowsExcept(&state.Board, []int{16, 17, 18, 19}, 9)
	state.CurrentPiece = tetris.NewPiece(tetris.TypeI)
	ai := newTestAI(t, state, 0)

	var played []Action
	for i := 0; i < 6; i++ {
		move, ok := ai.ExecuteMove()
		require.True(t, ok)
		played = append(played, move)
	}

	assert.Equal(t, ActionHardDrop, played[len(played)-1])
	assert.Equal(t, PhaseClearing, state.Phase)
	assert.Equal(t, []int{16, 17, 18, 19}, state.ClearingRows())

	// アニメーション中は何もしない
	_, ok := ai.ExecuteMove()
	assert.False(t, ok)
}

func TestExecuteMove_IdleWhilePaused(t *testing.T) {
	state := newTestState(t)
	ai := newTestAI(t, state, 0)
	ApplyPlayerInput(state, ActionPause)
	x := state.CurrentPiece.X

	_, ok := ai.ExecuteMove()

	assert.False(t, ok)
	assert.Empty(t, ai.PendingMoves(), "一時停止中は計画も立てない")
	assert.Equal(t, x, state.CurrentPiece.X)
}

func TestDecideMove_ReplansWhenPieceChanges(t *testing.T) {
	state := newTestState(t)
	state.CurrentPiece = tetris.NewPiece(tetris.TypeI)
	state.CurrentPiece.Y = 3
	ai := newTestAI(t, state, 0)

	ai.DecideMove()
	require.NotEmpty(t, ai.PendingMoves())

	// 計画後にピースが入れ替わった
	state.SpawnNewPiece()
	expected, ok := ai.BestMoves()
	require.True(t, ok)

	assert.Equal(t, expected[0], ai.DecideMove())
	if diff := cmp.Diff(expected[1:], ai.PendingMoves(), cmpopts.EquateEmpty()); diff != "" {
		t.Errorf("pending moves mismatch (-want +got):\n%s", diff)
	}
}

func TestDecideMove_NoPieceFallsBackToHardDrop(t *testing.T) {
	state := newTestState(t)
	state.CurrentPiece = nil

	assert.Equal(t, ActionHardDrop, newTestAI(t, state, 0).DecideMove())
}

func TestApplyMistake(t *testing.T) {
	best := []Action{ActionMoveLeft, ActionMoveLeft, ActionHardDrop}
	sawRandom, sawRotate := false, false

	for seed := int64(1); seed <= 100; seed++ {
		ai := NewAIPlayer(newTestState(t), 1, rand.New(rand.NewSource(seed)))
		got := ai.applyMistake(best)

		switch len(got) {
		case 1:
			sawRandom = true
			assert.Contains(t, aiMoveOptions, got[0])
		case len(best):
			sawRotate = true
			if diff := cmp.Diff(append([]Action{ActionRotate}, best[1:]...), got); diff != "" {
				t.Errorf("seed %d (-want +got):\n%s", seed, diff)
			}
		default:
			t.Fatalf("seed %d: unexpected mistake %v", seed, got)
		}
	}
	assert.True(t, sawRandom)
	assert.True(t, sawRotate)

	// 操作が1つだけならハードドロップだけになる
	for seed := int64(1); seed <= 20; seed++ {
		ai := NewAIPlayer(newTestState(t), 1, rand.New(rand.NewSource(seed)))
		got := ai.applyMistake([]Action{ActionHardDrop})
		require.Len(t, got, 1)
		assert.Contains(t, aiMoveOptions, got[0])
	}
}

func TestApplyMistake_NeverWithZeroChance(t *testing.T) {
	best := []Action{ActionRotate, ActionMoveRight, ActionHardDrop}
	ai := newTestAI(t, newTestState(t), 0)

	for i := 0; i < 50; i++ {
		assert.Equal(t, best, ai.applyMistake(best))
	}
}

// countingEvaluator は呼ばれた回数を数えるだけの評価器です。
type countingEvaluator struct{ calls int }

func (c *countingEvaluator) Evaluate(*tetris.Board) float64 {
	c.calls++
	return 0
}

func TestSetEvaluator(t *testing.T) {
	state := newTestState(t)
	state.CurrentPiece = tetris.NewPiece(tetris.TypeO)
	ai := newTestAI(t, state, 0)
	counter := &countingEvaluator{}
	ai.SetEvaluator(counter)

	plan, ok := ai.BestMoves()
	require.True(t, ok)

	assert.Greater(t, counter.calls, 0)
	// 全候補が同点なら最初の候補 (回転0、最も左) を選ぶ
	want := []Action{ActionMoveLeft, ActionMoveLeft, ActionMoveLeft, ActionMoveLeft, ActionHardDrop}
	if diff := cmp.Diff(want, plan); diff != "" {
		t.Errorf("plan mismatch (-want +got):\n%s", diff)
	}
}

// recordingEvaluator は評価された盤面の埋まったマス数を記録します。
type recordingEvaluator struct{ filled []int }

func (r *recordingEvaluator) Evaluate(b *tetris.Board) float64 {
	r.filled = append(r.filled, b.FilledCells())
	return 0
}

func TestBestMoves_StampsCellsWhenLandingAboveGrid(t *testing.T) {
	state := newTestState(t)
	rows := make([]int, 0, tetris.BoardHeight-1)
	for y := 1; y < tetris.BoardHeight; y++ {
		rows = append(rows, y)
	}
	fillRowsExcept(&state.Board, rows)
	before := state.Board.FilledCells()
	state.CurrentPiece = tetris.NewPiece(tetris.TypeI)
	state.CurrentPiece.Y = -3

	ai := newTestAI(t, state, 0)
	recorder := &recordingEvaluator{}
	ai.SetEvaluator(recorder)

	_, ok := ai.BestMoves()
	require.True(t, ok)
	require.NotEmpty(t, recorder.filled)
	// ボードからはみ出す候補でも、ボード内に入ったマスは盤面に置かれる
	for _, n := range recorder.filled {
		assert.Greater(t, n, before)
	}
}
