package tetris

import (
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
)

func fillRow(b *Board, y int, bt BlockType) {
	for x := 0; x < BoardWidth; x++ {
		b[y][x] = bt
	}
}

func TestNewBoard(t *testing.T) {
	board := NewBoard()
	assert.Equal(t, BoardHeight, len(board))
	assert.Equal(t, BoardWidth, len(board[0]))
	assert.Equal(t, 0, board.FilledCells())
}

func TestClearLines_SingleRowLeavesEmptyBoard(t *testing.T) {
	board := NewBoard()
	fillRow(&board, 5, BlockT)

	assert.Equal(t, []int{5}, board.CompletedLines())
	assert.Equal(t, 1, board.ClearLines([]int{5}))
	assert.Equal(t, 0, board.FilledCells())
}

func TestClearLines_NonContiguousRowsCollapse(t *testing.T) {
	board := NewBoard()
	board[16][5] = BlockL
	fillRow(&board, 17, BlockI)
	board[18][3] = BlockO
	fillRow(&board, 19, BlockI)

	rows := board.CompletedLines()
	assert.Equal(t, []int{17, 19}, rows)
	assert.Equal(t, 2, board.ClearLines(rows))

	want := NewBoard()
	want[18][5] = BlockL
	want[19][3] = BlockO
	if diff := cmp.Diff(want, board); diff != "" {
		t.Errorf("board mismatch (-want +got):\n%s", diff)
	}
}

func TestClearLines_UnsortedInput(t *testing.T) {
	board := NewBoard()
	board[17][0] = BlockJ
	fillRow(&board, 18, BlockS)
	fillRow(&board, 19, BlockZ)

	assert.Equal(t, 2, board.ClearLines([]int{19, 18}))

	want := NewBoard()
	want[19][0] = BlockJ
	if diff := cmp.Diff(want, board); diff != "" {
		t.Errorf("board mismatch (-want +got):\n%s", diff)
	}
}

func TestMergePiece(t *testing.T) {
	board := NewBoard()
	p := &Piece{Type: TypeO, X: 0, Y: 18}

	assert.True(t, board.MergePiece(p))
	assert.Equal(t, BlockO, board[18][0])
	assert.Equal(t, BlockO, board[19][1])
	assert.Equal(t, 4, board.FilledCells())
}

func TestMergePiece_AboveTopFails(t *testing.T) {
	board := NewBoard()
	p := &Piece{Type: TypeI, X: 4, Y: -2}

	assert.False(t, board.MergePiece(p))
	assert.Equal(t, 0, board.FilledCells())
}

func TestStampPiece_WritesOnlyCellsInsideBoard(t *testing.T) {
	board := NewBoard()
	p := &Piece{Type: TypeI, X: 4, Y: -2}

	board.StampPiece(p)

	// 縦のIは y=-2..1 なので y=0,1 の2マスだけ書き込まれる
	assert.Equal(t, 2, board.FilledCells())
	assert.Equal(t, BlockI, board[0][4])
	assert.Equal(t, BlockI, board[1][4])
}

func TestColumnHeightsAndHoles(t *testing.T) {
	board := NewBoard()
	board[15][0] = BlockT
	board[19][0] = BlockT
	board[19][1] = BlockT

	heights := board.ColumnHeights()
	assert.Equal(t, 5, heights[0])
	assert.Equal(t, 1, heights[1])
	assert.Equal(t, 0, heights[2])
	assert.Equal(t, 3, board.Holes())
}

func TestBlockType_Color(t *testing.T) {
	assert.Equal(t, Color{}, BlockEmpty.Color())
	assert.Equal(t, Color{0, 255, 255}, TypeI.Block().Color())
	assert.Equal(t, Color{128, 0, 128}, BlockT.Color())
}
