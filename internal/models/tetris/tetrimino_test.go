package tetris

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestOffsets_RotationTransform(t *testing.T) {
	p := &Piece{Type: TypeT}

	assert.Equal(t, [4][2]int{{0, 1}, {1, 0}, {1, 1}, {1, 2}}, p.Offsets(0))
	assert.Equal(t, [4][2]int{{-1, 0}, {0, 1}, {-1, 1}, {-2, 1}}, p.Offsets(1))
	assert.Equal(t, [4][2]int{{0, -1}, {-1, 0}, {-1, -1}, {-1, -2}}, p.Offsets(2))
	assert.Equal(t, [4][2]int{{1, 0}, {0, -1}, {1, -1}, {2, -1}}, p.Offsets(3))
}

func TestRotate_FourRotationsRestoreCells(t *testing.T) {
	board := NewBoard()
	for _, pt := range AllPieceTypes {
		p := &Piece{Type: pt, X: 4, Y: 8}
		before := p.Cells()
		for i := 0; i < 4; i++ {
			require.True(t, p.Rotate(&board), "piece %s rotation %d", pt, i)
		}
		assert.Equal(t, 0, p.Rotation, "piece %s", pt)
		assert.Equal(t, before, p.Cells(), "piece %s", pt)
	}
}

func TestMove_LeftWall(t *testing.T) {
	board := NewBoard()
	p := &Piece{Type: TypeI, X: 0, Y: 5}

	assert.False(t, p.Move(&board, -1, 0))
	assert.Equal(t, 0, p.X)
	assert.Equal(t, 5, p.Y)

	assert.True(t, p.Move(&board, 1, 0))
	assert.Equal(t, 1, p.X)
}

func TestMove_BlockedByStack(t *testing.T) {
	board := NewBoard()
	board[10][4] = BlockZ
	p := &Piece{Type: TypeO, X: 4, Y: 8} // cells y 8..9

	assert.False(t, p.Move(&board, 0, 1))
	assert.Equal(t, 8, p.Y)
}

func TestRotate_WallKickShiftsRight(t *testing.T) {
	board := NewBoard()
	// 回転1のIは基準点から左に3マス伸びるので、X=2では (1,0) の補正が必要
	p := &Piece{Type: TypeI, X: 2, Y: 5}

	require.True(t, p.Rotate(&board))
	assert.Equal(t, 1, p.Rotation)
	assert.Equal(t, 3, p.X)
	assert.Equal(t, 5, p.Y)
}

func TestRotate_IPieceExtraKick(t *testing.T) {
	board := NewBoard()
	p := &Piece{Type: TypeI, X: 1, Y: 5}

	require.True(t, p.Rotate(&board))
	assert.Equal(t, 1, p.Rotation)
	assert.Equal(t, 3, p.X, "only the (2,0) kick reaches a valid column")
}

func TestRotate_FailureRevertsState(t *testing.T) {
	board := NewBoard()
	p := &Piece{Type: TypeI, X: 0, Y: 5}

	assert.False(t, p.Rotate(&board))
	assert.Equal(t, 0, p.Rotation)
	assert.Equal(t, 0, p.X)
	assert.Equal(t, 5, p.Y)
}

func TestIsValidPosition_AboveGridAllowed(t *testing.T) {
	board := NewBoard()
	p := &Piece{Type: TypeI, X: 4, Y: -2}
	assert.True(t, p.IsValidPosition(&board))

	p.X = BoardWidth
	assert.False(t, p.IsValidPosition(&board))

	p.X, p.Y = 4, BoardHeight-3 // 最下段を1つはみ出す
	assert.False(t, p.IsValidPosition(&board))
}

func TestGhostPosition(t *testing.T) {
	board := NewBoard()
	p := NewPiece(TypeO)

	x, y := p.GhostPosition(&board)
	assert.Equal(t, SpawnX, x)
	assert.Equal(t, BoardHeight-2, y)
	assert.Equal(t, SpawnY, p.Y, "ghost must not move the piece")

	board[12][SpawnX] = BlockJ
	_, y = p.GhostPosition(&board)
	assert.Equal(t, 10, y)
}

func TestHardDrop_NeverOverlapsStack(t *testing.T) {
	board := NewBoard()
	for x := 0; x < BoardWidth; x++ {
		board[BoardHeight-1][x] = BlockS
	}
	board[BoardHeight-2][SpawnX] = BlockS

	for _, pt := range AllPieceTypes {
		b := board
		p := NewPiece(pt)
		p.HardDrop(&b)
		require.True(t, p.IsValidPosition(&b), "piece %s", pt)
		assert.False(t, p.Move(&b, 0, 1), "piece %s should rest on the stack", pt)
	}
}

func TestStringToPieceType(t *testing.T) {
	for _, pt := range AllPieceTypes {
		got, ok := StringToPieceType(PieceTypeToString(pt))
		assert.True(t, ok)
		assert.Equal(t, pt, got)
	}
	_, ok := StringToPieceType("X")
	assert.False(t, ok)
}

func TestClone_IsIndependent(t *testing.T) {
	p := NewPiece(TypeL)
	c := p.Clone()
	c.X++
	c.Rotation = 2
	assert.Equal(t, SpawnX, p.X)
	assert.Equal(t, 0, p.Rotation)
}
