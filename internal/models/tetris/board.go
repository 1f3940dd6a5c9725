package tetris

import "sort"

const (
	BoardWidth  = 10 // テトリスボードの幅
	BoardHeight = 20 // テトリスボードの高さ（表示部分）
)

// BlockType はボード上のマスの状態を表します。
// BlockEmpty が空のマス、それ以外は固定されたテトリミノ由来のブロックです。
type BlockType int

const (
	BlockEmpty BlockType = iota // 0: 空のマス
	BlockI                      // 1: I-テトリミノ由来のブロック (PieceType 0 + 1)
	BlockO                      // 2: O-テトリミノ由来のブロック (PieceType 1 + 1)
	BlockT                      // 3: T-テトリミノ由来のブロック (PieceType 2 + 1)
	BlockS                      // 4: S-テトリミノ由来のブロック (PieceType 3 + 1)
	BlockZ                      // 5: Z-テトリミノ由来のブロック (PieceType 4 + 1)
	BlockJ                      // 6: J-テトリミノ由来のブロック (PieceType 5 + 1)
	BlockL                      // 7: L-テトリミノ由来のブロック (PieceType 6 + 1)
)

// IsEmpty はマスが空かどうかを返します。
func (bt BlockType) IsEmpty() bool {
	return bt == BlockEmpty
}

// PieceType はブロックの元になったテトリミノの種類を返します。空のマスでは false を返します。
func (bt BlockType) PieceType() (PieceType, bool) {
	if bt < BlockI || bt > BlockL {
		return 0, false
	}
	return PieceType(bt - 1), true
}

// Color はブロックの表示色を返します。空のマスは黒です。
func (bt BlockType) Color() Color {
	t, ok := bt.PieceType()
	if !ok {
		return Color{}
	}
	return t.Color()
}

// Board はテトリスのゲームボードを表す2次元配列です。
// Board[y][x] でアクセスします。yは行、xは列です。
// 配列なので代入でディープコピーされます（AIの探索はこれを利用します）。
type Board [BoardHeight][BoardWidth]BlockType

// NewBoard は新しい空のボードを初期化して返します。
func NewBoard() Board {
	var board Board
	return board
}

// HasCollision は指定されたピースが位置 (p.X+dx, p.Y+dy) で
// 壁や既存のブロックと衝突するかどうかを判定します。
//
// Parameters:
//
//	p  : 衝突判定を行うテトリミノのポインタ
//	dx : X軸方向の移動量
//	dy : Y軸方向の移動量
//
// Returns:
//
//	bool: 衝突する場合はtrue、しない場合はfalse
func (b *Board) HasCollision(p *Piece, dx, dy int) bool {
	for _, block := range p.Blocks() {
		x := p.X + block[0] + dx
		y := p.Y + block[1] + dy

		if x < 0 || x >= BoardWidth || y >= BoardHeight {
			return true // 左右の壁、または下部との衝突
		}
		// y < 0 (ボードより上) は許可。既存ブロックとの衝突はボード内のみ判定する
		if y >= 0 && b[y][x] != BlockEmpty {
			return true
		}
	}
	return false
}

// MergePiece は落下したピースをボードに固定します。
// ブロックがボードより上 (y < 0) にある場合はそこで書き込みを止めて false を返します。
// 呼び出し側はこれをゲームオーバーとして扱います。
func (b *Board) MergePiece(p *Piece) bool {
	for _, c := range p.Cells() {
		x, y := c[0], c[1]
		if y < 0 {
			return false
		}
		if x >= 0 && x < BoardWidth && y < BoardHeight {
			b[y][x] = p.Type.Block()
		}
	}
	return true
}

// StampPiece はボード内に入るブロックだけを書き込みます。ボードより上のブロックは無視します。
// 実際の固定ではなく、AIの探索でコピーしたボードに置くときに使います。
func (b *Board) StampPiece(p *Piece) {
	for _, c := range p.Cells() {
		x, y := c[0], c[1]
		if x >= 0 && x < BoardWidth && y >= 0 && y < BoardHeight {
			b[y][x] = p.Type.Block()
		}
	}
}

// IsLineFull は指定した行が全て埋まっているかを返します。
func (b *Board) IsLineFull(y int) bool {
	for x := 0; x < BoardWidth; x++ {
		if b[y][x] == BlockEmpty {
			return false
		}
	}
	return true
}

// CompletedLines は揃った行のインデックスを上から順に返します。
func (b *Board) CompletedLines() []int {
	var rows []int
	for y := 0; y < BoardHeight; y++ {
		if b.IsLineFull(y) {
			rows = append(rows, y)
		}
	}
	return rows
}

// ClearLines は指定された行を削除し、上の行を1段ずつ落とします。
// 複数行は昇順に1行ずつ処理するので、同時消しでも通常の詰め方と同じ結果になります。
// 削除した行数を返します。
func (b *Board) ClearLines(rows []int) int {
	sorted := append([]int(nil), rows...)
	sort.Ints(sorted)

	cleared := 0
	for _, row := range sorted {
		if row < 0 || row >= BoardHeight {
			continue
		}
		for y := row; y > 0; y-- {
			b[y] = b[y-1]
		}
		b[0] = [BoardWidth]BlockType{}
		cleared++
	}
	return cleared
}

// FilledCells はボード上のブロック数を返します。
func (b *Board) FilledCells() int {
	n := 0
	for y := 0; y < BoardHeight; y++ {
		for x := 0; x < BoardWidth; x++ {
			if b[y][x] != BlockEmpty {
				n++
			}
		}
	}
	return n
}

// ColumnHeight は列の高さ (最も上のブロックから底までの段数) を返します。空の列は0です。
func (b *Board) ColumnHeight(x int) int {
	for y := 0; y < BoardHeight; y++ {
		if b[y][x] != BlockEmpty {
			return BoardHeight - y
		}
	}
	return 0
}

// ColumnHeights は全列の高さを返します。
func (b *Board) ColumnHeights() [BoardWidth]int {
	var heights [BoardWidth]int
	for x := 0; x < BoardWidth; x++ {
		heights[x] = b.ColumnHeight(x)
	}
	return heights
}

// Holes は上にブロックがある空きマスの数を返します。
func (b *Board) Holes() int {
	holes := 0
	for x := 0; x < BoardWidth; x++ {
		blockFound := false
		for y := 0; y < BoardHeight; y++ {
			if b[y][x] != BlockEmpty {
				blockFound = true
			} else if blockFound {
				holes++
			}
		}
	}
	return holes
}
