package tetris

// PieceType はテトリミノの種類を表します。
type PieceType int

const (
	TypeI PieceType = iota // 0: I-ミノ (シアン)
	TypeO                  // 1: O-ミノ (黄色)
	TypeT                  // 2: T-ミノ (紫)
	TypeS                  // 3: S-ミノ (緑)
	TypeZ                  // 4: Z-ミノ (赤)
	TypeJ                  // 5: J-ミノ (青)
	TypeL                  // 6: L-ミノ (オレンジ)
)

// AllPieceTypes は全7種類のテトリミノです。バッグの補充に使用します。
var AllPieceTypes = []PieceType{TypeI, TypeO, TypeT, TypeS, TypeZ, TypeJ, TypeL}

// Color はブロックの表示色 (RGB) です。描画側が使用します。
type Color struct {
	R uint8 `json:"r"`
	G uint8 `json:"g"`
	B uint8 `json:"b"`
}

// pieceTemplates は各PieceTypeの回転0での4ブロックの相対座標 (x, y) です。
// 回転1〜3の形状は Offsets で幾何変換により計算します。
var pieceTemplates = map[PieceType][4][2]int{
	TypeI: {{0, 0}, {0, 1}, {0, 2}, {0, 3}},
	TypeJ: {{0, 0}, {1, 0}, {1, 1}, {1, 2}},
	TypeL: {{0, 2}, {1, 0}, {1, 1}, {1, 2}},
	TypeO: {{0, 0}, {0, 1}, {1, 0}, {1, 1}},
	TypeS: {{0, 1}, {0, 2}, {1, 0}, {1, 1}},
	TypeT: {{0, 1}, {1, 0}, {1, 1}, {1, 2}},
	TypeZ: {{0, 0}, {0, 1}, {1, 1}, {1, 2}},
}

var pieceColors = map[PieceType]Color{
	TypeI: {0, 255, 255},
	TypeJ: {0, 0, 255},
	TypeL: {255, 165, 0},
	TypeO: {255, 255, 0},
	TypeS: {0, 255, 0},
	TypeT: {128, 0, 128},
	TypeZ: {255, 0, 0},
}

// Template はPieceTypeの回転0の形状を返します。
func (t PieceType) Template() [4][2]int {
	return pieceTemplates[t]
}

// Color はPieceTypeの色を返します。
func (t PieceType) Color() Color {
	return pieceColors[t]
}

// Block はPieceTypeがボードに固定されたときのBlockTypeを返します。
func (t PieceType) Block() BlockType {
	return BlockType(t + 1) // PieceType (0-6) を BlockType (1-7) に変換
}

func (t PieceType) String() string {
	return PieceTypeToString(t)
}

// SpawnX, SpawnY は新しいピースの出現位置 (ボード中央上部) です。
const (
	SpawnX = BoardWidth/2 - 1
	SpawnY = 0
)

// Piece はテトリミノの現在の状態（種類、ボード上の基準点座標、回転状態）を表します。
type Piece struct {
	Type     PieceType `json:"type"`     // テトリミノの種類
	X        int       `json:"x"`        // ボード上のX座標
	Y        int       `json:"y"`        // ボード上のY座標
	Rotation int       `json:"rotation"` // 回転状態 (0, 1, 2, 3)
}

// NewPiece は出現位置・回転0の新しいピースを返します。
func NewPiece(t PieceType) *Piece {
	return &Piece{Type: t, X: SpawnX, Y: SpawnY}
}

// wallKickOffsets は回転時に順番に試す位置補正 (dx, dy) です。
var wallKickOffsets = [][2]int{
	{0, 0},
	{1, 0},
	{-1, 0},
	{0, -1},
	{1, -1},
	{-1, -1},
	{0, 2},
}

// iPieceExtraKicks はI-ミノのみ追加で試す補正です。
var iPieceExtraKicks = [][2]int{
	{2, 0},
	{-2, 0},
}

// Offsets は指定された回転状態でのブロックの相対座標を返します。
//
// 回転1: (x,y)→(−y,x)、回転2: (x,y)→(−x,−y)、回転3: (x,y)→(y,−x)
func (p *Piece) Offsets(rotation int) [4][2]int {
	tmpl := p.Type.Template()
	var out [4][2]int
	for i, b := range tmpl {
		x, y := b[0], b[1]
		switch ((rotation % 4) + 4) % 4 {
		case 0:
			out[i] = [2]int{x, y}
		case 1:
			out[i] = [2]int{-y, x}
		case 2:
			out[i] = [2]int{-x, -y}
		case 3:
			out[i] = [2]int{y, -x}
		}
	}
	return out
}

// Blocks は現在の回転状態でのブロックの相対座標を返します。
func (p *Piece) Blocks() [4][2]int {
	return p.Offsets(p.Rotation)
}

// Cells は現在の位置と回転状態でのボード上の絶対座標を返します。
func (p *Piece) Cells() [4][2]int {
	var cells [4][2]int
	for i, b := range p.Blocks() {
		cells[i] = [2]int{p.X + b[0], p.Y + b[1]}
	}
	return cells
}

// IsValidPosition は現在の位置と回転がボード上で有効かどうかを判定します。
func (p *Piece) IsValidPosition(b *Board) bool {
	return !b.HasCollision(p, 0, 0)
}

// Move はピースを (dx, dy) だけ移動させます。
// 移動先が無効な場合は位置を変えずに false を返します。
func (p *Piece) Move(b *Board, dx, dy int) bool {
	if b.HasCollision(p, dx, dy) {
		return false
	}
	p.X += dx
	p.Y += dy
	return true
}

// Rotate はピースを時計回りに回転させ、壁蹴り補正を順に試します。
// どの補正でも有効な位置が見つからなければ回転と位置を元に戻して false を返します。
func (p *Piece) Rotate(b *Board) bool {
	oldRotation := p.Rotation
	p.Rotation = (p.Rotation + 1) % 4

	kicks := wallKickOffsets
	if p.Type == TypeI {
		kicks = append(append([][2]int{}, wallKickOffsets...), iPieceExtraKicks...)
	}
	for _, k := range kicks {
		if !b.HasCollision(p, k[0], k[1]) {
			p.X += k[0]
			p.Y += k[1]
			return true
		}
	}

	p.Rotation = oldRotation
	return false
}

// HardDrop はピースを衝突するまで落下させ、落下した行数を返します。
func (p *Piece) HardDrop(b *Board) int {
	rows := 0
	for p.Move(b, 0, 1) {
		rows++
	}
	return rows
}

// GhostPosition はハードドロップした場合の着地位置を返します。ピース自体は変更しません。
func (p *Piece) GhostPosition(b *Board) (int, int) {
	dy := 0
	for !b.HasCollision(p, 0, dy+1) {
		dy++
	}
	return p.X, p.Y + dy
}

// Clone は現在のPieceオブジェクトのディープコピーを返します。
// これにより、操作前のピースの状態を保持しつつ、操作後の状態を仮に試すことができます。
func (p *Piece) Clone() *Piece {
	newP := *p
	return &newP
}

// StringToPieceType は文字列のテトリミノタイプ（"I", "O", "T"など）をPieceTypeに変換します。
func StringToPieceType(s string) (PieceType, bool) {
	switch s {
	case "I":
		return TypeI, true
	case "O":
		return TypeO, true
	case "T":
		return TypeT, true
	case "S":
		return TypeS, true
	case "Z":
		return TypeZ, true
	case "J":
		return TypeJ, true
	case "L":
		return TypeL, true
	default:
		return TypeI, false
	}
}

// PieceTypeToString はPieceTypeを文字列表現に変換します。
func PieceTypeToString(t PieceType) string {
	switch t {
	case TypeI:
		return "I"
	case TypeO:
		return "O"
	case TypeT:
		return "T"
	case TypeS:
		return "S"
	case TypeZ:
		return "Z"
	case TypeJ:
		return "J"
	case TypeL:
		return "L"
	default:
		return "?"
	}
}
