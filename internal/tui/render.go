package tui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/progate-hackathon-strawberry-flavor/vibetris-backend/internal/models/tetris"
	game "github.com/progate-hackathon-strawberry-flavor/vibetris-backend/internal/services/tetris"
)

const cellText = "  "

var (
	borderStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("15"))
	titleStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("226")).Bold(true)
	helpStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("250"))
	warningStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("196")).Bold(true)
)

var keyHelp = []string{
	"Arrows/HJL: move",
	"Up/X: rotate",
	"Down/J: soft drop",
	"Space: hard drop",
	"C: hold",
	"P: pause",
	"R: reset",
	"Q: quit",
}

func viewMatch(m Model) string {
	snap := m.match.Snapshot()

	playerTitle := "YOU"
	if snap.Mode == game.ModeDemo {
		playerTitle = fmt.Sprintf("AI (%s)", snap.Difficulty)
	}
	columns := []string{
		renderSession(snap.Player, playerTitle),
		renderInfo(m, snap),
	}
	if snap.Opponent != nil {
		columns = append(columns, renderSession(*snap.Opponent, fmt.Sprintf("AI (%s)", snap.Difficulty)))
	}
	return center(m.width, m.height, lipgloss.JoinHorizontal(lipgloss.Top, columns...))
}

func renderSession(s game.SessionSnapshot, title string) string {
	return lipgloss.JoinVertical(
		lipgloss.Left,
		titleStyle.Render(title),
		renderBoard(s),
		helpStyle.Render(fmt.Sprintf("Score %d  Lines %d  Lv %d", s.Score, s.LinesCleared, s.Level)),
	)
}

// renderBoard は固定ブロック・操作中のピース・ゴーストを描画します。
// 消去中の行は点滅の強さに応じて白に近づけます。
func renderBoard(s game.SessionSnapshot) string {
	var ghost [tetris.BoardHeight][tetris.BoardWidth]bool
	board := s.Board
	if p := s.CurrentPiece; p != nil {
		pieceBlock := pieceBlockType(p.Type)
		if s.Ghost != nil {
			dy := s.Ghost.Y - p.Y
			for _, c := range p.Cells {
				if inBoard(c[0], c[1]+dy) && board[c[1]+dy][c[0]] == tetris.BlockEmpty {
					ghost[c[1]+dy][c[0]] = true
				}
			}
		}
		for _, c := range p.Cells {
			if inBoard(c[0], c[1]) {
				board[c[1]][c[0]] = pieceBlock
			}
		}
	}

	flashing := make(map[int]bool, len(s.ClearingRows))
	for _, y := range s.ClearingRows {
		flashing[y] = true
	}

	edge := borderStyle.Render("+" + strings.Repeat("-", tetris.BoardWidth*len(cellText)) + "+")
	var b strings.Builder
	b.WriteString(edge)
	b.WriteString("\n")
	for y := 0; y < tetris.BoardHeight; y++ {
		b.WriteString(borderStyle.Render("|"))
		for x := 0; x < tetris.BoardWidth; x++ {
			block := board[y][x]
			switch {
			case block != tetris.BlockEmpty:
				color := block.Color()
				if flashing[y] {
					color = game.BlendTowardWhite(color, s.FlashIntensity)
				}
				b.WriteString(lipgloss.NewStyle().Background(lipglossColor(color)).Render(cellText))
			case ghost[y][x]:
				b.WriteString(lipgloss.NewStyle().Foreground(lipglossColor(s.CurrentPiece.Color)).Faint(true).Render(".."))
			default:
				b.WriteString(cellText)
			}
		}
		b.WriteString(borderStyle.Render("|"))
		b.WriteString("\n")
	}
	b.WriteString(edge)
	return b.String()
}

func renderInfo(m Model, snap game.MatchSnapshot) string {
	var b strings.Builder
	pad := lipgloss.NewStyle().PaddingLeft(2).PaddingRight(2)
	line := func(s string) {
		b.WriteString(pad.Render(s))
		b.WriteString("\n")
	}

	line(titleStyle.Render("Next"))
	line(renderMiniPiece(snap.Player.NextPiece))
	b.WriteString("\n")
	line(titleStyle.Render("Hold"))
	if snap.Player.HeldPiece != nil {
		line(renderMiniPiece(snap.Player.HeldPiece))
	} else {
		line("(empty)")
	}
	b.WriteString("\n")

	if snap.Mode == game.ModeBattle {
		line(helpStyle.Render(fmt.Sprintf("Target: %d", snap.TargetScore)))
		b.WriteString("\n")
	}
	if m.lastEvent != "" && m.now.Before(m.lastEventTil) {
		line(titleStyle.Render(m.lastEvent))
		b.WriteString("\n")
	}
	switch {
	case snap.Winner == game.WinnerPlayer:
		line(titleStyle.Render("YOU WIN"))
	case snap.Winner == game.WinnerAI:
		line(warningStyle.Render("AI WINS"))
	case snap.Finished:
		line(warningStyle.Render("GAME OVER"))
	case snap.Player.Paused:
		line(titleStyle.Render("Paused"))
	}
	b.WriteString("\n")

	for _, help := range keyHelp {
		line(helpStyle.Render(help))
	}
	return b.String()
}

// renderMiniPiece はピースを4x4の枠に描画します。
func renderMiniPiece(p *game.PieceView) string {
	if p == nil {
		return ""
	}
	var grid [4][4]bool
	for _, c := range p.Cells {
		x, y := c[0]-p.X, c[1]-p.Y
		if x >= 0 && x < 4 && y >= 0 && y < 4 {
			grid[y][x] = true
		}
	}
	style := lipgloss.NewStyle().Background(lipglossColor(p.Color))
	var b strings.Builder
	for y := range grid {
		for x := range grid[y] {
			if grid[y][x] {
				b.WriteString(style.Render(cellText))
			} else {
				b.WriteString(cellText)
			}
		}
		b.WriteString("\n")
	}
	return strings.TrimRight(b.String(), "\n")
}

func pieceBlockType(name string) tetris.BlockType {
	t, ok := tetris.StringToPieceType(name)
	if !ok {
		return tetris.BlockEmpty
	}
	return t.Block()
}

func lipglossColor(c tetris.Color) lipgloss.Color {
	return lipgloss.Color(fmt.Sprintf("#%02x%02x%02x", c.R, c.G, c.B))
}

func inBoard(x, y int) bool {
	return x >= 0 && x < tetris.BoardWidth && y >= 0 && y < tetris.BoardHeight
}

func center(width, height int, content string) string {
	if width == 0 || height == 0 {
		return content
	}
	return lipgloss.Place(width, height, lipgloss.Center, lipgloss.Center, content)
}
