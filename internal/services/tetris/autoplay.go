package tetris

import (
	"fmt"
	"io"
	"math/rand"
	"strings"
	"time"

	"github.com/progate-hackathon-strawberry-flavor/vibetris-backend/internal/config"
	"github.com/progate-hackathon-strawberry-flavor/vibetris-backend/internal/models/tetris"
)

// FrameInterval は自動プレイの疑似時計が1ステップで進める時間 (60Hz) です。
const FrameInterval = time.Second / 60

// AutoPlayConfig は自動プレイの設定
type AutoPlayConfig struct {
	Difficulty   config.Difficulty
	MaxPieces    int // 0 なら無制限
	RepeatChance float64
	PrintEvery   int // Verbose 時に盤面を表示するピース間隔
	Verbose      bool
}

// DefaultAutoPlayConfig はデフォルトの設定を返す
func DefaultAutoPlayConfig() AutoPlayConfig {
	return AutoPlayConfig{
		Difficulty:   config.DemoDifficulty,
		MaxPieces:    500,
		RepeatChance: tetris.DefaultRepeatChance,
		PrintEvery:   25,
		Verbose:      true,
	}
}

// AutoPlayResult は自動プレイの結果
type AutoPlayResult struct {
	Score    int
	Lines    int
	Level    int
	Pieces   int
	GameOver bool
	Elapsed  time.Duration // 疑似時計での経過時間
}

// AutoPlay はAIだけのデモ試合を疑似時計で進め、結果を w に出力する。
// 実時間を待たないので、同じ rng の種なら結果は毎回同じになる。
func AutoPlay(w io.Writer, rng *rand.Rand, cfg AutoPlayConfig) AutoPlayResult {
	start := time.Unix(0, 0)
	now := start
	match := NewMatch(AIUserID, MatchOptions{
		Mode:         ModeDemo,
		Difficulty:   cfg.Difficulty,
		RepeatChance: cfg.RepeatChance,
	}, rng, now)
	state := match.Player

	if cfg.Verbose {
		fmt.Fprintln(w, "=== Tetris AutoPlay ===")
		fmt.Fprintf(w, "Difficulty: %s (move delay %v, mistake chance %.2f)\n\n",
			match.Difficulty.Name, match.Difficulty.MoveDelay, match.Difficulty.MistakeChance)
	}

	lastPrinted := 0
	for !match.Decided() {
		if cfg.MaxPieces > 0 && state.PieceCount > cfg.MaxPieces {
			break
		}
		now = now.Add(FrameInterval)
		match.Update(now)

		for _, e := range state.DrainEvents() {
			if !cfg.Verbose {
				continue
			}
			switch e.Type {
			case EventLineClear:
				fmt.Fprintf(w, "Line clear: rows %v\n", e.Rows)
			case EventLevelUp:
				fmt.Fprintf(w, "Level up: %d\n", e.Level)
			}
		}

		if cfg.Verbose && cfg.PrintEvery > 0 && state.PieceCount-lastPrinted >= cfg.PrintEvery {
			lastPrinted = state.PieceCount
			fmt.Fprint(w, RenderBoard(state))
			fmt.Fprintf(w, "Pieces: %d, Score: %d, Lines: %d, Level: %d\n\n", state.PieceCount, state.Score, state.LinesCleared, state.Level)
		}
	}

	result := AutoPlayResult{
		Score:    state.Score,
		Lines:    state.LinesCleared,
		Level:    state.Level,
		Pieces:   state.PieceCount,
		GameOver: state.IsGameOver,
		Elapsed:  now.Sub(start),
	}

	// 最終結果は常に表示
	fmt.Fprint(w, RenderBoard(state))
	if result.GameOver {
		fmt.Fprintln(w, "=== Game Over ===")
	} else {
		fmt.Fprintln(w, "=== Piece Limit Reached ===")
	}
	fmt.Fprintf(w, "Final Score: %d\n", result.Score)
	fmt.Fprintf(w, "Lines: %d\n", result.Lines)
	fmt.Fprintf(w, "Level: %d\n", result.Level)
	fmt.Fprintf(w, "Pieces: %d\n", result.Pieces)
	fmt.Fprintf(w, "Simulated Time: %v\n", result.Elapsed)

	return result
}

// RenderBoard は盤面をテキストで描画する。固定されたブロックと操作中のピースは種類の文字、空きは '.'。
func RenderBoard(state *PlayerGameState) string {
	var cells [tetris.BoardHeight][tetris.BoardWidth]byte
	for y := range cells {
		for x := range cells[y] {
			cells[y][x] = '.'
			if t, ok := state.Board[y][x].PieceType(); ok {
				cells[y][x] = t.String()[0]
			}
		}
	}
	if p := state.CurrentPiece; p != nil {
		for _, c := range p.Cells() {
			x, y := c[0], c[1]
			if y >= 0 && y < tetris.BoardHeight && x >= 0 && x < tetris.BoardWidth {
				cells[y][x] = strings.ToLower(p.Type.String())[0]
			}
		}
	}

	var sb strings.Builder
	border := "+" + strings.Repeat("-", tetris.BoardWidth) + "+\n"
	sb.WriteString(border)
	for _, row := range cells {
		sb.WriteByte('|')
		sb.Write(row[:])
		sb.WriteString("|\n")
	}
	sb.WriteString(border)
	return sb.String()
}
