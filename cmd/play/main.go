package main

import (
	"flag"
	"fmt"
	"io"
	"log"
	"math/rand"
	"os"
	"time"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/progate-hackathon-strawberry-flavor/vibetris-backend/internal/config"
	game "github.com/progate-hackathon-strawberry-flavor/vibetris-backend/internal/services/tetris"
	"github.com/progate-hackathon-strawberry-flavor/vibetris-backend/internal/tui"
)

func main() {
	mode := flag.String("mode", string(game.ModeSingle), "single, demo or battle")
	difficulty := flag.String("difficulty", config.Medium.Name, "AI difficulty (easy, medium, hard)")
	seed := flag.Int64("seed", 0, "random seed (0 = current time)")
	target := flag.Int("target", game.DefaultTargetScore, "battle target score")
	flag.Parse()

	m, err := game.ParseMode(*mode)
	if err != nil {
		log.Fatalf("invalid -mode: %v", err)
	}
	d, err := config.ParseDifficulty(*difficulty)
	if err != nil {
		log.Fatalf("invalid -difficulty: %v", err)
	}
	if *seed == 0 {
		*seed = time.Now().UnixNano()
	}

	// 画面を崩さないようにログはファイルへ
	if path := os.Getenv("VIBETRIS_LOG"); path != "" {
		f, err := tea.LogToFile(path, "play")
		if err != nil {
			log.Fatalf("failed to open log file: %v", err)
		}
		defer f.Close()
	} else {
		log.SetOutput(io.Discard)
	}

	opts := game.DefaultMatchOptions(m)
	opts.Difficulty = d
	opts.TargetScore = *target
	match := game.NewMatch("local", opts, rand.New(rand.NewSource(*seed)), time.Now())

	program := tea.NewProgram(tui.NewModel(match), tea.WithAltScreen())
	if _, err := program.Run(); err != nil {
		fmt.Fprintf(os.Stderr, "play: %v\n", err)
		os.Exit(1)
	}
}
