package main

import (
	"flag"
	"log"
	"math/rand"
	"os"
	"time"

	"github.com/progate-hackathon-strawberry-flavor/vibetris-backend/internal/config"
	"github.com/progate-hackathon-strawberry-flavor/vibetris-backend/internal/services/tetris"
)

func main() {
	difficulty := flag.String("difficulty", config.DemoDifficulty.Name, "AI difficulty (easy, medium, hard)")
	seed := flag.Int64("seed", 0, "random seed (0 = current time)")
	maxPieces := flag.Int("max-pieces", 500, "stop after this many pieces (0 = until game over)")
	quiet := flag.Bool("quiet", false, "only print the final result")
	flag.Parse()

	d, err := config.ParseDifficulty(*difficulty)
	if err != nil {
		log.Fatalf("invalid -difficulty: %v", err)
	}
	if *seed == 0 {
		*seed = time.Now().UnixNano()
	}
	rng := rand.New(rand.NewSource(*seed))

	cfg := tetris.DefaultAutoPlayConfig()
	cfg.Difficulty = d
	cfg.MaxPieces = *maxPieces
	cfg.Verbose = !*quiet

	tetris.AutoPlay(os.Stdout, rng, cfg)
}
