package tetris

import (
	"github.com/progate-hackathon-strawberry-flavor/vibetris-backend/internal/models/tetris"
)

// Evaluator はBoardを評価してスコアを返すインターフェースです。大きいほど良い盤面です。
type Evaluator interface {
	Evaluate(b *tetris.Board) float64
}

// HeuristicWeights は盤面評価の各特徴量の係数です。
type HeuristicWeights struct {
	Holes         float64
	MaxHeight     float64
	CompleteLines float64
	Bumpiness     float64
	Wells         float64
	LandingHeight float64 // 最大の高さに対する2つ目のペナルティ
}

// DefaultHeuristicWeights はデモ・対戦モードのAIが使う係数です。
var DefaultHeuristicWeights = HeuristicWeights{
	Holes:         -8,
	MaxHeight:     -2,
	CompleteLines: 20,
	Bumpiness:     -2,
	Wells:         3,
	LandingHeight: -1.5,
}

// WellDepth は井戸とみなす隣接列との高さの差です。
const WellDepth = 3

// HeuristicEvaluator は穴・高さ・揃ったライン・凹凸・井戸の重み付き和で盤面を評価します。
type HeuristicEvaluator struct {
	Weights HeuristicWeights
}

// NewHeuristicEvaluator は既定の係数を使う評価器を返します。
func NewHeuristicEvaluator() *HeuristicEvaluator {
	return &HeuristicEvaluator{Weights: DefaultHeuristicWeights}
}

// Evaluate は全ての特徴量の重み付き和を返します。
func (e *HeuristicEvaluator) Evaluate(b *tetris.Board) float64 {
	heights := b.ColumnHeights()
	maxHeight := 0
	for _, h := range heights {
		if h > maxHeight {
			maxHeight = h
		}
	}

	w := e.Weights
	score := 0.0
	score += w.Holes * float64(b.Holes())
	score += w.MaxHeight * float64(maxHeight)
	score += w.CompleteLines * float64(len(b.CompletedLines()))
	score += w.Bumpiness * float64(Bumpiness(heights))
	score += w.Wells * float64(CountWells(heights))
	score += w.LandingHeight * float64(maxHeight)
	return score
}

// Bumpiness は隣り合う列の高さの差の絶対値の合計です。
func Bumpiness(heights [tetris.BoardWidth]int) int {
	sum := 0
	for i := 0; i < len(heights)-1; i++ {
		d := heights[i] - heights[i+1]
		if d < 0 {
			d = -d
		}
		sum += d
	}
	return sum
}

// CountWells は両隣 (端の列は片側) より WellDepth 以上低い列の数を返します。
func CountWells(heights [tetris.BoardWidth]int) int {
	n := len(heights)
	wells := 0
	for i := 1; i < n-1; i++ {
		if heights[i]+WellDepth <= heights[i-1] && heights[i]+WellDepth <= heights[i+1] {
			wells++
		}
	}
	if heights[0]+WellDepth <= heights[1] {
		wells++
	}
	if heights[n-1]+WellDepth <= heights[n-2] {
		wells++
	}
	return wells
}
