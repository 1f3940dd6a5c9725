package tetris

import "math/rand"

// DefaultRepeatChance は通常のゲームで使う連続出現の確率です。
const DefaultRepeatChance = 0.05

// Randomizer は7-bagシステムに基づくピースの供給源です。
// バッグが空になると直前のピースを除いた全種類で補充してシャッフルします。
// RepeatChance の確率でバッグを無視して直前のピースをもう一度返します。
type Randomizer struct {
	RepeatChance float64

	rng     *rand.Rand
	bag     []PieceType
	last    PieceType
	hasLast bool
}

// NewRandomizer は全7種類をシャッフルしたバッグで初期化したRandomizerを返します。
func NewRandomizer(rng *rand.Rand, repeatChance float64) *Randomizer {
	r := &Randomizer{
		RepeatChance: repeatChance,
		rng:          rng,
		bag:          append([]PieceType(nil), AllPieceTypes...),
	}
	r.shuffle()
	return r
}

func (r *Randomizer) shuffle() {
	r.rng.Shuffle(len(r.bag), func(i, j int) {
		r.bag[i], r.bag[j] = r.bag[j], r.bag[i]
	})
}

// Next は次のピースの種類を返します。
func (r *Randomizer) Next() PieceType {
	if r.hasLast && r.rng.Float64() < r.RepeatChance {
		return r.last
	}

	if len(r.bag) == 0 {
		for _, t := range AllPieceTypes {
			if r.hasLast && t == r.last {
				continue
			}
			r.bag = append(r.bag, t)
		}
		r.shuffle()
	}

	t := r.bag[len(r.bag)-1]
	r.bag = r.bag[:len(r.bag)-1]
	r.last = t
	r.hasLast = true
	return t
}

// Remaining は現在のバッグに残っているピースの数です。
func (r *Randomizer) Remaining() int {
	return len(r.bag)
}
