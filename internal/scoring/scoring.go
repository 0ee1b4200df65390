package scoring

import "math"

// Defaults for the time-curve formula. Tunable through config.
const (
	DefaultMaxPoints = 150
	DefaultExponent  = 2
)

// Strategy maps a player's answer latency to points for one round.
// timeTaken and maxTime are in seconds.
type Strategy func(timeTaken, maxTime float64) int

// TimeCurve returns the power-curve strategy: full points for an instant
// answer, decaying to zero at the round limit. An absent or non-positive
// time scores zero.
func TimeCurve(maxPoints int, exponent float64) Strategy {
	return func(timeTaken, maxTime float64) int {
		if timeTaken <= 0 || maxTime <= 0 {
			return 0
		}
		left := maxTime - timeTaken
		if left < 0 {
			left = 0
		}
		x := left / maxTime
		if x > 1 {
			x = 1
		}
		return int(math.Round(float64(maxPoints) * math.Pow(x, exponent)))
	}
}

// BonusFactor returns the coarse strategy used historically by the
// timer-resolved path: the remaining fraction of the round scaled to a
// 0-10 integer, rounded up.
func BonusFactor() Strategy {
	return func(timeTaken, maxTime float64) int {
		if timeTaken <= 0 || maxTime <= 0 {
			return 0
		}
		remaining := maxTime - timeTaken
		if remaining < 0 {
			remaining = 0
		}
		return int(math.Ceil(remaining / maxTime * 10))
	}
}

// ByName resolves a configured strategy name. Unknown names fall back to
// the time curve.
func ByName(name string, maxPoints int, exponent float64) Strategy {
	if name == "bonus" {
		return BonusFactor()
	}
	return TimeCurve(maxPoints, exponent)
}
