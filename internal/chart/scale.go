package chart

import (
	"fmt"
	"math"

	"survey-dashboard/internal/aggregate"
)

type rgb struct{ r, g, b float64 }

// Red, yellow and green stops of the score scale.
var scoreStops = [3]rgb{
	{0xD7, 0x30, 0x27},
	{0xFF, 0xFF, 0xBF},
	{0x1A, 0x98, 0x50},
}

// ScoreColor maps a mean score on [1,3] to a red-yellow-green hex colour.
// Scores outside the range are clamped.
func ScoreColor(score float64) string {
	t := (score - aggregate.ScoreMin) / (aggregate.ScoreMax - aggregate.ScoreMin)
	t = math.Max(0, math.Min(1, t))

	lo, hi, f := scoreStops[0], scoreStops[1], t*2
	if t > 0.5 {
		lo, hi, f = scoreStops[1], scoreStops[2], (t-0.5)*2
	}
	mix := func(a, b float64) int { return int(math.Round(a + (b-a)*f)) }
	return fmt.Sprintf("#%02X%02X%02X", mix(lo.r, hi.r), mix(lo.g, hi.g), mix(lo.b, hi.b))
}
