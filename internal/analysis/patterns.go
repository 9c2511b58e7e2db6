package analysis

import (
	"github.com/rewired-gh/lottoracle/internal/models"
)

func findPatterns(seq []string, t *tally, opts Options) models.PatternAnalysis {
	return models.PatternAnalysis{
		RecencyWindow:   min(opts.RecencyWindow, len(seq)),
		Gaps:            gaps(seq, t),
		Repeating:       repeating(seq, opts.RecencyWindow),
		Trend:           trend(seq, opts.TrendWindow),
		PositionLeaders: positionLeaders(seq),
	}
}

// gaps reports, per distinct number, how many entries have passed since it was
// last seen and the mean spacing between its occurrences.
func gaps(seq []string, t *tally) []models.GapEntry {
	n := len(seq)
	out := make([]models.GapEntry, 0, len(t.order))
	for _, num := range t.order {
		e := models.GapEntry{
			Number:      num,
			LastSeenGap: n - 1 - t.last[num],
		}
		if c := t.counts[num]; c > 1 {
			e.MeanRepeatInterval = round(float64(t.last[num]-t.first[num])/float64(c-1), 4)
		}
		out = append(out, e)
	}
	return out
}

// repeating lists numbers that occur at least twice among the last window entries.
func repeating(seq []string, window int) []models.RepeatEntry {
	if window > len(seq) {
		window = len(seq)
	}
	recent := newTally(seq[len(seq)-window:])
	out := []models.RepeatEntry{}
	for _, num := range recent.order {
		if c := recent.counts[num]; c > 1 {
			out = append(out, models.RepeatEntry{Number: num, Count: c})
		}
	}
	return out
}

// trend classifies the step directions over the last window entries. Only
// fixed-width numbers are compared, where string order equals numeric order.
func trend(seq []string, window int) models.TrendFinding {
	if window > len(seq) {
		window = len(seq)
	}
	tail := seq[len(seq)-window:]
	f := models.TrendFinding{Window: window, Direction: models.TrendNotApplicable}
	if window < 2 || uniformWidth(tail) == 0 {
		return f
	}

	steps := make([]string, 0, window-1)
	for i := 1; i < len(tail); i++ {
		switch {
		case tail[i] > tail[i-1]:
			f.Increases++
			steps = append(steps, models.TrendIncreasing)
		case tail[i] < tail[i-1]:
			f.Decreases++
			steps = append(steps, models.TrendDecreasing)
		default:
			steps = append(steps, models.TrendFlat)
		}
	}

	switch {
	case f.Increases > 0 && f.Decreases == 0:
		f.Direction = models.TrendIncreasing
	case f.Decreases > 0 && f.Increases == 0:
		f.Direction = models.TrendDecreasing
	case f.Increases == 0 && f.Decreases == 0:
		f.Direction = models.TrendFlat
	default:
		f.Direction = models.TrendMixed
	}

	f.RunKind = steps[len(steps)-1]
	for i := len(steps) - 1; i >= 0 && steps[i] == f.RunKind; i-- {
		f.TrailingRun++
	}
	return f
}

// positionLeaders finds the most common digit at each position when all
// numbers share one width. Ties go to the lower digit.
func positionLeaders(seq []string) []models.PositionLeader {
	width := uniformWidth(seq)
	out := make([]models.PositionLeader, 0, width)
	for pos := 0; pos < width; pos++ {
		var counts [10]int
		for _, n := range seq {
			counts[n[pos]-'0']++
		}
		best := 0
		for d := 1; d < 10; d++ {
			if counts[d] > counts[best] {
				best = d
			}
		}
		out = append(out, models.PositionLeader{
			Position: pos + 1,
			Digit:    string(rune('0' + best)),
			Count:    counts[best],
		})
	}
	return out
}
