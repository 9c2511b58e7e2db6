package analysis

import (
	"fmt"
	"strings"

	"github.com/rewired-gh/lottoracle/internal/models"
)

func explain(s models.StatisticalSummary, p models.PatternAnalysis, out models.PredictionOutput, opts Options) []models.ExplanationSection {
	return []models.ExplanationSection{
		{Title: "Methodology", Text: methodology(s, opts)},
		{Title: "Statistical Evidence", Text: statisticalEvidence(s)},
		{Title: "Pattern Findings", Text: patternFindings(p)},
		{Title: "Prediction Logic", Text: predictionLogic(out, p)},
		{Title: "Uncertainty Analysis", Text: uncertainty(s, out, opts)},
	}
}

func methodology(s models.StatisticalSummary, opts Options) string {
	return fmt.Sprintf(
		"Analysed %d numbers (%d distinct) in oldest-first order. Each distinct number is ranked by how often it appeared "+
			"and by how recently it was last seen; the two ranks are combined as %.2f × frequency + %.2f × recency. "+
			"Repeats are counted over the last %d entries and the trend over the last %d.",
		s.DatasetSize, s.DistinctCount, opts.FrequencyWeight, opts.RecencyWeight, opts.RecencyWindow, opts.TrendWindow)
}

func statisticalEvidence(s models.StatisticalSummary) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Number %s appeared %d %s, the most of any candidate.",
		s.MostFrequent.Number, s.MostFrequent.Count, times(s.MostFrequent.Count))
	if s.DistinctCount > 1 {
		fmt.Fprintf(&b, " Number %s appeared %d %s, the fewest.",
			s.LeastFrequent.Number, s.LeastFrequent.Count, times(s.LeastFrequent.Count))
	}
	if len(s.DigitFrequency) > 0 {
		top := s.DigitFrequency[0]
		fmt.Fprintf(&b, " Digit %s is the most common digit with %d occurrences.", top.Digit, top.Count)
	}
	fmt.Fprintf(&b, " Mean value %.2f, median %.2f, standard deviation %.2f.", s.Mean, s.Median, s.StdDev)
	return b.String()
}

func patternFindings(p models.PatternAnalysis) string {
	var b strings.Builder
	if len(p.Repeating) == 0 {
		fmt.Fprintf(&b, "No number repeated within the last %d entries.", p.RecencyWindow)
	} else {
		parts := make([]string, len(p.Repeating))
		for i, r := range p.Repeating {
			parts[i] = fmt.Sprintf("%s (%d×)", r.Number, r.Count)
		}
		fmt.Fprintf(&b, "Repeated within the last %d entries: %s.", p.RecencyWindow, strings.Join(parts, ", "))
	}

	switch p.Trend.Direction {
	case models.TrendNotApplicable:
		b.WriteString(" Trend not evaluated: the recent numbers do not share a fixed width.")
	default:
		fmt.Fprintf(&b, " Over the last %d entries the values were %s (%d up, %d down), ending in a %s run of %d.",
			p.Trend.Window, p.Trend.Direction, p.Trend.Increases, p.Trend.Decreases, p.Trend.RunKind, p.Trend.TrailingRun)
	}

	if len(p.PositionLeaders) > 0 {
		parts := make([]string, len(p.PositionLeaders))
		for i, l := range p.PositionLeaders {
			parts[i] = fmt.Sprintf("%d:%s", l.Position, l.Digit)
		}
		fmt.Fprintf(&b, " Leading digit per position: %s.", strings.Join(parts, " "))
	}
	return b.String()
}

func predictionLogic(out models.PredictionOutput, p models.PatternAnalysis) string {
	var b strings.Builder
	if len(out.Candidates) > 0 {
		c := out.Candidates[0]
		fmt.Fprintf(&b, "%s scored %.4f (frequency rank %d, recency rank %d) and ranks first.",
			c.Number, c.Score, c.FrequencyRank, c.RecencyRank)
	}
	for _, g := range p.Gaps {
		if g.Number == out.Prediction {
			fmt.Fprintf(&b, " It was last seen %d %s ago.", g.LastSeenGap, entries(g.LastSeenGap))
			break
		}
	}
	if len(out.Alternatives) > 0 {
		fmt.Fprintf(&b, " Alternatives in rank order: %s.", strings.Join(out.Alternatives, ", "))
	}
	return b.String()
}

func uncertainty(s models.StatisticalSummary, out models.PredictionOutput, opts Options) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Confidence is %s: the top score leads the runner-up by %.1f%%.", out.Confidence, out.ScoreMargin*100)
	if s.DatasetSize < opts.MinSamplesForHigh {
		fmt.Fprintf(&b, " Only %d numbers were available, below the %d needed for High confidence.",
			s.DatasetSize, opts.MinSamplesForHigh)
	}
	b.WriteString(" Lottery draws are independent events; this ranking summarises past frequency and is not a probability.")
	return b.String()
}

func times(n int) string {
	if n == 1 {
		return "time"
	}
	return "times"
}

func entries(n int) string {
	if n == 1 {
		return "entry"
	}
	return "entries"
}
