// Package analysis turns an ordered sequence of drawn numbers into frequency statistics,
// pattern findings, and a ranked prediction.
//
// Analyze is a pure function: the same input always yields the same output, and it
// touches no shared state, so it may be called concurrently.
package analysis

import (
	"fmt"
	"math"
	"sort"
	"strconv"
	"strings"

	"github.com/rewired-gh/lottoracle/internal/models"
)

// Options tunes the analysis. Zero fields fall back to DefaultOptions.
type Options struct {
	FrequencyWeight   float64
	RecencyWeight     float64
	RecencyWindow     int
	TrendWindow       int
	MaxAlternatives   int
	MinSamplesForHigh int
}

func DefaultOptions() Options {
	return Options{
		FrequencyWeight:   0.7,
		RecencyWeight:     0.3,
		RecencyWindow:     10,
		TrendWindow:       10,
		MaxAlternatives:   4,
		MinSamplesForHigh: 10,
	}
}

func (o Options) withDefaults() Options {
	d := DefaultOptions()
	if o.FrequencyWeight <= 0 && o.RecencyWeight <= 0 {
		o.FrequencyWeight = d.FrequencyWeight
		o.RecencyWeight = d.RecencyWeight
	}
	if o.FrequencyWeight < 0 {
		o.FrequencyWeight = 0
	}
	if o.RecencyWeight < 0 {
		o.RecencyWeight = 0
	}
	if o.RecencyWindow <= 0 {
		o.RecencyWindow = d.RecencyWindow
	}
	if o.TrendWindow <= 0 {
		o.TrendWindow = d.TrendWindow
	}
	if o.MaxAlternatives <= 0 {
		o.MaxAlternatives = d.MaxAlternatives
	}
	if o.MinSamplesForHigh <= 0 {
		o.MinSamplesForHigh = d.MinSamplesForHigh
	}
	return o
}

// EmptyInputError is returned when no entry survives cleaning.
type EmptyInputError struct {
	Received int
}

func (e *EmptyInputError) Error() string {
	if e.Received == 0 {
		return "no numbers to analyze: the input sequence is empty"
	}
	return fmt.Sprintf("no numbers to analyze: none of the %d entries contain any digits", e.Received)
}

// Clean strips every character that is not an ASCII digit.
func Clean(s string) string {
	return strings.Map(func(r rune) rune {
		if r >= '0' && r <= '9' {
			return r
		}
		return -1
	}, s)
}

// tally indexes a cleaned sequence by distinct number.
type tally struct {
	order  []string // distinct numbers in first-occurrence order
	counts map[string]int
	first  map[string]int
	last   map[string]int
}

func newTally(seq []string) *tally {
	t := &tally{
		counts: make(map[string]int),
		first:  make(map[string]int),
		last:   make(map[string]int),
	}
	for i, n := range seq {
		if _, seen := t.counts[n]; !seen {
			t.order = append(t.order, n)
			t.first[n] = i
		}
		t.counts[n]++
		t.last[n] = i
	}
	return t
}

// byFrequency returns distinct numbers sorted by count descending, ties by first occurrence.
func (t *tally) byFrequency() []string {
	out := make([]string, len(t.order))
	copy(out, t.order)
	sort.SliceStable(out, func(i, j int) bool {
		return t.counts[out[i]] > t.counts[out[j]]
	})
	return out
}

func (t *tally) entry(n string) models.FrequencyEntry {
	return models.FrequencyEntry{Number: n, Count: t.counts[n], FirstSeenIndex: t.first[n]}
}

// Analyze runs the full analysis over numbers, which must be ordered oldest-first.
func Analyze(numbers []string, opts Options) (*models.Analysis, error) {
	opts = opts.withDefaults()

	seq := make([]string, 0, len(numbers))
	for _, raw := range numbers {
		if n := Clean(raw); n != "" {
			seq = append(seq, n)
		}
	}
	if len(seq) == 0 {
		return nil, &EmptyInputError{Received: len(numbers)}
	}

	t := newTally(seq)
	summary := summarize(seq, t)
	summary.DiscardedInputs = len(numbers) - len(seq)
	patterns := findPatterns(seq, t, opts)
	prediction := predict(seq, t, opts)

	return &models.Analysis{
		StatisticalSummary:  summary,
		PatternAnalysis:     patterns,
		PredictionOutput:    prediction,
		DetailedExplanation: explain(summary, patterns, prediction, opts),
	}, nil
}

func summarize(seq []string, t *tally) models.StatisticalSummary {
	ranked := t.byFrequency()
	frequencies := make([]models.FrequencyEntry, len(ranked))
	for i, n := range ranked {
		frequencies[i] = t.entry(n)
	}

	least := t.order[0]
	for _, n := range t.order {
		if t.counts[n] < t.counts[least] {
			least = n
		}
	}

	var stats runningStats
	values := make([]float64, 0, len(seq))
	for _, n := range seq {
		v, ok := numericValue(n)
		if !ok {
			continue
		}
		stats.update(v)
		values = append(values, v)
	}

	return models.StatisticalSummary{
		DatasetSize:    len(seq),
		DistinctCount:  len(t.order),
		MostFrequent:   frequencies[0],
		LeastFrequent:  t.entry(least),
		Frequencies:    frequencies,
		DigitFrequency: digitFrequency(seq),
		Mean:           round(stats.mean, 4),
		Median:         round(median(values), 4),
		StdDev:         round(stats.stdDev(), 4),
		Min:            stats.min,
		Max:            stats.max,
	}
}

// maxExactDigits is the longest number a float64 represents exactly and
// whose squared deviations stay finite.
const maxExactDigits = 15

// numericValue parses n for the mean/median/deviation figures. Numbers with
// more than maxExactDigits significant digits are left out of those figures
// but still count everywhere else.
func numericValue(n string) (float64, bool) {
	if len(strings.TrimLeft(n, "0")) > maxExactDigits {
		return 0, false
	}
	v, err := strconv.ParseFloat(n, 64)
	if err != nil || math.IsInf(v, 0) {
		return 0, false
	}
	return v, true
}

// digitFrequency counts each decimal digit across all numbers, most common first.
func digitFrequency(seq []string) []models.DigitCount {
	var counts [10]int
	for _, n := range seq {
		for i := 0; i < len(n); i++ {
			counts[n[i]-'0']++
		}
	}
	out := make([]models.DigitCount, 0, 10)
	for d, c := range counts {
		if c > 0 {
			out = append(out, models.DigitCount{Digit: strconv.Itoa(d), Count: c})
		}
	}
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].Count > out[j].Count
	})
	return out
}

// uniformWidth returns the shared length of all numbers, or 0 if they differ.
func uniformWidth(seq []string) int {
	if len(seq) == 0 {
		return 0
	}
	w := len(seq[0])
	for _, n := range seq[1:] {
		if len(n) != w {
			return 0
		}
	}
	return w
}
