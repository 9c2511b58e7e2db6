package analysis

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"reflect"
	"strings"
	"testing"

	"github.com/rewired-gh/lottoracle/internal/models"
)

func mustAnalyze(t *testing.T, numbers []string) *models.Analysis {
	t.Helper()
	a, err := Analyze(numbers, DefaultOptions())
	if err != nil {
		t.Fatalf("Analyze(%v) failed: %v", numbers, err)
	}
	return a
}

func TestClean(t *testing.T) {
	tests := []struct {
		input string
		want  string
	}{
		{"123456", "123456"},
		{" 12-34 ", "1234"},
		{"abc", ""},
		{"", ""},
		{"๑๒3", "3"}, // Thai digits are not ASCII digits
		{"0x1F", "01"},
	}
	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			got := Clean(tt.input)
			if got != tt.want {
				t.Errorf("Clean(%q) = %q, want %q", tt.input, got, tt.want)
			}
			if again := Clean(got); again != got {
				t.Errorf("Clean is not idempotent: Clean(%q) = %q", got, again)
			}
		})
	}
}

func TestAnalyze_EmptyInput(t *testing.T) {
	tests := []struct {
		name  string
		input []string
	}{
		{"nil", nil},
		{"empty slice", []string{}},
		{"no digits survive", []string{"", "  ", "abc"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			a, err := Analyze(tt.input, DefaultOptions())
			if a != nil {
				t.Errorf("expected nil analysis, got %+v", a)
			}
			var empty *EmptyInputError
			if !errors.As(err, &empty) {
				t.Fatalf("expected *EmptyInputError, got %v", err)
			}
			if empty.Received != len(tt.input) {
				t.Errorf("Received = %d, want %d", empty.Received, len(tt.input))
			}
			if err.Error() == "" {
				t.Error("expected a human-readable message")
			}
		})
	}
}

func TestAnalyze_IsDeterministic(t *testing.T) {
	input := []string{"199606", "835538", "199606", "4-1-2-3-4-5", "000001", "835538", "199606"}

	first, err := json.Marshal(mustAnalyze(t, input))
	if err != nil {
		t.Fatalf("marshal failed: %v", err)
	}
	for i := 0; i < 5; i++ {
		again, err := json.Marshal(mustAnalyze(t, input))
		if err != nil {
			t.Fatalf("marshal failed: %v", err)
		}
		if !bytes.Equal(first, again) {
			t.Fatalf("run %d produced different output:\n%s\n%s", i, first, again)
		}
	}
}

func TestAnalyze_DoesNotMutateInput(t *testing.T) {
	input := []string{" 12 ", "34", "x"}
	want := append([]string(nil), input...)
	mustAnalyze(t, input)
	if !reflect.DeepEqual(input, want) {
		t.Errorf("input mutated: got %v, want %v", input, want)
	}
}

func TestAnalyze_StatisticalSummary(t *testing.T) {
	a := mustAnalyze(t, []string{"123", "456", "123", "789", "123"})
	s := a.StatisticalSummary

	if s.MostFrequent.Number != "123" || s.MostFrequent.Count != 3 {
		t.Errorf("MostFrequent = %+v, want 123 x3", s.MostFrequent)
	}
	// 456 and 789 both appear once; 456 was seen first.
	if s.LeastFrequent.Number != "456" || s.LeastFrequent.Count != 1 {
		t.Errorf("LeastFrequent = %+v, want 456 x1", s.LeastFrequent)
	}
	if s.DatasetSize != 5 || s.DistinctCount != 3 || s.DiscardedInputs != 0 {
		t.Errorf("sizes = %d/%d/%d, want 5/3/0", s.DatasetSize, s.DistinctCount, s.DiscardedInputs)
	}

	wantOrder := []string{"123", "456", "789"}
	for i, e := range s.Frequencies {
		if e.Number != wantOrder[i] {
			t.Errorf("Frequencies[%d] = %s, want %s", i, e.Number, wantOrder[i])
		}
	}

	if s.Mean != 322.8 {
		t.Errorf("Mean = %v, want 322.8", s.Mean)
	}
	if s.Median != 123 {
		t.Errorf("Median = %v, want 123", s.Median)
	}
	if s.Min != 123 || s.Max != 789 {
		t.Errorf("Min/Max = %v/%v, want 123/789", s.Min, s.Max)
	}

	// Digits 1, 2 and 3 each appear three times; the lowest digit leads the tie.
	if s.DigitFrequency[0] != (models.DigitCount{Digit: "1", Count: 3}) {
		t.Errorf("DigitFrequency[0] = %+v, want 1 x3", s.DigitFrequency[0])
	}
}

func TestAnalyze_OversizedNumbersStayEncodable(t *testing.T) {
	huge := "1" + strings.Repeat("0", 305)
	a := mustAnalyze(t, []string{huge, "12", huge})
	s := a.StatisticalSummary

	if s.MostFrequent.Number != huge || s.MostFrequent.Count != 2 {
		t.Errorf("MostFrequent = %s x%d, want the 306-digit number x2", s.MostFrequent.Number[:min(8, len(s.MostFrequent.Number))], s.MostFrequent.Count)
	}
	if s.Mean != 12 || s.Median != 12 || s.StdDev != 0 {
		t.Errorf("Mean/Median/StdDev = %v/%v/%v, want 12/12/0", s.Mean, s.Median, s.StdDev)
	}
	if _, err := json.Marshal(a); err != nil {
		t.Fatalf("json.Marshal: %v", err)
	}
}

func TestNumericValue(t *testing.T) {
	tests := []struct {
		input string
		want  float64
		ok    bool
	}{
		{"123", 123, true},
		{"000000000000000000042", 42, true},
		{"999999999999999", 999999999999999, true},
		{"1000000000000000", 0, false},
		{"1" + strings.Repeat("0", 305), 0, false},
	}
	for _, tt := range tests {
		t.Run(tt.input[:min(len(tt.input), 24)], func(t *testing.T) {
			got, ok := numericValue(tt.input)
			if got != tt.want || ok != tt.ok {
				t.Errorf("numericValue(%q) = %v, %v; want %v, %v", tt.input, got, ok, tt.want, tt.ok)
			}
		})
	}
}

func TestAnalyze_DiscardsUnusableEntries(t *testing.T) {
	a := mustAnalyze(t, []string{"", "12", "n/a", "1 2"})
	if a.StatisticalSummary.DatasetSize != 2 {
		t.Errorf("DatasetSize = %d, want 2", a.StatisticalSummary.DatasetSize)
	}
	if a.StatisticalSummary.DiscardedInputs != 2 {
		t.Errorf("DiscardedInputs = %d, want 2", a.StatisticalSummary.DiscardedInputs)
	}
	if a.StatisticalSummary.MostFrequent.Count != 2 {
		t.Errorf("expected \"1 2\" to clean to 12, got %+v", a.StatisticalSummary.MostFrequent)
	}
}

func TestAnalyze_Patterns(t *testing.T) {
	p := mustAnalyze(t, []string{"123", "456", "123", "789", "123"}).PatternAnalysis

	wantGaps := []models.GapEntry{
		{Number: "123", LastSeenGap: 0, MeanRepeatInterval: 2},
		{Number: "456", LastSeenGap: 3},
		{Number: "789", LastSeenGap: 1},
	}
	if !reflect.DeepEqual(p.Gaps, wantGaps) {
		t.Errorf("Gaps = %+v, want %+v", p.Gaps, wantGaps)
	}

	wantRepeats := []models.RepeatEntry{{Number: "123", Count: 3}}
	if !reflect.DeepEqual(p.Repeating, wantRepeats) {
		t.Errorf("Repeating = %+v, want %+v", p.Repeating, wantRepeats)
	}

	wantTrend := models.TrendFinding{
		Window:      5,
		Direction:   models.TrendMixed,
		Increases:   2,
		Decreases:   2,
		TrailingRun: 1,
		RunKind:     models.TrendDecreasing,
	}
	if p.Trend != wantTrend {
		t.Errorf("Trend = %+v, want %+v", p.Trend, wantTrend)
	}

	if len(p.PositionLeaders) != 3 {
		t.Fatalf("expected 3 position leaders, got %d", len(p.PositionLeaders))
	}
	for i, digit := range []string{"1", "2", "3"} {
		if p.PositionLeaders[i].Digit != digit || p.PositionLeaders[i].Count != 3 {
			t.Errorf("PositionLeaders[%d] = %+v, want %s x3", i, p.PositionLeaders[i], digit)
		}
	}
}

func TestAnalyze_RepeatingRespectsWindow(t *testing.T) {
	opts := DefaultOptions()
	opts.RecencyWindow = 3
	// 11 repeats, but only outside the last three entries.
	a, err := Analyze([]string{"11", "11", "22", "33", "44"}, opts)
	if err != nil {
		t.Fatalf("Analyze failed: %v", err)
	}
	if len(a.PatternAnalysis.Repeating) != 0 {
		t.Errorf("Repeating = %+v, want none", a.PatternAnalysis.Repeating)
	}
	if a.PatternAnalysis.RecencyWindow != 3 {
		t.Errorf("RecencyWindow = %d, want 3", a.PatternAnalysis.RecencyWindow)
	}
}

func TestAnalyze_Trend(t *testing.T) {
	tests := []struct {
		name          string
		input         []string
		wantDirection string
		wantRun       int
	}{
		{"increasing", []string{"01", "02", "03"}, models.TrendIncreasing, 2},
		{"decreasing", []string{"90", "50", "10"}, models.TrendDecreasing, 2},
		{"flat", []string{"42", "42", "42"}, models.TrendFlat, 2},
		{"mixed widths", []string{"1", "22", "333"}, models.TrendNotApplicable, 0},
		{"single entry", []string{"5"}, models.TrendNotApplicable, 0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			trend := mustAnalyze(t, tt.input).PatternAnalysis.Trend
			if trend.Direction != tt.wantDirection {
				t.Errorf("Direction = %s, want %s", trend.Direction, tt.wantDirection)
			}
			if trend.TrailingRun != tt.wantRun {
				t.Errorf("TrailingRun = %d, want %d", trend.TrailingRun, tt.wantRun)
			}
		})
	}
}

func TestAnalyze_TrendUsesOnlyTheTail(t *testing.T) {
	opts := DefaultOptions()
	opts.TrendWindow = 3
	// The head has a different width; only the last three entries count.
	a, err := Analyze([]string{"7", "10", "20", "30"}, opts)
	if err != nil {
		t.Fatalf("Analyze failed: %v", err)
	}
	if got := a.PatternAnalysis.Trend.Direction; got != models.TrendIncreasing {
		t.Errorf("Direction = %s, want %s", got, models.TrendIncreasing)
	}
}

func TestPrediction_AlternativesExcludePrediction(t *testing.T) {
	inputs := [][]string{
		{"12", "34"},
		{"7"},
		{"11", "11"},
		{"12", "21"},
		{"123", "456", "123", "789", "123"},
	}
	for _, input := range inputs {
		t.Run(strings.Join(input, ","), func(t *testing.T) {
			out := mustAnalyze(t, input).PredictionOutput
			seen := map[string]bool{}
			for _, alt := range out.Alternatives {
				if alt == out.Prediction {
					t.Errorf("alternatives %v include prediction %s", out.Alternatives, out.Prediction)
				}
				if seen[alt] {
					t.Errorf("duplicate alternative %s", alt)
				}
				seen[alt] = true
			}
			if out.Alternatives == nil {
				t.Error("Alternatives must be an empty list, not nil")
			}
		})
	}
}

func TestPrediction_TwoNumbers(t *testing.T) {
	out := mustAnalyze(t, []string{"12", "34"}).PredictionOutput

	// 12 wins the frequency tie by first occurrence and outweighs 34's recency.
	if out.Prediction != "12" {
		t.Errorf("Prediction = %s, want 12", out.Prediction)
	}
	want := []string{"34", "21"}
	if !reflect.DeepEqual(out.Alternatives, want) {
		t.Errorf("Alternatives = %v, want %v", out.Alternatives, want)
	}
}

func TestPrediction_Ranking(t *testing.T) {
	out := mustAnalyze(t, []string{"123", "456", "123", "789", "123"}).PredictionOutput

	if out.Prediction != "123" {
		t.Errorf("Prediction = %s, want 123", out.Prediction)
	}
	if !reflect.DeepEqual(out.Alternatives, []string{"456", "789"}) {
		t.Errorf("Alternatives = %v, want [456 789]", out.Alternatives)
	}
	wantScores := map[string]float64{"123": 1, "456": 0.5667, "789": 0.4333}
	for _, c := range out.Candidates {
		if c.Score != wantScores[c.Number] {
			t.Errorf("score(%s) = %v, want %v", c.Number, c.Score, wantScores[c.Number])
		}
	}
	if !strings.Contains(out.Method, "0.70 × frequency + 0.30 × recency") {
		t.Errorf("Method = %q does not name the weights", out.Method)
	}
}

func TestPrediction_AlternativesCapped(t *testing.T) {
	input := make([]string, 0, 20)
	for i := 0; i < 20; i++ {
		input = append(input, fmt.Sprintf("%02d", i))
	}
	out := mustAnalyze(t, input).PredictionOutput
	if len(out.Alternatives) != 4 {
		t.Errorf("len(Alternatives) = %d, want 4", len(out.Alternatives))
	}
	if len(out.Candidates) != maxListedCandidates {
		t.Errorf("len(Candidates) = %d, want %d", len(out.Candidates), maxListedCandidates)
	}
}

func TestPrediction_Confidence(t *testing.T) {
	distinct := make([]string, 0, 20)
	for i := 0; i < 20; i++ {
		distinct = append(distinct, fmt.Sprintf("%02d", i))
	}

	tests := []struct {
		name  string
		input []string
		want  string
	}{
		{
			name:  "clear leader with enough samples",
			input: []string{"05", "05", "05", "05", "05", "05", "05", "05", "05", "42"},
			want:  models.ConfidenceHigh,
		},
		{
			name:  "clear leader capped by sample size",
			input: []string{"123", "456", "123", "789", "123"},
			want:  models.ConfidenceMedium,
		},
		{
			name:  "single candidate",
			input: []string{"7"},
			want:  models.ConfidenceMedium,
		},
		{
			name:  "near tie",
			input: distinct,
			want:  models.ConfidenceLow,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := mustAnalyze(t, tt.input).PredictionOutput.Confidence
			if got != tt.want {
				t.Errorf("Confidence = %s, want %s", got, tt.want)
			}
		})
	}
}

func TestExplanation_ReferencesComputedValues(t *testing.T) {
	a := mustAnalyze(t, []string{"123", "456", "123", "789", "123"})

	titles := make([]string, len(a.DetailedExplanation))
	for i, s := range a.DetailedExplanation {
		titles[i] = s.Title
		if s.Text == "" {
			t.Errorf("section %q is empty", s.Title)
		}
	}
	wantTitles := []string{"Methodology", "Statistical Evidence", "Pattern Findings", "Prediction Logic", "Uncertainty Analysis"}
	if !reflect.DeepEqual(titles, wantTitles) {
		t.Errorf("titles = %v, want %v", titles, wantTitles)
	}

	evidence := a.DetailedExplanation[1].Text
	if !strings.Contains(evidence, "Number 123 appeared 3 times, the most of any candidate") {
		t.Errorf("Statistical Evidence = %q", evidence)
	}
}

func TestOptions_WithDefaults(t *testing.T) {
	got := Options{}.withDefaults()
	if got != DefaultOptions() {
		t.Errorf("withDefaults() = %+v, want %+v", got, DefaultOptions())
	}

	custom := Options{FrequencyWeight: 1, RecencyWeight: -1, MaxAlternatives: 2}.withDefaults()
	if custom.FrequencyWeight != 1 || custom.RecencyWeight != 0 || custom.MaxAlternatives != 2 {
		t.Errorf("withDefaults() overrode explicit values: %+v", custom)
	}
}
