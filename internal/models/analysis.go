package models

// Analysis is the four-part result of running the analysis engine over one sequence.
type Analysis struct {
	StatisticalSummary  StatisticalSummary   `json:"statistical_summary"`
	PatternAnalysis     PatternAnalysis      `json:"pattern_analysis"`
	PredictionOutput    PredictionOutput     `json:"prediction_output"`
	DetailedExplanation []ExplanationSection `json:"detailed_explanation"`
}

// FrequencyEntry counts how often one number appeared.
type FrequencyEntry struct {
	Number         string `json:"number"`
	Count          int    `json:"count"`
	FirstSeenIndex int    `json:"first_seen_index"`
}

// DigitCount counts one decimal digit across every analysed number.
type DigitCount struct {
	Digit string `json:"digit"`
	Count int    `json:"count"`
}

// StatisticalSummary holds counts and descriptive statistics of the cleaned sequence.
type StatisticalSummary struct {
	DatasetSize     int              `json:"dataset_size"`
	DiscardedInputs int              `json:"discarded_inputs"`
	DistinctCount   int              `json:"distinct_count"`
	MostFrequent    FrequencyEntry   `json:"most_frequent"`
	LeastFrequent   FrequencyEntry   `json:"least_frequent"`
	Frequencies     []FrequencyEntry `json:"frequencies"`
	DigitFrequency  []DigitCount     `json:"digit_frequency"`
	Mean            float64          `json:"mean"`
	Median          float64          `json:"median"`
	StdDev          float64          `json:"std_dev"`
	Min             float64          `json:"min"`
	Max             float64          `json:"max"`
}

// GapEntry describes how long ago a number was last drawn and how regularly it repeats.
type GapEntry struct {
	Number             string  `json:"number"`
	LastSeenGap        int     `json:"last_seen_gap"`
	MeanRepeatInterval float64 `json:"mean_repeat_interval,omitempty"`
}

// RepeatEntry is a number seen more than once inside the recency window.
type RepeatEntry struct {
	Number string `json:"number"`
	Count  int    `json:"count"`
}

// Trend directions.
const (
	TrendIncreasing    = "increasing"
	TrendDecreasing    = "decreasing"
	TrendFlat          = "flat"
	TrendMixed         = "mixed"
	TrendNotApplicable = "not_applicable"
)

// TrendFinding classifies the step directions over the most recent entries.
type TrendFinding struct {
	Window      int    `json:"window"`
	Direction   string `json:"direction"`
	Increases   int    `json:"increases"`
	Decreases   int    `json:"decreases"`
	TrailingRun int    `json:"trailing_run"`
	RunKind     string `json:"run_kind,omitempty"`
}

// PositionLeader is the most common digit at one position of fixed-width numbers.
type PositionLeader struct {
	Position int    `json:"position"`
	Digit    string `json:"digit"`
	Count    int    `json:"count"`
}

// PatternAnalysis groups gap, repetition, trend and digit position findings.
type PatternAnalysis struct {
	RecencyWindow   int              `json:"recency_window"`
	Gaps            []GapEntry       `json:"gaps"`
	Repeating       []RepeatEntry    `json:"repeating"`
	Trend           TrendFinding     `json:"trend"`
	PositionLeaders []PositionLeader `json:"position_leaders"`
}

// CandidateScore is one ranked prediction candidate.
type CandidateScore struct {
	Number        string  `json:"number"`
	Score         float64 `json:"score"`
	FrequencyRank int     `json:"frequency_rank"`
	RecencyRank   int     `json:"recency_rank"`
}

// Confidence buckets.
const (
	ConfidenceHigh   = "High"
	ConfidenceMedium = "Medium"
	ConfidenceLow    = "Low"
)

// PredictionOutput is the top-ranked number with its alternatives and confidence.
type PredictionOutput struct {
	Prediction   string           `json:"prediction"`
	Confidence   string           `json:"confidence"`
	Method       string           `json:"method"`
	Alternatives []string         `json:"alternatives"`
	ScoreMargin  float64          `json:"score_margin"`
	Candidates   []CandidateScore `json:"candidates"`
}

// ExplanationSection is one titled paragraph of the written explanation.
type ExplanationSection struct {
	Title string `json:"title"`
	Text  string `json:"text"`
}
