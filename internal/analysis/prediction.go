package analysis

import (
	"fmt"
	"sort"

	"github.com/rewired-gh/lottoracle/internal/models"
)

const (
	highMargin   = 0.20
	mediumMargin = 0.08

	maxListedCandidates = 10
)

type candidate struct {
	number        string
	score         float64
	frequencyRank int
	recencyRank   int
	firstSeen     int
}

// rankCandidates scores every distinct number as
//
//	FrequencyWeight*(D-Rf+1)/D + RecencyWeight*(D-Rr+1)/D
//
// where Rf ranks by count (descending) and Rr by last-seen gap (ascending),
// both 1-based with first-occurrence tie breaks.
func rankCandidates(seq []string, t *tally, opts Options) []candidate {
	d := len(t.order)
	byFreq := t.byFrequency()

	byRecency := make([]string, d)
	copy(byRecency, t.order)
	sort.SliceStable(byRecency, func(i, j int) bool {
		return t.last[byRecency[i]] > t.last[byRecency[j]]
	})

	freqRank := make(map[string]int, d)
	for i, n := range byFreq {
		freqRank[n] = i + 1
	}
	recencyRank := make(map[string]int, d)
	for i, n := range byRecency {
		recencyRank[n] = i + 1
	}

	points := func(rank int) float64 {
		return float64(d-rank+1) / float64(d)
	}

	out := make([]candidate, 0, d)
	for _, n := range t.order {
		score := opts.FrequencyWeight*points(freqRank[n]) + opts.RecencyWeight*points(recencyRank[n])
		out = append(out, candidate{
			number:        n,
			score:         round(score, 6),
			frequencyRank: freqRank[n],
			recencyRank:   recencyRank[n],
			firstSeen:     t.first[n],
		})
	}

	sort.SliceStable(out, func(i, j int) bool {
		if out[i].score != out[j].score {
			return out[i].score > out[j].score
		}
		if out[i].frequencyRank != out[j].frequencyRank {
			return out[i].frequencyRank < out[j].frequencyRank
		}
		return out[i].firstSeen < out[j].firstSeen
	})
	return out
}

func predict(seq []string, t *tally, opts Options) models.PredictionOutput {
	ranked := rankCandidates(seq, t, opts)
	top := ranked[0]

	alternatives := []string{}
	for _, c := range ranked[1:] {
		if len(alternatives) == opts.MaxAlternatives {
			break
		}
		alternatives = append(alternatives, c.number)
	}
	if len(alternatives) < 2 {
		alternatives = appendDerived(alternatives, top.number, seq, opts.MaxAlternatives)
	}

	margin := 1.0
	if len(ranked) > 1 && top.score > 0 {
		margin = (top.score - ranked[1].score) / top.score
	}

	listed := make([]models.CandidateScore, 0, min(len(ranked), maxListedCandidates))
	for _, c := range ranked {
		if len(listed) == maxListedCandidates {
			break
		}
		listed = append(listed, models.CandidateScore{
			Number:        c.number,
			Score:         round(c.score, 4),
			FrequencyRank: c.frequencyRank,
			RecencyRank:   c.recencyRank,
		})
	}

	return models.PredictionOutput{
		Prediction:   top.number,
		Confidence:   confidenceBucket(margin, len(seq), opts.MinSamplesForHigh),
		Method:       methodLabel(opts),
		Alternatives: alternatives,
		ScoreMargin:  round(margin, 4),
		Candidates:   listed,
	}
}

// appendDerived fills thin alternative lists with a composite of the most
// frequent digits and the reversed prediction.
func appendDerived(alternatives []string, prediction string, seq []string, limit int) []string {
	seen := map[string]bool{prediction: true}
	for _, a := range alternatives {
		seen[a] = true
	}
	add := func(s string) {
		if s == "" || seen[s] || len(alternatives) >= limit {
			return
		}
		seen[s] = true
		alternatives = append(alternatives, s)
	}

	add(digitComposite(seq, len(prediction)))
	add(reverse(prediction))
	return alternatives
}

func digitComposite(seq []string, width int) string {
	digits := digitFrequency(seq)
	if len(digits) == 0 || width == 0 {
		return ""
	}
	b := make([]byte, 0, width)
	for i := 0; i < width; i++ {
		if i < len(digits) {
			b = append(b, digits[i].Digit[0])
		} else {
			b = append(b, digits[0].Digit[0])
		}
	}
	return string(b)
}

func reverse(s string) string {
	b := []byte(s)
	for i, j := 0, len(b)-1; i < j; i, j = i+1, j-1 {
		b[i], b[j] = b[j], b[i]
	}
	return string(b)
}

func confidenceBucket(margin float64, samples, minSamplesForHigh int) string {
	switch {
	case margin >= highMargin && samples >= minSamplesForHigh:
		return models.ConfidenceHigh
	case margin >= mediumMargin:
		return models.ConfidenceMedium
	default:
		return models.ConfidenceLow
	}
}

func methodLabel(opts Options) string {
	return fmt.Sprintf("Weighted frequency/recency ranking (%.2f × frequency + %.2f × recency)",
		opts.FrequencyWeight, opts.RecencyWeight)
}
