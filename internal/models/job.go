package models

import "time"

// JobStatus is a point-in-time copy of the scrape job slot.
// Readers receive their own slices; mutating them never touches the live job.
type JobStatus struct {
	JobID      string     `json:"job_id,omitempty"`
	IsRunning  bool       `json:"is_running"`
	LottoType  LottoType  `json:"lotto_type,omitempty"`
	Progress   []string   `json:"progress"`
	Pages      int        `json:"pages"`
	Results    []Draw     `json:"results"`
	StartedAt  *time.Time `json:"started_at,omitempty"`
	FinishedAt *time.Time `json:"finished_at,omitempty"`
	Error      string     `json:"error,omitempty"`
}

// Succeeded reports whether the job reached a terminal state without an error.
func (s *JobStatus) Succeeded() bool {
	return s.JobID != "" && !s.IsRunning && s.Error == ""
}

// Run summarises a terminal snapshot for the archive.
func (s *JobStatus) Run() ScrapeRun {
	r := ScrapeRun{
		ID:        s.JobID,
		LottoType: s.LottoType,
		DrawCount: len(s.Results),
		Pages:     s.Pages,
		Error:     s.Error,
	}
	if s.StartedAt != nil {
		r.StartedAt = *s.StartedAt
	}
	if s.FinishedAt != nil {
		r.FinishedAt = *s.FinishedAt
	}
	return r
}

// ScrapeRun is the archived summary of a finished scrape job.
type ScrapeRun struct {
	ID         string    `json:"id"`
	LottoType  LottoType `json:"lotto_type"`
	StartedAt  time.Time `json:"started_at"`
	FinishedAt time.Time `json:"finished_at"`
	DrawCount  int       `json:"draw_count"`
	Pages      int       `json:"pages"`
	Error      string    `json:"error,omitempty"`
}
