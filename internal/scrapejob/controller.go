// Package scrapejob runs at most one background scrape at a time and exposes
// its progress to any number of concurrent pollers.
package scrapejob

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/rewired-gh/lottoracle/internal/logger"
	"github.com/rewired-gh/lottoracle/internal/models"
	"github.com/rewired-gh/lottoracle/internal/source"
)

// ErrJobRunning is returned by Start while another job holds the slot.
var ErrJobRunning = errors.New("a scrape job is already running")

// FinishFunc observes a job after it reaches a terminal state.
// The snapshot is shared between hooks and must not be modified.
type FinishFunc func(status models.JobStatus)

// Controller owns the single job slot.
//
// The worker appends to the progress log in short critical sections and never
// holds the lock while the source performs I/O.
type Controller struct {
	ctx     context.Context
	sources *source.Registry
	now     func() time.Time

	mu    sync.RWMutex
	state models.JobStatus
	hooks []FinishFunc

	wg sync.WaitGroup
}

// New creates a controller. ctx bounds every job the controller starts; a
// running job is not cancellable on its own and only stops early when ctx ends.
func New(ctx context.Context, sources *source.Registry) *Controller {
	return &Controller{
		ctx:     ctx,
		sources: sources,
		now:     time.Now,
		state: models.JobStatus{
			Progress: []string{},
			Results:  []models.Draw{},
		},
	}
}

// OnFinish registers fn to run after every job, outside the controller lock.
func (c *Controller) OnFinish(fn FinishFunc) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.hooks = append(c.hooks, fn)
}

// Start claims the job slot for lottoType and launches the scrape in the
// background. It returns the new job id without waiting for the scrape.
func (c *Controller) Start(lottoType models.LottoType) (string, error) {
	src, err := c.sources.Lookup(lottoType)
	if err != nil {
		return "", err
	}

	c.mu.Lock()
	if c.state.IsRunning {
		c.mu.Unlock()
		return "", ErrJobRunning
	}
	jobID := uuid.NewString()
	startedAt := c.now()
	c.state = models.JobStatus{
		JobID:     jobID,
		IsRunning: true,
		LottoType: lottoType,
		Progress:  []string{},
		Results:   []models.Draw{},
		StartedAt: &startedAt,
	}
	c.wg.Add(1)
	c.mu.Unlock()

	logger.Info("Scrape job %s started for %s", jobID, lottoType)
	go c.run(jobID, src, lottoType)
	return jobID, nil
}

// Status returns a consistent copy of the job slot.
func (c *Controller) Status() models.JobStatus {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.snapshotLocked()
}

// Wait blocks until the current job and its finish hooks are done.
func (c *Controller) Wait() {
	c.wg.Wait()
}

func (c *Controller) snapshotLocked() models.JobStatus {
	s := c.state
	s.Progress = append(make([]string, 0, len(c.state.Progress)), c.state.Progress...)
	s.Results = append(make([]models.Draw, 0, len(c.state.Results)), c.state.Results...)
	if c.state.StartedAt != nil {
		t := *c.state.StartedAt
		s.StartedAt = &t
	}
	if c.state.FinishedAt != nil {
		t := *c.state.FinishedAt
		s.FinishedAt = &t
	}
	return s
}

func (c *Controller) run(jobID string, src source.Source, lottoType models.LottoType) {
	defer c.wg.Done()

	draws, pages, err := c.collect(src, lottoType)

	c.mu.Lock()
	finishedAt := c.now()
	c.state.IsRunning = false
	c.state.FinishedAt = &finishedAt
	c.state.Pages = pages
	if err != nil {
		c.state.Error = err.Error()
		c.state.Progress = append(c.state.Progress, fmt.Sprintf("Scrape failed: %v", err))
		c.state.Results = []models.Draw{}
	} else {
		c.state.Results = draws
		c.state.Progress = append(c.state.Progress,
			fmt.Sprintf("Scrape complete: %d draws from %d pages", len(draws), pages))
	}
	final := c.snapshotLocked()
	hooks := append([]FinishFunc(nil), c.hooks...)
	c.mu.Unlock()

	if err != nil {
		logger.Warn("Scrape job %s failed after %d pages: %v", jobID, pages, err)
	} else {
		logger.Info("Scrape job %s finished: %d draws from %d pages in %s",
			jobID, len(draws), pages, finishedAt.Sub(*final.StartedAt).Round(time.Millisecond))
	}

	for _, hook := range hooks {
		hook(final)
	}
}

// collect drains the source, logging one progress line per page. A panicking
// source is reported as a failure rather than taking the process down.
func (c *Controller) collect(src source.Source, lottoType models.LottoType) (draws []models.Draw, pages int, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("source panicked: %v", r)
		}
	}()

	draws = []models.Draw{}
	for page, pageErr := range src.Pages(c.ctx, lottoType) {
		if pageErr != nil {
			return nil, pages, pageErr
		}
		pages++
		draws = append(draws, page.Draws...)

		msg := page.Message
		if msg == "" {
			msg = fmt.Sprintf("Fetched page %d (%d draws)", pages, len(page.Draws))
		}
		c.mu.Lock()
		c.state.Progress = append(c.state.Progress, msg)
		c.mu.Unlock()
	}
	return draws, pages, nil
}
