// Package httpapi exposes the scrape job controller, the analysis engine and the
// draw archive over HTTP.
package httpapi

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/gin-gonic/gin/binding"
	"github.com/rewired-gh/lottoracle/internal/analysis"
	"github.com/rewired-gh/lottoracle/internal/logger"
	"github.com/rewired-gh/lottoracle/internal/models"
	"github.com/rewired-gh/lottoracle/internal/scrapejob"
	"github.com/rewired-gh/lottoracle/internal/source"
)

const defaultListLimit = 50

// Jobs is the scrape job slot.
type Jobs interface {
	Start(lottoType models.LottoType) (string, error)
	Status() models.JobStatus
}

// Archive is the read side of the draw archive.
type Archive interface {
	ListDraws(lottoType models.LottoType, limit int) ([]models.Draw, error)
	ListRuns(limit int) ([]models.ScrapeRun, error)
}

// MalformedRequestError reports a request body or query that failed validation.
type MalformedRequestError struct {
	Reason string
}

func (e *MalformedRequestError) Error() string {
	return "malformed request: " + e.Reason
}

type startScrapeRequest struct {
	LottoType string `json:"lotto_type" binding:"required"`
}

type startScrapeResponse struct {
	Message string `json:"message"`
	JobID   string `json:"job_id"`
}

type analyzeRequest struct {
	Numbers []string `json:"numbers" binding:"required"`
}

type analyzeResultsRequest struct {
	Field string `json:"field" binding:"required"`
}

type errorResponse struct {
	Error string `json:"error"`
}

// Server holds the handlers' dependencies. Archive may be nil.
type Server struct {
	jobs     Jobs
	archive  Archive
	analysis analysis.Options
}

func New(jobs Jobs, archive Archive, opts analysis.Options) *Server {
	return &Server{jobs: jobs, archive: archive, analysis: opts}
}

// Router builds the gin engine.
func (s *Server) Router() *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery(), requestLogger())

	r.GET("/health", s.health)
	r.POST("/start-scrape", s.startScrape)
	r.GET("/status", s.status)
	r.POST("/analyze", s.analyze)
	r.POST("/analyze-results", s.analyzeResults)
	r.GET("/draws", s.listDraws)
	r.GET("/runs", s.listRuns)
	return r
}

func (s *Server) health(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "ok", "job_running": s.jobs.Status().IsRunning})
}

func (s *Server) startScrape(c *gin.Context) {
	var req startScrapeRequest
	if err := bindJSON(c, &req); err != nil {
		writeError(c, err)
		return
	}
	lottoType, err := models.ParseLottoType(req.LottoType)
	if err != nil {
		writeError(c, &MalformedRequestError{Reason: err.Error()})
		return
	}

	jobID, err := s.jobs.Start(lottoType)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusAccepted, startScrapeResponse{
		Message: fmt.Sprintf("Scraping started for %s", lottoType),
		JobID:   jobID,
	})
}

func (s *Server) status(c *gin.Context) {
	c.JSON(http.StatusOK, s.jobs.Status())
}

func (s *Server) analyze(c *gin.Context) {
	var req analyzeRequest
	if err := bindJSON(c, &req); err != nil {
		writeError(c, err)
		return
	}
	result, err := analysis.Analyze(req.Numbers, s.analysis)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, result)
}

// analyzeResults runs the analysis over the last completed scrape, oldest draw first.
func (s *Server) analyzeResults(c *gin.Context) {
	var req analyzeResultsRequest
	if err := bindJSON(c, &req); err != nil {
		writeError(c, err)
		return
	}
	field, err := models.ParseDrawField(req.Field)
	if err != nil {
		writeError(c, &MalformedRequestError{Reason: err.Error()})
		return
	}

	st := s.jobs.Status()
	if st.IsRunning {
		writeError(c, scrapejob.ErrJobRunning)
		return
	}
	if len(st.Results) == 0 {
		c.JSON(http.StatusBadRequest, errorResponse{Error: "no scrape results available; start a scrape and wait for it to finish"})
		return
	}

	result, err := analysis.Analyze(models.NumbersFrom(st.Results, field), s.analysis)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, result)
}

func (s *Server) listDraws(c *gin.Context) {
	if s.archive == nil {
		c.JSON(http.StatusServiceUnavailable, errorResponse{Error: "draw archive is disabled"})
		return
	}
	lottoType, err := models.ParseLottoType(c.DefaultQuery("lotto_type", string(models.LottoThai)))
	if err != nil {
		writeError(c, &MalformedRequestError{Reason: err.Error()})
		return
	}
	limit, err := queryLimit(c)
	if err != nil {
		writeError(c, err)
		return
	}
	draws, err := s.archive.ListDraws(lottoType, limit)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"lotto_type": lottoType, "draws": draws})
}

func (s *Server) listRuns(c *gin.Context) {
	if s.archive == nil {
		c.JSON(http.StatusServiceUnavailable, errorResponse{Error: "draw archive is disabled"})
		return
	}
	limit, err := queryLimit(c)
	if err != nil {
		writeError(c, err)
		return
	}
	runs, err := s.archive.ListRuns(limit)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"runs": runs})
}

func queryLimit(c *gin.Context) (int, error) {
	raw := c.Query("limit")
	if raw == "" {
		return defaultListLimit, nil
	}
	n, err := strconv.Atoi(raw)
	if err != nil || n < 1 {
		return 0, &MalformedRequestError{Reason: fmt.Sprintf("limit must be a positive integer, got %q", raw)}
	}
	return n, nil
}

// bindJSON decodes the body rejecting unknown fields, then runs the
// `binding` tag validation.
func bindJSON(c *gin.Context, obj any) error {
	if c.Request.Body == nil {
		return &MalformedRequestError{Reason: "request body is empty"}
	}
	dec := json.NewDecoder(c.Request.Body)
	dec.DisallowUnknownFields()
	if err := dec.Decode(obj); err != nil {
		if errors.Is(err, io.EOF) {
			return &MalformedRequestError{Reason: "request body is empty"}
		}
		return &MalformedRequestError{Reason: err.Error()}
	}
	if err := binding.Validator.ValidateStruct(obj); err != nil {
		return &MalformedRequestError{Reason: err.Error()}
	}
	return nil
}

// writeError maps domain errors to status codes. Everything unrecognised is a 500.
func writeError(c *gin.Context, err error) {
	var (
		malformed *MalformedRequestError
		empty     *analysis.EmptyInputError
	)
	status := http.StatusInternalServerError
	switch {
	case errors.As(err, &malformed), errors.As(err, &empty), errors.Is(err, source.ErrNoSource):
		status = http.StatusBadRequest
	case errors.Is(err, scrapejob.ErrJobRunning):
		status = http.StatusConflict
	}
	if status == http.StatusInternalServerError {
		logger.Error("%s %s failed: %v", c.Request.Method, c.Request.URL.Path, err)
	}
	c.JSON(status, errorResponse{Error: err.Error()})
}

func requestLogger() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()
		status := c.Writer.Status()
		msg := "%s %s -> %d (%s)"
		args := []any{c.Request.Method, c.Request.URL.Path, status, time.Since(start).Round(time.Microsecond)}
		// Successful status polls log at debug.
		if c.Request.URL.Path == "/status" && status < 400 {
			logger.Debug(msg, args...)
			return
		}
		logger.Info(msg, args...)
	}
}
