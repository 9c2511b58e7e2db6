package source

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"iter"
	"net/url"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"
	"github.com/go-resty/resty/v2"
	"github.com/rewired-gh/lottoracle/internal/logger"
	"github.com/rewired-gh/lottoracle/internal/models"
	"golang.org/x/time/rate"
)

const (
	DefaultSanookURL = "https://news.sanook.com/lotto/archive/"

	defaultUserAgent = "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/123.0.0.0 Safari/537.36"

	labelFirstPrize    = "รางวัลที่ 1"
	labelLastTwoDigits = "เลขท้าย 2 ตัว"
)

// SanookOptions configures the Sanook archive adapter.
type SanookOptions struct {
	BaseURL        string
	Timeout        time.Duration
	PageInterval   time.Duration // minimum spacing between page requests
	MaxPages       int           // 0 follows pagination to the end
	MaxRetries     int
	RetryDelayBase time.Duration
	UserAgent      string
}

// Sanook scrapes Thai lottery results from the paginated news.sanook.com archive.
type Sanook struct {
	baseURL  string
	maxPages int
	http     *resty.Client
}

func NewSanook(opts SanookOptions) *Sanook {
	if opts.BaseURL == "" {
		opts.BaseURL = DefaultSanookURL
	}
	if opts.Timeout <= 0 {
		opts.Timeout = 30 * time.Second
	}
	if opts.UserAgent == "" {
		opts.UserAgent = defaultUserAgent
	}

	client := resty.New()
	client.SetLogger(logger.Printf{Prefix: "sanook: "})
	client.SetHeader("user-agent", opts.UserAgent)
	client.SetTimeout(opts.Timeout)
	client.SetRetryCount(opts.MaxRetries)
	if opts.RetryDelayBase > 0 {
		client.SetRetryWaitTime(opts.RetryDelayBase)
		client.SetRetryMaxWaitTime(opts.RetryDelayBase * time.Duration(opts.MaxRetries+1))
	}
	client.AddRetryCondition(func(res *resty.Response, err error) bool {
		return err != nil || res.StatusCode() >= 500 || res.StatusCode() == 429
	})

	if opts.PageInterval > 0 {
		limiter := rate.NewLimiter(rate.Every(opts.PageInterval), 1)
		client.OnBeforeRequest(func(_ *resty.Client, req *resty.Request) error {
			return limiter.Wait(req.Context())
		})
	}

	return &Sanook{
		baseURL:  opts.BaseURL,
		maxPages: opts.MaxPages,
		http:     client,
	}
}

// Pages follows the archive's "next" links from the first page.
func (s *Sanook) Pages(ctx context.Context, lottoType models.LottoType) iter.Seq2[Page, error] {
	return func(yield func(Page, error) bool) {
		visited := make(map[string]bool)
		next := s.baseURL
		for n := 1; next != ""; n++ {
			if s.maxPages > 0 && n > s.maxPages {
				logger.Debug("sanook: stopping at page cap %d", s.maxPages)
				return
			}
			if visited[next] {
				logger.Warn("sanook: pagination loops back to %s", next)
				return
			}
			visited[next] = true

			draws, following, err := s.fetchPage(ctx, next, lottoType)
			if err == nil && n == 1 && len(draws) == 0 {
				err = errors.New("no draws found on the first archive page")
			}
			if err != nil {
				yield(Page{Number: n, URL: next}, &SourceUnavailableError{URL: next, Err: err})
				return
			}

			page := Page{
				Number:  n,
				URL:     next,
				Draws:   draws,
				Message: fmt.Sprintf("Scraped page %d: %s (%d draws)", n, next, len(draws)),
			}
			if !yield(page, nil) {
				return
			}
			next = following
		}
	}
}

func (s *Sanook) fetchPage(ctx context.Context, pageURL string, lottoType models.LottoType) ([]models.Draw, string, error) {
	res, err := s.http.R().
		SetContext(ctx).
		Get(pageURL)
	if err != nil {
		return nil, "", fmt.Errorf("failed to fetch page: %w", err)
	}
	if res.IsError() {
		return nil, "", fmt.Errorf("request failed with status: %s", res.Status())
	}

	doc, err := goquery.NewDocumentFromReader(bytes.NewReader(res.Body()))
	if err != nil {
		return nil, "", fmt.Errorf("failed to parse page: %w", err)
	}

	draws := parseDraws(doc, lottoType)

	var following string
	if href, ok := doc.Find("a.pagination__item--next").First().Attr("href"); ok && strings.TrimSpace(href) != "" {
		following, err = resolve(pageURL, href)
		if err != nil {
			return nil, "", fmt.Errorf("failed to resolve next page link %q: %w", href, err)
		}
	}
	logger.Debug("sanook: %s yielded %d draws, next=%q", pageURL, len(draws), following)
	return draws, following, nil
}

// parseDraws extracts one draw per archive article. Articles without a date
// or a first prize are skipped.
func parseDraws(doc *goquery.Document, lottoType models.LottoType) []models.Draw {
	draws := []models.Draw{}
	doc.Find("article.archive--lotto").Each(func(_ int, article *goquery.Selection) {
		date, _ := article.Find("time.archive--lotto__date").First().Attr("datetime")
		d := models.Draw{
			LottoType: lottoType,
			DrawDate:  strings.TrimSpace(date),
		}
		article.Find("ul.archive--lotto__result-list li").Each(func(_ int, li *goquery.Selection) {
			label := li.Find("em.archive--lotto__result-txt").First()
			number := li.Find("strong.archive--lotto__result-number").First()
			if label.Length() == 0 || number.Length() == 0 {
				return
			}
			switch text := label.Text(); {
			case strings.Contains(text, labelFirstPrize):
				d.FirstPrize = strings.TrimSpace(number.Text())
			case strings.Contains(text, labelLastTwoDigits):
				d.LastTwoDigits = strings.TrimSpace(number.Text())
			}
		})
		if err := d.Validate(); err != nil {
			logger.Debug("sanook: skipping article: %v", err)
			return
		}
		draws = append(draws, d)
	})
	return draws
}

func resolve(base, href string) (string, error) {
	b, err := url.Parse(base)
	if err != nil {
		return "", err
	}
	ref, err := url.Parse(strings.TrimSpace(href))
	if err != nil {
		return "", err
	}
	return b.ResolveReference(ref).String(), nil
}
