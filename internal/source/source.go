// Package source defines the scrape source contract and the adapters that fulfil it.
package source

import (
	"context"
	"errors"
	"fmt"
	"iter"
	"sort"

	"github.com/rewired-gh/lottoracle/internal/models"
)

// Page is one logical unit of scraping work.
type Page struct {
	Number  int
	URL     string
	Message string
	Draws   []models.Draw
}

// Source yields the draws of one lottery, newest-first, one page at a time.
// The sequence is lazy and finite and can be ranged over once. A non-nil
// error is always the last element.
type Source interface {
	Pages(ctx context.Context, lottoType models.LottoType) iter.Seq2[Page, error]
}

// SourceUnavailableError reports that a page could not be retrieved or parsed.
type SourceUnavailableError struct {
	URL string
	Err error
}

func (e *SourceUnavailableError) Error() string {
	return fmt.Sprintf("source unavailable at %s: %v", e.URL, e.Err)
}

func (e *SourceUnavailableError) Unwrap() error {
	return e.Err
}

// ErrNoSource is returned by Lookup for a lottery type with no registered source.
var ErrNoSource = errors.New("no source registered for lottery type")

// Registry maps lottery types to their sources.
type Registry struct {
	sources map[models.LottoType]Source
}

// NewRegistry returns an empty registry.
func NewRegistry() *Registry {
	return &Registry{sources: make(map[models.LottoType]Source)}
}

// Register binds s to t, replacing any previous binding.
func (r *Registry) Register(t models.LottoType, s Source) {
	r.sources[t] = s
}

// Lookup returns the source for t, or an error wrapping ErrNoSource.
func (r *Registry) Lookup(t models.LottoType) (Source, error) {
	s, ok := r.sources[t]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrNoSource, t)
	}
	return s, nil
}

// Types lists the registered lottery types in sorted order.
func (r *Registry) Types() []models.LottoType {
	types := make([]models.LottoType, 0, len(r.sources))
	for t := range r.sources {
		types = append(types, t)
	}
	sort.Slice(types, func(i, j int) bool { return types[i] < types[j] })
	return types
}
