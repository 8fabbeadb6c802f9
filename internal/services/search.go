package services

import (
	"context"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/charmbracelet/log"
	"golang.org/x/text/unicode/norm"
	"golang.org/x/time/rate"

	"github.com/desertthunder/tabx/internal/models"
	"github.com/desertthunder/tabx/internal/shared"
)

const MaxQueryLength = 200

// SearchProxy fronts a [Generator] with input validation, a local rate limit and candidate cleanup.
type SearchProxy struct {
	gen     Generator
	limiter *rate.Limiter
	logger  *log.Logger
}

// NewSearchProxy builds a proxy allowing perMinute generator calls per minute with a burst of the same size.
// perMinute <= 0 disables the limit. gen may be nil, in which case every search is an upstream failure.
func NewSearchProxy(gen Generator, perMinute int, logger *log.Logger) *SearchProxy {
	limiter := rate.NewLimiter(rate.Inf, 0)
	if perMinute > 0 {
		limiter = rate.NewLimiter(rate.Every(time.Minute/time.Duration(perMinute)), perMinute)
	}
	if logger == nil {
		logger = log.New(io.Discard)
	}
	return &SearchProxy{gen: gen, limiter: limiter, logger: logger}
}

// Search returns candidate songs for query. An empty slice is a successful search with no matches.
func (p *SearchProxy) Search(ctx context.Context, query string) ([]models.CandidateSong, error) {
	query = strings.TrimSpace(query)
	if err := validateQuery(query); err != nil {
		return nil, err
	}

	if p.gen == nil {
		return nil, fmt.Errorf("%w: search backend not configured", shared.ErrUpstream)
	}
	if !p.limiter.Allow() {
		return nil, fmt.Errorf("%w: try again in a moment", shared.ErrRateLimited)
	}

	started := time.Now()
	raw, err := p.gen.Generate(ctx, query)
	if err != nil {
		p.logger.Error("generator failed", "query", query, "error", err)
		return nil, err
	}

	songs := NormalizeCandidates(raw)
	p.logger.Info("search completed", "query", query, "candidates", len(songs), "dropped", len(raw)-len(songs), "took", time.Since(started))
	return songs, nil
}

func validateQuery(query string) error {
	v := shared.NewValidationError()
	switch {
	case query == "":
		v.Add("query", "Search query is required")
	case len(query) > MaxQueryLength:
		v.Add("query", fmt.Sprintf("must be at most %d characters", MaxQueryLength))
	}
	return v.Err()
}

// NormalizeCandidates trims and NFC-normalizes text fields, drops optional values that would not pass song
// validation and drops candidates missing a required field. The result is never nil.
func NormalizeCandidates(in []models.CandidateSong) []models.CandidateSong {
	out := make([]models.CandidateSong, 0, len(in))
	for _, c := range in {
		c.Title = norm.NFC.String(strings.TrimSpace(c.Title))
		c.Artist = norm.NFC.String(strings.TrimSpace(c.Artist))
		c.TabContent = norm.NFC.String(strings.TrimRight(c.TabContent, " \t\r\n"))
		if c.Title == "" || c.Artist == "" || strings.TrimSpace(c.TabContent) == "" {
			continue
		}

		if c.KeySignature != nil {
			key := norm.NFC.String(strings.TrimSpace(*c.KeySignature))
			if key == "" || len(key) > models.MaxKeySignatureLen {
				c.KeySignature = nil
			} else {
				c.KeySignature = &key
			}
		}
		if c.BPM != nil && !models.ValidBPM(*c.BPM) {
			c.BPM = nil
		}
		if c.DurationSeconds != nil && *c.DurationSeconds <= 0 {
			c.DurationSeconds = nil
		}
		out = append(out, c)
	}
	return out
}
