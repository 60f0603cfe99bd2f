package ingest

import (
	"context"
	"fmt"
	"log/slog"
	"math/rand"
	"time"

	"golang.org/x/time/rate"

	"github.com/fibersift/fibersift/internal/catalog"
	"github.com/fibersift/fibersift/internal/config"
	"github.com/fibersift/fibersift/internal/fetcher"
)

// Result is the outcome of one ingestion run. Accepted holds the built,
// qualified products; Skipped counts items that processed cleanly but fell
// below the cotton threshold; Failed counts per-URL fetch/build failures.
type Result struct {
	Accepted []catalog.Product
	Skipped  int
	Failed   int
}

// merge folds a sub-run into the receiver.
func (r *Result) merge(sub *Result) {
	if sub == nil {
		return
	}
	r.Accepted = append(r.Accepted, sub.Accepted...)
	r.Skipped += sub.Skipped
	r.Failed += sub.Failed
}

// Pipeline orchestrates a scrape run: discover candidate URLs for a target,
// fetch and build each product sequentially through one shared session, and
// return the accepted batch. Persistence is the caller's job so ingestion
// and storage stay independently testable.
type Pipeline struct {
	cfg     *config.Config
	fetcher fetcher.PageFetcher
	logger  *slog.Logger
	limiter *rate.Limiter
}

// New creates an ingestion pipeline.
func New(cfg *config.Config, pf fetcher.PageFetcher, logger *slog.Logger) *Pipeline {
	p := &Pipeline{
		cfg:     cfg,
		fetcher: pf,
		logger:  logger.With("component", "ingest_pipeline"),
	}
	if cfg.Ingest.MinDelay > 0 {
		p.limiter = rate.NewLimiter(rate.Every(cfg.Ingest.MinDelay), 1)
	}
	return p
}

// Run executes one ingestion run for the given target. The fetch session is
// acquired once for the whole batch and released on every exit path.
//
// Cancellation is cooperative: Run checks the context between per-URL
// iterations and returns the partial result alongside ctx.Err(). Products
// accepted before the cancellation point remain valid and should be
// persisted by the caller.
func (p *Pipeline) Run(ctx context.Context, target Target) (*Result, error) {
	sess, err := p.fetcher.OpenSession(ctx)
	if err != nil {
		return nil, fmt.Errorf("open fetch session: %w", err)
	}
	defer func() {
		if cerr := sess.Close(); cerr != nil {
			p.logger.Error("session close error", "error", cerr)
		}
	}()

	start := time.Now()
	var res *Result

	switch t := target.(type) {
	case CategoryTarget:
		res, err = p.runCategory(ctx, sess, t)
	case SearchTarget:
		res, err = p.runSearch(ctx, sess, t)
	case URLListTarget:
		res, err = p.runURLList(ctx, sess, t)
	default:
		return nil, fmt.Errorf("unsupported target type %T", target)
	}

	if res != nil {
		p.logger.Info("ingestion run finished",
			"target", target.kind(),
			"accepted", len(res.Accepted),
			"skipped", res.Skipped,
			"failed", res.Failed,
			"elapsed", time.Since(start).Round(time.Millisecond),
		)
	}
	return res, err
}

// runCategory over-fetches candidate URLs to absorb extraction failures,
// then processes them in order until Count products are accepted.
func (p *Pipeline) runCategory(ctx context.Context, sess fetcher.Session, t CategoryTarget) (*Result, error) {
	count := t.Count
	if count <= 0 {
		count = p.cfg.Ingest.DefaultCount
	}
	limit := count * p.cfg.Ingest.OverfetchFactor

	urls, err := sess.DiscoverProductURLs(ctx, t.Category, t.Gender, limit)
	if err != nil {
		return &Result{}, fmt.Errorf("discover %s/%s: %w", t.Category, t.Gender, err)
	}

	res := &Result{}
	for i, u := range urls {
		if len(res.Accepted) >= count {
			break
		}
		if i > 0 {
			if err := p.throttle(ctx); err != nil {
				return res, err
			}
		}

		prod, ok := p.fetchAndBuild(ctx, sess, u, res)
		if !ok {
			continue
		}
		if !prod.IsCottonQualified {
			// Successfully processed, excluded by classification.
			res.Skipped++
			continue
		}
		res.Accepted = append(res.Accepted, prod)
	}

	return res, p.batchOutcome(res, len(urls))
}

// runSearch maps the query to category runs sharing this session. A failing
// category does not abort the others.
func (p *Pipeline) runSearch(ctx context.Context, sess fetcher.Session, t SearchTarget) (*Result, error) {
	count := t.Count
	if count <= 0 {
		count = p.cfg.Ingest.DefaultCount
	}

	res := &Result{}
	for _, ct := range MapQuery(t.Query, count) {
		sub, err := p.runCategory(ctx, sess, ct)
		res.merge(sub)
		if err != nil {
			if ctx.Err() != nil {
				return res, ctx.Err()
			}
			p.logger.Warn("search category run failed",
				"query", t.Query,
				"category", ct.Category,
				"error", err,
			)
		}
	}

	if len(res.Accepted) == 0 && res.Skipped == 0 && res.Failed == 0 {
		return res, fmt.Errorf("query %q: %w", t.Query, catalog.ErrNoExtraction)
	}
	return res, nil
}

// runURLList processes curated URLs. The bucket's intended category is
// applied only when the builder's own name-based signal is absent, so a
// mis-bucketed URL still lands in the right category. Curated products are
// accepted regardless of cotton classification; the query-time carve-out
// deals with their ambiguous readings.
func (p *Pipeline) runURLList(ctx context.Context, sess fetcher.Session, t URLListTarget) (*Result, error) {
	res := &Result{}
	total := 0
	first := true

	for bucket, urls := range t.Groups {
		intended := catalog.NormalizeCategory(bucket)

		for _, u := range urls {
			total++
			if !first {
				if err := p.throttle(ctx); err != nil {
					return res, err
				}
			}
			first = false

			prod, ok := p.fetchAndBuild(ctx, sess, u, res)
			if !ok {
				if err := ctx.Err(); err != nil {
					return res, err
				}
				continue
			}

			if _, named := catalog.Classify(prod.Name); !named && intended != "" {
				prod.Category = intended
			}
			prod.IsCurated = true
			res.Accepted = append(res.Accepted, prod)
		}
	}

	return res, p.batchOutcome(res, total)
}

// fetchAndBuild runs the per-URL fetch+build step, recording failures in
// res. Failures are logged and counted, never propagated: a bad URL must
// not abort the batch.
func (p *Pipeline) fetchAndBuild(ctx context.Context, sess fetcher.Session, u string, res *Result) (catalog.Product, bool) {
	if err := ctx.Err(); err != nil {
		return catalog.Product{}, false
	}

	raw, err := sess.ExtractRawProduct(ctx, u)
	if err != nil || raw == nil {
		res.Failed++
		p.logger.Warn("product fetch failed", "url", u, "error", err)
		return catalog.Product{}, false
	}

	prod, err := catalog.BuildProduct(raw, u)
	if err != nil {
		res.Failed++
		p.logger.Warn("product build failed", "url", u, "error", err)
		return catalog.Product{}, false
	}
	return prod, true
}

// batchOutcome decides whether a finished batch is an operation-level
// error: only a run where every URL failed outright (no accepts, no
// classification skips) surfaces as one.
func (p *Pipeline) batchOutcome(res *Result, total int) error {
	if total > 0 && res.Failed == total {
		return catalog.ErrNoExtraction
	}
	return nil
}

// throttle enforces the randomized inter-fetch delay. The limiter paces
// fetches at the configured minimum; an extra jitter up to the max keeps
// the request rhythm irregular. Zero delays (tests) disable it entirely.
func (p *Pipeline) throttle(ctx context.Context) error {
	if p.cfg.Ingest.MaxDelay <= 0 {
		return ctx.Err()
	}

	if p.limiter != nil {
		if err := p.limiter.Wait(ctx); err != nil {
			return err
		}
	}

	span := p.cfg.Ingest.MaxDelay - p.cfg.Ingest.MinDelay
	if span <= 0 {
		return ctx.Err()
	}
	jitter := time.Duration(rand.Int63n(int64(span)))

	timer := time.NewTimer(jitter)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
