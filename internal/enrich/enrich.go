// Package enrich attaches a strategic category and a summary to every row of
// a scored feedback table.
package enrich

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"github.com/rotisserie/eris"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
	"golang.org/x/time/rate"

	"github.com/anthonyruan/Customer-Feedback-Aggregation-System/internal/classifier"
	"github.com/anthonyruan/Customer-Feedback-Aggregation-System/internal/metrics"
	"github.com/anthonyruan/Customer-Feedback-Aggregation-System/internal/model"
	"github.com/anthonyruan/Customer-Feedback-Aggregation-System/internal/resilience"
)

// Mode describes how a batch was enriched.
type Mode string

const (
	ModeOffline  Mode = "offline"
	ModeLive     Mode = "live"
	ModeFailover Mode = "failover"
)

// DefaultRequestsPerSecond paces live enrichment to two records per second.
const DefaultRequestsPerSecond = 2.0

// Progress is the number of records finished out of Total.
type Progress struct {
	Done  int `json:"done"`
	Total int `json:"total"`
}

// ProgressFunc is called after each record. Done never decreases.
type ProgressFunc func(Progress)

// Options configures a single Enrich call.
type Options struct {
	// Offline forces sample assignment even when a classifier is ready.
	Offline bool
	// Concurrency bounds in-flight records in live mode. Default: 1.
	Concurrency int
	// RequestsPerSecond paces records in live mode. Zero means
	// DefaultRequestsPerSecond; negative disables pacing.
	RequestsPerSecond float64
	Progress          ProgressFunc
}

// Result is a completed enrichment batch.
type Result struct {
	RunID   string           `json:"run_id"`
	Mode    Mode             `json:"mode"`
	Records []model.Enriched `json:"records"`
	// Recovered counts rows where at least one fallback value was used.
	Recovered int           `json:"recovered"`
	Duration  time.Duration `json:"duration"`
}

// Pipeline enriches scored tables using a Classifier. A nil or unconfigured
// classifier always enriches offline.
type Pipeline struct {
	classifier *classifier.Classifier
}

// New creates a Pipeline.
func New(c *classifier.Classifier) *Pipeline {
	return &Pipeline{classifier: c}
}

// Live reports whether Enrich would call the text-generation service.
func (p *Pipeline) Live() bool {
	return p.classifier.State() == classifier.StateReady
}

// Circuit reports the classifier's circuit breaker, or nil when calls are not
// guarded by one.
func (p *Pipeline) Circuit() *resilience.CircuitStats {
	cb := p.classifier.Breaker()
	if cb == nil {
		return nil
	}
	stats := cb.Stats()
	return &stats
}

// ResetCircuit closes the classifier's circuit so the next live run probes
// the service again.
func (p *Pipeline) ResetCircuit() {
	if cb := p.classifier.Breaker(); cb != nil {
		cb.Reset()
	}
}

// Enrich returns a new table with the same rows in the same order, each with
// a category and a summary. On cancellation it returns ctx.Err() and no table.
func (p *Pipeline) Enrich(ctx context.Context, rows []model.Scored, opts Options) (*Result, error) {
	start := time.Now()
	res := &Result{RunID: uuid.New().String()}

	log := zap.L().With(zap.String("run_id", res.RunID))

	report := newReporter(len(rows), opts.Progress)

	var (
		records []model.Enriched
		err     error
	)
	switch {
	case opts.Offline || !p.Live():
		res.Mode = ModeOffline
		records, err = enrichOffline(ctx, rows, report)
	default:
		res.Mode = ModeLive
		log.Info("enrich: starting live batch",
			zap.Int("rows", len(rows)),
			zap.Int("concurrency", opts.Concurrency),
		)
		var failover bool
		records, res.Recovered, failover, err = p.enrichLive(ctx, rows, opts, report)
		if err == nil && failover {
			log.Warn("enrich: circuit open, switching batch to offline assignment",
				zap.Int("rows", len(rows)),
			)
			res.Mode = ModeFailover
			res.Recovered = 0
			records, err = enrichOffline(ctx, rows, report)
		}
	}
	if err != nil {
		log.Warn("enrich: batch aborted", zap.String("mode", string(res.Mode)), zap.Error(err))
		return nil, err
	}

	res.Records = records
	res.Duration = time.Since(start)

	metrics.EnrichedRows.WithLabelValues(string(res.Mode)).Add(float64(len(records)))
	metrics.EnrichDurationSeconds.WithLabelValues(string(res.Mode)).Observe(res.Duration.Seconds())

	log.Info("enrich: batch complete",
		zap.String("mode", string(res.Mode)),
		zap.Int("rows", len(records)),
		zap.Int("recovered", res.Recovered),
		zap.Duration("duration", res.Duration),
	)
	return res, nil
}

func offlineRecord(i int, r model.Scored) model.Enriched {
	return model.Enriched{
		Scored:   r,
		Category: classifier.OfflineCategory(i),
		Summary:  classifier.OfflineSummary(i),
	}
}

func enrichOffline(ctx context.Context, rows []model.Scored, report *reporter) ([]model.Enriched, error) {
	out := make([]model.Enriched, len(rows))
	for i, r := range rows {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		out[i] = offlineRecord(i, r)
		report.advance(i + 1)
	}
	return out, nil
}

// enrichLive classifies and summarizes every row. failover is set when the
// circuit breaker rejected a call; the partial table is then discarded.
func (p *Pipeline) enrichLive(ctx context.Context, rows []model.Scored, opts Options, report *reporter) (out []model.Enriched, recovered int, failover bool, err error) {
	concurrency := opts.Concurrency
	if concurrency <= 0 {
		concurrency = 1
	}

	rps := opts.RequestsPerSecond
	if rps == 0 {
		rps = DefaultRequestsPerSecond
	}
	limit := rate.Inf
	if rps > 0 {
		limit = rate.Limit(rps)
	}
	limiter := rate.NewLimiter(limit, 1)

	out = make([]model.Enriched, len(rows))

	var (
		recoveredCount atomic.Int64
		circuitOpen    atomic.Bool
	)

	g, gCtx := errgroup.WithContext(ctx)
	g.SetLimit(concurrency)

	for i, r := range rows {
		if gCtx.Err() != nil {
			break
		}
		g.Go(func() error {
			if err := pace(gCtx, limiter); err != nil {
				return err
			}

			rec, usedFallback, err := p.enrichOne(gCtx, r)
			if err != nil {
				if p.circuitOpen(err) {
					circuitOpen.Store(true)
				}
				return err
			}
			if usedFallback {
				recoveredCount.Add(1)
			}
			out[i] = rec
			report.advance(-1)
			return nil
		})
	}

	werr := g.Wait()
	if ctx.Err() != nil {
		return nil, 0, false, ctx.Err()
	}
	if circuitOpen.Load() {
		return nil, 0, true, nil
	}
	if werr != nil {
		return nil, 0, false, eris.Wrap(werr, "enrich: live batch")
	}
	return out, int(recoveredCount.Load()), false, nil
}

// pace blocks until limiter admits one call or ctx ends. Unlike
// rate.Limiter.Wait it does not fail early when the delay would cross the
// deadline, so a batch that runs out of time ends with ctx.Err().
func pace(ctx context.Context, limiter *rate.Limiter) error {
	r := limiter.Reserve()
	delay := r.Delay()
	if delay == 0 {
		return ctx.Err()
	}
	t := time.NewTimer(delay)
	defer t.Stop()
	select {
	case <-t.C:
		return nil
	case <-ctx.Done():
		r.Cancel()
		return ctx.Err()
	}
}

// enrichOne runs both classifier operations for a row. Recoverable failures
// are absorbed into fallback values; anything else is returned.
func (p *Pipeline) enrichOne(ctx context.Context, r model.Scored) (model.Enriched, bool, error) {
	var fallback bool

	cat, err := p.classifier.Classify(ctx, r.Text)
	if err != nil {
		if !classifier.IsRecoverable(err) || p.circuitOpen(err) {
			return model.Enriched{}, false, err
		}
		fallback = true
	}

	summary, err := p.classifier.Summarize(ctx, r.Text)
	if err != nil {
		if !classifier.IsRecoverable(err) || p.circuitOpen(err) {
			return model.Enriched{}, false, err
		}
		fallback = true
	}

	return model.Enriched{Scored: r, Category: cat, Summary: summary}, fallback, nil
}

func (p *Pipeline) circuitOpen(err error) bool {
	if errors.Is(err, resilience.ErrCircuitOpen) {
		return true
	}
	cb := p.classifier.Breaker()
	return cb != nil && cb.State() == resilience.CircuitOpen
}

// reporter serializes progress callbacks so Done is strictly increasing,
// including across a live run that fails over to offline assignment.
type reporter struct {
	mu    sync.Mutex
	n     int
	total int
	fn    ProgressFunc
}

func newReporter(total int, fn ProgressFunc) *reporter {
	return &reporter{total: total, fn: fn}
}

// advance moves progress to done, or by one when done is negative. Calls
// that would not move progress forward are ignored.
func (r *reporter) advance(done int) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if done < 0 {
		done = r.n + 1
	}
	if done <= r.n || done > r.total {
		return
	}
	r.n = done
	if r.fn != nil {
		r.fn(Progress{Done: r.n, Total: r.total})
	}
}
