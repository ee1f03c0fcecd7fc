// Package dashboard serves the published enriched table over a read/filter
// HTTP API and runs enrichment in the background on request.
package dashboard

import (
	"context"
	"sync"
	"sync/atomic"
	"time"

	"go.uber.org/zap"

	"github.com/anthonyruan/Customer-Feedback-Aggregation-System/internal/enrich"
	"github.com/anthonyruan/Customer-Feedback-Aggregation-System/internal/ingest"
	"github.com/anthonyruan/Customer-Feedback-Aggregation-System/internal/metrics"
	"github.com/anthonyruan/Customer-Feedback-Aggregation-System/internal/model"
)

// Snapshot is an immutable published table. Handlers never see a table that
// is still being enriched.
type Snapshot struct {
	RunID       string           `json:"run_id"`
	Mode        enrich.Mode      `json:"mode"`
	Records     []model.Enriched `json:"records"`
	Recovered   int              `json:"recovered"`
	Warnings    []ingest.Warning `json:"warnings,omitempty"`
	PublishedAt time.Time        `json:"published_at"`
}

// RunState is the lifecycle of the most recent enrichment request.
type RunState string

const (
	RunIdle      RunState = "idle"
	RunRunning   RunState = "running"
	RunDone      RunState = "done"
	RunFailed    RunState = "failed"
	RunCancelled RunState = "cancelled"
)

// Status reports the progress of the most recent enrichment request.
type Status struct {
	State RunState `json:"state"`
	Done  int      `json:"done"`
	Total int      `json:"total"`
	Error string   `json:"error,omitempty"`
}

// Config configures a Server.
type Config struct {
	// CORSOrigins lists allowed browser origins. Empty allows any origin.
	CORSOrigins []string
	// Enrich is applied to every background run. Its Progress field is
	// replaced by the server.
	Enrich enrich.Options
	// Warnings are the data-quality warnings of the working table, published
	// alongside every snapshot.
	Warnings []ingest.Warning
}

// Server owns the working table, the published snapshot and at most one
// in-flight enrichment run.
type Server struct {
	pipeline *enrich.Pipeline
	rows     []model.Scored
	cfg      Config

	snapshot atomic.Pointer[Snapshot]

	mu     sync.Mutex
	seq    uint64
	status Status
	cancel context.CancelFunc

	baseCtx    context.Context
	baseCancel context.CancelFunc
	wg         sync.WaitGroup
}

// New creates a Server for the scored working table rows. Nothing is
// published until Reload completes.
func New(p *enrich.Pipeline, rows []model.Scored, cfg Config) *Server {
	ctx, cancel := context.WithCancel(context.Background())
	return &Server{
		pipeline:   p,
		rows:       rows,
		cfg:        cfg,
		status:     Status{State: RunIdle},
		baseCtx:    ctx,
		baseCancel: cancel,
	}
}

// Snapshot returns the published table, or nil.
func (s *Server) Snapshot() *Snapshot {
	return s.snapshot.Load()
}

// Status returns the progress of the most recent run.
func (s *Server) Status() Status {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.status
}

// Reload starts enriching the working table in the background, cancelling
// any run still in flight. The result is published only when the run
// completes.
func (s *Server) Reload() {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.cancel != nil {
		s.cancel()
	}
	ctx, cancel := context.WithCancel(s.baseCtx)
	s.cancel = cancel
	s.seq++
	s.status = Status{State: RunRunning, Total: len(s.rows)}

	s.wg.Add(1)
	go s.run(ctx, cancel, s.seq)
}

// Reset cancels any in-flight run, withdraws the published table and closes
// the classifier circuit.
func (s *Server) Reset() {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.cancel != nil {
		s.cancel()
		s.cancel = nil
	}
	s.seq++
	s.status = Status{State: RunIdle}
	s.snapshot.Store(nil)
	metrics.PublishedRows.Set(0)
	s.pipeline.ResetCircuit()
	zap.L().Info("dashboard: reset")
}

// Wait blocks until no run is in flight.
func (s *Server) Wait() {
	s.wg.Wait()
}

// Close cancels any in-flight run and waits for it to stop.
func (s *Server) Close() {
	s.baseCancel()
	s.wg.Wait()
}

func (s *Server) run(ctx context.Context, cancel context.CancelFunc, seq uint64) {
	defer s.wg.Done()
	defer cancel()

	opts := s.cfg.Enrich
	opts.Progress = func(p enrich.Progress) {
		s.mu.Lock()
		defer s.mu.Unlock()
		if seq == s.seq {
			s.status.Done = p.Done
			s.status.Total = p.Total
		}
	}

	res, err := s.pipeline.Enrich(ctx, s.rows, opts)

	s.mu.Lock()
	defer s.mu.Unlock()
	if seq != s.seq {
		// Superseded by a later Reload or Reset.
		return
	}
	s.cancel = nil

	if err != nil {
		state := RunFailed
		if ctx.Err() != nil {
			state = RunCancelled
		}
		s.status.State = state
		s.status.Error = err.Error()
		zap.L().Warn("dashboard: enrichment run did not complete",
			zap.String("state", string(state)),
			zap.Error(err),
		)
		return
	}

	s.publish(res)
	s.status.State = RunDone
}

func (s *Server) publish(res *enrich.Result) {
	s.snapshot.Store(&Snapshot{
		RunID:       res.RunID,
		Mode:        res.Mode,
		Records:     res.Records,
		Recovered:   res.Recovered,
		Warnings:    s.cfg.Warnings,
		PublishedAt: time.Now().UTC(),
	})
	metrics.PublishedRows.Set(float64(len(res.Records)))
	zap.L().Info("dashboard: snapshot published",
		zap.String("run_id", res.RunID),
		zap.String("mode", string(res.Mode)),
		zap.Int("rows", len(res.Records)),
	)
}
