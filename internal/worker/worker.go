// Package worker decouples document processing from the upload path: uploads
// enqueue a job and return immediately, a tracked worker goroutine drives the
// processor state machine and writes status transitions.
package worker

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/rs/zerolog/log"
	"github.com/uptrace/bun"

	"github.com/anggi-susanto/fund-perfromance-analysis/internal/db"
	"github.com/anggi-susanto/fund-perfromance-analysis/internal/models"
	"github.com/anggi-susanto/fund-perfromance-analysis/internal/parser"
	"github.com/anggi-susanto/fund-perfromance-analysis/internal/processor"
)

// errorSummaryLimit caps how many errors land in the document's error
// message column; the full list stays in the stats report.
const errorSummaryLimit = 3

// Job is one document processing request.
type Job struct {
	DocumentID  int64
	FilePath    string
	FundID      int64
	SubmittedAt time.Time
}

// Pool runs document jobs on a bounded queue. Processing within one document
// is sequential; multiple pool workers process distinct documents
// concurrently, each on its own page source.
type Pool struct {
	db    *bun.DB
	proc  *processor.Processor
	jobs  chan Job
	wg    sync.WaitGroup
	close sync.Once
}

func NewPool(database *bun.DB, proc *processor.Processor, queueSize, workers int) *Pool {
	if workers <= 0 {
		workers = 1
	}
	p := &Pool{
		db:   database,
		proc: proc,
		jobs: make(chan Job, queueSize),
	}
	for i := 0; i < workers; i++ {
		p.wg.Add(1)
		go p.run()
	}
	return p
}

// Enqueue hands a job to the pool without blocking the caller beyond queue
// capacity. The caller polls document status for progress.
func (p *Pool) Enqueue(ctx context.Context, job Job) error {
	if job.SubmittedAt.IsZero() {
		job.SubmittedAt = time.Now()
	}
	select {
	case p.jobs <- job:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Shutdown stops accepting jobs and waits for in-flight work, bounded by ctx.
func (p *Pool) Shutdown(ctx context.Context) {
	p.close.Do(func() { close(p.jobs) })
	done := make(chan struct{})
	go func() {
		p.wg.Wait()
		close(done)
	}()
	select {
	case <-done:
	case <-ctx.Done():
		log.Warn().Msg("worker shutdown timed out with jobs in flight")
	}
}

func (p *Pool) run() {
	defer p.wg.Done()
	for job := range p.jobs {
		p.handle(context.Background(), job)
	}
}

// handle executes the document state machine for one job. Every exit path
// leaves the document in a terminal status.
func (p *Pool) handle(ctx context.Context, job Job) {
	logger := log.With().Int64("document_id", job.DocumentID).Int64("fund_id", job.FundID).Logger()
	logger.Info().Str("file", job.FilePath).Msg("processing document")

	if err := db.UpdateDocumentStatus(ctx, p.db, job.DocumentID, models.StatusProcessing, "", nil); err != nil {
		logger.Error().Err(err).Msg("cannot transition document to processing")
		return
	}

	doc, err := db.GetDocument(ctx, p.db, job.DocumentID)
	if err != nil {
		p.fail(ctx, job.DocumentID, fmt.Sprintf("loading document: %v", err))
		return
	}

	source, err := parser.Open(job.FilePath)
	if err != nil {
		p.fail(ctx, job.DocumentID, fmt.Sprintf("opening document: %v", err))
		return
	}
	defer source.Close()

	report := p.proc.Process(ctx, doc, source, job.FundID)
	status := report.FinalStatus()

	errMsg := ""
	if status == models.StatusFailed || status == models.StatusCompletedWithErrors {
		errMsg = summarizeErrors(report.Errors)
	}
	if err := db.UpdateDocumentStatus(ctx, p.db, job.DocumentID, status, errMsg, report); err != nil {
		logger.Error().Err(err).Msg("failed to persist terminal status")
		return
	}
	logger.Info().Str("status", string(status)).Msg("document finished")
}

func (p *Pool) fail(ctx context.Context, documentID int64, msg string) {
	report := &models.ProcessingReport{Errors: []string{msg}}
	if err := db.UpdateDocumentStatus(ctx, p.db, documentID, models.StatusFailed, msg, report); err != nil {
		log.Error().Err(err).Int64("document_id", documentID).Msg("failed to mark document failed")
	}
}

func summarizeErrors(errs []string) string {
	if len(errs) > errorSummaryLimit {
		errs = errs[:errorSummaryLimit]
	}
	return strings.Join(errs, "; ")
}
