package services

import (
	"context"
	"fmt"
	"log"
	"sync"
	"time"

	"github.com/sourcegraph/conc/pool"
	"golang.org/x/time/rate"

	"codedoc/internal/models"
	"codedoc/internal/repositories"
)

// Generator produces documentation for a single request. Implementations
// never return an error: exhausted retries and blocked responses come
// back as fallback results instead.
type Generator interface {
	Generate(ctx context.Context, req models.GenerationRequest) models.GenerationResult
}

type BatchConfig struct {
	// RequestsPerMinute caps the outbound call rate across all workers.
	RequestsPerMinute int
	// Concurrency bounds in-flight generation calls.
	Concurrency int
}

func (c BatchConfig) withDefaults() BatchConfig {
	if c.RequestsPerMinute <= 0 {
		c.RequestsPerMinute = 12
	}
	if c.Concurrency <= 0 {
		c.Concurrency = 1
	}
	return c
}

// BatchOrchestrator drives one documentation job from processing to a
// terminal state: it rate-limits generation calls, persists progress
// after every item, and assembles the final document.
type BatchOrchestrator struct {
	jobs      repositories.DocumentationJobRepository
	generator Generator
	assembler *DocumentAssembler
	cfg       BatchConfig
}

func NewBatchOrchestrator(jobs repositories.DocumentationJobRepository, generator Generator, assembler *DocumentAssembler, cfg BatchConfig) *BatchOrchestrator {
	return &BatchOrchestrator{
		jobs:      jobs,
		generator: generator,
		assembler: assembler,
		cfg:       cfg.withDefaults(),
	}
}

// Run processes all requests of a job. The job must be pending. Partial
// success still completes the job: individual items degrade to fallback
// text inside the generator, so the only fatal outcomes are a batch that
// produced zero requests from a non-empty file set, or cancellation.
func (o *BatchOrchestrator) Run(ctx context.Context, job *models.DocumentationJob, repoName string, requests []models.GenerationRequest) error {
	now := time.Now()
	if err := job.MarkProcessing(now); err != nil {
		return err
	}
	if err := o.jobs.Save(job); err != nil {
		return fmt.Errorf("failed to persist job start: %w", err)
	}

	if len(requests) == 0 {
		if job.FileCount == 0 {
			// Nothing to document, but nothing went wrong either.
			return o.complete(job, repoName, models.GenerationResult{}, nil)
		}
		return o.fail(job, ErrBatchFatal, "no documentation targets could be prepared")
	}

	results := make([]models.GenerationResult, len(requests))
	limiter := rate.NewLimiter(rate.Every(time.Minute/time.Duration(o.cfg.RequestsPerMinute)), 1)

	var mu sync.Mutex
	processed := 0

	p := pool.New().WithMaxGoroutines(o.cfg.Concurrency)
	for i, req := range requests {
		p.Go(func() {
			if ctx.Err() != nil {
				return
			}
			if err := limiter.Wait(ctx); err != nil {
				return
			}
			// Once dispatched, an item runs to completion even if the
			// job is cancelled mid-flight.
			results[i] = o.generator.Generate(context.WithoutCancel(ctx), req)

			mu.Lock()
			processed++
			done := processed
			mu.Unlock()

			if err := o.jobs.UpdateProgress(job.ID, done, job.Progress(done)); err != nil {
				log.Printf("failed to persist progress for job %s: %v", job.JobKey, err)
			}
		})
	}
	p.Wait()

	if ctx.Err() != nil {
		return o.fail(job, ctx.Err(), "generation cancelled")
	}

	var readme models.GenerationResult
	items := make([]models.GenerationResult, 0, len(results))
	for _, res := range results {
		if res.Kind == models.RequestKindReadme {
			readme = res
			continue
		}
		items = append(items, res)
	}
	return o.complete(job, repoName, readme, items)
}

func (o *BatchOrchestrator) complete(job *models.DocumentationJob, repoName string, readme models.GenerationResult, items []models.GenerationResult) error {
	doc := o.assembler.Assemble(repoName, readme, items)
	payload, err := doc.MarshalStable()
	if err != nil {
		return o.fail(job, err, "failed to serialize document")
	}
	if err := job.MarkCompleted(string(payload), time.Now()); err != nil {
		return err
	}
	if err := o.jobs.Save(job); err != nil {
		return fmt.Errorf("failed to persist completed job: %w", err)
	}
	return nil
}

func (o *BatchOrchestrator) fail(job *models.DocumentationJob, cause error, reason string) error {
	if err := job.MarkFailed(reason, time.Now()); err != nil {
		log.Printf("job %s: %v", job.JobKey, err)
	}
	if err := o.jobs.Save(job); err != nil {
		log.Printf("failed to persist failed job %s: %v", job.JobKey, err)
	}
	return fmt.Errorf("%s: %w", reason, cause)
}
