package services

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"sync"
	"time"

	"github.com/google/uuid"

	"codedoc/internal/enhancer"
	"codedoc/internal/models"
	"codedoc/internal/repositories"
	"codedoc/internal/structure"
)

// DocGenService is the entry point for the documentation pipeline. It
// registers repositories, launches generation jobs, and serves job state
// to callers polling for results.
type DocGenService struct {
	repos        repositories.RepositoryRepository
	jobs         repositories.DocumentationJobRepository
	source       *SourceService
	extractor    *structure.Extractor
	orchestrator *BatchOrchestrator

	mu      sync.Mutex
	cancels map[string]context.CancelFunc
}

func NewDocGenService(
	repos repositories.RepositoryRepository,
	jobs repositories.DocumentationJobRepository,
	source *SourceService,
	orchestrator *BatchOrchestrator,
) *DocGenService {
	return &DocGenService{
		repos:        repos,
		jobs:         jobs,
		source:       source,
		extractor:    structure.NewExtractor(),
		orchestrator: orchestrator,
		cancels:      make(map[string]context.CancelFunc),
	}
}

// RegisterRepository records a repository by name and source location.
// Source is either a local path (optionally a git worktree) or a path to
// a cloned repository. Registering the same full name twice returns the
// existing record.
func (s *DocGenService) RegisterRepository(name, fullName, source string) (*models.Repository, error) {
	if fullName == "" {
		return nil, fmt.Errorf("repository full name is required")
	}
	existing, err := s.repos.GetByFullName(fullName)
	if err != nil {
		return nil, fmt.Errorf("failed to look up repository: %w", err)
	}
	if existing != nil {
		return existing, nil
	}
	repo := &models.Repository{
		Name:     name,
		FullName: fullName,
		Source:   source,
		Language: "python",
	}
	if err := s.repos.Create(repo); err != nil {
		return nil, fmt.Errorf("failed to create repository: %w", err)
	}
	return repo, nil
}

// TriggerGeneration starts an asynchronous documentation job for the
// repository and returns its job key immediately. Progress and results
// are polled through GetJob and GetJobContent.
func (s *DocGenService) TriggerGeneration(ctx context.Context, repositoryID uint) (string, error) {
	repo, err := s.repos.GetByID(repositoryID)
	if err != nil {
		return "", fmt.Errorf("failed to look up repository: %w", err)
	}
	if repo == nil {
		return "", ErrRepositoryNotFound
	}

	fileCount, err := s.source.SyncRepositoryFiles(repo)
	if err != nil {
		return "", fmt.Errorf("failed to scan repository files: %w", err)
	}

	job := &models.DocumentationJob{
		JobKey:       uuid.NewString(),
		RepositoryID: repo.ID,
		Status:       models.JobStatusPending,
		FileCount:    fileCount,
	}
	if err := s.jobs.Create(job); err != nil {
		return "", fmt.Errorf("failed to create job: %w", err)
	}

	runCtx, cancel := context.WithCancel(context.WithoutCancel(ctx))
	s.mu.Lock()
	s.cancels[job.JobKey] = cancel
	s.mu.Unlock()

	go func() {
		defer func() {
			s.mu.Lock()
			delete(s.cancels, job.JobKey)
			s.mu.Unlock()
			cancel()
		}()
		if err := s.runJob(runCtx, repo, job); err != nil {
			log.Printf("documentation job %s failed: %v", job.JobKey, err)
		}
	}()

	return job.JobKey, nil
}

// runJob analyzes every supported file, builds generation requests, and
// hands the batch to the orchestrator. Unreadable or unparseable files
// are logged and skipped; they never fail the job on their own.
func (s *DocGenService) runJob(ctx context.Context, repo *models.Repository, job *models.DocumentationJob) error {
	files, err := s.repos.ListSupportedFiles(repo.ID)
	if err != nil {
		return s.failEarly(job, fmt.Errorf("failed to list files: %w", err))
	}

	repoCtx := enhancer.RepoContext{Name: repo.Name, FullName: repo.FullName}
	var requests []models.GenerationRequest
	var stats enhancer.BatchStats
	analyzed := 0

	for _, file := range files {
		source, err := s.source.FetchFile(repo, file.Path)
		if err != nil {
			log.Printf("skipping %s: %v", file.Path, err)
			continue
		}
		st, err := s.extractor.Extract(file.Path, source)
		if err != nil {
			// Parse failures and anything else unexpected cost only
			// this file, never the batch.
			log.Printf("skipping %s: %v", file.Path, err)
			continue
		}
		analyzed++
		stats.Observe(st)
		requests = append(requests, enhancer.Enhance(st, repoCtx)...)
	}

	if analyzed > 0 {
		requests = append(requests, enhancer.BuildReadmeRequest(repoCtx, stats))
	}

	job.ItemCount = len(requests)
	if err := s.jobs.Save(job); err != nil {
		return s.failEarly(job, fmt.Errorf("failed to persist item count: %w", err))
	}

	return s.orchestrator.Run(ctx, job, repo.Name, requests)
}

func (s *DocGenService) failEarly(job *models.DocumentationJob, cause error) error {
	if err := job.MarkFailed(cause.Error(), time.Now()); err != nil {
		log.Printf("job %s: %v", job.JobKey, err)
	}
	if err := s.jobs.Save(job); err != nil {
		log.Printf("failed to persist failed job %s: %v", job.JobKey, err)
	}
	return cause
}

// GetJob returns the current persisted state of a job.
func (s *DocGenService) GetJob(jobKey string) (*models.DocumentationJob, error) {
	job, err := s.jobs.GetByKey(jobKey)
	if err != nil {
		return nil, fmt.Errorf("failed to look up job: %w", err)
	}
	if job == nil {
		return nil, ErrJobNotFound
	}
	return job, nil
}

// GetJobContent returns the assembled document of a completed job. Jobs
// in any other state return ErrNotReady.
func (s *DocGenService) GetJobContent(jobKey string) (*models.Document, error) {
	job, err := s.GetJob(jobKey)
	if err != nil {
		return nil, err
	}
	if job.Status != models.JobStatusCompleted {
		return nil, fmt.Errorf("job %s is %s: %w", jobKey, job.Status, ErrNotReady)
	}
	var doc models.Document
	if err := json.Unmarshal([]byte(job.GeneratedDocs), &doc); err != nil {
		return nil, fmt.Errorf("failed to decode stored document: %w", err)
	}
	return &doc, nil
}

// CancelJob stops an in-flight job. Items already dispatched run to
// completion; the job itself ends up failed.
func (s *DocGenService) CancelJob(jobKey string) error {
	s.mu.Lock()
	cancel, ok := s.cancels[jobKey]
	s.mu.Unlock()
	if !ok {
		job, err := s.GetJob(jobKey)
		if err != nil {
			return err
		}
		if job.IsTerminal() {
			return fmt.Errorf("job %s already %s", jobKey, job.Status)
		}
		return fmt.Errorf("job %s is not running in this process", jobKey)
	}
	cancel()
	return nil
}
