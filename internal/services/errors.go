package services

import "errors"

var (
	// ErrNotReady is returned when job content is requested before the
	// job has completed.
	ErrNotReady = errors.New("documentation not ready")

	// ErrJobNotFound is returned for unknown job keys.
	ErrJobNotFound = errors.New("job not found")

	// ErrRepositoryNotFound is returned for unknown repository ids.
	ErrRepositoryNotFound = errors.New("repository not found")

	// ErrFileNotFound is returned by the source collaborator when a path
	// no longer exists in the snapshot. The pipeline treats it as a
	// per-file skip.
	ErrFileNotFound = errors.New("file not found")

	// ErrBatchFatal means the orchestrator could not proceed at all,
	// e.g. a constructed batch contained zero requests.
	ErrBatchFatal = errors.New("batch cannot proceed")
)
