package models

import (
	"fmt"
	"time"
)

const (
	JobStatusPending    = "pending"
	JobStatusProcessing = "processing"
	JobStatusCompleted  = "completed"
	JobStatusFailed     = "failed"
)

// DocumentationJob tracks one generation run against one repository
// snapshot. Jobs are append-only history: re-running generation for a
// repository creates a new row instead of mutating an old one.
type DocumentationJob struct {
	ID                 uint   `gorm:"primaryKey"`
	JobKey             string `gorm:"size:36;uniqueIndex;not null"`
	RepositoryID       uint   `gorm:"index;not null"`
	Status             string `gorm:"size:20;not null;default:pending"`
	FileCount          int
	ProcessedItems     int
	ItemCount          int
	ProgressPercentage float64
	GeneratedDocs      string `gorm:"type:text"`
	ErrorMessage       string `gorm:"type:text"`
	StartedAt          *time.Time
	CompletedAt        *time.Time
	CreatedAt          time.Time
}

// MarkProcessing transitions pending -> processing.
func (j *DocumentationJob) MarkProcessing(now time.Time) error {
	if j.Status != JobStatusPending {
		return fmt.Errorf("cannot start job in status %q", j.Status)
	}
	j.Status = JobStatusProcessing
	j.StartedAt = &now
	return nil
}

// MarkCompleted transitions processing -> completed and stores the
// serialized document.
func (j *DocumentationJob) MarkCompleted(docs string, now time.Time) error {
	if j.Status != JobStatusProcessing {
		return fmt.Errorf("cannot complete job in status %q", j.Status)
	}
	j.Status = JobStatusCompleted
	j.GeneratedDocs = docs
	j.ProcessedItems = j.ItemCount
	j.ProgressPercentage = 100.0
	j.CompletedAt = &now
	return nil
}

// MarkFailed transitions pending|processing -> failed with a
// human-readable reason.
func (j *DocumentationJob) MarkFailed(reason string, now time.Time) error {
	if j.Status == JobStatusCompleted || j.Status == JobStatusFailed {
		return fmt.Errorf("cannot fail job in terminal status %q", j.Status)
	}
	j.Status = JobStatusFailed
	j.ErrorMessage = reason
	j.CompletedAt = &now
	return nil
}

// Progress returns the percentage for a given processed count, clamped
// to [0,100]. Zero items means zero percent.
func (j *DocumentationJob) Progress(processed int) float64 {
	if j.ItemCount <= 0 {
		return 0.0
	}
	pct := float64(processed) / float64(j.ItemCount) * 100
	if pct > 100 {
		pct = 100
	}
	if pct < 0 {
		pct = 0
	}
	return pct
}

// IsTerminal reports whether the job reached a final state.
func (j *DocumentationJob) IsTerminal() bool {
	return j.Status == JobStatusCompleted || j.Status == JobStatusFailed
}
