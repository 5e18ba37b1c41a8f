package repositories

import (
	"errors"
	"fmt"

	"gorm.io/gorm"

	"codedoc/internal/models"
)

type DocumentationJobRepository interface {
	Create(job *models.DocumentationJob) error
	GetByKey(jobKey string) (*models.DocumentationJob, error)
	ListByRepository(repositoryID uint) ([]models.DocumentationJob, error)
	Save(job *models.DocumentationJob) error
	UpdateProgress(id uint, processedItems int, progress float64) error
}

type documentationJobRepository struct {
	db *gorm.DB
}

func NewDocumentationJobRepository(db *gorm.DB) DocumentationJobRepository {
	return &documentationJobRepository{db: db}
}

func (r *documentationJobRepository) Create(job *models.DocumentationJob) error {
	if job == nil {
		return fmt.Errorf("job is required")
	}
	if job.JobKey == "" {
		return fmt.Errorf("job key is required")
	}
	return r.db.Create(job).Error
}

func (r *documentationJobRepository) GetByKey(jobKey string) (*models.DocumentationJob, error) {
	var job models.DocumentationJob
	res := r.db.Where("job_key = ?", jobKey).Take(&job)
	if res.Error != nil {
		if errors.Is(res.Error, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, res.Error
	}
	return &job, nil
}

func (r *documentationJobRepository) ListByRepository(repositoryID uint) ([]models.DocumentationJob, error) {
	var jobs []models.DocumentationJob
	res := r.db.Where("repository_id = ?", repositoryID).Order("created_at desc").Find(&jobs)
	if res.Error != nil {
		return nil, res.Error
	}
	return jobs, nil
}

func (r *documentationJobRepository) Save(job *models.DocumentationJob) error {
	if job == nil || job.ID == 0 {
		return fmt.Errorf("persisted job is required")
	}
	return r.db.Save(job).Error
}

// UpdateProgress writes the progress tuple in a single UPDATE so pollers
// never observe a half-updated row.
func (r *documentationJobRepository) UpdateProgress(id uint, processedItems int, progress float64) error {
	if id == 0 {
		return fmt.Errorf("job ID is required")
	}
	return r.db.Model(&models.DocumentationJob{}).
		Where("id = ? AND processed_items <= ?", id, processedItems).
		Updates(map[string]interface{}{
			"processed_items":     processedItems,
			"progress_percentage": progress,
		}).Error
}
