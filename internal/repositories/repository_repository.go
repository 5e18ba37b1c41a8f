package repositories

import (
	"errors"
	"fmt"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"codedoc/internal/models"
)

type RepositoryRepository interface {
	Create(repo *models.Repository) error
	GetByID(id uint) (*models.Repository, error)
	GetByFullName(fullName string) (*models.Repository, error)
	Save(repo *models.Repository) error
	UpsertFile(file *models.RepositoryFile) error
	ListSupportedFiles(repositoryID uint) ([]models.RepositoryFile, error)
	DeleteFilesNotIn(repositoryID uint, keepPaths []string) error
}

type repositoryRepository struct {
	db *gorm.DB
}

func NewRepositoryRepository(db *gorm.DB) RepositoryRepository {
	return &repositoryRepository{db: db}
}

func (r *repositoryRepository) Create(repo *models.Repository) error {
	if repo == nil {
		return fmt.Errorf("repository is required")
	}
	if repo.FullName == "" {
		return fmt.Errorf("repository full name is required")
	}
	return r.db.Create(repo).Error
}

func (r *repositoryRepository) GetByID(id uint) (*models.Repository, error) {
	var repo models.Repository
	res := r.db.Take(&repo, id)
	if res.Error != nil {
		if errors.Is(res.Error, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, res.Error
	}
	return &repo, nil
}

func (r *repositoryRepository) GetByFullName(fullName string) (*models.Repository, error) {
	var repo models.Repository
	res := r.db.Where("full_name = ?", fullName).Take(&repo)
	if res.Error != nil {
		if errors.Is(res.Error, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, res.Error
	}
	return &repo, nil
}

func (r *repositoryRepository) Save(repo *models.Repository) error {
	if repo == nil || repo.ID == 0 {
		return fmt.Errorf("persisted repository is required")
	}
	return r.db.Save(repo).Error
}

// UpsertFile inserts or refreshes one scanned file on the composite
// (repository_id, path) unique index.
func (r *repositoryRepository) UpsertFile(file *models.RepositoryFile) error {
	if file == nil {
		return fmt.Errorf("file is required")
	}
	if file.RepositoryID == 0 || file.Path == "" {
		return fmt.Errorf("repository ID and path are required")
	}
	return r.db.Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "repository_id"}, {Name: "path"}},
		DoUpdates: clause.AssignmentColumns([]string{"name", "extension", "size", "is_supported", "updated_at"}),
	}).Create(file).Error
}

func (r *repositoryRepository) ListSupportedFiles(repositoryID uint) ([]models.RepositoryFile, error) {
	var files []models.RepositoryFile
	res := r.db.Where("repository_id = ? AND is_supported = ?", repositoryID, true).
		Order("path asc").Find(&files)
	if res.Error != nil {
		return nil, res.Error
	}
	return files, nil
}

// DeleteFilesNotIn drops rows for files that disappeared from the source
// since the last sync.
func (r *repositoryRepository) DeleteFilesNotIn(repositoryID uint, keepPaths []string) error {
	if repositoryID == 0 {
		return fmt.Errorf("repository ID is required")
	}
	q := r.db.Where("repository_id = ?", repositoryID)
	if len(keepPaths) > 0 {
		q = q.Where("path NOT IN ?", keepPaths)
	}
	return q.Delete(&models.RepositoryFile{}).Error
}
