package models

import "time"

type Repository struct {
	ID           uint   `gorm:"primaryKey"`
	Name         string `gorm:"size:200;not null"`
	FullName     string `gorm:"size:200;uniqueIndex"`
	Source       string `gorm:"size:500;not null"` // local path or clone URL
	Language     string `gorm:"size:50"`
	LastSyncedAt *time.Time
	CreatedAt    time.Time
}

type RepositoryFile struct {
	ID           uint   `gorm:"primaryKey"`
	RepositoryID uint   `gorm:"index:idx_repo_file_path,unique;not null"`
	Path         string `gorm:"size:500;index:idx_repo_file_path,unique;not null"`
	Name         string `gorm:"size:200;not null"`
	Extension    string `gorm:"size:10"`
	Size         int64
	IsSupported  bool
	CreatedAt    time.Time
	UpdatedAt    time.Time
}
