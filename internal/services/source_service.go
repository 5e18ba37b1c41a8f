package services

import (
	"errors"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/go-git/go-git/v5"
	"github.com/go-git/go-git/v5/plumbing/object"
	"github.com/yargevad/filepathx"

	"codedoc/internal/models"
	"codedoc/internal/repositories"
)

const supportedExtension = ".py"

// SourceService is the file-fetching collaborator: it resolves a
// repository source (git repository or plain directory) into file
// listings and raw file text. It never parses or interprets content.
type SourceService struct {
	repos repositories.RepositoryRepository
}

func NewSourceService(repos repositories.RepositoryRepository) *SourceService {
	return &SourceService{repos: repos}
}

// SyncRepositoryFiles scans the repository snapshot and reconciles the
// RepositoryFile rows, returning the number of supported files.
func (s *SourceService) SyncRepositoryFiles(repo *models.Repository) (int, error) {
	if repo == nil || repo.ID == 0 {
		return 0, fmt.Errorf("persisted repository is required")
	}

	entries, err := s.listFiles(repo)
	if err != nil {
		return 0, fmt.Errorf("scan %s: %w", repo.FullName, err)
	}

	supported := 0
	paths := make([]string, 0, len(entries))
	for _, entry := range entries {
		paths = append(paths, entry.Path)
		if entry.IsSupported {
			supported++
		}
		entry.RepositoryID = repo.ID
		if err := s.repos.UpsertFile(&entry); err != nil {
			return 0, fmt.Errorf("upsert file %s: %w", entry.Path, err)
		}
	}
	if err := s.repos.DeleteFilesNotIn(repo.ID, paths); err != nil {
		return 0, err
	}

	now := time.Now()
	repo.LastSyncedAt = &now
	if err := s.repos.Save(repo); err != nil {
		return 0, err
	}
	log.Printf("synced %d files (%d supported) for %s", len(entries), supported, repo.FullName)
	return supported, nil
}

// FetchFile returns the raw text of one file from the snapshot. Missing
// paths yield ErrFileNotFound.
func (s *SourceService) FetchFile(repo *models.Repository, path string) ([]byte, error) {
	if repo == nil {
		return nil, fmt.Errorf("repository is required")
	}

	if gitRepo, err := git.PlainOpen(repo.Source); err == nil {
		tree, err := headTree(gitRepo)
		if err != nil {
			return nil, err
		}
		f, err := tree.File(filepath.ToSlash(path))
		if err != nil {
			if errors.Is(err, object.ErrFileNotFound) {
				return nil, fmt.Errorf("%w: %s", ErrFileNotFound, path)
			}
			return nil, err
		}
		content, err := f.Contents()
		if err != nil {
			return nil, err
		}
		return []byte(content), nil
	}

	data, err := os.ReadFile(filepath.Join(repo.Source, path))
	if err != nil {
		if os.IsNotExist(err) {
			return nil, fmt.Errorf("%w: %s", ErrFileNotFound, path)
		}
		return nil, err
	}
	return data, nil
}

// listFiles walks the git HEAD tree when the source is a repository,
// otherwise globs the directory recursively.
func (s *SourceService) listFiles(repo *models.Repository) ([]models.RepositoryFile, error) {
	if gitRepo, err := git.PlainOpen(repo.Source); err == nil {
		return listGitFiles(gitRepo)
	}

	info, err := os.Stat(repo.Source)
	if err != nil {
		return nil, err
	}
	if !info.IsDir() {
		return nil, fmt.Errorf("source %s is not a directory or git repository", repo.Source)
	}
	return listDirFiles(repo.Source)
}

func listGitFiles(gitRepo *git.Repository) ([]models.RepositoryFile, error) {
	tree, err := headTree(gitRepo)
	if err != nil {
		return nil, err
	}
	var files []models.RepositoryFile
	err = tree.Files().ForEach(func(f *object.File) error {
		files = append(files, fileEntry(f.Name, f.Size))
		return nil
	})
	if err != nil {
		return nil, err
	}
	return files, nil
}

func listDirFiles(root string) ([]models.RepositoryFile, error) {
	matches, err := filepathx.Glob(filepath.Join(root, "**", "*"))
	if err != nil {
		return nil, err
	}
	var files []models.RepositoryFile
	for _, match := range matches {
		info, err := os.Stat(match)
		if err != nil || info.IsDir() {
			continue
		}
		rel, err := filepath.Rel(root, match)
		if err != nil {
			continue
		}
		rel = filepath.ToSlash(rel)
		if strings.HasPrefix(rel, ".git/") {
			continue
		}
		files = append(files, fileEntry(rel, info.Size()))
	}
	return files, nil
}

func fileEntry(path string, size int64) models.RepositoryFile {
	ext := strings.ToLower(filepath.Ext(path))
	return models.RepositoryFile{
		Path:        path,
		Name:        filepath.Base(path),
		Extension:   ext,
		Size:        size,
		IsSupported: ext == supportedExtension,
	}
}

func headTree(gitRepo *git.Repository) (*object.Tree, error) {
	ref, err := gitRepo.Head()
	if err != nil {
		return nil, fmt.Errorf("resolve HEAD: %w", err)
	}
	commit, err := gitRepo.CommitObject(ref.Hash())
	if err != nil {
		return nil, fmt.Errorf("resolve HEAD commit: %w", err)
	}
	return commit.Tree()
}
