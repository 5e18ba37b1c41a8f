package utils

import (
	"os"
	"path/filepath"

	"github.com/joho/godotenv"
)

func FindProjectRoot() (string, error) {
	dir, err := os.Getwd()
	if err != nil {
		return "", err
	}
	for {
		if _, err := os.Stat(filepath.Join(dir, "go.mod")); err == nil {
			return dir, nil
		}
		parent := filepath.Dir(dir)
		if parent == dir {
			break
		}
		dir = parent
	}
	return "", os.ErrNotExist
}

// LoadEnv loads .env from the project root during development, falling
// back to the working directory for installed binaries. A missing file
// is not an error; the environment may already be configured.
func LoadEnv() error {
	if root, err := FindProjectRoot(); err == nil {
		if err := godotenv.Load(filepath.Join(root, ".env")); err == nil {
			return nil
		}
	}
	if err := godotenv.Load(); err != nil && !os.IsNotExist(err) {
		return err
	}
	return nil
}
