package file

import (
	"errors"
	"fmt"
	"io/fs"

	"github.com/joho/godotenv"
)

// LoadEnv loads KEY=VALUE pairs from the given .env files into the process
// environment. Variables already set are not overridden. Missing files are
// skipped; with no paths, ".env" in the working directory is tried.
// It returns the files that were loaded.
func LoadEnv(paths ...string) ([]string, error) {
	if len(paths) == 0 {
		paths = []string{".env"}
	}

	var loaded []string
	for _, p := range paths {
		if err := godotenv.Load(p); err != nil {
			if errors.Is(err, fs.ErrNotExist) {
				continue
			}
			return loaded, fmt.Errorf("load env file %s: %w", p, err)
		}
		loaded = append(loaded, p)
	}
	return loaded, nil
}

// ReadEnv parses a .env file without touching the process environment.
func ReadEnv(path string) (map[string]string, error) {
	values, err := godotenv.Read(path)
	if err != nil {
		return nil, fmt.Errorf("read env file %s: %w", path, err)
	}
	return values, nil
}
