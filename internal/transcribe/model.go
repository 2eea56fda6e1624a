package transcribe

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
)

// ErrNoModel is returned when a directory holds no usable model file.
var ErrNoModel = errors.New("transcribe: no model found")

// modelPreferences are tried in order; each entry lists substrings that must
// all appear in the file name.
var modelPreferences = [][]string{
	{"large-v3", "q5_0"},
	{"medium", "q5_0"},
}

// ResolveModel returns path itself when it names a file. For a directory it
// picks the preferred model found underneath, falling back to the first model
// file in lexical order.
func ResolveModel(path string) (string, error) {
	info, err := os.Stat(path)
	if err != nil {
		return "", fmt.Errorf("transcribe: resolve model: %w", err)
	}
	if !info.IsDir() {
		return path, nil
	}

	var candidates []string
	err = filepath.WalkDir(path, func(p string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.Type().IsRegular() && isModelFile(d.Name()) {
			candidates = append(candidates, p)
		}
		return nil
	})
	if err != nil {
		return "", fmt.Errorf("transcribe: scan %s: %w", path, err)
	}
	if len(candidates) == 0 {
		return "", fmt.Errorf("%w in %s", ErrNoModel, path)
	}

	for _, want := range modelPreferences {
		for _, c := range candidates {
			if nameHasAll(filepath.Base(c), want) {
				return c, nil
			}
		}
	}
	return candidates[0], nil
}

func isModelFile(name string) bool {
	switch strings.ToLower(filepath.Ext(name)) {
	case ".gguf", ".bin":
		return true
	}
	return false
}

func nameHasAll(name string, parts []string) bool {
	name = strings.ToLower(name)
	for _, p := range parts {
		if !strings.Contains(name, p) {
			return false
		}
	}
	return true
}
