package stage

import (
	"os"
	"path/filepath"
	"strings"

	"codeberg.org/mutker/hellobakery/internal/bakery"
	"codeberg.org/mutker/hellobakery/internal/errors"
	"gopkg.in/yaml.v3"
)

// planWindowsConfig adds entries to the shared Windows config tree.
// Entries from other plugins already in the file are kept.
func (s *Stager) planWindowsConfig(entries []bakery.WindowsConfigEntry) (pending, error) {
	errFactory := errors.New()
	path := filepath.Join(s.cfg.OutputDir, string(bakery.OSWindows), WindowsConfigFile)

	tree, err := loadTree(path)
	if err != nil {
		return pending{}, err
	}

	for _, e := range entries {
		if err := setPath(tree, e.Path, e.Content); err != nil {
			return pending{}, err
		}
	}

	data, err := yaml.Marshal(tree)
	if err != nil {
		return pending{}, errFactory.Wrap(ErrWindowsConfig, err)
	}

	return pending{path: path, data: data, perm: defaultFilePerm}, nil
}

func loadTree(path string) (map[string]any, error) {
	errFactory := errors.New()

	data, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		return make(map[string]any), nil
	}
	if err != nil {
		return nil, errFactory.Wrap(ErrWindowsConfig, err)
	}

	tree := make(map[string]any)
	if err := yaml.Unmarshal(data, &tree); err != nil {
		return nil, errFactory.Wrap(ErrWindowsConfig, err)
	}
	if tree == nil {
		tree = make(map[string]any)
	}

	return tree, nil
}

// LoadWindowsConfig reads the merged Windows config below outputDir.
func LoadWindowsConfig(outputDir string) (map[string]any, error) {
	return loadTree(filepath.Join(outputDir, string(bakery.OSWindows), WindowsConfigFile))
}

func setPath(tree map[string]any, path []string, value string) error {
	errFactory := errors.New()

	if len(path) == 0 {
		return errFactory.WithData(ErrConflictingPath, "empty path")
	}

	node := tree
	for _, key := range path[:len(path)-1] {
		next, ok := node[key]
		if !ok {
			child := make(map[string]any)
			node[key] = child
			node = child
			continue
		}

		child, ok := next.(map[string]any)
		if !ok {
			return errFactory.WithData(ErrConflictingPath, strings.Join(path, "."))
		}
		node = child
	}

	leaf := path[len(path)-1]
	if _, isMap := node[leaf].(map[string]any); isMap {
		return errFactory.WithData(ErrConflictingPath, strings.Join(path, "."))
	}
	node[leaf] = value

	return nil
}
