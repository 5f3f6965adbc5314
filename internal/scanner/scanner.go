// Package scanner collects Python source units from the filesystem. It is
// an engine collaborator: the engine itself never touches disk.
package scanner

import (
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/gobwas/glob"

	"smellwatch/internal/config"
	"smellwatch/internal/engine/analyzer"
)

type Scanner struct {
	excludeDirs  []glob.Glob
	excludeFiles []glob.Glob
}

func New(exclude config.Exclude) (*Scanner, error) {
	s := &Scanner{}
	for _, pattern := range exclude.Dirs {
		g, err := glob.Compile(pattern)
		if err != nil {
			return nil, err
		}
		s.excludeDirs = append(s.excludeDirs, g)
	}
	for _, pattern := range exclude.Files {
		g, err := glob.Compile(pattern)
		if err != nil {
			return nil, err
		}
		s.excludeFiles = append(s.excludeFiles, g)
	}
	return s, nil
}

// Collect walks each path (file or directory) and reads every .py unit
// not matching an exclude pattern. Paths are normalized to slashes so
// finding order is stable across platforms.
func (s *Scanner) Collect(paths []string) ([]analyzer.UnitInput, error) {
	var inputs []analyzer.UnitInput
	seen := make(map[string]bool)

	for _, root := range paths {
		info, err := os.Stat(root)
		if err != nil {
			return nil, err
		}
		if !info.IsDir() {
			input, err := s.readUnit(root, seen)
			if err != nil {
				return nil, err
			}
			if input != nil {
				inputs = append(inputs, *input)
			}
			continue
		}

		err = filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
			if err != nil {
				return err
			}
			if d.IsDir() {
				if s.excludedDir(path) {
					return filepath.SkipDir
				}
				return nil
			}
			if !strings.HasSuffix(path, ".py") || s.excludedFile(path) {
				return nil
			}
			input, err := s.readUnit(path, seen)
			if err != nil {
				return err
			}
			if input != nil {
				inputs = append(inputs, *input)
			}
			return nil
		})
		if err != nil {
			return nil, err
		}
	}

	return inputs, nil
}

func (s *Scanner) readUnit(path string, seen map[string]bool) (*analyzer.UnitInput, error) {
	normalized := filepath.ToSlash(path)
	if seen[normalized] {
		return nil, nil
	}
	seen[normalized] = true

	content, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	return &analyzer.UnitInput{Path: normalized, Source: content}, nil
}

func (s *Scanner) excludedDir(path string) bool {
	normalized := filepath.ToSlash(path)
	for _, g := range s.excludeDirs {
		if g.Match(normalized) || g.Match(filepath.Base(path)) {
			return true
		}
	}
	return false
}

func (s *Scanner) excludedFile(path string) bool {
	normalized := filepath.ToSlash(path)
	for _, g := range s.excludeFiles {
		if g.Match(normalized) || g.Match(filepath.Base(path)) {
			return true
		}
	}
	return false
}
